package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"cloudpos/internal/erp"
	"cloudpos/internal/ticket"
)

func stdout() io.Writer {
	return os.Stdout
}

type lineView struct {
	Index     int             `json:"index"`
	ProductID int             `json:"product_id"`
	Name      string          `json:"name"`
	Qty       decimal.Decimal `json:"qty"`
	Rate      decimal.Decimal `json:"rate"`
	NetAmount decimal.Decimal `json:"net_amount"`
	Active    bool            `json:"active"`
}

type totalsView struct {
	Quantity      decimal.Decimal `json:"quantity"`
	NetAmount     decimal.Decimal `json:"net_amount"`
	ServiceCharge decimal.Decimal `json:"service_charge"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
}

type ticketView struct {
	VocNo       int        `json:"voc_no"`
	Date        string     `json:"date"`
	TableNo     int        `json:"table_no"`
	PaymentType int        `json:"payment_type"`
	State       string     `json:"state"`
	Lines       []lineView `json:"lines"`
	Totals      totalsView `json:"totals"`
}

func newTicketView(t ticket.Ticket, totals ticket.Totals, state ticket.State) ticketView {
	view := ticketView{
		VocNo:       t.VocNo,
		Date:        t.Date,
		TableNo:     t.TableNo,
		PaymentType: t.PaymentType,
		State:       state.String(),
		Lines:       make([]lineView, 0, len(t.Lines)),
		Totals: totalsView{
			Quantity:      totals.Quantity,
			NetAmount:     totals.NetAmount,
			ServiceCharge: totals.ServiceCharge,
			GrandTotal:    totals.GrandTotal,
		},
	}
	for i, line := range t.Lines {
		view.Lines = append(view.Lines, lineView{
			Index:     i,
			ProductID: line.ProductID,
			Name:      line.Name,
			Qty:       line.Qty,
			Rate:      line.Rate,
			NetAmount: line.NetAmount,
			Active:    line.Active(),
		})
	}
	return view
}

func (s *session) writeResult(result any) error {
	if s.opts.JSON {
		return json.NewEncoder(stdout()).Encode(result)
	}

	switch v := result.(type) {
	case []erp.Product:
		renderProducts(stdout(), v)
	case []erp.SalesRow:
		renderSales(stdout(), v)
	case []erp.SalesSummaryRow:
		renderSummary(stdout(), v)
	case ticketView:
		renderTicket(stdout(), v)
	default:
		fmt.Fprintln(stdout(), v)
	}
	return nil
}

func renderProducts(w io.Writer, products []erp.Product) {
	if len(products) == 0 {
		fmt.Fprintln(w, "No products.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tProduct\tPrice")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", p.ProductID, p.ProdName, p.ListRate)
	}
	tw.Flush()
}

func renderSales(w io.Writer, rows []erp.SalesRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No sales in range.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Voc\tDate\tProduct\tQty\tAmount")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.VocNo, r.Date, r.ProdName, r.Qty, r.NetAmount)
	}
	tw.Flush()
}

func renderSummary(w io.Writer, rows []erp.SalesSummaryRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No sales in range.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Invoice\tProducts\tAmount")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%d\t%s\n", r.VocNo, r.CntProds, r.NetAmount)
	}
	tw.Flush()
}

func renderTicket(w io.Writer, v ticketView) {
	fmt.Fprintf(w, "VocNo: %d  Date: %s  Table: %d  PType: %d  [%s]\n",
		v.VocNo, v.Date, v.TableNo, v.PaymentType, v.State)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tProduct\tQty\tRate\tAmount")
	for _, line := range v.Lines {
		name := line.Name
		if !line.Active {
			name += " (removed)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", line.Index, name, line.Qty, line.Rate, line.NetAmount)
	}
	fmt.Fprintln(tw, "\tTotal\t"+v.Totals.Quantity.String()+"\t\t"+v.Totals.NetAmount.String())
	fmt.Fprintln(tw, "\tSCharges\t\t\t"+v.Totals.ServiceCharge.String())
	fmt.Fprintln(tw, "\tG.Total\t\t\t"+v.Totals.GrandTotal.String())
	tw.Flush()
}
