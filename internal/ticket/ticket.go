package ticket

import (
	"github.com/shopspring/decimal"

	"cloudpos/internal/erp"
)

// LineItem is one product row of an open sale ticket. NetAmount is derived,
// always Qty times Rate; it is recomputed after every mutation and never set
// directly.
type LineItem struct {
	ProductID int
	Name      string
	Rate      decimal.Decimal
	Qty       decimal.Decimal
	NetAmount decimal.Decimal
}

// Active reports whether the row still counts; removed rows stay in the
// sequence with zero quantity.
func (l LineItem) Active() bool {
	return l.Qty.IsPositive()
}

// Ticket is the in-memory snapshot of one open sale being edited.
type Ticket struct {
	VocNo       int
	Date        string
	TableNo     int
	PaymentType int
	Lines       []LineItem
}

func (t Ticket) clone() Ticket {
	out := t
	out.Lines = make([]LineItem, len(t.Lines))
	copy(out.Lines, t.Lines)
	return out
}

// Selection is the transient result of the product picker, consumed at most
// once per editing session by MergeSelection.
type Selection struct {
	ProductID int
	Name      string
	Price     decimal.Decimal
}

// FromSale maps the wire ticket into a snapshot. Line nets are always
// recomputed from quantity and rate, never taken from the wire.
func FromSale(sale erp.Sale) Ticket {
	t := Ticket{
		VocNo:       sale.VocNo,
		Date:        sale.Date,
		TableNo:     sale.TblNo,
		PaymentType: sale.PType,
		Lines:       make([]LineItem, 0, len(sale.Trans)),
	}
	for _, line := range sale.Trans {
		qty := line.Qty
		if qty.IsNegative() {
			qty = decimal.Zero
		}
		t.Lines = append(t.Lines, LineItem{
			ProductID: line.ProductID,
			Name:      line.ProdName,
			Rate:      line.Rate,
			Qty:       qty,
			NetAmount: qty.Mul(line.Rate),
		})
	}
	return t
}

// ToSale builds the outbound payload for a save. Every line is transmitted,
// zero-quantity ones marked deleted, and the service charge is rounded to a
// whole currency unit here and nowhere else.
func ToSale(t Ticket, policy ChargePolicy) erp.Sale {
	totals := ComputeTotals(t, policy)

	sale := erp.Sale{
		VocNo:    t.VocNo,
		Date:     t.Date,
		TblNo:    t.TableNo,
		PType:    t.PaymentType,
		SCharges: totals.ServiceCharge.Round(0),
		Trans:    make([]erp.SaleLine, 0, len(t.Lines)),
	}
	for _, line := range t.Lines {
		wire := erp.SaleLine{
			ProductID: line.ProductID,
			ProdName:  line.Name,
			Qty:       line.Qty,
			PQty:      line.Qty,
			Rate:      line.Rate,
			NetAmount: line.NetAmount,
		}
		if !line.Active() {
			wire.IsDeleted = 1
		}
		sale.Trans = append(sale.Trans, wire)
	}
	return sale
}
