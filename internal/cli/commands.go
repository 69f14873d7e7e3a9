package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cloudpos/internal/erp"
	"cloudpos/internal/ticket"

	"go.uber.org/zap"
)

const commandHelp = `  login                     authenticate with the configured credentials
  products [query]          list products, optionally filtered by name or id
  sales [from] [to]         sold items for a date range (default today)
  summary [from] [to]       per-voucher sales summary (default today)
  open <vocNo> [productId]  open a ticket for editing, optionally merging a picked product
  show                      render the open ticket
  refresh                   refetch the open ticket from the server
  + <line>  /  - <line>     bump a line's quantity up or down
  set <line> <qty>          set a line's quantity
  del <line>                zero a line (kept in the ticket, sent on save)
  save                      persist the ticket, then refetch to confirm
  exit                      quit
`

type session struct {
	opts   *Options
	logger *zap.Logger
	client *erp.Client
	editor *ticket.Editor
}

func (s *session) dispatch(ctx context.Context, fields []string) error {
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	s.logger.Info("command received", zap.String("cmd", cmd), zap.Strings("args", args))

	switch cmd {
	case "login":
		return s.login(ctx)
	case "products":
		return s.products(ctx, args)
	case "sales":
		return s.sales(ctx, args)
	case "summary":
		return s.summary(ctx, args)
	case "open":
		return s.open(ctx, args)
	case "show":
		return s.show()
	case "refresh":
		if err := s.editor.Refresh(ctx); err != nil {
			return err
		}
		return s.show()
	case "+", "-":
		return s.adjust(cmd, args)
	case "set":
		return s.setQty(args)
	case "del":
		return s.remove(args)
	case "save":
		if err := s.editor.Save(ctx); err != nil {
			return err
		}
		return s.show()
	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
}

func (s *session) login(ctx context.Context) error {
	token, err := s.client.Login(ctx, erp.Credentials{
		Username:     s.opts.Username,
		Password:     s.opts.Password,
		CompanyEmail: s.opts.CompanyEmail,
	})
	if err != nil {
		return err
	}
	s.opts.Token = token
	fmt.Fprintln(stdout(), "Logged in.")
	return nil
}

func (s *session) products(ctx context.Context, args []string) error {
	products, err := s.client.ListProducts(ctx)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		products = filterProducts(products, strings.Join(args, " "))
	}
	return s.writeResult(products)
}

// filterProducts matches the picker's search: substring of the name or the
// numeric id, case-insensitive.
func filterProducts(products []erp.Product, query string) []erp.Product {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return products
	}
	var out []erp.Product
	for _, p := range products {
		name := strings.ToLower(p.ProdName)
		id := strconv.Itoa(p.ProductID)
		if strings.Contains(name, needle) || strings.Contains(id, needle) {
			out = append(out, p)
		}
	}
	return out
}

func (s *session) sales(ctx context.Context, args []string) error {
	from, to, err := resolveRange(args, s.opts)
	if err != nil {
		return err
	}
	rows, err := s.client.SalesList(ctx, from, to)
	if err != nil {
		return err
	}
	return s.writeResult(rows)
}

func (s *session) summary(ctx context.Context, args []string) error {
	from, to, err := resolveRange(args, s.opts)
	if err != nil {
		return err
	}
	rows, err := s.client.SalesSummary(ctx, from, to)
	if err != nil {
		return err
	}
	return s.writeResult(rows)
}

func (s *session) open(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: open <vocNo> [productId]")
	}
	vocNo, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid voucher number %q", args[0])
	}

	var sel *ticket.Selection
	if len(args) > 1 {
		productID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[1])
		}
		sel, err = s.lookupSelection(ctx, productID)
		if err != nil {
			return err
		}
	}

	if err := s.editor.Open(ctx, vocNo, sel); err != nil {
		return err
	}
	return s.show()
}

func (s *session) lookupSelection(ctx context.Context, productID int) (*ticket.Selection, error) {
	products, err := s.client.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		if p.ProductID == productID {
			return &ticket.Selection{
				ProductID: p.ProductID,
				Name:      p.ProdName,
				Price:     p.ListRate,
			}, nil
		}
	}
	return nil, fmt.Errorf("product %d not found", productID)
}

func (s *session) show() error {
	snap, err := s.editor.Snapshot()
	if err != nil {
		return err
	}
	totals, err := s.editor.Totals()
	if err != nil {
		return err
	}
	return s.writeResult(newTicketView(snap, totals, s.editor.State()))
}

func (s *session) adjust(cmd string, args []string) error {
	index, err := parseIndex(args, 0)
	if err != nil {
		return err
	}
	delta := int64(1)
	if cmd == "-" {
		delta = -1
	}
	if err := s.editor.AdjustQuantity(index, delta); err != nil {
		return err
	}
	return s.show()
}

func (s *session) setQty(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: set <line> <qty>")
	}
	index, err := parseIndex(args, 0)
	if err != nil {
		return err
	}
	if err := s.editor.SetQuantity(index, args[1]); err != nil {
		return err
	}
	return s.show()
}

func (s *session) remove(args []string) error {
	index, err := parseIndex(args, 0)
	if err != nil {
		return err
	}
	if err := s.editor.RemoveLine(index); err != nil {
		return err
	}
	return s.show()
}

func parseIndex(args []string, pos int) (int, error) {
	if len(args) <= pos {
		return 0, fmt.Errorf("missing line number")
	}
	index, err := strconv.Atoi(args[pos])
	if err != nil {
		return 0, fmt.Errorf("invalid line number %q", args[pos])
	}
	return index, nil
}
