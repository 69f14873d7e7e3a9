package ticket

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Mutations are pure: each takes a snapshot, returns a new one with the
// per-line net recomputed, and never touches its input.

// AdjustQuantity adds delta to the line's quantity, clamping at zero.
func AdjustQuantity(t Ticket, index int, delta decimal.Decimal) (Ticket, error) {
	if index < 0 || index >= len(t.Lines) {
		return Ticket{}, ErrIndexOutOfRange
	}

	out := t.clone()
	line := &out.Lines[index]
	line.Qty = line.Qty.Add(delta)
	if line.Qty.IsNegative() {
		line.Qty = decimal.Zero
	}
	line.NetAmount = line.Qty.Mul(line.Rate)
	return out, nil
}

// SetQuantity sets the quantity from raw text entry. Unparsable or negative
// input becomes zero rather than an error.
func SetQuantity(t Ticket, index int, raw string) (Ticket, error) {
	if index < 0 || index >= len(t.Lines) {
		return Ticket{}, ErrIndexOutOfRange
	}

	qty, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || qty.IsNegative() {
		qty = decimal.Zero
	}

	out := t.clone()
	line := &out.Lines[index]
	line.Qty = qty
	line.NetAmount = line.Qty.Mul(line.Rate)
	return out, nil
}

// RemoveLine zeroes the line instead of splicing it out; the row stays in
// the sequence and is still transmitted on save.
func RemoveLine(t Ticket, index int) (Ticket, error) {
	return SetQuantity(t, index, "0")
}

// MergeSelection overlays the picked product onto every line of the ticket:
// id, name and rate are replaced and nets recomputed against the selection
// price. Every line ends up carrying the same product; that is the deployed
// behavior and is kept as-is.
func MergeSelection(t Ticket, sel Selection) Ticket {
	out := t.clone()
	for i := range out.Lines {
		line := &out.Lines[i]
		line.ProductID = sel.ProductID
		line.Name = sel.Name
		line.Rate = sel.Price
		line.NetAmount = line.Qty.Mul(sel.Price)
	}
	return out
}
