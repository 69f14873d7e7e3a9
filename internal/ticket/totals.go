package ticket

import "github.com/shopspring/decimal"

// ChargePolicy decides whether a payment type carries the service charge and
// at what rate.
type ChargePolicy struct {
	Rate    decimal.Decimal
	charged map[int]struct{}
}

func NewChargePolicy(rate float64, chargedTypes []int) ChargePolicy {
	charged := make(map[int]struct{}, len(chargedTypes))
	for _, pt := range chargedTypes {
		charged[pt] = struct{}{}
	}
	return ChargePolicy{
		Rate:    decimal.NewFromFloat(rate),
		charged: charged,
	}
}

// DefaultChargePolicy is the house rule: 7% on dine-in and card payments.
func DefaultChargePolicy() ChargePolicy {
	return NewChargePolicy(0.07, []int{1, 3})
}

func (p ChargePolicy) Applies(paymentType int) bool {
	_, ok := p.charged[paymentType]
	return ok
}

// Totals are always derived from the lines, never stored. ServiceCharge
// keeps full precision here; rounding to a whole unit happens once, when the
// save payload is built.
type Totals struct {
	Quantity      decimal.Decimal
	NetAmount     decimal.Decimal
	ServiceCharge decimal.Decimal
	GrandTotal    decimal.Decimal
}

func ComputeTotals(t Ticket, policy ChargePolicy) Totals {
	totals := Totals{
		Quantity:      decimal.Zero,
		NetAmount:     decimal.Zero,
		ServiceCharge: decimal.Zero,
	}
	for _, line := range t.Lines {
		totals.Quantity = totals.Quantity.Add(line.Qty)
		totals.NetAmount = totals.NetAmount.Add(line.NetAmount)
	}
	if policy.Applies(t.PaymentType) {
		totals.ServiceCharge = totals.NetAmount.Mul(policy.Rate)
	}
	totals.GrandTotal = totals.NetAmount.Add(totals.ServiceCharge)
	return totals
}
