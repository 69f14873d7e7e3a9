package ticket

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func twoLineTicket(t *testing.T) Ticket {
	return Ticket{
		VocNo:       1001,
		Date:        "2024-10-14",
		TableNo:     5,
		PaymentType: 1,
		Lines: []LineItem{
			{ProductID: 10, Name: "Karahi", Rate: dec(t, "100"), Qty: dec(t, "2"), NetAmount: dec(t, "200")},
			{ProductID: 20, Name: "Naan", Rate: dec(t, "50"), Qty: dec(t, "3"), NetAmount: dec(t, "150")},
		},
	}
}

func assertNetInvariant(t *testing.T, tk Ticket) {
	t.Helper()
	for i, line := range tk.Lines {
		assert.True(t, line.NetAmount.Equal(line.Qty.Mul(line.Rate)),
			"line %d: net %s != qty %s * rate %s", i, line.NetAmount, line.Qty, line.Rate)
		assert.False(t, line.Qty.IsNegative(), "line %d: negative qty %s", i, line.Qty)
	}
}

func TestAdjustQuantity(t *testing.T) {
	tests := []struct {
		name    string
		index   int
		delta   string
		wantQty string
		wantNet string
	}{
		{name: "increment", index: 0, delta: "1", wantQty: "3", wantNet: "300"},
		{name: "decrement", index: 1, delta: "-1", wantQty: "2", wantNet: "100"},
		{name: "clampsBelowZero", index: 0, delta: "-5", wantQty: "0", wantNet: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := twoLineTicket(t)
			got, err := AdjustQuantity(tk, tt.index, dec(t, tt.delta))
			require.NoError(t, err)

			assert.True(t, got.Lines[tt.index].Qty.Equal(dec(t, tt.wantQty)))
			assert.True(t, got.Lines[tt.index].NetAmount.Equal(dec(t, tt.wantNet)))
			assertNetInvariant(t, got)
		})
	}
}

func TestAdjustQuantityAtZeroStaysZero(t *testing.T) {
	tk := twoLineTicket(t)
	tk, err := SetQuantity(tk, 0, "0")
	require.NoError(t, err)

	tk, err = AdjustQuantity(tk, 0, dec(t, "-1"))
	require.NoError(t, err)

	assert.True(t, tk.Lines[0].Qty.IsZero())
	assert.True(t, tk.Lines[0].NetAmount.IsZero())
}

func TestAdjustQuantityIndexOutOfRange(t *testing.T) {
	tk := twoLineTicket(t)
	for _, index := range []int{-1, 2, 99} {
		_, err := AdjustQuantity(tk, index, dec(t, "1"))
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "index %d", index)
	}
}

func TestSetQuantity(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantQty string
	}{
		{name: "integer", raw: "4", wantQty: "4"},
		{name: "decimalFraction", raw: "1.5", wantQty: "1.5"},
		{name: "nonNumericBecomesZero", raw: "abc", wantQty: "0"},
		{name: "emptyBecomesZero", raw: "", wantQty: "0"},
		{name: "negativeBecomesZero", raw: "-3", wantQty: "0"},
		{name: "whitespaceTrimmed", raw: " 2 ", wantQty: "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := twoLineTicket(t)
			got, err := SetQuantity(tk, 0, tt.raw)
			require.NoError(t, err)

			assert.True(t, got.Lines[0].Qty.Equal(dec(t, tt.wantQty)))
			assertNetInvariant(t, got)
		})
	}
}

func TestSetQuantityIndexOutOfRange(t *testing.T) {
	tk := twoLineTicket(t)
	_, err := SetQuantity(tk, 5, "1")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestRemoveLineKeepsRow(t *testing.T) {
	tk := twoLineTicket(t)
	got, err := RemoveLine(tk, 1)
	require.NoError(t, err)

	require.Len(t, got.Lines, 2)
	assert.True(t, got.Lines[1].Qty.IsZero())
	assert.True(t, got.Lines[1].NetAmount.IsZero())
	assert.False(t, got.Lines[1].Active())
	assert.True(t, got.Lines[0].Active())
}

func TestMergeSelectionOverwritesEveryLine(t *testing.T) {
	tk := twoLineTicket(t)
	sel := Selection{ProductID: 77, Name: "Biryani", Price: dec(t, "120")}

	got := MergeSelection(tk, sel)

	require.Len(t, got.Lines, 2)
	for i, line := range got.Lines {
		assert.Equal(t, 77, line.ProductID, "line %d", i)
		assert.Equal(t, "Biryani", line.Name, "line %d", i)
		assert.True(t, line.Rate.Equal(sel.Price), "line %d", i)
	}
	// Quantities survive, nets follow the new rate.
	assert.True(t, got.Lines[0].NetAmount.Equal(dec(t, "240")))
	assert.True(t, got.Lines[1].NetAmount.Equal(dec(t, "360")))
	assertNetInvariant(t, got)
}

func TestMutationsDoNotTouchInput(t *testing.T) {
	tk := twoLineTicket(t)

	_, err := AdjustQuantity(tk, 0, dec(t, "5"))
	require.NoError(t, err)
	_, err = SetQuantity(tk, 1, "9")
	require.NoError(t, err)
	_ = MergeSelection(tk, Selection{ProductID: 1, Name: "x", Price: dec(t, "1")})

	assert.True(t, tk.Lines[0].Qty.Equal(dec(t, "2")))
	assert.True(t, tk.Lines[1].Qty.Equal(dec(t, "3")))
	assert.Equal(t, "Karahi", tk.Lines[0].Name)
	assert.True(t, tk.Lines[1].Rate.Equal(dec(t, "50")))
}

func TestNetInvariantUnderMutationSequences(t *testing.T) {
	tk := twoLineTicket(t)

	steps := []func(Ticket) (Ticket, error){
		func(tk Ticket) (Ticket, error) { return AdjustQuantity(tk, 0, dec(t, "1")) },
		func(tk Ticket) (Ticket, error) { return SetQuantity(tk, 1, "7") },
		func(tk Ticket) (Ticket, error) { return AdjustQuantity(tk, 1, dec(t, "-10")) },
		func(tk Ticket) (Ticket, error) { return SetQuantity(tk, 0, "junk") },
		func(tk Ticket) (Ticket, error) { return RemoveLine(tk, 0) },
		func(tk Ticket) (Ticket, error) { return AdjustQuantity(tk, 0, dec(t, "2")) },
	}

	for i, step := range steps {
		var err error
		tk, err = step(tk)
		require.NoError(t, err, "step %d", i)
		assertNetInvariant(t, tk)
	}
}
