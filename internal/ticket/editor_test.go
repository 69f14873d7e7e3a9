package ticket

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cloudpos/internal/erp"
)

type fakeSaleService struct {
	getSale    func(ctx context.Context, vocNo int) (erp.Sale, error)
	updateSale func(ctx context.Context, sale erp.Sale) error
}

func (f *fakeSaleService) GetSale(ctx context.Context, vocNo int) (erp.Sale, error) {
	return f.getSale(ctx, vocNo)
}

func (f *fakeSaleService) UpdateSale(ctx context.Context, sale erp.Sale) error {
	if f.updateSale == nil {
		return nil
	}
	return f.updateSale(ctx, sale)
}

// saleFixture carries a deliberately wrong NetAmount on each line to prove
// the engine recomputes nets on load instead of trusting the wire.
func saleFixture() erp.Sale {
	return erp.Sale{
		VocNo: 1001,
		Date:  "2024-10-14",
		TblNo: 5,
		PType: 1,
		Trans: []erp.SaleLine{
			{ProductID: 10, ProdName: "Karahi", Qty: decimal.NewFromInt(2), Rate: decimal.NewFromInt(100), NetAmount: decimal.NewFromInt(999)},
			{ProductID: 20, ProdName: "Naan", Qty: decimal.NewFromInt(3), Rate: decimal.NewFromInt(50), NetAmount: decimal.NewFromInt(1)},
		},
	}
}

func newTestEditor(svc SaleService) *Editor {
	return NewEditor(svc, DefaultChargePolicy(), zap.NewNop())
}

func TestEditorOpenLoadsSnapshot(t *testing.T) {
	svc := &fakeSaleService{
		getSale: func(_ context.Context, vocNo int) (erp.Sale, error) {
			return saleFixture(), nil
		},
	}
	e := newTestEditor(svc)

	require.NoError(t, e.Open(context.Background(), 1001, nil))
	assert.Equal(t, StateReady, e.State())

	snap, err := e.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Lines, 2)
	assertNetInvariant(t, snap)

	totals, err := e.Totals()
	require.NoError(t, err)
	assert.True(t, totals.NetAmount.Equal(dec(t, "350")))
	assert.True(t, totals.ServiceCharge.Equal(dec(t, "24.5")))
	assert.True(t, totals.GrandTotal.Equal(dec(t, "374.5")))
}

func TestEditorOpenFailureLeavesNoStaleState(t *testing.T) {
	calls := 0
	svc := &fakeSaleService{
		getSale: func(_ context.Context, vocNo int) (erp.Sale, error) {
			calls++
			if calls == 1 {
				return saleFixture(), nil
			}
			return erp.Sale{}, errors.New("dial tcp: i/o timeout")
		},
	}
	e := newTestEditor(svc)

	require.NoError(t, e.Open(context.Background(), 1001, nil))

	err := e.Open(context.Background(), 1002, nil)
	require.Error(t, err)
	assert.Equal(t, StateError, e.State())

	_, err = e.Snapshot()
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestEditorOpenNotFound(t *testing.T) {
	svc := &fakeSaleService{
		getSale: func(_ context.Context, vocNo int) (erp.Sale, error) {
			return erp.Sale{}, erp.ErrNotFound
		},
	}
	e := newTestEditor(svc)

	err := e.Open(context.Background(), 42, nil)
	assert.ErrorIs(t, err, erp.ErrNotFound)
	assert.Equal(t, StateError, e.State())
}

func TestEditorMutationsRequireOpenTicket(t *testing.T) {
	e := newTestEditor(&fakeSaleService{})

	assert.ErrorIs(t, e.AdjustQuantity(0, 1), ErrNotReady)
	assert.ErrorIs(t, e.SetQuantity(0, "1"), ErrNotReady)
	assert.ErrorIs(t, e.RemoveLine(0), ErrNotReady)
	assert.ErrorIs(t, e.Refresh(context.Background()), ErrNotReady)
	assert.ErrorIs(t, e.Save(context.Background()), ErrNotReady)
}

func TestEditorSelectionMergedAtMostOncePerSession(t *testing.T) {
	svc := &fakeSaleService{
		getSale: func(_ context.Context, vocNo int) (erp.Sale, error) {
			return saleFixture(), nil
		},
	}
	e := newTestEditor(svc)
	sel := &Selection{ProductID: 77, Name: "Biryani", Price: decimal.NewFromInt(120)}

	require.NoError(t, e.Open(context.Background(), 1001, sel))

	snap, err := e.Snapshot()
	require.NoError(t, err)
	for _, line := range snap.Lines {
		assert.Equal(t, "Biryani", line.Name)
		assert.True(t, line.Rate.Equal(decimal.NewFromInt(120)))
	}

	// Save triggers a confirming refetch; the stale selection must not be
	// reapplied to the server-confirmed state.
	require.NoError(t, e.Save(context.Background()))

	snap, err = e.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "Karahi", snap.Lines[0].Name)
	assert.Equal(t, "Naan", snap.Lines[1].Name)

	// An explicit refresh does not re-merge either.
	require.NoError(t, e.Refresh(context.Background()))
	snap, err = e.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "Karahi", snap.Lines[0].Name)
}

func TestEditorSelectionMergesAgainOnNewSession(t *testing.T) {
	svc := &fakeSaleService{
		getSale: func(_ context.Context, vocNo int) (erp.Sale, error) {
			return saleFixture(), nil
		},
	}
	e := newTestEditor(svc)
	sel := &Selection{ProductID: 77, Name: "Biryani", Price: decimal.NewFromInt(120)}

	require.NoError(t, e.Open(context.Background(), 1001, sel))
	first := e.Session()

	require.NoError(t, e.Open(context.Background(), 1001, sel))
	assert.NotEqual(t, first, e.Session())

	snap, err := e.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "Biryani", snap.Lines[0].Name)
}

func TestEditorSavePayload(t *testing.T) {
	var saved erp.Sale
	svc := &fakeSaleService{
		getSale: func(_ context.Context, vocNo int) (erp.Sale, error) {
			return saleFixture(), nil
		},
		updateSale: func(_ context.Context, sale erp.Sale) error {
			saved = sale
			return nil
		},
	}
	e := newTestEditor(svc)

	require.NoError(t, e.Open(context.Background(), 1001, nil))
	require.NoError(t, e.RemoveLine(1))
	require.NoError(t, e.Save(context.Background()))

	// Both rows travel, the zeroed one marked deleted, charge rounded once.
	require.Len(t, saved.Trans, 2)
	assert.True(t, saved.Trans[1].Qty.IsZero())
	assert.Equal(t, 1, saved.Trans[1].IsDeleted)
	assert.True(t, saved.SCharges.Equal(decimal.NewFromInt(14))) // round(200 * 0.07)
	assert.Equal(t, StateReady, e.State())
}

func TestEditorSaveFailureKeepsEdits(t *testing.T) {
	fail := true
	svc := &fakeSaleService{
		getSale: func(_ context.Context, vocNo int) (erp.Sale, error) {
			return saleFixture(), nil
		},
		updateSale: func(_ context.Context, sale erp.Sale) error {
			if fail {
				return erp.ErrSaveRejected
			}
			return nil
		},
	}
	e := newTestEditor(svc)

	require.NoError(t, e.Open(context.Background(), 1001, nil))
	require.NoError(t, e.AdjustQuantity(0, 1))

	err := e.Save(context.Background())
	assert.ErrorIs(t, err, erp.ErrSaveRejected)
	assert.Equal(t, StateError, e.State())

	// The local edit survives the failed save.
	snap, err := e.Snapshot()
	require.NoError(t, err)
	assert.True(t, snap.Lines[0].Qty.Equal(decimal.NewFromInt(3)))

	// And a retry goes through.
	fail = false
	require.NoError(t, e.Save(context.Background()))
	assert.Equal(t, StateReady, e.State())
}

func TestEditorStaleFetchDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32

	svc := &fakeSaleService{
		getSale: func(_ context.Context, vocNo int) (erp.Sale, error) {
			sale := saleFixture()
			sale.VocNo = vocNo
			if atomic.AddInt32(&calls, 1) == 1 {
				close(started)
				<-release
			}
			return sale, nil
		},
	}
	e := newTestEditor(svc)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Open(context.Background(), 1, nil)
	}()
	<-started

	// A second open supersedes the slow in-flight fetch.
	require.NoError(t, e.Open(context.Background(), 2, nil))
	close(release)

	assert.ErrorIs(t, <-errCh, ErrSuperseded)

	snap, err := e.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 2, snap.VocNo)
	assert.Equal(t, StateReady, e.State())
}

func TestStoreLoadRejectsMissingLines(t *testing.T) {
	var s Store
	assert.ErrorIs(t, s.Load(Ticket{VocNo: 1}), ErrNoLines)

	_, ok := s.Snapshot()
	assert.False(t, ok)
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	var s Store
	require.NoError(t, s.Load(FromSale(saleFixture())))

	snap, ok := s.Snapshot()
	require.True(t, ok)
	snap.Lines[0].Qty = decimal.NewFromInt(99)

	again, ok := s.Snapshot()
	require.True(t, ok)
	assert.True(t, again.Lines[0].Qty.Equal(decimal.NewFromInt(2)))
}
