package ticket

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cloudpos/internal/erp"
)

// State of the reconciliation machine: Idle -> Fetching -> Ready -> Saving
// -> (Ready | Error).
type State int

const (
	StateIdle State = iota
	StateFetching
	StateReady
	StateSaving
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateReady:
		return "ready"
	case StateSaving:
		return "saving"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// SaleService is the order-service capability the editor needs. *erp.Client
// satisfies it; tests inject fakes.
type SaleService interface {
	GetSale(ctx context.Context, vocNo int) (erp.Sale, error)
	UpdateSale(ctx context.Context, sale erp.Sale) error
}

// Editor drives one editing session of one ticket: fetch the authoritative
// record, apply local mutations, save, refetch to confirm. It never retries
// on its own and never drops local edits on a failed save.
type Editor struct {
	svc    SaleService
	policy ChargePolicy
	logger *zap.Logger

	mu              sync.Mutex
	store           Store
	state           State
	vocNo           int
	session         uuid.UUID
	selection       *Selection
	selectionMerged bool
	fetchSeq        uint64
}

func NewEditor(svc SaleService, policy ChargePolicy, logger *zap.Logger) *Editor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Editor{
		svc:    svc,
		policy: policy,
		logger: logger.Named("ticket"),
		state:  StateIdle,
	}
}

// Open starts a new editing session for the given voucher. A picker
// selection, if present, is merged into the fetched ticket exactly once for
// the lifetime of the session; later refreshes never reapply it.
func (e *Editor) Open(ctx context.Context, vocNo int, sel *Selection) error {
	e.mu.Lock()
	e.vocNo = vocNo
	e.session = uuid.New()
	e.selectionMerged = false
	if sel != nil {
		s := *sel
		e.selection = &s
	} else {
		e.selection = nil
	}
	session := e.session
	e.mu.Unlock()

	e.logger.Info("session opened",
		zap.String("session", session.String()),
		zap.Int("voc_no", vocNo),
		zap.Bool("has_selection", sel != nil),
	)
	return e.fetch(ctx, true)
}

// Refresh refetches the current ticket without re-merging any selection.
func (e *Editor) Refresh(ctx context.Context) error {
	e.mu.Lock()
	if e.state == StateIdle {
		e.mu.Unlock()
		return ErrNotReady
	}
	e.mu.Unlock()
	return e.fetch(ctx, false)
}

// Save transmits the full ticket, zero-quantity rows included, then
// refetches so the local view reflects server-confirmed state. On failure
// the last snapshot stays intact for a retry.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.state == StateFetching || e.state == StateSaving {
		e.mu.Unlock()
		return ErrBusy
	}
	snap, ok := e.store.Snapshot()
	if !ok {
		e.mu.Unlock()
		return ErrNotReady
	}
	payload := ToSale(snap, e.policy)
	e.state = StateSaving
	session := e.session
	e.mu.Unlock()

	err := e.svc.UpdateSale(ctx, payload)

	e.mu.Lock()
	if err != nil {
		e.state = StateError
		e.mu.Unlock()
		e.logger.Warn("save failed",
			zap.String("session", session.String()),
			zap.Int("voc_no", payload.VocNo),
			zap.Error(err),
		)
		return err
	}
	e.state = StateReady
	e.mu.Unlock()

	e.logger.Info("saved",
		zap.String("session", session.String()),
		zap.Int("voc_no", payload.VocNo),
		zap.String("service_charge", payload.SCharges.String()),
	)
	return e.fetch(ctx, false)
}

func (e *Editor) fetch(ctx context.Context, allowMerge bool) error {
	e.mu.Lock()
	if e.state == StateSaving {
		e.mu.Unlock()
		return ErrBusy
	}
	e.state = StateFetching
	e.fetchSeq++
	seq := e.fetchSeq
	vocNo := e.vocNo
	session := e.session
	e.mu.Unlock()

	sale, err := e.svc.GetSale(ctx, vocNo)

	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.fetchSeq {
		// A newer fetch took over while this one was in flight.
		return ErrSuperseded
	}
	if err != nil {
		e.store.Clear()
		e.state = StateError
		e.logger.Warn("fetch failed",
			zap.String("session", session.String()),
			zap.Int("voc_no", vocNo),
			zap.Error(err),
		)
		return err
	}

	t := FromSale(sale)
	if allowMerge && e.selection != nil && !e.selectionMerged {
		t = MergeSelection(t, *e.selection)
		e.selectionMerged = true
	}
	if err := e.store.Load(t); err != nil {
		e.store.Clear()
		e.state = StateError
		return err
	}
	e.state = StateReady
	return nil
}

// AdjustQuantity adds delta to a line's quantity, clamping at zero.
func (e *Editor) AdjustQuantity(index int, delta int64) error {
	return e.mutate(func(t Ticket) (Ticket, error) {
		return AdjustQuantity(t, index, decimal.NewFromInt(delta))
	})
}

// SetQuantity sets a line's quantity from raw text entry.
func (e *Editor) SetQuantity(index int, raw string) error {
	return e.mutate(func(t Ticket) (Ticket, error) {
		return SetQuantity(t, index, raw)
	})
}

// RemoveLine soft-deletes a line by zeroing it.
func (e *Editor) RemoveLine(index int) error {
	return e.mutate(func(t Ticket) (Ticket, error) {
		return RemoveLine(t, index)
	})
}

func (e *Editor) mutate(op func(Ticket) (Ticket, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateFetching || e.state == StateSaving {
		return ErrBusy
	}
	snap, ok := e.store.Snapshot()
	if !ok {
		return ErrNotReady
	}
	next, err := op(snap)
	if err != nil {
		return err
	}
	if err := e.store.Load(next); err != nil {
		return err
	}
	e.state = StateReady
	return nil
}

// Snapshot returns the ticket as currently held.
func (e *Editor) Snapshot() (Ticket, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap, ok := e.store.Snapshot()
	if !ok {
		return Ticket{}, ErrNotReady
	}
	return snap, nil
}

// Totals recomputes the derived totals from the current snapshot.
func (e *Editor) Totals() (Totals, error) {
	snap, err := e.Snapshot()
	if err != nil {
		return Totals{}, err
	}
	return ComputeTotals(snap, e.policy), nil
}

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Editor) VocNo() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vocNo
}

func (e *Editor) Session() uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}
