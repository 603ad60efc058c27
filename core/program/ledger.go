package program

import (
	"context"
	"fmt"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/aspirasi/relawan/core"
)

type (
	// QuotaStore performs the quota counter updates at the storage layer.
	QuotaStore interface {
		// IncrementQuota increments quota_consumed only if it is below quota.
		// ok is false when the quota is exhausted.
		IncrementQuota(ctx context.Context, programID int64) (ok bool, err error)
		// DecrementQuota decrements quota_consumed only if it is above 0.
		// ok is false when it already was 0.
		DecrementQuota(ctx context.Context, programID int64) (ok bool, err error)
	}

	// ReconcileStore is what Ledger.Reconcile needs, inside a unit of work holding the program lock.
	ReconcileStore interface {
		Locker
		CountHeldReservations(ctx context.Context, programID int64) (int, error)
		SetQuotaConsumed(ctx context.Context, programID int64, consumed int) error
	}
)

// Ledger guards aid program capacity. It is the only writer of Program.QuotaConsumed.
type Ledger struct {
	loc    *time.Location
	logger core.Logger
}

func NewLedger(conf *core.Config, logger core.Logger) *Ledger {
	vala.BeginValidation().Validate(
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Ledger{loc: conf.Location(), logger: logger}
}

// IsAvailable reports whether p accepts new applications today.
func (l *Ledger) IsAvailable(p Program) bool {
	if p.Status != StatusActive || p.QuotaConsumed >= p.Quota {
		return false
	}
	today := core.Today(l.loc)
	return !today.Before(core.Date(p.WindowStart, time.UTC)) && !today.After(core.Date(p.WindowEnd, time.UTC))
}

// Reserve takes one unit of p's quota. It must run in the same unit of work as the write that triggers it.
// The increment is conditional, so a full program fails with core.ErrProgramUnavailable even under concurrency.
func (l *Ledger) Reserve(ctx context.Context, store QuotaStore, p *Program) error {
	ok, err := store.IncrementQuota(ctx, p.ID)
	if err != nil {
		return errors.Wrapf(err, "reserving quota of program %d", p.ID)
	}
	if !ok {
		return core.ErrProgramUnavailable
	}
	p.QuotaConsumed++
	return nil
}

// Release gives back one unit of p's quota, floored at 0.
func (l *Ledger) Release(ctx context.Context, store QuotaStore, p *Program) error {
	ok, err := store.DecrementQuota(ctx, p.ID)
	if err != nil {
		return errors.Wrapf(err, "releasing quota of program %d", p.ID)
	}
	if !ok {
		l.logger.Warn(fmt.Sprintf("[Ledger.Release] program %d: quota_consumed already 0", p.ID))
		return nil
	}
	p.QuotaConsumed--
	return nil
}

// Reconcile compares the recorded consumption of a program with its held reservations
// (applications not in Ditolak) and, when fix is set, overwrites the recorded value (capped at quota).
func (l *Ledger) Reconcile(ctx context.Context, store ReconcileStore, programID int64, fix bool) (Reconciliation, error) {
	p, err := store.LockProgram(ctx, programID)
	if err != nil {
		return Reconciliation{}, errors.Wrap(err, "locking program")
	}
	held, err := store.CountHeldReservations(ctx, programID)
	if err != nil {
		return Reconciliation{}, errors.Wrap(err, "counting held reservations")
	}

	rec := Reconciliation{ProgramID: p.ID, Quota: p.Quota, Recorded: p.QuotaConsumed, Held: held}
	if rec.InSync() || !fix {
		return rec, nil
	}

	consumed := held
	if consumed > p.Quota {
		l.logger.Warn(fmt.Sprintf("[Ledger.Reconcile] program %d: %d held reservations exceed quota %d", p.ID, held, p.Quota))
		consumed = p.Quota
	}
	if err = store.SetQuotaConsumed(ctx, programID, consumed); err != nil {
		return Reconciliation{}, errors.Wrap(err, "setting quota_consumed")
	}
	l.logger.Info(fmt.Sprintf("[Ledger.Reconcile] program %d: quota_consumed %d -> %d", p.ID, p.QuotaConsumed, consumed))
	rec.Fixed = true
	return rec, nil
}
