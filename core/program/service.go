package program

import (
	"context"

	"github.com/pkg/errors"

	"github.com/aspirasi/relawan/core"
)

var errQuotaBelowConsumed = errors.New("quota cannot be lower than the reservations already held")

type (
	// Locker loads a program and locks its row until the end of the unit of work.
	Locker interface {
		LockProgram(ctx context.Context, id int64) (Program, error)
	}

	Tx interface {
		ReconcileStore
		// UpdateProgram saves every field but QuotaConsumed.
		UpdateProgram(ctx context.Context, p Program) (Program, error)
	}

	Repository interface {
		// Atomic runs fn in a single unit of work, rolled back if fn returns an error.
		Atomic(ctx context.Context, fn func(tx Tx) error) error
		CreateProgram(ctx context.Context, p Program) (Program, error)
		GetProgram(ctx context.Context, id int64) (Program, error)
		// QueryPrograms applies AND operation on available QueryFilter fields (but AvailableOnly).
		QueryPrograms(ctx context.Context, filter QueryFilter, orderings []core.DBOrdering) ([]Program, error)
	}

	Service struct {
		repo   Repository
		ledger *Ledger
	}
)

var OrderingFields = []string{"name", "window_start", "window_end", "created_at"}

func NewService(repo Repository, ledger *Ledger) *Service {
	return &Service{repo: repo, ledger: ledger}
}

func (svc *Service) Create(ctx context.Context, np NewProgram) (Program, error) {
	now := core.NowFunc().UTC()
	p := Program{
		Name:              np.Name,
		Description:       np.Description,
		Kind:              np.Kind,
		Nominal:           np.Nominal,
		Quota:             np.Quota,
		WindowStart:       core.Date(np.WindowStart, np.WindowStart.Location()),
		WindowEnd:         core.Date(np.WindowEnd, np.WindowEnd.Location()),
		Status:            np.Status,
		Requirements:      np.Requirements,
		RequiredDocuments: np.RequiredDocuments,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	return svc.repo.CreateProgram(ctx, p)
}

func (svc *Service) Get(ctx context.Context, id int64) (Program, error) {
	return svc.repo.GetProgram(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, orderings []core.DBOrdering) ([]Program, error) {
	programs, err := svc.repo.QueryPrograms(ctx, filter, core.AllowedOrderings(orderings, OrderingFields...))
	if err != nil || !filter.AvailableOnly {
		return programs, err
	}
	available := programs[:0]
	for _, p := range programs {
		if svc.ledger.IsAvailable(p) {
			available = append(available, p)
		}
	}
	return available, nil
}

// Update applies an already validated UpdateProgram under the program lock.
func (svc *Service) Update(ctx context.Context, id int64, up UpdateProgram) (Program, error) {
	var updated Program
	err := svc.repo.Atomic(ctx, func(tx Tx) error {
		p, err := tx.LockProgram(ctx, id)
		if err != nil {
			return errors.Wrap(err, "locking program")
		}
		if up.Quota < p.QuotaConsumed {
			return core.NewValidationError(errQuotaBelowConsumed, core.FieldError{Field: "quota", Error: errQuotaBelowConsumed.Error()})
		}

		p.Name = up.Name
		if up.Description != nil {
			p.Description = core.CleanString(*up.Description)
		}
		p.Nominal = up.Nominal
		p.Quota = up.Quota
		p.WindowStart = core.Date(up.WindowStart, up.WindowStart.Location())
		p.WindowEnd = core.Date(up.WindowEnd, up.WindowEnd.Location())
		p.Status = up.Status
		if up.Requirements != nil {
			p.Requirements = core.CleanString(*up.Requirements)
		}
		if up.RequiredDocuments != nil {
			p.RequiredDocuments = core.CleanString(*up.RequiredDocuments)
		}
		p.UpdatedAt = core.NowFunc().UTC()

		updated, err = tx.UpdateProgram(ctx, p)
		return errors.Wrap(err, "updating program")
	})
	return updated, err
}

// IsAvailable reports whether p accepts new applications today.
func (svc *Service) IsAvailable(p Program) bool {
	return svc.ledger.IsAvailable(p)
}

// Reconcile checks (and optionally repairs) the recorded quota consumption of a program.
func (svc *Service) Reconcile(ctx context.Context, id int64, fix bool) (Reconciliation, error) {
	var rec Reconciliation
	err := svc.repo.Atomic(ctx, func(tx Tx) error {
		var err error
		rec, err = svc.ledger.Reconcile(ctx, tx, id, fix)
		return err
	})
	return rec, err
}
