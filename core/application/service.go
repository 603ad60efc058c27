package application

import (
	"context"
	"fmt"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/aspirasi/relawan/core"
	"github.com/aspirasi/relawan/core/program"
	"github.com/aspirasi/relawan/core/seqnum"
	"github.com/aspirasi/relawan/core/user"
)

type (
	// Tx is the set of storage operations available inside a unit of work.
	Tx interface {
		program.Locker
		program.QuotaStore
		seqnum.Counter

		// HasActiveApplication reports whether the applicant holds an application
		// in an active status (see Status.IsActive) for the program, ignoring excludeID.
		HasActiveApplication(ctx context.Context, applicantID, programID, excludeID int64) (bool, error)
		CreateApplication(ctx context.Context, app Application) (Application, error)
		// GetApplicationForUpdate loads an application and locks its row until the end of the unit of work.
		GetApplicationForUpdate(ctx context.Context, id int64) (Application, error)
		UpdateApplication(ctx context.Context, app Application) (Application, error)
		AppendHistory(ctx context.Context, entry HistoryEntry) (HistoryEntry, error)
	}

	Repository interface {
		// Atomic runs fn in a single unit of work, rolled back if fn returns an error.
		Atomic(ctx context.Context, fn func(tx Tx) error) error
		GetApplication(ctx context.Context, id int64) (Application, error)
		// QueryApplications applies AND operation on available QueryFilter fields.
		QueryApplications(ctx context.Context, filter QueryFilter, orderings []core.DBOrdering) ([]Application, error)
		// QueryHistory returns the history of an application in chronological order.
		QueryHistory(ctx context.Context, applicationID int64) ([]HistoryEntry, error)
	}

	Service struct {
		repo   Repository
		ledger *program.Ledger
		logger core.Logger
		loc    *time.Location
	}
)

var OrderingFields = []string{"created_at", "registration_number", "registration_date", "status"}

func NewService(repo Repository, ledger *program.Ledger, logger core.Logger, conf *core.Config) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(ledger, "ledger"),
		vala.IsNotNil(logger, "logger"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()

	return &Service{repo: repo, ledger: ledger, logger: logger, loc: conf.Location()}
}

// Submit creates a Pending application of the applicant for an available program and reserves one unit of its quota.
func (svc *Service) Submit(ctx context.Context, na NewApplication, applicant user.User) (Application, error) {
	var app Application
	err := svc.repo.Atomic(ctx, func(tx Tx) error {
		prog, err := tx.LockProgram(ctx, na.ProgramID)
		if err != nil {
			return errors.Wrap(err, "locking program")
		}
		if !svc.ledger.IsAvailable(prog) {
			return core.ErrProgramUnavailable
		}

		dup, err := tx.HasActiveApplication(ctx, applicant.ID, prog.ID, 0)
		if err != nil {
			return errors.Wrap(err, "checking active applications")
		}
		if dup {
			return core.ErrDuplicateApplication
		}

		now := core.NowFunc()
		regNo, err := seqnum.Next(ctx, tx, seqnum.KindRegistration, now.In(svc.loc))
		if err != nil {
			return err
		}

		app, err = tx.CreateApplication(ctx, Application{
			ApplicantID:        applicant.ID,
			ProgramID:          prog.ID,
			RegistrationNumber: regNo,
			RegistrationDate:   core.Date(now, svc.loc),
			Status:             StatusPending,
			Justification:      na.Justification,
			Documents:          na.Documents,
			CreatedAt:          now.UTC(),
			UpdatedAt:          now.UTC(),
		})
		if err != nil {
			return errors.Wrap(err, "creating application")
		}

		if err = svc.ledger.Reserve(ctx, tx, &prog); err != nil {
			return err
		}

		_, err = tx.AppendHistory(ctx, HistoryEntry{
			ApplicationID: app.ID,
			StatusTo:      StatusPending,
			Note:          noteSubmitted,
			ActorID:       applicant.ID,
			CreatedAt:     now.UTC(),
		})
		return errors.Wrap(err, "appending history")
	})
	if err != nil {
		return Application{}, errors.Wrap(err, "submitting application")
	}
	return app, nil
}

// Transition moves an application to sc.Status on behalf of an administrator.
// Entering Ditolak releases the program quota, leaving it reserves it again.
// A transition to the current status is a no-op.
func (svc *Service) Transition(ctx context.Context, id int64, sc StatusChange, actor user.User) (Application, error) {
	if !sc.Status.Valid() {
		return Application{}, core.ErrInvalidStatus
	}
	if !actor.IsAdmin() {
		return Application{}, core.ErrUnauthorized
	}

	var app Application
	err := svc.repo.Atomic(ctx, func(tx Tx) error {
		var err error
		app, err = tx.GetApplicationForUpdate(ctx, id)
		if err != nil {
			return errors.Wrap(err, "finding application")
		}

		oldStatus, newStatus := app.Status, sc.Status
		if oldStatus == newStatus {
			return nil
		}
		if !canTransition(oldStatus, newStatus) {
			return errors.Wrapf(core.ErrInvalidState, "%s -> %s", oldStatus, newStatus)
		}

		if err = svc.adjustQuota(ctx, tx, app, oldStatus, newStatus); err != nil {
			return err
		}

		now := core.NowFunc()
		switch newStatus {
		case StatusApproved:
			app.ApprovalDate = null.TimeFrom(core.Date(now, svc.loc))
		case StatusCompleted:
			app.HandoverDate = null.TimeFrom(core.Date(now, svc.loc))
		}
		if sc.AdminNote != "" {
			app.AdminNote = null.StringFrom(sc.AdminNote)
		}
		app.Status = newStatus
		app.UpdatedAt = now.UTC()

		if app, err = tx.UpdateApplication(ctx, app); err != nil {
			return errors.Wrap(err, "updating application")
		}

		from := oldStatus
		_, err = tx.AppendHistory(ctx, HistoryEntry{
			ApplicationID: app.ID,
			StatusFrom:    &from,
			StatusTo:      newStatus,
			Note:          transitionNote(oldStatus, newStatus, sc.AdminNote),
			ActorID:       actor.ID,
			CreatedAt:     now.UTC(),
		})
		return errors.Wrap(err, "appending history")
	})
	if err != nil {
		return Application{}, errors.Wrap(err, "transitioning application")
	}
	return app, nil
}

// adjustQuota only acts on the Ditolak boundary so that every reservation is counted once.
func (svc *Service) adjustQuota(ctx context.Context, tx Tx, app Application, oldStatus, newStatus Status) error {
	entering := newStatus == StatusRejected
	leaving := oldStatus == StatusRejected
	if !entering && !leaving {
		return nil
	}

	prog, err := tx.LockProgram(ctx, app.ProgramID)
	if err != nil {
		return errors.Wrap(err, "locking program")
	}
	if entering {
		return svc.ledger.Release(ctx, tx, &prog)
	}

	// reopening must not hand the applicant a second active application
	if newStatus.IsActive() {
		dup, err := tx.HasActiveApplication(ctx, app.ApplicantID, app.ProgramID, app.ID)
		if err != nil {
			return errors.Wrap(err, "checking active applications")
		}
		if dup {
			return core.ErrDuplicateApplication
		}
	}
	return svc.ledger.Reserve(ctx, tx, &prog)
}

// Resubmit sends an application returned for completion back to Pending with corrected data.
// The quota reserved at submission stays held.
func (svc *Service) Resubmit(ctx context.Context, id int64, rs Resubmission, applicant user.User) (Application, error) {
	var app Application
	err := svc.repo.Atomic(ctx, func(tx Tx) error {
		var err error
		app, err = tx.GetApplicationForUpdate(ctx, id)
		if err != nil {
			return errors.Wrap(err, "finding application")
		}
		if app.ApplicantID != applicant.ID {
			return core.ErrNotFound
		}
		if app.Status != StatusNeedsRevision {
			return errors.Wrapf(core.ErrInvalidState, "cannot resubmit a %s application", app.Status)
		}
		// a new application may have been submitted while this one was returned
		dup, err := tx.HasActiveApplication(ctx, app.ApplicantID, app.ProgramID, app.ID)
		if err != nil {
			return errors.Wrap(err, "checking active applications")
		}
		if dup {
			return core.ErrDuplicateApplication
		}

		now := core.NowFunc().UTC()
		count := app.ResubmissionCount + 1
		from := app.Status
		if _, err = tx.AppendHistory(ctx, HistoryEntry{
			ApplicationID: app.ID,
			StatusFrom:    &from,
			StatusTo:      StatusPending,
			Note:          resubmissionNote(count),
			ActorID:       applicant.ID,
			CreatedAt:     now,
		}); err != nil {
			return errors.Wrap(err, "appending history")
		}

		app.Status = StatusPending
		app.AdminNote = null.String{}
		app.ApprovalDate = null.Time{}
		app.HandoverDate = null.Time{}
		app.IsResubmission = true
		app.ResubmittedAt = null.TimeFrom(now)
		app.ResubmissionCount = count
		app.Justification = rs.Justification
		if len(rs.Documents) > 0 {
			app.Documents = rs.Documents
		}
		app.UpdatedAt = now

		app, err = tx.UpdateApplication(ctx, app)
		return errors.Wrap(err, "updating application")
	})
	if err != nil {
		return Application{}, errors.Wrap(err, "resubmitting application")
	}
	svc.logger.Info(fmt.Sprintf("[Application.Resubmit] %s resubmitted (#%d)", app.RegistrationNumber, app.ResubmissionCount))
	return app, nil
}

// Get returns an application visible to actor: their own, or any for an administrator.
func (svc *Service) Get(ctx context.Context, id int64, actor user.User) (Application, error) {
	app, err := svc.repo.GetApplication(ctx, id)
	if err != nil {
		return Application{}, errors.Wrap(err, "finding application")
	}
	if app.ApplicantID != actor.ID && !actor.IsAdmin() {
		return Application{}, core.ErrNotFound
	}
	return app, nil
}

// History returns the audit trail of an application visible to actor, oldest first.
func (svc *Service) History(ctx context.Context, id int64, actor user.User) ([]HistoryEntry, error) {
	if _, err := svc.Get(ctx, id, actor); err != nil {
		return nil, err
	}
	entries, err := svc.repo.QueryHistory(ctx, id)
	return entries, errors.Wrap(err, "querying history")
}

// ListMine returns the applications of the applicant, newest first.
func (svc *Service) ListMine(ctx context.Context, applicant user.User) ([]Application, error) {
	return svc.repo.QueryApplications(
		ctx,
		QueryFilter{ApplicantID: applicant.ID},
		[]core.DBOrdering{{Field: "created_at"}},
	)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, orderings []core.DBOrdering, actor user.User) ([]Application, error) {
	if !actor.IsAdmin() {
		return nil, core.ErrUnauthorized
	}
	return svc.repo.QueryApplications(ctx, filter, core.AllowedOrderings(orderings, OrderingFields...))
}
