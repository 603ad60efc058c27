package complaint

import (
	"context"
	"fmt"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/aspirasi/relawan/core"
	"github.com/aspirasi/relawan/core/seqnum"
	"github.com/aspirasi/relawan/core/user"
)

type (
	Tx interface {
		seqnum.Counter
		CreateComplaint(ctx context.Context, c Complaint) (Complaint, error)
		// GetComplaintForUpdate loads a complaint and locks its row until the end of the unit of work.
		GetComplaintForUpdate(ctx context.Context, id int64) (Complaint, error)
		UpdateComplaint(ctx context.Context, c Complaint) (Complaint, error)
	}

	Repository interface {
		// Atomic runs fn in a single unit of work, rolled back if fn returns an error.
		Atomic(ctx context.Context, fn func(tx Tx) error) error
		GetComplaint(ctx context.Context, id int64) (Complaint, error)
		// QueryComplaints applies AND operation on available QueryFilter fields.
		QueryComplaints(ctx context.Context, filter QueryFilter, orderings []core.DBOrdering) ([]Complaint, error)
	}

	// Forwarder hands a newly opened complaint over to the departments. It must not block.
	Forwarder interface {
		Forward(c Complaint, author user.User)
	}

	Service struct {
		repo      Repository
		forwarder Forwarder
		logger    core.Logger
		conf      *core.Config
	}
)

var OrderingFields = []string{"created_at", "ticket_number", "priority", "status"}

func NewService(repo Repository, forwarder Forwarder, logger core.Logger, conf *core.Config) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(forwarder, "forwarder"),
		vala.IsNotNil(logger, "logger"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()

	return &Service{repo: repo, forwarder: forwarder, logger: logger, conf: conf}
}

// Open records a new complaint of author in status Baru, then forwards it once committed.
func (svc *Service) Open(ctx context.Context, nc NewComplaint, author user.User) (Complaint, error) {
	var c Complaint
	err := svc.repo.Atomic(ctx, func(tx Tx) error {
		now := core.NowFunc()
		ticket, err := seqnum.Next(ctx, tx, seqnum.KindTicket, now.In(svc.conf.Location()))
		if err != nil {
			return err
		}

		priority := nc.Priority
		if priority == "" {
			priority = PriorityMedium
		}
		var image null.String
		if nc.ImagePath != "" {
			image = null.StringFrom(nc.ImagePath)
		}

		c, err = tx.CreateComplaint(ctx, Complaint{
			AuthorID:     author.ID,
			LegislatorID: author.LegislatorID,
			TicketNumber: ticket,
			Title:        nc.Title,
			Category:     nc.Category,
			Description:  nc.Description,
			ImagePath:    image,
			Priority:     priority,
			Status:       StatusNew,
			CreatedAt:    now.UTC(),
			UpdatedAt:    now.UTC(),
		})
		return errors.Wrap(err, "creating complaint")
	})
	if err != nil {
		return Complaint{}, errors.Wrap(err, "opening complaint")
	}

	svc.forwarder.Forward(c, author)
	return c, nil
}

// UpdateStatus sets the status of a complaint in the legislator scope of actor,
// storing a non-empty response with its timestamp.
func (svc *Service) UpdateStatus(ctx context.Context, id int64, sc StatusChange, actor user.User) (Complaint, error) {
	if !sc.Status.Valid() {
		return Complaint{}, core.ErrInvalidStatus
	}
	if !actor.IsAdmin() {
		return Complaint{}, core.ErrUnauthorized
	}

	var c Complaint
	err := svc.repo.Atomic(ctx, func(tx Tx) error {
		var err error
		c, err = tx.GetComplaintForUpdate(ctx, id)
		if err != nil {
			return errors.Wrap(err, "finding complaint")
		}
		if !actor.CanManage(c.LegislatorID) {
			return core.ErrUnauthorized
		}
		if !CanTransition(c.Status, sc.Status, svc.conf.Complaint.StrictTransitions) {
			return errors.Wrapf(core.ErrInvalidState, "%s -> %s", c.Status, sc.Status)
		}

		now := core.NowFunc().UTC()
		c.Status = sc.Status
		if sc.AdminResponse != "" {
			c.AdminResponse = null.StringFrom(sc.AdminResponse)
			c.AdminResponseAt = null.TimeFrom(now)
		}
		c.UpdatedAt = now

		c, err = tx.UpdateComplaint(ctx, c)
		return errors.Wrap(err, "updating complaint")
	})
	if err != nil {
		return Complaint{}, errors.Wrap(err, "updating complaint status")
	}
	return c, nil
}

// SubmitFeedback rates a handled complaint. Only its author may do so; a new rating replaces the previous one.
func (svc *Service) SubmitFeedback(ctx context.Context, id int64, fb Feedback, author user.User) (Complaint, error) {
	var c Complaint
	err := svc.repo.Atomic(ctx, func(tx Tx) error {
		var err error
		c, err = tx.GetComplaintForUpdate(ctx, id)
		if err != nil {
			return errors.Wrap(err, "finding complaint")
		}
		if c.AuthorID != author.ID {
			return core.ErrNotFound
		}
		if c.Status != StatusDone {
			return errors.Wrapf(core.ErrInvalidState, "cannot rate a %s complaint", c.Status)
		}
		if fb.Rating < MinRating || fb.Rating > MaxRating {
			return core.ErrInvalidRating
		}

		c.Rating = null.IntFrom(fb.Rating)
		if fb.Feedback != "" {
			c.Feedback = null.StringFrom(fb.Feedback)
		} else {
			c.Feedback = null.String{}
		}
		c.UpdatedAt = core.NowFunc().UTC()

		c, err = tx.UpdateComplaint(ctx, c)
		return errors.Wrap(err, "updating complaint")
	})
	if err != nil {
		return Complaint{}, errors.Wrap(err, "submitting feedback")
	}
	svc.logger.Info(fmt.Sprintf("[Complaint.SubmitFeedback] %s rated %d", c.TicketNumber, fb.Rating))
	return c, nil
}

// Update edits a complaint of author that has not been picked up yet.
func (svc *Service) Update(ctx context.Context, id int64, uc UpdateComplaint, author user.User) (Complaint, error) {
	var c Complaint
	err := svc.repo.Atomic(ctx, func(tx Tx) error {
		var err error
		c, err = tx.GetComplaintForUpdate(ctx, id)
		if err != nil {
			return errors.Wrap(err, "finding complaint")
		}
		if c.AuthorID != author.ID {
			return core.ErrNotFound
		}
		if c.Status != StatusNew {
			return core.ErrImmutable
		}

		if uc.Title != "" {
			c.Title = uc.Title
		}
		if uc.Category != "" {
			c.Category = uc.Category
		}
		if uc.Description != "" {
			c.Description = uc.Description
		}
		if uc.Priority != "" {
			c.Priority = uc.Priority
		}
		c.UpdatedAt = core.NowFunc().UTC()

		c, err = tx.UpdateComplaint(ctx, c)
		return errors.Wrap(err, "updating complaint")
	})
	if err != nil {
		return Complaint{}, errors.Wrap(err, "editing complaint")
	}
	return c, nil
}

// Get returns a complaint visible to actor: their own, or any in their legislator scope for an administrator.
func (svc *Service) Get(ctx context.Context, id int64, actor user.User) (Complaint, error) {
	c, err := svc.repo.GetComplaint(ctx, id)
	if err != nil {
		return Complaint{}, errors.Wrap(err, "finding complaint")
	}
	if c.AuthorID != actor.ID && !actor.CanManage(c.LegislatorID) {
		return Complaint{}, core.ErrNotFound
	}
	return c, nil
}

// ListMine returns the complaints of author, newest first.
func (svc *Service) ListMine(ctx context.Context, author user.User) ([]Complaint, error) {
	return svc.repo.QueryComplaints(
		ctx,
		QueryFilter{AuthorID: author.ID},
		[]core.DBOrdering{{Field: "created_at"}},
	)
}

// Query lists the complaints in the legislator scope of actor.
func (svc *Service) Query(ctx context.Context, filter QueryFilter, orderings []core.DBOrdering, actor user.User) ([]Complaint, error) {
	switch {
	case actor.IsSuperAdmin():
	case actor.IsLegislatorAdmin() && actor.LegislatorID.Valid:
		filter.LegislatorID = actor.LegislatorID
	default:
		return nil, core.ErrUnauthorized
	}
	return svc.repo.QueryComplaints(ctx, filter, core.AllowedOrderings(orderings, OrderingFields...))
}
