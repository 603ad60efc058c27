package inmemdb

import (
	"context"
	"sort"

	"github.com/aspirasi/relawan/core"
	"github.com/aspirasi/relawan/core/complaint"
)

type complaintRepository struct {
	db *DB
}

var _ complaint.Repository = (*complaintRepository)(nil)

func NewComplaintRepository(db *DB) complaint.Repository {
	return &complaintRepository{db: db}
}

func (repo *complaintRepository) Atomic(_ context.Context, fn func(tx complaint.Tx) error) error {
	return repo.db.atomic(func(t *tables) error { return fn(&tx{t: t}) })
}

func (repo *complaintRepository) GetComplaint(_ context.Context, id int64) (complaint.Complaint, error) {
	var (
		c  complaint.Complaint
		ok bool
	)
	repo.db.read(func(t *tables) { c, ok = t.complaints[id] })
	if !ok {
		return complaint.Complaint{}, core.ErrNotFound
	}
	return c, nil
}

func (repo *complaintRepository) QueryComplaints(_ context.Context, filter complaint.QueryFilter, orderings []core.DBOrdering) ([]complaint.Complaint, error) {
	complaints := make([]complaint.Complaint, 0)
	repo.db.read(func(t *tables) {
		for _, c := range t.complaints {
			if matchComplaint(c, filter) {
				complaints = append(complaints, c)
			}
		}
	})

	sort.Slice(complaints, func(i, j int) bool { return complaints[i].ID < complaints[j].ID })
	sort.SliceStable(complaints, orderedLess(orderings, func(i, j int, field string) int {
		a, b := complaints[i], complaints[j]
		switch field {
		case "created_at":
			return compareInts(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
		case "ticket_number":
			return compareStrings(a.TicketNumber, b.TicketNumber)
		case "priority":
			return compareStrings(string(a.Priority), string(b.Priority))
		case "status":
			return compareStrings(string(a.Status), string(b.Status))
		}
		return 0
	}))
	return complaints, nil
}

func matchComplaint(c complaint.Complaint, filter complaint.QueryFilter) bool {
	if filter.AuthorID != 0 && c.AuthorID != filter.AuthorID {
		return false
	}
	if filter.LegislatorID.Valid && (!c.LegislatorID.Valid || c.LegislatorID.Int64 != filter.LegislatorID.Int64) {
		return false
	}
	if filter.Search != "" && !containsFold(c.TicketNumber, filter.Search) && !containsFold(c.Title, filter.Search) {
		return false
	}
	if len(filter.Statuses) > 0 && !hasStatus(c.Status, filter.Statuses) {
		return false
	}
	if len(filter.Categories) > 0 && !hasCategory(c.Category, filter.Categories) {
		return false
	}
	if len(filter.Priorities) > 0 && !hasPriority(c.Priority, filter.Priorities) {
		return false
	}
	return true
}

func hasStatus(s complaint.Status, in []complaint.Status) bool {
	for _, v := range in {
		if v == s {
			return true
		}
	}
	return false
}

func hasCategory(cat complaint.Category, in []complaint.Category) bool {
	for _, v := range in {
		if v == cat {
			return true
		}
	}
	return false
}

func hasPriority(p complaint.Priority, in []complaint.Priority) bool {
	for _, v := range in {
		if v == p {
			return true
		}
	}
	return false
}
