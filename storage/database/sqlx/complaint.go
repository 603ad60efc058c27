package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/aspirasi/relawan/core"
	"github.com/aspirasi/relawan/core/complaint"
)

const complaintColumns = `id, author_id, legislator_id, ticket_number, title, category, description, image_path,
	priority, status, admin_response, admin_response_at, rating, feedback, created_at, updated_at`

type complaintRow struct {
	ID              int64       `db:"id"`
	AuthorID        int64       `db:"author_id"`
	LegislatorID    null.Int64  `db:"legislator_id"`
	TicketNumber    string      `db:"ticket_number"`
	Title           string      `db:"title"`
	Category        string      `db:"category"`
	Description     string      `db:"description"`
	ImagePath       null.String `db:"image_path"`
	Priority        string      `db:"priority"`
	Status          string      `db:"status"`
	AdminResponse   null.String `db:"admin_response"`
	AdminResponseAt null.Time   `db:"admin_response_at"`
	Rating          null.Int    `db:"rating"`
	Feedback        null.String `db:"feedback"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

func toComplaintRow(c complaint.Complaint) complaintRow {
	return complaintRow{
		ID:              c.ID,
		AuthorID:        c.AuthorID,
		LegislatorID:    c.LegislatorID,
		TicketNumber:    c.TicketNumber,
		Title:           c.Title,
		Category:        string(c.Category),
		Description:     c.Description,
		ImagePath:       c.ImagePath,
		Priority:        string(c.Priority),
		Status:          string(c.Status),
		AdminResponse:   c.AdminResponse,
		AdminResponseAt: c.AdminResponseAt,
		Rating:          c.Rating,
		Feedback:        c.Feedback,
		CreatedAt:       c.CreatedAt.UTC(),
		UpdatedAt:       c.UpdatedAt.UTC(),
	}
}

func (r complaintRow) complaint() complaint.Complaint {
	return complaint.Complaint{
		ID:              r.ID,
		AuthorID:        r.AuthorID,
		LegislatorID:    r.LegislatorID,
		TicketNumber:    r.TicketNumber,
		Title:           r.Title,
		Category:        complaint.Category(r.Category),
		Description:     r.Description,
		ImagePath:       r.ImagePath,
		Priority:        complaint.Priority(r.Priority),
		Status:          complaint.Status(r.Status),
		AdminResponse:   r.AdminResponse,
		AdminResponseAt: r.AdminResponseAt,
		Rating:          r.Rating,
		Feedback:        r.Feedback,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
}

type complaintRepository struct {
	db *sqlx.DB
}

var _ complaint.Repository = (*complaintRepository)(nil) // interface compliance check

func NewComplaintRepository(db *sqlx.DB) complaint.Repository {
	return &complaintRepository{db: db}
}

func (repo complaintRepository) Atomic(ctx context.Context, fn func(tx complaint.Tx) error) error {
	return atomic(ctx, repo.db, func(sqlTx *sqlx.Tx) error { return fn(&tx{tx: sqlTx}) })
}

func (repo complaintRepository) GetComplaint(ctx context.Context, id int64) (complaint.Complaint, error) {
	var row complaintRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+complaintColumns+` FROM complaint WHERE id = $1`, id)
	if err != nil {
		return complaint.Complaint{}, trapNoRowsErr(err, "finding complaint")
	}
	return row.complaint(), nil
}

func (repo complaintRepository) QueryComplaints(ctx context.Context, filter complaint.QueryFilter, orderings []core.DBOrdering) ([]complaint.Complaint, error) {
	var w where
	if filter.AuthorID != 0 {
		w.add("author_id = ?", filter.AuthorID)
	}
	if filter.LegislatorID.Valid {
		w.add("legislator_id = ?", filter.LegislatorID.Int64)
	}
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		w.add("(ticket_number ILIKE ? OR title ILIKE ?)", val, val)
	}
	if len(filter.Statuses) > 0 {
		w.add("status IN (?)", filter.Statuses)
	}
	if len(filter.Categories) > 0 {
		w.add("category IN (?)", filter.Categories)
	}
	if len(filter.Priorities) > 0 {
		w.add("priority IN (?)", filter.Priorities)
	}

	q, args, err := w.query(repo.db, `SELECT `+complaintColumns+` FROM complaint`, orderings)
	if err != nil {
		return nil, err
	}
	var rows []complaintRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying complaints")
	}

	complaints := make([]complaint.Complaint, 0, len(rows))
	for _, r := range rows {
		complaints = append(complaints, r.complaint())
	}
	return complaints, nil
}
