package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/aspirasi/relawan/core"
	"github.com/aspirasi/relawan/core/application"
)

const (
	applicationColumns = `id, applicant_id, program_id, registration_number, registration_date, status,
	justification, documents, admin_note, approval_date, handover_date, is_resubmission,
	resubmission_count, resubmitted_at, created_at, updated_at`

	historyColumns = `id, application_id, status_from, status_to, note, actor_id, created_at`
)

type applicationRow struct {
	ID                 int64          `db:"id"`
	ApplicantID        int64          `db:"applicant_id"`
	ProgramID          int64          `db:"program_id"`
	RegistrationNumber string         `db:"registration_number"`
	RegistrationDate   time.Time      `db:"registration_date"`
	Status             string         `db:"status"`
	Justification      string         `db:"justification"`
	Documents          types.JSONText `db:"documents"`
	AdminNote          null.String    `db:"admin_note"`
	ApprovalDate       null.Time      `db:"approval_date"`
	HandoverDate       null.Time      `db:"handover_date"`
	IsResubmission     bool           `db:"is_resubmission"`
	ResubmissionCount  int            `db:"resubmission_count"`
	ResubmittedAt      null.Time      `db:"resubmitted_at"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func toApplicationRow(app application.Application) (applicationRow, error) {
	docs := app.Documents
	if docs == nil {
		docs = []string{}
	}
	raw, err := json.Marshal(docs)
	if err != nil {
		return applicationRow{}, errors.Wrap(err, "encoding documents")
	}
	return applicationRow{
		ID:                 app.ID,
		ApplicantID:        app.ApplicantID,
		ProgramID:          app.ProgramID,
		RegistrationNumber: app.RegistrationNumber,
		RegistrationDate:   date(app.RegistrationDate),
		Status:             string(app.Status),
		Justification:      app.Justification,
		Documents:          types.JSONText(raw),
		AdminNote:          app.AdminNote,
		ApprovalDate:       nullDate(app.ApprovalDate),
		HandoverDate:       nullDate(app.HandoverDate),
		IsResubmission:     app.IsResubmission,
		ResubmissionCount:  app.ResubmissionCount,
		ResubmittedAt:      app.ResubmittedAt,
		CreatedAt:          app.CreatedAt.UTC(),
		UpdatedAt:          app.UpdatedAt.UTC(),
	}, nil
}

func (r applicationRow) application() (application.Application, error) {
	docs := []string{}
	if len(r.Documents) > 0 {
		if err := r.Documents.Unmarshal(&docs); err != nil {
			return application.Application{}, errors.Wrapf(err, "decoding documents of application %d", r.ID)
		}
	}
	return application.Application{
		ID:                 r.ID,
		ApplicantID:        r.ApplicantID,
		ProgramID:          r.ProgramID,
		RegistrationNumber: r.RegistrationNumber,
		RegistrationDate:   date(r.RegistrationDate),
		Status:             application.Status(r.Status),
		Justification:      r.Justification,
		Documents:          docs,
		AdminNote:          r.AdminNote,
		ApprovalDate:       nullDate(r.ApprovalDate),
		HandoverDate:       nullDate(r.HandoverDate),
		IsResubmission:     r.IsResubmission,
		ResubmissionCount:  r.ResubmissionCount,
		ResubmittedAt:      r.ResubmittedAt,
		CreatedAt:          r.CreatedAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
	}, nil
}

type historyRow struct {
	ID            int64       `db:"id"`
	ApplicationID int64       `db:"application_id"`
	StatusFrom    null.String `db:"status_from"`
	StatusTo      string      `db:"status_to"`
	Note          string      `db:"note"`
	ActorID       int64       `db:"actor_id"`
	CreatedAt     time.Time   `db:"created_at"`
}

func toHistoryRow(e application.HistoryEntry) historyRow {
	row := historyRow{
		ID:            e.ID,
		ApplicationID: e.ApplicationID,
		StatusTo:      string(e.StatusTo),
		Note:          e.Note,
		ActorID:       e.ActorID,
		CreatedAt:     e.CreatedAt.UTC(),
	}
	if e.StatusFrom != nil {
		row.StatusFrom = null.StringFrom(string(*e.StatusFrom))
	}
	return row
}

func (r historyRow) entry() application.HistoryEntry {
	e := application.HistoryEntry{
		ID:            r.ID,
		ApplicationID: r.ApplicationID,
		StatusTo:      application.Status(r.StatusTo),
		Note:          r.Note,
		ActorID:       r.ActorID,
		CreatedAt:     r.CreatedAt.UTC(),
	}
	if r.StatusFrom.Valid {
		from := application.Status(r.StatusFrom.String)
		e.StatusFrom = &from
	}
	return e
}

func nullDate(t null.Time) null.Time {
	if !t.Valid {
		return t
	}
	return null.TimeFrom(date(t.Time))
}

type applicationRepository struct {
	db *sqlx.DB
}

var _ application.Repository = (*applicationRepository)(nil) // interface compliance check

func NewApplicationRepository(db *sqlx.DB) application.Repository {
	return &applicationRepository{db: db}
}

func (repo applicationRepository) Atomic(ctx context.Context, fn func(tx application.Tx) error) error {
	return atomic(ctx, repo.db, func(sqlTx *sqlx.Tx) error { return fn(&tx{tx: sqlTx}) })
}

func (repo applicationRepository) GetApplication(ctx context.Context, id int64) (application.Application, error) {
	var row applicationRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+applicationColumns+` FROM application WHERE id = $1`, id)
	if err != nil {
		return application.Application{}, trapNoRowsErr(err, "finding application")
	}
	return row.application()
}

func (repo applicationRepository) QueryApplications(ctx context.Context, filter application.QueryFilter, orderings []core.DBOrdering) ([]application.Application, error) {
	var w where
	if filter.ApplicantID != 0 {
		w.add("applicant_id = ?", filter.ApplicantID)
	}
	if filter.ProgramID != 0 {
		w.add("program_id = ?", filter.ProgramID)
	}
	if filter.Search != "" {
		w.add("registration_number ILIKE ?", "%"+filter.Search+"%")
	}
	if len(filter.Statuses) > 0 {
		w.add("status IN (?)", filter.Statuses)
	}

	q, args, err := w.query(repo.db, `SELECT `+applicationColumns+` FROM application`, orderings)
	if err != nil {
		return nil, err
	}
	var rows []applicationRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying applications")
	}

	apps := make([]application.Application, 0, len(rows))
	for _, r := range rows {
		app, err := r.application()
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, nil
}

func (repo applicationRepository) QueryHistory(ctx context.Context, applicationID int64) ([]application.HistoryEntry, error) {
	var rows []historyRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+historyColumns+` FROM application_history WHERE application_id = $1 ORDER BY created_at ASC, id ASC`,
		applicationID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying history")
	}

	entries := make([]application.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.entry())
	}
	return entries, nil
}
