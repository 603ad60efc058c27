package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/aspirasi/relawan/core/application"
	"github.com/aspirasi/relawan/core/complaint"
	"github.com/aspirasi/relawan/core/program"
	"github.com/aspirasi/relawan/core/seqnum"
)

// tx carries the storage operations of one unit of work.
type tx struct {
	tx *sqlx.Tx
}

var (
	_ program.Tx     = (*tx)(nil)
	_ application.Tx = (*tx)(nil)
	_ complaint.Tx   = (*tx)(nil)
)

func (t *tx) LockProgram(ctx context.Context, id int64) (program.Program, error) {
	var row programRow
	err := t.tx.GetContext(ctx, &row, `SELECT `+programColumns+` FROM aid_program WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return program.Program{}, trapNoRowsErr(err, "locking program")
	}
	return row.program(), nil
}

func (t *tx) IncrementQuota(ctx context.Context, programID int64) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE aid_program SET quota_consumed = quota_consumed + 1 WHERE id = $1 AND quota_consumed < quota`,
		programID,
	)
	return affectedOne(res, err, "incrementing quota")
}

func (t *tx) DecrementQuota(ctx context.Context, programID int64) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE aid_program SET quota_consumed = quota_consumed - 1 WHERE id = $1 AND quota_consumed > 0`,
		programID,
	)
	return affectedOne(res, err, "decrementing quota")
}

func (t *tx) CountHeldReservations(ctx context.Context, programID int64) (int, error) {
	var n int
	err := t.tx.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM application WHERE program_id = $1 AND status <> $2`,
		programID, application.StatusRejected,
	)
	return n, errors.Wrap(err, "counting held reservations")
}

func (t *tx) SetQuotaConsumed(ctx context.Context, programID int64, consumed int) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE aid_program SET quota_consumed = $2 WHERE id = $1`, programID, consumed)
	return errors.Wrap(err, "setting quota_consumed")
}

func (t *tx) UpdateProgram(ctx context.Context, p program.Program) (program.Program, error) {
	q := `UPDATE aid_program SET name = :name, description = :description, kind = :kind, nominal = :nominal,
			quota = :quota, window_start = :window_start, window_end = :window_end, status = :status,
			requirements = :requirements, required_documents = :required_documents, updated_at = :updated_at
		WHERE id = :id
		RETURNING ` + programColumns

	var row programRow
	if err := namedGet(ctx, t.tx, &row, q, toProgramRow(p)); err != nil {
		return program.Program{}, trapNoRowsErr(err, "updating program")
	}
	return row.program(), nil
}

func (t *tx) NextSequence(ctx context.Context, kind seqnum.Kind, period string) (int, error) {
	var value int
	err := t.tx.GetContext(ctx, &value,
		`INSERT INTO sequence_counter (kind, period, value) VALUES ($1, $2, 1)
		ON CONFLICT (kind, period) DO UPDATE SET value = sequence_counter.value + 1
		RETURNING value`,
		string(kind), period,
	)
	return value, errors.Wrap(err, "incrementing sequence counter")
}

func (t *tx) HasActiveApplication(ctx context.Context, applicantID, programID, excludeID int64) (bool, error) {
	q, args, err := sqlx.In(
		`SELECT EXISTS(SELECT 1 FROM application WHERE applicant_id = ? AND program_id = ? AND id <> ? AND status IN (?))`,
		applicantID, programID, excludeID, activeStatuses(),
	)
	if err != nil {
		return false, errors.Wrap(err, "expanding query")
	}
	var exists bool
	err = t.tx.GetContext(ctx, &exists, t.tx.Rebind(q), args...)
	return exists, errors.Wrap(err, "checking active applications")
}

func (t *tx) CreateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	row, err := toApplicationRow(app)
	if err != nil {
		return application.Application{}, err
	}
	q := `INSERT INTO application (applicant_id, program_id, registration_number, registration_date, status,
			justification, documents, admin_note, approval_date, handover_date, is_resubmission,
			resubmission_count, resubmitted_at, created_at, updated_at)
		VALUES (:applicant_id, :program_id, :registration_number, :registration_date, :status,
			:justification, :documents, :admin_note, :approval_date, :handover_date, :is_resubmission,
			:resubmission_count, :resubmitted_at, :created_at, :updated_at)
		RETURNING ` + applicationColumns

	var created applicationRow
	if err = namedGet(ctx, t.tx, &created, q, row); err != nil {
		if isUniqueViolation(err) {
			return application.Application{}, errors.Wrapf(err, "registration number %s already taken", app.RegistrationNumber)
		}
		return application.Application{}, errors.Wrap(err, "inserting application")
	}
	return created.application()
}

func (t *tx) GetApplicationForUpdate(ctx context.Context, id int64) (application.Application, error) {
	var row applicationRow
	err := t.tx.GetContext(ctx, &row, `SELECT `+applicationColumns+` FROM application WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return application.Application{}, trapNoRowsErr(err, "locking application")
	}
	return row.application()
}

func (t *tx) UpdateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	row, err := toApplicationRow(app)
	if err != nil {
		return application.Application{}, err
	}
	q := `UPDATE application SET status = :status, justification = :justification, documents = :documents,
			admin_note = :admin_note, approval_date = :approval_date, handover_date = :handover_date,
			is_resubmission = :is_resubmission, resubmission_count = :resubmission_count,
			resubmitted_at = :resubmitted_at, updated_at = :updated_at
		WHERE id = :id
		RETURNING ` + applicationColumns

	var updated applicationRow
	if err = namedGet(ctx, t.tx, &updated, q, row); err != nil {
		return application.Application{}, trapNoRowsErr(err, "updating application")
	}
	return updated.application()
}

func (t *tx) AppendHistory(ctx context.Context, entry application.HistoryEntry) (application.HistoryEntry, error) {
	q := `INSERT INTO application_history (application_id, status_from, status_to, note, actor_id, created_at)
		VALUES (:application_id, :status_from, :status_to, :note, :actor_id, :created_at)
		RETURNING ` + historyColumns

	var created historyRow
	if err := namedGet(ctx, t.tx, &created, q, toHistoryRow(entry)); err != nil {
		return application.HistoryEntry{}, errors.Wrap(err, "inserting history entry")
	}
	return created.entry(), nil
}

func (t *tx) CreateComplaint(ctx context.Context, c complaint.Complaint) (complaint.Complaint, error) {
	q := `INSERT INTO complaint (author_id, legislator_id, ticket_number, title, category, description, image_path,
			priority, status, admin_response, admin_response_at, rating, feedback, created_at, updated_at)
		VALUES (:author_id, :legislator_id, :ticket_number, :title, :category, :description, :image_path,
			:priority, :status, :admin_response, :admin_response_at, :rating, :feedback, :created_at, :updated_at)
		RETURNING ` + complaintColumns

	var created complaintRow
	if err := namedGet(ctx, t.tx, &created, q, toComplaintRow(c)); err != nil {
		if isUniqueViolation(err) {
			return complaint.Complaint{}, errors.Wrapf(err, "ticket number %s already taken", c.TicketNumber)
		}
		return complaint.Complaint{}, errors.Wrap(err, "inserting complaint")
	}
	return created.complaint(), nil
}

func (t *tx) GetComplaintForUpdate(ctx context.Context, id int64) (complaint.Complaint, error) {
	var row complaintRow
	err := t.tx.GetContext(ctx, &row, `SELECT `+complaintColumns+` FROM complaint WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return complaint.Complaint{}, trapNoRowsErr(err, "locking complaint")
	}
	return row.complaint(), nil
}

func (t *tx) UpdateComplaint(ctx context.Context, c complaint.Complaint) (complaint.Complaint, error) {
	q := `UPDATE complaint SET title = :title, category = :category, description = :description,
			priority = :priority, status = :status, admin_response = :admin_response,
			admin_response_at = :admin_response_at, rating = :rating, feedback = :feedback, updated_at = :updated_at
		WHERE id = :id
		RETURNING ` + complaintColumns

	var updated complaintRow
	if err := namedGet(ctx, t.tx, &updated, q, toComplaintRow(c)); err != nil {
		return complaint.Complaint{}, trapNoRowsErr(err, "updating complaint")
	}
	return updated.complaint(), nil
}

// namedGet runs a named query returning one row into dest.
func namedGet(ctx context.Context, tx *sqlx.Tx, dest interface{}, q string, arg interface{}) error {
	stmt, err := tx.PrepareNamedContext(ctx, q)
	if err != nil {
		return errors.Wrap(err, "preparing statement")
	}
	defer func() { _ = stmt.Close() }()
	return stmt.GetContext(ctx, dest, arg)
}

func affectedOne(res interface{ RowsAffected() (int64, error) }, err error, msg string) (bool, error) {
	if err != nil {
		return false, errors.Wrap(err, msg)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, msg)
	}
	return n == 1, nil
}

func activeStatuses() []string {
	active := make([]string, 0, 3)
	for _, s := range application.Statuses {
		if s.IsActive() {
			active = append(active, string(s))
		}
	}
	return active
}

