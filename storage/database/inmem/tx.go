package inmemdb

import (
	"context"

	"github.com/aspirasi/relawan/core"
	"github.com/aspirasi/relawan/core/application"
	"github.com/aspirasi/relawan/core/complaint"
	"github.com/aspirasi/relawan/core/program"
	"github.com/aspirasi/relawan/core/seqnum"
)

// tx operates on the tables while DB.atomic holds the write lock.
type tx struct {
	t *tables
}

var (
	_ program.Tx     = (*tx)(nil)
	_ application.Tx = (*tx)(nil)
	_ complaint.Tx   = (*tx)(nil)
)

func (tx *tx) LockProgram(_ context.Context, id int64) (program.Program, error) {
	p, ok := tx.t.programs[id]
	if !ok {
		return program.Program{}, core.ErrNotFound
	}
	return p, nil
}

func (tx *tx) IncrementQuota(_ context.Context, programID int64) (bool, error) {
	p, ok := tx.t.programs[programID]
	if !ok {
		return false, core.ErrNotFound
	}
	if p.QuotaConsumed >= p.Quota {
		return false, nil
	}
	p.QuotaConsumed++
	tx.t.programs[programID] = p
	return true, nil
}

func (tx *tx) DecrementQuota(_ context.Context, programID int64) (bool, error) {
	p, ok := tx.t.programs[programID]
	if !ok {
		return false, core.ErrNotFound
	}
	if p.QuotaConsumed <= 0 {
		return false, nil
	}
	p.QuotaConsumed--
	tx.t.programs[programID] = p
	return true, nil
}

func (tx *tx) CountHeldReservations(_ context.Context, programID int64) (int, error) {
	var n int
	for _, app := range tx.t.applications {
		if app.ProgramID == programID && app.Status != application.StatusRejected {
			n++
		}
	}
	return n, nil
}

func (tx *tx) SetQuotaConsumed(_ context.Context, programID int64, consumed int) error {
	p, ok := tx.t.programs[programID]
	if !ok {
		return core.ErrNotFound
	}
	p.QuotaConsumed = consumed
	tx.t.programs[programID] = p
	return nil
}

func (tx *tx) UpdateProgram(_ context.Context, p program.Program) (program.Program, error) {
	orig, ok := tx.t.programs[p.ID]
	if !ok {
		return program.Program{}, core.ErrNotFound
	}
	p.QuotaConsumed = orig.QuotaConsumed
	p.CreatedAt = orig.CreatedAt
	tx.t.programs[p.ID] = p
	return p, nil
}

func (tx *tx) NextSequence(_ context.Context, kind seqnum.Kind, period string) (int, error) {
	key := string(kind) + "-" + period
	tx.t.sequences[key]++
	return tx.t.sequences[key], nil
}

func (tx *tx) HasActiveApplication(_ context.Context, applicantID, programID, excludeID int64) (bool, error) {
	for _, app := range tx.t.applications {
		if app.ApplicantID == applicantID && app.ProgramID == programID && app.ID != excludeID && app.Status.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (tx *tx) CreateApplication(_ context.Context, app application.Application) (application.Application, error) {
	tx.t.pk.application++
	app.ID = tx.t.pk.application
	app.Documents = append([]string(nil), app.Documents...)
	tx.t.applications[app.ID] = app
	return app, nil
}

func (tx *tx) GetApplicationForUpdate(_ context.Context, id int64) (application.Application, error) {
	app, ok := tx.t.applications[id]
	if !ok {
		return application.Application{}, core.ErrNotFound
	}
	return app, nil
}

func (tx *tx) UpdateApplication(_ context.Context, app application.Application) (application.Application, error) {
	orig, ok := tx.t.applications[app.ID]
	if !ok {
		return application.Application{}, core.ErrNotFound
	}
	// identity and numbering never change
	app.ApplicantID = orig.ApplicantID
	app.ProgramID = orig.ProgramID
	app.RegistrationNumber = orig.RegistrationNumber
	app.RegistrationDate = orig.RegistrationDate
	app.CreatedAt = orig.CreatedAt
	app.Documents = append([]string(nil), app.Documents...)
	tx.t.applications[app.ID] = app
	return app, nil
}

func (tx *tx) AppendHistory(_ context.Context, entry application.HistoryEntry) (application.HistoryEntry, error) {
	if _, ok := tx.t.applications[entry.ApplicationID]; !ok {
		return application.HistoryEntry{}, core.ErrNotFound
	}
	tx.t.pk.history++
	entry.ID = tx.t.pk.history
	tx.t.history = append(tx.t.history, entry)
	return entry, nil
}

func (tx *tx) CreateComplaint(_ context.Context, c complaint.Complaint) (complaint.Complaint, error) {
	tx.t.pk.complaint++
	c.ID = tx.t.pk.complaint
	tx.t.complaints[c.ID] = c
	return c, nil
}

func (tx *tx) GetComplaintForUpdate(_ context.Context, id int64) (complaint.Complaint, error) {
	c, ok := tx.t.complaints[id]
	if !ok {
		return complaint.Complaint{}, core.ErrNotFound
	}
	return c, nil
}

func (tx *tx) UpdateComplaint(_ context.Context, c complaint.Complaint) (complaint.Complaint, error) {
	orig, ok := tx.t.complaints[c.ID]
	if !ok {
		return complaint.Complaint{}, core.ErrNotFound
	}
	c.AuthorID = orig.AuthorID
	c.LegislatorID = orig.LegislatorID
	c.TicketNumber = orig.TicketNumber
	c.CreatedAt = orig.CreatedAt
	tx.t.complaints[c.ID] = c
	return c, nil
}
