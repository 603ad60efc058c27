package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/aspirasi/relawan/core"
	"github.com/aspirasi/relawan/core/program"
)

const programColumns = `id, name, description, kind, nominal, quota, quota_consumed, window_start, window_end,
	status, requirements, required_documents, created_at, updated_at`

type programRow struct {
	ID                int64      `db:"id"`
	Name              string     `db:"name"`
	Description       string     `db:"description"`
	Kind              string     `db:"kind"`
	Nominal           null.Int64 `db:"nominal"`
	Quota             int        `db:"quota"`
	QuotaConsumed     int        `db:"quota_consumed"`
	WindowStart       time.Time  `db:"window_start"`
	WindowEnd         time.Time  `db:"window_end"`
	Status            string     `db:"status"`
	Requirements      string     `db:"requirements"`
	RequiredDocuments string     `db:"required_documents"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

func toProgramRow(p program.Program) programRow {
	return programRow{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		Kind:              string(p.Kind),
		Nominal:           p.Nominal,
		Quota:             p.Quota,
		QuotaConsumed:     p.QuotaConsumed,
		WindowStart:       date(p.WindowStart),
		WindowEnd:         date(p.WindowEnd),
		Status:            string(p.Status),
		Requirements:      p.Requirements,
		RequiredDocuments: p.RequiredDocuments,
		CreatedAt:         p.CreatedAt.UTC(),
		UpdatedAt:         p.UpdatedAt.UTC(),
	}
}

func (r programRow) program() program.Program {
	return program.Program{
		ID:                r.ID,
		Name:              r.Name,
		Description:       r.Description,
		Kind:              program.Kind(r.Kind),
		Nominal:           r.Nominal,
		Quota:             r.Quota,
		QuotaConsumed:     r.QuotaConsumed,
		WindowStart:       date(r.WindowStart),
		WindowEnd:         date(r.WindowEnd),
		Status:            program.Status(r.Status),
		Requirements:      r.Requirements,
		RequiredDocuments: r.RequiredDocuments,
		CreatedAt:         r.CreatedAt.UTC(),
		UpdatedAt:         r.UpdatedAt.UTC(),
	}
}

type programRepository struct {
	db *sqlx.DB
}

var _ program.Repository = (*programRepository)(nil) // interface compliance check

func NewProgramRepository(db *sqlx.DB) program.Repository {
	return &programRepository{db: db}
}

func (repo programRepository) Atomic(ctx context.Context, fn func(tx program.Tx) error) error {
	return atomic(ctx, repo.db, func(sqlTx *sqlx.Tx) error { return fn(&tx{tx: sqlTx}) })
}

func (repo programRepository) CreateProgram(ctx context.Context, p program.Program) (program.Program, error) {
	row := toProgramRow(p)
	q := `INSERT INTO aid_program (name, description, kind, nominal, quota, quota_consumed, window_start, window_end,
			status, requirements, required_documents, created_at, updated_at)
		VALUES (:name, :description, :kind, :nominal, :quota, 0, :window_start, :window_end,
			:status, :requirements, :required_documents, :created_at, :updated_at)
		RETURNING ` + programColumns

	stmt, err := repo.db.PrepareNamedContext(ctx, q)
	if err != nil {
		return program.Program{}, errors.Wrap(err, "preparing program insert")
	}
	defer func() { _ = stmt.Close() }()

	var created programRow
	if err = stmt.GetContext(ctx, &created, row); err != nil {
		return program.Program{}, errors.Wrap(err, "inserting program")
	}
	return created.program(), nil
}

func (repo programRepository) GetProgram(ctx context.Context, id int64) (program.Program, error) {
	var row programRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+programColumns+` FROM aid_program WHERE id = $1`, id)
	if err != nil {
		return program.Program{}, trapNoRowsErr(err, "finding program")
	}
	return row.program(), nil
}

func (repo programRepository) QueryPrograms(ctx context.Context, filter program.QueryFilter, orderings []core.DBOrdering) ([]program.Program, error) {
	var w where
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		w.add("(name ILIKE ? OR description ILIKE ?)", val, val)
	}
	if len(filter.Kinds) > 0 {
		w.add("kind IN (?)", filter.Kinds)
	}
	if len(filter.Statuses) > 0 {
		w.add("status IN (?)", filter.Statuses)
	}

	q, args, err := w.query(repo.db, `SELECT `+programColumns+` FROM aid_program`, orderings)
	if err != nil {
		return nil, err
	}
	var rows []programRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying programs")
	}

	programs := make([]program.Program, 0, len(rows))
	for _, r := range rows {
		programs = append(programs, r.program())
	}
	return programs, nil
}
