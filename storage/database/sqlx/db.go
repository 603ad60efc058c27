// Package sqlxrepos implements the domain repositories on PostgreSQL.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/aspirasi/relawan/core"
)

const uniqueViolation = pq.ErrorCode("23505")

// atomic runs fn in a transaction, committed only if fn succeeds.
func atomic(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// trapNoRowsErr maps "no rows" to core.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// where accumulates AND-ed conditions written with "?" placeholders.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// query assembles the statement and expands IN (?) slices for postgres.
func (w *where) query(db sqlx.Ext, base string, orderings []core.DBOrdering) (string, []interface{}, error) {
	q := base
	if len(w.conds) > 0 {
		q += " WHERE " + strings.Join(w.conds, " AND ")
	}
	q += orderBy(orderings)

	q, args, err := sqlx.In(q, w.args...)
	if err != nil {
		return "", nil, errors.Wrap(err, "expanding query")
	}
	return db.Rebind(q), args, nil
}

func orderBy(orderings []core.DBOrdering) string {
	list := make([]string, 0, len(orderings)+1)
	for _, ord := range orderings {
		list = append(list, ord.String())
	}
	list = append(list, "id ASC")
	return " ORDER BY " + strings.Join(list, ", ")
}

// date maps a DATE column to midnight UTC.
func date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
