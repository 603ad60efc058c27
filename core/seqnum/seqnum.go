// Package seqnum generates the monthly sequential reference numbers
// (REG-YYYYMM-NNNN, TKT-YYYYMM-NNNN) from atomic per-month counters.
package seqnum

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

type Kind string

const (
	KindRegistration Kind = "REG"
	KindTicket       Kind = "TKT"
)

// Counter atomically increments and returns the counter of (kind, period), starting at 1.
type Counter interface {
	NextSequence(ctx context.Context, kind Kind, period string) (int, error)
}

// Period returns the YYYYMM counter period of t.
func Period(t time.Time) string {
	return t.Format("200601")
}

// Format renders a reference number. The sequence is zero-padded to 4 digits and widens past 9999.
func Format(kind Kind, period string, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", kind, period, seq)
}

// Next draws the next reference number of kind for the month of now.
func Next(ctx context.Context, c Counter, kind Kind, now time.Time) (string, error) {
	period := Period(now)
	seq, err := c.NextSequence(ctx, kind, period)
	if err != nil {
		return "", errors.Wrapf(err, "drawing %s sequence for %s", kind, period)
	}
	return Format(kind, period, seq), nil
}
