package program

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aspirasi/relawan/core"
	logsvc "github.com/aspirasi/relawan/services/logger"
)

type quotaStoreMock struct {
	programs map[int64]*Program
	held     map[int64]int
	err      error
}

func (s *quotaStoreMock) IncrementQuota(_ context.Context, id int64) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	p := s.programs[id]
	if p.QuotaConsumed >= p.Quota {
		return false, nil
	}
	p.QuotaConsumed++
	return true, nil
}

func (s *quotaStoreMock) DecrementQuota(_ context.Context, id int64) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	p := s.programs[id]
	if p.QuotaConsumed <= 0 {
		return false, nil
	}
	p.QuotaConsumed--
	return true, nil
}

func (s *quotaStoreMock) LockProgram(_ context.Context, id int64) (Program, error) {
	p, ok := s.programs[id]
	if !ok {
		return Program{}, core.ErrNotFound
	}
	return *p, nil
}

func (s *quotaStoreMock) CountHeldReservations(_ context.Context, id int64) (int, error) {
	return s.held[id], nil
}

func (s *quotaStoreMock) SetQuotaConsumed(_ context.Context, id int64, consumed int) error {
	s.programs[id].QuotaConsumed = consumed
	return nil
}

func newLedger(t *testing.T, now time.Time) (*Ledger, *logsvc.RollbarLogger) {
	t.Helper()
	core.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { core.NowFunc = time.Now })

	logger := logsvc.NewTestLogger()
	return NewLedger(&core.Config{TimeZone: "Asia/Jakarta"}, logger), logger
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLedger_IsAvailable(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	// 2025-03-31 23:30 in Jakarta is still 2025-03-31 16:30 UTC
	ledger, _ := newLedger(t, time.Date(2025, time.March, 31, 23, 30, 0, 0, jakarta))

	open := Program{
		Status:      StatusActive,
		Quota:       2,
		WindowStart: date(2025, time.March, 1),
		WindowEnd:   date(2025, time.March, 31),
	}
	with := func(mod func(p *Program)) Program {
		p := open
		mod(&p)
		return p
	}

	tests := []struct {
		name string
		p    Program
		want bool
	}{
		{name: "active, in window, quota left", p: open, want: true},
		{name: "last day of window is inclusive", p: with(func(p *Program) { p.QuotaConsumed = 1 }), want: true},
		{name: "first day of window is inclusive", p: with(func(p *Program) { p.WindowStart = date(2025, time.March, 31) }), want: true},
		{name: "quota exhausted", p: with(func(p *Program) { p.QuotaConsumed = 2 })},
		{name: "inactive", p: with(func(p *Program) { p.Status = StatusInactive })},
		{name: "completed", p: with(func(p *Program) { p.Status = StatusCompleted })},
		{name: "window not started", p: with(func(p *Program) { p.WindowStart = date(2025, time.April, 1); p.WindowEnd = date(2025, time.April, 30) })},
		{name: "window ended", p: with(func(p *Program) { p.WindowEnd = date(2025, time.March, 30) })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ledger.IsAvailable(tt.p))
		})
	}
}

func TestLedger_ReserveRelease(t *testing.T) {
	ctx := context.Background()
	ledger, logger := newLedger(t, time.Now())

	p := &Program{ID: 1, Quota: 2}
	store := &quotaStoreMock{programs: map[int64]*Program{1: {ID: 1, Quota: 2}}}

	require.NoError(t, ledger.Reserve(ctx, store, p))
	require.NoError(t, ledger.Reserve(ctx, store, p))
	assert.Equal(t, 2, p.QuotaConsumed)

	err := ledger.Reserve(ctx, store, p)
	assert.ErrorIs(t, err, core.ErrProgramUnavailable)
	assert.Equal(t, 2, p.QuotaConsumed)
	assert.Equal(t, 2, store.programs[1].QuotaConsumed)

	require.NoError(t, ledger.Release(ctx, store, p))
	require.NoError(t, ledger.Release(ctx, store, p))
	assert.Equal(t, 0, p.QuotaConsumed)

	// floored at 0
	require.NoError(t, ledger.Release(ctx, store, p))
	assert.Equal(t, 0, p.QuotaConsumed)
	assert.Equal(t, 0, store.programs[1].QuotaConsumed)
	assert.Contains(t, logger.Messages(), "[Ledger.Release] program 1: quota_consumed already 0")

	store.err = errors.New("connection reset")
	err = ledger.Reserve(ctx, store, p)
	assert.EqualError(t, err, "reserving quota of program 1: connection reset")
}

func TestLedger_Reconcile(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newLedger(t, time.Now())

	tests := []struct {
		name         string
		recorded     int
		held         int
		fix          bool
		wantFixed    bool
		wantConsumed int
	}{
		{name: "in sync", recorded: 2, held: 2, fix: true, wantConsumed: 2},
		{name: "drift, report only", recorded: 3, held: 1, wantConsumed: 3},
		{name: "drift, fixed", recorded: 3, held: 1, fix: true, wantFixed: true, wantConsumed: 1},
		{name: "overbooked, capped at quota", recorded: 2, held: 7, fix: true, wantFixed: true, wantConsumed: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &quotaStoreMock{
				programs: map[int64]*Program{1: {ID: 1, Quota: 5, QuotaConsumed: tt.recorded}},
				held:     map[int64]int{1: tt.held},
			}
			rec, err := ledger.Reconcile(ctx, store, 1, tt.fix)
			require.NoError(t, err)
			assert.Equal(t, tt.recorded, rec.Recorded)
			assert.Equal(t, tt.held, rec.Held)
			assert.Equal(t, tt.wantFixed, rec.Fixed)
			assert.Equal(t, tt.wantConsumed, store.programs[1].QuotaConsumed)
		})
	}

	_, err := ledger.Reconcile(ctx, &quotaStoreMock{programs: map[int64]*Program{}}, 9, false)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
