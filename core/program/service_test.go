package program_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/aspirasi/relawan/core"
	"github.com/aspirasi/relawan/core/application"
	"github.com/aspirasi/relawan/core/program"
	logsvc "github.com/aspirasi/relawan/services/logger"
	inmemdb "github.com/aspirasi/relawan/storage/database/inmem"
	"github.com/aspirasi/relawan/testutil"
)

var (
	ctx = context.Background()
	now = time.Date(2025, time.March, 10, 3, 0, 0, 0, time.UTC)
)

type fixture struct {
	svc    *program.Service
	apps   *application.Service
	logger *logsvc.RollbarLogger
}

func setup(t *testing.T) fixture {
	testutil.MockNow(t, now)
	db := inmemdb.Open()
	conf := testutil.NewConfig()
	logger := logsvc.NewTestLogger()
	ledger := program.NewLedger(conf, logger)
	return fixture{
		svc:    program.NewService(inmemdb.NewProgramRepository(db), ledger),
		apps:   application.NewService(inmemdb.NewApplicationRepository(db), ledger, logger, conf),
		logger: logger,
	}
}

func (f fixture) create(t *testing.T, name string, quota int, start, end time.Time) program.Program {
	t.Helper()
	validate, _ := testutil.NewValidator()
	np := program.NewProgram{
		Name:        "  " + name + " ",
		Kind:        program.KindCash,
		Nominal:     null.Int64From(300000),
		Quota:       quota,
		WindowStart: start,
		WindowEnd:   end,
	}
	require.NoError(t, np.Validate(validate))
	p, err := f.svc.Create(ctx, np)
	require.NoError(t, err)
	return p
}

func TestService_Create(t *testing.T) {
	f := setup(t)
	start := time.Date(2025, time.March, 1, 15, 0, 0, 0, time.UTC)
	p := f.create(t, "BLT Maret", 10, start, start.AddDate(0, 0, 30))

	assert.NotZero(t, p.ID)
	assert.Equal(t, "BLT Maret", p.Name)
	assert.Equal(t, program.StatusActive, p.Status)
	assert.Equal(t, 0, p.QuotaConsumed)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), p.WindowStart)
	assert.True(t, f.svc.IsAvailable(p))
}

func TestNewProgram_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()
	start := now

	tests := []struct {
		name     string
		np       program.NewProgram
		wantErrs []string
	}{
		{
			name: "valid",
			np:   program.NewProgram{Name: "BLT", Kind: program.KindCash, Quota: 1, WindowStart: start, WindowEnd: start},
		},
		{
			name:     "missing fields",
			np:       program.NewProgram{Kind: "Voucher", WindowStart: start, WindowEnd: start},
			wantErrs: []string{"name", "kind", "quota"},
		},
		{
			name:     "window ends before it starts",
			np:       program.NewProgram{Name: "BLT", Kind: program.KindCash, Quota: 1, WindowStart: start, WindowEnd: start.AddDate(0, 0, -1)},
			wantErrs: []string{"window_end"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.np.Validate(validate)
			if len(tc.wantErrs) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.wantErrs, fieldNames(err))
		})
	}
}

func TestService_Query(t *testing.T) {
	f := setup(t)
	open := f.create(t, "Bantuan Tunai", 1, now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
	future := f.create(t, "Beasiswa", 5, now.AddDate(0, 1, 0), now.AddDate(0, 2, 0))
	full := f.create(t, "Sembako", 1, now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
	_, err := f.apps.Submit(ctx, application.NewApplication{ProgramID: full.ID, Justification: "x"}, testutil.Applicant(1))
	require.NoError(t, err)

	tests := []struct {
		name      string
		filter    program.QueryFilter
		orderings []core.DBOrdering
		wantIDs   []int64
	}{
		{name: "all by name", orderings: []core.DBOrdering{{Field: "name"}}, wantIDs: []int64{full.ID, future.ID, open.ID}},
		{name: "available only", filter: program.QueryFilter{AvailableOnly: true}, wantIDs: []int64{open.ID}},
		{name: "search", filter: program.QueryFilter{Search: "beas"}, wantIDs: []int64{future.ID}},
		{name: "unknown ordering ignored", orderings: []core.DBOrdering{{Field: "quota; DROP TABLE"}}, wantIDs: []int64{open.ID, future.ID, full.ID}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.svc.Query(ctx, tc.filter, tc.orderings)
			require.NoError(t, err)
			ids := make([]int64, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tc.wantIDs, ids)
		})
	}
}

func TestService_Update(t *testing.T) {
	f := setup(t)
	validate, _ := testutil.NewValidator()
	p := f.create(t, "BLT", 2, now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
	for i := int64(1); i <= 2; i++ {
		_, err := f.apps.Submit(ctx, application.NewApplication{ProgramID: p.ID, Justification: "x"}, testutil.Applicant(i))
		require.NoError(t, err)
	}

	t.Run("quota below consumed", func(t *testing.T) {
		up := program.UpdateProgram{Quota: 1}
		require.NoError(t, up.Validate(p, validate))
		_, err := f.svc.Update(ctx, p.ID, up)

		var verr *core.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "quota", verr.Fields[0].Field)
	})

	t.Run("raise quota", func(t *testing.T) {
		desc := "bantuan langsung tunai"
		up := program.UpdateProgram{Quota: 5, Description: &desc}
		require.NoError(t, up.Validate(p, validate))
		got, err := f.svc.Update(ctx, p.ID, up)
		require.NoError(t, err)

		assert.Equal(t, 5, got.Quota)
		assert.Equal(t, 2, got.QuotaConsumed)
		assert.Equal(t, "BLT", got.Name)
		assert.Equal(t, desc, got.Description)
		assert.Equal(t, p.WindowEnd, got.WindowEnd)
	})

	t.Run("unknown program", func(t *testing.T) {
		_, err := f.svc.Update(ctx, 999, program.UpdateProgram{Quota: 5})
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestService_Reconcile(t *testing.T) {
	f := setup(t)
	p := f.create(t, "BLT", 3, now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
	_, err := f.apps.Submit(ctx, application.NewApplication{ProgramID: p.ID, Justification: "x"}, testutil.Applicant(1))
	require.NoError(t, err)

	rec, err := f.svc.Reconcile(ctx, p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, program.Reconciliation{ProgramID: p.ID, Quota: 3, Recorded: 1, Held: 1}, rec)
	assert.True(t, rec.InSync())

	_, err = f.svc.Reconcile(ctx, 999, false)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func fieldNames(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		names = append(names, fe.Field())
	}
	return names
}
