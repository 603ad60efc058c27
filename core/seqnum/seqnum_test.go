package seqnum

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterMock struct {
	values map[string]int
	err    error
}

func (c *counterMock) NextSequence(_ context.Context, kind Kind, period string) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	key := string(kind) + period
	c.values[key]++
	return c.values[key], nil
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		period string
		seq    int
		want   string
	}{
		{name: "first registration", kind: KindRegistration, period: "202503", seq: 1, want: "REG-202503-0001"},
		{name: "twelfth registration", kind: KindRegistration, period: "202503", seq: 12, want: "REG-202503-0012"},
		{name: "ticket", kind: KindTicket, period: "202512", seq: 345, want: "TKT-202512-0345"},
		{name: "past 9999", kind: KindTicket, period: "202501", seq: 10000, want: "TKT-202501-10000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.kind, tt.period, tt.seq))
		})
	}
}

func TestNext(t *testing.T) {
	ctx := context.Background()
	counter := &counterMock{values: make(map[string]int)}
	march := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	april := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

	var last string
	for i := 1; i <= 12; i++ {
		num, err := Next(ctx, counter, KindRegistration, march)
		require.NoError(t, err)
		assert.Greater(t, num, last)
		last = num
	}
	assert.Equal(t, "REG-202503-0012", last)

	// independent counters per kind and per month
	num, err := Next(ctx, counter, KindTicket, march)
	require.NoError(t, err)
	assert.Equal(t, "TKT-202503-0001", num)

	num, err = Next(ctx, counter, KindRegistration, april)
	require.NoError(t, err)
	assert.Equal(t, "REG-202504-0001", num)

	counter.err = errors.New("db down")
	_, err = Next(ctx, counter, KindTicket, april)
	assert.EqualError(t, err, "drawing TKT sequence for 202504: db down")
}
