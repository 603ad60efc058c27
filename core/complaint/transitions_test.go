package complaint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		strict   bool
		want     bool
	}{
		{StatusNew, StatusProcessing, true, true},
		{StatusNew, StatusClosed, true, true},
		{StatusNew, StatusDone, true, false},
		{StatusProcessing, StatusDone, true, true},
		{StatusProcessing, StatusNew, true, false},
		{StatusDone, StatusClosed, true, true},
		{StatusDone, StatusProcessing, true, false},
		{StatusClosed, StatusNew, true, false},
		{StatusClosed, StatusClosed, true, true},
		{StatusNew, StatusDone, false, true},
		{StatusClosed, StatusNew, false, true},
		{StatusNew, Status("Dibuka"), false, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to, tc.strict))
		})
	}
}

func TestColors(t *testing.T) {
	assert.Equal(t, "red", StatusNew.Color())
	assert.Equal(t, "green", StatusDone.Color())
	assert.Equal(t, "red", PriorityUrgent.Color())
	assert.Equal(t, "gray", Priority("?").Color())
}
