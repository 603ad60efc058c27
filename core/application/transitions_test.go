package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_canTransition(t *testing.T) {
	for _, from := range Statuses {
		for _, to := range Statuses {
			got := canTransition(from, to)
			switch {
			case from == to:
				assert.False(t, got, "%s -> %s", from, to)
			case from == StatusRejected:
				assert.True(t, got, "reopen %s -> %s", from, to)
			case to == StatusPending, from == StatusCompleted, from == StatusNeedsRevision:
				assert.False(t, got, "%s -> %s", from, to)
			}
		}
	}
	assert.True(t, canTransition(StatusApproved, StatusCompleted))
	assert.False(t, canTransition(StatusProcessing, StatusCompleted))
}

func Test_transitionNote(t *testing.T) {
	tests := []struct {
		name      string
		from, to  Status
		adminNote string
		want      string
	}{
		{name: "handed over", from: StatusApproved, to: StatusCompleted, want: "handed over"},
		{name: "fallback", from: StatusRejected, to: StatusPending, want: "status changed from Ditolak to Pending"},
		{name: "with admin note", from: StatusPending, to: StatusApproved, adminNote: "lengkap", want: "approved - lengkap"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, transitionNote(tc.from, tc.to, tc.adminNote))
		})
	}
	assert.Equal(t, "resubmission #3 by applicant", resubmissionNote(3))
}

func TestStatus_Presentation(t *testing.T) {
	tests := []struct {
		status    Status
		wantLabel string
		wantIcon  string
	}{
		{StatusPending, "Menunggu Review", "⏳"},
		{StatusProcessing, "Sedang Diproses", "🔄"},
		{StatusApproved, "Disetujui", "✅"},
		{StatusRejected, "Ditolak", "❌"},
		{StatusCompleted, "Selesai", "🎉"},
		{StatusNeedsRevision, "Perlu Dilengkapi", "⚠️"},
		{Status("Lainnya"), "Lainnya", "📋"},
	}
	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			assert.Equal(t, tc.wantLabel, tc.status.Label())
			assert.Equal(t, tc.wantIcon, tc.status.Icon())
		})
	}

	_, err := ParseStatus("Dibatalkan")
	assert.Error(t, err)
	s, err := ParseStatus("Perlu Dilengkapi")
	assert.NoError(t, err)
	assert.Equal(t, StatusNeedsRevision, s)

	from := StatusPending
	v := HistoryEntry{StatusFrom: &from, StatusTo: StatusApproved}.View()
	assert.Equal(t, "Menunggu Review", v.LabelFrom)
	assert.Equal(t, "Disetujui", v.LabelTo)
	assert.Equal(t, "green", v.Color)
}
