package dispatch_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aspirasi/relawan/assets"
	"github.com/aspirasi/relawan/core"
	"github.com/aspirasi/relawan/core/complaint"
	"github.com/aspirasi/relawan/core/dispatch"
	"github.com/aspirasi/relawan/core/user"
	emailsvc "github.com/aspirasi/relawan/services/email"
	logsvc "github.com/aspirasi/relawan/services/logger"
	"github.com/aspirasi/relawan/testutil"
)

var (
	jakarta, _ = time.LoadLocation("Asia/Jakarta")

	author = user.User{ID: 1, Name: "Siti", Phone: "628123", Email: "siti@relawan.test", Role: user.RoleUser}
	ticket = complaint.Complaint{
		ID:           1,
		AuthorID:     1,
		TicketNumber: "TKT-202503-0001",
		Title:        "Jalan rusak",
		Category:     complaint.CategoryTechnical,
		Description:  "Jalan di RT 03 berlubang",
		Priority:     complaint.PriorityHigh,
		Status:       complaint.StatusNew,
		CreatedAt:    time.Date(2025, time.March, 10, 3, 0, 0, 0, time.UTC),
	}
)

func TestMain(m *testing.M) {
	core.ParseEmailTemplates(assets.Templates, assets.EmailTemplatesDir, logsvc.NewTestLogger())
	// rollbar keeps a transport goroutine from package init
	goleak.VerifyTestMain(m, goleak.IgnoreCurrent())
}

type senderMock struct {
	mu   sync.Mutex
	sent map[string]string // {phone: message}
	err  error
}

func (m *senderMock) SendMessage(_ context.Context, phone, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.sent == nil {
		m.sent = make(map[string]string)
	}
	m.sent[phone] = message
	return nil
}

func TestBuildPayload(t *testing.T) {
	s, err := dispatch.NewConfigSettings(testutil.NewConfig()).Settings(context.Background())
	require.NoError(t, err)

	p := dispatch.BuildPayload("Relawan", ticket, author, s, time.Date(2025, time.March, 10, 3, 0, 5, 0, time.UTC), jakarta)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "[#TKT-202503-0001] Jalan rusak", p.Subject)
	assert.Equal(t, "Dinas Teknis", p.Department.Name)
	assert.Equal(t, "teknis@relawan.test", p.Department.Email)

	want := strings.Join([]string{
		"📋 *PENGADUAN BARU*",
		"",
		"📅 **Tanggal:** 10/03/2025 10:00",
		"🎫 **No. Tiket:** #TKT-202503-0001",
		"👤 **Nama:** Siti",
		"📱 **Phone:** 628123",
		"📧 **Email:** siti@relawan.test",
		"🏢 **Kategori:** Teknis",
		"📢 **Judul:** Jalan rusak",
		"🎯 **Prioritas:** Tinggi",
		"📍 **Status:** Baru",
		"",
		"📝 **Deskripsi Pengaduan:**",
		"Jalan di RT 03 berlubang",
		"",
		"🏛️ **Diteruskan ke:** Dinas Teknis",
		"👤 **PIC:** Kepala Dinas Teknis",
		"",
		"⏰ **Waktu Forward:** 10/03/2025 10:00:05",
		"🔗 **System:** Relawan",
	}, "\n")
	assert.Equal(t, want, p.Text)
}

func TestSettings_Department(t *testing.T) {
	s, err := dispatch.NewConfigSettings(testutil.NewConfig()).Settings(context.Background())
	require.NoError(t, err)

	tests := []struct {
		category complaint.Category
		want     dispatch.Department
	}{
		{
			category: complaint.CategoryTechnical,
			want:     dispatch.Department{Name: "Dinas Teknis", Email: "teknis@relawan.test", Whatsapp: "6281111111111", ContactPerson: "Kepala Dinas Teknis"},
		},
		{
			category: complaint.CategoryAid, // no whatsapp number
			want:     dispatch.Department{Name: "Dinas Sosial", Email: "sosial@relawan.test", Whatsapp: "6280000000000", ContactPerson: "Kepala Dinas Sosial"},
		},
		{
			category: complaint.CategoryOther, // not configured
			want:     dispatch.Department{Email: "admin@relawan.test", Whatsapp: "6280000000000"},
		},
	}
	for _, tc := range tests {
		t.Run(string(tc.category), func(t *testing.T) {
			assert.Equal(t, tc.want, s.Department(tc.category))
		})
	}
}

func TestDispatcher_Forward(t *testing.T) {
	tests := []struct {
		name         string
		configure    func(conf *core.Config)
		senderErr    error
		wantEmails   int
		wantWhatsapp bool
		wantLog      string
	}{
		{
			name:         "email and whatsapp",
			wantEmails:   1,
			wantWhatsapp: true,
			wantLog:      "[Dispatcher] TKT-202503-0001 (",
		},
		{
			name:      "manual mode",
			configure: func(conf *core.Config) { conf.Forwarding.Mode = dispatch.ModeManual },
			wantLog:   "[Dispatcher] TKT-202503-0001: manual forwarding mode, skipped",
		},
		{
			name: "no recipient",
			configure: func(conf *core.Config) {
				conf.Forwarding.EmailEnabled = false
				conf.Forwarding.AdminWhatsapp = ""
				conf.Forwarding.Departments = nil
			},
			wantLog: "[Dispatcher] TKT-202503-0001: no recipient configured for category Teknis",
		},
		{
			name:       "whatsapp failure is swallowed",
			senderErr:  errors.New("bridge down"),
			wantEmails: 1,
			wantLog:    "forwarding to WhatsApp failed",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			emailsvc.ResetSentMessages()
			conf := testutil.NewConfig()
			if tc.configure != nil {
				tc.configure(conf)
			}
			logger := logsvc.NewTestLogger()
			sender := &senderMock{err: tc.senderErr}
			d := dispatch.NewDispatcher(
				dispatch.NewConfigSettings(conf),
				emailsvc.NewConsoleServiceMock(conf, logger),
				sender,
				logger,
				conf,
			)

			d.Forward(ticket, author)
			d.Wait()

			sent := emailsvc.Sent()
			require.Len(t, sent, tc.wantEmails)
			if tc.wantEmails > 0 {
				msg := sent[0]
				assert.Equal(t, "teknis@relawan.test", msg.To[0].Address)
				assert.Equal(t, "Dinas Teknis", msg.To[0].Name)
				assert.Equal(t, "[#TKT-202503-0001] Jalan rusak", msg.Subject)
				assert.Contains(t, msg.TextContent, "🎫 **No. Tiket:** #TKT-202503-0001")
				assert.Contains(t, msg.HTMLContent, "Pengaduan #TKT-202503-0001")
				assert.Contains(t, msg.HTMLContent, "Kepala Dinas Teknis")
			}

			if tc.wantWhatsapp {
				assert.Contains(t, sender.sent["6281111111111"], "📋 *PENGADUAN BARU*")
			} else {
				assert.Empty(t, sender.sent)
			}

			var found bool
			for _, m := range logger.Messages() {
				if strings.Contains(m, tc.wantLog) {
					found = true
				}
			}
			assert.True(t, found, "log %q not found in %v", tc.wantLog, logger.Messages())
		})
	}
}
