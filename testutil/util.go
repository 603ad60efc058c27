// Package testutil provides fixtures shared by the package tests.
package testutil

import (
	"context"
	"net/mail"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/aspirasi/relawan/core"
	"github.com/aspirasi/relawan/core/application"
	"github.com/aspirasi/relawan/core/complaint"
	"github.com/aspirasi/relawan/core/program"
	"github.com/aspirasi/relawan/core/user"
)

// NewConfig returns the configuration used by the tests, without reading the environment.
func NewConfig() *core.Config {
	return &core.Config{
		AppName:          "Relawan",
		Env:              "TEST",
		TestMode:         true,
		TimeZone:         "Asia/Jakarta",
		DefaultFromEmail: mail.Address{Name: "Relawan", Address: "noreply@relawan.test"},
		Server: core.ServerConfig{
			SecretKey:          "test-secret",
			JWTExpirationDelta: time.Hour,
		},
		Whatsapp: core.WhatsappConfig{Timeout: time.Second},
		Forwarding: core.ForwardingConfig{
			EmailEnabled:    true,
			WhatsappEnabled: true,
			Mode:            "auto",
			AdminEmail:      "admin@relawan.test",
			AdminWhatsapp:   "6280000000000",
			Departments: map[string]core.DepartmentConfig{
				"teknis":  {Name: "Dinas Teknis", Email: "teknis@relawan.test", Whatsapp: "6281111111111", ContactPerson: "Kepala Dinas Teknis"},
				"bantuan": {Name: "Dinas Sosial", Email: "sosial@relawan.test", ContactPerson: "Kepala Dinas Sosial"},
			},
		},
		Complaint: core.ComplaintConfig{StrictTransitions: true},
	}
}

// NewValidator returns a validator with every domain tag registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	program.InitValidators(validate, translator)
	application.InitValidators(validate, translator)
	complaint.InitValidators(validate, translator)
	return validate, translator
}

// MockNow freezes core.NowFunc at now for the duration of the test.
func MockNow(t *testing.T, now time.Time) {
	t.Helper()
	orig := core.NowFunc
	core.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { core.NowFunc = orig })
}

func Applicant(id int64) user.User {
	return user.User{ID: id, Name: "Warga", Email: "warga@relawan.test", Phone: "6289999999999", Role: user.RoleUser}
}

func SuperAdmin(id int64) user.User {
	return user.User{ID: id, Name: "Admin", Email: "admin@relawan.test", Role: user.RoleAdmin}
}

func LegislatorAdmin(id, legislatorID int64) user.User {
	return user.User{ID: id, Name: "Admin Aleg", Email: "aleg@relawan.test", Role: user.RoleLegislatorAdmin, LegislatorID: null.Int64From(legislatorID)}
}

// CreateProgram stores an active program with the given quota, open from yesterday to next week.
func CreateProgram(t *testing.T, repo program.Repository, name string, quota int) program.Program {
	t.Helper()
	now := core.NowFunc().UTC()
	p, err := repo.CreateProgram(context.Background(), program.Program{
		Name:        name,
		Kind:        program.KindGoods,
		Quota:       quota,
		WindowStart: now.AddDate(0, 0, -1),
		WindowEnd:   now.AddDate(0, 0, 7),
		Status:      program.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateProgram() failed: %v", err)
	}
	return p
}
