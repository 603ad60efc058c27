package dispatch

import (
	"context"
	"strings"

	"github.com/aspirasi/relawan/core"
	"github.com/aspirasi/relawan/core/complaint"
)

const (
	ModeAuto   = "auto"
	ModeManual = "manual" // complaints are forwarded by hand from the admin UI
)

// Department receives the complaints of one category.
type Department struct {
	Name          string
	Email         string
	Whatsapp      string
	ContactPerson string
}

// Settings are the forwarding settings in effect for one dispatch.
type Settings struct {
	EmailEnabled    bool
	WhatsappEnabled bool
	Mode            string
	AdminEmail      string
	AdminWhatsapp   string
	Departments     map[complaint.Category]Department
}

// Department returns the department of cat, with the admin addresses filling in missing contacts.
func (s Settings) Department(cat complaint.Category) Department {
	dept := s.Departments[cat]
	if dept.Email == "" {
		dept.Email = s.AdminEmail
	}
	if dept.Whatsapp == "" {
		dept.Whatsapp = s.AdminWhatsapp
	}
	return dept
}

// SettingsProvider fetches the forwarding settings. It is consulted once per dispatch.
type SettingsProvider interface {
	Settings(ctx context.Context) (Settings, error)
}

type configSettings struct {
	conf core.ForwardingConfig
}

var _ SettingsProvider = (*configSettings)(nil)

// NewConfigSettings serves the forwarding settings of the application configuration.
func NewConfigSettings(conf *core.Config) SettingsProvider {
	return &configSettings{conf: conf.Forwarding}
}

func (cs configSettings) Settings(_ context.Context) (Settings, error) {
	s := Settings{
		EmailEnabled:    cs.conf.EmailEnabled,
		WhatsappEnabled: cs.conf.WhatsappEnabled,
		Mode:            strings.ToLower(cs.conf.Mode),
		AdminEmail:      cs.conf.AdminEmail,
		AdminWhatsapp:   cs.conf.AdminWhatsapp,
		Departments:     make(map[complaint.Category]Department, len(complaint.Categories)),
	}
	for _, cat := range complaint.Categories {
		if d, ok := cs.conf.Departments[strings.ToLower(string(cat))]; ok {
			s.Departments[cat] = Department{
				Name:          d.Name,
				Email:         d.Email,
				Whatsapp:      d.Whatsapp,
				ContactPerson: d.ContactPerson,
			}
		}
	}
	return s, nil
}
