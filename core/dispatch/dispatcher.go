// Package dispatch forwards newly opened complaints to the departments in charge, by email and WhatsApp.
// Forwarding is best-effort: failures are logged and never reach the caller.
package dispatch

import (
	"context"
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/aspirasi/relawan/core"
	"github.com/aspirasi/relawan/core/complaint"
	"github.com/aspirasi/relawan/core/user"
)

const emailTemplate = "complaint_forwarded"

// MessageSender delivers a text message to a phone number.
type MessageSender interface {
	SendMessage(ctx context.Context, phone, message string) error
}

type Dispatcher struct {
	settings SettingsProvider
	email    core.EmailService
	whatsapp MessageSender
	logger   core.Logger
	appName  string
	loc      *time.Location
	timeout  time.Duration
	wg       sync.WaitGroup
}

var _ complaint.Forwarder = (*Dispatcher)(nil)

func NewDispatcher(settings SettingsProvider, email core.EmailService, whatsapp MessageSender, logger core.Logger, conf *core.Config) *Dispatcher {
	vala.BeginValidation().Validate(
		vala.IsNotNil(settings, "settings"),
		vala.IsNotNil(email, "email"),
		vala.IsNotNil(whatsapp, "whatsapp"),
		vala.IsNotNil(logger, "logger"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()

	timeout := conf.Whatsapp.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		settings: settings,
		email:    email,
		whatsapp: whatsapp,
		logger:   logger,
		appName:  conf.AppName,
		loc:      conf.Location(),
		timeout:  timeout,
	}
}

// Forward dispatches c in the background.
func (d *Dispatcher) Forward(c complaint.Complaint, author user.User) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		d.Dispatch(ctx, c, author)
	}()
}

// Wait blocks until every pending dispatch is done.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Dispatch forwards c synchronously over every enabled channel.
func (d *Dispatcher) Dispatch(ctx context.Context, c complaint.Complaint, author user.User) {
	s, err := d.settings.Settings(ctx)
	if err != nil {
		d.logger.Error("[Dispatcher] loading forwarding settings", errors.Wrap(err, c.TicketNumber), author)
		return
	}
	if s.Mode == ModeManual {
		d.logger.Info(fmt.Sprintf("[Dispatcher] %s: manual forwarding mode, skipped", c.TicketNumber))
		return
	}

	p := BuildPayload(d.appName, c, author, s, core.NowFunc(), d.loc)
	dept := p.Department
	var sent bool

	if s.EmailEnabled && dept.Email != "" {
		d.sendEmail(p, dept.Email, author)
		sent = true
	}
	if s.WhatsappEnabled && dept.Whatsapp != "" {
		if err := d.whatsapp.SendMessage(ctx, dept.Whatsapp, p.Text); err != nil {
			d.logger.Error(
				fmt.Sprintf("[Dispatcher] %s (%s): forwarding to WhatsApp failed", c.TicketNumber, p.ID),
				err, author,
			)
		} else {
			d.logger.Info(fmt.Sprintf("[Dispatcher] %s (%s): forwarded to WhatsApp", c.TicketNumber, p.ID))
		}
		sent = true
	}

	if !sent {
		d.logger.Warn(fmt.Sprintf("[Dispatcher] %s: no recipient configured for category %s", c.TicketNumber, c.Category))
	}
}

func (d *Dispatcher) sendEmail(p Payload, to string, author user.User) {
	addr, err := mail.ParseAddress(to)
	if err != nil {
		d.logger.Error(fmt.Sprintf("[Dispatcher] %s (%s): invalid department email %q", p.TicketNumber, p.ID, to), err, author)
		return
	}
	if p.Department.Name != "" {
		addr.Name = p.Department.Name
	}
	d.email.SendMessages(&core.EmailMessage{
		To:           []mail.Address{*addr},
		Subject:      p.Subject,
		TemplateName: emailTemplate,
		TemplateData: p,
	})
	d.logger.Info(fmt.Sprintf("[Dispatcher] %s (%s): forwarded by email to %s", p.TicketNumber, p.ID, addr.Address))
}
