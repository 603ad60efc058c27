package dispatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aspirasi/relawan/core/complaint"
	"github.com/aspirasi/relawan/core/user"
)

const (
	dateFormat     = "02/01/2006 15:04"
	datetimeFormat = "02/01/2006 15:04:05"
)

// Payload is everything needed to forward one complaint. Its fields feed the email templates.
type Payload struct {
	ID      string // correlates the log lines of one dispatch
	AppName string
	Subject string
	Text    string

	TicketNumber string
	CreatedAt    string
	AuthorName   string
	AuthorPhone  string
	AuthorEmail  string
	Category     string
	Title        string
	Priority     string
	Status       string
	Description  string
	Department   Department
	ForwardedAt  string
}

// BuildPayload formats complaint c of author for the department of its category.
func BuildPayload(appName string, c complaint.Complaint, author user.User, s Settings, now time.Time, loc *time.Location) Payload {
	p := Payload{
		ID:           uuid.New().String(),
		AppName:      appName,
		Subject:      fmt.Sprintf("[#%s] %s", c.TicketNumber, c.Title),
		TicketNumber: c.TicketNumber,
		CreatedAt:    c.CreatedAt.In(loc).Format(dateFormat),
		AuthorName:   author.Name,
		AuthorPhone:  author.Phone,
		AuthorEmail:  author.Email,
		Category:     string(c.Category),
		Title:        c.Title,
		Priority:     string(c.Priority),
		Status:       string(c.Status),
		Description:  c.Description,
		Department:   s.Department(c.Category),
		ForwardedAt:  now.In(loc).Format(datetimeFormat),
	}
	p.Text = p.message()
	return p
}

func (p Payload) message() string {
	var b strings.Builder
	b.WriteString("📋 *PENGADUAN BARU*\n\n")
	fmt.Fprintf(&b, "📅 **Tanggal:** %s\n", p.CreatedAt)
	fmt.Fprintf(&b, "🎫 **No. Tiket:** #%s\n", p.TicketNumber)
	fmt.Fprintf(&b, "👤 **Nama:** %s\n", p.AuthorName)
	fmt.Fprintf(&b, "📱 **Phone:** %s\n", p.AuthorPhone)
	fmt.Fprintf(&b, "📧 **Email:** %s\n", p.AuthorEmail)
	fmt.Fprintf(&b, "🏢 **Kategori:** %s\n", p.Category)
	fmt.Fprintf(&b, "📢 **Judul:** %s\n", p.Title)
	fmt.Fprintf(&b, "🎯 **Prioritas:** %s\n", p.Priority)
	fmt.Fprintf(&b, "📍 **Status:** %s\n\n", p.Status)
	b.WriteString("📝 **Deskripsi Pengaduan:**\n")
	fmt.Fprintf(&b, "%s\n\n", p.Description)
	if p.Department.Name != "" {
		fmt.Fprintf(&b, "🏛️ **Diteruskan ke:** %s\n", p.Department.Name)
	}
	if p.Department.ContactPerson != "" {
		fmt.Fprintf(&b, "👤 **PIC:** %s\n", p.Department.ContactPerson)
	}
	fmt.Fprintf(&b, "\n⏰ **Waktu Forward:** %s\n", p.ForwardedAt)
	fmt.Fprintf(&b, "🔗 **System:** %s", p.AppName)
	return b.String()
}
