package application

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/aspirasi/relawan/core"
)

type Status string

const (
	StatusPending       Status = "Pending"
	StatusProcessing    Status = "Diproses"
	StatusApproved      Status = "Disetujui"
	StatusRejected      Status = "Ditolak"
	StatusCompleted     Status = "Selesai"
	StatusNeedsRevision Status = "Perlu Dilengkapi"
)

var Statuses = []Status{StatusPending, StatusProcessing, StatusApproved, StatusRejected, StatusCompleted, StatusNeedsRevision}

type statusPresentation struct {
	label string
	icon  string
	color string
}

var presentations = map[Status]statusPresentation{
	StatusPending:       {label: "Menunggu Review", icon: "⏳", color: "yellow"},
	StatusProcessing:    {label: "Sedang Diproses", icon: "🔄", color: "blue"},
	StatusApproved:      {label: "Disetujui", icon: "✅", color: "green"},
	StatusRejected:      {label: "Ditolak", icon: "❌", color: "red"},
	StatusCompleted:     {label: "Selesai", icon: "🎉", color: "gray"},
	StatusNeedsRevision: {label: "Perlu Dilengkapi", icon: "⚠️", color: "orange"},
}

const defaultIcon = "📋"

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", core.ErrInvalidStatus
	}
	return st, nil
}

func (s Status) Valid() bool {
	_, ok := presentations[s]
	return ok
}

// IsActive reports whether s holds the applicant's single active slot for a program.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusProcessing || s == StatusApproved
}

func (s Status) Label() string {
	if p, ok := presentations[s]; ok {
		return p.label
	}
	return string(s)
}

func (s Status) Icon() string {
	if p, ok := presentations[s]; ok {
		return p.icon
	}
	return defaultIcon
}

func (s Status) Color() string {
	if p, ok := presentations[s]; ok {
		return p.color
	}
	return "gray"
}

var (
	statusTag  = "application_status"
	statusText = "invalid application status"
)

// InitValidators registers the application validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	statuses := make([]string, 0, len(Statuses))
	for _, s := range Statuses {
		statuses = append(statuses, string(s))
	}
	core.RegisterEnum(validate, translator, statusTag, statusText, statuses...)
}

// Application is one applicant's request against an aid program (pendaftaran).
type Application struct {
	ID                 int64       `json:"id"`
	ApplicantID        int64       `json:"applicant_id"`
	ProgramID          int64       `json:"program_id"`
	RegistrationNumber string      `json:"registration_number"`
	RegistrationDate   time.Time   `json:"registration_date"` // date
	Status             Status      `json:"status"`
	Justification      string      `json:"justification"`
	Documents          []string    `json:"documents"`
	AdminNote          null.String `json:"admin_note"`
	ApprovalDate       null.Time   `json:"approval_date"` // date
	HandoverDate       null.Time   `json:"handover_date"` // date
	IsResubmission     bool        `json:"is_resubmission"`
	ResubmissionCount  int         `json:"resubmission_count"`
	ResubmittedAt      null.Time   `json:"resubmitted_at"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// HistoryEntry is one row of the append-only audit trail of an Application.
// StatusFrom is nil only for the creation entry.
type HistoryEntry struct {
	ID            int64     `json:"id"`
	ApplicationID int64     `json:"application_id"`
	StatusFrom    *Status   `json:"status_from"`
	StatusTo      Status    `json:"status_to"`
	Note          string    `json:"note"`
	ActorID       int64     `json:"actor_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// HistoryView is a HistoryEntry with its presentation labels.
type HistoryView struct {
	HistoryEntry
	LabelFrom string `json:"label_from,omitempty"`
	LabelTo   string `json:"label_to"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
}

func (e HistoryEntry) View() HistoryView {
	v := HistoryView{
		HistoryEntry: e,
		LabelTo:      e.StatusTo.Label(),
		Icon:         e.StatusTo.Icon(),
		Color:        e.StatusTo.Color(),
	}
	if e.StatusFrom != nil {
		v.LabelFrom = e.StatusFrom.Label()
	}
	return v
}

// NewApplication contains information needed to submit an Application.
type NewApplication struct {
	ProgramID     int64    `json:"program_id" validate:"required,min=1"`
	Justification string   `json:"justification" validate:"required,max=5000"`
	Documents     []string `json:"documents" validate:"max=20,dive,required"`
}

func (na *NewApplication) Validate(validate *validator.Validate) error {
	na.Justification = core.CleanString(na.Justification)
	na.Documents = cleanDocuments(na.Documents)
	return validate.Struct(na)
}

// Resubmission carries the corrected data of an Application returned for completion.
type Resubmission struct {
	Justification string   `json:"justification" validate:"required,max=5000"`
	Documents     []string `json:"documents" validate:"max=20,dive,required"`
}

func (rs *Resubmission) Validate(validate *validator.Validate) error {
	rs.Justification = core.CleanString(rs.Justification)
	rs.Documents = cleanDocuments(rs.Documents)
	return validate.Struct(rs)
}

// StatusChange is an administrator's transition request.
type StatusChange struct {
	Status    Status `json:"status" validate:"required,application_status"`
	AdminNote string `json:"admin_note" validate:"max=2000"`
}

func (sc *StatusChange) Validate(validate *validator.Validate) error {
	sc.AdminNote = core.CleanString(sc.AdminNote)
	if sc.Status != "" && !sc.Status.Valid() {
		return core.ErrInvalidStatus
	}
	return validate.Struct(sc)
}

type QueryFilter struct {
	ApplicantID int64    `query:"-"`
	ProgramID   int64    `query:"program_id"`
	Statuses    []Status `query:"status"`
	Search      string   `query:"search"` // registration number
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search, true /* lower */)
}

func cleanDocuments(docs []string) []string {
	cleaned := make([]string, 0, len(docs))
	for _, d := range docs {
		if d = core.CleanString(d); d != "" {
			cleaned = append(cleaned, d)
		}
	}
	return cleaned
}
