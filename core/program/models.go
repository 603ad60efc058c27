package program

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/aspirasi/relawan/core"
)

type Kind string

const (
	KindCash      Kind = "Uang Tunai"
	KindGoods     Kind = "Sembako"
	KindEquipment Kind = "Peralatan"
	KindTraining  Kind = "Pelatihan"
	KindHealth    Kind = "Kesehatan"
	KindEducation Kind = "Pendidikan"
)

var Kinds = []Kind{KindCash, KindGoods, KindEquipment, KindTraining, KindHealth, KindEducation}

type Status string

const (
	StatusActive    Status = "Aktif"
	StatusInactive  Status = "Tidak Aktif"
	StatusCompleted Status = "Selesai"
)

var Statuses = []Status{StatusActive, StatusInactive, StatusCompleted}

var (
	kindTag    = "program_kind"
	kindText   = "invalid aid kind"
	statusTag  = "program_status"
	statusText = "invalid program status"
)

// InitValidators registers the program validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	kinds := make([]string, 0, len(Kinds))
	for _, k := range Kinds {
		kinds = append(kinds, string(k))
	}
	core.RegisterEnum(validate, translator, kindTag, kindText, kinds...)

	statuses := make([]string, 0, len(Statuses))
	for _, s := range Statuses {
		statuses = append(statuses, string(s))
	}
	core.RegisterEnum(validate, translator, statusTag, statusText, statuses...)
}

// Program is an aid program (bantuan sosial) with a capacity quota and an application window.
// QuotaConsumed is only ever written through the Ledger.
type Program struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Kind              Kind       `json:"kind"`
	Nominal           null.Int64 `json:"nominal"` // rupiah
	Quota             int        `json:"quota"`
	QuotaConsumed     int        `json:"quota_consumed"`
	WindowStart       time.Time  `json:"window_start"` // date
	WindowEnd         time.Time  `json:"window_end"`   // date
	Status            Status     `json:"status"`
	Requirements      string     `json:"requirements"`
	RequiredDocuments string     `json:"required_documents"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (p Program) RemainingQuota() int {
	if rem := p.Quota - p.QuotaConsumed; rem > 0 {
		return rem
	}
	return 0
}

// NewProgram contains information needed to create a new Program.
type NewProgram struct {
	Name              string     `json:"name" validate:"required,max=255"`
	Description       string     `json:"description"`
	Kind              Kind       `json:"kind" validate:"required,program_kind"`
	Nominal           null.Int64 `json:"nominal"`
	Quota             int        `json:"quota" validate:"required,min=1"`
	WindowStart       time.Time  `json:"window_start" validate:"required"`
	WindowEnd         time.Time  `json:"window_end" validate:"required,gtefield=WindowStart"`
	Status            Status     `json:"status" validate:"omitempty,program_status"`
	Requirements      string     `json:"requirements"`
	RequiredDocuments string     `json:"required_documents"`
}

func (np *NewProgram) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.Description = core.CleanString(np.Description)
	np.Requirements = core.CleanString(np.Requirements)
	np.RequiredDocuments = core.CleanString(np.RequiredDocuments)
	if np.Status == "" {
		np.Status = StatusActive
	}
	return validate.Struct(np)
}

// UpdateProgram defines what information may be provided to modify an existing Program.
// Zero values keep the current value.
type UpdateProgram struct {
	Name              string     `json:"name" validate:"omitempty,max=255"`
	Description       *string    `json:"description"`
	Nominal           null.Int64 `json:"nominal"`
	Quota             int        `json:"quota" validate:"omitempty,min=1"`
	WindowStart       time.Time  `json:"window_start"`
	WindowEnd         time.Time  `json:"window_end" validate:"gtefield=WindowStart"`
	Status            Status     `json:"status" validate:"omitempty,program_status"`
	Requirements      *string    `json:"requirements"`
	RequiredDocuments *string    `json:"required_documents"`
}

func (up *UpdateProgram) Validate(orig Program, validate *validator.Validate) error {
	if name := core.CleanString(up.Name); name != "" {
		up.Name = name
	} else {
		up.Name = orig.Name
	}
	if up.Quota == 0 {
		up.Quota = orig.Quota
	}
	if up.WindowStart.IsZero() {
		up.WindowStart = orig.WindowStart
	}
	if up.WindowEnd.IsZero() {
		up.WindowEnd = orig.WindowEnd
	}
	if up.Status == "" {
		up.Status = orig.Status
	}
	if !up.Nominal.Valid {
		up.Nominal = orig.Nominal
	}
	return validate.Struct(up)
}

type QueryFilter struct {
	Search        string   `query:"search"`
	Kinds         []Kind   `query:"kind"`
	Statuses      []Status `query:"status"`
	AvailableOnly bool     `query:"available"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// Reconciliation reports the drift between the recorded consumption and the held reservations.
type Reconciliation struct {
	ProgramID int64 `json:"program_id"`
	Quota     int   `json:"quota"`
	Recorded  int   `json:"recorded"`
	Held      int   `json:"held"` // applications not in Ditolak
	Fixed     bool  `json:"fixed"`
}

func (r Reconciliation) InSync() bool { return r.Recorded == r.Held }
