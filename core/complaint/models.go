package complaint

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/aspirasi/relawan/core"
)

type Category string

const (
	CategoryTechnical  Category = "Teknis"
	CategoryService    Category = "Pelayanan"
	CategoryAid        Category = "Bantuan"
	CategorySuggestion Category = "Saran"
	CategoryOther      Category = "Lainnya"
)

var Categories = []Category{CategoryTechnical, CategoryService, CategoryAid, CategorySuggestion, CategoryOther}

type Priority string

const (
	PriorityLow    Priority = "Rendah"
	PriorityMedium Priority = "Sedang"
	PriorityHigh   Priority = "Tinggi"
	PriorityUrgent Priority = "Urgent"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

var priorityColors = map[Priority]string{
	PriorityLow:    "green",
	PriorityMedium: "yellow",
	PriorityHigh:   "orange",
	PriorityUrgent: "red",
}

func (p Priority) Color() string {
	if c, ok := priorityColors[p]; ok {
		return c
	}
	return "gray"
}

type Status string

const (
	StatusNew        Status = "Baru"
	StatusProcessing Status = "Diproses"
	StatusDone       Status = "Selesai"
	StatusClosed     Status = "Ditutup"
)

var Statuses = []Status{StatusNew, StatusProcessing, StatusDone, StatusClosed}

var statusColors = map[Status]string{
	StatusNew:        "red",
	StatusProcessing: "yellow",
	StatusDone:       "green",
	StatusClosed:     "gray",
}

func (s Status) Valid() bool {
	_, ok := statusColors[s]
	return ok
}

func (s Status) Color() string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return "gray"
}

const (
	MinRating = 1
	MaxRating = 5
)

var (
	categoryTag  = "complaint_category"
	categoryText = "invalid complaint category"
	priorityTag  = "complaint_priority"
	priorityText = "invalid complaint priority"
	statusTag    = "complaint_status"
	statusText   = "invalid complaint status"
)

// InitValidators registers the complaint validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	categories := make([]string, 0, len(Categories))
	for _, c := range Categories {
		categories = append(categories, string(c))
	}
	core.RegisterEnum(validate, translator, categoryTag, categoryText, categories...)

	priorities := make([]string, 0, len(Priorities))
	for _, p := range Priorities {
		priorities = append(priorities, string(p))
	}
	core.RegisterEnum(validate, translator, priorityTag, priorityText, priorities...)

	statuses := make([]string, 0, len(Statuses))
	for _, s := range Statuses {
		statuses = append(statuses, string(s))
	}
	core.RegisterEnum(validate, translator, statusTag, statusText, statuses...)
}

// Complaint is a citizen ticket (pengaduan), scoped to the legislator of its author.
type Complaint struct {
	ID              int64       `json:"id"`
	AuthorID        int64       `json:"author_id"`
	LegislatorID    null.Int64  `json:"legislator_id"`
	TicketNumber    string      `json:"ticket_number"`
	Title           string      `json:"title"`
	Category        Category    `json:"category"`
	Description     string      `json:"description"`
	ImagePath       null.String `json:"image_path"`
	Priority        Priority    `json:"priority"`
	Status          Status      `json:"status"`
	AdminResponse   null.String `json:"admin_response"`
	AdminResponseAt null.Time   `json:"admin_response_at"`
	Rating          null.Int    `json:"rating"`
	Feedback        null.String `json:"feedback"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// NewComplaint contains information needed to open a Complaint.
type NewComplaint struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Category    Category `json:"category" validate:"required,complaint_category"`
	Description string   `json:"description" validate:"required"`
	Priority    Priority `json:"priority" validate:"omitempty,complaint_priority"`
	ImagePath   string   `json:"image_path" validate:"max=1024"`
}

func (nc *NewComplaint) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.ImagePath = core.CleanString(nc.ImagePath)
	if nc.Priority == "" {
		nc.Priority = PriorityMedium
	}
	return validate.Struct(nc)
}

// UpdateComplaint defines what the author may change while the complaint is still Baru.
// Zero values keep the current value.
type UpdateComplaint struct {
	Title       string   `json:"title" validate:"omitempty,max=255"`
	Category    Category `json:"category" validate:"omitempty,complaint_category"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority" validate:"omitempty,complaint_priority"`
}

func (uc *UpdateComplaint) Validate(validate *validator.Validate) error {
	uc.Title = core.CleanString(uc.Title)
	uc.Description = core.CleanString(uc.Description)
	return validate.Struct(uc)
}

// StatusChange is an administrator's status update, with an optional response to the author.
type StatusChange struct {
	Status        Status `json:"status" validate:"required,complaint_status"`
	AdminResponse string `json:"admin_response" validate:"max=5000"`
}

func (sc *StatusChange) Validate(validate *validator.Validate) error {
	sc.AdminResponse = core.CleanString(sc.AdminResponse)
	if sc.Status != "" && !sc.Status.Valid() {
		return core.ErrInvalidStatus
	}
	return validate.Struct(sc)
}

// Feedback is the author's rating of a handled complaint. The rating range is checked by the service.
type Feedback struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback" validate:"max=2000"`
}

func (fb *Feedback) Validate(validate *validator.Validate) error {
	fb.Feedback = core.CleanString(fb.Feedback)
	return validate.Struct(fb)
}

type QueryFilter struct {
	AuthorID     int64      `query:"-"`
	LegislatorID null.Int64 `query:"-"`
	Statuses     []Status   `query:"status"`
	Categories   []Category `query:"category"`
	Priorities   []Priority `query:"priority"`
	Search       string     `query:"search"` // ticket number or title
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search, true /* lower */)
}
