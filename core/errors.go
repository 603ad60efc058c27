package core

import "github.com/pkg/errors"

// Business rule violations. Services wrap these; callers match them with errors.Is or errors.Cause.
var (
	ErrProgramUnavailable   = errors.New("aid program is not available")
	ErrDuplicateApplication = errors.New("an active application for this program already exists")
	ErrInvalidState         = errors.New("action not permitted in the current state")
	ErrInvalidStatus        = errors.New("unrecognized status")
	ErrInvalidRating        = errors.New("rating must be between 1 and 5")
	ErrNotFound             = errors.New("not found")
	ErrUnauthorized         = errors.New("not authorized for this record")
	ErrImmutable            = errors.New("record can no longer be modified")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
