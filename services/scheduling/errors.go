package scheduling

import (
	"errors"
	"fmt"
)

// Error codes surfaced to callers so clients can react, e.g. re-fetching
// slots after a lost booking race.
const (
	CodeNotFound          = "notFound"
	CodeSlotUnavailable   = "slotUnavailable"
	CodeInvalidTransition = "invalidTransition"
	CodeValidation        = "validationError"
	CodeForbidden         = "forbidden"
)

// Error is a coded scheduling failure.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewNotFound(format string, args ...any) error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewSlotUnavailable(format string, args ...any) error {
	return &Error{Code: CodeSlotUnavailable, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidTransition(format string, args ...any) error {
	return &Error{Code: CodeInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func NewValidationError(format string, args ...any) error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func NewForbidden(format string, args ...any) error {
	return &Error{Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the scheduling error code, or "" for plain errors.
func CodeOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
