package serrors

import (
	"errors"
	"fmt"
)

// BaseError is a coded error safe to surface to API clients. Code is stable
// and machine-readable; LocaleKey points at the translated message.
type BaseError struct {
	Code         string
	Message      string
	LocaleKey    string
	TemplateData map[string]string
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		LocaleKey: localeKey,
	}
}

func (e *BaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BaseError) WithTemplateData(data map[string]string) *BaseError {
	return &BaseError{
		Code:         e.Code,
		Message:      e.Message,
		LocaleKey:    e.LocaleKey,
		TemplateData: data,
	}
}

func (e *BaseError) WithDetail(detail string) *BaseError {
	return &BaseError{
		Code:         e.Code,
		Message:      fmt.Sprintf("%s: %s", e.Message, detail),
		LocaleKey:    e.LocaleKey,
		TemplateData: e.TemplateData,
	}
}

// Is matches by code so sentinel comparisons survive WithTemplateData/WithDetail copies.
func (e *BaseError) Is(target error) bool {
	var other *BaseError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// Code extracts the machine-readable code from err, or "" if err carries none.
func Code(err error) string {
	var base *BaseError
	if errors.As(err, &base) {
		return base.Code
	}
	return ""
}
