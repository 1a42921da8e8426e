// Package validation carries structured validation failures across layers.
package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MissingFieldsError reports every absent required field at once. Code is
// the domain sentinel callers match with errors.Is.
type MissingFieldsError struct {
	Code   error
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	code := "missing_fields"
	if e.Code != nil {
		code = e.Code.Error()
	}
	return code + ": " + strings.Join(e.Fields, ", ")
}

func (e *MissingFieldsError) Unwrap() error { return e.Code }

// Missing returns nil when fields is empty.
func Missing(code error, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	out := make([]string, len(fields))
	copy(out, fields)
	return &MissingFieldsError{Code: code, Fields: out}
}

// FromValidator converts "required" failures from go-playground/validator
// into a MissingFieldsError. Field names come from the validator's tag name
// function (json names in this codebase). Other failures pass through.
func FromValidator(code error, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() != "required" {
			return err
		}
		fields = append(fields, fe.Field())
	}
	return Missing(code, fields...)
}
