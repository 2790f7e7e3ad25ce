// Package validation wraps the validator/v10 library with first-failing-field
// error reporting for request payloads.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error reports the first failing field of a payload.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%q %s", e.Field, e.Message)
}

// Validator wraps go-playground/validator with error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our payloads.
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		// Remove options like omitempty, -
		for i := 0; i < len(name); i++ {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})

	// Poster links must be fetchable by a browser, so plain "url" (which
	// admits ftp:, file:, etc.) is not enough.
	_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns an *Error naming the first
// failing field, or nil when the struct is valid.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	if len(validationErrs) == 0 {
		return err
	}

	first := validationErrs[0]
	return &Error{
		Field:   first.Field(),
		Message: friendlyMessage(first),
	}
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return "must be greater than or equal to " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", e.Param())
		}
		return "must be less than or equal to " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "httpurl":
		return "must be an http or https URL"
	default:
		return "is invalid"
	}
}
