package project

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/otiai10/projectdeck/internal/security"
)

// ValidationError maps JSON field names to messages
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, field := range fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, e.Errors[field]))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Validator checks project form input
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator. allowLocalURLs permits
// http://localhost repository links for development.
func NewValidator(allowLocalURLs bool) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names so the form can map errors to inputs
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "project_status", func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Valid()
	})
	mustRegister(v, "repository_url", func(fl validator.FieldLevel) bool {
		return security.ValidateRepositoryURL(fl.Field().String(), allowLocalURLs) == nil
	})

	return &Validator{validate: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("failed to register validation tag %q: %v", tag, err))
	}
}

// Validate normalizes f and checks it.
// It returns the normalized fields, or a *ValidationError.
func (v *Validator) Validate(f Fields) (Fields, error) {
	f = f.Normalize()

	err := v.validate.Struct(f)
	if err == nil {
		return f, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return f, err
	}

	verr := &ValidationError{Errors: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Errors[fe.Field()] = message(fe)
	}
	return f, verr
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		switch fe.Field() {
		case "title":
			return "Title is required"
		case "description":
			return "Description is required"
		case "status":
			return "Status is required"
		}
		return "This field is required"
	case "max":
		return fmt.Sprintf("Must be at most %s characters long", fe.Param())
	case "project_status":
		names := make([]string, len(Statuses))
		for i, s := range Statuses {
			names[i] = string(s)
		}
		return "Must be one of: " + strings.Join(names, ", ")
	case "repository_url":
		return "Must be a valid https repository URL"
	default:
		return fmt.Sprintf("Invalid value (failed on '%s' tag)", fe.Tag())
	}
}
