// Package validate runs client-side form validation before any request is
// issued and reports failures per field using JSON field names.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

func (f FieldError) String() string {
	return f.Field + " " + f.Message
}

// Errors is returned when one or more fields fail validation.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, f := range e {
		parts = append(parts, f.String())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field returns the message for a field, or "" when it passed.
func (e Errors) Field(name string) string {
	for _, f := range e {
		if f.Field == name {
			return f.Message
		}
	}
	return ""
}

// ByField is handy for rendering inline messages next to inputs.
func (e Errors) ByField() map[string]string {
	out := make(map[string]string, len(e))
	for _, f := range e {
		if _, seen := out[f.Field]; !seen {
			out[f.Field] = f.Message
		}
	}
	return out
}

var (
	once     sync.Once
	instance *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(sf reflect.StructField) string {
			return jsonNameFromStructField(sf)
		})
		instance = v
	})
	return instance
}

// Struct validates v using its `validate` tags.
func Struct(v any) error {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}
	return translate(err)
}

// Var validates a single value against a tag, reporting it under field.
func Var(field string, value any, tag string) error {
	err := engine().Var(value, tag)
	if err == nil {
		return nil
	}

	var validatorError validator.ValidationErrors
	if errors.As(err, &validatorError) && len(validatorError) > 0 {
		fe := validatorError[0]
		return Errors{{
			Field:   field,
			Rule:    fe.Tag(),
			Param:   fe.Param(),
			Message: validationMessage(fe.Tag(), fe.Param()),
		}}
	}
	return err
}

// New builds a single-field error for checks that do not fit a tag.
func New(field, rule, message string) Errors {
	return Errors{{Field: field, Rule: rule, Message: message}}
}

// AsErrors extracts field errors from err, if it carries any.
func AsErrors(err error) (Errors, bool) {
	var fe Errors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

func translate(err error) error {
	var validatorError validator.ValidationErrors

	if !errors.As(err, &validatorError) {
		return err
	}

	fields := make(Errors, 0, len(validatorError))

	for _, fieldError := range validatorError {
		rule := fieldError.Tag()
		param := fieldError.Param()

		fields = append(fields, FieldError{
			Field:   jsonPath(fieldError),
			Rule:    rule,
			Param:   param,
			Message: validationMessage(rule, param),
		})
	}
	return fields
}

// Namespace is "<Struct>.<field>[.<nested>...]" already in JSON names thanks
// to the registered tag name func; drop the root struct name.
func jsonPath(fieldError validator.FieldError) string {
	namespace := fieldError.Namespace()
	if namespace == "" {
		return fieldError.Field()
	}

	_, rest, found := strings.Cut(namespace, ".")
	if !found || rest == "" {
		return fieldError.Field()
	}
	return rest
}

func jsonNameFromStructField(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "" {
		return sf.Name
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return sf.Name
	}

	return name
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "len":
		return "must be exactly " + param + " characters"
	case "numeric":
		return "must contain digits only"
	case "gte":
		return "must be " + param + " or more"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
