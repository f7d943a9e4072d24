package utils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FieldErrors maps a field name to its human-readable validation failures.
// This is the wire shape for validation errors.
type FieldErrors map[string][]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, msgs := range fe {
		parts = append(parts, field+": "+strings.Join(msgs, "; "))
	}
	return strings.Join(parts, ", ")
}

// ValidateStruct validates s against its struct tags and returns the
// failures as a field-error map, or nil when s is valid.
func ValidateStruct(s interface{}) FieldErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrors := FieldErrors{}
	for _, ve := range err.(validator.ValidationErrors) {
		field := strings.ToLower(ve.Field())
		var msg string
		switch ve.Tag() {
		case "required":
			msg = "This field is required."
		case "min":
			msg = fmt.Sprintf("Ensure this value has at least %s characters.", ve.Param())
		case "max":
			msg = fmt.Sprintf("Ensure this value has at most %s characters.", ve.Param())
		case "email":
			msg = "Enter a valid email address."
		case "nefield":
			msg = fmt.Sprintf("This field must differ from %s.", strings.ToLower(ve.Param()))
		default:
			msg = "Enter a valid value."
		}
		fieldErrors[field] = append(fieldErrors[field], msg)
	}
	return fieldErrors
}
