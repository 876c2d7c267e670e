package core

// validation.go checks the shape of a registration before any write happens.
//
// Rules live in the `validate` struct tags of RegistrationInput and are
// evaluated by go-playground/validator. Failures are reported per field using
// the JSON field path (e.g. "applicant.email") so clients can map them back to
// form inputs.

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InvalidInputError carries every field that failed validation.
type InvalidInputError struct {
	Fields []FieldError
}

func (e *InvalidInputError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("text", validText); err != nil {
		panic(err)
	}
	return v
}

// validText rejects strings PostgreSQL cannot store in a text column:
// invalid UTF-8 and NUL bytes.
func validText(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return utf8.ValidString(s) && !strings.ContainsRune(s, 0)
}

// ValidateRegistration checks field presence, lengths and email format.
// The returned error has KindValidation and wraps an *InvalidInputError.
func ValidateRegistration(in RegistrationInput) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Kind: KindValidation, Op: "validate registration", Msg: "invalid registration", Err: err}
	}

	invalid := &InvalidInputError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		invalid.Fields = append(invalid.Fields, FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: describe(fe),
		})
	}

	return &Error{
		Kind: KindValidation,
		Op:   "validate registration",
		Msg:  invalid.Error(),
		Err:  invalid,
	}
}

// fieldPath drops the leading struct name from a validator namespace:
// "RegistrationInput.applicant.email" becomes "applicant.email".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "text":
		return "must be valid UTF-8 text without NUL characters"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// FieldErrors extracts per-field details from a validation error, if any.
func FieldErrors(err error) []FieldError {
	var invalid *InvalidInputError
	if errors.As(err, &invalid) {
		return invalid.Fields
	}
	return nil
}
