package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"video-quiz/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
)

// Validator provides request validation functionality
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance. Field names in messages use
// the json tag so they match what the client sent.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// ValidateStruct checks the validate tags of a request DTO and turns any
// violation into an INVALID_INPUT error listing every offending field.
func (v *Validator) ValidateStruct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return domain.NewInvalidInputError("invalid request")
	}

	msgs := make([]string, 0, len(ve))
	for _, fieldErr := range ve {
		msgs = append(msgs, fieldMessage(fieldErr))
	}
	sort.Strings(msgs)
	return domain.NewInvalidInputError(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "url", "http_url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}

// ValidateQuizID checks that id is a well-formed ULID
func (v *Validator) ValidateQuizID(id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.NewInvalidInputError("quiz id is required")
	}
	if _, err := ulid.ParseStrict(id); err != nil {
		return domain.NewInvalidInputError(fmt.Sprintf("invalid quiz id: %s", id))
	}
	return nil
}
