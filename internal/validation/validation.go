// Package validation checks input structs and reports failures as
// VALIDATION errors with one violation per field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"smarterd/internal/apperrors"
)

// Validator wraps a configured validator.Validate.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator reporting fields by their JSON name.
func New() *Validator {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("register notblank validator: %v", err))
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates s. The returned error is nil, a VALIDATION
// *apperrors.Error or an error describing an unusable input.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate input: %w", err)
	}

	violations := make([]apperrors.Violation, 0, len(verrs))
	for _, fe := range verrs {
		violations = append(violations, apperrors.Violation{Field: fe.Field(), Message: message(fe)})
	}
	return apperrors.Violations(violations)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "This value should not be blank."
	case "min":
		return fmt.Sprintf("This value is too short. It should have %s characters or more.", fe.Param())
	case "max":
		return fmt.Sprintf("This value is too long. It should have %s characters or less.", fe.Param())
	case "email":
		return "This value is not a valid email address."
	case "alpha":
		return "This value should contain only letters."
	case "gte", "lte":
		return fmt.Sprintf("This value should satisfy %s %s.", fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("This value failed on the '%s' rule.", fe.Tag())
	}
}
