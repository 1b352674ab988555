package credentials

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"blog-service/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their json names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateRegistration checks struct tags, then the password's byte
// length, which bcrypt bounds and the min/max tags would count in runes.
func validateRegistration(r Registration) error {
	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return apperr.InvalidInput(fe.Field(), describe(fe))
		}
		return apperr.InvalidInput("request", "validation failed")
	}
	if n := len(r.Password); n < MinPasswordLength || n > MaxPasswordLength {
		return apperr.InvalidInput("password", fmt.Sprintf("must be between %d and %d bytes", MinPasswordLength, MaxPasswordLength))
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
