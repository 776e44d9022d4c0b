package dto

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/baechuer/otp-auth-service/internal/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// report json names so meta.field matches the request body
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = validate.RegisterValidation("date_only", validateDateOnly)
	_ = validate.RegisterValidation("bcrypt_len", validateBcryptLen)
}

// validateDateOnly accepts YYYY-MM-DD.
func validateDateOnly(fl validator.FieldLevel) bool {
	_, err := time.Parse(domain.DateLayout, fl.Field().String())
	return err == nil
}

// validateBcryptLen rejects passwords bcrypt would refuse (over 72 bytes).
func validateBcryptLen(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= 72
}

// validateStruct runs the tags on req. Any missing required field yields
// the endpoint's single missing-field message; other failures name the field.
func validateStruct(req any, missingMsg string) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return domain.ErrInternal(err)
	}

	for _, fe := range ves {
		if fe.Tag() == "required" {
			return domain.ErrMissingField(missingMsg, fe.Field())
		}
	}
	fe := ves[0]
	return domain.ErrInvalidField(fe.Field(), reason(fe))
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "date_only":
		return "must be a date in YYYY-MM-DD format"
	case "bcrypt_len":
		return "must be at most 72 bytes"
	default:
		return "is invalid"
	}
}

func trim(ss ...*string) {
	for _, s := range ss {
		*s = strings.TrimSpace(*s)
	}
}
