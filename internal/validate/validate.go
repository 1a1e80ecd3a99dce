// Package validate checks input at the CLI and service boundary.
package validate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"styleshop/internal/domain"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	_ = val.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return Password(fl.Field().String())
	})
	return val
}

// Struct validates s by its `validate` tags. The first failing field is
// reported as a *domain.ValidationError.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &domain.ValidationError{Field: strings.ToLower(fe.Field()), Message: msgForTag(fe)}
	}
	return err
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "password":
		return "needs 8-20 characters with upper, lower, digit and symbol"
	default:
		return fmt.Sprintf("failed on '%s'", fe.Tag())
	}
}

// Query trims a search query and rejects blank input.
func Query(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", domain.Invalid("query", "is required")
	}
	if len(s) > 200 {
		return "", domain.Invalid("query", "must be at most 200 characters")
	}
	return s, nil
}

// PositiveInt parses a whole number >= 1.
func PositiveInt(field, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, domain.Invalid(field, "must be a whole number")
	}
	if n < 1 {
		return 0, domain.Invalid(field, "must be at least 1")
	}
	return n, nil
}

// ID parses a positive numeric identifier.
func ID(field, s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 1 {
		return 0, domain.Invalid(field, "must be a positive id")
	}
	return n, nil
}

// Money parses a non-negative amount with at most two decimal places.
func Money(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, domain.Invalid(field, "must be a number")
	}
	if d.IsNegative() {
		return decimal.Zero, domain.Invalid(field, "must not be negative")
	}
	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return decimal.Zero, domain.Invalid(field, "has more than two decimal places")
	}
	return d.Round(2), nil
}

// Date parses YYYY-MM-DD. Blank input yields nil.
func Date(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, domain.Invalid(field, "must be YYYY-MM-DD")
	}
	return &t, nil
}

// Password requires 8-20 characters mixing lower, upper, digit and symbol.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 20 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
