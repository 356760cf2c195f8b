// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/hcepay/hcepay/internal/errors"
)

var (
	// fingerprintRegex matches a SHA-256 device fingerprint in lowercase hex.
	fingerprintRegex = regexp.MustCompile(`^[a-f0-9]{64}$`)

	// currencyRegex matches an ISO 4217 alphabetic currency code.
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank ensures a string contains at least one non-whitespace character.
var NotBlank = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_not_blank", "must be a string")
	}
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_not_blank", "cannot be blank")
	}
	return nil
})

// DeviceFingerprint ensures a string is a SHA-256 hash of device hardware
// identifiers, encoded as 64 lowercase hex characters.
var DeviceFingerprint = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_device_fingerprint", "must be a string")
	}
	if !fingerprintRegex.MatchString(s) {
		return validation.NewError(
			"validation_device_fingerprint",
			"must be a 64-character lowercase hex SHA-256 hash",
		)
	}
	return nil
})

// CurrencyCode ensures a string is a three-letter uppercase currency code.
var CurrencyCode = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_currency_code", "must be a string")
	}
	if !currencyRegex.MatchString(s) {
		return validation.NewError("validation_currency_code", "must be an ISO 4217 code (e.g., EUR)")
	}
	return nil
})
