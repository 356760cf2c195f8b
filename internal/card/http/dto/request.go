// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/hcepay/hcepay/internal/validation"
)

// CreateCardRequest contains the parameters for minting a virtual card.
type CreateCardRequest struct {
	// CardholderName is the display name embossed on the virtual card.
	CardholderName string `json:"cardholder_name"`
	// Currency is the ISO 4217 code of the funding account currency.
	Currency string `json:"currency"`
	// ExternalAccountID is the issuer-side funding account identifier.
	ExternalAccountID string `json:"external_account_id"`
}

// Validate checks the card creation request fields.
func (r CreateCardRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CardholderName, validation.Required, customValidation.NotBlank, validation.Length(1, 26)),
		validation.Field(&r.Currency, validation.Required, customValidation.CurrencyCode),
		validation.Field(&r.ExternalAccountID, validation.Required, customValidation.NotBlank),
	)
}
