// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"
	"github.com/jellydator/validation/is"

	customValidation "github.com/hcepay/hcepay/internal/validation"
)

// ProvisionTokenRequest contains the parameters for provisioning a device token.
type ProvisionTokenRequest struct {
	// CardID is the local card identifier to provision against.
	CardID string `json:"card_id"`
	// DeviceFingerprint is the SHA-256 hex hash of device hardware identifiers.
	DeviceFingerprint string `json:"device_fingerprint"`
}

// Validate checks the provisioning request fields.
func (r ProvisionTokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CardID, validation.Required, is.UUID),
		validation.Field(&r.DeviceFingerprint, validation.Required, customValidation.DeviceFingerprint),
	)
}
