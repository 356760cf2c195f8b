// Package issuer defines the card issuer capability: the licensed external party
// that owns the real card and signs off on token issuance, EMV session keys, and
// revocation. Every issuer speaks a different wire format; this package pins one
// behavioral contract so the provisioning flow is insulated from that variance.
package issuer

import (
	"context"

	apperrors "github.com/hcepay/hcepay/internal/errors"
)

// ErrProviderUnavailable indicates the issuer could not be reached or returned an
// ambiguous failure. The outcome is unknown: callers must treat it as
// retryable-unknown, never as a definitive negative result.
var ErrProviderUnavailable = apperrors.Wrap(apperrors.ErrUnavailable, "card issuer")

// CardStatus is the issuer-side lifecycle status of a card.
type CardStatus string

const (
	CardStatusActive     CardStatus = "ACTIVE"
	CardStatusUnverified CardStatus = "UNVERIFIED"
	CardStatusInactive   CardStatus = "INACTIVE"
	CardStatusSuspended  CardStatus = "SUSPENDED"
	CardStatusTerminated CardStatus = "TERMINATED"
	CardStatusUnknown    CardStatus = "UNKNOWN"
)

// Provisionable reports whether a card in this status may have a digital card
// provisioned against it. UNVERIFIED is a provisional state some issuers use
// between creation and KYC completion.
func (s CardStatus) Provisionable() bool {
	return s == CardStatusActive || s == CardStatusUnverified
}

// DigitalCardStatus is the issuer-side status of a provisioned digital card (DPAN).
type DigitalCardStatus string

const (
	DigitalCardStatusActive     DigitalCardStatus = "ACTIVE"
	DigitalCardStatusSuspended  DigitalCardStatus = "SUSPENDED"
	DigitalCardStatusTerminated DigitalCardStatus = "TERMINATED"
	DigitalCardStatusUnknown    DigitalCardStatus = "UNKNOWN"
)

// VirtualCard is the result of creating a virtual card at the issuer.
type VirtualCard struct {
	CardID      string
	Status      CardStatus
	MaskedPAN   string
	Last4       string
	ExpiryMonth int
	ExpiryYear  int
	Scheme      string
}

// CardDetails describes a card as the issuer currently sees it.
type CardDetails struct {
	CardID      string
	Status      CardStatus
	Last4       string
	ExpiryMonth int
	ExpiryYear  int
	Scheme      string
}

// CardState is the result of a card lifecycle operation.
type CardState struct {
	CardID string
	Status CardStatus
}

// EMVKeyBundle is the EMV key material minted with a digital card: the ICC
// private key, its certificate, and the issuer public key needed for cryptogram
// generation during a tap. Treated as opaque and stored encrypted.
type EMVKeyBundle struct {
	ICCPrivateKey   string `json:"iccPrivateKey"`
	ICCCertificate  string `json:"iccCertificate"`
	IssuerPublicKey string `json:"issuerPublicKey"`
}

// DigitalCard is the result of provisioning a DPAN for one device.
type DigitalCard struct {
	DPAN             string
	DPANExpiryMonth  int
	DPANExpiryYear   int
	TokenReferenceID string
	TokenStatus      DigitalCardStatus
	EMVKeys          EMVKeyBundle
}

// SessionKeys is the per-tap EMV session key material. ATC is authoritative:
// it is always the caller's current ATC plus one and must be persisted verbatim.
type SessionKeys struct {
	SessionKey          string
	ARQC                string
	ATC                 int64
	UnpredictableNumber string
}

// DigitalCardState is the issuer-side state of a digital card.
type DigitalCardState struct {
	TokenReferenceID string
	Status           DigitalCardStatus
}

// CardIssuer is the capability contract every issuer backend implements.
// All operations are synchronous request/response and may fail with
// ErrProviderUnavailable; callers decide per operation whether that is a hard
// failure (provisioning, refresh) or best-effort (deactivation).
type CardIssuer interface {
	// CreateVirtualCard creates a virtual card linked to a funding source.
	CreateVirtualCard(ctx context.Context, userRef, cardholderName, currency string) (*VirtualCard, error)

	// ActivateCard transitions a card to ACTIVE at the issuer.
	ActivateCard(ctx context.Context, cardID string) (*CardState, error)

	// BlockCard suspends a card at the issuer.
	BlockCard(ctx context.Context, cardID string) (*CardState, error)

	// UnblockCard lifts a suspension at the issuer.
	UnblockCard(ctx context.Context, cardID string) (*CardState, error)

	// TerminateCard permanently closes a card at the issuer.
	TerminateCard(ctx context.Context, cardID string) (*CardState, error)

	// GetCard returns the issuer's current view of a card.
	GetCard(ctx context.Context, cardID string) (*CardDetails, error)

	// ProvisionDigitalCard mints a device-bound DPAN and EMV key bundle.
	ProvisionDigitalCard(ctx context.Context, cardID, deviceID, deviceFingerprint string) (*DigitalCard, error)

	// GenerateEMVSessionKeys mints session key material for the next tap.
	// The returned ATC is currentATC+1 and is the value to persist.
	GenerateEMVSessionKeys(ctx context.Context, tokenReferenceID string, currentATC int64) (*SessionKeys, error)

	// DeactivateDigitalCard retires a DPAN at the issuer.
	DeactivateDigitalCard(ctx context.Context, tokenReferenceID string) (*DigitalCardState, error)

	// GetDigitalCardStatus returns the issuer-side status of a DPAN, used to
	// detect out-of-band revocation before refreshing session keys.
	GetDigitalCardStatus(ctx context.Context, tokenReferenceID string) (*DigitalCardState, error)
}
