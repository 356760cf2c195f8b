package issuer

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// DevIssuer is a deterministic local issuer used when no real issuer API keys are
// configured. Card and digital-card data is derived from inputs, session keys are
// HMAC-SHA256 over the token reference and ATC, and ATCs are tracked per token
// reference so the counter monotonicity contract holds exactly as in production.
//
// Test hooks (SetCardStatus, SetDigitalCardStatus, SetUnavailable) force the same
// error conditions a production provider can produce, making the stub a valid
// target for the provisioning test suite.
type DevIssuer struct {
	logger *slog.Logger

	mu            sync.Mutex
	atcs          map[string]int64
	cardStatuses  map[string]CardStatus
	tokenStatuses map[string]DigitalCardStatus
	unavailable   bool
}

// NewDevIssuer creates a development issuer stub.
func NewDevIssuer(logger *slog.Logger) *DevIssuer {
	return &DevIssuer{
		logger:        logger,
		atcs:          make(map[string]int64),
		cardStatuses:  make(map[string]CardStatus),
		tokenStatuses: make(map[string]DigitalCardStatus),
	}
}

// SetCardStatus overrides the status reported for a card.
func (d *DevIssuer) SetCardStatus(cardID string, status CardStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cardStatuses[cardID] = status
}

// SetDigitalCardStatus overrides the status reported for a digital card.
func (d *DevIssuer) SetDigitalCardStatus(tokenReferenceID string, status DigitalCardStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tokenStatuses[tokenReferenceID] = status
}

// SetUnavailable makes every subsequent call fail with ErrProviderUnavailable.
func (d *DevIssuer) SetUnavailable(unavailable bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unavailable = unavailable
}

func (d *DevIssuer) checkAvailable() error {
	if d.unavailable {
		return ErrProviderUnavailable
	}
	return nil
}

// CreateVirtualCard returns a mock Visa virtual card.
func (d *DevIssuer) CreateVirtualCard(ctx context.Context, userRef, cardholderName, currency string) (*VirtualCard, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAvailable(); err != nil {
		return nil, err
	}

	suffix := make([]byte, 12)
	if _, err := rand.Read(suffix); err != nil {
		return nil, fmt.Errorf("failed to generate card id: %w", err)
	}
	cardID := "dev_card_" + hex.EncodeToString(suffix)

	last4Bytes := sha256.Sum256([]byte(cardID))
	last4 := fmt.Sprintf("%04d", int(last4Bytes[0])<<8|int(last4Bytes[1]))[:4]

	now := time.Now().UTC()

	d.logger.Info("dev issuer: virtual card issued",
		slog.String("card_id", cardID),
		slog.String("user_ref", userRef),
		slog.String("currency", currency),
	)

	return &VirtualCard{
		CardID:      cardID,
		Status:      CardStatusActive,
		MaskedPAN:   "************" + last4,
		Last4:       last4,
		ExpiryMonth: int(now.Month()),
		ExpiryYear:  now.Year() + 3,
		Scheme:      "VISA",
	}, nil
}

// ActivateCard marks a card ACTIVE.
func (d *DevIssuer) ActivateCard(ctx context.Context, cardID string) (*CardState, error) {
	return d.setCardState(cardID, CardStatusActive)
}

// BlockCard marks a card SUSPENDED.
func (d *DevIssuer) BlockCard(ctx context.Context, cardID string) (*CardState, error) {
	return d.setCardState(cardID, CardStatusSuspended)
}

// UnblockCard marks a card ACTIVE again.
func (d *DevIssuer) UnblockCard(ctx context.Context, cardID string) (*CardState, error) {
	return d.setCardState(cardID, CardStatusActive)
}

// TerminateCard marks a card TERMINATED.
func (d *DevIssuer) TerminateCard(ctx context.Context, cardID string) (*CardState, error) {
	return d.setCardState(cardID, CardStatusTerminated)
}

func (d *DevIssuer) setCardState(cardID string, status CardStatus) (*CardState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAvailable(); err != nil {
		return nil, err
	}

	d.cardStatuses[cardID] = status
	return &CardState{CardID: cardID, Status: status}, nil
}

// GetCard returns the current mock view of a card. Cards default to ACTIVE
// unless a status was recorded via a lifecycle operation or SetCardStatus.
func (d *DevIssuer) GetCard(ctx context.Context, cardID string) (*CardDetails, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAvailable(); err != nil {
		return nil, err
	}

	status, ok := d.cardStatuses[cardID]
	if !ok {
		status = CardStatusActive
	}

	now := time.Now().UTC()
	return &CardDetails{
		CardID:      cardID,
		Status:      status,
		Last4:       "0000",
		ExpiryMonth: int(now.Month()),
		ExpiryYear:  now.Year() + 3,
		Scheme:      "VISA",
	}, nil
}

// ProvisionDigitalCard derives a deterministic DPAN and EMV key bundle from the
// card, device, and fingerprint so repeated provisioning in tests is reproducible.
func (d *DevIssuer) ProvisionDigitalCard(ctx context.Context, cardID, deviceID, deviceFingerprint string) (*DigitalCard, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAvailable(); err != nil {
		return nil, err
	}

	refSum := sha256.Sum256([]byte(cardID + ":" + deviceID + ":" + deviceFingerprint))
	tokenRef := hex.EncodeToString(refSum[:])

	iccSeed := sha256.Sum256([]byte("dev_icc_" + tokenRef))
	iccCert := sha256.Sum256(append(iccSeed[:], []byte(":cert")...))
	issuerSeed := sha256.Sum256([]byte("dev_issuer_" + tokenRef))

	d.tokenStatuses[tokenRef] = DigitalCardStatusActive

	now := time.Now().UTC()
	return &DigitalCard{
		DPAN:             "4000000000001234",
		DPANExpiryMonth:  int(now.Month()),
		DPANExpiryYear:   now.Year() + 3,
		TokenReferenceID: tokenRef,
		TokenStatus:      DigitalCardStatusActive,
		EMVKeys: EMVKeyBundle{
			ICCPrivateKey:   base64.StdEncoding.EncodeToString(iccSeed[:]),
			ICCCertificate:  base64.StdEncoding.EncodeToString(iccCert[:]),
			IssuerPublicKey: base64.StdEncoding.EncodeToString(issuerSeed[:]),
		},
	}, nil
}

// GenerateEMVSessionKeys mints session keys for the next tap. The next ATC is
// currentATC+1; the stub additionally tracks the highest ATC it has issued per
// token reference and never goes backwards, matching the production invariant.
func (d *DevIssuer) GenerateEMVSessionKeys(ctx context.Context, tokenReferenceID string, currentATC int64) (*SessionKeys, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAvailable(); err != nil {
		return nil, err
	}

	nextATC := currentATC + 1
	if last, ok := d.atcs[tokenReferenceID]; ok && nextATC <= last {
		nextATC = last + 1
	}
	d.atcs[tokenReferenceID] = nextATC

	mac := hmac.New(sha256.New, []byte(tokenReferenceID))
	mac.Write([]byte(strconv.FormatInt(nextATC, 10)))
	sessionKey := hex.EncodeToString(mac.Sum(nil))

	unBytes := make([]byte, 4)
	if _, err := rand.Read(unBytes); err != nil {
		return nil, fmt.Errorf("failed to generate unpredictable number: %w", err)
	}
	un := hex.EncodeToString(unBytes)

	arqcMac := hmac.New(sha256.New, []byte(sessionKey))
	arqcMac.Write([]byte(strconv.FormatInt(nextATC, 10) + un))
	arqc := hex.EncodeToString(arqcMac.Sum(nil))[:16]

	return &SessionKeys{
		SessionKey:          sessionKey,
		ARQC:                arqc,
		ATC:                 nextATC,
		UnpredictableNumber: un,
	}, nil
}

// DeactivateDigitalCard marks a digital card TERMINATED.
func (d *DevIssuer) DeactivateDigitalCard(ctx context.Context, tokenReferenceID string) (*DigitalCardState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAvailable(); err != nil {
		return nil, err
	}

	d.tokenStatuses[tokenReferenceID] = DigitalCardStatusTerminated
	return &DigitalCardState{
		TokenReferenceID: tokenReferenceID,
		Status:           DigitalCardStatusTerminated,
	}, nil
}

// GetDigitalCardStatus returns the recorded digital card status, defaulting to
// ACTIVE for unknown references.
func (d *DevIssuer) GetDigitalCardStatus(ctx context.Context, tokenReferenceID string) (*DigitalCardState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAvailable(); err != nil {
		return nil, err
	}

	status, ok := d.tokenStatuses[tokenReferenceID]
	if !ok {
		status = DigitalCardStatusActive
	}

	return &DigitalCardState{
		TokenReferenceID: tokenReferenceID,
		Status:           status,
	}, nil
}
