package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	cardDomain "github.com/hcepay/hcepay/internal/card/domain"
	cryptoService "github.com/hcepay/hcepay/internal/crypto/service"
	"github.com/hcepay/hcepay/internal/database"
	"github.com/hcepay/hcepay/internal/issuer"
	tokenDomain "github.com/hcepay/hcepay/internal/token/domain"
)

// provisioningUseCase implements the ProvisioningUseCase interface.
type provisioningUseCase struct {
	txManager     database.TxManager
	tokenRepo     TokenRepository
	cardRepo      CardRepository
	cardIssuer    issuer.CardIssuer
	cipher        cryptoService.TokenCipher
	sessionKeyTTL time.Duration
	locks         *keyedMutex
	logger        *slog.Logger
}

// Provision mints a new device-bound token for the card on the device.
func (p *provisioningUseCase) Provision(
	ctx context.Context,
	userID, cardID uuid.UUID,
	deviceFingerprint string,
) (*tokenDomain.DeviceToken, error) {
	card, err := p.getOwnedCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}

	unlock := p.locks.Lock("pair:" + cardID.String() + ":" + deviceFingerprint)
	defer unlock()

	// Gate on the issuer's view of the card, not the local record
	details, err := p.cardIssuer.GetCard(ctx, card.ExternalCardID)
	if err != nil {
		return nil, err
	}
	if !details.Status.Provisionable() {
		return nil, tokenDomain.ErrCardNotActive
	}

	existing, err := p.tokenRepo.GetActiveByCardAndDevice(ctx, cardID, deviceFingerprint)
	if err != nil {
		return nil, err
	}
	for _, prior := range existing {
		p.deactivateAtIssuer(ctx, prior)
	}

	digitalCard, err := p.cardIssuer.ProvisionDigitalCard(
		ctx,
		card.ExternalCardID,
		deviceID(userID, deviceFingerprint),
		deviceFingerprint,
	)
	if err != nil {
		return nil, err
	}

	// First usable session key; the issuer returns ATC 1 for a fresh token
	sessionKeys, err := p.cardIssuer.GenerateEMVSessionKeys(ctx, digitalCard.TokenReferenceID, 0)
	if err != nil {
		return nil, err
	}

	encryptedDPAN, err := p.cipher.Encrypt([]byte(digitalCard.DPAN))
	if err != nil {
		return nil, err
	}

	encryptedSessionKey, err := p.cipher.Encrypt([]byte(sessionKeys.SessionKey))
	if err != nil {
		return nil, err
	}

	emvKeys, err := json.Marshal(digitalCard.EMVKeys)
	if err != nil {
		return nil, err
	}
	encryptedEMVKeys, err := p.cipher.Encrypt(emvKeys)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	token := &tokenDomain.DeviceToken{
		ID:                  uuid.Must(uuid.NewV7()),
		UserID:              userID,
		CardID:              cardID,
		ExternalCardID:      card.ExternalCardID,
		DeviceFingerprint:   deviceFingerprint,
		EncryptedDPAN:       encryptedDPAN,
		EncryptedSessionKey: encryptedSessionKey,
		EncryptedEMVKeys:    encryptedEMVKeys,
		TokenReferenceID:    digitalCard.TokenReferenceID,
		ATC:                 sessionKeys.ATC,
		Scheme:              string(card.Scheme),
		Status:              tokenDomain.TokenStatusActive,
		ExpiryMonth:         digitalCard.DPANExpiryMonth,
		ExpiryYear:          digitalCard.DPANExpiryYear,
		SessionKeyExpiresAt: now.Add(p.sessionKeyTTL),
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	// Retire prior tokens and create the replacement in one transaction so
	// exactly one active token exists for the pair afterwards
	err = p.txManager.WithTx(ctx, func(txCtx context.Context) error {
		for _, prior := range existing {
			prior.Deactivate(now)
			if err := p.tokenRepo.Update(txCtx, prior); err != nil {
				return err
			}
		}
		return p.tokenRepo.Create(txCtx, token)
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("token provisioned",
		slog.String("token_id", token.ID.String()),
		slog.String("card_id", cardID.String()),
		slog.Int64("atc", token.ATC),
		slog.Int("replaced", len(existing)),
	)

	return token, nil
}

// GetPaymentPayload returns the material the device needs for a tap.
func (p *provisioningUseCase) GetPaymentPayload(
	ctx context.Context,
	userID, tokenID uuid.UUID,
) (*tokenDomain.PaymentPayload, error) {
	token, err := p.getOwnedToken(ctx, userID, tokenID)
	if err != nil {
		return nil, err
	}
	if !token.Active() {
		return nil, tokenDomain.ErrTokenNotActive
	}
	if token.SessionKeyExpired(time.Now().UTC()) {
		return nil, tokenDomain.ErrSessionKeyExpired
	}

	return &tokenDomain.PaymentPayload{
		TokenID:             token.ID,
		EncryptedDPAN:       token.EncryptedDPAN,
		EncryptedSessionKey: token.EncryptedSessionKey,
		EncryptedEMVKeys:    token.EncryptedEMVKeys,
		TokenReferenceID:    token.TokenReferenceID,
		ATC:                 token.ATC,
		Scheme:              token.Scheme,
		ExpiryMonth:         token.ExpiryMonth,
		ExpiryYear:          token.ExpiryYear,
		SessionKeyExpiresAt: token.SessionKeyExpiresAt,
	}, nil
}

// RefreshSessionKey re-validates the issuer-side status and mints the next
// session key. Issuer unavailability is a hard failure with no state change.
func (p *provisioningUseCase) RefreshSessionKey(
	ctx context.Context,
	userID, tokenID uuid.UUID,
) (*tokenDomain.SessionKeyRefresh, error) {
	unlock := p.locks.Lock("token:" + tokenID.String())
	defer unlock()

	token, err := p.getOwnedToken(ctx, userID, tokenID)
	if err != nil {
		return nil, err
	}
	if !token.Active() {
		// Terminal state: fail without contacting the issuer
		return nil, tokenDomain.ErrTokenNotActive
	}

	state, err := p.cardIssuer.GetDigitalCardStatus(ctx, token.TokenReferenceID)
	if err != nil {
		return nil, err
	}
	if state.Status != issuer.DigitalCardStatusActive {
		// Out-of-band revocation propagates into the local terminal state
		token.Deactivate(time.Now().UTC())
		if err := p.tokenRepo.Update(ctx, token); err != nil {
			return nil, err
		}

		p.logger.Warn("token deactivated by issuer",
			slog.String("token_id", token.ID.String()),
			slog.String("issuer_status", string(state.Status)),
		)

		return nil, tokenDomain.ErrDeactivatedByIssuer
	}

	sessionKeys, err := p.cardIssuer.GenerateEMVSessionKeys(ctx, token.TokenReferenceID, token.ATC)
	if err != nil {
		return nil, err
	}

	encryptedSessionKey, err := p.cipher.Encrypt([]byte(sessionKeys.SessionKey))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	token.EncryptedSessionKey = encryptedSessionKey
	token.ATC = sessionKeys.ATC
	token.SessionKeyExpiresAt = now.Add(p.sessionKeyTTL)
	token.UpdatedAt = now

	if err := p.tokenRepo.Update(ctx, token); err != nil {
		return nil, err
	}

	return &tokenDomain.SessionKeyRefresh{
		TokenID:             token.ID,
		ATC:                 token.ATC,
		EncryptedSessionKey: token.EncryptedSessionKey,
		SessionKeyExpiresAt: token.SessionKeyExpiresAt,
	}, nil
}

// Deactivate retires a token. Idempotent: retiring an already-deactivated
// token is a no-op success.
func (p *provisioningUseCase) Deactivate(ctx context.Context, userID, tokenID uuid.UUID) error {
	unlock := p.locks.Lock("token:" + tokenID.String())
	defer unlock()

	token, err := p.getOwnedToken(ctx, userID, tokenID)
	if err != nil {
		return err
	}

	return p.deactivateToken(ctx, token)
}

// DeactivateAllForCard retires every active token referencing the card.
func (p *provisioningUseCase) DeactivateAllForCard(ctx context.Context, cardID uuid.UUID) (int, error) {
	tokens, err := p.tokenRepo.GetActiveByCard(ctx, cardID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, token := range tokens {
		unlock := p.locks.Lock("token:" + token.ID.String())
		err := p.deactivateToken(ctx, token)
		unlock()
		if err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

// ListActiveForUser returns the user's active tokens.
func (p *provisioningUseCase) ListActiveForUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*tokenDomain.DeviceToken, error) {
	return p.tokenRepo.GetActiveByUser(ctx, userID)
}

// deactivateToken retires one token: best-effort at the issuer, then the
// unconditional local status write.
func (p *provisioningUseCase) deactivateToken(ctx context.Context, token *tokenDomain.DeviceToken) error {
	if !token.Active() {
		return nil
	}

	p.deactivateAtIssuer(ctx, token)

	token.Deactivate(time.Now().UTC())
	if err := p.tokenRepo.Update(ctx, token); err != nil {
		return err
	}

	p.logger.Info("token deactivated",
		slog.String("token_id", token.ID.String()),
		slog.String("card_id", token.CardID.String()),
	)

	return nil
}

// deactivateAtIssuer tells the issuer to retire the DPAN. Failures are logged
// and swallowed: issuer unavailability must never keep a token alive locally.
func (p *provisioningUseCase) deactivateAtIssuer(ctx context.Context, token *tokenDomain.DeviceToken) {
	if _, err := p.cardIssuer.DeactivateDigitalCard(ctx, token.TokenReferenceID); err != nil {
		p.logger.Warn("issuer-side deactivation failed",
			slog.String("token_id", token.ID.String()),
			slog.Any("error", err),
		)
	}
}

// getOwnedCard loads a card and hides other users' cards behind not-found.
func (p *provisioningUseCase) getOwnedCard(
	ctx context.Context,
	userID, cardID uuid.UUID,
) (*cardDomain.Card, error) {
	card, err := p.cardRepo.Get(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.UserID != userID {
		return nil, cardDomain.ErrCardNotFound
	}
	return card, nil
}

// getOwnedToken loads a token and hides other users' tokens behind not-found.
func (p *provisioningUseCase) getOwnedToken(
	ctx context.Context,
	userID, tokenID uuid.UUID,
) (*tokenDomain.DeviceToken, error) {
	token, err := p.tokenRepo.Get(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if token.UserID != userID {
		return nil, tokenDomain.ErrTokenNotFound
	}
	return token, nil
}

// deviceID derives the identifier sent to the issuer for a device: the owning
// user plus a fingerprint prefix, stable across re-provisioning.
func deviceID(userID uuid.UUID, deviceFingerprint string) string {
	prefix := deviceFingerprint
	if len(prefix) > 16 {
		prefix = prefix[:16]
	}
	return userID.String() + ":" + prefix
}

// NewProvisioningUseCase creates a new ProvisioningUseCase instance.
func NewProvisioningUseCase(
	txManager database.TxManager,
	tokenRepo TokenRepository,
	cardRepo CardRepository,
	cardIssuer issuer.CardIssuer,
	cipher cryptoService.TokenCipher,
	sessionKeyTTL time.Duration,
	logger *slog.Logger,
) ProvisioningUseCase {
	return &provisioningUseCase{
		txManager:     txManager,
		tokenRepo:     tokenRepo,
		cardRepo:      cardRepo,
		cardIssuer:    cardIssuer,
		cipher:        cipher,
		sessionKeyTTL: sessionKeyTTL,
		locks:         newKeyedMutex(),
		logger:        logger,
	}
}
