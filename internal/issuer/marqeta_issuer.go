package issuer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// MarqetaIssuer is the reference production adapter, speaking JSON to a
// Marqeta-style card issuing API. All transport failures and non-2xx responses
// collapse into ErrProviderUnavailable; raw provider responses are logged but
// never surfaced to callers, so issuer implementation details stay internal.
type MarqetaIssuer struct {
	baseURL  string
	apiToken string
	client   *http.Client
	logger   *slog.Logger
}

var _ CardIssuer = (*MarqetaIssuer)(nil)

// NewMarqetaIssuer creates a Marqeta adapter. The timeout bounds every call.
func NewMarqetaIssuer(baseURL, apiToken string, timeout time.Duration, logger *slog.Logger) *MarqetaIssuer {
	return &MarqetaIssuer{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type marqetaCardResponse struct {
	Token       string `json:"token"`
	State       string `json:"state"`
	MaskedPAN   string `json:"masked_pan"`
	LastFour    string `json:"last_four"`
	ExpiryMonth int    `json:"expiry_month"`
	ExpiryYear  int    `json:"expiry_year"`
	Network     string `json:"network"`
}

type marqetaDigitalCardResponse struct {
	DPAN             string `json:"dpan"`
	DPANExpiryMonth  int    `json:"dpan_expiry_month"`
	DPANExpiryYear   int    `json:"dpan_expiry_year"`
	TokenReferenceID string `json:"token_reference_id"`
	State            string `json:"state"`
	EMVKeys          struct {
		ICCPrivateKey   string `json:"icc_private_key"`
		ICCCertificate  string `json:"icc_certificate"`
		IssuerPublicKey string `json:"issuer_public_key"`
	} `json:"emv_keys"`
}

type marqetaSessionKeysResponse struct {
	SessionKey          string `json:"session_key"`
	ARQC                string `json:"arqc"`
	ATC                 int64  `json:"atc"`
	UnpredictableNumber string `json:"unpredictable_number"`
}

type marqetaStateResponse struct {
	Token string `json:"token"`
	State string `json:"state"`
}

// do performs one JSON request against the issuer API and decodes the response
// into out. Every failure mode maps to ErrProviderUnavailable.
func (m *MarqetaIssuer) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %w", ErrProviderUnavailable, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrProviderUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Warn("issuer request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Any("error", err),
		)
		return fmt.Errorf("%w: %s %s", ErrProviderUnavailable, method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Provider error bodies go to the log only, never to the caller.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		m.logger.Warn("issuer returned error status",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(detail)),
		)
		return fmt.Errorf("%w: %s %s: status %d", ErrProviderUnavailable, method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %w", ErrProviderUnavailable, err)
		}
	}

	return nil
}

// CreateVirtualCard creates a virtual card for the user at the issuer.
func (m *MarqetaIssuer) CreateVirtualCard(ctx context.Context, userRef, cardholderName, currency string) (*VirtualCard, error) {
	req := map[string]string{
		"user_token":      userRef,
		"cardholder_name": cardholderName,
		"currency":        currency,
		"card_type":       "VIRTUAL",
	}

	var resp marqetaCardResponse
	if err := m.do(ctx, http.MethodPost, "/cards", req, &resp); err != nil {
		return nil, err
	}

	return &VirtualCard{
		CardID:      resp.Token,
		Status:      mapCardState(resp.State),
		MaskedPAN:   resp.MaskedPAN,
		Last4:       resp.LastFour,
		ExpiryMonth: resp.ExpiryMonth,
		ExpiryYear:  resp.ExpiryYear,
		Scheme:      resp.Network,
	}, nil
}

// ActivateCard transitions a card to ACTIVE.
func (m *MarqetaIssuer) ActivateCard(ctx context.Context, cardID string) (*CardState, error) {
	return m.transitionCard(ctx, cardID, "ACTIVE")
}

// BlockCard suspends a card.
func (m *MarqetaIssuer) BlockCard(ctx context.Context, cardID string) (*CardState, error) {
	return m.transitionCard(ctx, cardID, "SUSPENDED")
}

// UnblockCard lifts a suspension.
func (m *MarqetaIssuer) UnblockCard(ctx context.Context, cardID string) (*CardState, error) {
	return m.transitionCard(ctx, cardID, "ACTIVE")
}

// TerminateCard permanently closes a card.
func (m *MarqetaIssuer) TerminateCard(ctx context.Context, cardID string) (*CardState, error) {
	return m.transitionCard(ctx, cardID, "TERMINATED")
}

func (m *MarqetaIssuer) transitionCard(ctx context.Context, cardID, state string) (*CardState, error) {
	req := map[string]string{"card_token": cardID, "state": state}

	var resp marqetaStateResponse
	if err := m.do(ctx, http.MethodPost, "/cardtransitions", req, &resp); err != nil {
		return nil, err
	}

	return &CardState{CardID: cardID, Status: mapCardState(resp.State)}, nil
}

// GetCard returns the issuer's current view of a card.
func (m *MarqetaIssuer) GetCard(ctx context.Context, cardID string) (*CardDetails, error) {
	var resp marqetaCardResponse
	if err := m.do(ctx, http.MethodGet, "/cards/"+cardID, nil, &resp); err != nil {
		return nil, err
	}

	return &CardDetails{
		CardID:      cardID,
		Status:      mapCardState(resp.State),
		Last4:       resp.LastFour,
		ExpiryMonth: resp.ExpiryMonth,
		ExpiryYear:  resp.ExpiryYear,
		Scheme:      resp.Network,
	}, nil
}

// ProvisionDigitalCard mints a DPAN bound to the device.
func (m *MarqetaIssuer) ProvisionDigitalCard(ctx context.Context, cardID, deviceID, deviceFingerprint string) (*DigitalCard, error) {
	req := map[string]string{
		"card_token":         cardID,
		"device_id":          deviceID,
		"device_fingerprint": deviceFingerprint,
		"wallet_provider":    "HCE",
	}

	var resp marqetaDigitalCardResponse
	if err := m.do(ctx, http.MethodPost, "/digitalwallettokens", req, &resp); err != nil {
		return nil, err
	}

	return &DigitalCard{
		DPAN:             resp.DPAN,
		DPANExpiryMonth:  resp.DPANExpiryMonth,
		DPANExpiryYear:   resp.DPANExpiryYear,
		TokenReferenceID: resp.TokenReferenceID,
		TokenStatus:      mapDigitalCardState(resp.State),
		EMVKeys: EMVKeyBundle{
			ICCPrivateKey:   resp.EMVKeys.ICCPrivateKey,
			ICCCertificate:  resp.EMVKeys.ICCCertificate,
			IssuerPublicKey: resp.EMVKeys.IssuerPublicKey,
		},
	}, nil
}

// GenerateEMVSessionKeys mints session key material for the next tap.
func (m *MarqetaIssuer) GenerateEMVSessionKeys(ctx context.Context, tokenReferenceID string, currentATC int64) (*SessionKeys, error) {
	req := map[string]any{
		"token_reference_id": tokenReferenceID,
		"current_atc":        currentATC,
	}

	var resp marqetaSessionKeysResponse
	if err := m.do(ctx, http.MethodPost, "/digitalwallettokens/sessionkeys", req, &resp); err != nil {
		return nil, err
	}

	return &SessionKeys{
		SessionKey:          resp.SessionKey,
		ARQC:                resp.ARQC,
		ATC:                 resp.ATC,
		UnpredictableNumber: resp.UnpredictableNumber,
	}, nil
}

// DeactivateDigitalCard retires a DPAN at the issuer.
func (m *MarqetaIssuer) DeactivateDigitalCard(ctx context.Context, tokenReferenceID string) (*DigitalCardState, error) {
	req := map[string]string{"token_reference_id": tokenReferenceID, "state": "TERMINATED"}

	var resp marqetaStateResponse
	if err := m.do(ctx, http.MethodPost, "/digitalwallettokentransitions", req, &resp); err != nil {
		return nil, err
	}

	return &DigitalCardState{
		TokenReferenceID: tokenReferenceID,
		Status:           mapDigitalCardState(resp.State),
	}, nil
}

// GetDigitalCardStatus returns the issuer-side status of a DPAN.
func (m *MarqetaIssuer) GetDigitalCardStatus(ctx context.Context, tokenReferenceID string) (*DigitalCardState, error) {
	var resp marqetaStateResponse
	if err := m.do(ctx, http.MethodGet, "/digitalwallettokens/"+tokenReferenceID, nil, &resp); err != nil {
		return nil, err
	}

	return &DigitalCardState{
		TokenReferenceID: tokenReferenceID,
		Status:           mapDigitalCardState(resp.State),
	}, nil
}

// mapCardState maps provider card states onto the contract status space.
func mapCardState(state string) CardStatus {
	switch strings.ToUpper(state) {
	case "ACTIVE":
		return CardStatusActive
	case "UNVERIFIED", "UNACTIVATED":
		return CardStatusUnverified
	case "INACTIVE":
		return CardStatusInactive
	case "SUSPENDED":
		return CardStatusSuspended
	case "TERMINATED", "CLOSED":
		return CardStatusTerminated
	default:
		return CardStatusUnknown
	}
}

// mapDigitalCardState maps provider digital-card states onto the contract status space.
func mapDigitalCardState(state string) DigitalCardStatus {
	switch strings.ToUpper(state) {
	case "ACTIVE":
		return DigitalCardStatusActive
	case "SUSPENDED":
		return DigitalCardStatusSuspended
	case "TERMINATED":
		return DigitalCardStatusTerminated
	default:
		return DigitalCardStatusUnknown
	}
}
