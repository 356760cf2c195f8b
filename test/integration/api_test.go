// Package integration provides end-to-end tests for the HCE token API.
// Tests the full provisioning lifecycle against both PostgreSQL and MySQL databases.
package integration

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hcepay/hcepay/internal/app"
	cardDTO "github.com/hcepay/hcepay/internal/card/http/dto"
	"github.com/hcepay/hcepay/internal/config"
	"github.com/hcepay/hcepay/internal/issuer"
	"github.com/hcepay/hcepay/internal/testutil"
	tokenDTO "github.com/hcepay/hcepay/internal/token/http/dto"
)

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
	userID    uuid.UUID
	dbDriver  string
}

// makeRequest performs an HTTP request scoped to the test user and returns the
// response and body.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body interface{},
	withUser bool,
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if withUser {
		req.Header.Set("X-User-ID", ctx.userID.String())
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	if closeErr := resp.Body.Close(); closeErr != nil {
		t.Logf("Warning: failed to close response body: %v", closeErr)
	}

	return resp, respBody
}

// generateEncryptionKey creates a fresh 32-byte key in the hex format the
// config expects.
func generateEncryptionKey(t *testing.T) string {
	t.Helper()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err, "failed to generate encryption key")
	return hex.EncodeToString(key)
}

// deviceFingerprint derives a valid 64-hex fingerprint from a seed string.
func deviceFingerprint(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// setupIntegrationTest initializes all components for integration testing.
func setupIntegrationTest(t *testing.T, dbDriver string) *integrationTestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)

	var db *sql.DB
	var dsn string
	if dbDriver == "postgres" {
		testutil.SkipIfNoPostgres(t)
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	} else {
		testutil.SkipIfNoMySQL(t)
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	}

	cfg := &config.Config{
		ServerHost:           "localhost",
		ServerPort:           8080,
		DBDriver:             dbDriver,
		DBConnectionString:   dsn,
		DBMaxOpenConnections: 10,
		DBMaxIdleConnections: 5,
		DBConnMaxLifetime:    time.Hour,
		LogLevel:             "error",
		SessionKeyTTL:        time.Minute,
		EncryptionAlgorithm:  "aes-gcm",
		EncryptionKey:        generateEncryptionKey(t),
		CardIssuerProvider:   "dev",
	}

	container := app.NewContainer(cfg)

	httpSrv, err := container.HTTPServer()
	require.NoError(t, err, "failed to get HTTP server")

	testServer := httptest.NewServer(httpSrv.SetupRouter(context.Background()))

	userID := uuid.Must(uuid.NewV7())
	t.Logf("Integration test setup complete for %s (user_id=%s)", dbDriver, userID)

	return &integrationTestContext{
		container: container,
		db:        db,
		server:    testServer,
		userID:    userID,
		dbDriver:  dbDriver,
	}
}

// teardownIntegrationTest cleans up all resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	if ctx.server != nil {
		ctx.server.Close()
	}

	if ctx.container != nil {
		if err := ctx.container.Shutdown(context.Background()); err != nil {
			t.Logf("Warning: container shutdown error: %v", err)
		}
	}

	if ctx.db != nil {
		testutil.TeardownDB(t, ctx.db)
	}

	t.Logf("Integration test teardown complete for %s", ctx.dbDriver)
}

// createCard provisions a fresh virtual card through the API and returns its ID.
func (ctx *integrationTestContext) createCard(t *testing.T) string {
	t.Helper()

	resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/cards", cardDTO.CreateCardRequest{
		CardholderName:    "Integration Tester",
		Currency:          "EUR",
		ExternalAccountID: "acct-integration-1",
	}, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "card creation failed: %s", body)

	var card cardDTO.CardResponse
	require.NoError(t, json.Unmarshal(body, &card))
	return card.ID
}

func driverTestCases() []struct {
	name     string
	dbDriver string
} {
	return []struct {
		name     string
		dbDriver string
	}{
		{"PostgreSQL", "postgres"},
		{"MySQL", "mysql"},
	}
}

// TestIntegration_Health_BasicChecks validates the health and readiness endpoints.
func TestIntegration_Health_BasicChecks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range driverTestCases() {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			t.Run("01_HealthCheck", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/health", nil, false)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "healthy", response["status"])
			})

			t.Run("02_ReadinessCheck", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/ready", nil, false)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "ready", response["status"])
			})
		})
	}
}

// TestIntegration_Card_Lifecycle tests virtual card issuance and lifecycle
// operations: create, get, block, unblock, sync.
func TestIntegration_Card_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range driverTestCases() {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			var cardID string

			t.Run("01_CreateCard", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/cards", cardDTO.CreateCardRequest{
					CardholderName:    "Integration Tester",
					Currency:          "EUR",
					ExternalAccountID: "acct-integration-1",
				}, true)
				require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", body)

				var card cardDTO.CardResponse
				require.NoError(t, json.Unmarshal(body, &card))
				assert.Equal(t, "active", card.Status)
				assert.Equal(t, "visa", card.Scheme)
				assert.Len(t, card.LastFourDigits, 4)
				// Issuer-side identifiers must stay internal.
				assert.NotContains(t, string(body), "dev_card_")

				cardID = card.ID
			})

			t.Run("02_GetCard", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/cards/"+cardID, nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var card cardDTO.CardResponse
				require.NoError(t, json.Unmarshal(body, &card))
				assert.Equal(t, cardID, card.ID)
			})

			t.Run("03_BlockCard", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/cards/"+cardID+"/block", nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", body)

				var card cardDTO.CardResponse
				require.NoError(t, json.Unmarshal(body, &card))
				assert.Equal(t, "blocked", card.Status)
			})

			t.Run("04_ProvisionAgainstBlockedCardFails", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/hce/provision", tokenDTO.ProvisionTokenRequest{
					CardID:            cardID,
					DeviceFingerprint: deviceFingerprint("blocked-card-device"),
				}, true)
				assert.Equal(t, http.StatusConflict, resp.StatusCode)
			})

			t.Run("05_UnblockCard", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/cards/"+cardID+"/unblock", nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var card cardDTO.CardResponse
				require.NoError(t, json.Unmarshal(body, &card))
				assert.Equal(t, "active", card.Status)
			})

			t.Run("06_SyncStatus", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/cards/"+cardID+"/sync", nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var card cardDTO.CardResponse
				require.NoError(t, json.Unmarshal(body, &card))
				assert.Equal(t, "active", card.Status)
			})

			t.Run("07_UnknownCardReturns404", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodGet, "/v1/cards/"+uuid.Must(uuid.NewV7()).String(), nil, true)
				assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			})

			t.Run("08_MissingUserReturns401", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodGet, "/v1/cards/"+cardID, nil, false)
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})
		})
	}
}

// TestIntegration_Provisioning_CompleteFlow walks a token through its whole
// life: provision, payload fetch, session key refresh, re-provision on the
// same device, issuer revocation, and deactivation.
func TestIntegration_Provisioning_CompleteFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range driverTestCases() {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			cardID := ctx.createCard(t)
			fingerprint := deviceFingerprint("primary-device")

			var tokenID string
			var firstSessionKey string

			t.Run("01_ProvisionToken", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/hce/provision", tokenDTO.ProvisionTokenRequest{
					CardID:            cardID,
					DeviceFingerprint: fingerprint,
				}, true)
				require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", body)

				var token tokenDTO.TokenResponse
				require.NoError(t, json.Unmarshal(body, &token))
				assert.Equal(t, "active", token.Status)
				assert.Equal(t, int64(1), token.ATC)
				assert.Equal(t, cardID, token.CardID)
				assert.True(t, token.SessionKeyExpiresAt.After(time.Now()))

				tokenID = token.ID
			})

			t.Run("02_PaymentPayload", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/hce/payload/"+tokenID, nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", body)

				var payload tokenDTO.PaymentPayloadResponse
				require.NoError(t, json.Unmarshal(body, &payload))
				assert.Equal(t, int64(1), payload.ATC)
				assert.NotEmpty(t, payload.EncryptedDPAN)
				assert.NotEmpty(t, payload.EncryptedSessionKey)
				assert.NotEmpty(t, payload.EncryptedEMVKeys)
				assert.NotEmpty(t, payload.TokenReferenceID)
				// The DPAN must never appear in the clear.
				assert.NotContains(t, string(body), "4000000000001234")

				firstSessionKey = payload.EncryptedSessionKey
			})

			t.Run("03_RefreshSessionKey", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/hce/refresh/"+tokenID, nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", body)

				var refresh tokenDTO.RefreshSessionKeyResponse
				require.NoError(t, json.Unmarshal(body, &refresh))
				assert.Equal(t, int64(2), refresh.ATC)
				assert.NotEqual(t, firstSessionKey, refresh.EncryptedSessionKey)
				assert.True(t, refresh.SessionKeyExpiresAt.After(time.Now()))
			})

			var secondTokenID string

			t.Run("04_ReprovisionRetiresPriorToken", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/hce/provision", tokenDTO.ProvisionTokenRequest{
					CardID:            cardID,
					DeviceFingerprint: fingerprint,
				}, true)
				require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", body)

				var token tokenDTO.TokenResponse
				require.NoError(t, json.Unmarshal(body, &token))
				assert.NotEqual(t, tokenID, token.ID)
				secondTokenID = token.ID

				resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/hce/tokens", nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var list tokenDTO.ListTokensResponse
				require.NoError(t, json.Unmarshal(body, &list))
				require.Len(t, list.Data, 1, "exactly one active token per card+device pair")
				assert.Equal(t, secondTokenID, list.Data[0].ID)
			})

			t.Run("05_RefreshRetiredTokenFails", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/hce/refresh/"+tokenID, nil, true)
				assert.Equal(t, http.StatusConflict, resp.StatusCode)
			})

			t.Run("06_IssuerRevocationDeactivatesOnRefresh", func(t *testing.T) {
				cardIssuer, err := ctx.container.CardIssuer()
				require.NoError(t, err)
				devIssuer, ok := cardIssuer.(*issuer.DevIssuer)
				require.True(t, ok, "dev issuer expected in integration config")

				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/hce/payload/"+secondTokenID, nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var payload tokenDTO.PaymentPayloadResponse
				require.NoError(t, json.Unmarshal(body, &payload))
				devIssuer.SetDigitalCardStatus(payload.TokenReferenceID, issuer.DigitalCardStatusTerminated)

				resp, _ = ctx.makeRequest(t, http.MethodPost, "/v1/hce/refresh/"+secondTokenID, nil, true)
				assert.Equal(t, http.StatusConflict, resp.StatusCode)

				// The revocation is terminal: the next refresh fails the same
				// way and no active token remains.
				resp, _ = ctx.makeRequest(t, http.MethodPost, "/v1/hce/refresh/"+secondTokenID, nil, true)
				assert.Equal(t, http.StatusConflict, resp.StatusCode)

				resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/hce/tokens", nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var list tokenDTO.ListTokensResponse
				require.NoError(t, json.Unmarshal(body, &list))
				assert.Empty(t, list.Data)
			})

			t.Run("07_DeactivateIsIdempotent", func(t *testing.T) {
				thirdFingerprint := deviceFingerprint("secondary-device")
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/hce/provision", tokenDTO.ProvisionTokenRequest{
					CardID:            cardID,
					DeviceFingerprint: thirdFingerprint,
				}, true)
				require.Equal(t, http.StatusCreated, resp.StatusCode)

				var token tokenDTO.TokenResponse
				require.NoError(t, json.Unmarshal(body, &token))

				resp, _ = ctx.makeRequest(t, http.MethodPost, "/v1/hce/deactivate/"+token.ID, nil, true)
				assert.Equal(t, http.StatusNoContent, resp.StatusCode)

				resp, _ = ctx.makeRequest(t, http.MethodPost, "/v1/hce/deactivate/"+token.ID, nil, true)
				assert.Equal(t, http.StatusNoContent, resp.StatusCode)

				resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/hce/payload/"+token.ID, nil, true)
				assert.Equal(t, http.StatusConflict, resp.StatusCode)
			})

			t.Run("08_OtherUserCannotSeeToken", func(t *testing.T) {
				other := &integrationTestContext{
					container: ctx.container,
					server:    ctx.server,
					userID:    uuid.Must(uuid.NewV7()),
					dbDriver:  ctx.dbDriver,
				}
				resp, _ := other.makeRequest(t, http.MethodGet, "/v1/hce/payload/"+secondTokenID, nil, true)
				assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			})
		})
	}
}

// TestIntegration_Card_BlockFansOutTokenDeactivation verifies that blocking a
// card retires every active token provisioned against it, across devices.
func TestIntegration_Card_BlockFansOutTokenDeactivation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range driverTestCases() {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			cardID := ctx.createCard(t)

			for i := 0; i < 3; i++ {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/hce/provision", tokenDTO.ProvisionTokenRequest{
					CardID:            cardID,
					DeviceFingerprint: deviceFingerprint(fmt.Sprintf("device-%d", i)),
				}, true)
				require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", body)
			}

			resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/hce/tokens", nil, true)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var list tokenDTO.ListTokensResponse
			require.NoError(t, json.Unmarshal(body, &list))
			require.Len(t, list.Data, 3)

			resp, _ = ctx.makeRequest(t, http.MethodPost, "/v1/cards/"+cardID+"/block", nil, true)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/hce/tokens", nil, true)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.NoError(t, json.Unmarshal(body, &list))
			assert.Empty(t, list.Data, "blocking the card retires all its tokens")
		})
	}
}
