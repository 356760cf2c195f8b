package app

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	cryptoDomain "github.com/hcepay/hcepay/internal/crypto/domain"
	cryptoService "github.com/hcepay/hcepay/internal/crypto/service"
)

// KMSService returns the KMS service used to unwrap the encryption key.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// TokenCipher returns the cipher protecting card and token material at rest.
func (c *Container) TokenCipher() (cryptoService.TokenCipher, error) {
	var err error
	c.tokenCipherInit.Do(func() {
		c.tokenCipher, err = c.initTokenCipher()
		if err != nil {
			c.initErrors["tokenCipher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenCipher"]; exists {
		return nil, storedErr
	}
	return c.tokenCipher, nil
}

// initTokenCipher loads the encryption key and builds the AEAD cipher.
// The key material is zeroed once the cipher holds its own copy.
func (c *Container) initTokenCipher() (cryptoService.TokenCipher, error) {
	key, err := c.loadEncryptionKey()
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(key)

	cipher, err := cryptoService.NewTokenCipher(key, cryptoDomain.Algorithm(c.config.EncryptionAlgorithm))
	if err != nil {
		return nil, fmt.Errorf("failed to create token cipher: %w", err)
	}

	return cipher, nil
}

// loadEncryptionKey resolves the 256-bit encryption key. A KMS-wrapped key
// takes precedence over a plaintext hex key.
func (c *Container) loadEncryptionKey() ([]byte, error) {
	if c.config.EncryptionKeyWrapped != "" {
		if c.config.KMSKeyURI == "" {
			return nil, fmt.Errorf("CARD_ENCRYPTION_KEY_WRAPPED is set but KMS_KEY_URI is empty")
		}

		wrapped, err := base64.StdEncoding.DecodeString(c.config.EncryptionKeyWrapped)
		if err != nil {
			return nil, fmt.Errorf("failed to decode wrapped encryption key: %w", err)
		}

		key, err := c.KMSService().UnwrapKey(context.Background(), c.config.KMSKeyURI, wrapped)
		if err != nil {
			return nil, fmt.Errorf("failed to unwrap encryption key: %w", err)
		}

		c.Logger().Info("encryption key unwrapped via KMS")
		return key, nil
	}

	if c.config.EncryptionKey == "" {
		return nil, fmt.Errorf("no encryption key configured: set CARD_ENCRYPTION_KEY or CARD_ENCRYPTION_KEY_WRAPPED")
	}

	key, err := hex.DecodeString(c.config.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key: %w", err)
	}

	return key, nil
}
