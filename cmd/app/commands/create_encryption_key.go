package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	cryptoDomain "github.com/hcepay/hcepay/internal/crypto/domain"
	cryptoService "github.com/hcepay/hcepay/internal/crypto/service"
)

// RunCreateEncryptionKey generates a 256-bit key for encrypting card and token
// material at rest and prints the environment variables to configure it.
//
// Without a KMS key URI the key is printed as plaintext hex; suitable only for
// development. With one, the key is wrapped by the KMS before output and the
// plaintext never leaves this process.
func RunCreateEncryptionKey(ctx context.Context, w io.Writer, kmsService cryptoService.KMSService, kmsKeyURI string) error {
	key := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("failed to generate encryption key: %w", err)
	}
	defer cryptoDomain.Zero(key)

	fmt.Fprintln(w, "# Encryption key configuration")
	fmt.Fprintln(w, "# Copy these environment variables to your .env file or secrets manager")
	fmt.Fprintln(w)

	if kmsKeyURI == "" {
		fmt.Fprintf(w, "CARD_ENCRYPTION_KEY=\"%s\"\n", hex.EncodeToString(key))
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# Plaintext keys are for development only. For production, re-run with")
		fmt.Fprintln(w, "# --kms-key-uri to wrap the key with a KMS.")
		return nil
	}

	wrapped, err := kmsService.WrapKey(ctx, kmsKeyURI, key)
	if err != nil {
		return fmt.Errorf("failed to wrap encryption key: %w", err)
	}

	fmt.Fprintf(w, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	fmt.Fprintf(w, "CARD_ENCRYPTION_KEY_WRAPPED=\"%s\"\n", base64.StdEncoding.EncodeToString(wrapped))

	return nil
}
