package service

import (
	"context"
	"fmt"

	"gocloud.dev/secrets"

	// Register KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// kmsService implements KMSService using gocloud.dev/secrets.
type kmsService struct{}

// NewKMSService creates a new KMS service instance.
func NewKMSService() KMSService {
	return &kmsService{}
}

// WrapKey opens a secrets.Keeper for the keyURI and encrypts the data key.
func (k *kmsService) WrapKey(ctx context.Context, keyURI string, key []byte) ([]byte, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer keeper.Close()

	wrapped, err := keeper.Encrypt(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap encryption key: %w", err)
	}

	return wrapped, nil
}

// UnwrapKey opens a secrets.Keeper for the keyURI and decrypts the wrapped data key.
// Supports gcpkms://, awskms://, azurekeyvault://, hashivault://, and base64key://.
func (k *kmsService) UnwrapKey(ctx context.Context, keyURI string, wrapped []byte) ([]byte, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer keeper.Close()

	key, err := keeper.Decrypt(ctx, wrapped)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap encryption key: %w", err)
	}

	return key, nil
}
