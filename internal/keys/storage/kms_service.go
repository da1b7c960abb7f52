package storage

import (
	"bytes"
	"context"
	"fmt"

	"gocloud.dev/secrets"

	"github.com/allisson/keystorage/internal/errors"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// Keeper wraps and unwraps key blobs at rest. *secrets.Keeper implements it.
type Keeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// KMSService opens keepers for the configured KMS provider.
type KMSService interface {
	// OpenKeeper opens a Keeper for keyURI.
	// Returns an error if the KMS provider URI is invalid or connection fails.
	OpenKeeper(ctx context.Context, keyURI string) (Keeper, error)
}

// kmsService implements KMSService using gocloud.dev/secrets.
type kmsService struct{}

// NewKMSService creates a new KMS service instance.
func NewKMSService() KMSService {
	return &kmsService{}
}

// probePlaintext is sealed and unsealed once when a keeper is opened.
var probePlaintext = []byte("keystorage-keeper-probe")

// OpenKeeper opens a secrets.Keeper for the KMS provider named by keyURI and
// checks it with one seal/unseal round trip.
// Supports: gcpkms://, awskms://, azurekeyvault://, hashivault://, base64key://
func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (Keeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}

	if err := verifyKeeper(ctx, keeper); err != nil {
		_ = keeper.Close()
		return nil, err
	}
	return keeper, nil
}

// verifyKeeper seals and unseals probePlaintext with keeper.
func verifyKeeper(ctx context.Context, keeper Keeper) error {
	ciphertext, err := keeper.Encrypt(ctx, probePlaintext)
	if err != nil {
		return errors.Wrapf(errors.ErrUnavailable, "KMS keeper cannot seal: %v", err)
	}

	plaintext, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return errors.Wrapf(errors.ErrUnavailable, "KMS keeper cannot unseal: %v", err)
	}
	if !bytes.Equal(plaintext, probePlaintext) {
		return errors.Wrap(errors.ErrUnavailable, "KMS keeper round trip returned different data")
	}
	return nil
}
