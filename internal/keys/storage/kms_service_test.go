package storage

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/secrets"

	apperrors "github.com/allisson/keystorage/internal/errors"
)

// generateLocalSecretsURI generates a base64key:// URI for testing.
func generateLocalSecretsURI(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return "base64key://" + base64.URLEncoding.EncodeToString(key)
}

func openTestKeeper(t *testing.T) Keeper {
	t.Helper()
	keeper, err := NewKMSService().OpenKeeper(context.Background(), generateLocalSecretsURI(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, keeper.Close())
	})
	return keeper
}

func TestKMSService_OpenKeeper(t *testing.T) {
	ctx := context.Background()
	kmsService := NewKMSService()

	t.Run("Success_LocalSecrets", func(t *testing.T) {
		keeper, err := kmsService.OpenKeeper(ctx, generateLocalSecretsURI(t))
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, keeper.Close())
		}()

		_, ok := keeper.(*secrets.Keeper)
		assert.True(t, ok, "keeper should be *secrets.Keeper")
	})

	t.Run("Error_InvalidURI", func(t *testing.T) {
		keeper, err := kmsService.OpenKeeper(ctx, "invalid://uri")

		assert.Error(t, err)
		assert.Nil(t, keeper)
		assert.Contains(t, err.Error(), "failed to open KMS keeper")
	})

	t.Run("Error_EmptyURI", func(t *testing.T) {
		keeper, err := kmsService.OpenKeeper(ctx, "")

		assert.Error(t, err)
		assert.Nil(t, keeper)
	})
}

func TestKMSService_KeeperRoundTrip(t *testing.T) {
	ctx := context.Background()
	keeper := openTestKeeper(t)

	testCases := []struct {
		name      string
		plaintext []byte
	}{
		{name: "ShortKey", plaintext: []byte("ABC123")},
		{name: "BinaryKey", plaintext: []byte{0x00, 0x01, 0xFF, 0xFE}},
		{name: "PrivateKeySize", plaintext: make([]byte, 2048)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ciphertext, err := keeper.Encrypt(ctx, tc.plaintext)
			require.NoError(t, err)
			assert.NotEqual(t, tc.plaintext, ciphertext)

			decrypted, err := keeper.Decrypt(ctx, ciphertext)
			require.NoError(t, err)
			assert.Equal(t, tc.plaintext, decrypted)
		})
	}
}

func TestKMSService_DecryptWithOtherKeeper(t *testing.T) {
	ctx := context.Background()
	sealing := openTestKeeper(t)
	other := openTestKeeper(t)

	ciphertext, err := sealing.Encrypt(ctx, []byte("ABC123"))
	require.NoError(t, err)

	_, err = other.Decrypt(ctx, ciphertext)
	assert.Error(t, err)
}

// brokenKeeper is a Keeper whose operations can be made to fail or corrupt data.
type brokenKeeper struct {
	encryptErr error
	decryptErr error
	corrupt    bool
}

func (k *brokenKeeper) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	if k.encryptErr != nil {
		return nil, k.encryptErr
	}
	return append([]byte{}, plaintext...), nil
}

func (k *brokenKeeper) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	if k.decryptErr != nil {
		return nil, k.decryptErr
	}
	if k.corrupt {
		return []byte("garbage"), nil
	}
	return ciphertext, nil
}

func (k *brokenKeeper) Close() error { return nil }

func TestVerifyKeeper(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		keeper  Keeper
		wantErr string
	}{
		{name: "healthy", keeper: &brokenKeeper{}},
		{name: "seal fails", keeper: &brokenKeeper{encryptErr: errors.New("access denied")}, wantErr: "cannot seal"},
		{name: "unseal fails", keeper: &brokenKeeper{decryptErr: errors.New("wrong key")}, wantErr: "cannot unseal"},
		{name: "round trip mismatch", keeper: &brokenKeeper{corrupt: true}, wantErr: "different data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifyKeeper(ctx, tt.keeper)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrUnavailable)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
