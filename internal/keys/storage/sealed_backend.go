package storage

import (
	"context"

	"github.com/allisson/keystorage/internal/errors"
	keysUsecase "github.com/allisson/keystorage/internal/keys/usecase"
)

// SealedBackend encrypts file contents with a Keeper before they reach the
// wrapped backend and decrypts them on read. Directory operations, renames
// and copies pass through unchanged since they never inspect content.
//
// The keeper is owned by the caller, which closes it.
type SealedBackend struct {
	keysUsecase.StorageBackend
	keeper Keeper
}

// NewSealedBackend wraps backend so that every stored file is sealed by keeper.
func NewSealedBackend(backend keysUsecase.StorageBackend, keeper Keeper) *SealedBackend {
	return &SealedBackend{StorageBackend: backend, keeper: keeper}
}

// ReadFile reads and unseals the file at path.
func (s *SealedBackend) ReadFile(ctx context.Context, path string) ([]byte, error) {
	ciphertext, err := s.StorageBackend.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	plaintext, err := s.keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, errors.Wrapf(err, "unseal %s", path)
	}
	return plaintext, nil
}

// WriteFile seals data and writes it to path. The reported byte count is the
// plaintext length, or zero if the wrapped backend wrote nothing.
func (s *SealedBackend) WriteFile(ctx context.Context, path string, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}

	ciphertext, err := s.keeper.Encrypt(ctx, data)
	if err != nil {
		return 0, errors.Wrapf(err, "seal %s", path)
	}

	written, err := s.StorageBackend.WriteFile(ctx, path, ciphertext)
	if err != nil || written <= 0 {
		return 0, err
	}
	return len(data), nil
}
