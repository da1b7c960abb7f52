package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/allisson/keystorage/internal/errors"
	keysDomain "github.com/allisson/keystorage/internal/keys/domain"
	keysService "github.com/allisson/keystorage/internal/keys/service"
)

// keyStore implements KeyStore.
//
// Every operation derives a canonical storage path first. Reads are served
// from the cache once the backend confirms the key exists; writes prepare the
// parent directories, write through to the backend and then update the cache.
type keyStore struct {
	backend StorageBackend
	deriver keysService.PathDeriver
	cache   *keysService.KeyCache
	logger  *slog.Logger
}

// NewKeyStore creates a KeyStore with its own empty key cache.
func NewKeyStore(backend StorageBackend, deriver keysService.PathDeriver, logger *slog.Logger) KeyStore {
	return &keyStore{
		backend: backend,
		deriver: deriver,
		cache:   keysService.NewKeyCache(),
		logger:  logger,
	}
}

// GetUserKey reads a user key.
func (k *keyStore) GetUserKey(ctx context.Context, uid, keyID, moduleID string) (keysDomain.KeyBlob, error) {
	keyPath, err := k.deriver.Derive(keysDomain.NewUserKeyIdentity(uid, keyID, moduleID))
	if err != nil {
		return keysDomain.Absent(), err
	}
	return k.getKey(ctx, keyPath)
}

// GetFileKey reads a file key.
func (k *keyStore) GetFileKey(ctx context.Context, path, keyID, moduleID string) (keysDomain.KeyBlob, error) {
	keyPath, err := k.fileKeyPath(ctx, keysDomain.NewFileKeyIdentity(path, keyID, moduleID))
	if err != nil {
		return keysDomain.Absent(), err
	}
	return k.getKey(ctx, keyPath)
}

// GetSystemUserKey reads a system user key.
func (k *keyStore) GetSystemUserKey(ctx context.Context, keyID, moduleID string) (keysDomain.KeyBlob, error) {
	keyPath, err := k.deriver.Derive(keysDomain.NewSystemUserKeyIdentity(keyID, moduleID))
	if err != nil {
		return keysDomain.Absent(), err
	}
	return k.getKey(ctx, keyPath)
}

// SetUserKey writes a user key.
func (k *keyStore) SetUserKey(ctx context.Context, uid, keyID string, key []byte, moduleID string) error {
	keyPath, err := k.deriver.Derive(keysDomain.NewUserKeyIdentity(uid, keyID, moduleID))
	if err != nil {
		return err
	}
	return k.setKey(ctx, keyPath, key)
}

// SetFileKey writes a file key.
func (k *keyStore) SetFileKey(ctx context.Context, path, keyID string, key []byte, moduleID string) error {
	keyPath, err := k.fileKeyPath(ctx, keysDomain.NewFileKeyIdentity(path, keyID, moduleID))
	if err != nil {
		return err
	}
	return k.setKey(ctx, keyPath, key)
}

// SetSystemUserKey writes a system user key.
func (k *keyStore) SetSystemUserKey(ctx context.Context, keyID string, key []byte, moduleID string) error {
	keyPath, err := k.deriver.Derive(keysDomain.NewSystemUserKeyIdentity(keyID, moduleID))
	if err != nil {
		return err
	}
	return k.setKey(ctx, keyPath, key)
}

// DeleteUserKey removes a user key.
func (k *keyStore) DeleteUserKey(ctx context.Context, uid, keyID, moduleID string) error {
	keyPath, err := k.deriver.Derive(keysDomain.NewUserKeyIdentity(uid, keyID, moduleID))
	if err != nil {
		return err
	}
	return k.deleteKey(ctx, keyPath)
}

// DeleteFileKey removes a file key.
func (k *keyStore) DeleteFileKey(ctx context.Context, path, keyID, moduleID string) error {
	keyPath, err := k.fileKeyPath(ctx, keysDomain.NewFileKeyIdentity(path, keyID, moduleID))
	if err != nil {
		return err
	}
	return k.deleteKey(ctx, keyPath)
}

// DeleteSystemUserKey removes a system user key.
func (k *keyStore) DeleteSystemUserKey(ctx context.Context, keyID, moduleID string) error {
	keyPath, err := k.deriver.Derive(keysDomain.NewSystemUserKeyIdentity(keyID, moduleID))
	if err != nil {
		return err
	}
	return k.deleteKey(ctx, keyPath)
}

// DeleteAllFileKeys removes the parent of the module's key directory, which
// holds the keys of every module for that file.
func (k *keyStore) DeleteAllFileKeys(ctx context.Context, path, moduleID string) error {
	if err := keysDomain.ValidateModuleID(moduleID); err != nil {
		return err
	}
	if err := k.ensureFile(ctx, path); err != nil {
		return err
	}

	keyDir, err := k.deriver.FileKeyDir(moduleID, path)
	if err != nil {
		return err
	}
	fileKeysDir := parentDir(keyDir)

	exists, err := k.backend.FileExists(ctx, fileKeysDir)
	if err != nil {
		return k.failure(keysDomain.ErrDeleteFailed, "stat", fileKeysDir, err)
	}
	if !exists {
		return nil
	}

	if err := k.backend.DeleteAll(ctx, fileKeysDir); err != nil {
		return k.failure(keysDomain.ErrDeleteFailed, "delete all", fileKeysDir, err)
	}
	k.cache.EvictPrefix(fileKeysDir + "/")

	k.logger.Debug("file keys deleted", slog.String("path", fileKeysDir))
	return nil
}

// RenameKeys moves the key directory of source to target.
func (k *keyStore) RenameKeys(ctx context.Context, source, target string) error {
	return k.transferKeys(ctx, "rename", source, target, k.backend.Rename)
}

// CopyKeys copies the key directory of source to target.
func (k *keyStore) CopyKeys(ctx context.Context, source, target string) error {
	return k.transferKeys(ctx, "copy", source, target, k.backend.Copy)
}

// Close zeroes and drops cached key material.
func (k *keyStore) Close() {
	k.cache.Close()
}

// fileKeyPath validates identity, refuses directories and derives the key path.
func (k *keyStore) fileKeyPath(ctx context.Context, identity keysDomain.KeyIdentity) (string, error) {
	if err := identity.Validate(); err != nil {
		return "", err
	}
	if err := k.ensureFile(ctx, identity.LogicalPath); err != nil {
		return "", err
	}
	return k.deriver.Derive(identity)
}

// ensureFile fails with ErrNotAFile when the backend reports logicalPath as a directory.
func (k *keyStore) ensureFile(ctx context.Context, logicalPath string) error {
	isDir, err := k.backend.IsDir(ctx, logicalPath)
	if err != nil {
		return k.failure(keysDomain.ErrBackendIO, "stat", logicalPath, err)
	}
	if isDir {
		return errors.Wrapf(keysDomain.ErrNotAFile, "%s", logicalPath)
	}
	return nil
}

// getKey returns the key at keyPath, or Absent if the backend has no such file.
func (k *keyStore) getKey(ctx context.Context, keyPath string) (keysDomain.KeyBlob, error) {
	exists, err := k.backend.FileExists(ctx, keyPath)
	if err != nil {
		return keysDomain.Absent(), k.failure(keysDomain.ErrBackendIO, "stat", keyPath, err)
	}
	if !exists {
		k.logger.Debug("key not found", slog.String("path", keyPath))
		return keysDomain.Absent(), nil
	}

	if key, ok := k.cache.Get(keyPath); ok {
		k.logger.Debug("key read", slog.String("path", keyPath), slog.Bool("cached", true))
		return keysDomain.Present(key), nil
	}

	key, err := k.backend.ReadFile(ctx, keyPath)
	if err != nil {
		// Removed between the existence check and the read.
		if errors.Is(err, errors.ErrNotFound) {
			return keysDomain.Absent(), nil
		}
		return keysDomain.Absent(), k.failure(keysDomain.ErrBackendIO, "read", keyPath, err)
	}
	k.cache.Put(keyPath, key)

	k.logger.Debug("key read", slog.String("path", keyPath), slog.Bool("cached", false))
	return keysDomain.Present(key), nil
}

// setKey writes key to keyPath. The cache is only updated after the backend
// reports a positive byte count, so a failed write never creates an entry.
func (k *keyStore) setKey(ctx context.Context, keyPath string, key []byte) error {
	if err := k.prepareDirectories(ctx, parentDir(keyPath)); err != nil {
		return k.failure(keysDomain.ErrWriteFailed, "prepare", keyPath, err)
	}

	written, err := k.backend.WriteFile(ctx, keyPath, key)
	if err != nil {
		return k.failure(keysDomain.ErrWriteFailed, "write", keyPath, err)
	}
	if written <= 0 {
		return k.failure(keysDomain.ErrWriteFailed, "write", keyPath, errors.New("no bytes written"))
	}
	k.cache.Put(keyPath, key)

	k.logger.Debug("key written", slog.String("path", keyPath), slog.Int("bytes", written))
	return nil
}

// deleteKey removes the file at keyPath; a missing file counts as deleted.
func (k *keyStore) deleteKey(ctx context.Context, keyPath string) error {
	exists, err := k.backend.FileExists(ctx, keyPath)
	if err != nil {
		return k.failure(keysDomain.ErrDeleteFailed, "stat", keyPath, err)
	}
	if !exists {
		return nil
	}

	if err := k.backend.Unlink(ctx, keyPath); err != nil && !errors.Is(err, errors.ErrNotFound) {
		return k.failure(keysDomain.ErrDeleteFailed, "unlink", keyPath, err)
	}
	k.cache.Evict(keyPath)

	k.logger.Debug("key deleted", slog.String("path", keyPath))
	return nil
}

// transferKeys moves or copies the module independent key root of source to
// that of target. Files without keys are skipped without touching the backend.
func (k *keyStore) transferKeys(
	ctx context.Context,
	op, source, target string,
	transfer func(ctx context.Context, source, target string) error,
) error {
	sourceRoot, targetRoot, err := k.deriver.FileKeyRoots(source, target)
	if err != nil {
		return err
	}
	if sourceRoot == targetRoot {
		k.logger.Debug("keys already in place", slog.String("operation", op), slog.String("root", sourceRoot))
		return nil
	}

	exists, err := k.backend.FileExists(ctx, sourceRoot)
	if err != nil {
		return k.failure(keysDomain.ErrBackendIO, "stat", sourceRoot, err)
	}
	if !exists {
		k.logger.Debug("no keys to "+op, slog.String("source", source), slog.String("target", target))
		return nil
	}

	if err := k.prepareDirectories(ctx, parentDir(targetRoot)); err != nil {
		return k.failure(keysDomain.ErrBackendIO, "prepare", targetRoot, err)
	}
	if err := transfer(ctx, sourceRoot, targetRoot); err != nil {
		return k.failure(keysDomain.ErrBackendIO, op, sourceRoot+" -> "+targetRoot, err)
	}

	if op == "rename" {
		k.cache.EvictPrefix(sourceRoot)
	}
	k.cache.EvictPrefix(targetRoot)

	k.logger.Debug("keys transferred",
		slog.String("operation", op),
		slog.String("source", sourceRoot),
		slog.String("target", targetRoot),
	)
	return nil
}

// prepareDirectories creates every missing directory of dir, top down.
// Directories created concurrently by someone else are not an error.
func (k *keyStore) prepareDirectories(ctx context.Context, dir string) error {
	exists, err := k.backend.FileExists(ctx, dir)
	if err != nil {
		return errors.Wrapf(err, "stat %s", dir)
	}
	if exists {
		return nil
	}

	current := ""
	for _, segment := range strings.Split(strings.Trim(dir, "/"), "/") {
		if segment == "" {
			continue
		}
		current += "/" + segment

		isDir, err := k.backend.IsDir(ctx, current)
		if err != nil {
			return errors.Wrapf(err, "stat %s", current)
		}
		if isDir {
			continue
		}
		if err := k.backend.Mkdir(ctx, current); err != nil && !errors.Is(err, errors.ErrConflict) {
			return errors.Wrapf(err, "mkdir %s", current)
		}
	}
	return nil
}

// failure logs a backend failure and wraps cause with kind.
func (k *keyStore) failure(kind error, op, target string, cause error) error {
	k.logger.Warn("storage backend failure",
		slog.String("operation", op),
		slog.String("path", target),
		slog.Any("error", cause),
	)
	return fmt.Errorf("%w: %s %s: %w", kind, op, target, cause)
}

// parentDir returns the directory containing p, ignoring a trailing slash.
func parentDir(p string) string {
	return path.Dir(strings.TrimSuffix(p, "/"))
}
