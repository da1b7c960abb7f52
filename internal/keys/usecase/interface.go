// Package usecase defines the key store and the storage backend contract it
// orchestrates.
package usecase

import (
	"context"

	keysDomain "github.com/allisson/keystorage/internal/keys/domain"
)

// StorageBackend is a hierarchical, filesystem-like store addressed by
// slash separated virtual paths.
//
// Implementation requirements:
//   - Paths may carry a trailing slash; "/a/b/" and "/a/b" name the same node
//   - ReadFile and Unlink return an error wrapping errors.ErrNotFound for missing files
//   - Mkdir returns an error wrapping errors.ErrConflict if the path already exists
//   - DeleteAll, Rename and Copy operate on whole subtrees
//
// Available implementations:
//   - storage.BlobBackend: gocloud.dev/blob buckets (mem://, file://, ...)
//   - storage.SealedBackend: wraps another backend and seals file contents with a KMS keeper
//   - repository.PostgreSQLBackend and repository.MySQLBackend: key_nodes table
type StorageBackend interface {
	// FileExists reports whether a file or directory exists at path.
	FileExists(ctx context.Context, path string) (bool, error)

	// IsDir reports whether path exists and is a directory.
	IsDir(ctx context.Context, path string) (bool, error)

	// ReadFile returns the content of the file at path.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile creates or replaces the file at path and returns the number of bytes written.
	WriteFile(ctx context.Context, path string, data []byte) (int, error)

	// Unlink removes the file at path.
	Unlink(ctx context.Context, path string) error

	// DeleteAll removes path and everything below it.
	DeleteAll(ctx context.Context, path string) error

	// Mkdir creates a single directory. The parent must already exist.
	Mkdir(ctx context.Context, path string) error

	// Rename moves the file or directory tree at source to target. Anything
	// target held before is removed first. A missing source is ErrNotFound and
	// a rename of a path onto itself changes nothing.
	Rename(ctx context.Context, source, target string) error

	// Copy duplicates the file or directory tree at source to target, with the
	// same replacement, not-found and same-path rules as Rename.
	Copy(ctx context.Context, source, target string) error
}

// KeyStore persists user, file and system user keys for encryption modules.
//
// Reads return keysDomain.Absent() when no key is stored; the absence of a key
// is never an error. Writes and deletes report backend failures as errors
// wrapping keysDomain.ErrBackendIO and are never retried.
//
// A KeyStore owns an unsynchronized key cache: use one instance per request
// or session, or guard it externally.
type KeyStore interface {
	// GetUserKey reads key keyID of user uid for moduleID.
	GetUserKey(ctx context.Context, uid, keyID, moduleID string) (keysDomain.KeyBlob, error)

	// GetFileKey reads key keyID of the file at path for moduleID.
	// Returns keysDomain.ErrNotAFile if path is a directory.
	GetFileKey(ctx context.Context, path, keyID, moduleID string) (keysDomain.KeyBlob, error)

	// GetSystemUserKey reads the system-wide key keyID for moduleID.
	GetSystemUserKey(ctx context.Context, keyID, moduleID string) (keysDomain.KeyBlob, error)

	// SetUserKey writes key keyID of user uid for moduleID.
	SetUserKey(ctx context.Context, uid, keyID string, key []byte, moduleID string) error

	// SetFileKey writes key keyID of the file at path for moduleID,
	// creating missing key directories.
	SetFileKey(ctx context.Context, path, keyID string, key []byte, moduleID string) error

	// SetSystemUserKey writes the system-wide key keyID for moduleID.
	SetSystemUserKey(ctx context.Context, keyID string, key []byte, moduleID string) error

	// DeleteUserKey removes key keyID of user uid. Succeeds if already absent.
	DeleteUserKey(ctx context.Context, uid, keyID, moduleID string) error

	// DeleteFileKey removes key keyID of the file at path. Succeeds if already absent.
	DeleteFileKey(ctx context.Context, path, keyID, moduleID string) error

	// DeleteAllFileKeys removes every key of the file at path, for all modules.
	DeleteAllFileKeys(ctx context.Context, path, moduleID string) error

	// DeleteSystemUserKey removes the system-wide key keyID. Succeeds if already absent.
	DeleteSystemUserKey(ctx context.Context, keyID, moduleID string) error

	// RenameKeys moves all keys of source to target after a file rename.
	// It is a no-op if source has no keys.
	RenameKeys(ctx context.Context, source, target string) error

	// CopyKeys copies all keys of source to target after a file copy.
	// It is a no-op if source has no keys.
	CopyKeys(ctx context.Context, source, target string) error

	// Close zeroes and drops cached key material.
	Close()
}
