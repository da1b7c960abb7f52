// Package service provides the pure building blocks of the key store: logical
// path resolution, storage path derivation and the per-store key cache.
package service

import (
	keysDomain "github.com/allisson/keystorage/internal/keys/domain"
)

// PathResolver interprets logical file paths. Implementations must be pure:
// no backend I/O, same input same output.
type PathResolver interface {
	// ResolveOwnerAndRelativePath splits a logical path such as
	// /alice/files/doc.txt into its owner ("alice") and the path relative to
	// the owner's home ("/files/doc.txt").
	ResolveOwnerAndRelativePath(logicalPath string) (owner, relativePath string, err error)

	// StripPartialUploadSuffix removes the in-progress upload marker so an
	// upload and its finalized file share one key directory.
	StripPartialUploadSuffix(filename string) string

	// IsSystemWideMountPoint reports whether relativePath, as seen by owner,
	// lies on a mount point whose keys are shared across users.
	IsSystemWideMountPoint(relativePath, owner string) bool

	// Normalize collapses redundant separators, keeping a trailing slash.
	Normalize(p string) string
}

// PathDeriver maps key identities to canonical storage paths. It performs no
// I/O; checks that need the backend (directory vs file) belong to the caller.
type PathDeriver interface {
	// UserKeyPath returns the storage path of a user key, or of a system
	// user key when uid is empty.
	UserKeyPath(moduleID, keyID, uid string) string

	// FileKeyDir returns the per-module key directory of a file, with a
	// trailing slash. The caller appends the key id.
	FileKeyDir(moduleID, logicalPath string) (string, error)

	// FileKeyRoots returns the module independent key directories of a
	// rename or copy source and target, both with a trailing slash.
	FileKeyRoots(source, target string) (sourceRoot, targetRoot string, err error)

	// Derive returns the storage path of any key identity.
	Derive(identity keysDomain.KeyIdentity) (string, error)
}
