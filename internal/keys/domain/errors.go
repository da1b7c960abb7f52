package domain

import (
	"github.com/allisson/keystorage/internal/errors"
)

// Key storage error definitions.
//
// These wrap the standard errors from internal/errors so callers can either
// match the precise failure or the broader category.
var (
	// ErrNotAFile indicates a file key operation was attempted on a directory.
	//
	// File keys only exist for files; the operation is aborted before any
	// backend mutation and is not retried.
	ErrNotAFile = errors.Wrap(errors.ErrInvalidInput, "file was expected but directory was given")

	// ErrInvalidIdentifier indicates an owner, module id or key id cannot be
	// used as a path segment (empty, separators, NUL or traversal sequences).
	ErrInvalidIdentifier = errors.Wrap(errors.ErrInvalidInput, "invalid key identifier")

	// ErrInvalidPath indicates a logical path cannot be resolved to an owner
	// and a path relative to that owner.
	ErrInvalidPath = errors.Wrap(errors.ErrInvalidInput, "invalid logical path")

	// ErrInvalidMountPoint indicates a malformed system-wide mount point definition.
	ErrInvalidMountPoint = errors.Wrap(errors.ErrInvalidInput, "invalid mount point")

	// ErrBackendIO indicates the storage backend failed to complete an operation.
	ErrBackendIO = errors.Wrap(errors.ErrUnavailable, "storage backend failure")

	// ErrWriteFailed indicates a key could not be written. A write that
	// reports zero bytes written is a failure as well.
	ErrWriteFailed = errors.Wrap(ErrBackendIO, "failed to write key")

	// ErrDeleteFailed indicates a key or key directory could not be removed.
	ErrDeleteFailed = errors.Wrap(ErrBackendIO, "failed to delete key")
)
