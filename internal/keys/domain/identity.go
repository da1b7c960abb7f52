// Package domain defines the key storage domain model.
//
// A KeyIdentity names one stored key: a user key (owner + key id), a file key
// (logical file path + key id) or a system user key (key id only), each
// scoped to the encryption module that owns it. Identities are projected to
// storage paths by the path deriver; they are never persisted themselves.
package domain

import (
	validation "github.com/jellydator/validation"

	"github.com/allisson/keystorage/internal/errors"
	appValidation "github.com/allisson/keystorage/internal/validation"
)

// EntityKind selects the addressing tuple of a KeyIdentity.
type EntityKind string

const (
	// UserKey is addressed by owner and key id.
	UserKey EntityKind = "user"
	// FileKey is addressed by logical file path and key id.
	FileKey EntityKind = "file"
	// SystemUserKey is addressed by key id alone.
	SystemUserKey EntityKind = "system"
)

// KeyIdentity is a logical reference to one stored key.
type KeyIdentity struct {
	Kind        EntityKind
	Owner       string // UserKey only
	LogicalPath string // FileKey only, e.g. /alice/files/doc.txt
	ModuleID    string
	KeyID       string
}

// NewUserKeyIdentity returns the identity of a user's key.
func NewUserKeyIdentity(uid, keyID, moduleID string) KeyIdentity {
	return KeyIdentity{Kind: UserKey, Owner: uid, ModuleID: moduleID, KeyID: keyID}
}

// NewFileKeyIdentity returns the identity of a file's key.
func NewFileKeyIdentity(logicalPath, keyID, moduleID string) KeyIdentity {
	return KeyIdentity{Kind: FileKey, LogicalPath: logicalPath, ModuleID: moduleID, KeyID: keyID}
}

// NewSystemUserKeyIdentity returns the identity of a system-wide key.
func NewSystemUserKeyIdentity(keyID, moduleID string) KeyIdentity {
	return KeyIdentity{Kind: SystemUserKey, ModuleID: moduleID, KeyID: keyID}
}

// Validate checks that the identity carries exactly its addressing tuple and
// that every identifier is usable as a single path segment.
func (k KeyIdentity) Validate() error {
	err := validation.ValidateStruct(&k,
		validation.Field(&k.Kind, validation.Required, validation.In(UserKey, FileKey, SystemUserKey)),
		validation.Field(&k.ModuleID, validation.Required, appValidation.PathSegment),
		validation.Field(&k.KeyID, validation.Required, appValidation.PathSegment),
		validation.Field(&k.Owner,
			validation.When(k.Kind == UserKey, validation.Required, appValidation.PathSegment).
				Else(validation.Empty),
		),
		validation.Field(&k.LogicalPath,
			validation.When(k.Kind == FileKey, validation.Required).Else(validation.Empty),
		),
	)
	if err != nil {
		return errors.Wrap(ErrInvalidIdentifier, err.Error())
	}
	return nil
}

// ValidateModuleID checks a module id on its own, for operations that span
// every key of a file but are still scoped to one module's directory layout.
func ValidateModuleID(moduleID string) error {
	if err := validation.Validate(moduleID, validation.Required, appValidation.PathSegment); err != nil {
		return errors.Wrapf(ErrInvalidIdentifier, "module id: %s", err.Error())
	}
	return nil
}
