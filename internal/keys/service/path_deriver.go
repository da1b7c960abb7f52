package service

import (
	"github.com/allisson/keystorage/internal/errors"
	keysDomain "github.com/allisson/keystorage/internal/keys/domain"
)

// pathDeriver implements PathDeriver on top of a PathResolver.
//
// Mount point classification is evaluated on every call: a file may move onto
// or off a system-wide mount between two operations.
type pathDeriver struct {
	resolver PathResolver
}

// NewPathDeriver creates a PathDeriver using resolver for logical path handling.
func NewPathDeriver(resolver PathResolver) PathDeriver {
	return &pathDeriver{resolver: resolver}
}

// UserKeyPath embeds the owner twice, as namespace and as filename prefix,
// so per-user key files stay distinguishable when aggregated.
func (d *pathDeriver) UserKeyPath(moduleID, keyID, uid string) string {
	if uid == "" {
		return keysDomain.EncryptionBaseDir + "/" + moduleID + "/" + keyID
	}
	return "/" + uid + keysDomain.EncryptionBaseDir + "/" + moduleID + "/" + uid + "." + keyID
}

// FileKeyDir returns /{owner}/files_encryption/keys/{relative path}/{module}/,
// without the owner prefix on system-wide mount points.
func (d *pathDeriver) FileKeyDir(moduleID, logicalPath string) (string, error) {
	owner, filename, err := d.resolver.ResolveOwnerAndRelativePath(logicalPath)
	if err != nil {
		return "", err
	}
	filename = d.resolver.StripPartialUploadSuffix(filename)

	systemWide := d.resolver.IsSystemWideMountPoint(filename, owner)
	return d.resolver.Normalize(d.keyRoot(owner, filename, systemWide) + moduleID + "/"), nil
}

// FileKeyRoots classifies the target path only; a rename or copy across the
// boundary between system-wide and per-user storage is not modeled.
func (d *pathDeriver) FileKeyRoots(source, target string) (string, string, error) {
	owner, sourceFilename, err := d.resolver.ResolveOwnerAndRelativePath(source)
	if err != nil {
		return "", "", err
	}
	_, targetFilename, err := d.resolver.ResolveOwnerAndRelativePath(target)
	if err != nil {
		return "", "", err
	}

	systemWide := d.resolver.IsSystemWideMountPoint(targetFilename, owner)
	sourceRoot := d.resolver.Normalize(d.keyRoot(owner, sourceFilename, systemWide))
	targetRoot := d.resolver.Normalize(d.keyRoot(owner, targetFilename, systemWide))
	return sourceRoot, targetRoot, nil
}

// Derive validates identity and returns its storage path.
func (d *pathDeriver) Derive(identity keysDomain.KeyIdentity) (string, error) {
	if err := identity.Validate(); err != nil {
		return "", err
	}

	switch identity.Kind {
	case keysDomain.UserKey:
		return d.UserKeyPath(identity.ModuleID, identity.KeyID, identity.Owner), nil
	case keysDomain.SystemUserKey:
		return d.UserKeyPath(identity.ModuleID, identity.KeyID, ""), nil
	case keysDomain.FileKey:
		keyDir, err := d.FileKeyDir(identity.ModuleID, identity.LogicalPath)
		if err != nil {
			return "", err
		}
		return keyDir + identity.KeyID, nil
	default:
		return "", errors.Wrapf(keysDomain.ErrInvalidIdentifier, "unknown key kind %q", identity.Kind)
	}
}

func (d *pathDeriver) keyRoot(owner, filename string, systemWide bool) string {
	if systemWide {
		return keysDomain.KeysBaseDir + filename + "/"
	}
	return "/" + owner + keysDomain.KeysBaseDir + filename + "/"
}
