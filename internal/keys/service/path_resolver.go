package service

import (
	"path"
	"strings"

	validation "github.com/jellydator/validation"

	"github.com/allisson/keystorage/internal/errors"
	keysDomain "github.com/allisson/keystorage/internal/keys/domain"
	appValidation "github.com/allisson/keystorage/internal/validation"
)

// pathResolver resolves logical paths of the form /{owner}/{path in home}
// and classifies them against a fixed set of system-wide mount points.
type pathResolver struct {
	mountPoints []keysDomain.MountPoint
}

// NewPathResolver creates a PathResolver for the given system-wide mount points.
func NewPathResolver(mountPoints []keysDomain.MountPoint) PathResolver {
	return &pathResolver{mountPoints: mountPoints}
}

// ResolveOwnerAndRelativePath splits a logical path into owner and owner
// relative path. The path must have an owner segment followed by at least one
// more separator and must not contain parent directory references.
func (r *pathResolver) ResolveOwnerAndRelativePath(logicalPath string) (string, string, error) {
	err := validation.Validate(logicalPath, validation.Required, appValidation.NoTraversal)
	if err != nil {
		return "", "", errors.Wrapf(keysDomain.ErrInvalidPath, "%q: %s", logicalPath, err.Error())
	}

	parts := strings.SplitN(strings.TrimPrefix(r.Normalize(logicalPath), "/"), "/", 2)
	if len(parts) < 2 || parts[0] == "" {
		return "", "", errors.Wrapf(
			keysDomain.ErrInvalidPath,
			"%q does not point into a user home",
			logicalPath,
		)
	}

	return parts[0], r.Normalize(parts[1]), nil
}

// StripPartialUploadSuffix turns doc.txt.part and doc.txt.ocTransferId42.part into doc.txt.
func (r *pathResolver) StripPartialUploadSuffix(filename string) string {
	partial := "." + keysDomain.PartialUploadExtension
	if path.Ext(filename) != partial {
		return filename
	}

	stripped := strings.TrimSuffix(filename, partial)
	if ext := path.Ext(stripped); strings.HasPrefix(ext, "."+keysDomain.TransferIDPrefix) {
		stripped = strings.TrimSuffix(stripped, ext)
	}
	return stripped
}

// IsSystemWideMountPoint reports whether any mount point applicable to owner contains relativePath.
func (r *pathResolver) IsSystemWideMountPoint(relativePath, owner string) bool {
	for _, mount := range r.mountPoints {
		if mount.AppliesTo(owner) && mount.Contains(relativePath) {
			return true
		}
	}
	return false
}

// Normalize returns p with a leading slash, forward slashes only, no empty or
// "." segments, and a trailing slash if p had one.
func (r *pathResolver) Normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	trailing := strings.HasSuffix(p, "/")

	segments := make([]string, 0, strings.Count(p, "/")+1)
	for _, segment := range strings.Split(p, "/") {
		if segment == "" || segment == "." {
			continue
		}
		segments = append(segments, segment)
	}

	normalized := "/" + strings.Join(segments, "/")
	if trailing && normalized != "/" {
		normalized += "/"
	}
	return normalized
}
