package domain

import (
	"slices"
	"strings"

	"github.com/allisson/keystorage/internal/errors"
)

// MountPoint is a system-wide mount whose keys are shared by every user it
// applies to. Path is relative to a user's files directory (e.g. "/shared").
type MountPoint struct {
	Path  string
	Users []string // empty means all users
}

// AppliesTo reports whether the mount point is visible to uid.
func (m MountPoint) AppliesTo(uid string) bool {
	return len(m.Users) == 0 || slices.Contains(m.Users, uid)
}

// Contains reports whether relativePath (relative to the owner's home, e.g.
// /files/shared/doc.txt) lies inside the mount point.
func (m MountPoint) Contains(relativePath string) bool {
	root := UserFilesDir + m.Path
	return relativePath == root || strings.HasPrefix(relativePath, root+"/")
}

// ParseMountPoints parses a comma separated mount point list. Each entry is a
// mount path optionally followed by "=" and a "|" separated user list:
//
//	/shared,/finance=alice|bob
func ParseMountPoints(value string) ([]MountPoint, error) {
	var mounts []MountPoint
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		mountPath, users, _ := strings.Cut(entry, "=")
		mountPath = "/" + strings.Trim(strings.TrimSpace(mountPath), "/")
		if mountPath == "/" {
			return nil, errors.Wrapf(ErrInvalidMountPoint, "empty mount path in %q", entry)
		}

		mount := MountPoint{Path: mountPath}
		for _, user := range strings.Split(users, "|") {
			if user = strings.TrimSpace(user); user != "" {
				mount.Users = append(mount.Users, user)
			}
		}
		mounts = append(mounts, mount)
	}
	return mounts, nil
}
