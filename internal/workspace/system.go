package workspace

import (
	"os"
	"os/user"
	"strconv"
)

// System abstracts filesystem operations needed by the provisioner.
// This interface is intentionally package-local so tests can inject failures
// and ownership lookups without touching real system accounts.
type System interface {
	Stat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	Chmod(name string, mode os.FileMode) error
	Chown(name string, uid int, gid int) error
	// Owner returns the numeric uid and gid of an existing path.
	Owner(name string) (int, int, error)
	LookupUser(name string) (int, int, error)
}

// RealSystem implements System using the OS filesystem.
type RealSystem struct{}

// Stat returns a FileInfo describing the named file.
func (RealSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// MkdirAll creates a directory named path, along with any necessary parents.
func (RealSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Chmod changes the mode of the named file.
func (RealSystem) Chmod(name string, mode os.FileMode) error {
	return os.Chmod(name, mode)
}

// Chown changes the numeric uid and gid of the named file.
func (RealSystem) Chown(name string, uid int, gid int) error {
	return os.Chown(name, uid, gid)
}

// Owner returns the numeric uid and gid of the named file.
func (RealSystem) Owner(name string) (int, int, error) {
	info, err := os.Stat(name)
	if err != nil {
		return 0, 0, err
	}
	return fileOwner(info)
}

// LookupUser resolves a user name to its uid and primary gid.
func (RealSystem) LookupUser(name string) (int, int, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return 0, 0, err
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, err
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return 0, 0, err
	}
	return uid, gid, nil
}
