// Package workspace provisions the temp, log, and program-files directories of the service.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/messages"
)

// DirMode is the mode for newly created directories.
const DirMode os.FileMode = 0o755

// requiredBits must be present on every workspace directory: owner rwx, group r-x.
const requiredBits os.FileMode = 0o750

// ErrNotDirectory marks a path that exists but is not a directory.
var ErrNotDirectory = errors.New(messages.WorkspaceNotDirectory)

// Paths are the three directories of the service workspace.
type Paths struct {
	Temp         string
	Logs         string
	ProgramFiles string
}

// List returns the paths in provisioning order.
func (p Paths) List() []string {
	return []string{p.Temp, p.Logs, p.ProgramFiles}
}

// IOError reports the path a filesystem operation failed on.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf(messages.WorkspaceIOErrorFmt, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// Action describes what provisioning did to a directory.
type Action string

// Directory actions.
const (
	ActionCreated          Action = "created"
	ActionExists           Action = "exists"
	ActionPermissionsFixed Action = "permissions-fixed"
	ActionWouldCreate      Action = "would-create"
)

// DirResult is the outcome for one directory.
type DirResult struct {
	Path    string
	Action  Action
	Chowned bool
}

// Options configures a Provisioner.
type Options struct {
	// Owner is an optional user name the directories are chowned to.
	Owner  string
	System System
	Log    *zap.Logger
}

// Provisioner creates workspace directories idempotently.
type Provisioner struct {
	owner string
	sys   System
	log   *zap.Logger
}

// NewProvisioner returns a Provisioner; nil fields in opts take real defaults.
func NewProvisioner(opts Options) *Provisioner {
	sys := opts.System
	if sys == nil {
		sys = RealSystem{}
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Provisioner{owner: opts.Owner, sys: sys, log: log}
}

// Provision ensures every path exists as a directory with service permissions.
// All paths are checked for collisions before anything is created.
func (p *Provisioner) Provision(paths Paths) ([]DirResult, error) {
	list := paths.List()
	existing, missing, err := p.preflight(list)
	if err != nil {
		return nil, err
	}
	uid, gid, err := p.resolveOwner()
	if err != nil {
		return nil, err
	}

	results := make([]DirResult, 0, len(list))
	for _, path := range list {
		result := DirResult{Path: path}
		if existing[path] {
			fixed, err := p.ensureMode(path)
			if err != nil {
				return results, err
			}
			result.Action = ActionExists
			if fixed {
				result.Action = ActionPermissionsFixed
			}
		} else {
			if err := p.sys.MkdirAll(path, DirMode); err != nil {
				return results, &IOError{Path: path, Err: err}
			}
			// Parents created here get the same mode and owner as the leaf.
			for _, parent := range missing[path][:len(missing[path])-1] {
				if _, err := p.ensureMode(parent); err != nil {
					return results, err
				}
				if uid >= 0 {
					if _, err := p.ensureOwner(parent, uid, gid); err != nil {
						return results, err
					}
				}
			}
			if _, err := p.ensureMode(path); err != nil {
				return results, err
			}
			result.Action = ActionCreated
			p.log.Info("created directory", zap.String("path", path))
		}
		if uid >= 0 {
			chowned, err := p.ensureOwner(path, uid, gid)
			if err != nil {
				return results, err
			}
			result.Chowned = chowned
		}
		results = append(results, result)
	}
	return results, nil
}

// Plan reports what Provision would do without modifying the filesystem.
func (p *Provisioner) Plan(paths Paths) ([]DirResult, error) {
	list := paths.List()
	existing, _, err := p.preflight(list)
	if err != nil {
		return nil, err
	}
	results := make([]DirResult, 0, len(list))
	for _, path := range list {
		action := ActionWouldCreate
		if existing[path] {
			action = ActionExists
		}
		results = append(results, DirResult{Path: path, Action: action})
	}
	return results, nil
}

// preflight validates each path and its existing ancestors. It returns which
// paths exist and, for the others, the directories MkdirAll will create,
// outermost first and ending with the path itself.
func (p *Provisioner) preflight(list []string) (map[string]bool, map[string][]string, error) {
	existing := make(map[string]bool, len(list))
	missing := make(map[string][]string, len(list))
	for _, path := range list {
		if path == "" || !filepath.IsAbs(path) {
			return nil, nil, &IOError{Path: path, Err: errors.New(messages.WorkspacePathNotAbsolute)}
		}
		clean := filepath.Clean(path)
		for dir := clean; ; dir = filepath.Dir(dir) {
			info, err := p.sys.Stat(dir)
			switch {
			case err == nil && !info.IsDir():
				return nil, nil, &IOError{Path: dir, Err: ErrNotDirectory}
			case err == nil:
				if dir == clean {
					existing[path] = true
				}
			case !errors.Is(err, os.ErrNotExist) && !errors.Is(err, syscall.ENOTDIR):
				return nil, nil, &IOError{Path: dir, Err: err}
			default:
				missing[path] = append([]string{dir}, missing[path]...)
			}
			if err == nil || dir == filepath.Dir(dir) {
				break
			}
		}
	}
	return existing, missing, nil
}

// ensureMode widens the directory mode when required bits are missing.
func (p *Provisioner) ensureMode(path string) (bool, error) {
	info, err := p.sys.Stat(path)
	if err != nil {
		return false, &IOError{Path: path, Err: err}
	}
	mode := info.Mode().Perm()
	if mode&requiredBits == requiredBits {
		return false, nil
	}
	if err := p.sys.Chmod(path, mode|requiredBits); err != nil {
		return false, &IOError{Path: path, Err: err}
	}
	p.log.Info("fixed directory permissions", zap.String("path", path), zap.Stringer("from", mode), zap.Stringer("to", mode|requiredBits))
	return true, nil
}

func (p *Provisioner) resolveOwner() (int, int, error) {
	if p.owner == "" {
		return -1, -1, nil
	}
	uid, gid, err := p.sys.LookupUser(p.owner)
	if err != nil {
		return -1, -1, fmt.Errorf(messages.WorkspaceLookupOwnerFmt, p.owner, err)
	}
	return uid, gid, nil
}

func (p *Provisioner) ensureOwner(path string, uid int, gid int) (bool, error) {
	curUID, curGID, err := p.sys.Owner(path)
	if err != nil {
		return false, &IOError{Path: path, Err: err}
	}
	if curUID == uid && curGID == gid {
		return false, nil
	}
	if err := p.sys.Chown(path, uid, gid); err != nil {
		return false, &IOError{Path: path, Err: err}
	}
	return true, nil
}
