//go:build unix

// Package runlock serializes installer runs with an advisory file lock.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/messages"
)

// FileName is the lock file created under the temp directory.
const FileName = "mcss.lock"

// ErrLocked reports that another installer run holds the lock.
var ErrLocked = errors.New(messages.RunlockHeld)

var flockFn = unix.Flock
var lockSleep = time.Sleep

const lockPollEvery = 100 * time.Millisecond

// Lock is a held run lock.
type Lock struct {
	path string
	file *os.File
}

// DefaultPath returns $TMPDIR/mcss.lock.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), FileName)
}

// AcquireWait takes the lock at path, polling until wait elapses.
// A zero wait fails on the first attempt.
func AcquireWait(path string, wait time.Duration) (*Lock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf(messages.RunlockOpenFmt, path, err)
	}
	if err := lockFile(file, wait); err != nil {
		_ = file.Close()
		if errors.Is(err, ErrLocked) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, fmt.Errorf(messages.RunlockLockFmt, path, err)
	}
	return &Lock{path: path, file: file}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks and closes the lock file. The file itself is left in place.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	file := l.file
	l.file = nil
	if err := flockFn(int(file.Fd()), unix.LOCK_UN); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func lockFile(file *os.File, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for {
		err := flockFn(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EAGAIN) {
			return err
		}
		if !time.Now().Before(deadline) {
			return ErrLocked
		}
		lockSleep(lockPollEvery)
	}
}
