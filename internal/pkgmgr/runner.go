// Package pkgmgr installs declared dependencies through the host's package manager.
package pkgmgr

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
)

// Runner abstracts external command execution for package managers.
// Tests substitute a fake so no real package manager is invoked.
type Runner interface {
	LookPath(file string) (string, error)
	// Run executes name with args; env entries are appended to the process environment.
	// It returns combined stdout and stderr.
	Run(ctx context.Context, env []string, name string, args ...string) ([]byte, error)
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct{}

// LookPath searches PATH for file.
func (ExecRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run executes the command and returns its combined output.
func (ExecRunner) Run(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	return cmd.CombinedOutput()
}

// exitCoder matches *exec.ExitError and test doubles reporting a process exit status.
type exitCoder interface {
	ExitCode() int
}

// exitedNonZero reports whether err is a completed command with a non-zero status,
// as opposed to a failure to start it at all.
func exitedNonZero(err error) bool {
	var ec exitCoder
	return errors.As(err, &ec) && ec.ExitCode() > 0
}

// outputTail keeps the last lines of command output for error messages.
func outputTail(out []byte) string {
	const maxLines = 5
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.Join(lines, "\n")
}
