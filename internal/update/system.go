package update

import (
	"context"
	"os"
	"os/exec"
	"syscall"
)

// System abstracts the OS operations the self-updater needs.
// Tests replace Exec so the test binary is not replaced, and CheckSyntax so
// verification does not depend on which shells the host carries.
type System interface {
	Environ() []string
	Exec(path string, args []string, env []string) error
	CheckSyntax(ctx context.Context, shell string, path string) error
}

// RealSystem implements System using the OS.
type RealSystem struct{}

// Environ returns a copy of strings representing the environment.
func (RealSystem) Environ() []string {
	return os.Environ()
}

// Exec replaces the current process with the binary at path.
func (RealSystem) Exec(path string, args []string, env []string) error {
	return syscall.Exec(path, args, env)
}

// CheckSyntax runs shell -n on path, which parses the script without executing it.
func (RealSystem) CheckSyntax(ctx context.Context, shell string, path string) error {
	out, err := exec.CommandContext(ctx, shell, "-n", path).CombinedOutput()
	if err != nil {
		if len(out) > 0 {
			return &syntaxError{output: string(out), err: err}
		}
		return err
	}
	return nil
}

type syntaxError struct {
	output string
	err    error
}

func (e *syntaxError) Error() string {
	return e.err.Error() + ": " + e.output
}

func (e *syntaxError) Unwrap() error {
	return e.err
}
