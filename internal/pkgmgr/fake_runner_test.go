package pkgmgr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type exitError struct {
	code int
}

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func (e exitError) ExitCode() int { return e.code }

type response struct {
	out []byte
	err error
}

// fakeRunner records every command and answers from a table keyed by the full command line.
// Installing a package flips its dpkg/rpm query to "installed" so repeated runs see the new state.
type fakeRunner struct {
	paths     map[string]bool
	responses map[string]response
	installed map[string]bool
	calls     []string
	envs      [][]string
}

func newFakeRunner(paths ...string) *fakeRunner {
	f := &fakeRunner{
		paths:     map[string]bool{},
		responses: map[string]response{},
		installed: map[string]bool{},
	}
	for _, p := range paths {
		f.paths[p] = true
	}
	return f
}

func (f *fakeRunner) LookPath(file string) (string, error) {
	if f.paths[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("executable file not found in $PATH")
}

func (f *fakeRunner) Run(_ context.Context, env []string, name string, args ...string) ([]byte, error) {
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))
	f.calls = append(f.calls, line)
	f.envs = append(f.envs, env)
	if resp, ok := f.responses[line]; ok {
		return resp.out, resp.err
	}
	pkg := ""
	if len(args) > 0 {
		pkg = args[len(args)-1]
	}
	switch name {
	case "dpkg-query":
		if f.installed[pkg] {
			return []byte("install ok installed"), nil
		}
		return []byte("dpkg-query: no packages found matching " + pkg), exitError{code: 1}
	case "rpm":
		if f.installed[pkg] {
			return []byte(pkg + "-1.0-1.x86_64"), nil
		}
		return []byte("package " + pkg + " is not installed"), exitError{code: 1}
	case "apt-get", "dnf", "yum":
		if len(args) > 0 && args[0] == "install" {
			f.installed[pkg] = true
		}
		return nil, nil
	}
	return nil, fmt.Errorf("unexpected command %q", line)
}

func (f *fakeRunner) count(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeRunner) reset(t *testing.T) {
	t.Helper()
	f.calls = nil
	f.envs = nil
}
