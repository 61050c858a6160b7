package pkgmgr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/messages"
)

// PackageManager is the capability the installer needs from a packaging family.
type PackageManager interface {
	Name() string
	IsInstalled(ctx context.Context, pkg string) (bool, error)
	Install(ctx context.Context, pkg string) error
}

// Refresher is implemented by managers that must refresh their index before installing.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// APT manages packages on Debian-family hosts.
type APT struct {
	runner Runner
}

// NewAPT returns an APT manager backed by runner.
func NewAPT(runner Runner) *APT {
	return &APT{runner: runner}
}

var aptEnv = []string{"DEBIAN_FRONTEND=noninteractive"}

// Name returns "apt".
func (a *APT) Name() string { return "apt" }

// IsInstalled queries dpkg for the package status.
func (a *APT) IsInstalled(ctx context.Context, pkg string) (bool, error) {
	out, err := a.runner.Run(ctx, nil, "dpkg-query", "-W", "-f=${Status}", pkg)
	if err != nil {
		if exitedNonZero(err) {
			return false, nil
		}
		return false, commandError("dpkg-query", err, out)
	}
	return strings.Contains(string(out), "install ok installed"), nil
}

// Install installs pkg non-interactively.
func (a *APT) Install(ctx context.Context, pkg string) error {
	out, err := a.runner.Run(ctx, aptEnv, "apt-get", "install", "-y", pkg)
	if err != nil {
		return commandError("apt-get install", err, out)
	}
	return nil
}

// Refresh updates the apt package index.
func (a *APT) Refresh(ctx context.Context) error {
	out, err := a.runner.Run(ctx, aptEnv, "apt-get", "update")
	if err != nil {
		return commandError("apt-get update", err, out)
	}
	return nil
}

// RPM manages packages on RedHat-family hosts using dnf, or yum where dnf is absent.
type RPM struct {
	runner   Runner
	frontend string
}

// NewRPM returns an RPM manager backed by runner.
func NewRPM(runner Runner) *RPM {
	return &RPM{runner: runner}
}

// Name returns "rpm".
func (r *RPM) Name() string { return "rpm" }

// IsInstalled asks rpm whether pkg is installed.
func (r *RPM) IsInstalled(ctx context.Context, pkg string) (bool, error) {
	out, err := r.runner.Run(ctx, nil, "rpm", "-q", pkg)
	if err != nil {
		if exitedNonZero(err) {
			return false, nil
		}
		return false, commandError("rpm -q", err, out)
	}
	return true, nil
}

// Install installs pkg with the resolved frontend.
func (r *RPM) Install(ctx context.Context, pkg string) error {
	frontend, err := r.resolveFrontend()
	if err != nil {
		return err
	}
	out, err := r.runner.Run(ctx, nil, frontend, "install", "-y", pkg)
	if err != nil {
		return commandError(frontend+" install", err, out)
	}
	return nil
}

func (r *RPM) resolveFrontend() (string, error) {
	if r.frontend != "" {
		return r.frontend, nil
	}
	for _, candidate := range []string{"dnf", "yum"} {
		if _, err := r.runner.LookPath(candidate); err == nil {
			r.frontend = candidate
			return candidate, nil
		}
	}
	return "", errors.New(messages.PkgmgrNoRPMFrontend)
}

func commandError(command string, err error, out []byte) error {
	tail := outputTail(out)
	if tail == "" {
		return fmt.Errorf(messages.PkgmgrCommandFailedFmt, command, err)
	}
	return fmt.Errorf(messages.PkgmgrCommandFailedOutputFmt, command, err, tail)
}
