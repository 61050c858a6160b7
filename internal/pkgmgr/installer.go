package pkgmgr

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/messages"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/platform"
)

// Action describes what happened to a package during a run.
type Action string

// Package actions.
const (
	ActionPresent      Action = "present"
	ActionInstalled    Action = "installed"
	ActionWouldInstall Action = "would-install"
)

// PackageResult is the outcome for one package.
type PackageResult struct {
	Package string
	Action  Action
}

// InstallError reports the package whose installation failed.
type InstallError struct {
	Package string
	Err     error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf(messages.PkgmgrInstallFailedFmt, e.Package, e.Err)
}

// Unwrap returns the underlying package-manager error.
func (e *InstallError) Unwrap() error {
	return e.Err
}

// Installer ensures a package set is present using the family's manager.
type Installer struct {
	managers  map[platform.Family]PackageManager
	refreshed map[platform.Family]bool
	log       *zap.Logger
}

// NewInstaller returns an Installer with apt and rpm managers driven by runner.
func NewInstaller(runner Runner, log *zap.Logger) *Installer {
	if runner == nil {
		runner = ExecRunner{}
	}
	return NewInstallerWithManagers(map[platform.Family]PackageManager{
		platform.Debian: NewAPT(runner),
		platform.RedHat: NewRPM(runner),
	}, log)
}

// NewInstallerWithManagers returns an Installer with explicit per-family managers.
func NewInstallerWithManagers(managers map[platform.Family]PackageManager, log *zap.Logger) *Installer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Installer{
		managers:  managers,
		refreshed: make(map[platform.Family]bool),
		log:       log,
	}
}

// Install installs every missing package in order and stops at the first failure.
// Results for packages handled before the failure are returned with the error;
// nothing is rolled back.
func (i *Installer) Install(ctx context.Context, family platform.Family, packages []string) ([]PackageResult, error) {
	mgr, err := i.manager(family, packages)
	if err != nil {
		return nil, err
	}
	results := make([]PackageResult, 0, len(packages))
	for _, pkg := range packages {
		installed, err := mgr.IsInstalled(ctx, pkg)
		if err != nil {
			return results, &InstallError{Package: pkg, Err: err}
		}
		if installed {
			i.log.Debug("package already present", zap.String("package", pkg), zap.String("manager", mgr.Name()))
			results = append(results, PackageResult{Package: pkg, Action: ActionPresent})
			continue
		}
		if err := i.refreshOnce(ctx, family, mgr); err != nil {
			return results, &InstallError{Package: pkg, Err: err}
		}
		i.log.Info("installing package", zap.String("package", pkg), zap.String("manager", mgr.Name()))
		if err := mgr.Install(ctx, pkg); err != nil {
			return results, &InstallError{Package: pkg, Err: err}
		}
		results = append(results, PackageResult{Package: pkg, Action: ActionInstalled})
	}
	return results, nil
}

// Plan reports which packages Install would install without installing anything.
func (i *Installer) Plan(ctx context.Context, family platform.Family, packages []string) ([]PackageResult, error) {
	mgr, err := i.manager(family, packages)
	if err != nil {
		return nil, err
	}
	results := make([]PackageResult, 0, len(packages))
	for _, pkg := range packages {
		installed, err := mgr.IsInstalled(ctx, pkg)
		if err != nil {
			return results, &InstallError{Package: pkg, Err: err}
		}
		action := ActionWouldInstall
		if installed {
			action = ActionPresent
		}
		results = append(results, PackageResult{Package: pkg, Action: action})
	}
	return results, nil
}

func (i *Installer) manager(family platform.Family, packages []string) (PackageManager, error) {
	mgr, ok := i.managers[family]
	if !ok || mgr == nil {
		return nil, fmt.Errorf(messages.PkgmgrUnsupportedFamilyFmt, family)
	}
	for idx, pkg := range packages {
		if strings.TrimSpace(pkg) == "" {
			return nil, fmt.Errorf(messages.PkgmgrEmptyPackageFmt, idx)
		}
	}
	return mgr, nil
}

func (i *Installer) refreshOnce(ctx context.Context, family platform.Family, mgr PackageManager) error {
	refresher, ok := mgr.(Refresher)
	if !ok || i.refreshed[family] {
		return nil
	}
	i.log.Info("refreshing package index", zap.String("manager", mgr.Name()))
	if err := refresher.Refresh(ctx); err != nil {
		return err
	}
	i.refreshed[family] = true
	return nil
}
