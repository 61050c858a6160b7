package install

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/config"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/pkgmgr"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/platform"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/update"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/workspace"
)

type fakeChecker struct {
	cmp   update.Comparison
	calls int
}

func (f *fakeChecker) Check(context.Context, string, string) update.Comparison {
	f.calls++
	return f.cmp
}

type fakeUpdater struct {
	updateErr   error
	previewErr  error
	restartErr  error
	updates     int
	previews    int
	restartArgs []string
}

func (f *fakeUpdater) Update(context.Context, string) error {
	f.updates++
	return f.updateErr
}

func (f *fakeUpdater) Preview(context.Context, string) (update.Preview, error) {
	f.previews++
	if f.previewErr != nil {
		return update.Preview{}, f.previewErr
	}
	return update.Preview{Target: "/opt/installer", UnifiedDiff: "+echo new\n"}, nil
}

func (f *fakeUpdater) Restart(args []string) error {
	f.restartArgs = args
	if f.restartErr != nil {
		return f.restartErr
	}
	return update.ErrRestarted
}

type fakeDetector struct {
	family platform.Family
}

func (f fakeDetector) Detect() platform.Family { return f.family }

func (f fakeDetector) Unknown() *platform.UnknownError {
	return &platform.UnknownError{Probed: []string{"apt-get", "rpm"}}
}

type fakeInstaller struct {
	err      error
	installs int
	plans    int
	packages []string
}

func (f *fakeInstaller) Install(_ context.Context, _ platform.Family, packages []string) ([]pkgmgr.PackageResult, error) {
	f.installs++
	f.packages = packages
	if f.err != nil {
		return nil, f.err
	}
	results := make([]pkgmgr.PackageResult, 0, len(packages))
	for _, pkg := range packages {
		results = append(results, pkgmgr.PackageResult{Package: pkg, Action: pkgmgr.ActionInstalled})
	}
	return results, nil
}

func (f *fakeInstaller) Plan(_ context.Context, _ platform.Family, packages []string) ([]pkgmgr.PackageResult, error) {
	f.plans++
	f.packages = packages
	results := make([]pkgmgr.PackageResult, 0, len(packages))
	for _, pkg := range packages {
		results = append(results, pkgmgr.PackageResult{Package: pkg, Action: pkgmgr.ActionWouldInstall})
	}
	return results, nil
}

type fakeProvisioner struct {
	err        error
	provisions int
	plans      int
}

func (f *fakeProvisioner) Provision(paths workspace.Paths) ([]workspace.DirResult, error) {
	f.provisions++
	if f.err != nil {
		return nil, f.err
	}
	var results []workspace.DirResult
	for _, path := range paths.List() {
		results = append(results, workspace.DirResult{Path: path, Action: workspace.ActionCreated})
	}
	return results, nil
}

func (f *fakeProvisioner) Plan(paths workspace.Paths) ([]workspace.DirResult, error) {
	f.plans++
	var results []workspace.DirResult
	for _, path := range paths.List() {
		results = append(results, workspace.DirResult{Path: path, Action: workspace.ActionWouldCreate})
	}
	return results, nil
}

type fixture struct {
	checker     *fakeChecker
	updater     *fakeUpdater
	installer   *fakeInstaller
	provisioner *fakeProvisioner
	opts        Options
}

func newFixture(t *testing.T, status update.Status) *fixture {
	t.Helper()
	root := t.TempDir()
	cfg := config.Defaults()
	cfg.BaseTemp = filepath.Join(root, "tmp")
	cfg.BaseLogs = filepath.Join(root, "log")
	cfg.BaseProgramFiles = filepath.Join(root, "opt")
	cfg.ScriptPath = filepath.Join(root, "installer")

	f := &fixture{
		checker:     &fakeChecker{cmp: update.Comparison{Status: status, Local: "1.0.0", Remote: "1.0.0"}},
		updater:     &fakeUpdater{},
		installer:   &fakeInstaller{},
		provisioner: &fakeProvisioner{},
	}
	if status == update.StatusUpdateAvailable {
		f.checker.cmp.Remote = "2.0.0"
	}
	if status == update.StatusCheckFailed {
		f.checker.cmp.Remote = ""
		f.checker.cmp.Reason = errors.New("fetch version: connection refused")
	}
	f.opts = Options{
		Config:       cfg,
		LocalVersion: "1.0.0",
		Args:         []string{"mcss", "--strict-update"},
		Checker:      f.checker,
		Updater:      f.updater,
		Detector:     fakeDetector{family: platform.Debian},
		Installer:    f.installer,
		Provisioner:  f.provisioner,
	}
	return f
}

func nopLogger() *zap.Logger { return zap.NewNop() }
