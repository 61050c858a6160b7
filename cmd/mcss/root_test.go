package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/config"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/install"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/pkgmgr"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/platform"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/runlock"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/terminal"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/update"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/workspace"
)

type cliHarness struct {
	env      map[string]string
	captured install.Options
	calls    int
	report   install.Report
	err      error
	lockFile string
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	h := &cliHarness{
		env:      map[string]string{},
		lockFile: filepath.Join(t.TempDir(), runlock.FileName),
	}

	origRun, origLookup, origLock := installRun, lookupEnv, lockPath
	origExe, origBuild, origRunID := resolveExecutable, buildComponents, newRunID
	origDefault, origWidth := defaultConfigPath, terminalWidth
	t.Cleanup(func() {
		installRun, lookupEnv, lockPath = origRun, origLookup, origLock
		resolveExecutable, buildComponents, newRunID = origExe, origBuild, origRunID
		defaultConfigPath, terminalWidth = origDefault, origWidth
	})

	installRun = func(_ context.Context, opts install.Options) (install.Report, error) {
		h.calls++
		h.captured = opts
		return h.report, h.err
	}
	lookupEnv = func(key string) (string, bool) {
		value, ok := h.env[key]
		return value, ok
	}
	lockPath = func() string { return h.lockFile }
	resolveExecutable = func() (string, error) { return "/usr/local/bin/mcss", nil }
	buildComponents = func(config.InstallConfig, *zap.Logger, *install.Options) {}
	newRunID = func() string { return "run-test" }
	defaultConfigPath = filepath.Join(t.TempDir(), "absent.toml")
	terminalWidth = func(terminal.File) int { return 80 }
	return h
}

func (h *cliHarness) run(args ...string) (string, string, int) {
	var stdout, stderr bytes.Buffer
	code := 0
	runMain(append([]string{"mcss"}, args...), &stdout, &stderr, func(c int) { code = c })
	return stdout.String(), stderr.String(), code
}

func successReport() install.Report {
	return install.Report{
		Stage:  install.StageDone,
		Family: platform.Debian,
		Packages: []pkgmgr.PackageResult{
			{Package: "jq", Action: pkgmgr.ActionPresent},
			{Package: "screen", Action: pkgmgr.ActionInstalled},
		},
		Dirs: []workspace.DirResult{
			{Path: "/tmp/mitchellvanbijleveld/Minecraft-Server", Action: workspace.ActionCreated},
			{Path: "/opt/mitchellvanbijleveld/Minecraft-Server", Action: workspace.ActionExists},
		},
	}
}

func TestRootPassesFlagsToRun(t *testing.T) {
	h := newCLIHarness(t)
	h.report = successReport()

	stdout, _, code := h.run("--skip-update", "--strict-update")
	require.Equal(t, 0, code)
	require.Equal(t, 1, h.calls)
	assert.True(t, h.captured.SkipUpdate)
	assert.True(t, h.captured.StrictUpdate)
	assert.False(t, h.captured.DryRun)
	assert.False(t, h.captured.Restarted)
	assert.Equal(t, Version, h.captured.LocalVersion)
	assert.Equal(t, "run-test", h.captured.RunID)
	assert.Equal(t, []string{"mcss", "--skip-update", "--strict-update"}, h.captured.Args)
	assert.Equal(t, "/usr/local/bin/mcss", h.captured.Config.ScriptPath)

	assert.Contains(t, stdout, "screen")
	assert.NotContains(t, stdout, "jq")
	assert.Contains(t, stdout, "/tmp/mitchellvanbijleveld/Minecraft-Server")
	assert.Contains(t, stdout, strings.Repeat("-", 48))
}

func TestRootDryRunSummary(t *testing.T) {
	h := newCLIHarness(t)
	h.report = install.Report{
		Stage:  install.StageDone,
		DryRun: true,
		Family: platform.RedHat,
		Preview: &update.Preview{
			Target:      "/usr/local/bin/mcss",
			UnifiedDiff: "+echo new\n",
		},
	}

	stdout, _, code := h.run("--dry-run")
	require.Equal(t, 0, code)
	assert.True(t, h.captured.DryRun)
	assert.Contains(t, stdout, "Dry run")
	assert.Contains(t, stdout, "redhat")
	assert.Contains(t, stdout, "+echo new")
	_, err := os.Stat(h.lockFile)
	assert.True(t, os.IsNotExist(err), "dry run must not create the lock file")
}

func TestRootRestartedEnv(t *testing.T) {
	h := newCLIHarness(t)
	h.env[update.EnvRestarted] = "1"
	h.report = successReport()

	_, _, code := h.run()
	require.Equal(t, 0, code)
	assert.True(t, h.captured.Restarted)
}

func TestRootRestartPrintsNoSummary(t *testing.T) {
	h := newCLIHarness(t)
	h.report = install.Report{Stage: install.StageRestart, Restart: true}

	stdout, _, code := h.run()
	require.Equal(t, 0, code)
	assert.Empty(t, stdout)
}

func TestRootStageFailureExitCodes(t *testing.T) {
	tests := []struct {
		stage install.Stage
		err   error
		want  int
	}{
		{install.StageDetectingPlatform, &platform.UnknownError{Probed: []string{"apt-get"}}, 1},
		{install.StageInstallingDependencies, &pkgmgr.InstallError{Package: "jq", Err: errors.New("exit status 100")}, 2},
		{install.StageProvisioningWorkspace, &workspace.IOError{Path: "/opt/x", Err: workspace.ErrNotDirectory}, 3},
		{install.StageSelfUpdating, &update.UpdateError{Reason: "download failed"}, 4},
	}
	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			h := newCLIHarness(t)
			h.err = &install.StageError{Stage: tt.stage, Err: tt.err}

			stdout, stderr, code := h.run()
			assert.Equal(t, tt.want, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, string(tt.stage))
			assert.Contains(t, stderr, tt.err.Error())
		})
	}
}

func TestRootConfigFile(t *testing.T) {
	h := newCLIHarness(t)
	h.report = successReport()
	path := filepath.Join(t.TempDir(), "installer.toml")
	require.NoError(t, os.WriteFile(path, []byte("service_user = \"minecraft\"\n"), 0o644))

	_, _, code := h.run("--config", path)
	require.Equal(t, 0, code)
	assert.Equal(t, "minecraft", h.captured.Config.ServiceUser)
}

func TestRootMissingExplicitConfig(t *testing.T) {
	h := newCLIHarness(t)

	_, stderr, code := h.run("--config", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Equal(t, 5, code)
	assert.Contains(t, stderr, "missing.toml")
	assert.Equal(t, 0, h.calls)
}

func TestRootInvalidConfigValue(t *testing.T) {
	h := newCLIHarness(t)
	h.env[config.EnvBaseTemp] = "relative/path"

	_, stderr, code := h.run()
	assert.Equal(t, 5, code)
	assert.Contains(t, stderr, "base_temp")
	assert.Equal(t, 0, h.calls)
}

func TestRootEnvFile(t *testing.T) {
	h := newCLIHarness(t)
	h.report = successReport()
	path := filepath.Join(t.TempDir(), "installer.env")
	require.NoError(t, os.WriteFile(path, []byte("MCSS_APP_DIR=Paper-Server\n"), 0o644))

	_, _, code := h.run("--env-file", path)
	require.Equal(t, 0, code)
	assert.Equal(t, "Paper-Server", h.captured.Config.AppDir)
}

func TestRootInvalidLogLevel(t *testing.T) {
	h := newCLIHarness(t)

	_, stderr, code := h.run("--log-level", "chatty")
	assert.Equal(t, 5, code)
	assert.Contains(t, stderr, "chatty")
	assert.Equal(t, 0, h.calls)
}

func TestRootLockHeld(t *testing.T) {
	h := newCLIHarness(t)
	held, err := runlock.AcquireWait(h.lockFile, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = held.Release() })

	_, stderr, code := h.run()
	assert.Equal(t, 5, code)
	assert.Contains(t, stderr, "another installer run")
	assert.Equal(t, 0, h.calls)
}

func TestRootLockWaitGivesUp(t *testing.T) {
	h := newCLIHarness(t)
	held, err := runlock.AcquireWait(h.lockFile, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = held.Release() })

	_, stderr, code := h.run("--lock-wait", "20ms")
	assert.Equal(t, 5, code)
	assert.Contains(t, stderr, "another installer run")
	assert.Equal(t, 0, h.calls)
}

func TestRootReleasesLockAfterRun(t *testing.T) {
	h := newCLIHarness(t)
	h.report = successReport()

	_, _, code := h.run()
	require.Equal(t, 0, code)
	lock, err := runlock.AcquireWait(h.lockFile, 0)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

func TestBuildComponentsWiresRealTypes(t *testing.T) {
	cfg := config.Defaults()
	cfg.ScriptPath = "/usr/local/bin/mcss"
	var opts install.Options
	buildComponents(cfg, zap.NewNop(), &opts)

	assert.IsType(t, &update.Checker{}, opts.Checker)
	assert.IsType(t, &update.Updater{}, opts.Updater)
	assert.IsType(t, &platform.Detector{}, opts.Detector)
	assert.IsType(t, &pkgmgr.Installer{}, opts.Installer)
	assert.IsType(t, &workspace.Provisioner{}, opts.Provisioner)
}
