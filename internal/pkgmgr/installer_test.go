package pkgmgr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/platform"
)

var debianPackages = []string{"jq", "screen", "openjdk-17-jdk"}

func TestInstallDebianIsIdempotent(t *testing.T) {
	runner := newFakeRunner("apt-get", "dpkg-query")
	runner.installed["jq"] = true
	inst := NewInstaller(runner, nil)

	results, err := inst.Install(context.Background(), platform.Debian, debianPackages)
	require.NoError(t, err)
	assert.Equal(t, []PackageResult{
		{Package: "jq", Action: ActionPresent},
		{Package: "screen", Action: ActionInstalled},
		{Package: "openjdk-17-jdk", Action: ActionInstalled},
	}, results)
	assert.Equal(t, 1, runner.count("apt-get update"))
	assert.Equal(t, 2, runner.count("apt-get install"))

	runner.reset(t)
	results, err = inst.Install(context.Background(), platform.Debian, debianPackages)
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, ActionPresent, r.Action, r.Package)
	}
	assert.Zero(t, runner.count("apt-get"), "second run must not invoke apt-get")
}

func TestInstallFreshInstallerOnProvisionedHostSkipsRefresh(t *testing.T) {
	runner := newFakeRunner("apt-get", "dpkg-query")
	for _, pkg := range debianPackages {
		runner.installed[pkg] = true
	}

	_, err := NewInstaller(runner, nil).Install(context.Background(), platform.Debian, debianPackages)
	require.NoError(t, err)
	assert.Zero(t, runner.count("apt-get"))
}

func TestInstallSetsNoninteractiveFrontend(t *testing.T) {
	runner := newFakeRunner("apt-get", "dpkg-query")
	_, err := NewInstaller(runner, nil).Install(context.Background(), platform.Debian, []string{"jq"})
	require.NoError(t, err)
	for i, call := range runner.calls {
		if call == "apt-get install -y jq" {
			assert.Contains(t, runner.envs[i], "DEBIAN_FRONTEND=noninteractive")
			return
		}
	}
	t.Fatalf("apt-get install not called: %v", runner.calls)
}

func TestInstallFailsFastAndReportsPackage(t *testing.T) {
	runner := newFakeRunner("apt-get", "dpkg-query")
	runner.responses["apt-get install -y screen"] = response{
		out: []byte("E: Unable to locate package screen"),
		err: exitError{code: 100},
	}

	results, err := NewInstaller(runner, nil).Install(context.Background(), platform.Debian, debianPackages)
	require.Error(t, err)

	var installErr *InstallError
	require.True(t, errors.As(err, &installErr))
	assert.Equal(t, "screen", installErr.Package)
	assert.Contains(t, err.Error(), "Unable to locate package")

	assert.Equal(t, []PackageResult{{Package: "jq", Action: ActionInstalled}}, results)
	assert.True(t, runner.installed["jq"], "earlier packages are not rolled back")
	assert.Zero(t, runner.count("dpkg-query -W -f=${Status} openjdk-17-jdk"))
}

func TestInstallRefreshFailureIsInstallError(t *testing.T) {
	runner := newFakeRunner("apt-get", "dpkg-query")
	runner.responses["apt-get update"] = response{err: exitError{code: 100}}

	_, err := NewInstaller(runner, nil).Install(context.Background(), platform.Debian, []string{"jq"})
	var installErr *InstallError
	require.True(t, errors.As(err, &installErr))
	assert.Equal(t, "jq", installErr.Package)
	assert.Zero(t, runner.count("apt-get install"))
}

func TestInstallQueryStartFailureIsError(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["dpkg-query -W -f=${Status} jq"] = response{err: errors.New("exec: dpkg-query: not found")}

	_, err := NewInstaller(runner, nil).Install(context.Background(), platform.Debian, []string{"jq"})
	var installErr *InstallError
	require.True(t, errors.As(err, &installErr))
	assert.Equal(t, "jq", installErr.Package)
}

func TestInstallRedHatPrefersDNF(t *testing.T) {
	runner := newFakeRunner("rpm", "dnf", "yum")
	results, err := NewInstaller(runner, nil).Install(context.Background(), platform.RedHat, []string{"jq", "epel-release"})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 2, runner.count("dnf install -y"))
	assert.Zero(t, runner.count("yum"))
}

func TestInstallRedHatFallsBackToYum(t *testing.T) {
	runner := newFakeRunner("rpm", "yum")
	_, err := NewInstaller(runner, nil).Install(context.Background(), platform.RedHat, []string{"screen"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rpm -q screen", "yum install -y screen"}, runner.calls)
}

func TestInstallRedHatWithoutFrontend(t *testing.T) {
	runner := newFakeRunner("rpm")
	_, err := NewInstaller(runner, nil).Install(context.Background(), platform.RedHat, []string{"screen"})
	var installErr *InstallError
	require.True(t, errors.As(err, &installErr))
	assert.Equal(t, "screen", installErr.Package)
}

func TestInstallRejectsUnknownFamilyAndEmptyNames(t *testing.T) {
	runner := newFakeRunner()
	inst := NewInstaller(runner, nil)

	_, err := inst.Install(context.Background(), platform.Unknown, debianPackages)
	assert.Error(t, err)

	_, err = inst.Install(context.Background(), platform.Debian, []string{"jq", " "})
	assert.Error(t, err)
	assert.Empty(t, runner.calls, "validation happens before any command")
}

func TestPlanDoesNotInstall(t *testing.T) {
	runner := newFakeRunner("apt-get", "dpkg-query")
	runner.installed["screen"] = true

	results, err := NewInstaller(runner, nil).Plan(context.Background(), platform.Debian, debianPackages)
	require.NoError(t, err)
	assert.Equal(t, []PackageResult{
		{Package: "jq", Action: ActionWouldInstall},
		{Package: "screen", Action: ActionPresent},
		{Package: "openjdk-17-jdk", Action: ActionWouldInstall},
	}, results)
	assert.Zero(t, runner.count("apt-get"))
}
