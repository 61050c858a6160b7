// Package install sequences one installer run: version check, optional
// self-update, platform detection, dependency install and workspace provisioning.
package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/config"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/logging"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/messages"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/pkgmgr"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/platform"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/update"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/updatewarn"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/workspace"
)

// VersionChecker compares the local version marker against the remote one.
type VersionChecker interface {
	Check(ctx context.Context, remoteURL string, localVersion string) update.Comparison
}

// SelfUpdater replaces and re-executes the installed installer.
type SelfUpdater interface {
	Update(ctx context.Context, remoteURL string) error
	Preview(ctx context.Context, remoteURL string) (update.Preview, error)
	Restart(args []string) error
}

// PlatformDetector identifies the host packaging family.
type PlatformDetector interface {
	Detect() platform.Family
	Unknown() *platform.UnknownError
}

// DependencyInstaller ensures packages are present.
type DependencyInstaller interface {
	Install(ctx context.Context, family platform.Family, packages []string) ([]pkgmgr.PackageResult, error)
	Plan(ctx context.Context, family platform.Family, packages []string) ([]pkgmgr.PackageResult, error)
}

// WorkspaceProvisioner ensures the workspace directories exist.
type WorkspaceProvisioner interface {
	Provision(paths workspace.Paths) ([]workspace.DirResult, error)
	Plan(paths workspace.Paths) ([]workspace.DirResult, error)
}

// Options controls a run.
type Options struct {
	Config       config.InstallConfig
	LocalVersion string
	// Args is the argv used to re-execute after a self-update.
	Args []string

	SkipUpdate   bool
	DryRun       bool
	StrictUpdate bool
	// Restarted is set when this process was started by a self-update restart.
	Restarted bool
	// PersistLog tees the run log into the logs directory. Entries are held in
	// memory until the directory exists, so the file also covers earlier stages.
	PersistLog bool

	Checker     VersionChecker
	Updater     SelfUpdater
	Detector    PlatformDetector
	Installer   DependencyInstaller
	Provisioner WorkspaceProvisioner

	// RunID tags every log entry of the run.
	RunID      string
	Log        *zap.Logger
	WarnWriter io.Writer
}

type runner struct {
	opts    Options
	log     *zap.Logger
	warn    io.Writer
	report  Report
	sink    *logging.FileSink
	closers []func() error
}

// Run executes one installer run.
// The returned Report is populated as far as the run got; failures are *StageError.
func Run(ctx context.Context, opts Options) (Report, error) {
	if err := validateOptions(opts); err != nil {
		return Report{}, err
	}
	r := &runner{
		opts: opts,
		log:  opts.Log,
		warn: opts.WarnWriter,
		report: Report{
			Stage:  StageStart,
			Stages: []Stage{StageStart},
			DryRun: opts.DryRun,
		},
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	r.log = logging.WithRunID(r.log, opts.RunID)
	if r.warn == nil {
		r.warn = io.Discard
	}
	defer r.close()
	if opts.PersistLog && !opts.DryRun {
		r.startLog()
	}

	steps := []func(context.Context) (bool, error){
		r.checkVersion,
		r.detectPlatform,
		r.installDependencies,
		r.provisionWorkspace,
	}
	for _, step := range steps {
		stop, err := step(ctx)
		if err != nil {
			return r.report, err
		}
		if stop {
			return r.report, nil
		}
	}
	if err := r.transition(StageDone); err != nil {
		return r.report, err
	}
	r.log.Info("install complete",
		zap.Bool("dry_run", opts.DryRun),
		zap.Strings("packages_installed", r.report.InstalledPackages()),
		zap.Strings("dirs_created", r.report.CreatedDirs()),
	)
	return r.report, nil
}

func validateOptions(opts Options) error {
	updates := !opts.SkipUpdate && !opts.Restarted
	checks := []struct {
		name string
		ok   bool
	}{
		{"version checker", opts.Checker != nil || !updates},
		{"self updater", opts.Updater != nil || !updates},
		{"platform detector", opts.Detector != nil},
		{"dependency installer", opts.Installer != nil},
		{"workspace provisioner", opts.Provisioner != nil},
	}
	for _, check := range checks {
		if !check.ok {
			return fmt.Errorf(messages.InstallComponentRequiredFmt, check.name)
		}
	}
	return nil
}

// transition moves the run to the next stage, rejecting illegal edges.
func (r *runner) transition(to Stage) error {
	from := r.report.Stage
	if !isAllowedTransition(from, to) {
		return fmt.Errorf(messages.InstallIllegalTransitionFmt, from, to)
	}
	r.report.Stage = to
	r.report.Stages = append(r.report.Stages, to)
	r.log.Debug("stage", zap.String("from", string(from)), zap.String("to", string(to)))
	return nil
}

// fail records err against the current stage and moves to StageFailed.
// A cancelled ctx is wrapped into err so callers can tell an interrupt apart.
func (r *runner) fail(ctx context.Context, err error) error {
	if cause := ctx.Err(); cause != nil && !errors.Is(err, cause) {
		err = fmt.Errorf("%w: %w", cause, err)
	}
	stage := r.report.Stage
	stageErr := &StageError{Stage: stage, Err: err}
	if tErr := r.transition(StageFailed); tErr != nil {
		return errors.Join(stageErr, tErr)
	}
	r.log.Error("stage failed", zap.String("stage", string(stage)), zap.Error(err))
	return stageErr
}

func (r *runner) enter(ctx context.Context, stage Stage) error {
	if err := r.transition(stage); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return r.fail(ctx, err)
	}
	return nil
}

func (r *runner) checkVersion(ctx context.Context) (bool, error) {
	if r.opts.SkipUpdate || r.opts.Restarted {
		r.log.Info("skipping update check", zap.Bool("restarted", r.opts.Restarted))
		return false, nil
	}
	if err := r.enter(ctx, StageCheckingVersion); err != nil {
		return false, err
	}
	cmp := r.opts.Checker.Check(ctx, r.opts.Config.VersionURL, r.opts.LocalVersion)
	r.report.Comparison = &cmp
	if err := ctx.Err(); err != nil {
		return false, r.fail(ctx, err)
	}
	r.log.Info("version check",
		zap.String("status", cmp.Status.String()),
		zap.String("local", cmp.Local),
		zap.String("remote", cmp.Remote),
	)
	updatewarn.WarnComparison(r.warn, cmp)
	if cmp.Status != update.StatusUpdateAvailable {
		return false, nil
	}
	return r.selfUpdate(ctx)
}

func (r *runner) selfUpdate(ctx context.Context) (bool, error) {
	if err := r.enter(ctx, StageSelfUpdating); err != nil {
		return false, err
	}
	url := r.opts.Config.ScriptURL

	if r.opts.DryRun {
		preview, err := r.opts.Updater.Preview(ctx, url)
		if err != nil {
			if r.opts.StrictUpdate || ctx.Err() != nil {
				return false, r.fail(ctx, err)
			}
			updatewarn.Warnf(r.warn, messages.WarnUpdateFailedFmt, err)
			return false, nil
		}
		r.report.Preview = &preview
		return false, nil
	}

	if err := r.opts.Updater.Update(ctx, url); err != nil {
		if r.opts.StrictUpdate || ctx.Err() != nil {
			return false, r.fail(ctx, err)
		}
		r.log.Warn("self-update failed; continuing with installed version", zap.Error(err))
		updatewarn.Warnf(r.warn, messages.WarnUpdateFailedFmt, err)
		return false, nil
	}
	r.report.Updated = true

	if err := r.opts.Updater.Restart(r.opts.Args); err != nil && !errors.Is(err, update.ErrRestarted) {
		return false, r.fail(ctx, err)
	}
	if err := r.transition(StageRestart); err != nil {
		return false, err
	}
	r.report.Restart = true
	return true, nil
}

func (r *runner) detectPlatform(ctx context.Context) (bool, error) {
	if err := r.enter(ctx, StageDetectingPlatform); err != nil {
		return false, err
	}
	family := r.opts.Detector.Detect()
	r.report.Family = family
	if family == platform.Unknown {
		return false, r.fail(ctx, r.opts.Detector.Unknown())
	}
	r.log.Info("detected platform", zap.String("family", family.String()))
	return false, nil
}

func (r *runner) installDependencies(ctx context.Context) (bool, error) {
	if err := r.enter(ctx, StageInstallingDependencies); err != nil {
		return false, err
	}
	packages := r.opts.Config.PackagesFor(r.report.Family)
	var (
		results []pkgmgr.PackageResult
		err     error
	)
	if r.opts.DryRun {
		results, err = r.opts.Installer.Plan(ctx, r.report.Family, packages)
	} else {
		results, err = r.opts.Installer.Install(ctx, r.report.Family, packages)
	}
	r.report.Packages = results
	if err != nil {
		return false, r.fail(ctx, err)
	}
	return false, nil
}

func (r *runner) provisionWorkspace(ctx context.Context) (bool, error) {
	if err := r.enter(ctx, StageProvisioningWorkspace); err != nil {
		return false, err
	}
	paths := r.opts.Config.WorkspacePaths()
	var (
		results []workspace.DirResult
		err     error
	)
	if r.opts.DryRun {
		results, err = r.opts.Provisioner.Plan(paths)
	} else {
		results, err = r.opts.Provisioner.Provision(paths)
	}
	r.report.Dirs = results
	if err != nil {
		return false, r.fail(ctx, err)
	}
	if r.sink != nil {
		r.openLog(true)
	}
	return false, nil
}

// startLog tees the run logger into a sink for installer.log and opens the
// file right away when the logs directory is already there.
func (r *runner) startLog() {
	var fields []zap.Field
	if r.opts.RunID != "" {
		fields = append(fields, zap.String("run_id", r.opts.RunID))
	}
	r.log, r.sink = logging.WithSink(r.log, fields...)
	r.closers = append(r.closers, r.sink.Close)
	r.openLog(false)
}

// openLog attaches installer.log to the sink. Failure is only a warning;
// a missing logs directory is expected before provisioning.
func (r *runner) openLog(provisioned bool) {
	if r.sink.IsOpen() {
		return
	}
	path := filepath.Join(r.opts.Config.WorkspacePaths().Logs, logging.FileName)
	err := r.sink.Open(path)
	if err == nil {
		r.log.Debug("writing run log", zap.String("path", path))
		return
	}
	if !provisioned && errors.Is(err, os.ErrNotExist) {
		return
	}
	updatewarn.Warnf(r.warn, messages.WarnLogFileFmt, err)
}

func (r *runner) close() {
	for _, closeFn := range r.closers {
		_ = closeFn()
	}
	r.closers = nil
}
