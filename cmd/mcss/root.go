package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/config"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/install"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/logging"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/messages"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/pkgmgr"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/platform"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/runlock"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/update"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/workspace"
)

var installRun = install.Run
var lookupEnv = os.LookupEnv
var lockPath = runlock.DefaultPath
var newRunID = uuid.NewString
var defaultConfigPath = config.DefaultConfigPath

var resolveExecutable = func() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(exe)
}

// buildComponents wires the real components; tests replace it.
var buildComponents = func(cfg config.InstallConfig, log *zap.Logger, opts *install.Options) {
	client := &http.Client{Timeout: cfg.Timeout()}
	opts.Checker = update.NewCheckerWithClient(client)
	opts.Updater = update.NewUpdater(update.UpdaterOptions{Target: cfg.ScriptPath, Client: client, Log: log})
	opts.Detector = platform.NewDetector(nil)
	opts.Installer = pkgmgr.NewInstaller(nil, log)
	opts.Provisioner = workspace.NewProvisioner(workspace.Options{Owner: cfg.ServiceUser, Log: log})
}

type rootFlags struct {
	skipUpdate   bool
	dryRun       bool
	strictUpdate bool
	configPath   string
	envFile      string
	logLevel     string
	logFormat    string
	lockWait     time.Duration
}

func newRootCmd(args []string) *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		Long:          messages.RootLong,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInstall(cmd, args, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.skipUpdate, "skip-update", false, messages.RootFlagSkipUpdate)
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, messages.RootFlagDryRun)
	cmd.Flags().BoolVar(&flags.strictUpdate, "strict-update", false, messages.RootFlagStrictUpdate)
	cmd.Flags().StringVar(&flags.configPath, "config", "", messages.RootFlagConfig)
	cmd.Flags().StringVar(&flags.envFile, "env-file", "", messages.RootFlagEnvFile)
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", messages.RootFlagLogLevel)
	cmd.Flags().StringVar(&flags.logFormat, "log-format", logging.FormatConsole, messages.RootFlagLogFormat)
	cmd.Flags().DurationVar(&flags.lockWait, "lock-wait", 0, messages.RootFlagLockWait)
	cmd.Flags().BoolP("version", "v", false, messages.RootVersionFlag)

	return cmd
}

func runInstall(cmd *cobra.Command, args []string, flags rootFlags) error {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	log, err := logging.New(logging.Config{Level: flags.logLevel, Format: flags.logFormat}, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if !flags.dryRun {
		lock, err := runlock.AcquireWait(lockPath(), flags.lockWait)
		if err != nil {
			return err
		}
		defer func() { _ = lock.Release() }()
		log.Debug("acquired run lock", zap.String("path", lock.Path()))
	}

	_, restarted := lookupEnv(update.EnvRestarted)
	opts := install.Options{
		Config:       cfg,
		LocalVersion: Version,
		Args:         args,
		SkipUpdate:   flags.skipUpdate,
		DryRun:       flags.dryRun,
		StrictUpdate: flags.strictUpdate,
		Restarted:    restarted,
		PersistLog:   true,
		RunID:        newRunID(),
		Log:          log,
		WarnWriter:   stderr,
	}
	buildComponents(cfg, log, &opts)

	report, err := installRun(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if report.Restart {
		return nil
	}
	printSummary(stdout, report, outputWidth(stdout))
	return nil
}

// loadConfig resolves the config and env file flags and loads the InstallConfig.
func loadConfig(flags rootFlags) (config.InstallConfig, error) {
	configPath := defaultConfigPath
	required := false
	if strings.TrimSpace(flags.configPath) != "" {
		expanded, err := homedir.Expand(flags.configPath)
		if err != nil {
			return config.InstallConfig{}, fmt.Errorf(messages.RootExpandPathFmt, flags.configPath, err)
		}
		configPath = expanded
		required = true
	}
	envFile := ""
	if strings.TrimSpace(flags.envFile) != "" {
		expanded, err := homedir.Expand(flags.envFile)
		if err != nil {
			return config.InstallConfig{}, fmt.Errorf(messages.RootExpandPathFmt, flags.envFile, err)
		}
		envFile = expanded
	}
	exe, err := resolveExecutable()
	if err != nil {
		return config.InstallConfig{}, fmt.Errorf(messages.RootResolveExecutableFmt, err)
	}
	return config.Load(config.LoadOptions{
		ConfigPath:     configPath,
		ConfigRequired: required,
		EnvFile:        envFile,
		LookupEnv:      lookupEnv,
		Executable:     exe,
	})
}
