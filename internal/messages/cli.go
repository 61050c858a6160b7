package messages

// CLI messages for the mcss command.
const (
	// RootUse is the CLI command name.
	RootUse = "mcss"
	// RootShort is the short description for the root command.
	RootShort = "Install the Minecraft Server Service"
	RootLong  = `Install the Minecraft Server Service on this host.

mcss checks for a newer installer and replaces itself when one is available,
installs the Java runtime and tools the service needs with the host's package
manager, and creates the temp, log and program directories.`
	RootVersionFlag = "Print version and exit"

	RootFlagSkipUpdate   = "Skip the installer version check and self-update"
	RootFlagDryRun       = "Report planned actions without changing the host"
	RootFlagStrictUpdate = "Fail the run when a self-update fails (exit 4)"
	RootFlagConfig       = "Path to an installer TOML config (default /etc/minecraft-server-service/installer.toml when present)"
	RootFlagEnvFile      = "Path to a dotenv file with MCSS_* overrides"
	RootFlagLogLevel     = "Log level: debug, info, warn, or error"
	RootFlagLockWait     = "How long to wait for another installer run to finish (0 fails immediately)"
	RootFlagLogFormat    = "Log format: console or json"

	RootExpandPathFmt        = "expand path %s: %w"
	RootResolveExecutableFmt = "resolve installer path: %w"

	// CLIErrorFmt formats a fatal run error.
	CLIErrorFmt = "Error: %v\n"

	// VersionCommitFmt formats the commit hash for version display.
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"
	VersionTemplate  = "{{.Version}}\n"

	SummaryTitle                = "Minecraft Server Service installed"
	SummaryDryRunTitle          = "Dry run: no changes were made"
	SummaryPlatformFmt          = "Platform:            %s\n"
	SummaryPackagesInstalledFmt = "Packages installed:  %s\n"
	SummaryPackagesPlannedFmt   = "Packages to install: %s\n"
	SummaryDirsCreatedFmt       = "Directories created: %s\n"
	SummaryDirsPlannedFmt       = "Directories to create: %s\n"
	SummaryUpdatePreviewFmt     = "Installer update for %s:\n"
	SummaryNone                 = "none"

	WarnUpdateCheckFailedFmt = "Warning: failed to check for updates: %v\n"
	WarnDevBuildFmt          = "Warning: running dev build; latest release is %s\n"
	WarnUpdateAvailableFmt   = "Installer %s is available (running %s); updating\n"
	WarnUpdateFailedFmt      = "Warning: self-update failed; continuing with the installed version: %v\n"
	WarnLogFileFmt           = "Warning: run log not persisted: %v\n"
)
