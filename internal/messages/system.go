package messages

// System messages for host probing, packages, directories, locking and logging.
const (
	PlatformUnknown          = "no supported package manager found"
	PlatformUnknownProbedFmt = "no supported package manager found (probed %s)"

	PkgmgrInstallFailedFmt       = "install %s: %v"
	PkgmgrUnsupportedFamilyFmt   = "no package manager for family %s"
	PkgmgrEmptyPackageFmt        = "package %d has an empty name"
	PkgmgrNoRPMFrontend          = "neither dnf nor yum found"
	PkgmgrCommandFailedFmt       = "%s: %w"
	PkgmgrCommandFailedOutputFmt = "%s: %w: %s"

	WorkspaceNotDirectory    = "not a directory"
	WorkspaceIOErrorFmt      = "%s: %v"
	WorkspacePathNotAbsolute = "path must be absolute"
	WorkspaceLookupOwnerFmt  = "look up owner %q: %w"

	// RunlockHeld indicates another process holds the run lock.
	RunlockHeld    = "another installer run is in progress"
	RunlockOpenFmt = "open run lock %s: %w"
	RunlockLockFmt = "lock %s: %w"

	LoggingInvalidLevelFmt  = "invalid log level %q"
	LoggingInvalidFormatFmt = "invalid log format %q (want console or json)"
	LoggingOpenFileFmt      = "open log file %s: %w"
)
