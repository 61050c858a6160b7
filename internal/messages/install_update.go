package messages

// Install and update messages.
const (
	InstallStageFailedFmt       = "%s: %v"
	InstallIllegalTransitionFmt = "illegal stage transition %s -> %s"
	InstallComponentRequiredFmt = "%s is required"

	// UpdateCreateRequestErrFmt formats request creation errors.
	UpdateCreateRequestErrFmt    = "create version request: %w"
	UpdateFetchVersionErrFmt     = "fetch version: %w"
	UpdateFetchVersionTimeoutFmt = "fetch version from %s timed out"
	UpdateFetchVersionStatusFmt  = "fetch version: unexpected status %s"
	UpdateReadVersionErrFmt      = "read version: %w"
	UpdateVersionTooLargeFmt     = "remote version response too large (over %d bytes)"
	UpdateVersionEmpty           = "remote version is empty"
	UpdateVersionInvalidFmt      = "invalid remote version %q"

	UpdateFailedFmt      = "self-update failed: %s"
	UpdateFailedCauseFmt = "self-update failed: %s: %v"
	UpdateTargetRequired = "installer path is required"
	UpdateRestarted      = "restarted updated installer"

	UpdateReasonRequest       = "create download request"
	UpdateReasonDownload      = "download installer"
	UpdateReasonTimeout       = "download installer timed out"
	UpdateReasonStatusFmt     = "download installer: unexpected status %s"
	UpdateReasonInterrupted   = "download interrupted"
	UpdateReasonShortBodyFmt  = "download interrupted: received %d of %d bytes"
	UpdateReasonTooLargeFmt   = "downloaded installer exceeds %d bytes"
	UpdateReasonEmpty         = "downloaded installer is empty"
	UpdateReasonCreateTemp    = "create temp file"
	UpdateReasonSyncTemp      = "sync temp file"
	UpdateReasonCloseTemp     = "close temp file"
	UpdateReasonVerify        = "verify downloaded installer"
	UpdateReasonUnknownFormat = "downloaded installer is not an executable script or ELF binary"
	UpdateReasonSyntax        = "downloaded installer failed syntax check"
	UpdateReasonChmod         = "chmod downloaded installer"
	UpdateReasonRename        = "move downloaded installer into place"
	UpdateReasonReadTarget    = "read installed installer"
	UpdateReasonExec          = "re-execute updated installer"

	UpdatePreviewBinaryFmt    = "binary installer: %d bytes installed, %d bytes remote\n"
	UpdatePreviewTruncatedFmt = "... (truncated to %d lines)"
)
