package messages

// Config messages for configuration loading and validation.
const (
	// ConfigMissingFileFmt formats missing config file errors.
	ConfigMissingFileFmt      = "missing config file %s: %w"
	ConfigInvalidEnvFileFmt   = "invalid env file %s: %w"
	ConfigInvalidConfigFmt    = "invalid config %s: %w"
	ConfigUnrecognizedKeysFmt = "%s: unrecognized config keys: %w"
	ConfigInvalidEnvIntFmt    = "%s must be an integer (got %q)"

	ConfigFieldRequiredFmt     = "%s is required"
	ConfigFieldAbsolutePathFmt = "%s must be an absolute path (got %v)"
	ConfigFieldURLFmt          = "%s must be an absolute URL (got %v)"
	ConfigFieldRangeFmt        = "%s must satisfy %s=%s (got %v)"
	ConfigFieldInvalidFmt      = "%s has an invalid value %v"
	ConfigFieldDirNameFmt      = "%s must be a single directory name (got %q)"
)
