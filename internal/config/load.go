package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/messages"
)

// ErrConfigValidation is a sentinel that wraps config validation failures
// (as opposed to TOML syntax or filesystem errors).
var ErrConfigValidation = errors.New("config validation failed")

// Environment variables that override file settings.
const (
	EnvBaseTemp         = "MCSS_BASE_TEMP"
	EnvBaseLogs         = "MCSS_BASE_LOGS"
	EnvBaseProgramFiles = "MCSS_BASE_PROGRAM_FILES"
	EnvAppDir           = "MCSS_APP_DIR"
	EnvVersionURL       = "MCSS_VERSION_URL"
	EnvScriptURL        = "MCSS_SCRIPT_URL"
	EnvScriptPath       = "MCSS_SCRIPT_PATH"
	EnvServiceUser      = "MCSS_SERVICE_USER"
	EnvTimeoutSeconds   = "MCSS_TIMEOUT_SECONDS"
	EnvPackagesDebian   = "MCSS_PACKAGES_DEBIAN"
	EnvPackagesRedHat   = "MCSS_PACKAGES_REDHAT"
)

// LoadOptions controls where Load reads configuration from.
type LoadOptions struct {
	// ConfigPath is a TOML file. A missing file is an error only when ConfigRequired is set.
	ConfigPath     string
	ConfigRequired bool
	// EnvFile is an optional dotenv file; a missing file is an error.
	EnvFile string
	// LookupEnv reads the process environment; nil uses os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// Executable is the default ScriptPath.
	Executable string
}

// fileConfig mirrors InstallConfig with optional fields so unset keys keep their defaults.
type fileConfig struct {
	BaseTemp         *string       `toml:"base_temp"`
	BaseLogs         *string       `toml:"base_logs"`
	BaseProgramFiles *string       `toml:"base_program_files"`
	AppDir           *string       `toml:"app_dir"`
	Packages         *filePackages `toml:"packages"`
	VersionURL       *string       `toml:"version_url"`
	ScriptURL        *string       `toml:"script_url"`
	ScriptPath       *string       `toml:"script_path"`
	ServiceUser      *string       `toml:"service_user"`
	TimeoutSeconds   *int          `toml:"timeout_seconds"`
}

type filePackages struct {
	Debian *[]string `toml:"debian"`
	RedHat *[]string `toml:"redhat"`
}

// Load builds and validates an InstallConfig.
// Precedence: process env > env file > TOML file > defaults.
func Load(opts LoadOptions) (InstallConfig, error) {
	cfg := Defaults()

	if opts.ConfigPath != "" {
		data, err := os.ReadFile(opts.ConfigPath)
		switch {
		case err == nil:
			if err := ParseTOML(data, opts.ConfigPath, &cfg); err != nil {
				return InstallConfig{}, err
			}
		case errors.Is(err, os.ErrNotExist) && !opts.ConfigRequired:
		default:
			return InstallConfig{}, fmt.Errorf(messages.ConfigMissingFileFmt, opts.ConfigPath, err)
		}
	}

	values := map[string]string{}
	if opts.EnvFile != "" {
		fileEnv, err := godotenv.Read(opts.EnvFile)
		if err != nil {
			return InstallConfig{}, fmt.Errorf(messages.ConfigInvalidEnvFileFmt, opts.EnvFile, err)
		}
		for key, value := range fileEnv {
			values[key] = value
		}
	}
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, key := range envKeys {
		if value, ok := lookup(key); ok {
			values[key] = value
		}
	}
	if err := applyEnv(&cfg, values); err != nil {
		return InstallConfig{}, err
	}

	if cfg.ScriptPath == "" {
		cfg.ScriptPath = opts.Executable
	}
	if err := cfg.Validate(); err != nil {
		return InstallConfig{}, err
	}
	return cfg.clone(), nil
}

// ParseTOML overlays the TOML document in data onto cfg. Unknown keys are rejected.
// source is used in error messages.
func ParseTOML(data []byte, source string, cfg *InstallConfig) error {
	var file fileConfig
	if err := toml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf(messages.ConfigInvalidConfigFmt, source, err)
	}
	if err := decodeStrict(data); err != nil {
		return fmt.Errorf("%w: "+messages.ConfigUnrecognizedKeysFmt, ErrConfigValidation, source, err)
	}
	file.apply(cfg)
	return nil
}

// decodeStrict re-decodes the TOML data with unknown-field rejection.
func decodeStrict(data []byte) error {
	var file fileConfig
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	err := decoder.Decode(&file)
	var strictErr *toml.StrictMissingError
	if errors.As(err, &strictErr) {
		keys := make([]string, 0, len(strictErr.Errors))
		for _, decodeErr := range strictErr.Errors {
			keys = append(keys, strings.Join(decodeErr.Key(), "."))
		}
		return errors.New(strings.Join(keys, ", "))
	}
	return err
}

func (f fileConfig) apply(cfg *InstallConfig) {
	setString(&cfg.BaseTemp, f.BaseTemp)
	setString(&cfg.BaseLogs, f.BaseLogs)
	setString(&cfg.BaseProgramFiles, f.BaseProgramFiles)
	setString(&cfg.AppDir, f.AppDir)
	setString(&cfg.VersionURL, f.VersionURL)
	setString(&cfg.ScriptURL, f.ScriptURL)
	setString(&cfg.ScriptPath, f.ScriptPath)
	setString(&cfg.ServiceUser, f.ServiceUser)
	if f.TimeoutSeconds != nil {
		cfg.TimeoutSeconds = *f.TimeoutSeconds
	}
	if f.Packages != nil {
		if f.Packages.Debian != nil {
			cfg.Packages.Debian = append([]string(nil), (*f.Packages.Debian)...)
		}
		if f.Packages.RedHat != nil {
			cfg.Packages.RedHat = append([]string(nil), (*f.Packages.RedHat)...)
		}
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

var envKeys = []string{
	EnvBaseTemp,
	EnvBaseLogs,
	EnvBaseProgramFiles,
	EnvAppDir,
	EnvVersionURL,
	EnvScriptURL,
	EnvScriptPath,
	EnvServiceUser,
	EnvTimeoutSeconds,
	EnvPackagesDebian,
	EnvPackagesRedHat,
}

// applyEnv overlays MCSS_* values; keys outside the namespace are ignored.
func applyEnv(cfg *InstallConfig, values map[string]string) error {
	for key, raw := range values {
		value := strings.TrimSpace(raw)
		switch key {
		case EnvBaseTemp:
			cfg.BaseTemp = value
		case EnvBaseLogs:
			cfg.BaseLogs = value
		case EnvBaseProgramFiles:
			cfg.BaseProgramFiles = value
		case EnvAppDir:
			cfg.AppDir = value
		case EnvVersionURL:
			cfg.VersionURL = value
		case EnvScriptURL:
			cfg.ScriptURL = value
		case EnvScriptPath:
			cfg.ScriptPath = value
		case EnvServiceUser:
			cfg.ServiceUser = value
		case EnvTimeoutSeconds:
			seconds, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("%w: "+messages.ConfigInvalidEnvIntFmt, ErrConfigValidation, key, raw)
			}
			cfg.TimeoutSeconds = seconds
		case EnvPackagesDebian:
			cfg.Packages.Debian = strings.Fields(value)
		case EnvPackagesRedHat:
			cfg.Packages.RedHat = strings.Fields(value)
		}
	}
	return nil
}
