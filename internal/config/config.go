// Package config builds the installer configuration from defaults, an optional
// TOML file, an optional env file and the process environment.
package config

import (
	"path/filepath"
	"time"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/platform"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/workspace"
)

// DefaultConfigPath is read when present and no --config flag is given.
const DefaultConfigPath = "/etc/minecraft-server-service/installer.toml"

// Defaults recovered from the released installer.
const (
	DefaultBaseTemp         = "/tmp/mitchellvanbijleveld"
	DefaultBaseLogs         = "/var/log/mitchellvanbijleveld"
	DefaultBaseProgramFiles = "/opt/mitchellvanbijleveld"
	DefaultAppDir           = "Minecraft-Server"
	DefaultVersionURL       = "https://github.mitchellvanbijleveld.dev/Minecraft-Server-Service/VERSION"
	DefaultScriptURL        = "https://github.mitchellvanbijleveld.dev/Minecraft-Server-Service/minecraft-server-service-installer.sh"
	DefaultTimeoutSeconds   = 10
)

// InstallConfig is the immutable configuration of one installer run.
// Build it with Load or Defaults and pass it by value.
type InstallConfig struct {
	BaseTemp         string   `toml:"base_temp" validate:"required,startswith=/"`
	BaseLogs         string   `toml:"base_logs" validate:"required,startswith=/"`
	BaseProgramFiles string   `toml:"base_program_files" validate:"required,startswith=/"`
	AppDir           string   `toml:"app_dir" validate:"required,dirname"`
	Packages         Packages `toml:"packages"`
	VersionURL       string   `toml:"version_url" validate:"required,url"`
	ScriptURL        string   `toml:"script_url" validate:"required,url"`
	ScriptPath       string   `toml:"script_path" validate:"omitempty,startswith=/"`
	ServiceUser      string   `toml:"service_user" validate:"omitempty,excludesall=: "`
	TimeoutSeconds   int      `toml:"timeout_seconds" validate:"min=1,max=300"`
}

// Packages lists the dependencies per packaging family.
type Packages struct {
	Debian []string `toml:"debian" validate:"min=1,dive,required,excludesall= "`
	RedHat []string `toml:"redhat" validate:"min=1,dive,required,excludesall= "`
}

// Defaults returns the built-in configuration. ScriptPath is left empty;
// Load fills it with the running executable.
func Defaults() InstallConfig {
	return InstallConfig{
		BaseTemp:         DefaultBaseTemp,
		BaseLogs:         DefaultBaseLogs,
		BaseProgramFiles: DefaultBaseProgramFiles,
		AppDir:           DefaultAppDir,
		Packages: Packages{
			Debian: []string{"jq", "screen", "openjdk-17-jdk"},
			RedHat: []string{"jq", "epel-release", "screen", "java-17-openjdk"},
		},
		VersionURL:     DefaultVersionURL,
		ScriptURL:      DefaultScriptURL,
		TimeoutSeconds: DefaultTimeoutSeconds,
	}
}

// PackagesFor returns a copy of the package list for family, or nil for Unknown.
func (c InstallConfig) PackagesFor(family platform.Family) []string {
	var list []string
	switch family {
	case platform.Debian:
		list = c.Packages.Debian
	case platform.RedHat:
		list = c.Packages.RedHat
	default:
		return nil
	}
	return append([]string(nil), list...)
}

// WorkspacePaths derives the application directories from the base roots.
func (c InstallConfig) WorkspacePaths() workspace.Paths {
	return workspace.Paths{
		Temp:         filepath.Join(c.BaseTemp, c.AppDir),
		Logs:         filepath.Join(c.BaseLogs, c.AppDir),
		ProgramFiles: filepath.Join(c.BaseProgramFiles, c.AppDir),
	}
}

// Timeout returns the network timeout.
func (c InstallConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c InstallConfig) clone() InstallConfig {
	out := c
	out.Packages.Debian = append([]string(nil), c.Packages.Debian...)
	out.Packages.RedHat = append([]string(nil), c.Packages.RedHat...)
	return out
}
