// Package platform identifies which Linux packaging family the host uses.
package platform

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/messages"
)

// Family is a Linux distribution's package-management ecosystem.
type Family int

// Supported packaging families.
const (
	Unknown Family = iota
	Debian
	RedHat
)

// String returns the family id used in configuration keys.
func (f Family) String() string {
	switch f {
	case Debian:
		return "debian"
	case RedHat:
		return "redhat"
	default:
		return "unknown"
	}
}

// ErrUnknown is wrapped by UnknownError so callers can match with errors.Is.
var ErrUnknown = errors.New(messages.PlatformUnknown)

// UnknownError reports that no supported package manager was found on the host.
type UnknownError struct {
	// Probed lists the executables that were looked up.
	Probed []string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf(messages.PlatformUnknownProbedFmt, strings.Join(e.Probed, ", "))
}

// Unwrap returns ErrUnknown.
func (e *UnknownError) Unwrap() error {
	return ErrUnknown
}

// System abstracts executable lookup for detection.
type System interface {
	LookPath(file string) (string, error)
}

// RealSystem implements System using PATH lookup.
type RealSystem struct{}

// LookPath searches PATH for file.
func (RealSystem) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// probe describes the executables that must be present for a family.
// every lists executables that are all required; anyOf needs at least one.
type probe struct {
	family Family
	every  []string
	anyOf  []string
}

// probes are evaluated in order; Debian wins on hosts carrying both toolchains.
var probes = []probe{
	{family: Debian, every: []string{"apt-get", "dpkg-query"}},
	{family: RedHat, every: []string{"rpm"}, anyOf: []string{"dnf", "yum"}},
}

// Detector probes the host for a package manager.
type Detector struct {
	sys System
}

// NewDetector returns a Detector using sys, or RealSystem when sys is nil.
func NewDetector(sys System) *Detector {
	if sys == nil {
		sys = RealSystem{}
	}
	return &Detector{sys: sys}
}

// Detect returns the packaging family of the host, or Unknown.
func (d *Detector) Detect() Family {
	for _, p := range probes {
		if d.matches(p) {
			return p.family
		}
	}
	return Unknown
}

// Unknown builds the error reported when Detect found nothing.
func (d *Detector) Unknown() *UnknownError {
	var probed []string
	for _, p := range probes {
		probed = append(probed, p.every...)
		probed = append(probed, p.anyOf...)
	}
	return &UnknownError{Probed: probed}
}

func (d *Detector) matches(p probe) bool {
	for _, name := range p.every {
		if !d.has(name) {
			return false
		}
	}
	if len(p.anyOf) == 0 {
		return true
	}
	for _, name := range p.anyOf {
		if d.has(name) {
			return true
		}
	}
	return false
}

func (d *Detector) has(name string) bool {
	_, err := d.sys.LookPath(name)
	return err == nil
}
