package install

import (
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/pkgmgr"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/platform"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/update"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/workspace"
)

// Report records what one run did. It is returned even when the run fails.
type Report struct {
	// Stage is the final stage reached.
	Stage Stage
	// Stages lists every stage visited, starting with StageStart.
	Stages     []Stage
	DryRun     bool
	Comparison *update.Comparison
	// Preview is set on dry runs that found an update.
	Preview  *update.Preview
	Updated  bool
	Restart  bool
	Family   platform.Family
	Packages []pkgmgr.PackageResult
	Dirs     []workspace.DirResult
}

// InstalledPackages returns the packages this run installed (or would install on a dry run).
func (r Report) InstalledPackages() []string {
	var out []string
	for _, result := range r.Packages {
		if result.Action == pkgmgr.ActionInstalled || result.Action == pkgmgr.ActionWouldInstall {
			out = append(out, result.Package)
		}
	}
	return out
}

// CreatedDirs returns the directories this run created (or would create on a dry run).
func (r Report) CreatedDirs() []string {
	var out []string
	for _, result := range r.Dirs {
		if result.Action == workspace.ActionCreated || result.Action == workspace.ActionWouldCreate {
			out = append(out, result.Path)
		}
	}
	return out
}

// Visited reports whether the run passed through stage.
func (r Report) Visited(stage Stage) bool {
	for _, s := range r.Stages {
		if s == stage {
			return true
		}
	}
	return false
}
