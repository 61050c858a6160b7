package main

import (
	"context"
	"errors"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/install"
)

// Process exit codes.
const (
	exitOK              = 0
	exitPlatformUnknown = 1
	exitDependency      = 2
	exitWorkspace       = 3
	exitSelfUpdate      = 4
	exitOther           = 5
)

// exitCodeFor maps a run failure to its exit code by the stage that failed.
// Configuration, lock and usage errors carry no stage and exit with exitOther,
// as does an interrupted run whatever stage it was in.
func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, context.Canceled) {
		return exitOther
	}
	var stageErr *install.StageError
	if !errors.As(err, &stageErr) {
		return exitOther
	}
	switch stageErr.Stage {
	case install.StageDetectingPlatform:
		return exitPlatformUnknown
	case install.StageInstallingDependencies:
		return exitDependency
	case install.StageProvisioningWorkspace:
		return exitWorkspace
	case install.StageSelfUpdating, install.StageRestart:
		return exitSelfUpdate
	default:
		return exitOther
	}
}
