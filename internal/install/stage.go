package install

import (
	"fmt"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/messages"
)

// Stage is a step of an installer run.
type Stage string

// Run stages in the order a full run visits them.
const (
	StageStart                  Stage = "start"
	StageCheckingVersion        Stage = "checking-version"
	StageSelfUpdating           Stage = "self-updating"
	StageRestart                Stage = "restart"
	StageDetectingPlatform      Stage = "detecting-platform"
	StageInstallingDependencies Stage = "installing-dependencies"
	StageProvisioningWorkspace  Stage = "provisioning-workspace"
	StageDone                   Stage = "done"
	StageFailed                 Stage = "failed"
)

// IsTerminal reports whether no further transition can leave s.
func (s Stage) IsTerminal() bool {
	switch s {
	case StageRestart, StageDone, StageFailed:
		return true
	default:
		return false
	}
}

var allowedTransitions = map[Stage][]Stage{
	StageStart:                  {StageCheckingVersion, StageDetectingPlatform},
	StageCheckingVersion:        {StageSelfUpdating, StageDetectingPlatform},
	StageSelfUpdating:           {StageRestart, StageDetectingPlatform},
	StageDetectingPlatform:      {StageInstallingDependencies},
	StageInstallingDependencies: {StageProvisioningWorkspace},
	StageProvisioningWorkspace:  {StageDone},
}

// isAllowedTransition reports whether from -> to is a legal edge.
// Failed is reachable from every non-terminal stage.
func isAllowedTransition(from Stage, to Stage) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StageFailed {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StageError reports the stage a run failed in and why.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf(messages.InstallStageFailedFmt, e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}
