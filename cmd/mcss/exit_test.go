package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/install"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/runlock"
)

func TestExitCodeFor(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"platform", &install.StageError{Stage: install.StageDetectingPlatform, Err: cause}, 1},
		{"dependencies", &install.StageError{Stage: install.StageInstallingDependencies, Err: cause}, 2},
		{"workspace", &install.StageError{Stage: install.StageProvisioningWorkspace, Err: cause}, 3},
		{"self update", &install.StageError{Stage: install.StageSelfUpdating, Err: cause}, 4},
		{"wrapped", fmt.Errorf("run: %w", &install.StageError{Stage: install.StageInstallingDependencies, Err: cause}), 2},
		{"checking version", &install.StageError{Stage: install.StageCheckingVersion, Err: cause}, 5},
		{"interrupted platform", &install.StageError{Stage: install.StageDetectingPlatform, Err: context.Canceled}, 5},
		{"interrupted install", &install.StageError{Stage: install.StageInstallingDependencies, Err: fmt.Errorf("%w: %w", context.Canceled, cause)}, 5},
		{"lock", fmt.Errorf("%w: /tmp/mcss.lock", runlock.ErrLocked), 5},
		{"other", cause, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Fatalf("exitCodeFor = %d, want %d", got, tt.want)
			}
		})
	}
}
