// Package actions provides the registry and implementation of the actions a check can run.
// This file implements the action handler for pausing execution
// for a specified duration (`action: wait`).
package actions

import (
	"context"
	"fmt"
	"time"

	execContext "metrosmoke/pkg/context"
	"metrosmoke/pkg/suite"
)

// waitHandler pauses the run, returning early when ctx is cancelled
func waitHandler(ctx context.Context, env *Env, vars *execContext.ExecutionContext, check *suite.Check) (*HTTPResponse, error) {
	if check.Duration == "" {
		return nil, fmt.Errorf("wait action requires duration field")
	}

	resolved, err := vars.Substitute(check.Duration)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve duration value: %w", err)
	}

	duration, err := time.ParseDuration(resolved)
	if err != nil {
		return nil, fmt.Errorf("invalid duration format '%s': %w", resolved, err)
	}

	env.logger().Info("Waiting", "check", check.Name, "duration", duration.String())

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("wait interrupted: %w", ctx.Err())
	}
}
