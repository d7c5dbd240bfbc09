package reconcile

import (
	"fmt"

	"ex-cmdsync/pkg/cmdsync"
)

// Action is the reconciliation decision for one matched remote command.
type Action string

const (
	// ActionNoOp leaves an identical remote command untouched.
	ActionNoOp Action = "noop"
	// ActionReport logs divergence without mutating the remote command.
	ActionReport Action = "report"
	// ActionApplyUpdate edits the remote command to match the definition.
	ActionApplyUpdate Action = "apply_update"
)

// Decide maps an effective behavior and a divergence result to an action.
//
// bulk_overwrite and unknown behaviors are configuration errors.
func Decide(behavior cmdsync.Behavior, divergent bool) (Action, error) {
	switch behavior {
	case cmdsync.BehaviorOverwrite, cmdsync.BehaviorVerboseOverwrite:
		if !divergent {
			return ActionNoOp, nil
		}
		return ActionApplyUpdate, nil
	case cmdsync.BehaviorLogToConsole:
		if !divergent {
			return ActionNoOp, nil
		}
		return ActionReport, nil
	case cmdsync.BehaviorBulkOverwrite:
		return "", &cmdsync.ConfigurationError{Behavior: behavior, Cause: cmdsync.ErrBulkOverwriteRejected}
	default:
		return "", &cmdsync.ConfigurationError{
			Behavior: behavior,
			Cause:    fmt.Errorf("decide: %w", cmdsync.ErrInvalidBehavior),
		}
	}
}
