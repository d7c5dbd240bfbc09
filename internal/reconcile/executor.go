package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ex-cmdsync/pkg/cmdsync"
)

// ErrScopeUnavailable indicates the snapshot holds no listing for a guild scope.
//
// Executions fail instead of assuming an empty scope, which would create duplicates.
var ErrScopeUnavailable = errors.New("reconcile: remote scope listing unavailable")

// Result is the terminal state of one execution.
type Result string

const (
	// ResultUnchanged means the remote command already matched.
	ResultUnchanged Result = "unchanged"
	// ResultReported means divergence was logged and the remote was left as is.
	ResultReported Result = "reported"
	// ResultUpdated means the remote command was edited.
	ResultUpdated Result = "updated"
	// ResultCreated means a missing command was created.
	ResultCreated Result = "created"
	// ResultSkipped means a missing command was not created because registration was disabled.
	ResultSkipped Result = "skipped"
	// ResultFailed means a remote call or the execution itself failed.
	ResultFailed Result = "failed"
)

// execution is one pending call bound to one scope bucket.
type execution struct {
	call     PendingCall
	guildID  string
	behavior cmdsync.Behavior
}

func (e execution) label() string {
	if e.guildID == "" {
		return fmt.Sprintf("%s %s (global)", e.call.Definition.Kind, e.call.Definition.Name)
	}

	return fmt.Sprintf("%s %s (guild %s)", e.call.Definition.Kind, e.call.Definition.Name, e.guildID)
}

// outcome is the settled result of one execution.
type outcome struct {
	execution execution
	result    Result
	commandID string
	err       error
}

// execute runs match, diff, policy, and remote mutation for one execution.
//
// Remote failures are returned inside the outcome, never as panics or errors
// that would stop sibling executions.
func (r *Registry) execute(
	ctx context.Context,
	logger *slog.Logger,
	client cmdsync.RemoteCommandClient,
	snapshot cmdsync.Snapshot,
	exec execution,
) outcome {
	definition := exec.call.Definition
	logger = logger.With(
		"command", definition.Name,
		"kind", definition.Kind.String(),
		"behavior", string(exec.behavior),
	)
	if exec.guildID != "" {
		logger = logger.With("guild_id", exec.guildID)
	}

	remote, listed := snapshot.Scope(exec.guildID)
	if !listed {
		return outcome{
			execution: exec,
			result:    ResultFailed,
			err:       fmt.Errorf("execute %s: %w", exec.label(), ErrScopeUnavailable),
		}
	}

	match, found := matchCommand(exec.call, remote)
	if !found {
		return r.handleMissing(ctx, logger, client, exec)
	}

	logger = logger.With("command_id", match.command.ID)
	logger.Log(ctx, LevelTrace, "matched remote command", "match", string(match.reason))
	if match.candidates > 1 {
		logger.WarnContext(
			ctx,
			"ambiguous remote command match; using first listed",
			"match", string(match.reason),
			"candidates", match.candidates,
		)
	}

	return r.handleExisting(ctx, logger, client, exec, match.command)
}

func (r *Registry) handleMissing(
	ctx context.Context,
	logger *slog.Logger,
	client cmdsync.RemoteCommandClient,
	exec execution,
) outcome {
	if !exec.call.RegisterIfMissing {
		logger.InfoContext(ctx, "command not registered remotely; skipping because registration is disabled")
		return outcome{execution: exec, result: ResultSkipped}
	}

	created, err := client.CreateCommand(ctx, exec.guildID, exec.call.Definition)
	if err != nil {
		return outcome{
			execution: exec,
			result:    ResultFailed,
			err:       annotateRemoteError(err, cmdsync.RemoteOperationCreate, exec, ""),
		}
	}

	r.identity.recordID(exec.call.Definition.Kind, exec.guildID, created.ID)
	logger.InfoContext(ctx, "created command", "command_id", created.ID)

	return outcome{execution: exec, result: ResultCreated, commandID: created.ID}
}

func (r *Registry) handleExisting(
	ctx context.Context,
	logger *slog.Logger,
	client cmdsync.RemoteCommandClient,
	exec execution,
	existing cmdsync.RemoteCommand,
) outcome {
	definition := exec.call.Definition

	var differences []cmdsync.Difference
	divergent := false
	if exec.behavior == cmdsync.BehaviorVerboseOverwrite {
		differences = cmdsync.Differences(existing, definition)
		divergent = len(differences) > 0
	} else {
		divergent = cmdsync.HasDifferences(existing, definition)
	}

	action, err := Decide(exec.behavior, divergent)
	if err != nil {
		return outcome{execution: exec, result: ResultFailed, commandID: existing.ID, err: err}
	}

	switch action {
	case ActionNoOp:
		logger.DebugContext(ctx, "command is up to date")
		r.identity.recordID(definition.Kind, exec.guildID, existing.ID)
		return outcome{execution: exec, result: ResultUnchanged, commandID: existing.ID}
	case ActionReport:
		logger.WarnContext(ctx, "command differs from remote; leaving remote unchanged")
		r.identity.recordID(definition.Kind, exec.guildID, existing.ID)
		return outcome{execution: exec, result: ResultReported, commandID: existing.ID}
	}

	logger.DebugContext(ctx, "command differs from remote; updating")
	if len(differences) > 0 {
		logDifferences(ctx, logger, differences)
	}

	updated, err := client.EditCommand(ctx, exec.guildID, existing.ID, definition)
	if err != nil {
		return outcome{
			execution: exec,
			result:    ResultFailed,
			commandID: existing.ID,
			err:       annotateRemoteError(err, cmdsync.RemoteOperationEdit, exec, existing.ID),
		}
	}

	commandID := updated.ID
	if commandID == "" {
		commandID = existing.ID
	}
	r.identity.recordID(definition.Kind, exec.guildID, commandID)
	logger.InfoContext(ctx, "updated command")

	return outcome{execution: exec, result: ResultUpdated, commandID: commandID}
}

// annotateRemoteError fills execution context into a client error.
func annotateRemoteError(
	err error,
	operation cmdsync.RemoteOperation,
	exec execution,
	commandID string,
) error {
	if remoteErr, ok := cmdsync.AsRemoteCallError(err); ok {
		if remoteErr.Operation == "" {
			remoteErr.Operation = operation
		}
		if remoteErr.CommandName == "" {
			remoteErr.CommandName = exec.call.Definition.Name
		}
		if remoteErr.CommandID == "" {
			remoteErr.CommandID = commandID
		}
		if remoteErr.GuildID == "" {
			remoteErr.GuildID = exec.guildID
		}
		return err
	}

	return &cmdsync.RemoteCallError{
		Operation:   operation,
		Kind:        cmdsync.RemoteErrorKindUnknown,
		CommandName: exec.call.Definition.Name,
		CommandID:   commandID,
		GuildID:     exec.guildID,
		Cause:       err,
	}
}
