package reconcile

import (
	"context"
	"fmt"
	"sync"

	"ex-cmdsync/pkg/cmdsync"
)

// ExecutionFailure describes one failed execution of a flush.
type ExecutionFailure struct {
	Command   string
	Kind      cmdsync.CommandKind
	GuildID   string
	CommandID string
	Err       error
}

// ResolvedCommand binds one definition to the remote id it resolved to in one scope.
type ResolvedCommand struct {
	Command   string
	Kind      cmdsync.CommandKind
	GuildID   string
	CommandID string
}

// FlushReport summarizes one flush.
type FlushReport struct {
	// Registry names the flushed registry.
	Registry string
	// Executions counts per-scope executions launched.
	Executions int
	// Results counts executions per terminal result.
	Results map[Result]int
	// Failures lists failed executions.
	Failures []ExecutionFailure
	// Resolved lists remote ids matched or created by successful executions.
	Resolved []ResolvedCommand
}

// Flush reconciles every pending call against snapshot and drains the queue.
//
// Executions run concurrently and settle independently. Failed remote calls
// are logged and reported in FlushReport; the returned error is non-nil only
// for configuration errors, which are raised before any remote call.
func (r *Registry) Flush(
	ctx context.Context,
	client cmdsync.RemoteCommandClient,
	snapshot cmdsync.Snapshot,
) (FlushReport, error) {
	report := FlushReport{Registry: r.name, Results: make(map[Result]int)}
	if client == nil {
		return report, fmt.Errorf("flush registry %s: nil client", r.name)
	}
	logger := loggerFromContext(ctx, r.logger)

	r.mu.Lock()
	if len(r.pending) == 0 {
		r.mu.Unlock()
		logger.InfoContext(ctx, "no pending command registrations; nothing to flush")
		return report, nil
	}

	executions, err := r.planExecutions(r.pending)
	if err != nil {
		r.mu.Unlock()
		return report, fmt.Errorf("flush registry %s: %w", r.name, err)
	}
	calls := len(r.pending)
	r.pending = nil
	r.mu.Unlock()

	logger.InfoContext(ctx, "flushing command registrations", "calls", calls, "executions", len(executions))

	outcomes := make([]outcome, len(executions))
	var wg sync.WaitGroup
	for index, exec := range executions {
		wg.Add(1)
		go func(index int, exec execution) {
			defer wg.Done()

			var settled outcome
			err := runSafely("execute "+exec.label(), func() error {
				settled = r.execute(ctx, logger, client, snapshot, exec)
				return nil
			})
			if err != nil {
				settled = outcome{execution: exec, result: ResultFailed, err: err}
			}
			outcomes[index] = settled
		}(index, exec)
	}
	wg.Wait()

	report.Executions = len(outcomes)
	for _, settled := range outcomes {
		report.Results[settled.result]++
		if settled.result != ResultFailed {
			if settled.commandID != "" {
				report.Resolved = append(report.Resolved, ResolvedCommand{
					Command:   settled.execution.call.Definition.Name,
					Kind:      settled.execution.call.Definition.Kind,
					GuildID:   settled.execution.guildID,
					CommandID: settled.commandID,
				})
			}
			continue
		}
		report.Failures = append(report.Failures, ExecutionFailure{
			Command:   settled.execution.call.Definition.Name,
			Kind:      settled.execution.call.Definition.Kind,
			GuildID:   settled.execution.guildID,
			CommandID: settled.commandID,
			Err:       settled.err,
		})
	}
	logFailures(ctx, logger, report.Failures)

	logger.InfoContext(
		ctx,
		"flushed command registrations",
		"executions", report.Executions,
		"created", report.Results[ResultCreated],
		"updated", report.Results[ResultUpdated],
		"unchanged", report.Results[ResultUnchanged],
		"reported", report.Results[ResultReported],
		"skipped", report.Results[ResultSkipped],
		"failed", report.Results[ResultFailed],
	)

	return report, nil
}

// CheckBehaviors reports the configuration error Flush would raise for the
// queued calls, without draining the queue or calling the remote.
func (r *Registry) CheckBehaviors() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pending) == 0 {
		return nil
	}
	if _, err := r.planExecutions(r.pending); err != nil {
		return fmt.Errorf("flush registry %s: %w", r.name, err)
	}

	return nil
}

// planExecutions resolves effective behaviors and fans calls out per scope.
//
// It rejects bulk_overwrite before any execution is built so no remote call
// happens for a structurally invalid batch.
func (r *Registry) planExecutions(calls []PendingCall) ([]execution, error) {
	defaultBehavior := r.cfg.behaviors.DefaultBehavior()
	if defaultBehavior == cmdsync.BehaviorBulkOverwrite {
		return nil, &cmdsync.ConfigurationError{
			Registry: r.name,
			Behavior: defaultBehavior,
			Cause:    cmdsync.ErrBulkOverwriteRejected,
		}
	}

	executions := make([]execution, 0, len(calls))
	for _, call := range calls {
		behavior := call.Behavior
		if behavior == "" {
			behavior = defaultBehavior
		}
		if _, err := Decide(behavior, false); err != nil {
			if configErr, ok := cmdsync.AsConfigurationError(err); ok {
				configErr.Registry = r.name
				configErr.Command = call.Definition.Name
			}
			return nil, err
		}

		if call.IsGlobal() {
			executions = append(executions, execution{call: call, behavior: behavior})
			continue
		}
		for _, guildID := range call.GuildIDs {
			executions = append(executions, execution{call: call, guildID: guildID, behavior: behavior})
		}
	}

	return executions, nil
}
