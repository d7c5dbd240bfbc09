package reconcile

import (
	"ex-cmdsync/pkg/cmdsync"
)

// matchReason records which predicate selected a remote command.
type matchReason string

const (
	matchByIDHint matchReason = "id_hint"
	matchByName   matchReason = "name"
)

// matchResult is the outcome of matching one call against one scope listing.
type matchResult struct {
	command cmdsync.RemoteCommand
	reason  matchReason
	// candidates counts remote commands satisfying the winning predicate.
	candidates int
}

// matchCommand finds the remote command a pending call targets.
//
// Kind must match exactly. An id hint wins regardless of name; when no hinted
// id is listed, exact name equality applies. The first candidate in listing
// order is used when several satisfy the same predicate.
func matchCommand(call PendingCall, remote []cmdsync.RemoteCommand) (matchResult, bool) {
	if len(call.IDHints) > 0 {
		if result, found := firstMatch(remote, matchByIDHint, func(command cmdsync.RemoteCommand) bool {
			return command.Kind == call.Definition.Kind && call.hasHint(command.ID)
		}); found {
			return result, true
		}
	}

	return firstMatch(remote, matchByName, func(command cmdsync.RemoteCommand) bool {
		return command.Kind == call.Definition.Kind && command.Name == call.Definition.Name
	})
}

func firstMatch(
	remote []cmdsync.RemoteCommand,
	reason matchReason,
	predicate func(cmdsync.RemoteCommand) bool,
) (matchResult, bool) {
	result := matchResult{reason: reason}
	for _, command := range remote {
		if !predicate(command) {
			continue
		}
		if result.candidates == 0 {
			result.command = command
		}
		result.candidates++
	}

	return result, result.candidates > 0
}
