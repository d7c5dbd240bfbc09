package cmdsync

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RemoteOperation identifies one remote client operation.
type RemoteOperation string

const (
	// RemoteOperationList identifies ListCommands calls.
	RemoteOperationList RemoteOperation = "list"
	// RemoteOperationCreate identifies CreateCommand calls.
	RemoteOperationCreate RemoteOperation = "create"
	// RemoteOperationEdit identifies EditCommand calls.
	RemoteOperationEdit RemoteOperation = "edit"
)

// RemoteErrorKind describes coarse-grained remote failure classification.
type RemoteErrorKind string

const (
	// RemoteErrorKindRateLimited indicates platform-side rate limiting.
	RemoteErrorKindRateLimited RemoteErrorKind = "rate_limited"
	// RemoteErrorKindTemporary indicates retryable transient failure.
	RemoteErrorKindTemporary RemoteErrorKind = "temporary"
	// RemoteErrorKindPermanent indicates non-retryable failure such as validation or permission errors.
	RemoteErrorKindPermanent RemoteErrorKind = "permanent"
	// RemoteErrorKindUnknown indicates unclassified failure.
	RemoteErrorKindUnknown RemoteErrorKind = "unknown"
)

// RemoteCallError carries structured metadata for one failed remote call.
type RemoteCallError struct {
	// Operation identifies which client operation failed.
	Operation RemoteOperation
	// Kind classifies whether and how callers should retry.
	Kind RemoteErrorKind
	// Platform identifies which remote platform produced the failure.
	Platform Platform
	// CommandName names the command involved when known.
	CommandName string
	// CommandID is the remote id involved when known.
	CommandID string
	// GuildID is empty for the global scope.
	GuildID string
	// RetryAfter carries the suggested retry delay for rate-limited failures when known.
	RetryAfter time.Duration
	// Code carries the platform status or RPC code when known.
	Code int
	// Type carries the platform error type token when known.
	Type string
	// Cause is the wrapped platform/transport error.
	Cause error
}

// Error returns one operator-readable failure summary.
func (e *RemoteCallError) Error() string {
	if e == nil {
		return "<nil>"
	}

	fields := make([]string, 0, 9)
	if operation := strings.TrimSpace(string(e.Operation)); operation != "" {
		fields = append(fields, "operation="+operation)
	}
	if kind := strings.TrimSpace(string(e.Kind)); kind != "" {
		fields = append(fields, "kind="+kind)
	}
	if platform := strings.TrimSpace(string(e.Platform)); platform != "" {
		fields = append(fields, "platform="+platform)
	}
	if name := strings.TrimSpace(e.CommandName); name != "" {
		fields = append(fields, "command="+name)
	}
	if id := strings.TrimSpace(e.CommandID); id != "" {
		fields = append(fields, "command_id="+id)
	}
	if guildID := strings.TrimSpace(e.GuildID); guildID != "" {
		fields = append(fields, "guild_id="+guildID)
	}
	if e.RetryAfter > 0 {
		fields = append(fields, "retry_after="+e.RetryAfter.String())
	}
	if e.Code != 0 {
		fields = append(fields, fmt.Sprintf("code=%d", e.Code))
	}
	if errorType := strings.TrimSpace(e.Type); errorType != "" {
		fields = append(fields, "type="+errorType)
	}

	if len(fields) == 0 {
		if e.Cause == nil {
			return "remote call error"
		}
		return fmt.Sprintf("remote call error: %v", e.Cause)
	}

	if e.Cause == nil {
		return "remote call error: " + strings.Join(fields, " ")
	}
	return "remote call error: " + strings.Join(fields, " ") + ": " + e.Cause.Error()
}

// Unwrap returns the wrapped root cause.
func (e *RemoteCallError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Cause
}

// AsRemoteCallError extracts one RemoteCallError from wrapped error chains.
func AsRemoteCallError(err error) (*RemoteCallError, bool) {
	if err == nil {
		return nil, false
	}

	var remoteErr *RemoteCallError
	if errors.As(err, &remoteErr) {
		return remoteErr, true
	}

	return nil, false
}

// AsRemoteRateLimit extracts retry delay metadata from rate-limited remote errors.
//
// It returns `(0, false)` if err is not classified as rate-limited.
// It returns `(0, true)` when rate-limited but no retry-after hint is known.
func AsRemoteRateLimit(err error) (time.Duration, bool) {
	remoteErr, ok := AsRemoteCallError(err)
	if !ok || remoteErr == nil || remoteErr.Kind != RemoteErrorKindRateLimited {
		return 0, false
	}

	return remoteErr.RetryAfter, true
}
