package cmdsync

import (
	"errors"
	"fmt"
)

var (
	// ErrBulkOverwriteRejected indicates bulk_overwrite reached the per-command path.
	ErrBulkOverwriteRejected = errors.New("cmdsync: bulk_overwrite is not valid for per-command reconciliation")
	// ErrInvalidBehavior indicates an unknown behavior token.
	ErrInvalidBehavior = errors.New("cmdsync: invalid behavior")
	// ErrInvalidDefinition indicates that a command definition violates remote API limits.
	ErrInvalidDefinition = errors.New("cmdsync: invalid command definition")
	// ErrKindMismatch indicates a definition was registered through the wrong register method.
	ErrKindMismatch = errors.New("cmdsync: command kind mismatch")
	// ErrUnsupportedCommand indicates a client cannot represent one command kind or field.
	ErrUnsupportedCommand = errors.New("cmdsync: unsupported command for platform")
	// ErrCommandNotFound indicates a remote command id does not exist in the target scope.
	ErrCommandNotFound = errors.New("cmdsync: remote command not found")
)

// ConfigurationError reports a structurally invalid configuration.
//
// It is the only error a flush propagates to its caller and is always raised
// before any remote call is made.
type ConfigurationError struct {
	// Registry names the registry being flushed when known.
	Registry string
	// Command names the offending command when the error is call-specific.
	Command string
	// Behavior is the effective behavior that was rejected.
	Behavior Behavior
	// Cause is the wrapped sentinel.
	Cause error
}

// Error returns one operator-readable summary.
func (e *ConfigurationError) Error() string {
	if e == nil {
		return "<nil>"
	}

	subject := "configuration error"
	if e.Registry != "" {
		subject += " in registry " + e.Registry
	}
	if e.Command != "" {
		subject += " for command " + e.Command
	}
	if e.Behavior != "" {
		subject += fmt.Sprintf(" (behavior %s)", e.Behavior)
	}
	if e.Cause == nil {
		return subject
	}

	return subject + ": " + e.Cause.Error()
}

// Unwrap returns the wrapped cause.
func (e *ConfigurationError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Cause
}

// AsConfigurationError extracts one ConfigurationError from wrapped error chains.
func AsConfigurationError(err error) (*ConfigurationError, bool) {
	if err == nil {
		return nil, false
	}

	var configErr *ConfigurationError
	if errors.As(err, &configErr) {
		return configErr, true
	}

	return nil, false
}
