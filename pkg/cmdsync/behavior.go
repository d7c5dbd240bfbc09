package cmdsync

import (
	"fmt"
	"strings"
)

// Behavior selects how a registry reacts to a remote command that diverges from its definition.
type Behavior string

const (
	// BehaviorOverwrite applies divergent definitions without logging the difference.
	BehaviorOverwrite Behavior = "overwrite"
	// BehaviorVerboseOverwrite logs every difference before applying the definition.
	BehaviorVerboseOverwrite Behavior = "verbose_overwrite"
	// BehaviorLogToConsole logs divergence and never mutates the remote command.
	BehaviorLogToConsole Behavior = "log_to_console"
	// BehaviorBulkOverwrite replaces whole scopes at once.
	//
	// It belongs to the bulk path and is rejected by per-command reconciliation.
	BehaviorBulkOverwrite Behavior = "bulk_overwrite"
)

// Validate checks whether b is a known behavior token.
func (b Behavior) Validate() error {
	switch b {
	case BehaviorOverwrite, BehaviorVerboseOverwrite, BehaviorLogToConsole, BehaviorBulkOverwrite:
		return nil
	default:
		return fmt.Errorf("validate behavior: unsupported behavior %q: %w", string(b), ErrInvalidBehavior)
	}
}

// ParseBehavior parses one configuration token into a Behavior.
//
// Hyphenated and camel-case spellings are accepted ("verbose-overwrite", "VerboseOverwrite").
func ParseBehavior(raw string) (Behavior, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	switch normalized {
	case "overwrite":
		return BehaviorOverwrite, nil
	case "verbose_overwrite", "verboseoverwrite":
		return BehaviorVerboseOverwrite, nil
	case "log_to_console", "logtoconsole":
		return BehaviorLogToConsole, nil
	case "bulk_overwrite", "bulkoverwrite":
		return BehaviorBulkOverwrite, nil
	default:
		return "", fmt.Errorf("parse behavior %q: %w", raw, ErrInvalidBehavior)
	}
}

// BehaviorProvider supplies the process-wide default behavior.
type BehaviorProvider interface {
	// DefaultBehavior returns the behavior used by calls that leave Behavior empty.
	DefaultBehavior() Behavior
}

// GuildIDsProvider supplies the process-wide default guild scope.
type GuildIDsProvider interface {
	// DefaultGuildIDs returns guild ids used by calls that declare no guild ids.
	DefaultGuildIDs() []string
}

// Defaults is the init-once process configuration consumed by registries.
type Defaults struct {
	// Behavior is used when a call leaves Behavior empty; empty means BehaviorOverwrite.
	Behavior Behavior
	// GuildIDs is used when a call declares no guild ids; empty means global scope.
	GuildIDs []string
}

// DefaultBehavior implements BehaviorProvider.
func (d Defaults) DefaultBehavior() Behavior {
	if d.Behavior == "" {
		return BehaviorOverwrite
	}

	return d.Behavior
}

// DefaultGuildIDs implements GuildIDsProvider.
func (d Defaults) DefaultGuildIDs() []string {
	return append([]string(nil), d.GuildIDs...)
}

var (
	_ BehaviorProvider = Defaults{}
	_ GuildIDsProvider = Defaults{}
)

// RegisterOptions tunes one register call.
type RegisterOptions struct {
	// GuildIDs targets guild scopes; empty falls back to default guild ids, then global.
	GuildIDs []string
	// RegisterIfMissing controls creation of unmatched commands; nil means true.
	RegisterIfMissing *bool
	// Behavior overrides the default behavior for this call.
	Behavior Behavior
	// IDHints lists remote ids known to belong to this command.
	IDHints []string
}

// ShouldRegisterIfMissing resolves RegisterIfMissing with its default.
func (o RegisterOptions) ShouldRegisterIfMissing() bool {
	if o.RegisterIfMissing == nil {
		return true
	}

	return *o.RegisterIfMissing
}
