package reconcile

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"ex-cmdsync/pkg/cmdsync"
)

// PendingCall is one queued registration awaiting the next flush.
type PendingCall struct {
	// Definition is the normalized, immutable command definition.
	Definition cmdsync.CommandDefinition
	// GuildIDs is empty for the global scope.
	GuildIDs []string
	// RegisterIfMissing allows creating the command when no remote match exists.
	RegisterIfMissing bool
	// Behavior is empty when the default behavior applies at flush time.
	Behavior cmdsync.Behavior
	// IDHints lists remote ids that match regardless of name.
	IDHints []string
}

// IsGlobal reports whether the call targets the global scope.
func (c PendingCall) IsGlobal() bool {
	return len(c.GuildIDs) == 0
}

func (c PendingCall) hasHint(id string) bool {
	for _, hint := range c.IDHints {
		if hint == id {
			return true
		}
	}

	return false
}

// Registry groups the command definitions of one owning unit along with
// their pending registrations and claimed remote identities.
type Registry struct {
	name     string
	cfg      config
	logger   *slog.Logger
	identity *IdentityState

	mu      sync.Mutex
	pending []PendingCall
}

// NewRegistry creates an empty registry.
func NewRegistry(name string, options ...Option) (*Registry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("new registry: empty name")
	}

	cfg := defaultConfig()
	for _, option := range options {
		option(&cfg)
	}

	return &Registry{
		name:     name,
		cfg:      cfg,
		logger:   cfg.logger.With("registry", name),
		identity: newIdentityState(),
	}, nil
}

// Name returns the registry name.
func (r *Registry) Name() string {
	return r.name
}

// RegisterChatInputCommand queues one chat-input command for the next flush.
func (r *Registry) RegisterChatInputCommand(input cmdsync.CommandInput, options cmdsync.RegisterOptions) error {
	if err := r.register(cmdsync.CommandKindChatInput, input, options); err != nil {
		return fmt.Errorf("register chat input command in %s: %w", r.name, err)
	}

	return nil
}

// RegisterContextMenuCommand queues one user or message context-menu command.
//
// Inputs without an explicit kind default to a message context menu.
func (r *Registry) RegisterContextMenuCommand(input cmdsync.CommandInput, options cmdsync.RegisterOptions) error {
	if err := r.register(cmdsync.CommandKindMessageContextMenu, input, options); err != nil {
		return fmt.Errorf("register context menu command in %s: %w", r.name, err)
	}

	return nil
}

func (r *Registry) register(kind cmdsync.CommandKind, input cmdsync.CommandInput, options cmdsync.RegisterOptions) error {
	definition, err := cmdsync.Normalize(kind, input)
	if err != nil {
		return err
	}

	if options.Behavior != "" {
		if err := options.Behavior.Validate(); err != nil {
			return &cmdsync.ConfigurationError{
				Registry: r.name,
				Command:  definition.Name,
				Behavior: options.Behavior,
				Cause:    err,
			}
		}
		if options.Behavior == cmdsync.BehaviorBulkOverwrite {
			return &cmdsync.ConfigurationError{
				Registry: r.name,
				Command:  definition.Name,
				Behavior: options.Behavior,
				Cause:    cmdsync.ErrBulkOverwriteRejected,
			}
		}
	}

	guildIDs := uniqueIDs(options.GuildIDs)
	if len(guildIDs) == 0 {
		guildIDs = uniqueIDs(r.cfg.guildIDs.DefaultGuildIDs())
	}

	call := PendingCall{
		Definition:        definition,
		GuildIDs:          guildIDs,
		RegisterIfMissing: options.ShouldRegisterIfMissing(),
		Behavior:          options.Behavior,
		IDHints:           uniqueIDs(options.IDHints),
	}

	r.identity.rememberName(definition.Kind, definition.Name)
	for _, hint := range call.IDHints {
		r.identity.rememberName(definition.Kind, hint)
	}
	for _, guildID := range call.GuildIDs {
		r.identity.rememberGuild(guildID)
	}
	r.cfg.fetchSet.Add(call.GuildIDs...)

	r.mu.Lock()
	r.pending = append(r.pending, call)
	r.mu.Unlock()

	r.logger.Debug(
		"queued command registration",
		"command", definition.Name,
		"kind", definition.Kind.String(),
		"guild_ids", call.GuildIDs,
		"id_hints", call.IDHints,
		"register_if_missing", call.RegisterIfMissing,
	)

	return nil
}

// PendingCalls returns a copy of the queued registrations.
func (r *Registry) PendingCalls() []PendingCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	calls := make([]PendingCall, 0, len(r.pending))
	for _, call := range r.pending {
		calls = append(calls, call.clone())
	}

	return calls
}

func (c PendingCall) clone() PendingCall {
	cloned := c
	cloned.Definition = c.Definition.Clone()
	cloned.GuildIDs = append([]string(nil), c.GuildIDs...)
	cloned.IDHints = append([]string(nil), c.IDHints...)

	return cloned
}

// Identity returns a snapshot of names and ids claimed by this registry.
func (r *Registry) Identity() IdentitySnapshot {
	return r.identity.Snapshot()
}

// GuildIDsToFetch returns guild scopes this registry needs listed before a flush.
func (r *Registry) GuildIDsToFetch() []string {
	return r.identity.Snapshot().GuildIDsToFetch
}

// uniqueIDs trims, drops empties, and de-duplicates while preserving order.
func uniqueIDs(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}

	return result
}
