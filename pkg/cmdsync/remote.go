package cmdsync

import "context"

// Platform identifies which remote command API a client talks to.
type Platform string

const (
	// PlatformDiscord identifies Discord application commands.
	PlatformDiscord Platform = "discord"
	// PlatformTelegram identifies Telegram bot commands.
	PlatformTelegram Platform = "telegram"
)

// RemoteCommand is one command resource as registered on the remote platform.
type RemoteCommand struct {
	// ID is the remote resource identifier.
	ID string
	// ApplicationID identifies the owning application when the platform reports it.
	ApplicationID string
	// GuildID is empty for global commands.
	GuildID string
	// Version is the remote revision token when the platform reports it.
	Version string

	CommandDefinition
}

// RemoteCommandClient manages remote command resources.
//
// guildID is empty for the global scope. Implementations own retries, rate
// limiting, and request timeouts, and must be safe for concurrent use.
type RemoteCommandClient interface {
	// ListCommands returns all commands registered in one scope.
	ListCommands(ctx context.Context, guildID string) ([]RemoteCommand, error)
	// CreateCommand registers a new command in one scope.
	CreateCommand(ctx context.Context, guildID string, definition CommandDefinition) (RemoteCommand, error)
	// EditCommand replaces the remote command identified by commandID.
	EditCommand(ctx context.Context, guildID string, commandID string, definition CommandDefinition) (RemoteCommand, error)
}

// Snapshot is a pre-fetched, read-only view of remote commands per scope.
type Snapshot struct {
	// Global lists commands of the global scope.
	Global []RemoteCommand
	// Guilds lists commands per guild id.
	Guilds map[string][]RemoteCommand
}

// Scope returns commands for guildID, or the global scope when guildID is empty.
//
// ok is false when the snapshot holds no listing for guildID.
func (s Snapshot) Scope(guildID string) (commands []RemoteCommand, ok bool) {
	if guildID == "" {
		return s.Global, true
	}
	commands, ok = s.Guilds[guildID]

	return commands, ok
}
