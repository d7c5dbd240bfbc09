package help

import (
	"ex-cmdsync/pkg/cmdsync"
)

const (
	helpCommandName    = "help"
	explainCommandName = "Explain command"
)

// Module owns the /help command reference entry points.
type Module struct {
	guildIDs []string
}

// Option mutates help module construction.
type Option func(*Module)

// WithGuildIDs scopes the help commands to specific guilds.
func WithGuildIDs(guildIDs ...string) Option {
	return func(module *Module) {
		module.guildIDs = append(module.guildIDs, guildIDs...)
	}
}

// New creates a help module.
func New(options ...Option) *Module {
	module := &Module{}
	for _, option := range options {
		option(module)
	}

	return module
}

// Name returns the stable module identifier.
func (m *Module) Name() string {
	return "help"
}

// Spec declares the help commands.
func (m *Module) Spec() cmdsync.ModuleSpec {
	options := cmdsync.RegisterOptions{GuildIDs: append([]string(nil), m.guildIDs...)}

	return cmdsync.ModuleSpec{
		Commands: []cmdsync.CommandSpec{
			{
				Kind: cmdsync.CommandKindChatInput,
				Input: cmdsync.CommandDefinition{
					Name:        helpCommandName,
					Description: "show all available commands",
				},
				Options: options,
			},
			{
				Kind: cmdsync.CommandKindMessageContextMenu,
				Input: cmdsync.CommandDefinition{
					Kind:             cmdsync.CommandKindMessageContextMenu,
					Name:             explainCommandName,
					Contexts:         []cmdsync.InteractionContext{cmdsync.InteractionContextGuild},
					IntegrationTypes: []cmdsync.IntegrationType{cmdsync.IntegrationTypeGuildInstall},
				},
				Options:   options,
				Platforms: []cmdsync.Platform{cmdsync.PlatformDiscord},
			},
		},
	}
}
