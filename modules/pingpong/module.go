package pingpong

import (
	"ex-cmdsync/pkg/cmdsync"
)

const (
	pingCommandName     = "ping"
	pingUserCommandName = "Ping user"
)

// Module owns the /ping command and its user context-menu companion.
type Module struct{}

// New creates a ping-pong module with default configuration.
func New() *Module {
	return &Module{}
}

// Name returns the stable module identifier.
func (m *Module) Name() string {
	return "pingpong"
}

// Spec declares the ping commands.
//
// The context-menu command only exists on platforms with context menus.
func (m *Module) Spec() cmdsync.ModuleSpec {
	return cmdsync.ModuleSpec{
		Commands: []cmdsync.CommandSpec{
			{
				Kind: cmdsync.CommandKindChatInput,
				Input: cmdsync.CommandConfigurer(func(builder *cmdsync.CommandBuilder) {
					builder.
						SetName(pingCommandName).
						SetDescription("reply with pong!")
				}),
			},
			{
				Kind: cmdsync.CommandKindUserContextMenu,
				Input: cmdsync.NewCommandBuilder(cmdsync.CommandKindUserContextMenu).
					SetName(pingUserCommandName).
					SetContexts(cmdsync.InteractionContextGuild),
				Platforms: []cmdsync.Platform{cmdsync.PlatformDiscord},
			},
		},
	}
}
