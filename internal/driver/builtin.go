package driver

import (
	"context"
	"fmt"
	"log/slog"

	"ex-cmdsync/internal/driver/discord"
	"ex-cmdsync/internal/driver/telegram"
)

// NewBuiltinRegistry constructs the runtime registry with all built-in drivers.
func NewBuiltinRegistry() (*Registry, error) {
	return NewRegistry([]Descriptor{
		{
			Type:     discord.DriverType,
			Platform: discord.DriverPlatform,
			Builder: func(
				_ context.Context,
				definition Definition,
				builderLogger *slog.Logger,
			) (Runtime, error) {
				client, err := discord.BuildClientFromConfig(builderLogger, definition.Config)
				if err != nil {
					return Runtime{}, fmt.Errorf("build discord client from config: %w", err)
				}

				return Runtime{
					Name:     definition.Name,
					Platform: discord.DriverPlatform,
					Client:   client,
				}, nil
			},
		},
		{
			Type:     telegram.DriverType,
			Platform: telegram.DriverPlatform,
			Builder: func(
				_ context.Context,
				definition Definition,
				builderLogger *slog.Logger,
			) (Runtime, error) {
				client, session, err := telegram.BuildRuntimeFromConfig(builderLogger, definition.Config)
				if err != nil {
					return Runtime{}, fmt.Errorf("build telegram runtime from config: %w", err)
				}

				return Runtime{
					Name:     definition.Name,
					Platform: telegram.DriverPlatform,
					Client:   client,
					Session:  session,
				}, nil
			},
		},
	})
}
