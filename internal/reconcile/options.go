package reconcile

import (
	"log/slog"

	"ex-cmdsync/pkg/cmdsync"
)

// LevelTrace is the slog level used for per-candidate matching detail.
const LevelTrace = slog.Level(-8)

// config stores resolved registry settings after option application.
type config struct {
	logger    *slog.Logger
	behaviors cmdsync.BehaviorProvider
	guildIDs  cmdsync.GuildIDsProvider
	fetchSet  *GuildFetchSet
	platform  cmdsync.Platform
}

// Option mutates registry and coordinator construction configuration.
type Option func(*config)

func defaultConfig() config {
	defaults := cmdsync.Defaults{}

	return config{
		logger:    slog.Default(),
		behaviors: defaults,
		guildIDs:  defaults,
	}
}

// WithLogger configures the logger used for registration and flush reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithDefaults configures both default providers from one init-once value.
func WithDefaults(defaults cmdsync.Defaults) Option {
	return func(cfg *config) {
		cfg.behaviors = defaults
		cfg.guildIDs = defaults
	}
}

// WithBehaviorProvider configures the default behavior source.
func WithBehaviorProvider(provider cmdsync.BehaviorProvider) Option {
	return func(cfg *config) {
		if provider != nil {
			cfg.behaviors = provider
		}
	}
}

// WithGuildIDsProvider configures the default guild scope source.
func WithGuildIDsProvider(provider cmdsync.GuildIDsProvider) Option {
	return func(cfg *config) {
		if provider != nil {
			cfg.guildIDs = provider
		}
	}
}

// WithGuildFetchSet shares one process-wide guild fetch set across registries.
func WithGuildFetchSet(fetchSet *GuildFetchSet) Option {
	return func(cfg *config) {
		if fetchSet != nil {
			cfg.fetchSet = fetchSet
		}
	}
}

// WithPlatform restricts module registration to declarations targeting platform.
func WithPlatform(platform cmdsync.Platform) Option {
	return func(cfg *config) {
		cfg.platform = platform
	}
}
