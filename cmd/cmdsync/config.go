package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ex-cmdsync/internal/driver"
	"ex-cmdsync/internal/reconcile"
	"ex-cmdsync/pkg/cmdsync"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

const (
	defaultConfigFilePath   = "config/cmdsync.json"
	alternateConfigFilePath = "config/cmdsync.toml"
	envConfigFile           = "CMDSYNC_CONFIG_FILE"
)

type appConfig struct {
	logLevel  slog.Level
	defaults  cmdsync.Defaults
	drivers   []driver.Definition
	modules   map[string]cmdsync.RegisterOptions
	stateFile string
}

// envConfig is the environment overlay applied after the config file.
type envConfig struct {
	ConfigFile      string   `env:"CMDSYNC_CONFIG_FILE"`
	LogLevel        string   `env:"CMDSYNC_LOG_LEVEL"`
	DefaultBehavior string   `env:"CMDSYNC_DEFAULT_BEHAVIOR"`
	DefaultGuildIDs []string `env:"CMDSYNC_DEFAULT_GUILD_IDS" envSeparator:","`
	StateFile       string   `env:"CMDSYNC_STATE_FILE"`
}

type fileConfig struct {
	LogLevel  string                      `json:"log_level"`
	Defaults  fileDefaults                `json:"defaults"`
	Drivers   []fileDriverEntry           `json:"drivers"`
	Modules   map[string]fileModuleConfig `json:"modules"`
	StateFile string                      `json:"state_file"`
}

type fileDefaults struct {
	Behavior string   `json:"behavior"`
	GuildIDs []string `json:"guild_ids"`
}

type fileDriverEntry struct {
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Enabled *bool           `json:"enabled"`
	Config  json.RawMessage `json:"config"`
}

type fileModuleConfig struct {
	GuildIDs          []string `json:"guild_ids"`
	Behavior          string   `json:"behavior"`
	RegisterIfMissing *bool    `json:"register_if_missing"`
}

func loadConfig(registry *driver.Registry) (appConfig, error) {
	var overlay envConfig
	if err := env.Parse(&overlay); err != nil {
		return appConfig{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := defaultAppConfig()
	configFile, err := resolveConfigFilePath(overlay.ConfigFile)
	if err != nil {
		return appConfig{}, err
	}

	if err := applyConfigFile(&cfg, configFile); err != nil {
		return appConfig{}, err
	}
	if err := applyEnvOverlay(&cfg, overlay); err != nil {
		return appConfig{}, err
	}
	if err := validateAppConfig(&cfg, registry); err != nil {
		return appConfig{}, fmt.Errorf("validate config file %s: %w", configFile, err)
	}

	return cfg, nil
}

func resolveConfigFilePath(explicit string) (string, error) {
	if configFile := strings.TrimSpace(explicit); configFile != "" {
		return configFile, nil
	}

	candidates := []string{defaultConfigFilePath, alternateConfigFilePath}
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("config file %s is a directory", candidate)
			}
			return candidate, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat config file %s: %w", candidate, err)
		}
	}

	return "", fmt.Errorf(
		"config file not found; create %s or %s, or set %s",
		defaultConfigFilePath,
		alternateConfigFilePath,
		envConfigFile,
	)
}

func defaultAppConfig() appConfig {
	return appConfig{
		logLevel: slog.LevelInfo,
		drivers:  make([]driver.Definition, 0),
		modules:  make(map[string]cmdsync.RegisterOptions),
	}
}

// readConfigFile returns the file as JSON; TOML files are converted first
// so driver payloads reach drivers in one encoding.
func readConfigFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	if !strings.EqualFold(filepath.Ext(path), ".toml") {
		return data, nil
	}

	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	converted, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("convert config file %s: %w", path, err)
	}

	return converted, nil
}

func applyConfigFile(cfg *appConfig, path string) error {
	if cfg == nil {
		return fmt.Errorf("apply config file: nil config")
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config file path is required")
	}

	data, err := readConfigFile(path)
	if err != nil {
		return err
	}

	var parsed fileConfig
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if rawLevel := strings.TrimSpace(parsed.LogLevel); rawLevel != "" {
		level, err := parseLogLevel(rawLevel)
		if err != nil {
			return fmt.Errorf("parse log_level: %w", err)
		}
		cfg.logLevel = level
	}

	if rawBehavior := strings.TrimSpace(parsed.Defaults.Behavior); rawBehavior != "" {
		behavior, err := cmdsync.ParseBehavior(rawBehavior)
		if err != nil {
			return fmt.Errorf("parse defaults.behavior: %w", err)
		}
		cfg.defaults.Behavior = behavior
	}
	guildIDs, err := parseGuildIDs(parsed.Defaults.GuildIDs, "defaults.guild_ids")
	if err != nil {
		return err
	}
	cfg.defaults.GuildIDs = guildIDs

	cfg.drivers = make([]driver.Definition, 0, len(parsed.Drivers))
	for index, entry := range parsed.Drivers {
		enabled := true
		if entry.Enabled != nil {
			enabled = *entry.Enabled
		}
		cfg.drivers = append(cfg.drivers, driver.Definition{
			Name:    strings.TrimSpace(entry.Name),
			Type:    strings.TrimSpace(entry.Type),
			Enabled: enabled,
			Config:  append([]byte(nil), entry.Config...),
		})
		if len(entry.Config) == 0 {
			return fmt.Errorf("parse drivers[%d].config: required", index)
		}
	}

	cfg.modules = make(map[string]cmdsync.RegisterOptions, len(parsed.Modules))
	for moduleName, rawModule := range parsed.Modules {
		options, err := parseModuleConfig(rawModule, fmt.Sprintf("modules.%s", moduleName))
		if err != nil {
			return err
		}
		cfg.modules[moduleName] = options
	}

	cfg.stateFile = strings.TrimSpace(parsed.StateFile)

	return nil
}

func parseModuleConfig(raw fileModuleConfig, scope string) (cmdsync.RegisterOptions, error) {
	guildIDs, err := parseGuildIDs(raw.GuildIDs, scope+".guild_ids")
	if err != nil {
		return cmdsync.RegisterOptions{}, err
	}

	options := cmdsync.RegisterOptions{
		GuildIDs:          guildIDs,
		RegisterIfMissing: raw.RegisterIfMissing,
	}
	if rawBehavior := strings.TrimSpace(raw.Behavior); rawBehavior != "" {
		behavior, err := cmdsync.ParseBehavior(rawBehavior)
		if err != nil {
			return cmdsync.RegisterOptions{}, fmt.Errorf("parse %s.behavior: %w", scope, err)
		}
		options.Behavior = behavior
	}

	return options, nil
}

func parseGuildIDs(raw []string, scope string) ([]string, error) {
	guildIDs := make([]string, 0, len(raw))
	for index, guildID := range raw {
		guildID = strings.TrimSpace(guildID)
		if guildID == "" {
			return nil, fmt.Errorf("parse %s[%d]: empty guild id", scope, index)
		}
		guildIDs = append(guildIDs, guildID)
	}

	return guildIDs, nil
}

func applyEnvOverlay(cfg *appConfig, overlay envConfig) error {
	if cfg == nil {
		return fmt.Errorf("apply env overlay: nil config")
	}

	if rawLevel := strings.TrimSpace(overlay.LogLevel); rawLevel != "" {
		level, err := parseLogLevel(rawLevel)
		if err != nil {
			return fmt.Errorf("parse CMDSYNC_LOG_LEVEL: %w", err)
		}
		cfg.logLevel = level
	}
	if rawBehavior := strings.TrimSpace(overlay.DefaultBehavior); rawBehavior != "" {
		behavior, err := cmdsync.ParseBehavior(rawBehavior)
		if err != nil {
			return fmt.Errorf("parse CMDSYNC_DEFAULT_BEHAVIOR: %w", err)
		}
		cfg.defaults.Behavior = behavior
	}
	if len(overlay.DefaultGuildIDs) > 0 {
		guildIDs, err := parseGuildIDs(overlay.DefaultGuildIDs, "CMDSYNC_DEFAULT_GUILD_IDS")
		if err != nil {
			return err
		}
		cfg.defaults.GuildIDs = guildIDs
	}
	if stateFile := strings.TrimSpace(overlay.StateFile); stateFile != "" {
		cfg.stateFile = stateFile
	}

	return nil
}

func validateAppConfig(cfg *appConfig, registry *driver.Registry) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if registry == nil {
		return fmt.Errorf("nil driver registry")
	}

	enabledDrivers := 0
	seenNames := make(map[string]struct{}, len(cfg.drivers))
	for _, definition := range cfg.drivers {
		if definition.Name == "" {
			return fmt.Errorf("drivers[].name is required")
		}
		if definition.Type == "" {
			return fmt.Errorf("drivers[%s].type is required", definition.Name)
		}
		if _, exists := seenNames[definition.Name]; exists {
			return fmt.Errorf("drivers[%s]: duplicate name", definition.Name)
		}
		seenNames[definition.Name] = struct{}{}
		if !definition.Enabled {
			continue
		}
		if _, err := registry.PlatformForType(definition.Type); err != nil {
			return fmt.Errorf("drivers[%s].type: %w", definition.Name, err)
		}
		enabledDrivers++
	}
	if enabledDrivers == 0 {
		return fmt.Errorf("at least one enabled driver is required")
	}

	knownModules := make(map[string]struct{}, len(runtimeModules()))
	for _, module := range runtimeModules() {
		knownModules[module.Name()] = struct{}{}
	}
	for moduleName := range cfg.modules {
		if _, known := knownModules[moduleName]; !known {
			return fmt.Errorf("modules.%s: unknown module", moduleName)
		}
	}

	return nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return reconcile.LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unsupported level %q", raw)
	}
}
