package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"

	"ex-cmdsync/internal/driver"
	"ex-cmdsync/internal/reconcile"
	"ex-cmdsync/pkg/cmdsync"
)

func writeConfigFile(t *testing.T, path string, contents string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("create config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
}

func newTestDriverRegistry(t *testing.T) *driver.Registry {
	t.Helper()

	registry, err := driver.NewBuiltinRegistry()
	if err != nil {
		t.Fatalf("new builtin registry failed: %v", err)
	}

	return registry
}

func clearConfigEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"CMDSYNC_CONFIG_FILE",
		"CMDSYNC_LOG_LEVEL",
		"CMDSYNC_DEFAULT_BEHAVIOR",
		"CMDSYNC_DEFAULT_GUILD_IDS",
		"CMDSYNC_STATE_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    slog.Level
		wantErr bool
	}{
		{name: "trace", input: "trace", want: reconcile.LevelTrace},
		{name: "debug", input: "debug", want: slog.LevelDebug},
		{name: "info", input: "info", want: slog.LevelInfo},
		{name: "warn", input: "warn", want: slog.LevelWarn},
		{name: "warning", input: "WARNING", want: slog.LevelWarn},
		{name: "error", input: "error", want: slog.LevelError},
		{name: "invalid", input: "verbose", wantErr: true},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			got, err := parseLogLevel(testCase.input)
			if testCase.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !testCase.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if testCase.wantErr {
				return
			}
			if got != testCase.want {
				t.Fatalf("level = %v, want %v", got, testCase.want)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("loads all supported fields from json config file", func(t *testing.T) {
		clearConfigEnv(t)
		configPath := filepath.Join(t.TempDir(), "cmdsync.json")
		writeConfigFile(t, configPath, `{
			"log_level":"debug",
			"defaults":{"behavior":"verbose-overwrite","guild_ids":["g1"," g2 "]},
			"drivers":[
				{"name":"discord-main","type":"discord","config":{"token":"abc"}},
				{"name":"telegram-main","type":"telegram","enabled":false,"config":{"app_id":1}}
			],
			"modules":{"help":{"guild_ids":["g3"],"behavior":"log_to_console","register_if_missing":false}},
			"state_file":"state/ids.json"
		}`)
		t.Setenv("CMDSYNC_CONFIG_FILE", configPath)

		cfg, err := loadConfig(newTestDriverRegistry(t))
		if err != nil {
			t.Fatalf("load config failed: %v", err)
		}

		if cfg.logLevel != slog.LevelDebug {
			t.Fatalf("log level = %v, want %v", cfg.logLevel, slog.LevelDebug)
		}
		if cfg.defaults.Behavior != cmdsync.BehaviorVerboseOverwrite {
			t.Fatalf("default behavior = %q, want verbose_overwrite", cfg.defaults.Behavior)
		}
		if !reflect.DeepEqual(cfg.defaults.GuildIDs, []string{"g1", "g2"}) {
			t.Fatalf("default guild ids = %v, want [g1 g2]", cfg.defaults.GuildIDs)
		}
		if len(cfg.drivers) != 2 {
			t.Fatalf("drivers len = %d, want 2", len(cfg.drivers))
		}
		if !cfg.drivers[0].Enabled || cfg.drivers[1].Enabled {
			t.Fatalf("driver enabled flags = %v/%v, want true/false", cfg.drivers[0].Enabled, cfg.drivers[1].Enabled)
		}
		if string(cfg.drivers[0].Config) != `{"token":"abc"}` {
			t.Fatalf("driver config = %s, want token payload", cfg.drivers[0].Config)
		}

		helpOptions := cfg.modules["help"]
		if helpOptions.Behavior != cmdsync.BehaviorLogToConsole {
			t.Fatalf("help behavior = %q, want log_to_console", helpOptions.Behavior)
		}
		if helpOptions.ShouldRegisterIfMissing() {
			t.Fatal("help register_if_missing = true, want false")
		}
		if !reflect.DeepEqual(helpOptions.GuildIDs, []string{"g3"}) {
			t.Fatalf("help guild ids = %v, want [g3]", helpOptions.GuildIDs)
		}
		if cfg.stateFile != "state/ids.json" {
			t.Fatalf("state file = %q, want state/ids.json", cfg.stateFile)
		}
	})

	t.Run("loads toml config file", func(t *testing.T) {
		clearConfigEnv(t)
		configPath := filepath.Join(t.TempDir(), "cmdsync.toml")
		writeConfigFile(t, configPath, `
log_level = "warn"

[defaults]
behavior = "log_to_console"

[[drivers]]
name = "telegram-main"
type = "telegram"

[drivers.config]
app_id = 123
app_hash = "hash"
languages = ["de"]

[modules.pingpong]
register_if_missing = false
`)
		t.Setenv("CMDSYNC_CONFIG_FILE", configPath)

		cfg, err := loadConfig(newTestDriverRegistry(t))
		if err != nil {
			t.Fatalf("load config failed: %v", err)
		}

		if cfg.logLevel != slog.LevelWarn {
			t.Fatalf("log level = %v, want %v", cfg.logLevel, slog.LevelWarn)
		}
		if cfg.defaults.Behavior != cmdsync.BehaviorLogToConsole {
			t.Fatalf("default behavior = %q, want log_to_console", cfg.defaults.Behavior)
		}
		if len(cfg.drivers) != 1 || cfg.drivers[0].Type != "telegram" {
			t.Fatalf("drivers = %+v, want one telegram driver", cfg.drivers)
		}

		var payload map[string]any
		if err := json.Unmarshal(cfg.drivers[0].Config, &payload); err != nil {
			t.Fatalf("driver config is not json: %v", err)
		}
		if payload["app_hash"] != "hash" {
			t.Fatalf("driver config app_hash = %v, want hash", payload["app_hash"])
		}
		if cfg.modules["pingpong"].ShouldRegisterIfMissing() {
			t.Fatal("pingpong register_if_missing = true, want false")
		}
	})

	t.Run("environment overlay wins over file values", func(t *testing.T) {
		clearConfigEnv(t)
		configPath := filepath.Join(t.TempDir(), "cmdsync.json")
		writeConfigFile(t, configPath, `{
			"log_level":"info",
			"defaults":{"behavior":"overwrite","guild_ids":["g1"]},
			"drivers":[{"name":"discord-main","type":"discord","config":{"token":"abc"}}],
			"state_file":"file.json"
		}`)
		t.Setenv("CMDSYNC_CONFIG_FILE", configPath)
		t.Setenv("CMDSYNC_LOG_LEVEL", "error")
		t.Setenv("CMDSYNC_DEFAULT_BEHAVIOR", "log_to_console")
		t.Setenv("CMDSYNC_DEFAULT_GUILD_IDS", "g8,g9")
		t.Setenv("CMDSYNC_STATE_FILE", "env.json")

		cfg, err := loadConfig(newTestDriverRegistry(t))
		if err != nil {
			t.Fatalf("load config failed: %v", err)
		}

		if cfg.logLevel != slog.LevelError {
			t.Fatalf("log level = %v, want %v", cfg.logLevel, slog.LevelError)
		}
		if cfg.defaults.Behavior != cmdsync.BehaviorLogToConsole {
			t.Fatalf("default behavior = %q, want log_to_console", cfg.defaults.Behavior)
		}
		if !reflect.DeepEqual(cfg.defaults.GuildIDs, []string{"g8", "g9"}) {
			t.Fatalf("default guild ids = %v, want [g8 g9]", cfg.defaults.GuildIDs)
		}
		if cfg.stateFile != "env.json" {
			t.Fatalf("state file = %q, want env.json", cfg.stateFile)
		}
	})

	t.Run("invalid config values fail", func(t *testing.T) {
		tests := []struct {
			name       string
			fileJSON   string
			wantErrSub string
		}{
			{
				name:       "invalid log level",
				fileJSON:   `{"log_level":"loud","drivers":[{"name":"d","type":"discord","config":{}}]}`,
				wantErrSub: "parse log_level",
			},
			{
				name:       "invalid default behavior",
				fileJSON:   `{"defaults":{"behavior":"merge"},"drivers":[{"name":"d","type":"discord","config":{}}]}`,
				wantErrSub: "parse defaults.behavior",
			},
			{
				name:       "empty default guild id",
				fileJSON:   `{"defaults":{"guild_ids":[" "]},"drivers":[{"name":"d","type":"discord","config":{}}]}`,
				wantErrSub: "parse defaults.guild_ids[0]",
			},
			{
				name:       "missing driver config",
				fileJSON:   `{"drivers":[{"name":"d","type":"discord"}]}`,
				wantErrSub: "parse drivers[0].config",
			},
			{
				name:       "unsupported driver type",
				fileJSON:   `{"drivers":[{"name":"d","type":"slack","config":{}}]}`,
				wantErrSub: "drivers[d].type",
			},
			{
				name:       "duplicate driver name",
				fileJSON:   `{"drivers":[{"name":"d","type":"discord","config":{}},{"name":"d","type":"discord","enabled":false,"config":{}}]}`,
				wantErrSub: "duplicate name",
			},
			{
				name:       "no enabled driver",
				fileJSON:   `{"drivers":[{"name":"d","type":"discord","enabled":false,"config":{}}]}`,
				wantErrSub: "at least one enabled driver",
			},
			{
				name:       "unknown module",
				fileJSON:   `{"drivers":[{"name":"d","type":"discord","config":{}}],"modules":{"weather":{}}}`,
				wantErrSub: "modules.weather: unknown module",
			},
			{
				name:       "invalid module behavior",
				fileJSON:   `{"drivers":[{"name":"d","type":"discord","config":{}}],"modules":{"help":{"behavior":"merge"}}}`,
				wantErrSub: "parse modules.help.behavior",
			},
		}

		for _, testCase := range tests {
			testCase := testCase
			t.Run(testCase.name, func(t *testing.T) {
				clearConfigEnv(t)
				configPath := filepath.Join(t.TempDir(), "cmdsync.json")
				writeConfigFile(t, configPath, testCase.fileJSON)
				t.Setenv("CMDSYNC_CONFIG_FILE", configPath)

				_, err := loadConfig(newTestDriverRegistry(t))
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), testCase.wantErrSub) {
					t.Fatalf("error = %v, want substring %q", err, testCase.wantErrSub)
				}
			})
		}
	})

	t.Run("invalid environment overlay fails", func(t *testing.T) {
		clearConfigEnv(t)
		configPath := filepath.Join(t.TempDir(), "cmdsync.json")
		writeConfigFile(t, configPath, `{"drivers":[{"name":"d","type":"discord","config":{}}]}`)
		t.Setenv("CMDSYNC_CONFIG_FILE", configPath)
		t.Setenv("CMDSYNC_DEFAULT_BEHAVIOR", "merge")

		_, err := loadConfig(newTestDriverRegistry(t))
		if err == nil || !strings.Contains(err.Error(), "CMDSYNC_DEFAULT_BEHAVIOR") {
			t.Fatalf("error = %v, want CMDSYNC_DEFAULT_BEHAVIOR failure", err)
		}
	})

	t.Run("missing explicit config file fails", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("CMDSYNC_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.json"))
		if _, err := loadConfig(newTestDriverRegistry(t)); err == nil {
			t.Fatal("expected error for missing config file")
		}
	})
}

func TestHintStateRoundTrip(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "nested", "ids.json")

	state, err := loadHintState(statePath)
	if err != nil {
		t.Fatalf("load missing state failed: %v", err)
	}
	state.Record("discord-main", []reconcile.FlushReport{{
		Registry: "pingpong",
		Resolved: []reconcile.ResolvedCommand{
			{Command: "ping", Kind: cmdsync.CommandKindChatInput, CommandID: "20"},
			{Command: "ping", Kind: cmdsync.CommandKindChatInput, GuildID: "g1", CommandID: "10"},
			{Command: "ping", Kind: cmdsync.CommandKindChatInput, CommandID: "20"},
		},
	}})
	if err := state.Save(statePath); err != nil {
		t.Fatalf("save state failed: %v", err)
	}

	reloaded, err := loadHintState(statePath)
	if err != nil {
		t.Fatalf("reload state failed: %v", err)
	}
	hints := reloaded.Hints("discord-main", "pingpong")
	if got := hints(cmdsync.CommandKindChatInput, "ping"); !reflect.DeepEqual(got, []string{"10", "20"}) {
		t.Fatalf("ping hints = %v, want [10 20]", got)
	}
	if got := hints(cmdsync.CommandKindUserContextMenu, "ping"); len(got) != 0 {
		t.Fatalf("context menu hints = %v, want none", got)
	}
	if got := reloaded.Hints("telegram-main", "pingpong")(cmdsync.CommandKindChatInput, "ping"); len(got) != 0 {
		t.Fatalf("other driver hints = %v, want none", got)
	}
}

func TestLoadHintStateRejectsMalformedFile(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "ids.json")
	writeConfigFile(t, statePath, "{")

	if _, err := loadHintState(statePath); err == nil {
		t.Fatal("expected error for malformed state file")
	}
}

// memoryClient is an in-memory remote command store.
type memoryClient struct {
	mu      sync.Mutex
	scopes  map[string][]cmdsync.RemoteCommand
	nextID  int
	creates int
	edits   int
}

func newMemoryClient() *memoryClient {
	return &memoryClient{scopes: make(map[string][]cmdsync.RemoteCommand)}
}

func (c *memoryClient) ListCommands(_ context.Context, guildID string) ([]cmdsync.RemoteCommand, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]cmdsync.RemoteCommand(nil), c.scopes[guildID]...), nil
}

func (c *memoryClient) CreateCommand(
	_ context.Context,
	guildID string,
	definition cmdsync.CommandDefinition,
) (cmdsync.RemoteCommand, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.creates++
	c.nextID++
	created := cmdsync.RemoteCommand{
		ID:                strconv.Itoa(c.nextID),
		GuildID:           guildID,
		CommandDefinition: definition.Clone(),
	}
	c.scopes[guildID] = append(c.scopes[guildID], created)

	return created, nil
}

func (c *memoryClient) EditCommand(
	_ context.Context,
	guildID string,
	commandID string,
	definition cmdsync.CommandDefinition,
) (cmdsync.RemoteCommand, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.edits++
	for index, command := range c.scopes[guildID] {
		if command.ID == commandID {
			command.CommandDefinition = definition.Clone()
			c.scopes[guildID][index] = command
			return command, nil
		}
	}

	return cmdsync.RemoteCommand{}, cmdsync.ErrCommandNotFound
}

func (c *memoryClient) counts() (creates int, edits int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.creates, c.edits
}

func TestSyncRuntimes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	discordClient := newMemoryClient()
	telegramClient := newMemoryClient()
	runtimes := []driver.Runtime{
		{Name: "discord-main", Platform: cmdsync.PlatformDiscord, Client: discordClient},
		{Name: "telegram-main", Platform: cmdsync.PlatformTelegram, Client: telegramClient},
	}
	cfg := defaultAppConfig()
	cfg.modules["help"] = cmdsync.RegisterOptions{GuildIDs: []string{"g1"}}
	state := newHintState()

	if err := syncRuntimes(context.Background(), logger, cfg, runtimes, runtimeModules(), state); err != nil {
		t.Fatalf("first sync failed: %v", err)
	}

	if creates, _ := discordClient.counts(); creates != 4 {
		t.Fatalf("discord creates = %d, want 4", creates)
	}
	if creates, _ := telegramClient.counts(); creates != 2 {
		t.Fatalf("telegram creates = %d, want 2", creates)
	}
	if got := len(discordClient.scopes["g1"]); got != 2 {
		t.Fatalf("discord g1 commands = %d, want 2", got)
	}
	if got := state.Hints("discord-main", "pingpong")(cmdsync.CommandKindChatInput, "ping"); len(got) != 1 {
		t.Fatalf("recorded ping hints = %v, want one id", got)
	}

	if err := syncRuntimes(context.Background(), logger, cfg, runtimes, runtimeModules(), state); err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if creates, edits := discordClient.counts(); creates != 4 || edits != 0 {
		t.Fatalf("discord creates/edits after resync = %d/%d, want 4/0", creates, edits)
	}
	if creates, edits := telegramClient.counts(); creates != 2 || edits != 0 {
		t.Fatalf("telegram creates/edits after resync = %d/%d, want 2/0", creates, edits)
	}
}

func TestSyncRuntimesContinuesAfterConfigurationError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := newMemoryClient()
	runtimes := []driver.Runtime{
		{Name: "discord-main", Platform: cmdsync.PlatformDiscord, Client: client},
	}
	cfg := defaultAppConfig()
	cfg.modules["pingpong"] = cmdsync.RegisterOptions{Behavior: cmdsync.BehaviorBulkOverwrite}

	err := syncRuntimes(context.Background(), logger, cfg, runtimes, runtimeModules(), newHintState())
	if err == nil {
		t.Fatal("expected bulk overwrite to be rejected")
	}
	if !strings.Contains(err.Error(), "sync driver discord-main") {
		t.Fatalf("error = %v, want driver context", err)
	}
	if creates, _ := client.counts(); creates != 0 {
		t.Fatalf("creates = %d, want 0", creates)
	}
}
