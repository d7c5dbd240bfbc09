package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gotd/td/session"
	gotdtelegram "github.com/gotd/td/telegram"
)

const (
	defaultRuntimeSessionFile = ".cache/telegram/bot-session.json"
	defaultRuntimeAuthTimeout = time.Minute
)

type runtimeConfig struct {
	AppID          int      `json:"app_id"`
	AppHash        string   `json:"app_hash"`
	BotToken       string   `json:"bot_token"`
	AuthTimeout    string   `json:"auth_timeout"`
	RequestTimeout string   `json:"request_timeout"`
	SessionFile    string   `json:"session_file"`
	Languages      []string `json:"languages"`
}

type parsedRuntimeConfig struct {
	appID          int
	appHash        string
	botToken       string
	authTimeout    time.Duration
	requestTimeout time.Duration
	sessionFile    string
	languages      []string
}

// BuildRuntimeFromConfig builds one Telegram bot command client from config payload.
//
// The returned session func connects and authenticates the bot before
// invoking its callback; client calls are only valid inside it.
func BuildRuntimeFromConfig(
	logger *slog.Logger,
	rawConfig []byte,
) (*Client, func(ctx context.Context, fn func(ctx context.Context) error) error, error) {
	cfg, err := parseRuntimeConfig(rawConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("parse telegram runtime config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	sessionStorage, err := newGotdSessionStorage(cfg.sessionFile)
	if err != nil {
		return nil, nil, fmt.Errorf("new gotd session storage: %w", err)
	}

	gotdClient := gotdtelegram.NewClient(cfg.appID, cfg.appHash, gotdtelegram.Options{
		SessionStorage: sessionStorage,
		NoUpdates:      true,
	})

	client, err := NewClient(
		gotdClient.API(),
		WithLanguages(cfg.languages...),
		WithRequestTimeout(cfg.requestTimeout),
		WithLogger(logger),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("new telegram client: %w", err)
	}

	runner := gotdAuthenticatedClient{
		client: gotdClient,
		authenticate: func(ctx context.Context) error {
			return authenticateGotdBot(ctx, logger, gotdClient, cfg)
		},
	}

	return client, runner.Run, nil
}

func parseRuntimeConfig(raw []byte) (parsedRuntimeConfig, error) {
	if len(raw) == 0 {
		return parsedRuntimeConfig{}, fmt.Errorf("missing config")
	}

	var parsed runtimeConfig
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return parsedRuntimeConfig{}, fmt.Errorf("unmarshal: %w", err)
	}

	cfg := parsedRuntimeConfig{
		appID:          parsed.AppID,
		appHash:        strings.TrimSpace(parsed.AppHash),
		botToken:       strings.TrimSpace(parsed.BotToken),
		authTimeout:    defaultRuntimeAuthTimeout,
		requestTimeout: defaultRequestTimeout,
		sessionFile:    strings.TrimSpace(parsed.SessionFile),
	}
	for _, language := range parsed.Languages {
		if trimmed := strings.TrimSpace(language); trimmed != "" {
			cfg.languages = append(cfg.languages, trimmed)
		}
	}
	if cfg.sessionFile == "" {
		cfg.sessionFile = defaultRuntimeSessionFile
	}

	if timeout := strings.TrimSpace(parsed.AuthTimeout); timeout != "" {
		parsedTimeout, err := parsePositiveDuration("auth_timeout", timeout)
		if err != nil {
			return parsedRuntimeConfig{}, err
		}
		cfg.authTimeout = parsedTimeout
	}
	if timeout := strings.TrimSpace(parsed.RequestTimeout); timeout != "" {
		parsedTimeout, err := parsePositiveDuration("request_timeout", timeout)
		if err != nil {
			return parsedRuntimeConfig{}, err
		}
		cfg.requestTimeout = parsedTimeout
	}

	if cfg.appID <= 0 {
		return parsedRuntimeConfig{}, fmt.Errorf("app_id must be > 0")
	}
	if cfg.appHash == "" {
		return parsedRuntimeConfig{}, fmt.Errorf("app_hash is required")
	}
	if cfg.botToken == "" {
		return parsedRuntimeConfig{}, fmt.Errorf("bot_token is required")
	}

	return cfg, nil
}

func parsePositiveDuration(field string, raw string) (time.Duration, error) {
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", field, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("parse %s: must be > 0", field)
	}

	return parsed, nil
}

func newGotdSessionStorage(path string) (*session.FileStorage, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return nil, fmt.Errorf("empty session file path")
	}

	absPath, err := filepath.Abs(trimmedPath)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute session file path: %w", err)
	}
	sessionDir := filepath.Dir(absPath)
	if err := os.MkdirAll(sessionDir, 0o700); err != nil {
		return nil, fmt.Errorf("create session directory %s: %w", sessionDir, err)
	}

	return &session.FileStorage{Path: absPath}, nil
}

type gotdAuthenticatedClient struct {
	client       *gotdtelegram.Client
	authenticate func(ctx context.Context) error
}

// Run executes client runtime and performs authentication before invoking fn.
func (c gotdAuthenticatedClient) Run(ctx context.Context, fn func(runCtx context.Context) error) error {
	if c.client == nil {
		return fmt.Errorf("run gotd authenticated client: nil client")
	}
	if c.authenticate == nil {
		return fmt.Errorf("run gotd authenticated client: nil authenticate callback")
	}
	if fn == nil {
		return fmt.Errorf("run gotd authenticated client: nil run callback")
	}

	if err := c.client.Run(ctx, func(runCtx context.Context) error {
		if err := c.authenticate(runCtx); err != nil {
			return fmt.Errorf("authenticate gotd client: %w", err)
		}
		if err := fn(runCtx); err != nil {
			return fmt.Errorf("run gotd client callback: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("run gotd authenticated client: %w", err)
	}

	return nil
}

func authenticateGotdBot(
	ctx context.Context,
	logger *slog.Logger,
	client *gotdtelegram.Client,
	cfg parsedRuntimeConfig,
) error {
	if client == nil {
		return fmt.Errorf("authenticate gotd bot: nil client")
	}

	authCtx, cancel := context.WithTimeout(ctx, cfg.authTimeout)
	defer cancel()

	status, err := client.Auth().Status(authCtx)
	if err != nil {
		return fmt.Errorf("check auth status: %w", err)
	}
	if status.Authorized {
		logger.Info("telegram session restored from local storage", "session_file", cfg.sessionFile)
		return nil
	}

	if _, err := client.Auth().Bot(authCtx, cfg.botToken); err != nil {
		return fmt.Errorf("authenticate bot: %w", err)
	}
	logger.Info("telegram authorized with bot token", "session_file", cfg.sessionFile)

	return nil
}
