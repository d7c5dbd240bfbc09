package discord

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

type clientConfig struct {
	Token          string `json:"token"`
	ApplicationID  string `json:"application_id"`
	RequestTimeout string `json:"request_timeout"`
	MaxRestRetries int    `json:"max_rest_retries"`
}

type parsedClientConfig struct {
	token          string
	applicationID  string
	requestTimeout time.Duration
	maxRestRetries int
}

// BuildClientFromConfig builds one Discord command client from config payload.
//
// Only the REST API is used; no gateway connection is opened.
func BuildClientFromConfig(logger *slog.Logger, rawConfig []byte) (*Client, error) {
	cfg, err := parseClientConfig(rawConfig)
	if err != nil {
		return nil, fmt.Errorf("parse discord client config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	session, err := discordgo.New("Bot " + cfg.token)
	if err != nil {
		return nil, fmt.Errorf("new discord session: %w", err)
	}
	session.ShouldRetryOnRateLimit = true
	if cfg.maxRestRetries > 0 {
		session.MaxRestRetries = cfg.maxRestRetries
	}

	client, err := NewClient(
		session,
		WithApplicationID(cfg.applicationID),
		WithRequestTimeout(cfg.requestTimeout),
		WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("new discord client: %w", err)
	}

	return client, nil
}

func parseClientConfig(raw []byte) (parsedClientConfig, error) {
	if len(raw) == 0 {
		return parsedClientConfig{}, fmt.Errorf("missing config")
	}

	var parsed clientConfig
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return parsedClientConfig{}, fmt.Errorf("unmarshal: %w", err)
	}

	cfg := parsedClientConfig{
		token:          strings.TrimPrefix(strings.TrimSpace(parsed.Token), "Bot "),
		applicationID:  strings.TrimSpace(parsed.ApplicationID),
		requestTimeout: defaultRequestTimeout,
		maxRestRetries: parsed.MaxRestRetries,
	}
	if cfg.token == "" {
		return parsedClientConfig{}, fmt.Errorf("token is required")
	}
	if cfg.maxRestRetries < 0 {
		return parsedClientConfig{}, fmt.Errorf("max_rest_retries must be >= 0")
	}

	if timeout := strings.TrimSpace(parsed.RequestTimeout); timeout != "" {
		parsedTimeout, err := time.ParseDuration(timeout)
		if err != nil {
			return parsedClientConfig{}, fmt.Errorf("parse request_timeout: %w", err)
		}
		if parsedTimeout <= 0 {
			return parsedClientConfig{}, fmt.Errorf("parse request_timeout: must be > 0")
		}
		cfg.requestTimeout = parsedTimeout
	}

	return cfg, nil
}
