package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"ex-cmdsync/pkg/cmdsync"

	"github.com/bwmarrin/discordgo"
)

const (
	// DriverType is the configuration token for Discord application commands.
	DriverType = "discord"
	// DriverPlatform is the remote platform served by this driver.
	DriverPlatform = cmdsync.PlatformDiscord

	defaultRequestTimeout = 15 * time.Second
)

// restSession is the subset of *discordgo.Session used for command management.
type restSession interface {
	Application(appID string, options ...discordgo.RequestOption) (*discordgo.Application, error)
	ApplicationCommands(appID string, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandCreate(
		appID string,
		guildID string,
		command *discordgo.ApplicationCommand,
		options ...discordgo.RequestOption,
	) (*discordgo.ApplicationCommand, error)
	ApplicationCommandEdit(
		appID string,
		guildID string,
		commandID string,
		command *discordgo.ApplicationCommand,
		options ...discordgo.RequestOption,
	) (*discordgo.ApplicationCommand, error)
}

// Client manages Discord application commands over the REST API.
type Client struct {
	session        restSession
	logger         *slog.Logger
	requestTimeout time.Duration

	appMu         sync.Mutex
	applicationID string
}

// ClientOption mutates client construction.
type ClientOption func(*Client)

// WithApplicationID pins the application id instead of resolving it from the token.
func WithApplicationID(applicationID string) ClientOption {
	return func(client *Client) {
		client.applicationID = strings.TrimSpace(applicationID)
	}
}

// WithRequestTimeout bounds each REST call.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(client *Client) {
		if timeout > 0 {
			client.requestTimeout = timeout
		}
	}
}

// WithLogger configures client logging.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		if logger != nil {
			client.logger = logger
		}
	}
}

// NewClient wraps one discordgo REST session.
func NewClient(session restSession, options ...ClientOption) (*Client, error) {
	if session == nil {
		return nil, fmt.Errorf("new discord client: nil session")
	}

	client := &Client{
		session:        session,
		logger:         slog.Default(),
		requestTimeout: defaultRequestTimeout,
	}
	for _, option := range options {
		option(client)
	}

	return client, nil
}

// ListCommands returns all application commands in one scope.
func (c *Client) ListCommands(ctx context.Context, guildID string) ([]cmdsync.RemoteCommand, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	applicationID, err := c.resolveApplicationID(ctx)
	if err != nil {
		return nil, mapDiscordError(cmdsync.RemoteOperationList, guildID, "", err)
	}

	listed, err := c.session.ApplicationCommands(applicationID, guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapDiscordError(cmdsync.RemoteOperationList, guildID, "", err)
	}

	commands := make([]cmdsync.RemoteCommand, 0, len(listed))
	for _, command := range listed {
		if command == nil {
			continue
		}
		commands = append(commands, fromApplicationCommand(command))
	}
	c.logger.Debug("listed discord commands", "guild_id", guildID, "count", len(commands))

	return commands, nil
}

// CreateCommand registers one application command in one scope.
func (c *Client) CreateCommand(
	ctx context.Context,
	guildID string,
	definition cmdsync.CommandDefinition,
) (cmdsync.RemoteCommand, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	applicationID, err := c.resolveApplicationID(ctx)
	if err != nil {
		return cmdsync.RemoteCommand{}, mapDiscordError(cmdsync.RemoteOperationCreate, guildID, "", err)
	}

	created, err := c.session.ApplicationCommandCreate(
		applicationID,
		guildID,
		toApplicationCommand(definition),
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return cmdsync.RemoteCommand{}, mapDiscordError(cmdsync.RemoteOperationCreate, guildID, "", err)
	}
	if created == nil {
		return cmdsync.RemoteCommand{}, fmt.Errorf("create discord command %s: empty response", definition.Name)
	}

	return fromApplicationCommand(created), nil
}

// EditCommand replaces one application command.
func (c *Client) EditCommand(
	ctx context.Context,
	guildID string,
	commandID string,
	definition cmdsync.CommandDefinition,
) (cmdsync.RemoteCommand, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	applicationID, err := c.resolveApplicationID(ctx)
	if err != nil {
		return cmdsync.RemoteCommand{}, mapDiscordError(cmdsync.RemoteOperationEdit, guildID, commandID, err)
	}

	edited, err := c.session.ApplicationCommandEdit(
		applicationID,
		guildID,
		commandID,
		toApplicationCommand(definition),
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return cmdsync.RemoteCommand{}, mapDiscordError(cmdsync.RemoteOperationEdit, guildID, commandID, err)
	}
	if edited == nil {
		return cmdsync.RemoteCommand{}, fmt.Errorf("edit discord command %s: empty response", commandID)
	}

	return fromApplicationCommand(edited), nil
}

// resolveApplicationID returns the configured id or fetches it once from the bot token.
func (c *Client) resolveApplicationID(ctx context.Context) (string, error) {
	c.appMu.Lock()
	defer c.appMu.Unlock()

	if c.applicationID != "" {
		return c.applicationID, nil
	}

	application, err := c.session.Application("@me", discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("resolve application id: %w", err)
	}
	if application == nil || application.ID == "" {
		return "", fmt.Errorf("resolve application id: empty application")
	}
	c.applicationID = application.ID
	c.logger.Info("resolved discord application id", "application_id", application.ID)

	return c.applicationID, nil
}
