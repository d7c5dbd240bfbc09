package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"sync"
	"time"

	"ex-cmdsync/pkg/cmdsync"

	"github.com/gotd/td/tg"
)

const (
	defaultRequestTimeout = 10 * time.Second
	maxBotCommands        = 100
)

var botCommandNamePattern = regexp.MustCompile(`^[a-z0-9_]{1,32}$`)

// botCommandsAPI is the subset of *tg.Client used for bot command management.
type botCommandsAPI interface {
	BotsGetBotCommands(ctx context.Context, request *tg.BotsGetBotCommandsRequest) ([]tg.BotCommand, error)
	BotsSetBotCommands(ctx context.Context, request *tg.BotsSetBotCommandsRequest) (bool, error)
}

// Client manages Telegram bot commands as a remote command registry.
//
// Telegram stores one command list per (scope, language) pair and only
// supports whole-list replacement, so a command's id is its name and every
// create or edit rewrites the list. Writes are serialized per client.
type Client struct {
	api            botCommandsAPI
	logger         *slog.Logger
	requestTimeout time.Duration
	languages      []string

	mu sync.Mutex
}

// ClientOption mutates client construction.
type ClientOption func(*Client)

// WithLanguages configures language codes whose descriptions are managed
// from DescriptionLocalizations.
func WithLanguages(languages ...string) ClientOption {
	return func(client *Client) {
		for _, language := range languages {
			if language != "" && !slices.Contains(client.languages, language) {
				client.languages = append(client.languages, language)
			}
		}
	}
}

// WithRequestTimeout bounds each RPC.
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

// NewClient wraps one gotd RPC client.
func NewClient(api botCommandsAPI, options ...ClientOption) (*Client, error) {
	if api == nil {
		return nil, fmt.Errorf("new telegram client: nil api")
	}

	client := &Client{
		api:            api,
		logger:         slog.Default(),
		requestTimeout: defaultRequestTimeout,
	}
	for _, option := range options {
		option(client)
	}

	return client, nil
}

// ListCommands returns the bot commands of one scope.
//
// Descriptions from each configured language that differ from the default
// description are folded into DescriptionLocalizations.
func (c *Client) ListCommands(ctx context.Context, guildID string) ([]cmdsync.RemoteCommand, error) {
	scope, err := parseScope(guildID)
	if err != nil {
		return nil, mapTelegramError(cmdsync.RemoteOperationList, guildID, "", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	listed, err := c.getCommands(ctx, scope, "")
	if err != nil {
		return nil, mapTelegramError(cmdsync.RemoteOperationList, guildID, "", err)
	}

	commands := make([]cmdsync.RemoteCommand, 0, len(listed))
	byName := make(map[string]int, len(listed))
	for _, command := range listed {
		byName[command.Command] = len(commands)
		commands = append(commands, toRemoteCommand(guildID, command))
	}

	for _, language := range c.languages {
		localized, err := c.getCommands(ctx, scope, language)
		if err != nil {
			return nil, mapTelegramError(cmdsync.RemoteOperationList, guildID, "", err)
		}
		for _, command := range localized {
			index, exists := byName[command.Command]
			if !exists {
				continue
			}
			if command.Description == commands[index].Description {
				continue
			}
			if commands[index].DescriptionLocalizations == nil {
				commands[index].DescriptionLocalizations = make(cmdsync.Localizations)
			}
			commands[index].DescriptionLocalizations[language] = command.Description
		}
	}
	c.logger.Debug("listed telegram bot commands", "guild_id", guildID, "count", len(commands))

	return commands, nil
}

// CreateCommand appends one command to the scope's command lists.
func (c *Client) CreateCommand(
	ctx context.Context,
	guildID string,
	definition cmdsync.CommandDefinition,
) (cmdsync.RemoteCommand, error) {
	return c.upsert(ctx, cmdsync.RemoteOperationCreate, guildID, "", definition)
}

// EditCommand replaces the command named commandID in the scope's command lists.
func (c *Client) EditCommand(
	ctx context.Context,
	guildID string,
	commandID string,
	definition cmdsync.CommandDefinition,
) (cmdsync.RemoteCommand, error) {
	return c.upsert(ctx, cmdsync.RemoteOperationEdit, guildID, commandID, definition)
}

func (c *Client) upsert(
	ctx context.Context,
	operation cmdsync.RemoteOperation,
	guildID string,
	commandID string,
	definition cmdsync.CommandDefinition,
) (cmdsync.RemoteCommand, error) {
	if err := c.validateBotCommand(definition); err != nil {
		return cmdsync.RemoteCommand{}, mapTelegramError(operation, guildID, commandID, err)
	}
	scope, err := parseScope(guildID)
	if err != nil {
		return cmdsync.RemoteCommand{}, mapTelegramError(operation, guildID, commandID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, language := range append([]string{""}, c.languages...) {
		description := definition.Description
		if localized, exists := definition.DescriptionLocalizations[language]; exists && language != "" {
			description = localized
		}

		current, err := c.getCommands(ctx, scope, language)
		if err != nil {
			return cmdsync.RemoteCommand{}, mapTelegramError(operation, guildID, commandID, err)
		}
		next, err := replaceCommand(current, commandID, tg.BotCommand{
			Command:     definition.Name,
			Description: description,
		})
		if err != nil {
			if language != "" {
				// Localized lists may lag behind the default list; append instead.
				next, err = replaceCommand(current, "", tg.BotCommand{Command: definition.Name, Description: description})
			}
			if err != nil {
				return cmdsync.RemoteCommand{}, mapTelegramError(operation, guildID, commandID, err)
			}
		}
		if err := c.setCommands(ctx, scope, language, next); err != nil {
			return cmdsync.RemoteCommand{}, mapTelegramError(operation, guildID, commandID, err)
		}
	}

	c.logger.Debug(
		"wrote telegram bot command",
		"operation", string(operation),
		"guild_id", guildID,
		"command", definition.Name,
	)

	remote := cmdsync.RemoteCommand{ID: definition.Name, GuildID: guildID, CommandDefinition: definition.Clone()}

	return remote, nil
}

func (c *Client) getCommands(ctx context.Context, scope tg.BotCommandScopeClass, language string) ([]tg.BotCommand, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	commands, err := c.api.BotsGetBotCommands(ctx, &tg.BotsGetBotCommandsRequest{
		Scope:    scope,
		LangCode: language,
	})
	if err != nil {
		return nil, fmt.Errorf("get bot commands lang=%q: %w", language, err)
	}

	return commands, nil
}

func (c *Client) setCommands(
	ctx context.Context,
	scope tg.BotCommandScopeClass,
	language string,
	commands []tg.BotCommand,
) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	ok, err := c.api.BotsSetBotCommands(ctx, &tg.BotsSetBotCommandsRequest{
		Scope:    scope,
		LangCode: language,
		Commands: commands,
	})
	if err != nil {
		return fmt.Errorf("set bot commands lang=%q: %w", language, err)
	}
	if !ok {
		return fmt.Errorf("set bot commands lang=%q: rejected", language)
	}

	return nil
}

// replaceCommand swaps the entry named previous for command, or appends when
// previous is empty. A rename that collides with another entry is rejected.
func replaceCommand(current []tg.BotCommand, previous string, command tg.BotCommand) ([]tg.BotCommand, error) {
	next := make([]tg.BotCommand, 0, len(current)+1)
	replaced := false
	for _, existing := range current {
		switch {
		case previous != "" && existing.Command == previous:
			next = append(next, command)
			replaced = true
		case existing.Command == command.Command:
			return nil, fmt.Errorf("command %s already exists", command.Command)
		default:
			next = append(next, existing)
		}
	}

	if previous != "" && !replaced {
		return nil, fmt.Errorf("command %s: %w", previous, cmdsync.ErrCommandNotFound)
	}
	if previous == "" {
		next = append(next, command)
	}
	if len(next) > maxBotCommands {
		return nil, fmt.Errorf("more than %d commands: %w", maxBotCommands, cmdsync.ErrUnsupportedCommand)
	}

	return next, nil
}

// validateBotCommand rejects definitions a bot command list cannot represent.
//
// Localized descriptions are listed only when they differ from the default
// description, so a localization equal to it could never match remotely.
func (c *Client) validateBotCommand(definition cmdsync.CommandDefinition) error {
	unsupported := func(field string) error {
		return fmt.Errorf("bot command %s %s: %w", definition.Name, field, cmdsync.ErrUnsupportedCommand)
	}

	switch {
	case definition.Kind != cmdsync.CommandKindChatInput:
		return unsupported("kind " + definition.Kind.String())
	case !botCommandNamePattern.MatchString(definition.Name):
		return unsupported("name")
	case len(definition.NameLocalizations) > 0:
		return unsupported("name localizations")
	case len(definition.Options) > 0:
		return unsupported("options")
	case definition.DefaultMemberPermissions != nil:
		return unsupported("default member permissions")
	case definition.DMPermission != nil && !*definition.DMPermission:
		return unsupported("dm permission")
	case definition.NSFW:
		return unsupported("nsfw")
	case len(definition.Contexts) > 0:
		return unsupported("contexts")
	case len(definition.IntegrationTypes) > 0:
		return unsupported("integration types")
	}
	for language, description := range definition.DescriptionLocalizations {
		if !slices.Contains(c.languages, language) {
			return unsupported("description localization " + language + " (language not configured)")
		}
		if description == definition.Description {
			return unsupported("description localization " + language + " (equals default description)")
		}
	}

	return nil
}

func toRemoteCommand(guildID string, command tg.BotCommand) cmdsync.RemoteCommand {
	return cmdsync.RemoteCommand{
		ID:      command.Command,
		GuildID: guildID,
		CommandDefinition: cmdsync.CommandDefinition{
			Kind:        cmdsync.CommandKindChatInput,
			Name:        command.Command,
			Description: command.Description,
		},
	}
}
