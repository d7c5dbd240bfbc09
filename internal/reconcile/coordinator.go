package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"ex-cmdsync/pkg/cmdsync"

	"github.com/google/uuid"
)

type syncIDKey struct{}

// WithSyncID tags ctx so flush logs carry one correlation id.
func WithSyncID(ctx context.Context, syncID string) context.Context {
	return context.WithValue(ctx, syncIDKey{}, syncID)
}

func loggerFromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if syncID, ok := ctx.Value(syncIDKey{}).(string); ok && syncID != "" {
		return logger.With("sync_id", syncID)
	}

	return logger
}

// Coordinator owns the registries of one process and runs sync passes across them.
type Coordinator struct {
	client   cmdsync.RemoteCommandClient
	cfg      config
	options  []Option
	fetchSet *GuildFetchSet

	mu         sync.RWMutex
	registries map[string]*Registry
	order      []string
}

// NewCoordinator creates a coordinator bound to one remote client.
//
// Options apply to every registry the coordinator creates.
func NewCoordinator(client cmdsync.RemoteCommandClient, options ...Option) (*Coordinator, error) {
	if client == nil {
		return nil, fmt.Errorf("new coordinator: nil client")
	}

	cfg := defaultConfig()
	for _, option := range options {
		option(&cfg)
	}
	if cfg.fetchSet == nil {
		cfg.fetchSet = NewGuildFetchSet()
	}

	registryOptions := append([]Option(nil), options...)
	registryOptions = append(registryOptions, WithGuildFetchSet(cfg.fetchSet))

	return &Coordinator{
		client:     client,
		cfg:        cfg,
		options:    registryOptions,
		fetchSet:   cfg.fetchSet,
		registries: make(map[string]*Registry),
	}, nil
}

// Registry returns the named registry, creating it on first use.
func (c *Coordinator) Registry(name string) (*Registry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name = strings.TrimSpace(name)
	if registry, exists := c.registries[name]; exists {
		return registry, nil
	}

	registry, err := NewRegistry(name, c.options...)
	if err != nil {
		return nil, fmt.Errorf("coordinator registry: %w", err)
	}
	c.registries[registry.Name()] = registry
	c.order = append(c.order, registry.Name())

	return registry, nil
}

// RegisterModule queues every command a module declares in the module's registry.
//
// override is layered over each command's own options, and hints supplies
// extra id hints per command name.
func (c *Coordinator) RegisterModule(
	module cmdsync.Module,
	override cmdsync.RegisterOptions,
	hints func(kind cmdsync.CommandKind, name string) []string,
) error {
	if module == nil {
		return fmt.Errorf("register module: nil module")
	}

	registry, err := c.Registry(module.Name())
	if err != nil {
		return fmt.Errorf("register module %s: %w", module.Name(), err)
	}

	spec := module.Spec()
	registered := 0
	for index, command := range spec.Commands {
		if !command.AppliesTo(c.cfg.platform) {
			continue
		}
		if err := command.Validate(); err != nil {
			return fmt.Errorf("register module %s command[%d]: %w", module.Name(), index, err)
		}

		options := command.Options.Override(override)
		if hints != nil {
			definition, err := cmdsync.Normalize(registerKind(command.Kind), command.Input)
			if err != nil {
				return fmt.Errorf("register module %s command[%d]: %w", module.Name(), index, err)
			}
			options.IDHints = append(options.IDHints, hints(definition.Kind, definition.Name)...)
		}

		if registerKind(command.Kind).IsContextMenu() {
			err = registry.RegisterContextMenuCommand(command.Input, options)
		} else {
			err = registry.RegisterChatInputCommand(command.Input, options)
		}
		if err != nil {
			return fmt.Errorf("register module %s: %w", module.Name(), err)
		}
		registered++
	}

	c.cfg.logger.Debug(
		"registered module commands",
		"module", module.Name(),
		"declared", len(spec.Commands),
		"registered", registered,
	)

	return nil
}

func registerKind(kind cmdsync.CommandKind) cmdsync.CommandKind {
	if kind == 0 {
		return cmdsync.CommandKindChatInput
	}

	return kind
}

// Registries returns registries in creation order.
func (c *Coordinator) Registries() []*Registry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	registries := make([]*Registry, 0, len(c.order))
	for _, name := range c.order {
		registries = append(registries, c.registries[name])
	}

	return registries
}

// GuildIDsToFetch returns the process-wide union of guild scopes to list.
func (c *Coordinator) GuildIDsToFetch() []string {
	return c.fetchSet.IDs()
}

// FetchSnapshot lists the global scope and every guild scope concurrently.
//
// A failed global listing is returned as an error. Failed guild listings are
// logged and left out of the snapshot so executions for them fail instead of
// creating duplicates.
func (c *Coordinator) FetchSnapshot(ctx context.Context) (cmdsync.Snapshot, error) {
	logger := loggerFromContext(ctx, c.cfg.logger)
	guildIDs := c.fetchSet.IDs()

	type listing struct {
		guildID  string
		commands []cmdsync.RemoteCommand
		err      error
	}

	listings := make([]listing, len(guildIDs)+1)
	var wg sync.WaitGroup
	for index, guildID := range append([]string{""}, guildIDs...) {
		wg.Add(1)
		go func(index int, guildID string) {
			defer wg.Done()

			var commands []cmdsync.RemoteCommand
			err := runSafely("list commands", func() error {
				listed, err := c.client.ListCommands(ctx, guildID)
				commands = listed
				return err
			})
			listings[index] = listing{guildID: guildID, commands: commands, err: err}
		}(index, guildID)
	}
	wg.Wait()

	snapshot := cmdsync.Snapshot{Guilds: make(map[string][]cmdsync.RemoteCommand, len(guildIDs))}
	for _, listed := range listings {
		if listed.guildID == "" {
			if listed.err != nil {
				return cmdsync.Snapshot{}, fmt.Errorf("fetch snapshot global scope: %w", listed.err)
			}
			snapshot.Global = listed.commands
			continue
		}
		if listed.err != nil {
			logger.ErrorContext(ctx, "list guild commands failed", "guild_id", listed.guildID, "error", listed.err)
			continue
		}
		snapshot.Guilds[listed.guildID] = listed.commands
	}

	logger.DebugContext(
		ctx,
		"fetched remote command snapshot",
		"global", len(snapshot.Global),
		"guilds", len(snapshot.Guilds),
	)

	return snapshot, nil
}

// Sync fetches one snapshot and flushes every registry against it.
//
// Registries flush concurrently. Only configuration errors and a failed
// global listing are returned; remote call failures live in the reports.
func (c *Coordinator) Sync(ctx context.Context) ([]FlushReport, error) {
	ctx = WithSyncID(ctx, uuid.NewString())
	logger := loggerFromContext(ctx, c.cfg.logger)

	registries := c.Registries()
	logger.InfoContext(ctx, "starting command sync", "registries", len(registries))

	var configErrs []error
	for _, registry := range registries {
		if err := registry.CheckBehaviors(); err != nil {
			configErrs = append(configErrs, err)
		}
	}
	if joined := errors.Join(configErrs...); joined != nil {
		return nil, fmt.Errorf("sync commands: %w", joined)
	}

	snapshot, err := c.FetchSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync commands: %w", err)
	}

	reports := make([]FlushReport, len(registries))
	errs := make([]error, len(registries))
	var wg sync.WaitGroup
	for index, registry := range registries {
		wg.Add(1)
		go func(index int, registry *Registry) {
			defer wg.Done()
			reports[index], errs[index] = registry.Flush(ctx, c.client, snapshot)
		}(index, registry)
	}
	wg.Wait()

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Registry < reports[j].Registry
	})

	if joined := errors.Join(errs...); joined != nil {
		return reports, fmt.Errorf("sync commands: %w", joined)
	}

	return reports, nil
}
