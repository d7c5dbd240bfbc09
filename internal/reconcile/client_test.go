package reconcile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"ex-cmdsync/pkg/cmdsync"
)

// fakeClient is an in-memory RemoteCommandClient with call counters and failure injection.
type fakeClient struct {
	mu       sync.Mutex
	scopes   map[string][]cmdsync.RemoteCommand
	nextID   int
	lists    int
	creates  int
	edits    int
	failures map[string]error
	panics   map[string]bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		scopes:   map[string][]cmdsync.RemoteCommand{"": nil},
		nextID:   100,
		failures: make(map[string]error),
		panics:   make(map[string]bool),
	}
}

func failureKey(operation cmdsync.RemoteOperation, guildID string, name string) string {
	return string(operation) + "|" + guildID + "|" + name
}

func (c *fakeClient) failOn(operation cmdsync.RemoteOperation, guildID string, name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[failureKey(operation, guildID, name)] = err
}

func (c *fakeClient) panicOn(operation cmdsync.RemoteOperation, guildID string, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panics[failureKey(operation, guildID, name)] = true
}

func (c *fakeClient) seed(guildID string, commands ...cmdsync.RemoteCommand) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, command := range commands {
		command.GuildID = guildID
		c.scopes[guildID] = append(c.scopes[guildID], command)
	}
}

func (c *fakeClient) counts() (lists int, creates int, edits int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lists, c.creates, c.edits
}

func (c *fakeClient) scope(guildID string) []cmdsync.RemoteCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]cmdsync.RemoteCommand(nil), c.scopes[guildID]...)
}

func (c *fakeClient) snapshot(guildIDs ...string) cmdsync.Snapshot {
	snapshot := cmdsync.Snapshot{Global: c.scope(""), Guilds: make(map[string][]cmdsync.RemoteCommand)}
	for _, guildID := range guildIDs {
		snapshot.Guilds[guildID] = c.scope(guildID)
	}
	return snapshot
}

func (c *fakeClient) injected(key string) error {
	if c.panics[key] {
		panic("injected panic " + key)
	}
	return c.failures[key]
}

func (c *fakeClient) ListCommands(_ context.Context, guildID string) ([]cmdsync.RemoteCommand, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lists++
	if err := c.injected(failureKey(cmdsync.RemoteOperationList, guildID, "")); err != nil {
		return nil, err
	}

	return append([]cmdsync.RemoteCommand(nil), c.scopes[guildID]...), nil
}

func (c *fakeClient) CreateCommand(
	_ context.Context,
	guildID string,
	definition cmdsync.CommandDefinition,
) (cmdsync.RemoteCommand, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.creates++
	if err := c.injected(failureKey(cmdsync.RemoteOperationCreate, guildID, definition.Name)); err != nil {
		return cmdsync.RemoteCommand{}, err
	}

	c.nextID++
	created := cmdsync.RemoteCommand{
		ID:                strconv.Itoa(c.nextID),
		GuildID:           guildID,
		CommandDefinition: definition.Clone(),
	}
	c.scopes[guildID] = append(c.scopes[guildID], created)

	return created, nil
}

func (c *fakeClient) EditCommand(
	_ context.Context,
	guildID string,
	commandID string,
	definition cmdsync.CommandDefinition,
) (cmdsync.RemoteCommand, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.edits++
	if err := c.injected(failureKey(cmdsync.RemoteOperationEdit, guildID, definition.Name)); err != nil {
		return cmdsync.RemoteCommand{}, err
	}

	for index, command := range c.scopes[guildID] {
		if command.ID != commandID {
			continue
		}
		edited := cmdsync.RemoteCommand{ID: commandID, GuildID: guildID, CommandDefinition: definition.Clone()}
		c.scopes[guildID][index] = edited
		return edited, nil
	}

	return cmdsync.RemoteCommand{}, fmt.Errorf("edit %s: %w", commandID, cmdsync.ErrCommandNotFound)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func chatInput(name string, description string) cmdsync.CommandDefinition {
	return cmdsync.CommandDefinition{
		Kind:        cmdsync.CommandKindChatInput,
		Name:        name,
		Description: description,
	}
}

func remoteChatInput(id string, name string, description string) cmdsync.RemoteCommand {
	return cmdsync.RemoteCommand{ID: id, CommandDefinition: chatInput(name, description)}
}

func newTestRegistry(t interface{ Fatalf(string, ...any) }, options ...Option) *Registry {
	options = append([]Option{WithLogger(discardLogger())}, options...)
	registry, err := NewRegistry("test", options...)
	if err != nil {
		t.Fatalf("new registry failed: %v", err)
	}
	return registry
}
