package reconcile

import (
	"sort"
	"sync"

	"ex-cmdsync/pkg/cmdsync"
)

type idSet map[string]struct{}

func (s idSet) add(id string) {
	s[id] = struct{}{}
}

func (s idSet) sorted() []string {
	values := make([]string, 0, len(s))
	for value := range s {
		values = append(values, value)
	}
	sort.Strings(values)

	return values
}

// IdentityState tracks names and remote ids a registry has claimed.
//
// It is written concurrently by flush executions and is insert-only: nothing
// in this package ever removes an entry.
type IdentityState struct {
	mu sync.RWMutex

	chatInputNames       idSet
	contextMenuNames     idSet
	globalChatInputIDs   idSet
	globalContextMenuIDs idSet
	guildChatInputIDs    map[string]idSet
	guildContextMenuIDs  map[string]idSet
	guildIDsToFetch      idSet
}

func newIdentityState() *IdentityState {
	return &IdentityState{
		chatInputNames:       make(idSet),
		contextMenuNames:     make(idSet),
		globalChatInputIDs:   make(idSet),
		globalContextMenuIDs: make(idSet),
		guildChatInputIDs:    make(map[string]idSet),
		guildContextMenuIDs:  make(map[string]idSet),
		guildIDsToFetch:      make(idSet),
	}
}

// rememberName records one name or id hint usable for matching.
func (s *IdentityState) rememberName(kind cmdsync.CommandKind, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kind == cmdsync.CommandKindChatInput {
		s.chatInputNames.add(name)
		return
	}
	s.contextMenuNames.add(name)
}

func (s *IdentityState) rememberGuild(guildID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.guildIDsToFetch.add(guildID)
}

// recordID stores one verified remote id in the scope it was resolved in.
func (s *IdentityState) recordID(kind cmdsync.CommandKind, guildID string, id string) {
	if id == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if guildID == "" {
		if kind == cmdsync.CommandKindChatInput {
			s.globalChatInputIDs.add(id)
		} else {
			s.globalContextMenuIDs.add(id)
		}
		return
	}

	byGuild := s.guildContextMenuIDs
	if kind == cmdsync.CommandKindChatInput {
		byGuild = s.guildChatInputIDs
	}
	ids, exists := byGuild[guildID]
	if !exists {
		ids = make(idSet)
		byGuild[guildID] = ids
	}
	ids.add(id)
}

// Snapshot returns a sorted, detached copy of the current state.
func (s *IdentityState) Snapshot() IdentitySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := IdentitySnapshot{
		ChatInputNames:       s.chatInputNames.sorted(),
		ContextMenuNames:     s.contextMenuNames.sorted(),
		GlobalChatInputIDs:   s.globalChatInputIDs.sorted(),
		GlobalContextMenuIDs: s.globalContextMenuIDs.sorted(),
		GuildChatInputIDs:    make(map[string][]string, len(s.guildChatInputIDs)),
		GuildContextMenuIDs:  make(map[string][]string, len(s.guildContextMenuIDs)),
		GuildIDsToFetch:      s.guildIDsToFetch.sorted(),
	}
	for guildID, ids := range s.guildChatInputIDs {
		snapshot.GuildChatInputIDs[guildID] = ids.sorted()
	}
	for guildID, ids := range s.guildContextMenuIDs {
		snapshot.GuildContextMenuIDs[guildID] = ids.sorted()
	}

	return snapshot
}

// IdentitySnapshot is a read-only copy of IdentityState.
type IdentitySnapshot struct {
	ChatInputNames       []string
	ContextMenuNames     []string
	GlobalChatInputIDs   []string
	GlobalContextMenuIDs []string
	GuildChatInputIDs    map[string][]string
	GuildContextMenuIDs  map[string][]string
	GuildIDsToFetch      []string
}

// HasID reports whether id was recorded for kind in the given scope.
func (s IdentitySnapshot) HasID(kind cmdsync.CommandKind, guildID string, id string) bool {
	var ids []string
	switch {
	case guildID == "" && kind == cmdsync.CommandKindChatInput:
		ids = s.GlobalChatInputIDs
	case guildID == "":
		ids = s.GlobalContextMenuIDs
	case kind == cmdsync.CommandKindChatInput:
		ids = s.GuildChatInputIDs[guildID]
	default:
		ids = s.GuildContextMenuIDs[guildID]
	}

	index := sort.SearchStrings(ids, id)
	return index < len(ids) && ids[index] == id
}

// RecordedIDs counts every recorded remote id across scopes.
func (s IdentitySnapshot) RecordedIDs() int {
	count := len(s.GlobalChatInputIDs) + len(s.GlobalContextMenuIDs)
	for _, ids := range s.GuildChatInputIDs {
		count += len(ids)
	}
	for _, ids := range s.GuildContextMenuIDs {
		count += len(ids)
	}

	return count
}

// GuildFetchSet is the process-wide union of guild scopes registries care about.
//
// The surrounding application lists these guilds before a flush.
type GuildFetchSet struct {
	mu  sync.RWMutex
	ids idSet
}

// NewGuildFetchSet creates an empty, concurrency-safe fetch set.
func NewGuildFetchSet() *GuildFetchSet {
	return &GuildFetchSet{ids: make(idSet)}
}

// Add unions guild ids into the set.
func (s *GuildFetchSet) Add(guildIDs ...string) {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, guildID := range guildIDs {
		if guildID != "" {
			s.ids.add(guildID)
		}
	}
}

// IDs returns the sorted guild ids.
func (s *GuildFetchSet) IDs() []string {
	if s == nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ids.sorted()
}
