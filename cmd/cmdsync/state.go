package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"ex-cmdsync/internal/reconcile"
	"ex-cmdsync/pkg/cmdsync"
)

// hintState persists remote ids resolved by earlier syncs.
//
// Layout is driver name, then registry name, then "<kind>:<name>", then ids.
type hintState struct {
	mu      sync.Mutex
	drivers map[string]map[string]map[string][]string
}

type hintStateFile struct {
	Drivers map[string]map[string]map[string][]string `json:"drivers"`
}

func newHintState() *hintState {
	return &hintState{drivers: make(map[string]map[string]map[string][]string)}
}

func hintKey(kind cmdsync.CommandKind, name string) string {
	return kind.String() + ":" + name
}

// loadHintState reads path; an empty path or missing file yields an empty state.
func loadHintState(path string) (*hintState, error) {
	state := newHintState()
	if path == "" {
		return state, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file %s: %w", path, err)
	}

	var parsed hintStateFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", path, err)
	}
	if parsed.Drivers != nil {
		state.drivers = parsed.Drivers
	}

	return state, nil
}

// Hints returns the id hint lookup for one driver registry.
func (s *hintState) Hints(driverName string, registry string) func(kind cmdsync.CommandKind, name string) []string {
	return func(kind cmdsync.CommandKind, name string) []string {
		s.mu.Lock()
		defer s.mu.Unlock()

		return append([]string(nil), s.drivers[driverName][registry][hintKey(kind, name)]...)
	}
}

// Record merges resolved ids from flush reports.
func (s *hintState) Record(driverName string, reports []reconcile.FlushReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	registries := s.drivers[driverName]
	if registries == nil {
		registries = make(map[string]map[string][]string)
		s.drivers[driverName] = registries
	}

	for _, report := range reports {
		commands := registries[report.Registry]
		if commands == nil {
			commands = make(map[string][]string)
			registries[report.Registry] = commands
		}
		for _, resolved := range report.Resolved {
			key := hintKey(resolved.Kind, resolved.Command)
			commands[key] = mergeIDs(commands[key], resolved.CommandID)
		}
	}
}

func mergeIDs(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}

	merged := append(append([]string(nil), ids...), id)
	sort.Strings(merged)

	return merged
}

// Save writes the state to path through a temp file rename.
func (s *hintState) Save(path string) error {
	if path == "" {
		return nil
	}

	s.mu.Lock()
	data, err := json.MarshalIndent(hintStateFile{Drivers: s.drivers}, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal state file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create state dir for %s: %w", path, err)
	}
	temp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file for %s: %w", path, err)
	}
	tempPath := temp.Name()
	if _, err := temp.Write(append(data, '\n')); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("write state file %s: %w", path, err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("close state file %s: %w", path, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("replace state file %s: %w", path, err)
	}

	return nil
}
