package memory

import (
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/filebuddy/internal/core/ports/driven"
)

// ConfigPath is the Path reported by an in-memory ConfigStore. Passing it
// as the config directory selects a store that is never written to disk.
const ConfigPath = ":memory:"

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings for the lifetime of the process only.
// Save snapshots the current values and Load restores the last snapshot.
type ConfigStore struct {
	mu       sync.RWMutex
	values   map[string]any
	snapshot map[string]any
}

// NewConfigStore returns an empty store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		values:   map[string]any{},
		snapshot: map[string]any{},
	}
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// typed returns the value at key if it has type T.
func typed[T any](s *ConfigStore, key string) (T, bool) {
	v, _ := s.Get(key)
	t, ok := v.(T)
	return t, ok
}

func (s *ConfigStore) GetString(key string) string {
	str, _ := typed[string](s, key)
	return str
}

// GetInt accepts the integer and float shapes a decoded config produces.
func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func (s *ConfigStore) GetBool(key string) bool {
	b, _ := typed[bool](s, key)
	return b
}

func (s *ConfigStore) GetStringSlice(key string) []string {
	v, _ := s.Get(key)
	switch list := v.(type) {
	case []string:
		return slices.Clone(list)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *ConfigStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.values))
}

func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = maps.Clone(s.values)
	return nil
}

func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = maps.Clone(s.snapshot)
	return nil
}

func (s *ConfigStore) Path() string {
	return ConfigPath
}
