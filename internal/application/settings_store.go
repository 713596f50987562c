package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/BitForged/Compass/internal/domain"
	"github.com/BitForged/Compass/internal/ports"
)

// SettingsStore keeps client preferences in one map that is written back to
// durable storage in full after every mutation.
type SettingsStore struct {
	storage ports.LocalStorage
	log     *slog.Logger

	mu       sync.RWMutex
	settings map[string]any
}

// NewSettingsStore loads the persisted settings. A missing or unreadable
// document starts the store empty.
func NewSettingsStore(ctx context.Context, storage ports.LocalStorage, log *slog.Logger) *SettingsStore {
	s := &SettingsStore{storage: storage, log: orDiscard(log), settings: map[string]any{}}

	raw, err := storage.GetItem(ctx, domain.StorageKeySettings)
	switch {
	case errors.Is(err, domain.ErrStorageKeyNotFound):
	case err != nil:
		s.log.Warn("load settings", "error", err)
	default:
		var loaded map[string]any
		if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
			s.log.Warn("decode settings", "error", err)
		} else if loaded != nil {
			s.settings = loaded
		}
	}

	s.log.Debug("settings initialized", "count", len(s.settings))
	return s
}

func (s *SettingsStore) Set(ctx context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.settings[key]
	s.settings[key] = cloneSetting(value)
	if err := s.saveLocked(ctx); err != nil {
		if existed {
			s.settings[key] = previous
		} else {
			delete(s.settings, key)
		}
		return fmt.Errorf("set setting %q: %w", key, err)
	}

	s.log.Debug("setting updated", "key", key)
	return nil
}

// Get returns the stored value, or nil when key is unset. JSON objects and
// arrays are returned as copies.
func (s *SettingsStore) Get(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneSetting(s.settings[key])
}

func (s *SettingsStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.settings[key]
	if !existed {
		return nil
	}
	delete(s.settings, key)
	if err := s.saveLocked(ctx); err != nil {
		s.settings[key] = previous
		return fmt.Errorf("delete setting %q: %w", key, err)
	}

	s.log.Debug("setting deleted", "key", key)
	return nil
}

// All returns a copy of every setting.
func (s *SettingsStore) All() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make(map[string]any, len(s.settings))
	for key, value := range s.settings {
		all[key] = cloneSetting(value)
	}
	return all
}

// cloneSetting deep copies the object and array shapes produced by
// encoding/json. Other values are returned as is.
func cloneSetting(value any) any {
	switch v := value.(type) {
	case map[string]any:
		if v == nil {
			return v
		}
		cloned := make(map[string]any, len(v))
		for key, item := range v {
			cloned[key] = cloneSetting(item)
		}
		return cloned
	case []any:
		if v == nil {
			return v
		}
		cloned := make([]any, len(v))
		for i, item := range v {
			cloned[i] = cloneSetting(item)
		}
		return cloned
	default:
		return value
	}
}

func (s *SettingsStore) saveLocked(ctx context.Context) error {
	payload, err := json.Marshal(s.settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.storage.SetItem(ctx, domain.StorageKeySettings, string(payload)); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
