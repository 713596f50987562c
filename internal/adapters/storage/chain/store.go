package chain

import (
	"context"
	"errors"
	"fmt"

	passstore "github.com/BitForged/Compass/internal/adapters/storage/pass"
	tomlstore "github.com/BitForged/Compass/internal/adapters/storage/toml"
	"github.com/BitForged/Compass/internal/domain"
	"github.com/BitForged/Compass/internal/ports"
	"github.com/spf13/viper"
)

// Store reads and writes the primary backend and falls back to the secondary
// one when the primary fails.
type Store struct {
	primary  ports.LocalStorage
	fallback ports.LocalStorage
}

var _ ports.LocalStorage = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary storage is nil")
	errNilFallbackStore = errors.New("fallback storage is nil")
)

func NewStore(primary ports.LocalStorage, fallback ports.LocalStorage) *Store {
	store, err := NewStoreChecked(primary, fallback)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(primary ports.LocalStorage, fallback ports.LocalStorage) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback}, nil
}

// NewPassFirstWithTOMLFallback keeps entries in pass and falls back to the
// TOML file when pass is missing or fails.
func NewPassFirstWithTOMLFallback(cfg *viper.Viper, passPrefix string) (*Store, error) {
	fallback, err := tomlstore.NewStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("open fallback storage: %w", err)
	}

	return NewStoreChecked(passstore.NewStore(passPrefix), fallback)
}

func (s *Store) SetItem(ctx context.Context, key string, value string) error {
	err := s.primary.SetItem(ctx, key, value)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.SetItem(ctx, key, value)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary storage set failed: %w; fallback storage set failed: %w", err, fallbackErr)
}

// GetItem also consults the fallback when the primary has no such key, so
// entries written while the primary was unavailable stay visible.
func (s *Store) GetItem(ctx context.Context, key string) (string, error) {
	value, err := s.primary.GetItem(ctx, key)
	if err == nil {
		return value, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackValue, fallbackErr := s.fallback.GetItem(ctx, key)
	if fallbackErr == nil {
		return fallbackValue, nil
	}

	return "", fmt.Errorf("primary storage get failed: %w; fallback storage get failed: %w", err, fallbackErr)
}

// RemoveItem clears the key from both backends. A primary that is not
// available at all holds nothing to remove.
func (s *Store) RemoveItem(ctx context.Context, key string) error {
	err := s.primary.RemoveItem(ctx, key)
	if shouldSkipFallback(err) {
		return err
	}
	if errors.Is(err, domain.ErrStorageUnavailable) {
		err = nil
	}

	fallbackErr := s.fallback.RemoveItem(ctx, key)
	switch {
	case err == nil && fallbackErr == nil:
		return nil
	case err == nil:
		return fmt.Errorf("fallback storage remove failed: %w", fallbackErr)
	case fallbackErr == nil:
		return fmt.Errorf("primary storage remove failed: %w", err)
	default:
		return fmt.Errorf("primary storage remove failed: %w; fallback storage remove failed: %w", err, fallbackErr)
	}
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
