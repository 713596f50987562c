package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BitForged/Compass/internal/domain"
	"github.com/BitForged/Compass/internal/ports"
	goredis "github.com/redis/go-redis/v9"
)

const DefaultPrefix = "compass:"

// Store keeps local storage entries as plain redis strings under a key
// prefix, so several clients can share one profile.
type Store struct {
	client goredis.UniversalClient
	prefix string
}

var _ ports.LocalStorage = (*Store)(nil)

func NewStore(client goredis.UniversalClient, prefix string) (*Store, error) {
	if client == nil {
		return nil, errors.New("redis client is nil")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}

	return &Store{client: client, prefix: prefix}, nil
}

// Dial connects to addr and checks the server answers.
func Dial(ctx context.Context, addr string, prefix string) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}

	return NewStore(client, prefix)
}

func (s *Store) key(key string) string {
	return s.prefix + key
}

func (s *Store) GetItem(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", domain.ErrStorageKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %q: %w", key, err)
	}

	return value, nil
}

func (s *Store) SetItem(ctx context.Context, key string, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}

	return nil
}

func (s *Store) RemoveItem(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
