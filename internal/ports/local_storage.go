package ports

import "context"

// LocalStorage is the durable string key/value store the client keeps its
// session and preferences in. GetItem returns domain.ErrStorageKeyNotFound
// for absent keys and RemoveItem is idempotent.
type LocalStorage interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key string, value string) error
	RemoveItem(ctx context.Context, key string) error
}
