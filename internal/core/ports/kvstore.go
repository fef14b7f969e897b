package ports

import "context"

// KeyValueStore is the persisted local state that survives restarts.
// Get returns domain.ErrKeyNotFound for a missing key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
