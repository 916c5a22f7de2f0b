package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// KeyValueStore implements ports.KeyValueStore on plain Redis strings.
type KeyValueStore struct {
	client *backend.Client
	prefix string
}

// NewKeyValueStore creates a key-value store sharing client. Keys are namespaced by prefix.
func NewKeyValueStore(client *backend.Client, prefix string) *KeyValueStore {
	if prefix == "" {
		prefix = "adwizard:kv:"
	}
	return &KeyValueStore{client: client, prefix: prefix}
}

func (k *KeyValueStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := k.client.Get(ctx, k.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return val, true, nil
}

func (k *KeyValueStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := k.client.Set(ctx, k.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (k *KeyValueStore) Delete(ctx context.Context, key string) error {
	return k.client.Del(ctx, k.prefix+key).Err()
}
