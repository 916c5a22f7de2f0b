package memory

import (
	"context"
	"sync"
	"time"
)

type kvEntry struct {
	value     []byte
	expiresAt time.Time
}

// KeyValueStore implements ports.KeyValueStore in memory with lazy expiry.
type KeyValueStore struct {
	mu   sync.Mutex
	data map[string]kvEntry
	now  func() time.Time
}

// NewKeyValueStore creates an empty in-memory key-value store.
func NewKeyValueStore() *KeyValueStore {
	return &KeyValueStore{
		data: make(map[string]kvEntry),
		now:  time.Now,
	}
}

func (k *KeyValueStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.data[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && k.now().After(e.expiresAt) {
		delete(k.data, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (k *KeyValueStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	e := kvEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = k.now().Add(ttl)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.data[key] = e
	return nil
}

func (k *KeyValueStore) Delete(ctx context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.data, key)
	return nil
}
