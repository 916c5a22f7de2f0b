package cli

import (
	"fmt"
	"io"

	"github.com/aretw0/adwizard/internal/config"
	"github.com/aretw0/adwizard/pkg/adapters/file"
	"github.com/aretw0/adwizard/pkg/adapters/memory"
	"github.com/aretw0/adwizard/pkg/adapters/redis"
	"github.com/aretw0/adwizard/pkg/persistence/middleware"
	"github.com/aretw0/adwizard/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Persistence groups the storage ports selected by the store driver.
// Locker is nil unless the driver is shared across replicas.
type Persistence struct {
	Store  ports.SessionStore
	Locker ports.DistributedLocker
	KV     ports.KeyValueStore

	closer io.Closer
}

// Close releases the backend connection, if any.
func (p *Persistence) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// OpenPersistence builds the session store for cfg.Store, wrapped with the
// PII mask and the encryption envelope when configured.
func OpenPersistence(cfg config.StoreConfig) (*Persistence, error) {
	p := &Persistence{}

	switch cfg.Driver {
	case config.StoreMemory, "":
		p.Store = memory.NewStore()
		p.KV = memory.NewKeyValueStore()
	case config.StoreFile:
		p.Store = file.New(cfg.Path)
		p.KV = memory.NewKeyValueStore()
	case config.StoreRedis:
		opts, err := backend.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := backend.NewClient(opts)
		var storeOpts []redis.Option
		if cfg.TTL > 0 {
			storeOpts = append(storeOpts, redis.WithTTL(cfg.TTL))
		}
		p.Store = redis.NewFromClient(client, storeOpts...)
		p.Locker = redis.NewLocker(client, "adwizard:lock:")
		p.KV = redis.NewKeyValueStore(client, "adwizard:kv:")
		p.closer = client
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	// Chain puts the first middleware outermost, so masking runs before sealing
	// and the envelope never holds the raw values.
	var mws []middleware.Middleware
	if len(cfg.PIIInputs) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.PIIInputs))
	}
	if cfg.EncryptionKey != "" {
		active, fallback, err := cfg.Keys()
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}
	p.Store = middleware.Chain(p.Store, mws...)

	return p, nil
}
