// Package config loads adwizard.yaml, applies ADWIZARD_* environment overrides
// and reads an optional .env file.
package config

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "adwizard.yaml"

// Store drivers.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the full runtime configuration.
type Config struct {
	Addr      string `yaml:"addr" json:"addr"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"`

	// Templates is a YAML/JSON template file or a Loam directory. Empty means built-in.
	Templates string `yaml:"templates" json:"templates"`

	GenerationTimeout time.Duration `yaml:"generation_timeout" json:"generation_timeout"`

	Store     StoreConfig    `yaml:"store" json:"store"`
	Generator UpstreamConfig `yaml:"generator" json:"generator"`
	Gateway   UpstreamConfig `yaml:"gateway" json:"gateway"`
}

// StoreConfig selects and configures the session store.
type StoreConfig struct {
	Driver   string        `yaml:"driver" json:"driver"`
	Path     string        `yaml:"path" json:"path"`
	RedisURL string        `yaml:"redis_url" json:"redis_url"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`

	// EncryptionKey is a hex encoded 32-byte AES key. FallbackKeys decrypt
	// sessions written before a rotation.
	EncryptionKey string   `yaml:"encryption_key" json:"-"`
	FallbackKeys  []string `yaml:"fallback_keys" json:"-"`

	// PIIInputs are regular expressions over input ids whose text is masked at rest.
	PIIInputs []string `yaml:"pii_inputs" json:"pii_inputs"`
}

// UpstreamConfig configures an HTTP upstream (generator or LLM gateway).
type UpstreamConfig struct {
	URL     string        `yaml:"url" json:"url"`
	APIKey  string        `yaml:"api_key" json:"-"`
	Model   string        `yaml:"model,omitempty" json:"model,omitempty"`
	Mock    bool          `yaml:"mock" json:"mock"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Command runs generation as a local process instead of calling URL.
	// Only used by the generator.
	Command []string `yaml:"command,omitempty" json:"command,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Addr:              ":8080",
		LogLevel:          "info",
		LogFormat:         "text",
		GenerationTimeout: 2 * time.Minute,
		Store: StoreConfig{
			Driver: StoreMemory,
			Path:   ".adwizard/sessions",
		},
		Generator: UpstreamConfig{Timeout: 90 * time.Second},
		Gateway:   UpstreamConfig{Timeout: 30 * time.Second},
	}
}

// LoadDotEnv loads variables from path (".env" when empty) without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads the config file (YAML or JSON, by extension) over the defaults and
// applies environment overrides. A missing file at DefaultPath yields the defaults;
// a missing file the user named explicitly is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if strings.ToLower(filepath.Ext(path)) == ".json" {
			if err := json.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("ADWIZARD_ADDR", &c.Addr)
	str("ADWIZARD_LOG_LEVEL", &c.LogLevel)
	str("ADWIZARD_LOG_FORMAT", &c.LogFormat)
	str("ADWIZARD_TEMPLATES", &c.Templates)
	str("ADWIZARD_STORE", &c.Store.Driver)
	str("ADWIZARD_STORE_PATH", &c.Store.Path)
	str("ADWIZARD_REDIS_URL", &c.Store.RedisURL)
	str("ADWIZARD_ENCRYPTION_KEY", &c.Store.EncryptionKey)
	str("ADWIZARD_GENERATOR_URL", &c.Generator.URL)
	str("ADWIZARD_GENERATOR_KEY", &c.Generator.APIKey)
	str("ADWIZARD_GATEWAY_URL", &c.Gateway.URL)
	str("ADWIZARD_GATEWAY_KEY", &c.Gateway.APIKey)
	str("ADWIZARD_GATEWAY_MODEL", &c.Gateway.Model)

	if v, ok := lookup("ADWIZARD_GENERATION_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ADWIZARD_GENERATION_TIMEOUT: %w", err)
		}
		c.GenerationTimeout = d
	}
	for key, dst := range map[string]*bool{
		"ADWIZARD_GENERATOR_MOCK": &c.Generator.Mock,
		"ADWIZARD_GATEWAY_MOCK":   &c.Gateway.Mock,
	} {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}
	return nil
}

// Validate checks driver names and key sizes.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case StoreMemory, StoreFile:
	case StoreRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store.redis_url is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("generation_timeout must be positive")
	}
	if c.Store.EncryptionKey != "" {
		if _, _, err := c.Store.Keys(); err != nil {
			return err
		}
	}
	for _, p := range c.Store.PIIInputs {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("store.pii_inputs: %w", err)
		}
	}
	return nil
}

// Keys decodes the active and fallback encryption keys.
func (s StoreConfig) Keys() ([]byte, [][]byte, error) {
	active, err := decodeKey(s.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	fallback := make([][]byte, 0, len(s.FallbackKeys))
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("key must be hex encoded: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}
