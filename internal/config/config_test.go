package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "adwizard.yaml", `
addr: ":9090"
templates: ./templates
generation_timeout: 45s
store:
  driver: file
  path: /tmp/sessions
  pii_inputs: ["headline"]
generator:
  url: https://gen.example.com
  mock: true
  timeout: 1m
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "./templates", cfg.Templates)
	assert.Equal(t, 45*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, StoreFile, cfg.Store.Driver)
	assert.Equal(t, []string{"headline"}, cfg.Store.PIIInputs)
	assert.True(t, cfg.Generator.Mock)
	assert.Equal(t, time.Minute, cfg.Generator.Timeout)
	assert.Equal(t, "info", cfg.LogLevel, "unset keys keep defaults")
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "adwizard.json", `{"addr": ":7070", "store": {"driver": "memory"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err, "an explicit path must exist")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"ADWIZARD_ADDR":               ":1234",
		"ADWIZARD_STORE":              "redis",
		"ADWIZARD_REDIS_URL":          "redis://localhost:6379/0",
		"ADWIZARD_GENERATION_TIMEOUT": "5s",
		"ADWIZARD_GATEWAY_MOCK":       "true",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.applyEnv(lookup))
	assert.Equal(t, ":1234", cfg.Addr)
	assert.Equal(t, StoreRedis, cfg.Store.Driver)
	assert.Equal(t, 5*time.Second, cfg.GenerationTimeout)
	assert.True(t, cfg.Gateway.Mock)
	assert.NoError(t, cfg.Validate())

	env["ADWIZARD_GENERATOR_MOCK"] = "maybe"
	assert.Error(t, cfg.applyEnv(lookup))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Store.Driver = "postgres"
	assert.ErrorContains(t, cfg.Validate(), "unknown store driver")

	cfg = Default()
	cfg.Store.Driver = StoreRedis
	assert.ErrorContains(t, cfg.Validate(), "redis_url")

	cfg = Default()
	cfg.Store.PIIInputs = []string{"("}
	assert.ErrorContains(t, cfg.Validate(), "pii_inputs")

	cfg = Default()
	cfg.Store.EncryptionKey = "abcd"
	assert.ErrorContains(t, cfg.Validate(), "32 bytes")

	cfg.Store.EncryptionKey = strings.Repeat("ab", 32)
	cfg.Store.FallbackKeys = []string{strings.Repeat("cd", 32)}
	require.NoError(t, cfg.Validate())
	active, fallback, err := cfg.Store.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	assert.Len(t, fallback, 1)
}

func TestLoadDotEnv(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")), "missing file is ignored")

	path := writeFile(t, ".env", "ADWIZARD_TEST_DOTENV=loaded\n")
	t.Setenv("ADWIZARD_TEST_DOTENV", "")
	os.Unsetenv("ADWIZARD_TEST_DOTENV")
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("ADWIZARD_TEST_DOTENV"))
}
