package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestExampleMatchesDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, yaml.Unmarshal([]byte(Example), &cfg))
	assert.Equal(t, Default(), cfg)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deckgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
generation:
  provider: mock
queue:
  limit: 2
  window: 30s
export:
  settle_delay: 0s
log:
  format: json
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.Generation.Provider)
	assert.Equal(t, 2, cfg.Queue.Limit)
	assert.Equal(t, 30*time.Second, cfg.Queue.Window)
	assert.Equal(t, time.Duration(0), cfg.Export.SettleDelay)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 1920, cfg.Export.Width, "unset fields keep defaults")
	assert.Equal(t, 2*time.Minute, cfg.Queue.TaskTimeout)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generation:\n  provider: cohere\nqueue:\n  limit: 0\n"), 0644))
	_, err := Load(path)
	assert.ErrorContains(t, err, `generation.provider "cohere"`)
	assert.ErrorContains(t, err, "queue.limit")

	require.NoError(t, os.WriteFile(path, []byte("queue: ["), 0644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "failed to parse config YAML")
}

func TestAPIKeysFromEnvironment(t *testing.T) {
	t.Setenv("DECKGEN_TEST_KEY", "sk-123")
	g := Default().Generation
	g.OpenAIKeyEnv = "DECKGEN_TEST_KEY"
	assert.Equal(t, "sk-123", g.OpenAIKey())
	t.Setenv(g.AnthropicKeyEnv, "")
	assert.Empty(t, g.AnthropicKey())
}
