package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/deckgen/internal/config"
	"github.com/joeblew999/deckgen/pkg/generate"
	"github.com/joeblew999/deckgen/pkg/store"
	"github.com/joeblew999/deckgen/runtime"
)

func mockConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Generation.Provider = "mock"
	cfg.Generation.ImageProvider = "mock"
	cfg.Export.Width, cfg.Export.Height, cfg.Export.Scale = 320, 180, 1
	cfg.Export.SettleDelay = 0
	cfg.Navigator.RestoreDelay = 0
	return cfg
}

func TestNewWithMockProviders(t *testing.T) {
	t.Cleanup(func() { runtime.SetRuntime(nil) })
	log, _ := test.NewNullLogger()
	a, err := New(mockConfig(t), log)
	require.NoError(t, err)
	assert.IsType(t, generate.Mock{}, a.Text)
	assert.IsType(t, generate.MockImages{}, a.Images)
	assert.Equal(t, "gpt-4", a.Narrator.Model)

	ctx := context.Background()
	p, err := a.Store.SeedDemo(ctx)
	require.NoError(t, err)

	s := a.NewSession()
	defer s.Close()
	require.NoError(t, s.Open(ctx, p.Title, p.Content))
	text, err := s.Narrate(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, text, "The AI Business Revolution")

	res, err := s.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Pages)
}

func TestServerWiring(t *testing.T) {
	t.Cleanup(func() { runtime.SetRuntime(nil) })
	log, _ := test.NewNullLogger()
	a, err := New(mockConfig(t), log)
	require.NoError(t, err)
	_, err = a.Store.Create(context.Background(), store.Demo)
	require.NoError(t, err)

	srv := httptest.NewServer(a.Server().Handler())
	defer srv.Close()

	for _, path := range []string{"/health", "/metrics", "/api/presentations"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestMissingAPIKey(t *testing.T) {
	t.Cleanup(func() { runtime.SetRuntime(nil) })
	cfg := mockConfig(t)
	cfg.Generation.Provider = "openai"
	cfg.Generation.OpenAIKeyEnv = "DECKGEN_TEST_UNSET_KEY"
	t.Setenv("DECKGEN_TEST_UNSET_KEY", "")

	_, err := New(cfg, nil)
	assert.ErrorContains(t, err, "DECKGEN_TEST_UNSET_KEY is not set")

	cfg.Generation.Provider = "anthropic"
	cfg.Generation.AnthropicKeyEnv = "DECKGEN_TEST_UNSET_KEY"
	_, err = New(cfg, nil)
	assert.ErrorContains(t, err, "DECKGEN_TEST_UNSET_KEY")

	t.Setenv("DECKGEN_TEST_UNSET_KEY", "sk-test")
	cfg.Generation.Provider = "openai"
	cfg.Generation.ImageProvider = "openai"
	a, err := New(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &generate.OpenAI{}, a.Text)
	assert.Same(t, a.Text, a.Images)
}
