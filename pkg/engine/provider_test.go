package engine

import (
	"log/slog"
	"testing"

	"github.com/h9-tec/AI-agent-explained/pkg/modeladapter"
	"github.com/h9-tec/AI-agent-explained/pkg/providers/llamacpp"
	"github.com/h9-tec/AI-agent-explained/pkg/providers/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFactories(t *testing.T) {
	for _, kind := range []string{BackendOpenAI, BackendLlamaCpp} {
		_, ok := getFactory(kind)
		assert.True(t, ok, kind)
	}

	_, ok := getFactory("nope")
	assert.False(t, ok)
}

func TestBuildCompleter_OpenAI(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendOpenAI
	cfg.OpenAI.APIKey = "sk-test"

	c, err := buildCompleter(cfg, slog.Default())
	require.NoError(t, err)

	a, ok := c.(*openai.Adapter)
	require.True(t, ok)
	assert.Equal(t, openai.DefaultModel, a.Name)
}

func TestBuildCompleter_LlamaCpp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Llama.ModelPath = writeModel(t)
	cfg.Llama.MaxTokens = 256

	c, err := buildCompleter(cfg, slog.Default())
	require.NoError(t, err)

	a, ok := c.(*llamacpp.Adapter)
	require.True(t, ok)
	assert.Equal(t, "model.gguf", a.Name)
	assert.Equal(t, 256, a.MaxTokens)
}

func TestBuildCompleter_ConfigErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendOpenAI

	_, err := buildCompleter(cfg, slog.Default())
	var ce *modeladapter.ConfigError
	assert.ErrorAs(t, err, &ce)

	cfg.Backend = "nope"
	_, err = buildCompleter(cfg, slog.Default())
	assert.ErrorContains(t, err, "unknown backend")
}
