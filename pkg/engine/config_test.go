package engine

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/h9-tec/AI-agent-explained/pkg/modeladapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
backend: openai
openai:
  api_key: sk-test
  model: gpt-4o-mini
llama:
  n_ctx: 8192
  temperature: 0.2
agent:
  mode: react
  max_iterations: 5
  window: 6
  timeout: 30s
tools: [calculate, search]
mcp_servers:
  - name: fs
    command: mcp-fs
    args: ["--root", "/tmp"]
    prefix: true
log_level: debug
verbose: false
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func writeModel(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "model.gguf")
	require.NoError(t, os.WriteFile(path, []byte("gguf"), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, BackendLlamaCpp, cfg.Backend)
	assert.Equal(t, "gpt-4.1-mini", cfg.OpenAI.Model)
	assert.Equal(t, 4096, cfg.Llama.ContextSize)
	assert.Equal(t, 4, cfg.Llama.Threads)
	assert.InDelta(t, 0.7, cfg.Llama.Temperature, 1e-9)
	assert.InDelta(t, 0.95, cfg.Llama.TopP, 1e-9)
	assert.Equal(t, 2048, cfg.Llama.MaxTokens)
	assert.Equal(t, ModeTools, cfg.Agent.Mode)
	assert.Equal(t, 10, cfg.Agent.MaxIterations)
	assert.Equal(t, 10, cfg.Agent.Window)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, BackendOpenAI, cfg.Backend)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "https://api.openai.com", cfg.OpenAI.BaseURL, "unset fields keep their defaults")

	assert.Equal(t, 8192, cfg.Llama.ContextSize)
	assert.InDelta(t, 0.2, cfg.Llama.Temperature, 1e-9)
	assert.Equal(t, 2048, cfg.Llama.MaxTokens)

	assert.Equal(t, ModeReAct, cfg.Agent.Mode)
	assert.Equal(t, 5, cfg.Agent.MaxIterations)
	assert.Equal(t, 6, cfg.Agent.Window)
	assert.Equal(t, 30*time.Second, cfg.Agent.Timeout)

	assert.Equal(t, []string{"calculate", "search"}, cfg.Tools)
	require.Len(t, cfg.MCPServers, 1)
	assert.Equal(t, "fs", cfg.MCPServers[0].Name)
	assert.Equal(t, []string{"--root", "/tmp"}, cfg.MCPServers[0].Args)
	assert.True(t, cfg.MCPServers[0].Prefix)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.Verbose)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/no/such/file.yaml")
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "backend: [unclosed"))
	assert.ErrorContains(t, err, "parse config")
}

func TestLoadConfig_ExpandsEnvVars(t *testing.T) {
	t.Setenv("AGENT_TEST_API_KEY", "sk-from-env")

	cfg, err := LoadConfig(writeConfig(t, "openai:\n  api_key: ${AGENT_TEST_API_KEY}\n"))
	require.NoError(t, err)

	assert.Equal(t, "sk-from-env", cfg.OpenAI.APIKey)
}

func TestLoadConfig_UnsetEnvVarExpandsToEmpty(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "openai:\n  api_key: ${AGENT_TEST_UNSET_VAR_12345}\n"))
	require.NoError(t, err)

	assert.Empty(t, cfg.OpenAI.APIKey)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("LLM_BACKEND", "openai")
	t.Setenv("OPENAI_API_KEY", " sk-env ")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("LLAMA_MODEL_PATH", "/models/x.gguf")
	t.Setenv("LLAMA_SERVER_URL", "http://gpu:9000")
	t.Setenv("LLAMA_N_CTX", "2048")
	t.Setenv("LLAMA_N_GPU_LAYERS", "35")
	t.Setenv("LLAMA_N_THREADS", "8")
	t.Setenv("LLAMA_TEMPERATURE", "0.1")
	t.Setenv("LLAMA_TOP_P", "0.5")
	t.Setenv("LLAMA_MAX_TOKENS", "512")
	t.Setenv("VERBOSE", "FALSE")
	t.Setenv("LOG_LEVEL", "trace")

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, BackendOpenAI, cfg.Backend)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, "/models/x.gguf", cfg.Llama.ModelPath)
	assert.Equal(t, "http://gpu:9000", cfg.Llama.ServerURL)
	assert.Equal(t, 2048, cfg.Llama.ContextSize)
	assert.Equal(t, 35, cfg.Llama.GPULayers)
	assert.Equal(t, 8, cfg.Llama.Threads)
	assert.InDelta(t, 0.1, cfg.Llama.Temperature, 1e-9)
	assert.InDelta(t, 0.5, cfg.Llama.TopP, 1e-9)
	assert.Equal(t, 512, cfg.Llama.MaxTokens)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, "trace", cfg.LogLevel)
}

func TestApplyEnv_VerboseTrue(t *testing.T) {
	t.Setenv("VERBOSE", "true")

	cfg := DefaultConfig()
	cfg.Verbose = false
	require.NoError(t, cfg.ApplyEnv())
	assert.True(t, cfg.Verbose)
}

func TestApplyEnv_MalformedNumbers(t *testing.T) {
	t.Setenv("LLAMA_N_CTX", "lots")
	t.Setenv("LLAMA_TOP_P", "high")

	cfg := DefaultConfig()
	err := cfg.ApplyEnv()
	require.Error(t, err)
	assert.ErrorContains(t, err, "LLAMA_N_CTX")
	assert.ErrorContains(t, err, "LLAMA_TOP_P")
	assert.Equal(t, 4096, cfg.Llama.ContextSize)
}

func TestConfig_Validate_OpenAI(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendOpenAI

	err := cfg.Validate()
	var ce *modeladapter.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "api_key", ce.Field)
	assert.Contains(t, ce.Hint, "OPENAI_API_KEY")

	cfg.OpenAI.APIKey = "sk-test"
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_LlamaModelPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Llama.ModelPath = filepath.Join(t.TempDir(), "missing.gguf")

	var ce *modeladapter.ConfigError
	require.ErrorAs(t, cfg.Validate(), &ce)
	assert.Equal(t, "model_path", ce.Field)

	cfg.Llama.ModelPath = writeModel(t)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_UnknownBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "no-such-backend"

	var ce *modeladapter.ConfigError
	require.ErrorAs(t, cfg.Validate(), &ce)
	assert.Equal(t, "backend", ce.Field)
}

func TestConfig_Validate_Agent(t *testing.T) {
	base := DefaultConfig()
	base.Llama.ModelPath = writeModel(t)

	cfg := base
	cfg.Agent.Mode = "planner"
	assert.ErrorContains(t, cfg.Validate(), "unknown agent mode")

	cfg = base
	cfg.Agent.Window = -1
	assert.ErrorContains(t, cfg.Validate(), "window")

	cfg = base
	cfg.Agent.Timeout = -time.Second
	assert.ErrorContains(t, cfg.Validate(), "timeout")

	cfg = base
	cfg.LogLevel = "loud"
	assert.ErrorContains(t, cfg.Validate(), "unknown log level")
}

func TestConfig_Validate_MCPServers(t *testing.T) {
	base := DefaultConfig()
	base.Llama.ModelPath = writeModel(t)

	cfg := base
	cfg.MCPServers = []MCPConfig{{Command: "x"}}
	assert.ErrorContains(t, cfg.Validate(), "name is required")

	cfg = base
	cfg.MCPServers = []MCPConfig{{Name: "a"}}
	assert.ErrorContains(t, cfg.Validate(), "command or url")

	cfg = base
	cfg.MCPServers = []MCPConfig{{Name: "a", Command: "x"}, {Name: "a", URL: "http://h/sse"}}
	assert.ErrorContains(t, cfg.Validate(), "duplicate")
}

func TestConfig_Masked(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OpenAI.APIKey = "sk-abcdefgh1234"
	cfg.Tools = []string{"calculate"}

	masked := cfg.Masked()
	assert.Equal(t, "********************1234", masked.OpenAI.APIKey)
	assert.Equal(t, "sk-abcdefgh1234", cfg.OpenAI.APIKey, "original untouched")

	masked.Tools[0] = "changed"
	assert.Equal(t, "calculate", cfg.Tools[0])
}

func TestConfig_LlamaServerCommand(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Llama.ModelPath = "/models/m.gguf"
	cfg.Llama.ContextSize = 2048
	cfg.Llama.GPULayers = 20
	cfg.Llama.Threads = 8

	assert.Equal(t, "llama-server -m /models/m.gguf -c 2048 -ngl 20 -t 8 --port 8080", cfg.LlamaServerCommand())

	cfg.Llama.ServerURL = "http://gpu-box"
	assert.Equal(t, "llama-server -m /models/m.gguf -c 2048 -ngl 20 -t 8", cfg.LlamaServerCommand())
}

func TestConfig_LlamaOptions(t *testing.T) {
	cfg := DefaultConfig()
	opts := cfg.LlamaOptions()

	assert.Equal(t, cfg.Llama.ModelPath, opts.ModelPath)
	assert.Equal(t, cfg.Llama.ContextSize, opts.ContextSize)
	assert.Equal(t, cfg.Llama.Threads, opts.Threads)
	assert.Equal(t, cfg.Llama.MaxTokens, opts.MaxTokens)
	assert.InDelta(t, cfg.Llama.TopP, opts.TopP, 1e-9)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "NOT SET", MaskSecret(""))
	assert.Equal(t, "********************abc", MaskSecret("abc"))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"TRACE", LevelTrace},
		{" debug ", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestReplaceLogLevelNames(t *testing.T) {
	a := ReplaceLogLevelNames(nil, slog.Any(slog.LevelKey, LevelTrace))
	assert.Equal(t, "TRACE", a.Value.String())

	a = ReplaceLogLevelNames(nil, slog.Any(slog.LevelKey, slog.LevelDebug))
	assert.Equal(t, slog.LevelDebug, a.Value.Any())
}
