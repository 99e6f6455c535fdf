package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h9-tec/AI-agent-explained/pkg/engine"
	"github.com/h9-tec/AI-agent-explained/pkg/modeladapter"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestLoadConfig_Layering(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeFile(t, "agent.yaml", `
backend: llamacpp
log_level: warn
agent:
  mode: react
  window: 4
llama:
  n_threads: 2
`)
	t.Setenv("LLAMA_N_THREADS", "8")
	t.Setenv("VERBOSE", "true")

	cfg, err := loadConfig(&globalFlags{configPath: path, logLevel: "debug", quiet: true})
	require.NoError(t, err)

	assert.Equal(t, engine.BackendLlamaCpp, cfg.Backend)
	assert.Equal(t, engine.ModeReAct, cfg.Agent.Mode)
	assert.Equal(t, 4, cfg.Agent.Window)
	assert.Equal(t, 8, cfg.Llama.Threads, "environment overrides the file")
	assert.Equal(t, "debug", cfg.LogLevel, "flags override the file")
	assert.False(t, cfg.Verbose, "--quiet wins over VERBOSE")
}

func TestLoadConfig_DefaultFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, defaultConfigPath), []byte("agent:\n  max_iterations: 3\n"), 0o600))

	cfg, err := loadConfig(&globalFlags{})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Agent.MaxIterations)
}

func TestLoadConfig_NoFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig(&globalFlags{})
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultWindow, cfg.Agent.Window)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := loadConfig(&globalFlags{configPath: "nope.yaml"})
	assert.Error(t, err)
}

func TestLoadConfig_BadEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LLAMA_MAX_TOKENS", "lots")

	_, err := loadConfig(&globalFlags{})
	assert.ErrorContains(t, err, "LLAMA_MAX_TOKENS")
}

func TestLoadDotEnv(t *testing.T) {
	assert.NoError(t, loadDotEnv(""))
	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := writeFile(t, ".env", "AGENT_DOTENV_TEST=loaded\n")
	t.Setenv("AGENT_DOTENV_TEST", "")
	require.NoError(t, os.Unsetenv("AGENT_DOTENV_TEST"))

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("AGENT_DOTENV_TEST"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "trace")
	require.NoError(t, err)

	logger.Log(context.Background(), engine.LevelTrace, "deep detail")
	assert.Contains(t, buf.String(), "level=TRACE")

	_, err = newLogger(&buf, "loud")
	assert.Error(t, err)
}

func TestOfflineCompleter(t *testing.T) {
	_, err := offlineCompleter{}.Complete(context.Background(), modeladapter.Request{})
	assert.Error(t, err)
}

func TestApplyRunFlags(t *testing.T) {
	cfg := engine.DefaultConfig()
	applyRunFlags(&cfg, &runFlags{window: -1})
	assert.Equal(t, engine.DefaultConfig().Agent, cfg.Agent)

	applyRunFlags(&cfg, &runFlags{mode: engine.ModeReAct, maxIterations: 5, window: 0})
	assert.Equal(t, engine.ModeReAct, cfg.Agent.Mode)
	assert.Equal(t, 5, cfg.Agent.MaxIterations)
	assert.Equal(t, 0, cfg.Agent.Window)
}

func TestExitError(t *testing.T) {
	var err error = &exitError{code: 2, msg: "exhausted"}

	var ee *exitError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, 2, ee.code)
	assert.Equal(t, "exhausted", err.Error())
}

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestToolsCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := executeRoot(t, "tools", "--log-level", "error")
	require.NoError(t, err)

	for _, name := range []string{"calculate", "current_time", "save_note", "list_notes", "get_weather", "get_news", "search"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "expression")
}

func TestToolsCommand_FilteredByConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeFile(t, "agent.yaml", "tools: [calculate]\n")

	out, err := executeRoot(t, "tools", "--schema", "-c", path, "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, out, "calculate")
	assert.NotContains(t, out, "get_weather")
	assert.Contains(t, out, `"type":"object"`)
}

func TestConfigCommand_MasksKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-test-abcdef1234")

	out, err := executeRoot(t, "config")
	require.NoError(t, err)

	assert.NotContains(t, out, "sk-test-abcdef1234")
	assert.Contains(t, out, "1234")
	assert.Contains(t, out, "backend:")
}

func TestConfigValidateCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LLM_BACKEND", engine.BackendOpenAI)
	t.Setenv("OPENAI_API_KEY", "")

	_, err := executeRoot(t, "config", "validate")
	var ce *modeladapter.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "api_key", ce.Field)

	t.Setenv("OPENAI_API_KEY", "sk-test")
	out, err := executeRoot(t, "config", "validate")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Configuration is valid"))
}

func TestConfigCommands_LlamaServerHint(t *testing.T) {
	t.Chdir(t.TempDir())
	model := writeFile(t, "m.gguf", "gguf")
	t.Setenv("LLM_BACKEND", engine.BackendLlamaCpp)
	t.Setenv("LLAMA_MODEL_PATH", model)
	t.Setenv("LLAMA_N_THREADS", "6")
	t.Setenv("LLAMA_SERVER_URL", "http://localhost:9000")

	want := "llama-server -m " + model + " -c 4096 -ngl 0 -t 6 --port 9000"

	out, err := executeRoot(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "# "+want)

	out, err = executeRoot(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Serve the model with: "+want)
}

func TestRunCommand_RequiresTask(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := executeRoot(t, "run")
	assert.Error(t, err)
}
