package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/h9-tec/AI-agent-explained/pkg/modeladapter"
	"github.com/h9-tec/AI-agent-explained/pkg/providers/llamacpp"
	"github.com/h9-tec/AI-agent-explained/pkg/providers/openai"
)

// Backend kinds.
const (
	BackendOpenAI   = "openai"
	BackendLlamaCpp = "llamacpp"
)

// Agent modes.
const (
	ModeTools = "tools"
	ModeReAct = "react"
)

// DefaultWindow is the number of recent messages kept besides the system
// prompt.
const DefaultWindow = 10

// DefaultOpenAITemperature is the sampling temperature for the hosted backend.
const DefaultOpenAITemperature = 0.7

// DefaultModelPath is where the llama.cpp model is looked up when nothing
// else is configured.
const DefaultModelPath = "models/llama-2-7b-chat.Q4_K_M.gguf"

// LevelTrace is more verbose than slog.LevelDebug.
const LevelTrace = slog.Level(-8)

// Config is the top-level engine configuration.
type Config struct {
	Backend    string       `yaml:"backend"`
	OpenAI     OpenAIConfig `yaml:"openai"`
	Llama      LlamaConfig  `yaml:"llama"`
	Agent      AgentConfig  `yaml:"agent"`
	Tools      []string     `yaml:"tools"` // Empty means every available tool.
	MCPServers []MCPConfig  `yaml:"mcp_servers"`
	LogLevel   string       `yaml:"log_level"`
	Verbose    bool         `yaml:"verbose"`
}

// OpenAIConfig configures the hosted backend.
type OpenAIConfig struct {
	APIKey      string  `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
}

// LlamaConfig configures the local llama.cpp backend.
type LlamaConfig struct {
	ModelPath   string  `yaml:"model_path"`
	ServerURL   string  `yaml:"server_url"`
	ContextSize int     `yaml:"n_ctx"`
	GPULayers   int     `yaml:"n_gpu_layers"`
	Threads     int     `yaml:"n_threads"`
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// AgentConfig holds agent behaviour settings.
type AgentConfig struct {
	Mode          string        `yaml:"mode"`
	MaxIterations int           `yaml:"max_iterations"`
	Window        int           `yaml:"window"`
	SystemPrompt  string        `yaml:"system_prompt"`
	Timeout       time.Duration `yaml:"timeout"` // Zero means no deadline per run.
}

// MCPConfig describes an MCP server to import tools from. Either Command or
// URL (SSE) must be set.
type MCPConfig struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	URL     string   `yaml:"url"`
	Prefix  bool     `yaml:"prefix"` // Prefix tool names with the server name.
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() Config {
	return Config{
		Backend: BackendLlamaCpp,
		OpenAI: OpenAIConfig{
			Model:       openai.DefaultModel,
			BaseURL:     openai.DefaultBaseURL,
			Temperature: DefaultOpenAITemperature,
		},
		Llama: LlamaConfig{
			ModelPath:   DefaultModelPath,
			ServerURL:   llamacpp.DefaultServerURL,
			ContextSize: llamacpp.DefaultContextSize,
			Threads:     llamacpp.DefaultThreads,
			Temperature: llamacpp.DefaultTemperature,
			TopP:        llamacpp.DefaultTopP,
			MaxTokens:   llamacpp.DefaultMaxTokens,
		},
		Agent: AgentConfig{
			Mode:          ModeTools,
			MaxIterations: 10,
			Window:        DefaultWindow,
		},
		LogLevel: "info",
		Verbose:  true,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
// Environment variables referenced as ${VAR} or $VAR in the YAML are expanded
// before parsing, so secrets can stay in the environment (or a .env file).
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("engine: load config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("engine: parse config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from the process environment. Unset variables
// leave the field alone; malformed numbers are reported.
func (c *Config) ApplyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	var errs []error
	num := func(key string, dst *int) {
		v, ok := os.LookupEnv(key)
		if !ok {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
	float := func(key string, dst *float64) {
		v, ok := os.LookupEnv(key)
		if !ok {
			return
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = f
	}

	str("LLM_BACKEND", &c.Backend)
	str("OPENAI_API_KEY", &c.OpenAI.APIKey)
	str("OPENAI_MODEL", &c.OpenAI.Model)
	str("OPENAI_BASE_URL", &c.OpenAI.BaseURL)
	str("LLAMA_MODEL_PATH", &c.Llama.ModelPath)
	str("LLAMA_SERVER_URL", &c.Llama.ServerURL)
	num("LLAMA_N_CTX", &c.Llama.ContextSize)
	num("LLAMA_N_GPU_LAYERS", &c.Llama.GPULayers)
	num("LLAMA_N_THREADS", &c.Llama.Threads)
	float("LLAMA_TEMPERATURE", &c.Llama.Temperature)
	float("LLAMA_TOP_P", &c.Llama.TopP)
	num("LLAMA_MAX_TOKENS", &c.Llama.MaxTokens)
	str("LOG_LEVEL", &c.LogLevel)

	if v, ok := os.LookupEnv("VERBOSE"); ok {
		c.Verbose = strings.EqualFold(strings.TrimSpace(v), "true")
	}

	if len(errs) > 0 {
		return fmt.Errorf("engine: environment: %w", errors.Join(errs...))
	}

	return nil
}

// Validate checks that the configuration is internally consistent and that
// the selected backend has what it needs. Backend problems are reported as
// *modeladapter.ConfigError.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendOpenAI:
		if strings.TrimSpace(c.OpenAI.APIKey) == "" {
			return &modeladapter.ConfigError{
				Backend: BackendOpenAI,
				Field:   "api_key",
				Reason:  "is required",
				Hint:    "set OPENAI_API_KEY in your .env file or environment",
			}
		}
	case BackendLlamaCpp:
		if err := llamacpp.CheckModelPath(c.Llama.ModelPath); err != nil {
			return err
		}
	default:
		if _, ok := getFactory(c.Backend); !ok {
			return &modeladapter.ConfigError{
				Backend: c.Backend,
				Field:   "backend",
				Reason:  fmt.Sprintf("unknown backend %q", c.Backend),
				Hint:    "set LLM_BACKEND to openai or llamacpp",
			}
		}
	}

	switch c.Agent.Mode {
	case "", ModeTools, ModeReAct:
	default:
		return fmt.Errorf("engine: config: unknown agent mode %q (valid: %s, %s)", c.Agent.Mode, ModeTools, ModeReAct)
	}

	if c.Agent.Timeout < 0 {
		return fmt.Errorf("engine: config: agent timeout must not be negative, got %s", c.Agent.Timeout)
	}

	if c.Agent.Window < 0 {
		return fmt.Errorf("engine: config: agent window must not be negative, got %d", c.Agent.Window)
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("engine: config: %w", err)
	}

	mcpNames := make(map[string]struct{}, len(c.MCPServers))
	for _, m := range c.MCPServers {
		if m.Name == "" {
			return fmt.Errorf("engine: config: mcp server name is required")
		}
		if m.Command == "" && m.URL == "" {
			return fmt.Errorf("engine: config: mcp server %q: command or url is required", m.Name)
		}
		if _, dup := mcpNames[m.Name]; dup {
			return fmt.Errorf("engine: config: duplicate mcp server name %q", m.Name)
		}
		mcpNames[m.Name] = struct{}{}
	}

	return nil
}

// Masked returns a copy safe to print: the API key keeps only its last four
// characters.
func (c Config) Masked() Config {
	out := c
	out.Tools = append([]string(nil), c.Tools...)
	out.MCPServers = append([]MCPConfig(nil), c.MCPServers...)
	out.OpenAI.APIKey = MaskSecret(c.OpenAI.APIKey)
	return out
}

// LlamaOptions maps the llama section onto adapter options.
func (c Config) LlamaOptions() llamacpp.Options {
	lc := c.Llama
	return llamacpp.Options{
		ModelPath:   lc.ModelPath,
		ContextSize: lc.ContextSize,
		GPULayers:   lc.GPULayers,
		Threads:     lc.Threads,
		Temperature: lc.Temperature,
		TopP:        lc.TopP,
		MaxTokens:   lc.MaxTokens,
	}
}

// LlamaServerCommand returns the llama-server command line matching the
// llama section. Context size, GPU layers and threads are fixed when the
// server starts; the adapter only sends sampling settings per request.
func (c Config) LlamaServerCommand() string {
	args := append([]string{"llama-server"}, c.LlamaOptions().ServerArgs()...)
	if u, err := url.Parse(c.Llama.ServerURL); err == nil && u.Port() != "" {
		args = append(args, "--port", u.Port())
	}
	return strings.Join(args, " ")
}

// MaskSecret hides all but the last four characters of s.
func MaskSecret(s string) string {
	if s == "" {
		return "NOT SET"
	}
	tail := s
	if len(s) > 4 {
		tail = s[len(s)-4:]
	}
	return strings.Repeat("*", 20) + tail
}

// ParseLogLevel converts a level name to a slog.Level. The empty string is
// info; "trace" is LevelTrace.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (valid: trace, debug, info, warn, error)", s)
	}
}

// ReplaceLogLevelNames renders LevelTrace as "TRACE". Use it as
// slog.HandlerOptions.ReplaceAttr.
func ReplaceLogLevelNames(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok && level <= LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}
