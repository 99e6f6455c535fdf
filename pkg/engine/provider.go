package engine

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/h9-tec/AI-agent-explained/pkg/modeladapter"
	"github.com/h9-tec/AI-agent-explained/pkg/providers/llamacpp"
	"github.com/h9-tec/AI-agent-explained/pkg/providers/openai"
)

// ProviderFactory creates a Completer from the engine configuration.
type ProviderFactory func(cfg Config, logger *slog.Logger) (modeladapter.Completer, error)

var (
	factoryMu   sync.RWMutex
	factories   = map[string]ProviderFactory{}
	defaultsReg sync.Once
)

func ensureDefaults() {
	defaultsReg.Do(func() {
		factoryMu.Lock()
		defer factoryMu.Unlock()

		factories[BackendOpenAI] = newOpenAI
		factories[BackendLlamaCpp] = newLlamaCpp
	})
}

// RegisterProvider registers a custom provider factory under the given
// backend kind. It can be called before New to extend the engine with
// additional backends.
func RegisterProvider(kind string, factory ProviderFactory) {
	ensureDefaults()

	factoryMu.Lock()
	defer factoryMu.Unlock()

	factories[kind] = factory
}

func getFactory(kind string) (ProviderFactory, bool) {
	ensureDefaults()

	factoryMu.RLock()
	defer factoryMu.RUnlock()

	f, ok := factories[kind]
	return f, ok
}

func newOpenAI(cfg Config, _ *slog.Logger) (modeladapter.Completer, error) {
	return openai.New(openai.Options{
		BaseURL:     cfg.OpenAI.BaseURL,
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
	})
}

func newLlamaCpp(cfg Config, logger *slog.Logger) (modeladapter.Completer, error) {
	opts := cfg.LlamaOptions()
	opts.Logger = logger
	rt := llamacpp.NewServerRuntime(cfg.Llama.ServerURL, filepath.Base(opts.ModelPath), nil)

	return llamacpp.New(opts, rt)
}

// buildCompleter creates the Completer for cfg.Backend using the registered
// factory.
func buildCompleter(cfg Config, logger *slog.Logger) (modeladapter.Completer, error) {
	factory, ok := getFactory(cfg.Backend)
	if !ok {
		return nil, fmt.Errorf("engine: unknown backend %q", cfg.Backend)
	}

	return factory(cfg, logger)
}
