package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/h9-tec/AI-agent-explained/pkg/agents"
	"github.com/h9-tec/AI-agent-explained/pkg/agents/loop"
	"github.com/h9-tec/AI-agent-explained/pkg/agents/middleware"
	"github.com/h9-tec/AI-agent-explained/pkg/agents/react"
	"github.com/h9-tec/AI-agent-explained/pkg/chats/chat"
	"github.com/h9-tec/AI-agent-explained/pkg/modeladapter"
	"github.com/h9-tec/AI-agent-explained/pkg/modeladapter/usage"
	"github.com/h9-tec/AI-agent-explained/pkg/tools/builtin"
	"github.com/h9-tec/AI-agent-explained/pkg/tools/mcpclient"
	"github.com/h9-tec/AI-agent-explained/pkg/tools/toolbox"
)

// Engine is the composition root that assembles all framework components from
// configuration and exposes them through a frontend-agnostic API.
type Engine struct {
	cfg        Config
	logger     *slog.Logger
	events     *EventBus
	completer  modeladapter.Completer
	tools      *toolbox.ToolBox
	notes      *builtin.Notes
	mcpClients []*mcpclient.MCPClient

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger handed to the backend, the toolbox and the
// agent middleware. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithCompleter bypasses the provider factories and uses c as the backend.
func WithCompleter(c modeladapter.Completer) Option {
	return func(e *Engine) {
		e.completer = c
	}
}

// New creates an Engine from the given configuration. It validates the
// config, builds the backend eagerly so configuration errors surface before
// any agent runs, and assembles the toolbox from the builtins and any
// configured MCP servers.
func New(ctx context.Context, cfg Config, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:      cfg,
		logger:   slog.Default(),
		events:   NewEventBus(),
		sessions: make(map[string]*Session),
	}
	for _, o := range opts {
		o(e)
	}

	if e.completer == nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}

		c, err := buildCompleter(cfg, e.logger)
		if err != nil {
			return nil, err
		}
		e.completer = c
	}

	if err := e.buildTools(ctx); err != nil {
		_ = e.Close()
		return nil, err
	}

	attrs := []any{
		"backend", cfg.Backend,
		"tools", e.tools.Len(),
		"mcp_servers", len(e.mcpClients),
	}
	if r, ok := e.completer.(modeladapter.UsageReporter); ok {
		attrs = append(attrs, "max_tokens", r.ModelMaxTokens())
	}
	e.logger.DebugContext(ctx, "engine ready", attrs...)

	return e, nil
}

func (e *Engine) buildTools(ctx context.Context) error {
	e.notes = builtin.NewNotes(nil)
	boxes := []*toolbox.ToolBox{
		builtin.New(builtin.Options{Notes: e.notes}, toolbox.WithLogger(e.logger)),
	}

	for _, mc := range e.cfg.MCPServers {
		var clientOpts []mcpclient.Option
		if mc.Prefix {
			clientOpts = append(clientOpts, mcpclient.WithPrefix(mc.Name))
		}

		var (
			client *mcpclient.MCPClient
			err    error
		)
		if mc.URL != "" {
			client, err = mcpclient.NewSSE(ctx, mc.URL, clientOpts...)
		} else {
			client, err = mcpclient.New(ctx, mc.Command, mc.Args, clientOpts...)
		}
		if err != nil {
			return fmt.Errorf("engine: mcp %q: %w", mc.Name, err)
		}
		e.mcpClients = append(e.mcpClients, client)

		tb, err := client.ToolBox(ctx, toolbox.WithLogger(e.logger))
		if err != nil {
			return fmt.Errorf("engine: mcp %q: %w", mc.Name, err)
		}
		boxes = append(boxes, tb)
	}

	all, err := builtin.Compose(boxes, toolbox.WithLogger(e.logger))
	if err != nil {
		return fmt.Errorf("engine: tools: %w", err)
	}

	for _, name := range e.cfg.Tools {
		if _, ok := all.Get(name); !ok {
			e.logger.WarnContext(ctx, "configured tool not available", "tool", name)
		}
	}

	e.tools = all.Filter(e.cfg.Tools)

	return nil
}

// Config returns the configuration the engine was built from.
func (e *Engine) Config() Config { return e.cfg }

// Events returns the engine's event bus.
func (e *Engine) Events() *EventBus { return e.events }

// Tools returns the toolbox every agent receives.
func (e *Engine) Tools() *toolbox.ToolBox { return e.tools }

// Notes returns the note pad behind the save_note tool.
func (e *Engine) Notes() *builtin.Notes { return e.notes }

// Usage returns the tokens the backend has reported so far. The bool is false
// when the backend does not track usage or has not completed a call yet.
func (e *Engine) Usage() (usage.TokenCount, bool) {
	r, ok := e.completer.(modeladapter.UsageReporter)
	if !ok {
		return usage.TokenCount{}, false
	}
	t := r.UsageTracker()
	return t.Total(), t.Count() > 0
}

// Completer returns the configured backend.
func (e *Engine) Completer() modeladapter.Completer { return e.completer }

// NewAgent builds a fresh agent for mode (ModeTools or ModeReAct; empty means
// the configured mode). The agent has its own conversation, shares the
// engine's toolbox and backend, and publishes its events on the bus.
func (e *Engine) NewAgent(mode string) (agents.Agent, error) {
	if mode == "" {
		mode = e.cfg.Agent.Mode
	}
	if mode == "" {
		mode = ModeTools
	}

	base := agents.NewBase(mode, e.completer, newChat(e.cfg.Agent.Window), e.tools)
	base.SystemPrompt = e.cfg.Agent.SystemPrompt
	base.OnEvent = e.events.AgentEvents()

	var a agents.Agent
	switch mode {
	case ModeTools:
		a = loop.New(base, loop.Options{MaxIterations: e.cfg.Agent.MaxIterations})
	case ModeReAct:
		a = react.New(base, react.Options{MaxIterations: e.cfg.Agent.MaxIterations})
	default:
		return nil, fmt.Errorf("engine: unknown agent mode %q (valid: %s, %s)", mode, ModeTools, ModeReAct)
	}

	mws := []middleware.Middleware{middleware.Recovery()}
	if e.cfg.Agent.Timeout > 0 {
		mws = append(mws, middleware.Timeout(e.cfg.Agent.Timeout))
	}
	mws = append(mws, middleware.Logger(e.logger), middleware.OutputGuardrail(requireAnswer))

	return middleware.Apply(a, mws...), nil
}

// ErrEmptyAnswer is returned when a run finishes without any answer text.
var ErrEmptyAnswer = errors.New("engine: model returned an empty answer")

func requireAnswer(res agents.Result) error {
	if res.Outcome == agents.OutcomeDone && strings.TrimSpace(res.Text) == "" {
		return ErrEmptyAnswer
	}
	return nil
}

// NewSession creates a stateful chat session.
func (e *Engine) NewSession() *Session {
	s := newSession(e.completer, newChat(e.cfg.Agent.Window), e.cfg.Agent.SystemPrompt, e.events)

	e.mu.Lock()
	e.sessions[s.ID()] = s
	e.mu.Unlock()

	return s
}

// Session returns an existing session by ID.
func (e *Engine) Session(id string) (*Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[id]
	return s, ok
}

// Close shuts down MCP clients and releases resources.
func (e *Engine) Close() error {
	var errs []error
	for _, c := range e.mcpClients {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.mcpClients = nil

	return errors.Join(errs...)
}

// newChat returns a windowed conversation, or an unbounded one when window
// is not positive.
func newChat(window int) *chat.Chat {
	if window <= 0 {
		return chat.New()
	}
	return chat.NewWindow(window)
}
