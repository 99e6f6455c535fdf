// Package middleware provides composable middleware for agents.Agent.
// Each middleware wraps an Agent's Run method, and the wrapped value is itself
// an Agent, so middleware composes naturally via Chain or Apply.
//
// If the inner agent implements agents.NamedAgent, every middleware wrapper
// preserves AgentName() and AgentChat() by delegating to the inner agent.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/h9-tec/AI-agent-explained/pkg/agents"
	"github.com/h9-tec/AI-agent-explained/pkg/chats/chat"
)

// Middleware wraps an Agent, returning a new Agent with added behaviour.
type Middleware func(next agents.Agent) agents.Agent

// Chain composes multiple middleware into a single Middleware.
// The first middleware in the list is the outermost (runs first).
func Chain(mws ...Middleware) Middleware {
	return func(next agents.Agent) agents.Agent {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// Apply wraps an agent with the given middleware. The first middleware
// in the list is the outermost (runs first).
func Apply(agent agents.Agent, mws ...Middleware) agents.Agent {
	return Chain(mws...)(agent)
}

// --- NamedAgent helper ---

// namedAgentBase provides NamedAgent delegation for middleware wrappers.
// If the inner agent implements agents.NamedAgent, the wrapper delegates
// AgentName and AgentChat. Otherwise it returns zero values.
type namedAgentBase struct {
	next agents.Agent
}

func (n *namedAgentBase) AgentName() string {
	if na, ok := n.next.(agents.NamedAgent); ok {
		return na.AgentName()
	}
	return ""
}

func (n *namedAgentBase) AgentChat() *chat.Chat {
	if na, ok := n.next.(agents.NamedAgent); ok {
		return na.AgentChat()
	}
	return nil
}

// --- Timeout middleware ---

type timeoutAgent struct {
	namedAgentBase
	timeout time.Duration
}

func (a *timeoutAgent) Run(ctx context.Context, task string) (agents.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	return a.next.Run(ctx, task)
}

// Timeout returns a Middleware that wraps the agent's context with a deadline.
func Timeout(d time.Duration) Middleware {
	return func(next agents.Agent) agents.Agent {
		return &timeoutAgent{
			namedAgentBase: namedAgentBase{next: next},
			timeout:        d,
		}
	}
}

// --- Recovery middleware ---

type recoveryAgent struct {
	namedAgentBase
}

func (a *recoveryAgent) Run(ctx context.Context, task string) (res agents.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("agent panicked: %v", r)
		}
	}()

	return a.next.Run(ctx, task)
}

// Recovery returns a Middleware that catches panics and converts them to errors.
func Recovery() Middleware {
	return func(next agents.Agent) agents.Agent {
		return &recoveryAgent{
			namedAgentBase: namedAgentBase{next: next},
		}
	}
}

// --- Logger middleware ---

type loggerAgent struct {
	namedAgentBase
	log *slog.Logger
}

func (a *loggerAgent) Run(ctx context.Context, task string) (agents.Result, error) {
	name := a.AgentName()
	a.log.InfoContext(ctx, "agent started", "agent", name)

	start := time.Now()

	res, err := a.next.Run(ctx, task)

	duration := time.Since(start)

	if err != nil {
		a.log.ErrorContext(ctx, "agent finished with error",
			"agent", name,
			"duration", duration,
			"error", err,
		)
	} else {
		a.log.InfoContext(ctx, "agent finished",
			"agent", name,
			"duration", duration,
			"outcome", res.Outcome,
			"iterations", res.Stats.Iterations,
			"tool_calls", res.Stats.ToolCalls,
		)
	}

	return res, err
}

// Logger returns a Middleware that logs agent start, duration, and error.
// If the inner agent implements agents.NamedAgent, the agent's name is
// included in the log attributes.
func Logger(log *slog.Logger) Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next agents.Agent) agents.Agent {
		return &loggerAgent{
			namedAgentBase: namedAgentBase{next: next},
			log:            log,
		}
	}
}

// --- OutputGuardrail middleware ---

type guardrailAgent struct {
	namedAgentBase
	check func(agents.Result) error
}

func (a *guardrailAgent) Run(ctx context.Context, task string) (agents.Result, error) {
	res, err := a.next.Run(ctx, task)
	if err != nil {
		return res, err
	}

	if checkErr := a.check(res); checkErr != nil {
		return agents.Result{}, checkErr
	}

	return res, nil
}

// OutputGuardrail returns a Middleware that validates the result of a run.
// If check returns an error, that error is returned instead of the result.
func OutputGuardrail(check func(agents.Result) error) Middleware {
	return func(next agents.Agent) agents.Agent {
		return &guardrailAgent{
			namedAgentBase: namedAgentBase{next: next},
			check:          check,
		}
	}
}
