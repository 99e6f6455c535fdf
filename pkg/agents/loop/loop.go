// Package loop implements the native tool calling agent. Each iteration sends
// the conversation window with the registry's tool descriptors, executes any
// tool calls the model returns, and stops when a reply carries none.
package loop

import (
	"context"

	"github.com/h9-tec/AI-agent-explained/pkg/agents"
	"github.com/h9-tec/AI-agent-explained/pkg/modeladapter"
)

// Compile-time check that *Agent implements agents.Agent.
var _ agents.Agent = (*Agent)(nil)

// DefaultSystemPrompt instructs the model to use its tools.
const DefaultSystemPrompt = `You are a helpful AI assistant with access to various tools.
Use the tools when needed to answer the user's questions accurately.
Think step by step and use multiple tools if necessary.

After using tools and getting results, provide a final answer to the user.`

// Options configures the loop.
type Options struct {
	// MaxIterations caps the number of model calls. Zero or less means
	// agents.DefaultMaxIterations.
	MaxIterations int
	// Temperature overrides the backend default when set.
	Temperature *float64
	// MaxTokens overrides the backend default when positive.
	MaxTokens int
}

// Agent drives the tool calling loop by embedding agents.Base.
type Agent struct {
	agents.Base
	Options Options
}

// New creates an Agent from a Base and options. An empty system prompt gets
// DefaultSystemPrompt.
func New(base agents.Base, opts Options) *Agent {
	if base.SystemPrompt == "" {
		base.SystemPrompt = DefaultSystemPrompt
	}

	return &Agent{Base: base, Options: opts}
}

// Run executes the loop for one task. It returns OutcomeDone with the final
// reply text, or OutcomeExhausted with agents.IncompleteSentinel once the
// iteration cap is reached. Backend errors abort the run unchanged.
func (a *Agent) Run(ctx context.Context, task string) (agents.Result, error) {
	if err := a.Begin(ctx, task); err != nil {
		return agents.Result{}, err
	}

	limit := agents.Limit(a.Options.MaxIterations)

	for range limit {
		if err := ctx.Err(); err != nil {
			return agents.Result{}, err
		}

		a.Iterate()

		out, err := a.Complete(ctx, modeladapter.Request{
			Temperature: a.Options.Temperature,
			MaxTokens:   a.Options.MaxTokens,
			Tools:       a.ToolBox.Descriptors(),
			ToolChoice:  modeladapter.ToolChoiceAuto,
		})
		if err != nil {
			return agents.Result{}, err
		}

		if len(out.ToolCalls) == 0 {
			return a.Finish(agents.OutcomeDone, out.Text), nil
		}

		a.CallTools(ctx, out.ToolCalls)
	}

	return a.Finish(agents.OutcomeExhausted, agents.IncompleteSentinel), nil
}
