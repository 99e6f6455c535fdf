// Package react implements the ReAct (Reason + Act) agent pattern over plain
// text. The model is told to answer in Thought / Action / Final Answer form;
// each Action is executed and fed back as an Observation until a Final Answer
// appears. No native tool calling is used, so any backend works.
package react

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/h9-tec/AI-agent-explained/pkg/agents"
	"github.com/h9-tec/AI-agent-explained/pkg/chats/content"
	"github.com/h9-tec/AI-agent-explained/pkg/modeladapter"
	"github.com/h9-tec/AI-agent-explained/pkg/tools/textcall"
	"github.com/h9-tec/AI-agent-explained/pkg/tools/toolbox"
)

// Compile-time check that *ReActAgent implements agents.Agent.
var _ agents.Agent = (*ReActAgent)(nil)

// FinalAnswerMarker introduces the answer that ends a run.
const FinalAnswerMarker = "Final Answer:"

// Options configures the ReAct loop.
type Options struct {
	// MaxIterations limits the number of reason-act cycles. Zero or less
	// means agents.DefaultMaxIterations.
	MaxIterations int
	// Temperature overrides the sampling temperature. Nil means 0 so the
	// trace is deterministic.
	Temperature *float64
	// MaxTokens overrides the backend default when positive.
	MaxTokens int
}

// ReActAgent implements the ReAct pattern by embedding agents.Base.
type ReActAgent struct {
	agents.Base
	Options Options
}

// New creates a ReActAgent from a Base and options. An empty system prompt
// is replaced by SystemPrompt built from the base's toolbox.
func New(base agents.Base, opts Options) *ReActAgent {
	if base.SystemPrompt == "" {
		base.SystemPrompt = SystemPrompt(base.ToolBox.Descriptors())
	}

	return &ReActAgent{Base: base, Options: opts}
}

// SystemPrompt renders the tool list and the response format the agent
// expects.
func SystemPrompt(tools []toolbox.Descriptor) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant that solves problems step by step.\n\n")
	b.WriteString("You have access to the following tools:\n")

	for _, t := range tools {
		params := make([]string, len(t.Params))
		for i, p := range t.Params {
			params[i] = p.Name
		}
		desc := t.Description
		if desc == "" {
			desc = "No description available"
		}
		fmt.Fprintf(&b, "- %s(%s): %s\n", t.Name, strings.Join(params, ", "), desc)
	}

	b.WriteString(`
To solve the problem, you MUST use the following format:

Thought: [Your reasoning about what to do next]
Action: [The tool to use, in the format: tool_name(arg1="value1", arg2="value2")]
Observation: [The result will be provided by the system]

You can repeat the Thought/Action/Observation cycle as many times as needed.

When you have enough information to answer the question, use this format:

Thought: I now have all the information needed to answer the question.
Final Answer: [Your final answer to the original question]

Important:
- Always start with a Thought
- Only use tools that are available
- Be specific in your reasoning
- When you have the answer, provide a Final Answer
`)

	return b.String()
}

// Run executes the ReAct loop. A reply containing a non-empty Final Answer
// ends the run with OutcomeDone. Otherwise the first Action in the reply is
// executed and its result appended as an Observation. A reply with neither
// ends the run with OutcomeProtocolViolation. Reaching the cap ends it with
// OutcomeExhausted.
func (a *ReActAgent) Run(ctx context.Context, task string) (agents.Result, error) {
	if err := a.Begin(ctx, task); err != nil {
		return agents.Result{}, err
	}

	temp := a.Options.Temperature
	if temp == nil {
		temp = modeladapter.Float(0)
	}

	limit := agents.Limit(a.Options.MaxIterations)

	for range limit {
		if err := ctx.Err(); err != nil {
			return agents.Result{}, err
		}

		iteration := a.Iterate()

		out, err := a.Complete(ctx, modeladapter.Request{
			Temperature: temp,
			MaxTokens:   a.Options.MaxTokens,
		})
		if err != nil {
			return agents.Result{}, err
		}

		if answer, ok := FinalAnswer(out.Text); ok {
			return a.Finish(agents.OutcomeDone, answer), nil
		}

		matches := textcall.Parse(out.Text, textcall.ActionPrefix)
		if len(matches) == 0 {
			return a.Finish(agents.OutcomeProtocolViolation, agents.ProtocolViolationSentinel), nil
		}

		first := matches[0]
		a.Observe(ctx, content.ToolCall{
			ID:        "action_" + strconv.Itoa(iteration),
			Name:      first.Name,
			Arguments: first.Args,
		})
	}

	return a.Finish(agents.OutcomeExhausted, agents.IncompleteSentinel), nil
}

// FinalAnswer extracts the trimmed text after the first Final Answer marker.
// It reports false when the marker is absent or nothing follows it.
func FinalAnswer(text string) (string, bool) {
	_, after, found := strings.Cut(text, FinalAnswerMarker)
	if !found {
		return "", false
	}

	answer := strings.TrimSpace(after)

	return answer, answer != ""
}
