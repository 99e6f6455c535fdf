package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/h9-tec/AI-agent-explained/pkg/chats/chat"
	"github.com/h9-tec/AI-agent-explained/pkg/chats/content"
	"github.com/h9-tec/AI-agent-explained/pkg/chats/message"
	"github.com/h9-tec/AI-agent-explained/pkg/chats/role"
	"github.com/h9-tec/AI-agent-explained/pkg/modeladapter"
	"github.com/h9-tec/AI-agent-explained/pkg/tools/toolbox"
)

// Base provides shared functionality for agent types. It owns one Chat, one
// Completer and one ToolBox. Embed Base in concrete agent structs to inherit
// Begin, Complete, CallTools and Finish.
// Base is not safe for concurrent use; callers must synchronize externally.
type Base struct {
	Name         string
	Completer    modeladapter.Completer
	ToolBox      *toolbox.ToolBox
	SystemPrompt string
	OnEvent      EventFunc

	chat  *chat.Chat
	stats Stats
}

// NewBase creates a Base. A nil chat gets an unbounded one and a nil toolbox
// an empty one.
func NewBase(name string, c modeladapter.Completer, ch *chat.Chat, tb *toolbox.ToolBox) Base {
	if ch == nil {
		ch = chat.New()
	}
	if tb == nil {
		tb = toolbox.New()
	}

	return Base{
		Name:      name,
		Completer: c,
		ToolBox:   tb,
		chat:      ch,
	}
}

// AgentName returns the agent's name.
func (b *Base) AgentName() string { return b.Name }

// AgentChat returns the agent's conversation.
func (b *Base) AgentChat() *chat.Chat { return b.chat }

// Stats returns the counters of the current or last run.
func (b *Base) Stats() Stats {
	s := b.stats
	if !s.StartedAt.IsZero() && s.Elapsed == 0 {
		s.Elapsed = time.Since(s.StartedAt)
	}
	return s
}

// Init seeds the conversation with the system prompt. It only does so on an
// empty conversation, so calling it again is a no-op.
func (b *Base) Init() error {
	if b.SystemPrompt == "" || b.chat.Len() > 0 {
		return nil
	}

	return b.chat.Append(message.NewText(b.Name, role.System, b.SystemPrompt))
}

// Reset truncates the conversation back to its system prompt and clears the
// run counters.
func (b *Base) Reset() {
	b.chat.Reset()
	b.stats = Stats{}
}

// Begin starts a run: it seeds the system prompt once, appends the task as a
// user turn and resets the counters.
func (b *Base) Begin(ctx context.Context, task string) error {
	if err := b.Init(); err != nil {
		return err
	}
	if err := b.chat.Append(message.NewText("user", role.User, task)); err != nil {
		return err
	}

	b.stats = Stats{RunID: uuid.NewString(), StartedAt: time.Now()}
	b.emit(Event{Kind: EventRunStarted, Text: task})

	return ctx.Err()
}

// Iterate counts one more iteration.
func (b *Base) Iterate() int {
	b.stats.Iterations++
	b.emit(Event{Kind: EventIteration})
	return b.stats.Iterations
}

// Complete sends the materialized window to the completer and appends the
// assistant reply to the conversation. The reply is always recorded, even
// when it is empty.
func (b *Base) Complete(ctx context.Context, req modeladapter.Request) (modeladapter.Completion, error) {
	req.Messages = b.chat.Window()

	out, err := b.Completer.Complete(ctx, req)
	if err != nil {
		return modeladapter.Completion{}, err
	}
	if out.ToolCalls == nil {
		out.ToolCalls = []content.ToolCall{}
	}

	if err := b.chat.Append(out.Message(b.Name)); err != nil {
		return modeladapter.Completion{}, fmt.Errorf("agents: record reply: %w", err)
	}

	b.emit(Event{Kind: EventCompletion, Text: out.Text})

	return out, nil
}

// CallTools executes the calls sequentially in the given order, appending
// each result to the conversation as soon as it is available.
func (b *Base) CallTools(ctx context.Context, calls []content.ToolCall) []content.ToolResult {
	results := make([]content.ToolResult, 0, len(calls))

	for _, tc := range calls {
		b.emit(Event{Kind: EventToolCallStart, ToolCall: &tc})

		result := b.ToolBox.Call(ctx, tc)
		b.stats.ToolCalls++
		results = append(results, result)

		// Tool messages are always legal in the chat.
		_ = b.chat.Append(message.NewToolResult(b.Name, result))

		b.emit(Event{Kind: EventToolCallEnd, ToolCall: &tc, Result: &result})
	}

	return results
}

// Observe executes one tool call and records its result as a user
// observation turn rather than a tool message.
func (b *Base) Observe(ctx context.Context, tc content.ToolCall) string {
	b.emit(Event{Kind: EventToolCallStart, ToolCall: &tc})

	result := b.ToolBox.Call(ctx, tc)
	b.stats.ToolCalls++

	text := "Observation: " + result.Content
	_ = b.chat.Append(message.NewText("observer", role.User, text))

	b.emit(Event{Kind: EventToolCallEnd, ToolCall: &tc, Result: &result})
	b.emit(Event{Kind: EventObservation, Text: text})

	return result.Content
}

// Finish closes the run and builds its Result.
func (b *Base) Finish(outcome Outcome, text string) Result {
	b.stats.Elapsed = time.Since(b.stats.StartedAt)
	b.emit(Event{Kind: EventRunFinished, Outcome: outcome, Text: text})

	return Result{Outcome: outcome, Text: text, Stats: b.stats}
}

func (b *Base) emit(e Event) {
	if b.OnEvent == nil {
		return
	}

	e.Agent = b.Name
	e.RunID = b.stats.RunID
	e.Iteration = b.stats.Iterations
	e.Timestamp = time.Now()
	b.OnEvent(e)
}
