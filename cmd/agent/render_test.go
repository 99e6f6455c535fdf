package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h9-tec/AI-agent-explained/pkg/agents"
	"github.com/h9-tec/AI-agent-explained/pkg/chats/content"
	"github.com/h9-tec/AI-agent-explained/pkg/chats/message"
	"github.com/h9-tec/AI-agent-explained/pkg/chats/role"
	"github.com/h9-tec/AI-agent-explained/pkg/engine"
	"github.com/h9-tec/AI-agent-explained/pkg/modeladapter/usage"
)

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b c", preview("  a\n\tb   c  ", 20))
	assert.Equal(t, "abcdefg...", preview("abcdefghijklmnop", 10))
	assert.Equal(t, "", preview("", 10))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "12345678", shortID("1234567890abcdef"))
	assert.Equal(t, "abc", shortID("abc"))
}

func TestFormatEvent(t *testing.T) {
	call := &content.ToolCall{ID: "c1", Name: "calculate", Arguments: map[string]string{"expression": "2+2"}}

	tests := []struct {
		name  string
		event engine.Event
		want  string
	}{
		{
			name:  "iteration",
			event: engine.Event{Kind: engine.EventIteration, Data: agents.Event{Iteration: 3}},
			want:  "--- Iteration 3 ---",
		},
		{
			name:  "thought",
			event: engine.Event{Kind: engine.EventCompletion, Data: agents.Event{Text: "  Thought: add them\n"}},
			want:  "Thought: add them",
		},
		{
			name:  "tool call",
			event: engine.Event{Kind: engine.EventToolCallStart, Data: agents.Event{ToolCall: call}},
			want:  `calculate(expression="2+2")`,
		},
		{
			name: "tool result",
			event: engine.Event{Kind: engine.EventToolCallEnd, Data: agents.Event{
				Result: &content.ToolResult{ToolCallID: "c1", Name: "calculate", Content: "4"},
			}},
			want: treeCorner + "4",
		},
		{
			name: "run finished",
			event: engine.Event{Kind: engine.EventRunFinished, Agent: "tools", Data: agents.Event{
				Outcome: agents.OutcomeDone, Iteration: 2,
			}},
			want: "run finished: done after 2 iteration(s)",
		},
		{
			name:  "run started",
			event: engine.Event{Kind: engine.EventRunStarted, Agent: "react", RunID: "0123456789abcdef"},
			want:  "[react] run 01234567 started",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, formatEvent(tt.event), tt.want)
		})
	}
}

func TestFormatEvent_Hidden(t *testing.T) {
	assert.Empty(t, formatEvent(engine.Event{Kind: engine.EventCompletion, Data: agents.Event{Text: "   "}}))
	assert.Empty(t, formatEvent(engine.Event{Kind: engine.EventToolCallStart, Data: agents.Event{}}))
	assert.Empty(t, formatEvent(engine.Event{Kind: engine.EventToolCallEnd}))
	assert.Empty(t, formatEvent(engine.Event{Kind: engine.EventMessageAdded}))
}

func TestTraceEvents(t *testing.T) {
	bus := engine.NewEventBus()
	sub := bus.Subscribe(8)

	var buf bytes.Buffer
	done := traceEvents(&buf, sub)

	bus.Publish(engine.Event{Kind: engine.EventIteration, Data: agents.Event{Iteration: 1}})
	bus.Publish(engine.Event{Kind: engine.EventMessageAdded})
	bus.Unsubscribe(sub)
	<-done

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "--- Iteration 1 ---")
}

func TestFormatHistory(t *testing.T) {
	assert.Contains(t, formatHistory(nil), "(empty)")

	out := formatHistory([]message.Message{
		message.NewText("", role.System, "You are helpful."),
		message.NewText("", role.User, "hi\nthere"),
		message.NewText("assistant", role.Assistant, "hello"),
	})

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "1.")
	assert.Contains(t, lines[0], "You are helpful.")
	assert.Contains(t, lines[1], "hi there")
	assert.Contains(t, lines[2], "assistant")
}

func TestFormatStats(t *testing.T) {
	res := agents.Result{
		Outcome: agents.OutcomeDone,
		Stats:   agents.Stats{Iterations: 2, ToolCalls: 1, Elapsed: 1234567 * time.Microsecond},
	}

	assert.Equal(t, "done in 2 iteration(s), 1 tool call(s), 1.235s", formatStats(res, usage.TokenCount{}, false))
	assert.Equal(t, "done in 2 iteration(s), 1 tool call(s), 1.235s, 150 tokens (120 in, 30 out)",
		formatStats(res, usage.TokenCount{InputTokens: 120, OutputTokens: 30}, true))
}

func TestFormatAnswer_Raw(t *testing.T) {
	assert.Equal(t, "**4**", formatAnswer("**4**", true))
	assert.Contains(t, formatAnswer("4", false), "Answer")
}

type fakeSession struct {
	replies  []string
	errs     []error
	sent     []string
	resets   int
	resetErr error
	history  []message.Message
}

func (f *fakeSession) Send(_ context.Context, text string) (string, error) {
	i := len(f.sent)
	f.sent = append(f.sent, text)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "", nil
}

func (f *fakeSession) Reset() error {
	if f.resetErr != nil {
		return f.resetErr
	}
	f.resets++
	return nil
}

func (f *fakeSession) History() []message.Message { return f.history }

func TestChatLoop(t *testing.T) {
	s := &fakeSession{
		replies: []string{"Hi Ada!", "", "Your name is Ada."},
		errs:    []error{nil, errors.New("backend down"), nil},
		history: []message.Message{message.NewText("", role.User, "remembered line")},
	}
	in := strings.NewReader("My name is Ada\n\nfails\nhistory\nreset\nWhat is my name?\nquit\nignored\n")

	var out bytes.Buffer
	require.NoError(t, chatLoop(context.Background(), s, in, &out, true))

	assert.Equal(t, []string{"My name is Ada", "fails", "What is my name?"}, s.sent)
	assert.Equal(t, 1, s.resets)

	text := out.String()
	assert.Contains(t, text, "Hi Ada!")
	assert.Contains(t, text, "backend down")
	assert.Contains(t, text, "remembered line")
	assert.Contains(t, text, "Memory has been reset.")
	assert.Contains(t, text, "Your name is Ada.")
}

func TestChatLoop_EOF(t *testing.T) {
	s := &fakeSession{}

	var out bytes.Buffer
	require.NoError(t, chatLoop(context.Background(), s, strings.NewReader("EXIT"), &out, true))
	assert.Empty(t, s.sent)

	require.NoError(t, chatLoop(context.Background(), s, strings.NewReader(""), &out, true))
}

func TestChatLoop_ResetBusy(t *testing.T) {
	s := &fakeSession{resetErr: engine.ErrSessionBusy}

	var out bytes.Buffer
	require.NoError(t, chatLoop(context.Background(), s, strings.NewReader("reset\n"), &out, true))

	assert.Contains(t, out.String(), engine.ErrSessionBusy.Error())
	assert.NotContains(t, out.String(), "Memory has been reset.")
}

func TestChatLoop_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &fakeSession{errs: []error{context.Canceled}}

	var out bytes.Buffer
	err := chatLoop(ctx, s, strings.NewReader("hello\nagain\n"), &out, true)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, s.sent, 1)
}
