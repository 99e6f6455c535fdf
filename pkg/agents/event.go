package agents

import (
	"time"

	"github.com/h9-tec/AI-agent-explained/pkg/chats/content"
)

// EventKind identifies the type of an agent event.
type EventKind string

const (
	EventRunStarted    EventKind = "run_started"
	EventIteration     EventKind = "iteration"
	EventCompletion    EventKind = "completion"
	EventToolCallStart EventKind = "tool_call_start"
	EventToolCallEnd   EventKind = "tool_call_end"
	EventObservation   EventKind = "observation"
	EventRunFinished   EventKind = "run_finished"
)

// Event is one step of a run as seen by observers.
type Event struct {
	Kind      EventKind
	Agent     string
	RunID     string
	Iteration int
	Text      string
	ToolCall  *content.ToolCall
	Result    *content.ToolResult
	Outcome   Outcome
	Timestamp time.Time
}

// EventFunc receives events. It is called synchronously from the agent loop.
type EventFunc func(Event)
