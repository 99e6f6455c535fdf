package agents

import (
	"context"
	"time"

	"github.com/h9-tec/AI-agent-explained/pkg/chats/chat"
)

// DefaultMaxIterations is used when an agent is configured with a cap of
// zero or less.
const DefaultMaxIterations = 10

// Terminal texts returned in Result.Text when a run does not produce an
// answer.
const (
	IncompleteSentinel        = "Task incomplete: reached maximum iterations"
	ProtocolViolationSentinel = "Task failed: reply contained neither an action nor a final answer"
)

// Agent is the interface implemented by all agent types. Run drives the
// agent's loop for one task. Backend failures are returned as errors; every
// other way a run can end is described by Result.Outcome.
type Agent interface {
	Run(ctx context.Context, task string) (Result, error)
}

// NamedAgent is implemented by agents that expose their name and
// conversation. Middleware wrappers preserve it.
type NamedAgent interface {
	AgentName() string
	AgentChat() *chat.Chat
}

// Outcome tells how a run ended.
type Outcome string

const (
	// OutcomeDone means the model produced a final answer.
	OutcomeDone Outcome = "done"
	// OutcomeExhausted means the iteration cap was reached.
	OutcomeExhausted Outcome = "exhausted"
	// OutcomeProtocolViolation means a reply followed neither expected form.
	OutcomeProtocolViolation Outcome = "protocol_violation"
)

// Result is what a run produces.
type Result struct {
	Outcome Outcome
	Text    string
	Stats   Stats
}

// Stats are the counters of one run.
type Stats struct {
	RunID      string
	Iterations int
	ToolCalls  int
	StartedAt  time.Time
	Elapsed    time.Duration
}

// Limit returns n, or DefaultMaxIterations when n is zero or negative.
func Limit(n int) int {
	if n <= 0 {
		return DefaultMaxIterations
	}
	return n
}
