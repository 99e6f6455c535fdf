// Package builtin provides the stock tools every agent can be given: an
// arithmetic evaluator, a clock, an in-memory note pad and a handful of
// canned lookups (weather, news, search) used by demos and tests.
package builtin

import (
	"context"
	"time"

	"github.com/h9-tec/AI-agent-explained/pkg/tools/toolbox"
)

// DefaultCalcTimeout bounds a single calculate evaluation.
const DefaultCalcTimeout = 2 * time.Second

// TimeLayout is the format used by current_time.
const TimeLayout = "2006-01-02 15:04:05"

// Options configures the builtin toolbox.
type Options struct {
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
	// CalcTimeout bounds calculate. Zero means DefaultCalcTimeout.
	CalcTimeout time.Duration
	// Notes backs save_note and list_notes. A fresh store is used when nil.
	Notes *Notes
}

// Names lists the builtin tool names in registration order.
var Names = []string{
	"calculate",
	"current_time",
	"save_note",
	"list_notes",
	"get_weather",
	"get_news",
	"search",
}

// New builds a ToolBox holding every builtin tool.
func New(opts Options, tbOpts ...toolbox.Option) *toolbox.ToolBox {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.CalcTimeout <= 0 {
		opts.CalcTimeout = DefaultCalcTimeout
	}
	if opts.Notes == nil {
		opts.Notes = NewNotes(opts.Clock)
	}

	tb := toolbox.New(tbOpts...)
	tb.MustRegister(
		Calculate(opts.CalcTimeout),
		CurrentTime(opts.Clock),
	)
	tb.MustRegister(opts.Notes.Tools()...)
	tb.MustRegister(
		Weather(),
		News(),
		Search(),
	)

	return tb
}

// Compose merges several toolboxes into one, in order. A name registered by
// more than one box is an error. opts configure the merged box.
func Compose(boxes []*toolbox.ToolBox, opts ...toolbox.Option) (*toolbox.ToolBox, error) {
	tb := toolbox.New(opts...)
	for _, other := range boxes {
		if other == nil {
			continue
		}
		if err := tb.Merge(other); err != nil {
			return nil, err
		}
	}

	return tb, nil
}

type noInput struct{}

// CurrentTime returns the current_time tool.
func CurrentTime(clock func() time.Time) toolbox.Tool {
	return toolbox.MustFromFunc("current_time", "Get the current local date and time.",
		func(_ context.Context, _ noInput) (string, error) {
			return clock().Format(TimeLayout), nil
		})
}
