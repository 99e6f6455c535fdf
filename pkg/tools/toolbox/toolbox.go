package toolbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/h9-tec/AI-agent-explained/pkg/chats/content"
)

// ErrDuplicateTool is returned when registering a tool whose name is taken.
var ErrDuplicateTool = errors.New("toolbox: tool already registered")

var namePattern = regexp.MustCompile(`^[A-Za-z_]\w*$`)

// Option configures a ToolBox.
type Option func(*ToolBox)

// WithLogger sets the logger used for per-call debug records.
func WithLogger(l *slog.Logger) Option {
	return func(tb *ToolBox) {
		tb.logger = l
	}
}

// ToolBox orchestrates a collection of tools. It allows registering, retrieving,
// listing, and calling tools. Agents use ToolBox to execute tool calls.
// It is safe for concurrent use.
type ToolBox struct {
	mu          sync.RWMutex
	tools       map[string]Tool
	order       []string
	descriptors []Descriptor
	logger      *slog.Logger
}

// New creates a new ToolBox ready for use.
func New(opts ...Option) *ToolBox {
	tb := &ToolBox{
		tools:  make(map[string]Tool),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(tb)
	}

	return tb
}

// Register adds one or more tools to the ToolBox. Registration is all or
// nothing: a nameless handler, an invalid name or a name that is already
// taken fails the whole call.
func (tb *ToolBox) Register(tools ...Tool) error {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	seen := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		if !namePattern.MatchString(t.Name) {
			return fmt.Errorf("toolbox: invalid tool name %q", t.Name)
		}
		if t.Handler == nil {
			return fmt.Errorf("toolbox: tool %q has no handler", t.Name)
		}
		if _, ok := tb.tools[t.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name)
		}
		if _, ok := seen[t.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name)
		}
		seen[t.Name] = struct{}{}
	}

	for _, t := range tools {
		tb.tools[t.Name] = t
		tb.order = append(tb.order, t.Name)
	}
	tb.descriptors = nil

	return nil
}

// MustRegister is like Register but panics on error.
func (tb *ToolBox) MustRegister(tools ...Tool) {
	if err := tb.Register(tools...); err != nil {
		panic(err)
	}
}

// Get returns a tool by name and a boolean indicating whether it was found.
func (tb *ToolBox) Get(name string) (Tool, bool) {
	tb.mu.RLock()
	defer tb.mu.RUnlock()

	t, ok := tb.tools[name]
	return t, ok
}

// Merge registers all tools from another ToolBox into this one, keeping the
// other box's registration order.
func (tb *ToolBox) Merge(other *ToolBox) error {
	return tb.Register(other.Tools()...)
}

// Len returns the number of registered tools.
func (tb *ToolBox) Len() int {
	tb.mu.RLock()
	defer tb.mu.RUnlock()

	return len(tb.order)
}

// Tools returns all registered tools in registration order.
func (tb *ToolBox) Tools() []Tool {
	tb.mu.RLock()
	defer tb.mu.RUnlock()

	result := make([]Tool, 0, len(tb.order))
	for _, name := range tb.order {
		result = append(result, tb.tools[name])
	}
	return result
}

// Descriptors returns the descriptors of all registered tools in registration
// order. The result is computed once per registration change; callers get
// their own copy of the slice.
func (tb *ToolBox) Descriptors() []Descriptor {
	tb.mu.RLock()
	cached := tb.descriptors
	tb.mu.RUnlock()

	if cached == nil {
		tb.mu.Lock()
		if tb.descriptors == nil {
			ds := make([]Descriptor, 0, len(tb.order))
			for _, name := range tb.order {
				ds = append(ds, tb.tools[name].Descriptor())
			}
			tb.descriptors = ds
		}
		cached = tb.descriptors
		tb.mu.Unlock()
	}

	return slices.Clone(cached)
}

// Call executes a tool call and returns a ToolResult. If the tool is not found,
// the arguments do not match its parameters, or the handler fails or panics,
// the result will have IsError set to true and the failure text as content.
func (tb *ToolBox) Call(ctx context.Context, tc content.ToolCall) content.ToolResult {
	text, err := tb.invoke(ctx, tc.Name, tc.Arguments)

	return content.ToolResult{
		ToolCallID: tc.ID,
		Name:       tc.Name,
		Content:    text,
		IsError:    err != nil,
	}
}

// Invoke runs the named tool and returns its result text. Failures are
// returned as error strings rather than errors.
func (tb *ToolBox) Invoke(ctx context.Context, name string, args Args) string {
	text, _ := tb.invoke(ctx, name, args)
	return text
}

func (tb *ToolBox) invoke(ctx context.Context, name string, args Args) (string, error) {
	t, ok := tb.Get(name)
	if !ok {
		err := fmt.Errorf("Error: Tool '%s' not found.", name) //nolint:staticcheck // user-facing text
		return err.Error(), err
	}

	start := time.Now()
	result, err := run(ctx, t, args)
	tb.logger.DebugContext(ctx, "tool executed",
		"tool", name,
		"duration", time.Since(start),
		"error", err != nil,
	)

	if err != nil {
		return fmt.Sprintf("Error calling tool %s: %s", name, err.Error()), err
	}

	return result, nil
}

func run(ctx context.Context, t Tool, args Args) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if err := checkArgs(t.Params, args); err != nil {
		return "", err
	}

	if args == nil {
		args = Args{}
	}

	return t.Handler(ctx, args)
}

func checkArgs(params []Param, args Args) error {
	known := make(map[string]struct{}, len(params))
	var missing []string

	for _, p := range params {
		known[p.Name] = struct{}{}
		if _, ok := args[p.Name]; p.Required && !ok {
			missing = append(missing, p.Name)
		}
	}

	var unexpected []string
	for k := range args {
		if _, ok := known[k]; !ok {
			unexpected = append(unexpected, k)
		}
	}

	switch {
	case len(missing) > 0:
		return fmt.Errorf("missing required argument(s): %s", strings.Join(missing, ", "))
	case len(unexpected) > 0:
		sort.Strings(unexpected)
		return fmt.Errorf("unexpected argument(s): %s", strings.Join(unexpected, ", "))
	}

	return nil
}

// Filter returns a new ToolBox containing only the named tools, in the order
// given. Names that are not registered are skipped. An empty list returns the
// receiver unchanged.
func (tb *ToolBox) Filter(names []string) *ToolBox {
	if len(names) == 0 {
		return tb
	}

	tb.mu.RLock()
	defer tb.mu.RUnlock()

	filtered := New(WithLogger(tb.logger))
	for _, name := range names {
		t, ok := tb.tools[name]
		if !ok {
			continue
		}
		if _, dup := filtered.tools[name]; dup {
			continue
		}
		filtered.tools[name] = t
		filtered.order = append(filtered.order, name)
	}

	return filtered
}
