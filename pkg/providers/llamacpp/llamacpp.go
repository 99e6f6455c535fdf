// Package llamacpp provides a Completer backed by a local llama.cpp model.
//
// The model has no native tool calling, so the adapter emulates it: tool
// descriptors are rendered into the system prompt, and TOOL_CALL lines in the
// reply are parsed back into structured tool calls.
package llamacpp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/h9-tec/AI-agent-explained/pkg/chats/content"
	"github.com/h9-tec/AI-agent-explained/pkg/chats/message"
	"github.com/h9-tec/AI-agent-explained/pkg/chats/role"
	"github.com/h9-tec/AI-agent-explained/pkg/modeladapter"
	"github.com/h9-tec/AI-agent-explained/pkg/tools/textcall"
	"github.com/h9-tec/AI-agent-explained/pkg/tools/toolbox"
)

const backendName = "llamacpp"

// Defaults applied by New to zero-valued options.
const (
	DefaultContextSize = 4096
	DefaultThreads     = 4
	DefaultTemperature = 0.7
	DefaultTopP        = 0.95
	DefaultMaxTokens   = 2048
)

var _ modeladapter.Completer = (*Adapter)(nil)

// Options configures an Adapter.
type Options struct {
	ModelPath   string
	ContextSize int
	GPULayers   int
	Threads     int
	Temperature float64
	TopP        float64
	MaxTokens   int
	Logger      *slog.Logger
}

func (o *Options) applyDefaults() {
	if o.ContextSize <= 0 {
		o.ContextSize = DefaultContextSize
	}
	if o.Threads <= 0 {
		o.Threads = DefaultThreads
	}
	if o.TopP <= 0 {
		o.TopP = DefaultTopP
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.GPULayers < 0 {
		o.GPULayers = 0
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// ServerArgs returns the llama-server flags matching these options.
func (o Options) ServerArgs() []string {
	return []string{
		"-m", o.ModelPath,
		"-c", strconv.Itoa(o.ContextSize),
		"-ngl", strconv.Itoa(o.GPULayers),
		"-t", strconv.Itoa(o.Threads),
	}
}

// Adapter implements modeladapter.Completer on top of a Runtime.
type Adapter struct {
	modeladapter.ModelAdapter

	runtime Runtime
	topP    float64
	logger  *slog.Logger
}

// New creates an Adapter. The model artifact must exist and be a regular
// file; otherwise a *modeladapter.ConfigError is returned. A zero
// Temperature is kept as is; callers that want the default set it
// explicitly.
func New(opts Options, rt Runtime) (*Adapter, error) {
	if err := CheckModelPath(opts.ModelPath); err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, &modeladapter.ConfigError{
			Backend: backendName,
			Field:   "runtime",
			Reason:  "is required",
			Hint:    "start llama-server and set LLAMA_SERVER_URL",
		}
	}

	opts.applyDefaults()

	a := &Adapter{runtime: rt, topP: opts.TopP, logger: opts.Logger}
	a.Name = filepath.Base(opts.ModelPath)
	a.Temperature = opts.Temperature
	a.MaxTokens = opts.MaxTokens

	opts.Logger.Debug("llamacpp adapter ready",
		"model", a.Name,
		"n_ctx", opts.ContextSize,
		"n_gpu_layers", opts.GPULayers,
		"n_threads", opts.Threads,
	)

	return a, nil
}

// CheckModelPath reports a *modeladapter.ConfigError unless path names an
// existing regular file.
func CheckModelPath(path string) error {
	hint := "download a GGUF model (e.g. from Hugging Face) and set LLAMA_MODEL_PATH"

	if strings.TrimSpace(path) == "" {
		return &modeladapter.ConfigError{Backend: backendName, Field: "model_path", Reason: "is required", Hint: hint}
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return &modeladapter.ConfigError{Backend: backendName, Field: "model_path", Reason: fmt.Sprintf("%q does not exist", path), Hint: hint}
	case err != nil:
		return &modeladapter.ConfigError{Backend: backendName, Field: "model_path", Reason: err.Error(), Hint: hint}
	case !info.Mode().IsRegular():
		return &modeladapter.ConfigError{Backend: backendName, Field: "model_path", Reason: fmt.Sprintf("%q is not a regular file", path), Hint: hint}
	}

	return nil
}

// Complete renders the request into ChatML turns, runs inference and parses
// emulated tool calls out of the reply.
func (a *Adapter) Complete(ctx context.Context, req modeladapter.Request) (modeladapter.Completion, error) {
	emulate := len(req.Tools) > 0 && req.Choice() != modeladapter.ToolChoiceNone

	turns := renderTurns(req.Messages)
	if emulate {
		turns = injectToolPrompt(turns, ToolPrompt(req.Tools))
	}

	gen, err := a.runtime.Generate(ctx, GenerateRequest{
		Turns:       turns,
		Temperature: a.ResolveTemperature(req),
		TopP:        a.topP,
		MaxTokens:   a.ResolveMaxTokens(req),
	})
	if err != nil {
		if errors.Is(err, modeladapter.ErrBackendUnavailable) {
			return modeladapter.Completion{}, fmt.Errorf("%s: %w", backendName, err)
		}
		return modeladapter.Completion{}, modeladapter.Unavailable(backendName, err)
	}

	a.Usage.Add(gen.Usage)

	out := modeladapter.Completion{Text: gen.Text, ToolCalls: []content.ToolCall{}, Usage: gen.Usage}
	if !emulate {
		return out, nil
	}

	matches := textcall.Parse(gen.Text, textcall.ToolCallPrefix)
	if len(matches) == 0 {
		return out, nil
	}

	for i, m := range matches {
		out.ToolCalls = append(out.ToolCalls, content.ToolCall{
			ID:        "call_" + strconv.Itoa(i),
			Name:      m.Name,
			Arguments: m.Args,
		})
	}
	out.Text = textcall.Strip(gen.Text, matches)

	a.logger.DebugContext(ctx, "llamacpp extracted tool calls", "count", len(out.ToolCalls))

	return out, nil
}

// ToolPrompt renders tool descriptors as natural-language instructions
// describing the TOOL_CALL convention.
func ToolPrompt(tools []toolbox.Descriptor) string {
	if len(tools) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("You have access to the following tools:")
	for _, t := range tools {
		params := make([]string, len(t.Params))
		for i, p := range t.Params {
			params[i] = p.Name + ": string"
		}

		desc := t.Description
		if desc == "" {
			desc = "No description"
		}

		fmt.Fprintf(&b, "\n- %s(%s): %s", t.Name, strings.Join(params, ", "), desc)
	}
	b.WriteString("\n\nTo use a tool, respond with: ")
	b.WriteString(textcall.ToolCallPrefix)
	b.WriteString(`: tool_name(arg1="value1", arg2="value2")`)

	return b.String()
}

func injectToolPrompt(turns []Turn, prompt string) []Turn {
	if len(turns) > 0 && turns[0].Role == string(role.System) {
		turns[0].Content += "\n\n" + prompt
		return turns
	}

	return append([]Turn{{Role: string(role.System), Content: prompt}}, turns...)
}

// renderTurns maps messages onto fresh ChatML turns. Tool results become user
// turns and assistant tool calls are written back in their textual form.
func renderTurns(msgs []message.Message) []Turn {
	turns := make([]Turn, 0, len(msgs))

	for _, m := range msgs {
		switch m.Role {
		case role.System, role.User:
			turns = append(turns, Turn{Role: string(m.Role), Content: m.TextContent()})

		case role.Assistant:
			lines := make([]string, 0, 1+len(m.ToolCalls()))
			if text := m.TextContent(); text != "" {
				lines = append(lines, text)
			}
			for _, tc := range m.ToolCalls() {
				lines = append(lines, textcall.Format(textcall.ToolCallPrefix, tc.Name, tc.Arguments))
			}
			turns = append(turns, Turn{Role: string(role.Assistant), Content: strings.Join(lines, "\n")})

		case role.Tool:
			trs := m.ToolResults()
			if len(trs) == 0 {
				name, _ := m.GetMeta(message.MetaToolName)
				turns = append(turns, Turn{Role: string(role.User), Content: fmt.Sprintf("Tool %v returned: %s", name, m.TextContent())})
				continue
			}
			for _, tr := range trs {
				turns = append(turns, Turn{Role: string(role.User), Content: fmt.Sprintf("Tool %s returned: %s", tr.Name, tr.Content)})
			}
		}
	}

	return turns
}
