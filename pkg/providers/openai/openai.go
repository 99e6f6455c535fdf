// Package openai provides a Completer implementation for the OpenAI Chat Completions API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/h9-tec/AI-agent-explained/pkg/chats/content"
	"github.com/h9-tec/AI-agent-explained/pkg/chats/message"
	"github.com/h9-tec/AI-agent-explained/pkg/chats/role"
	"github.com/h9-tec/AI-agent-explained/pkg/modeladapter"
	"github.com/h9-tec/AI-agent-explained/pkg/modeladapter/usage"
	"github.com/h9-tec/AI-agent-explained/pkg/tools/toolbox"
)

const (
	// DefaultBaseURL is the public OpenAI endpoint.
	DefaultBaseURL = "https://api.openai.com"
	// DefaultModel is used when Options.Model is empty.
	DefaultModel = "gpt-4.1-mini"

	completionsPath = "/v1/chat/completions"
	backendName     = "openai"

	// MetaRawArguments holds the unparsed argument text of a tool call whose
	// arguments were not a JSON object.
	MetaRawArguments = "raw_arguments"
)

var _ modeladapter.Completer = (*Adapter)(nil)

// Options configures an Adapter.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Client      *http.Client
	Headers     map[string]string
}

// Adapter implements modeladapter.Completer for the OpenAI Chat Completions API.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter configured for the OpenAI API. A missing API key is
// a configuration error reported here rather than on the first call.
func New(opts Options) (*Adapter, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, &modeladapter.ConfigError{
			Backend: backendName,
			Field:   "api_key",
			Reason:  "is required",
			Hint:    "set OPENAI_API_KEY in your environment or .env file",
		}
	}

	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}

	a := &Adapter{}
	a.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	a.Auth = modeladapter.Auth{Key: opts.APIKey}
	a.Client = opts.Client
	a.Headers = opts.Headers
	a.Name = opts.Model
	a.Temperature = opts.Temperature
	a.MaxTokens = opts.MaxTokens

	return a, nil
}

// Complete sends the request to the OpenAI Chat Completions API and returns
// the normalized reply.
func (a *Adapter) Complete(ctx context.Context, req modeladapter.Request) (modeladapter.Completion, error) {
	body := a.buildRequest(req)

	var resp apiResponse
	if err := a.PostJSON(ctx, completionsPath, body, &resp); err != nil {
		return modeladapter.Completion{}, fmt.Errorf("%s: %w", backendName, err)
	}

	tc := usage.TokenCount{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	a.Usage.Add(tc)

	if len(resp.Choices) == 0 {
		return modeladapter.Completion{}, modeladapter.Unavailable(backendName, errors.New("empty choices in response"))
	}

	out := parseChoice(resp.Choices[0])
	out.Usage = tc

	return out, nil
}

// --- request types ---

type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Temperature float64      `json:"temperature"`
	Tools       []apiToolDef `json:"tools,omitempty"`
	ToolChoice  string       `json:"tool_choice,omitempty"`
}

type apiMessage struct {
	Role       string        `json:"role"`
	Content    *string       `json:"content"`
	ToolCalls  []apiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

type apiToolCall struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Function apiToolFunction `json:"function"`
}

type apiToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type apiToolDef struct {
	Type     string         `json:"type"`
	Function apiToolDefFunc `json:"function"`
}

type apiToolDefFunc struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

// --- response types ---

type apiResponse struct {
	Choices []apiChoice `json:"choices"`
	Usage   apiUsage    `json:"usage"`
}

type apiChoice struct {
	Message      apiRespMessage `json:"message"`
	FinishReason string         `json:"finish_reason"`
}

type apiRespMessage struct {
	Role      string        `json:"role"`
	Content   *string       `json:"content"`
	ToolCalls []apiToolCall `json:"tool_calls,omitempty"`
}

type apiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// --- conversion helpers ---

func (a *Adapter) buildRequest(req modeladapter.Request) apiRequest {
	out := apiRequest{
		Model:       a.Name,
		MaxTokens:   a.ResolveMaxTokens(req),
		Temperature: a.ResolveTemperature(req),
	}

	if len(req.Tools) > 0 {
		out.Tools = toolDefs(req.Tools)
		out.ToolChoice = string(req.Choice())
	}

	// Tool results whose call was evicted from the window have nothing to
	// answer; the API rejects them, so they degrade to plain user text.
	calls := map[string]struct{}{}
	for _, m := range req.Messages {
		out.Messages = appendMessage(out.Messages, m, calls)
	}

	return out
}

func toolDefs(ds []toolbox.Descriptor) []apiToolDef {
	defs := make([]apiToolDef, len(ds))
	for i, d := range ds {
		defs[i] = apiToolDef{
			Type: "function",
			Function: apiToolDefFunc{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.JSONSchema(),
			},
		}
	}
	return defs
}

func appendMessage(msgs []apiMessage, m message.Message, calls map[string]struct{}) []apiMessage {
	switch m.Role {
	case role.System, role.User:
		text := m.TextContent()
		return append(msgs, apiMessage{Role: string(m.Role), Content: &text})

	case role.Assistant:
		var (
			toolCalls []apiToolCall
			text      strings.Builder
		)

		for _, p := range m.Parts {
			switch v := p.(type) {
			case content.Text:
				text.WriteString(v.Text)
			case content.ToolCall:
				calls[v.ID] = struct{}{}
				toolCalls = append(toolCalls, apiToolCall{
					ID:   v.ID,
					Type: "function",
					Function: apiToolFunction{
						Name:      v.Name,
						Arguments: encodeArguments(v),
					},
				})
			}
		}

		msg := apiMessage{Role: "assistant", ToolCalls: toolCalls}
		if text.Len() > 0 || len(toolCalls) == 0 {
			s := text.String()
			msg.Content = &s
		}

		return append(msgs, msg)

	case role.Tool:
		for _, tr := range toolResults(m) {
			if _, ok := calls[tr.ToolCallID]; !ok {
				text := fmt.Sprintf("Tool %s returned: %s", tr.Name, tr.Content)
				msgs = append(msgs, apiMessage{Role: "user", Content: &text})
				continue
			}
			c := tr.Content
			msgs = append(msgs, apiMessage{Role: "tool", Content: &c, ToolCallID: tr.ToolCallID})
		}
	}

	return msgs
}

// toolResults returns the results carried by a tool message. A tool message
// built from plain text falls back to its metadata.
func toolResults(m message.Message) []content.ToolResult {
	if trs := m.ToolResults(); len(trs) > 0 {
		return trs
	}

	id, _ := m.GetMeta(message.MetaToolCallID)
	name, _ := m.GetMeta(message.MetaToolName)
	idStr, _ := id.(string)
	nameStr, _ := name.(string)

	return []content.ToolResult{{ToolCallID: idStr, Name: nameStr, Content: m.TextContent()}}
}

func encodeArguments(tc content.ToolCall) string {
	if raw, ok := tc.Metadata[MetaRawArguments]; ok {
		return raw
	}

	args := tc.Arguments
	if args == nil {
		args = map[string]string{}
	}

	// A map of strings always marshals.
	b, _ := json.Marshal(args)

	return string(b)
}

// decodeArguments flattens a JSON object into string pairs. The second result
// is false when raw is not a JSON object.
func decodeArguments(raw string) (map[string]string, bool) {
	args, err := toolbox.ParseArgs([]byte(raw))
	if err != nil {
		return map[string]string{}, false
	}

	return args, true
}

func parseChoice(choice apiChoice) modeladapter.Completion {
	out := modeladapter.Completion{ToolCalls: []content.ToolCall{}}

	if choice.Message.Content != nil {
		out.Text = *choice.Message.Content
	}

	for _, tc := range choice.Message.ToolCalls {
		call := content.ToolCall{ID: tc.ID, Name: tc.Function.Name}

		args, ok := decodeArguments(tc.Function.Arguments)
		call.Arguments = args
		if !ok {
			call.Metadata = map[string]string{MetaRawArguments: tc.Function.Arguments}
		}

		out.ToolCalls = append(out.ToolCalls, call)
	}

	return out
}
