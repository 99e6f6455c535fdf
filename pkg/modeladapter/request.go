package modeladapter

import (
	"github.com/h9-tec/AI-agent-explained/pkg/chats/content"
	"github.com/h9-tec/AI-agent-explained/pkg/chats/message"
	"github.com/h9-tec/AI-agent-explained/pkg/chats/role"
	"github.com/h9-tec/AI-agent-explained/pkg/modeladapter/usage"
	"github.com/h9-tec/AI-agent-explained/pkg/tools/toolbox"
)

// ToolChoice tells the backend whether it may call tools.
type ToolChoice string

const (
	ToolChoiceAuto ToolChoice = "auto"
	ToolChoiceNone ToolChoice = "none"
)

// Request is one completion call. A nil Temperature and a zero MaxTokens fall
// back to the adapter defaults. An empty ToolChoice means auto.
type Request struct {
	Messages    []message.Message
	Temperature *float64
	MaxTokens   int
	Tools       []toolbox.Descriptor
	ToolChoice  ToolChoice
}

// Choice returns the effective tool choice.
func (r Request) Choice() ToolChoice {
	if r.ToolChoice == "" {
		return ToolChoiceAuto
	}
	return r.ToolChoice
}

// Completion is the normalized reply of any backend. ToolCalls is never nil.
type Completion struct {
	Text      string
	ToolCalls []content.ToolCall
	Usage     usage.TokenCount
}

// Message builds the assistant message recording this completion. The text
// part is always present, even when empty, followed by one part per tool call.
func (c Completion) Message(sender string) message.Message {
	parts := make([]content.Part, 0, 1+len(c.ToolCalls))
	parts = append(parts, content.Text{Text: c.Text})
	for _, tc := range c.ToolCalls {
		parts = append(parts, tc)
	}

	return message.New(sender, role.Assistant, parts...)
}

// Float is a helper for setting Request.Temperature.
func Float(v float64) *float64 {
	return &v
}
