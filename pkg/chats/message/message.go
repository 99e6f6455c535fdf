// Package message defines the Message type used in LLM conversations.
package message

import (
	"maps"
	"slices"
	"strings"

	"github.com/h9-tec/AI-agent-explained/pkg/chats/content"
	"github.com/h9-tec/AI-agent-explained/pkg/chats/role"
)

// Metadata keys set by the constructors in this package.
const (
	MetaToolCallID = "tool_call_id"
	MetaToolName   = "tool_name"
)

// Message represents a single message in a conversation.
// It is a value type; use Clone before handing it to code that may mutate it.
type Message struct {
	Sender   string
	Role     role.Role
	Parts    []content.Part
	Metadata map[string]any
}

// New creates a message with the given sender, role, and content parts.
func New(sender string, r role.Role, parts ...content.Part) Message {
	return Message{
		Sender: sender,
		Role:   r,
		Parts:  parts,
	}
}

// NewText creates a message with a single Text content part.
func NewText(sender string, r role.Role, text string) Message {
	return New(sender, r, content.Text{Text: text})
}

// NewToolResult creates a role=tool message carrying one tool result. The
// call identifier and tool name are mirrored into Metadata.
func NewToolResult(sender string, tr content.ToolResult) Message {
	m := New(sender, role.Tool, tr)
	m.SetMeta(MetaToolCallID, tr.ToolCallID)
	m.SetMeta(MetaToolName, tr.Name)
	return m
}

// TextContent concatenates the text of all Text parts in the message.
// For tool messages without text parts it returns the tool result contents.
func (m Message) TextContent() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if t, ok := p.(content.Text); ok {
			b.WriteString(t.Text)
		}
	}
	if b.Len() == 0 && m.Role == role.Tool {
		for _, tr := range m.ToolResults() {
			b.WriteString(tr.Content)
		}
	}
	return b.String()
}

// ToolCalls returns all ToolCall parts in the message.
func (m Message) ToolCalls() []content.ToolCall {
	var calls []content.ToolCall
	for _, p := range m.Parts {
		if tc, ok := p.(content.ToolCall); ok {
			calls = append(calls, tc)
		}
	}
	return calls
}

// ToolResults returns all ToolResult parts in the message.
func (m Message) ToolResults() []content.ToolResult {
	var results []content.ToolResult
	for _, p := range m.Parts {
		if tr, ok := p.(content.ToolResult); ok {
			results = append(results, tr)
		}
	}
	return results
}

// SetMeta sets a metadata key-value pair on the message.
// It initializes the Metadata map if nil.
func (m *Message) SetMeta(key string, value any) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}

// GetMeta retrieves a metadata value by key.
func (m Message) GetMeta(key string) (any, bool) {
	if m.Metadata == nil {
		return nil, false
	}
	v, ok := m.Metadata[key]
	return v, ok
}

// Clone returns a copy whose Parts slice and Metadata map are not shared with m.
func (m Message) Clone() Message {
	m.Parts = slices.Clone(m.Parts)
	m.Metadata = maps.Clone(m.Metadata)
	return m
}
