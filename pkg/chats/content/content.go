// Package content defines the content parts carried by conversation messages.
package content

// Part is a piece of content within a message.
type Part interface {
	PartKind() string
}

// Text is a plain text content part.
type Text struct {
	Text string
}

func (t Text) PartKind() string { return "text" }

// ToolCall is a normalized request from the model to invoke a tool. Arguments
// are flat string pairs; backends with typed arguments stringify them.
// Metadata carries backend-specific opaque data.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]string
	Metadata  map[string]string
}

func (tc ToolCall) PartKind() string { return "tool_call" }

// ToolResult holds the textual output of a tool invocation. Failures are
// serialized into Content and flagged with IsError.
type ToolResult struct {
	ToolCallID string
	Name       string
	Content    string
	IsError    bool
}

func (tr ToolResult) PartKind() string { return "tool_result" }
