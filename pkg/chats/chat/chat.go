// Package chat provides the conversation container used by agents: an
// append-only message history with a bounded, system-pinned window view.
package chat

import (
	"errors"
	"fmt"

	"github.com/h9-tec/AI-agent-explained/pkg/chats/message"
	"github.com/h9-tec/AI-agent-explained/pkg/chats/role"
)

// ErrMisplacedSystem is returned by Append when a system message would land
// anywhere other than position 0.
var ErrMisplacedSystem = errors.New("chat: system message is only allowed at position 0")

// Chat is an append-only conversation. The zero value is an empty, unbounded
// chat ready to use. Chat is not safe for concurrent use; callers must
// synchronize externally.
type Chat struct {
	messages []message.Message
	size     int
	bounded  bool
}

// New creates an unbounded Chat: Window returns the full history.
func New() *Chat {
	return &Chat{}
}

// NewWindow creates a Chat whose Window keeps the leading system message plus
// the last size non-system messages. A negative size is treated as zero.
func NewWindow(size int) *Chat {
	return &Chat{size: max(size, 0), bounded: true}
}

// Append adds one or more messages to the conversation. Messages with an
// unknown role, or system messages that would not be first, are rejected; in
// that case none of msgs are appended.
func (c *Chat) Append(msgs ...message.Message) error {
	n := len(c.messages)
	for i, m := range msgs {
		if !m.Role.Valid() {
			return fmt.Errorf("chat: unknown role %q", m.Role)
		}
		if m.Role == role.System && n+i != 0 {
			return ErrMisplacedSystem
		}
	}

	for _, m := range msgs {
		c.messages = append(c.messages, m.Clone())
	}

	return nil
}

// Window materializes the view sent to the model: the system message, if
// present, followed by the most recent Size non-system messages in order.
// It never mutates the chat.
func (c *Chat) Window() []message.Message {
	if len(c.messages) == 0 {
		return []message.Message{}
	}

	var head []message.Message
	rest := c.messages
	if rest[0].Role == role.System {
		head = rest[:1]
		rest = rest[1:]
	}

	if c.bounded && len(rest) > c.size {
		rest = rest[len(rest)-c.size:]
	}

	out := make([]message.Message, 0, len(head)+len(rest))
	for _, m := range head {
		out = append(out, m.Clone())
	}
	for _, m := range rest {
		out = append(out, m.Clone())
	}

	return out
}

// Reset drops every message except a leading system message.
func (c *Chat) Reset() {
	if len(c.messages) > 0 && c.messages[0].Role == role.System {
		c.messages = c.messages[:1:1]
		return
	}
	c.messages = nil
}

// Size returns the window size and whether the chat is bounded.
func (c *Chat) Size() (int, bool) {
	return c.size, c.bounded
}

// Len returns the number of messages in the full history.
func (c *Chat) Len() int {
	return len(c.messages)
}

// At returns the message at the given index of the full history.
// It panics if the index is out of range.
func (c *Chat) At(index int) message.Message {
	return c.messages[index].Clone()
}

// Last returns the most recent message and true, or a zero Message and false
// if the conversation is empty.
func (c *Chat) Last() (message.Message, bool) {
	if len(c.messages) == 0 {
		return message.Message{}, false
	}
	return c.messages[len(c.messages)-1].Clone(), true
}

// Messages returns a copy of the full history, ignoring the window.
func (c *Chat) Messages() []message.Message {
	cp := make([]message.Message, len(c.messages))
	for i, m := range c.messages {
		cp[i] = m.Clone()
	}
	return cp
}

// Each iterates over the full history, calling fn for each message. If fn
// returns false, iteration stops early.
func (c *Chat) Each(fn func(int, message.Message) bool) {
	for i, m := range c.messages {
		if !fn(i, m.Clone()) {
			return
		}
	}
}

// SystemPrompt returns the text of the leading system message, or an empty
// string if there is none.
func (c *Chat) SystemPrompt() string {
	if len(c.messages) > 0 && c.messages[0].Role == role.System {
		return c.messages[0].TextContent()
	}
	return ""
}
