package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/h9-tec/AI-agent-explained/pkg/chats/chat"
	"github.com/h9-tec/AI-agent-explained/pkg/chats/message"
	"github.com/h9-tec/AI-agent-explained/pkg/chats/role"
	"github.com/h9-tec/AI-agent-explained/pkg/modeladapter"
)

// DefaultChatPrompt seeds sessions that have no configured system prompt.
const DefaultChatPrompt = "You are a helpful assistant. Remember what the user tells you and use it in later answers."

const sessionSender = "assistant"

// ErrSessionBusy is returned when a session is used while a Send is active.
var ErrSessionBusy = errors.New("engine: session busy")

// Session is a stateful conversation without tools. Each Send sees the
// system prompt plus the most recent window of turns. Only one Send call may
// be active at a time.
type Session struct {
	id        string
	completer modeladapter.Completer
	chat      *chat.Chat
	events    *EventBus

	mu     sync.Mutex
	active bool

	chatMu sync.Mutex
}

func newSession(c modeladapter.Completer, ch *chat.Chat, systemPrompt string, events *EventBus) *Session {
	if systemPrompt == "" {
		systemPrompt = DefaultChatPrompt
	}

	// A fresh chat always accepts a leading system message.
	_ = ch.Append(message.NewText(sessionSender, role.System, systemPrompt))

	return &Session{
		id:        uuid.NewString(),
		completer: c,
		chat:      ch,
		events:    events,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Send appends text as a user turn, completes the current window without
// tools, records the reply and returns its text. The user turn stays in the
// history when the backend fails.
func (s *Session) Send(ctx context.Context, text string) (string, error) {
	if err := s.acquire(); err != nil {
		return "", err
	}
	defer s.release()

	user := message.NewText("user", role.User, text)
	s.chatMu.Lock()
	err := s.chat.Append(user)
	window := s.chat.Window()
	s.chatMu.Unlock()
	if err != nil {
		return "", err
	}
	s.publish(EventMessageAdded, user)

	out, err := s.completer.Complete(ctx, modeladapter.Request{
		Messages:   window,
		ToolChoice: modeladapter.ToolChoiceNone,
	})
	if err != nil {
		s.publish(EventError, err)
		return "", err
	}

	reply := message.NewText(sessionSender, role.Assistant, out.Text)
	s.chatMu.Lock()
	err = s.chat.Append(reply)
	s.chatMu.Unlock()
	if err != nil {
		return "", err
	}
	s.publish(EventMessageAdded, reply)

	return out.Text, nil
}

// Reset forgets everything but the system prompt. It fails while a Send is
// active.
func (s *Session) Reset() error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	s.chatMu.Lock()
	s.chat.Reset()
	s.chatMu.Unlock()

	s.publish(EventSessionReset, nil)
	return nil
}

// History returns the full conversation, including turns outside the window.
func (s *Session) History() []message.Message {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()

	return s.chat.Messages()
}

func (s *Session) publish(kind EventKind, data any) {
	s.events.Publish(Event{
		Kind:      kind,
		SessionID: s.id,
		Agent:     sessionSender,
		Timestamp: time.Now(),
		Data:      data,
	})
}

func (s *Session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return fmt.Errorf("%w: %s", ErrSessionBusy, s.id)
	}
	s.active = true
	return nil
}

func (s *Session) release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = false
}
