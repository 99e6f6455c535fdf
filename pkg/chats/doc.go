// Package chats holds the backend-independent conversation model.
//
// It is organized into sub-packages:
//   - [github.com/h9-tec/AI-agent-explained/pkg/chats/role]: system, user, assistant and tool roles
//   - [github.com/h9-tec/AI-agent-explained/pkg/chats/content]: message parts (text, tool call, tool result)
//   - [github.com/h9-tec/AI-agent-explained/pkg/chats/message]: a role, a sender, parts and backend metadata
//   - [github.com/h9-tec/AI-agent-explained/pkg/chats/chat]: append-only history with a pinned system message and a sliding window
//
// Backends translate these types to their wire formats; nothing here talks
// to a model.
package chats
