// Package modeladapter defines the unified contract every completion backend
// satisfies, and the shared plumbing concrete backends build on.
//
// It contains:
//   - [Completer] interface with its [Request] and [Completion] types
//   - embeddable [ModelAdapter] base struct with HTTP helpers, auth, and custom headers
//   - [ErrBackendUnavailable], [ConfigError] and [RateLimitError]
//   - [github.com/h9-tec/AI-agent-explained/pkg/modeladapter/usage] — thread-safe token usage tracker
//
// This package contains no backend-specific code; concrete adapters live in
// separate packages under pkg/providers.
package modeladapter
