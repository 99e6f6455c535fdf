// Package engine is the composition root. It turns a Config into a backend
// completer, a toolbox (builtins plus MCP imports) and an event bus, and
// hands out agents and chat sessions built from them. Frontends such as the
// CLI interact with Engine, Session and EventBus and never wire lower-level
// packages themselves.
package engine
