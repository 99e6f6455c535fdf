// Package agents provides the shared surface of the tool-using agents. It
// defines the Agent interface, the Result and Stats a run produces, the
// Event stream observers can subscribe to, and the Base struct that concrete
// agent types embed to inherit conversation, completion and tool dispatch.
//
// Concrete agents live in sub-packages:
//   - [github.com/h9-tec/AI-agent-explained/pkg/agents/loop] — native tool calling loop
//   - [github.com/h9-tec/AI-agent-explained/pkg/agents/react] — Thought/Action/Observation text protocol
//   - [github.com/h9-tec/AI-agent-explained/pkg/agents/middleware] — composable wrappers around any Agent
package agents
