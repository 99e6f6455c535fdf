// Package tools provides tool execution and MCP (Model Context Protocol) integration.
//
// It is organized into sub-packages:
//   - [github.com/h9-tec/AI-agent-explained/pkg/tools/toolbox]: Tool type and ToolBox registry for registering, listing, and calling tools
//   - [github.com/h9-tec/AI-agent-explained/pkg/tools/textcall]: parsing and rendering of TOOL_CALL and Action lines in plain model text
//   - [github.com/h9-tec/AI-agent-explained/pkg/tools/builtin]: stock tools (calculate, current_time, notes, canned lookups)
//   - [github.com/h9-tec/AI-agent-explained/pkg/tools/mcpclient]: imports tools from external MCP server processes
//   - [github.com/h9-tec/AI-agent-explained/pkg/tools/mcpserver]: exposes a ToolBox over the MCP protocol
//
// The toolbox sub-package is the foundation layer; every other package
// depends on it and on nothing else in this tree besides chats/content.
package tools
