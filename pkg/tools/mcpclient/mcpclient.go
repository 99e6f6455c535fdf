// Package mcpclient imports tools from external MCP servers into a ToolBox
// using the official MCP Go SDK.
package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/h9-tec/AI-agent-explained/pkg/tools/toolbox"
)

// Implementation identifies this client to MCP servers.
var Implementation = &mcp.Implementation{
	Name:    "ai-agent",
	Version: "0.1.0",
}

var unsafeChars = regexp.MustCompile(`\W`)

// MCPClient communicates with an MCP server using the official MCP Go SDK.
type MCPClient struct {
	client  *mcp.Client
	session *mcp.ClientSession
	prefix  string
}

// Option configures an MCPClient.
type Option func(*MCPClient)

// WithPrefix prepends prefix and an underscore to every imported tool name.
func WithPrefix(prefix string) Option {
	return func(c *MCPClient) {
		c.prefix = prefix
	}
}

// New spawns an MCP server process and returns a connected client.
// The SDK handles initialization automatically during Connect.
func New(ctx context.Context, command string, args []string, opts ...Option) (*MCPClient, error) {
	transport := &mcp.CommandTransport{
		Command: exec.Command(command, args...), //nolint:gosec // command comes from configuration
	}

	return newFromTransport(ctx, transport, opts...)
}

// NewSSE connects to an SSE-based MCP server at the given URL.
func NewSSE(ctx context.Context, url string, opts ...Option) (*MCPClient, error) {
	transport := &mcp.SSEClientTransport{Endpoint: url}

	return newFromTransport(ctx, transport, opts...)
}

func newFromTransport(ctx context.Context, transport mcp.Transport, opts ...Option) (*MCPClient, error) {
	client := mcp.NewClient(Implementation, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: connect: %w", err)
	}

	c := &MCPClient{client: client, session: session}
	for _, o := range opts {
		o(c)
	}

	return c, nil
}

// ListTools fetches the server's tools and returns them as toolbox.Tool
// values whose handlers call back through CallTool. Every schema property
// becomes a string parameter; values are converted back to the declared JSON
// type when the tool is called.
func (c *MCPClient) ListTools(ctx context.Context) ([]toolbox.Tool, error) {
	result, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: list tools: %w", err)
	}

	tools := make([]toolbox.Tool, 0, len(result.Tools))
	for _, sdkTool := range result.Tools {
		t, err := c.fromSDKTool(sdkTool)
		if err != nil {
			return nil, fmt.Errorf("mcpclient: convert tool %q: %w", sdkTool.Name, err)
		}
		tools = append(tools, t)
	}

	return tools, nil
}

// ToolBox returns the server's tools registered in a fresh ToolBox.
func (c *MCPClient) ToolBox(ctx context.Context, opts ...toolbox.Option) (*toolbox.ToolBox, error) {
	tools, err := c.ListTools(ctx)
	if err != nil {
		return nil, err
	}

	tb := toolbox.New(opts...)
	if err := tb.Register(tools...); err != nil {
		return nil, fmt.Errorf("mcpclient: %w", err)
	}

	return tb, nil
}

// CallTool calls a named tool on the server with already typed arguments.
func (c *MCPClient) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	if args == nil {
		args = map[string]any{}
	}

	result, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return "", fmt.Errorf("mcpclient: call tool: %w", err)
	}

	text := extractText(result)

	if result.IsError {
		return "", fmt.Errorf("mcpclient: tool error: %s", text)
	}

	return text, nil
}

// Close terminates the session. For command transports the SDK also closes
// the child's stdin and reaps the process.
func (c *MCPClient) Close() error {
	return c.session.Close()
}

type schemaProperty struct {
	Type        any    `json:"type"`
	Description string `json:"description"`
}

type inputSchema struct {
	Properties map[string]schemaProperty `json:"properties"`
	Required   []string                  `json:"required"`
}

func (c *MCPClient) fromSDKTool(sdkTool *mcp.Tool) (toolbox.Tool, error) {
	var schema inputSchema
	if sdkTool.InputSchema != nil {
		raw, err := json.Marshal(sdkTool.InputSchema)
		if err != nil {
			return toolbox.Tool{}, fmt.Errorf("marshal input schema: %w", err)
		}
		if err := json.Unmarshal(raw, &schema); err != nil {
			return toolbox.Tool{}, fmt.Errorf("decode input schema: %w", err)
		}
	}

	required := make(map[string]bool, len(schema.Required))
	for _, r := range schema.Required {
		required[r] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make([]toolbox.Param, 0, len(names))
	types := make(map[string]string, len(names))
	for _, name := range names {
		prop := schema.Properties[name]
		params = append(params, toolbox.Param{
			Name:        name,
			Description: prop.Description,
			Required:    required[name],
		})
		types[name] = typeName(prop.Type)
	}

	remote := sdkTool.Name

	return toolbox.Tool{
		Name:        c.localName(remote),
		Description: sdkTool.Description,
		Params:      params,
		Handler: func(ctx context.Context, args toolbox.Args) (string, error) {
			typed := make(map[string]any, len(args))
			for k, v := range args {
				typed[k] = coerce(v, types[k])
			}
			slog.DebugContext(ctx, "mcp tool call", "tool", remote, "args", args.Keys())
			return c.CallTool(ctx, remote, typed)
		},
	}, nil
}

// localName maps a remote tool name onto the ToolBox naming rules.
func (c *MCPClient) localName(remote string) string {
	name := remote
	if c.prefix != "" {
		name = c.prefix + "_" + name
	}
	name = unsafeChars.ReplaceAllString(name, "_")
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "_" + name
	}
	return name
}

// typeName returns the first declared JSON type of a schema property.
func typeName(t any) string {
	switch v := t.(type) {
	case string:
		return v
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && s != "null" {
				return s
			}
		}
	}
	return "string"
}

// coerce converts a string argument to the JSON type the server declared.
// Values that do not parse are sent as strings.
func coerce(v, typ string) any {
	switch typ {
	case "", "string":
		return v
	}

	var out any
	if err := json.Unmarshal([]byte(v), &out); err != nil {
		return v
	}

	switch out.(type) {
	case float64:
		if typ == "number" || typ == "integer" {
			return out
		}
	case bool:
		if typ == "boolean" {
			return out
		}
	case []any:
		if typ == "array" {
			return out
		}
	case map[string]any:
		if typ == "object" {
			return out
		}
	}
	return v
}

// extractText joins all TextContent items from a CallToolResult with newlines.
func extractText(result *mcp.CallToolResult) string {
	var texts []string
	for _, item := range result.Content {
		if tc, ok := item.(*mcp.TextContent); ok {
			texts = append(texts, strings.TrimRight(tc.Text, "\n"))
		}
	}

	return strings.Join(texts, "\n")
}
