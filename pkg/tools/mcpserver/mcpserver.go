// Package mcpserver exposes toolbox tools over the Model Context Protocol
// using the official MCP Go SDK.
package mcpserver

import (
	"context"
	"io"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/h9-tec/AI-agent-explained/pkg/chats/content"
	"github.com/h9-tec/AI-agent-explained/pkg/tools/toolbox"
)

// MCPServer serves tools over the MCP protocol using the official MCP Go SDK.
type MCPServer struct {
	server *mcp.Server
	box    *toolbox.ToolBox
}

// New creates a new MCPServer with the given name and version.
func New(name, version string) *MCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, nil)

	return &MCPServer{server: server, box: toolbox.New()}
}

// Register adds tools to the server. Calls go through an internal ToolBox, so
// argument checks and error strings match local execution.
func (s *MCPServer) Register(tools ...toolbox.Tool) error {
	if err := s.box.Register(tools...); err != nil {
		return err
	}

	for _, t := range tools {
		s.server.AddTool(toSDKTool(t), s.handler(t.Name))
	}

	return nil
}

// RegisterToolBox adds every tool of tb to the server.
func (s *MCPServer) RegisterToolBox(tb *toolbox.ToolBox) error {
	return s.Register(tb.Tools()...)
}

// Len returns the number of tools being served.
func (s *MCPServer) Len() int {
	return s.box.Len()
}

// Serve starts serving MCP requests. It reads requests from in and writes
// responses to out. It blocks until ctx is cancelled or the transport closes.
func (s *MCPServer) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	transport := &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	}

	return s.run(ctx, transport)
}

func (s *MCPServer) run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

func toSDKTool(t toolbox.Tool) *mcp.Tool {
	return &mcp.Tool{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: t.Descriptor().JSONSchema(),
	}
}

func (s *MCPServer) handler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := toolbox.ParseArgs(req.Params.Arguments)
		if err != nil {
			return errorResult(err.Error()), nil
		}

		res := s.box.Call(ctx, content.ToolCall{Name: name, Arguments: args})
		if res.IsError {
			return errorResult(res.Content), nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: res.Content}},
		}, nil
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
