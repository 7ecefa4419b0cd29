package kit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPDecoder turns tool arguments into the Endpoint's request value.
type MCPDecoder func(args map[string]any) (any, error)

// RegisterMCPTool exposes endpoint as an MCP tool. The response is returned as
// JSON text. Decode and endpoint failures become tool errors, never protocol
// errors, so the model sees the message.
func RegisterMCPTool(srv *server.MCPServer, tool mcp.Tool, endpoint Endpoint, decode MCPDecoder) {
	srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		request, err := decode(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		if TransportOf(ctx) == "" {
			ctx = WithTransport(ctx, TransportMCP)
		}

		resp, err := endpoint(ctx, request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode response: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

// StringArg returns args[key] when it is a string.
func StringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// NumberArg returns args[key] when it is a JSON number.
func NumberArg(args map[string]any, key string) (float64, bool) {
	f, ok := args[key].(float64)
	return f, ok
}
