package main

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/aadhaar-pulse/pkg/mcpquic"
)

func startQUICTools(t *testing.T) string {
	t.Helper()
	srv := server.NewMCPServer("pulse-test", "0.0.0", server.WithToolCapabilities(false))
	srv.AddTool(mcp.NewTool("ok"), func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(`{"status":"ok"}`), nil
	})
	srv.AddTool(mcp.NewTool("fail"), func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("cleaned dataset not found"), nil
	})

	tlsCfg, err := mcpquic.ServerTLSConfig("", "")
	if err != nil {
		t.Fatal(err)
	}
	ln, err := mcpquic.NewListener("127.0.0.1:0", tlsCfg, srv, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go ln.Serve(ctx)
	t.Cleanup(func() {
		cancel()
		ln.Close()
	})
	return ln.Addr()
}

func TestCmdCall(t *testing.T) {
	addr := startQUICTools(t)

	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"list", []string{"-addr", addr, "-insecure"}, false},
		{"tool ok", []string{"-addr", addr, "-insecure", "-tool", "ok"}, false},
		{"tool error", []string{"-addr", addr, "-insecure", "-tool", "fail"}, true},
		{"bad args", []string{"-addr", addr, "-insecure", "-tool", "ok", "-args", "[1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cmdCall(tt.args)
			if (err != nil) != tt.wantErr {
				t.Errorf("cmdCall(%v) err = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
		})
	}
}
