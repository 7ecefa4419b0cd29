package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hazyhaar/aadhaar-pulse/pkg/mcpquic"
)

// cmdCall invokes one MCP tool on a remote pulse server over QUIC.
func cmdCall(args []string) error {
	fs, _ := newFlagSet("call")
	addr := fs.String("addr", "localhost:8420", "server address")
	tool := fs.String("tool", "", "tool name; empty lists the tools")
	rawArgs := fs.String("args", "{}", "tool arguments as a JSON object")
	insecure := fs.Bool("insecure", false, "skip certificate verification (self-signed servers)")
	timeout := fs.Duration("timeout", 30*time.Second, "call timeout")
	fs.Parse(args)

	var toolArgs map[string]any
	if err := json.Unmarshal([]byte(*rawArgs), &toolArgs); err != nil {
		return fmt.Errorf("-args: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	c := mcpquic.NewClient(*addr, mcpquic.ClientTLSConfig(*insecure))
	if err := c.Connect(ctx, "pulse-cli", version); err != nil {
		return err
	}
	defer c.Close()

	if *tool == "" {
		tools, err := c.ListTools(ctx)
		if err != nil {
			return err
		}
		for _, t := range tools.Tools {
			fmt.Fprintf(os.Stdout, "%-20s %s\n", t.Name, t.Description)
		}
		return nil
	}

	res, err := c.CallTool(ctx, *tool, toolArgs)
	if err != nil {
		return err
	}
	for _, content := range res.Content {
		if text, ok := content.(mcp.TextContent); ok {
			fmt.Fprintln(os.Stdout, text.Text)
		}
	}
	if res.IsError {
		return errors.New("tool returned an error")
	}
	return nil
}
