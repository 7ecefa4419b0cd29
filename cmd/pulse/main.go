package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hazyhaar/aadhaar-pulse/pkg/pipeline"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmds := map[string]func([]string) error{
		"serve":     cmdServe,
		"mcp":       cmdMCP,
		"clean":     cmdClean,
		"logs":      cmdLogs,
		"detect":    cmdDetect,
		"aggregate": cmdAggregate,
		"estimate":  cmdEstimate,
		"insights":  cmdInsights,
		"inspect":   cmdInspect,
		"call":      cmdCall,
	}
	cmd, ok := cmds[os.Args[1]]
	if !ok {
		usage()
		os.Exit(1)
	}
	if err := cmd(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "pulse %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: pulse <command> [flags]

Commands:
  serve      Start the HTTP server (and HTTP/3 + MCP over QUIC when enabled)
  mcp        Serve MCP tools on stdin/stdout (-quic: on a QUIC listener)
  call       Call an MCP tool on a remote server over QUIC
  clean      Canonicalize a raw dataset
  logs       Print the cleaning ledger
  detect     Report near-duplicate district names in a state
  aggregate  Print national, state or district totals
  estimate   Estimate service stations per district of a state
  insights   Print national insights
  inspect    Show columns and sample rows of a raw dataset

Every command except call accepts -config (default config.yaml).
`)
}

// env is what every subcommand needs: parsed config, logger and service.
type env struct {
	cfg    config
	logger *slog.Logger
	svc    *pipeline.Service
}

func (e *env) Close() error { return e.svc.Close() }

// newFlagSet returns a FlagSet with the shared -config flag.
func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	return fs, cfgPath
}

func open(cfgPath string) (*env, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	logger := newLogger(os.Stderr, cfg)
	slog.SetDefault(logger)

	svc, err := pipeline.Open(cfg.pipeline(logger))
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, svc: svc}, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
