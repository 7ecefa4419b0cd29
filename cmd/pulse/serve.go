// CLAUDE:SUMMARY serve and mcp subcommands: HTTP server with graceful shutdown, optional QUIC chassis, MCP over stdio or a standalone QUIC listener.
package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/aadhaar-pulse/pkg/api"
	"github.com/hazyhaar/aadhaar-pulse/pkg/chassis"
	"github.com/hazyhaar/aadhaar-pulse/pkg/mcpquic"
)

const shutdownTimeout = 10 * time.Second

func newMCPServer(eps api.Endpoints) *server.MCPServer {
	srv := server.NewMCPServer("aadhaar-pulse", version, server.WithToolCapabilities(false))
	api.RegisterMCPTools(srv, eps)
	return srv
}

func cmdServe(args []string) error {
	fs, cfgPath := newFlagSet("serve")
	fs.Parse(args)

	e, err := open(*cfgPath)
	if err != nil {
		return err
	}
	defer e.Close()

	eps := api.MakeEndpoints(e.svc, e.logger)
	router := api.NewRouter(e.svc, eps)

	ctx, stop := signalContext()
	defer stop()

	if e.cfg.QUIC.Enabled {
		return serveChassis(ctx, e, router, newMCPServer(eps))
	}

	srv := &http.Server{
		Addr:              e.cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		e.logger.Info("pulse listening", "addr", e.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	e.logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

func serveChassis(ctx context.Context, e *env, router http.Handler, mcpSrv *server.MCPServer) error {
	cs, err := chassis.New(chassis.Config{
		Addr:      e.cfg.Addr,
		CertFile:  e.cfg.QUIC.CertFile,
		KeyFile:   e.cfg.QUIC.KeyFile,
		Handler:   router,
		MCPServer: mcpSrv,
		Logger:    e.logger,
	})
	if err != nil {
		return err
	}
	runErr := cs.Start(ctx)

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(runErr, cs.Stop(sctx))
}

func cmdMCP(args []string) error {
	fs, cfgPath := newFlagSet("mcp")
	overQUIC := fs.Bool("quic", false, "serve MCP over QUIC on the configured addr instead of stdio")
	fs.Parse(args)

	e, err := open(*cfgPath)
	if err != nil {
		return err
	}
	defer e.Close()

	mcpSrv := newMCPServer(api.MakeEndpoints(e.svc, e.logger))
	if !*overQUIC {
		e.logger.Info("pulse MCP on stdio")
		return server.ServeStdio(mcpSrv)
	}

	tlsCfg, err := mcpquic.ServerTLSConfig(e.cfg.QUIC.CertFile, e.cfg.QUIC.KeyFile)
	if err != nil {
		return err
	}
	ln, err := mcpquic.NewListener(e.cfg.Addr, tlsCfg, mcpSrv, e.logger)
	if err != nil {
		return err
	}
	defer ln.Close()

	ctx, stop := signalContext()
	defer stop()
	if err := ln.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
