// Package chassis runs the pulse API over TLS on one port with two listeners:
//
//   - TCP: HTTP/1.1 and HTTP/2
//   - UDP: QUIC, demuxed by ALPN
//     "h3"           -> HTTP/3 (same handler as TCP)
//     "pulse-mcp-v1" -> MCP JSON-RPC over a QUIC stream
//
// HTTP responses advertise HTTP/3 through Alt-Svc. Without cert files a
// self-signed ECDSA P-256 certificate is generated.
package chassis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"

	"github.com/hazyhaar/aadhaar-pulse/pkg/mcpquic"
)

const alpnHTTP3 = "h3"

// Server is the dual-transport chassis.
type Server struct {
	addr       string
	logger     *slog.Logger
	tlsCfg     *tls.Config
	handler    http.Handler
	mcpHandler *mcpquic.Handler
	h3Server   *http3.Server
	tcpServer  *http.Server
	quicLn     *quic.Listener
	mu         sync.Mutex
}

// Config holds configuration for the chassis server.
type Config struct {
	Addr      string            // TCP and UDP listen address, e.g. ":8420"
	CertFile  string            // empty with KeyFile = self-signed
	KeyFile   string
	Handler   http.Handler
	MCPServer *server.MCPServer // nil disables MCP over QUIC
	Logger    *slog.Logger
}

func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	tlsCfg, err := mcpquic.ServerTLSConfig(cfg.CertFile, cfg.KeyFile, alpnHTTP3, mcpquic.ALPNProtocolMCP)
	if err != nil {
		return nil, fmt.Errorf("chassis tls: %w", err)
	}
	if cfg.CertFile == "" {
		cfg.Logger.Warn("chassis: using self-signed development certificate")
	}

	s := &Server{
		addr:    cfg.Addr,
		logger:  cfg.Logger,
		tlsCfg:  tlsCfg,
		handler: securityHeaders(altSvc(cfg.Addr, cfg.Handler)),
	}
	if cfg.MCPServer != nil {
		s.mcpHandler = mcpquic.NewHandler(cfg.MCPServer, cfg.Logger)
	}
	return s, nil
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// altSvc advertises HTTP/3 on the same port.
func altSvc(addr string, next http.Handler) http.Handler {
	_, port, _ := net.SplitHostPort(addr)
	if port == "" {
		port = "8420"
	}
	value := fmt.Sprintf(`h3=":%s"; ma=86400`, port)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Alt-Svc", value)
		next.ServeHTTP(w, r)
	})
}

// Start serves until ctx is done or a listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	tcpTLS := s.tlsCfg.Clone()
	tcpTLS.NextProtos = []string{"h2", "http/1.1"}
	s.tcpServer = &http.Server{Addr: s.addr, Handler: s.handler, TLSConfig: tcpTLS}

	ln, err := quic.ListenAddr(s.addr, s.tlsCfg, mcpquic.QUICConfig())
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("quic listen: %w", err)
	}
	s.quicLn = ln
	s.h3Server = &http3.Server{Handler: s.handler}
	s.mu.Unlock()

	s.logger.Info("chassis started", "addr", s.addr, "mcp_quic", s.mcpHandler != nil)

	errCh := make(chan error, 2)
	go func() {
		tcpLn, err := tls.Listen("tcp", s.addr, tcpTLS)
		if err != nil {
			errCh <- fmt.Errorf("tcp listen: %w", err)
			return
		}
		if err := s.tcpServer.Serve(tcpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("tcp: %w", err)
		}
	}()
	go func() {
		for {
			conn, err := ln.Accept(ctx)
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, quic.ErrServerClosed) {
					errCh <- fmt.Errorf("quic accept: %w", err)
				}
				return
			}
			s.dispatch(ctx, conn)
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) dispatch(ctx context.Context, conn *quic.Conn) {
	switch alpn := conn.ConnectionState().TLS.NegotiatedProtocol; alpn {
	case alpnHTTP3:
		go func() {
			if err := s.h3Server.ServeQUICConn(conn); err != nil {
				s.logger.Debug("http3 conn done", "remote", conn.RemoteAddr(), "error", err)
			}
		}()
	case mcpquic.ALPNProtocolMCP:
		if s.mcpHandler == nil {
			conn.CloseWithError(mcpquic.ConnErrorMCPDisabled, "MCP not enabled")
			return
		}
		go s.mcpHandler.ServeConn(ctx, conn)
	default:
		s.logger.Warn("chassis: unknown ALPN", "alpn", alpn, "remote", conn.RemoteAddr())
		conn.CloseWithError(mcpquic.ConnErrorUnsupportedALPN, "unsupported ALPN: "+alpn)
	}
}

// Stop shuts down both listeners.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.tcpServer != nil {
		errs = append(errs, s.tcpServer.Shutdown(ctx))
	}
	if s.quicLn != nil {
		errs = append(errs, s.quicLn.Close())
	}
	if s.h3Server != nil {
		errs = append(errs, s.h3Server.Close())
	}
	s.logger.Info("chassis stopped")
	return errors.Join(errs...)
}
