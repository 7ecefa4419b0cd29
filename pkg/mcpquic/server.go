// CLAUDE:SUMMARY MCP JSON-RPC over a single QUIC stream: per-connection Handler (used by the chassis) and a standalone Listener.
package mcpquic

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go"

	"github.com/hazyhaar/aadhaar-pulse/pkg/kit"
)

// Handler serves MCP sessions on already-accepted QUIC connections. The
// chassis uses it after ALPN demuxing; Listener uses it standalone.
type Handler struct {
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

func NewHandler(mcpSrv *server.MCPServer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{mcpServer: mcpSrv, logger: logger}
}

// ServeConn runs one MCP session on the first stream opened by the client.
// Messages are newline-delimited JSON-RPC, after the magic preamble.
func (h *Handler) ServeConn(ctx context.Context, conn *quic.Conn) {
	remote := conn.RemoteAddr().String()

	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		h.logger.Warn("mcp quic: accept stream", "remote", remote, "error", err)
		conn.CloseWithError(ConnErrorProtocolViolation, "stream accept failed")
		return
	}
	if err := ValidateMagicBytes(stream); err != nil {
		h.logger.Warn("mcp quic: bad preamble", "remote", remote, "error", err)
		stream.CancelWrite(StreamErrorProtocolConfusion)
		stream.CancelRead(StreamErrorProtocolConfusion)
		conn.CloseWithError(ConnErrorProtocolViolation, "invalid magic bytes")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess := newSession("quic_"+uuid.NewString()[:8], stream)
	if err := h.mcpServer.RegisterSession(ctx, sess); err != nil {
		h.logger.Error("mcp quic: register session", "session", sess.id, "error", err)
		stream.Close()
		return
	}
	defer h.mcpServer.UnregisterSession(ctx, sess.id)

	h.logger.Info("mcp quic session started", "session", sess.id, "remote", remote)
	ctx = h.mcpServer.WithContext(kit.WithTransport(ctx, kit.TransportQUIC), sess)
	go sess.forwardNotifications(ctx)

	reader := bufio.NewReader(stream)
	for {
		line, err := readLine(reader, MaxMessageSize)
		if errors.Is(err, ErrMessageTooLarge) {
			h.logger.Warn("mcp quic: message too large", "session", sess.id)
			stream.CancelRead(StreamErrorMessageTooLarge)
			stream.CancelWrite(StreamErrorMessageTooLarge)
			break
		}
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				h.logger.Warn("mcp quic: read", "session", sess.id, "error", err)
			}
			break
		}
		if len(line) == 0 {
			continue
		}

		resp := h.mcpServer.HandleMessage(ctx, json.RawMessage(line))
		if resp == nil {
			continue
		}
		if err := sess.send(resp); err != nil {
			h.logger.Warn("mcp quic: write", "session", sess.id, "error", err)
			break
		}
	}
	stream.Close()
	h.logger.Info("mcp quic session ended", "session", sess.id, "remote", remote)
}

// Listener accepts MCP-over-QUIC connections on its own UDP socket.
type Listener struct {
	listener *quic.Listener
	handler  *Handler
	logger   *slog.Logger
}

func NewListener(addr string, tlsCfg *tls.Config, mcpSrv *server.MCPServer, logger *slog.Logger) (*Listener, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l, err := quic.ListenAddr(addr, tlsCfg, QUICConfig())
	if err != nil {
		return nil, err
	}
	logger.Info("mcp quic listener ready", "addr", l.Addr().String())
	return &Listener{listener: l, handler: NewHandler(mcpSrv, logger), logger: logger}, nil
}

// Addr is the bound UDP address.
func (l *Listener) Addr() string { return l.listener.Addr().String() }

// Serve accepts connections until ctx is done or the listener is closed.
func (l *Listener) Serve(ctx context.Context) error {
	for {
		conn, err := l.listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, quic.ErrServerClosed) {
				return nil
			}
			l.logger.Warn("mcp quic: accept", "error", err)
			continue
		}
		if alpn := conn.ConnectionState().TLS.NegotiatedProtocol; alpn != ALPNProtocolMCP {
			conn.CloseWithError(ConnErrorUnsupportedALPN, "unsupported ALPN: "+alpn)
			continue
		}
		go l.handler.ServeConn(ctx, conn)
	}
}

func (l *Listener) Close() error {
	return l.listener.Close()
}

// session implements server.ClientSession for one QUIC stream. Responses and
// notifications share the stream, so writes are serialized.
type session struct {
	id            string
	notifications chan mcp.JSONRPCNotification
	initialized   atomic.Bool
	w             io.Writer
	mu            sync.Mutex
}

func newSession(id string, w io.Writer) *session {
	return &session{
		id:            id,
		notifications: make(chan mcp.JSONRPCNotification, 100),
		w:             w,
	}
}

func (s *session) SessionID() string                                   { return s.id }
func (s *session) NotificationChannel() chan<- mcp.JSONRPCNotification { return s.notifications }
func (s *session) Initialize()                                         { s.initialized.Store(true) }
func (s *session) Initialized() bool                                   { return s.initialized.Load() }

func (s *session) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(append(data, '\n'))
	return err
}

func (s *session) forwardNotifications(ctx context.Context) {
	for {
		select {
		case n := <-s.notifications:
			_ = s.send(n)
		case <-ctx.Done():
			return
		}
	}
}
