package mcpquic

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/quic-go/quic-go"
)

// Client is an MCP client speaking to a pulse server over QUIC.
type Client struct {
	addr      string
	tlsCfg    *tls.Config
	conn      *quic.Conn
	stream    *quic.Stream
	mcpClient *client.Client
}

// NewClient returns an unconnected client. A nil tlsCfg skips certificate
// verification, which only suits the self-signed development certificate.
func NewClient(addr string, tlsCfg *tls.Config) *Client {
	if tlsCfg == nil {
		tlsCfg = ClientTLSConfig(true)
	}
	return &Client{addr: addr, tlsCfg: tlsCfg}
}

// Connect dials, sends the preamble and performs the MCP initialize handshake.
func (c *Client) Connect(ctx context.Context, name, version string) error {
	conn, err := quic.DialAddr(ctx, c.addr, c.tlsCfg, QUICConfig())
	if err != nil {
		return fmt.Errorf("quic dial %s: %w", c.addr, err)
	}
	if alpn := conn.ConnectionState().TLS.NegotiatedProtocol; alpn != ALPNProtocolMCP {
		conn.CloseWithError(ConnErrorUnsupportedALPN, "bad ALPN")
		return fmt.Errorf("%w: got %q", ErrUnsupportedALPN, alpn)
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		conn.CloseWithError(ConnErrorProtocolViolation, "stream open failed")
		return fmt.Errorf("open stream: %w", err)
	}
	c.conn, c.stream = conn, stream

	if err := SendMagicBytes(stream); err != nil {
		c.closeTransport()
		return err
	}

	mc := client.NewClient(transport.NewIO(stream, stream, io.NopCloser(eofReader{})))
	if err := mc.Start(ctx); err != nil {
		c.closeTransport()
		return fmt.Errorf("mcp start: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: name, Version: version}
	initCtx, cancel := context.WithTimeout(ctx, DefaultHandshakeTimeout)
	defer cancel()
	if _, err := mc.Initialize(initCtx, initReq); err != nil {
		c.closeTransport()
		return fmt.Errorf("mcp initialize: %w", err)
	}
	c.mcpClient = mc
	return nil
}

func (c *Client) ListTools(ctx context.Context) (*mcp.ListToolsResult, error) {
	if c.mcpClient == nil {
		return nil, ErrNotConnected
	}
	return c.mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
}

func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	if c.mcpClient == nil {
		return nil, ErrNotConnected
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return c.mcpClient.CallTool(ctx, req)
}

func (c *Client) Close() error {
	if c.mcpClient != nil {
		c.mcpClient.Close()
	}
	return c.closeTransport()
}

func (c *Client) closeTransport() error {
	if c.stream != nil {
		c.stream.Close()
	}
	if c.conn != nil {
		return c.conn.CloseWithError(ConnErrorNoError, "client closing")
	}
	return nil
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
