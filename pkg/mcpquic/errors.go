package mcpquic

import (
	"errors"

	"github.com/quic-go/quic-go"
)

// Stream-level error codes.
const (
	StreamErrorNoError           quic.StreamErrorCode = 0x00
	StreamErrorProtocolConfusion quic.StreamErrorCode = 0x02
	StreamErrorMessageTooLarge   quic.StreamErrorCode = 0x03
)

// Connection-level error codes.
const (
	ConnErrorNoError           quic.ApplicationErrorCode = 0x00
	ConnErrorUnsupportedALPN   quic.ApplicationErrorCode = 0x01
	ConnErrorProtocolViolation quic.ApplicationErrorCode = 0x03
	ConnErrorMCPDisabled       quic.ApplicationErrorCode = 0x10
)

var (
	ErrInvalidMagicBytes = errors.New("invalid magic bytes: expected " + MagicBytesMCP)
	ErrUnsupportedALPN   = errors.New("ALPN negotiation failed: " + ALPNProtocolMCP + " not selected")
	ErrMessageTooLarge   = errors.New("message exceeds maximum size")
	ErrNotConnected      = errors.New("client not connected")
)
