package mcpquic

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// ValidateMagicBytes reads the 4-byte stream preamble and checks it is "MCP1".
func ValidateMagicBytes(r io.Reader) error {
	magic := make([]byte, len(MagicBytesMCP))
	if _, err := io.ReadFull(r, magic); err != nil {
		return fmt.Errorf("read magic bytes: %w", err)
	}
	if !bytes.Equal(magic, []byte(MagicBytesMCP)) {
		return fmt.Errorf("%w: got %q", ErrInvalidMagicBytes, magic)
	}
	return nil
}

// SendMagicBytes writes the preamble. Clients send it first on a new stream.
func SendMagicBytes(w io.Writer) error {
	if _, err := io.WriteString(w, MagicBytesMCP); err != nil {
		return fmt.Errorf("write magic bytes: %w", err)
	}
	return nil
}

// readLine reads one newline-terminated message of at most max bytes,
// without the terminator.
func readLine(r *bufio.Reader, max int) ([]byte, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > max+1 {
			return nil, ErrMessageTooLarge
		}
		switch err {
		case nil:
			return bytes.TrimRight(line[:len(line)-1], "\r"), nil
		case bufio.ErrBufferFull:
			continue
		default:
			return nil, err
		}
	}
}
