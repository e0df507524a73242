package packet

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameLength bounds a single frame's payload size. A frame whose
// length header exceeds this, or that claims a non-positive payload,
// is a framing error — framing errors are fatal for the
// connection (unlike opcode/decode errors, which are merely logged).
const MaxFrameLength = 65535

// ReadFrame reads one length-prefixed frame: [4 bytes LE: opcode+
// payload length][1 byte opcode][payload]. The returned slice is
// opcode||payload, ready for NewReader.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}
	length := binary.LittleEndian.Uint32(header[:])
	if length == 0 || length > MaxFrameLength {
		return nil, fmt.Errorf("invalid frame length: %d", length)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read frame body (%d bytes): %w", length, err)
	}
	return body, nil
}

// WriteFrame writes body (opcode||payload, as produced by Writer.Bytes)
// as one length-prefixed frame.
func WriteFrame(w io.Writer, body []byte) error {
	if len(body) == 0 || len(body) > MaxFrameLength {
		return fmt.Errorf("invalid frame length: %d", len(body))
	}
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(body)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write frame body: %w", err)
	}
	return nil
}
