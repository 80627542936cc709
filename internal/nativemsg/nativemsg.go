// Package nativemsg implements Chrome's native messaging framing: a 4-byte
// little-endian length followed by that many bytes of UTF-8 JSON.
package nativemsg

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// MaxIncoming caps the body size accepted from the browser.
	MaxIncoming = 64 << 20

	// MaxOutgoing is Chrome's limit for a single host-to-browser message.
	MaxOutgoing = 1 << 20

	headerSize = 4
)

var (
	ErrMessageTooLarge = errors.New("native message too large")
)

// Reader reads framed messages from the browser.
type Reader struct {
	r      io.Reader
	limit  uint32
	header [headerSize]byte
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, limit: MaxIncoming}
}

// Next returns the next message body. A zero-length frame yields a nil body
// and no error. End of input, including a frame cut short, returns io.EOF.
// Oversized frames are skipped and reported with ErrMessageTooLarge; the
// stream stays aligned on the following frame.
func (r *Reader) Next() ([]byte, error) {
	if _, err := io.ReadFull(r.r, r.header[:]); err != nil {
		return nil, eof(err)
	}

	n := binary.LittleEndian.Uint32(r.header[:])
	if n == 0 {
		return nil, nil
	}
	if n > r.limit {
		if _, err := io.CopyN(io.Discard, r.r, int64(n)); err != nil {
			return nil, eof(err)
		}
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, n)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r.r, body); err != nil {
		return nil, eof(err)
	}
	return body, nil
}

func eof(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return io.EOF
	}
	return err
}

// Writer writes framed messages to the browser.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteFrame writes body with its length prefix. Bodies over MaxOutgoing
// are refused before anything is written.
func (w *Writer) WriteFrame(body []byte) error {
	if len(body) > MaxOutgoing {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrMessageTooLarge, len(body), MaxOutgoing)
	}

	frame := make([]byte, headerSize+len(body))
	binary.LittleEndian.PutUint32(frame, uint32(len(body)))
	copy(frame[headerSize:], body)

	if _, err := w.w.Write(frame); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}
