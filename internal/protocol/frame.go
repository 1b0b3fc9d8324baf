// Package protocol frames encoded packets for the connection stream.
//
// Frame layout without compression:
//   - length (varint): len(payload)
//   - payload
//
// With compression enabled (threshold >= 0):
//   - length (varint): size of what follows
//   - dataLength (varint): uncompressed size, 0 when sent raw
//   - payload, zlib-compressed when dataLength > 0
package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// MaxFrameSize is the largest length a 3-byte varint can carry.
const MaxFrameSize = 2097151

// CompressionDisabled turns frame compression off.
const CompressionDisabled = -1

var (
	ErrFrameTooLarge = errors.New("frame too large")
	ErrBadFrame      = errors.New("bad frame")
)

// FrameReader is what ReadFrame consumes; *bufio.Reader and *bytes.Reader qualify.
type FrameReader interface {
	io.Reader
	io.ByteReader
}

// Framer writes and reads frames with a fixed compression threshold.
// Safe for concurrent use; zlib writers are pooled.
type Framer struct {
	threshold int
	level     int
	writers   sync.Pool
}

// NewFramer creates a framer. Payloads of at least threshold bytes are
// compressed; a negative threshold disables compression.
func NewFramer(threshold int) *Framer {
	return NewFramerLevel(threshold, zlib.DefaultCompression)
}

// NewFramerLevel is NewFramer with an explicit zlib level.
func NewFramerLevel(threshold, level int) *Framer {
	return &Framer{threshold: threshold, level: level}
}

// Threshold returns the compression threshold.
func (f *Framer) Threshold() int {
	return f.threshold
}

// Compressed reports whether frames carry the dataLength field.
func (f *Framer) Compressed() bool {
	return f.threshold >= 0
}

// AppendFrame appends the frame for payload to dst.
func (f *Framer) AppendFrame(dst, payload []byte) ([]byte, error) {
	if len(payload) > MaxFrameSize {
		return dst, fmt.Errorf("%w: payload %d bytes", ErrFrameTooLarge, len(payload))
	}

	if !f.Compressed() {
		dst = binary.AppendUvarint(dst, uint64(len(payload)))
		return append(dst, payload...), nil
	}

	if len(payload) < f.threshold {
		dst = binary.AppendUvarint(dst, uint64(len(payload)+1))
		dst = append(dst, 0)
		return append(dst, payload...), nil
	}

	var body bytes.Buffer
	body.Grow(len(payload)/2 + 16)
	body.Write(binary.AppendUvarint(nil, uint64(len(payload))))
	if err := f.compress(&body, payload); err != nil {
		return dst, err
	}
	if body.Len() > MaxFrameSize {
		return dst, fmt.Errorf("%w: compressed frame %d bytes", ErrFrameTooLarge, body.Len())
	}

	dst = binary.AppendUvarint(dst, uint64(body.Len()))
	return append(dst, body.Bytes()...), nil
}

// WriteFrame writes the frame for payload to w.
func (f *Framer) WriteFrame(w io.Writer, payload []byte) error {
	frame, err := f.AppendFrame(make([]byte, 0, len(payload)+8), payload)
	if err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// ReadFrame reads one frame and returns the uncompressed payload.
func (f *Framer) ReadFrame(r FrameReader) ([]byte, error) {
	length, err := readLength(r)
	if err != nil {
		return nil, fmt.Errorf("reading frame length: %w", err)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("reading frame body: %w", err)
	}
	if !f.Compressed() {
		return body, nil
	}

	br := bytes.NewReader(body)
	dataLen, err := readLength(br)
	if err != nil {
		return nil, badFrame("reading data length", err)
	}
	if dataLen == 0 {
		return body[len(body)-br.Len():], nil
	}
	if dataLen < f.threshold {
		return nil, fmt.Errorf("%w: compressed payload of %d bytes is below threshold %d", ErrBadFrame, dataLen, f.threshold)
	}

	zr, err := zlib.NewReader(br)
	if err != nil {
		return nil, badFrame("opening zlib stream", err)
	}
	defer zr.Close()

	payload := make([]byte, dataLen)
	if _, err := io.ReadFull(zr, payload); err != nil {
		return nil, badFrame("inflating payload", err)
	}
	// The stream must end exactly at dataLength and consume the whole body.
	var extra [1]byte
	if n, err := zr.Read(extra[:]); n > 0 || !errors.Is(err, io.EOF) {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: payload inflates past %d bytes", ErrBadFrame, dataLen)
		}
		return nil, badFrame("inflating payload", err)
	}
	if br.Len() > 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after zlib stream", ErrBadFrame, br.Len())
	}
	return payload, nil
}

// badFrame wraps err with ErrBadFrame, leaving ErrFrameTooLarge intact.
func badFrame(op string, err error) error {
	if errors.Is(err, ErrFrameTooLarge) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrBadFrame, op, err)
}

func (f *Framer) compress(dst *bytes.Buffer, payload []byte) error {
	var zw *zlib.Writer
	if v := f.writers.Get(); v != nil {
		zw = v.(*zlib.Writer)
		zw.Reset(dst)
	} else {
		var err error
		zw, err = zlib.NewWriterLevel(dst, f.level)
		if err != nil {
			return fmt.Errorf("creating zlib writer: %w", err)
		}
	}
	defer f.writers.Put(zw)

	if _, err := zw.Write(payload); err != nil {
		return fmt.Errorf("deflating payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing zlib stream: %w", err)
	}
	return nil
}

func readLength(r io.ByteReader) (int, error) {
	v, err := binary.ReadUvarint(r)
	if err != nil {
		return 0, err
	}
	if v > MaxFrameSize {
		return 0, fmt.Errorf("%w: length %d", ErrFrameTooLarge, v)
	}
	return int(v), nil
}
