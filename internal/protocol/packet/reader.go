package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxStringLength is the largest string payload accepted by ReadString, in bytes.
const MaxStringLength = 32767

const maxVarIntBytes = 5

// ErrMalformedPacket is wrapped by every decode failure: truncated buffers,
// overlong varints, invalid string lengths and unknown enum codes.
var ErrMalformedPacket = errors.New("malformed packet")

// Malformed returns an error wrapping ErrMalformedPacket.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedPacket, fmt.Sprintf(format, args...))
}

// Reader provides methods for reading packet data.
// Uses Big-Endian byte order for all multi-byte values.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a new packet reader.
func NewReader(data []byte) *Reader {
	return &Reader{
		data: data,
		pos:  0,
	}
}

func (r *Reader) need(op string, n int) error {
	if r.pos+n > len(r.data) {
		return Malformed("%s: not enough data (pos=%d, need=%d, len=%d)", op, r.pos, n, len(r.data))
	}
	return nil
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.need("ReadByte", 1); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadInt8 reads a signed byte.
func (r *Reader) ReadInt8() (int8, error) {
	b, err := r.ReadByte()
	return int8(b), err
}

// ReadInt reads an int32 (4 bytes, BE).
func (r *Reader) ReadInt() (int32, error) {
	if err := r.need("ReadInt", 4); err != nil {
		return 0, err
	}
	val := int32(binary.BigEndian.Uint32(r.data[r.pos:]))
	r.pos += 4
	return val, nil
}

// ReadDouble reads a float64 (8 bytes, BE).
func (r *Reader) ReadDouble() (float64, error) {
	if err := r.need("ReadDouble", 8); err != nil {
		return 0, err
	}
	bits := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return math.Float64frombits(bits), nil
}

// ReadVarInt reads a LEB128 varint of at most 5 bytes.
func (r *Reader) ReadVarInt() (int32, error) {
	var result uint32
	for i := 0; i < maxVarIntBytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("ReadVarInt: %w", err)
		}
		result |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int32(result), nil
		}
	}
	return 0, Malformed("ReadVarInt: varint longer than %d bytes", maxVarIntBytes)
}

// ReadString reads a varint-length-prefixed UTF-8 string.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadVarInt()
	if err != nil {
		return "", err
	}
	if n < 0 || n > MaxStringLength {
		return "", Malformed("ReadString: invalid length %d", n)
	}
	if err := r.need("ReadString", int(n)); err != nil {
		return "", err
	}
	raw := r.data[r.pos : r.pos+int(n)]
	if !utf8.Valid(raw) {
		return "", Malformed("ReadString: invalid UTF-8")
	}
	r.pos += int(n)
	return string(raw), nil
}

// ReadUUID reads 16 bytes, most significant first.
func (r *Reader) ReadUUID() (uuid.UUID, error) {
	var id uuid.UUID
	if err := r.need("ReadUUID", len(id)); err != nil {
		return id, err
	}
	copy(id[:], r.data[r.pos:r.pos+len(id)])
	r.pos += len(id)
	return id, nil
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Position returns the current read position.
func (r *Reader) Position() int {
	return r.pos
}

// ExpectEOF fails when unread bytes are left over.
func (r *Reader) ExpectEOF() error {
	if n := r.Remaining(); n != 0 {
		return Malformed("%d trailing bytes", n)
	}
	return nil
}
