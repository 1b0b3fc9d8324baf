package packet

import (
	"bytes"
	"encoding/binary"
	"math"
	"sync"

	"github.com/google/uuid"
)

// Writer provides methods for writing packet data.
// Uses Big-Endian byte order for all multi-byte values.
type Writer struct {
	buf *bytes.Buffer
}

// writerPool reduces allocations by reusing Writers.
// Get() returns a Writer with Reset() called, Put() returns it to pool.
var writerPool = sync.Pool{
	New: func() any {
		return &Writer{
			buf: bytes.NewBuffer(make([]byte, 0, 256)),
		}
	},
}

// Get returns a Writer from the pool (already Reset).
func Get() *Writer {
	w := writerPool.Get().(*Writer)
	w.Reset()
	return w
}

// Put returns a Writer to the pool for reuse.
// IMPORTANT: Do not use the Writer (or a slice returned by Bytes) after calling Put.
func (w *Writer) Put() {
	writerPool.Put(w)
}

// WriteInt8 writes a signed byte.
func (w *Writer) WriteInt8(val int8) {
	w.buf.WriteByte(byte(val))
}

// WriteInt writes an int32 (4 bytes, BE).
func (w *Writer) WriteInt(val int32) {
	w.buf.WriteByte(byte(val >> 24))
	w.buf.WriteByte(byte(val >> 16))
	w.buf.WriteByte(byte(val >> 8))
	w.buf.WriteByte(byte(val))
}

// WriteDouble writes a float64 (8 bytes, BE IEEE 754).
// The bit pattern is copied as is, NaN payloads included.
func (w *Writer) WriteDouble(val float64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], math.Float64bits(val))
	w.buf.Write(tmp[:])
}

// WriteVarInt writes a 32-bit value as a LEB128 varint (1-5 bytes).
// Negative values always take 5 bytes.
func (w *Writer) WriteVarInt(val int32) {
	v := uint32(val)
	for v >= 0x80 {
		w.buf.WriteByte(byte(v) | 0x80)
		v >>= 7
	}
	w.buf.WriteByte(byte(v))
}

// WriteString writes a varint byte length followed by UTF-8 bytes.
// Callers are responsible for staying under MaxStringLength.
func (w *Writer) WriteString(s string) {
	w.WriteVarInt(int32(len(s)))
	w.buf.WriteString(s)
}

// WriteUUID writes the 16 bytes of id, most significant first.
func (w *Writer) WriteUUID(id uuid.UUID) {
	w.buf.Write(id[:])
}

// Bytes returns the accumulated packet data.
// The slice aliases the pooled buffer; use Copy if it must outlive Put.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Copy returns a copy of the accumulated packet data.
func (w *Writer) Copy() []byte {
	return bytes.Clone(w.buf.Bytes())
}

// Grow reserves room for n more bytes.
func (w *Writer) Grow(n int) {
	w.buf.Grow(n)
}

// Len returns the current length of the packet.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Reset clears the buffer for reuse.
func (w *Writer) Reset() {
	w.buf.Reset()
}

// VarIntSize returns the encoded size of val in bytes.
func VarIntSize(val int32) int {
	v := uint32(val)
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
