package serverpackets

import (
	"fmt"

	"github.com/udisondev/effectsync/internal/protocol/packet"
)

// DestroyEntities tells observers that entities left their view.
//
// Packet structure:
//   - packetID (varint): 0x35
//   - count (varint)
//   - entityIDs (varint each)
type DestroyEntities struct {
	EntityIDs []int32
}

// ID returns the packet ID.
func (p *DestroyEntities) ID() int32 { return PacketIDDestroyEntities }

// Write serializes DestroyEntities packet to bytes.
func (p *DestroyEntities) Write() ([]byte, error) {
	w := packet.Get()
	defer w.Put()

	w.WriteVarInt(PacketIDDestroyEntities)
	w.WriteVarInt(int32(len(p.EntityIDs)))
	for _, id := range p.EntityIDs {
		w.WriteVarInt(id)
	}

	return w.Copy(), nil
}

// ParseDestroyEntities parses the DestroyEntities body.
func ParseDestroyEntities(data []byte) (*DestroyEntities, error) {
	r := packet.NewReader(data)

	count, err := r.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("reading count: %w", err)
	}
	if count < 0 || int(count) > r.Remaining() {
		return nil, packet.Malformed("invalid entity count %d (remaining=%d)", count, r.Remaining())
	}

	ids := make([]int32, 0, count)
	for i := range int(count) {
		id, err := r.ReadVarInt()
		if err != nil {
			return nil, fmt.Errorf("reading entity %d: %w", i, err)
		}
		ids = append(ids, id)
	}

	if err := r.ExpectEOF(); err != nil {
		return nil, err
	}

	return &DestroyEntities{EntityIDs: ids}, nil
}
