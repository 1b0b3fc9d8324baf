package serverpackets

import (
	"fmt"

	"github.com/udisondev/effectsync/internal/effect"
	"github.com/udisondev/effectsync/internal/protocol/packet"
)

// RemoveEntityEffect ends a status effect on an entity.
//
// Packet structure:
//   - packetID (varint): 0x36
//   - entityID (int32)
//   - effectID (int8): Kind.WireID()
type RemoveEntityEffect struct {
	EntityID int32
	Kind     effect.Kind
}

// NewRemoveEntityEffect builds the packet for e.
func NewRemoveEntityEffect(e effect.Active) RemoveEntityEffect {
	return RemoveEntityEffect{EntityID: e.EntityID, Kind: e.Kind}
}

// ID returns the packet ID.
func (p *RemoveEntityEffect) ID() int32 { return PacketIDRemoveEntityEffect }

// Write serializes RemoveEntityEffect packet to bytes.
//
// Packet size: 6 bytes (1 + 4 + 1).
func (p *RemoveEntityEffect) Write() ([]byte, error) {
	if !p.Kind.Valid() {
		return nil, fmt.Errorf("writing RemoveEntityEffect: invalid kind %v", p.Kind)
	}

	w := packet.Get()
	defer w.Put()
	w.WriteVarInt(PacketIDRemoveEntityEffect)
	w.WriteInt(p.EntityID)
	w.WriteInt8(p.Kind.WireID())

	return w.Copy(), nil
}

// ParseRemoveEntityEffect parses the RemoveEntityEffect body.
func ParseRemoveEntityEffect(data []byte) (*RemoveEntityEffect, error) {
	r := packet.NewReader(data)

	entityID, err := r.ReadInt()
	if err != nil {
		return nil, fmt.Errorf("reading entityID: %w", err)
	}

	effectID, err := r.ReadInt8()
	if err != nil {
		return nil, fmt.Errorf("reading effectID: %w", err)
	}
	kind, ok := effect.KindFromWire(effectID)
	if !ok {
		return nil, packet.Malformed("unknown effect id %d", effectID)
	}

	if err := r.ExpectEOF(); err != nil {
		return nil, err
	}

	return &RemoveEntityEffect{EntityID: entityID, Kind: kind}, nil
}
