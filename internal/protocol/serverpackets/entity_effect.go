package serverpackets

import (
	"fmt"
	"math"

	"github.com/udisondev/effectsync/internal/effect"
	"github.com/udisondev/effectsync/internal/protocol/packet"
)

// EntityEffect starts or refreshes a status effect on an entity.
//
// Packet structure:
//   - packetID (varint): 0x53
//   - entityID (int32)
//   - effectID (int8): Kind.WireID(), enum index + 1
//   - amplifier (int8): zero-based
//   - duration (int32): raw ticks
//   - flags (int8): bit0 ambient, bit1 show particles, bit2 show icon
//
// The start packet carries the full duration; refresh packets carry the
// remaining duration.
type EntityEffect struct {
	EntityID      int32
	Kind          effect.Kind
	Amplifier     uint8
	DurationTicks int32
	Flags         effect.Flags
}

// NewEntityEffect builds the packet for e with the given duration in ticks.
// Durations beyond int32 are clamped.
func NewEntityEffect(e effect.Active, durationTicks int64) EntityEffect {
	return EntityEffect{
		EntityID:      e.EntityID,
		Kind:          e.Kind,
		Amplifier:     e.Amplifier,
		DurationTicks: clampDuration(durationTicks),
		Flags:         e.Flags,
	}
}

func clampDuration(d int64) int32 {
	switch {
	case d > math.MaxInt32:
		return math.MaxInt32
	case d < 0:
		return 0
	default:
		return int32(d)
	}
}

// ID returns the packet ID.
func (p *EntityEffect) ID() int32 { return PacketIDEntityEffect }

// Write serializes EntityEffect packet to bytes.
//
// Packet size: 12 bytes (1 + 4 + 1 + 1 + 4 + 1).
func (p *EntityEffect) Write() ([]byte, error) {
	if !p.Kind.Valid() {
		return nil, fmt.Errorf("writing EntityEffect: invalid kind %v", p.Kind)
	}

	w := packet.Get()
	defer w.Put()
	w.WriteVarInt(PacketIDEntityEffect)
	w.WriteInt(p.EntityID)
	w.WriteInt8(p.Kind.WireID())
	w.WriteInt8(int8(p.Amplifier))
	w.WriteInt(p.DurationTicks)
	w.WriteInt8(int8(p.Flags))

	return w.Copy(), nil
}

// ParseEntityEffect parses the EntityEffect body.
func ParseEntityEffect(data []byte) (*EntityEffect, error) {
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

	amplifier, err := r.ReadInt8()
	if err != nil {
		return nil, fmt.Errorf("reading amplifier: %w", err)
	}

	duration, err := r.ReadInt()
	if err != nil {
		return nil, fmt.Errorf("reading duration: %w", err)
	}

	flags, err := r.ReadInt8()
	if err != nil {
		return nil, fmt.Errorf("reading flags: %w", err)
	}

	if err := r.ExpectEOF(); err != nil {
		return nil, err
	}

	return &EntityEffect{
		EntityID:      entityID,
		Kind:          kind,
		Amplifier:     uint8(amplifier),
		DurationTicks: duration,
		Flags:         effect.Flags(flags),
	}, nil
}
