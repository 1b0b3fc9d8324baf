// Package serverpackets contains the clientbound packets emitted by the
// effect and attribute replication core.
//
// Write returns the varint packet ID followed by the body. Parse* functions
// take the body only (the caller has already consumed the ID).
package serverpackets

import (
	"fmt"

	"github.com/udisondev/effectsync/internal/protocol/packet"
)

// Packet IDs (play state, clientbound).
const (
	PacketIDDestroyEntities    int32 = 0x35
	PacketIDRemoveEntityEffect int32 = 0x36
	PacketIDEntityProperties   int32 = 0x52
	PacketIDEntityEffect       int32 = 0x53
)

// Packet is a serializable clientbound packet.
type Packet interface {
	ID() int32
	Write() ([]byte, error)
}

// SplitID reads the leading varint packet ID and returns it with the body.
func SplitID(data []byte) (int32, []byte, error) {
	r := packet.NewReader(data)
	id, err := r.ReadVarInt()
	if err != nil {
		return 0, nil, fmt.Errorf("reading packet id: %w", err)
	}
	return id, data[r.Position():], nil
}

// Parse decodes a full packet (ID + body) into one of the known packet types.
func Parse(data []byte) (Packet, error) {
	id, body, err := SplitID(data)
	if err != nil {
		return nil, err
	}
	switch id {
	case PacketIDEntityEffect:
		p, err := ParseEntityEffect(body)
		if err != nil {
			return nil, fmt.Errorf("parsing EntityEffect: %w", err)
		}
		return p, nil
	case PacketIDRemoveEntityEffect:
		p, err := ParseRemoveEntityEffect(body)
		if err != nil {
			return nil, fmt.Errorf("parsing RemoveEntityEffect: %w", err)
		}
		return p, nil
	case PacketIDEntityProperties:
		p, err := ParseEntityProperties(body)
		if err != nil {
			return nil, fmt.Errorf("parsing EntityProperties: %w", err)
		}
		return p, nil
	case PacketIDDestroyEntities:
		p, err := ParseDestroyEntities(body)
		if err != nil {
			return nil, fmt.Errorf("parsing DestroyEntities: %w", err)
		}
		return p, nil
	default:
		return nil, packet.Malformed("unknown packet id 0x%02X", id)
	}
}
