package serverpackets

import (
	"fmt"

	"github.com/udisondev/effectsync/internal/attribute"
	"github.com/udisondev/effectsync/internal/protocol/packet"
)

const (
	minPropertySize = 1 + 8 + 1  // empty name + base + modifier count
	modifierSize    = 16 + 8 + 1 // uuid + amount + operation
)

// EntityProperties carries a full attribute set snapshot for an entity.
//
// Packet structure:
//   - packetID (varint): 0x52
//   - entityID (int32)
//   - count (int32)
//   - properties (count times): name (string), base (float64),
//     modifier count (varint), then per modifier id (uuid),
//     amount (float64), operation (int8)
type EntityProperties struct {
	EntityID   int32
	Properties []attribute.Entry
}

// NewEntityProperties builds the packet from an attribute set snapshot.
func NewEntityProperties(entityID int32, entries []attribute.Entry) EntityProperties {
	return EntityProperties{EntityID: entityID, Properties: entries}
}

// ID returns the packet ID.
func (p *EntityProperties) ID() int32 { return PacketIDEntityProperties }

// Size returns the encoded packet size in bytes.
func (p *EntityProperties) Size() int {
	n := packet.VarIntSize(PacketIDEntityProperties) + 4 + 4
	for _, e := range p.Properties {
		n += packet.VarIntSize(int32(len(e.Name))) + len(e.Name) + 8
		n += packet.VarIntSize(int32(len(e.Attribute.Modifiers))) + len(e.Attribute.Modifiers)*modifierSize
	}
	return n
}

// Write serializes EntityProperties packet to bytes.
func (p *EntityProperties) Write() ([]byte, error) {
	w := packet.Get()
	defer w.Put()
	w.Grow(p.Size())

	w.WriteVarInt(PacketIDEntityProperties)
	w.WriteInt(p.EntityID)
	w.WriteInt(int32(len(p.Properties)))

	for _, e := range p.Properties {
		if len(e.Name) > packet.MaxStringLength {
			return nil, fmt.Errorf("writing EntityProperties: property name too long (%d bytes)", len(e.Name))
		}
		w.WriteString(e.Name)
		w.WriteDouble(e.Attribute.Base)
		w.WriteVarInt(int32(len(e.Attribute.Modifiers)))

		for _, m := range e.Attribute.Modifiers {
			if _, ok := attribute.OperationFromWire(m.Operation.Wire()); !ok {
				return nil, fmt.Errorf("writing EntityProperties: property %s: invalid operation %v", e.Name, m.Operation)
			}
			w.WriteUUID(m.ID)
			w.WriteDouble(m.Amount)
			w.WriteInt8(m.Operation.Wire())
		}
	}

	return w.Copy(), nil
}

// Set returns the snapshot as a clean attribute set, in wire order.
func (p *EntityProperties) Set() *attribute.Set {
	return attribute.FromEntries(p.Properties)
}

// ParseEntityProperties parses the EntityProperties body.
// Duplicate property names are rejected: they cannot be re-encoded faithfully.
func ParseEntityProperties(data []byte) (*EntityProperties, error) {
	r := packet.NewReader(data)

	entityID, err := r.ReadInt()
	if err != nil {
		return nil, fmt.Errorf("reading entityID: %w", err)
	}

	count, err := r.ReadInt()
	if err != nil {
		return nil, fmt.Errorf("reading property count: %w", err)
	}
	if count < 0 || int(count) > r.Remaining()/minPropertySize {
		return nil, packet.Malformed("invalid property count %d (remaining=%d)", count, r.Remaining())
	}

	props := make([]attribute.Entry, 0, count)
	seen := make(map[string]struct{}, count)

	for i := range int(count) {
		name, err := r.ReadString()
		if err != nil {
			return nil, fmt.Errorf("reading property %d name: %w", i, err)
		}
		if _, dup := seen[name]; dup {
			return nil, packet.Malformed("duplicate property %q", name)
		}
		seen[name] = struct{}{}

		attr, err := readAttribute(r)
		if err != nil {
			return nil, fmt.Errorf("reading property %s: %w", name, err)
		}
		props = append(props, attribute.Entry{Name: name, Attribute: attr})
	}

	if err := r.ExpectEOF(); err != nil {
		return nil, err
	}

	return &EntityProperties{EntityID: entityID, Properties: props}, nil
}

func readAttribute(r *packet.Reader) (attribute.Attribute, error) {
	base, err := r.ReadDouble()
	if err != nil {
		return attribute.Attribute{}, fmt.Errorf("reading base: %w", err)
	}

	n, err := r.ReadVarInt()
	if err != nil {
		return attribute.Attribute{}, fmt.Errorf("reading modifier count: %w", err)
	}
	if n < 0 || int(n) > r.Remaining()/modifierSize {
		return attribute.Attribute{}, packet.Malformed("invalid modifier count %d (remaining=%d)", n, r.Remaining())
	}

	attr := attribute.Attribute{Base: base}
	if n > 0 {
		attr.Modifiers = make([]attribute.Modifier, 0, n)
	}
	for i := range int(n) {
		m, err := readModifier(r)
		if err != nil {
			return attribute.Attribute{}, fmt.Errorf("reading modifier %d: %w", i, err)
		}
		attr.Modifiers = append(attr.Modifiers, m)
	}
	return attr, nil
}

func readModifier(r *packet.Reader) (attribute.Modifier, error) {
	id, err := r.ReadUUID()
	if err != nil {
		return attribute.Modifier{}, fmt.Errorf("reading id: %w", err)
	}

	amount, err := r.ReadDouble()
	if err != nil {
		return attribute.Modifier{}, fmt.Errorf("reading amount: %w", err)
	}

	opByte, err := r.ReadInt8()
	if err != nil {
		return attribute.Modifier{}, fmt.Errorf("reading operation: %w", err)
	}
	op, ok := attribute.OperationFromWire(opByte)
	if !ok {
		return attribute.Modifier{}, packet.Malformed("unknown modifier operation %d", opByte)
	}

	return attribute.Modifier{ID: id, Amount: amount, Operation: op}, nil
}
