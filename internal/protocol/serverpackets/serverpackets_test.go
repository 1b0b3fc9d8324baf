package serverpackets

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/effectsync/internal/attribute"
	"github.com/udisondev/effectsync/internal/effect"
	"github.com/udisondev/effectsync/internal/protocol/packet"
)

func body(t *testing.T, data []byte, wantID int32) []byte {
	t.Helper()
	id, b, err := SplitID(data)
	require.NoError(t, err)
	require.Equal(t, wantID, id)
	return b
}

func TestEntityEffect_Write(t *testing.T) {
	t.Parallel()

	pkt := EntityEffect{
		EntityID:      0x01020304,
		Kind:          effect.Poison,
		Amplifier:     1,
		DurationTicks: 600,
		Flags:         effect.FlagShowParticles | effect.FlagShowIcon,
	}
	data, err := pkt.Write()
	require.NoError(t, err)

	want := []byte{
		0x53,
		0x01, 0x02, 0x03, 0x04,
		19, // poison is index 18
		0x01,
		0x00, 0x00, 0x02, 0x58,
		0x06,
	}
	assert.Equal(t, want, data)
}

func TestEntityEffect_RoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Write(Parse(body)) reproduces the bytes", prop.ForAll(
		func(entityID int32, kindIdx int, amp uint8, duration int32, flags uint8) bool {
			pkt := EntityEffect{
				EntityID:      entityID,
				Kind:          effect.Kind(kindIdx),
				Amplifier:     amp,
				DurationTicks: duration,
				Flags:         effect.Flags(flags),
			}
			data, err := pkt.Write()
			if err != nil {
				return false
			}
			_, b, err := SplitID(data)
			if err != nil {
				return false
			}
			decoded, err := ParseEntityEffect(b)
			if err != nil || *decoded != pkt {
				return false
			}
			again, err := decoded.Write()
			return err == nil && bytes.Equal(again, data)
		},
		gen.Int32(),
		gen.IntRange(0, effect.KindCount-1),
		gen.UInt8(),
		gen.Int32(),
		gen.UInt8Range(0, 7),
	))

	properties.TestingRun(t)
}

func TestParseEntityEffect_Malformed(t *testing.T) {
	t.Parallel()

	valid := []byte{0, 0, 0, 1, 1, 0, 0, 0, 0, 20, 6}
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated", valid[:7]},
		{"effect id zero", []byte{0, 0, 0, 1, 0, 0, 0, 0, 0, 20, 6}},
		{"effect id out of range", []byte{0, 0, 0, 1, 33, 0, 0, 0, 0, 20, 6}},
		{"trailing byte", append(append([]byte{}, valid...), 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseEntityEffect(tt.data)
			assert.True(t, errors.Is(err, packet.ErrMalformedPacket), "err = %v", err)
		})
	}

	_, err := ParseEntityEffect(valid)
	assert.NoError(t, err)
}

func TestRemoveEntityEffect_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, k := range effect.Kinds() {
		pkt := RemoveEntityEffect{EntityID: 42, Kind: k}
		data, err := pkt.Write()
		require.NoError(t, err)
		require.Len(t, data, 6)

		decoded, err := ParseRemoveEntityEffect(body(t, data, PacketIDRemoveEntityEffect))
		require.NoError(t, err)
		assert.Equal(t, pkt, *decoded)
	}
}

func TestEntityEffect_InvalidKind(t *testing.T) {
	t.Parallel()

	pkt := EntityEffect{Kind: effect.Kind(99)}
	_, err := pkt.Write()
	assert.Error(t, err)

	rm := RemoveEntityEffect{Kind: effect.Kind(99)}
	_, err = rm.Write()
	assert.Error(t, err)
}

func TestNewEntityEffect_ClampsDuration(t *testing.T) {
	t.Parallel()

	e := effect.Active{EntityID: 1, Kind: effect.Luck}
	assert.Equal(t, int32(2147483647), NewEntityEffect(e, 1<<40).DurationTicks)
	assert.Equal(t, int32(0), NewEntityEffect(e, -5).DurationTicks)
	assert.Equal(t, int32(1200), NewEntityEffect(e, 1200).DurationTicks)
}

func twoPropertyPacket() EntityProperties {
	return EntityProperties{
		EntityID: 17,
		Properties: []attribute.Entry{
			{Name: attribute.MaxHealth, Attribute: attribute.New(20)},
			{Name: attribute.MovementSpeed, Attribute: attribute.Attribute{
				Base: 0.699999988079071,
				Modifiers: []attribute.Modifier{
					{ID: uuid.MustParse("91aeaa56-376b-4498-935b-2f7f68070635"), Amount: 0.2, Operation: attribute.OpMultiply},
					{ID: uuid.MustParse("7107de5e-7ce8-4030-940e-514c1f160890"), Amount: -0.15, Operation: attribute.OpAddPercent},
				},
			}},
		},
	}
}

func TestEntityProperties_RoundTrip(t *testing.T) {
	t.Parallel()

	pkt := twoPropertyPacket()
	data, err := pkt.Write()
	require.NoError(t, err)
	assert.Equal(t, pkt.Size(), len(data))

	decoded, err := ParseEntityProperties(body(t, data, PacketIDEntityProperties))
	require.NoError(t, err)
	assert.Equal(t, pkt, *decoded)

	again, err := decoded.Write()
	require.NoError(t, err)
	assert.Equal(t, data, again, "re-encoding must be byte-identical")
}

func TestEntityProperties_Set(t *testing.T) {
	t.Parallel()

	pkt := twoPropertyPacket()
	s := pkt.Set()
	assert.Equal(t, []string{attribute.MaxHealth, attribute.MovementSpeed}, s.Names())
	v, ok := s.Value(attribute.MovementSpeed)
	require.True(t, ok)
	assert.InDelta(t, 0.699999988079071*0.85*0.2, v, 1e-12)
}

func TestEntityProperties_DefaultSetRoundTrip(t *testing.T) {
	t.Parallel()

	s := attribute.NewDefaultSet()
	s.AddModifier(attribute.AttackDamage, attribute.NewModifier(3, attribute.OpAdd))
	entries, ok := s.TakeDirty()
	require.True(t, ok)

	pkt := NewEntityProperties(5, entries)
	data, err := pkt.Write()
	require.NoError(t, err)

	p, err := Parse(data)
	require.NoError(t, err)
	decoded, ok := p.(*EntityProperties)
	require.True(t, ok)
	assert.Equal(t, entries, decoded.Properties)
}

func TestParseEntityProperties_Malformed(t *testing.T) {
	t.Parallel()

	pkt := twoPropertyPacket()
	data, err := pkt.Write()
	require.NoError(t, err)
	valid := body(t, data, PacketIDEntityProperties)

	badOp := append([]byte{}, valid...)
	badOp[len(badOp)-1] = 3 // last byte is the second modifier's operation

	dup := EntityProperties{EntityID: 1, Properties: []attribute.Entry{
		{Name: "a", Attribute: attribute.New(1)},
		{Name: "a", Attribute: attribute.New(2)},
	}}
	dupData, err := dup.Write()
	require.NoError(t, err)

	negCount := append([]byte{}, valid...)
	negCount[4], negCount[5], negCount[6], negCount[7] = 0xFF, 0xFF, 0xFF, 0xFF

	hugeCount := append([]byte{}, valid...)
	hugeCount[4] = 0x7F

	tests := []struct {
		name string
		data []byte
	}{
		{"unknown operation", badOp},
		{"truncated", valid[:len(valid)-5]},
		{"duplicate name", body(t, dupData, PacketIDEntityProperties)},
		{"negative count", negCount},
		{"huge count", hugeCount},
		{"trailing byte", append(append([]byte{}, valid...), 0)},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseEntityProperties(tt.data)
			assert.ErrorIs(t, err, packet.ErrMalformedPacket)
		})
	}
}

func TestDestroyEntities_RoundTrip(t *testing.T) {
	t.Parallel()

	pkt := DestroyEntities{EntityIDs: []int32{1, 300, 70000}}
	data, err := pkt.Write()
	require.NoError(t, err)

	p, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, &pkt, p)

	again, err := p.Write()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestParse_UnknownID(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte{0x10, 0x00})
	assert.ErrorIs(t, err, packet.ErrMalformedPacket)
}
