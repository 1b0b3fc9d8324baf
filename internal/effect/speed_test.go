package effect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/effectsync/internal/attribute"
)

func TestSpeedHandler_ActivateIsIdempotent(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()
	target := newTarget()
	c := NewCollection(7)

	first, err := NewSpecialized(reg, 7, Speed, 1, 600, DefaultFlags)
	require.NoError(t, err)
	c.AddSpecialized(first)
	c.ActivateSpecialized(target, 0)

	// Re-applying the effect replaces the record; the modifier must not stack.
	second, err := NewSpecialized(reg, 7, Speed, 1, 600, DefaultFlags)
	require.NoError(t, err)
	c.AddSpecialized(second)
	c.ActivateSpecialized(target, 10)

	speed, ok := target.attrs.Get(attribute.MovementSpeed)
	require.True(t, ok)
	require.Len(t, speed.Modifiers, 1)

	mod := speed.Modifiers[0]
	assert.Equal(t, SpeedModifierID, mod.ID)
	assert.Equal(t, attribute.OpMultiply, mod.Operation)
	assert.InDelta(t, 0.4, mod.Amount, 1e-12, "0.2 per level, amplifier 1 is level 2")
	assert.True(t, target.attrs.Dirty())
}

func TestSpeedHandler_ExpireRemovesModifier(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()
	target := newTarget()
	c := NewCollection(7)

	s, err := NewSpecialized(reg, 7, Speed, 0, 20, DefaultFlags)
	require.NoError(t, err)
	c.AddSpecialized(s)
	c.ActivateSpecialized(target, 0)
	target.attrs.TakeDirty()

	c.RemoveExpired(target, 20)

	speed, _ := target.attrs.Get(attribute.MovementSpeed)
	assert.Empty(t, speed.Modifiers)
	assert.True(t, target.attrs.Dirty())
}

func TestSlownessHandler_UsesOwnModifier(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()
	target := newTarget()
	c := NewCollection(7)

	speed, err := NewSpecialized(reg, 7, Speed, 0, 100, DefaultFlags)
	require.NoError(t, err)
	slow, err := NewSpecialized(reg, 7, Slowness, 2, 100, DefaultFlags)
	require.NoError(t, err)
	c.AddSpecialized(speed)
	c.AddSpecialized(slow)
	c.ActivateSpecialized(target, 0)

	attr, _ := target.attrs.Get(attribute.MovementSpeed)
	require.Len(t, attr.Modifiers, 2)

	m, ok := attr.Modifier(SlownessModifierID)
	require.True(t, ok)
	assert.Equal(t, attribute.OpAddPercent, m.Operation)
	assert.InDelta(t, -0.45, m.Amount, 1e-12)
}

func TestSpeedHandler_NoAttributes(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()
	c := NewCollection(7)
	s, err := NewSpecialized(reg, 7, Speed, 0, 100, DefaultFlags)
	require.NoError(t, err)
	c.AddSpecialized(s)

	started := c.ActivateSpecialized(&testTarget{}, 0)
	assert.Len(t, started, 1, "activation still broadcasts without an attribute set")
}
