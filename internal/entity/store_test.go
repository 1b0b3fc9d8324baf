package entity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/effectsync/internal/attribute"
	"github.com/udisondev/effectsync/internal/effect"
	"github.com/udisondev/effectsync/internal/world"
)

func ids(es []*Entity) []int32 {
	out := make([]int32, 0, len(es))
	for _, e := range es {
		out = append(out, e.ID())
	}
	return out
}

func TestStore_SpawnGetRemove(t *testing.T) {
	t.Parallel()

	s := NewStore()
	e, err := s.Spawn(5, world.Position{X: 1, Y: 2, Z: 3})
	require.NoError(t, err)
	assert.Equal(t, int32(5), e.ID())
	assert.Equal(t, world.Position{X: 1, Y: 2, Z: 3}, e.Position())

	_, err = s.Spawn(5, world.Position{})
	assert.ErrorIs(t, err, ErrEntityExists)

	got, ok := s.Get(5)
	require.True(t, ok)
	assert.Same(t, e, got)
	assert.Equal(t, 1, s.Len())

	removed, ok := s.Remove(5)
	require.True(t, ok)
	assert.Same(t, e, removed)
	_, ok = s.Remove(5)
	assert.False(t, ok)
	_, ok = s.Get(5)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestStore_SnapshotSorted(t *testing.T) {
	t.Parallel()

	s := NewStore()
	for _, id := range []int32{30, 10, 20} {
		_, err := s.Spawn(id, world.Position{})
		require.NoError(t, err)
	}
	assert.Equal(t, []int32{10, 20, 30}, ids(s.Snapshot()))

	_, err := s.Spawn(15, world.Position{})
	require.NoError(t, err)
	assert.Equal(t, []int32{10, 15, 20, 30}, ids(s.Snapshot()))

	s.Remove(20)
	assert.Equal(t, []int32{10, 15, 30}, ids(s.Snapshot()))
}

func TestStore_DirtyIndex(t *testing.T) {
	t.Parallel()

	s := NewStore()
	a, err := s.Spawn(2, world.Position{})
	require.NoError(t, err)
	_, err = s.SpawnWith(1, world.Position{}, attribute.NewSet())
	require.NoError(t, err)

	// default set starts dirty, empty set starts clean
	assert.Equal(t, []int32{2}, ids(s.DrainDirty()))
	assert.Empty(t, s.DrainDirty())

	_, ok := a.Attributes().TakeDirty()
	require.True(t, ok)

	a.Attributes().SetBase(attribute.MaxHealth, 40)
	b, _ := s.Get(1)
	b.Attributes().Put("custom", attribute.New(1))
	assert.Equal(t, 2, s.DirtyLen())
	assert.Equal(t, []int32{1, 2}, ids(s.DrainDirty()))
}

func TestStore_PendingIndex(t *testing.T) {
	t.Parallel()

	s := NewStore()
	reg := effect.DefaultRegistry()
	e, err := s.Spawn(9, world.Position{})
	require.NoError(t, err)

	_, ok := e.EffectsIfAny()
	assert.False(t, ok, "collection is created on demand")
	assert.Empty(t, s.DrainPending())

	require.NoError(t, e.AddEffect(reg, effect.Poison, 0, 100, effect.DefaultFlags))
	require.NoError(t, e.AddSpecializedEffect(reg, effect.Speed, 0, 100, effect.DefaultFlags))
	assert.Equal(t, 1, s.PendingLen())
	assert.Equal(t, []int32{9}, ids(s.DrainPending()))
	assert.Equal(t, 0, s.PendingLen())

	c, ok := e.EffectsIfAny()
	require.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestStore_RemoveClearsIndices(t *testing.T) {
	t.Parallel()

	s := NewStore()
	e, err := s.Spawn(3, world.Position{})
	require.NoError(t, err)
	require.NoError(t, e.AddEffect(effect.DefaultRegistry(), effect.Glowing, 0, 10, 0))

	s.Remove(3)
	assert.Empty(t, s.DrainPending())
	assert.Empty(t, s.DrainDirty())

	e.Attributes().SetBase(attribute.MaxHealth, 1)
	assert.Equal(t, 0, s.DirtyLen(), "removed entity must not re-enter the index")
}

func TestEntity_Apply(t *testing.T) {
	t.Parallel()

	s := NewStore()
	reg := effect.DefaultRegistry()
	e, err := s.Spawn(1, world.Position{})
	require.NoError(t, err)

	require.NoError(t, e.Apply(reg, effect.Speed, 1, 200, effect.DefaultFlags))
	require.NoError(t, e.Apply(reg, effect.Haste, 0, 200, effect.DefaultFlags))

	assert.Len(t, e.Effects().Specialized(), 1)
	assert.Equal(t, 2, e.Effects().Len())

	err = e.AddEffect(reg, effect.Slowness, 0, 10, 0)
	assert.ErrorIs(t, err, effect.ErrUnsupportedEffectKind)
	err = e.AddSpecializedEffect(reg, effect.Haste, 0, 10, 0)
	assert.ErrorIs(t, err, effect.ErrNoHandler)
	assert.Equal(t, 2, e.Effects().Len())

	// a basic record can never shadow the specialized speed record
	err = e.AddEffect(reg, effect.Speed, 3, 10, 0)
	assert.ErrorIs(t, err, effect.ErrUnsupportedEffectKind)
	speed, ok := e.Effects().Get(effect.Speed)
	require.True(t, ok)
	assert.Equal(t, uint8(1), speed.Amplifier)
	assert.Equal(t, 2, e.Effects().Len())
}

func TestEntity_ConcurrentEffects(t *testing.T) {
	t.Parallel()

	s := NewStore()
	e, err := s.Spawn(1, world.Position{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var first *effect.Collection
	var mu sync.Mutex
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := e.Effects()
			mu.Lock()
			defer mu.Unlock()
			if first == nil {
				first = c
			}
			assert.Same(t, first, c)
		}()
	}
	wg.Wait()
}

func TestIDGenerator(t *testing.T) {
	t.Parallel()

	g := NewIDGenerator()
	assert.Equal(t, int32(0x10000001), g.NextPlayerID())
	assert.Equal(t, int32(0x10000002), g.NextPlayerID())
	assert.Equal(t, int32(0x20000001), g.NextMobID())
}
