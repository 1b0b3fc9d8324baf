// Package entity holds the simulated entities whose effects and attributes
// are replicated, and the store that indexes them for the scheduler.
package entity

import (
	"sync"

	"github.com/udisondev/effectsync/internal/attribute"
	"github.com/udisondev/effectsync/internal/effect"
	"github.com/udisondev/effectsync/internal/world"
)

// Entity is a simulated object with a position, an attribute set and an
// effect collection created on first use.
type Entity struct {
	id int32

	mu      sync.RWMutex
	pos     world.Position
	effects *effect.Collection

	attrs     *attribute.Set
	onPending func()
}

func newEntity(id int32, pos world.Position, attrs *attribute.Set) *Entity {
	return &Entity{id: id, pos: pos, attrs: attrs}
}

// ID returns the entity ID.
func (e *Entity) ID() int32 {
	return e.id
}

// Position returns the current position.
func (e *Entity) Position() world.Position {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pos
}

// SetPosition moves the entity.
func (e *Entity) SetPosition(pos world.Position) {
	e.mu.Lock()
	e.pos = pos
	e.mu.Unlock()
}

// Attributes returns the entity attribute set.
func (e *Entity) Attributes() *attribute.Set {
	return e.attrs
}

// Effects returns the effect collection, creating it on first call.
func (e *Entity) Effects() *effect.Collection {
	e.mu.RLock()
	c := e.effects
	e.mu.RUnlock()
	if c != nil {
		return c
	}

	e.mu.Lock()
	if e.effects == nil {
		c = effect.NewCollection(e.id)
		c.OnPending(e.onPending)
		e.effects = c
	}
	c = e.effects
	e.mu.Unlock()
	return c
}

// EffectsIfAny returns the effect collection without creating it.
func (e *Entity) EffectsIfAny() (*effect.Collection, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.effects, e.effects != nil
}

// AddEffect builds a basic effect through r and adds it to the collection.
// Kinds that need a handler are rejected with effect.ErrUnsupportedEffectKind.
func (e *Entity) AddEffect(r *effect.Registry, kind effect.Kind, amplifier uint8, durationTicks uint64, flags effect.Flags) error {
	a, err := effect.NewBasic(r, e.id, kind, amplifier, durationTicks, flags)
	if err != nil {
		return err
	}
	e.Effects().Add(a)
	return nil
}

// AddSpecializedEffect builds a handler-backed effect through r and adds it.
func (e *Entity) AddSpecializedEffect(r *effect.Registry, kind effect.Kind, amplifier uint8, durationTicks uint64, flags effect.Flags) error {
	s, err := effect.NewSpecialized(r, e.id, kind, amplifier, durationTicks, flags)
	if err != nil {
		return err
	}
	e.Effects().AddSpecialized(s)
	return nil
}

// Apply adds kind through the matching constructor: specialized when r has a
// handler for it, basic otherwise.
func (e *Entity) Apply(r *effect.Registry, kind effect.Kind, amplifier uint8, durationTicks uint64, flags effect.Flags) error {
	if r.RequiresHandler(kind) {
		return e.AddSpecializedEffect(r, kind, amplifier, durationTicks, flags)
	}
	return e.AddEffect(r, kind, amplifier, durationTicks, flags)
}
