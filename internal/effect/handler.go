package effect

import (
	"errors"
	"fmt"

	"github.com/udisondev/effectsync/internal/attribute"
)

var (
	// ErrUnsupportedEffectKind is returned when a basic effect is requested
	// for a kind that needs a Handler.
	ErrUnsupportedEffectKind = errors.New("unsupported effect kind")

	// ErrNoHandler is returned when a specialized effect is requested for a
	// kind that has no Handler registered.
	ErrNoHandler = errors.New("no handler registered for effect kind")

	// ErrInvalidKind is returned for kinds outside the catalog.
	ErrInvalidKind = errors.New("invalid effect kind")
)

// Target is the entity state a Handler may mutate.
type Target interface {
	Attributes() *attribute.Set
}

// Handler implements the side effects of a specialized effect kind.
// Callbacks run on the scheduler goroutine, one entity at a time.
type Handler interface {
	// OnActivate runs exactly once, on the tick the effect is first observed.
	OnActivate(t Target, e *Specialized)
	// OnTick runs on every later tick while the effect is active.
	OnTick(t Target, e *Specialized, now int64)
	// OnExpire runs once when the effect is removed on expiry.
	OnExpire(t Target, e *Specialized)
}

// Registry maps effect kinds to their Handler.
// Built once during startup; read-only afterwards.
type Registry struct {
	handlers [kindCount]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry returns a registry with every built-in handler registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Speed, NewMovementSpeedHandler(SpeedModifierID, SpeedAmountPerLevel, attribute.OpMultiply))
	r.Register(Slowness, NewMovementSpeedHandler(SlownessModifierID, SlownessAmountPerLevel, attribute.OpAddPercent))
	return r
}

// Register binds h to kind, replacing any previous handler.
// Panics on an invalid kind or nil handler: registration is startup code.
func (r *Registry) Register(kind Kind, h Handler) {
	if !kind.Valid() {
		panic(fmt.Sprintf("effect: register %v: invalid kind", kind))
	}
	if h == nil {
		panic(fmt.Sprintf("effect: register %v: nil handler", kind))
	}
	r.handlers[kind] = h
}

// Lookup returns the handler registered for kind.
func (r *Registry) Lookup(kind Kind) (Handler, bool) {
	if r == nil || !kind.Valid() {
		return nil, false
	}
	h := r.handlers[kind]
	return h, h != nil
}

// RequiresHandler reports whether kind must be created via NewSpecialized.
func (r *Registry) RequiresHandler(kind Kind) bool {
	_, ok := r.Lookup(kind)
	return ok
}

// NewBasic creates a pending basic effect.
// Kinds with a registered Handler are rejected with ErrUnsupportedEffectKind;
// nothing is created or mutated in that case.
func NewBasic(r *Registry, entityID int32, kind Kind, amplifier uint8, durationTicks uint64, flags Flags) (*Active, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKind, kind)
	}
	if r.RequiresHandler(kind) {
		return nil, fmt.Errorf("%w: %s needs specialized handling", ErrUnsupportedEffectKind, kind)
	}
	return newActive(entityID, kind, amplifier, durationTicks, flags), nil
}
