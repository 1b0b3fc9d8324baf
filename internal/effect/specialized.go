package effect

import "fmt"

// Specialized is an effect whose activation does more than broadcasting,
// e.g. injecting an attribute modifier once.
type Specialized struct {
	Active

	// Activated is set once the handler's OnActivate has run.
	Activated bool

	handler Handler
}

// NewSpecialized creates a pending specialized effect bound to the kind's handler.
func NewSpecialized(r *Registry, entityID int32, kind Kind, amplifier uint8, durationTicks uint64, flags Flags) (*Specialized, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKind, kind)
	}
	h, ok := r.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, kind)
	}
	return &Specialized{
		Active:  *newActive(entityID, kind, amplifier, durationTicks, flags),
		handler: h,
	}, nil
}

// Handler returns the bound handler.
func (s *Specialized) Handler() Handler {
	return s.handler
}

// activate runs OnActivate once and stamps the start tick.
// Returns false if the effect was already activated.
func (s *Specialized) activate(t Target, now int64) bool {
	if s.Activated {
		return false
	}
	s.handler.OnActivate(t, s)
	s.Activated = true
	s.Activate(now)
	return true
}
