package effect

import (
	"log/slog"
	"sync"
)

// Collection tracks the status effects of a single entity.
// At most one record exists per kind; re-applying a kind replaces the record
// in place.
//
// Thread-safe: all methods are protected by sync.RWMutex. Handler callbacks
// run with the lock held and must not call back into the collection.
type Collection struct {
	mu          sync.RWMutex
	entityID    int32
	effects     []*Active
	specialized []*Specialized

	// effects removed by gameplay code, waiting for a remove packet
	retired []retired

	pending   int
	onPending func()
}

type retired struct {
	effect      Active
	specialized *Specialized
}

// NewCollection creates an empty collection for entityID.
func NewCollection(entityID int32) *Collection {
	return &Collection{
		entityID:    entityID,
		effects:     make([]*Active, 0, 4),
		specialized: make([]*Specialized, 0, 2),
	}
}

// EntityID returns the owning entity.
func (c *Collection) EntityID() int32 {
	return c.entityID
}

// OnPending registers fn, called (without the lock) whenever a pending effect
// is added. Used by the entity store to index entities that need activation.
func (c *Collection) OnPending(fn func()) {
	c.mu.Lock()
	c.onPending = fn
	pending := c.pending > 0
	c.mu.Unlock()

	if pending && fn != nil {
		fn()
	}
}

// Add inserts a basic effect, replacing an existing record of the same kind.
// A record of that kind still waiting for its remove packet is dropped: the
// newcomer's start packet supersedes it on the client.
// Returns true if a record was replaced.
func (c *Collection) Add(e *Active) bool {
	c.mu.Lock()
	c.dropRetiredLocked(e.Kind)
	replaced := false
	for i, existing := range c.effects {
		if existing.Kind == e.Kind {
			if existing.Pending() {
				c.pending--
			}
			c.effects[i] = e
			replaced = true
			break
		}
	}
	if !replaced {
		c.effects = append(c.effects, e)
	}
	hook := c.trackPendingLocked(e.Pending())
	c.mu.Unlock()

	if hook != nil {
		hook()
	}
	return replaced
}

// AddSpecialized inserts a specialized effect, replacing an existing record of
// the same kind. Neither the replaced record nor a removed one still waiting
// for its remove packet gets OnExpire: handlers key their side effects on
// fixed identities, so the newcomer takes them over.
func (c *Collection) AddSpecialized(s *Specialized) bool {
	c.mu.Lock()
	c.dropRetiredLocked(s.Kind)
	replaced := false
	for i, existing := range c.specialized {
		if existing.Kind == s.Kind {
			if !existing.Activated {
				c.pending--
			}
			c.specialized[i] = s
			replaced = true
			break
		}
	}
	if !replaced {
		c.specialized = append(c.specialized, s)
	}
	hook := c.trackPendingLocked(!s.Activated)
	c.mu.Unlock()

	if hook != nil {
		hook()
	}
	return replaced
}

func (c *Collection) dropRetiredLocked(kind Kind) {
	n := 0
	for _, r := range c.retired {
		if r.effect.Kind == kind {
			continue
		}
		c.retired[n] = r
		n++
	}
	clear(c.retired[n:])
	c.retired = c.retired[:n]
}

func (c *Collection) trackPendingLocked(pending bool) func() {
	if !pending {
		return nil
	}
	c.pending++
	return c.onPending
}

// Remove drops the effect of the given kind ahead of its expiry.
// Effects that were already announced are queued so the next expiration pass
// can send their remove packet. Returns false if no such effect exists.
func (c *Collection) Remove(kind Kind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.effects {
		if e.Kind != kind {
			continue
		}
		c.effects = append(c.effects[:i], c.effects[i+1:]...)
		if e.Pending() {
			c.pending--
		} else {
			c.retired = append(c.retired, retired{effect: *e})
		}
		return true
	}

	for i, s := range c.specialized {
		if s.Kind != kind {
			continue
		}
		c.specialized = append(c.specialized[:i], c.specialized[i+1:]...)
		if !s.Activated {
			c.pending--
		} else {
			c.retired = append(c.retired, retired{effect: s.Active, specialized: s})
		}
		return true
	}
	return false
}

// Get returns a copy of the effect of the given kind.
func (c *Collection) Get(kind Kind) (Active, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.effects {
		if e.Kind == kind {
			return *e, true
		}
	}
	for _, s := range c.specialized {
		if s.Kind == kind {
			return s.Active, true
		}
	}
	return Active{}, false
}

// Has reports whether an effect of the given kind is present.
func (c *Collection) Has(kind Kind) bool {
	_, ok := c.Get(kind)
	return ok
}

// Effects returns copies of all records, basic first, in insertion order.
func (c *Collection) Effects() []Active {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Active, 0, len(c.effects)+len(c.specialized))
	for _, e := range c.effects {
		out = append(out, *e)
	}
	for _, s := range c.specialized {
		out = append(out, s.Active)
	}
	return out
}

// Specialized returns copies of the specialized records.
func (c *Collection) Specialized() []Specialized {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Specialized, 0, len(c.specialized))
	for _, s := range c.specialized {
		out = append(out, *s)
	}
	return out
}

// Len returns the number of records.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.effects) + len(c.specialized)
}

// HasPending reports in O(1) whether any record waits for activation.
func (c *Collection) HasPending() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pending > 0
}

// ActivatePending stamps every pending basic effect with now and returns
// copies of the stamped records.
func (c *Collection) ActivatePending(now int64) []Active {
	c.mu.Lock()
	defer c.mu.Unlock()

	var started []Active
	for _, e := range c.effects {
		if e.Activate(now) {
			c.pending--
			started = append(started, *e)
		}
	}
	return started
}

// ActivateSpecialized runs OnActivate for specialized records that have not
// been activated yet and OnTick for the rest. Returns copies of the records
// activated on this call.
func (c *Collection) ActivateSpecialized(t Target, now int64) []Active {
	c.mu.Lock()
	defer c.mu.Unlock()

	var started []Active
	for _, s := range c.specialized {
		if s.activate(t, now) {
			c.pending--
			started = append(started, s.Active)
			continue
		}
		if !s.Expired(now) {
			s.handler.OnTick(t, s, now)
		}
	}
	return started
}

// RemoveExpired removes every record with StartTick + DurationTicks <= now,
// plus records retired through Remove, and returns copies of them. Each record
// is reported exactly once. Specialized records get OnExpire first.
func (c *Collection) RemoveExpired(t Target, now int64) []Active {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed []Active
	for _, r := range c.retired {
		if r.specialized != nil {
			r.specialized.handler.OnExpire(t, r.specialized)
		}
		removed = append(removed, r.effect)
	}
	c.retired = c.retired[:0]

	n := 0
	for _, e := range c.effects {
		if e.Expired(now) {
			removed = append(removed, *e)
			continue
		}
		c.effects[n] = e
		n++
	}
	clear(c.effects[n:])
	c.effects = c.effects[:n]

	n = 0
	for _, s := range c.specialized {
		if s.Expired(now) {
			s.handler.OnExpire(t, s)
			removed = append(removed, s.Active)
			continue
		}
		c.specialized[n] = s
		n++
	}
	clear(c.specialized[n:])
	c.specialized = c.specialized[:n]

	if len(removed) > 0 {
		slog.Debug("effects expired", "entity", c.entityID, "count", len(removed), "tick", now)
	}
	return removed
}
