package attribute

import (
	"sync"

	"github.com/google/uuid"
)

// Well-known attribute names.
const (
	MaxHealth           = "generic.maxHealth"
	FollowRange         = "generic.followRange"
	KnockbackResistance = "generic.knockbackResistance"
	MovementSpeed       = "generic.movementSpeed"
	AttackDamage        = "generic.attackDamage"
	AttackSpeed         = "generic.attackSpeed"
	FlyingSpeed         = "generic.flyingSpeed"
)

// Entry is a named attribute inside a Set snapshot.
type Entry struct {
	Name      string
	Attribute Attribute
}

// Set is an ordered mapping from attribute name to Attribute with a dirty flag.
// Iteration and encoding order is insertion order.
//
// Every successful mutation marks the set dirty; TakeDirty clears it.
//
// Thread-safe: all methods are protected by sync.Mutex.
type Set struct {
	mu      sync.Mutex
	names   []string
	attrs   map[string]*Attribute
	dirty   bool
	onDirty func()
}

// NewSet creates an empty, clean set.
func NewSet() *Set {
	return &Set{attrs: make(map[string]*Attribute)}
}

// NewDefaultSet creates a set seeded with the seven generic attributes.
// The set starts dirty so the first poll announces it.
func NewDefaultSet() *Set {
	s := NewSet()
	s.Put(MaxHealth, New(20.0))
	s.Put(FollowRange, New(32.0))
	s.Put(KnockbackResistance, New(0.0))
	s.Put(MovementSpeed, New(0.699999988079071))
	s.Put(AttackDamage, New(2.0))
	s.Put(AttackSpeed, New(4.0))
	s.Put(FlyingSpeed, New(0.4000000059604645))
	return s
}

// OnDirty registers fn to be called whenever the set goes from clean to dirty.
// fn runs without the set's lock held. Passing nil removes the hook.
func (s *Set) OnDirty(fn func()) {
	s.mu.Lock()
	s.onDirty = fn
	wasDirty := s.dirty
	s.mu.Unlock()

	if wasDirty && fn != nil {
		fn()
	}
}

// Get returns a copy of the named attribute.
// A missing name is reported through ok, never as an error.
func (s *Set) Get(name string) (Attribute, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attrs[name]
	if !ok {
		return Attribute{}, false
	}
	return a.Clone(), true
}

// Value returns the effective value of the named attribute.
func (s *Set) Value(name string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attrs[name]
	if !ok {
		return 0, false
	}
	return a.Value(), true
}

// Put inserts or replaces the named attribute. A new name goes to the end.
func (s *Set) Put(name string, a Attribute) {
	s.mutate(func() bool {
		if _, ok := s.attrs[name]; !ok {
			s.names = append(s.names, name)
		}
		c := a.Clone()
		s.attrs[name] = &c
		return true
	})
}

// Update calls fn with a mutable view of the named attribute and marks the
// set dirty. fn must not retain the pointer. Returns false if name is unknown.
func (s *Set) Update(name string, fn func(*Attribute)) bool {
	return s.mutate(func() bool {
		a, ok := s.attrs[name]
		if !ok {
			return false
		}
		fn(a)
		return true
	})
}

// SetBase changes the base value of the named attribute.
func (s *Set) SetBase(name string, base float64) bool {
	return s.Update(name, func(a *Attribute) { a.Base = base })
}

// AddModifier appends m to the named attribute without deduplication.
func (s *Set) AddModifier(name string, m Modifier) bool {
	return s.Update(name, func(a *Attribute) { a.AddModifier(m) })
}

// PutModifier replaces the modifier with m.ID or appends m.
func (s *Set) PutModifier(name string, m Modifier) bool {
	return s.Update(name, func(a *Attribute) { a.PutModifier(m) })
}

// RemoveModifier removes modifiers with the given ID from the named attribute.
// Returns false (and leaves the set clean) if nothing was removed.
func (s *Set) RemoveModifier(name string, id uuid.UUID) bool {
	return s.mutate(func() bool {
		a, ok := s.attrs[name]
		if !ok {
			return false
		}
		return a.RemoveModifier(id)
	})
}

// Names returns attribute names in encoding order.
func (s *Set) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of attributes.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names)
}

// Entries returns a deep copy of the set in encoding order.
func (s *Set) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entriesLocked()
}

// Dirty reports whether the set has unsent mutations.
func (s *Set) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// TakeDirty returns a snapshot and clears the dirty flag if the set is dirty.
// Returns false and no snapshot if the set is clean.
func (s *Set) TakeDirty() ([]Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil, false
	}
	s.dirty = false
	return s.entriesLocked(), true
}

// mutate runs fn under the lock and marks the set dirty if fn reports a change.
func (s *Set) mutate(fn func() bool) bool {
	s.mu.Lock()
	changed := fn()
	notify := changed && !s.dirty
	if changed {
		s.dirty = true
	}
	hook := s.onDirty
	s.mu.Unlock()

	if notify && hook != nil {
		hook()
	}
	return changed
}

func (s *Set) entriesLocked() []Entry {
	out := make([]Entry, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, Entry{Name: name, Attribute: s.attrs[name].Clone()})
	}
	return out
}

// FromEntries builds a clean set from decoded entries, preserving their order.
// Later duplicates replace earlier values but keep the first position.
func FromEntries(entries []Entry) *Set {
	s := NewSet()
	for _, e := range entries {
		if _, ok := s.attrs[e.Name]; !ok {
			s.names = append(s.names, e.Name)
		}
		c := e.Attribute.Clone()
		s.attrs[e.Name] = &c
	}
	return s
}
