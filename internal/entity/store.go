package entity

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/udisondev/effectsync/internal/attribute"
	"github.com/udisondev/effectsync/internal/world"
)

// ErrEntityExists is returned by Spawn for a duplicate ID.
var ErrEntityExists = errors.New("entity already exists")

// Store owns every live entity.
//
// Besides the ID map it keeps two work indices fed by entity hooks: entities
// with effects waiting for activation, and entities with a dirty attribute
// set. The scheduler drains both each tick, so per-tick cost follows the
// amount of work rather than the number of entities.
//
// Thread-safe: entity map uses RWMutex, indices use their own mutex.
type Store struct {
	mu       sync.RWMutex
	entities map[int32]*Entity

	snapshotCache atomic.Pointer[[]*Entity] // sorted by ID, immutable
	snapshotDirty atomic.Bool

	indexMu sync.Mutex
	pending map[int32]struct{}
	dirty   map[int32]struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	s := &Store{
		entities: make(map[int32]*Entity),
		pending:  make(map[int32]struct{}),
		dirty:    make(map[int32]struct{}),
	}
	s.snapshotDirty.Store(true)
	return s
}

// Spawn creates an entity with the default attribute set.
func (s *Store) Spawn(id int32, pos world.Position) (*Entity, error) {
	return s.SpawnWith(id, pos, attribute.NewDefaultSet())
}

// SpawnWith creates an entity with the given attribute set.
// The set's dirty state is indexed immediately.
func (s *Store) SpawnWith(id int32, pos world.Position, attrs *attribute.Set) (*Entity, error) {
	e := newEntity(id, pos, attrs)
	e.onPending = func() { s.markPending(id) }

	s.mu.Lock()
	if _, ok := s.entities[id]; ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("spawn %d: %w", id, ErrEntityExists)
	}
	s.entities[id] = e
	s.mu.Unlock()
	s.snapshotDirty.Store(true)

	attrs.OnDirty(func() { s.markDirty(id) })
	return e, nil
}

// Get returns the entity with the given ID.
func (s *Store) Get(id int32) (*Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[id]
	return e, ok
}

// Remove drops the entity and its index entries.
func (s *Store) Remove(id int32) (*Entity, bool) {
	s.mu.Lock()
	e, ok := s.entities[id]
	if ok {
		delete(s.entities, id)
	}
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	s.snapshotDirty.Store(true)

	e.attrs.OnDirty(nil)
	s.indexMu.Lock()
	delete(s.pending, id)
	delete(s.dirty, id)
	s.indexMu.Unlock()
	return e, true
}

// Len returns the number of live entities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// Snapshot returns all live entities sorted by ID.
// IMPORTANT: Returned slice is immutable, DO NOT modify.
func (s *Store) Snapshot() []*Entity {
	if !s.snapshotDirty.Load() {
		if cache := s.snapshotCache.Load(); cache != nil {
			return *cache
		}
	}

	s.snapshotDirty.Store(false)
	s.mu.RLock()
	out := make([]*Entity, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, e)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, byID)
	s.snapshotCache.Store(&out)
	return out
}

// DrainPending returns entities with effects waiting for activation, sorted
// by ID, and clears the index.
func (s *Store) DrainPending() []*Entity {
	return s.drain(&s.pending)
}

// DrainDirty returns entities whose attribute set changed since the last
// drain, sorted by ID, and clears the index.
func (s *Store) DrainDirty() []*Entity {
	return s.drain(&s.dirty)
}

// PendingLen returns the size of the activation index.
func (s *Store) PendingLen() int {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	return len(s.pending)
}

// DirtyLen returns the size of the attribute index.
func (s *Store) DirtyLen() int {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	return len(s.dirty)
}

func (s *Store) drain(index *map[int32]struct{}) []*Entity {
	s.indexMu.Lock()
	ids := *index
	if len(ids) == 0 {
		s.indexMu.Unlock()
		return nil
	}
	*index = make(map[int32]struct{}, len(ids))
	s.indexMu.Unlock()

	out := make([]*Entity, 0, len(ids))
	s.mu.RLock()
	for id := range ids {
		if e, ok := s.entities[id]; ok {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, byID)
	return out
}

func (s *Store) markPending(id int32) {
	s.indexMu.Lock()
	s.pending[id] = struct{}{}
	s.indexMu.Unlock()
}

func (s *Store) markDirty(id int32) {
	s.indexMu.Lock()
	s.dirty[id] = struct{}{}
	s.indexMu.Unlock()
}

func byID(a, b *Entity) int {
	return cmp.Compare(a.id, b.id)
}
