package world

import (
	"sync"
	"sync/atomic"
)

// Chunk holds the observers currently standing in one chunk column.
// Broadcasts read an immutable snapshot rebuilt lazily after membership changes.
type Chunk struct {
	pos ChunkPos

	observers sync.Map // map[int32]Observer, keyed by observerID → observer

	snapshotCache atomic.Value // []Observer (immutable after rebuild)
	snapshotDirty atomic.Bool
	size          atomic.Int32
}

// NewChunk creates an empty chunk.
func NewChunk(pos ChunkPos) *Chunk {
	return &Chunk{pos: pos}
}

// Pos returns chunk coordinates.
func (c *Chunk) Pos() ChunkPos {
	return c.pos
}

// Len returns the number of observers in the chunk.
func (c *Chunk) Len() int {
	return int(c.size.Load())
}

func (c *Chunk) add(o Observer) {
	if _, loaded := c.observers.Swap(o.ObserverID(), o); !loaded {
		c.size.Add(1)
	}
	c.snapshotDirty.Store(true)
}

func (c *Chunk) remove(id int32) {
	if _, loaded := c.observers.LoadAndDelete(id); loaded {
		c.size.Add(-1)
	}
	c.snapshotDirty.Store(true)
}

// Observers returns a cached snapshot of the chunk's observers.
// IMPORTANT: Returned slice is immutable, DO NOT modify.
func (c *Chunk) Observers() []Observer {
	if !c.snapshotDirty.Load() {
		if cache := c.snapshotCache.Load(); cache != nil {
			return cache.([]Observer)
		}
	}
	return c.rebuildSnapshot()
}

func (c *Chunk) rebuildSnapshot() []Observer {
	// Clear the flag first so a concurrent add re-marks it.
	c.snapshotDirty.Store(false)

	out := make([]Observer, 0, c.Len())
	c.observers.Range(func(_, value any) bool {
		out = append(out, value.(Observer))
		return true
	})
	c.snapshotCache.Store(out)
	return out
}
