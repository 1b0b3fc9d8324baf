package world

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/udisondev/effectsync/internal/protocol/serverpackets"
)

// NoExclude disables the exclude filter of Broadcast.
const NoExclude int32 = math.MinInt32

// DefaultViewDistance is the broadcast radius in chunks.
const DefaultViewDistance = 8

// Observer is a connection that receives encoded packets.
type Observer interface {
	ObserverID() int32
	Send(data []byte) error
}

// ChunkBroadcaster delivers packets to observers whose chunk lies within
// ViewDistance chunks of the packet origin.
//
// Thread-safe: membership changes take the write lock, Broadcast the read lock.
type ChunkBroadcaster struct {
	viewDistance int32

	mu     sync.RWMutex
	chunks map[ChunkPos]*Chunk
	where  map[int32]ChunkPos // observerID → current chunk
}

// NewChunkBroadcaster creates a broadcaster with the given radius in chunks.
// Non-positive radius falls back to DefaultViewDistance.
func NewChunkBroadcaster(viewDistance int) *ChunkBroadcaster {
	if viewDistance <= 0 {
		viewDistance = DefaultViewDistance
	}
	return &ChunkBroadcaster{
		viewDistance: int32(viewDistance),
		chunks:       make(map[ChunkPos]*Chunk),
		where:        make(map[int32]ChunkPos),
	}
}

// ViewDistance returns the broadcast radius in chunks.
func (b *ChunkBroadcaster) ViewDistance() int {
	return int(b.viewDistance)
}

// Add registers o at pos. Adding an existing observer relocates it.
func (b *ChunkBroadcaster) Add(o Observer, pos Position) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := o.ObserverID()
	if old, ok := b.where[id]; ok {
		b.detachLocked(id, old)
	}
	cp := pos.Chunk()
	b.chunkLocked(cp).add(o)
	b.where[id] = cp
}

// Move updates the observer position. Returns false for unknown observers.
func (b *ChunkBroadcaster) Move(id int32, pos Position) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	old, ok := b.where[id]
	if !ok {
		return false
	}
	cp := pos.Chunk()
	if cp == old {
		return true
	}

	var o Observer
	if c := b.chunks[old]; c != nil {
		if v, found := c.observers.Load(id); found {
			o = v.(Observer)
		}
	}
	b.detachLocked(id, old)
	if o != nil {
		b.chunkLocked(cp).add(o)
	}
	b.where[id] = cp
	return true
}

// Remove unregisters the observer. Returns false if it was not registered.
func (b *ChunkBroadcaster) Remove(id int32) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	cp, ok := b.where[id]
	if !ok {
		return false
	}
	b.detachLocked(id, cp)
	delete(b.where, id)
	return true
}

// Len returns the number of registered observers.
func (b *ChunkBroadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.where)
}

// Broadcast encodes pkt once and sends it to every observer in range of
// origin except exclude. Send failures are logged and skipped.
// Returns the number of observers the packet was delivered to.
func (b *ChunkBroadcaster) Broadcast(pkt serverpackets.Packet, origin Position, exclude int32) (int, error) {
	data, err := pkt.Write()
	if err != nil {
		return 0, fmt.Errorf("encoding packet 0x%02X: %w", pkt.ID(), err)
	}

	center := origin.Chunk()
	sent := 0

	b.mu.RLock()
	defer b.mu.RUnlock()

	for x := center.X - b.viewDistance; x <= center.X+b.viewDistance; x++ {
		for z := center.Z - b.viewDistance; z <= center.Z+b.viewDistance; z++ {
			c := b.chunks[ChunkPos{X: x, Z: z}]
			if c == nil {
				continue
			}
			for _, o := range c.Observers() {
				if o.ObserverID() == exclude {
					continue
				}
				if err := o.Send(data); err != nil {
					slog.Warn("failed to send packet to observer",
						"observer", o.ObserverID(),
						"packet", fmt.Sprintf("0x%02X", pkt.ID()),
						"error", err)
					continue
				}
				sent++
			}
		}
	}

	return sent, nil
}

func (b *ChunkBroadcaster) chunkLocked(cp ChunkPos) *Chunk {
	c, ok := b.chunks[cp]
	if !ok {
		c = NewChunk(cp)
		b.chunks[cp] = c
	}
	return c
}

func (b *ChunkBroadcaster) detachLocked(id int32, cp ChunkPos) {
	c, ok := b.chunks[cp]
	if !ok {
		return
	}
	c.remove(id)
	if c.Len() == 0 {
		delete(b.chunks, cp)
	}
}
