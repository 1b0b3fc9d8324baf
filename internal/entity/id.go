package entity

import "sync/atomic"

// IDGenerator hands out entity IDs.
//
// ID ranges (convention):
//
//	0x00000000 - 0x0FFFFFFF: Reserved (0 = invalid)
//	0x10000000 - 0x1FFFFFFF: Players
//	0x20000000 - 0x2FFFFFFF: Mobs and other non-player entities
type IDGenerator struct {
	nextPlayerID atomic.Int32
	nextMobID    atomic.Int32
}

// NewIDGenerator creates a new ID generator.
func NewIDGenerator() *IDGenerator {
	g := &IDGenerator{}
	g.nextPlayerID.Store(0x10000000)
	g.nextMobID.Store(0x20000000)
	return g
}

// NextPlayerID returns the next player ID.
func (g *IDGenerator) NextPlayerID() int32 {
	return g.nextPlayerID.Add(1)
}

// NextMobID returns the next non-player entity ID.
func (g *IDGenerator) NextMobID() int32 {
	return g.nextMobID.Add(1)
}
