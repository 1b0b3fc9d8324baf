package world

import (
	"fmt"
	"math"
)

// ChunkShift - shift by N bits for 2^N blocks per chunk (2^4 = 16)
const ChunkShift = 4

// Position is an entity location in block coordinates.
type Position struct {
	X, Y, Z float64
}

// ChunkPos is a chunk column coordinate.
type ChunkPos struct {
	X, Z int32
}

// Chunk returns the chunk column containing p.
// Formula: floor(coord) >> ChunkShift
func (p Position) Chunk() ChunkPos {
	return ChunkPos{
		X: int32(math.Floor(p.X)) >> ChunkShift,
		Z: int32(math.Floor(p.Z)) >> ChunkShift,
	}
}

func (p Position) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", p.X, p.Y, p.Z)
}

// Distance returns the chessboard distance between two chunks.
func (c ChunkPos) Distance(o ChunkPos) int32 {
	dx := c.X - o.X
	if dx < 0 {
		dx = -dx
	}
	dz := c.Z - o.Z
	if dz < 0 {
		dz = -dz
	}
	return max(dx, dz)
}

// Within reports whether o is inside the square of the given radius around c.
func (c ChunkPos) Within(o ChunkPos, radius int32) bool {
	return c.Distance(o) <= radius
}
