package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"

	"github.com/udisondev/effectsync/internal/attribute"
	"github.com/udisondev/effectsync/internal/config"
	"github.com/udisondev/effectsync/internal/effect"
	"github.com/udisondev/effectsync/internal/entity"
	"github.com/udisondev/effectsync/internal/protocol"
	"github.com/udisondev/effectsync/internal/replication"
	"github.com/udisondev/effectsync/internal/world"
)

// benchArea is the side of the square the bench spreads entities over, in blocks.
const benchArea = 1024

var benchDurations = []uint64{100, 600, 1200, 1800, 3600}

// byteCounter is an io.Writer that only counts.
type byteCounter struct {
	n atomic.Int64
}

func (c *byteCounter) Write(p []byte) (int, error) {
	c.n.Add(int64(len(p)))
	return len(p), nil
}

// benchObserver frames packets the way a client connection would and counts
// the bytes that would have hit the wire.
type benchObserver struct {
	id      int32
	framer  *protocol.Framer
	packets atomic.Int64
	wire    byteCounter
}

func (o *benchObserver) ObserverID() int32 { return o.id }

func (o *benchObserver) Send(data []byte) error {
	if err := o.framer.WriteFrame(&o.wire, data); err != nil {
		return err
	}
	o.packets.Add(1)
	return nil
}

// bench drives a synthetic gameplay load: it grants effects, touches
// attributes, moves and respawns entities every tick.
type bench struct {
	cfg         config.Bench
	store       *entity.Store
	broadcaster *world.ChunkBroadcaster
	sched       *replication.Scheduler
	reg         *effect.Registry
	ids         *entity.IDGenerator
	framer      *protocol.Framer
	rng         *rand.Rand

	live      []int32
	observers []*benchObserver

	granted   atomic.Int64
	despawned atomic.Int64
}

func newBench(cfg config.Bench, framer *protocol.Framer, store *entity.Store, b *world.ChunkBroadcaster, sched *replication.Scheduler, reg *effect.Registry) *bench {
	seed := uint64(cfg.Seed)
	return &bench{
		cfg:         cfg,
		store:       store,
		broadcaster: b,
		sched:       sched,
		reg:         reg,
		ids:         entity.NewIDGenerator(),
		framer:      framer,
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (b *bench) randomPosition() world.Position {
	return world.Position{
		X: b.rng.Float64()*benchArea - benchArea/2,
		Y: 64,
		Z: b.rng.Float64()*benchArea - benchArea/2,
	}
}

// populate spawns the initial entities and observers.
func (b *bench) populate() error {
	for range b.cfg.Observers {
		id := b.ids.NextPlayerID()
		o := &benchObserver{id: id, framer: b.framer}
		pos := b.randomPosition()
		if _, err := b.store.Spawn(id, pos); err != nil {
			return fmt.Errorf("spawning player: %w", err)
		}
		b.broadcaster.Add(o, pos)
		b.observers = append(b.observers, o)
		b.live = append(b.live, id)
	}
	for range b.cfg.Entities {
		if err := b.spawnMob(); err != nil {
			return err
		}
	}
	return nil
}

func (b *bench) spawnMob() error {
	id := b.ids.NextMobID()
	if _, err := b.store.Spawn(id, b.randomPosition()); err != nil {
		return fmt.Errorf("spawning mob: %w", err)
	}
	b.live = append(b.live, id)
	return nil
}

// step runs before the scheduler on every tick.
func (b *bench) step(ctx context.Context, now int64) error {
	if len(b.live) == 0 {
		return nil
	}

	for range b.cfg.EffectsPerTick {
		e, ok := b.store.Get(b.live[b.rng.IntN(len(b.live))])
		if !ok {
			continue
		}
		kind := effect.Kind(b.rng.IntN(effect.KindCount))
		amp := uint8(b.rng.IntN(3))
		dur := benchDurations[b.rng.IntN(len(benchDurations))]
		if err := e.Apply(b.reg, kind, amp, dur, effect.DefaultFlags); err != nil {
			if errors.Is(err, effect.ErrUnsupportedEffectKind) || errors.Is(err, effect.ErrNoHandler) {
				slog.Debug("bench grant rejected", "entity", e.ID(), "kind", kind, "error", err)
				continue
			}
			return fmt.Errorf("granting %s: %w", kind, err)
		}
		b.granted.Add(1)
	}

	// Every second: wiggle an attribute and move someone.
	if now%20 == 0 {
		e, ok := b.store.Get(b.live[b.rng.IntN(len(b.live))])
		if ok {
			e.Attributes().SetBase(attribute.MaxHealth, float64(10+b.rng.IntN(30)))
			pos := b.randomPosition()
			e.SetPosition(pos)
			b.broadcaster.Move(e.ID(), pos)
		}
	}

	// Every ten seconds: replace a mob.
	if now%200 == 0 && len(b.live) > len(b.observers) {
		i := len(b.observers) + b.rng.IntN(len(b.live)-len(b.observers))
		id := b.live[i]
		b.live[i] = b.live[len(b.live)-1]
		b.live = b.live[:len(b.live)-1]
		if b.sched.Despawn(ctx, id) {
			b.despawned.Add(1)
		}
		if err := b.spawnMob(); err != nil {
			return err
		}
	}
	return nil
}

func (b *bench) bytesDelivered() int64 {
	var n int64
	for _, o := range b.observers {
		n += o.wire.n.Load()
	}
	return n
}
