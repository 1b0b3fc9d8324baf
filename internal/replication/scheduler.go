// Package replication drives the per-tick synchronization of status effects
// and attributes from the entity store to observers.
package replication

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/effectsync/internal/effect"
	"github.com/udisondev/effectsync/internal/entity"
	"github.com/udisondev/effectsync/internal/protocol/serverpackets"
	"github.com/udisondev/effectsync/internal/world"
)

// Default cadence in ticks.
const (
	DefaultExpireEvery = 5
	DefaultResyncEvery = 600
)

// Phase names a scheduler step. Phases run in declaration order.
type Phase string

const (
	PhaseActivate    Phase = "activate"
	PhaseSpecialized Phase = "specialized"
	PhaseExpire      Phase = "expire"
	PhaseResync      Phase = "resync"
	PhaseAttributes  Phase = "attributes"
	PhaseDespawn     Phase = "despawn"
)

// Broadcaster delivers an encoded packet to every observer near origin,
// except the observer with ID exclude. Returns the number of deliveries.
type Broadcaster interface {
	Broadcast(pkt serverpackets.Packet, origin world.Position, exclude int32) (int, error)
}

// Outbound is a packet queued by a phase, waiting for the flush.
type Outbound struct {
	Packet  serverpackets.Packet
	Origin  world.Position
	Exclude int32
}

// Config controls scheduler cadence and parallelism.
type Config struct {
	// ExpireEvery runs the expiration phase on ticks divisible by it.
	ExpireEvery int64
	// ResyncEvery sends a refresh when the remaining duration is a multiple of it.
	ResyncEvery int64
	// Workers caps the resync fan-out. Zero means GOMAXPROCS.
	Workers int
}

// DefaultConfig returns the standard cadence.
func DefaultConfig() Config {
	return Config{
		ExpireEvery: DefaultExpireEvery,
		ResyncEvery: DefaultResyncEvery,
		Workers:     runtime.GOMAXPROCS(0),
	}
}

func (c Config) normalized() Config {
	if c.ExpireEvery <= 0 {
		c.ExpireEvery = DefaultExpireEvery
	}
	if c.ResyncEvery <= 0 {
		c.ResyncEvery = DefaultResyncEvery
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// Stats are cumulative scheduler counters.
type Stats struct {
	Ticks      int64
	Packets    int64
	Deliveries int64
	Errors     int64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMeter sets the meter used for scheduler metrics.
// The global meter provider is used otherwise.
func WithMeter(m metric.Meter) Option {
	return func(s *Scheduler) { s.meter = m }
}

// Scheduler runs the replication phases once per tick.
//
// Tick must not be called concurrently with itself; the tick loop is the only
// caller. Gameplay code may mutate effects and attributes from other
// goroutines at any time.
type Scheduler struct {
	cfg   Config
	store *entity.Store
	out   Broadcaster
	meter metric.Meter
	m     *metrics

	ticks      atomic.Int64
	packets    atomic.Int64
	deliveries atomic.Int64
	errors     atomic.Int64
}

// NewScheduler creates a scheduler reading store and writing to out.
func NewScheduler(store *entity.Store, out Broadcaster, cfg Config, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		cfg:   cfg.normalized(),
		store: store,
		out:   out,
	}
	for _, opt := range opts {
		opt(s)
	}

	m, err := newMetrics(s.meter)
	if err != nil {
		return nil, fmt.Errorf("replication metrics: %w", err)
	}
	s.m = m
	return s, nil
}

// Config returns the effective configuration.
func (s *Scheduler) Config() Config {
	return s.cfg
}

// Stats returns cumulative counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Ticks:      s.ticks.Load(),
		Packets:    s.packets.Load(),
		Deliveries: s.deliveries.Load(),
		Errors:     s.errors.Load(),
	}
}

// Tick runs every phase for simulation tick now. Each phase is flushed to the
// broadcaster before the next one starts. Broadcast failures are logged and
// counted; only context cancellation stops the tick early.
func (s *Scheduler) Tick(ctx context.Context, now int64) error {
	s.ticks.Add(1)

	s.run(ctx, PhaseActivate, func() []Outbound { return s.activate(now) })
	s.run(ctx, PhaseSpecialized, func() []Outbound { return s.activateSpecialized(now) })

	if now%s.cfg.ExpireEvery == 0 {
		s.run(ctx, PhaseExpire, func() []Outbound { return s.expire(now) })
	}

	var resyncErr error
	s.run(ctx, PhaseResync, func() []Outbound {
		out, err := s.resync(ctx, now)
		resyncErr = err
		return out
	})
	if resyncErr != nil {
		return fmt.Errorf("tick %d: %w", now, resyncErr)
	}

	s.run(ctx, PhaseAttributes, func() []Outbound { return s.syncAttributes() })

	return ctx.Err()
}

// Despawn removes the entity from the store and tells every observer near it,
// except the entity itself, to destroy it. Returns false for unknown IDs.
func (s *Scheduler) Despawn(ctx context.Context, id int32) bool {
	e, ok := s.store.Remove(id)
	if !ok {
		return false
	}
	s.flush(ctx, PhaseDespawn, []Outbound{{
		Packet:  &serverpackets.DestroyEntities{EntityIDs: []int32{id}},
		Origin:  e.Position(),
		Exclude: id,
	}})
	return true
}

func (s *Scheduler) run(ctx context.Context, phase Phase, fn func() []Outbound) {
	start := time.Now()
	batch := fn()
	s.flush(ctx, phase, batch)
	s.m.recordPhase(ctx, phase, time.Since(start))
}

func (s *Scheduler) flush(ctx context.Context, phase Phase, batch []Outbound) {
	for _, o := range batch {
		n, err := s.out.Broadcast(o.Packet, o.Origin, o.Exclude)
		if err != nil {
			s.errors.Add(1)
			s.m.recordError(ctx, phase, o.Packet.ID())
			slog.Warn("broadcast failed",
				"phase", phase,
				"packet", packetName(o.Packet.ID()),
				"error", err)
			continue
		}
		s.packets.Add(1)
		s.deliveries.Add(int64(n))
		s.m.recordPacket(ctx, phase, o.Packet.ID(), n)
	}
}

// activate stamps pending basic effects of entities in the pending index.
func (s *Scheduler) activate(now int64) []Outbound {
	var out []Outbound
	for _, e := range s.store.DrainPending() {
		c, ok := e.EffectsIfAny()
		if !ok {
			continue
		}
		started := c.ActivatePending(now)
		if len(started) == 0 {
			continue
		}
		pos := e.Position()
		for _, a := range started {
			out = append(out, effectPacket(a, int64(a.DurationTicks), pos))
		}
	}
	return out
}

// activateSpecialized runs handler activation and per-tick callbacks.
func (s *Scheduler) activateSpecialized(now int64) []Outbound {
	var out []Outbound
	for _, e := range s.store.Snapshot() {
		c, ok := e.EffectsIfAny()
		if !ok {
			continue
		}
		started := c.ActivateSpecialized(e, now)
		if len(started) == 0 {
			continue
		}
		pos := e.Position()
		for _, a := range started {
			out = append(out, effectPacket(a, int64(a.DurationTicks), pos))
		}
	}
	return out
}

// expire removes expired and retired effects.
func (s *Scheduler) expire(now int64) []Outbound {
	var out []Outbound
	for _, e := range s.store.Snapshot() {
		c, ok := e.EffectsIfAny()
		if !ok {
			continue
		}
		removed := c.RemoveExpired(e, now)
		if len(removed) == 0 {
			continue
		}
		pos := e.Position()
		for _, a := range removed {
			pkt := serverpackets.NewRemoveEntityEffect(a)
			out = append(out, Outbound{Packet: &pkt, Origin: pos, Exclude: world.NoExclude})
		}
	}
	return out
}

// resync refreshes effects whose remaining duration hits the resync cadence.
// Entities are split into contiguous batches; each worker writes only its own
// result slot and results are joined in entity ID order.
func (s *Scheduler) resync(ctx context.Context, now int64) ([]Outbound, error) {
	entities := s.store.Snapshot()
	if len(entities) == 0 {
		return nil, nil
	}

	batchSize := max(1, (len(entities)+s.cfg.Workers*4-1)/(s.cfg.Workers*4))
	results := make([][]Outbound, (len(entities)+batchSize-1)/batchSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for i := range results {
		lo := i * batchSize
		hi := min(lo+batchSize, len(entities))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var batch []Outbound
			for _, e := range entities[lo:hi] {
				batch = s.resyncEntity(batch, e, now)
			}
			results[i] = batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resync: %w", err)
	}

	var out []Outbound
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (s *Scheduler) resyncEntity(out []Outbound, e *entity.Entity, now int64) []Outbound {
	c, ok := e.EffectsIfAny()
	if !ok {
		return out
	}
	var pos world.Position
	havePos := false
	for _, a := range c.Effects() {
		if a.Pending() {
			continue
		}
		remaining := a.Remaining(now)
		if remaining <= 0 || remaining%s.cfg.ResyncEvery != 0 {
			continue
		}
		if !havePos {
			pos = e.Position()
			havePos = true
		}
		out = append(out, effectPacket(a, remaining, pos))
	}
	return out
}

// syncAttributes sends one snapshot per entity whose attribute set is dirty.
func (s *Scheduler) syncAttributes() []Outbound {
	var out []Outbound
	for _, e := range s.store.DrainDirty() {
		entries, ok := e.Attributes().TakeDirty()
		if !ok {
			continue
		}
		pkt := serverpackets.NewEntityProperties(e.ID(), entries)
		out = append(out, Outbound{Packet: &pkt, Origin: e.Position(), Exclude: world.NoExclude})
	}
	return out
}

func effectPacket(a effect.Active, duration int64, pos world.Position) Outbound {
	pkt := serverpackets.NewEntityEffect(a, duration)
	return Outbound{Packet: &pkt, Origin: pos, Exclude: world.NoExclude}
}

func packetName(id int32) string {
	switch id {
	case serverpackets.PacketIDEntityEffect:
		return "entity_effect"
	case serverpackets.PacketIDRemoveEntityEffect:
		return "remove_entity_effect"
	case serverpackets.PacketIDEntityProperties:
		return "entity_properties"
	case serverpackets.PacketIDDestroyEntities:
		return "destroy_entities"
	default:
		return fmt.Sprintf("0x%02X", id)
	}
}
