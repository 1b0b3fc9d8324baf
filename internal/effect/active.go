package effect

// PendingTick marks an effect that the scheduler has not activated yet.
const PendingTick int64 = -1

// Flags is the effect display bitmask sent on the wire.
type Flags uint8

const (
	FlagAmbient       Flags = 0x01
	FlagShowParticles Flags = 0x02
	FlagShowIcon      Flags = 0x04

	// DefaultFlags is what most granted effects use.
	DefaultFlags = FlagShowParticles | FlagShowIcon
)

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// Active is one applied status effect on one entity.
//
// Lifecycle: created pending (StartTick == PendingTick), stamped by the
// scheduler on the first tick it is observed, removed once
// StartTick + DurationTicks <= now. Once started it never goes back to
// pending; re-application replaces the record instead of extending it.
type Active struct {
	EntityID      int32
	Kind          Kind
	Amplifier     uint8 // zero-based; Level() is Amplifier+1
	StartTick     int64
	DurationTicks uint64
	Flags         Flags
}

// newActive creates a pending effect record.
// Callers outside this package should use NewBasic, which rejects kinds that
// need a Handler.
func newActive(entityID int32, kind Kind, amplifier uint8, durationTicks uint64, flags Flags) *Active {
	return &Active{
		EntityID:      entityID,
		Kind:          kind,
		Amplifier:     amplifier,
		StartTick:     PendingTick,
		DurationTicks: durationTicks,
		Flags:         flags,
	}
}

// Pending reports whether the effect is waiting for activation.
func (e *Active) Pending() bool {
	return e.StartTick < 0
}

// Activate stamps StartTick with now. Returns false if already active.
func (e *Active) Activate(now int64) bool {
	if !e.Pending() {
		return false
	}
	e.StartTick = now
	return true
}

// Level returns the one-based effect level.
func (e *Active) Level() int {
	return int(e.Amplifier) + 1
}

// EndTick returns the tick at which the effect expires.
// Only meaningful for active effects.
func (e *Active) EndTick() int64 {
	return e.StartTick + int64(e.DurationTicks)
}

// Remaining returns the ticks left at now. Pending effects report their full duration.
func (e *Active) Remaining(now int64) int64 {
	if e.Pending() {
		return int64(e.DurationTicks)
	}
	return e.EndTick() - now
}

// Expired reports whether an active effect has run out at now.
// Pending effects never expire.
func (e *Active) Expired(now int64) bool {
	return !e.Pending() && e.EndTick() <= now
}
