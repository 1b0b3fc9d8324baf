package effect

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/udisondev/effectsync/internal/attribute"
)

// Fixed modifier IDs. Every instance of the effect shares the ID, so applying
// it twice replaces the modifier instead of stacking it.
var (
	SpeedModifierID    = uuid.MustParse("91aeaa56-376b-4498-935b-2f7f68070635")
	SlownessModifierID = uuid.MustParse("7107de5e-7ce8-4030-940e-514c1f160890")
)

const (
	SpeedAmountPerLevel    = 0.2
	SlownessAmountPerLevel = -0.15
)

// MovementSpeedHandler puts a modifier on generic.movementSpeed while the
// effect is active. Speed multiplies by 0.2 per level; slowness takes 15% per
// level off through AddPercent.
type MovementSpeedHandler struct {
	id       uuid.UUID
	perLevel float64
	op       attribute.Operation
}

// NewMovementSpeedHandler creates a handler using the given fixed modifier ID.
func NewMovementSpeedHandler(id uuid.UUID, perLevel float64, op attribute.Operation) *MovementSpeedHandler {
	return &MovementSpeedHandler{id: id, perLevel: perLevel, op: op}
}

// Modifier returns the modifier applied for e.
func (h *MovementSpeedHandler) Modifier(e *Specialized) attribute.Modifier {
	return attribute.Modifier{
		ID:        h.id,
		Amount:    h.perLevel * float64(e.Level()),
		Operation: h.op,
	}
}

func (h *MovementSpeedHandler) OnActivate(t Target, e *Specialized) {
	attrs := t.Attributes()
	if attrs == nil {
		slog.Debug("speed modifier skipped, entity has no attributes", "entity", e.EntityID, "kind", e.Kind)
		return
	}
	if !attrs.PutModifier(attribute.MovementSpeed, h.Modifier(e)) {
		slog.Debug("speed modifier skipped, no movement speed attribute", "entity", e.EntityID, "kind", e.Kind)
		return
	}
	slog.Debug("speed modifier applied", "entity", e.EntityID, "kind", e.Kind, "level", e.Level())
}

func (h *MovementSpeedHandler) OnTick(Target, *Specialized, int64) {}

func (h *MovementSpeedHandler) OnExpire(t Target, e *Specialized) {
	attrs := t.Attributes()
	if attrs == nil {
		return
	}
	if attrs.RemoveModifier(attribute.MovementSpeed, h.id) {
		slog.Debug("speed modifier removed", "entity", e.EntityID, "kind", e.Kind)
	}
}
