package attribute

import (
	"slices"

	"github.com/google/uuid"
)

// Attribute is a named numeric value: a base plus an ordered modifier list.
// The zero value is an attribute with base 0 and no modifiers.
type Attribute struct {
	Base      float64
	Modifiers []Modifier
}

// New creates an attribute with the given base value.
func New(base float64) Attribute {
	return Attribute{Base: base}
}

// Value returns the effective value of the attribute.
func (a *Attribute) Value() float64 {
	return Compute(a.Base, a.Modifiers)
}

// Compute applies modifiers to base in three phases regardless of list order:
// all Add modifiers, then AddPercent on the running sum, then Multiply.
//
//	(base + Σadd) * (1 + Σaddpercent) * Πmultiply
func Compute(base float64, mods []Modifier) float64 {
	sum := base
	for _, m := range mods {
		if m.Operation == OpAdd {
			sum += m.Amount
		}
	}

	percent := 1.0
	for _, m := range mods {
		if m.Operation == OpAddPercent {
			percent += m.Amount
		}
	}
	value := sum * percent

	for _, m := range mods {
		if m.Operation == OpMultiply {
			value *= m.Amount
		}
	}
	return value
}

// AddModifier appends m. It does not deduplicate by ID; use PutModifier
// when the same modifier may be applied more than once.
func (a *Attribute) AddModifier(m Modifier) {
	a.Modifiers = append(a.Modifiers, m)
}

// PutModifier replaces the modifier with the same ID in place, or appends m.
// Returns true if an existing modifier was replaced.
func (a *Attribute) PutModifier(m Modifier) bool {
	if i := a.indexOf(m.ID); i >= 0 {
		a.Modifiers[i] = m
		return true
	}
	a.Modifiers = append(a.Modifiers, m)
	return false
}

// RemoveModifier removes every modifier with the given ID.
// Returns true if anything was removed.
func (a *Attribute) RemoveModifier(id uuid.UUID) bool {
	n := len(a.Modifiers)
	a.Modifiers = slices.DeleteFunc(a.Modifiers, func(m Modifier) bool {
		return m.ID == id
	})
	return len(a.Modifiers) != n
}

// Modifier returns the first modifier with the given ID.
func (a *Attribute) Modifier(id uuid.UUID) (Modifier, bool) {
	if i := a.indexOf(id); i >= 0 {
		return a.Modifiers[i], true
	}
	return Modifier{}, false
}

// Clone returns a deep copy; the modifier slice is not shared.
func (a Attribute) Clone() Attribute {
	return Attribute{Base: a.Base, Modifiers: slices.Clone(a.Modifiers)}
}

func (a *Attribute) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(a.Modifiers, func(m Modifier) bool {
		return m.ID == id
	})
}
