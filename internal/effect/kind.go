package effect

import "fmt"

// Kind is a status effect type. The set is closed and its order is part of
// the protocol: WireID is the enum index plus one.
type Kind uint8

const (
	Speed Kind = iota
	Slowness
	Haste
	MiningFatigue
	Strength
	InstantHealth
	InstantDamage
	JumpBoost
	Nausea
	Regeneration
	Resistance
	FireResistance
	WaterBreathing
	Invisibility
	Blindness
	NightVision
	Hunger
	Weakness
	Poison
	Wither
	HealthBoost
	Absorption
	Saturation
	Glowing
	Levitation
	Luck
	BadLuck
	SlowFalling
	ConduitPower
	DolphinsGrace
	BadOmen
	HeroOfTheVillage

	kindCount
)

// KindCount is the number of effect kinds.
const KindCount = int(kindCount)

var identifiers = [kindCount]string{
	Speed:            "speed",
	Slowness:         "slowness",
	Haste:            "haste",
	MiningFatigue:    "mining_fatigue",
	Strength:         "strength",
	InstantHealth:    "instant_health",
	InstantDamage:    "instant_damage",
	JumpBoost:        "jump_boost",
	Nausea:           "nausea",
	Regeneration:     "regeneration",
	Resistance:       "resistance",
	FireResistance:   "fire_resistance",
	WaterBreathing:   "water_breathing",
	Invisibility:     "invisibility",
	Blindness:        "blindness",
	NightVision:      "night_vision",
	Hunger:           "hunger",
	Weakness:         "weakness",
	Poison:           "poison",
	Wither:           "wither",
	HealthBoost:      "health_boost",
	Absorption:       "absorption",
	Saturation:       "saturation",
	Glowing:          "glowing",
	Levitation:       "levitation",
	Luck:             "luck",
	BadLuck:          "unluck",
	SlowFalling:      "slow_falling",
	ConduitPower:     "conduit_power",
	DolphinsGrace:    "dolphins_grace",
	BadOmen:          "bad_omen",
	HeroOfTheVillage: "hero_of_the_village",
}

var byIdentifier = func() map[string]Kind {
	m := make(map[string]Kind, kindCount)
	for k, id := range identifiers {
		m[id] = Kind(k)
	}
	return m
}()

// Kinds returns every kind in protocol order.
func Kinds() []Kind {
	out := make([]Kind, kindCount)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k < kindCount
}

// WireID returns the protocol effect id (index + 1; 0 is never used).
func (k Kind) WireID() int8 {
	return int8(k) + 1
}

// KindFromWire maps a protocol effect id back to a Kind.
func KindFromWire(id int8) (Kind, bool) {
	if id < 1 || int(id) > KindCount {
		return 0, false
	}
	return Kind(id - 1), true
}

// Identifier returns the lowercase snake_case text id, e.g. "slow_falling".
func (k Kind) Identifier() string {
	if !k.Valid() {
		return ""
	}
	return identifiers[k]
}

// KindFromIdentifier looks a kind up by its text id.
func KindFromIdentifier(id string) (Kind, bool) {
	k, ok := byIdentifier[id]
	return k, ok
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return identifiers[k]
}
