package effect

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestKinds_Count(t *testing.T) {
	if KindCount != 32 {
		t.Fatalf("expected 32 kinds, got %d", KindCount)
	}
	if len(Kinds()) != KindCount {
		t.Fatalf("Kinds() len = %d, want %d", len(Kinds()), KindCount)
	}
}

func TestKind_WireRoundTrip(t *testing.T) {
	t.Parallel()

	seen := make(map[int8]Kind)
	for _, k := range Kinds() {
		id := k.WireID()
		if id == 0 {
			t.Errorf("%v: wire id 0 is reserved", k)
		}
		if prev, dup := seen[id]; dup {
			t.Errorf("%v and %v share wire id %d", prev, k, id)
		}
		seen[id] = k

		got, ok := KindFromWire(id)
		if !ok || got != k {
			t.Errorf("KindFromWire(%d) = %v, %v; want %v", id, got, ok, k)
		}
	}
}

func TestKind_IdentifierRoundTrip(t *testing.T) {
	t.Parallel()

	for _, k := range Kinds() {
		id := k.Identifier()
		if id == "" {
			t.Errorf("kind %d has no identifier", uint8(k))
			continue
		}
		got, ok := KindFromIdentifier(id)
		if !ok || got != k {
			t.Errorf("KindFromIdentifier(%q) = %v, %v; want %v", id, got, ok, k)
		}
	}
}

func TestKind_KnownValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		wire int8
		id   string
	}{
		{Speed, 1, "speed"},
		{MiningFatigue, 4, "mining_fatigue"},
		{BadLuck, 27, "unluck"},
		{HeroOfTheVillage, 32, "hero_of_the_village"},
	}
	for _, tt := range tests {
		if tt.kind.WireID() != tt.wire {
			t.Errorf("%v.WireID() = %d, want %d", tt.kind, tt.kind.WireID(), tt.wire)
		}
		if tt.kind.Identifier() != tt.id {
			t.Errorf("%v.Identifier() = %q, want %q", tt.kind, tt.kind.Identifier(), tt.id)
		}
	}
}

func TestKindFromWire_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("only ids 1..32 decode, and they decode back to themselves", prop.ForAll(
		func(id int8) bool {
			k, ok := KindFromWire(id)
			if id < 1 || id > 32 {
				return !ok
			}
			return ok && k.WireID() == id
		},
		gen.Int8(),
	))

	properties.TestingRun(t)
}

func TestKind_Invalid(t *testing.T) {
	k := Kind(200)
	if k.Valid() {
		t.Fatal("Kind(200) should be invalid")
	}
	if k.Identifier() != "" {
		t.Errorf("invalid kind identifier = %q, want empty", k.Identifier())
	}
	if k.String() != "kind(200)" {
		t.Errorf("String() = %q", k.String())
	}
	if _, ok := KindFromIdentifier("bogus"); ok {
		t.Error("KindFromIdentifier(bogus) should fail")
	}
}
