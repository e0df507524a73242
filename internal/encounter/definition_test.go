package encounter

import "testing"

func simpleDef() *Definition {
	return &Definition{
		Boss: Boss{ID: 1, Name: "Test Boss", MaxHealth: 1000, InterruptArmor: 2},
		Phases: []Phase{
			{
				Name:      "p1",
				Condition: Condition{Kind: CondHealthAbove, Above: 50},
				Abilities: []Ability{{Name: "slam", CooldownMs: 1000}},
			},
			{
				Name:        "p2",
				Condition:   Condition{Kind: CondHealthBelow, Below: 50},
				InheritFrom: "p1",
				Abilities:   []Ability{{Name: "enrage_slam", CooldownMs: 500}},
			},
		},
	}
}

func TestValidateRejectsCycle(t *testing.T) {
	def := &Definition{
		Phases: []Phase{
			{Name: "a", InheritFrom: "b"},
			{Name: "b", InheritFrom: "a"},
		},
	}
	if err := def.Validate(); err == nil {
		t.Fatal("expected cycle error")
	}
}

func TestValidateRejectsMissingParent(t *testing.T) {
	def := &Definition{Phases: []Phase{{Name: "a", InheritFrom: "ghost"}}}
	if err := def.Validate(); err == nil {
		t.Fatal("expected missing-parent error")
	}
}

func TestValidateAcceptsSimpleDef(t *testing.T) {
	if err := simpleDef().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEffectiveAbilitiesUnionsInheritedPhase(t *testing.T) {
	def := simpleDef()
	abilities := def.EffectiveAbilities("p2")
	names := map[string]bool{}
	for _, a := range abilities {
		names[a.Name] = true
	}
	if !names["slam"] || !names["enrage_slam"] {
		t.Fatalf("expected both slam and enrage_slam, got %v", abilities)
	}
}

func TestConditionMatches(t *testing.T) {
	c := Condition{Kind: CondHealthBetween, Above: 20, Below: 80}
	if !c.Matches(50) {
		t.Fatal("expected 50 to match [20,80]")
	}
	if c.Matches(90) {
		t.Fatal("expected 90 to not match [20,80]")
	}
}
