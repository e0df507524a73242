package encounter

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/spatial"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	snap := func() TargetContext {
		return TargetContext{Combatants: []Combatant{
			combatant(1, 100, 100, 100, spatial.Vec3{}),
		}}
	}
	var sunk []struct {
		target entitymodel.GUID
		eff    Effect
	}
	sink := func(target entitymodel.GUID, eff Effect) {
		sunk = append(sunk, struct {
			target entitymodel.GUID
			eff    Effect
		}{target, eff})
	}
	e, err := New(simpleDef(), 7, snap, sink, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestEngageSelectsInitialPhase(t *testing.T) {
	e := testEngine(t)
	now := time.Unix(0, 0)
	e.Engage(now)
	if e.State() != StateEngaged {
		t.Fatalf("state = %v, want engaged", e.State())
	}
	if e.Modifiers() != (Modifiers{}) {
		t.Fatalf("expected p1's zero-value modifiers, got %+v", e.Modifiers())
	}
	ready := e.ReadyAbilities(now)
	if len(ready) != 1 || ready[0] != "slam" {
		t.Fatalf("ready = %v, want [slam]", ready)
	}
}

func TestApplyBossDamageTransitionsPhase(t *testing.T) {
	e := testEngine(t)
	now := time.Unix(0, 0)
	e.Engage(now)
	e.ApplyBossDamage(now, 600) // 1000 -> 400, below 50%
	ready := e.ReadyAbilities(now)
	names := map[string]bool{}
	for _, n := range ready {
		names[n] = true
	}
	if !names["slam"] || !names["enrage_slam"] {
		t.Fatalf("expected inherited ability set in p2, got %v", ready)
	}
}

func TestApplyBossDamageToZeroDefeatsEngine(t *testing.T) {
	e := testEngine(t)
	now := time.Unix(0, 0)
	e.Engage(now)
	state := e.ApplyBossDamage(now, 1000)
	if state != StateDefeated {
		t.Fatalf("state = %v, want defeated", state)
	}
}

func TestWipeResetsToNotEngaged(t *testing.T) {
	e := testEngine(t)
	now := time.Unix(0, 0)
	e.Engage(now)
	e.ApplyBossDamage(now, 500)
	e.Wipe(now)
	if e.State() != StateNotEngaged {
		t.Fatalf("state = %v, want not-engaged", e.State())
	}
	if e.HealthPercent() != 100 {
		t.Fatalf("health pct = %v, want 100 after wipe reset", e.HealthPercent())
	}
}

func TestInterruptibleAbilityBreaksOnArmorDepletion(t *testing.T) {
	e := testEngine(t)
	now := time.Unix(0, 0)
	e.Engage(now)
	e.abilities["slam"].ability.Interruptible = true
	e.abilities["slam"].armor.Reset(1)
	e.BeginCast("slam", now)
	if !e.Interrupt("slam", now) {
		t.Fatal("expected interrupt to break a 1-stack cast")
	}
}

func TestResolveCastRunsCoordinationThroughSink(t *testing.T) {
	def := &Definition{
		Boss: Boss{ID: 2, Name: "Stack Boss", MaxHealth: 1000},
		Phases: []Phase{{
			Name:      "p1",
			Condition: Condition{Kind: CondAlways},
			Abilities: []Ability{{
				Name:       "gather",
				CooldownMs: 1000,
				Target:     TargetSelector{Kind: SelNearest},
				Effects: []Effect{{
					Kind: EffectCoordination,
					Coordination: &CoordinationParams{
						Kind:          CoordStack,
						CenterRadiusU: 5,
						MinPlayers:    2,
						Split:         true,
						Damage:        600,
						FailureDamage: 1000,
					},
				}},
			}},
		}},
	}

	snap := func() TargetContext {
		return TargetContext{Combatants: []Combatant{
			combatant(1, 0, 100, 100, spatial.Vec3{X: 0}),
			combatant(2, 0, 100, 100, spatial.Vec3{X: 1}),
			combatant(3, 0, 100, 100, spatial.Vec3{X: 200}),
		}}
	}
	damage := make(map[entitymodel.GUID]int)
	sink := func(target entitymodel.GUID, eff Effect) {
		if eff.Kind == EffectDamage {
			damage[target] += eff.Damage.BaseDamage
		}
	}
	e, err := New(def, 7, snap, sink, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	now := time.Unix(0, 0)
	e.Engage(now)
	targets := e.BeginCast("gather", now)
	e.ResolveCast("gather", targets, now)

	g1 := combatant(1, 0, 100, 100, spatial.Vec3{}).GUID
	g2 := combatant(2, 0, 100, 100, spatial.Vec3{}).GUID
	g3 := combatant(3, 0, 100, 100, spatial.Vec3{}).GUID
	if damage[g1] != 300 || damage[g2] != 300 {
		t.Fatalf("grouped players should split 600, got %v", damage)
	}
	if damage[g3] != 1000 {
		t.Fatalf("straggler should take failure damage, got %v", damage)
	}
}
