package encounter

import (
	"testing"

	"github.com/wyrmwatch/core/internal/spatial"
)

func TestResolveStackSplitsDamageAmongGrouped(t *testing.T) {
	p := &CoordinationParams{Kind: CoordStack, MinPlayers: 2, CenterRadiusU: 5, Split: true, Damage: 900, FailureDamage: 1000}
	cs := []Combatant{
		combatant(1, 0, 100, 100, spatial.Vec3{X: 0}),
		combatant(2, 0, 100, 100, spatial.Vec3{X: 1}),
		combatant(3, 0, 100, 100, spatial.Vec3{X: 2}),
	}
	res := p.Resolve(spatial.Vec3{}, cs)
	for _, c := range cs {
		if res.Damage[c.GUID] != 300 {
			t.Fatalf("grouped player %d damage = %d, want 300 (900/3)", c.GUID, res.Damage[c.GUID])
		}
	}
	if len(res.Failed) != 0 {
		t.Fatalf("no player should fail a met stack, got %v", res.Failed)
	}
}

func TestResolveStackFullDamageWhenNotSplit(t *testing.T) {
	p := &CoordinationParams{Kind: CoordStack, MinPlayers: 2, CenterRadiusU: 5, Damage: 900, FailureDamage: 1000}
	cs := []Combatant{
		combatant(1, 0, 100, 100, spatial.Vec3{X: 0}),
		combatant(2, 0, 100, 100, spatial.Vec3{X: 1}),
	}
	res := p.Resolve(spatial.Vec3{}, cs)
	if res.Damage[cs[0].GUID] != 900 || res.Damage[cs[1].GUID] != 900 {
		t.Fatalf("unsplit stack should deal full damage to each, got %v", res.Damage)
	}
}

func TestResolveStackFailureDamageWhenUnderMin(t *testing.T) {
	p := &CoordinationParams{Kind: CoordStack, MinPlayers: 3, CenterRadiusU: 5, Damage: 900, FailureDamage: 1000}
	cs := []Combatant{
		combatant(1, 0, 100, 100, spatial.Vec3{X: 0}),
		combatant(2, 0, 100, 100, spatial.Vec3{X: 1}),
	}
	res := p.Resolve(spatial.Vec3{}, cs)
	if len(res.Failed) != 2 {
		t.Fatalf("a missed stack fails everyone, got %v", res.Failed)
	}
	for _, c := range cs {
		if res.Damage[c.GUID] != 1000 {
			t.Fatalf("player %d damage = %d, want failure damage 1000", c.GUID, res.Damage[c.GUID])
		}
	}
}

func TestResolveStackStragglerTakesFailureDamage(t *testing.T) {
	p := &CoordinationParams{Kind: CoordStack, MinPlayers: 2, CenterRadiusU: 5, Split: true, Damage: 800, FailureDamage: 1000}
	cs := []Combatant{
		combatant(1, 0, 100, 100, spatial.Vec3{X: 0}),
		combatant(2, 0, 100, 100, spatial.Vec3{X: 1}),
		combatant(3, 0, 100, 100, spatial.Vec3{X: 100}),
	}
	res := p.Resolve(spatial.Vec3{}, cs)
	if res.Damage[cs[0].GUID] != 400 || res.Damage[cs[1].GUID] != 400 {
		t.Fatalf("grouped pair should split 800, got %v", res.Damage)
	}
	if len(res.Failed) != 1 || res.Failed[0] != cs[2].GUID {
		t.Fatalf("only the distant player fails, got %v", res.Failed)
	}
	if res.Damage[cs[2].GUID] != 1000 {
		t.Fatalf("straggler damage = %d, want 1000", res.Damage[cs[2].GUID])
	}
}

func TestResolveSpreadPenalizesBothTooClose(t *testing.T) {
	p := &CoordinationParams{Kind: CoordSpread, RequiredDistanceU: 10, TooCloseDamage: 500}
	cs := []Combatant{
		combatant(1, 0, 100, 100, spatial.Vec3{X: 0}),
		combatant(2, 0, 100, 100, spatial.Vec3{X: 1}),
	}
	res := p.Resolve(spatial.Vec3{}, cs)
	if len(res.Failed) != 2 {
		t.Fatalf("expected both players to fail spread check, got %v", res.Failed)
	}
}

func TestResolveSoakSplitsBaseDamageWhenMet(t *testing.T) {
	p := &CoordinationParams{Kind: CoordSoak, CenterRadiusU: 10, RequiredPlayers: 2, BaseDamage: 600, DamagePerMissing: 100}
	cs := []Combatant{
		combatant(1, 0, 100, 100, spatial.Vec3{X: 1}),
		combatant(2, 0, 100, 100, spatial.Vec3{X: 2}),
	}
	res := p.Resolve(spatial.Vec3{}, cs)
	if res.Damage[cs[0].GUID] != 300 || res.Damage[cs[1].GUID] != 300 {
		t.Fatalf("met soak should split 600 between soakers, got %v", res.Damage)
	}
	if len(res.Failed) != 0 {
		t.Fatalf("a fully soaked circle fails nobody, got %v", res.Failed)
	}
}

func TestResolveSoakAddsDamagePerMissing(t *testing.T) {
	p := &CoordinationParams{Kind: CoordSoak, CenterRadiusU: 10, RequiredPlayers: 3, BaseDamage: 600, DamagePerMissing: 100}
	cs := []Combatant{combatant(1, 0, 100, 100, spatial.Vec3{X: 1})}
	res := p.Resolve(spatial.Vec3{}, cs)
	if res.Damage[cs[0].GUID] != 800 {
		t.Fatalf("damage = %d, want 800 (600 base + 2 missing x 100)", res.Damage[cs[0].GUID])
	}
	if len(res.Failed) != 1 {
		t.Fatalf("an undersoaked circle marks its soakers failed, got %v", res.Failed)
	}
}

func TestResolveSoakUnsoakedBlastsEveryone(t *testing.T) {
	p := &CoordinationParams{Kind: CoordSoak, CenterRadiusU: 5, RequiredPlayers: 2, BaseDamage: 600, DamagePerMissing: 100}
	cs := []Combatant{
		combatant(1, 0, 100, 100, spatial.Vec3{X: 50}),
		combatant(2, 0, 100, 100, spatial.Vec3{X: 60}),
	}
	res := p.Resolve(spatial.Vec3{}, cs)
	for _, c := range cs {
		if res.Damage[c.GUID] != 800 {
			t.Fatalf("player %d damage = %d, want full 800", c.GUID, res.Damage[c.GUID])
		}
	}
	if len(res.Failed) != 2 {
		t.Fatalf("an unsoaked circle fails everyone, got %v", res.Failed)
	}
}

func TestResolveTetherBreaksOutsideBounds(t *testing.T) {
	p := &CoordinationParams{Kind: CoordTether, MinDistanceU: 5, MaxDistanceU: 20, BreakDamage: 50}
	cs := []Combatant{
		combatant(1, 0, 100, 100, spatial.Vec3{X: 0}),
		combatant(2, 0, 100, 100, spatial.Vec3{X: 100}),
	}
	res := p.Resolve(spatial.Vec3{}, cs)
	if len(res.Failed) != 2 {
		t.Fatalf("expected tether break for both ends, got %v", res.Failed)
	}
}
