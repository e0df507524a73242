package formula

import (
	"testing"

	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestNewEngineToleratesMissingScriptDirs(t *testing.T) {
	newTestEngine(t) // must not error
}

func TestCalcMeleeFallsBackWithoutScript(t *testing.T) {
	e := newTestEngine(t)
	res := e.CalcMelee(MeleeContext{AttackerMinDmg: 3, AttackerMaxDmg: 9})
	if !res.IsHit || res.Damage != 3 {
		t.Fatalf("CalcMelee fallback = %+v, want IsHit=true Damage=3", res)
	}
}

func TestCalcAbilityDamageFallsBackToBase(t *testing.T) {
	e := newTestEngine(t)
	got := e.CalcAbilityDamage(AbilityDamageContext{BaseDamage: 500})
	if got != 500 {
		t.Fatalf("CalcAbilityDamage fallback = %d, want 500", got)
	}
}

func TestLevelFromExpMissingFunctionReturnsZero(t *testing.T) {
	e := newTestEngine(t)
	if got := e.LevelFromExp(1000); got != 0 {
		t.Fatalf("LevelFromExp with no script = %d, want 0", got)
	}
}
