package creature

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/formula"
	"github.com/wyrmwatch/core/internal/spatial"
	"github.com/wyrmwatch/core/internal/zone"
)

func testTemplate(id int32) (Template, bool) {
	if id != 100 {
		return Template{}, false
	}
	return Template{
		ID:             100,
		MinDamage:      5,
		MaxDamage:      5,
		AttackRange:    2,
		AttackCooldown: time.Second,
		MoveSpeed:      10,
		RespawnTime:    time.Minute,
		XPBase:         50,
	}, true
}

func newTestSetup(t *testing.T) (*zone.Instance, *Manager, entitymodel.GUID, entitymodel.GUID, func()) {
	t.Helper()
	inst := zone.New(zone.Ref{ZoneID: 1}, 50, func(entitymodel.GUID, any) {}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go inst.Run(ctx, time.Hour, nil)

	eng, err := formula.NewEngine(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(eng.Close)

	mgr := NewManager(inst, eng, testTemplate, 30*time.Second, 100, zap.NewNop())

	creature := entitymodel.NewGUID(entitymodel.TypeCreature, 1)
	player := entitymodel.NewGUID(entitymodel.TypePlayer, 1)
	inst.AddEntity(&entitymodel.Entity{
		GUID: creature, Type: entitymodel.TypeCreature, Health: 20, MaxHealth: 20,
		Position: spatial.Vec3{}, Creature: &entitymodel.CreatureData{CreatureTemplateID: 100, SpawnPosition: spatial.Vec3{}},
	})
	inst.AddEntity(&entitymodel.Entity{
		GUID: player, Type: entitymodel.TypePlayer, Health: 100, MaxHealth: 100,
		Position: spatial.Vec3{X: 1},
	})
	return inst, mgr, creature, player, cancel
}

func TestDamageCreatureSurvives(t *testing.T) {
	_, mgr, creature, player, cancel := newTestSetup(t)
	defer cancel()

	out, err := mgr.DamageCreature(time.Now(), creature, player, 5)
	if err != nil {
		t.Fatalf("DamageCreature: %v", err)
	}
	dmg, ok := out.(DamageOutcome)
	if !ok || dmg.Remaining != 15 {
		t.Fatalf("DamageCreature result = %#v", out)
	}
}

func TestDamageCreatureLethalYieldsKillOutcome(t *testing.T) {
	inst, mgr, creature, player, cancel := newTestSetup(t)
	defer cancel()

	out, err := mgr.DamageCreature(time.Now(), creature, player, 100)
	if err != nil {
		t.Fatalf("DamageCreature: %v", err)
	}
	kill, ok := out.(KillOutcome)
	if !ok || kill.XP != 50 || kill.Killer != player {
		t.Fatalf("DamageCreature lethal result = %#v", out)
	}
	st, _ := inst.AIState(creature)
	if st.State != entitymodel.AIDead {
		t.Fatalf("AI state after lethal damage = %v, want dead", st.State)
	}
}

func TestRespawnRestoresHealthAndPosition(t *testing.T) {
	inst, mgr, creature, player, cancel := newTestSetup(t)
	defer cancel()

	now := time.Now()
	if _, err := mgr.DamageCreature(now, creature, player, 100); err != nil {
		t.Fatal(err)
	}
	mgr.processRespawns(now.Add(2 * time.Minute))

	e, ok := inst.GetEntity(creature)
	if !ok || e.Health != e.MaxHealth {
		t.Fatalf("entity after respawn = %+v, %v", e, ok)
	}
	st, _ := inst.AIState(creature)
	if st.State != entitymodel.AIIdle {
		t.Fatalf("AI state after respawn = %v, want idle", st.State)
	}
}

func TestTickBatchCapDefersRemainderFIFO(t *testing.T) {
	_, mgr, creature, player, cancel := newTestSetup(t)
	defer cancel()
	mgr.batchCap = 0 // force everything into the deferred queue

	st, _ := mgr.zone.AIState(creature)
	st.AddThreat(player, 1)
	st.EnterCombat(time.Now())

	mgr.Tick(time.Now(), []entitymodel.GUID{creature})
	if len(mgr.deferred) != 1 || mgr.deferred[0] != creature {
		t.Fatalf("deferred = %v, want [creature]", mgr.deferred)
	}
}
