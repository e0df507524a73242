package zone

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/spatial"
)

func newTestInstance(t *testing.T) (*Instance, func()) {
	t.Helper()
	var mu sync.Mutex
	var received []entitymodel.GUID
	bc := func(g entitymodel.GUID, msg any) {
		mu.Lock()
		received = append(received, g)
		mu.Unlock()
	}
	inst := New(Ref{ZoneID: 1, InstanceID: 0}, 50, bc, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go inst.Run(ctx, time.Hour, nil)
	return inst, cancel
}

func TestAddGetRemoveEntity(t *testing.T) {
	inst, cancel := newTestInstance(t)
	defer cancel()

	guid := entitymodel.NewGUID(entitymodel.TypePlayer, 1)
	e := &entitymodel.Entity{GUID: guid, Type: entitymodel.TypePlayer, Position: spatial.Vec3{X: 1, Y: 2, Z: 3}, Health: 100, MaxHealth: 100}
	inst.AddEntity(e)

	got, ok := inst.GetEntity(guid)
	if !ok || got.Position != e.Position {
		t.Fatalf("GetEntity = %v, %v", got, ok)
	}

	info := inst.Info()
	if info.EntityCount != 1 || info.PlayerCount != 1 {
		t.Fatalf("Info = %+v", info)
	}

	inst.RemoveEntity(guid)
	if _, ok := inst.GetEntity(guid); ok {
		t.Fatal("entity should be gone after RemoveEntity")
	}
	if inst.Info().EntityCount != 0 {
		t.Fatal("EntityCount should be 0 after remove")
	}
}

func TestUpdateEntityPositionSyncsGrid(t *testing.T) {
	inst, cancel := newTestInstance(t)
	defer cancel()

	guid := entitymodel.NewGUID(entitymodel.TypeCreature, 1)
	inst.AddEntity(&entitymodel.Entity{GUID: guid, Type: entitymodel.TypeCreature, Position: spatial.Vec3{}, Health: 10, MaxHealth: 10})

	if err := inst.UpdateEntityPosition(guid, spatial.Vec3{X: 5, Y: 5, Z: 5}); err != nil {
		t.Fatalf("UpdateEntityPosition: %v", err)
	}

	near := inst.EntitiesInRange(spatial.Vec3{X: 5, Y: 5, Z: 5}, 1)
	if len(near) != 1 || near[0].GUID != guid {
		t.Fatalf("EntitiesInRange after move = %v", near)
	}
	far := inst.EntitiesInRange(spatial.Vec3{}, 1)
	if len(far) != 0 {
		t.Fatalf("stale position still found: %v", far)
	}
}

func TestUpdateEntityNotFound(t *testing.T) {
	inst, cancel := newTestInstance(t)
	defer cancel()

	err := inst.UpdateEntity(entitymodel.NewGUID(entitymodel.TypePlayer, 99), func(e *entitymodel.Entity) {})
	if err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestBroadcastReachesEveryPlayer(t *testing.T) {
	var mu sync.Mutex
	var received []entitymodel.GUID
	bc := func(g entitymodel.GUID, msg any) {
		mu.Lock()
		received = append(received, g)
		mu.Unlock()
	}
	inst := New(Ref{ZoneID: 1}, 50, bc, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go inst.Run(ctx, time.Hour, nil)
	defer cancel()

	p1 := entitymodel.NewGUID(entitymodel.TypePlayer, 1)
	p2 := entitymodel.NewGUID(entitymodel.TypePlayer, 2)
	inst.AddEntity(&entitymodel.Entity{GUID: p1, Type: entitymodel.TypePlayer})
	inst.AddEntity(&entitymodel.Entity{GUID: p2, Type: entitymodel.TypePlayer})

	inst.Broadcast("hello")

	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("received = %v, want 2 entries", received)
	}
}

func TestCheckInvariantDetectsGridMismatch(t *testing.T) {
	inst, cancel := newTestInstance(t)
	defer cancel()

	guid := entitymodel.NewGUID(entitymodel.TypePlayer, 1)
	inst.AddEntity(&entitymodel.Entity{GUID: guid, Type: entitymodel.TypePlayer, Position: spatial.Vec3{}})

	var firstErr, secondErr error
	inst.do(func() {
		firstErr = inst.checkInvariant()
		// Directly corrupt the entity's position without going through
		// UpdateEntity, to simulate the invariant breaking.
		inst.entities[guid].Position = spatial.Vec3{X: 999}
		secondErr = inst.checkInvariant()
	})
	if firstErr != nil {
		t.Fatalf("checkInvariant on consistent state: %v", firstErr)
	}
	if secondErr == nil {
		t.Fatal("expected invariant breach after direct corruption")
	}
}
