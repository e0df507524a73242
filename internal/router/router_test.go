package router

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/spatial"
	"github.com/wyrmwatch/core/internal/zone"
)

func noopBroadcast(entitymodel.GUID, any) {}

func TestNextGUIDMonotonicPerType(t *testing.T) {
	r := New(zap.NewNop())
	a := r.NextGUID(entitymodel.TypePlayer)
	b := r.NextGUID(entitymodel.TypePlayer)
	if !(b > a) {
		t.Fatalf("expected monotonic GUIDs, got %d then %d", a, b)
	}
	if a.Type() != entitymodel.TypePlayer {
		t.Fatalf("GUID type = %v, want player", a.Type())
	}
}

func TestSelectInstancePrefersLeastLoaded(t *testing.T) {
	r := New(zap.NewNop())
	i1 := zone.New(zone.Ref{ZoneID: 5, InstanceID: 1}, 50, noopBroadcast, zap.NewNop())
	i2 := zone.New(zone.Ref{ZoneID: 5, InstanceID: 2}, 50, noopBroadcast, zap.NewNop())
	r.Register(i1)
	r.Register(i2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go i1.Run(ctx, time.Hour, nil)
	go i2.Run(ctx, time.Hour, nil)

	e := &entitymodel.Entity{GUID: entitymodel.NewGUID(entitymodel.TypePlayer, 1), Type: entitymodel.TypePlayer, Position: spatial.Vec3{}}
	i1.AddEntity(e)

	ref, ok := r.SelectInstance(5, 0)
	if !ok {
		t.Fatal("expected an instance")
	}
	if ref.InstanceID != 2 {
		t.Fatalf("expected least-loaded instance 2, got %d", ref.InstanceID)
	}
}

func TestTransferMovesEntityBetweenInstances(t *testing.T) {
	r := New(zap.NewNop())
	src := zone.New(zone.Ref{ZoneID: 1, InstanceID: 1}, 50, noopBroadcast, zap.NewNop())
	dst := zone.New(zone.Ref{ZoneID: 2, InstanceID: 1}, 50, noopBroadcast, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go src.Run(ctx, time.Hour, nil)
	go dst.Run(ctx, time.Hour, nil)

	guid := entitymodel.NewGUID(entitymodel.TypePlayer, 1)
	src.AddEntity(&entitymodel.Entity{GUID: guid, Type: entitymodel.TypePlayer, Position: spatial.Vec3{X: 1, Y: 2, Z: 3}})

	if err := r.Transfer(ctx, src, dst, guid); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	if _, ok := src.GetEntity(guid); ok {
		t.Fatal("entity should no longer be in source zone")
	}
	got, ok := dst.GetEntity(guid)
	if !ok {
		t.Fatal("entity should be present in destination zone")
	}
	if got.Position.X != 1 {
		t.Fatalf("position not preserved across transfer: %+v", got.Position)
	}
}
