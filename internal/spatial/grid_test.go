package spatial

import (
	"math"
	"sort"
	"testing"
)

func TestInsertUpdateRemove(t *testing.T) {
	g := New(10)
	g.Insert(1, Vec3{0, 0, 0})
	g.Insert(2, Vec3{5, 5, 5})
	if g.Count() != 2 {
		t.Fatalf("Count = %d, want 2", g.Count())
	}

	g.Update(1, Vec3{100, 100, 100})
	p, ok := g.Position(1)
	if !ok || p != (Vec3{100, 100, 100}) {
		t.Fatalf("Position after Update = %v, %v", p, ok)
	}

	g.Remove(2)
	if g.Count() != 1 {
		t.Fatalf("Count after Remove = %d, want 1", g.Count())
	}
	if _, ok := g.Position(2); ok {
		t.Fatal("removed guid still tracked")
	}
}

func TestEntitiesInRangeFindsExactRadius(t *testing.T) {
	g := New(20)
	g.Insert(1, Vec3{0, 0, 0})
	g.Insert(2, Vec3{3, 4, 0}) // distance 5 from origin
	g.Insert(3, Vec3{100, 100, 100})

	got := g.EntitiesInRange(Vec3{0, 0, 0}, 5)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("EntitiesInRange(5) = %v, want [1 2]", got)
	}
}

func TestEntitiesInRangeExcludesFartherThanRadius(t *testing.T) {
	g := New(20)
	g.Insert(1, Vec3{0, 0, 0})
	g.Insert(2, Vec3{3, 4, 0}) // distance 5

	got := g.EntitiesInRange(Vec3{0, 0, 0}, 4.99)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("EntitiesInRange(4.99) = %v, want [1]", got)
	}
}

func TestEntitiesInRangeZeroRadiusMatchesOnlyExactPosition(t *testing.T) {
	g := New(20)
	g.Insert(1, Vec3{10, 10, 10})
	g.Insert(2, Vec3{10.5, 10, 10})

	got := g.EntitiesInRange(Vec3{10, 10, 10}, 0)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("EntitiesInRange(0) = %v, want [1]", got)
	}
}

func TestEntitiesInRangeNegativeRadiusReturnsNone(t *testing.T) {
	g := New(20)
	g.Insert(1, Vec3{0, 0, 0})
	if got := g.EntitiesInRange(Vec3{0, 0, 0}, -1); got != nil {
		t.Fatalf("EntitiesInRange(-1) = %v, want nil", got)
	}
}

func TestCellKeyHandlesNegativeCoordinates(t *testing.T) {
	g := New(10)
	g.Insert(1, Vec3{-5, -5, -5})
	g.Insert(2, Vec3{-15, -15, -15})

	got := g.EntitiesInRange(Vec3{-5, -5, -5}, 3)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("EntitiesInRange near negative coords = %v, want [1]", got)
	}
}

func TestUpdateAcrossCellBoundaryMovesGuid(t *testing.T) {
	g := New(10)
	g.Insert(1, Vec3{1, 1, 1})

	g.Update(1, Vec3{1, 1, 1}) // same cell, no-op path
	if g.Count() != 1 {
		t.Fatalf("Count after same-cell update = %d, want 1", g.Count())
	}

	g.Update(1, Vec3{50, 1, 1}) // crosses into a different cell
	got := g.EntitiesInRange(Vec3{50, 1, 1}, 1)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("EntitiesInRange after cross-cell update = %v, want [1]", got)
	}
	got = g.EntitiesInRange(Vec3{1, 1, 1}, 1)
	if len(got) != 0 {
		t.Fatalf("stale cell still reports guid: %v", got)
	}
}

func TestDistSquaredSymmetric(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 6, 3}
	if math.Abs(a.distSquared(b)-b.distSquared(a)) > 1e-9 {
		t.Fatal("distSquared not symmetric")
	}
}
