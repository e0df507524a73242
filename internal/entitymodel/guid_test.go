package entitymodel

import "testing"

func TestGUIDPacksTypeInTopBits(t *testing.T) {
	g := NewGUID(TypeCreature, 42)
	if g.Type() != TypeCreature {
		t.Errorf("Type() = %v, want creature", g.Type())
	}
	if g.Sequence() != 42 {
		t.Errorf("Sequence() = %d, want 42", g.Sequence())
	}
}

func TestAllocatorMonotonicPerType(t *testing.T) {
	a := NewAllocator()
	p1 := a.Next(TypePlayer)
	p2 := a.Next(TypePlayer)
	c1 := a.Next(TypeCreature)

	if p1.Sequence() != 1 || p2.Sequence() != 2 {
		t.Fatalf("player sequences = %d, %d, want 1, 2", p1.Sequence(), p2.Sequence())
	}
	if c1.Sequence() != 1 {
		t.Fatalf("creature sequence = %d, want 1 (separate counter)", c1.Sequence())
	}
	if p1.Type() != TypePlayer || c1.Type() != TypeCreature {
		t.Fatal("type tag not preserved across allocations")
	}
}

func TestAllocatorRestoreResumesAfterHighWaterMark(t *testing.T) {
	a := NewAllocator()
	a.Restore(TypeCreature, 100)
	next := a.Next(TypeCreature)
	if next.Sequence() != 101 {
		t.Fatalf("Sequence() after restore = %d, want 101", next.Sequence())
	}
}

func TestAllocatorRestoreIgnoresLowerMark(t *testing.T) {
	a := NewAllocator()
	a.Next(TypeCreature) // seq=1
	a.Next(TypeCreature) // seq=2
	a.Restore(TypeCreature, 1)
	next := a.Next(TypeCreature)
	if next.Sequence() != 3 {
		t.Fatalf("Sequence() after no-op restore = %d, want 3", next.Sequence())
	}
}

func TestGUIDZero(t *testing.T) {
	var g GUID
	if !g.IsZero() {
		t.Fatal("zero-value GUID should be IsZero")
	}
}
