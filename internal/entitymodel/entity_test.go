package entitymodel

import (
	"errors"
	"testing"

	"github.com/wyrmwatch/core/internal/wyerr"
)

func TestValidateRejectsHealthAboveMax(t *testing.T) {
	e := &Entity{GUID: NewGUID(TypeCreature, 1), Health: 150, MaxHealth: 100}
	if err := e.Validate(); !errors.Is(err, wyerr.ErrInvariant) {
		t.Fatalf("Validate() = %v, want wrapped ErrInvariant", err)
	}
}

func TestValidateRejectsNegativeHealth(t *testing.T) {
	e := &Entity{GUID: NewGUID(TypeCreature, 1), Health: -1, MaxHealth: 100}
	if err := e.Validate(); !errors.Is(err, wyerr.ErrInvariant) {
		t.Fatalf("Validate() = %v, want wrapped ErrInvariant", err)
	}
}

func TestValidateAcceptsBoundaryHealth(t *testing.T) {
	e := &Entity{GUID: NewGUID(TypeCreature, 1), Health: 0, MaxHealth: 100}
	if err := e.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil at health==0", err)
	}
	e.Health = 100
	if err := e.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil at health==max", err)
	}
}

func TestIsAliveForNonCombatantTypes(t *testing.T) {
	e := &Entity{Type: TypeItemOnGround, Health: 0, MaxHealth: 0}
	if !e.IsAlive() {
		t.Fatal("items should always report alive")
	}
}

func TestIsAliveForCreature(t *testing.T) {
	e := &Entity{Type: TypeCreature, Health: 0, MaxHealth: 100}
	if e.IsAlive() {
		t.Fatal("creature at 0 health should not be alive")
	}
	e.Health = 1
	if !e.IsAlive() {
		t.Fatal("creature with health > 0 should be alive")
	}
}
