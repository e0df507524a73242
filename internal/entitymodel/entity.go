package entitymodel

import (
	"fmt"

	"github.com/wyrmwatch/core/internal/spatial"
	"github.com/wyrmwatch/core/internal/wyerr"
)

// Entity is a tagged union over the four kinds of object a ZoneInstance
// places in its world. Exactly one of the Data fields is meaningful,
// selected by Type — callers should switch on Type rather than probe
// for a non-nil field.
type Entity struct {
	GUID        GUID
	Type        EntityType
	Position    spatial.Vec3
	Faction     int32
	Level       int32
	Health      int32
	MaxHealth   int32
	Name        string
	DisplayInfo int32

	Player   *PlayerData
	Creature *CreatureData
	Item     *ItemData
	Trigger  *TriggerData
}

// PlayerData holds the fields unique to a player-controlled entity.
type PlayerData struct {
	AccountName string
	CharacterID int64
	SessionID   uint64
	XP          int64
	Gold        int64
}

// CreatureData holds the fields unique to a creature entity.
type CreatureData struct {
	CreatureTemplateID int32
	SpawnPosition      spatial.Vec3
}

// ItemData holds the fields unique to an item lying on the ground.
type ItemData struct {
	ItemTemplateID int32
	Count          int32
	OwnerGUID      GUID // 0 if unowned / loot window expired
}

// TriggerData holds the fields unique to a scripted area trigger.
type TriggerData struct {
	TriggerID int32
	Radius    float64
}

// Validate enforces the Entity invariant 0 <= health <= max_health.
func (e *Entity) Validate() error {
	if e.Health < 0 || e.Health > e.MaxHealth {
		return fmt.Errorf("%w: entity %d health %d out of [0,%d]", wyerr.ErrInvariant, e.GUID, e.Health, e.MaxHealth)
	}
	return nil
}

// IsAlive reports whether the entity still has health remaining. Only
// meaningful for creatures and players; items and triggers are always
// considered alive.
func (e *Entity) IsAlive() bool {
	if e.Type == TypeCreature || e.Type == TypePlayer {
		return e.Health > 0
	}
	return true
}
