package encounter

import (
	"math"

	"github.com/wyrmwatch/core/internal/spatial"
)

// EffectKind is the closed sum type's discriminant — a Kind field
// plus one populated param struct per variant, rather than an open
// map.
type EffectKind int

const (
	EffectTelegraph EffectKind = iota
	EffectDamage
	EffectDebuff
	EffectBuff
	EffectHeal
	EffectMovement
	EffectSpawn
	EffectEnvironmental
	EffectCoordination
	EffectTargeting
	EffectFixate
	EffectInterruptHandler
)

// ShapeKind is a telegraph/damage-area's geometry.
type ShapeKind int

const (
	ShapeCircle ShapeKind = iota
	ShapeCone
	ShapeLine
	ShapeRectangle
	ShapeDonut
	ShapeCross
	ShapeRoomWide
	ShapeWave
)

// Shape carries the geometry parameters for whichever ShapeKind is set.
type Shape struct {
	Kind         ShapeKind
	RadiusU      float64 // circle/wave outer
	InnerRadiusU float64 // donut
	AngleDeg     float64 // cone
	LengthU      float64 // cone/line/rectangle
	WidthU       float64 // line/rectangle/wave
	SpeedUPerSec float64 // wave expansion speed
}

// Contains reports whether point is inside shape, anchored at origin
// and rotated by rotationDeg around the vertical axis. Only the X/Y
// plane is considered; Z is ignored, matching how telegraphs are drawn
// on the ground.
func (s Shape) Contains(origin, point spatial.Vec3, rotationDeg float64) bool {
	dx, dy := point.X-origin.X, point.Y-origin.Y
	rx, ry := rotatePoint(dx, dy, -rotationDeg)
	switch s.Kind {
	case ShapeCircle, ShapeWave:
		d2 := rx*rx + ry*ry
		if s.Kind == ShapeWave {
			return d2 <= s.RadiusU*s.RadiusU && d2 >= (s.RadiusU-s.WidthU)*(s.RadiusU-s.WidthU)
		}
		return d2 <= s.RadiusU*s.RadiusU
	case ShapeDonut:
		d2 := rx*rx + ry*ry
		return d2 <= s.RadiusU*s.RadiusU && d2 >= s.InnerRadiusU*s.InnerRadiusU
	case ShapeCone:
		if rx < 0 {
			return false
		}
		dist := math.Hypot(rx, ry)
		if dist > s.LengthU {
			return false
		}
		angle := math.Abs(math.Atan2(ry, rx)) * 180 / math.Pi
		return angle <= s.AngleDeg/2
	case ShapeLine, ShapeRectangle:
		return rx >= 0 && rx <= s.LengthU && math.Abs(ry) <= s.WidthU/2
	case ShapeCross:
		return (math.Abs(rx) <= s.WidthU/2 && math.Abs(ry) <= s.LengthU/2) ||
			(math.Abs(ry) <= s.WidthU/2 && math.Abs(rx) <= s.LengthU/2)
	case ShapeRoomWide:
		return true
	default:
		return false
	}
}

// TelegraphParams describes a visual-only shape preview. The damage
// effect paired with a telegraph applies to every entity inside the
// shape at impact time.
type TelegraphParams struct {
	Shape               Shape
	RotationDeg         float64
	TelegraphDurationMs uint32
	DelayMs             uint32
	Color               uint8
}

// DamageParams is a flat-amount or shaped area damage effect.
type DamageParams struct {
	BaseDamage           int
	Shape                *Shape  // nil means "hits TargetSelector's resolved targets directly", non-nil means "area at impact point"
	DamageFalloffPerJump float64 // chain-ability multiplicative falloff
}

// DebuffParams/BuffParams apply a named status for a duration.
type DebuffParams struct {
	Name       string
	DurationMs uint32
	Magnitude  float64
}

type BuffParams struct {
	Name       string
	DurationMs uint32
	Magnitude  float64
}

// HealParams heals the resolved target(s).
type HealParams struct {
	Amount int
}

// MovementParams forces a knockback/pull/teleport on the target.
type MovementParams struct {
	Kind       string // "knockback", "pull", "teleport"
	DistanceU  float64
	ToPosition *spatial.Vec3 // teleport destination, if Kind == "teleport"
}

// SpawnParams adds an add/trigger to the encounter area.
type SpawnParams struct {
	CreatureID int32
	Position   spatial.Vec3
	Count      int
}

// EnvironmentalParams toggles a hazard (fire floor, falling debris).
type EnvironmentalParams struct {
	HazardID   string
	Active     bool
	DurationMs uint32
}

// CoordinationKind is the checked-predicate mechanic variant.
type CoordinationKind int

const (
	CoordStack CoordinationKind = iota
	CoordSpread
	CoordSoak
	CoordTether
	CoordPass
	CoordChain
)

// CoordinationParams carries every coordination mechanic's parameters;
// only the fields relevant to Kind are meaningful.
type CoordinationParams struct {
	Kind              CoordinationKind
	CenterRadiusU     float64
	MinPlayers        int
	Split             bool
	Damage            int
	BaseDamage        int // soak: the hit split among soakers in the circle
	FailureDamage     int
	RequiredDistanceU float64
	RequiredPlayers   int
	DamagePerMissing  int
	TooCloseDamage    int
	BreakDamage       int
	MinDistanceU      float64
	MaxDistanceU      float64
	DamageOnExpire    int
	TimeoutMs         uint32
	StackOnSame       bool
	DamagePerBreak    int
}

// TargetingParams changes who an ability's subsequent effects hit,
// without itself dealing damage (a pure retarget step).
type TargetingParams struct {
	Selector TargetSelector
}

// FixateParams forces the boss (or an add) to prioritize one target
// regardless of threat, for a duration.
type FixateParams struct {
	DurationMs uint32
}

// InterruptHandlerKind is what happens when interrupt armor hits zero
// during a castable ability (the "Moment of Opportunity").
type InterruptHandlerKind int

const (
	InterruptStun InterruptHandlerKind = iota
	InterruptVulnerable
	InterruptMoO
	InterruptKnockdown
	InterruptPhaseSkip
)

// InterruptHandlerParams carries the on_interrupt effect's parameters.
type InterruptHandlerParams struct {
	Kind             InterruptHandlerKind
	DurationMs       uint32
	VulnerabilityPct float64 // InterruptVulnerable: extra damage taken, 0..1
	SkipToPhase      string  // InterruptPhaseSkip
}

// Effect is the tagged union: Kind selects which *Params field is
// meaningful. Effects within an ability execute in this declared
// order at impact time.
type Effect struct {
	Kind EffectKind

	Telegraph        *TelegraphParams
	Damage           *DamageParams
	Debuff           *DebuffParams
	Buff             *BuffParams
	Heal             *HealParams
	Movement         *MovementParams
	Spawn            *SpawnParams
	Environmental    *EnvironmentalParams
	Coordination     *CoordinationParams
	Targeting        *TargetingParams
	Fixate           *FixateParams
	InterruptHandler *InterruptHandlerParams
}

func rotatePoint(x, y, deg float64) (float64, float64) {
	rad := deg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	return x*cos - y*sin, x*sin + y*cos
}
