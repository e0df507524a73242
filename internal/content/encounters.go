package content

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/encounter"
	"github.com/wyrmwatch/core/internal/spatial"
	"github.com/wyrmwatch/core/internal/wyerr"
)

// encounters.json holds the compiled boss encounter definitions. The
// authoring syntax is out of scope; this file is its compiled output,
// validated at load (inherit_from cycles, interrupt-armor consistency).
const kindEncounters = "encounters.json"

type encounterFile struct {
	Encounters []encounterRecord `json:"encounters"`
}

type encounterRecord struct {
	Boss   bossRecord    `json:"boss"`
	Phases []phaseRecord `json:"phases"`
}

type bossRecord struct {
	ID             int32  `json:"id"`
	Name           string `json:"name"`
	Level          int32  `json:"level"`
	MaxHealth      int32  `json:"max_health"`
	EnrageTimerMs  uint32 `json:"enrage_timer_ms"`
	InterruptArmor int    `json:"interrupt_armor"`
}

type phaseRecord struct {
	Name        string          `json:"name"`
	Condition   conditionRecord `json:"condition"`
	InheritFrom string          `json:"inherit_from"`
	Modifiers   modifiersRecord `json:"modifiers"`
	Abilities   []abilityRecord `json:"abilities"`
	OnEnter     []effectRecord  `json:"on_enter"`
}

type conditionRecord struct {
	Kind       string  `json:"kind"` // health_above, health_below, health_between, always, intermission_at
	Above      float64 `json:"above"`
	Below      float64 `json:"below"`
	AtPercent  float64 `json:"at_percent"`
	DurationMs uint32  `json:"duration_ms"`
}

type modifiersRecord struct {
	DamageReduction float64 `json:"damage_reduction"`
	AttackSpeed     float64 `json:"attack_speed"`
	MovementSpeed   float64 `json:"movement_speed"`
	Enrage          bool    `json:"enrage"`
}

type abilityRecord struct {
	Name           string         `json:"name"`
	CooldownMs     uint32         `json:"cooldown_ms"`
	CastTimeMs     uint32         `json:"cast_time_ms"`
	Target         selectorRecord `json:"target"`
	Interruptible  bool           `json:"interruptible"`
	InterruptArmor int            `json:"interrupt_armor"`
	Effects        []effectRecord `json:"effects"`
}

type selectorRecord struct {
	Kind          string  `json:"kind"` // tank, second_threat, farthest, nearest, lowest_health, random, random_n, marked, chain
	N             int     `json:"n"`
	MarkedTag     string  `json:"marked_tag"`
	ChainRange    float64 `json:"chain_range"`
	DamageFalloff float64 `json:"damage_falloff"`
}

type shapeRecord struct {
	Kind         string  `json:"kind"` // circle, cone, line, rectangle, donut, cross, room_wide, wave
	RadiusU      float64 `json:"radius_u"`
	InnerRadiusU float64 `json:"inner_radius_u"`
	AngleDeg     float64 `json:"angle_deg"`
	LengthU      float64 `json:"length_u"`
	WidthU       float64 `json:"width_u"`
	SpeedUPerSec float64 `json:"speed_u_per_sec"`
}

// effectRecord is the JSON form of encounter.Effect: a kind tag plus
// the parameter object for that kind.
type effectRecord struct {
	Kind string `json:"kind"`

	// telegraph
	Shape               *shapeRecord `json:"shape"`
	RotationDeg         float64      `json:"rotation_deg"`
	TelegraphDurationMs uint32       `json:"telegraph_duration_ms"`
	DelayMs             uint32       `json:"delay_ms"`
	Color               uint8        `json:"color"`

	// damage / heal
	BaseDamage           int     `json:"base_damage"`
	Amount               int     `json:"amount"`
	DamageFalloffPerJump float64 `json:"damage_falloff_per_jump"`

	// debuff / buff
	Name       string  `json:"name"`
	DurationMs uint32  `json:"duration_ms"`
	Magnitude  float64 `json:"magnitude"`

	// movement
	MovementKind string      `json:"movement_kind"`
	DistanceU    float64     `json:"distance_u"`
	ToPosition   *[3]float64 `json:"to_position"`

	// spawn
	CreatureID int32      `json:"creature_id"`
	Position   [3]float64 `json:"position"`
	Count      int        `json:"count"`

	// environmental
	HazardID string `json:"hazard_id"`
	Active   bool   `json:"active"`

	// coordination
	Coordination *coordinationRecord `json:"coordination"`

	// targeting
	Selector *selectorRecord `json:"selector"`

	// interrupt handler
	HandlerKind      string  `json:"handler_kind"` // stun, vulnerable, moo, knockdown, phase_skip
	VulnerabilityPct float64 `json:"vulnerability_pct"`
	SkipToPhase      string  `json:"skip_to_phase"`
}

type coordinationRecord struct {
	Kind              string  `json:"kind"` // stack, spread, soak, tether, pass, chain
	CenterRadiusU     float64 `json:"center_radius_u"`
	MinPlayers        int     `json:"min_players"`
	Split             bool    `json:"split"`
	Damage            int     `json:"damage"`
	BaseDamage        int     `json:"base_damage"`
	FailureDamage     int     `json:"failure_damage"`
	RequiredDistanceU float64 `json:"required_distance_u"`
	RequiredPlayers   int     `json:"required_players"`
	DamagePerMissing  int     `json:"damage_per_missing"`
	TooCloseDamage    int     `json:"too_close_damage"`
	BreakDamage       int     `json:"break_damage"`
	MinDistanceU      float64 `json:"min_distance_u"`
	MaxDistanceU      float64 `json:"max_distance_u"`
	DamageOnExpire    int     `json:"damage_on_expire"`
	TimeoutMs         uint32  `json:"timeout_ms"`
	StackOnSame       bool    `json:"stack_on_same"`
	DamagePerBreak    int     `json:"damage_per_break"`
}

// LoadEncounters reads and validates every compiled encounter
// definition under root. A missing file is an empty (but valid)
// roster; a malformed definition fails the whole load, since a half-
// loaded boss is worse than a boot error.
func LoadEncounters(root string, log *zap.Logger) (map[int32]*encounter.Definition, error) {
	path := filepath.Join(root, kindEncounters)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[int32]*encounter.Definition{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", kindEncounters, err)
	}

	var file encounterFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", kindEncounters, err)
	}

	defs := make(map[int32]*encounter.Definition, len(file.Encounters))
	for _, rec := range file.Encounters {
		def, err := compileEncounter(rec)
		if err != nil {
			return nil, fmt.Errorf("encounter %q: %w", rec.Boss.Name, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("encounter %q: %w", rec.Boss.Name, err)
		}
		defs[def.Boss.ID] = def
	}
	log.Info("encounter definitions loaded", zap.Int("count", len(defs)))
	return defs, nil
}

func compileEncounter(rec encounterRecord) (*encounter.Definition, error) {
	def := &encounter.Definition{
		Boss: encounter.Boss{
			ID:             rec.Boss.ID,
			Name:           rec.Boss.Name,
			Level:          rec.Boss.Level,
			MaxHealth:      rec.Boss.MaxHealth,
			EnrageTimerMs:  rec.Boss.EnrageTimerMs,
			InterruptArmor: rec.Boss.InterruptArmor,
		},
	}
	if def.Boss.InterruptArmor < 0 {
		return nil, fmt.Errorf("negative interrupt armor: %w", wyerr.ErrValidation)
	}
	for _, p := range rec.Phases {
		phase, err := compilePhase(p)
		if err != nil {
			return nil, fmt.Errorf("phase %q: %w", p.Name, err)
		}
		def.Phases = append(def.Phases, phase)
	}
	return def, nil
}

func compilePhase(rec phaseRecord) (encounter.Phase, error) {
	cond, err := compileCondition(rec.Condition)
	if err != nil {
		return encounter.Phase{}, err
	}
	phase := encounter.Phase{
		Name:        rec.Name,
		Condition:   cond,
		InheritFrom: rec.InheritFrom,
		Modifiers: encounter.Modifiers{
			DamageReduction: rec.Modifiers.DamageReduction,
			AttackSpeed:     rec.Modifiers.AttackSpeed,
			MovementSpeed:   rec.Modifiers.MovementSpeed,
			Enrage:          rec.Modifiers.Enrage,
		},
	}
	for _, a := range rec.Abilities {
		ability, err := compileAbility(a)
		if err != nil {
			return encounter.Phase{}, fmt.Errorf("ability %q: %w", a.Name, err)
		}
		phase.Abilities = append(phase.Abilities, ability)
	}
	for _, e := range rec.OnEnter {
		eff, err := compileEffect(e)
		if err != nil {
			return encounter.Phase{}, fmt.Errorf("on_enter effect: %w", err)
		}
		phase.OnEnter = append(phase.OnEnter, eff)
	}
	return phase, nil
}

func compileCondition(rec conditionRecord) (encounter.Condition, error) {
	switch rec.Kind {
	case "always", "":
		return encounter.Condition{Kind: encounter.CondAlways}, nil
	case "health_above":
		return encounter.Condition{Kind: encounter.CondHealthAbove, Above: rec.Above}, nil
	case "health_below":
		return encounter.Condition{Kind: encounter.CondHealthBelow, Below: rec.Below}, nil
	case "health_between":
		return encounter.Condition{Kind: encounter.CondHealthBetween, Above: rec.Above, Below: rec.Below}, nil
	case "intermission_at":
		return encounter.Condition{Kind: encounter.CondIntermissionAt, AtPercent: rec.AtPercent, DurationMs: rec.DurationMs}, nil
	default:
		return encounter.Condition{}, fmt.Errorf("condition kind %q: %w", rec.Kind, wyerr.ErrValidation)
	}
}

func compileAbility(rec abilityRecord) (encounter.Ability, error) {
	sel, err := compileSelector(rec.Target)
	if err != nil {
		return encounter.Ability{}, err
	}
	ability := encounter.Ability{
		Name:           rec.Name,
		CooldownMs:     rec.CooldownMs,
		CastTimeMs:     rec.CastTimeMs,
		Target:         sel,
		Interruptible:  rec.Interruptible,
		InterruptArmor: rec.InterruptArmor,
	}
	for _, e := range rec.Effects {
		eff, err := compileEffect(e)
		if err != nil {
			return encounter.Ability{}, err
		}
		ability.Effects = append(ability.Effects, eff)
	}
	return ability, nil
}

func compileSelector(rec selectorRecord) (encounter.TargetSelector, error) {
	kinds := map[string]encounter.SelectorKind{
		"tank":          encounter.SelTank,
		"":              encounter.SelTank,
		"second_threat": encounter.SelSecondThreat,
		"farthest":      encounter.SelFarthest,
		"nearest":       encounter.SelNearest,
		"lowest_health": encounter.SelLowestHealth,
		"random":        encounter.SelRandom,
		"random_n":      encounter.SelRandomN,
		"marked":        encounter.SelMarked,
		"chain":         encounter.SelChain,
	}
	kind, ok := kinds[rec.Kind]
	if !ok {
		return encounter.TargetSelector{}, fmt.Errorf("selector kind %q: %w", rec.Kind, wyerr.ErrValidation)
	}
	return encounter.TargetSelector{
		Kind:          kind,
		N:             rec.N,
		MarkedTag:     rec.MarkedTag,
		ChainRange:    rec.ChainRange,
		DamageFalloff: rec.DamageFalloff,
	}, nil
}

func compileShape(rec shapeRecord) (encounter.Shape, error) {
	kinds := map[string]encounter.ShapeKind{
		"circle":    encounter.ShapeCircle,
		"cone":      encounter.ShapeCone,
		"line":      encounter.ShapeLine,
		"rectangle": encounter.ShapeRectangle,
		"donut":     encounter.ShapeDonut,
		"cross":     encounter.ShapeCross,
		"room_wide": encounter.ShapeRoomWide,
		"wave":      encounter.ShapeWave,
	}
	kind, ok := kinds[rec.Kind]
	if !ok {
		return encounter.Shape{}, fmt.Errorf("shape kind %q: %w", rec.Kind, wyerr.ErrValidation)
	}
	return encounter.Shape{
		Kind:         kind,
		RadiusU:      rec.RadiusU,
		InnerRadiusU: rec.InnerRadiusU,
		AngleDeg:     rec.AngleDeg,
		LengthU:      rec.LengthU,
		WidthU:       rec.WidthU,
		SpeedUPerSec: rec.SpeedUPerSec,
	}, nil
}

func compileEffect(rec effectRecord) (encounter.Effect, error) {
	switch rec.Kind {
	case "telegraph":
		if rec.Shape == nil {
			return encounter.Effect{}, fmt.Errorf("telegraph without shape: %w", wyerr.ErrValidation)
		}
		shape, err := compileShape(*rec.Shape)
		if err != nil {
			return encounter.Effect{}, err
		}
		return encounter.Effect{Kind: encounter.EffectTelegraph, Telegraph: &encounter.TelegraphParams{
			Shape:               shape,
			RotationDeg:         rec.RotationDeg,
			TelegraphDurationMs: rec.TelegraphDurationMs,
			DelayMs:             rec.DelayMs,
			Color:               rec.Color,
		}}, nil
	case "damage":
		params := &encounter.DamageParams{
			BaseDamage:           rec.BaseDamage,
			DamageFalloffPerJump: rec.DamageFalloffPerJump,
		}
		if rec.Shape != nil {
			shape, err := compileShape(*rec.Shape)
			if err != nil {
				return encounter.Effect{}, err
			}
			params.Shape = &shape
		}
		return encounter.Effect{Kind: encounter.EffectDamage, Damage: params}, nil
	case "debuff":
		return encounter.Effect{Kind: encounter.EffectDebuff, Debuff: &encounter.DebuffParams{
			Name: rec.Name, DurationMs: rec.DurationMs, Magnitude: rec.Magnitude,
		}}, nil
	case "buff":
		return encounter.Effect{Kind: encounter.EffectBuff, Buff: &encounter.BuffParams{
			Name: rec.Name, DurationMs: rec.DurationMs, Magnitude: rec.Magnitude,
		}}, nil
	case "heal":
		return encounter.Effect{Kind: encounter.EffectHeal, Heal: &encounter.HealParams{Amount: rec.Amount}}, nil
	case "movement":
		params := &encounter.MovementParams{Kind: rec.MovementKind, DistanceU: rec.DistanceU}
		if rec.ToPosition != nil {
			params.ToPosition = &spatial.Vec3{X: rec.ToPosition[0], Y: rec.ToPosition[1], Z: rec.ToPosition[2]}
		}
		return encounter.Effect{Kind: encounter.EffectMovement, Movement: params}, nil
	case "spawn":
		return encounter.Effect{Kind: encounter.EffectSpawn, Spawn: &encounter.SpawnParams{
			CreatureID: rec.CreatureID,
			Position:   spatial.Vec3{X: rec.Position[0], Y: rec.Position[1], Z: rec.Position[2]},
			Count:      rec.Count,
		}}, nil
	case "environmental":
		return encounter.Effect{Kind: encounter.EffectEnvironmental, Environmental: &encounter.EnvironmentalParams{
			HazardID: rec.HazardID, Active: rec.Active, DurationMs: rec.DurationMs,
		}}, nil
	case "coordination":
		if rec.Coordination == nil {
			return encounter.Effect{}, fmt.Errorf("coordination without params: %w", wyerr.ErrValidation)
		}
		return compileCoordination(*rec.Coordination)
	case "targeting":
		if rec.Selector == nil {
			return encounter.Effect{}, fmt.Errorf("targeting without selector: %w", wyerr.ErrValidation)
		}
		sel, err := compileSelector(*rec.Selector)
		if err != nil {
			return encounter.Effect{}, err
		}
		return encounter.Effect{Kind: encounter.EffectTargeting, Targeting: &encounter.TargetingParams{Selector: sel}}, nil
	case "fixate":
		return encounter.Effect{Kind: encounter.EffectFixate, Fixate: &encounter.FixateParams{DurationMs: rec.DurationMs}}, nil
	case "interrupt_handler":
		kinds := map[string]encounter.InterruptHandlerKind{
			"stun":       encounter.InterruptStun,
			"vulnerable": encounter.InterruptVulnerable,
			"moo":        encounter.InterruptMoO,
			"knockdown":  encounter.InterruptKnockdown,
			"phase_skip": encounter.InterruptPhaseSkip,
		}
		kind, ok := kinds[rec.HandlerKind]
		if !ok {
			return encounter.Effect{}, fmt.Errorf("interrupt handler kind %q: %w", rec.HandlerKind, wyerr.ErrValidation)
		}
		return encounter.Effect{Kind: encounter.EffectInterruptHandler, InterruptHandler: &encounter.InterruptHandlerParams{
			Kind:             kind,
			DurationMs:       rec.DurationMs,
			VulnerabilityPct: rec.VulnerabilityPct,
			SkipToPhase:      rec.SkipToPhase,
		}}, nil
	default:
		return encounter.Effect{}, fmt.Errorf("effect kind %q: %w", rec.Kind, wyerr.ErrValidation)
	}
}

func compileCoordination(rec coordinationRecord) (encounter.Effect, error) {
	kinds := map[string]encounter.CoordinationKind{
		"stack":  encounter.CoordStack,
		"spread": encounter.CoordSpread,
		"soak":   encounter.CoordSoak,
		"tether": encounter.CoordTether,
		"pass":   encounter.CoordPass,
		"chain":  encounter.CoordChain,
	}
	kind, ok := kinds[rec.Kind]
	if !ok {
		return encounter.Effect{}, fmt.Errorf("coordination kind %q: %w", rec.Kind, wyerr.ErrValidation)
	}
	return encounter.Effect{Kind: encounter.EffectCoordination, Coordination: &encounter.CoordinationParams{
		Kind:              kind,
		CenterRadiusU:     rec.CenterRadiusU,
		MinPlayers:        rec.MinPlayers,
		Split:             rec.Split,
		Damage:            rec.Damage,
		BaseDamage:        rec.BaseDamage,
		FailureDamage:     rec.FailureDamage,
		RequiredDistanceU: rec.RequiredDistanceU,
		RequiredPlayers:   rec.RequiredPlayers,
		DamagePerMissing:  rec.DamagePerMissing,
		TooCloseDamage:    rec.TooCloseDamage,
		BreakDamage:       rec.BreakDamage,
		MinDistanceU:      rec.MinDistanceU,
		MaxDistanceU:      rec.MaxDistanceU,
		DamageOnExpire:    rec.DamageOnExpire,
		TimeoutMs:         rec.TimeoutMs,
		StackOnSame:       rec.StackOnSame,
		DamagePerBreak:    rec.DamagePerBreak,
	}}, nil
}
