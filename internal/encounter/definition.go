// Package encounter implements EncounterEngine: the interpreter for a
// compiled boss encounter definition — phases, abilities, effects,
// telegraphs, coordination mechanics, and interrupt armor. The engine
// holds injected callbacks for snapshots and effect application so it
// never imports the owning zone package, and target-selection
// tie-breaks (lower GUID) are deterministic wherever order is
// observable.
package encounter

import (
	"fmt"

	"github.com/wyrmwatch/core/internal/wyerr"
)

// Condition selects when a Phase is active, evaluated against the
// boss's current health percent (0..100) after every damage event.
type ConditionKind int

const (
	CondAlways ConditionKind = iota
	CondHealthAbove
	CondHealthBelow
	CondHealthBetween
	CondIntermissionAt
)

// Condition is a Phase's activation predicate.
type Condition struct {
	Kind       ConditionKind
	Above      float64 // CondHealthAbove/CondHealthBetween lower bound
	Below      float64 // CondHealthBelow/CondHealthBetween upper bound
	AtPercent  float64 // CondIntermissionAt exact threshold
	DurationMs uint32  // CondIntermissionAt fixed duration
}

// Matches reports whether healthPct (0..100) satisfies c. Intermission
// is handled by the engine separately (it needs edge-triggering, not a
// steady-state predicate), so Matches always returns false for it —
// callers must special-case CondIntermissionAt before calling Matches.
func (c Condition) Matches(healthPct float64) bool {
	switch c.Kind {
	case CondAlways:
		return true
	case CondHealthAbove:
		return healthPct > c.Above
	case CondHealthBelow:
		return healthPct < c.Below
	case CondHealthBetween:
		return healthPct >= c.Above && healthPct <= c.Below
	default:
		return false
	}
}

// Modifiers are the multiplicative/flag adjustments a Phase applies
// while active.
type Modifiers struct {
	DamageReduction float64 // 0..1, fraction of incoming damage negated
	AttackSpeed     float64 // multiplier, 1.0 = unchanged
	MovementSpeed   float64
	Enrage          bool
}

// Phase is one named stanza of the fight.
type Phase struct {
	Name        string
	Condition   Condition
	InheritFrom string // name of another phase, or "" for none
	Modifiers   Modifiers
	Abilities   []Ability
	OnEnter     []Effect
}

// Ability is one castable action a boss (or a phase's adds) can use.
type Ability struct {
	Name           string
	CooldownMs     uint32
	CastTimeMs     uint32
	Target         TargetSelector
	Interruptible  bool
	InterruptArmor int // 0 means "use the encounter default"
	Effects        []Effect
}

// Boss is the immutable top-level identity and base stats a Definition
// describes.
type Boss struct {
	ID             int32
	Name           string
	Level          int32
	MaxHealth      int32
	EnrageTimerMs  uint32
	InterruptArmor int
}

// Definition is a fully compiled, validated encounter — the only
// input shape the runtime consumes; the authoring syntax compiles
// down to this.
type Definition struct {
	Boss   Boss
	Phases []Phase
}

// effectiveAbilities returns phase p's ability set unioned with its
// inherited chain, resolving InheritFrom recursively. byName indexes
// def.Phases by Name. Cycles are rejected by Validate before this is
// ever called at runtime.
func (d *Definition) effectiveAbilities(byName map[string]*Phase, p *Phase, seen map[string]bool) []Ability {
	abilities := append([]Ability(nil), p.Abilities...)
	if p.InheritFrom == "" {
		return abilities
	}
	if seen[p.InheritFrom] {
		return abilities // cycle guard; Validate should have already rejected this
	}
	seen[p.InheritFrom] = true
	parent, ok := byName[p.InheritFrom]
	if !ok {
		return abilities
	}
	parentAbilities := d.effectiveAbilities(byName, parent, seen)
	byAbilityName := make(map[string]bool, len(abilities))
	for _, a := range abilities {
		byAbilityName[a.Name] = true
	}
	for _, a := range parentAbilities {
		if !byAbilityName[a.Name] {
			abilities = append(abilities, a)
		}
	}
	return abilities
}

// phaseIndex builds the name -> *Phase lookup effectiveAbilities needs.
func (d *Definition) phaseIndex() map[string]*Phase {
	idx := make(map[string]*Phase, len(d.Phases))
	for i := range d.Phases {
		idx[d.Phases[i].Name] = &d.Phases[i]
	}
	return idx
}

// EffectiveAbilities is the public form of effectiveAbilities, used by
// the engine on every phase transition.
func (d *Definition) EffectiveAbilities(phaseName string) []Ability {
	idx := d.phaseIndex()
	p, ok := idx[phaseName]
	if !ok {
		return nil
	}
	return d.effectiveAbilities(idx, p, map[string]bool{phaseName: true})
}

// Validate checks the compiled shape's load-time invariants:
// inherit_from cycle detection, and that every InheritFrom name
// resolves to a real phase.
func (d *Definition) Validate() error {
	idx := d.phaseIndex()
	for _, p := range d.Phases {
		if p.InheritFrom == "" {
			continue
		}
		if err := checkNoCycle(idx, p.Name, p.InheritFrom, map[string]bool{p.Name: true}); err != nil {
			return err
		}
	}
	return nil
}

func checkNoCycle(idx map[string]*Phase, origin, next string, visited map[string]bool) error {
	if visited[next] {
		return fmt.Errorf("encounter phase %q: inherit_from cycle through %q: %w", origin, next, wyerr.ErrValidation)
	}
	parent, ok := idx[next]
	if !ok {
		return fmt.Errorf("encounter phase %q: inherit_from %q not found: %w", origin, next, wyerr.ErrContent)
	}
	visited[next] = true
	if parent.InheritFrom == "" {
		return nil
	}
	return checkNoCycle(idx, origin, parent.InheritFrom, visited)
}
