package encounter

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/entitymodel"
)

// State is the engine's top-level lifecycle: not-engaged ->
// engaged(current_phase) -> defeated | wiped.
type State int

const (
	StateNotEngaged State = iota
	StateEngaged
	StateDefeated
	StateWiped
)

// SnapshotFunc returns the current combatant set for target selection
// and coordination checks; injected so this package never reaches into
// zone state directly (the same callback shape zone.BroadcastFunc and
// creature.TemplateProvider use).
type SnapshotFunc func() TargetContext

// EffectSink receives resolved effects for the caller to apply to
// zone/entity state (damage, debuffs, spawns, ...); the engine itself
// never mutates entity health or position.
type EffectSink func(target entitymodel.GUID, eff Effect)

// abilityState tracks one ability's live cooldown/cast/armor state.
type abilityState struct {
	ability      Ability
	cooldownEnds time.Time
	armor        *InterruptArmor
	casting      bool
	castEnds     time.Time
}

// Engine runs one compiled Definition as a live boss fight. All
// mutating methods assume the caller holds the owning zone's
// single-writer discipline; Engine itself adds no further locking,
// mirroring how CreatureZoneManager trusts its caller's serialization
// instead of re-locking.
type Engine struct {
	def               *Definition
	state             State
	phase             *Phase
	phaseIdx          map[string]*Phase
	abilities         map[string]*abilityState
	bossHealth        int32
	bossMax           int32
	intermission      bool
	intermissionUntil time.Time

	rng  *rand.Rand
	snap SnapshotFunc
	sink EffectSink
	log  *zap.Logger
}

// New builds an Engine for def, not yet engaged. seed makes target
// selection and future replays reproducible.
func New(def *Definition, seed int64, snap SnapshotFunc, sink EffectSink, log *zap.Logger) (*Engine, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		def:        def,
		state:      StateNotEngaged,
		phaseIdx:   def.phaseIndex(),
		abilities:  make(map[string]*abilityState),
		bossHealth: def.Boss.MaxHealth,
		bossMax:    def.Boss.MaxHealth,
		rng:        rand.New(rand.NewSource(seed)),
		snap:       snap,
		sink:       sink,
		log:        log,
	}
	return e, nil
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State { return e.state }

// HealthPercent returns the boss's current health as 0..100.
func (e *Engine) HealthPercent() float64 {
	if e.bossMax <= 0 {
		return 0
	}
	return 100 * float64(e.bossHealth) / float64(e.bossMax)
}

// Engage transitions not-engaged -> engaged and selects the initial
// phase from the full-health condition.
func (e *Engine) Engage(now time.Time) {
	if e.state != StateNotEngaged {
		return
	}
	e.state = StateEngaged
	e.bossHealth = e.bossMax
	e.selectPhase(now)
}

// ApplyBossDamage reduces boss health and re-evaluates phase selection
// — current health percent is recomputed after every damage event to
// the boss. It returns the engine's state after the event.
func (e *Engine) ApplyBossDamage(now time.Time, amount int32) State {
	if e.state != StateEngaged {
		return e.state
	}
	e.bossHealth -= amount
	if e.bossHealth < 0 {
		e.bossHealth = 0
	}
	if e.bossHealth == 0 {
		e.onDefeat(now)
		return e.state
	}
	e.selectPhase(now)
	return e.state
}

// Wipe marks the encounter as wiped (all players dead within the
// encounter area), running on_wipe and resetting the boss to full
// health and not-engaged.
func (e *Engine) Wipe(now time.Time) {
	if e.state != StateEngaged {
		return
	}
	e.state = StateWiped
	e.runOnWipe()
	e.bossHealth = e.bossMax
	e.phase = nil
	e.abilities = make(map[string]*abilityState)
	e.intermission = false
	e.state = StateNotEngaged
}

func (e *Engine) onDefeat(now time.Time) {
	e.state = StateDefeated
	e.runOnDeath()
}

func (e *Engine) runOnDeath() {
	if e.log != nil {
		e.log.Info("encounter defeated", zap.Int32("boss_id", e.def.Boss.ID))
	}
}

func (e *Engine) runOnWipe() {
	if e.log != nil {
		e.log.Info("encounter wiped", zap.Int32("boss_id", e.def.Boss.ID))
	}
}

// selectPhase implements phase selection: pick the first phase whose
// condition matches current health percent; intermission phases are
// edge-triggered at an exact threshold and run for a fixed duration
// before control returns to health-based selection.
func (e *Engine) selectPhase(now time.Time) {
	if e.intermission {
		if now.Before(e.intermissionUntil) {
			return
		}
		e.intermission = false
	}
	pct := e.HealthPercent()
	for i := range e.def.Phases {
		p := &e.def.Phases[i]
		if p.Condition.Kind == CondIntermissionAt {
			if !e.intermission && pct <= p.Condition.AtPercent && (e.phase == nil || e.phase.Name != p.Name) {
				e.transitionTo(p, now)
				e.intermission = true
				e.intermissionUntil = now.Add(time.Duration(p.Condition.DurationMs) * time.Millisecond)
				return
			}
			continue
		}
		if p.Condition.Matches(pct) {
			if e.phase == nil || e.phase.Name != p.Name {
				e.transitionTo(p, now)
			}
			return
		}
	}
}

// transitionTo runs a phase transition: on-enter effects, ability-set
// diffing (cancel abilities not in the new effective set, reset
// cooldowns for the rest).
func (e *Engine) transitionTo(p *Phase, now time.Time) {
	e.phase = p
	effective := e.def.effectiveAbilities(e.phaseIdx, p, map[string]bool{p.Name: true})

	newAbilities := make(map[string]*abilityState, len(effective))
	for _, a := range effective {
		if existing, ok := e.abilities[a.Name]; ok {
			existing.ability = a
			existing.cooldownEnds = now
			existing.casting = false
			newAbilities[a.Name] = existing
			continue
		}
		armor := a.InterruptArmor
		if armor == 0 {
			armor = e.def.Boss.InterruptArmor
		}
		newAbilities[a.Name] = &abilityState{
			ability:      a,
			cooldownEnds: now,
			armor:        NewInterruptArmor(armor),
		}
	}
	e.abilities = newAbilities

	if e.sink != nil {
		for _, eff := range p.OnEnter {
			e.sink(entitymodel.GUID(0), eff)
		}
	}
	if e.log != nil {
		e.log.Info("encounter phase transition", zap.Int32("boss_id", e.def.Boss.ID), zap.String("phase", p.Name))
	}
}

// Modifiers returns the active phase's modifier set, or the zero value
// before engagement.
func (e *Engine) Modifiers() Modifiers {
	if e.phase == nil {
		return Modifiers{}
	}
	return e.phase.Modifiers
}

// ReadyAbilities returns the names of abilities whose cooldown has
// elapsed, which are not mid-cast and whose interrupt armor is not in
// its vulnerable window, in declaration order.
func (e *Engine) ReadyAbilities(now time.Time) []string {
	if e.phase == nil {
		return nil
	}
	var ready []string
	effective := e.def.effectiveAbilities(e.phaseIdx, e.phase, map[string]bool{e.phase.Name: true})
	for _, a := range effective {
		st, ok := e.abilities[a.Name]
		if !ok || st.casting {
			continue
		}
		if now.Before(st.cooldownEnds) {
			continue
		}
		if st.armor.Vulnerable() {
			continue
		}
		ready = append(ready, a.Name)
	}
	return ready
}

// BeginCast starts name's cast, selecting targets via the ability's
// TargetSelector and emitting its telegraph effects. It returns the
// selected targets. The other effects land only when ResolveCast is
// called, even when CastTimeMs is zero.
func (e *Engine) BeginCast(name string, now time.Time) []entitymodel.GUID {
	st, ok := e.abilities[name]
	if !ok {
		return nil
	}
	var ctx TargetContext
	if e.snap != nil {
		ctx = e.snap()
	}
	ctx.RNG = e.rng
	targets := st.ability.Target.Resolve(ctx)

	st.casting = true
	st.castEnds = now.Add(time.Duration(st.ability.CastTimeMs) * time.Millisecond)
	st.cooldownEnds = st.castEnds.Add(time.Duration(st.ability.CooldownMs) * time.Millisecond)

	if e.sink != nil {
		for _, t := range targets {
			for _, eff := range st.ability.Effects {
				if eff.Kind == EffectTelegraph {
					e.sink(t, eff)
				}
			}
		}
	}
	return targets
}

// ImpactDelay returns how long after BeginCast name's effects land:
// cast time plus the longest telegraph display window among its
// effects (telegraph duration plus delay).
func (e *Engine) ImpactDelay(name string) time.Duration {
	st, ok := e.abilities[name]
	if !ok {
		return 0
	}
	delay := time.Duration(st.ability.CastTimeMs) * time.Millisecond
	var longest uint32
	for _, eff := range st.ability.Effects {
		if eff.Kind != EffectTelegraph || eff.Telegraph == nil {
			continue
		}
		if window := eff.Telegraph.TelegraphDurationMs + eff.Telegraph.DelayMs; window > longest {
			longest = window
		}
	}
	return delay + time.Duration(longest)*time.Millisecond
}

// ResolveCast applies name's non-telegraph effects to targets at
// impact time and clears its casting flag. Call this once the
// ability's cast/telegraph delay has elapsed. Coordination effects are
// checked predicates, not per-target payloads: they resolve here
// against the full combatant snapshot and feed their per-player damage
// back through the sink as plain damage effects.
func (e *Engine) ResolveCast(name string, targets []entitymodel.GUID, now time.Time) {
	st, ok := e.abilities[name]
	if !ok {
		return
	}
	st.casting = false
	if e.sink == nil {
		return
	}
	for _, eff := range st.ability.Effects {
		switch eff.Kind {
		case EffectTelegraph:
			continue
		case EffectCoordination:
			e.resolveCoordination(eff, targets)
			continue
		}
		for _, t := range targets {
			e.sink(t, eff)
		}
	}
}

// resolveCoordination runs one coordination mechanic's check at impact
// time. The mechanic anchors on the first selected target's position
// (the marker carrier) and falls back to the boss when the ability
// selected nobody; the check itself always sees every combatant, since
// grouping and spacing are raid-wide concerns.
func (e *Engine) resolveCoordination(eff Effect, targets []entitymodel.GUID) {
	if eff.Coordination == nil || e.snap == nil {
		return
	}
	ctx := e.snap()
	center := ctx.BossPosition
	if len(targets) > 0 {
		for _, c := range ctx.Combatants {
			if c.GUID == targets[0] {
				center = c.Position
				break
			}
		}
	}

	result := eff.Coordination.Resolve(center, ctx.Combatants)
	for _, c := range sortedByGUID(ctx.Combatants) {
		dmg, hit := result.Damage[c.GUID]
		if !hit || dmg <= 0 {
			continue
		}
		e.sink(c.GUID, Effect{Kind: EffectDamage, Damage: &DamageParams{BaseDamage: int(dmg)}})
	}
}

// Interrupt applies one interrupt attempt to name's in-progress cast.
// If it breaks the cast, the ability's on_interrupt effect (an
// EffectInterruptHandler entry in its Effects) fires and the cast ends
// without resolving its damage/debuff effects.
func (e *Engine) Interrupt(name string, now time.Time) (broke bool) {
	st, ok := e.abilities[name]
	if !ok || !st.casting || !st.ability.Interruptible {
		return false
	}
	if !st.armor.Attempt() {
		return false
	}
	st.casting = false
	if e.sink != nil {
		for _, eff := range st.ability.Effects {
			if eff.Kind == EffectInterruptHandler {
				e.sink(entitymodel.GUID(0), eff)
			}
		}
	}
	return true
}

// RecoverArmor restores name's interrupt armor after its recovery
// window, or whenever the encounter says it should come back.
func (e *Engine) RecoverArmor(name string) {
	st, ok := e.abilities[name]
	if !ok {
		return
	}
	armor := st.ability.InterruptArmor
	if armor == 0 {
		armor = e.def.Boss.InterruptArmor
	}
	st.armor.Reset(armor)
}
