// Package creature implements CreatureZoneManager: the per-zone fixed-
// interval AI tick, combat scheduling, damage routing, and respawn
// timers for every creature entity a ZoneInstance owns.
package creature

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/formula"
	"github.com/wyrmwatch/core/internal/netio/packet"
	"github.com/wyrmwatch/core/internal/spatial"
	"github.com/wyrmwatch/core/internal/wyerr"
	"github.com/wyrmwatch/core/internal/zone"
)

// Template is the subset of a creature's content-catalog record the
// manager needs. Kept as a narrow interface-shaped struct instead of
// importing internal/catalog directly, so creature has no dependency
// on how templates are loaded.
type Template struct {
	ID             int32
	MinDamage      int
	MaxDamage      int
	Armor          int
	AttackRange    float64
	AttackCooldown time.Duration
	MoveSpeed      float64       // units per second
	RespawnTime    time.Duration // zero means no respawn
	XPBase         int64
}

// TemplateProvider resolves a creature's template by id.
type TemplateProvider func(templateID int32) (Template, bool)

// KillOutcome is returned by DamageCreature when the hit is lethal.
type KillOutcome struct {
	GUID   entitymodel.GUID
	XP     int64
	Killer entitymodel.GUID
}

// DamageOutcome is returned by DamageCreature when the creature survives.
type DamageOutcome struct {
	Remaining int32
	Max       int32
}

// Manager runs inside one ZoneInstance's goroutine; it is not safe to
// share across zones.
type Manager struct {
	zone     *zone.Instance
	formula  *formula.Engine
	template TemplateProvider
	log      *zap.Logger

	combatTimeout time.Duration
	batchCap      int
	deferred      []entitymodel.GUID // FIFO carryover from a capped tick

	respawns map[entitymodel.GUID]time.Time
	rng      *rand.Rand
}

func NewManager(z *zone.Instance, f *formula.Engine, tp TemplateProvider, combatTimeout time.Duration, batchCap int, log *zap.Logger) *Manager {
	return &Manager{
		zone:          z,
		formula:       f,
		template:      tp,
		combatTimeout: combatTimeout,
		batchCap:      batchCap,
		respawns:      make(map[entitymodel.GUID]time.Time),
		rng:           rand.New(rand.NewSource(1)),
		log:           log,
	}
}

// Tick runs one AI pass: respawns whose timer has fired, then up to
// batchCap creatures that need processing (combat, evade, or a
// non-empty threat table), carrying any remainder to the next call in
// FIFO order so no eligible creature starves.
func (m *Manager) Tick(now time.Time, allCreatures []entitymodel.GUID) {
	m.processRespawns(now)

	eligible := m.deferred
	m.deferred = nil
	queued := make(map[entitymodel.GUID]bool, len(eligible))
	for _, g := range eligible {
		queued[g] = true
	}
	for _, g := range allCreatures {
		if !queued[g] && m.needsProcessing(g) {
			eligible = append(eligible, g)
		}
	}

	n := len(eligible)
	if n > m.batchCap {
		n = m.batchCap
	}
	for _, g := range eligible[:n] {
		if err := m.tickOne(now, g); err != nil {
			m.log.Error("creature tick failed", zap.Uint64("guid", uint64(g)), zap.Error(err))
		}
	}
	m.deferred = append(m.deferred, eligible[n:]...)
}

func (m *Manager) needsProcessing(g entitymodel.GUID) bool {
	st, ok := m.zone.AIState(g)
	if !ok {
		return false
	}
	return st.State == entitymodel.AICombat || st.State == entitymodel.AIEvade || len(st.ThreatTable) > 0
}

func (m *Manager) tickOne(now time.Time, g entitymodel.GUID) error {
	st, ok := m.zone.AIState(g)
	if !ok {
		return fmt.Errorf("tick creature %d: %w", g, wyerr.ErrNotFound)
	}

	switch st.State {
	case entitymodel.AICombat:
		if st.ShouldExitCombat(now, m.combatTimeout) {
			st.State = entitymodel.AIIdle
			return nil
		}
		return m.tickCombat(now, g, st)
	case entitymodel.AIEvade:
		return m.tickEvade(g, st)
	}
	return nil
}

func (m *Manager) tickCombat(now time.Time, g entitymodel.GUID, st *entitymodel.AIState) error {
	target, ok := st.TopThreat()
	if !ok {
		return nil
	}
	e, ok := m.zone.GetEntityDirect(g)
	if !ok {
		return fmt.Errorf("tick combat %d: %w", g, wyerr.ErrNotFound)
	}
	targetEntity, ok := m.zone.GetEntityDirect(target)
	if !ok {
		st.RemoveThreat(target)
		return nil
	}

	tpl, ok := m.template(e.Creature.CreatureTemplateID)
	if !ok {
		return fmt.Errorf("tick combat %d: creature template: %w", g, wyerr.ErrContent)
	}

	dist := chebyshev(e.Position, targetEntity.Position)
	if dist > tpl.AttackRange {
		return m.zone.UpdateEntityPositionDirect(g, stepToward(e.Position, targetEntity.Position, tpl.MoveSpeed))
	}
	if now.Sub(st.LastAttackTime) < tpl.AttackCooldown {
		return nil
	}

	st.LastAttackTime = now
	roll := m.formula.CalcMelee(formula.MeleeContext{
		AttackerLevel:  int(e.Level),
		AttackerMinDmg: tpl.MinDamage,
		AttackerMaxDmg: tpl.MaxDamage,
		TargetArmor:    0,
		TargetLevel:    int(targetEntity.Level),
	})
	if !roll.IsHit {
		return nil
	}
	var remaining int32
	err := m.zone.UpdateEntityDirect(target, func(victim *entitymodel.Entity) {
		victim.Health -= int32(roll.Damage)
		if victim.Health < 0 {
			victim.Health = 0
		}
		remaining = victim.Health
	})
	if err != nil {
		return err
	}

	if targetEntity.Type == entitymodel.TypePlayer {
		m.zone.BroadcastDirect(packet.ServerSpellEffect{
			CasterGUID: uint64(g),
			TargetGUID: uint64(target),
			Amount:     -int32(roll.Damage),
		}.Encode())
		if remaining == 0 {
			st.RemoveThreat(target)
			m.zone.BroadcastDirect(packet.ServerPlayerDeath{
				PlayerGUID: uint64(target),
				KillerGUID: uint64(g),
				DeathType:  packet.DeathCombat,
			}.Encode())
		}
	}
	return nil
}

func (m *Manager) tickEvade(g entitymodel.GUID, st *entitymodel.AIState) error {
	e, ok := m.zone.GetEntityDirect(g)
	if !ok {
		return fmt.Errorf("tick evade %d: %w", g, wyerr.ErrNotFound)
	}
	if chebyshev(e.Position, st.SpawnPosition) <= 1 {
		st.State = entitymodel.AIIdle
		return m.zone.UpdateEntityDirect(g, func(ent *entitymodel.Entity) {
			ent.Health = ent.MaxHealth
			ent.Position = st.SpawnPosition
		})
	}
	tpl, ok := m.template(e.Creature.CreatureTemplateID)
	if !ok {
		tpl.MoveSpeed = 1
	}
	return m.zone.UpdateEntityPositionDirect(g, stepToward(e.Position, st.SpawnPosition, tpl.MoveSpeed))
}

// DamageCreature routes one hit into a creature: clamp health, accrue
// threat, enter combat, and on a lethal hit transition to dead and arm
// the respawn timer.
func (m *Manager) DamageCreature(now time.Time, creatureGUID, attackerGUID entitymodel.GUID, amount int32) (any, error) {
	st, ok := m.zone.AIState(creatureGUID)
	if !ok {
		return nil, fmt.Errorf("damage creature %d: %w", creatureGUID, wyerr.ErrNotFound)
	}

	var killed bool
	var remaining, max int32
	err := m.zone.UpdateEntityDirect(creatureGUID, func(e *entitymodel.Entity) {
		e.Health -= amount
		if e.Health < 0 {
			e.Health = 0
		}
		remaining, max = e.Health, e.MaxHealth
		killed = e.Health == 0
	})
	if err != nil {
		return nil, err
	}

	st.AddThreat(attackerGUID, int64(amount))
	st.EnterCombat(now)

	if !killed {
		return DamageOutcome{Remaining: remaining, Max: max}, nil
	}

	st.Die()
	e, _ := m.zone.GetEntityDirect(creatureGUID)
	xp := int64(0)
	if tpl, ok := m.template(e.Creature.CreatureTemplateID); ok {
		xp = tpl.XPBase
		if tpl.RespawnTime > 0 {
			m.respawns[creatureGUID] = now.Add(tpl.RespawnTime)
		}
	}
	return KillOutcome{GUID: creatureGUID, XP: xp, Killer: attackerGUID}, nil
}

func (m *Manager) processRespawns(now time.Time) {
	for g, at := range m.respawns {
		if now.Before(at) {
			continue
		}
		delete(m.respawns, g)
		st, ok := m.zone.AIState(g)
		if !ok {
			continue
		}
		st.Respawn()
		if err := m.zone.UpdateEntityDirect(g, func(e *entitymodel.Entity) {
			e.Health = e.MaxHealth
			e.Position = st.SpawnPosition
		}); err != nil {
			m.log.Error("respawn failed", zap.Uint64("guid", uint64(g)), zap.Error(err))
		}
	}
}

func chebyshev(a, b spatial.Vec3) float64 {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	dz := abs(a.Z - b.Z)
	m := dx
	if dy > m {
		m = dy
	}
	if dz > m {
		m = dz
	}
	return m
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func stepToward(from, to spatial.Vec3, speed float64) spatial.Vec3 {
	dx, dy, dz := to.X-from.X, to.Y-from.Y, to.Z-from.Z
	dist := chebyshev(from, to)
	if dist <= speed || dist == 0 {
		return to
	}
	ratio := speed / dist
	return spatial.Vec3{X: from.X + dx*ratio, Y: from.Y + dy*ratio, Z: from.Z + dz*ratio}
}
