package main

import (
	"hash/fnv"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/encounter"
	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/netio/packet"
	"github.com/wyrmwatch/core/internal/spatial"
	"github.com/wyrmwatch/core/internal/zone"
)

// encounterDriver runs every boss encounter living in one zone. It is
// invoked from the zone actor's tick callback, so all zone access goes
// through the *Direct accessors.
type encounterDriver struct {
	zone    *zone.Instance
	engines map[entitymodel.GUID]*encounter.Engine
	lastHP  map[entitymodel.GUID]int32
	pending []pendingCast
	send    func(guid entitymodel.GUID, data []byte)
	spawn   func(creatureID int32, pos spatial.Vec3, count int)
	log     *zap.Logger
}

type pendingCast struct {
	boss      entitymodel.GUID
	ability   string
	targets   []entitymodel.GUID
	resolveAt time.Time
}

// encounterAggroRange is how far the snapshot reaches around the boss
// for target selection and wipe detection.
const encounterAggroRange = 150.0

func newEncounterDriver(z *zone.Instance, send func(guid entitymodel.GUID, data []byte), spawn func(creatureID int32, pos spatial.Vec3, count int), log *zap.Logger) *encounterDriver {
	return &encounterDriver{
		zone:    z,
		engines: make(map[entitymodel.GUID]*encounter.Engine),
		lastHP:  make(map[entitymodel.GUID]int32),
		send:    send,
		spawn:   spawn,
		log:     log,
	}
}

// attach builds an engine for one spawned boss entity. Seeded by the
// boss GUID so a fight's target rolls replay identically for the same
// spawn.
func (d *encounterDriver) attach(bossGUID entitymodel.GUID, def *encounter.Definition) error {
	snap := func() encounter.TargetContext {
		return d.snapshot(bossGUID)
	}
	sink := func(target entitymodel.GUID, eff encounter.Effect) {
		d.applyEffect(bossGUID, target, eff)
	}
	eng, err := encounter.New(def, int64(bossGUID), snap, sink, d.log.With(zap.String("boss", def.Boss.Name)))
	if err != nil {
		return err
	}
	d.engines[bossGUID] = eng
	if e, ok := d.zone.GetEntityDirect(bossGUID); ok {
		d.lastHP[bossGUID] = e.Health
	}
	return nil
}

// Tick advances every attached encounter: engage on first threat,
// mirror zone damage into phase selection, fire ready abilities,
// resolve casts whose impact time has come, detect wipes.
func (d *encounterDriver) Tick(now time.Time) {
	for boss, eng := range d.engines {
		e, ok := d.zone.GetEntityDirect(boss)
		if !ok {
			delete(d.engines, boss)
			delete(d.lastHP, boss)
			continue
		}

		st, hasAI := d.zone.AIState(boss)
		switch eng.State() {
		case encounter.StateNotEngaged:
			if hasAI && len(st.ThreatTable) > 0 {
				eng.Engage(now)
			}
			d.lastHP[boss] = e.Health
			continue
		case encounter.StateDefeated:
			continue
		}

		if delta := d.lastHP[boss] - e.Health; delta > 0 {
			eng.ApplyBossDamage(now, delta)
		}
		d.lastHP[boss] = e.Health
		if eng.State() != encounter.StateEngaged {
			continue
		}

		if d.allPlayersDown(e) {
			eng.Wipe(now)
			if hasAI {
				st.EnterEvade()
			}
			continue
		}

		for _, name := range eng.ReadyAbilities(now) {
			targets := eng.BeginCast(name, now)
			d.pending = append(d.pending, pendingCast{
				boss:      boss,
				ability:   name,
				targets:   targets,
				resolveAt: now.Add(eng.ImpactDelay(name)),
			})
			break // one cast per boss per tick keeps per-message work bounded
		}
	}

	remaining := d.pending[:0]
	for _, pc := range d.pending {
		eng, alive := d.engines[pc.boss]
		if !alive {
			continue
		}
		if now.Before(pc.resolveAt) {
			remaining = append(remaining, pc)
			continue
		}
		eng.ResolveCast(pc.ability, pc.targets, now)
	}
	d.pending = remaining
}

func (d *encounterDriver) allPlayersDown(boss entitymodel.Entity) bool {
	anyPlayers := false
	for _, e := range d.zone.EntitiesInRangeDirect(boss.Position, encounterAggroRange) {
		if e.Type != entitymodel.TypePlayer {
			continue
		}
		anyPlayers = true
		if e.Health > 0 {
			return false
		}
	}
	return anyPlayers
}

// snapshot builds the combatant view target selection runs over.
func (d *encounterDriver) snapshot(boss entitymodel.GUID) encounter.TargetContext {
	ctx := encounter.TargetContext{}
	bossEnt, ok := d.zone.GetEntityDirect(boss)
	if !ok {
		return ctx
	}
	ctx.BossPosition = bossEnt.Position

	var threat map[entitymodel.GUID]int64
	if st, hasAI := d.zone.AIState(boss); hasAI {
		threat = st.ThreatTable
	}
	for _, e := range d.zone.EntitiesInRangeDirect(bossEnt.Position, encounterAggroRange) {
		if e.Type != entitymodel.TypePlayer || e.Health <= 0 {
			continue
		}
		ctx.Combatants = append(ctx.Combatants, encounter.Combatant{
			GUID:      e.GUID,
			Position:  e.Position,
			Health:    e.Health,
			MaxHealth: e.MaxHealth,
			Threat:    threat[e.GUID],
		})
	}
	return ctx
}

// applyEffect is the engine's sink: it mutates zone state and emits
// the matching broadcasts. Runs inside the zone actor.
func (d *encounterDriver) applyEffect(boss, target entitymodel.GUID, eff encounter.Effect) {
	bossEnt, ok := d.zone.GetEntityDirect(boss)
	if !ok {
		return
	}

	switch eff.Kind {
	case encounter.EffectTelegraph:
		d.broadcastTelegraph(bossEnt, eff.Telegraph)
	case encounter.EffectDamage:
		d.applyDamage(bossEnt, target, eff.Damage)
	case encounter.EffectHeal:
		d.zone.UpdateEntityDirect(target, func(e *entitymodel.Entity) {
			e.Health += int32(eff.Heal.Amount)
			if e.Health > e.MaxHealth {
				e.Health = e.MaxHealth
			}
		})
	case encounter.EffectSpawn:
		pos := eff.Spawn.Position
		if pos == (spatial.Vec3{}) {
			pos = bossEnt.Position
		}
		count := eff.Spawn.Count
		if count <= 0 {
			count = 1
		}
		d.spawn(eff.Spawn.CreatureID, pos, count)
	case encounter.EffectDebuff:
		d.broadcastBuff(bossEnt, target, eff.Debuff.Name, eff.Debuff.DurationMs, int32(eff.Debuff.Magnitude), true)
	case encounter.EffectBuff:
		d.broadcastBuff(bossEnt, target, eff.Buff.Name, eff.Buff.DurationMs, int32(eff.Buff.Magnitude), false)
	case encounter.EffectMovement:
		d.applyMovement(bossEnt, target, eff.Movement)
	case encounter.EffectEnvironmental, encounter.EffectTargeting,
		encounter.EffectFixate, encounter.EffectInterruptHandler:
		// Resolved by the engine itself (targeting, interrupt handlers)
		// or a hazard system outside the per-boss driver; logged so
		// designers can trace execution order while tuning.
		d.log.Debug("encounter effect", zap.Int("kind", int(eff.Kind)), zap.Uint64("target", uint64(target)))
	}
}

// broadcastBuff announces a status effect landing; buffIDFromName keys
// client-side icons off the stable hash of the status name, since
// compiled encounters identify statuses by name, not id.
func (d *encounterDriver) broadcastBuff(boss entitymodel.Entity, target entitymodel.GUID, name string, durationMs uint32, amount int32, debuff bool) {
	pkt := packet.ServerBuffApply{
		TargetGUID: uint64(target),
		CasterGUID: uint64(boss.GUID),
		BuffID:     buffIDFromName(name),
		Amount:     amount,
		DurationMs: durationMs,
		IsDebuff:   debuff,
	}
	enc := pkt.Encode()
	for _, e := range d.zone.EntitiesInRangeDirect(boss.Position, encounterAggroRange) {
		if e.Type == entitymodel.TypePlayer {
			d.send(e.GUID, enc)
		}
	}
}

func buffIDFromName(name string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(name))
	return h.Sum32()
}

// applyMovement displaces the target along the boss->target axis
// (knockback away, pull toward) or teleports it outright.
func (d *encounterDriver) applyMovement(boss entitymodel.Entity, target entitymodel.GUID, params *encounter.MovementParams) {
	if params.Kind == "teleport" && params.ToPosition != nil {
		d.zone.UpdateEntityPositionDirect(target, *params.ToPosition)
		return
	}
	e, ok := d.zone.GetEntityDirect(target)
	if !ok {
		return
	}
	dx, dy := e.Position.X-boss.Position.X, e.Position.Y-boss.Position.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return
	}
	scale := params.DistanceU / dist
	if params.Kind == "pull" {
		scale = -scale
	}
	d.zone.UpdateEntityPositionDirect(target, spatial.Vec3{
		X: e.Position.X + dx*scale,
		Y: e.Position.Y + dy*scale,
		Z: e.Position.Z,
	})
}

func (d *encounterDriver) applyDamage(boss entitymodel.Entity, target entitymodel.GUID, params *encounter.DamageParams) {
	if params.Shape != nil {
		for _, e := range d.zone.EntitiesInRangeDirect(boss.Position, encounterAggroRange) {
			if e.Type != entitymodel.TypePlayer || e.Health <= 0 {
				continue
			}
			if !params.Shape.Contains(boss.Position, e.Position, 0) {
				continue
			}
			d.dealDamage(e.GUID, int32(params.BaseDamage))
		}
		return
	}
	d.dealDamage(target, int32(params.BaseDamage))
}

func (d *encounterDriver) dealDamage(target entitymodel.GUID, amount int32) {
	d.zone.UpdateEntityDirect(target, func(e *entitymodel.Entity) {
		e.Health -= amount
		if e.Health < 0 {
			e.Health = 0
		}
	})
}

// broadcastTelegraph translates the effect's shape into the wire
// packet every player within encounterAggroRange of the boss receives
// before impact.
func (d *encounterDriver) broadcastTelegraph(boss entitymodel.Entity, tp *encounter.TelegraphParams) {
	pkt := packet.ServerTelegraph{
		CasterGUID: uint64(boss.GUID),
		X:          float32(boss.Position.X),
		Y:          float32(boss.Position.Y),
		Z:          float32(boss.Position.Z),
		Rotation:   float32(tp.RotationDeg),
		DurationMs: tp.TelegraphDurationMs + tp.DelayMs,
		Color:      tp.Color,
	}
	switch tp.Shape.Kind {
	case encounter.ShapeCircle:
		pkt.Shape, pkt.Radius = packet.ShapeCircle, float32(tp.Shape.RadiusU)
	case encounter.ShapeCone:
		pkt.Shape, pkt.AngleDeg, pkt.Length = packet.ShapeCone, float32(tp.Shape.AngleDeg), float32(tp.Shape.LengthU)
	case encounter.ShapeLine, encounter.ShapeRectangle:
		pkt.Shape, pkt.Width, pkt.Length = packet.ShapeLine, float32(tp.Shape.WidthU), float32(tp.Shape.LengthU)
	case encounter.ShapeDonut:
		pkt.Shape, pkt.InnerRadius, pkt.OuterRadius = packet.ShapeDonut, float32(tp.Shape.InnerRadiusU), float32(tp.Shape.RadiusU)
	case encounter.ShapeCross:
		pkt.Shape, pkt.Width, pkt.Length = packet.ShapeCross, float32(tp.Shape.WidthU), float32(tp.Shape.LengthU)
	case encounter.ShapeRoomWide:
		pkt.Shape = packet.ShapeRoomWide
	case encounter.ShapeWave:
		pkt.Shape, pkt.Width, pkt.Speed = packet.ShapeWave, float32(tp.Shape.WidthU), float32(tp.Shape.SpeedUPerSec)
	}
	enc := pkt.Encode()
	for _, e := range d.zone.EntitiesInRangeDirect(boss.Position, encounterAggroRange) {
		if e.Type == entitymodel.TypePlayer {
			d.send(e.GUID, enc)
		}
	}
}
