package handler

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/catalog"
	"github.com/wyrmwatch/core/internal/creature"
	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/formula"
	"github.com/wyrmwatch/core/internal/netio"
	"github.com/wyrmwatch/core/internal/netio/packet"
	"github.com/wyrmwatch/core/internal/persist"
	"github.com/wyrmwatch/core/internal/wyerr"
)

// meleeReach is how close a player must be for a basic attack to land.
const meleeReach = 5.0

// HandleAttack resolves a basic attack request. Creature targets run
// the full damage route inside the zone actor; player targets are
// gated on an active duel between the two participants.
func HandleAttack(sess *netio.Session, r *packet.Reader, deps *Deps) error {
	req := packet.DecodeClientAttack(r.Data())
	shard, ok := deps.shardFor(sess)
	if !ok {
		return fmt.Errorf("attack: session has no zone: %w", wyerr.ErrNotFound)
	}
	attacker := entitymodel.GUID(sess.PlayerGUID)
	target := entitymodel.GUID(req.TargetGUID)
	now := time.Now()

	var (
		attackerSnap, targetSnap entitymodel.Entity
		outcome                  any
		attackErr                error
		damage                   int32
	)
	shard.Instance.Exec(func() {
		var found bool
		attackerSnap, found = shard.Instance.GetEntityDirect(attacker)
		if !found {
			attackErr = fmt.Errorf("attack: attacker %d: %w", attacker, wyerr.ErrNotFound)
			return
		}
		targetSnap, found = shard.Instance.GetEntityDirect(target)
		if !found {
			attackErr = fmt.Errorf("attack: target %d: %w", target, wyerr.ErrNotFound)
			return
		}
		if dist := attackerSnap.Position.DistanceTo(targetSnap.Position); dist > meleeReach {
			attackErr = fmt.Errorf("attack: target out of reach: %w", wyerr.ErrValidation)
			return
		}

		roll := deps.Formula.CalcMelee(formula.MeleeContext{
			AttackerLevel:  int(attackerSnap.Level),
			AttackerMinDmg: 1 + int(attackerSnap.Level),
			AttackerMaxDmg: 4 + int(attackerSnap.Level)*2,
			TargetLevel:    int(targetSnap.Level),
		})
		if !roll.IsHit {
			return
		}
		damage = int32(roll.Damage)

		switch targetSnap.Type {
		case entitymodel.TypeCreature:
			outcome, attackErr = shard.Creatures.DamageCreature(now, target, attacker, damage)
		case entitymodel.TypePlayer:
			outcome, attackErr = damagePlayer(shard, deps, attacker, target, damage)
		default:
			attackErr = fmt.Errorf("attack: target type %v: %w", targetSnap.Type, wyerr.ErrValidation)
		}
	})
	if attackErr != nil {
		return attackErr
	}
	if damage == 0 {
		return nil // miss
	}

	shard.Instance.Broadcast(packet.ServerSpellEffect{
		CasterGUID: uint64(attacker),
		TargetGUID: uint64(target),
		Amount:     -damage,
	}.Encode())

	switch result := outcome.(type) {
	case creature.KillOutcome:
		grantKillRewards(sess, deps, shard, result)
	case playerDeath:
		shard.Instance.Broadcast(packet.ServerPlayerDeath{
			PlayerGUID: uint64(target),
			KillerGUID: uint64(attacker),
			DeathType:  packet.DeathCombat,
		}.Encode())
	}
	return nil
}

// playerDeath marks a lethal player-vs-player hit for post-actor
// handling.
type playerDeath struct{}

// damagePlayer applies duel-gated player damage. Runs inside the zone
// actor. Damage between players outside an active duel is refused.
func damagePlayer(shard *Shard, deps *Deps, attacker, victim entitymodel.GUID, amount int32) (any, error) {
	if !deps.Duels.InActiveDuel(attacker, victim) {
		return nil, fmt.Errorf("attack: players not dueling: %w", wyerr.ErrValidation)
	}
	var health int32
	err := shard.Instance.UpdateEntityDirect(victim, func(e *entitymodel.Entity) {
		e.Health -= amount
		if e.Health < 0 {
			e.Health = 0
		}
		health = e.Health
	})
	if err != nil {
		return nil, err
	}
	deps.Duels.ReportDamage(attacker, victim, health)
	if health == 0 {
		return playerDeath{}, nil
	}
	return nil, nil
}

// grantKillRewards runs the loot pipeline for a creature kill: resolve
// the loot rules, roll the table, apply gold/XP to the killer, then
// write the economic WAL and persist the item grants. DB writes run in
// a detached task so the handler never blocks on the pool.
func grantKillRewards(sess *netio.Session, deps *Deps, shard *Shard, kill creature.KillOutcome) {
	snapshot, found := shard.Instance.GetEntity(kill.GUID)
	if !found || snapshot.Creature == nil {
		return
	}
	templateID := int(snapshot.Creature.CreatureTemplateID)
	tpl, haveTpl := deps.Catalog.Creatures.Get(templateID)
	profile := catalog.CreatureLootProfile{CreatureID: templateID}
	level := 1
	if haveTpl {
		profile.RaceID, profile.TierID, profile.DifficultyID = tpl.RaceID, tpl.TierID, tpl.DifficultyID
		level = tpl.Level
	}
	res := deps.Catalog.Loot.ResolveLoot(profile)
	rng := rand.New(rand.NewSource(int64(kill.GUID)))
	drops, gold := deps.Catalog.RollLoot(res, level, rng)

	xp := kill.XP
	if haveTpl {
		if e, ok := shard.Instance.GetEntity(kill.Killer); ok {
			xp = deps.Formula.XPForKill(tpl.Level, int(e.Level))
		}
	}
	killErr := shard.Instance.UpdateEntity(kill.Killer, func(e *entitymodel.Entity) {
		if e.Player != nil {
			e.Player.XP += xp
			e.Player.Gold += gold
		}
	})
	if killErr != nil {
		deps.Log.Warn("kill reward apply failed", zap.Error(killErr))
	}

	charID := sess.CharacterID
	go func() {
		ctx, cancel := deps.dbCtx()
		defer cancel()
		entries := []persist.WALEntry{{
			TxType:     "loot",
			FromGUID:   int64(kill.GUID),
			ToGUID:     charID,
			GoldAmount: gold,
		}}
		for _, d := range drops {
			entries = append(entries, persist.WALEntry{
				TxType:   "loot",
				FromGUID: int64(kill.GUID),
				ToGUID:   charID,
				ItemID:   int32(d.ItemID),
				Count:    int32(d.Count),
			})
		}
		if err := deps.WAL.Write(ctx, entries); err != nil {
			deps.Log.Error("loot wal write failed", zap.Error(err))
			return
		}
		for i, d := range drops {
			if _, err := deps.Items.Add(ctx, &persist.ItemRow{
				CharID:   charID,
				ItemID:   int32(d.ItemID),
				Count:    int32(d.Count),
				Location: int16(packet.LocationBag),
				Slot:     int16(200 + i), // overflow slots; client re-sorts
			}); err != nil {
				deps.Log.Error("loot item grant failed", zap.Int("item", d.ItemID), zap.Error(err))
			}
		}
		if err := deps.WAL.MarkProcessed(ctx); err != nil {
			deps.Log.Warn("loot wal flush flag failed", zap.Error(err))
		}
	}()
}
