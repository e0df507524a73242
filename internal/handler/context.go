// Package handler implements the opcode handlers the ConnectionServer
// dispatches to: the auth/realm/world stage progression, gameplay
// packet processing against the owning zone actor, and the duel
// request surface. Handlers run synchronously on their session's read
// goroutine; any zone mutation they make is submitted to the zone
// actor via Exec so the single-writer discipline holds.
package handler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/catalog"
	"github.com/wyrmwatch/core/internal/config"
	"github.com/wyrmwatch/core/internal/creature"
	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/formula"
	"github.com/wyrmwatch/core/internal/netio"
	"github.com/wyrmwatch/core/internal/persist"
	"github.com/wyrmwatch/core/internal/router"
	"github.com/wyrmwatch/core/internal/zone"
)

// Shard pairs a running zone instance with its creature manager, so a
// handler holding a zone Ref can reach both halves of the zone's
// runtime.
type Shard struct {
	Instance  *zone.Instance
	Creatures *creature.Manager
}

// Deps carries everything a handler needs. One value is built at boot
// and shared by every registered handler.
type Deps struct {
	Cfg     *config.Config
	Log     *zap.Logger
	Router  *router.Router
	Catalog *catalog.Catalog

	Shards map[zone.Ref]*Shard

	Formula *formula.Engine

	Accounts   *persist.AccountRepo
	Characters *persist.CharacterRepo
	Items      *persist.ItemRepo
	Realms     *persist.RealmRepo
	PvP        *persist.PvPRepo
	WAL        *persist.WALRepo

	Bind  *SessionBinder
	Duels *DuelRegistry

	// DBTimeout bounds every repository call a handler makes; every
	// external call gets an explicit timeout.
	DBTimeout time.Duration
}

// dbCtx returns a bounded context for one repository round-trip.
func (d *Deps) dbCtx() (context.Context, context.CancelFunc) {
	return dbTimeoutCtx(d.DBTimeout)
}

func dbTimeoutCtx(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

// shardFor resolves the shard a world-stage session is bound to.
func (d *Deps) shardFor(sess *netio.Session) (*Shard, bool) {
	if !sess.HasZoneRef {
		return nil, false
	}
	s, ok := d.Shards[sess.ZoneRef]
	return s, ok
}

// persistStateRow snapshots a live player entity into the character
// row shape SaveState expects.
func persistStateRow(sess *netio.Session, e entitymodel.Entity) persist.CharacterRow {
	row := persist.CharacterRow{
		ID:        sess.CharacterID,
		Level:     e.Level,
		Health:    e.Health,
		MaxHealth: e.MaxHealth,
		ZoneID:    sess.ZoneRef.ZoneID,
		X:         e.Position.X,
		Y:         e.Position.Y,
		Z:         e.Position.Z,
	}
	if e.Player != nil {
		row.XP = e.Player.XP
		row.Gold = e.Player.Gold
	}
	return row
}
