// Package zone implements ZoneInstance, a single-writer actor owning
// one zone shard's entities, AI states, and spatial index. All
// mutation is serialized through a command mailbox so that "entities"
// and "spatial_grid" never observe each other mid-update.
package zone

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/spatial"
	"github.com/wyrmwatch/core/internal/wyerr"
)

// BroadcastFunc delivers an encoded message to a player's connection.
// Injected so this package never imports netio (avoids an import
// cycle).
type BroadcastFunc func(playerGUID entitymodel.GUID, message any)

// Ref identifies a zone instance within the realm.
type Ref struct {
	ZoneID     int32
	InstanceID int32
}

// Instance is a ZoneInstance: one goroutine owns entities, aiStates,
// and grid; every other goroutine talks to it only through the command
// channel returned by commands below.
type Instance struct {
	Ref Ref

	entities  map[entitymodel.GUID]*entitymodel.Entity
	aiStates  map[entitymodel.GUID]*entitymodel.AIState
	grid      *spatial.Grid
	players   map[entitymodel.GUID]struct{}
	creatures map[entitymodel.GUID]struct{}

	broadcast BroadcastFunc
	cmdCh     chan command
	log       *zap.Logger
}

// New constructs an Instance. cellSize sizes its spatial grid
// (default 50 world-units).
func New(ref Ref, cellSize float64, broadcast BroadcastFunc, log *zap.Logger) *Instance {
	return &Instance{
		Ref:       ref,
		entities:  make(map[entitymodel.GUID]*entitymodel.Entity),
		aiStates:  make(map[entitymodel.GUID]*entitymodel.AIState),
		grid:      spatial.New(cellSize),
		players:   make(map[entitymodel.GUID]struct{}),
		creatures: make(map[entitymodel.GUID]struct{}),
		broadcast: broadcast,
		cmdCh:     make(chan command, 256),
		log:       log.With(zap.Int32("zone", ref.ZoneID), zap.Int32("instance", ref.InstanceID)),
	}
}

type command struct {
	run  func()
	done chan struct{}
}

// Run drives the actor's command loop until ctx is canceled, invoking
// tick(now) on every aiTickInterval tick. It must run in its own
// goroutine; nothing else may touch Instance's maps. tick is expected
// to use the *Direct accessors below, since it already runs inside
// this goroutine.
func (z *Instance) Run(ctx context.Context, aiTickInterval time.Duration, tick func(now time.Time)) {
	z.log.Info("zone instance started")
	ticker := time.NewTicker(aiTickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			z.log.Info("zone instance stopped")
			return
		case cmd := <-z.cmdCh:
			cmd.run()
			close(cmd.done)
		case now := <-ticker.C:
			if tick != nil {
				tick(now)
			}
		}
	}
}

// do submits fn to the actor and blocks until it has run. Callers must
// never call do from inside the actor's own goroutine (e.g. from a
// tick callback passed to Run) — that would deadlock since nothing
// else drains cmdCh while the actor is busy running fn. Use the
// *Direct accessors from tick callbacks instead.
func (z *Instance) do(fn func()) {
	done := make(chan struct{})
	z.cmdCh <- command{run: fn, done: done}
	<-done
}

// Exec runs fn inside the actor's goroutine and blocks until it has
// run. It is how off-actor callers (packet handlers on their session
// goroutines) compose multi-step mutations — e.g. a damage route that
// must read AI state and write health in one serialized step — without
// taking a lock the actor doesn't have. Never call Exec from inside
// the actor itself; use the *Direct accessors there.
func (z *Instance) Exec(fn func()) {
	z.do(fn)
}

// AddEntity inserts e into entities, the spatial grid, and the
// players/creatures index, maintaining the subset invariant.
func (z *Instance) AddEntity(e *entitymodel.Entity) {
	z.do(func() {
		z.addEntityDirect(e)
	})
}

func (z *Instance) addEntityDirect(e *entitymodel.Entity) {
	z.entities[e.GUID] = e
	z.grid.Insert(uint64(e.GUID), e.Position)
	switch e.Type {
	case entitymodel.TypePlayer:
		z.players[e.GUID] = struct{}{}
	case entitymodel.TypeCreature:
		z.creatures[e.GUID] = struct{}{}
		z.aiStates[e.GUID] = entitymodel.NewAIState(e.Position)
	}
}

// AddEntityDirect is AddEntity's no-channel counterpart for callers
// already inside the actor goroutine — encounter spawn effects adding
// boss adds mid-tick.
func (z *Instance) AddEntityDirect(e *entitymodel.Entity) {
	z.addEntityDirect(e)
}

// RemoveEntity deletes guid from entities, the grid, and every index.
func (z *Instance) RemoveEntity(guid entitymodel.GUID) {
	z.do(func() {
		delete(z.entities, guid)
		delete(z.players, guid)
		delete(z.creatures, guid)
		delete(z.aiStates, guid)
		z.grid.Remove(uint64(guid))
	})
}

// GetEntity returns a consistent snapshot of guid's Entity. Safe to
// call from any goroutine.
func (z *Instance) GetEntity(guid entitymodel.GUID) (entitymodel.Entity, bool) {
	var out entitymodel.Entity
	var ok bool
	z.do(func() {
		out, ok = z.getEntityDirect(guid)
	})
	return out, ok
}

// UpdateEntity applies fn to guid's Entity atomically with respect to
// every other actor operation, then re-syncs the spatial grid if the
// position changed. Safe to call from any goroutine.
func (z *Instance) UpdateEntity(guid entitymodel.GUID, fn func(e *entitymodel.Entity)) error {
	var outErr error
	z.do(func() {
		outErr = z.updateEntityDirect(guid, fn)
	})
	return outErr
}

// UpdateEntityPosition moves guid and keeps the grid in sync.
func (z *Instance) UpdateEntityPosition(guid entitymodel.GUID, p spatial.Vec3) error {
	return z.UpdateEntity(guid, func(e *entitymodel.Entity) { e.Position = p })
}

func (z *Instance) getEntityDirect(guid entitymodel.GUID) (entitymodel.Entity, bool) {
	if e, found := z.entities[guid]; found {
		return *e, true
	}
	return entitymodel.Entity{}, false
}

func (z *Instance) updateEntityDirect(guid entitymodel.GUID, fn func(e *entitymodel.Entity)) error {
	e, ok := z.entities[guid]
	if !ok {
		return fmt.Errorf("update entity %d: %w", guid, wyerr.ErrNotFound)
	}
	before := e.Position
	fn(e)
	if e.Position != before {
		z.grid.Update(uint64(guid), e.Position)
	}
	return nil
}

// GetEntityDirect and UpdateEntityDirect bypass the command channel.
// They are safe ONLY for callers that already run inside this
// Instance's own actor goroutine — CreatureZoneManager and
// EncounterEngine ticks invoked from Run's command loop — the same
// no-lock discipline the game-loop-owned world state in this codebase
// has always used for in-loop access.
func (z *Instance) GetEntityDirect(guid entitymodel.GUID) (entitymodel.Entity, bool) {
	return z.getEntityDirect(guid)
}

func (z *Instance) UpdateEntityDirect(guid entitymodel.GUID, fn func(e *entitymodel.Entity)) error {
	return z.updateEntityDirect(guid, fn)
}

func (z *Instance) UpdateEntityPositionDirect(guid entitymodel.GUID, p spatial.Vec3) error {
	return z.updateEntityDirect(guid, func(e *entitymodel.Entity) { e.Position = p })
}

// ListCreaturesDirect returns every creature GUID in this zone. Only
// callable from inside the actor goroutine; the AI tick uses it so
// creatures added after startup (operator spawns, encounter adds) are
// picked up without re-registering a spawn list.
func (z *Instance) ListCreaturesDirect() []entitymodel.GUID {
	out := make([]entitymodel.GUID, 0, len(z.creatures))
	for g := range z.creatures {
		out = append(out, g)
	}
	return out
}

// EntitiesInRangeDirect is the no-channel counterpart of EntitiesInRange.
func (z *Instance) EntitiesInRangeDirect(center spatial.Vec3, radius float64) []entitymodel.Entity {
	var out []entitymodel.Entity
	for _, guid64 := range z.grid.EntitiesInRange(center, radius) {
		if e, ok := z.entities[entitymodel.GUID(guid64)]; ok {
			out = append(out, *e)
		}
	}
	return out
}

// AIState returns guid's AI state pointer for direct manipulation by
// CreatureZoneManager, which runs inside this actor's tick and so does
// not need to go through the command channel itself.
func (z *Instance) AIState(guid entitymodel.GUID) (*entitymodel.AIState, bool) {
	st, ok := z.aiStates[guid]
	return st, ok
}

// EntitiesInRange returns a snapshot slice of entities within radius
// of center.
func (z *Instance) EntitiesInRange(center spatial.Vec3, radius float64) []entitymodel.Entity {
	var out []entitymodel.Entity
	z.do(func() {
		for _, guid64 := range z.grid.EntitiesInRange(center, radius) {
			if e, ok := z.entities[entitymodel.GUID(guid64)]; ok {
				out = append(out, *e)
			}
		}
	})
	return out
}

// ListPlayers returns a snapshot of every player GUID bound to this zone.
func (z *Instance) ListPlayers() []entitymodel.GUID {
	var out []entitymodel.GUID
	z.do(func() {
		for g := range z.players {
			out = append(out, g)
		}
	})
	return out
}

// Info is a read-only snapshot of zone occupancy counts.
type Info struct {
	Ref           Ref
	EntityCount   int
	PlayerCount   int
	CreatureCount int
}

func (z *Instance) Info() Info {
	var info Info
	z.do(func() {
		info = Info{
			Ref:           z.Ref,
			EntityCount:   len(z.entities),
			PlayerCount:   len(z.players),
			CreatureCount: len(z.creatures),
		}
	})
	return info
}

// Broadcast enqueues message to every player bound to the zone.
// Broadcasts initiated within one actor step are delivered to each
// recipient in initiation order; no cross-recipient ordering is
// guaranteed beyond that.
func (z *Instance) Broadcast(message any) {
	z.do(func() {
		for g := range z.players {
			z.broadcast(g, message)
		}
	})
}

// BroadcastDirect is Broadcast's no-channel counterpart for callers
// already inside the actor goroutine (the AI tick emitting combat
// effects); calling Broadcast from there would deadlock the actor
// against itself.
func (z *Instance) BroadcastDirect(message any) {
	for g := range z.players {
		z.broadcast(g, message)
	}
}

// checkInvariant verifies that every entity's grid cell matches its
// recorded position — used by tests and, optionally, a periodic
// self-check hook. A failure here is an invariant breach: the
// caller should treat it as fatal for this worker.
func (z *Instance) checkInvariant() error {
	for guid, e := range z.entities {
		pos, ok := z.grid.Position(uint64(guid))
		if !ok || pos != e.Position {
			return fmt.Errorf("entity %d grid position mismatch: %w", guid, wyerr.ErrInvariant)
		}
	}
	if len(z.players)+len(z.creatures) > len(z.entities) {
		return fmt.Errorf("players/creatures not a subset of entities: %w", wyerr.ErrInvariant)
	}
	return nil
}
