package pvp

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/entitymodel"
)

// Faction is one of the two long-running battleground sides, kept as
// a generically named two-faction model rather than tied to one
// title's lore.
type Faction int

const (
	FactionExile Faction = iota
	FactionDominion
)

// Objective is one scoring point on the battleground map.
type Objective struct {
	ID        int32
	OwnedBy   Faction
	Contested bool
}

// Battleground is a long-running, objective-scored PvP instance
// spawned by a Supervisor from matchmaker batches. Unlike Duel
// and Arena it has no total-timeout state machine of its own in this
// spec — its lifetime is whatever the supervisor decides — so it only
// needs score bookkeeping and roster membership, guarded the same
// single-writer way as the other PvP instances.
type Battleground struct {
	mu sync.Mutex

	MapID      int32
	exile      map[entitymodel.GUID]struct{}
	dominion   map[entitymodel.GUID]struct{}
	objectives map[int32]*Objective
	score      map[Faction]int32

	log *zap.Logger
}

// NewBattleground starts an instance for mapID with the given initial
// objective set, all unowned.
func NewBattleground(mapID int32, objectiveIDs []int32, log *zap.Logger) *Battleground {
	bg := &Battleground{
		MapID:      mapID,
		exile:      make(map[entitymodel.GUID]struct{}),
		dominion:   make(map[entitymodel.GUID]struct{}),
		objectives: make(map[int32]*Objective, len(objectiveIDs)),
		score:      map[Faction]int32{FactionExile: 0, FactionDominion: 0},
		log:        log,
	}
	for _, id := range objectiveIDs {
		bg.objectives[id] = &Objective{ID: id, OwnedBy: -1} // -1: no faction holds it yet
	}
	return bg
}

// Join adds a player to a faction roster.
func (bg *Battleground) Join(player entitymodel.GUID, f Faction) {
	bg.mu.Lock()
	defer bg.mu.Unlock()
	switch f {
	case FactionExile:
		bg.exile[player] = struct{}{}
	case FactionDominion:
		bg.dominion[player] = struct{}{}
	}
}

// Leave removes a player from whichever roster holds them (e.g. on
// disconnect or zone transfer out of the battleground map).
func (bg *Battleground) Leave(player entitymodel.GUID) {
	bg.mu.Lock()
	defer bg.mu.Unlock()
	delete(bg.exile, player)
	delete(bg.dominion, player)
}

// CaptureObjective awards objID to f and adds points, only if the
// objective isn't already owned by f.
func (bg *Battleground) CaptureObjective(objID int32, f Faction, points int32) {
	bg.mu.Lock()
	defer bg.mu.Unlock()
	obj, ok := bg.objectives[objID]
	if !ok || obj.OwnedBy == f {
		return
	}
	obj.OwnedBy = f
	obj.Contested = false
	bg.score[f] += points
}

// Score returns a snapshot of both factions' points.
func (bg *Battleground) Score() map[Faction]int32 {
	bg.mu.Lock()
	defer bg.mu.Unlock()
	out := make(map[Faction]int32, len(bg.score))
	for k, v := range bg.score {
		out[k] = v
	}
	return out
}

// RosterSize reports each faction's current player count.
func (bg *Battleground) RosterSize() (exile, dominion int) {
	bg.mu.Lock()
	defer bg.mu.Unlock()
	return len(bg.exile), len(bg.dominion)
}

// QueueEntry is one player's matchmaking request.
type QueueEntry struct {
	Player  entitymodel.GUID
	Faction Faction
}

// Matchmaker batches queued players into balanced battleground
// instances once both factions have enough volunteers.
type Matchmaker struct {
	mu           sync.Mutex
	teamSize     int
	exileQueue   []entitymodel.GUID
	dominionQ    []entitymodel.GUID
	mapID        int32
	objectiveIDs []int32
	log          *zap.Logger
}

func NewMatchmaker(teamSize int, mapID int32, objectiveIDs []int32, log *zap.Logger) *Matchmaker {
	return &Matchmaker{teamSize: teamSize, mapID: mapID, objectiveIDs: objectiveIDs, log: log}
}

// Enqueue adds player to f's queue.
func (mm *Matchmaker) Enqueue(player entitymodel.GUID, f Faction) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	switch f {
	case FactionExile:
		mm.exileQueue = append(mm.exileQueue, player)
	case FactionDominion:
		mm.dominionQ = append(mm.dominionQ, player)
	}
}

// TryBatch pops teamSize players from each faction's queue and
// returns a fresh Battleground populated with both rosters, or nil if
// either queue is still short.
func (mm *Matchmaker) TryBatch() *Battleground {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if len(mm.exileQueue) < mm.teamSize || len(mm.dominionQ) < mm.teamSize {
		return nil
	}
	exileBatch := append([]entitymodel.GUID(nil), mm.exileQueue[:mm.teamSize]...)
	dominionBatch := append([]entitymodel.GUID(nil), mm.dominionQ[:mm.teamSize]...)
	mm.exileQueue = mm.exileQueue[mm.teamSize:]
	mm.dominionQ = mm.dominionQ[mm.teamSize:]

	bg := NewBattleground(mm.mapID, mm.objectiveIDs, mm.log)
	for _, p := range exileBatch {
		bg.Join(p, FactionExile)
	}
	for _, p := range dominionBatch {
		bg.Join(p, FactionDominion)
	}
	return bg
}
