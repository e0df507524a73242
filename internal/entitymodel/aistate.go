package entitymodel

import (
	"time"

	"github.com/wyrmwatch/core/internal/spatial"
)

// AIStateKind is the creature AI state machine's discriminant.
type AIStateKind uint8

const (
	AIIdle AIStateKind = iota
	AICombat
	AIEvade
	AIDead
)

func (k AIStateKind) String() string {
	switch k {
	case AIIdle:
		return "idle"
	case AICombat:
		return "combat"
	case AIEvade:
		return "evade"
	case AIDead:
		return "dead"
	default:
		return "unknown"
	}
}

// AIState is coupled 1:1 with a creature Entity. It is owned and
// mutated exclusively by the ZoneInstance/CreatureZoneManager that
// ticks the creature; nothing else touches it directly.
type AIState struct {
	State           AIStateKind
	ThreatTable     map[GUID]int64 // attacker GUID -> cumulative threat
	SpawnPosition   spatial.Vec3
	CombatStartTime time.Time
	LastAttackTime  time.Time
}

// NewAIState returns an idle AI state anchored at spawnPos.
func NewAIState(spawnPos spatial.Vec3) *AIState {
	return &AIState{
		State:         AIIdle,
		ThreatTable:   make(map[GUID]int64),
		SpawnPosition: spawnPos,
	}
}

// AddThreat accumulates threat from attacker. Negative deltas are
// clamped so the table never records negative cumulative threat.
func (a *AIState) AddThreat(attacker GUID, delta int64) {
	next := a.ThreatTable[attacker] + delta
	if next < 0 {
		next = 0
	}
	a.ThreatTable[attacker] = next
}

// RemoveThreat drops attacker from the threat table entirely (used on
// death, disconnect, or zone transfer of the attacker).
func (a *AIState) RemoveThreat(attacker GUID) {
	delete(a.ThreatTable, attacker)
}

// TopThreat returns the GUID with the highest cumulative threat, or
// (0, false) if the table is empty.
func (a *AIState) TopThreat() (GUID, bool) {
	var best GUID
	var bestVal int64 = -1
	for g, v := range a.ThreatTable {
		if v > bestVal || (v == bestVal && g < best) {
			best, bestVal = g, v
		}
	}
	return best, bestVal >= 0
}

// InCombatWindow reports whether the creature's combat-start time is
// still within timeout of now — used by the dual-condition combat
// timeout policy (timeout elapsed AND threat table empty both must
// hold before combat can be considered abandoned).
func (a *AIState) InCombatWindow(now time.Time, timeout time.Duration) bool {
	return now.Sub(a.CombatStartTime) < timeout
}

// ShouldExitCombat implements the combat-timeout invariant: exit only
// when the timeout has elapsed AND the threat table is empty.
func (a *AIState) ShouldExitCombat(now time.Time, timeout time.Duration) bool {
	return len(a.ThreatTable) == 0 && !a.InCombatWindow(now, timeout)
}

// EnterCombat transitions to AICombat, stamping the combat start time
// if this is a fresh transition (idle/evade -> combat).
func (a *AIState) EnterCombat(now time.Time) {
	if a.State != AICombat {
		a.CombatStartTime = now
	}
	a.State = AICombat
}

// EnterEvade transitions to AIEvade. Evade moves the creature
// monotonically back toward SpawnPosition; the actual movement is
// driven by the CreatureZoneManager's tick, not here.
func (a *AIState) EnterEvade() {
	a.State = AIEvade
	a.ThreatTable = make(map[GUID]int64)
}

// Die transitions to AIDead. From dead, only Respawn is a legal
// transition; callers must not call EnterCombat/EnterEvade after this.
func (a *AIState) Die() {
	a.State = AIDead
	a.ThreatTable = make(map[GUID]int64)
}

// Respawn is the only legal transition out of AIDead.
func (a *AIState) Respawn() {
	a.State = AIIdle
	a.ThreatTable = make(map[GUID]int64)
}
