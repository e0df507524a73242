// Package pvp implements the three PvP sub-game state machines:
// Duel, Arena, and Battleground. State mutation is serialized under a
// mutex rather than a zone-style command channel, since duel/arena
// state is far smaller and has no spatial index to keep in sync, but
// the same discipline applies: every exported method takes the lock,
// and every scheduled timer is a cancelable *time.Timer owned by the
// instance so shutdown never leaks a cross-worker timer. Damage only
// progresses a duel when it flows between the two registered
// participants; anything else is ignored at the gate.
package pvp

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/spatial"
	"github.com/wyrmwatch/core/internal/wyerr"
)

// DuelStage is the duel's state machine position.
type DuelStage int

const (
	DuelPending DuelStage = iota
	DuelCountdown
	DuelActive
	DuelEnded
)

// EndReason classifies why a duel ended.
type EndReason int

const (
	EndNone EndReason = iota
	EndDefeat
	EndForfeit
	EndFlee
	EndTimeout
)

func (r EndReason) String() string {
	switch r {
	case EndDefeat:
		return "defeat"
	case EndForfeit:
		return "forfeit"
	case EndFlee:
		return "flee"
	case EndTimeout:
		return "timeout"
	default:
		return "none"
	}
}

// DuelConfig carries the named duel tuning options.
type DuelConfig struct {
	RequestTimeout time.Duration
	Countdown      time.Duration
	BoundaryRadius float64
	GraceWindow    time.Duration
	TotalTimeout   time.Duration
}

// HealthProbe lets the duel read a participant's current health
// without importing entitymodel/zone wiring directly — injected so
// this package stays free of a zone dependency (the same callback-
// injection shape zone.BroadcastFunc uses to dodge an import cycle).
type HealthProbe func(guid entitymodel.GUID) (health, maxHealth int32, ok bool)

// StatsRecorder persists the outcome of a finished duel.
type StatsRecorder func(winner, loser entitymodel.GUID, reason EndReason)

// Duel is one challenge's full lifecycle.
type Duel struct {
	mu sync.Mutex

	Challenger, Challenged entitymodel.GUID
	Stage                  DuelStage
	Center                 spatial.Vec3
	cfg                    DuelConfig

	winner, loser entitymodel.GUID
	reason        EndReason

	health HealthProbe
	record StatsRecorder
	log    *zap.Logger

	requestTimer   *time.Timer
	countdownTimer *time.Timer
	graceTimers    map[entitymodel.GUID]*time.Timer
	totalTimer     *time.Timer
}

// NewDuel creates a pending challenge. Start begins the 30s pending
// timeout; callers should call Start immediately after NewDuel.
func NewDuel(challenger, challenged entitymodel.GUID, cfg DuelConfig, health HealthProbe, record StatsRecorder, log *zap.Logger) *Duel {
	return &Duel{
		Challenger:  challenger,
		Challenged:  challenged,
		Stage:       DuelPending,
		cfg:         cfg,
		health:      health,
		record:      record,
		log:         log.With(zap.Uint64("challenger", uint64(challenger)), zap.Uint64("challenged", uint64(challenged))),
		graceTimers: make(map[entitymodel.GUID]*time.Timer),
	}
}

// Start schedules the pending-request timeout.
func (d *Duel) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requestTimer = time.AfterFunc(d.cfg.RequestTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.Stage == DuelPending {
			d.endLocked(d.Challenger, d.Challenged, EndTimeout)
		}
	})
}

// Accept moves pending -> countdown, centered on a position (e.g. the
// challenged player's current location), and starts the 5s countdown.
func (d *Duel) Accept(center spatial.Vec3) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Stage != DuelPending {
		return fmt.Errorf("accept duel: stage %v: %w", d.Stage, wyerr.ErrValidation)
	}
	stopTimer(d.requestTimer)
	d.Center = center
	d.Stage = DuelCountdown
	d.countdownTimer = time.AfterFunc(d.cfg.Countdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.Stage == DuelCountdown {
			d.beginActiveLocked()
		}
	})
	return nil
}

func (d *Duel) beginActiveLocked() {
	d.Stage = DuelActive
	d.totalTimer = time.AfterFunc(d.cfg.TotalTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.Stage == DuelActive {
			d.resolveTimeoutLocked()
		}
	})
}

// resolveTimeoutLocked applies the timeout tiebreak: higher health
// percentage wins.
func (d *Duel) resolveTimeoutLocked() {
	cPct := d.healthPctLocked(d.Challenger)
	gPct := d.healthPctLocked(d.Challenged)
	winner, loser := d.Challenger, d.Challenged
	if gPct > cPct {
		winner, loser = d.Challenged, d.Challenger
	}
	d.endLocked(winner, loser, EndTimeout)
}

func (d *Duel) healthPctLocked(g entitymodel.GUID) float64 {
	if d.health == nil {
		return 0
	}
	hp, max, ok := d.health(g)
	if !ok || max <= 0 {
		return 0
	}
	return float64(hp) / float64(max)
}

// ReportPosition checks a participant's distance from Center while
// active, starting or clearing the flee grace window.
func (d *Duel) ReportPosition(player entitymodel.GUID, pos spatial.Vec3) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Stage != DuelActive || (player != d.Challenger && player != d.Challenged) {
		return
	}
	dist := distance(d.Center, pos)
	inBounds := dist <= d.cfg.BoundaryRadius
	if inBounds {
		if t, ok := d.graceTimers[player]; ok {
			t.Stop()
			delete(d.graceTimers, player)
		}
		return
	}
	if _, ok := d.graceTimers[player]; ok {
		return // grace already running
	}
	opponent := d.opponentOf(player)
	d.graceTimers[player] = time.AfterFunc(d.cfg.GraceWindow, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.Stage == DuelActive {
			d.endLocked(opponent, player, EndFlee)
		}
	})
}

// ReportDamage applies a damage event to the duel. Only damage between
// the two participants progresses the duel ("damage reports are
// gated"); any other pair is a silent no-op. victimHealth is the
// victim's health immediately after the hit, as computed by the
// caller's own damage pipeline (this package never mutates entity
// health itself).
func (d *Duel) ReportDamage(attacker, victim entitymodel.GUID, victimHealth int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Stage != DuelActive {
		return
	}
	if !d.isParticipant(attacker) || !d.isParticipant(victim) || attacker == victim {
		return
	}
	if victimHealth <= 0 {
		d.endLocked(attacker, victim, EndDefeat)
	}
}

// Forfeit ends the duel with player conceding.
func (d *Duel) Forfeit(player entitymodel.GUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Stage != DuelActive && d.Stage != DuelCountdown && d.Stage != DuelPending {
		return fmt.Errorf("forfeit duel: stage %v: %w", d.Stage, wyerr.ErrValidation)
	}
	d.endLocked(d.opponentOf(player), player, EndForfeit)
	return nil
}

func (d *Duel) opponentOf(player entitymodel.GUID) entitymodel.GUID {
	if player == d.Challenger {
		return d.Challenged
	}
	return d.Challenger
}

func (d *Duel) isParticipant(g entitymodel.GUID) bool {
	return g == d.Challenger || g == d.Challenged
}

// endLocked finalizes the duel. winner+loser partition the two
// participants exactly once: callers of endLocked
// always pass the actual challenger/challenged pair, never a third
// party, so this holds by construction.
func (d *Duel) endLocked(winner, loser entitymodel.GUID, reason EndReason) {
	if d.Stage == DuelEnded {
		return
	}
	d.Stage = DuelEnded
	d.winner, d.loser, d.reason = winner, loser, reason
	d.cancelTimersLocked()
	if d.record != nil {
		d.record(winner, loser, reason)
	}
	d.log.Info("duel ended", zap.Uint64("winner", uint64(winner)), zap.String("reason", reason.String()))
}

func (d *Duel) cancelTimersLocked() {
	stopTimer(d.requestTimer)
	stopTimer(d.countdownTimer)
	stopTimer(d.totalTimer)
	for _, t := range d.graceTimers {
		stopTimer(t)
	}
	d.graceTimers = make(map[entitymodel.GUID]*time.Timer)
}

// CurrentStage reads the duel's lifecycle position under its lock.
func (d *Duel) CurrentStage() DuelStage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Stage
}

// Result returns the duel's outcome once ended.
func (d *Duel) Result() (winner, loser entitymodel.GUID, reason EndReason, ended bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.winner, d.loser, d.reason, d.Stage == DuelEnded
}

// Shutdown cancels every pending timer without recording an outcome —
// used when the owning worker is torn down, so no pending timer
// outlives it.
func (d *Duel) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelTimersLocked()
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

func distance(a, b spatial.Vec3) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
