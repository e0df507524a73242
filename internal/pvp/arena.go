package pvp

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/wyerr"
)

// ArenaStage is the arena match's state machine position.
type ArenaStage int

const (
	ArenaPreparation ArenaStage = iota
	ArenaActive
	ArenaEnding
	ArenaComplete
)

// Bracket is a supported arena team size.
type Bracket int

const (
	Bracket2v2 Bracket = 2
	Bracket3v3 Bracket = 3
	Bracket5v5 Bracket = 5
)

// ArenaConfig carries the named arena tuning options.
type ArenaConfig struct {
	Preparation      time.Duration
	RoundCap         time.Duration
	EndingDuration   time.Duration
	DampeningStart   time.Duration
	DampeningTick    time.Duration
	DampeningPerTick int
}

// Team is one side of an arena match.
type Team struct {
	TeamID  int64 // 0 means ad-hoc (unregistered) team
	Rating  int
	Players []entitymodel.GUID
	alive   map[entitymodel.GUID]bool
}

func newTeam(t Team) *Team {
	alive := make(map[entitymodel.GUID]bool, len(t.Players))
	for _, p := range t.Players {
		alive[p] = true
	}
	t.alive = alive
	out := t
	return &out
}

func (t *Team) aliveCount() int {
	n := 0
	for _, a := range t.alive {
		if a {
			n++
		}
	}
	return n
}

func (t *Team) healthPctSum(health HealthProbe) float64 {
	if health == nil {
		return float64(t.aliveCount())
	}
	sum := 0.0
	for p, alive := range t.alive {
		if !alive {
			continue
		}
		hp, max, ok := health(p)
		if ok && max > 0 {
			sum += float64(hp) / float64(max)
		}
	}
	return sum
}

// RatingUpdate is one team's Elo-style rating change after a match.
type RatingUpdate struct {
	TeamID    int64
	OldRating int
	NewRating int
	Delta     int
}

// RatingRecorder persists per-player and per-team rating changes
// (registered teams are updated, ad-hoc teams only update
// player records").
type RatingRecorder func(winner, loser RatingUpdate, winnerTeam, loserTeam *Team)

// Arena is one running arena match instance.
type Arena struct {
	mu sync.Mutex

	Bracket Bracket
	Stage   ArenaStage
	cfg     ArenaConfig
	teams   [2]*Team

	dampening int // percent, 0..100
	startedAt time.Time

	health HealthProbe
	record RatingRecorder
	log    *zap.Logger

	prepTimer      *time.Timer
	dampeningTimer *time.Timer
	capTimer       *time.Timer
	endingTimer    *time.Timer

	winnerIdx int // -1 until decided
}

// NewArena constructs a match in preparation and starts its prep timer.
func NewArena(bracket Bracket, a, b Team, cfg ArenaConfig, health HealthProbe, record RatingRecorder, log *zap.Logger) *Arena {
	m := &Arena{
		Bracket:   bracket,
		Stage:     ArenaPreparation,
		cfg:       cfg,
		teams:     [2]*Team{newTeam(a), newTeam(b)},
		winnerIdx: -1,
		health:    health,
		record:    record,
		log:       log,
	}
	m.prepTimer = time.AfterFunc(cfg.Preparation, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.Stage == ArenaPreparation {
			m.beginActiveLocked()
		}
	})
	return m
}

func (m *Arena) beginActiveLocked() {
	m.Stage = ArenaActive
	m.startedAt = time.Now()
	m.capTimer = time.AfterFunc(m.cfg.RoundCap, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.Stage == ArenaActive {
			m.decideByHealthLocked()
		}
	})
	m.scheduleDampeningLocked()
}

func (m *Arena) scheduleDampeningLocked() {
	m.dampeningTimer = time.AfterFunc(m.cfg.DampeningStart, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.tickDampeningLocked()
	})
}

// tickDampeningLocked implements the non-decreasing, capped-at-100
// dampening ramp: after 5 minutes, +1% every 10s
// up to 100%; reaching 100 schedules
// no further tick.
func (m *Arena) tickDampeningLocked() {
	if m.Stage != ArenaActive {
		return
	}
	if m.dampening < 100 {
		m.dampening += m.cfg.DampeningPerTick
		if m.dampening > 100 {
			m.dampening = 100
		}
	}
	if m.dampening >= 100 {
		return
	}
	m.dampeningTimer = time.AfterFunc(m.cfg.DampeningTick, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.tickDampeningLocked()
	})
}

// Dampening returns the current dampening percentage.
func (m *Arena) Dampening() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dampening
}

// ReportDeath marks player dead; when a team's alive count reaches
// zero the other wins.
func (m *Arena) ReportDeath(player entitymodel.GUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Stage != ArenaActive {
		return
	}
	for i, team := range m.teams {
		if _, ok := team.alive[player]; ok {
			team.alive[player] = false
			if team.aliveCount() == 0 {
				m.enterEndingLocked(1 - i)
				return
			}
		}
	}
}

// decideByHealthLocked resolves the match-cap timeout by the
// documented tiebreak: sum of health/max_health ratios per team,
// higher sum wins.
func (m *Arena) decideByHealthLocked() {
	p0 := m.teams[0].healthPctSum(m.health)
	p1 := m.teams[1].healthPctSum(m.health)
	winner := 0
	if p1 > p0 {
		winner = 1
	}
	m.enterEndingLocked(winner)
}

func (m *Arena) enterEndingLocked(winnerIdx int) {
	if m.Stage != ArenaActive {
		return
	}
	m.Stage = ArenaEnding
	m.winnerIdx = winnerIdx
	stopTimer(m.capTimer)
	stopTimer(m.dampeningTimer)
	m.applyRatingsLocked()
	m.endingTimer = time.AfterFunc(m.cfg.EndingDuration, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.Stage = ArenaComplete
	})
}

func (m *Arena) applyRatingsLocked() {
	if m.record == nil {
		return
	}
	winner := m.teams[m.winnerIdx]
	loser := m.teams[1-m.winnerIdx]
	delta := eloDelta(winner.Rating, loser.Rating)
	wu := RatingUpdate{TeamID: winner.TeamID, OldRating: winner.Rating, NewRating: winner.Rating + delta, Delta: delta}
	lu := RatingUpdate{TeamID: loser.TeamID, OldRating: loser.Rating, NewRating: loser.Rating - delta, Delta: -delta}
	m.record(wu, lu, winner, loser)
}

// eloDelta computes a symmetric Elo-style delta; equal ratings
// produce a positive, symmetric delta.
func eloDelta(winnerRating, loserRating int) int {
	const k = 32.0
	expected := 1.0 / (1.0 + math.Pow(10, float64(loserRating-winnerRating)/400.0))
	delta := k * (1.0 - expected)
	d := int(delta + 0.5)
	if d < 1 {
		d = 1
	}
	return d
}

// Forfeit lets an operator or disconnect-policy end the match early.
func (m *Arena) Forfeit(losingTeamIdx int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if losingTeamIdx != 0 && losingTeamIdx != 1 {
		return fmt.Errorf("forfeit arena: bad team index %d: %w", losingTeamIdx, wyerr.ErrValidation)
	}
	if m.Stage != ArenaActive && m.Stage != ArenaPreparation {
		return fmt.Errorf("forfeit arena: stage %v: %w", m.Stage, wyerr.ErrValidation)
	}
	stopTimer(m.prepTimer)
	m.Stage = ArenaActive
	m.enterEndingLocked(1 - losingTeamIdx)
	return nil
}

// Shutdown cancels every pending timer.
func (m *Arena) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	stopTimer(m.prepTimer)
	stopTimer(m.dampeningTimer)
	stopTimer(m.capTimer)
	stopTimer(m.endingTimer)
}
