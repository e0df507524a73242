package pvp

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/entitymodel"
)

func arenaTestConfig() ArenaConfig {
	return ArenaConfig{
		Preparation:      time.Hour,
		RoundCap:         time.Hour,
		EndingDuration:   10 * time.Millisecond,
		DampeningStart:   time.Hour,
		DampeningTick:    10 * time.Millisecond,
		DampeningPerTick: 1,
	}
}

func twoPlayerTeam(teamID int64, rating int, base uint64) Team {
	return Team{
		TeamID: teamID,
		Rating: rating,
		Players: []entitymodel.GUID{
			entitymodel.NewGUID(entitymodel.TypePlayer, base),
			entitymodel.NewGUID(entitymodel.TypePlayer, base+1),
		},
	}
}

func TestArenaEloUpdateSymmetricAtEqualRating(t *testing.T) {
	var captured []RatingUpdate
	record := func(w, l RatingUpdate, wt, lt *Team) { captured = append(captured, w, l) }

	a := NewArena(Bracket2v2, twoPlayerTeam(1, 1500, 1), twoPlayerTeam(2, 1500, 10), arenaTestConfig(), nil, record, zap.NewNop())
	a.mu.Lock()
	a.beginActiveLocked()
	a.mu.Unlock()

	for _, p := range a.teams[1].Players {
		a.ReportDeath(p)
	}

	if len(captured) != 2 {
		t.Fatalf("expected 2 rating updates, got %d", len(captured))
	}
	win, lose := captured[0], captured[1]
	if win.Delta <= 0 || lose.Delta >= 0 {
		t.Fatalf("expected winner delta > 0 and loser delta < 0, got win=%+v lose=%+v", win, lose)
	}
	if win.Delta != -lose.Delta {
		t.Fatalf("expected symmetric deltas, got %+v %+v", win, lose)
	}
	if win.NewRating != 1500+win.Delta || lose.NewRating != 1500-win.Delta {
		t.Fatalf("unexpected resulting ratings: %+v %+v", win, lose)
	}
}

func TestArenaDampeningNonDecreasingAndCapped(t *testing.T) {
	cfg := arenaTestConfig()
	cfg.DampeningStart = 5 * time.Millisecond
	cfg.DampeningTick = 5 * time.Millisecond
	cfg.DampeningPerTick = 50
	a := NewArena(Bracket2v2, twoPlayerTeam(1, 1500, 1), twoPlayerTeam(2, 1500, 10), cfg, nil, nil, zap.NewNop())
	a.mu.Lock()
	a.beginActiveLocked()
	a.mu.Unlock()

	prev := 0
	for i := 0; i < 10; i++ {
		time.Sleep(8 * time.Millisecond)
		cur := a.Dampening()
		if cur < prev {
			t.Fatalf("dampening decreased: %d -> %d", prev, cur)
		}
		if cur > 100 {
			t.Fatalf("dampening exceeded 100: %d", cur)
		}
		prev = cur
	}
}

func TestArenaAliveCountDecidesWinner(t *testing.T) {
	a := NewArena(Bracket3v3, twoPlayerTeam(1, 1500, 1), twoPlayerTeam(2, 1500, 10), arenaTestConfig(), nil, nil, zap.NewNop())
	a.mu.Lock()
	a.beginActiveLocked()
	a.mu.Unlock()

	a.ReportDeath(a.teams[0].Players[0])
	if a.Stage != ArenaActive {
		t.Fatal("match should still be active with one alive player remaining")
	}
	a.ReportDeath(a.teams[0].Players[1])
	if a.Stage != ArenaEnding && a.Stage != ArenaComplete {
		t.Fatalf("expected ending/complete once a team is fully dead, got %v", a.Stage)
	}
	if a.winnerIdx != 1 {
		t.Fatalf("expected team 1 to win, got winnerIdx=%d", a.winnerIdx)
	}
}
