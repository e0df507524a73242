package pvp

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/spatial"
)

func testConfig() DuelConfig {
	return DuelConfig{
		RequestTimeout: time.Hour,
		Countdown:      time.Hour,
		BoundaryRadius: 40,
		GraceWindow:    30 * time.Millisecond,
		TotalTimeout:   time.Hour,
	}
}

func TestDuelDamageOnlyBetweenParticipants(t *testing.T) {
	a := entitymodel.NewGUID(entitymodel.TypePlayer, 1)
	b := entitymodel.NewGUID(entitymodel.TypePlayer, 2)
	outsider := entitymodel.NewGUID(entitymodel.TypePlayer, 3)

	d := NewDuel(a, b, testConfig(), nil, nil, zap.NewNop())
	if err := d.Accept(spatial.Vec3{}); err != nil {
		t.Fatal(err)
	}
	d.mu.Lock()
	d.beginActiveLocked()
	d.mu.Unlock()

	d.ReportDamage(outsider, b, 0)
	if _, _, _, ended := d.Result(); ended {
		t.Fatal("damage from a non-participant must not end the duel")
	}

	d.ReportDamage(a, b, 0)
	winner, loser, reason, ended := d.Result()
	if !ended {
		t.Fatal("duel should have ended")
	}
	if winner != a || loser != b || reason != EndDefeat {
		t.Fatalf("got winner=%d loser=%d reason=%v", winner, loser, reason)
	}
}

func TestDuelWinnerLoserPartitionExactlyOnce(t *testing.T) {
	a := entitymodel.NewGUID(entitymodel.TypePlayer, 1)
	b := entitymodel.NewGUID(entitymodel.TypePlayer, 2)
	d := NewDuel(a, b, testConfig(), nil, nil, zap.NewNop())
	d.mu.Lock()
	d.Stage = DuelActive
	d.mu.Unlock()

	d.ReportDamage(a, b, 0)
	winner, loser, _, _ := d.Result()
	if winner == loser {
		t.Fatal("winner and loser must differ")
	}
	if (winner != a && winner != b) || (loser != a && loser != b) {
		t.Fatal("winner/loser must be the two participants")
	}

	// A second damage event after the duel has ended must not flip the result.
	d.ReportDamage(b, a, 0)
	winner2, loser2, _, _ := d.Result()
	if winner2 != winner || loser2 != loser {
		t.Fatal("result must not change once ended")
	}
}

func TestDuelExactBoundaryDoesNotFlee(t *testing.T) {
	a := entitymodel.NewGUID(entitymodel.TypePlayer, 1)
	b := entitymodel.NewGUID(entitymodel.TypePlayer, 2)
	cfg := testConfig()
	d := NewDuel(a, b, cfg, nil, nil, zap.NewNop())
	d.mu.Lock()
	d.Center = spatial.Vec3{}
	d.beginActiveLocked()
	d.mu.Unlock()

	d.ReportPosition(a, spatial.Vec3{X: cfg.BoundaryRadius}) // exactly at radius
	time.Sleep(50 * time.Millisecond)
	if _, _, _, ended := d.Result(); ended {
		t.Fatal("exact boundary distance must not trigger flee")
	}

	d.ReportPosition(a, spatial.Vec3{X: cfg.BoundaryRadius + 1})
	time.Sleep(50 * time.Millisecond)
	_, loser, reason, ended := d.Result()
	if !ended || reason != EndFlee || loser != a {
		t.Fatalf("expected flee by a, got ended=%v reason=%v loser=%d", ended, reason, loser)
	}
}

func TestDuelFleeReturnWithinGraceCancelsTimeout(t *testing.T) {
	a := entitymodel.NewGUID(entitymodel.TypePlayer, 1)
	b := entitymodel.NewGUID(entitymodel.TypePlayer, 2)
	cfg := testConfig()
	cfg.GraceWindow = 100 * time.Millisecond
	d := NewDuel(a, b, cfg, nil, nil, zap.NewNop())
	d.mu.Lock()
	d.beginActiveLocked()
	d.mu.Unlock()

	d.ReportPosition(a, spatial.Vec3{X: 100})
	time.Sleep(20 * time.Millisecond)
	d.ReportPosition(a, spatial.Vec3{X: 0})
	time.Sleep(150 * time.Millisecond)

	if _, _, _, ended := d.Result(); ended {
		t.Fatal("returning within grace window must cancel the flee timeout")
	}
}
