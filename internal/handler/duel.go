package handler

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/config"
	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/netio"
	"github.com/wyrmwatch/core/internal/netio/packet"
	"github.com/wyrmwatch/core/internal/persist"
	"github.com/wyrmwatch/core/internal/pvp"
	"github.com/wyrmwatch/core/internal/spatial"
	"github.com/wyrmwatch/core/internal/wyerr"
)

// Duel wire states pushed through ServerDuelState.
const (
	duelStatePending = 0
	duelStateActive  = 2
	duelStateEnded   = 3
	duelStateRefused = 4
)

// DuelRegistry tracks at most one duel per participant, pending or
// active, and fans position/damage reports out to the right pvp.Duel.
type DuelRegistry struct {
	mu     sync.Mutex
	byGUID map[entitymodel.GUID]*pvp.Duel

	cfg    pvp.DuelConfig
	repo   *persist.PvPRepo
	bind   *SessionBinder
	log    *zap.Logger
	dbTime time.Duration
}

func NewDuelRegistry(cfg config.DuelConfig, repo *persist.PvPRepo, bind *SessionBinder, dbTimeout time.Duration, log *zap.Logger) *DuelRegistry {
	return &DuelRegistry{
		byGUID: make(map[entitymodel.GUID]*pvp.Duel),
		cfg: pvp.DuelConfig{
			RequestTimeout: time.Duration(cfg.RequestTimeoutMs) * time.Millisecond,
			Countdown:      time.Duration(cfg.CountdownS) * time.Second,
			BoundaryRadius: cfg.BoundaryRadius,
			GraceWindow:    5 * time.Second,
			TotalTimeout:   time.Duration(cfg.TotalTimeoutMs) * time.Millisecond,
		},
		repo:   repo,
		bind:   bind,
		dbTime: dbTimeout,
		log:    log,
	}
}

// Challenge registers a pending duel. A participant already pending or
// dueling gets a typed refusal.
func (dr *DuelRegistry) Challenge(challenger, challenged entitymodel.GUID, health pvp.HealthProbe) (*pvp.Duel, error) {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	if _, busy := dr.byGUID[challenger]; busy {
		return nil, fmt.Errorf("challenger already in a duel: %w", wyerr.ErrValidation)
	}
	if _, busy := dr.byGUID[challenged]; busy {
		return nil, fmt.Errorf("target already in a duel: %w", wyerr.ErrValidation)
	}

	d := pvp.NewDuel(challenger, challenged, dr.cfg, health, dr.recorder(challenger, challenged), dr.log)
	dr.byGUID[challenger] = d
	dr.byGUID[challenged] = d
	d.Start()
	return d, nil
}

// recorder builds the StatsRecorder for one duel: persist the result
// in a detached task, notify both participants, drop the registry
// entries.
func (dr *DuelRegistry) recorder(a, b entitymodel.GUID) pvp.StatsRecorder {
	return func(winner, loser entitymodel.GUID, reason pvp.EndReason) {
		go func() {
			ctx, cancel := dbTimeoutCtx(dr.dbTime)
			defer cancel()
			if err := dr.repo.RecordDuel(ctx, persist.DuelRecordRow{
				WinnerGUID: int64(winner),
				LoserGUID:  int64(loser),
				Reason:     reason.String(),
			}); err != nil {
				dr.log.Error("duel record write failed", zap.Error(err))
			}
		}()

		state := packet.ServerDuelState{
			ChallengerGUID: uint64(a),
			TargetGUID:     uint64(b),
			State:          duelStateEnded,
			Reason:         uint8(reason),
			WinnerGUID:     uint64(winner),
		}.Encode()
		for _, g := range []entitymodel.GUID{a, b} {
			if sess, ok := dr.bind.Session(g); ok {
				sess.Send(state)
			}
		}

		dr.mu.Lock()
		delete(dr.byGUID, a)
		delete(dr.byGUID, b)
		dr.mu.Unlock()
	}
}

func (dr *DuelRegistry) duelFor(g entitymodel.GUID) (*pvp.Duel, bool) {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	d, ok := dr.byGUID[g]
	return d, ok
}

// InActiveDuel reports whether a and b are the two participants of one
// active duel — the damage gate for player-vs-player hits.
func (dr *DuelRegistry) InActiveDuel(a, b entitymodel.GUID) bool {
	d, ok := dr.duelFor(a)
	if !ok {
		return false
	}
	if d2, ok2 := dr.duelFor(b); !ok2 || d2 != d {
		return false
	}
	return d.CurrentStage() == pvp.DuelActive
}

// ReportPosition feeds a movement into the boundary check of the
// player's duel, if any.
func (dr *DuelRegistry) ReportPosition(g entitymodel.GUID, pos spatial.Vec3) {
	if d, ok := dr.duelFor(g); ok {
		d.ReportPosition(g, pos)
	}
}

// ReportDamage forwards a duel-gated hit.
func (dr *DuelRegistry) ReportDamage(attacker, victim entitymodel.GUID, victimHealth int32) {
	if d, ok := dr.duelFor(attacker); ok {
		d.ReportDamage(attacker, victim, victimHealth)
	}
}

// PlayerLeft forfeits any duel the departing player was part of.
func (dr *DuelRegistry) PlayerLeft(g entitymodel.GUID) {
	if d, ok := dr.duelFor(g); ok {
		d.Forfeit(g)
	}
}

// HandleDuelRequest registers a challenge against another player.
func HandleDuelRequest(sess *netio.Session, r *packet.Reader, deps *Deps) error {
	req := packet.DecodeClientDuelRequest(r.Data())
	shard, ok := deps.shardFor(sess)
	if !ok {
		return fmt.Errorf("duel request: session has no zone: %w", wyerr.ErrNotFound)
	}
	challenger := entitymodel.GUID(sess.PlayerGUID)
	challenged := entitymodel.GUID(req.TargetGUID)

	target, found := shard.Instance.GetEntity(challenged)
	if !found || target.Type != entitymodel.TypePlayer {
		return fmt.Errorf("duel request: target %d: %w", challenged, wyerr.ErrNotFound)
	}

	health := func(g entitymodel.GUID) (int32, int32, bool) {
		e, ok := shard.Instance.GetEntity(g)
		if !ok {
			return 0, 0, false
		}
		return e.Health, e.MaxHealth, true
	}

	_, err := deps.Duels.Challenge(challenger, challenged, health)
	if err != nil {
		sess.Send(packet.ServerDuelState{
			ChallengerGUID: uint64(challenger),
			TargetGUID:     uint64(challenged),
			State:          duelStateRefused,
		}.Encode())
		return nil
	}

	pending := packet.ServerDuelState{
		ChallengerGUID: uint64(challenger),
		TargetGUID:     uint64(challenged),
		State:          duelStatePending,
	}.Encode()
	sess.Send(pending)
	if targetSess, ok := deps.Bind.Session(challenged); ok {
		targetSess.Send(pending)
	}
	return nil
}

// HandleDuelAccept answers a pending challenge. Accepting anchors the
// boundary sphere on the challenged player's current position.
func HandleDuelAccept(sess *netio.Session, r *packet.Reader, deps *Deps) error {
	req := packet.DecodeClientDuelAccept(r.Data())
	me := entitymodel.GUID(sess.PlayerGUID)
	d, ok := deps.Duels.duelFor(me)
	if !ok || d.Challenged != me || d.Challenger != entitymodel.GUID(req.ChallengerGUID) {
		return fmt.Errorf("duel accept: no pending challenge: %w", wyerr.ErrNotFound)
	}
	if !req.Accept {
		d.Forfeit(me)
		return nil
	}

	shard, ok := deps.shardFor(sess)
	if !ok {
		return fmt.Errorf("duel accept: session has no zone: %w", wyerr.ErrNotFound)
	}
	e, found := shard.Instance.GetEntity(me)
	if !found {
		return fmt.Errorf("duel accept: entity %d: %w", me, wyerr.ErrNotFound)
	}
	if err := d.Accept(e.Position); err != nil {
		return fmt.Errorf("duel accept: %w", err)
	}

	active := packet.ServerDuelState{
		ChallengerGUID: uint64(d.Challenger),
		TargetGUID:     uint64(d.Challenged),
		State:          duelStateActive,
	}.Encode()
	sess.Send(active)
	if other, ok := deps.Bind.Session(d.Challenger); ok {
		other.Send(active)
	}
	return nil
}

// HandleDuelForfeit concedes the caller's duel, pending or active.
func HandleDuelForfeit(sess *netio.Session, r *packet.Reader, deps *Deps) error {
	me := entitymodel.GUID(sess.PlayerGUID)
	d, ok := deps.Duels.duelFor(me)
	if !ok {
		return nil
	}
	if err := d.Forfeit(me); err != nil {
		return fmt.Errorf("duel forfeit: %w", err)
	}
	return nil
}
