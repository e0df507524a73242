package persist

import "context"

// DuelRecordRow is one finished duel's outcome.
type DuelRecordRow struct {
	WinnerGUID int64
	LoserGUID  int64
	Reason     string
}

// ArenaTeamRatingRow is one team's rating after a match; TeamID is 0
// for an ad-hoc team, which never gets a row here: registered teams
// are updated, ad-hoc teams only update player records.
type ArenaTeamRatingRow struct {
	TeamID    int64
	OldRating int32
	NewRating int32
}

// ArenaPlayerRatingRow is one player's post-match rating delta,
// recorded regardless of whether their team is registered.
type ArenaPlayerRatingRow struct {
	PlayerGUID int64
	Delta      int32
}

// PvPRepo persists duel outcomes and arena rating changes.
type PvPRepo struct {
	db *DB
}

func NewPvPRepo(db *DB) *PvPRepo {
	return &PvPRepo{db: db}
}

// RecordDuel appends a finished duel's result.
func (r *PvPRepo) RecordDuel(ctx context.Context, rec DuelRecordRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO duel_records (winner_guid, loser_guid, reason, ended_at)
		 VALUES ($1, $2, $3, NOW())`,
		rec.WinnerGUID, rec.LoserGUID, rec.Reason,
	)
	return err
}

// RecordArenaTeamRating upserts a registered team's new rating.
func (r *PvPRepo) RecordArenaTeamRating(ctx context.Context, rec ArenaTeamRatingRow) error {
	if rec.TeamID == 0 {
		return nil
	}
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO arena_team_ratings (team_id, rating, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (team_id) DO UPDATE SET rating = EXCLUDED.rating, updated_at = NOW()`,
		rec.TeamID, rec.NewRating,
	)
	return err
}

// RecordArenaPlayerRating upserts a player's cumulative rating delta.
func (r *PvPRepo) RecordArenaPlayerRating(ctx context.Context, rec ArenaPlayerRatingRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO arena_player_ratings (player_guid, rating_delta, match_count, updated_at)
		 VALUES ($1, $2, 1, NOW())
		 ON CONFLICT (player_guid) DO UPDATE SET
		   rating_delta = arena_player_ratings.rating_delta + EXCLUDED.rating_delta,
		   match_count = arena_player_ratings.match_count + 1,
		   updated_at = NOW()`,
		rec.PlayerGUID, rec.Delta,
	)
	return err
}
