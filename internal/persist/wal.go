package persist

import (
	"context"
	"fmt"
)

// WALEntry is one economic write-ahead log entry. Loot grants and
// cross-zone item hand-offs write here before mutating inventory, so
// a crash between the roll and the inventory write leaves a record to
// reconcile from instead of a silent dupe or loss.
type WALEntry struct {
	TxType     string // "loot", "trade", "transfer"
	FromGUID   int64  // source entity (creature for loot), 0 if none
	ToGUID     int64  // receiving character
	ItemID     int32
	Count      int32
	GoldAmount int64
}

type WALRepo struct {
	db *DB
}

func NewWALRepo(db *DB) *WALRepo {
	return &WALRepo{db: db}
}

// Write atomically appends a batch of WAL entries in one transaction.
// If it fails, the caller should abandon the economic mutation.
func (r *WALRepo) Write(ctx context.Context, entries []WALEntry) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("wal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO economic_wal (tx_type, from_guid, to_guid, item_id, count, gold_amount)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			e.TxType, e.FromGUID, e.ToGUID, e.ItemID, e.Count, e.GoldAmount,
		); err != nil {
			return fmt.Errorf("wal insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// MarkProcessed flags every pending entry after a successful flush of
// the inventory writes they guard.
func (r *WALRepo) MarkProcessed(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE economic_wal SET processed = TRUE WHERE processed = FALSE`)
	return err
}

// LoadUnprocessed returns entries a previous run wrote but never
// flagged, for boot-time reconciliation.
func (r *WALRepo) LoadUnprocessed(ctx context.Context) ([]WALEntry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT tx_type, from_guid, to_guid, item_id, count, gold_amount
		 FROM economic_wal WHERE processed = FALSE ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []WALEntry
	for rows.Next() {
		var e WALEntry
		if err := rows.Scan(&e.TxType, &e.FromGUID, &e.ToGUID, &e.ItemID, &e.Count, &e.GoldAmount); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
