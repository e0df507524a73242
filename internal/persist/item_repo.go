package persist

import (
	"context"
	"fmt"
)

// ItemRow is one persisted inventory entry, addressed the same way the
// wire addresses it: a container location tag plus a slot index.
type ItemRow struct {
	ID       int64 // persisted item identity, stable across moves
	CharID   int64
	ItemID   int32 // content template id
	Count    int32
	Location int16 // 0=equipped 1=bag 2=bank 3=trade
	Slot     int16
	DyeData  int32
}

type ItemRepo struct {
	db *DB
}

func NewItemRepo(db *DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// LoadByCharID returns a character's full inventory across containers.
func (r *ItemRepo) LoadByCharID(ctx context.Context, charID int64) ([]ItemRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, char_id, item_id, count, location, slot, dye_data
		 FROM character_items WHERE char_id = $1 ORDER BY location, slot`, charID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ItemRow
	for rows.Next() {
		var it ItemRow
		if err := rows.Scan(&it.ID, &it.CharID, &it.ItemID, &it.Count,
			&it.Location, &it.Slot, &it.DyeData); err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

// Add inserts a newly acquired item (loot, trade) and returns its id.
func (r *ItemRepo) Add(ctx context.Context, it *ItemRow) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO character_items (char_id, item_id, count, location, slot, dye_data)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		it.CharID, it.ItemID, it.Count, it.Location, it.Slot, it.DyeData,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	it.ID = id
	return id, nil
}

// Move relocates one item to a new (location, slot). The unique
// constraint on (char_id, location, slot) rejects a move onto an
// occupied slot; callers treat that as a validation failure.
func (r *ItemRepo) Move(ctx context.Context, itemID int64, location, slot int16) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE character_items SET location = $2, slot = $3 WHERE id = $1`,
		itemID, location, slot)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("move item %d: no such item", itemID)
	}
	return nil
}

// Swap exchanges the (location, slot) of two items in one transaction,
// parking the first on the trade tag's high slot range to dodge the
// uniqueness constraint mid-swap.
func (r *ItemRepo) Swap(ctx context.Context, aID, bID int64) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("swap begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var aLoc, aSlot, bLoc, bSlot int16
	if err := tx.QueryRow(ctx,
		`SELECT location, slot FROM character_items WHERE id = $1 FOR UPDATE`, aID,
	).Scan(&aLoc, &aSlot); err != nil {
		return fmt.Errorf("swap lock %d: %w", aID, err)
	}
	if err := tx.QueryRow(ctx,
		`SELECT location, slot FROM character_items WHERE id = $1 FOR UPDATE`, bID,
	).Scan(&bLoc, &bSlot); err != nil {
		return fmt.Errorf("swap lock %d: %w", bID, err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE character_items SET location = 3, slot = 255 WHERE id = $1`, aID); err != nil {
		return fmt.Errorf("swap park: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE character_items SET location = $2, slot = $3 WHERE id = $1`, bID, aLoc, aSlot); err != nil {
		return fmt.Errorf("swap move: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE character_items SET location = $2, slot = $3 WHERE id = $1`, aID, bLoc, bSlot); err != nil {
		return fmt.Errorf("swap unpark: %w", err)
	}
	return tx.Commit(ctx)
}

// Remove deletes a consumed or destroyed item.
func (r *ItemRepo) Remove(ctx context.Context, itemID int64) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM character_items WHERE id = $1`, itemID)
	return err
}
