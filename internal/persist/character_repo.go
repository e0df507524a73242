package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// VisualRow is one equipment appearance entry inside a character's
// appearance blob: which visual slot shows which display id, colour
// set, and dye choices.
type VisualRow struct {
	Slot      uint8  `json:"slot"`
	DisplayID uint16 `json:"display_id"`
	ColourSet uint16 `json:"colour_set"`
	DyeData   int32  `json:"dye_data"`
}

// AppearanceRow is the JSONB appearance column.
type AppearanceRow struct {
	DisplayInfo int32       `json:"display_info"`
	Visuals     []VisualRow `json:"visuals,omitempty"`
}

// CharacterRow is the character aggregate as stored.
type CharacterRow struct {
	ID          int64
	AccountName string
	Name        string
	ClassID     int32
	Faction     int32
	Level       int32
	XP          int64
	Health      int32
	MaxHealth   int32
	Gold        int64
	ZoneID      int32
	X, Y, Z     float64
	Heading     float64
	AccessLevel int16
	Appearance  AppearanceRow
	CreatedAt   time.Time
	DeletedAt   *time.Time
}

type CharacterRepo struct {
	db *DB
}

func NewCharacterRepo(db *DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

const characterColumns = `id, account_name, name, class_id, faction, level, xp,
	health, max_health, gold, zone_id, x, y, z, heading, access_level,
	appearance, created_at, deleted_at`

func scanCharacter(row pgx.Row) (*CharacterRow, error) {
	c := &CharacterRow{}
	var appearance []byte
	err := row.Scan(
		&c.ID, &c.AccountName, &c.Name, &c.ClassID, &c.Faction, &c.Level, &c.XP,
		&c.Health, &c.MaxHealth, &c.Gold, &c.ZoneID, &c.X, &c.Y, &c.Z, &c.Heading,
		&c.AccessLevel, &appearance, &c.CreatedAt, &c.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(appearance) > 0 {
		if err := json.Unmarshal(appearance, &c.Appearance); err != nil {
			return nil, fmt.Errorf("character %d appearance: %w", c.ID, err)
		}
	}
	return c, nil
}

// Load fetches one character by id; returns (nil, nil) when absent or
// soft-deleted.
func (r *CharacterRepo) Load(ctx context.Context, id int64) (*CharacterRow, error) {
	c, err := scanCharacter(r.db.Pool.QueryRow(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE id = $1 AND deleted_at IS NULL`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// LoadByAccount lists an account's living characters for the character
// select screen.
func (r *CharacterRepo) LoadByAccount(ctx context.Context, accountName string) ([]CharacterRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+characterColumns+` FROM characters
		 WHERE account_name = $1 AND deleted_at IS NULL ORDER BY id`, accountName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CharacterRow
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

// Create inserts a new character and returns its assigned id.
func (r *CharacterRepo) Create(ctx context.Context, c *CharacterRow) (int64, error) {
	appearance, err := json.Marshal(c.Appearance)
	if err != nil {
		return 0, fmt.Errorf("marshal appearance: %w", err)
	}
	var id int64
	err = r.db.Pool.QueryRow(ctx,
		`INSERT INTO characters
		   (account_name, name, class_id, faction, level, xp, health, max_health,
		    gold, zone_id, x, y, z, heading, access_level, appearance)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		 RETURNING id`,
		c.AccountName, c.Name, c.ClassID, c.Faction, c.Level, c.XP, c.Health,
		c.MaxHealth, c.Gold, c.ZoneID, c.X, c.Y, c.Z, c.Heading, c.AccessLevel,
		appearance,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	c.ID = id
	return id, nil
}

// SaveState persists the volatile fields a play session changes:
// position, zone, vitals, progression, gold.
func (r *CharacterRepo) SaveState(ctx context.Context, c *CharacterRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE characters SET
		   level = $2, xp = $3, health = $4, max_health = $5, gold = $6,
		   zone_id = $7, x = $8, y = $9, z = $10, heading = $11
		 WHERE id = $1`,
		c.ID, c.Level, c.XP, c.Health, c.MaxHealth, c.Gold,
		c.ZoneID, c.X, c.Y, c.Z, c.Heading,
	)
	return err
}

// SaveAppearance rewrites the appearance blob, e.g. after a dye change.
func (r *CharacterRepo) SaveAppearance(ctx context.Context, id int64, a AppearanceRow) error {
	appearance, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal appearance: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx,
		`UPDATE characters SET appearance = $2 WHERE id = $1`, id, appearance)
	return err
}

// Delete soft-deletes a character; the row stays for support recovery.
func (r *CharacterRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE characters SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	return err
}
