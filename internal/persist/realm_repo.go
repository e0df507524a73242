package persist

import "context"

// RealmRow is one entry in the realm list a player sees before
// entering a world, persisted so per-realm load figures survive
// restarts.
type RealmRow struct {
	RealmID     int32
	Name        string
	BindAddress string
	Online      bool
	PlayerCount int32
}

type RealmRepo struct {
	db *DB
}

func NewRealmRepo(db *DB) *RealmRepo {
	return &RealmRepo{db: db}
}

// LoadAll returns every configured realm, in realm_id order, for
// display on the realm-select screen.
func (r *RealmRepo) LoadAll(ctx context.Context) ([]RealmRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT realm_id, name, bind_address, online, player_count
		 FROM realms ORDER BY realm_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RealmRow
	for rows.Next() {
		var rr RealmRow
		if err := rows.Scan(&rr.RealmID, &rr.Name, &rr.BindAddress, &rr.Online, &rr.PlayerCount); err != nil {
			return nil, err
		}
		result = append(result, rr)
	}
	return result, rows.Err()
}

// UpdateStatus is called periodically by the owning realm process to
// publish its current online flag and player count.
func (r *RealmRepo) UpdateStatus(ctx context.Context, realmID int32, online bool, playerCount int32) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE realms SET online = $1, player_count = $2 WHERE realm_id = $3`,
		online, playerCount, realmID,
	)
	return err
}
