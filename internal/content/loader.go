// Package content loads the JSON-on-disk content files that populate
// catalog.Catalog at startup, with an mtime-gated binary cache beside
// each source file and a compile-time whitelist of which files may be
// parsed at all.
package content

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/catalog"
)

// fileKind is the compile-time whitelist of JSON content files this
// loader understands; any other file under the content root is
// ignored rather than speculatively parsed.
type fileKind string

const (
	kindCreatures  fileKind = "creatures.json"
	kindItems      fileKind = "items.json"
	kindSpells     fileKind = "spell_effects.json"
	kindTelegraphs fileKind = "telegraph_shapes.json"
	kindLootTables fileKind = "loot_tables.json"
	kindSplines    fileKind = "splines.json"
	kindSpawns     fileKind = "spawns.json"
	kindHarvest    fileKind = "harvest_nodes.json"
)

var whitelist = []fileKind{
	kindCreatures, kindItems, kindSpells, kindTelegraphs,
	kindLootTables, kindSplines, kindSpawns, kindHarvest,
}

// creatureRecord/itemRecord/... are the JSON wire shapes; they mirror
// catalog's types field-for-field but keep JSON tags separate from the
// in-memory record so the catalog package itself never needs to know
// about JSON.
type creatureRecord struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	Level            int     `json:"level"`
	Health           int32   `json:"health"`
	Armor            int     `json:"armor"`
	MinDamage        int     `json:"min_damage"`
	MaxDamage        int     `json:"max_damage"`
	AttackRangeU     float64 `json:"attack_range_u"`
	AttackCooldownMs int64   `json:"attack_cooldown_ms"`
	MoveSpeed        float64 `json:"move_speed"`
	RespawnTimeMs    int64   `json:"respawn_time_ms"`
	XPBase           int64   `json:"xp_base"`
	RaceID           int     `json:"race_id"`
	TierID           int     `json:"tier_id"`
	DifficultyID     int     `json:"difficulty_id"`
}

type itemRecord struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	DisplaySrc int    `json:"display_src"`
	VisualSlot int    `json:"visual_slot"`
	StackMax   int    `json:"stack_max"`
	EquipSlot  string `json:"equip_slot"`
}

type spellRecord struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	Magnitude float64 `json:"magnitude"`
}

type telegraphRecord struct {
	ID         int     `json:"id"`
	Shape      string  `json:"shape"`
	RadiusU    float64 `json:"radius_u"`
	DurationMs uint32  `json:"duration_ms"`
}

type dropItemRecord struct {
	ItemID       int `json:"item_id"`
	Min          int `json:"min"`
	Max          int `json:"max"`
	ChancePerMil int `json:"chance_per_mil"`
	EnchantLevel int `json:"enchant_level"`
}

type lootTableRecord struct {
	ID    int              `json:"id"`
	Items []dropItemRecord `json:"items"`
}

type splineNodeRecord struct{ X, Y, Z float64 }

type splineRecord struct {
	ID    int                `json:"id"`
	Nodes []splineNodeRecord `json:"nodes"`
}

type harvestNodeRecord struct {
	ID             int   `json:"id"`
	ZoneID         int32 `json:"zone_id"`
	X, Y, Z        float64
	ResourceID     int   `json:"resource_id"`
	RespawnDelayMs int64 `json:"respawn_delay_ms"`
}

type spawnRecord struct {
	ID             int   `json:"id"`
	CreatureID     int   `json:"creature_id"`
	ZoneID         int32 `json:"zone_id"`
	X, Y, Z        float64
	Count          int   `json:"count"`
	RespawnDelayMs int64 `json:"respawn_delay_ms"`
}

// Load builds a *catalog.Catalog from every whitelisted JSON file
// found under root, using a gob-encoded cache file beside each JSON
// source when the cache is at least as fresh as the source.
func Load(root string, log *zap.Logger) (*catalog.Catalog, error) {
	cat := catalog.New()

	for _, kind := range whitelist {
		path := filepath.Join(root, string(kind))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := loadOne(cat, root, kind, log); err != nil {
			return nil, fmt.Errorf("load %s: %w", kind, err)
		}
	}

	if err := loadLootRules(cat, root, log); err != nil {
		return nil, fmt.Errorf("load loot rules: %w", err)
	}

	cat.Finalize()
	return cat, nil
}

// Precompile force-regenerates every binary cache under root: stale
// caches are removed first so Load re-parses each JSON source and
// writes a fresh cache beside it. Used by the contentc tool so realm
// boots never pay the JSON parse cost on a cold deploy.
func Precompile(root string, log *zap.Logger) (*catalog.Catalog, error) {
	for _, kind := range whitelist {
		cachePath := filepath.Join(root, string(kind)+".cache")
		if err := os.Remove(cachePath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("remove stale cache %s: %w", cachePath, err)
		}
	}
	return Load(root, log)
}

func loadLootRules(cat *catalog.Catalog, root string, log *zap.Logger) error {
	path := filepath.Join(root, "loot_rules.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	rules, err := catalog.LoadLootRules(path)
	if err != nil {
		return err
	}
	cat.Loot = rules
	return nil
}

func loadOne(cat *catalog.Catalog, root string, kind fileKind, log *zap.Logger) error {
	jsonPath := filepath.Join(root, string(kind))
	cachePath := jsonPath + ".cache"

	if fresh, err := cacheIsFresh(jsonPath, cachePath); err == nil && fresh {
		if err := loadFromCache(cat, kind, cachePath); err == nil {
			return nil
		}
		// fall through to re-parse the JSON on any cache read failure
	}

	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return err
	}

	switch kind {
	case kindCreatures:
		var recs []creatureRecord
		if err := json.Unmarshal(raw, &recs); err != nil {
			return err
		}
		for _, r := range recs {
			cat.Creatures.Put(r.ID, catalog.CreatureTemplate{
				ID: r.ID, Name: r.Name, Level: r.Level, Health: r.Health,
				Armor: r.Armor, MinDamage: r.MinDamage, MaxDamage: r.MaxDamage,
				AttackRangeU: r.AttackRangeU, AttackCooldown: msToDuration(r.AttackCooldownMs),
				MoveSpeed: r.MoveSpeed, RespawnTime: msToDuration(r.RespawnTimeMs),
				XPBase: r.XPBase, RaceID: r.RaceID, TierID: r.TierID, DifficultyID: r.DifficultyID,
			})
		}
		return writeCache(cachePath, recs)

	case kindItems:
		var recs []itemRecord
		if err := json.Unmarshal(raw, &recs); err != nil {
			return err
		}
		for _, r := range recs {
			cat.Items.Put(r.ID, catalog.ItemTemplate{
				ID: r.ID, Name: r.Name, DisplaySrc: r.DisplaySrc,
				VisualSlot: r.VisualSlot, StackMax: r.StackMax, EquipSlot: r.EquipSlot,
			})
		}
		return writeCache(cachePath, recs)

	case kindSpells:
		var recs []spellRecord
		if err := json.Unmarshal(raw, &recs); err != nil {
			return err
		}
		for _, r := range recs {
			cat.Spells.Put(r.ID, catalog.SpellEffectDef{ID: r.ID, Name: r.Name, Kind: r.Kind, Magnitude: r.Magnitude})
		}
		return writeCache(cachePath, recs)

	case kindTelegraphs:
		var recs []telegraphRecord
		if err := json.Unmarshal(raw, &recs); err != nil {
			return err
		}
		for _, r := range recs {
			cat.Telegraphs.Put(r.ID, catalog.TelegraphShapeDef{ID: r.ID, Shape: r.Shape, RadiusU: r.RadiusU, DurationMs: r.DurationMs})
		}
		return writeCache(cachePath, recs)

	case kindLootTables:
		var recs []lootTableRecord
		if err := json.Unmarshal(raw, &recs); err != nil {
			return err
		}
		for _, r := range recs {
			items := make([]catalog.DropItem, 0, len(r.Items))
			for _, it := range r.Items {
				items = append(items, catalog.DropItem{
					ItemID: it.ItemID, Min: it.Min, Max: it.Max,
					ChancePerMil: it.ChancePerMil, EnchantLevel: it.EnchantLevel,
				})
			}
			cat.LootTables.Put(r.ID, catalog.LootTable{ID: r.ID, Items: items})
		}
		return writeCache(cachePath, recs)

	case kindSplines:
		var recs []splineRecord
		if err := json.Unmarshal(raw, &recs); err != nil {
			return err
		}
		for _, r := range recs {
			nodes := make([]catalog.SplineNode, 0, len(r.Nodes))
			for _, n := range r.Nodes {
				nodes = append(nodes, catalog.SplineNode{X: n.X, Y: n.Y, Z: n.Z})
			}
			cat.Splines.Put(r.ID, catalog.SplinePath{ID: r.ID, Nodes: nodes})
		}
		return writeCache(cachePath, recs)

	case kindSpawns:
		var recs []spawnRecord
		if err := json.Unmarshal(raw, &recs); err != nil {
			return err
		}
		for _, r := range recs {
			cat.Spawns.Put(r.ID, catalog.SpawnEntry{
				ID: r.ID, CreatureID: r.CreatureID, ZoneID: r.ZoneID,
				X: r.X, Y: r.Y, Z: r.Z, Count: r.Count, RespawnDelay: msToDuration(r.RespawnDelayMs),
			})
		}
		return writeCache(cachePath, recs)

	case kindHarvest:
		var recs []harvestNodeRecord
		if err := json.Unmarshal(raw, &recs); err != nil {
			return err
		}
		for _, r := range recs {
			cat.Harvest.Put(r.ID, catalog.HarvestNode{
				ID: r.ID, ZoneID: r.ZoneID, X: r.X, Y: r.Y, Z: r.Z,
				ResourceID: r.ResourceID, RespawnDelay: msToDuration(r.RespawnDelayMs),
			})
		}
		return writeCache(cachePath, recs)
	}

	if log != nil {
		log.Warn("content: no loader registered for whitelisted kind", zap.String("kind", string(kind)))
	}
	return nil
}

func msToDuration(ms int64) time.Duration { return time.Duration(ms) * time.Millisecond }

// cacheIsFresh reports whether cachePath exists and its mtime is at
// least as new as jsonPath's.
func cacheIsFresh(jsonPath, cachePath string) (bool, error) {
	jsonInfo, err := os.Stat(jsonPath)
	if err != nil {
		return false, err
	}
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false, nil
	}
	return !cacheInfo.ModTime().Before(jsonInfo.ModTime()), nil
}

func writeCache(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(v)
}

func loadFromCache(cat *catalog.Catalog, kind fileKind, cachePath string) error {
	f, err := os.Open(cachePath)
	if err != nil {
		return err
	}
	defer f.Close()
	dec := gob.NewDecoder(f)

	switch kind {
	case kindCreatures:
		var recs []creatureRecord
		if err := dec.Decode(&recs); err != nil {
			return err
		}
		for _, r := range recs {
			cat.Creatures.Put(r.ID, catalog.CreatureTemplate{
				ID: r.ID, Name: r.Name, Level: r.Level, Health: r.Health,
				Armor: r.Armor, MinDamage: r.MinDamage, MaxDamage: r.MaxDamage,
				AttackRangeU: r.AttackRangeU, AttackCooldown: msToDuration(r.AttackCooldownMs),
				MoveSpeed: r.MoveSpeed, RespawnTime: msToDuration(r.RespawnTimeMs),
				XPBase: r.XPBase, RaceID: r.RaceID, TierID: r.TierID, DifficultyID: r.DifficultyID,
			})
		}
	case kindItems:
		var recs []itemRecord
		if err := dec.Decode(&recs); err != nil {
			return err
		}
		for _, r := range recs {
			cat.Items.Put(r.ID, catalog.ItemTemplate{
				ID: r.ID, Name: r.Name, DisplaySrc: r.DisplaySrc,
				VisualSlot: r.VisualSlot, StackMax: r.StackMax, EquipSlot: r.EquipSlot,
			})
		}
	case kindSpells:
		var recs []spellRecord
		if err := dec.Decode(&recs); err != nil {
			return err
		}
		for _, r := range recs {
			cat.Spells.Put(r.ID, catalog.SpellEffectDef{ID: r.ID, Name: r.Name, Kind: r.Kind, Magnitude: r.Magnitude})
		}
	case kindTelegraphs:
		var recs []telegraphRecord
		if err := dec.Decode(&recs); err != nil {
			return err
		}
		for _, r := range recs {
			cat.Telegraphs.Put(r.ID, catalog.TelegraphShapeDef{ID: r.ID, Shape: r.Shape, RadiusU: r.RadiusU, DurationMs: r.DurationMs})
		}
	case kindLootTables:
		var recs []lootTableRecord
		if err := dec.Decode(&recs); err != nil {
			return err
		}
		for _, r := range recs {
			items := make([]catalog.DropItem, 0, len(r.Items))
			for _, it := range r.Items {
				items = append(items, catalog.DropItem{
					ItemID: it.ItemID, Min: it.Min, Max: it.Max,
					ChancePerMil: it.ChancePerMil, EnchantLevel: it.EnchantLevel,
				})
			}
			cat.LootTables.Put(r.ID, catalog.LootTable{ID: r.ID, Items: items})
		}
	case kindSplines:
		var recs []splineRecord
		if err := dec.Decode(&recs); err != nil {
			return err
		}
		for _, r := range recs {
			nodes := make([]catalog.SplineNode, 0, len(r.Nodes))
			for _, n := range r.Nodes {
				nodes = append(nodes, catalog.SplineNode{X: n.X, Y: n.Y, Z: n.Z})
			}
			cat.Splines.Put(r.ID, catalog.SplinePath{ID: r.ID, Nodes: nodes})
		}
	case kindSpawns:
		var recs []spawnRecord
		if err := dec.Decode(&recs); err != nil {
			return err
		}
		for _, r := range recs {
			cat.Spawns.Put(r.ID, catalog.SpawnEntry{
				ID: r.ID, CreatureID: r.CreatureID, ZoneID: r.ZoneID,
				X: r.X, Y: r.Y, Z: r.Z, Count: r.Count, RespawnDelay: msToDuration(r.RespawnDelayMs),
			})
		}
	case kindHarvest:
		var recs []harvestNodeRecord
		if err := dec.Decode(&recs); err != nil {
			return err
		}
		for _, r := range recs {
			cat.Harvest.Put(r.ID, catalog.HarvestNode{
				ID: r.ID, ZoneID: r.ZoneID, X: r.X, Y: r.Y, Z: r.Z,
				ResourceID: r.ResourceID, RespawnDelay: msToDuration(r.RespawnDelayMs),
			})
		}
	}
	return nil
}
