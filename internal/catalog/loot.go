package catalog

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LootResult is what ResolveLoot returns: which loot table to roll
// against and the gold/drop-rate modifiers to apply to it.
type LootResult struct {
	LootTableID    int
	GoldMultiplier float64
	DropBonus      int
	ExtraTable     *int
}

func defaultLootResult() LootResult {
	return LootResult{LootTableID: 1, GoldMultiplier: 1.0, DropBonus: 0}
}

// LootOverride pins a specific creature to an exact loot table,
// bypassing the race/tier/difficulty derivation entirely.
type LootOverride struct {
	CreatureID     int     `yaml:"creature_id"`
	LootTableID    int     `yaml:"loot_table_id"`
	GoldMultiplier float64 `yaml:"gold_multiplier"`
	DropBonus      int     `yaml:"drop_bonus"`
}

// RaceMapping derives a base loot table from a creature's race.
type RaceMapping struct {
	Key       string `yaml:"race"` // decimal id or atom name; "default" is the fallback entry
	BaseTable int    `yaml:"base_table"`
}

// TierModifier adjusts the base table and gold/drop rates by tier.
type TierModifier struct {
	Key            string  `yaml:"tier"`
	TableOffset    int     `yaml:"table_offset"`
	GoldMultiplier float64 `yaml:"gold_multiplier"`
	DropBonus      int     `yaml:"drop_bonus"`
	ExtraTable     *int    `yaml:"extra_table"`
}

// DifficultyModifier further adjusts gold/drop rates by difficulty.
type DifficultyModifier struct {
	Key            string  `yaml:"difficulty"`
	GoldMultiplier float64 `yaml:"gold_multiplier"`
	DropBonus      int     `yaml:"drop_bonus"`
}

type lootRuleFile struct {
	Overrides           []LootOverride       `yaml:"overrides"`
	RaceMappings        []RaceMapping        `yaml:"race_mappings"`
	TierModifiers       []TierModifier       `yaml:"tier_modifiers"`
	DifficultyModifiers []DifficultyModifier `yaml:"difficulty_modifiers"`
}

// LootRules holds every loot-derivation rule table, keyed for the
// normalized lookup ResolveLoot performs.
type LootRules struct {
	overrides    map[int]LootOverride
	raceMappings map[string]RaceMapping
	tiers        map[string]TierModifier
	difficulties map[string]DifficultyModifier
}

// LoadLootRules reads a YAML rule file into a LootRules. Keys
// beginning with "_" anywhere in the source document are ops metadata
// (comments-as-data, aliases) and are never treated as rule entries —
// yaml.v3 already drops unknown top-level keys on unmarshal into a
// strict struct, so this only needs to apply to the Key fields below.
func LoadLootRules(path string) (*LootRules, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read loot rules: %w", err)
	}
	var f lootRuleFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse loot rules: %w", err)
	}

	rules := &LootRules{
		overrides:    make(map[int]LootOverride, len(f.Overrides)),
		raceMappings: make(map[string]RaceMapping, len(f.RaceMappings)),
		tiers:        make(map[string]TierModifier, len(f.TierModifiers)),
		difficulties: make(map[string]DifficultyModifier, len(f.DifficultyModifiers)),
	}
	for _, o := range f.Overrides {
		rules.overrides[o.CreatureID] = o
	}
	for _, r := range f.RaceMappings {
		if strings.HasPrefix(r.Key, "_") {
			continue
		}
		rules.raceMappings[r.Key] = r
	}
	for _, t := range f.TierModifiers {
		if strings.HasPrefix(t.Key, "_") {
			continue
		}
		rules.tiers[t.Key] = t
	}
	for _, d := range f.DifficultyModifiers {
		if strings.HasPrefix(d.Key, "_") {
			continue
		}
		rules.difficulties[d.Key] = d
	}
	return rules, nil
}

// lookupKey tries the decimal form of id, then "default".
func lookupKey[V any](m map[string]V, id int) (V, bool) {
	if v, ok := m[strconv.Itoa(id)]; ok {
		return v, true
	}
	if v, ok := m["default"]; ok {
		return v, true
	}
	var zero V
	return zero, false
}

// CreatureLootProfile is the subset of a creature template ResolveLoot
// needs: its own id plus the race/tier/difficulty it was authored with.
type CreatureLootProfile struct {
	CreatureID   int
	RaceID       int
	TierID       int
	DifficultyID int
}

// ResolveLoot derives which loot table a creature rolls against and
// the gold/drop modifiers to apply. Works even with
// a nil *LootRules (treated as "no rules exist") or a creature not
// present in any table, always falling back to the hard default.
func (r *LootRules) ResolveLoot(profile CreatureLootProfile) LootResult {
	if r == nil {
		return defaultLootResult()
	}
	if override, ok := r.overrides[profile.CreatureID]; ok {
		gold := override.GoldMultiplier
		if gold == 0 {
			gold = 1.0
		}
		return LootResult{LootTableID: override.LootTableID, GoldMultiplier: gold, DropBonus: override.DropBonus}
	}

	baseTable := 1
	if race, ok := lookupKey(r.raceMappings, profile.RaceID); ok {
		baseTable = race.BaseTable
	}

	tableOffset := 0
	tierGold, tierDrop := 1.0, 0
	var extraTable *int
	if tier, ok := lookupKey(r.tiers, profile.TierID); ok {
		tableOffset = tier.TableOffset
		if tier.GoldMultiplier != 0 {
			tierGold = tier.GoldMultiplier
		}
		tierDrop = tier.DropBonus
		extraTable = tier.ExtraTable
	}

	diffGold, diffDrop := 1.0, 0
	if diff, ok := lookupKey(r.difficulties, profile.DifficultyID); ok {
		if diff.GoldMultiplier != 0 {
			diffGold = diff.GoldMultiplier
		}
		diffDrop = diff.DropBonus
	}

	return LootResult{
		LootTableID:    baseTable + tableOffset,
		GoldMultiplier: tierGold * diffGold,
		DropBonus:      tierDrop + diffDrop,
		ExtraTable:     extraTable,
	}
}
