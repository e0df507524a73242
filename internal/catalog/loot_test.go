package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func writeLootRules(t *testing.T, yamlBody string) *LootRules {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loot_rules.yaml")
	if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
		t.Fatal(err)
	}
	rules, err := LoadLootRules(path)
	if err != nil {
		t.Fatal(err)
	}
	return rules
}

func TestResolveLootWithNoRulesReturnsHardDefault(t *testing.T) {
	var rules *LootRules
	got := rules.ResolveLoot(CreatureLootProfile{CreatureID: 1})
	want := LootResult{LootTableID: 1, GoldMultiplier: 1.0, DropBonus: 0}
	if got != want {
		t.Fatalf("ResolveLoot = %+v, want %+v", got, want)
	}
}

func TestResolveLootOverrideBypassesDerivation(t *testing.T) {
	rules := writeLootRules(t, `
overrides:
  - creature_id: 42
    loot_table_id: 900
    drop_bonus: 5
`)
	got := rules.ResolveLoot(CreatureLootProfile{CreatureID: 42, RaceID: 1, TierID: 1, DifficultyID: 1})
	if got.LootTableID != 900 || got.GoldMultiplier != 1.0 || got.DropBonus != 5 {
		t.Fatalf("ResolveLoot override = %+v", got)
	}
}

func TestResolveLootDerivesFromRaceTierDifficulty(t *testing.T) {
	rules := writeLootRules(t, `
race_mappings:
  - race: "3"
    base_table: 100
tier_modifiers:
  - tier: "2"
    table_offset: 5
    gold_multiplier: 1.5
    drop_bonus: 10
difficulty_modifiers:
  - difficulty: "1"
    gold_multiplier: 2.0
    drop_bonus: 3
`)
	got := rules.ResolveLoot(CreatureLootProfile{CreatureID: 1, RaceID: 3, TierID: 2, DifficultyID: 1})
	want := LootResult{LootTableID: 105, GoldMultiplier: 3.0, DropBonus: 13}
	if got != want {
		t.Fatalf("ResolveLoot = %+v, want %+v", got, want)
	}
}

func TestResolveLootFallsBackToDefaultEntryThenHardDefault(t *testing.T) {
	rules := writeLootRules(t, `
race_mappings:
  - race: "default"
    base_table: 7
`)
	got := rules.ResolveLoot(CreatureLootProfile{CreatureID: 1, RaceID: 999})
	if got.LootTableID != 7 {
		t.Fatalf("ResolveLoot default race fallback = %+v", got)
	}

	got2 := rules.ResolveLoot(CreatureLootProfile{CreatureID: 1, RaceID: 999, TierID: 999, DifficultyID: 999})
	if got2.GoldMultiplier != 1.0 || got2.DropBonus != 0 {
		t.Fatalf("ResolveLoot unmatched tier/difficulty = %+v", got2)
	}
}

func TestResolveLootIgnoresUnderscorePrefixedKeys(t *testing.T) {
	rules := writeLootRules(t, `
race_mappings:
  - race: "_comment"
    base_table: 999
  - race: "5"
    base_table: 50
`)
	got := rules.ResolveLoot(CreatureLootProfile{CreatureID: 1, RaceID: 5})
	if got.LootTableID != 50 {
		t.Fatalf("ResolveLoot = %+v, want base_table 50 (underscore key must be ignored)", got)
	}
}
