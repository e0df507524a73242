package catalog

import (
	"math/rand"
	"testing"
)

func rollCatalog() *Catalog {
	c := New()
	c.LootTables.Put(1, LootTable{ID: 1, Items: []DropItem{
		{ItemID: 100, Min: 1, Max: 1, ChancePerMil: 1_000_000},
		{ItemID: 101, Min: 2, Max: 4, ChancePerMil: 0},
	}})
	c.LootTables.Put(2, LootTable{ID: 2, Items: []DropItem{
		{ItemID: 200, Min: 1, Max: 1, ChancePerMil: 1_000_000},
	}})
	c.Finalize()
	return c
}

func TestRollLootGuaranteedAndImpossibleDrops(t *testing.T) {
	c := rollCatalog()
	res := LootResult{LootTableID: 1, GoldMultiplier: 1.0}
	drops, gold := c.RollLoot(res, 5, rand.New(rand.NewSource(1)))

	if len(drops) != 1 || drops[0].ItemID != 100 || drops[0].Count != 1 {
		t.Fatalf("drops = %+v, want only item 100", drops)
	}
	if gold != 50 {
		t.Fatalf("gold = %d, want 50", gold)
	}
}

func TestRollLootAppliesGoldMultiplier(t *testing.T) {
	c := rollCatalog()
	res := LootResult{LootTableID: 1, GoldMultiplier: 2.5}
	_, gold := c.RollLoot(res, 4, rand.New(rand.NewSource(1)))
	if gold != 100 {
		t.Fatalf("gold = %d, want 100", gold)
	}
}

func TestRollLootIncludesExtraTable(t *testing.T) {
	c := rollCatalog()
	extra := 2
	res := LootResult{LootTableID: 1, GoldMultiplier: 1.0, ExtraTable: &extra}
	drops, _ := c.RollLoot(res, 1, rand.New(rand.NewSource(1)))

	seen := map[int]bool{}
	for _, d := range drops {
		seen[d.ItemID] = true
	}
	if !seen[100] || !seen[200] {
		t.Fatalf("drops = %+v, want items from both tables", drops)
	}
}

func TestRollLootMissingTableDropsNothing(t *testing.T) {
	c := rollCatalog()
	res := LootResult{LootTableID: 99, GoldMultiplier: 1.0}
	drops, _ := c.RollLoot(res, 1, rand.New(rand.NewSource(1)))
	if len(drops) != 0 {
		t.Fatalf("drops = %+v, want none for missing table", drops)
	}
}

func TestRollLootDropBonusLiftsZeroChanceEntries(t *testing.T) {
	c := rollCatalog()
	res := LootResult{LootTableID: 1, GoldMultiplier: 1.0, DropBonus: 1_000_000}
	drops, _ := c.RollLoot(res, 1, rand.New(rand.NewSource(1)))
	if len(drops) != 2 {
		t.Fatalf("drops = %+v, want both items with saturating bonus", drops)
	}
}
