package catalog

import "math/rand"

// LootDrop is one rolled drop: which item template and how many.
type LootDrop struct {
	ItemID int
	Count  int
}

// chanceDenominator is the per-mil scale DropItem.ChancePerMil is
// expressed in.
const chanceDenominator = 1_000_000

// RollLoot rolls the table a ResolveLoot result points at. DropBonus
// is added to each item's chance in per-mil units before the roll;
// gold is the creature's level-scaled base cut through the resolved
// multiplier. rng is caller-owned so encounter replays stay
// reproducible.
func (c *Catalog) RollLoot(res LootResult, creatureLevel int, rng *rand.Rand) (drops []LootDrop, gold int64) {
	gold = int64(float64(10*creatureLevel) * res.GoldMultiplier)

	drops = c.rollTable(res.LootTableID, res.DropBonus, rng)
	if res.ExtraTable != nil {
		drops = append(drops, c.rollTable(*res.ExtraTable, res.DropBonus, rng)...)
	}
	return drops, gold
}

func (c *Catalog) rollTable(tableID, dropBonus int, rng *rand.Rand) []LootDrop {
	table, ok := c.LootTables.Get(tableID)
	if !ok {
		return nil
	}
	var drops []LootDrop
	for _, item := range table.Items {
		chance := item.ChancePerMil + dropBonus
		if chance <= 0 || rng.Intn(chanceDenominator) >= chance {
			continue
		}
		count := item.Min
		if item.Max > item.Min {
			count += rng.Intn(item.Max - item.Min + 1)
		}
		if count <= 0 {
			count = 1
		}
		drops = append(drops, LootDrop{ItemID: item.ItemID, Count: count})
	}
	return drops
}
