package catalog

import "time"

// CreatureTemplate is the pre-compiled static record for a spawnable
// creature type.
type CreatureTemplate struct {
	ID             int
	Name           string
	Level          int
	Health         int32
	Armor          int
	MinDamage      int
	MaxDamage      int
	AttackRangeU   float64
	AttackCooldown time.Duration
	MoveSpeed      float64
	RespawnTime    time.Duration
	XPBase         int64
	RaceID         int
	TierID         int
	DifficultyID   int
}

// ItemTemplate is the static record for an item, including the
// visual/display-slot resolution.
type ItemTemplate struct {
	ID         int
	Name       string
	DisplaySrc int
	VisualSlot int
	StackMax   int
	EquipSlot  string
}

// SpellEffectDef is a catalog-level spell/ability effect record, used
// by the encounter engine and by player ability resolution alike.
type SpellEffectDef struct {
	ID        int
	Name      string
	Kind      string
	Magnitude float64
}

// TelegraphShapeDef is a named, reusable telegraph shape.
type TelegraphShapeDef struct {
	ID         int
	Shape      string
	RadiusU    float64
	DurationMs uint32
}

// LootTable is one row of droppable items, looked up by the id loot
// resolution produces.
type LootTable struct {
	ID    int
	Items []DropItem
}

// DropItem is one possible drop within a LootTable.
type DropItem struct {
	ItemID       int
	Min, Max     int
	ChancePerMil int // out of 1,000,000
	EnchantLevel int
}

// SplineNode is one waypoint of a SplinePath.
type SplineNode struct{ X, Y, Z float64 }

// SplinePath is an ordered sequence of waypoints creatures/escorts
// can be bound to.
type SplinePath struct {
	ID    int
	Nodes []SplineNode
}

// HarvestNode is a gatherable resource point placed in a zone at
// startup alongside creature spawns.
type HarvestNode struct {
	ID           int
	ZoneID       int32
	X, Y, Z      float64
	ResourceID   int
	RespawnDelay time.Duration
}

// SpawnEntry places a creature template in a zone at startup.
type SpawnEntry struct {
	ID           int
	CreatureID   int
	ZoneID       int32
	X, Y, Z      float64
	Count        int
	RespawnDelay time.Duration
}

// Catalog aggregates every content table loaded at startup. Built
// once, read many times, never mutated afterward.
type Catalog struct {
	Creatures  *Table[CreatureTemplate]
	Items      *Table[ItemTemplate]
	Spells     *Table[SpellEffectDef]
	Telegraphs *Table[TelegraphShapeDef]
	LootTables *Table[LootTable]
	Splines    *Table[SplinePath]
	Spawns     *Table[SpawnEntry]
	Harvest    *Table[HarvestNode]
	Loot       *LootRules
}

func New() *Catalog {
	return &Catalog{
		Creatures:  NewTable[CreatureTemplate](),
		Items:      NewTable[ItemTemplate](),
		Spells:     NewTable[SpellEffectDef](),
		Telegraphs: NewTable[TelegraphShapeDef](),
		LootTables: NewTable[LootTable](),
		Splines:    NewTable[SplinePath](),
		Spawns:     NewTable[SpawnEntry](),
		Harvest:    NewTable[HarvestNode](),
	}
}

// Finalize sorts every table's iteration order. Call once after all
// Put calls from the content loader have completed.
func (c *Catalog) Finalize() {
	c.Creatures.Finalize()
	c.Items.Finalize()
	c.Spells.Finalize()
	c.Telegraphs.Finalize()
	c.LootTables.Finalize()
	c.Splines.Finalize()
	c.Spawns.Finalize()
	c.Harvest.Finalize()
}

// SpawnsByZone indexes Spawns by ZoneID for ZoneInstance's startup
// population load.
func (c *Catalog) SpawnsByZone() *Index[int32] {
	return BuildIndex(c.Spawns, func(s SpawnEntry) (int32, bool) { return s.ZoneID, true })
}
