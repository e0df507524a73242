// Package spatial implements a uniform-cell spatial hash used by a
// ZoneInstance to answer bounded-radius proximity queries without a
// full entity scan.
package spatial

import "math"

// Vec3 is a world position. The grid only reasons about coordinates,
// never about what they mean to the caller.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) distSquared(o Vec3) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	dz := v.Z - o.Z
	return dx*dx + dy*dy + dz*dz
}

// DistanceTo returns the euclidean distance between two positions.
func (v Vec3) DistanceTo(o Vec3) float64 {
	return math.Sqrt(v.distSquared(o))
}

type cellKey struct {
	cx, cy, cz int64
}

// Grid is a uniform-cell spatial hash over uint64 GUIDs. It is not
// safe for concurrent use; a ZoneInstance owns one and touches it only
// from its single-writer goroutine.
type Grid struct {
	cellSize float64
	cells    map[cellKey]map[uint64]struct{}
	pos      map[uint64]Vec3
}

// New builds a Grid with the given cell size. cellSize must be > 0.
func New(cellSize float64) *Grid {
	return &Grid{
		cellSize: cellSize,
		cells:    make(map[cellKey]map[uint64]struct{}),
		pos:      make(map[uint64]Vec3),
	}
}

func (g *Grid) toCellCoord(v float64) int64 {
	return int64(math.Floor(v / g.cellSize))
}

func (g *Grid) keyFor(p Vec3) cellKey {
	return cellKey{cx: g.toCellCoord(p.X), cy: g.toCellCoord(p.Y), cz: g.toCellCoord(p.Z)}
}

// Insert places guid into the grid at p. Inserting an already-present
// guid is equivalent to Update.
func (g *Grid) Insert(guid uint64, p Vec3) {
	if old, ok := g.pos[guid]; ok {
		g.remove(guid, old)
	}
	g.add(guid, p)
}

// Update moves guid to a new position, recomputing its cell only when
// the cell key actually changes.
func (g *Grid) Update(guid uint64, p Vec3) {
	old, ok := g.pos[guid]
	if !ok {
		g.add(guid, p)
		return
	}
	if g.keyFor(old) == g.keyFor(p) {
		g.pos[guid] = p
		return
	}
	g.remove(guid, old)
	g.add(guid, p)
}

// Remove takes guid out of the grid. A no-op if guid is not present.
func (g *Grid) Remove(guid uint64) {
	old, ok := g.pos[guid]
	if !ok {
		return
	}
	g.remove(guid, old)
}

func (g *Grid) add(guid uint64, p Vec3) {
	k := g.keyFor(p)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[uint64]struct{})
		g.cells[k] = cell
	}
	cell[guid] = struct{}{}
	g.pos[guid] = p
}

func (g *Grid) remove(guid uint64, p Vec3) {
	k := g.keyFor(p)
	cell := g.cells[k]
	if cell != nil {
		delete(cell, guid)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
	delete(g.pos, guid)
}

// Position reports guid's last recorded position.
func (g *Grid) Position(guid uint64) (Vec3, bool) {
	p, ok := g.pos[guid]
	return p, ok
}

// EntitiesInRange returns every GUID whose recorded position is within
// radius of center, by exact squared-distance test over the cells
// intersecting the bounding box of the query sphere.
func (g *Grid) EntitiesInRange(center Vec3, radius float64) []uint64 {
	if radius < 0 {
		return nil
	}
	r2 := radius * radius
	minCx := g.toCellCoord(center.X - radius)
	maxCx := g.toCellCoord(center.X + radius)
	minCy := g.toCellCoord(center.Y - radius)
	maxCy := g.toCellCoord(center.Y + radius)
	minCz := g.toCellCoord(center.Z - radius)
	maxCz := g.toCellCoord(center.Z + radius)

	var result []uint64
	for cx := minCx; cx <= maxCx; cx++ {
		for cy := minCy; cy <= maxCy; cy++ {
			for cz := minCz; cz <= maxCz; cz++ {
				cell := g.cells[cellKey{cx: cx, cy: cy, cz: cz}]
				for guid := range cell {
					if g.pos[guid].distSquared(center) <= r2 {
						result = append(result, guid)
					}
				}
			}
		}
	}
	return result
}

// Count reports how many GUIDs are currently tracked.
func (g *Grid) Count() int {
	return len(g.pos)
}
