package encounter

import (
	"math"
	"math/rand"
	"sort"

	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/spatial"
)

// SelectorKind enumerates the ability target selectors.
type SelectorKind int

const (
	SelTank SelectorKind = iota
	SelSecondThreat
	SelFarthest
	SelNearest
	SelLowestHealth
	SelRandom
	SelRandomN
	SelMarked
	SelChain
)

// TargetSelector picks who an ability's effects apply to.
type TargetSelector struct {
	Kind          SelectorKind
	N             int     // SelRandomN count
	MarkedTag     string  // SelMarked debuff name
	ChainRange    float64 // SelChain jump range
	DamageFalloff float64
}

// Combatant is the read-only view of one potential target the
// selectors reason over — injected by the caller (the owning zone)
// rather than this package reaching into entitymodel/zone state
// directly, the same callback/snapshot-injection shape zone.BroadcastFunc
// and creature.TemplateProvider use elsewhere in this module.
type Combatant struct {
	GUID      entitymodel.GUID
	Position  spatial.Vec3
	Health    int32
	MaxHealth int32
	Threat    int64
	Marks     map[string]bool
}

// TargetContext is everything a selector needs for one resolution.
type TargetContext struct {
	BossPosition spatial.Vec3
	Combatants   []Combatant // every eligible raid member, any order
	RNG          *rand.Rand  // seeded per-encounter PRNG so replays reproduce
}

// Resolve returns the GUIDs selected by sel against ctx, applying the
// deterministic tie-break rules that keep fights reproducible.
func (sel TargetSelector) Resolve(ctx TargetContext) []entitymodel.GUID {
	switch sel.Kind {
	case SelTank:
		if g, ok := topThreat(ctx.Combatants); ok {
			return []entitymodel.GUID{g}
		}
		return nil
	case SelSecondThreat:
		sorted := sortedByThreatDesc(ctx.Combatants)
		if len(sorted) < 2 {
			if len(sorted) == 1 {
				return []entitymodel.GUID{sorted[0].GUID}
			}
			return nil
		}
		return []entitymodel.GUID{sorted[1].GUID}
	case SelFarthest:
		return pickByDistance(ctx, true)
	case SelNearest:
		return pickByDistance(ctx, false)
	case SelLowestHealth:
		return pickLowestHealth(ctx.Combatants)
	case SelRandom:
		return pickRandomN(ctx, 1)
	case SelRandomN:
		n := sel.N
		if n <= 0 {
			n = 1
		}
		return pickRandomN(ctx, n)
	case SelMarked:
		return pickMarked(ctx.Combatants, sel.MarkedTag)
	case SelChain:
		initial, ok := topThreat(ctx.Combatants)
		if !ok {
			return nil
		}
		return chainFrom(ctx.Combatants, initial, sel.ChainRange)
	default:
		return nil
	}
}

func topThreat(cs []Combatant) (entitymodel.GUID, bool) {
	var best entitymodel.GUID
	var bestVal int64 = -1
	found := false
	for _, c := range cs {
		if c.Threat > bestVal || (c.Threat == bestVal && found && c.GUID < best) {
			best, bestVal, found = c.GUID, c.Threat, true
		} else if !found {
			best, bestVal, found = c.GUID, c.Threat, true
		}
	}
	return best, found
}

// sortedByThreatDesc sorts by descending threat, ties broken by lower
// GUID, so equal threats resolve the same way every run.
func sortedByThreatDesc(cs []Combatant) []Combatant {
	out := append([]Combatant(nil), cs...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Threat != out[j].Threat {
			return out[i].Threat > out[j].Threat
		}
		return out[i].GUID < out[j].GUID
	})
	return out
}

func pickByDistance(ctx TargetContext, farthest bool) []entitymodel.GUID {
	if len(ctx.Combatants) == 0 {
		return nil
	}
	sorted := append([]Combatant(nil), ctx.Combatants...)
	sort.Slice(sorted, func(i, j int) bool {
		di := distSquared(ctx.BossPosition, sorted[i].Position)
		dj := distSquared(ctx.BossPosition, sorted[j].Position)
		if di != dj {
			if farthest {
				return di > dj
			}
			return di < dj
		}
		return sorted[i].GUID < sorted[j].GUID
	})
	return []entitymodel.GUID{sorted[0].GUID}
}

func pickLowestHealth(cs []Combatant) []entitymodel.GUID {
	if len(cs) == 0 {
		return nil
	}
	sorted := append([]Combatant(nil), cs...)
	sort.Slice(sorted, func(i, j int) bool {
		ri := healthRatio(sorted[i])
		rj := healthRatio(sorted[j])
		if ri != rj {
			return ri < rj
		}
		return sorted[i].GUID < sorted[j].GUID
	})
	return []entitymodel.GUID{sorted[0].GUID}
}

func healthRatio(c Combatant) float64 {
	if c.MaxHealth <= 0 {
		return 0
	}
	return float64(c.Health) / float64(c.MaxHealth)
}

// pickRandomN draws n distinct combatants using ctx's seeded PRNG, so
// repeated encounter replays with the same seed pick the same targets.
func pickRandomN(ctx TargetContext, n int) []entitymodel.GUID {
	if ctx.RNG == nil || len(ctx.Combatants) == 0 {
		return nil
	}
	sorted := sortedByGUID(ctx.Combatants) // stable base order before shuffling
	if n > len(sorted) {
		n = len(sorted)
	}
	ctx.RNG.Shuffle(len(sorted), func(i, j int) { sorted[i], sorted[j] = sorted[j], sorted[i] })
	out := make([]entitymodel.GUID, n)
	for i := 0; i < n; i++ {
		out[i] = sorted[i].GUID
	}
	return out
}

func sortedByGUID(cs []Combatant) []Combatant {
	out := append([]Combatant(nil), cs...)
	sort.Slice(out, func(i, j int) bool { return out[i].GUID < out[j].GUID })
	return out
}

func pickMarked(cs []Combatant, tag string) []entitymodel.GUID {
	var out []entitymodel.GUID
	for _, c := range sortedByGUID(cs) {
		if c.Marks[tag] {
			out = append(out, c.GUID)
		}
	}
	return out
}

// chainFrom starts from initial and repeatedly jumps to the nearest
// un-hit combatant within rangeU ("chain: ... at each jump pick
// the nearest un-hit entity within range").
func chainFrom(cs []Combatant, initial entitymodel.GUID, rangeU float64) []entitymodel.GUID {
	byGUID := make(map[entitymodel.GUID]Combatant, len(cs))
	for _, c := range cs {
		byGUID[c.GUID] = c
	}
	current, ok := byGUID[initial]
	if !ok {
		return nil
	}
	hit := map[entitymodel.GUID]bool{initial: true}
	chain := []entitymodel.GUID{initial}
	for {
		next, found := nearestUnhit(cs, current.Position, hit, rangeU)
		if !found {
			return chain
		}
		chain = append(chain, next.GUID)
		hit[next.GUID] = true
		current = next
	}
}

func nearestUnhit(cs []Combatant, from spatial.Vec3, hit map[entitymodel.GUID]bool, rangeU float64) (Combatant, bool) {
	var best Combatant
	bestDist := math.MaxFloat64
	found := false
	for _, c := range sortedByGUID(cs) {
		if hit[c.GUID] {
			continue
		}
		d := distSquared(from, c.Position)
		if d > rangeU*rangeU {
			continue
		}
		if !found || d < bestDist {
			best, bestDist, found = c, d, true
		}
	}
	return best, found
}

func distSquared(a, b spatial.Vec3) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return dx*dx + dy*dy + dz*dz
}
