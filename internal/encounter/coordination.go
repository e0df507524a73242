package encounter

import (
	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/spatial"
)

// CoordinationResult is one mechanic's outcome at resolution time: who
// failed the check and how much damage each failing (and, for
// stack-type mechanics, succeeding-but-ungrouped) player takes.
type CoordinationResult struct {
	Damage map[entitymodel.GUID]int32
	Failed []entitymodel.GUID
}

func newCoordinationResult() CoordinationResult {
	return CoordinationResult{Damage: make(map[entitymodel.GUID]int32)}
}

// Resolve checks p's coordination predicate at impact time and returns
// the damage/failure outcome. center is the mechanic's anchor (the
// marker or impact position); affected is the combatant set the
// mechanic applies to — for room-wide mechanics like spread, callers
// pass every combatant.
func (p *CoordinationParams) Resolve(center spatial.Vec3, affected []Combatant) CoordinationResult {
	switch p.Kind {
	case CoordStack:
		return resolveStack(p, center, affected)
	case CoordSpread:
		return resolveSpread(p, affected)
	case CoordSoak:
		return resolveSoak(p, center, affected)
	case CoordTether:
		return resolveTether(p, affected)
	case CoordPass:
		return resolvePass(p, affected)
	case CoordChain:
		return resolveChain(p, affected)
	default:
		return newCoordinationResult()
	}
}

// resolveStack: enough players inside the center radius and the hit is
// shared (Damage/N each when Split, full Damage each otherwise); too
// few and everyone assigned takes FailureDamage instead.
func resolveStack(p *CoordinationParams, center spatial.Vec3, affected []Combatant) CoordinationResult {
	res := newCoordinationResult()
	var grouped []Combatant
	var stragglers []Combatant
	for _, c := range sortedByGUID(affected) {
		if distSquared(c.Position, center) <= p.CenterRadiusU*p.CenterRadiusU {
			grouped = append(grouped, c)
		} else {
			stragglers = append(stragglers, c)
		}
	}

	if len(grouped) < p.MinPlayers {
		for _, c := range sortedByGUID(affected) {
			res.Failed = append(res.Failed, c.GUID)
			res.Damage[c.GUID] = int32(p.FailureDamage)
		}
		return res
	}

	share := int32(p.Damage)
	if p.Split {
		share = int32(p.Damage / len(grouped))
	}
	for _, c := range grouped {
		res.Damage[c.GUID] = share
	}
	for _, c := range stragglers {
		res.Failed = append(res.Failed, c.GUID)
		res.Damage[c.GUID] = int32(p.FailureDamage)
	}
	return res
}

// resolveSpread penalizes anyone within RequiredDistanceU of another
// assigned player ("spread: every assigned player must be more
// than distance apart from every other").
func resolveSpread(p *CoordinationParams, affected []Combatant) CoordinationResult {
	res := newCoordinationResult()
	sorted := sortedByGUID(affected)
	tooClose := make(map[entitymodel.GUID]bool)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if distSquared(sorted[i].Position, sorted[j].Position) < p.RequiredDistanceU*p.RequiredDistanceU {
				tooClose[sorted[i].GUID] = true
				tooClose[sorted[j].GUID] = true
			}
		}
	}
	for _, c := range sorted {
		if tooClose[c.GUID] {
			res.Failed = append(res.Failed, c.GUID)
			res.Damage[c.GUID] = int32(p.TooCloseDamage)
		}
	}
	return res
}

// resolveSoak: with RequiredPlayers standing in the circle, BaseDamage
// is split among them; every missing soaker adds DamagePerMissing on
// top before the split. An unsoaked circle blasts the whole affected
// set for the full amount.
func resolveSoak(p *CoordinationParams, center spatial.Vec3, affected []Combatant) CoordinationResult {
	res := newCoordinationResult()
	var soakers []Combatant
	for _, c := range sortedByGUID(affected) {
		if distSquared(c.Position, center) <= p.CenterRadiusU*p.CenterRadiusU {
			soakers = append(soakers, c)
		}
	}

	missing := p.RequiredPlayers - len(soakers)
	if missing < 0 {
		missing = 0
	}
	total := p.BaseDamage + missing*p.DamagePerMissing

	if len(soakers) == 0 {
		for _, c := range sortedByGUID(affected) {
			res.Failed = append(res.Failed, c.GUID)
			res.Damage[c.GUID] = int32(total)
		}
		return res
	}

	share := int32(total / len(soakers))
	for _, c := range soakers {
		res.Damage[c.GUID] = share
		if missing > 0 {
			res.Failed = append(res.Failed, c.GUID)
		}
	}
	return res
}

// resolveTether checks the pair once, when the cast resolves, and
// damages both ends with BreakDamage if they stand outside
// [MinDistanceU, MaxDistanceU]; too close and too far are treated the
// same. The bounds are not re-checked on later ticks, and TimeoutMs is
// not read.
func resolveTether(p *CoordinationParams, affected []Combatant) CoordinationResult {
	res := newCoordinationResult()
	sorted := sortedByGUID(affected)
	if len(sorted) != 2 {
		return res
	}
	d2 := distSquared(sorted[0].Position, sorted[1].Position)
	if d2 < p.MinDistanceU*p.MinDistanceU || d2 > p.MaxDistanceU*p.MaxDistanceU {
		res.Failed = []entitymodel.GUID{sorted[0].GUID, sorted[1].GUID}
		res.Damage[sorted[0].GUID] = int32(p.BreakDamage)
		res.Damage[sorted[1].GUID] = int32(p.BreakDamage)
	}
	return res
}

// resolvePass deals DamageOnExpire to every affected combatant when the
// cast resolves. It does not track who carries the debuff or whether it
// was passed on, and TimeoutMs and StackOnSame are not read.
func resolvePass(p *CoordinationParams, affected []Combatant) CoordinationResult {
	res := newCoordinationResult()
	for _, c := range sortedByGUID(affected) {
		res.Damage[c.GUID] = int32(p.DamageOnExpire)
	}
	return res
}

// resolveChain is the coordination-mechanic counterpart of the
// SelChain targeting selector: players holding a chain debuff that
// stack on the same target (when StackOnSame is false) take
// DamagePerBreak.
func resolveChain(p *CoordinationParams, affected []Combatant) CoordinationResult {
	res := newCoordinationResult()
	if p.StackOnSame {
		return res
	}
	seen := make(map[entitymodel.GUID]bool)
	for _, c := range sortedByGUID(affected) {
		for _, o := range affected {
			if o.GUID == c.GUID || seen[o.GUID] {
				continue
			}
			if distSquared(c.Position, o.Position) < 1 {
				res.Failed = append(res.Failed, c.GUID)
				res.Damage[c.GUID] = int32(p.DamagePerBreak)
			}
		}
		seen[c.GUID] = true
	}
	return res
}
