package handler

import (
	"fmt"
	"math"

	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/netio"
	"github.com/wyrmwatch/core/internal/netio/packet"
	"github.com/wyrmwatch/core/internal/spatial"
	"github.com/wyrmwatch/core/internal/wyerr"
)

// maxStepPerPacket bounds how far one movement packet may carry a
// player. Larger jumps are clamped to this distance along the same
// direction, silently — the client is never told.
const maxStepPerPacket = 50.0

// visibilityRange is how far a movement echo travels to other clients.
const visibilityRange = 120.0

// HandleMove applies a position report: sanity-clamp, update the zone
// (and through it the spatial grid), feed the duel boundary check,
// echo to nearby players.
func HandleMove(sess *netio.Session, r *packet.Reader, deps *Deps) error {
	req := packet.DecodeClientMove(r.Data())
	shard, ok := deps.shardFor(sess)
	if !ok {
		return fmt.Errorf("move: session has no zone: %w", wyerr.ErrNotFound)
	}
	guid := entitymodel.GUID(sess.PlayerGUID)

	target := spatial.Vec3{X: float64(req.X), Y: float64(req.Y), Z: float64(req.Z)}
	var applied spatial.Vec3
	var moveErr error
	shard.Instance.Exec(func() {
		e, found := shard.Instance.GetEntityDirect(guid)
		if !found {
			moveErr = fmt.Errorf("move: entity %d: %w", guid, wyerr.ErrNotFound)
			return
		}
		applied = clampStep(e.Position, target, maxStepPerPacket)
		moveErr = shard.Instance.UpdateEntityPositionDirect(guid, applied)
	})
	if moveErr != nil {
		return moveErr
	}

	deps.Duels.ReportPosition(guid, applied)

	echo := packet.ServerEntityMove{
		GUID:    uint64(guid),
		X:       float32(applied.X),
		Y:       float32(applied.Y),
		Z:       float32(applied.Z),
		Heading: req.Heading,
	}.Encode()
	for _, other := range shard.Instance.EntitiesInRange(applied, visibilityRange) {
		if other.Type != entitymodel.TypePlayer || other.GUID == guid {
			continue
		}
		if otherSess, found := deps.Bind.Session(other.GUID); found {
			otherSess.Send(echo)
		}
	}
	return nil
}

// clampStep limits from->to displacement to maxStep along the same
// direction.
func clampStep(from, to spatial.Vec3, maxStep float64) spatial.Vec3 {
	dx, dy, dz := to.X-from.X, to.Y-from.Y, to.Z-from.Z
	distSq := dx*dx + dy*dy + dz*dz
	if distSq <= maxStep*maxStep {
		return to
	}
	scale := maxStep / math.Sqrt(distSq)
	return spatial.Vec3{X: from.X + dx*scale, Y: from.Y + dy*scale, Z: from.Z + dz*scale}
}
