// Package router implements WorldRouter: GUID allocation shared
// across every zone actor in the realm, a concurrent registry mapping
// a zone Ref to its running Instance, and the two-phase add/remove
// sequence that moves an entity between instances.
package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/wyerr"
	"github.com/wyrmwatch/core/internal/zone"
)

// Router is the WorldRouter: it owns the realm-wide GUID allocator and
// a registry of live zone instances, and brokers zone transfers.
type Router struct {
	guids *entitymodel.Allocator
	mu    sync.Mutex // guards guids only; zones map is sync.Map for read-mostly access

	zones sync.Map // zone.Ref -> *zone.Instance

	log *zap.Logger
}

func New(log *zap.Logger) *Router {
	return &Router{
		guids: entitymodel.NewAllocator(),
		log:   log,
	}
}

// NextGUID hands out the next GUID for t. Safe for concurrent callers
// across zone actors; unlike a single zone's own state, the allocator
// is a small shared resource explicitly synchronized here.
func (r *Router) NextGUID(t entitymodel.EntityType) entitymodel.GUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.guids.Next(t)
}

// RestoreGUIDHighWater seeds the allocator after loading a persisted
// high-water mark at boot, so GUIDs stay monotonic across restarts.
func (r *Router) RestoreGUIDHighWater(t entitymodel.EntityType, seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guids.Restore(t, seq)
}

// Register adds a running zone Instance to the registry so it can be
// looked up for transfers and broadcast routing.
func (r *Router) Register(inst *zone.Instance) {
	r.zones.Store(inst.Ref, inst)
}

// Unregister removes a zone Instance, e.g. after its supervisor has
// restarted it with fresh state or it has been
// shut down for good.
func (r *Router) Unregister(ref zone.Ref) {
	r.zones.Delete(ref)
}

// Lookup returns the live Instance for ref, if any.
func (r *Router) Lookup(ref zone.Ref) (*zone.Instance, bool) {
	v, ok := r.zones.Load(ref)
	if !ok {
		return nil, false
	}
	return v.(*zone.Instance), true
}

// SelectInstance picks a target instance of zoneID for load balancing
// or private-group routing: among the instances with room, the one
// holding the fewest entities; which of several equally loaded
// instances wins is not defined. instanceCap <= 0 means unlimited.
func (r *Router) SelectInstance(zoneID int32, instanceCap int) (zone.Ref, bool) {
	var best zone.Ref
	found := false
	var bestCount int
	r.zones.Range(func(k, v any) bool {
		ref := k.(zone.Ref)
		if ref.ZoneID != zoneID {
			return true
		}
		inst := v.(*zone.Instance)
		info := inst.Info()
		if instanceCap > 0 && info.EntityCount >= instanceCap {
			return true
		}
		if !found || info.EntityCount < bestCount {
			best, bestCount, found = ref, info.EntityCount, true
		}
		return true
	})
	return best, found
}

// Transfer moves guid from the src instance to dst: remove from src,
// add to dst; if the add fails, the source add is reattempted
// (rollback). Transfer is not transactional across instances — the
// entity may be briefly absent from both, an accepted gap.
func (r *Router) Transfer(ctx context.Context, src, dst *zone.Instance, guid entitymodel.GUID) error {
	e, ok := src.GetEntity(guid)
	if !ok {
		return fmt.Errorf("transfer %d: not found in source zone: %w", guid, wyerr.ErrNotFound)
	}
	src.RemoveEntity(guid)

	entity := e
	addErr := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("transfer %d: dst add panicked: %v", guid, rec)
			}
		}()
		dst.AddEntity(&entity)
		return nil
	}()
	if addErr == nil {
		return nil
	}

	r.log.Warn("zone transfer add failed, rolling back to source",
		zap.Uint64("guid", uint64(guid)), zap.Error(addErr))
	rollback := e
	src.AddEntity(&rollback)
	return fmt.Errorf("transfer %d: %w", guid, addErr)
}

// TargetForTransfer asks the router which instance of zoneID should
// receive an incoming entity, honoring a zero-wait deadline so a
// caller on a tick budget never blocks indefinitely.
func (r *Router) TargetForTransfer(ctx context.Context, zoneID int32, instanceCap int, timeout time.Duration) (zone.Ref, error) {
	deadline := time.Now().Add(timeout)
	for {
		if ref, ok := r.SelectInstance(zoneID, instanceCap); ok {
			return ref, nil
		}
		if time.Now().After(deadline) {
			return zone.Ref{}, fmt.Errorf("no instance of zone %d available: %w", zoneID, wyerr.ErrTimeout)
		}
		select {
		case <-ctx.Done():
			return zone.Ref{}, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}
