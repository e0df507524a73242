package handler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/netio"
	"github.com/wyrmwatch/core/internal/netio/packet"
	"github.com/wyrmwatch/core/internal/spatial"
	"github.com/wyrmwatch/core/internal/wyerr"
)

// HandleEnterWorld loads the selected character, places it into a
// zone instance picked by the router, and binds the session to that
// zone: in-realm -> loading -> in-world.
func HandleEnterWorld(sess *netio.Session, r *packet.Reader, deps *Deps) error {
	req := packet.DecodeClientEnterWorld(r.Data())

	ctx, cancel := deps.dbCtx()
	defer cancel()
	row, err := deps.Characters.Load(ctx, int64(req.CharacterID))
	if err != nil {
		return fmt.Errorf("load character %d: %w", req.CharacterID, err)
	}
	if row == nil || row.AccountName != sess.AccountName {
		return fmt.Errorf("enter world: character %d: %w", req.CharacterID, wyerr.ErrNotFound)
	}

	sess.Advance(packet.StageLoading)

	ref, ok := deps.Router.SelectInstance(row.ZoneID, 0)
	if !ok {
		sess.Disconnect("no instance available for zone")
		return fmt.Errorf("enter world: zone %d has no live instance: %w", row.ZoneID, wyerr.ErrNotFound)
	}
	shard, ok := deps.Shards[ref]
	if !ok {
		sess.Disconnect("zone shard missing")
		return fmt.Errorf("enter world: shard for zone %d: %w", row.ZoneID, wyerr.ErrNotFound)
	}

	guid := deps.Router.NextGUID(entitymodel.TypePlayer)
	shard.Instance.AddEntity(&entitymodel.Entity{
		GUID:        guid,
		Type:        entitymodel.TypePlayer,
		Position:    spatial.Vec3{X: row.X, Y: row.Y, Z: row.Z},
		Faction:     row.Faction,
		Level:       row.Level,
		Health:      row.Health,
		MaxHealth:   row.MaxHealth,
		Name:        row.Name,
		DisplayInfo: row.Appearance.DisplayInfo,
		Player: &entitymodel.PlayerData{
			AccountName: sess.AccountName,
			CharacterID: row.ID,
			SessionID:   sess.ID,
			XP:          row.XP,
			Gold:        row.Gold,
		},
	})

	sess.CharacterID = row.ID
	sess.CharName = row.Name
	sess.PlayerGUID = uint64(guid)
	sess.BindZone(ref)
	deps.Bind.Bind(guid, row.Name, sess)
	sess.Advance(packet.StageInWorld)

	sess.Send(packet.ServerEnterWorld{
		PlayerGUID: uint64(guid),
		ZoneID:     uint32(ref.ZoneID),
		InstanceID: uint32(ref.InstanceID),
		X:          float32(row.X),
		Y:          float32(row.Y),
		Z:          float32(row.Z),
	}.Encode())

	// Push the equipped-visuals snapshot so nearby clients can draw
	// this character before any slot changes.
	if len(row.Appearance.Visuals) > 0 {
		update := packet.ServerItemVisualUpdate{PlayerGUID: uint32(row.ID)}
		for _, v := range row.Appearance.Visuals {
			update.Visuals = append(update.Visuals, packet.ItemVisual{
				Slot:      v.Slot,
				DisplayID: v.DisplayID,
				ColourSet: v.ColourSet,
				DyeData:   v.DyeData,
			})
		}
		shard.Instance.Broadcast(update.Encode())
	}

	deps.Log.Info("player entered world",
		zap.String("character", row.Name),
		zap.Uint64("guid", uint64(guid)),
		zap.Int32("zone", ref.ZoneID))
	return nil
}

// CleanupSession tears down a session's world presence: persist the
// character, remove the entity, unbind, flag the account offline.
// Shared by the quit handler and the connection-drop hook.
func CleanupSession(sess *netio.Session, deps *Deps) {
	if sess.AccountName != "" {
		ctx, cancel := deps.dbCtx()
		if err := deps.Accounts.SetOnline(ctx, sess.AccountName, false); err != nil {
			deps.Log.Warn("failed to flag account offline", zap.String("account", sess.AccountName), zap.Error(err))
		}
		cancel()
	}
	if sess.PlayerGUID == 0 {
		return
	}
	guid := entitymodel.GUID(sess.PlayerGUID)

	if shard, ok := deps.shardFor(sess); ok {
		if e, found := shard.Instance.GetEntity(guid); found {
			row := persistStateRow(sess, e)
			ctx, cancel := deps.dbCtx()
			err := deps.Characters.SaveState(ctx, &row)
			cancel()
			if err != nil {
				deps.Log.Error("failed to persist character on exit",
					zap.Int64("character", sess.CharacterID), zap.Error(err))
			}
		}
		shard.Instance.RemoveEntity(guid)
	}

	deps.Duels.PlayerLeft(guid)
	deps.Bind.Unbind(guid)
	sess.PlayerGUID = 0
}

// HandleQuit is the orderly exit: persist, despawn, disconnect.
func HandleQuit(sess *netio.Session, r *packet.Reader, deps *Deps) error {
	CleanupSession(sess, deps)
	sess.Disconnect("quit")
	return nil
}
