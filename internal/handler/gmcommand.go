package handler

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/netio"
	"github.com/wyrmwatch/core/internal/spatial"
	"github.com/wyrmwatch/core/internal/wyerr"
)

// handleGMCommand dispatches a "."-prefixed chat line from an
// operator-level session. Unknown commands just report back; a typo
// should never disconnect a GM.
func handleGMCommand(sess *netio.Session, line string, deps *Deps) error {
	fields := strings.Fields(strings.TrimPrefix(line, "."))
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]

	var err error
	switch cmd {
	case "teleport":
		err = gmTeleport(sess, args, deps)
	case "spawn":
		err = gmSpawn(sess, args, deps)
	case "kick":
		err = gmKick(sess, args, deps)
	default:
		return SystemMessage(sess, fmt.Sprintf("unknown command: %s", cmd))
	}
	if err != nil {
		deps.Log.Warn("gm command failed", zap.String("cmd", cmd), zap.Error(err))
		return SystemMessage(sess, fmt.Sprintf("%s failed: %v", cmd, err))
	}
	return nil
}

// gmTeleport: .teleport <x> <y> <z>
func gmTeleport(sess *netio.Session, args []string, deps *Deps) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: .teleport x y z: %w", wyerr.ErrValidation)
	}
	var pos spatial.Vec3
	for i, dst := range []*float64{&pos.X, &pos.Y, &pos.Z} {
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return fmt.Errorf("coordinate %q: %w", args[i], wyerr.ErrValidation)
		}
		*dst = v
	}

	shard, ok := deps.shardFor(sess)
	if !ok {
		return fmt.Errorf("no zone bound: %w", wyerr.ErrNotFound)
	}
	if err := shard.Instance.UpdateEntityPosition(entitymodel.GUID(sess.PlayerGUID), pos); err != nil {
		return err
	}
	return SystemMessage(sess, fmt.Sprintf("teleported to (%.1f, %.1f, %.1f)", pos.X, pos.Y, pos.Z))
}

// gmSpawn: .spawn <creature_template_id>
func gmSpawn(sess *netio.Session, args []string, deps *Deps) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: .spawn creature_id: %w", wyerr.ErrValidation)
	}
	templateID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("creature id %q: %w", args[0], wyerr.ErrValidation)
	}
	tpl, ok := deps.Catalog.Creatures.Get(templateID)
	if !ok {
		return fmt.Errorf("creature template %d: %w", templateID, wyerr.ErrNotFound)
	}

	shard, ok := deps.shardFor(sess)
	if !ok {
		return fmt.Errorf("no zone bound: %w", wyerr.ErrNotFound)
	}
	me, found := shard.Instance.GetEntity(entitymodel.GUID(sess.PlayerGUID))
	if !found {
		return fmt.Errorf("own entity missing: %w", wyerr.ErrNotFound)
	}

	guid := deps.Router.NextGUID(entitymodel.TypeCreature)
	shard.Instance.AddEntity(&entitymodel.Entity{
		GUID:      guid,
		Type:      entitymodel.TypeCreature,
		Position:  spatial.Vec3{X: me.Position.X + 2, Y: me.Position.Y, Z: me.Position.Z},
		Level:     int32(tpl.Level),
		Health:    tpl.Health,
		MaxHealth: tpl.Health,
		Name:      tpl.Name,
		Creature: &entitymodel.CreatureData{
			CreatureTemplateID: int32(tpl.ID),
			SpawnPosition:      spatial.Vec3{X: me.Position.X + 2, Y: me.Position.Y, Z: me.Position.Z},
		},
	})
	return SystemMessage(sess, fmt.Sprintf("spawned %s (%d)", tpl.Name, guid))
}

// gmKick: .kick <character_name>
func gmKick(sess *netio.Session, args []string, deps *Deps) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: .kick name: %w", wyerr.ErrValidation)
	}
	guid, ok := deps.Bind.GUIDByName(args[0])
	if !ok {
		return fmt.Errorf("player %q: %w", args[0], wyerr.ErrNotFound)
	}
	target, ok := deps.Bind.Session(guid)
	if !ok {
		return fmt.Errorf("player %q session: %w", args[0], wyerr.ErrNotFound)
	}
	CleanupSession(target, deps)
	target.Disconnect("kicked by operator")
	return SystemMessage(sess, fmt.Sprintf("kicked %s", args[0]))
}
