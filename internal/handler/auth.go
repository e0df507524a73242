package handler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/netio"
	"github.com/wyrmwatch/core/internal/netio/packet"
	"github.com/wyrmwatch/core/internal/persist"
)

// HandleAuth processes the credential exchange. On success the
// session advances unauthenticated -> authenticated and remembers the
// account; every failure sends a typed result and leaves the stage
// untouched so the client may retry.
func HandleAuth(sess *netio.Session, r *packet.Reader, deps *Deps) error {
	req, err := packet.DecodeClientAuth(r.Data())
	if err != nil {
		return fmt.Errorf("decode auth: %w", err)
	}

	ctx, cancel := deps.dbCtx()
	defer cancel()
	outcome, row, err := deps.Accounts.Authenticate(ctx, req.Account, req.Password)
	if err != nil {
		sess.Send(packet.ServerAuthResult{Result: packet.AuthBadCredentials}.Encode())
		return fmt.Errorf("authenticate %q: %w", req.Account, err)
	}

	switch outcome {
	case persist.AuthAccepted:
		sess.AccountName = row.Name
		sess.AccessLevel = int(row.AccessLevel)
		sess.Advance(packet.StageAuthenticated)
		if err := deps.Accounts.SetOnline(ctx, row.Name, true); err != nil {
			deps.Log.Warn("failed to flag account online", zap.String("account", row.Name), zap.Error(err))
		}
		sess.Send(packet.ServerAuthResult{Result: packet.AuthOK}.Encode())
	case persist.AuthAccountBanned:
		sess.Send(packet.ServerAuthResult{Result: packet.AuthBanned}.Encode())
	case persist.AuthAccountOnline:
		sess.Send(packet.ServerAuthResult{Result: packet.AuthAlreadyOnline}.Encode())
	default:
		sess.Send(packet.ServerAuthResult{Result: packet.AuthBadCredentials}.Encode())
	}
	return nil
}

// HandleRealmList returns the realm roster for the select screen.
func HandleRealmList(sess *netio.Session, r *packet.Reader, deps *Deps) error {
	ctx, cancel := deps.dbCtx()
	defer cancel()
	realms, err := deps.Realms.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load realms: %w", err)
	}

	resp := packet.ServerRealmList{}
	for _, realm := range realms {
		resp.Realms = append(resp.Realms, packet.RealmEntry{
			RealmID:     uint32(realm.RealmID),
			Name:        realm.Name,
			Online:      realm.Online,
			PlayerCount: uint32(realm.PlayerCount),
		})
	}
	enc, err := resp.Encode()
	if err != nil {
		return fmt.Errorf("encode realm list: %w", err)
	}
	sess.Send(enc)
	return nil
}

// HandleRealmSelect advances authenticated -> in-realm.
func HandleRealmSelect(sess *netio.Session, r *packet.Reader, deps *Deps) error {
	req := packet.DecodeClientRealmSelect(r.Data())
	if int(req.RealmID) != deps.Cfg.Server.RealmID {
		deps.Log.Debug("realm select for foreign realm dropped", zap.Uint32("realm", req.RealmID))
		return nil
	}
	sess.Advance(packet.StageInRealm)
	return nil
}

// HandleCharList returns the account's characters on this realm.
func HandleCharList(sess *netio.Session, r *packet.Reader, deps *Deps) error {
	ctx, cancel := deps.dbCtx()
	defer cancel()
	chars, err := deps.Characters.LoadByAccount(ctx, sess.AccountName)
	if err != nil {
		return fmt.Errorf("load characters for %q: %w", sess.AccountName, err)
	}

	resp := packet.ServerCharList{}
	for _, c := range chars {
		resp.Characters = append(resp.Characters, packet.CharEntry{
			CharacterID: uint64(c.ID),
			Name:        c.Name,
			Level:       uint8(c.Level),
			ClassID:     uint32(c.ClassID),
			ZoneID:      uint32(c.ZoneID),
		})
	}
	enc, err := resp.Encode()
	if err != nil {
		return fmt.Errorf("encode char list: %w", err)
	}
	sess.Send(enc)
	return nil
}
