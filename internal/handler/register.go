package handler

import (
	"fmt"

	"github.com/wyrmwatch/core/internal/netio"
	"github.com/wyrmwatch/core/internal/netio/packet"
)

// RegisterAll binds every opcode this realm serves into the dispatch
// registry, with the port categories and session stages each is legal
// in. The world port accepts the full pre-world sequence too, so a
// client that skips the dedicated auth/realm listeners can still
// complete the handshake on one connection.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	authPorts := []packet.PortCategory{packet.PortAuth, packet.PortWorld}
	realmPorts := []packet.PortCategory{packet.PortRealm, packet.PortWorld}
	worldPort := []packet.PortCategory{packet.PortWorld}

	bind := func(opcode byte, cats []packet.PortCategory, stages []packet.Stage,
		h func(*netio.Session, *packet.Reader, *Deps) error) {
		reg.Register(opcode, cats, stages, func(sess any, r *packet.Reader) error {
			s, ok := sess.(*netio.Session)
			if !ok {
				return fmt.Errorf("dispatch: session type %T", sess)
			}
			return h(s, r, deps)
		})
	}

	bind(packet.OpClientAuth, authPorts,
		[]packet.Stage{packet.StageUnauthenticated}, HandleAuth)
	bind(packet.OpClientRealmList, realmPorts,
		[]packet.Stage{packet.StageAuthenticated}, HandleRealmList)
	bind(packet.OpClientRealmSelect, realmPorts,
		[]packet.Stage{packet.StageAuthenticated}, HandleRealmSelect)
	bind(packet.OpClientCharList, realmPorts,
		[]packet.Stage{packet.StageInRealm}, HandleCharList)
	bind(packet.OpClientEnterWorld, worldPort,
		[]packet.Stage{packet.StageInRealm}, HandleEnterWorld)

	inWorld := []packet.Stage{packet.StageInWorld}
	bind(packet.OpClientMove, worldPort, inWorld, HandleMove)
	bind(packet.OpClientChat, worldPort, inWorld, HandleChat)
	bind(packet.OpClientAttack, worldPort, inWorld, HandleAttack)
	bind(packet.OpClientItemMove, worldPort, inWorld, HandleItemMove)
	bind(packet.OpClientItemSwap, worldPort, inWorld, HandleItemSwap)
	bind(packet.OpClientDuelRequest, worldPort, inWorld, HandleDuelRequest)
	bind(packet.OpClientDuelAccept, worldPort, inWorld, HandleDuelAccept)
	bind(packet.OpClientDuelForfeit, worldPort, inWorld, HandleDuelForfeit)
	bind(packet.OpClientQuit, worldPort,
		[]packet.Stage{packet.StageAuthenticated, packet.StageInRealm, packet.StageInWorld}, HandleQuit)
}
