package handler

import (
	"fmt"
	"strings"

	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/netio"
	"github.com/wyrmwatch/core/internal/netio/packet"
)

const maxChatLength = 255

// Per-channel delivery radii; zone and system have no radius.
const (
	sayRange  = 30.0
	yellRange = 100.0
)

// HandleChat routes an inbound chat line by channel and answers with a
// typed ServerChatResult whether it was delivered or refused. An empty
// line is dropped without a reply, and operator commands answer through
// system messages instead.
func HandleChat(sess *netio.Session, r *packet.Reader, deps *Deps) error {
	req, err := packet.DecodeClientChat(r.Data())
	if err != nil {
		return fmt.Errorf("decode chat: %w", err)
	}

	result := func(code packet.ChatResultCode) {
		sess.Send(packet.ServerChatResult{Result: code, Channel: req.Channel}.Encode())
	}

	if req.Message == "" {
		return nil
	}
	if len([]rune(req.Message)) > maxChatLength {
		result(packet.ChatMessageTooLong)
		return nil
	}

	// Operator commands ride normal say chat with a "." prefix.
	if req.Channel == packet.ChannelSay && strings.HasPrefix(req.Message, ".") {
		if sess.AccessLevel > 0 {
			return handleGMCommand(sess, req.Message, deps)
		}
		result(packet.ChatChannelUnavailable)
		return nil
	}

	guid := entitymodel.GUID(sess.PlayerGUID)
	out := packet.ServerChat{
		Channel:    req.Channel,
		SenderGUID: sess.PlayerGUID,
		SenderName: sess.CharName,
		Message:    req.Message,
	}
	enc, err := out.Encode()
	if err != nil {
		return fmt.Errorf("encode chat: %w", err)
	}

	switch req.Channel {
	case packet.ChannelSay, packet.ChannelEmote:
		deliverInRange(sess, deps, guid, enc, sayRange)
	case packet.ChannelYell:
		deliverInRange(sess, deps, guid, enc, yellRange)
	case packet.ChannelZone:
		shard, ok := deps.shardFor(sess)
		if !ok {
			result(packet.ChatChannelUnavailable)
			return nil
		}
		shard.Instance.Broadcast(enc)
	case packet.ChannelWhisper:
		targetGUID, found := deps.Bind.GUIDByName(req.Target)
		if !found {
			result(packet.ChatPlayerNotFound)
			return nil
		}
		targetSess, live := deps.Bind.Session(targetGUID)
		if !live {
			result(packet.ChatPlayerOffline)
			return nil
		}
		targetSess.Send(enc)
	default:
		// system/party sends don't originate from clients here
		result(packet.ChatChannelUnavailable)
		return nil
	}

	result(packet.ChatSuccess)
	return nil
}

// deliverInRange sends enc to every player within radius of the
// speaker, speaker included.
func deliverInRange(sess *netio.Session, deps *Deps, speaker entitymodel.GUID, enc []byte, radius float64) {
	shard, ok := deps.shardFor(sess)
	if !ok {
		return
	}
	e, found := shard.Instance.GetEntity(speaker)
	if !found {
		return
	}
	for _, other := range shard.Instance.EntitiesInRange(e.Position, radius) {
		if other.Type != entitymodel.TypePlayer {
			continue
		}
		if otherSess, live := deps.Bind.Session(other.GUID); live {
			otherSess.Send(enc)
		}
	}
}

// SystemMessage pushes a server-originated line to one session.
func SystemMessage(sess *netio.Session, text string) error {
	enc, err := (packet.ServerChat{Channel: packet.ChannelSystem, Message: text}).Encode()
	if err != nil {
		return fmt.Errorf("encode system message: %w", err)
	}
	sess.Send(enc)
	return nil
}
