package handler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/netio"
	"github.com/wyrmwatch/core/internal/netio/packet"
	"github.com/wyrmwatch/core/internal/wyerr"
)

// HandleItemMove relocates an inventory item. The move persists
// first; only a successful write is echoed back, so client and DB
// never disagree about a slot.
func HandleItemMove(sess *netio.Session, r *packet.Reader, deps *Deps) error {
	req := packet.DecodeClientItemMove(r.Data())
	tag, slot := packet.DecodeLocation(req.DragDrop)
	if tag > packet.LocationTrade {
		return fmt.Errorf("item move: location tag %d: %w", tag, wyerr.ErrValidation)
	}

	ctx, cancel := deps.dbCtx()
	defer cancel()
	if err := deps.Items.Move(ctx, int64(req.ItemGUID), int16(tag), int16(slot)); err != nil {
		deps.Log.Debug("item move rejected", zap.Uint64("item", req.ItemGUID), zap.Error(err))
		return nil
	}

	sess.Send(packet.ServerItemMove{
		ItemGUID: req.ItemGUID,
		DragDrop: req.DragDrop,
	}.Encode())
	return nil
}

// HandleItemSwap exchanges two slots' contents.
func HandleItemSwap(sess *netio.Session, r *packet.Reader, deps *Deps) error {
	req := packet.DecodeClientItemSwap(r.Data())
	for _, dd := range []packet.ItemDragDrop{req.From, req.To} {
		if tag, _ := packet.DecodeLocation(dd.DragDrop); tag > packet.LocationTrade {
			return fmt.Errorf("item swap: location tag %d: %w", tag, wyerr.ErrValidation)
		}
	}

	ctx, cancel := deps.dbCtx()
	defer cancel()
	if err := deps.Items.Swap(ctx, int64(req.From.ItemGUID), int64(req.To.ItemGUID)); err != nil {
		deps.Log.Debug("item swap rejected",
			zap.Uint64("from", req.From.ItemGUID), zap.Uint64("to", req.To.ItemGUID), zap.Error(err))
		return nil
	}

	sess.Send(packet.ServerItemSwap{
		From: packet.ItemDragDrop{ItemGUID: req.From.ItemGUID, DragDrop: req.To.DragDrop},
		To:   packet.ItemDragDrop{ItemGUID: req.To.ItemGUID, DragDrop: req.From.DragDrop},
	}.Encode())
	return nil
}
