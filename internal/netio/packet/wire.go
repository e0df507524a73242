package packet

// This file implements the named wire packets of the protocol. Each
// server packet carries an Encode method producing opcode||fields ready
// for WriteFrame; client packets get a Decode* function for the inbound
// side, and server packets get one too so the codec is exercisable in
// both directions.

// ChatChannel is the u32 channel field of chat packets.
type ChatChannel uint32

const (
	ChannelSay     ChatChannel = 0
	ChannelYell    ChatChannel = 1
	ChannelWhisper ChatChannel = 2
	ChannelSystem  ChatChannel = 3
	ChannelEmote   ChatChannel = 4
	ChannelParty   ChatChannel = 5
	ChannelZone    ChatChannel = 7
)

// ChatResultCode is the typed outcome of a chat send.
type ChatResultCode uint32

const (
	ChatSuccess            ChatResultCode = 0
	ChatPlayerNotFound     ChatResultCode = 1
	ChatPlayerOffline      ChatResultCode = 2
	ChatMuted              ChatResultCode = 3
	ChatChannelUnavailable ChatResultCode = 4
	ChatMessageTooLong     ChatResultCode = 5
	ChatRateLimited        ChatResultCode = 6
)

// QuestState is the u8 state field of ServerQuestUpdate.
type QuestState uint8

const (
	QuestAccepted QuestState = 0
	QuestComplete QuestState = 1
	QuestFailed   QuestState = 2
)

// QuestRemoveReason is the u8 reason field of ServerQuestRemove.
type QuestRemoveReason uint8

const (
	QuestAbandoned     QuestRemoveReason = 0
	QuestTurnedIn      QuestRemoveReason = 1
	QuestRemovedFailed QuestRemoveReason = 2
)

// BuffRemoveReason is the u8 reason field of ServerBuffRemove.
type BuffRemoveReason uint8

const (
	BuffExpired   BuffRemoveReason = 1
	BuffDispelled BuffRemoveReason = 2
	BuffReplaced  BuffRemoveReason = 3
)

// DeathType is the u32 cause field of ServerPlayerDeath.
type DeathType uint32

const (
	DeathCombat      DeathType = 0
	DeathFall        DeathType = 1
	DeathDrown       DeathType = 2
	DeathEnvironment DeathType = 3
)

// ServerItemMove relocates an item to a new inventory slot. Wire
// layout: u64 item guid, then u64 drag-drop location code.
type ServerItemMove struct {
	ItemGUID uint64
	DragDrop uint64 // EncodeLocation(tag, slot)
}

func (p ServerItemMove) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpServerItemMove)
	w.WriteU64(p.ItemGUID)
	w.WriteU64(p.DragDrop)
	return w.Bytes()
}

func DecodeServerItemMove(data []byte) ServerItemMove {
	r := NewReader(data)
	return ServerItemMove{ItemGUID: r.ReadU64(), DragDrop: r.ReadU64()}
}

// ItemDragDrop is the (guid, location) record ServerItemSwap carries
// twice — once per side of the swap.
type ItemDragDrop struct {
	ItemGUID uint64
	DragDrop uint64
}

// ServerItemSwap exchanges the contents of two slots.
type ServerItemSwap struct {
	From ItemDragDrop
	To   ItemDragDrop
}

func (p ServerItemSwap) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpServerItemSwap)
	w.WriteU64(p.From.ItemGUID)
	w.WriteU64(p.From.DragDrop)
	w.WriteU64(p.To.ItemGUID)
	w.WriteU64(p.To.DragDrop)
	return w.Bytes()
}

func DecodeServerItemSwap(data []byte) ServerItemSwap {
	r := NewReader(data)
	return ServerItemSwap{
		From: ItemDragDrop{ItemGUID: r.ReadU64(), DragDrop: r.ReadU64()},
		To:   ItemDragDrop{ItemGUID: r.ReadU64(), DragDrop: r.ReadU64()},
	}
}

// ServerChat delivers a chat line: u32 channel, u64 sender guid, then
// the sender's name and the message as bit-packed wide strings.
type ServerChat struct {
	Channel    ChatChannel
	SenderGUID uint64
	SenderName string
	Message    string
}

func (p ServerChat) Encode() ([]byte, error) {
	w := NewWriter()
	w.WriteOpcode(OpServerChat)
	w.WriteU32(uint32(p.Channel))
	w.WriteU64(p.SenderGUID)
	if err := w.WriteWideString(p.SenderName); err != nil {
		return nil, err
	}
	if err := w.WriteWideString(p.Message); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func DecodeServerChat(data []byte) (ServerChat, error) {
	r := NewReader(data)
	p := ServerChat{Channel: ChatChannel(r.ReadU32()), SenderGUID: r.ReadU64()}
	var err error
	if p.SenderName, err = r.ReadWideString(); err != nil {
		return ServerChat{}, err
	}
	if p.Message, err = r.ReadWideString(); err != nil {
		return ServerChat{}, err
	}
	return p, nil
}

// ClientChat is an inbound chat line: u32 channel, wide-string target
// (empty unless whispering), wide-string message.
type ClientChat struct {
	Channel ChatChannel
	Target  string
	Message string
}

func (p ClientChat) Encode() ([]byte, error) {
	w := NewWriter()
	w.WriteOpcode(OpClientChat)
	w.WriteU32(uint32(p.Channel))
	if err := w.WriteWideString(p.Target); err != nil {
		return nil, err
	}
	if err := w.WriteWideString(p.Message); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func DecodeClientChat(data []byte) (ClientChat, error) {
	r := NewReader(data)
	p := ClientChat{Channel: ChatChannel(r.ReadU32())}
	var err error
	if p.Target, err = r.ReadWideString(); err != nil {
		return ClientChat{}, err
	}
	if p.Message, err = r.ReadWideString(); err != nil {
		return ClientChat{}, err
	}
	return p, nil
}

// ServerChatResult reports whether a chat send succeeded: u32 result,
// u32 channel.
type ServerChatResult struct {
	Result  ChatResultCode
	Channel ChatChannel
}

func (p ServerChatResult) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpServerChatResult)
	w.WriteU32(uint32(p.Result))
	w.WriteU32(uint32(p.Channel))
	return w.Bytes()
}

func DecodeServerChatResult(data []byte) ServerChatResult {
	r := NewReader(data)
	return ServerChatResult{Result: ChatResultCode(r.ReadU32()), Channel: ChatChannel(r.ReadU32())}
}

// ServerQuestAdd pushes a new quest log entry: u32 quest id, u8
// objective count, then one u16 target per objective.
type ServerQuestAdd struct {
	QuestID    uint32
	Objectives []uint16
}

func (p ServerQuestAdd) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpServerQuestAdd)
	w.WriteU32(p.QuestID)
	w.WriteU8(uint8(len(p.Objectives)))
	for _, target := range p.Objectives {
		w.WriteU16(target)
	}
	return w.Bytes()
}

func DecodeServerQuestAdd(data []byte) ServerQuestAdd {
	r := NewReader(data)
	p := ServerQuestAdd{QuestID: r.ReadU32()}
	n := int(r.ReadU8())
	for i := 0; i < n; i++ {
		p.Objectives = append(p.Objectives, r.ReadU16())
	}
	return p
}

// ServerQuestUpdate advances one objective: u32 quest id, u8 state,
// u8 objective index, u16 current progress.
type ServerQuestUpdate struct {
	QuestID        uint32
	State          QuestState
	ObjectiveIndex uint8
	Current        uint16
}

func (p ServerQuestUpdate) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpServerQuestUpdate)
	w.WriteU32(p.QuestID)
	w.WriteU8(uint8(p.State))
	w.WriteU8(p.ObjectiveIndex)
	w.WriteU16(p.Current)
	return w.Bytes()
}

func DecodeServerQuestUpdate(data []byte) ServerQuestUpdate {
	r := NewReader(data)
	return ServerQuestUpdate{
		QuestID:        r.ReadU32(),
		State:          QuestState(r.ReadU8()),
		ObjectiveIndex: r.ReadU8(),
		Current:        r.ReadU16(),
	}
}

// ServerQuestRemove drops a quest log entry: u32 quest id, u8 reason.
type ServerQuestRemove struct {
	QuestID uint32
	Reason  QuestRemoveReason
}

func (p ServerQuestRemove) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpServerQuestRemove)
	w.WriteU32(p.QuestID)
	w.WriteU8(uint8(p.Reason))
	return w.Bytes()
}

func DecodeServerQuestRemove(data []byte) ServerQuestRemove {
	r := NewReader(data)
	return ServerQuestRemove{QuestID: r.ReadU32(), Reason: QuestRemoveReason(r.ReadU8())}
}

// TelegraphShape enumerates the ground-effect shapes an ability can
// telegraph before impact.
type TelegraphShape uint8

const (
	ShapeCircle TelegraphShape = iota
	ShapeCone
	ShapeLine
	ShapeDonut
	ShapeCross
	ShapeRoomWide
	ShapeWave
)

// ServerTelegraph announces an incoming ability's impact area: u64
// caster, u32 spell, u8 shape, position (3×f32), f32 rotation, u32
// duration, u8 color, then shape-specific parameters.
type ServerTelegraph struct {
	CasterGUID uint64
	SpellID    uint32
	Shape      TelegraphShape
	X, Y, Z    float32
	Rotation   float32
	DurationMs uint32
	Color      uint8

	// Shape parameters; which fields are on the wire depends on Shape.
	Radius      float32 // circle
	AngleDeg    float32 // cone
	Length      float32 // cone, line, cross
	Width       float32 // line, cross, wave
	InnerRadius float32 // donut
	OuterRadius float32 // donut
	Speed       float32 // wave expansion rate
}

func (p ServerTelegraph) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpServerTelegraph)
	w.WriteU64(p.CasterGUID)
	w.WriteU32(p.SpellID)
	w.WriteU8(uint8(p.Shape))
	w.WriteF32(p.X)
	w.WriteF32(p.Y)
	w.WriteF32(p.Z)
	w.WriteF32(p.Rotation)
	w.WriteU32(p.DurationMs)
	w.WriteU8(p.Color)
	switch p.Shape {
	case ShapeCircle:
		w.WriteF32(p.Radius)
	case ShapeCone:
		w.WriteF32(p.AngleDeg)
		w.WriteF32(p.Length)
	case ShapeLine, ShapeCross:
		w.WriteF32(p.Width)
		w.WriteF32(p.Length)
	case ShapeDonut:
		w.WriteF32(p.InnerRadius)
		w.WriteF32(p.OuterRadius)
	case ShapeRoomWide:
		// no parameters
	case ShapeWave:
		w.WriteF32(p.Width)
		w.WriteF32(p.Speed)
	}
	return w.Bytes()
}

func DecodeServerTelegraph(data []byte) ServerTelegraph {
	r := NewReader(data)
	p := ServerTelegraph{
		CasterGUID: r.ReadU64(),
		SpellID:    r.ReadU32(),
		Shape:      TelegraphShape(r.ReadU8()),
		X:          r.ReadF32(),
		Y:          r.ReadF32(),
		Z:          r.ReadF32(),
		Rotation:   r.ReadF32(),
		DurationMs: r.ReadU32(),
		Color:      r.ReadU8(),
	}
	switch p.Shape {
	case ShapeCircle:
		p.Radius = r.ReadF32()
	case ShapeCone:
		p.AngleDeg = r.ReadF32()
		p.Length = r.ReadF32()
	case ShapeLine, ShapeCross:
		p.Width = r.ReadF32()
		p.Length = r.ReadF32()
	case ShapeDonut:
		p.InnerRadius = r.ReadF32()
		p.OuterRadius = r.ReadF32()
	case ShapeWave:
		p.Width = r.ReadF32()
		p.Speed = r.ReadF32()
	}
	return p
}

// ItemVisual is one bit-packed appearance entry of ServerItemVisualUpdate:
// 7-bit slot, 15-bit display id, 14-bit colour set, then a signed
// 32-bit dye blob, all in one continuous bit stream.
type ItemVisual struct {
	Slot      uint8
	DisplayID uint16
	ColourSet uint16
	DyeData   int32
}

// ServerItemVisualUpdate refreshes a player's equipment appearance:
// u32 player guid, u8 count, then count bit-packed ItemVisual entries.
type ServerItemVisualUpdate struct {
	PlayerGUID uint32
	Visuals    []ItemVisual
}

func (p ServerItemVisualUpdate) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpServerItemVisualUpdate)
	w.WriteU32(p.PlayerGUID)
	w.WriteU8(uint8(len(p.Visuals)))
	for _, v := range p.Visuals {
		w.WriteBits(uint32(v.Slot), 7)
		w.WriteBits(uint32(v.DisplayID), 15)
		w.WriteBits(uint32(v.ColourSet), 14)
		w.WriteBits(uint32(v.DyeData), 32)
	}
	return w.Bytes()
}

func DecodeServerItemVisualUpdate(data []byte) ServerItemVisualUpdate {
	r := NewReader(data)
	p := ServerItemVisualUpdate{PlayerGUID: r.ReadU32()}
	n := int(r.ReadU8())
	for i := 0; i < n; i++ {
		p.Visuals = append(p.Visuals, ItemVisual{
			Slot:      uint8(r.ReadBits(7)),
			DisplayID: uint16(r.ReadBits(15)),
			ColourSet: uint16(r.ReadBits(14)),
			DyeData:   int32(r.ReadBits(32)),
		})
	}
	return p
}

// ServerBuffApply places a status effect on a target's bar: u64 target,
// u64 caster, u32 buff id, u32 spell id, u8 buff type, i32 amount,
// u32 duration, u8 debuff flag.
type ServerBuffApply struct {
	TargetGUID uint64
	CasterGUID uint64
	BuffID     uint32
	SpellID    uint32
	BuffType   uint8
	Amount     int32
	DurationMs uint32
	IsDebuff   bool
}

func (p ServerBuffApply) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpServerBuffApply)
	w.WriteU64(p.TargetGUID)
	w.WriteU64(p.CasterGUID)
	w.WriteU32(p.BuffID)
	w.WriteU32(p.SpellID)
	w.WriteU8(p.BuffType)
	w.WriteI32(p.Amount)
	w.WriteU32(p.DurationMs)
	if p.IsDebuff {
		w.WriteU8(1)
	} else {
		w.WriteU8(0)
	}
	return w.Bytes()
}

func DecodeServerBuffApply(data []byte) ServerBuffApply {
	r := NewReader(data)
	return ServerBuffApply{
		TargetGUID: r.ReadU64(),
		CasterGUID: r.ReadU64(),
		BuffID:     r.ReadU32(),
		SpellID:    r.ReadU32(),
		BuffType:   r.ReadU8(),
		Amount:     r.ReadI32(),
		DurationMs: r.ReadU32(),
		IsDebuff:   r.ReadU8() != 0,
	}
}

// ServerBuffRemove clears a status effect: u64 target, u32 buff id,
// u8 reason.
type ServerBuffRemove struct {
	TargetGUID uint64
	BuffID     uint32
	Reason     BuffRemoveReason
}

func (p ServerBuffRemove) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpServerBuffRemove)
	w.WriteU64(p.TargetGUID)
	w.WriteU32(p.BuffID)
	w.WriteU8(uint8(p.Reason))
	return w.Bytes()
}

func DecodeServerBuffRemove(data []byte) ServerBuffRemove {
	r := NewReader(data)
	return ServerBuffRemove{TargetGUID: r.ReadU64(), BuffID: r.ReadU32(), Reason: BuffRemoveReason(r.ReadU8())}
}

// ServerPlayerDeath notifies clients that a player died: u64 player,
// u64 killer (0 if environmental), u32 death type.
type ServerPlayerDeath struct {
	PlayerGUID uint64
	KillerGUID uint64
	DeathType  DeathType
}

func (p ServerPlayerDeath) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpServerPlayerDeath)
	w.WriteU64(p.PlayerGUID)
	w.WriteU64(p.KillerGUID)
	w.WriteU32(uint32(p.DeathType))
	return w.Bytes()
}

func DecodeServerPlayerDeath(data []byte) ServerPlayerDeath {
	r := NewReader(data)
	return ServerPlayerDeath{PlayerGUID: r.ReadU64(), KillerGUID: r.ReadU64(), DeathType: DeathType(r.ReadU32())}
}
