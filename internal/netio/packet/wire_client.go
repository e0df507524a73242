package packet

// Inbound packets the session handlers consume, plus the small server
// responses the pre-world stages send back. These opcodes are not part
// of the byte-pinned subset; they follow the same primitive layer.

// ClientAuth carries the credential exchange: account name and a
// password, both bit-packed wide strings.
type ClientAuth struct {
	Account  string
	Password string
}

func (p ClientAuth) Encode() ([]byte, error) {
	w := NewWriter()
	w.WriteOpcode(OpClientAuth)
	if err := w.WriteWideString(p.Account); err != nil {
		return nil, err
	}
	if err := w.WriteWideString(p.Password); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func DecodeClientAuth(data []byte) (ClientAuth, error) {
	r := NewReader(data)
	var p ClientAuth
	var err error
	if p.Account, err = r.ReadWideString(); err != nil {
		return ClientAuth{}, err
	}
	if p.Password, err = r.ReadWideString(); err != nil {
		return ClientAuth{}, err
	}
	return p, nil
}

// AuthResultCode reports a credential exchange outcome.
type AuthResultCode uint8

const (
	AuthOK AuthResultCode = iota
	AuthBadCredentials
	AuthBanned
	AuthAlreadyOnline
)

type ServerAuthResult struct {
	Result AuthResultCode
}

func (p ServerAuthResult) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpServerAuthResult)
	w.WriteU8(uint8(p.Result))
	return w.Bytes()
}

func DecodeServerAuthResult(data []byte) ServerAuthResult {
	r := NewReader(data)
	return ServerAuthResult{Result: AuthResultCode(r.ReadU8())}
}

// ClientRealmSelect picks a realm from the list: u32 realm id.
type ClientRealmSelect struct {
	RealmID uint32
}

func (p ClientRealmSelect) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpClientRealmSelect)
	w.WriteU32(p.RealmID)
	return w.Bytes()
}

func DecodeClientRealmSelect(data []byte) ClientRealmSelect {
	r := NewReader(data)
	return ClientRealmSelect{RealmID: r.ReadU32()}
}

// RealmEntry is one row of ServerRealmList.
type RealmEntry struct {
	RealmID     uint32
	Name        string
	Online      bool
	PlayerCount uint32
}

type ServerRealmList struct {
	Realms []RealmEntry
}

func (p ServerRealmList) Encode() ([]byte, error) {
	w := NewWriter()
	w.WriteOpcode(OpServerRealmList)
	w.WriteU8(uint8(len(p.Realms)))
	for _, realm := range p.Realms {
		w.WriteU32(realm.RealmID)
		if err := w.WriteWideString(realm.Name); err != nil {
			return nil, err
		}
		if realm.Online {
			w.WriteU8(1)
		} else {
			w.WriteU8(0)
		}
		w.WriteU32(realm.PlayerCount)
	}
	return w.Bytes(), nil
}

func DecodeServerRealmList(data []byte) (ServerRealmList, error) {
	r := NewReader(data)
	n := int(r.ReadU8())
	var p ServerRealmList
	for i := 0; i < n; i++ {
		e := RealmEntry{RealmID: r.ReadU32()}
		name, err := r.ReadWideString()
		if err != nil {
			return ServerRealmList{}, err
		}
		e.Name = name
		e.Online = r.ReadU8() != 0
		e.PlayerCount = r.ReadU32()
		p.Realms = append(p.Realms, e)
	}
	return p, nil
}

// CharEntry is one row of ServerCharList.
type CharEntry struct {
	CharacterID uint64
	Name        string
	Level       uint8
	ClassID     uint32
	ZoneID      uint32
}

type ServerCharList struct {
	Characters []CharEntry
}

func (p ServerCharList) Encode() ([]byte, error) {
	w := NewWriter()
	w.WriteOpcode(OpServerCharList)
	w.WriteU8(uint8(len(p.Characters)))
	for _, c := range p.Characters {
		w.WriteU64(c.CharacterID)
		if err := w.WriteWideString(c.Name); err != nil {
			return nil, err
		}
		w.WriteU8(c.Level)
		w.WriteU32(c.ClassID)
		w.WriteU32(c.ZoneID)
	}
	return w.Bytes(), nil
}

// ClientEnterWorld asks to load a character into its zone: u64
// character id.
type ClientEnterWorld struct {
	CharacterID uint64
}

func (p ClientEnterWorld) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpClientEnterWorld)
	w.WriteU64(p.CharacterID)
	return w.Bytes()
}

func DecodeClientEnterWorld(data []byte) ClientEnterWorld {
	r := NewReader(data)
	return ClientEnterWorld{CharacterID: r.ReadU64()}
}

// ServerEnterWorld confirms the zone binding: u64 player guid, u32
// zone id, u32 instance id, then the spawn position.
type ServerEnterWorld struct {
	PlayerGUID uint64
	ZoneID     uint32
	InstanceID uint32
	X, Y, Z    float32
}

func (p ServerEnterWorld) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpServerEnterWorld)
	w.WriteU64(p.PlayerGUID)
	w.WriteU32(p.ZoneID)
	w.WriteU32(p.InstanceID)
	w.WriteF32(p.X)
	w.WriteF32(p.Y)
	w.WriteF32(p.Z)
	return w.Bytes()
}

// ClientMove reports the player's position: 3×f32 position, f32
// heading in radians.
type ClientMove struct {
	X, Y, Z float32
	Heading float32
}

func (p ClientMove) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpClientMove)
	w.WriteF32(p.X)
	w.WriteF32(p.Y)
	w.WriteF32(p.Z)
	w.WriteF32(p.Heading)
	return w.Bytes()
}

func DecodeClientMove(data []byte) ClientMove {
	r := NewReader(data)
	return ClientMove{X: r.ReadF32(), Y: r.ReadF32(), Z: r.ReadF32(), Heading: r.ReadF32()}
}

// ServerEntityMove mirrors a movement to nearby clients.
type ServerEntityMove struct {
	GUID    uint64
	X, Y, Z float32
	Heading float32
}

func (p ServerEntityMove) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpServerEntityMove)
	w.WriteU64(p.GUID)
	w.WriteF32(p.X)
	w.WriteF32(p.Y)
	w.WriteF32(p.Z)
	w.WriteF32(p.Heading)
	return w.Bytes()
}

// ClientAttack requests a basic attack: u64 target guid.
type ClientAttack struct {
	TargetGUID uint64
}

func (p ClientAttack) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpClientAttack)
	w.WriteU64(p.TargetGUID)
	return w.Bytes()
}

func DecodeClientAttack(data []byte) ClientAttack {
	r := NewReader(data)
	return ClientAttack{TargetGUID: r.ReadU64()}
}

// ServerSpellEffect shows a combat effect landing on a target.
type ServerSpellEffect struct {
	CasterGUID uint64
	TargetGUID uint64
	SpellID    uint32
	Amount     int32
}

func (p ServerSpellEffect) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpServerSpellEffect)
	w.WriteU64(p.CasterGUID)
	w.WriteU64(p.TargetGUID)
	w.WriteU32(p.SpellID)
	w.WriteI32(p.Amount)
	return w.Bytes()
}

func DecodeServerSpellEffect(data []byte) ServerSpellEffect {
	r := NewReader(data)
	return ServerSpellEffect{
		CasterGUID: r.ReadU64(),
		TargetGUID: r.ReadU64(),
		SpellID:    r.ReadU32(),
		Amount:     r.ReadI32(),
	}
}

// ClientItemMove asks to relocate an item: u64 item guid, u64
// drag-drop destination.
type ClientItemMove struct {
	ItemGUID uint64
	DragDrop uint64
}

func (p ClientItemMove) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpClientItemMove)
	w.WriteU64(p.ItemGUID)
	w.WriteU64(p.DragDrop)
	return w.Bytes()
}

func DecodeClientItemMove(data []byte) ClientItemMove {
	r := NewReader(data)
	return ClientItemMove{ItemGUID: r.ReadU64(), DragDrop: r.ReadU64()}
}

// ClientItemSwap asks to exchange two slots, one ItemDragDrop per side.
type ClientItemSwap struct {
	From ItemDragDrop
	To   ItemDragDrop
}

func (p ClientItemSwap) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpClientItemSwap)
	w.WriteU64(p.From.ItemGUID)
	w.WriteU64(p.From.DragDrop)
	w.WriteU64(p.To.ItemGUID)
	w.WriteU64(p.To.DragDrop)
	return w.Bytes()
}

func DecodeClientItemSwap(data []byte) ClientItemSwap {
	r := NewReader(data)
	return ClientItemSwap{
		From: ItemDragDrop{ItemGUID: r.ReadU64(), DragDrop: r.ReadU64()},
		To:   ItemDragDrop{ItemGUID: r.ReadU64(), DragDrop: r.ReadU64()},
	}
}

// ClientDuelRequest challenges another player: u64 target guid.
type ClientDuelRequest struct {
	TargetGUID uint64
}

func (p ClientDuelRequest) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpClientDuelRequest)
	w.WriteU64(p.TargetGUID)
	return w.Bytes()
}

func DecodeClientDuelRequest(data []byte) ClientDuelRequest {
	r := NewReader(data)
	return ClientDuelRequest{TargetGUID: r.ReadU64()}
}

// ClientDuelAccept answers a pending challenge: u64 challenger guid,
// u8 accept flag.
type ClientDuelAccept struct {
	ChallengerGUID uint64
	Accept         bool
}

func (p ClientDuelAccept) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpClientDuelAccept)
	w.WriteU64(p.ChallengerGUID)
	if p.Accept {
		w.WriteU8(1)
	} else {
		w.WriteU8(0)
	}
	return w.Bytes()
}

func DecodeClientDuelAccept(data []byte) ClientDuelAccept {
	r := NewReader(data)
	return ClientDuelAccept{ChallengerGUID: r.ReadU64(), Accept: r.ReadU8() != 0}
}

// ServerDuelState pushes a duel lifecycle change to both participants.
type ServerDuelState struct {
	ChallengerGUID uint64
	TargetGUID     uint64
	State          uint8
	Reason         uint8
	WinnerGUID     uint64
}

func (p ServerDuelState) Encode() []byte {
	w := NewWriter()
	w.WriteOpcode(OpServerDuelState)
	w.WriteU64(p.ChallengerGUID)
	w.WriteU64(p.TargetGUID)
	w.WriteU8(p.State)
	w.WriteU8(p.Reason)
	w.WriteU64(p.WinnerGUID)
	return w.Bytes()
}
