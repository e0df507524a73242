package packet

// Opcode constants. Values are placeholders in an otherwise-unassigned
// range; what matters for wire fidelity is field layout, not the
// numeric opcode itself.
const (
	OpServerItemMove         byte = 0x01
	OpServerItemSwap         byte = 0x02
	OpServerChat             byte = 0x03
	OpClientChat             byte = 0x04
	OpServerChatResult       byte = 0x05
	OpServerQuestAdd         byte = 0x06
	OpServerQuestUpdate      byte = 0x07
	OpServerQuestRemove      byte = 0x08
	OpServerTelegraph        byte = 0x09
	OpServerItemVisualUpdate byte = 0x0A
	OpServerBuffApply        byte = 0x0B
	OpServerBuffRemove       byte = 0x0C
	OpServerPlayerDeath      byte = 0x0D

	OpClientAuth        byte = 0x20
	OpServerAuthResult  byte = 0x21
	OpClientRealmList   byte = 0x22
	OpServerRealmList   byte = 0x23
	OpClientRealmSelect byte = 0x24
	OpClientCharList    byte = 0x25
	OpServerCharList    byte = 0x26
	OpClientEnterWorld  byte = 0x27
	OpServerEnterWorld  byte = 0x28
	OpClientMove        byte = 0x29
	OpServerEntityMove  byte = 0x2A
	OpClientAttack      byte = 0x2B
	OpServerSpellEffect byte = 0x2C
	OpClientItemMove    byte = 0x2D
	OpClientItemSwap    byte = 0x2E
	OpClientQuit        byte = 0x2F

	OpClientDuelRequest byte = 0x30
	OpClientDuelAccept  byte = 0x31
	OpClientDuelForfeit byte = 0x32
	OpServerDuelState   byte = 0x33
)

// LocationTag identifies which inventory container an item slot
// belongs to, packed into the high byte of a drag-drop location code.
type LocationTag byte

const (
	LocationEquipped LocationTag = 0
	LocationBag      LocationTag = 1
	LocationBank     LocationTag = 2
	LocationTrade    LocationTag = 3
)

// EncodeLocation packs (tag, slot) into the single field drag-drop
// packets use to address an item slot: (tag<<8)|slot.
func EncodeLocation(tag LocationTag, slot uint8) uint64 {
	return uint64(uint16(tag)<<8 | uint16(slot))
}

// DecodeLocation is EncodeLocation's inverse.
func DecodeLocation(code uint64) (tag LocationTag, slot uint8) {
	return LocationTag((code >> 8) & 0xFF), uint8(code & 0xFF)
}
