package handler

import (
	"strings"
	"sync"

	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/netio"
)

// SessionBinder maps in-world player GUIDs to their live sessions, and
// character names to GUIDs for whisper routing. Read-mostly concurrent
// map, same shape as the server's session store.
type SessionBinder struct {
	mu     sync.RWMutex
	byGUID map[entitymodel.GUID]*netio.Session
	byName map[string]entitymodel.GUID
	names  map[entitymodel.GUID]string
}

func NewSessionBinder() *SessionBinder {
	return &SessionBinder{
		byGUID: make(map[entitymodel.GUID]*netio.Session),
		byName: make(map[string]entitymodel.GUID),
		names:  make(map[entitymodel.GUID]string),
	}
}

// Bind registers a player entering the world. Name lookup is
// case-insensitive.
func (b *SessionBinder) Bind(guid entitymodel.GUID, name string, sess *netio.Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byGUID[guid] = sess
	b.byName[strings.ToLower(name)] = guid
	b.names[guid] = name
}

// Unbind removes a player on quit/disconnect.
func (b *SessionBinder) Unbind(guid entitymodel.GUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if name, ok := b.names[guid]; ok {
		delete(b.byName, strings.ToLower(name))
		delete(b.names, guid)
	}
	delete(b.byGUID, guid)
}

// Session returns the live session for an in-world player GUID.
func (b *SessionBinder) Session(guid entitymodel.GUID) (*netio.Session, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.byGUID[guid]
	return s, ok
}

// GUIDByName resolves a character name to an in-world GUID.
func (b *SessionBinder) GUIDByName(name string) (entitymodel.GUID, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	g, ok := b.byName[strings.ToLower(name)]
	return g, ok
}

// Name returns the bound character name for a GUID.
func (b *SessionBinder) Name(guid entitymodel.GUID) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.names[guid]
}
