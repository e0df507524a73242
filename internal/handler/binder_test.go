package handler

import (
	"testing"

	"github.com/wyrmwatch/core/internal/entitymodel"
)

func TestSessionBinderBindLookupUnbind(t *testing.T) {
	b := NewSessionBinder()
	guid := entitymodel.NewGUID(entitymodel.TypePlayer, 7)

	b.Bind(guid, "Keeva", nil)

	if got, ok := b.GUIDByName("keeva"); !ok || got != guid {
		t.Fatalf("GUIDByName(lowercase) = (%v, %v)", got, ok)
	}
	if got, ok := b.GUIDByName("KEEVA"); !ok || got != guid {
		t.Fatalf("GUIDByName(uppercase) = (%v, %v)", got, ok)
	}
	if name := b.Name(guid); name != "Keeva" {
		t.Fatalf("Name = %q", name)
	}

	b.Unbind(guid)
	if _, ok := b.GUIDByName("keeva"); ok {
		t.Fatal("name still resolvable after Unbind")
	}
	if _, ok := b.Session(guid); ok {
		t.Fatal("session still resolvable after Unbind")
	}
}

func TestSessionBinderRebindReplacesName(t *testing.T) {
	b := NewSessionBinder()
	first := entitymodel.NewGUID(entitymodel.TypePlayer, 1)
	second := entitymodel.NewGUID(entitymodel.TypePlayer, 2)

	b.Bind(first, "Grib", nil)
	b.Bind(second, "Grib", nil)

	if got, _ := b.GUIDByName("grib"); got != second {
		t.Fatalf("GUIDByName after rebind = %v, want %v", got, second)
	}
}
