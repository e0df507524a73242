package content

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestLoadParsesWhitelistedFiles(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "creatures.json", `[{"id":1,"name":"Wolf","level":5,"health":100}]`)
	writeJSON(t, dir, "items.json", `[{"id":10,"name":"Sword","stack_max":1}]`)

	cat, err := Load(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Creatures.Count() != 1 {
		t.Fatalf("creatures count = %d, want 1", cat.Creatures.Count())
	}
	tpl, ok := cat.Creatures.Get(1)
	if !ok || tpl.Name != "Wolf" {
		t.Fatalf("got %+v, ok=%v", tpl, ok)
	}
	if cat.Items.Count() != 1 {
		t.Fatalf("items count = %d, want 1", cat.Items.Count())
	}
}

func TestLoadIgnoresUnlistedFiles(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "not_whitelisted.json", `[{"id":1}]`)

	cat, err := Load(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Creatures.Count() != 0 {
		t.Fatalf("expected no creatures loaded from an unlisted file")
	}
}

func TestLoadUsesCacheWhenFresh(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "creatures.json", `[{"id":1,"name":"Wolf"}]`)

	if _, err := Load(dir, zap.NewNop()); err != nil {
		t.Fatalf("first Load: %v", err)
	}
	cachePath := path + ".cache"
	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("expected cache file to be written: %v", err)
	}

	jsonInfo, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	// Corrupt the JSON but keep the cache's mtime >= the JSON's; a
	// fresh cache should still let Load succeed.
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, jsonInfo.ModTime(), jsonInfo.ModTime()); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(cachePath, jsonInfo.ModTime(), jsonInfo.ModTime()); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir, zap.NewNop()); err != nil {
		t.Fatalf("second Load should use cache despite corrupt JSON: %v", err)
	}
}

func writeJSON(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
