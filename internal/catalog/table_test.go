package catalog

import "testing"

func TestTablePutGetCount(t *testing.T) {
	tbl := NewTable[string]()
	tbl.Put(3, "three")
	tbl.Put(1, "one")
	tbl.Finalize()

	if v, ok := tbl.Get(3); !ok || v != "three" {
		t.Fatalf("Get(3) = %q, %v", v, ok)
	}
	if _, ok := tbl.Get(2); ok {
		t.Fatal("Get(2) should miss")
	}
	if tbl.Count() != 2 {
		t.Fatalf("Count() = %d", tbl.Count())
	}
}

func TestTableListIsIDOrdered(t *testing.T) {
	tbl := NewTable[int]()
	tbl.Put(5, 50)
	tbl.Put(1, 10)
	tbl.Put(3, 30)
	tbl.Finalize()

	got := tbl.List()
	want := []int{10, 30, 50}
	if len(got) != len(want) {
		t.Fatalf("List() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestFetchByIDsSkipsMissing(t *testing.T) {
	tbl := NewTable[string]()
	tbl.Put(1, "a")
	tbl.Put(2, "b")
	tbl.Finalize()

	got := tbl.FetchByIDs([]int{2, 99, 1})
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Fatalf("FetchByIDs = %v", got)
	}
}

func TestListPaginatedWalksEntireTable(t *testing.T) {
	tbl := NewTable[int]()
	for i := 0; i < 5; i++ {
		tbl.Put(i, i*10)
	}
	tbl.Finalize()

	var all []int
	var cur *Cursor
	for {
		batch, next := tbl.ListPaginated(2, cur)
		all = append(all, batch...)
		if next == nil {
			break
		}
		cur = next
	}
	if len(all) != 5 {
		t.Fatalf("paginated walk collected %d entries, want 5", len(all))
	}
}

func TestBuildIndexExcludesMissingKeys(t *testing.T) {
	tbl := NewTable[struct {
		Group string
		Valid bool
	}]()
	tbl.Put(1, struct {
		Group string
		Valid bool
	}{"a", true})
	tbl.Put(2, struct {
		Group string
		Valid bool
	}{"", false})
	tbl.Finalize()

	idx := BuildIndex(tbl, func(v struct {
		Group string
		Valid bool
	}) (string, bool) {
		return v.Group, v.Valid
	})
	if ids := idx.Lookup("a"); len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("Lookup(a) = %v", ids)
	}
	if ids := idx.Lookup(""); len(ids) != 0 {
		t.Fatalf("Lookup('') should exclude entry 2, got %v", ids)
	}
}
