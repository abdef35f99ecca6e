package storage

import (
	"sort"
	"testing"
)

// testStore runs the shared test suite against an EndpointStore
// implementation.
func testStore(t *testing.T, store EndpointStore) {
	t.Helper()

	t.Run("SaveAndLoad", func(t *testing.T) {
		if err := store.Save("127.0.0.1:8001"); err != nil {
			t.Fatalf("Save() error: %v", err)
		}
		if err := store.Save("127.0.0.1:8002"); err != nil {
			t.Fatalf("Save() error: %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		sort.Strings(got)
		want := []string{"127.0.0.1:8001", "127.0.0.1:8002"}
		if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
			t.Errorf("Load() = %v, want %v", got, want)
		}
	})

	t.Run("SaveIsIdempotent", func(t *testing.T) {
		store.Save("127.0.0.1:9001")
		store.Save("127.0.0.1:9001")

		got, _ := store.Load()
		count := 0
		for _, e := range got {
			if e == "127.0.0.1:9001" {
				count++
			}
		}
		if count != 1 {
			t.Errorf("127.0.0.1:9001 appears %d times, want 1", count)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		store.Save("127.0.0.1:9002")
		if err := store.Delete("127.0.0.1:9002"); err != nil {
			t.Fatalf("Delete() error: %v", err)
		}

		got, _ := store.Load()
		for _, e := range got {
			if e == "127.0.0.1:9002" {
				t.Errorf("127.0.0.1:9002 still present after Delete()")
			}
		}
	})

	t.Run("DeleteNonexistent", func(t *testing.T) {
		if err := store.Delete("127.0.0.1:9999"); err != nil {
			t.Errorf("Delete() of an unknown endpoint should not error: %v", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	store := NewMemory()
	defer store.Close()
	testStore(t, store)
}

func TestBadgerStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	defer store.Close()
	testStore(t, store)
}

func TestBadgerStore_Persistence(t *testing.T) {
	dir := t.TempDir()

	store1, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	store1.Save("127.0.0.1:8001")
	store1.Close()

	store2, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() reopen error: %v", err)
	}
	defer store2.Close()

	got, err := store2.Load()
	if err != nil {
		t.Fatalf("Load() after reopen error: %v", err)
	}
	if len(got) != 1 || got[0] != "127.0.0.1:8001" {
		t.Errorf("Load() after reopen = %v, want [127.0.0.1:8001]", got)
	}
}
