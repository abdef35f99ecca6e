package peerset

import (
	"testing"

	"github.com/Klingon-tech/klingnet-ledger/internal/storage"
)

func newTestStore() storage.EndpointStore {
	return storage.NewMemory()
}

func TestAddressBookSaveLoadDelete(t *testing.T) {
	book := NewAddressBook(newTestStore())
	book.Save("127.0.0.1:8001")
	book.Save("127.0.0.1:8002")

	got := book.Load()
	if len(got) != 2 {
		t.Fatalf("Load() = %v, want 2 entries", got)
	}

	book.Delete("127.0.0.1:8001")
	got = book.Load()
	if len(got) != 1 || got[0] != "127.0.0.1:8002" {
		t.Fatalf("Load() after Delete = %v, want [127.0.0.1:8002]", got)
	}
}
