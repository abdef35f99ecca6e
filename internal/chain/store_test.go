package chain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Klingon-tech/klingnet-ledger/internal/consensus"
	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
	"github.com/Klingon-tech/klingnet-ledger/pkg/envelope"
)

func sampleChain(t *testing.T) []block.Block {
	t.Helper()
	genesis := block.Genesis()
	data, err := envelope.New("hello")
	if err != nil {
		t.Fatalf("envelope.New: %v", err)
	}
	proof, err := consensus.Search(context.Background(), genesis.Proof, 1)
	if err != nil {
		t.Fatalf("consensus.Search: %v", err)
	}
	next := block.New(1, data, proof, block.Hash(genesis))
	next.Timestamp = genesis.Timestamp.Add(time.Second)
	return []block.Block{genesis, next}
}

func TestStoreJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "chain.json"), FormatJSON)
	want := sampleChain(t)

	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Load() returned %d blocks, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("block %d round-tripped incorrectly: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestStoreBinaryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "chain.bin"), FormatBinary)
	want := sampleChain(t)

	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("block %d round-tripped incorrectly: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestStoreLoadMissingFileIsChainNotFound(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "chain.json"), FormatJSON)

	if _, err := store.Load(); err != ErrChainNotFound {
		t.Fatalf("Load() err = %v, want ErrChainNotFound", err)
	}
}

func TestStoreLoadDisagreeingHashIsChainCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chain.json")
	store := NewStore(path, FormatJSON)

	if err := store.Save(sampleChain(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.WriteFile(store.hashPath(), []byte("not-the-real-hash"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := store.Load(); !errors.Is(err, ErrChainCorrupt) {
		t.Fatalf("Load() with a disagreeing hash file err = %v, want ErrChainCorrupt", err)
	}
}

func TestStoreSaveRotatesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chain.json")
	store := NewStore(path, FormatJSON)

	if err := store.Save(sampleChain(t)[:1]); err != nil {
		t.Fatalf("Save (first): %v", err)
	}
	if err := store.Save(sampleChain(t)); err != nil {
		t.Fatalf("Save (second): %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) < 3 {
		t.Fatalf("ReadDir found %d entries, want at least 3 (chain, hash, rotated)", len(entries))
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load after rotation: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Load after rotation returned %d blocks, want 2", len(got))
	}
}
