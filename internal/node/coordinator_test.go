package node

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Klingon-tech/klingnet-ledger/internal/chain"
	"github.com/Klingon-tech/klingnet-ledger/internal/consensus"
	"github.com/Klingon-tech/klingnet-ledger/internal/gossip"
	"github.com/Klingon-tech/klingnet-ledger/internal/mempool"
	"github.com/Klingon-tech/klingnet-ledger/internal/peerset"
	"github.com/Klingon-tech/klingnet-ledger/internal/wire"
	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
	"github.com/Klingon-tech/klingnet-ledger/pkg/envelope"
)

// newTestCoordinator wires a Coordinator and starts only its dispatch
// loop, so SubmitMessage/Snapshot* can be exercised without the mining
// loop or periodic tasks racing against the assertions.
func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	ch := chain.New(1)
	pool := mempool.New()
	peers := peerset.New("127.0.0.1:0", 3, nil)
	store := chain.NewStore(filepath.Join(t.TempDir(), "chain.json"), chain.FormatJSON)
	c := New(ch, pool, peers, store, gossip.New(time.Second))
	c.ctx, c.cancel = context.WithCancel(context.Background())
	go c.dispatch()
	t.Cleanup(c.cancel)
	return c
}

func endpointOf(srv *httptest.Server) string {
	return strings.TrimPrefix(srv.URL, "http://")
}

func mineTest(t *testing.T, tip block.Block, text string, difficulty int) block.Block {
	t.Helper()
	data, err := envelope.New(text)
	if err != nil {
		t.Fatalf("envelope.New: %v", err)
	}
	proof, err := consensus.Search(context.Background(), tip.Proof, difficulty)
	if err != nil {
		t.Fatalf("consensus.Search: %v", err)
	}
	blk := block.New(tip.Index+1, data, proof, block.Hash(tip))
	blk.Timestamp = tip.Timestamp.Add(time.Second)
	return blk
}

func TestSubmitMessageInsertsIntoMempool(t *testing.T) {
	c := newTestCoordinator(t)
	if err := c.SubmitMessage("hello"); err != nil {
		t.Fatalf("SubmitMessage: %v", err)
	}
	got, err := c.SnapshotMempool()
	if err != nil {
		t.Fatalf("SnapshotMempool: %v", err)
	}
	if len(got) != 1 || got[0].Text != "hello" {
		t.Fatalf("SnapshotMempool() = %+v, want one envelope with text %q", got, "hello")
	}
}

func TestSubmitMessageRejectsEmptyText(t *testing.T) {
	c := newTestCoordinator(t)
	if err := c.SubmitMessage(""); err == nil {
		t.Fatalf("SubmitMessage(\"\") returned nil error")
	}
}

func TestSnapshotChainReturnsGenesis(t *testing.T) {
	c := newTestCoordinator(t)
	got, err := c.SnapshotChain()
	if err != nil {
		t.Fatalf("SnapshotChain: %v", err)
	}
	if len(got) != 1 || !block.IsGenesis(got[0]) {
		t.Fatalf("SnapshotChain() = %+v, want [genesis]", got)
	}
}

func TestReplayOrphanedEnvelopesReinsertsOrphanedMessage(t *testing.T) {
	c := newTestCoordinator(t)
	genesis := block.Genesis()
	orphan := mineTest(t, genesis, "orphaned", 1)
	old := []block.Block{genesis, orphan}
	adopted := []block.Block{genesis}

	c.replayOrphanedEnvelopes(old, adopted)

	got, err := c.SnapshotMempool()
	if err != nil {
		t.Fatalf("SnapshotMempool: %v", err)
	}
	if len(got) != 1 || got[0].ID != orphan.Data.ID {
		t.Fatalf("SnapshotMempool() = %+v, want the orphaned envelope", got)
	}
}

func TestRunBackupOnlyWritesOnChange(t *testing.T) {
	dir := t.TempDir()
	c := newTestCoordinator(t)
	c.chain = chain.New(1)
	c.store = chain.NewStore(filepath.Join(dir, "chain.json"), chain.FormatJSON)

	c.runBackup()
	if !c.store.HashExists() {
		t.Fatalf("runBackup did not write a hash file on first run")
	}

	entriesBefore, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	c.runBackup()
	entriesAfter, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entriesAfter) != len(entriesBefore) {
		t.Fatalf("runBackup rewrote an unchanged chain: %d entries before, %d after", len(entriesBefore), len(entriesAfter))
	}
}

func TestRunGossipAddsTransitivePeer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(wire.NeighboursResponse{Neighbours: []string{"127.0.0.1:9999"}, Length: 1})
	}))
	defer srv.Close()

	c := newTestCoordinator(t)
	if _, err := c.peers.Add(endpointOf(srv)); err != nil {
		t.Fatalf("seed peer: %v", err)
	}

	c.runGossip()

	if !c.peers.Has("127.0.0.1:9999") {
		t.Fatalf("runGossip did not add the transitively discovered peer")
	}
}

func TestRunConsensusAdoptsLongerValidChain(t *testing.T) {
	genesis := block.Genesis()
	next := mineTest(t, genesis, "hello", 1)
	longer := []block.Block{genesis, next}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(wire.ChainResponse{Chain: wire.EncodeBlocks(longer), Length: len(longer)})
	}))
	defer srv.Close()

	c := newTestCoordinator(t)
	if _, err := c.peers.Add(endpointOf(srv)); err != nil {
		t.Fatalf("seed peer: %v", err)
	}

	c.runConsensus()

	got, err := c.SnapshotChain()
	if err != nil {
		t.Fatalf("SnapshotChain: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("runConsensus did not adopt the longer chain: got length %d", len(got))
	}
}

func TestRunDiffusionMergesPeerMempool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]wire.Envelope{{ID: "abc", Text: "hello"}})
	}))
	defer srv.Close()

	c := newTestCoordinator(t)
	if _, err := c.peers.Add(endpointOf(srv)); err != nil {
		t.Fatalf("seed peer: %v", err)
	}

	c.runDiffusion()

	got, err := c.SnapshotMempool()
	if err != nil {
		t.Fatalf("SnapshotMempool: %v", err)
	}
	if len(got) != 1 || got[0].ID != "abc" {
		t.Fatalf("runDiffusion did not merge the peer's mempool: %+v", got)
	}
}
