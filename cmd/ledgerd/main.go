// Command ledgerd runs a single gossiping, proof-of-work message ledger
// node: it mines submitted messages into an append-only chain, gossips
// its peer set and pending mempool, and adopts longer valid chains
// offered by peers.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Klingon-tech/klingnet-ledger/config"
	"github.com/Klingon-tech/klingnet-ledger/internal/chain"
	"github.com/Klingon-tech/klingnet-ledger/internal/consensus"
	"github.com/Klingon-tech/klingnet-ledger/internal/gossip"
	"github.com/Klingon-tech/klingnet-ledger/internal/ingress"
	klog "github.com/Klingon-tech/klingnet-ledger/internal/log"
	"github.com/Klingon-tech/klingnet-ledger/internal/mempool"
	"github.com/Klingon-tech/klingnet-ledger/internal/node"
	"github.com/Klingon-tech/klingnet-ledger/internal/peerset"
	"github.com/Klingon-tech/klingnet-ledger/internal/storage"
)

// gossipTimeout bounds every outbound peer HTTP call so one unreachable
// peer can never delay a periodic task beyond this window.
const gossipTimeout = 5 * time.Second

func main() {
	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ledgerd: %v\n", err)
		os.Exit(1)
	}

	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "ledgerd: init logging: %v\n", err)
		os.Exit(1)
	}

	ch, store, err := loadOrCreateChain(cfg)
	if err != nil {
		klog.Fatal().Err(err).Msg("failed to initialize chain")
	}

	addrDB, err := storage.NewBadger(filepath.Join(cfg.DataDir, "peers"))
	if err != nil {
		klog.Fatal().Err(err).Msg("failed to open peer address book")
	}
	defer addrDB.Close()
	book := peerset.NewAddressBook(addrDB)

	selfEndpoint, err := peerset.Canonicalize("127.0.0.1", cfg.Ingress.Port)
	if err != nil {
		klog.Fatal().Err(err).Msg("invalid ingress port")
	}

	peers := peerset.New(selfEndpoint, config.MaxNeighbours, book)
	for _, seed := range cfg.Peers.Seeds {
		canonical, err := peerset.ParseEndpoint(seed)
		if err != nil {
			klog.Node.Warn().Err(err).Str("seed", seed).Msg("skipping malformed seed peer")
			continue
		}
		if _, err := peers.Add(canonical); err != nil {
			klog.Node.Warn().Err(err).Str("seed", canonical).Msg("skipping seed peer")
		}
	}

	pool := mempool.New()
	gossipClient := gossip.New(gossipTimeout)
	coordinator := node.New(ch, pool, peers, store, gossipClient)
	ingressServer := ingress.New(cfg.ListenAddr(), coordinator)

	if err := ingressServer.Start(); err != nil {
		klog.Fatal().Err(err).Msg("failed to start ingress server")
	}
	coordinator.Start()

	klog.Info().
		Str("addr", ingressServer.Addr()).
		Int("difficulty", cfg.Difficulty).
		Int("chain_length", ch.Len()).
		Msg("ledgerd running")

	waitForShutdownSignal()

	klog.Info().Msg("shutting down")
	if err := ingressServer.Stop(); err != nil {
		klog.Error().Err(err).Msg("error stopping ingress server")
	}
	coordinator.Stop()
	os.Exit(0)
}

// loadOrCreateChain resolves the chain file per the startup semantics:
// a missing file yields a fresh genesis-only chain, ForceNewChain
// discards any existing file, corruption or an invariant violation is
// fatal and requires operator intervention.
func loadOrCreateChain(cfg *config.Config) (*chain.Chain, *chain.Store, error) {
	format := chain.FormatJSON
	if cfg.Format == config.FormatBinary {
		format = chain.FormatBinary
	}
	store := chain.NewStore(cfg.ChainPath(), format)

	if cfg.ForceNewChain {
		ch := chain.New(cfg.Difficulty)
		if err := store.Save(ch.Snapshot()); err != nil {
			return nil, nil, fmt.Errorf("force-new-chain: %w", err)
		}
		return ch, store, nil
	}

	blocks, err := store.Load()
	switch {
	case errors.Is(err, chain.ErrChainNotFound):
		return chain.New(cfg.Difficulty), store, nil
	case errors.Is(err, chain.ErrChainCorrupt):
		return nil, nil, fmt.Errorf("chain file is corrupt, refusing to start: %w", err)
	case err != nil:
		return nil, nil, err
	}

	if err := consensus.IsChainValid(blocks, cfg.Difficulty); err != nil {
		return nil, nil, fmt.Errorf("loaded chain violates invariants, operator must repair or pass --forcenewchain: %w", err)
	}

	return chain.NewFromBlocks(blocks, cfg.Difficulty), store, nil
}

func waitForShutdownSignal() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}
