// Package node implements the Coordinator: the single-writer owner of
// the chain, mempool, and peer set, and the home of the mining loop and
// the four periodic background tasks that keep a node in sync with its
// peers.
package node

import (
	"context"
	"errors"
	"time"

	"github.com/Klingon-tech/klingnet-ledger/internal/chain"
	"github.com/Klingon-tech/klingnet-ledger/internal/consensus"
	"github.com/Klingon-tech/klingnet-ledger/internal/gossip"
	klog "github.com/Klingon-tech/klingnet-ledger/internal/log"
	"github.com/Klingon-tech/klingnet-ledger/internal/mempool"
	"github.com/Klingon-tech/klingnet-ledger/internal/peerset"
	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
	"github.com/Klingon-tech/klingnet-ledger/pkg/envelope"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Default periods for the four background tasks, per the coordinator's
// configuration (§4.2). These are intentionally compile-time constants,
// not configuration fields.
const (
	GossipInterval    = 20 * time.Second
	ConsensusInterval = 10 * time.Second
	DiffusionInterval = 5 * time.Second
	BackupInterval    = 30 * time.Second

	emptyMempoolBackoff = 100 * time.Millisecond
	inboxCapacity       = 256
)

// ErrStopped is returned by the public contract methods once the
// coordinator has begun shutting down.
var ErrStopped = errors.New("node: coordinator is stopped")

// Coordinator owns the chain, mempool, and peer set, and mediates every
// cross-component change. The ingress server never touches any of these
// directly — it only calls the exported methods below, which internally
// route through a bounded inbox and one-shot reply channels.
type Coordinator struct {
	chain  *chain.Chain
	pool   *mempool.Pool
	peers  *peerset.Set
	store  *chain.Store
	gossip *gossip.Client
	logger zerolog.Logger

	inbox chan request

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
}

// New creates a Coordinator. It does not start any background work;
// call Start for that.
func New(ch *chain.Chain, pool *mempool.Pool, peers *peerset.Set, store *chain.Store, gossipClient *gossip.Client) *Coordinator {
	return &Coordinator{
		chain:  ch,
		pool:   pool,
		peers:  peers,
		store:  store,
		gossip: gossipClient,
		logger: klog.WithComponent("node"),
		inbox:  make(chan request, inboxCapacity),
	}
}

type requestKind int

const (
	kindSubmitMessage requestKind = iota
	kindSnapshotChain
	kindSnapshotPeers
	kindSnapshotMempool
)

type request struct {
	kind  requestKind
	text  string
	reply chan response
}

type response struct {
	err     error
	chain   []block.Block
	peers   []string
	mempool []envelope.Envelope
}

// dispatch serves requests off the inbox one at a time — the single
// consumer the coordinator's concurrency model requires. Mutating work
// (today, only message submission) happens here; snapshots are served
// directly from the already-thread-safe chain/pool/peers since they
// never mutate anything.
func (c *Coordinator) dispatch() error {
	for {
		select {
		case <-c.ctx.Done():
			return nil
		case req := <-c.inbox:
			c.handle(req)
		}
	}
}

func (c *Coordinator) handle(req request) {
	switch req.kind {
	case kindSubmitMessage:
		env, err := envelope.New(req.text)
		if err != nil {
			req.reply <- response{err: err}
			return
		}
		c.pool.Add(env)
		req.reply <- response{}
	case kindSnapshotChain:
		req.reply <- response{chain: c.chain.Snapshot()}
	case kindSnapshotPeers:
		req.reply <- response{peers: c.peers.Snapshot()}
	case kindSnapshotMempool:
		req.reply <- response{mempool: c.pool.Snapshot()}
	}
}

// call enqueues req and waits for its reply, returning ErrStopped if the
// coordinator shuts down before either step completes.
func (c *Coordinator) call(req request) (response, error) {
	select {
	case c.inbox <- req:
	case <-c.ctx.Done():
		return response{}, ErrStopped
	}
	select {
	case resp := <-req.reply:
		return resp, nil
	case <-c.ctx.Done():
		return response{}, ErrStopped
	}
}

// SubmitMessage wraps text in a freshly generated envelope and inserts
// it into the mempool. Submitting the same text twice produces two
// distinct envelope ids.
func (c *Coordinator) SubmitMessage(text string) error {
	resp, err := c.call(request{kind: kindSubmitMessage, text: text, reply: make(chan response, 1)})
	if err != nil {
		return err
	}
	return resp.err
}

// SnapshotChain returns an immutable view of the chain for serving read
// requests.
func (c *Coordinator) SnapshotChain() ([]block.Block, error) {
	resp, err := c.call(request{kind: kindSnapshotChain, reply: make(chan response, 1)})
	if err != nil {
		return nil, err
	}
	return resp.chain, nil
}

// SnapshotPeers returns the current peer set.
func (c *Coordinator) SnapshotPeers() ([]string, error) {
	resp, err := c.call(request{kind: kindSnapshotPeers, reply: make(chan response, 1)})
	if err != nil {
		return nil, err
	}
	return resp.peers, nil
}

// SnapshotMempool returns the current mempool contents.
func (c *Coordinator) SnapshotMempool() ([]envelope.Envelope, error) {
	resp, err := c.call(request{kind: kindSnapshotMempool, reply: make(chan response, 1)})
	if err != nil {
		return nil, err
	}
	return resp.mempool, nil
}

// Start launches the dispatch loop, the mining loop, and the four
// periodic tasks. It returns immediately; all work happens in the
// background until Stop is called.
func (c *Coordinator) Start() {
	c.ctx, c.cancel = context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(c.ctx)
	// errgroup.WithContext cancels ctx on the first non-nil error. Every
	// task below catches and logs its own errors instead of returning
	// them, so that cancellation never propagates from a sibling task —
	// it only ever comes from Stop.
	c.ctx = ctx
	c.group = g

	g.Go(c.dispatch)
	g.Go(c.runMining)
	g.Go(c.runPeriodic("gossip", GossipInterval, c.runGossip))
	g.Go(c.runPeriodic("consensus", ConsensusInterval, c.runConsensus))
	g.Go(c.runPeriodic("diffusion", DiffusionInterval, c.runDiffusion))
	g.Go(c.runPeriodic("backup", BackupInterval, c.runBackup))

	c.logger.Info().
		Int("chain_length", c.chain.Len()).
		Int("peers", c.peers.Len()).
		Msg("coordinator started")
}

// Stop signals every task to exit at its next wake point, waits for them
// to finish, and performs a final save.
func (c *Coordinator) Stop() {
	c.cancel()
	_ = c.group.Wait()

	if err := c.store.Save(c.chain.Snapshot()); err != nil {
		c.logger.Error().Err(err).Msg("final backup on shutdown failed")
	}
	c.logger.Info().Msg("coordinator stopped")
}

// runPeriodic wraps fn in a ticker-driven loop. The first run happens
// after interval, not at t=0, matching the reference's thread-based
// periodic jobs.
func (c *Coordinator) runPeriodic(name string, interval time.Duration, fn func()) func() error {
	return func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.ctx.Done():
				return nil
			case <-ticker.C:
				c.runCatchingPanics(name, fn)
			}
		}
	}
}

// runCatchingPanics runs fn, converting any panic into a logged error so
// that one misbehaving task can never take down the coordinator or its
// siblings (§7 propagation policy).
func (c *Coordinator) runCatchingPanics(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Str("task", name).Msg("periodic task panicked, continuing")
		}
	}()
	fn()
}

// runMining drains the mempool one envelope at a time, mines a block on
// top of the current tip, and appends it. It never blocks for long: an
// empty mempool is polled with a short backoff so shutdown is prompt.
func (c *Coordinator) runMining() error {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("mining loop panicked")
		}
	}()

	for {
		if c.ctx.Err() != nil {
			return nil
		}

		env, ok := c.pool.Pop()
		if !ok {
			select {
			case <-c.ctx.Done():
				return nil
			case <-time.After(emptyMempoolBackoff):
			}
			continue
		}

		if c.chain.Contains(env.ID) {
			continue
		}

		tip, err := c.chain.Tail()
		if err != nil {
			c.logger.Error().Err(err).Msg("mining: chain has no tail")
			continue
		}

		proof, err := consensus.Search(c.ctx, tip.Proof, c.chain.Difficulty())
		if err != nil {
			if c.ctx.Err() != nil {
				return nil
			}
			c.logger.Error().Err(err).Msg("mining: proof search failed")
			continue
		}

		candidate := block.New(tip.Index+1, env, proof, block.Hash(tip))
		if err := c.chain.Append(candidate); err != nil {
			// The tip moved under us (a consensus adoption landed mid-search)
			// and the mined block no longer validates. Discard silently per
			// the tie-break rule in §4.2 and let the envelope be re-mined —
			// it may already be in the adopted chain, in which case Contains
			// will catch it on the next pass.
			c.logger.Warn().Err(err).Str("envelope_id", env.ID).Msg("mined block discarded, chain moved under it")
			c.pool.Add(env)
			continue
		}

		c.logger.Info().
			Int("index", candidate.Index).
			Str("envelope_id", env.ID).
			Str("proof", candidate.Proof.Text()).
			Msg("mined block")
	}
}
