package node

import (
	"github.com/Klingon-tech/klingnet-ledger/internal/consensus"
	"github.com/Klingon-tech/klingnet-ledger/internal/peerset"
	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
)

// runGossip queries each peer's neighbours endpoint and admits any
// returned endpoint that, once canonicalized, is not the node itself and
// not already a peer (malformed endpoints are skipped),
// until MAX_NEIGHBOURS is reached. Unreachable peers count toward the
// same consecutive-failure total as runConsensus and runDiffusion, so a
// peer that never answers any of the three tasks still gets pruned.
func (c *Coordinator) runGossip() {
	if c.peers.Full() {
		return
	}
	for _, peer := range c.peers.Snapshot() {
		if c.peers.Full() {
			return
		}
		neighbours, err := c.gossip.FetchNeighbours(c.ctx, peer)
		if err != nil {
			c.logger.Warn().Err(err).Str("peer", peer).Msg("gossip: peer unreachable")
			c.peers.RecordFailure(peer)
			continue
		}
		c.peers.RecordSuccess(peer)
		for _, candidate := range neighbours {
			if c.peers.Full() {
				return
			}
			canonical, err := peerset.ParseEndpoint(candidate)
			if err != nil {
				continue
			}
			if _, err := c.peers.Add(canonical); err != nil {
				continue
			}
		}
	}
}

// runConsensus fetches every peer's chain and adopts the longest one
// that is strictly longer than the local chain and passes IsChainValid.
// Ties are broken by first-seen order within the iteration — the first
// peer to report the longest length wins, later equal-length offers are
// ignored.
func (c *Coordinator) runConsensus() {
	localLen := c.chain.Len()
	bestLen := localLen
	var best []block.Block

	for _, peer := range c.peers.Snapshot() {
		remote, err := c.gossip.FetchChain(c.ctx, peer)
		if err != nil {
			c.logger.Warn().Err(err).Str("peer", peer).Msg("consensus: peer unreachable")
			c.peers.RecordFailure(peer)
			continue
		}
		c.peers.RecordSuccess(peer)

		if len(remote) <= bestLen {
			continue
		}
		if err := consensus.IsChainValid(remote, c.chain.Difficulty()); err != nil {
			c.logger.Warn().Err(err).Str("peer", peer).Msg("consensus: peer offered an invalid chain")
			continue
		}
		bestLen = len(remote)
		best = remote
	}

	if best == nil {
		return
	}

	old := c.chain.Snapshot()
	adopted, err := c.chain.Replace(best)
	if err != nil || !adopted {
		if err != nil {
			c.logger.Error().Err(err).Msg("consensus: replace failed after validation")
		}
		return
	}

	c.logger.Info().
		Int("old_length", len(old)).
		Int("new_length", len(best)).
		Msg("consensus: adopted a longer chain")

	c.replayOrphanedEnvelopes(old, best)
}

// replayOrphanedEnvelopes reinserts into the mempool any envelope that
// was present in the old chain's tail but is absent from the newly
// adopted chain, so messages from an abandoned fork are not lost.
func (c *Coordinator) replayOrphanedEnvelopes(old, adopted []block.Block) {
	adoptedIDs := make(map[string]bool, len(adopted))
	for _, b := range adopted {
		adoptedIDs[b.Data.ID] = true
	}
	for _, b := range old {
		if block.IsGenesis(b) {
			continue
		}
		if adoptedIDs[b.Data.ID] {
			continue
		}
		if c.chain.Contains(b.Data.ID) {
			continue
		}
		c.pool.Add(b.Data)
	}
}

// runDiffusion fetches every peer's pending-message snapshot and unions
// it into the local mempool, deduplicating by envelope id.
func (c *Coordinator) runDiffusion() {
	for _, peer := range c.peers.Snapshot() {
		data, err := c.gossip.FetchData(c.ctx, peer)
		if err != nil {
			c.logger.Warn().Err(err).Str("peer", peer).Msg("diffusion: peer unreachable")
			c.peers.RecordFailure(peer)
			continue
		}
		c.peers.RecordSuccess(peer)
		c.pool.Merge(data)
	}
}

// runBackup persists the chain only when it has actually changed since
// the last backup, detected by comparing against the on-disk hash file,
// so unchanged chains are never rewritten.
func (c *Coordinator) runBackup() {
	if !c.store.HashExists() {
		if err := c.store.Save(c.chain.Snapshot()); err != nil {
			c.logger.Error().Err(err).Msg("backup: initial save failed")
		}
		return
	}

	blocks := c.chain.Snapshot()
	current, err := c.store.ComputeHash(blocks)
	if err != nil {
		c.logger.Error().Err(err).Msg("backup: hash computation failed")
		return
	}
	onDisk, err := c.store.CurrentHash()
	if err != nil {
		c.logger.Error().Err(err).Msg("backup: reading on-disk hash failed")
		return
	}
	if current == onDisk {
		return
	}
	if err := c.store.Save(blocks); err != nil {
		c.logger.Error().Err(err).Msg("backup: save failed")
	}
}
