// Package chain holds the append-only sequence of mined blocks and its
// on-disk persistence.
package chain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Klingon-tech/klingnet-ledger/internal/consensus"
	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
)

// ErrEmptyChain is returned by Tail when the chain has no blocks, which
// should never happen once New has run (it always seeds the genesis
// block).
var ErrEmptyChain = errors.New("chain: chain has no blocks")

// Chain is the mutable, append-only sequence of blocks; persistence is
// handled separately by a Store. It is safe for concurrent use: the node
// coordinator's mining loop calls Append while its consensus task may
// call Replace, and the internal lock serializes the two.
type Chain struct {
	mu         sync.RWMutex
	blocks     []block.Block
	difficulty int
}

// New creates a Chain seeded with the well-known genesis block.
func New(difficulty int) *Chain {
	return &Chain{
		blocks:     []block.Block{block.Genesis()},
		difficulty: difficulty,
	}
}

// NewFromBlocks creates a Chain from an already-validated block sequence,
// typically loaded from a Store.
func NewFromBlocks(blocks []block.Block, difficulty int) *Chain {
	return &Chain{blocks: blocks, difficulty: difficulty}
}

// Tail returns the most recently appended block.
func (c *Chain) Tail() (block.Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.blocks) == 0 {
		return block.Block{}, ErrEmptyChain
	}
	return c.blocks[len(c.blocks)-1], nil
}

// Len returns the number of blocks in the chain.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

// Contains reports whether any block in the chain carries an envelope
// with the given id.
func (c *Chain) Contains(envelopeID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, b := range c.blocks {
		if b.Data.ID == envelopeID {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the full block sequence for serving read
// requests.
func (c *Chain) Snapshot() []block.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]block.Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// Append validates candidate against the current tip and, if it passes,
// appends it. Validation happens under the same lock as the append so a
// concurrent Replace cannot interleave between check and append.
func (c *Chain) Append(candidate block.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	tip := c.blocks[len(c.blocks)-1]
	if err := consensus.ValidateBlock(tip, candidate, c.difficulty); err != nil {
		return fmt.Errorf("chain: append rejected: %w", err)
	}
	c.blocks = append(c.blocks, candidate)
	return nil
}

// Replace atomically swaps the chain for candidate if candidate is
// strictly longer and passes IsChainValid. It reports whether the
// replacement happened.
func (c *Chain) Replace(candidate []block.Block) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(candidate) <= len(c.blocks) {
		return false, nil
	}
	if err := consensus.IsChainValid(candidate, c.difficulty); err != nil {
		return false, err
	}
	out := make([]block.Block, len(candidate))
	copy(out, candidate)
	c.blocks = out
	return true, nil
}

// Difficulty returns the chain's configured mining difficulty.
func (c *Chain) Difficulty() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.difficulty
}
