package consensus

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
)

// ErrChainInvariantViolation signals that a chain fails one of the
// append-only invariants checked by IsChainValid.
var ErrChainInvariantViolation = errors.New("consensus: chain invariant violation")

// IsChainValid walks chain from the genesis block forward, short-circuiting
// on the first violation of any of the per-block invariants: index must
// increase by exactly one, previous_hash must match the hash of the prior
// block, the proof must satisfy IsProofOfWorkValid against the prior
// block's proof at difficulty, and timestamps must strictly increase.
//
// An empty chain, or one whose first block is not the well-known genesis
// block, is invalid.
func IsChainValid(chain []block.Block, difficulty int) error {
	if len(chain) == 0 {
		return fmt.Errorf("%w: chain is empty", ErrChainInvariantViolation)
	}
	if !block.IsGenesis(chain[0]) {
		return fmt.Errorf("%w: first block is not genesis", ErrChainInvariantViolation)
	}

	for i := 1; i < len(chain); i++ {
		prev, cur := chain[i-1], chain[i]

		if cur.Index != prev.Index+1 {
			return fmt.Errorf("%w: block %d has index %d, want %d",
				ErrChainInvariantViolation, i, cur.Index, prev.Index+1)
		}
		if cur.PreviousHash != block.Hash(prev) {
			return fmt.Errorf("%w: block %d previous_hash does not match hash of block %d",
				ErrChainInvariantViolation, i, i-1)
		}
		ok, err := IsProofOfWorkValid(prev.Proof, cur.Proof.Value(), difficulty)
		if err != nil {
			return fmt.Errorf("%w: block %d: %w", ErrChainInvariantViolation, i, err)
		}
		if !ok {
			return fmt.Errorf("%w: block %d proof does not satisfy difficulty %d",
				ErrChainInvariantViolation, i, difficulty)
		}
		if !cur.Timestamp.After(prev.Timestamp) {
			return fmt.Errorf("%w: block %d timestamp does not strictly increase",
				ErrChainInvariantViolation, i)
		}
	}
	return nil
}

// ValidateBlock checks a single candidate block for append to tip: it must
// pass structural validation, its index and previous_hash must follow tip,
// and its proof must satisfy IsProofOfWorkValid against tip's proof.
func ValidateBlock(tip, candidate block.Block, difficulty int) error {
	if err := block.Validate(candidate); err != nil {
		return err
	}
	if candidate.Index != tip.Index+1 {
		return fmt.Errorf("%w: candidate has index %d, want %d",
			ErrChainInvariantViolation, candidate.Index, tip.Index+1)
	}
	if candidate.PreviousHash != block.Hash(tip) {
		return fmt.Errorf("%w: candidate previous_hash does not match tip hash",
			ErrChainInvariantViolation)
	}
	ok, err := IsProofOfWorkValid(tip.Proof, candidate.Proof.Value(), difficulty)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: candidate proof does not satisfy difficulty %d",
			ErrChainInvariantViolation, difficulty)
	}
	if !candidate.Timestamp.After(tip.Timestamp) {
		return fmt.Errorf("%w: candidate timestamp does not strictly increase", ErrChainInvariantViolation)
	}
	return nil
}
