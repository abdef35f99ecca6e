// Package consensus implements proof-of-work search and chain validation.
package consensus

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"

	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
)

// ErrZeroDifficulty is returned when difficulty is not a positive integer.
var ErrZeroDifficulty = errors.New("consensus: difficulty must be >= 1")

// yieldEvery bounds how many guesses the search loop makes between
// cancellation checks, so a long-running search still responds promptly to
// ctx.Done() without paying a channel-select cost on every guess.
const yieldEvery = 1 << 14

// IsProofOfWorkValid reports whether proof solves the puzzle posed by
// lastProof at the given difficulty: the SHA-256 hex digest of
// lastProof's text immediately followed by proof's decimal text must end
// in exactly difficulty trailing '0' characters.
func IsProofOfWorkValid(lastProof block.Proof, proof int, difficulty int) (bool, error) {
	if difficulty < 1 {
		return false, ErrZeroDifficulty
	}
	digest := guessHash(lastProof.Text(), proof)
	return digest[len(digest)-difficulty:] == zeros(difficulty), nil
}

func guessHash(lastProofText string, proof int) string {
	guess := lastProofText + strconv.Itoa(proof)
	sum := sha256.Sum256([]byte(guess))
	return hex.EncodeToString(sum[:])
}

func zeros(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}

// Search performs a sequential proof-of-work search starting from 0,
// returning the first proof that satisfies IsProofOfWorkValid for
// lastProof and difficulty. It checks ctx for cancellation periodically so
// a long search can be abandoned when a longer chain arrives from a peer.
func Search(ctx context.Context, lastProof block.Proof, difficulty int) (block.Proof, error) {
	if difficulty < 1 {
		return block.Proof{}, ErrZeroDifficulty
	}
	lastProofText := lastProof.Text()
	for guess := 0; ; guess++ {
		if guess%yieldEvery == 0 {
			select {
			case <-ctx.Done():
				return block.Proof{}, ctx.Err()
			default:
			}
		}
		digest := guessHash(lastProofText, guess)
		if digest[len(digest)-difficulty:] == zeros(difficulty) {
			return block.NewProof(guess), nil
		}
	}
}
