package consensus

import (
	"context"
	"testing"

	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
)

func TestSearchFixtures(t *testing.T) {
	// For the fixed last_proof "None", proof_of_work at difficulties 1..5
	// must produce exactly these values bit-for-bit.
	cases := []struct {
		difficulty int
		want       int
	}{
		{1, 1},
		{2, 350},
		{3, 3969},
		{4, 15558},
		{5, 1406000},
	}

	for _, tt := range cases {
		got, err := Search(context.Background(), block.NoneProof(), tt.difficulty)
		if err != nil {
			t.Fatalf("Search(difficulty=%d): %v", tt.difficulty, err)
		}
		if got.Value() != tt.want {
			t.Fatalf("Search(difficulty=%d) = %d, want %d", tt.difficulty, got.Value(), tt.want)
		}
	}
}

func TestIsProofOfWorkValidRejectsZeroDifficulty(t *testing.T) {
	if _, err := IsProofOfWorkValid(block.NoneProof(), 0, 0); err != ErrZeroDifficulty {
		t.Fatalf("IsProofOfWorkValid(difficulty=0) err = %v, want ErrZeroDifficulty", err)
	}
}

func TestSearchRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Search(ctx, block.NoneProof(), 8); err == nil {
		t.Fatalf("Search with cancelled context returned nil error")
	}
}
