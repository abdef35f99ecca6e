package block

import (
	"strings"
	"time"

	"github.com/Klingon-tech/klingnet-ledger/pkg/envelope"
)

// GenesisText is the well-known workload of the genesis block.
const GenesisText = "This is the workload of the very first Block in this chain!"

// genesisID is a frozen, non-random sentinel so that every honest node
// constructs a bit-identical genesis block. The reference implementation
// generates this id with uuid4() at process start, which can never agree
// between independently-started nodes — a latent defect this
// implementation does not reproduce.
var genesisID = strings.Repeat("0", 32)

// genesisTimestamp is likewise frozen rather than captured at construction,
// for the same reason.
var genesisTimestamp = time.Unix(0, 0).UTC()

// Genesis returns the well-known first block of every chain.
func Genesis() Block {
	return Block{
		Index:        0,
		Timestamp:    genesisTimestamp,
		Data:         envelope.Envelope{ID: genesisID, Text: GenesisText},
		Proof:        NoneProof(),
		PreviousHash: NonePreviousHash,
	}
}

// IsGenesis reports whether b matches the well-known genesis block exactly.
func IsGenesis(b Block) bool {
	return b.Equal(Genesis())
}
