// Package wire defines the JSON shapes exchanged over the ingress
// server's HTTP surface, shared by the server itself and the gossip
// client that polls peers through it.
package wire

import (
	"time"

	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
	"github.com/Klingon-tech/klingnet-ledger/pkg/envelope"
)

// Envelope is the JSON representation of an envelope.Envelope.
type Envelope struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Block is the JSON representation of a block.Block. Proof is rendered as
// text ("None" for the genesis sentinel, decimal otherwise) so that the
// wire format matches canonical_bytes' own rendering rule exactly.
type Block struct {
	Index        int       `json:"index"`
	Timestamp    time.Time `json:"timestamp"`
	Data         Envelope  `json:"data"`
	Proof        string    `json:"proof"`
	PreviousHash string    `json:"previous_hash"`
}

// ChainResponse is the body of GET /chain.
type ChainResponse struct {
	Chain  []Block `json:"chain"`
	Length int     `json:"length"`
}

// NeighboursResponse is the body of GET /neighbours.
type NeighboursResponse struct {
	Neighbours []string `json:"neighbours"`
	Length     int      `json:"length"`
}

// AddResponse is the body of a successful PUT /add.
type AddResponse struct {
	Message         string `json:"message"`
	MoreInformation string `json:"more_information"`
}

// ErrorResponse is the body of a 4xx response.
type ErrorResponse struct {
	Message string `json:"message"`
}

// EncodeEnvelope converts an envelope.Envelope to its wire form.
func EncodeEnvelope(e envelope.Envelope) Envelope {
	return Envelope{ID: e.ID, Text: e.Text}
}

// DecodeEnvelope converts a wire Envelope back to an envelope.Envelope.
func DecodeEnvelope(e Envelope) envelope.Envelope {
	return envelope.Envelope{ID: e.ID, Text: e.Text}
}

// EncodeEnvelopes converts a slice of envelopes to their wire form.
func EncodeEnvelopes(envelopes []envelope.Envelope) []Envelope {
	out := make([]Envelope, len(envelopes))
	for i, e := range envelopes {
		out[i] = EncodeEnvelope(e)
	}
	return out
}

// DecodeEnvelopes converts a slice of wire envelopes back to domain
// envelopes.
func DecodeEnvelopes(wire []Envelope) []envelope.Envelope {
	out := make([]envelope.Envelope, len(wire))
	for i, e := range wire {
		out[i] = DecodeEnvelope(e)
	}
	return out
}

// EncodeBlock converts a block.Block to its wire form.
func EncodeBlock(b block.Block) Block {
	return Block{
		Index:        b.Index,
		Timestamp:    b.Timestamp,
		Data:         EncodeEnvelope(b.Data),
		Proof:        b.Proof.Text(),
		PreviousHash: b.PreviousHash,
	}
}

// DecodeBlock converts a wire Block back to a block.Block.
func DecodeBlock(b Block) block.Block {
	proof := block.NoneProof()
	if b.Proof != "None" {
		if n, ok := parseDecimal(b.Proof); ok {
			proof = block.NewProof(n)
		}
	}
	return block.Block{
		Index:        b.Index,
		Timestamp:    b.Timestamp,
		Data:         DecodeEnvelope(b.Data),
		Proof:        proof,
		PreviousHash: b.PreviousHash,
	}
}

// EncodeBlocks converts a slice of blocks to their wire form.
func EncodeBlocks(blocks []block.Block) []Block {
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = EncodeBlock(b)
	}
	return out
}

// DecodeBlocks converts a slice of wire blocks back to domain blocks.
func DecodeBlocks(wire []Block) []block.Block {
	out := make([]block.Block, len(wire))
	for i, b := range wire {
		out[i] = DecodeBlock(b)
	}
	return out
}

func parseDecimal(text string) (int, bool) {
	if text == "" {
		return 0, false
	}
	n := 0
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
