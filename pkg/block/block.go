// Package block defines the ledger's Block type and its canonical byte
// encoding.
package block

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/Klingon-tech/klingnet-ledger/pkg/envelope"
)

// NonePreviousHash is the sentinel previous_hash carried by the genesis
// block, distinct from any real 64-character hex hash.
const NonePreviousHash = "none"

// Block is an immutable record in the chain.
type Block struct {
	Index        int
	Timestamp    time.Time
	Data         envelope.Envelope
	Proof        Proof
	PreviousHash string
}

// New constructs a non-genesis block. Timestamp is captured at call time.
func New(index int, data envelope.Envelope, proof Proof, previousHash string) Block {
	return Block{
		Index:        index,
		Timestamp:    time.Now().UTC(),
		Data:         data,
		Proof:        proof,
		PreviousHash: previousHash,
	}
}

// Equal reports component-wise equality over all fields, using each field's
// own equality rule (Data uses envelope.Equal, i.e. id-only).
func (b Block) Equal(other Block) bool {
	return b.Index == other.Index &&
		b.Timestamp.Equal(other.Timestamp) &&
		b.Data.Equal(other.Data) &&
		b.Proof == other.Proof &&
		b.PreviousHash == other.PreviousHash
}

// CanonicalBytes is a deterministic byte encoding used for hashing. It is a
// length-prefixed concatenation of the textual forms of index, data.id,
// data.text, timestamp, proof, and previous_hash, in that fixed order —
// independent of any display/repr code, so it cannot drift when logging or
// formatting changes. Every node must use this exact encoding to agree on
// hashes.
func (b Block) CanonicalBytes() []byte {
	var buf bytes.Buffer
	writeField(&buf, strconv.Itoa(b.Index))
	writeField(&buf, b.Data.ID)
	writeField(&buf, b.Data.Text)
	writeField(&buf, strconv.FormatInt(b.Timestamp.UnixNano(), 10))
	writeField(&buf, b.Proof.Text())
	writeField(&buf, b.PreviousHash)
	return buf.Bytes()
}

// writeField appends an 8-byte big-endian length prefix followed by s, so
// that no choice of delimiter character can ever cause two distinct field
// sequences to collide.
func writeField(buf *bytes.Buffer, s string) {
	var length [8]byte
	binary.BigEndian.PutUint64(length[:], uint64(len(s)))
	buf.Write(length[:])
	buf.WriteString(s)
}

// Hash returns the lowercase hex SHA-256 of b's canonical bytes.
func Hash(b Block) string {
	sum := sha256.Sum256(b.CanonicalBytes())
	return hex.EncodeToString(sum[:])
}
