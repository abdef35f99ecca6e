package chain

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Klingon-tech/klingnet-ledger/pkg/block"
	"github.com/Klingon-tech/klingnet-ledger/pkg/envelope"
)

// Format selects the on-disk serialization used by a Store.
type Format int

const (
	// FormatJSON serializes the chain as human-readable JSON (default).
	FormatJSON Format = iota
	// FormatBinary serializes the chain with encoding/gob.
	FormatBinary
)

// ErrChainNotFound is returned by Load when no chain file exists at path.
var ErrChainNotFound = errors.New("chain: no chain file found")

// ErrChainCorrupt is returned by Load when the chain file's contents do
// not match its companion hash file, or cannot be decoded.
var ErrChainCorrupt = errors.New("chain: chain file is corrupt")

// Store persists a chain's blocks to a file, with a companion ".hash"
// file used to detect corruption on the next Load.
type Store struct {
	path   string
	format Format
}

// NewStore creates a Store that reads and writes path using format.
func NewStore(path string, format Format) *Store {
	return &Store{path: path, format: format}
}

// hashPath returns the companion hash file's path: path with its
// extension replaced by ".hash".
func (s *Store) hashPath() string {
	ext := filepath.Ext(s.path)
	return strings.TrimSuffix(s.path, ext) + ".hash"
}

// encode serializes blocks per s.format.
func (s *Store) encode(blocks []block.Block) ([]byte, error) {
	switch s.format {
	case FormatBinary:
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(toWire(blocks)); err != nil {
			return nil, fmt.Errorf("chain: gob encode: %w", err)
		}
		return buf.Bytes(), nil
	default:
		data, err := json.Marshal(toWire(blocks))
		if err != nil {
			return nil, fmt.Errorf("chain: json encode: %w", err)
		}
		return data, nil
	}
}

// decode deserializes blocks per s.format.
func (s *Store) decode(data []byte) ([]block.Block, error) {
	var wire []wireBlock
	switch s.format {
	case FormatBinary:
		if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wire); err != nil {
			return nil, fmt.Errorf("%w: gob decode: %v", ErrChainCorrupt, err)
		}
	default:
		if err := json.Unmarshal(data, &wire); err != nil {
			return nil, fmt.Errorf("%w: json decode: %v", ErrChainCorrupt, err)
		}
	}
	return fromWire(wire), nil
}

// Save writes blocks to disk along with a companion hash file. If a chain
// file already exists at path, it is renamed with a
// "dd-mm-yyyy_HH:MM:SS" local-time suffix before the new file is written,
// so a Save can never be interrupted mid-write and lose the previous
// state.
func (s *Store) Save(blocks []block.Block) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("chain: create data directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		ext := filepath.Ext(s.path)
		rotated := strings.TrimSuffix(s.path, ext) + "_" + time.Now().Local().Format("02-01-2006_15:04:05") + ext
		if err := os.Rename(s.path, rotated); err != nil {
			return fmt.Errorf("chain: rotate existing chain file: %w", err)
		}
	}

	encoded, err := s.encode(blocks)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, encoded, 0o644); err != nil {
		return fmt.Errorf("chain: write chain file: %w", err)
	}

	sum := sha256.Sum256(encoded)
	if err := os.WriteFile(s.hashPath(), []byte(hex.EncodeToString(sum[:])), 0o644); err != nil {
		return fmt.Errorf("chain: write hash file: %w", err)
	}
	return nil
}

// HashExists reports whether the companion hash file is already present,
// used by the backup task to distinguish a first-ever backup from a
// routine one.
func (s *Store) HashExists() bool {
	_, err := os.Stat(s.hashPath())
	return err == nil
}

// CurrentHash returns the hex SHA-256 recorded in the companion hash
// file on disk, without touching the chain file itself.
func (s *Store) CurrentHash() (string, error) {
	data, err := os.ReadFile(s.hashPath())
	if err != nil {
		return "", fmt.Errorf("chain: read hash file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ComputeHash returns the hex SHA-256 that Save would write for blocks,
// without writing anything to disk.
func (s *Store) ComputeHash(blocks []block.Block) (string, error) {
	encoded, err := s.encode(blocks)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// Load reads the chain file at path, verifying it against its companion
// hash file before decoding.
func (s *Store) Load() ([]block.Block, error) {
	encoded, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrChainNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("chain: read chain file: %w", err)
	}

	wantHash, err := os.ReadFile(s.hashPath())
	if err != nil {
		return nil, fmt.Errorf("%w: missing hash file: %v", ErrChainCorrupt, err)
	}
	gotHash := sha256.Sum256(encoded)
	if hex.EncodeToString(gotHash[:]) != strings.TrimSpace(string(wantHash)) {
		return nil, fmt.Errorf("%w: chain file does not match its hash file", ErrChainCorrupt)
	}

	return s.decode(encoded)
}

// wireBlock is the on-disk representation of a block.Block — plain,
// JSON/gob-friendly fields rather than the value types block.Block uses
// internally.
type wireBlock struct {
	Index        int       `json:"index"`
	Timestamp    time.Time `json:"timestamp"`
	DataID       string    `json:"data_id"`
	DataText     string    `json:"data_text"`
	ProofNone    bool      `json:"proof_none"`
	ProofValue   int       `json:"proof_value"`
	PreviousHash string    `json:"previous_hash"`
}

func toWire(blocks []block.Block) []wireBlock {
	out := make([]wireBlock, len(blocks))
	for i, b := range blocks {
		out[i] = wireBlock{
			Index:        b.Index,
			Timestamp:    b.Timestamp,
			DataID:       b.Data.ID,
			DataText:     b.Data.Text,
			ProofNone:    b.Proof.IsNone(),
			ProofValue:   b.Proof.Value(),
			PreviousHash: b.PreviousHash,
		}
	}
	return out
}

func fromWire(wire []wireBlock) []block.Block {
	out := make([]block.Block, len(wire))
	for i, w := range wire {
		proof := block.NoneProof()
		if !w.ProofNone {
			proof = block.NewProof(w.ProofValue)
		}
		out[i] = block.Block{
			Index:        w.Index,
			Timestamp:    w.Timestamp,
			Data:         envelope.Envelope{ID: w.DataID, Text: w.DataText},
			Proof:        proof,
			PreviousHash: w.PreviousHash,
		}
	}
	return out
}
