// Package envelope defines the message envelope carried by blocks and the
// mempool.
package envelope

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrEmptyText is returned by New when text is empty.
var ErrEmptyText = errors.New("envelope: text must not be empty")

// Envelope pairs an opaque, randomly generated id with user-supplied text.
//
// Equality and hashing are defined on id alone (see Equal). This means two
// envelopes with the same id but different text are indistinguishable to
// every component downstream of construction — the spec surfaces this as a
// deliberate ambiguity rather than a defect, and this package follows the
// id-only rule literally.
type Envelope struct {
	ID   string
	Text string
}

// New generates a fresh envelope wrapping text. The id is a 128-bit random
// value rendered as 32 lowercase hex characters (no dashes), matching the
// reference implementation's uuid4().hex convention.
func New(text string) (Envelope, error) {
	if text == "" {
		return Envelope{}, ErrEmptyText
	}
	return Envelope{
		ID:   strings.ReplaceAll(uuid.New().String(), "-", ""),
		Text: text,
	}, nil
}

// Equal reports whether two envelopes share the same id.
func (e Envelope) Equal(other Envelope) bool {
	return e.ID == other.ID
}
