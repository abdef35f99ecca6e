package block

import "strconv"

// Proof is the puzzle solution carried by a block. The genesis block has no
// real solution; it carries a sentinel that renders as the literal text
// "None" wherever a proof's decimal text is required (canonical_bytes and
// the proof-of-work check both use this rendering, so there is exactly one
// rule instead of two that could drift apart).
type Proof struct {
	none  bool
	value int
}

// NewProof wraps a proof-of-work solution.
func NewProof(value int) Proof {
	return Proof{value: value}
}

// NoneProof returns the genesis sentinel proof.
func NoneProof() Proof {
	return Proof{none: true}
}

// IsNone reports whether p is the genesis sentinel.
func (p Proof) IsNone() bool {
	return p.none
}

// Value returns the numeric solution. Calling it on the sentinel returns 0;
// callers must check IsNone first.
func (p Proof) Value() int {
	return p.value
}

// Text renders p as the reference implementation does: "None" for the
// genesis sentinel, decimal otherwise.
func (p Proof) Text() string {
	if p.none {
		return "None"
	}
	return strconv.Itoa(p.value)
}
