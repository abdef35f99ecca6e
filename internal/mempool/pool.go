// Package mempool holds message envelopes that have not yet been mined
// into a block.
package mempool

import (
	"sync"

	"github.com/Klingon-tech/klingnet-ledger/pkg/envelope"
)

// Pool is a dedup-by-id set of pending envelopes. It is safe for
// concurrent use.
type Pool struct {
	mu      sync.RWMutex
	entries map[string]envelope.Envelope
	order   []string
}

// New creates an empty pool.
func New() *Pool {
	return &Pool{entries: make(map[string]envelope.Envelope)}
}

// Add inserts e if its id is not already present. It reports whether the
// envelope was newly added.
func (p *Pool) Add(e envelope.Envelope) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.entries[e.ID]; exists {
		return false
	}
	p.entries[e.ID] = e
	p.order = append(p.order, e.ID)
	return true
}

// Remove deletes the envelope with the given id, if present.
func (p *Pool) Remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(id)
}

func (p *Pool) removeLocked(id string) {
	if _, exists := p.entries[id]; !exists {
		return
	}
	delete(p.entries, id)
	for i, existing := range p.order {
		if existing == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// Has reports whether id is currently pending.
func (p *Pool) Has(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, exists := p.entries[id]
	return exists
}

// Len returns the number of pending envelopes.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// Pop removes and returns the oldest pending envelope in insertion order.
// The second return value is false if the pool is empty.
func (p *Pool) Pop() (envelope.Envelope, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.order) == 0 {
		return envelope.Envelope{}, false
	}
	id := p.order[0]
	e := p.entries[id]
	p.removeLocked(id)
	return e, true
}

// Snapshot returns a copy of every pending envelope in insertion order.
func (p *Pool) Snapshot() []envelope.Envelope {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]envelope.Envelope, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.entries[id])
	}
	return out
}

// Merge adds every envelope in others not already present, returning the
// count of envelopes newly added. Used by mempool diffusion to absorb a
// peer's unprocessed set.
func (p *Pool) Merge(others []envelope.Envelope) int {
	added := 0
	for _, e := range others {
		if p.Add(e) {
			added++
		}
	}
	return added
}
