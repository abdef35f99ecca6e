package peerset

import (
	"errors"
	"sync"
)

// maxConsecutiveFailures is the number of consecutive unreachable outcomes
// a peer tolerates before it is pruned, freeing its slot for the gossip
// task to fill. The reference implementation never removes unreachable
// peers; this is a documented departure (see the peer-pruning redesign).
const maxConsecutiveFailures = 5

// ErrSelfEndpoint is returned when an insertion would add the node's own
// endpoint to its peer set.
var ErrSelfEndpoint = errors.New("peerset: refusing to add own endpoint")

// Set is a bounded collection of peer endpoints, equal-by-canonicalized-
// string, capped at maxNeighbours and never containing selfEndpoint.
type Set struct {
	mu            sync.RWMutex
	book          *AddressBook // nil disables persistence.
	selfEndpoint  string
	maxNeighbours int
	endpoints     map[string]int // endpoint -> consecutive failure count
	order         []string
}

// New creates an empty Set bounded at maxNeighbours, excluding
// selfEndpoint from every insertion. book may be nil to run without
// persistence (e.g. in tests).
func New(selfEndpoint string, maxNeighbours int, book *AddressBook) *Set {
	if maxNeighbours <= 0 {
		maxNeighbours = 3
	}
	s := &Set{
		book:          book,
		selfEndpoint:  selfEndpoint,
		maxNeighbours: maxNeighbours,
		endpoints:     make(map[string]int),
	}
	if book != nil {
		for _, endpoint := range book.Load() {
			s.addLocked(endpoint)
		}
	}
	return s
}

// Add inserts endpoint if it is not the node's own endpoint, is not
// already present, and the set is below maxNeighbours. It reports whether
// the endpoint was newly added.
func (s *Set) Add(endpoint string) (bool, error) {
	if endpoint == s.selfEndpoint {
		return false, ErrSelfEndpoint
	}
	s.mu.Lock()
	added := s.addLocked(endpoint)
	s.mu.Unlock()
	if added && s.book != nil {
		s.book.Save(endpoint)
	}
	return added, nil
}

func (s *Set) addLocked(endpoint string) bool {
	if endpoint == s.selfEndpoint {
		return false
	}
	if _, exists := s.endpoints[endpoint]; exists {
		return false
	}
	if len(s.order) >= s.maxNeighbours {
		return false
	}
	s.endpoints[endpoint] = 0
	s.order = append(s.order, endpoint)
	return true
}

// RecordFailure increments endpoint's consecutive-failure counter and
// prunes it once the counter reaches maxConsecutiveFailures, freeing its
// slot. It reports whether the peer was pruned.
func (s *Set) RecordFailure(endpoint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	count, exists := s.endpoints[endpoint]
	if !exists {
		return false
	}
	count++
	if count >= maxConsecutiveFailures {
		s.removeLocked(endpoint)
		if s.book != nil {
			s.book.Delete(endpoint)
		}
		return true
	}
	s.endpoints[endpoint] = count
	return false
}

// RecordSuccess resets endpoint's consecutive-failure counter.
func (s *Set) RecordSuccess(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.endpoints[endpoint]; exists {
		s.endpoints[endpoint] = 0
	}
}

func (s *Set) removeLocked(endpoint string) {
	if _, exists := s.endpoints[endpoint]; !exists {
		return
	}
	delete(s.endpoints, endpoint)
	for i, existing := range s.order {
		if existing == endpoint {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Len returns the current number of peers.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Full reports whether the set is at maxNeighbours.
func (s *Set) Full() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order) >= s.maxNeighbours
}

// Has reports whether endpoint is currently a peer.
func (s *Set) Has(endpoint string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.endpoints[endpoint]
	return exists
}

// Snapshot returns the current peer endpoints in insertion order.
func (s *Set) Snapshot() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
