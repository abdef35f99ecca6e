// Package storage persists the peer address book — the set of known
// peer endpoints — across node restarts.
package storage

// EndpointStore persists peer endpoints by their canonicalized
// host:port string. It is intentionally narrower than a general
// key-value interface: the address book never looks an endpoint up by
// key, never stores anything but a presence marker, and never needs
// arbitrary byte payloads, so this interface names only the three
// operations the address book actually performs, plus Close.
type EndpointStore interface {
	// Save records endpoint as known.
	Save(endpoint string) error
	// Delete forgets endpoint.
	Delete(endpoint string) error
	// Load returns every persisted endpoint, in no particular order.
	Load() ([]string, error)
	Close() error
}
