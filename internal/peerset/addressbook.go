package peerset

import (
	"github.com/Klingon-tech/klingnet-ledger/internal/storage"
)

// AddressBook persists known peer endpoints in a storage.EndpointStore
// so that a restarted node can seed its Set without waiting for gossip
// to rediscover the network from scratch.
type AddressBook struct {
	store storage.EndpointStore
}

// NewAddressBook wraps store as an AddressBook.
func NewAddressBook(store storage.EndpointStore) *AddressBook {
	return &AddressBook{store: store}
}

// Save records endpoint as known. A write failure is not surfaced to
// callers — the address book is a best-effort cache, not the source of
// truth for the live peer set.
func (b *AddressBook) Save(endpoint string) {
	_ = b.store.Save(endpoint)
}

// Delete forgets endpoint.
func (b *AddressBook) Delete(endpoint string) {
	_ = b.store.Delete(endpoint)
}

// Load returns every persisted endpoint. A read failure is treated as
// an empty result: a corrupt address book cache must never prevent a
// node from starting.
func (b *AddressBook) Load() []string {
	endpoints, err := b.store.Load()
	if err != nil {
		return nil
	}
	return endpoints
}
