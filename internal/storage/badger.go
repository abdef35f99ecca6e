package storage

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// peerKeyPrefix namespaces peer endpoint records within the badger
// keyspace, in case the same data directory is ever reused for another
// cache.
const peerKeyPrefix = "peer/"

// BadgerStore implements EndpointStore on top of badger, so a restarted
// node's address book survives the restart.
type BadgerStore struct {
	db *badger.DB
}

// NewBadger opens (creating if necessary) a badger-backed EndpointStore
// at path.
func NewBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger's built-in logging.

	db, err := badger.Open(opts)
	if err != nil {
		errMsg := err.Error()
		if strings.Contains(errMsg, "Cannot acquire directory lock") ||
			strings.Contains(errMsg, "resource temporarily unavailable") {
			return nil, fmt.Errorf("peer address book at %s is locked by another process (is another ledgerd instance running?): %w", path, err)
		}
		return nil, fmt.Errorf("open peer address book at %s: %w", path, err)
	}
	return &BadgerStore{db: db}, nil
}

// Save records endpoint as known.
func (b *BadgerStore) Save(endpoint string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(peerKeyPrefix+endpoint), []byte{1})
	})
	if err != nil {
		return fmt.Errorf("badger: save endpoint: %w", err)
	}
	return nil
}

// Delete forgets endpoint.
func (b *BadgerStore) Delete(endpoint string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(peerKeyPrefix + endpoint))
	})
	if err != nil {
		return fmt.Errorf("badger: delete endpoint: %w", err)
	}
	return nil
}

// Load returns every persisted endpoint.
func (b *BadgerStore) Load() ([]string, error) {
	var out []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := []byte(peerKeyPrefix)
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			out = append(out, string(key[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger: load endpoints: %w", err)
	}
	return out, nil
}

// Close closes the underlying badger database.
func (b *BadgerStore) Close() error {
	return b.db.Close()
}
