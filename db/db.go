// Package db defines the key-value database abstraction used by the server
// storage layer, with pebble-backed and in-memory implementations.
package db

import "errors"

// ErrKeyNotFound is returned by Get when the key does not exist.
var ErrKeyNotFound = errors.New("key not found")

// ErrConflict reports a write conflict on WriteTx.Commit. Neither the pebble
// nor the in-memory backend detects conflicts, so neither returns it.
var ErrConflict = errors.New("conflict")

// Available database backends.
const (
	TypePebble = "pebble"
	TypeMemory = "memory"
)

// Options configures a database backend.
type Options struct {
	Path string
}

// Database is a persistent key-value store with prefix iteration and
// write-batch transactions. Implementations must be safe for concurrent use.
type Database interface {
	Reader

	// WriteTx starts a new write transaction.
	WriteTx() WriteTx

	// Close releases the resources held by the database.
	Close() error
}

// Reader supports read operations over the store.
type Reader interface {
	// Get returns the value for the given key, or ErrKeyNotFound.
	Get(key []byte) ([]byte, error)

	// Iterate walks all keys with the given prefix, in ascending key order,
	// calling fn with the key stripped of the prefix. Iteration stops when fn
	// returns false.
	Iterate(prefix []byte, fn func(key, value []byte) bool) error
}

// WriteTx is a batch of writes applied atomically on Commit. A transaction
// must end with exactly one Commit or Discard; Discard after Commit is a
// no-op so it can be deferred.
type WriteTx interface {
	Reader

	// Set stores the value under the key.
	Set(key, value []byte) error

	// Delete removes the key.
	Delete(key []byte) error

	// Commit atomically applies the batch.
	Commit() error

	// Discard drops the batch.
	Discard()
}
