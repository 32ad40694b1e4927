// Package pebbledb implements db.Database on top of cockroachdb/pebble.
package pebbledb

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"

	"github.com/quorumseal/quorumseal/db"
)

// PebbleDB implements db.Database.
type PebbleDB struct {
	db *pebble.DB
}

var _ db.Database = (*PebbleDB)(nil)

// New opens (or creates) a pebble database at opts.Path.
func New(opts db.Options) (*PebbleDB, error) {
	if err := os.MkdirAll(opts.Path, 0o750); err != nil {
		return nil, err
	}
	pdb, err := pebble.Open(opts.Path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("cannot open pebble db: %w", err)
	}
	return &PebbleDB{db: pdb}, nil
}

func get(reader pebble.Reader, key []byte) ([]byte, error) {
	v, closer, err := reader.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	// The returned slice is only valid until closer.Close; copy it.
	v2 := bytes.Clone(v)
	if err := closer.Close(); err != nil {
		return nil, err
	}
	return v2, nil
}

func iterate(reader pebble.Reader, prefix []byte, fn func(k, v []byte) bool) (err error) {
	iter, err := reader.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return err
	}
	defer func() {
		if errC := iter.Close(); err == nil {
			err = errC
		}
	}()
	for iter.First(); iter.Valid(); iter.Next() {
		if !fn(iter.Key()[len(prefix):], iter.Value()) {
			break
		}
	}
	return iter.Error()
}

// keyUpperBound returns the smallest key greater than every key with the
// given prefix, or nil if no such key exists.
func keyUpperBound(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

func (d *PebbleDB) Get(key []byte) ([]byte, error) {
	return get(d.db, key)
}

func (d *PebbleDB) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	return iterate(d.db, prefix, fn)
}

func (d *PebbleDB) WriteTx() db.WriteTx {
	return &writeTx{batch: d.db.NewIndexedBatch()}
}

func (d *PebbleDB) Close() error {
	return d.db.Close()
}

type writeTx struct {
	batch *pebble.Batch
}

var _ db.WriteTx = (*writeTx)(nil)

func (tx *writeTx) Get(key []byte) ([]byte, error) {
	return get(tx.batch, key)
}

func (tx *writeTx) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	return iterate(tx.batch, prefix, fn)
}

func (tx *writeTx) Set(key, value []byte) error {
	return tx.batch.Set(key, value, nil)
}

func (tx *writeTx) Delete(key []byte) error {
	return tx.batch.Delete(key, nil)
}

func (tx *writeTx) Commit() error {
	if tx.batch == nil {
		return fmt.Errorf("cannot commit pebble tx: already committed or discarded")
	}
	err := tx.batch.Commit(nil)
	tx.batch = nil
	return err
}

func (tx *writeTx) Discard() {
	if tx.batch == nil {
		// allow discarding after commit for the sake of defers
		return
	}
	_ = tx.batch.Close()
	tx.batch = nil
}
