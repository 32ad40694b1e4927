// Package memorydb implements an ephemeral in-memory db.Database; contents
// are lost when the process exits.
package memorydb

import (
	"bytes"
	"sort"
	"sync"

	"github.com/quorumseal/quorumseal/db"
)

// MemoryDB is a map-backed db.Database.
type MemoryDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ db.Database = (*MemoryDB)(nil)

// New returns an empty in-memory database. Options are ignored.
func New(_ db.Options) (*MemoryDB, error) {
	return &MemoryDB{data: make(map[string][]byte)}, nil
}

func (d *MemoryDB) Get(key []byte) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.data[string(key)]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return bytes.Clone(v), nil
}

func (d *MemoryDB) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	d.mu.RLock()
	keys := make([]string, 0, len(d.data))
	for k := range d.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	d.mu.RUnlock()
	sort.Strings(keys)

	for _, k := range keys {
		d.mu.RLock()
		v, ok := d.data[k]
		d.mu.RUnlock()
		if !ok {
			continue // deleted while iterating
		}
		if !fn([]byte(k)[len(prefix):], v) {
			break
		}
	}
	return nil
}

func (d *MemoryDB) WriteTx() db.WriteTx {
	return &writeTx{db: d, writes: make(map[string]*[]byte)}
}

func (d *MemoryDB) Close() error {
	return nil
}

// writeTx buffers writes until Commit. A nil value pointer marks a deletion.
type writeTx struct {
	db     *MemoryDB
	writes map[string]*[]byte
	done   bool
}

func (tx *writeTx) Get(key []byte) ([]byte, error) {
	if v, ok := tx.writes[string(key)]; ok {
		if v == nil {
			return nil, db.ErrKeyNotFound
		}
		return bytes.Clone(*v), nil
	}
	return tx.db.Get(key)
}

func (tx *writeTx) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	merged := make(map[string][]byte)
	err := tx.db.Iterate(prefix, func(k, v []byte) bool {
		merged[string(k)] = bytes.Clone(v)
		return true
	})
	if err != nil {
		return err
	}
	for k, v := range tx.writes {
		if !bytes.HasPrefix([]byte(k), prefix) {
			continue
		}
		local := k[len(prefix):]
		if v == nil {
			delete(merged, local)
		} else {
			merged[local] = bytes.Clone(*v)
		}
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !fn([]byte(k), merged[k]) {
			break
		}
	}
	return nil
}

func (tx *writeTx) Set(key, value []byte) error {
	v := bytes.Clone(value)
	tx.writes[string(key)] = &v
	return nil
}

func (tx *writeTx) Delete(key []byte) error {
	tx.writes[string(key)] = nil
	return nil
}

func (tx *writeTx) Commit() error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	for k, v := range tx.writes {
		if v == nil {
			delete(tx.db.data, k)
		} else {
			tx.db.data[k] = *v
		}
	}
	return nil
}

func (tx *writeTx) Discard() {
	tx.done = true
	tx.writes = nil
}
