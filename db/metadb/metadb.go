// Package metadb constructs a db.Database from a backend type name.
package metadb

import (
	"fmt"
	"testing"

	"github.com/quorumseal/quorumseal/db"
	"github.com/quorumseal/quorumseal/db/memorydb"
	"github.com/quorumseal/quorumseal/db/pebbledb"
)

// New opens a database of the given type at dir.
func New(typ, dir string) (db.Database, error) {
	opts := db.Options{Path: dir}
	switch typ {
	case db.TypePebble:
		return pebbledb.New(opts)
	case db.TypeMemory:
		return memorydb.New(opts)
	default:
		return nil, fmt.Errorf("invalid db type %q, available types: %q %q",
			typ, db.TypePebble, db.TypeMemory)
	}
}

// NewTest returns a database backed by a test temporary directory, closed on
// test cleanup.
func NewTest(tb testing.TB) db.Database {
	database, err := New(db.TypePebble, tb.TempDir())
	if err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(func() {
		if err := database.Close(); err != nil {
			tb.Error(err)
		}
	})
	return database
}
