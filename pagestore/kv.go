// Package pagestore keeps the pages and descriptors of list files in a key value store.
package pagestore

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Iterator returns the items of a range of keys in order; Item returns io.EOF after the
// last item.
type Iterator interface {
	Item(fn func(key, val []byte) error) error
	Close()
}

// Updater is a write transaction; only one updater at a time is active for a KV.
type Updater interface {
	Get(key []byte, fn func(val []byte) error) error
	Set(key, val []byte) error
	Delete(key []byte) error
	Commit(sync bool) error
	Rollback()
}

// KV is an ordered key value store. Get returns io.EOF if the key is not found. Iterate
// returns the keys from minKey to maxKey inclusive.
type KV interface {
	Iterate(minKey, maxKey []byte) (Iterator, error)
	Get(key []byte, fn func(val []byte) error) error
	Update() (Updater, error)
	Close() error
}

// MakeKV makes a KV of the named kind; dataDir is ignored for btree.
func MakeKV(kind, dataDir string, logger *log.Logger) (KV, error) {
	switch kind {
	case "btree":
		return MakeBTreeKV()
	case "badger":
		return MakeBadgerKV(dataDir, logger)
	case "bbolt":
		return MakeBBoltKV(dataDir)
	case "pebble":
		return MakePebbleKV(dataDir, logger)
	}
	return nil, fmt.Errorf("pagestore: got %s for store; want btree, badger, bbolt, or pebble",
		kind)
}
