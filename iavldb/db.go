// Package iavldb is the persisted façade over an iavl.IAVLTree: every
// committed version is additionally appended to a write-ahead log, which
// is replayed in full when the database is reopened.
package iavldb

import (
	"encoding/hex"
	"time"

	dbm "github.com/cosmos/cosmos-db"

	"cosmossdk.io/errors"
	"cosmossdk.io/log"

	"cosmossdk.io/iavl2/iavl"
	"cosmossdk.io/iavl2/iavldb/wal"
	"cosmossdk.io/iavl2/iavlmetrics"
	"cosmossdk.io/iavl2/kvstore"
)

// Codespace registers this package's errors with cosmossdk.io/errors.
const Codespace = "iavldb"

// ErrOutOfOrder is returned by Open when the log's versions are not
// contiguous and ascending.
var ErrOutOfOrder = errors.Register(Codespace, 1, "write-ahead log entry out of order")

// IAVLDB is the persisted KVStore façade. Direct Set and Remove are
// programming errors, not runtime conditions, so it panics rather than
// returning an error: only WriteBatch followed by SaveVersion can produce
// a logged, replayable mutation.
type IAVLDB struct {
	tree    *iavl.IAVLTree
	log     *wal.Log
	logger  log.Logger
	pending []kvstore.Entry
}

var _ kvstore.KVStore = (*IAVLDB)(nil)

// Open wraps db as a write-ahead log, builds a fresh IAVLTree, and
// replays every logged entry into it in ascending version order.
func Open(db dbm.DB, logger log.Logger) (*IAVLDB, error) {
	defer iavlmetrics.MeasureSince(time.Now(), "iavldb", "open")

	logger.Info("opening iavl database")
	l := wal.Open(db)
	tree := iavl.New()

	replayed := 0
	err := l.Replay(func(entry wal.Entry) error {
		if entry.Version != tree.Version()+1 {
			return errors.Wrapf(ErrOutOfOrder, "expected version %d, got %d", tree.Version()+1, entry.Version)
		}
		if err := tree.WriteBatch(entry.Changes); err != nil {
			return err
		}
		tree.SaveVersion()
		replayed++
		return nil
	})
	if err != nil {
		l.Close()
		return nil, errors.Wrap(err, "replaying write-ahead log")
	}

	logger.Info("replayed write-ahead log", "entries", replayed, "version", tree.Version())
	return &IAVLDB{tree: tree, log: l, logger: logger}, nil
}

// Close releases the underlying log handle.
func (d *IAVLDB) Close() error { return d.log.Close() }

// Version reports the last version committed by SaveVersion.
func (d *IAVLDB) Version() uint64 { return d.tree.Version() }

// RootHash returns the tree's current root hash.
func (d *IAVLDB) RootHash() []byte { return d.tree.RootHash() }

func (d *IAVLDB) Get(key []byte) ([]byte, bool) {
	defer iavlmetrics.MeasureSince(time.Now(), "iavldb", "get")
	return d.tree.Get(key)
}

// Set always panics: IAVLDB only accepts mutations through WriteBatch, so
// that every mutation is captured for the write-ahead log.
func (d *IAVLDB) Set([]byte, []byte) {
	panic("iavldb: direct Set is not supported, use WriteBatch")
}

// Remove always panics for the same reason as Set.
func (d *IAVLDB) Remove([]byte) {
	panic("iavldb: direct Remove is not supported, use WriteBatch")
}

// WriteBatch stages entries against the tree and records them as the
// pending changes for the next SaveVersion's log entry, replacing
// whatever batch was pending before: WriteBatch is not cumulative across
// calls, only across a WriteBatch/SaveVersion pair. It does not itself
// touch the log.
func (d *IAVLDB) WriteBatch(entries []kvstore.Entry) error {
	defer iavlmetrics.MeasureSince(time.Now(), "iavldb", "write_batch")
	if err := d.tree.WriteBatch(entries); err != nil {
		return err
	}
	d.pending = entries
	return nil
}

// SaveVersion commits the tree's pending writes, appends one log entry
// recording them, and returns the new root hash. The log write is
// durable (WriteSync) before SaveVersion returns.
func (d *IAVLDB) SaveVersion() ([]byte, error) {
	defer iavlmetrics.MeasureSince(time.Now(), "iavldb", "save_version")

	hash := d.tree.SaveVersion()
	entry := wal.Entry{Version: d.tree.Version(), Changes: d.pending}
	if err := d.log.Append(entry); err != nil {
		return nil, errors.Wrap(err, "appending write-ahead log entry")
	}
	d.pending = nil

	d.logger.Info("committed version", "version", d.tree.Version(), "root_hash", hex.EncodeToString(hash))
	return hash, nil
}

func (d *IAVLDB) Iterator(lo, hi kvstore.Bound) kvstore.Iterator {
	return d.tree.Iterator(lo, hi)
}

func (d *IAVLDB) ReverseIterator(lo, hi kvstore.Bound) kvstore.Iterator {
	return d.tree.ReverseIterator(lo, hi)
}

// GetByIndex and GetWithIndex forward to the underlying tree.
func (d *IAVLDB) GetByIndex(idx uint64) (key, value []byte, ok bool) {
	return d.tree.GetByIndex(idx)
}

func (d *IAVLDB) GetWithIndex(key []byte) (idx uint64, value []byte, ok bool) {
	return d.tree.GetWithIndex(key)
}
