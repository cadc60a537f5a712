// Package wal is the append-only, version-keyed log IAVLDB replays on
// open. It is a thin layer over a github.com/cosmos/cosmos-db handle
// (the same database abstraction cosmos-sdk's store package builds its
// IAVL store on): one key per committed version, written and flushed as
// a single synchronous batch.
package wal

import (
	"encoding/binary"

	dbm "github.com/cosmos/cosmos-db"

	"cosmossdk.io/errors"
	"cosmossdk.io/iavl2/iavlmetrics"
	"cosmossdk.io/iavl2/kvstore"
)

// Codespace registers this package's error space with cosmossdk.io/errors,
// the same wrapping library cosmos-sdk's errors module provides.
const Codespace = "iavl2wal"

var (
	// ErrCorruptEntry is returned when a logged entry has bytes left over
	// after its last change.
	ErrCorruptEntry = errors.Register(Codespace, 1, "corrupt write-ahead log entry")
	// ErrShortRead is returned when a logged entry is truncated.
	ErrShortRead = errors.Register(Codespace, 2, "truncated write-ahead log entry")
)

// Entry is one committed version's worth of changes: the version it
// produced, and the batch of writes/tombstones that moved the tree there.
type Entry struct {
	Version uint64
	Changes []kvstore.Entry
}

// Log wraps a dbm.DB as an append-only, version-ordered record of
// committed batches.
type Log struct {
	db dbm.DB
}

// Open wraps db as a Log. db is expected to be dedicated to this log
// (no other key space sharing it); callers needing to share a database
// should wrap it in dbm.NewPrefixDB first, the same pattern cosmos-sdk's
// multi-store code uses to carve out per-substore key spaces.
func Open(db dbm.DB) *Log { return &Log{db: db} }

// Close releases the underlying database handle.
func (l *Log) Close() error { return l.db.Close() }

// Append durably records entry under its version key. It uses a batch
// with WriteSync rather than Set so the write is flushed before Append
// returns: one log entry per committed version, durable once Append
// returns.
func (l *Log) Append(entry Entry) error {
	batch := l.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(versionKey(entry.Version), encodeEntry(entry)); err != nil {
		return err
	}
	return batch.WriteSync()
}

// Replay calls fn once per logged entry, in ascending version order,
// stopping at the first error either from decoding or from fn itself.
func (l *Log) Replay(fn func(Entry) error) error {
	iter, err := l.db.Iterator(nil, nil)
	if err != nil {
		return err
	}
	defer iter.Close()

	for ; iter.Valid(); iter.Next() {
		entry, err := decodeEntry(iter.Value())
		if err != nil {
			iavlmetrics.IncrCounter(1, "iavl2wal", "corrupt_entry")
			return err
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return iter.Error()
}

func versionKey(version uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, version)
	return key
}

// encodeEntry is a hand-rolled, length-prefixed binary layout rather than
// a protobuf message: this module cannot run protoc/gogoproto codegen to
// verify generated code, so it uses the same primitive BigEndian framing
// the rest of the module already depends on (see DESIGN.md).
func encodeEntry(e Entry) []byte {
	size := 8 + 4
	for _, c := range e.Changes {
		size += 1 + 4 + len(c.Key) + 4 + len(c.Value)
	}
	buf := make([]byte, size)
	off := 0
	binary.BigEndian.PutUint64(buf[off:], e.Version)
	off += 8
	binary.BigEndian.PutUint32(buf[off:], uint32(len(e.Changes)))
	off += 4
	for _, c := range e.Changes {
		if c.Delete {
			buf[off] = 1
		}
		off++
		binary.BigEndian.PutUint32(buf[off:], uint32(len(c.Key)))
		off += 4
		off += copy(buf[off:], c.Key)
		binary.BigEndian.PutUint32(buf[off:], uint32(len(c.Value)))
		off += 4
		off += copy(buf[off:], c.Value)
	}
	return buf
}

func decodeEntry(buf []byte) (Entry, error) {
	r := &byteReader{buf: buf}

	version, err := r.uint64()
	if err != nil {
		return Entry{}, err
	}
	count, err := r.uint32()
	if err != nil {
		return Entry{}, err
	}

	changes := make([]kvstore.Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		deleteFlag, err := r.byte()
		if err != nil {
			return Entry{}, err
		}
		key, err := r.bytes()
		if err != nil {
			return Entry{}, err
		}
		value, err := r.bytes()
		if err != nil {
			return Entry{}, err
		}
		changes = append(changes, kvstore.Entry{Key: key, Value: value, Delete: deleteFlag == 1})
	}
	if !r.atEnd() {
		return Entry{}, ErrCorruptEntry
	}
	return Entry{Version: version, Changes: changes}, nil
}

// byteReader is a minimal cursor over a decode buffer; it exists so
// decodeEntry can report ErrShortRead instead of panicking on a
// truncated or corrupt log entry.
type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) atEnd() bool { return r.pos == len(r.buf) }

func (r *byteReader) need(n int) error {
	if len(r.buf)-r.pos < n {
		return ErrShortRead
	}
	return nil
}

func (r *byteReader) byte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) uint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *byteReader) uint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *byteReader) bytes() ([]byte, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n)); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	if n == 0 {
		return nil, nil
	}
	return out, nil
}
