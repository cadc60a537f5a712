// Package kvstore defines the common ordered key-value contract shared by
// every store in this module (MemTree, the staging Overlay, the IAVL tree,
// and the logged IAVLDB façade), along with the merge-iteration primitive
// that lets a staging layer shadow a parent store without copying it.
package kvstore

import "bytes"

// BoundKind classifies one side of a range query.
type BoundKind int

const (
	// Unbounded means the range is open on this side.
	Unbounded BoundKind = iota
	// Inclusive means the bound key itself is part of the range.
	Inclusive
	// Exclusive means the bound key itself is excluded from the range.
	Exclusive
)

// Bound is one side (start or end) of a range query. Bounds are evaluated
// independently per side: each of lo and hi may be unbounded, inclusive, or
// exclusive.
type Bound struct {
	Kind BoundKind
	Key  []byte
}

// NoBound returns an unbounded side.
func NoBound() Bound { return Bound{Kind: Unbounded} }

// Incl returns an inclusive bound at key.
func Incl(key []byte) Bound { return Bound{Kind: Inclusive, Key: key} }

// Excl returns an exclusive bound at key.
func Excl(key []byte) Bound { return Bound{Kind: Exclusive, Key: key} }

// ContainsAsStart reports whether key falls on-or-inside this bound when
// used as the lower (start) edge of a range.
func (b Bound) ContainsAsStart(key []byte) bool {
	switch b.Kind {
	case Inclusive:
		return bytes.Compare(key, b.Key) >= 0
	case Exclusive:
		return bytes.Compare(key, b.Key) > 0
	default:
		return true
	}
}

// ContainsAsEnd reports whether key falls on-or-inside this bound when used
// as the upper (end) edge of a range.
func (b Bound) ContainsAsEnd(key []byte) bool {
	switch b.Kind {
	case Inclusive:
		return bytes.Compare(key, b.Key) <= 0
	case Exclusive:
		return bytes.Compare(key, b.Key) < 0
	default:
		return true
	}
}

// Entry is one change in a write batch: Delete distinguishes a tombstone
// from Set(Key, Value), mirroring cosmos-sdk's store/types.StoreKVPair.
type Entry struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Iterator is a forward-only ordered cursor, the cosmos-sdk store/types.Iterator
// shape. A KVStore exposes both an ascending Iterator and a descending
// ReverseIterator rather than a single double-ended cursor (see DESIGN.md).
type Iterator interface {
	Domain() (start, end []byte)
	Valid() bool
	Next()
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// KVStore is the common contract implemented by MemTree, Overlay, IAVLTree
// and IAVLDB.
type KVStore interface {
	Get(key []byte) ([]byte, bool)
	Set(key, value []byte)
	Remove(key []byte)
	Iterator(lo, hi Bound) Iterator
	ReverseIterator(lo, hi Bound) Iterator
	WriteBatch(entries []Entry) error
}

// ApplyBatch runs the default write_batch semantics: apply every entry to s
// in order. Stores with no batch-specific optimization can implement
// WriteBatch by delegating here.
func ApplyBatch(s KVStore, entries []Entry) error {
	for _, e := range entries {
		if e.Delete {
			s.Remove(e.Key)
		} else {
			s.Set(e.Key, e.Value)
		}
	}
	return nil
}
