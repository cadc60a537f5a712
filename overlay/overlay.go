// Package overlay implements a staging KVStore that buffers writes and
// tombstones in memory over an owned parent store, flushing them in one
// atomic pass.
package overlay

import (
	"bytes"

	"github.com/tidwall/btree"

	"cosmossdk.io/iavl2/kvstore"
)

// stagingItem is one entry in the overlay's staging map. deleted marks a
// tombstone: a Remove recorded against a key that may or may not exist in
// the parent.
type stagingItem struct {
	key     []byte
	value   []byte
	deleted bool
}

func lessStagingItem(a, b stagingItem) bool { return bytes.Compare(a.key, b.key) < 0 }

// Overlay is a staging KVStore layered over an owned parent P. Reads
// consult the staging map first, falling through to the parent; Flush
// drains the staging map into the parent in ascending key order and then
// clears it.
type Overlay[P kvstore.KVStore] struct {
	parent  P
	staging *btree.BTreeG[stagingItem]
}

// New returns an Overlay staged over parent.
func New[P kvstore.KVStore](parent P) *Overlay[P] {
	return &Overlay[P]{parent: parent, staging: btree.NewBTreeG(lessStagingItem)}
}

var _ kvstore.KVStore = (*Overlay[kvstore.KVStore])(nil)

// Parent returns the store this overlay is staged over.
func (o *Overlay[P]) Parent() P { return o.parent }

func (o *Overlay[P]) Get(key []byte) ([]byte, bool) {
	if item, ok := o.staging.Get(stagingItem{key: key}); ok {
		if item.deleted {
			return nil, false
		}
		return item.value, true
	}
	return o.parent.Get(key)
}

func (o *Overlay[P]) Set(key, value []byte) {
	o.staging.Set(stagingItem{key: key, value: value})
}

func (o *Overlay[P]) Remove(key []byte) {
	o.staging.Set(stagingItem{key: key, deleted: true})
}

func (o *Overlay[P]) WriteBatch(entries []kvstore.Entry) error {
	return kvstore.ApplyBatch(o, entries)
}

// Flush drains every staged write and tombstone into the parent as a
// single WriteBatch call, in ascending key order, then clears the
// staging map. Flushing through WriteBatch rather than individual
// Set/Remove calls is what lets an Overlay sit directly over an IAVLDB,
// whose write-batch-only restriction exists precisely so a staged
// Overlay can localize the batch boundary.
func (o *Overlay[P]) Flush() error {
	entries := make([]kvstore.Entry, 0, o.staging.Len())
	o.staging.Ascend(stagingItem{}, func(item stagingItem) bool {
		entries = append(entries, kvstore.Entry{Key: item.key, Value: item.value, Delete: item.deleted})
		return true
	})
	if err := o.parent.WriteBatch(entries); err != nil {
		return err
	}
	o.staging = btree.NewBTreeG(lessStagingItem)
	return nil
}

func (o *Overlay[P]) Iterator(lo, hi kvstore.Bound) kvstore.Iterator {
	return kvstore.NewMergeIterator(o.collect(lo, hi, false), o.parent.Iterator(lo, hi))
}

func (o *Overlay[P]) ReverseIterator(lo, hi kvstore.Bound) kvstore.Iterator {
	return kvstore.NewReverseMergeIterator(o.collect(lo, hi, true), o.parent.ReverseIterator(lo, hi))
}

// collect snapshots the staging entries within the lo and hi bounds, in ascending or
// descending order, as a kvstore.OverlaySource. Snapshotting (rather than
// a live cursor) gives the same "mutation invalidates nothing, because
// there is nothing left to invalidate" stability MemTree's iterators have.
func (o *Overlay[P]) collect(lo, hi kvstore.Bound, reverse bool) kvstore.OverlaySource {
	var items []stagingItem
	o.staging.Ascend(stagingItem{}, func(item stagingItem) bool {
		if !lo.ContainsAsStart(item.key) {
			return true
		}
		if !hi.ContainsAsEnd(item.key) {
			return false
		}
		items = append(items, item)
		return true
	})
	if reverse {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	return &stagingSource{items: items}
}

// stagingSource adapts a pre-collected, ordered slice of stagingItems to
// kvstore.OverlaySource.
type stagingSource struct {
	items []stagingItem
	pos   int
}

func (s *stagingSource) Valid() bool { return s.pos < len(s.items) }

func (s *stagingSource) Next() {
	if s.Valid() {
		s.pos++
	}
}

func (s *stagingSource) Key() []byte {
	if !s.Valid() {
		return nil
	}
	return s.items[s.pos].key
}

func (s *stagingSource) Value() []byte {
	if !s.Valid() {
		return nil
	}
	return s.items[s.pos].value
}

func (s *stagingSource) IsTombstone() bool {
	if !s.Valid() {
		return false
	}
	return s.items[s.pos].deleted
}
