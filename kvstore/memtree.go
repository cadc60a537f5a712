package kvstore

import (
	"bytes"

	"github.com/tidwall/btree"
)

// memItem is the element type stored in MemTree's ordered map.
type memItem struct {
	key   []byte
	value []byte
}

func lessMemItem(a, b memItem) bool { return bytes.Compare(a.key, b.key) < 0 }

// MemTree is the baseline KVStore: an ordered map with no versioning or
// hashing, used both as a leaf of test overlay stacks and as a plain
// in-memory store. The ordering structure is tidwall/btree's
// generic B-tree rather than a hand-rolled map, the same ordered-map
// dependency cosmos-sdk's own store module carries for its cache layer.
type MemTree struct {
	data *btree.BTreeG[memItem]
}

// NewMemTree returns an empty MemTree.
func NewMemTree() *MemTree {
	return &MemTree{data: btree.NewBTreeG(lessMemItem)}
}

var _ KVStore = (*MemTree)(nil)

func (m *MemTree) Get(key []byte) ([]byte, bool) {
	item, ok := m.data.Get(memItem{key: key})
	if !ok {
		return nil, false
	}
	return item.value, true
}

func (m *MemTree) Set(key, value []byte) {
	m.data.Set(memItem{key: key, value: value})
}

func (m *MemTree) Remove(key []byte) {
	m.data.Delete(memItem{key: key})
}

func (m *MemTree) WriteBatch(entries []Entry) error {
	return ApplyBatch(m, entries)
}

// Len reports the number of keys currently stored.
func (m *MemTree) Len() int { return m.data.Len() }

func (m *MemTree) Iterator(lo, hi Bound) Iterator {
	return newSliceIterator(m.collect(lo, hi), lo.Key, hi.Key)
}

func (m *MemTree) ReverseIterator(lo, hi Bound) Iterator {
	items := m.collect(lo, hi)
	reverseMemItems(items)
	return newSliceIterator(items, lo.Key, hi.Key)
}

// collect walks the tree once, ascending from the smallest key, gathering
// every item within the lo and hi bounds and stopping as soon as the end bound is
// passed. The snapshot semantics mean a MemTree iterator is automatically
// stable across later mutations of the tree: there is nothing left to
// invalidate.
func (m *MemTree) collect(lo, hi Bound) []memItem {
	var out []memItem
	m.data.Ascend(memItem{}, func(item memItem) bool {
		if !lo.ContainsAsStart(item.key) {
			return true
		}
		if !hi.ContainsAsEnd(item.key) {
			return false
		}
		out = append(out, item)
		return true
	})
	return out
}

func reverseMemItems(items []memItem) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}

// sliceIterator implements Iterator over a pre-collected, already-ordered
// slice of (key, value) pairs. It backs MemTree's range queries.
type sliceIterator struct {
	items []memItem
	pos   int
	start []byte
	end   []byte
}

func newSliceIterator(items []memItem, start, end []byte) *sliceIterator {
	return &sliceIterator{items: items, start: start, end: end}
}

func (it *sliceIterator) Domain() (start, end []byte) { return it.start, it.end }

func (it *sliceIterator) Valid() bool { return it.pos < len(it.items) }

func (it *sliceIterator) Next() {
	if it.Valid() {
		it.pos++
	}
}

func (it *sliceIterator) Key() []byte {
	if !it.Valid() {
		return nil
	}
	return it.items[it.pos].key
}

func (it *sliceIterator) Value() []byte {
	if !it.Valid() {
		return nil
	}
	return it.items[it.pos].value
}

func (it *sliceIterator) Error() error { return nil }

func (it *sliceIterator) Close() error { return nil }
