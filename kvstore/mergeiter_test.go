package kvstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeOverlay is a minimal OverlaySource test double over a fixed,
// pre-ordered slice.
type fakeOverlay struct {
	items []memItem
	tomb  map[int]bool
	pos   int
}

func newFakeOverlay(pairs [][2]string, tombstones map[string]bool) *fakeOverlay {
	f := &fakeOverlay{tomb: map[int]bool{}}
	for i, p := range pairs {
		f.items = append(f.items, memItem{key: []byte(p[0]), value: []byte(p[1])})
		if tombstones[p[0]] {
			f.tomb[i] = true
		}
	}
	return f
}

func (f *fakeOverlay) Valid() bool { return f.pos < len(f.items) }
func (f *fakeOverlay) Next()       { f.pos++ }
func (f *fakeOverlay) Key() []byte {
	if !f.Valid() {
		return nil
	}
	return f.items[f.pos].key
}
func (f *fakeOverlay) Value() []byte {
	if !f.Valid() {
		return nil
	}
	return f.items[f.pos].value
}
func (f *fakeOverlay) IsTombstone() bool {
	if !f.Valid() {
		return false
	}
	return f.tomb[f.pos]
}

func TestMergeIteratorOverlayWinsOnTie(t *testing.T) {
	base := NewMemTree()
	base.Set([]byte("key1"), []byte("value1"))
	base.Set([]byte("key2"), []byte("value2"))
	base.Set([]byte("key3"), []byte("value3"))
	base.Set([]byte("key4"), []byte("value4"))

	overlay := newFakeOverlay(
		[][2]string{{"key2", "new_value2"}, {"key3", ""}},
		map[string]bool{"key3": true},
	)

	it := NewMergeIterator(overlay, base.Iterator(NoBound(), NoBound()))
	got := collectPairs(it)
	want := [][2]string{{"key1", "value1"}, {"key2", "new_value2"}, {"key4", "value4"}}
	require.Equal(t, want, got)
}

func TestMergeIteratorOverlayOnlyKey(t *testing.T) {
	base := NewMemTree()
	base.Set([]byte("key1"), []byte("value1"))

	overlay := newFakeOverlay([][2]string{{"key0", "staged"}}, nil)
	it := NewMergeIterator(overlay, base.Iterator(NoBound(), NoBound()))
	got := collectPairs(it)
	require.Equal(t, [][2]string{{"key0", "staged"}, {"key1", "value1"}}, got)
}
