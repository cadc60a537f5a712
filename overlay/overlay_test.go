package overlay

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cosmossdk.io/iavl2/kvstore"
)

func collectPairs(it kvstore.Iterator) [][2]string {
	var out [][2]string
	for ; it.Valid(); it.Next() {
		out = append(out, [2]string{string(it.Key()), string(it.Value())})
	}
	return out
}

func newParent() *kvstore.MemTree {
	m := kvstore.NewMemTree()
	m.Set([]byte("key1"), []byte("value1"))
	m.Set([]byte("key2"), []byte("value2"))
	m.Set([]byte("key3"), []byte("value3"))
	m.Set([]byte("key4"), []byte("value4"))
	return m
}

// TestOverlayScenario exercises a staged update, a staged tombstone, and
// forward/reverse range reads before and after a flush.
func TestOverlayScenario(t *testing.T) {
	parent := newParent()
	o := New[*kvstore.MemTree](parent)
	o.Set([]byte("key2"), []byte("new_value2"))
	o.Remove([]byte("key3"))

	forward := collectPairs(o.Iterator(kvstore.NoBound(), kvstore.NoBound()))
	wantForward := [][2]string{{"key1", "value1"}, {"key2", "new_value2"}, {"key4", "value4"}}
	require.Equal(t, wantForward, forward)

	reverse := collectPairs(o.ReverseIterator(kvstore.Incl([]byte("key2")), kvstore.NoBound()))
	wantReverse := [][2]string{{"key4", "value4"}, {"key2", "new_value2"}}
	require.Equal(t, wantReverse, reverse)

	require.NoError(t, o.Flush())

	afterForward := collectPairs(parent.Iterator(kvstore.NoBound(), kvstore.NoBound()))
	require.Equal(t, wantForward, afterForward)

	afterReverse := collectPairs(parent.ReverseIterator(kvstore.Incl([]byte("key2")), kvstore.NoBound()))
	require.Equal(t, wantReverse, afterReverse)
}

func TestOverlayGetFallsThroughToParent(t *testing.T) {
	parent := newParent()
	o := New[*kvstore.MemTree](parent)

	v, ok := o.Get([]byte("key1"))
	require.True(t, ok)
	require.Equal(t, "value1", string(v))

	o.Remove([]byte("key1"))
	_, ok = o.Get([]byte("key1"))
	require.False(t, ok, "expected tombstone to hide parent value")

	_, ok = parent.Get([]byte("key1"))
	require.True(t, ok, "parent should be untouched before flush")
}
