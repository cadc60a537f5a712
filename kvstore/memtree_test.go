package kvstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemTreeGetSetRemove(t *testing.T) {
	m := NewMemTree()
	_, ok := m.Get([]byte("k"))
	require.False(t, ok, "expected miss on empty tree")

	m.Set([]byte("k"), []byte("v1"))
	v, ok := m.Get([]byte("k"))
	require.True(t, ok)
	require.Equal(t, "v1", string(v))

	m.Set([]byte("k"), []byte("v2"))
	v, ok = m.Get([]byte("k"))
	require.True(t, ok)
	require.Equal(t, "v2", string(v))

	m.Remove([]byte("k"))
	_, ok = m.Get([]byte("k"))
	require.False(t, ok, "expected miss after remove")
}

func collectPairs(it Iterator) [][2]string {
	var out [][2]string
	for ; it.Valid(); it.Next() {
		out = append(out, [2]string{string(it.Key()), string(it.Value())})
	}
	return out
}

func TestMemTreeIteratorOrderAndBounds(t *testing.T) {
	m := NewMemTree()
	for _, k := range []string{"a", "b", "c", "d"} {
		m.Set([]byte(k), []byte(k+k))
	}

	got := collectPairs(m.Iterator(NoBound(), NoBound()))
	want := [][2]string{{"a", "aa"}, {"b", "bb"}, {"c", "cc"}, {"d", "dd"}}
	require.Equal(t, want, got)

	bounded := collectPairs(m.Iterator(Incl([]byte("b")), Excl([]byte("d"))))
	require.Equal(t, [][2]string{{"b", "bb"}, {"c", "cc"}}, bounded)
}

func TestMemTreeReverseIterator(t *testing.T) {
	m := NewMemTree()
	for _, k := range []string{"a", "b", "c"} {
		m.Set([]byte(k), []byte(k))
	}

	got := collectPairs(m.ReverseIterator(NoBound(), NoBound()))
	require.Equal(t, [][2]string{{"c", "c"}, {"b", "b"}, {"a", "a"}}, got)
}
