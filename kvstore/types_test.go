package kvstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoundContainsAsStart(t *testing.T) {
	cases := []struct {
		name string
		b    Bound
		key  string
		want bool
	}{
		{"unbounded always contains", NoBound(), "anything", true},
		{"inclusive at boundary", Incl([]byte("b")), "b", true},
		{"inclusive below boundary", Incl([]byte("b")), "a", false},
		{"exclusive at boundary", Excl([]byte("b")), "b", false},
		{"exclusive above boundary", Excl([]byte("b")), "c", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, c.b.ContainsAsStart([]byte(c.key)))
		})
	}
}

func TestBoundContainsAsEnd(t *testing.T) {
	cases := []struct {
		name string
		b    Bound
		key  string
		want bool
	}{
		{"unbounded always contains", NoBound(), "anything", true},
		{"inclusive at boundary", Incl([]byte("b")), "b", true},
		{"inclusive above boundary", Incl([]byte("b")), "c", false},
		{"exclusive at boundary", Excl([]byte("b")), "b", false},
		{"exclusive below boundary", Excl([]byte("b")), "a", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, c.b.ContainsAsEnd([]byte(c.key)))
		})
	}
}

func TestApplyBatch(t *testing.T) {
	m := NewMemTree()
	m.Set([]byte("a"), []byte("1"))

	err := ApplyBatch(m, []Entry{
		{Key: []byte("b"), Value: []byte("2")},
		{Key: []byte("a"), Delete: true},
	})
	require.NoError(t, err)

	_, ok := m.Get([]byte("a"))
	require.False(t, ok, "expected key a to be removed")

	v, ok := m.Get([]byte("b"))
	require.True(t, ok)
	require.Equal(t, "2", string(v))
}
