// Package iavl implements the balanced, versioned, cryptographically
// authenticated binary search tree at the core of this module: only
// leaves hold keys and values, inner nodes hold a separator key (the
// minimum key of their right subtree), and every mutation bumps the
// owning node's version and clears its cached hash for lazy
// recomputation at the next SaveVersion.
package iavl

import (
	"crypto/sha256"
	"encoding/binary"
)

// Node is one node of an IAVLTree. Inner nodes (Left and Right both set)
// carry a separator Key and no Value; leaves (Left and Right both nil)
// carry the real Key/Value pair. hash is nil whenever the node is dirty
// (mutated since the last hash computation); it is never exported, since
// callers observe hashes only through Node.Hash / IAVLTree.RootHash.
type Node struct {
	Height  uint8
	Size    uint64
	Version uint64
	Key     []byte
	Value   []byte
	Left    *Node
	Right   *Node

	hash []byte
}

func newLeaf(key, value []byte, version uint64) *Node {
	return &Node{Height: 0, Size: 1, Version: version, Key: key, Value: value}
}

// newBranch builds the inner node joining left and right, with its
// separator key set to the minimum key of right (an inner node's Key is
// always the minimum key reachable in its Right subtree).
func newBranch(left, right *Node, version uint64) *Node {
	n := &Node{Left: left, Right: right, Version: version, Key: minKey(right)}
	n.updateHeightSize()
	return n
}

func minKey(n *Node) []byte {
	for !n.isLeaf() {
		n = n.Left
	}
	return n.Key
}

func (n *Node) isLeaf() bool { return n.Left == nil && n.Right == nil }

// updateHeightSize recomputes Height and Size from the current children;
// it must run after any change to Left or Right.
func (n *Node) updateHeightSize() {
	lh, rh := n.Left.heightOf(), n.Right.heightOf()
	if lh > rh {
		n.Height = lh + 1
	} else {
		n.Height = rh + 1
	}
	n.Size = n.Left.Size + n.Right.Size
}

func (n *Node) heightOf() uint8 {
	if n == nil {
		return 0
	}
	return n.Height
}

// balanceFactor is Left's height minus Right's height; only meaningful on
// an inner node.
func (n *Node) balanceFactor() int {
	return int(n.Left.heightOf()) - int(n.Right.heightOf())
}

// mutate marks n as touched at version: its cached hash is dropped so it
// is recomputed lazily at the next SaveVersion, and its version stamp
// moves forward. This is the tree's copy-on-write discipline: mutate the
// node in place rather than allocate a structural copy, since past
// versions are not kept resident — a panic mid-mutation is recovered by
// replaying the write-ahead log from the last committed version.
func (n *Node) mutate(version uint64) {
	n.hash = nil
	n.Version = version
}

// Hash returns the node's cached hash, computing it (and its subtree's,
// as needed) if it is currently dirty.
func (n *Node) Hash() []byte {
	if n.hash != nil {
		return n.hash
	}
	if n.isLeaf() {
		n.hash = hashLeaf(n)
		return n.hash
	}
	left := n.Left.Hash()
	right := n.Right.Hash()
	n.hash = hashInner(n, left, right)
	return n.hash
}

// hashLeaf and hashInner implement this module's node hash:
// SHA-256(H || S || V || K || X), with H/S/V the node's height, size and
// version each as a signed varint. On a leaf, K is the length-varint-
// prefixed key and X is the length-varint-prefixed SHA-256 of the value;
// on an inner node, K and X are the length-varint-prefixed left and
// right child hashes (children are hashed first). Hashing the value's
// digest rather than the raw value bounds the node-hash input size
// regardless of value length.
func hashLeaf(n *Node) []byte {
	h := sha256.New()
	writeNodeHeader(h, n)
	writeLenPrefixed(h, n.Key)
	valueHash := sha256.Sum256(n.Value)
	writeLenPrefixed(h, valueHash[:])
	return h.Sum(nil)
}

func hashInner(n *Node, left, right []byte) []byte {
	h := sha256.New()
	writeNodeHeader(h, n)
	writeLenPrefixed(h, left)
	writeLenPrefixed(h, right)
	return h.Sum(nil)
}

// writeNodeHeader writes height, size and version as signed varints (the
// standard zigzag encoding binary.PutVarint implements), so the digest
// is identical across machines regardless of native word size.
func writeNodeHeader(h hasher, n *Node) {
	var buf [binary.MaxVarintLen64]byte
	writeVarint(h, buf[:], int64(n.Height))
	writeVarint(h, buf[:], int64(n.Size))
	writeVarint(h, buf[:], int64(n.Version))
}

func writeVarint(h hasher, buf []byte, v int64) {
	n := binary.PutVarint(buf, v)
	h.Write(buf[:n])
}

// writeLenPrefixed writes b's length as an unsigned varint followed by b
// itself.
func writeLenPrefixed(h hasher, b []byte) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], uint64(len(b)))
	h.Write(buf[:n])
	h.Write(b)
}

// hasher is the subset of hash.Hash this package needs; sha256.New()
// satisfies it.
type hasher interface {
	Write([]byte) (int, error)
}

// EmptyHash is the root hash of a tree with no nodes: SHA-256 of the
// empty byte string.
func EmptyHash() []byte {
	sum := sha256.Sum256(nil)
	return sum[:]
}
