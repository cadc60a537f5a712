package iavl

import (
	"bytes"

	"cosmossdk.io/iavl2/kvstore"
)

// IAVLTree is the balanced, versioned, authenticated KVStore. SaveVersion
// is the only way its Version counter advances; Set and Remove stamp
// touched nodes with the version that the next SaveVersion will commit.
type IAVLTree struct {
	root    *Node
	version uint64
}

// New returns an empty IAVLTree at version 0.
func New() *IAVLTree { return &IAVLTree{} }

// NewWithInitialVersion returns an empty IAVLTree whose first SaveVersion
// produces version+1, rather than 1.
func NewWithInitialVersion(version uint64) *IAVLTree { return &IAVLTree{version: version} }

var _ kvstore.KVStore = (*IAVLTree)(nil)

// Version reports the last version committed by SaveVersion.
func (t *IAVLTree) Version() uint64 { return t.version }

// RootHash returns the current root hash, computing any dirty hashes
// along the way. The empty tree hashes to EmptyHash().
func (t *IAVLTree) RootHash() []byte {
	if t.root == nil {
		return EmptyHash()
	}
	return t.root.Hash()
}

// SaveVersion advances the tree's version, recomputes every dirty hash
// top-down, and returns the new root hash.
func (t *IAVLTree) SaveVersion() []byte {
	t.version++
	return t.RootHash()
}

func (t *IAVLTree) Get(key []byte) ([]byte, bool) {
	n := t.root
	for n != nil {
		if n.isLeaf() {
			if bytes.Equal(n.Key, key) {
				return n.Value, true
			}
			return nil, false
		}
		if bytes.Compare(key, n.Key) < 0 {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return nil, false
}

func (t *IAVLTree) Set(key, value []byte) {
	version := t.version + 1
	if t.root == nil {
		t.root = newLeaf(append([]byte(nil), key...), append([]byte(nil), value...), version)
		return
	}
	newRoot, _ := insertRecursive(t.root, key, value, version)
	t.root = newRoot
}

func (t *IAVLTree) Remove(key []byte) {
	if t.root == nil {
		return
	}
	version := t.version + 1
	found, newRoot, _ := removeRecursive(t.root, key, version)
	if found {
		t.root = newRoot
	}
}

func (t *IAVLTree) WriteBatch(entries []kvstore.Entry) error {
	return kvstore.ApplyBatch(t, entries)
}

// GetByIndex returns the key/value at in-order position idx, using each
// node's cached Size to descend directly rather than walking the whole
// tree.
func (t *IAVLTree) GetByIndex(idx uint64) (key, value []byte, ok bool) {
	n := t.root
	for n != nil {
		if n.isLeaf() {
			if idx == 0 {
				return n.Key, n.Value, true
			}
			return nil, nil, false
		}
		leftSize := n.Left.Size
		if idx < leftSize {
			n = n.Left
		} else {
			idx -= leftSize
			n = n.Right
		}
	}
	return nil, nil, false
}

// GetWithIndex returns the in-order position of key along with its value.
func (t *IAVLTree) GetWithIndex(key []byte) (idx uint64, value []byte, ok bool) {
	n := t.root
	for n != nil {
		if n.isLeaf() {
			if bytes.Equal(n.Key, key) {
				return idx, n.Value, true
			}
			return idx, nil, false
		}
		if bytes.Compare(key, n.Key) < 0 {
			n = n.Left
		} else {
			idx += n.Left.Size
			n = n.Right
		}
	}
	return 0, nil, false
}

func (t *IAVLTree) Iterator(lo, hi kvstore.Bound) kvstore.Iterator {
	return newTreeIterator(t.root, lo, hi, false)
}

func (t *IAVLTree) ReverseIterator(lo, hi kvstore.Bound) kvstore.Iterator {
	return newTreeIterator(t.root, lo, hi, true)
}

// insertRecursive updates an existing leaf's value in place and reports
// updated=true, skipping the height/size/rebalance work a structural
// insertion requires.
func insertRecursive(node *Node, key, value []byte, version uint64) (result *Node, updated bool) {
	if node.isLeaf() {
		switch bytes.Compare(key, node.Key) {
		case 0:
			node.mutate(version)
			node.Value = append([]byte(nil), value...)
			return node, true
		case -1:
			return newBranch(newLeaf(append([]byte(nil), key...), append([]byte(nil), value...), version), node, version), false
		default:
			return newBranch(node, newLeaf(append([]byte(nil), key...), append([]byte(nil), value...), version), version), false
		}
	}

	if bytes.Compare(key, node.Key) < 0 {
		newLeft, updated := insertRecursive(node.Left, key, value, version)
		node.Left = newLeft
		if updated {
			node.mutate(version)
			return node, true
		}
		node.mutate(version)
		node.updateHeightSize()
		return balance(node, version), false
	}

	newRight, updated := insertRecursive(node.Right, key, value, version)
	node.Right = newRight
	if updated {
		node.mutate(version)
		return node, true
	}
	node.mutate(version)
	node.updateHeightSize()
	return balance(node, version), false
}

// removeRecursive has four outcomes: not found; the subtree became
// empty; the separator is unchanged; a new subtree minimum bubbles up.
// A bubbled minimum is forwarded through every ancestor reached by a
// left descent, until the first ancestor reached by a right descent
// folds it into its own Key and stops forwarding it.
func removeRecursive(node *Node, key []byte, version uint64) (found bool, result *Node, newMinKey []byte) {
	if node.isLeaf() {
		if !bytes.Equal(node.Key, key) {
			return false, node, nil
		}
		return true, nil, nil
	}

	if bytes.Compare(key, node.Key) < 0 {
		found, newLeft, bubbledMin := removeRecursive(node.Left, key, version)
		if !found {
			return false, node, nil
		}
		if newLeft == nil {
			// Left collapsed entirely; the right subtree (whose minimum
			// key is exactly this node's old separator) replaces node.
			return true, node.Right, node.Key
		}
		node.Left = newLeft
		node.mutate(version)
		node.updateHeightSize()
		return true, balance(node, version), bubbledMin
	}

	found, newRight, bubbledMin := removeRecursive(node.Right, key, version)
	if !found {
		return false, node, nil
	}
	if newRight == nil {
		// Right collapsed entirely; the left subtree's minimum is
		// unchanged, so nothing bubbles further up.
		return true, node.Left, nil
	}
	node.Right = newRight
	if bubbledMin != nil {
		node.Key = bubbledMin
	}
	node.mutate(version)
	node.updateHeightSize()
	return true, balance(node, version), nil
}

// balance applies the four AVL rotation cases based on the signed
// balance factor.
func balance(node *Node, version uint64) *Node {
	switch bf := node.balanceFactor(); {
	case bf > 1:
		if node.Left.balanceFactor() < 0 {
			node.Left = rotateLeft(node.Left, version)
			node.mutate(version)
			node.updateHeightSize()
		}
		return rotateRight(node, version)
	case bf < -1:
		if node.Right.balanceFactor() > 0 {
			node.Right = rotateRight(node.Right, version)
			node.mutate(version)
			node.updateHeightSize()
		}
		return rotateLeft(node, version)
	default:
		return node
	}
}

// rotateRight and rotateLeft preserve every separator key exactly: a
// node's Key is always the minimum of its Right subtree, and neither
// rotation changes the minimum leaf of any node's right subtree (the
// pivot's right subtree gains the demoted node's right side, whose keys
// are all larger), so only Height/Size need recomputing.
func rotateRight(node *Node, version uint64) *Node {
	left := node.Left
	node.Left = left.Right
	left.Right = node
	node.mutate(version)
	node.updateHeightSize()
	left.mutate(version)
	left.updateHeightSize()
	return left
}

func rotateLeft(node *Node, version uint64) *Node {
	right := node.Right
	node.Right = right.Left
	right.Left = node
	node.mutate(version)
	node.updateHeightSize()
	right.mutate(version)
	right.updateHeightSize()
	return right
}
