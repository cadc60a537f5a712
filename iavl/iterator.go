package iavl

import (
	"bytes"

	"cosmossdk.io/iavl2/kvstore"
)

// boundAllowsLeft reports whether a node's left subtree (keys strictly
// less than separator) can hold anything matching the start bound:
// descend left iff separator strictly exceeds the start bound.
// Reimplemented locally against kvstore.Bound's exported Kind/Key fields
// rather than via a kvstore-internal helper, since the comparison only
// needs to be conservative (false negatives would wrongly prune valid
// leaves; false positives just cost a wasted descent that the leaf-level
// bound check below filters out).
func boundAllowsLeft(b kvstore.Bound, separator []byte) bool {
	if b.Kind == kvstore.Unbounded {
		return true
	}
	return bytes.Compare(separator, b.Key) > 0
}

// boundAllowsRight reports whether a node's right subtree (keys
// greater-or-equal to separator) can hold anything matching the end
// bound ("descend right iff separator <= end bound").
func boundAllowsRight(b kvstore.Bound, separator []byte) bool {
	if b.Kind == kvstore.Unbounded {
		return true
	}
	return bytes.Compare(separator, b.Key) <= 0
}

// treeIterator is a stack-based in-order (or reverse in-order) traversal
// over an IAVLTree, pruning subtrees the bounds rule out. Its stack holds
// the tree's live *Node pointers, which Set and Remove mutate and rotate
// in place, so any mutation of the tree invalidates an outstanding
// iterator.
type treeIterator struct {
	stack      []*Node
	lo, hi     kvstore.Bound
	reverse    bool
	cur        *Node
	start, end []byte
}

func newTreeIterator(root *Node, lo, hi kvstore.Bound, reverse bool) *treeIterator {
	it := &treeIterator{lo: lo, hi: hi, reverse: reverse, start: lo.Key, end: hi.Key}
	it.pushSpine(root)
	it.advance()
	return it
}

// pushSpine descends the "near" side for this iterator's direction
// (Left when ascending, Right when descending), pushing every inner node
// it must return to once that side is exhausted, and skipping subtrees
// the bounds already rule out.
func (it *treeIterator) pushSpine(n *Node) {
	for n != nil {
		if n.isLeaf() {
			it.stack = append(it.stack, n)
			return
		}
		if it.reverse {
			if boundAllowsRight(it.hi, n.Key) {
				it.stack = append(it.stack, n)
				n = n.Right
			} else {
				n = n.Left
			}
		} else {
			if boundAllowsLeft(it.lo, n.Key) {
				it.stack = append(it.stack, n)
				n = n.Left
			} else {
				n = n.Right
			}
		}
	}
}

// advance pops the stack until it lands on the next in-range leaf, or
// the stack empties (iterator exhausted).
func (it *treeIterator) advance() {
	for len(it.stack) > 0 {
		n := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]

		if n.isLeaf() {
			if it.lo.ContainsAsStart(n.Key) && it.hi.ContainsAsEnd(n.Key) {
				it.cur = n
				return
			}
			continue
		}

		if it.reverse {
			if boundAllowsLeft(it.lo, n.Key) {
				it.pushSpine(n.Left)
			}
		} else {
			if boundAllowsRight(it.hi, n.Key) {
				it.pushSpine(n.Right)
			}
		}
	}
	it.cur = nil
}

func (it *treeIterator) Domain() (start, end []byte) { return it.start, it.end }

func (it *treeIterator) Valid() bool { return it.cur != nil }

func (it *treeIterator) Key() []byte {
	if it.cur == nil {
		return nil
	}
	return it.cur.Key
}

func (it *treeIterator) Value() []byte {
	if it.cur == nil {
		return nil
	}
	return it.cur.Value
}

func (it *treeIterator) Next() { it.advance() }

func (it *treeIterator) Error() error { return nil }

func (it *treeIterator) Close() error { return nil }
