package kvstore

import "bytes"

// OverlaySource is an ordered stream of staged entries, each of which may be
// a tombstone. Implementations must iterate strictly ascending for use with
// NewMergeIterator, or strictly descending for use with
// NewReverseMergeIterator.
type OverlaySource interface {
	Valid() bool
	Next()
	Key() []byte
	Value() []byte
	IsTombstone() bool
}

// mergeIterator implements a tombstone-aware merge of an OverlaySource
// (with tombstones) layered over a base Iterator (without). Go favors two
// directional iterator constructors over one object driven from both ends
// (see kvstore.Iterator's doc comment and DESIGN.md); mergeIterator itself
// is direction-agnostic, parameterized by asc, and used by both
// constructors below.
type mergeIterator struct {
	overlay    OverlaySource
	base       Iterator
	asc        bool
	start, end []byte

	key, value []byte
	valid      bool
}

// NewMergeIterator returns the ascending merge of overlay over base. Both
// streams must already run from the smallest key to the largest.
func NewMergeIterator(overlay OverlaySource, base Iterator) Iterator {
	start, end := base.Domain()
	m := &mergeIterator{overlay: overlay, base: base, asc: true, start: start, end: end}
	m.advance()
	return m
}

// NewReverseMergeIterator returns the descending merge of overlay over
// base. Both streams must already run from the largest key to the
// smallest; it applies the same merge logic as NewMergeIterator with the
// comparison direction flipped.
func NewReverseMergeIterator(overlay OverlaySource, base Iterator) Iterator {
	start, end := base.Domain()
	m := &mergeIterator{overlay: overlay, base: base, asc: false, start: start, end: end}
	m.advance()
	return m
}

func (m *mergeIterator) Domain() (start, end []byte) { return m.start, m.end }

func (m *mergeIterator) Valid() bool { return m.valid }

func (m *mergeIterator) Key() []byte {
	if !m.valid {
		return nil
	}
	return m.key
}

func (m *mergeIterator) Value() []byte {
	if !m.valid {
		return nil
	}
	return m.value
}

func (m *mergeIterator) Error() error { return m.base.Error() }

func (m *mergeIterator) Close() error { return m.base.Close() }

func (m *mergeIterator) Next() { m.advance() }

// headCompare orders the two current heads along the iteration direction:
// negative means the overlay head should be consumed first, positive means
// the base head should be consumed first, zero means the keys are equal.
func (m *mergeIterator) headCompare() int {
	c := bytes.Compare(m.overlay.Key(), m.base.Key())
	if !m.asc {
		c = -c
	}
	return c
}

// advance consumes whichever head(s) resolve the next visible pair,
// transparently skipping tombstones that shadow nothing, and leaves
// m.key/m.value/m.valid describing the result.
func (m *mergeIterator) advance() {
	for {
		overlayHas, baseHas := m.overlay.Valid(), m.base.Valid()

		switch {
		case overlayHas && baseHas:
			switch c := m.headCompare(); {
			case c < 0:
				if m.emitOverlay() {
					return
				}
			case c == 0:
				m.base.Next()
				if m.emitOverlay() {
					return
				}
			default:
				m.emitBase()
				return
			}
		case overlayHas:
			if m.emitOverlay() {
				return
			}
		case baseHas:
			m.emitBase()
			return
		default:
			m.valid = false
			return
		}
	}
}

// emitOverlay consumes the overlay head. If it is a tombstone it reports
// false so advance() loops to the next head; otherwise it records the pair
// and reports true.
func (m *mergeIterator) emitOverlay() bool {
	key := cloneBytes(m.overlay.Key())
	value := cloneBytes(m.overlay.Value())
	tombstone := m.overlay.IsTombstone()
	m.overlay.Next()
	if tombstone {
		return false
	}
	m.key, m.value, m.valid = key, value, true
	return true
}

func (m *mergeIterator) emitBase() {
	m.key = cloneBytes(m.base.Key())
	m.value = cloneBytes(m.base.Value())
	m.valid = true
	m.base.Next()
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
