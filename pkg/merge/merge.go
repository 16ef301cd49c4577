// Package merge provides a streaming two-way merge of already ordered
// sequences.
package merge

// Source yields items one at a time. ok is false once it is exhausted.
type Source[T any] interface {
	Next() (item T, ok bool)
}

// SliceSource walks a slice, optionally back to front.
type SliceSource[T any] struct {
	items   []T
	pos     int
	reverse bool
}

// FromSlice returns a Source over items in order.
func FromSlice[T any](items []T) *SliceSource[T] {
	return &SliceSource[T]{items: items}
}

// Reversed returns a Source over items from last to first. GW2Spidy returns
// listings newest first, so Reversed yields them oldest first.
func Reversed[T any](items []T) *SliceSource[T] {
	return &SliceSource[T]{items: items, reverse: true}
}

// Next implements Source.
func (s *SliceSource[T]) Next() (T, bool) {
	var zero T
	if s.pos >= len(s.items) {
		return zero, false
	}
	i := s.pos
	if s.reverse {
		i = len(s.items) - 1 - s.pos
	}
	s.pos++
	return s.items[i], true
}

// Merger interleaves two ascending sources into one ascending source. When
// heads compare equal the left head is emitted first, so the merge is
// stable. Memory use is constant beyond the two held heads.
type Merger[T any] struct {
	left, right Source[T]
	less        func(a, b T) bool

	leftHead, rightHead T
	leftOK, rightOK     bool
	primed              bool
}

// New creates a Merger. less must be the strict ordering both inputs are
// already sorted by.
func New[T any](left, right Source[T], less func(a, b T) bool) *Merger[T] {
	return &Merger[T]{
		left:  left,
		right: right,
		less:  less,
	}
}

// Next implements Source.
func (m *Merger[T]) Next() (T, bool) {
	if !m.primed {
		m.leftHead, m.leftOK = m.left.Next()
		m.rightHead, m.rightOK = m.right.Next()
		m.primed = true
	}

	var item T
	switch {
	case m.leftOK && (!m.rightOK || !m.less(m.rightHead, m.leftHead)):
		item = m.leftHead
		m.leftHead, m.leftOK = m.left.Next()
	case m.rightOK:
		item = m.rightHead
		m.rightHead, m.rightOK = m.right.Next()
	default:
		return item, false
	}
	return item, true
}

// Collect drains a Source into a slice.
func Collect[T any](s Source[T]) []T {
	var out []T
	for {
		item, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, item)
	}
}
