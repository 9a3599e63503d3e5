// Package labels compresses sparse segment labels into consecutive integers.
//
// Quickshift labels are pixel indices of tree roots, so a 1000×1000 image
// with 50 segments may use labels anywhere in [0, 10^6). RelabelSequential
// replaces them with offset, offset+1, ... in order of first appearance,
// which keeps downstream per-region tables small.
package labels

import "github.com/samber/lo"

// Mapping is an insertion-ordered map from original labels to compressed
// ones. The k-th distinct label inserted maps to Offset()+k.
type Mapping struct {
	offset int
	index  map[int]int
	order  []int
}

// NewMapping returns an empty mapping starting at offset.
func NewMapping(offset int) *Mapping {
	return &Mapping{offset: offset, index: make(map[int]int)}
}

// Index returns the compressed label for original, assigning the next one
// if original has not been seen.
func (m *Mapping) Index(original int) int {
	if v, ok := m.index[original]; ok {
		return v
	}
	v := m.offset + len(m.order)
	m.index[original] = v
	m.order = append(m.order, original)
	return v
}

// Lookup returns the compressed label for original without assigning one.
func (m *Mapping) Lookup(original int) (int, bool) {
	v, ok := m.index[original]
	return v, ok
}

// Len is the number of distinct labels seen.
func (m *Mapping) Len() int { return len(m.order) }

// Offset is the first compressed label.
func (m *Mapping) Offset() int { return m.offset }

// Originals returns the original labels in insertion order, so that
// Originals()[k] maps to Offset()+k.
func (m *Mapping) Originals() []int {
	return append([]int(nil), m.order...)
}

// Apply rewrites labels in place through m, extending it with any label
// not yet seen.
func (m *Mapping) Apply(labels []int) {
	for i, l := range labels {
		labels[i] = m.Index(l)
	}
}

// RelabelSequential rewrites labels in place so that the distinct values
// become offset, offset+1, ... in order of first appearance.
//
// Relative order of labels is not preserved: [5 5 2 9 2] becomes [0 0 1 2 1].
// Running it twice with the same offset is a no-op.
func RelabelSequential(labels []int, offset int) *Mapping {
	m := NewMapping(offset)
	m.Apply(labels)
	return m
}

// RelabelSequentialGlobal relabels several arrays with one shared mapping,
// visiting the arrays in order. A label present in more than one array gets
// the same compressed value everywhere.
func RelabelSequentialGlobal(arrays [][]int, offset int) *Mapping {
	m := NewMapping(offset)
	for _, a := range arrays {
		m.Apply(a)
	}
	return m
}

// MaxLabel returns the largest label across all arrays, or -1 if they are
// all empty.
func MaxLabel(arrays ...[]int) int {
	best := -1
	for _, a := range arrays {
		if len(a) == 0 {
			continue
		}
		best = max(best, lo.Max(a))
	}
	return best
}

// Count returns the number of distinct labels in labels.
func Count(labels []int) int {
	return len(lo.Uniq(labels))
}
