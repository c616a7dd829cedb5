// Package sparse provides a sparse set of state ids with O(1) insert,
// membership and clear, used by graph analyses that revisit states.
package sparse

// Set is a set of uint32 values below a fixed capacity.
// It keeps a dense slice for iteration in insertion order and a sparse
// slice mapping each value to its dense index.
type Set struct {
	sparse []uint32
	dense  []uint32
}

// New creates a set able to hold values in [0, capacity).
func New(capacity int) *Set {
	return &Set{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
	}
}

// Insert adds value and reports whether it was absent.
// Panics if value is out of range.
func (s *Set) Insert(value uint32) bool {
	if s.Contains(value) {
		return false
	}
	s.sparse[value] = uint32(len(s.dense)) //nolint:gosec // G115: len(dense) <= capacity
	s.dense = append(s.dense, value)
	return true
}

// Contains reports whether value is in the set.
func (s *Set) Contains(value uint32) bool {
	if uint64(value) >= uint64(len(s.sparse)) {
		return false
	}
	idx := s.sparse[value]
	return int(idx) < len(s.dense) && s.dense[idx] == value
}

// Remove deletes value if present (swap with the last element).
func (s *Set) Remove(value uint32) {
	if !s.Contains(value) {
		return
	}
	idx := s.sparse[value]
	last := s.dense[len(s.dense)-1]
	s.dense[idx] = last
	s.sparse[last] = idx
	s.dense = s.dense[:len(s.dense)-1]
}

// Clear empties the set in O(1).
func (s *Set) Clear() {
	s.dense = s.dense[:0]
}

// Len returns the number of values in the set.
func (s *Set) Len() int {
	return len(s.dense)
}

// IsEmpty reports whether the set has no values.
func (s *Set) IsEmpty() bool {
	return len(s.dense) == 0
}

// Values returns the values in insertion order (until the next Remove).
// The slice is valid until the next mutation.
func (s *Set) Values() []uint32 {
	return s.dense
}
