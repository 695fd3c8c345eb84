// Package keyset maintains the set of key values that drives row selection
// across extraction steps. Membership is an exact string match: no case
// folding, no whitespace trimming, and quoted values only match their
// quoted spelling.
package keyset

import "sort"

// Set is a mutable set of key values. The empty string is never stored, so
// rows with blank key cells can never match.
type Set struct {
	values map[string]struct{}
}

// New creates an empty Set.
func New() *Set {
	return &Set{values: make(map[string]struct{})}
}

// Add inserts value into the set and reports whether it was newly added.
// Empty values are ignored.
func (s *Set) Add(value string) bool {
	if value == "" {
		return false
	}
	if _, ok := s.values[value]; ok {
		return false
	}
	s.values[value] = struct{}{}
	return true
}

// AddAll inserts every value and returns the number of values that were
// newly added.
func (s *Set) AddAll(values []string) int {
	added := 0
	for _, v := range values {
		if s.Add(v) {
			added++
		}
	}
	return added
}

// Merge inserts every value of other and returns the number of values that
// were newly added. The receiver only grows; nothing is ever removed.
func (s *Set) Merge(other *Set) int {
	if other == nil {
		return 0
	}
	added := 0
	for v := range other.values {
		if s.Add(v) {
			added++
		}
	}
	return added
}

// Has reports whether value is in the set.
func (s *Set) Has(value string) bool {
	_, ok := s.values[value]
	return ok
}

// Len returns the number of values in the set.
func (s *Set) Len() int {
	return len(s.values)
}

// Values returns the set's values in sorted order.
func (s *Set) Values() []string {
	out := make([]string, 0, len(s.values))
	for v := range s.values {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
