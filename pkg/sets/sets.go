// Package sets provides the small string-set abstraction used for the
// aggregate contact fields (emails, phone numbers, mailing list names).
package sets

import (
	"sort"
	"strings"
)

// Set is an unordered collection of unique strings.
type Set map[string]struct{}

// New creates a set containing the given values.
func New(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts a value into the set.
func (s Set) Add(value string) {
	s[value] = struct{}{}
}

// Has reports whether the set contains the value.
func (s Set) Has(value string) bool {
	_, ok := s[value]
	return ok
}

// Len returns the number of elements in the set.
func (s Set) Len() int {
	return len(s)
}

// Values returns the elements in sorted order.
func (s Set) Values() []string {
	values := make([]string, 0, len(s))
	for v := range s {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// String renders the set as "{a, b, c}" with sorted elements.
func (s Set) String() string {
	return "{" + strings.Join(s.Values(), ", ") + "}"
}

// IsSupersetOf reports whether every element of b is in a.
func IsSupersetOf(a, b Set) bool {
	for v := range b {
		if !a.Has(v) {
			return false
		}
	}
	return true
}

// Equal reports whether a and b contain exactly the same elements.
func Equal(a, b Set) bool {
	return len(a) == len(b) && IsSupersetOf(a, b)
}
