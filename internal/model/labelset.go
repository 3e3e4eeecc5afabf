package model

import (
	"encoding/json"
	"slices"
)

// LabelSet is an unordered collection of distinct labels. The zero value is
// an empty set ready to use.
type LabelSet struct {
	items map[string]struct{}
}

// NewLabelSet builds a set from labels, dropping duplicates and empty strings.
func NewLabelSet(labels ...string) LabelSet {
	var s LabelSet
	s.Add(labels...)
	return s
}

// Add inserts labels into the set. Empty strings are ignored.
func (s *LabelSet) Add(labels ...string) {
	for _, l := range labels {
		if l == "" {
			continue
		}
		if s.items == nil {
			s.items = make(map[string]struct{})
		}
		s.items[l] = struct{}{}
	}
}

// Union adds every member of other to s.
func (s *LabelSet) Union(other LabelSet) {
	for l := range other.items {
		s.Add(l)
	}
}

// Has reports whether label is a member.
func (s LabelSet) Has(label string) bool {
	_, ok := s.items[label]
	return ok
}

// Len returns the number of members.
func (s LabelSet) Len() int { return len(s.items) }

// Sorted returns the members in lexical order.
func (s LabelSet) Sorted() []string {
	out := make([]string, 0, len(s.items))
	for l := range s.items {
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}

// Equal reports whether s and other hold the same members.
func (s LabelSet) Equal(other LabelSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for l := range s.items {
		if !other.Has(l) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as a sorted JSON array.
func (s LabelSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes a JSON array into the set.
func (s *LabelSet) UnmarshalJSON(data []byte) error {
	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return err
	}
	*s = NewLabelSet(labels...)
	return nil
}
