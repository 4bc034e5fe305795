package valueobjects

import "encoding/json"

// TagSet is an ordered, de-duplicated list of tags with set membership.
// Matching is case-sensitive: "AI" and "ai" are different tags.
type TagSet struct {
	order []string
	index map[string]struct{}
}

// NewTagSet builds a TagSet keeping first occurrences and dropping empty strings
func NewTagSet(tags []string) TagSet {
	ts := TagSet{order: make([]string, 0, len(tags)), index: make(map[string]struct{}, len(tags))}
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := ts.index[t]; ok {
			continue
		}
		ts.index[t] = struct{}{}
		ts.order = append(ts.order, t)
	}
	return ts
}

// Has reports membership
func (ts TagSet) Has(tag string) bool {
	_, ok := ts.index[tag]
	return ok
}

// Len returns the number of distinct tags
func (ts TagSet) Len() int { return len(ts.order) }

// IsEmpty reports whether the set has no tags
func (ts TagSet) IsEmpty() bool { return len(ts.order) == 0 }

// Values returns a copy of the tags in insertion order
func (ts TagSet) Values() []string {
	out := make([]string, len(ts.order))
	copy(out, ts.order)
	return out
}

// Intersect returns the tags shared with other, in this set's order
func (ts TagSet) Intersect(other TagSet) []string {
	var common []string
	for _, t := range ts.order {
		if other.Has(t) {
			common = append(common, t)
		}
	}
	return common
}

// MarshalJSON always encodes an array, never null
func (ts TagSet) MarshalJSON() ([]byte, error) {
	if ts.order == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(ts.order)
}
