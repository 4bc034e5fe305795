package entities

import (
	"github.com/engmung/portfolio-Nat/domain/core/valueobjects"
)

// LinkID is the position of a link in its graph's link sequence
type LinkID int

// Link connects two nodes that share at least one tag
type Link struct {
	Source     valueobjects.NodeID
	Target     valueobjects.NodeID
	CommonTags []string
}

// NewLink returns nil for self-loops or links without shared tags
func NewLink(source, target valueobjects.NodeID, commonTags []string) *Link {
	if source.Equals(target) || len(commonTags) == 0 {
		return nil
	}
	tags := make([]string, len(commonTags))
	copy(tags, commonTags)
	return &Link{Source: source, Target: target, CommonTags: tags}
}

// Touches reports whether id is one of the link's endpoints
func (l Link) Touches(id valueobjects.NodeID) bool {
	return l.Source.Equals(id) || l.Target.Equals(id)
}

// Other returns the endpoint opposite to id
func (l Link) Other(id valueobjects.NodeID) valueobjects.NodeID {
	if l.Source.Equals(id) {
		return l.Target
	}
	return l.Source
}

// PairKey is an unordered key for a node pair: lower id first
type PairKey struct {
	Low  string
	High string
}

// NewPairKey builds the canonical key for a and b
func NewPairKey(a, b valueobjects.NodeID) PairKey {
	if b.Less(a) {
		a, b = b, a
	}
	return PairKey{Low: a.String(), High: b.String()}
}

// Key returns the link's canonical pair key
func (l Link) Key() PairKey {
	return NewPairKey(l.Source, l.Target)
}
