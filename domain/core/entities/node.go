package entities

import (
	"github.com/engmung/portfolio-Nat/domain/core/valueobjects"
	pkgerrors "github.com/engmung/portfolio-Nat/pkg/errors"
)

// Node is one normalized knowledge item.
// Connectivity is not stored on the node; the graph aggregate owns the adjacency index.
type Node struct {
	id         valueobjects.NodeID
	filename   string
	content    valueobjects.NodeContent
	level      valueobjects.Level
	tags       valueobjects.TagSet
	references []string
}

// NodeParams carries already-normalized item fields
type NodeParams struct {
	ID         string
	Filename   string
	Name       string
	Content    string
	Summary    string
	Level      valueobjects.Level
	Tags       []string
	References []string
}

// NewNode builds a node. The id is the only required field.
func NewNode(p NodeParams) (*Node, error) {
	id, err := valueobjects.NewNodeID(p.ID)
	if err != nil {
		return nil, pkgerrors.NewValidationError("node id cannot be empty")
	}

	refs := make([]string, 0, len(p.References))
	refs = append(refs, p.References...)

	return &Node{
		id:         id,
		filename:   p.Filename,
		content:    valueobjects.NewNodeContent(p.Name, p.Content, p.Summary),
		level:      p.Level,
		tags:       valueobjects.NewTagSet(p.Tags),
		references: refs,
	}, nil
}

// ID returns the node identifier
func (n *Node) ID() valueobjects.NodeID {
	return n.id
}

// Filename returns the knowledge file the item came from
func (n *Node) Filename() string {
	return n.filename
}

// Name returns the display name
func (n *Node) Name() string {
	return n.content.Name()
}

// Content returns the descriptive text
func (n *Node) Content() valueobjects.NodeContent {
	return n.content
}

// Level returns the display level (raw level clamped to the display ceiling)
func (n *Node) Level() int {
	return n.level.Display()
}

// RawLevel returns the level as reported by the store
func (n *Node) RawLevel() int {
	return n.level.Raw()
}

// LevelValue returns the level value object
func (n *Node) LevelValue() valueobjects.Level {
	return n.level
}

// BelowMinimumLevel flags items whose level is under 1
func (n *Node) BelowMinimumLevel() bool {
	return n.level.BelowMinimum()
}

// Tags returns the tag set
func (n *Node) Tags() valueobjects.TagSet {
	return n.tags
}

// HasTag reports tag membership
func (n *Node) HasTag(tag string) bool {
	return n.tags.Has(tag)
}

// References returns a copy of the item's references
func (n *Node) References() []string {
	out := make([]string, len(n.references))
	copy(out, n.references)
	return out
}

// CommonTags returns tags shared with other, in this node's tag order
func (n *Node) CommonTags(other *Node) []string {
	return n.tags.Intersect(other.tags)
}
