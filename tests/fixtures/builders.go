package fixtures

import (
	"fmt"

	"github.com/engmung/portfolio-Nat/domain/core/entities"
	"github.com/engmung/portfolio-Nat/domain/core/valueobjects"
)

// NodeBuilder helps create test nodes with default values
type NodeBuilder struct {
	id       string
	filename string
	name     string
	content  string
	level    int
	ceiling  int
	tags     []string
}

// NewNodeBuilder returns a level-1 node tagged "test"
func NewNodeBuilder() *NodeBuilder {
	return &NodeBuilder{
		id:      "node",
		name:    "Test Node",
		content: "Test content",
		level:   1,
		ceiling: 4,
		tags:    []string{"test"},
	}
}

func (b *NodeBuilder) WithID(id string) *NodeBuilder {
	b.id = id
	if b.filename == "" {
		b.filename = id + ".yaml"
	}
	return b
}

func (b *NodeBuilder) WithName(name string) *NodeBuilder {
	b.name = name
	return b
}

func (b *NodeBuilder) WithLevel(level int) *NodeBuilder {
	b.level = level
	return b
}

func (b *NodeBuilder) WithTags(tags ...string) *NodeBuilder {
	b.tags = tags
	return b
}

// Build creates the node, panicking on invalid input
func (b *NodeBuilder) Build() *entities.Node {
	node, err := entities.NewNode(entities.NodeParams{
		ID:       b.id,
		Filename: b.filename,
		Name:     b.name,
		Content:  b.content,
		Level:    valueobjects.NewLevel(b.level, b.ceiling, false),
		Tags:     b.tags,
	})
	if err != nil {
		panic(fmt.Sprintf("fixture node %q: %v", b.id, err))
	}
	return node
}

// Node is shorthand for a node with an id, a level and tags
func Node(id string, level int, tags ...string) *entities.Node {
	return NewNodeBuilder().WithID(id).WithName(id).WithLevel(level).WithTags(tags...).Build()
}

// Link is shorthand for a link between two ids
func Link(source, target string, tags ...string) entities.Link {
	return entities.Link{
		Source:     valueobjects.MustNodeID(source),
		Target:     valueobjects.MustNodeID(target),
		CommonTags: tags,
	}
}

// ID is shorthand for a NodeID
func ID(id string) valueobjects.NodeID {
	return valueobjects.MustNodeID(id)
}

