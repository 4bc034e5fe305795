package services

import (
	"sync/atomic"

	"github.com/engmung/portfolio-Nat/domain/config"
	"github.com/engmung/portfolio-Nat/domain/core/entities"
)

// NodeDisplay holds the display attributes of one node
type NodeDisplay struct {
	Color      string `json:"color"`
	Size       int    `json:"size"`
	Weight     string `json:"weight"`
	LevelColor string `json:"level_color"`
}

// Classifier maps nodes and links to display attributes. The palette can be swapped
// at runtime; each call reads one consistent palette.
type Classifier struct {
	palette atomic.Pointer[config.Palette]
}

// NewClassifier creates a classifier over p
func NewClassifier(p config.Palette) *Classifier {
	c := &Classifier{}
	c.SetPalette(p)
	return c
}

// SetPalette replaces the lookup tables
func (c *Classifier) SetPalette(p config.Palette) {
	merged := p.Merge(config.DefaultPalette())
	c.palette.Store(&merged)
}

// Palette returns the active lookup tables
func (c *Classifier) Palette() config.Palette {
	return *c.palette.Load()
}

// NodeColor returns the hover color for the hover origin, the neighbor color for other
// highlighted nodes, and otherwise the color of the first palette tag the node carries.
func (c *Classifier) NodeColor(node *entities.Node, h Highlight) string {
	return nodeColor(c.palette.Load(), node, h)
}

// NodeSize maps a display level to a label size
func (c *Classifier) NodeSize(level int) int {
	return nodeSize(c.palette.Load(), level)
}

// NodeWeight maps a display level to a font weight
func (c *Classifier) NodeWeight(level int) string {
	return nodeWeight(c.palette.Load(), level)
}

// LevelColor maps a level to its palette color
func (c *Classifier) LevelColor(level int) string {
	p := c.palette.Load()
	if color, ok := p.LevelColors[level]; ok {
		return color
	}
	return p.DefaultLevelColor
}

// LinkColor returns the highlight color for highlighted links
func (c *Classifier) LinkColor(id entities.LinkID, h Highlight) string {
	p := c.palette.Load()
	if h.HasLink(id) {
		return p.LinkHighlightColor
	}
	return p.LinkColor
}

// Classify computes every display attribute of node at once
func (c *Classifier) Classify(node *entities.Node, h Highlight) NodeDisplay {
	p := c.palette.Load()
	level := node.Level()
	levelColor, ok := p.LevelColors[level]
	if !ok {
		levelColor = p.DefaultLevelColor
	}
	return NodeDisplay{
		Color:      nodeColor(p, node, h),
		Size:       nodeSize(p, level),
		Weight:     nodeWeight(p, level),
		LevelColor: levelColor,
	}
}

func nodeColor(p *config.Palette, node *entities.Node, h Highlight) string {
	if h.IsHovered(node.ID()) {
		return p.HoverColor
	}
	if h.HasNode(node.ID()) {
		return p.NeighborColor
	}
	for _, tc := range p.TagColors {
		if node.HasTag(tc.Tag) {
			return tc.Color
		}
	}
	return p.DefaultColor
}

func nodeSize(p *config.Palette, level int) int {
	if size, ok := p.Sizes[level]; ok {
		return size
	}
	return p.DefaultSize
}

func nodeWeight(p *config.Palette, level int) string {
	if w, ok := p.Weights[level]; ok {
		return w
	}
	return p.DefaultWeight
}
