package queries

import "github.com/engmung/portfolio-Nat/pkg/utils"

// GetNodeQuery represents a query to get a single node
type GetNodeQuery struct {
	NodeID string `json:"node_id" validate:"required,max=512"`
}

// Validate validates the GetNodeQuery
func (q GetNodeQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// CacheKey scopes cached details by node
func (q GetNodeQuery) CacheKey() string {
	return q.NodeID
}

// GetNodeResult is the detail view handed to the selection panel
type GetNodeResult struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Filename          string   `json:"filename,omitempty"`
	Content           string   `json:"content"`
	Summary           string   `json:"summary,omitempty"`
	Excerpt           string   `json:"excerpt,omitempty"`
	WordCount         int      `json:"word_count"`
	Level             int      `json:"level"`
	RawLevel          int      `json:"raw_level"`
	BelowMinimumLevel bool     `json:"below_minimum_level,omitempty"`
	LevelColor        string   `json:"level_color"`
	Tags              []string `json:"tags"`
	References        []string `json:"references"`
	Neighbors         []string `json:"neighbors"`
	Degree            int      `json:"degree"`
}

// GetHighlightQuery computes the hover highlight for a node
type GetHighlightQuery struct {
	NodeID string `json:"node_id" validate:"max=512"`
}

// Validate validates the query
func (q GetHighlightQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// CacheKey scopes cached highlights by node
func (q GetHighlightQuery) CacheKey() string {
	return q.NodeID
}

// GetHighlightResult lists the highlighted node ids and link indices
type GetHighlightResult struct {
	Hovered string   `json:"hovered,omitempty"`
	Nodes   []string `json:"nodes"`
	Links   []int    `json:"links"`
}
