package queries

import (
	"github.com/engmung/portfolio-Nat/domain/versioning"
	"github.com/engmung/portfolio-Nat/pkg/utils"
)

// GetGraphDataQuery represents a query for full graph visualization data.
// Hover optionally names the node under the pointer.
type GetGraphDataQuery struct {
	Hover string `json:"hover,omitempty" validate:"max=512"`
}

// Validate validates the query
func (q GetGraphDataQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// CacheKey scopes cached views by hover target
func (q GetGraphDataQuery) CacheKey() string {
	return "hover=" + q.Hover
}

// GetGraphDataResult represents the complete graph data for visualization
type GetGraphDataResult struct {
	Nodes   []GraphNode              `json:"nodes"`
	Links   []GraphLink              `json:"links"`
	Stats   GraphStats               `json:"stats"`
	Version *versioning.GraphVersion `json:"version"`
	Hovered string                   `json:"hovered,omitempty"`
}

// GraphNode is a node with its display attributes and back-references
type GraphNode struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Filename          string   `json:"filename,omitempty"`
	Level             int      `json:"level"`
	RawLevel          int      `json:"raw_level"`
	BelowMinimumLevel bool     `json:"below_minimum_level,omitempty"`
	Tags              []string `json:"tags"`
	Summary           string   `json:"summary,omitempty"`
	Color             string   `json:"color"`
	Size              int      `json:"size"`
	Weight            string   `json:"weight"`
	LevelColor        string   `json:"level_color"`
	Highlighted       bool     `json:"highlighted"`
	Neighbors         []string `json:"neighbors"`
	Links             []int    `json:"links"`
}

// GraphLink is a link with its display color. Index is the position in the link list.
type GraphLink struct {
	Index       int      `json:"index"`
	Source      string   `json:"source"`
	Target      string   `json:"target"`
	CommonTags  []string `json:"common_tags"`
	Color       string   `json:"color"`
	Highlighted bool     `json:"highlighted"`
}

// GraphStats contains graph statistics
type GraphStats struct {
	NodeCount       int         `json:"node_count"`
	LinkCount       int         `json:"link_count"`
	UniquePairCount int         `json:"unique_pair_count"`
	ClusterCount    int         `json:"cluster_count"`
	IsolatedCount   int         `json:"isolated_count"`
	MaxDegree       int         `json:"max_degree"`
	Density         float64     `json:"density"`
	LevelCounts     map[int]int `json:"level_counts"`
	DroppedItems    int         `json:"dropped_items"`
}

// GetGraphVersionQuery asks for the published snapshot's version
type GetGraphVersionQuery struct{}

// Validate validates the query
func (q GetGraphVersionQuery) Validate() error { return nil }
