package queries

import "github.com/engmung/portfolio-Nat/pkg/utils"

// GetClustersQuery lists connected components of the published graph
type GetClustersQuery struct{}

// Validate validates the query
func (q GetClustersQuery) Validate() error { return nil }

// CacheKey returns a constant key; the graph version scopes it
func (q GetClustersQuery) CacheKey() string { return "all" }

// GetClustersResult holds components in first-seen order
type GetClustersResult struct {
	Clusters [][]string `json:"clusters"`
	Count    int        `json:"count"`
}

// FindPathQuery asks for the shortest path between two nodes, ignoring link direction
type FindPathQuery struct {
	From string `json:"from" validate:"required,max=512"`
	To   string `json:"to" validate:"required,max=512"`
}

// Validate validates the query
func (q FindPathQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// CacheKey scopes cached paths by endpoints
func (q FindPathQuery) CacheKey() string {
	return q.From + "->" + q.To
}

// FindPathResult is the node sequence from From to To inclusive
type FindPathResult struct {
	Path []string `json:"path"`
	Hops int      `json:"hops"`
}
