package aggregates

import (
	"errors"
	"fmt"
	"sort"

	"github.com/engmung/portfolio-Nat/domain/core/entities"
	"github.com/engmung/portfolio-Nat/domain/core/valueobjects"
)

var (
	ErrDuplicateNode = errors.New("duplicate node id")
	ErrNodeNotFound  = errors.New("node not found")
	ErrNoPath        = errors.New("no path exists between nodes")
)

// Graph is the aggregate root for one synthesized knowledge graph.
// It is immutable once built; a refresh builds a new Graph from scratch.
type Graph struct {
	nodes     []*entities.Node
	byID      map[string]int
	links     []entities.Link
	adjacency *Adjacency
}

// Stats summarizes a graph's shape
type Stats struct {
	NodeCount       int         `json:"node_count"`
	LinkCount       int         `json:"link_count"`
	UniquePairCount int         `json:"unique_pair_count"`
	ClusterCount    int         `json:"cluster_count"`
	IsolatedCount   int         `json:"isolated_count"`
	MaxDegree       int         `json:"max_degree"`
	Density         float64     `json:"density"`
	LevelCounts     map[int]int `json:"level_counts"`
}

// NewGraph builds the aggregate and its adjacency index. Node order is preserved.
func NewGraph(nodes []*entities.Node, links []entities.Link) (*Graph, error) {
	g := &Graph{
		nodes: make([]*entities.Node, 0, len(nodes)),
		byID:  make(map[string]int, len(nodes)),
		links: make([]entities.Link, len(links)),
	}

	for _, n := range nodes {
		if n == nil {
			continue
		}
		key := n.ID().String()
		if _, exists := g.byID[key]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, key)
		}
		g.byID[key] = len(g.nodes)
		g.nodes = append(g.nodes, n)
	}
	copy(g.links, links)

	if err := g.Validate(); err != nil {
		return nil, err
	}

	g.adjacency = BuildAdjacency(g.nodes, g.links)
	return g, nil
}

// EmptyGraph returns a graph with no nodes and no links
func EmptyGraph() *Graph {
	g, _ := NewGraph(nil, nil)
	return g
}

// Nodes returns the nodes in input order
func (g *Graph) Nodes() []*entities.Node {
	out := make([]*entities.Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Links returns the links; a link's index is its LinkID
func (g *Graph) Links() []entities.Link {
	out := make([]entities.Link, len(g.links))
	copy(out, g.links)
	return out
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int { return len(g.nodes) }

// LinkCount returns the number of links, duplicates included
func (g *Graph) LinkCount() int { return len(g.links) }

// Node looks a node up by id
func (g *Graph) Node(id valueobjects.NodeID) (*entities.Node, bool) {
	i, ok := g.byID[id.String()]
	if !ok {
		return nil, false
	}
	return g.nodes[i], true
}

// HasNode checks if a node exists in the graph
func (g *Graph) HasNode(id valueobjects.NodeID) bool {
	_, ok := g.byID[id.String()]
	return ok
}

// Link returns the link at index id
func (g *Graph) Link(id entities.LinkID) (entities.Link, bool) {
	if int(id) < 0 || int(id) >= len(g.links) {
		return entities.Link{}, false
	}
	return g.links[id], true
}

// Neighbors returns the direct neighbors of id, one entry per incident link
func (g *Graph) Neighbors(id valueobjects.NodeID) []valueobjects.NodeID {
	return g.adjacency.Neighbors(id)
}

// IncidentLinks returns the indices of links touching id
func (g *Graph) IncidentLinks(id valueobjects.NodeID) []entities.LinkID {
	return g.adjacency.Links(id)
}

// Degree returns the number of links touching id
func (g *Graph) Degree(id valueobjects.NodeID) int {
	return g.adjacency.Degree(id)
}

// FindPath finds a shortest path between two nodes using BFS. Links are undirected.
func (g *Graph) FindPath(startID, endID valueobjects.NodeID) ([]valueobjects.NodeID, error) {
	if !g.HasNode(startID) {
		return nil, fmt.Errorf("start %w: %s", ErrNodeNotFound, startID)
	}
	if !g.HasNode(endID) {
		return nil, fmt.Errorf("end %w: %s", ErrNodeNotFound, endID)
	}

	if startID.Equals(endID) {
		return []valueobjects.NodeID{startID}, nil
	}

	visited := map[string]bool{startID.String(): true}
	parent := make(map[string]valueobjects.NodeID)
	queue := []valueobjects.NodeID{startID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range g.adjacency.Neighbors(current) {
			if visited[next.String()] {
				continue
			}
			visited[next.String()] = true
			parent[next.String()] = current

			if next.Equals(endID) {
				path := []valueobjects.NodeID{endID}
				for n := endID; !n.Equals(startID); {
					n = parent[n.String()]
					path = append([]valueobjects.NodeID{n}, path...)
				}
				return path, nil
			}
			queue = append(queue, next)
		}
	}

	return nil, ErrNoPath
}

// GetClusters returns connected components. Components are ordered by their first
// node in input order, and members keep input order.
func (g *Graph) GetClusters() [][]valueobjects.NodeID {
	visited := make(map[string]bool, len(g.nodes))
	var clusters [][]valueobjects.NodeID

	for _, n := range g.nodes {
		if visited[n.ID().String()] {
			continue
		}
		members := g.dfs(n.ID(), visited)
		sort.Slice(members, func(i, j int) bool {
			return g.byID[members[i].String()] < g.byID[members[j].String()]
		})
		clusters = append(clusters, members)
	}

	return clusters
}

// Stats computes summary statistics
func (g *Graph) Stats() Stats {
	s := Stats{
		NodeCount:   len(g.nodes),
		LinkCount:   len(g.links),
		LevelCounts: make(map[int]int),
	}

	pairs := make(map[entities.PairKey]struct{}, len(g.links))
	for _, l := range g.links {
		pairs[l.Key()] = struct{}{}
	}
	s.UniquePairCount = len(pairs)

	for _, n := range g.nodes {
		s.LevelCounts[n.Level()]++
		d := g.adjacency.Degree(n.ID())
		if d == 0 {
			s.IsolatedCount++
		}
		if d > s.MaxDegree {
			s.MaxDegree = d
		}
	}

	s.ClusterCount = len(g.GetClusters())

	if n := len(g.nodes); n > 1 {
		s.Density = float64(s.UniquePairCount) / (float64(n) * float64(n-1) / 2)
	}

	return s
}

// Validate ensures graph invariants: no dangling endpoints, no self-loops and
// every link carries at least one shared tag.
func (g *Graph) Validate() error {
	for i, l := range g.links {
		if _, ok := g.byID[l.Source.String()]; !ok {
			return fmt.Errorf("link %d references non-existent source node %q", i, l.Source)
		}
		if _, ok := g.byID[l.Target.String()]; !ok {
			return fmt.Errorf("link %d references non-existent target node %q", i, l.Target)
		}
		if l.Source.Equals(l.Target) {
			return fmt.Errorf("link %d is a self-loop on %q", i, l.Source)
		}
		if len(l.CommonTags) == 0 {
			return fmt.Errorf("link %d has no common tags", i)
		}
	}
	return nil
}

func (g *Graph) dfs(start valueobjects.NodeID, visited map[string]bool) []valueobjects.NodeID {
	var cluster []valueobjects.NodeID
	stack := []valueobjects.NodeID{start}
	visited[start.String()] = true

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cluster = append(cluster, current)

		for _, next := range g.adjacency.Neighbors(current) {
			if !visited[next.String()] {
				visited[next.String()] = true
				stack = append(stack, next)
			}
		}
	}

	return cluster
}
