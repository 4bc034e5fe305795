package aggregates

import (
	"github.com/engmung/portfolio-Nat/domain/core/entities"
	"github.com/engmung/portfolio-Nat/domain/core/valueobjects"
)

// Adjacency maps each node to its neighbors and incident links.
// It is built once from a complete node and link set and never mutated afterwards.
type Adjacency struct {
	neighbors map[string][]valueobjects.NodeID
	links     map[string][]entities.LinkID
}

// BuildAdjacency indexes links by endpoint. For every link both endpoints gain the
// other as a neighbor and the link index as incident, so a node's neighbor list and
// link list always have the same length. Duplicate links produce duplicate entries.
// Links with an endpoint outside nodes are ignored.
func BuildAdjacency(nodes []*entities.Node, links []entities.Link) *Adjacency {
	adj := &Adjacency{
		neighbors: make(map[string][]valueobjects.NodeID, len(nodes)),
		links:     make(map[string][]entities.LinkID, len(nodes)),
	}

	for _, n := range nodes {
		key := n.ID().String()
		adj.neighbors[key] = []valueobjects.NodeID{}
		adj.links[key] = []entities.LinkID{}
	}

	for i, l := range links {
		src, tgt := l.Source.String(), l.Target.String()
		if _, ok := adj.neighbors[src]; !ok {
			continue
		}
		if _, ok := adj.neighbors[tgt]; !ok {
			continue
		}

		id := entities.LinkID(i)
		adj.neighbors[src] = append(adj.neighbors[src], l.Target)
		adj.neighbors[tgt] = append(adj.neighbors[tgt], l.Source)
		adj.links[src] = append(adj.links[src], id)
		adj.links[tgt] = append(adj.links[tgt], id)
	}

	return adj
}

// Neighbors returns a copy of id's neighbor list; nil for unknown ids
func (a *Adjacency) Neighbors(id valueobjects.NodeID) []valueobjects.NodeID {
	ns, ok := a.neighbors[id.String()]
	if !ok {
		return nil
	}
	out := make([]valueobjects.NodeID, len(ns))
	copy(out, ns)
	return out
}

// Links returns a copy of id's incident link indices; nil for unknown ids
func (a *Adjacency) Links(id valueobjects.NodeID) []entities.LinkID {
	ls, ok := a.links[id.String()]
	if !ok {
		return nil
	}
	out := make([]entities.LinkID, len(ls))
	copy(out, ls)
	return out
}

// Degree returns the number of incident links, duplicates included
func (a *Adjacency) Degree(id valueobjects.NodeID) int {
	return len(a.links[id.String()])
}

// Contains reports whether id was part of the indexed node set
func (a *Adjacency) Contains(id valueobjects.NodeID) bool {
	_, ok := a.neighbors[id.String()]
	return ok
}
