package services

import (
	"sort"
	"sync"

	"github.com/engmung/portfolio-Nat/domain/core/aggregates"
	"github.com/engmung/portfolio-Nat/domain/core/entities"
	"github.com/engmung/portfolio-Nat/domain/core/valueobjects"
)

// Highlight is the set of nodes and links emphasized while a node is hovered.
// A zero Highlight highlights nothing.
type Highlight struct {
	Hovered valueobjects.NodeID
	nodes   map[string]struct{}
	links   map[entities.LinkID]struct{}
}

// ComputeHighlight returns the hovered node, its direct neighbors and its incident
// links. A zero or unknown id yields an empty highlight. The graph is not modified.
func ComputeHighlight(g *aggregates.Graph, hovered valueobjects.NodeID) Highlight {
	if g == nil || hovered.IsZero() || !g.HasNode(hovered) {
		return Highlight{}
	}

	h := Highlight{
		Hovered: hovered,
		nodes:   map[string]struct{}{hovered.String(): {}},
		links:   make(map[entities.LinkID]struct{}),
	}
	for _, n := range g.Neighbors(hovered) {
		h.nodes[n.String()] = struct{}{}
	}
	for _, l := range g.IncidentLinks(hovered) {
		h.links[l] = struct{}{}
	}
	return h
}

// IsEmpty reports whether nothing is highlighted
func (h Highlight) IsEmpty() bool {
	return len(h.nodes) == 0 && len(h.links) == 0
}

// IsHovered reports whether id is the hover origin
func (h Highlight) IsHovered(id valueobjects.NodeID) bool {
	return !h.Hovered.IsZero() && h.Hovered.Equals(id)
}

// HasNode reports whether id is highlighted
func (h Highlight) HasNode(id valueobjects.NodeID) bool {
	_, ok := h.nodes[id.String()]
	return ok
}

// HasLink reports whether the link at index id is highlighted
func (h Highlight) HasLink(id entities.LinkID) bool {
	_, ok := h.links[id]
	return ok
}

// NodeIDs returns the highlighted node ids, sorted
func (h Highlight) NodeIDs() []string {
	out := make([]string, 0, len(h.nodes))
	for id := range h.nodes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// LinkIDs returns the highlighted link indices, sorted
func (h Highlight) LinkIDs() []int {
	out := make([]int, 0, len(h.links))
	for id := range h.links {
		out = append(out, int(id))
	}
	sort.Ints(out)
	return out
}

// HighlightSession is one viewer's hover and selection state.
//
// Hover replaces the highlight, Exit clears it and Select records a node for the detail
// view without touching the highlight. Rebase moves the session onto a new graph.
type HighlightSession struct {
	mu       sync.Mutex
	graph    *aggregates.Graph
	current  Highlight
	selected valueobjects.NodeID
}

// NewHighlightSession starts a session with nothing hovered or selected
func NewHighlightSession(g *aggregates.Graph) *HighlightSession {
	if g == nil {
		g = aggregates.EmptyGraph()
	}
	return &HighlightSession{graph: g}
}

// Hover highlights id and its neighborhood. Unknown ids behave like Exit.
func (s *HighlightSession) Hover(id valueobjects.NodeID) Highlight {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = ComputeHighlight(s.graph, id)
	return s.current
}

// Exit clears the highlight
func (s *HighlightSession) Exit() Highlight {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Highlight{}
	return s.current
}

// Select records id as the selected node and returns it. Unknown ids leave the
// selection unchanged.
func (s *HighlightSession) Select(id valueobjects.NodeID) (*entities.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.graph.Node(id)
	if !ok {
		return nil, false
	}
	s.selected = id
	return node, true
}

// Rebase switches to g and recomputes the highlight. A hovered or selected node that no
// longer exists is dropped.
func (s *HighlightSession) Rebase(g *aggregates.Graph) Highlight {
	if g == nil {
		g = aggregates.EmptyGraph()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph = g
	s.current = ComputeHighlight(g, s.current.Hovered)
	if !s.selected.IsZero() && !g.HasNode(s.selected) {
		s.selected = valueobjects.NodeID{}
	}
	return s.current
}

// Current returns the active highlight
func (s *HighlightSession) Current() Highlight {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Selected returns the selected node id, zero when none
func (s *HighlightSession) Selected() valueobjects.NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Graph returns the graph the session currently works against
func (s *HighlightSession) Graph() *aggregates.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}
