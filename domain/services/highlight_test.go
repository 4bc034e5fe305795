package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engmung/portfolio-Nat/domain/core/aggregates"
	"github.com/engmung/portfolio-Nat/domain/core/entities"
	"github.com/engmung/portfolio-Nat/domain/core/valueobjects"
	"github.com/engmung/portfolio-Nat/tests/fixtures"
)

// starGraph: hub linked to a and b; a linked to leaf; lone is isolated
func starGraph(t *testing.T) *aggregates.Graph {
	t.Helper()
	g, err := aggregates.NewGraph(
		[]*entities.Node{
			fixtures.Node("hub", 1, "x"),
			fixtures.Node("a", 2, "x"),
			fixtures.Node("b", 2, "x"),
			fixtures.Node("leaf", 3, "x"),
			fixtures.Node("lone", 1, "y"),
		},
		[]entities.Link{
			fixtures.Link("hub", "a", "x"),
			fixtures.Link("hub", "b", "x"),
			fixtures.Link("a", "leaf", "x"),
		},
	)
	require.NoError(t, err)
	return g
}

func TestComputeHighlight(t *testing.T) {
	g := starGraph(t)

	tests := []struct {
		name      string
		hovered   valueobjects.NodeID
		wantNodes []string
		wantLinks []int
	}{
		{name: "hub and direct neighbors only", hovered: fixtures.ID("hub"), wantNodes: []string{"a", "b", "hub"}, wantLinks: []int{0, 1}},
		{name: "middle node", hovered: fixtures.ID("a"), wantNodes: []string{"a", "hub", "leaf"}, wantLinks: []int{0, 2}},
		{name: "isolated node highlights itself", hovered: fixtures.ID("lone"), wantNodes: []string{"lone"}, wantLinks: []int{}},
		{name: "no hover", hovered: valueobjects.NodeID{}, wantNodes: []string{}, wantLinks: []int{}},
		{name: "unknown node", hovered: fixtures.ID("ghost"), wantNodes: []string{}, wantLinks: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			h := ComputeHighlight(g, tt.hovered)

			// Assert
			assert.Equal(t, tt.wantNodes, h.NodeIDs())
			assert.Equal(t, tt.wantLinks, h.LinkIDs())
		})
	}
}

func TestComputeHighlight_MatchesAdjacency(t *testing.T) {
	g := starGraph(t)

	for _, n := range g.Nodes() {
		h := ComputeHighlight(g, n.ID())

		assert.True(t, h.HasNode(n.ID()))
		assert.True(t, h.IsHovered(n.ID()))
		for _, nb := range g.Neighbors(n.ID()) {
			assert.True(t, h.HasNode(nb))
		}
		for _, id := range g.IncidentLinks(n.ID()) {
			assert.True(t, h.HasLink(id))
			l, _ := g.Link(id)
			assert.True(t, l.Touches(n.ID()))
		}
	}
}

func TestHighlightSession_StateMachine(t *testing.T) {
	// Arrange
	s := NewHighlightSession(starGraph(t))

	// Act & Assert: hover replaces
	h := s.Hover(fixtures.ID("hub"))
	assert.Equal(t, []string{"a", "b", "hub"}, h.NodeIDs())

	h = s.Hover(fixtures.ID("leaf"))
	assert.Equal(t, []string{"a", "leaf"}, h.NodeIDs())
	assert.Equal(t, []int{2}, h.LinkIDs())

	// select leaves highlight untouched
	node, ok := s.Select(fixtures.ID("hub"))
	require.True(t, ok)
	assert.Equal(t, "hub", node.ID().String())
	assert.Equal(t, []string{"a", "leaf"}, s.Current().NodeIDs())
	assert.Equal(t, "hub", s.Selected().String())

	// unknown select keeps the previous selection
	_, ok = s.Select(fixtures.ID("ghost"))
	assert.False(t, ok)
	assert.Equal(t, "hub", s.Selected().String())

	// exit clears
	h = s.Exit()
	assert.True(t, h.IsEmpty())
	assert.True(t, s.Current().IsEmpty())
}

func TestHighlightSession_Rebase(t *testing.T) {
	// Arrange
	s := NewHighlightSession(starGraph(t))
	s.Hover(fixtures.ID("a"))
	_, _ = s.Select(fixtures.ID("lone"))

	smaller, err := aggregates.NewGraph(
		[]*entities.Node{fixtures.Node("a", 2, "x"), fixtures.Node("leaf", 3, "x")},
		[]entities.Link{fixtures.Link("a", "leaf", "x")},
	)
	require.NoError(t, err)

	// Act
	h := s.Rebase(smaller)

	// Assert
	assert.Equal(t, []string{"a", "leaf"}, h.NodeIDs())
	assert.Equal(t, []int{0}, h.LinkIDs())
	assert.True(t, s.Selected().IsZero())

	// Act: hovered node disappears
	h = s.Rebase(aggregates.EmptyGraph())

	// Assert
	assert.True(t, h.IsEmpty())
}

func TestHighlightSession_ConcurrentUse(t *testing.T) {
	s := NewHighlightSession(starGraph(t))
	ids := []string{"hub", "a", "b", "leaf", "lone"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 4 {
				s.Exit()
				return
			}
			s.Hover(fixtures.ID(ids[i%len(ids)]))
		}(i)
	}
	wg.Wait()

	h := s.Current()
	if !h.IsEmpty() {
		assert.True(t, h.HasNode(h.Hovered))
	}
}
