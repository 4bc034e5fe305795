package validators

import (
	"fmt"

	"github.com/engmung/portfolio-Nat/domain/core/aggregates"
	"github.com/engmung/portfolio-Nat/pkg/errors"
)

// GraphValidator checks the structural guarantees of a synthesized graph
type GraphValidator struct{}

// NewGraphValidator creates a new graph validator
func NewGraphValidator() *GraphValidator {
	return &GraphValidator{}
}

// ValidateGraph verifies link invariants and that the adjacency index agrees with the
// link list for every node
func (v *GraphValidator) ValidateGraph(g *aggregates.Graph) error {
	if g == nil {
		return errors.NewValidationError("graph is nil")
	}
	if err := g.Validate(); err != nil {
		return errors.NewInternalError("graph invariant violated").WithCause(err)
	}

	incident := make(map[string]int, g.NodeCount())
	for _, l := range g.Links() {
		incident[l.Source.String()]++
		incident[l.Target.String()]++
	}

	for _, n := range g.Nodes() {
		neighbors := g.Neighbors(n.ID())
		links := g.IncidentLinks(n.ID())
		if len(neighbors) != len(links) {
			return errors.NewInternalError(fmt.Sprintf(
				"node %q has %d neighbors but %d links", n.ID(), len(neighbors), len(links)))
		}
		if len(links) != incident[n.ID().String()] {
			return errors.NewInternalError(fmt.Sprintf(
				"node %q indexes %d links, expected %d", n.ID(), len(links), incident[n.ID().String()]))
		}
		for _, id := range links {
			l, ok := g.Link(id)
			if !ok || !l.Touches(n.ID()) {
				return errors.NewInternalError(fmt.Sprintf("node %q indexes foreign link %d", n.ID(), id))
			}
		}
	}
	return nil
}
