package handlers

import (
	"context"
	"errors"

	"github.com/engmung/portfolio-Nat/application/queries"
	"github.com/engmung/portfolio-Nat/domain/core/aggregates"
	"github.com/engmung/portfolio-Nat/domain/core/entities"
	"github.com/engmung/portfolio-Nat/domain/core/valueobjects"
	"github.com/engmung/portfolio-Nat/domain/services"
	"github.com/engmung/portfolio-Nat/domain/versioning"
	apperrors "github.com/engmung/portfolio-Nat/pkg/errors"
)

const excerptLength = 280

// GraphQueryHandlers answers structural questions about the published graph
type GraphQueryHandlers struct {
	snapshots  SnapshotProvider
	classifier *services.Classifier
}

// NewGraphQueryHandlers creates the structural query handlers
func NewGraphQueryHandlers(snapshots SnapshotProvider, classifier *services.Classifier) *GraphQueryHandlers {
	return &GraphQueryHandlers{snapshots: snapshots, classifier: classifier}
}

// GetNode returns the selection detail for one node
func (h *GraphQueryHandlers) GetNode(ctx context.Context, query queries.GetNodeQuery) (*queries.GetNodeResult, error) {
	snap, err := h.snapshots.CurrentOrErr()
	if err != nil {
		return nil, err
	}

	id := parseNodeID(query.NodeID)
	node, ok := snap.Graph.Node(id)
	if !ok {
		return nil, apperrors.ErrNodeNotFound.With("node_id", query.NodeID)
	}

	content := node.Content()
	return &queries.GetNodeResult{
		ID:                node.ID().String(),
		Name:              node.Name(),
		Filename:          node.Filename(),
		Content:           content.Body(),
		Summary:           content.Summary(),
		Excerpt:           content.Excerpt(excerptLength),
		WordCount:         content.WordCount(),
		Level:             node.Level(),
		RawLevel:          node.RawLevel(),
		BelowMinimumLevel: node.BelowMinimumLevel(),
		LevelColor:        h.classifier.LevelColor(node.Level()),
		Tags:              node.Tags().Values(),
		References:        node.References(),
		Neighbors:         idStrings(snap.Graph.Neighbors(id)),
		Degree:            snap.Graph.Degree(id),
	}, nil
}

// GetHighlight computes the hover sets for a node. Blank or unknown ids yield empty sets.
func (h *GraphQueryHandlers) GetHighlight(ctx context.Context, query queries.GetHighlightQuery) (*queries.GetHighlightResult, error) {
	snap, err := h.snapshots.CurrentOrErr()
	if err != nil {
		return nil, err
	}
	return ToHighlightResult(services.ComputeHighlight(snap.Graph, parseNodeID(query.NodeID))), nil
}

// GetClusters lists connected components
func (h *GraphQueryHandlers) GetClusters(ctx context.Context, query queries.GetClustersQuery) (*queries.GetClustersResult, error) {
	snap, err := h.snapshots.CurrentOrErr()
	if err != nil {
		return nil, err
	}

	clusters := snap.Graph.GetClusters()
	result := &queries.GetClustersResult{
		Clusters: make([][]string, len(clusters)),
		Count:    len(clusters),
	}
	for i, cluster := range clusters {
		result.Clusters[i] = idStrings(cluster)
	}
	return result, nil
}

// FindPath returns a shortest path between two nodes
func (h *GraphQueryHandlers) FindPath(ctx context.Context, query queries.FindPathQuery) (*queries.FindPathResult, error) {
	snap, err := h.snapshots.CurrentOrErr()
	if err != nil {
		return nil, err
	}

	path, err := snap.Graph.FindPath(parseNodeID(query.From), parseNodeID(query.To))
	switch {
	case err == nil:
	case errors.Is(err, aggregates.ErrNodeNotFound):
		return nil, apperrors.ErrNodeNotFound.With("from", query.From).With("to", query.To)
	case errors.Is(err, aggregates.ErrNoPath):
		return nil, apperrors.ErrNoPath.With("from", query.From).With("to", query.To)
	default:
		return nil, err
	}

	return &queries.FindPathResult{Path: idStrings(path), Hops: len(path) - 1}, nil
}

// GetVersion returns the published snapshot's version
func (h *GraphQueryHandlers) GetVersion(ctx context.Context, query queries.GetGraphVersionQuery) (*versioning.GraphVersion, error) {
	snap, err := h.snapshots.CurrentOrErr()
	if err != nil {
		return nil, err
	}
	return snap.Version, nil
}

// ToHighlightResult renders highlight sets in sorted order
func ToHighlightResult(h services.Highlight) *queries.GetHighlightResult {
	result := &queries.GetHighlightResult{
		Nodes: h.NodeIDs(),
		Links: h.LinkIDs(),
	}
	if !h.IsEmpty() {
		result.Hovered = h.Hovered.String()
	}
	return result
}

func idStrings(ids []valueobjects.NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func linkInts(ids []entities.LinkID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

func linkID(i int) entities.LinkID {
	return entities.LinkID(i)
}
