package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/queries"
	"github.com/engmung/portfolio-Nat/application/services"
	"github.com/engmung/portfolio-Nat/domain/core/aggregates"
	"github.com/engmung/portfolio-Nat/domain/core/valueobjects"
	domainservices "github.com/engmung/portfolio-Nat/domain/services"
)

// SnapshotProvider exposes the currently published graph
type SnapshotProvider interface {
	CurrentOrErr() (*services.Snapshot, error)
}

// GetGraphDataHandler handles graph data visualization queries
type GetGraphDataHandler struct {
	snapshots  SnapshotProvider
	classifier *domainservices.Classifier
	logger     *zap.Logger
}

// NewGetGraphDataHandler creates a new graph data handler
func NewGetGraphDataHandler(
	snapshots SnapshotProvider,
	classifier *domainservices.Classifier,
	logger *zap.Logger,
) *GetGraphDataHandler {
	return &GetGraphDataHandler{
		snapshots:  snapshots,
		classifier: classifier,
		logger:     logger,
	}
}

// Handle executes the graph data query. An unknown hover id renders like no hover.
func (h *GetGraphDataHandler) Handle(ctx context.Context, query queries.GetGraphDataQuery) (*queries.GetGraphDataResult, error) {
	snap, err := h.snapshots.CurrentOrErr()
	if err != nil {
		return nil, err
	}

	hovered := parseNodeID(query.Hover)
	highlight := domainservices.ComputeHighlight(snap.Graph, hovered)
	if !hovered.IsZero() && highlight.IsEmpty() {
		h.logger.Debug("Hover target not in graph", zap.String("hover", query.Hover))
	}

	result := BuildGraphData(snap, highlight, h.classifier)
	return result, nil
}

// BuildGraphData renders a snapshot with display attributes for the given highlight
func BuildGraphData(snap *services.Snapshot, highlight domainservices.Highlight, classifier *domainservices.Classifier) *queries.GetGraphDataResult {
	g := snap.Graph
	result := &queries.GetGraphDataResult{
		Nodes:   make([]queries.GraphNode, 0, g.NodeCount()),
		Links:   make([]queries.GraphLink, 0, g.LinkCount()),
		Stats:   toGraphStats(g.Stats(), len(snap.Dropped)),
		Version: snap.Version,
	}
	if !highlight.IsEmpty() {
		result.Hovered = highlight.Hovered.String()
	}

	for _, node := range g.Nodes() {
		display := classifier.Classify(node, highlight)
		result.Nodes = append(result.Nodes, queries.GraphNode{
			ID:                node.ID().String(),
			Name:              node.Name(),
			Filename:          node.Filename(),
			Level:             node.Level(),
			RawLevel:          node.RawLevel(),
			BelowMinimumLevel: node.BelowMinimumLevel(),
			Tags:              node.Tags().Values(),
			Summary:           node.Content().Summary(),
			Color:             display.Color,
			Size:              display.Size,
			Weight:            display.Weight,
			LevelColor:        display.LevelColor,
			Highlighted:       highlight.HasNode(node.ID()),
			Neighbors:         idStrings(g.Neighbors(node.ID())),
			Links:             linkInts(g.IncidentLinks(node.ID())),
		})
	}

	for i, link := range g.Links() {
		id := linkID(i)
		result.Links = append(result.Links, queries.GraphLink{
			Index:       i,
			Source:      link.Source.String(),
			Target:      link.Target.String(),
			CommonTags:  append([]string{}, link.CommonTags...),
			Color:       classifier.LinkColor(id, highlight),
			Highlighted: highlight.HasLink(id),
		})
	}

	return result
}

func toGraphStats(s aggregates.Stats, dropped int) queries.GraphStats {
	return queries.GraphStats{
		NodeCount:       s.NodeCount,
		LinkCount:       s.LinkCount,
		UniquePairCount: s.UniquePairCount,
		ClusterCount:    s.ClusterCount,
		IsolatedCount:   s.IsolatedCount,
		MaxDegree:       s.MaxDegree,
		Density:         s.Density,
		LevelCounts:     s.LevelCounts,
		DroppedItems:    dropped,
	}
}

// parseNodeID returns the zero id for blank input
func parseNodeID(raw string) valueobjects.NodeID {
	id, err := valueobjects.NewNodeID(raw)
	if err != nil {
		return valueobjects.NodeID{}
	}
	return id
}
