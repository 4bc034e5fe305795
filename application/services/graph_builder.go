package services

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/domain/config"
	"github.com/engmung/portfolio-Nat/domain/core/aggregates"
	"github.com/engmung/portfolio-Nat/domain/core/validators"
	domainservices "github.com/engmung/portfolio-Nat/domain/services"
)

// BuildResult is a freshly synthesized graph plus what was discarded on the way
type BuildResult struct {
	Graph   *aggregates.Graph
	Dropped []domainservices.DroppedItem
	Mode    config.SynthesisMode
}

// GraphBuilder turns a raw listing into a validated graph.
// Normalization, link synthesis and adjacency are recomputed wholesale on every call.
type GraphBuilder struct {
	normalizer  *domainservices.Normalizer
	synthesizer *domainservices.LinkSynthesizer
	validator   *validators.GraphValidator
	logger      *zap.Logger
}

// NewGraphBuilder creates a builder configured from the domain rules
func NewGraphBuilder(cfg *config.DomainConfig, logger *zap.Logger) *GraphBuilder {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphBuilder{
		normalizer:  domainservices.NewNormalizer(cfg, logger),
		synthesizer: domainservices.NewLinkSynthesizer(cfg.SynthesisMode, logger),
		validator:   validators.NewGraphValidator(),
		logger:      logger,
	}
}

// Mode reports the synthesis mode in use
func (b *GraphBuilder) Mode() config.SynthesisMode {
	return b.synthesizer.Mode()
}

// Build normalizes, links and indexes the listing
func (b *GraphBuilder) Build(raws []domainservices.RawItem) (*BuildResult, error) {
	normalized := b.normalizer.NormalizeAll(raws)
	for _, d := range normalized.Dropped {
		b.logger.Warn("Dropped knowledge item",
			zap.Int("position", d.Position),
			zap.String("id", d.ID),
			zap.String("reason", d.Reason),
		)
	}

	links := b.synthesizer.Synthesize(normalized.Nodes)

	graph, err := aggregates.NewGraph(normalized.Nodes, links)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble graph: %w", err)
	}
	if err := b.validator.ValidateGraph(graph); err != nil {
		return nil, fmt.Errorf("graph failed validation: %w", err)
	}

	b.logger.Debug("Graph built",
		zap.Int("items", len(raws)),
		zap.Int("nodes", graph.NodeCount()),
		zap.Int("links", graph.LinkCount()),
		zap.String("mode", string(b.Mode())),
	)

	return &BuildResult{
		Graph:   graph,
		Dropped: normalized.Dropped,
		Mode:    b.Mode(),
	}, nil
}
