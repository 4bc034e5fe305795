package handlers

import (
	"github.com/engmung/portfolio-Nat/application/queries"
	"github.com/engmung/portfolio-Nat/application/queries/bus"
)

// RegisterAll wires every query handler onto the bus
func RegisterAll(b *bus.QueryBus, graph *GetGraphDataHandler, structure *GraphQueryHandlers, knowledge *KnowledgeQueryHandlers) error {
	registrations := []struct {
		query   bus.Query
		handler bus.QueryHandler
	}{
		{queries.GetGraphDataQuery{}, bus.Handle(graph.Handle)},
		{queries.GetGraphVersionQuery{}, bus.Handle(structure.GetVersion)},
		{queries.GetNodeQuery{}, bus.Handle(structure.GetNode)},
		{queries.GetHighlightQuery{}, bus.Handle(structure.GetHighlight)},
		{queries.GetClustersQuery{}, bus.Handle(structure.GetClusters)},
		{queries.FindPathQuery{}, bus.Handle(structure.FindPath)},
		{queries.ListKnowledgeFilesQuery{}, bus.Handle(knowledge.ListFiles)},
		{queries.GetTemplateQuery{}, bus.Handle(knowledge.GetTemplate)},
		{queries.DownloadKnowledgeFileQuery{}, bus.Handle(knowledge.Download)},
		{queries.AskAIQuery{}, bus.Handle(knowledge.AskAI)},
	}

	for _, r := range registrations {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}
