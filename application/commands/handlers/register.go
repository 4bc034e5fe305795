package handlers

import (
	"github.com/engmung/portfolio-Nat/application/commands"
	"github.com/engmung/portfolio-Nat/application/commands/bus"
)

// RegisterAll wires every command handler onto the bus
func RegisterAll(b *bus.CommandBus, refresh *RefreshGraphHandler, knowledge *KnowledgeCommandHandlers) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.RefreshGraphCommand{}, bus.Handle(refresh.Handle)},
		{commands.UploadKnowledgeCommand{}, bus.Handle(knowledge.Upload)},
		{commands.DeleteKnowledgeCommand{}, bus.Handle(knowledge.Delete)},
		{commands.RebuildKnowledgeCommand{}, bus.Handle(knowledge.Rebuild)},
	}

	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}
