package commands

import "github.com/engmung/portfolio-Nat/pkg/utils"

// RefreshGraphCommand rebuilds the graph from the current store listing
type RefreshGraphCommand struct {
	Reason string `json:"reason" validate:"max=64"`
}

// Validate validates the command
func (c RefreshGraphCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// UploadKnowledgeCommand stores a knowledge file and refreshes the graph
type UploadKnowledgeCommand struct {
	Filename string `json:"filename" validate:"required,max=255"`
	Content  []byte `json:"-"`
	UserID   string `json:"user_id,omitempty"`
}

// Validate validates the command. Type and size rules live in the handler's validator.
func (c UploadKnowledgeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DeleteKnowledgeCommand removes a knowledge file and refreshes the graph
type DeleteKnowledgeCommand struct {
	Filename string `json:"filename" validate:"required,knowledgefile,max=255"`
	UserID   string `json:"user_id,omitempty"`
}

// Validate validates the command
func (c DeleteKnowledgeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// RebuildKnowledgeCommand asks the store to re-index, guarded by a distributed lock
type RebuildKnowledgeCommand struct {
	UserID string `json:"user_id,omitempty"`
}

// Validate validates the command
func (c RebuildKnowledgeCommand) Validate() error { return nil }
