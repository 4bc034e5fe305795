package queries

import "github.com/engmung/portfolio-Nat/pkg/utils"

// ListKnowledgeFilesQuery lists the raw items held by the knowledge store
type ListKnowledgeFilesQuery struct{}

// Validate validates the query
func (q ListKnowledgeFilesQuery) Validate() error { return nil }

// KnowledgeFileSummary is one listing entry as the store reports it
type KnowledgeFileSummary struct {
	ID       string   `json:"id"`
	Filename string   `json:"filename,omitempty"`
	Name     string   `json:"name,omitempty"`
	Level    int      `json:"level"`
	Tags     []string `json:"tags"`
}

// ListKnowledgeFilesResult is the store listing
type ListKnowledgeFilesResult struct {
	Files []KnowledgeFileSummary `json:"files"`
	Count int                    `json:"count"`
}

// GetTemplateQuery fetches the starter knowledge file
type GetTemplateQuery struct{}

// Validate validates the query
func (q GetTemplateQuery) Validate() error { return nil }

// DownloadKnowledgeFileQuery fetches a stored knowledge file
type DownloadKnowledgeFileQuery struct {
	Filename string `json:"filename" validate:"required,knowledgefile,max=255"`
}

// Validate validates the query
func (q DownloadKnowledgeFileQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// AskAIQuery forwards a question to the store's assistant
type AskAIQuery struct {
	Query string `json:"query"`
}

// Validate defers to the handler, which knows the configured length limit
func (q AskAIQuery) Validate() error { return nil }

// AskAIResult carries the assistant's answer
type AskAIResult struct {
	Response string `json:"response"`
}
