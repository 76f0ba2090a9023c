package model

import "github.com/google/uuid"

// DataSourceType distinguishes an API-style Integration from a
// warehouse-style Connection once both are projected to the shared
// DataSource shape consumed by the AI agent chain.
type DataSourceType string

const (
	// DataSourceTypeIntegration marks a DataSource sourced from an
	// Integration.
	DataSourceTypeIntegration DataSourceType = "integration"
	// DataSourceTypeWarehouse marks a DataSource sourced from a Connection.
	DataSourceTypeWarehouse DataSourceType = "warehouse"
)

// DataSource is the shape the AI agent chain and its retrievers consume,
// regardless of whether it originated from an Integration or a Connection.
type DataSource struct {
	OrganizationID uuid.UUID
	ID             uuid.UUID
	Slug           string
	Name           string
	Type           DataSourceType
	Schema         any
	Metadata       map[string]any
}

// TrainingPrompt is a hint supplied to the RAG step: an example message and
// the sources that should back it.
type TrainingPrompt struct {
	Message   string
	Sources   []string
	createdAt int64
	updatedAt int64
}

// Clone returns a value copy of the prompt with a fresh identity. Training
// prompts have no independent ID in this model; clone only needs to copy
// field values so the owning AgentVersion.Clone can attach it to a new
// version.
func (p *TrainingPrompt) Clone() *TrainingPrompt {
	clone := *p
	return &clone
}

// IsChanged reports whether the prompt was modified after creation.
func (p *TrainingPrompt) IsChanged() bool {
	return p.updatedAt > p.createdAt
}

// Touch records a modification timestamp for IsChanged to observe. Callers
// that mutate a TrainingPrompt's Message or Sources after construction
// should call Touch with a monotonically increasing clock value.
func (p *TrainingPrompt) Touch(at int64) {
	if p.createdAt == 0 {
		p.createdAt = at
	}
	p.updatedAt = at
}

// AgentInfo is the read-only snapshot of agent configuration the AI agent
// chain consumes to build a system prompt and pick retrieval scope.
type AgentInfo struct {
	Name            string
	Description     string
	Instructions    string
	Knowledge       string
	DataSources     []DataSource
	TrainingPrompts []TrainingPrompt
}

// Step names a stage the agent chain has reached, surfaced to callers as
// streaming metadata so a UI can render progress ("Fetching data...").
type Step string

// FetchData marks the retrieval stage of the RAG runnable.
const FetchData Step = "fetch_data"

// Source is a citation target: a retrieved document, numbered for display
// in assistant text.
type Source struct {
	Number  int
	Label   string
	Content string
	Type    string
	URL     string
	Page    int
}
