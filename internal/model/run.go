package model

import "time"

// RunStatus represents the state of an enrichment run in the ledger.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one enrichment pass over a dataset file.
type Run struct {
	ID        string      `json:"id"`
	Dataset   string      `json:"dataset"`
	Status    RunStatus   `json:"status"`
	Summary   *RunSummary `json:"summary,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RunSummary tallies what an enrichment run did.
type RunSummary struct {
	Total            int   `json:"total"`
	Skipped          int   `json:"skipped"`
	AlreadyComplete  int   `json:"already_complete"`
	Mutated          int   `json:"mutated"`
	Mutations        int   `json:"mutations"`
	TitleCalls       int   `json:"title_calls"`
	DescriptionCalls int   `json:"description_calls"`
	Checkpoints      int   `json:"checkpoints"`
	InputTokens      int64 `json:"input_tokens"`
	OutputTokens     int64 `json:"output_tokens"`
	DurationMs       int64 `json:"duration_ms"`
}
