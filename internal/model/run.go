package model

import "time"

// RunStatus represents the current state of an enrichment run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusError    RunStatus = "error"
)

// StageResult holds the outcome of one pipeline stage.
type StageResult struct {
	Name    string  `json:"name"`
	OK      bool    `json:"ok"`
	Seconds float64 `json:"seconds"`
	Error   string  `json:"error,omitempty"`
}

// EnrichmentRun is the audit record of one pipeline pass over one debtor.
type EnrichmentRun struct {
	ID           string            `json:"id,omitempty"`
	DebtorID     string            `json:"debtor_id"`
	Status       RunStatus         `json:"status"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   *time.Time        `json:"finished_at,omitempty"`
	StageResults []StageResult     `json:"stage_results"`
	Errors       map[string]string `json:"errors,omitempty"`
}

// RunPatch is a partial update of an EnrichmentRun.
type RunPatch struct {
	Status       *RunStatus        `json:"status,omitempty"`
	FinishedAt   *time.Time        `json:"finished_at,omitempty"`
	StageResults []StageResult     `json:"stage_results,omitempty"`
	Errors       map[string]string `json:"errors,omitempty"`
}
