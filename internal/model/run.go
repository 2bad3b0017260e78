package model

import "time"

// RunStatus tracks a blueprint generation run through its lifecycle.
type RunStatus string

// Run statuses.
const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
	RunStatusCanceled RunStatus = "canceled"
)

// Run is a persisted blueprint generation run.
type Run struct {
	ID              string            `json:"id"`
	BusinessContext string            `json:"businessContext"`
	Status          RunStatus         `json:"status"`
	Result          *GenerationResult `json:"result,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}
