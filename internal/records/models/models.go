package models

import "time"

// Opportunity is a prospective engagement tracked by the BD team.
type Opportunity struct {
	ID        string    `json:"id"`
	Company   string    `json:"company"`
	Contact   string    `json:"contact"`
	Value     int64     `json:"value"`
	Stage     string    `json:"stage"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

// PipelineEntry records the progress of an opportunity through the
// pipeline.
type PipelineEntry struct {
	ID            string    `json:"id"`
	OpportunityID string    `json:"opportunity_id"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes"`
	UpdatedBy     string    `json:"updated_by"`
	UpdatedAt     time.Time `json:"updated_at"`
}
