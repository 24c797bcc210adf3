package models

import "time"

// TaskPlan is a goal decomposition result owning an ordered sequence of tasks.
type TaskPlan struct {
	ID                    string    `json:"id"`
	Goal                  string    `json:"goal"`
	Title                 string    `json:"title"`
	Description           string    `json:"description"`
	EstimatedDurationDays int       `json:"estimated_duration_days"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`

	// Tasks are ordered by Position.
	Tasks []*Task `json:"tasks"`
}

// PlanSummary is the listing shape: plan header plus progress counts.
type PlanSummary struct {
	ID                    string    `json:"id"`
	Goal                  string    `json:"goal"`
	Title                 string    `json:"title"`
	EstimatedDurationDays int       `json:"estimated_duration_days"`
	TotalTasks            int       `json:"total_tasks"`
	CompletedTasks        int       `json:"completed_tasks"`
	CreatedAt             time.Time `json:"created_at"`
}
