package models

import "time"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type Task struct {
	ID          string `json:"id"`
	PlanID      string `json:"plan_id"`
	Position    int    `json:"position"`
	Title       string `json:"title"`
	Description string `json:"description"`

	EstimatedHours float64    `json:"estimated_hours"`
	Priority       Priority   `json:"priority"`
	Status         TaskStatus `json:"status"`

	// Dependencies holds the positions of sibling tasks this task depends on.
	// Valid entries are always strictly less than Position.
	Dependencies []int `json:"dependencies"`

	DeadlineDaysFromStart int `json:"deadline_days_from_start"`

	Category       string   `json:"category,omitempty"`
	SkillsRequired []string `json:"skills_required"`
	Deliverables   []string `json:"deliverables"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
