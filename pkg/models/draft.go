package models

// PlanDraft is the untrusted plan structure decoded from an LLM response.
// It becomes a TaskPlan only after validation.
type PlanDraft struct {
	Title                 string      `json:"title"`
	Description           string      `json:"description"`
	EstimatedDurationDays int         `json:"estimated_duration_days"`
	Tasks                 []TaskDraft `json:"tasks"`
}

// TaskDraft mirrors a single task in the LLM response. Dependencies are
// 0-based indices into the draft's task list.
type TaskDraft struct {
	Title                 string   `json:"title"`
	Description           string   `json:"description"`
	EstimatedHours        float64  `json:"estimated_hours"`
	Priority              string   `json:"priority"`
	Dependencies          []int    `json:"dependencies"`
	DeadlineDaysFromStart int      `json:"deadline_days_from_start"`
	Category              string   `json:"category"`
	SkillsRequired        []string `json:"skills_required"`
	Deliverables          []string `json:"deliverables"`
}
