package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nshaw/breakdown/internal/llm"
	"github.com/nshaw/breakdown/pkg/models"
)

// ErrEmptyGoal is returned when the submitted goal is empty or whitespace.
var ErrEmptyGoal = errors.New("goal must not be empty")

// Service turns a free-text goal into a validated, schedule-optimized plan.
// Generation is delegated to the LLM; everything the model returns is
// treated as untrusted and normalized here.
type Service struct {
	gen llm.Generator
}

func New(gen llm.Generator) *Service {
	return &Service{gen: gen}
}

// CreatePlan generates, validates and optimizes a plan for the goal. The
// returned plan is not yet persisted.
func (s *Service) CreatePlan(ctx context.Context, goal string) (*models.TaskPlan, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, ErrEmptyGoal
	}

	draft, err := s.gen.GenerateBreakdown(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("failed to generate breakdown: %w", err)
	}

	plan := buildPlan(goal, draft)
	optimizeSchedule(plan)
	return plan, nil
}

// buildPlan converts an untrusted draft into a plan, applying defaults and
// dropping anything that would violate the dependency invariant.
func buildPlan(goal string, draft *models.PlanDraft) *models.TaskPlan {
	plan := &models.TaskPlan{
		Goal:                  goal,
		Title:                 draft.Title,
		Description:           draft.Description,
		EstimatedDurationDays: draft.EstimatedDurationDays,
	}
	if plan.Title == "" {
		plan.Title = "Task Plan"
	}
	if plan.Description == "" {
		plan.Description = "Generated task plan"
	}
	if plan.EstimatedDurationDays < 1 {
		plan.EstimatedDurationDays = 14
	}

	for i, td := range draft.Tasks {
		t := &models.Task{
			Position:              i,
			Title:                 td.Title,
			Description:           td.Description,
			EstimatedHours:        clampHours(td.EstimatedHours),
			Priority:              normalizePriority(td.Priority),
			Status:                models.TaskStatusPending,
			Dependencies:          filterDependencies(td.Dependencies, i),
			DeadlineDaysFromStart: normalizeDeadline(td.DeadlineDaysFromStart, i),
			Category:              td.Category,
			SkillsRequired:        td.SkillsRequired,
			Deliverables:          td.Deliverables,
		}
		if t.Title == "" {
			t.Title = fmt.Sprintf("Task %d", i+1)
		}
		if t.Description == "" {
			t.Description = "Task description"
		}
		if t.SkillsRequired == nil {
			t.SkillsRequired = []string{}
		}
		if t.Deliverables == nil {
			t.Deliverables = []string{}
		}
		plan.Tasks = append(plan.Tasks, t)
	}

	return plan
}

func clampHours(hours float64) float64 {
	if hours == 0 {
		return 4.0
	}
	if hours < 0.5 {
		return 0.5
	}
	return hours
}

func normalizePriority(p string) models.Priority {
	priority := models.Priority(strings.ToLower(strings.TrimSpace(p)))
	if !priority.Valid() {
		return models.PriorityMedium
	}
	return priority
}

// filterDependencies keeps only indices referencing strictly earlier tasks,
// preventing self references and forward references (and with them, cycles).
func filterDependencies(deps []int, position int) []int {
	valid := []int{}
	for _, dep := range deps {
		if dep >= 0 && dep < position {
			valid = append(valid, dep)
		}
	}
	return valid
}

func normalizeDeadline(days, position int) int {
	if days == 0 {
		days = position + 1
	}
	if days < 1 {
		return 1
	}
	return days
}

// optimizeSchedule pushes each task's deadline past its latest dependency,
// with a buffer derived from the task's own estimate, and raises the plan
// duration to cover the latest deadline. Deadlines only ever move later.
func optimizeSchedule(plan *models.TaskPlan) {
	for _, t := range plan.Tasks {
		if len(t.Dependencies) == 0 {
			continue
		}

		maxDepDeadline := 0
		for _, dep := range t.Dependencies {
			if d := plan.Tasks[dep].DeadlineDaysFromStart; d > maxDepDeadline {
				maxDepDeadline = d
			}
		}

		buffer := int(t.EstimatedHours / 8)
		if buffer < 1 {
			buffer = 1
		}
		if minDeadline := maxDepDeadline + 1 + buffer; t.DeadlineDaysFromStart < minDeadline {
			t.DeadlineDaysFromStart = minDeadline
		}
	}

	for _, t := range plan.Tasks {
		if t.DeadlineDaysFromStart > plan.EstimatedDurationDays {
			plan.EstimatedDurationDays = t.DeadlineDaysFromStart
		}
	}
}

// CriticalPath returns the positions of the longest dependency chain,
// measured in estimated working days (8 hours per day), in execution order.
func CriticalPath(tasks []*models.Task) []int {
	if len(tasks) == 0 {
		return []int{}
	}

	finish := make([]float64, len(tasks))
	for i, t := range tasks {
		earliestStart := 0.0
		for _, dep := range t.Dependencies {
			if dep >= 0 && dep < i && finish[dep] > earliestStart {
				earliestStart = finish[dep]
			}
		}
		finish[i] = earliestStart + t.EstimatedHours/8
	}

	current := 0
	for i := range finish {
		if finish[i] > finish[current] {
			current = i
		}
	}

	var path []int
	for {
		path = append(path, current)
		deps := tasks[current].Dependencies
		if len(deps) == 0 {
			break
		}
		next := deps[0]
		for _, dep := range deps[1:] {
			if finish[dep] > finish[next] {
				next = dep
			}
		}
		current = next
	}

	// Reverse into execution order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
