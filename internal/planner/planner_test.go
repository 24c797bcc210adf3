package planner

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/nshaw/breakdown/internal/llm"
	"github.com/nshaw/breakdown/pkg/models"
)

type stubGenerator struct {
	draft *models.PlanDraft
	err   error
}

func (s *stubGenerator) GenerateBreakdown(ctx context.Context, goal string) (*models.PlanDraft, error) {
	return s.draft, s.err
}

func TestCreatePlanRejectsEmptyGoal(t *testing.T) {
	svc := New(llm.NewMock())

	for _, goal := range []string{"", "   ", "\n\t"} {
		_, err := svc.CreatePlan(context.Background(), goal)
		if !errors.Is(err, ErrEmptyGoal) {
			t.Errorf("goal %q: expected ErrEmptyGoal, got %v", goal, err)
		}
	}
}

func TestCreatePlanGeneratorError(t *testing.T) {
	svc := New(&stubGenerator{err: errors.New("provider down")})

	_, err := svc.CreatePlan(context.Background(), "some goal")
	if err == nil {
		t.Fatal("Expected error when generator fails")
	}
}

func TestValidationDefaults(t *testing.T) {
	draft := &models.PlanDraft{
		Title: "Test Plan",
		Tasks: []models.TaskDraft{
			{
				Title:                 "Task 1",
				EstimatedHours:        -5,                // invalid negative hours
				Priority:              "invalid_priority",
				Dependencies:          []int{5, 10},      // future tasks
				DeadlineDaysFromStart: -1,
			},
		},
	}
	svc := New(&stubGenerator{draft: draft})

	plan, err := svc.CreatePlan(context.Background(), "Create a simple website")
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	if plan.Goal != "Create a simple website" {
		t.Errorf("Expected goal to be carried over, got %q", plan.Goal)
	}
	if plan.Description == "" {
		t.Error("Expected default description")
	}
	if plan.EstimatedDurationDays < 1 {
		t.Errorf("Expected positive duration, got %d", plan.EstimatedDurationDays)
	}

	task := plan.Tasks[0]
	if task.EstimatedHours < 0.5 {
		t.Errorf("Expected hours >= 0.5, got %v", task.EstimatedHours)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("Expected priority medium, got %s", task.Priority)
	}
	if len(task.Dependencies) != 0 {
		t.Errorf("Expected invalid dependencies removed, got %v", task.Dependencies)
	}
	if task.DeadlineDaysFromStart < 1 {
		t.Errorf("Expected deadline >= 1, got %d", task.DeadlineDaysFromStart)
	}
	if task.Status != models.TaskStatusPending {
		t.Errorf("Expected pending status, got %s", task.Status)
	}
}

func TestDependencyInvariant(t *testing.T) {
	// Mix of valid and invalid references; only strictly-earlier survive.
	draft := &models.PlanDraft{
		Title: "Deps",
		Tasks: []models.TaskDraft{
			{Title: "a", Dependencies: []int{0, 1, -1}},
			{Title: "b", Dependencies: []int{0, 1, 2}},
			{Title: "c", Dependencies: []int{1, 0, 5}},
		},
	}
	svc := New(&stubGenerator{draft: draft})

	plan, err := svc.CreatePlan(context.Background(), "goal")
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	for _, task := range plan.Tasks {
		for _, dep := range task.Dependencies {
			if dep < 0 || dep >= task.Position {
				t.Errorf("Task %d: dependency %d violates earlier-only invariant", task.Position, dep)
			}
		}
	}
	if got := plan.Tasks[1].Dependencies; !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("Task 1: expected [0], got %v", got)
	}
	if got := plan.Tasks[2].Dependencies; !reflect.DeepEqual(got, []int{1, 0}) {
		t.Errorf("Task 2: expected [1 0], got %v", got)
	}
}

func TestOptimizeSchedulePushesDeadlines(t *testing.T) {
	draft := &models.PlanDraft{
		Title:                 "Schedule",
		EstimatedDurationDays: 5,
		Tasks: []models.TaskDraft{
			{Title: "base", EstimatedHours: 8, DeadlineDaysFromStart: 4},
			// Deadline before its dependency finishes; must move past day 4.
			{Title: "dependent", EstimatedHours: 16, Dependencies: []int{0}, DeadlineDaysFromStart: 2},
		},
	}
	svc := New(&stubGenerator{draft: draft})

	plan, err := svc.CreatePlan(context.Background(), "goal")
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	base, dependent := plan.Tasks[0], plan.Tasks[1]
	if base.DeadlineDaysFromStart != 4 {
		t.Errorf("Expected base deadline unchanged at 4, got %d", base.DeadlineDaysFromStart)
	}
	// 4 (dep deadline) + 1 + 2 (16h / 8) = 7
	if dependent.DeadlineDaysFromStart != 7 {
		t.Errorf("Expected dependent deadline 7, got %d", dependent.DeadlineDaysFromStart)
	}
	if plan.EstimatedDurationDays != 7 {
		t.Errorf("Expected duration raised to 7, got %d", plan.EstimatedDurationDays)
	}
}

func TestOptimizeScheduleNeverMovesDeadlinesEarlier(t *testing.T) {
	draft := &models.PlanDraft{
		Title: "Late deadline",
		Tasks: []models.TaskDraft{
			{Title: "a", EstimatedHours: 2, DeadlineDaysFromStart: 1},
			{Title: "b", EstimatedHours: 2, Dependencies: []int{0}, DeadlineDaysFromStart: 30},
		},
	}
	svc := New(&stubGenerator{draft: draft})

	plan, err := svc.CreatePlan(context.Background(), "goal")
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}
	if plan.Tasks[1].DeadlineDaysFromStart != 30 {
		t.Errorf("Expected generous deadline kept at 30, got %d", plan.Tasks[1].DeadlineDaysFromStart)
	}
}

func TestCriticalPath(t *testing.T) {
	tasks := []*models.Task{
		{Position: 0, EstimatedHours: 8, Dependencies: []int{}},
		{Position: 1, EstimatedHours: 4, Dependencies: []int{0}},
		{Position: 2, EstimatedHours: 12, Dependencies: []int{0}},
		{Position: 3, EstimatedHours: 6, Dependencies: []int{1, 2}},
	}

	path := CriticalPath(tasks)

	// Longest chain runs through the 12h task: 0 -> 2 -> 3.
	want := []int{0, 2, 3}
	if !reflect.DeepEqual(path, want) {
		t.Errorf("Expected critical path %v, got %v", want, path)
	}
}

func TestCriticalPathEmpty(t *testing.T) {
	if path := CriticalPath(nil); len(path) != 0 {
		t.Errorf("Expected empty path, got %v", path)
	}
}

func TestCreatePlanWithMock(t *testing.T) {
	svc := New(llm.NewMock())

	plan, err := svc.CreatePlan(context.Background(), "Create a simple website")
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	if len(plan.Tasks) == 0 {
		t.Fatal("Expected tasks in mock plan")
	}
	for _, task := range plan.Tasks {
		if task.Title == "" || task.Description == "" {
			t.Errorf("Task %d: missing title or description", task.Position)
		}
		if !task.Priority.Valid() {
			t.Errorf("Task %d: invalid priority %s", task.Position, task.Priority)
		}
		for _, dep := range task.Dependencies {
			if dep < 0 || dep >= task.Position {
				t.Errorf("Task %d: dependency %d violates earlier-only invariant", task.Position, dep)
			}
		}
	}
	if plan.EstimatedDurationDays < plan.Tasks[len(plan.Tasks)-1].DeadlineDaysFromStart {
		t.Error("Expected plan duration to cover the latest deadline")
	}
}
