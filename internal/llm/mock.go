package llm

import (
	"context"

	"github.com/nshaw/breakdown/pkg/models"
)

// Mock is the canned-plan generator used when no provider is configured or
// a provider call fails. The plan is a fixed five-task chain.
type Mock struct{}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) GenerateBreakdown(ctx context.Context, goal string) (*models.PlanDraft, error) {
	title := goal
	if len(title) > 50 {
		title = title[:50] + "..."
	}

	return &models.PlanDraft{
		Title:                 "Plan for: " + title,
		Description:           "A structured plan to achieve: " + goal,
		EstimatedDurationDays: 14,
		Tasks: []models.TaskDraft{
			{
				Title:                 "Research and Planning",
				Description:           "Conduct thorough research and create a detailed project plan with clear objectives and scope",
				EstimatedHours:        8.0,
				Priority:              "high",
				Dependencies:          []int{},
				DeadlineDaysFromStart: 2,
				Category:              "research",
				SkillsRequired:        []string{"research", "planning", "analysis"},
				Deliverables:          []string{"project plan", "research report", "requirements document"},
			},
			{
				Title:                 "Setup and Preparation",
				Description:           "Set up necessary tools, development environment, and gather resources",
				EstimatedHours:        4.0,
				Priority:              "high",
				Dependencies:          []int{0},
				DeadlineDaysFromStart: 3,
				Category:              "planning",
				SkillsRequired:        []string{"technical setup", "tool configuration"},
				Deliverables:          []string{"configured environment", "resource list", "setup documentation"},
			},
			{
				Title:                 "Core Implementation",
				Description:           "Implement the main components, features, and core functionality",
				EstimatedHours:        24.0,
				Priority:              "high",
				Dependencies:          []int{1},
				DeadlineDaysFromStart: 10,
				Category:              "development",
				SkillsRequired:        []string{"programming", "system design", "problem solving"},
				Deliverables:          []string{"working prototype", "core features", "technical documentation"},
			},
			{
				Title:                 "Testing and Quality Assurance",
				Description:           "Test all components thoroughly and ensure quality standards are met",
				EstimatedHours:        8.0,
				Priority:              "medium",
				Dependencies:          []int{2},
				DeadlineDaysFromStart: 12,
				Category:              "testing",
				SkillsRequired:        []string{"testing", "debugging", "quality assurance"},
				Deliverables:          []string{"test reports", "bug fixes", "quality documentation"},
			},
			{
				Title:                 "Final Review and Deployment",
				Description:           "Final review, documentation, and deployment to the target environment",
				EstimatedHours:        4.0,
				Priority:              "medium",
				Dependencies:          []int{3},
				DeadlineDaysFromStart: 14,
				Category:              "deployment",
				SkillsRequired:        []string{"deployment", "documentation", "project management"},
				Deliverables:          []string{"deployed solution", "user documentation", "maintenance guide"},
			},
		},
	}, nil
}
