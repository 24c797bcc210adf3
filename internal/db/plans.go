package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nshaw/breakdown/pkg/models"
)

// CreatePlan inserts a plan and all of its tasks and dependencies in a
// single transaction. Task IDs are generated when empty. Dependency indices
// must reference strictly earlier positions; anything else is rejected
// before the transaction starts.
func (db *DB) CreatePlan(ctx context.Context, p *models.TaskPlan) error {
	for i, t := range p.Tasks {
		for _, dep := range t.Dependencies {
			if dep < 0 || dep >= i {
				return fmt.Errorf("task %d: dependency %d does not reference an earlier task", i, dep)
			}
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := db.createPlan(ctx, tx, p); err != nil {
		return err
	}

	taskIDs := make([]string, len(p.Tasks))
	for i, t := range p.Tasks {
		t.PlanID = p.ID
		t.Position = i
		if t.Status == "" {
			t.Status = models.TaskStatusPending
		}
		if err := db.createTask(ctx, tx, t); err != nil {
			return fmt.Errorf("failed to create task %q: %w", t.Title, err)
		}
		taskIDs[i] = t.ID
	}

	for i, t := range p.Tasks {
		for _, dep := range t.Dependencies {
			if err := db.createDependency(ctx, tx, taskIDs[i], taskIDs[dep]); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	db.triggerChange(ctx)
	return nil
}

func (db *DB) createPlan(ctx context.Context, exec executor, p *models.TaskPlan) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	query := `
		INSERT INTO task_plans (id, goal, title, description, estimated_duration_days)
		VALUES (?, ?, ?, ?, ?)
		RETURNING created_at, updated_at
	`
	err := exec.QueryRowContext(ctx, query,
		p.ID, p.Goal, p.Title, p.Description, p.EstimatedDurationDays,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

func (db *DB) createTask(ctx context.Context, exec executor, t *models.Task) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}

	skills, err := json.Marshal(emptyIfNil(t.SkillsRequired))
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}
	deliverables, err := json.Marshal(emptyIfNil(t.Deliverables))
	if err != nil {
		return fmt.Errorf("failed to marshal deliverables: %w", err)
	}

	query := `
		INSERT INTO tasks (id, plan_id, position, title, description, estimated_hours,
		                   priority, status, deadline_days_from_start, category,
		                   skills_required, deliverables)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING created_at, updated_at
	`
	err = exec.QueryRowContext(ctx, query,
		t.ID, t.PlanID, t.Position, t.Title, t.Description, t.EstimatedHours,
		t.Priority, t.Status, t.DeadlineDaysFromStart, t.Category,
		string(skills), string(deliverables),
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (db *DB) createDependency(ctx context.Context, exec executor, taskID, dependsOnTaskID string) error {
	query := `INSERT INTO task_dependencies (task_id, depends_on_task_id) VALUES (?, ?)`
	if _, err := exec.ExecContext(ctx, query, taskID, dependsOnTaskID); err != nil {
		return fmt.Errorf("failed to create dependency: %w", err)
	}
	return nil
}

// GetPlan retrieves a plan with its tasks ordered by position, including
// each task's dependency positions. Returns nil if the plan does not exist.
func (db *DB) GetPlan(ctx context.Context, id string) (*models.TaskPlan, error) {
	query := `
		SELECT id, goal, title, description, estimated_duration_days, created_at, updated_at
		FROM task_plans
		WHERE id = ?
	`
	p := &models.TaskPlan{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Goal, &p.Title, &p.Description, &p.EstimatedDurationDays,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	tasks, err := db.queryTasks(ctx, `
		SELECT id, plan_id, position, title, description, estimated_hours,
		       priority, status, deadline_days_from_start, category,
		       skills_required, deliverables, created_at, updated_at
		FROM tasks
		WHERE plan_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, err
	}

	deps, err := db.queryDependencyPositions(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if positions, ok := deps[t.ID]; ok {
			t.Dependencies = positions
		}
	}

	p.Tasks = tasks
	return p, nil
}

// queryDependencyPositions maps each task id in the plan to the positions
// of the tasks it depends on.
func (db *DB) queryDependencyPositions(ctx context.Context, planID string) (map[string][]int, error) {
	query := `
		SELECT d.task_id, dep.position
		FROM task_dependencies d
		JOIN tasks t ON t.id = d.task_id
		JOIN tasks dep ON dep.id = d.depends_on_task_id
		WHERE t.plan_id = ?
		ORDER BY t.position ASC, dep.position ASC
	`
	rows, err := db.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependencies: %w", err)
	}
	defer rows.Close()

	deps := make(map[string][]int)
	for rows.Next() {
		var taskID string
		var position int
		if err := rows.Scan(&taskID, &position); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		deps[taskID] = append(deps[taskID], position)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return deps, nil
}

// ListPlans returns plan summaries, newest first, with progress counts.
func (db *DB) ListPlans(ctx context.Context) ([]*models.PlanSummary, error) {
	query := `
		SELECT p.id, p.goal, p.title, p.estimated_duration_days,
		       v.total_tasks, v.completed_tasks, p.created_at
		FROM task_plans p
		JOIN v_plan_progress v ON v.plan_id = p.id
		ORDER BY p.created_at DESC, p.id DESC
	`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.PlanSummary
	for rows.Next() {
		s := &models.PlanSummary{}
		err := rows.Scan(
			&s.ID, &s.Goal, &s.Title, &s.EstimatedDurationDays,
			&s.TotalTasks, &s.CompletedTasks, &s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan summary: %w", err)
		}
		plans = append(plans, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return plans, nil
}

// DeletePlan removes a plan; tasks and dependencies cascade.
func (db *DB) DeletePlan(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM task_plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("plan %s: %w", id, ErrNotFound)
	}

	db.triggerChange(ctx)
	return nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
