package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nshaw/breakdown/pkg/models"
)

// GetTask retrieves a task by its ID, including its dependency positions.
// Returns nil if the task does not exist.
func (db *DB) GetTask(ctx context.Context, id string) (*models.Task, error) {
	tasks, err := db.queryTasks(ctx, `
		SELECT id, plan_id, position, title, description, estimated_hours,
		       priority, status, deadline_days_from_start, category,
		       skills_required, deliverables, created_at, updated_at
		FROM tasks
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}

	t := tasks[0]
	deps, err := db.queryDependencyPositions(ctx, t.PlanID)
	if err != nil {
		return nil, err
	}
	if positions, ok := deps[t.ID]; ok {
		t.Dependencies = positions
	}
	return t, nil
}

// UpdateTaskStatus sets the status of a single task. The status value must
// be one of the valid enum values; no other task field is touched.
func (db *DB) UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status: %s", status)
	}

	query := `
		UPDATE tasks
		SET status = ?
		WHERE id = ?
		RETURNING updated_at
	`
	var t models.Task
	err := db.QueryRowContext(ctx, query, status, id).Scan(&t.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}

	db.triggerChange(ctx)
	return nil
}

// queryTasks is a helper to execute a query that returns a list of tasks.
func (db *DB) queryTasks(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		t := &models.Task{}
		var skills, deliverables string
		err := rows.Scan(
			&t.ID, &t.PlanID, &t.Position, &t.Title, &t.Description, &t.EstimatedHours,
			&t.Priority, &t.Status, &t.DeadlineDaysFromStart, &t.Category,
			&skills, &deliverables, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if err := json.Unmarshal([]byte(skills), &t.SkillsRequired); err != nil {
			return nil, fmt.Errorf("failed to decode skills for task %s: %w", t.ID, err)
		}
		if err := json.Unmarshal([]byte(deliverables), &t.Deliverables); err != nil {
			return nil, fmt.Errorf("failed to decode deliverables for task %s: %w", t.ID, err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return tasks, nil
}

// CountTasksByStatus returns task counts grouped by status across all plans.
func (db *DB) CountTasksByStatus(ctx context.Context) (map[models.TaskStatus]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.TaskStatus]int)
	for rows.Next() {
		var status models.TaskStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return counts, nil
}
