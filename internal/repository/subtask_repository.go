package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/models"
)

var subtaskColumns = []string{
	"id", "title", "description", "parent_task_id", "assignee_id", "status", "priority",
	"estimated_hours", "actual_hours", "due_date", "completed_at", "order_index",
	"depends_on_subtask_id", "created_at", "updated_at",
}

type SubtaskRepository struct {
	querier
}

func (r *SubtaskRepository) Create(ctx context.Context, s *models.Subtask) error {
	if _, err := r.namedExec(ctx, insertQuery("subtasks", subtaskColumns), s); err != nil {
		return fmt.Errorf("create subtask: %w", err)
	}
	return nil
}

func (r *SubtaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Subtask, error) {
	var s models.Subtask
	query := "SELECT " + columnList(subtaskColumns) + " FROM subtasks WHERE id = ?"
	if err := r.get(ctx, &s, query, id); err != nil {
		return nil, fmt.Errorf("get subtask %s: %w", id, err)
	}
	return &s, nil
}

// ListByTask returns the subtasks of a task in sibling order.
func (r *SubtaskRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.Subtask, error) {
	subtasks := []*models.Subtask{}
	query := "SELECT " + columnList(subtaskColumns) +
		" FROM subtasks WHERE parent_task_id = ? ORDER BY order_index ASC, created_at ASC, id ASC"
	if err := r.selectAll(ctx, &subtasks, query, taskID); err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	return subtasks, nil
}

// NextOrderIndex is one past the highest sibling index, or 0 for the first
// subtask.
func (r *SubtaskRepository) NextOrderIndex(ctx context.Context, taskID uuid.UUID) (int, error) {
	var next int
	query := "SELECT COALESCE(MAX(order_index) + 1, 0) FROM subtasks WHERE parent_task_id = ?"
	if err := r.get(ctx, &next, query, taskID); err != nil {
		return 0, fmt.Errorf("next order index: %w", err)
	}
	return next, nil
}

func (r *SubtaskRepository) Update(ctx context.Context, s *models.Subtask) error {
	columns := []string{
		"title", "description", "assignee_id", "status", "priority", "estimated_hours",
		"due_date", "completed_at", "order_index", "depends_on_subtask_id", "updated_at",
	}
	n, err := r.namedExec(ctx, updateQuery("subtasks", columns), s)
	if err != nil {
		return fmt.Errorf("update subtask %s: %w", s.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update subtask %s: %w", s.ID, ErrNotFound)
	}
	return nil
}

func (r *SubtaskRepository) AddActualHours(ctx context.Context, id uuid.UUID, hours float64, now time.Time) error {
	n, err := r.exec(ctx, "UPDATE subtasks SET actual_hours = actual_hours + ?, updated_at = ? WHERE id = ?", hours, now, id)
	if err != nil {
		return fmt.Errorf("add hours to subtask %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("add hours to subtask %s: %w", id, ErrNotFound)
	}
	return nil
}

// ClearDependency detaches every sibling that depends on id.
func (r *SubtaskRepository) ClearDependency(ctx context.Context, id uuid.UUID) error {
	if _, err := r.exec(ctx, "UPDATE subtasks SET depends_on_subtask_id = NULL WHERE depends_on_subtask_id = ?", id); err != nil {
		return fmt.Errorf("clear dependency on %s: %w", id, err)
	}
	return nil
}

func (r *SubtaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := r.exec(ctx, "DELETE FROM subtasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete subtask %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete subtask %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteByTask removes all subtasks of a task. Dependencies between siblings
// are cleared first so the self reference never blocks the delete.
func (r *SubtaskRepository) DeleteByTask(ctx context.Context, taskID uuid.UUID) (int64, error) {
	if _, err := r.exec(ctx, "UPDATE subtasks SET depends_on_subtask_id = NULL WHERE parent_task_id = ?", taskID); err != nil {
		return 0, fmt.Errorf("clear subtask dependencies: %w", err)
	}
	n, err := r.exec(ctx, "DELETE FROM subtasks WHERE parent_task_id = ?", taskID)
	if err != nil {
		return 0, fmt.Errorf("delete subtasks: %w", err)
	}
	return n, nil
}
