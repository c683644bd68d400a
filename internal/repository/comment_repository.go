package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/models"
)

var commentColumns = []string{"id", "task_id", "user_id", "content", "is_internal", "created_at", "updated_at"}

type CommentRepository struct {
	querier
}

func (r *CommentRepository) Create(ctx context.Context, c *models.Comment) error {
	if _, err := r.namedExec(ctx, insertQuery("task_comments", commentColumns), c); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var c models.Comment
	query := "SELECT " + columnList(commentColumns) + " FROM task_comments WHERE id = ?"
	if err := r.get(ctx, &c, query, id); err != nil {
		return nil, fmt.Errorf("get comment %s: %w", id, err)
	}
	return &c, nil
}

// ListByTask returns comments oldest first. Internal comments are left out
// unless includeInternal is set.
func (r *CommentRepository) ListByTask(ctx context.Context, taskID uuid.UUID, includeInternal bool) ([]*models.Comment, error) {
	query := "SELECT " + columnList(commentColumns) + " FROM task_comments WHERE task_id = ?"
	args := []any{taskID}
	if !includeInternal {
		query += " AND is_internal = ?"
		args = append(args, false)
	}
	query += " ORDER BY created_at ASC, id ASC"

	comments := []*models.Comment{}
	if err := r.selectAll(ctx, &comments, query, args...); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (r *CommentRepository) Update(ctx context.Context, c *models.Comment) error {
	n, err := r.namedExec(ctx, updateQuery("task_comments", []string{"content", "is_internal", "updated_at"}), c)
	if err != nil {
		return fmt.Errorf("update comment %s: %w", c.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update comment %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

func (r *CommentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := r.exec(ctx, "DELETE FROM task_comments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete comment %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete comment %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *CommentRepository) DeleteByTask(ctx context.Context, taskID uuid.UUID) (int64, error) {
	n, err := r.exec(ctx, "DELETE FROM task_comments WHERE task_id = ?", taskID)
	if err != nil {
		return 0, fmt.Errorf("delete comments: %w", err)
	}
	return n, nil
}
