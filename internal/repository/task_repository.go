package repository

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/models"
)

var taskColumns = []string{
	"id", "title", "description", "slug", "task_type", "priority", "status",
	"author_id", "assignee_id", "estimated_hours", "actual_hours",
	"start_date", "due_date", "completed_at", "is_active", "is_public", "tags",
	"created_at", "updated_at",
}

var taskSortable = map[string]string{
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"due_date":     "due_date",
	"priority":     "priority",
	"status":       "status",
	"title":        "title",
	"completed_at": "completed_at",
}

type TaskRepository struct {
	querier
}

// TaskFilter narrows task queries. Zero-valued fields are ignored; time
// ranges are inclusive of From and exclusive of To.
type TaskFilter struct {
	ParticipantID *uuid.UUID
	AuthorID      *uuid.UUID
	AssigneeID    *uuid.UUID
	Statuses      []models.TaskStatus
	Priority      *models.TaskPriority
	TaskType      *models.TaskType
	Search        string
	IsActive      *bool

	// OverdueAt selects tasks whose due date is before the instant and that
	// are not completed.
	OverdueAt *time.Time

	DueFrom, DueTo             *time.Time
	CreatedFrom, CreatedTo     *time.Time
	CompletedFrom, CompletedTo *time.Time
}

func (f TaskFilter) predicates() []*sql.Predicate {
	var preds []*sql.Predicate
	if f.ParticipantID != nil {
		preds = append(preds, sql.Or(
			sql.EQ("author_id", *f.ParticipantID),
			sql.EQ("assignee_id", *f.ParticipantID),
		))
	}
	if f.AuthorID != nil {
		preds = append(preds, sql.EQ("author_id", *f.AuthorID))
	}
	if f.AssigneeID != nil {
		preds = append(preds, sql.EQ("assignee_id", *f.AssigneeID))
	}
	if len(f.Statuses) > 0 {
		args := make([]any, len(f.Statuses))
		for i, s := range f.Statuses {
			args[i] = string(s)
		}
		preds = append(preds, sql.In("status", args...))
	}
	if f.Priority != nil {
		preds = append(preds, sql.EQ("priority", string(*f.Priority)))
	}
	if f.TaskType != nil {
		preds = append(preds, sql.EQ("task_type", string(*f.TaskType)))
	}
	if f.Search != "" {
		preds = append(preds, sql.Or(
			sql.ContainsFold("title", f.Search),
			sql.ContainsFold("description", f.Search),
		))
	}
	if f.IsActive != nil {
		preds = append(preds, sql.EQ("is_active", *f.IsActive))
	}
	if f.OverdueAt != nil {
		preds = append(preds,
			sql.NotNull("due_date"),
			sql.LT("due_date", f.OverdueAt.UTC()),
			sql.NEQ("status", string(models.StatusCompleted)),
		)
	}
	preds = appendRange(preds, "due_date", f.DueFrom, f.DueTo)
	preds = appendRange(preds, "created_at", f.CreatedFrom, f.CreatedTo)
	if f.CompletedFrom != nil || f.CompletedTo != nil {
		// completed_at survives reassignment back to pending; only tasks still
		// completed count as completed in a window.
		preds = append(preds, sql.EQ("status", string(models.StatusCompleted)))
		preds = appendRange(preds, "completed_at", f.CompletedFrom, f.CompletedTo)
	}
	return preds
}

func appendRange(preds []*sql.Predicate, column string, from, to *time.Time) []*sql.Predicate {
	if from != nil {
		preds = append(preds, sql.GTE(column, from.UTC()))
	}
	if to != nil {
		preds = append(preds, sql.LT(column, to.UTC()))
	}
	return preds
}

func (r *TaskRepository) Create(ctx context.Context, t *models.Task) error {
	if _, err := r.namedExec(ctx, insertQuery("tasks", taskColumns), t); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var t models.Task
	query := "SELECT " + columnList(taskColumns) + " FROM tasks WHERE id = ?"
	if err := r.get(ctx, &t, query, id); err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return &t, nil
}

// SlugExists reports whether slug is taken by a task other than excludeID.
func (r *TaskRepository) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var n int
	if err := r.get(ctx, &n, "SELECT COUNT(*) FROM tasks WHERE slug = ? AND id <> ?", slug, excludeID); err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return n > 0, nil
}

func (r *TaskRepository) List(ctx context.Context, f TaskFilter, page Page) ([]*models.Task, error) {
	sel := where(r.builder().Select(taskColumns...).From(sql.Table("tasks")), f.predicates())
	page.apply(sel, taskSortable, "created_at")

	tasks := []*models.Task{}
	if err := r.selectBuilt(ctx, &tasks, sel); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Count(ctx context.Context, f TaskFilter) (int, error) {
	var n int
	sel := where(r.builder().Select().Count().From(sql.Table("tasks")), f.predicates())
	if err := r.getBuilt(ctx, &n, sel); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

// Update writes every mutable column of t. author_id and created_at are
// never rewritten.
func (r *TaskRepository) Update(ctx context.Context, t *models.Task) error {
	columns := []string{
		"title", "description", "slug", "task_type", "priority", "status",
		"assignee_id", "estimated_hours", "start_date", "due_date", "completed_at",
		"is_active", "is_public", "tags", "updated_at",
	}
	n, err := r.namedExec(ctx, updateQuery("tasks", columns), t)
	if err != nil {
		return fmt.Errorf("update task %s: %w", t.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update task %s: %w", t.ID, ErrNotFound)
	}
	return nil
}

// AddActualHours increments actual_hours in place so concurrent stops do not
// overwrite each other.
func (r *TaskRepository) AddActualHours(ctx context.Context, id uuid.UUID, hours float64, now time.Time) error {
	n, err := r.exec(ctx, "UPDATE tasks SET actual_hours = actual_hours + ?, updated_at = ? WHERE id = ?", hours, now, id)
	if err != nil {
		return fmt.Errorf("add hours to task %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("add hours to task %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := r.exec(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete task %s: %w", id, ErrNotFound)
	}
	return nil
}

var assigneeColumns = []string{"task_id", "user_id", "assigned_at", "assigned_by"}

func (r *TaskRepository) AddAssignees(ctx context.Context, links []models.TaskAssignee) error {
	query := insertQuery("task_assignees", assigneeColumns)
	for i := range links {
		if _, err := r.namedExec(ctx, query, &links[i]); err != nil {
			return fmt.Errorf("add assignee %s: %w", links[i].UserID, err)
		}
	}
	return nil
}

func (r *TaskRepository) ListAssignees(ctx context.Context, taskID uuid.UUID) ([]models.TaskAssignee, error) {
	links := []models.TaskAssignee{}
	query := "SELECT " + columnList(assigneeColumns) + " FROM task_assignees WHERE task_id = ? ORDER BY assigned_at ASC, user_id ASC"
	if err := r.selectAll(ctx, &links, query, taskID); err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	return links, nil
}

func (r *TaskRepository) DeleteAssignees(ctx context.Context, taskID uuid.UUID) error {
	if _, err := r.exec(ctx, "DELETE FROM task_assignees WHERE task_id = ?", taskID); err != nil {
		return fmt.Errorf("delete assignees: %w", err)
	}
	return nil
}

func (r *TaskRepository) countBy(ctx context.Context, column string, f TaskFilter) (map[string]int, error) {
	sel := r.builder().
		Select(sql.As(column, "label"), sql.As(sql.Count("*"), "count")).
		From(sql.Table("tasks"))
	where(sel, f.predicates()).GroupBy(column)

	var rows []labelCount
	if err := r.selectBuilt(ctx, &rows, sel); err != nil {
		return nil, fmt.Errorf("count tasks by %s: %w", column, err)
	}
	return toCountMap(rows), nil
}

func (r *TaskRepository) CountByStatus(ctx context.Context, f TaskFilter) (map[string]int, error) {
	return r.countBy(ctx, "status", f)
}

func (r *TaskRepository) CountByPriority(ctx context.Context, f TaskFilter) (map[string]int, error) {
	return r.countBy(ctx, "priority", f)
}

// CountByAssignee is keyed by the assignee id in its string form.
func (r *TaskRepository) CountByAssignee(ctx context.Context, f TaskFilter) (map[string]int, error) {
	return r.countBy(ctx, "assignee_id", f)
}

// CompletionSpan is the lifetime of a completed task.
type CompletionSpan struct {
	CreatedAt   time.Time `db:"created_at"`
	CompletedAt time.Time `db:"completed_at"`
}

// CompletionSpans lists creation and completion instants of the completed
// tasks matching f.
func (r *TaskRepository) CompletionSpans(ctx context.Context, f TaskFilter) ([]CompletionSpan, error) {
	sel := r.builder().Select("created_at", "completed_at").From(sql.Table("tasks"))
	where(sel, append(f.predicates(),
		sql.NotNull("completed_at"),
		sql.EQ("status", string(models.StatusCompleted)),
	))

	var spans []CompletionSpan
	if err := r.selectBuilt(ctx, &spans, sel); err != nil {
		return nil, fmt.Errorf("list completion spans: %w", err)
	}
	return spans, nil
}
