package repository

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/models"
)

var timeLogColumns = []string{
	"id", "user_id", "task_id", "subtask_id", "start_time", "end_time",
	"duration_minutes", "description", "created_at",
}

var timeLogSortable = map[string]string{
	"start_time":       "start_time",
	"created_at":       "created_at",
	"duration_minutes": "duration_minutes",
}

type TimeLogRepository struct {
	querier
}

// TimeLogFilter narrows time log queries. From is inclusive and To exclusive,
// both applied to start_time.
type TimeLogFilter struct {
	UserID  *uuid.UUID
	TaskID  *uuid.UUID
	From    *time.Time
	To      *time.Time
	Running *bool
}

func (f TimeLogFilter) predicates() []*sql.Predicate {
	var preds []*sql.Predicate
	if f.UserID != nil {
		preds = append(preds, sql.EQ("user_id", *f.UserID))
	}
	if f.TaskID != nil {
		preds = append(preds, sql.EQ("task_id", *f.TaskID))
	}
	if f.Running != nil {
		if *f.Running {
			preds = append(preds, sql.IsNull("end_time"))
		} else {
			preds = append(preds, sql.NotNull("end_time"))
		}
	}
	return appendRange(preds, "start_time", f.From, f.To)
}

func (r *TimeLogRepository) Create(ctx context.Context, l *models.TimeLog) error {
	if _, err := r.namedExec(ctx, insertQuery("time_logs", timeLogColumns), l); err != nil {
		return fmt.Errorf("create time log: %w", err)
	}
	return nil
}

func (r *TimeLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TimeLog, error) {
	var l models.TimeLog
	query := "SELECT " + columnList(timeLogColumns) + " FROM time_logs WHERE id = ?"
	if err := r.get(ctx, &l, query, id); err != nil {
		return nil, fmt.Errorf("get time log %s: %w", id, err)
	}
	return &l, nil
}

// Stop closes a running log owned by userID. It reports false when no row
// matched, either because the log does not exist, belongs to someone else,
// or was already stopped.
func (r *TimeLogRepository) Stop(ctx context.Context, id, userID uuid.UUID, end time.Time, minutes int) (bool, error) {
	n, err := r.exec(ctx,
		"UPDATE time_logs SET end_time = ?, duration_minutes = ? WHERE id = ? AND user_id = ? AND end_time IS NULL",
		end, minutes, id, userID)
	if err != nil {
		return false, fmt.Errorf("stop time log %s: %w", id, err)
	}
	return n == 1, nil
}

func (r *TimeLogRepository) List(ctx context.Context, f TimeLogFilter, page Page) ([]*models.TimeLog, int, error) {
	preds := f.predicates()

	var total int
	count := where(r.builder().Select().Count().From(sql.Table("time_logs")), preds)
	if err := r.getBuilt(ctx, &total, count); err != nil {
		return nil, 0, fmt.Errorf("count time logs: %w", err)
	}

	sel := where(r.builder().Select(timeLogColumns...).From(sql.Table("time_logs")), preds)
	page.apply(sel, timeLogSortable, "start_time")

	logs := []*models.TimeLog{}
	if err := r.selectBuilt(ctx, &logs, sel); err != nil {
		return nil, 0, fmt.Errorf("list time logs: %w", err)
	}
	return logs, total, nil
}

func (r *TimeLogRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.TimeLog, error) {
	logs := []*models.TimeLog{}
	query := "SELECT " + columnList(timeLogColumns) + " FROM time_logs WHERE task_id = ? ORDER BY start_time DESC, id ASC"
	if err := r.selectAll(ctx, &logs, query, taskID); err != nil {
		return nil, fmt.Errorf("list time logs for task: %w", err)
	}
	return logs, nil
}

func (r *TimeLogRepository) DeleteByTask(ctx context.Context, taskID uuid.UUID) (int64, error) {
	n, err := r.exec(ctx, "DELETE FROM time_logs WHERE task_id = ?", taskID)
	if err != nil {
		return 0, fmt.Errorf("delete time logs: %w", err)
	}
	return n, nil
}

// DetachSubtask keeps the logs of a removed subtask on the parent task.
func (r *TimeLogRepository) DetachSubtask(ctx context.Context, subtaskID uuid.UUID) error {
	if _, err := r.exec(ctx, "UPDATE time_logs SET subtask_id = NULL WHERE subtask_id = ?", subtaskID); err != nil {
		return fmt.Errorf("detach time logs from subtask %s: %w", subtaskID, err)
	}
	return nil
}

// SumMinutes totals duration_minutes over stopped logs matching f. Running
// logs never contribute.
func (r *TimeLogRepository) SumMinutes(ctx context.Context, f TimeLogFilter) (int, error) {
	sel := r.builder().
		Select(sql.As("COALESCE(SUM(duration_minutes), 0)", "total")).
		From(sql.Table("time_logs"))
	where(sel, append(f.predicates(), sql.NotNull("end_time")))

	var total int
	if err := r.getBuilt(ctx, &total, sel); err != nil {
		return 0, fmt.Errorf("sum time logs: %w", err)
	}
	return total, nil
}

// SumMinutesByUser groups the stopped minutes matching f by user id in its
// string form.
func (r *TimeLogRepository) SumMinutesByUser(ctx context.Context, f TimeLogFilter) (map[string]int, error) {
	sel := r.builder().
		Select(sql.As("user_id", "label"), sql.As("COALESCE(SUM(duration_minutes), 0)", "count")).
		From(sql.Table("time_logs"))
	where(sel, append(f.predicates(), sql.NotNull("end_time"))).GroupBy("user_id")

	var rows []labelCount
	if err := r.selectBuilt(ctx, &rows, sel); err != nil {
		return nil, fmt.Errorf("sum time logs by user: %w", err)
	}
	return toCountMap(rows), nil
}
