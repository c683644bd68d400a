package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/config"
	"github.com/gurkanbulca/taskpulse/internal/models"
	"github.com/gurkanbulca/taskpulse/internal/repository"
)

// TimeLogService runs the start/stop timer. A user may have several running
// logs at once, even overlapping on the same task.
type TimeLogService struct {
	store  *repository.Store
	clock  Clock
	limits config.ValidationConfig
}

func NewTimeLogService(store *repository.Store, clock Clock, limits config.ValidationConfig) *TimeLogService {
	return &TimeLogService{store: store, clock: clock, limits: limits}
}

type StartTimerInput struct {
	TaskID      uuid.UUID
	SubtaskID   *uuid.UUID
	Description string
}

// Start opens a running log on a task the actor is assigned.
func (s *TimeLogService) Start(ctx context.Context, actor *Actor, in StartTimerInput) (*models.TimeLog, error) {
	v := newValidator(s.limits)
	v.description(in.Description)
	if err := v.err(); err != nil {
		return nil, err
	}

	task, err := loadAssigned(ctx, s.store, actor, in.TaskID)
	if err != nil {
		return nil, err
	}
	if in.SubtaskID != nil {
		subtask, err := s.store.Subtasks.GetByID(ctx, *in.SubtaskID)
		if err != nil {
			return nil, translate(err, "subtask", "get subtask")
		}
		if subtask.ParentTaskID != task.ID {
			return nil, validation("subtask does not belong to task")
		}
	}

	now := s.clock.Now()
	entry := &models.TimeLog{
		ID:          uuid.New(),
		UserID:      actor.ID(),
		TaskID:      task.ID,
		SubtaskID:   in.SubtaskID,
		StartTime:   now,
		Description: in.Description,
		CreatedAt:   now,
	}
	if err := s.store.TimeLogs.Create(ctx, entry); err != nil {
		return nil, translate(err, "time log", "start time log")
	}
	return entry, nil
}

// Stop closes the actor's running log and rolls its hours into the task and
// subtask actual_hours, all in one transaction. Stopping twice is a Conflict.
func (s *TimeLogService) Stop(ctx context.Context, actor *Actor, id uuid.UUID) (*models.TimeLog, error) {
	var entry *models.TimeLog
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		var err error
		if entry, err = tx.TimeLogs.GetByID(ctx, id); err != nil {
			return translate(err, "time log", "get time log")
		}
		if entry.UserID != actor.ID() {
			return notFound("time log not found")
		}
		if !entry.IsRunning() {
			return conflict("time log already stopped")
		}

		now := s.clock.Now()
		minutes := models.ElapsedMinutes(entry.StartTime, now)
		stopped, err := tx.TimeLogs.Stop(ctx, entry.ID, actor.ID(), now, minutes)
		if err != nil {
			return storage("stop time log", err)
		}
		if !stopped {
			return conflict("time log already stopped")
		}
		entry.EndTime = &now
		entry.DurationMinutes = minutes

		hours := entry.DurationHours()
		if err := tx.Tasks.AddActualHours(ctx, entry.TaskID, hours, now); err != nil {
			return translate(err, "task", "add task hours")
		}
		if entry.SubtaskID != nil {
			if err := tx.Subtasks.AddActualHours(ctx, *entry.SubtaskID, hours, now); err != nil {
				return translate(err, "subtask", "add subtask hours")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

type TimeLogQuery struct {
	TaskID  *uuid.UUID
	From    *time.Time
	To      *time.Time
	Running *bool
	Limit   int
	Offset  int
}

type TimeLogList struct {
	Logs  []*models.TimeLog
	Total int
}

// List returns the actor's own logs, newest first.
func (s *TimeLogService) List(ctx context.Context, actor *Actor, q TimeLogQuery) (*TimeLogList, error) {
	if q.Offset < 0 {
		return nil, validation("offset must not be negative")
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return nil, validation("end of range is before its start")
	}

	userID := actor.ID()
	filter := repository.TimeLogFilter{
		UserID:  &userID,
		TaskID:  q.TaskID,
		From:    utcPtr(q.From),
		To:      utcPtr(q.To),
		Running: q.Running,
	}
	logs, total, err := s.store.TimeLogs.List(ctx, filter, repository.Page{Limit: clampLimit(q.Limit), Offset: q.Offset, SortDesc: true})
	if err != nil {
		return nil, storage("list time logs", err)
	}
	return &TimeLogList{Logs: logs, Total: total}, nil
}
