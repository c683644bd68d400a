package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusReview     TaskStatus = "review"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

var TaskStatuses = []TaskStatus{StatusPending, StatusInProgress, StatusReview, StatusCompleted, StatusCancelled}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

var TaskPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

type TaskType string

const (
	TypeTask        TaskType = "task"
	TypeProject     TaskType = "project"
	TypeBug         TaskType = "bug"
	TypeFeature     TaskType = "feature"
	TypeMaintenance TaskType = "maintenance"
)

var TaskTypes = []TaskType{TypeTask, TypeProject, TypeBug, TypeFeature, TypeMaintenance}

func ParseTaskStatus(s string) (TaskStatus, error) {
	return parseEnum(s, TaskStatuses, "status")
}

func ParseTaskPriority(s string) (TaskPriority, error) {
	return parseEnum(s, TaskPriorities, "priority")
}

func ParseTaskType(s string) (TaskType, error) {
	return parseEnum(s, TaskTypes, "task type")
}

func parseEnum[T ~string](s string, valid []T, what string) (T, error) {
	v := T(strings.ToLower(strings.TrimSpace(s)))
	for _, candidate := range valid {
		if v == candidate {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid %s %q", what, s)
}

// IsTerminal reports whether no further transitions are allowed.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ProgressPercentage is a fixed mapping from status.
func (s TaskStatus) ProgressPercentage() int {
	switch s {
	case StatusInProgress:
		return 50
	case StatusReview:
		return 75
	case StatusCompleted:
		return 100
	default:
		return 0
	}
}

var statusRank = map[TaskStatus]int{
	StatusPending:    0,
	StatusInProgress: 1,
	StatusReview:     2,
	StatusCompleted:  3,
}

// CanTransition reports whether a status change from -> to is allowed.
// Work moves forward through pending, in_progress, review and completed,
// review may drop back to in_progress, and any non-terminal status may be
// cancelled. Terminal statuses never change.
func CanTransition(from, to TaskStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	if from == StatusReview && to == StatusInProgress {
		return true
	}
	return statusRank[to] > statusRank[from]
}

type Task struct {
	ID             uuid.UUID    `db:"id" json:"id"`
	Title          string       `db:"title" json:"title"`
	Description    string       `db:"description" json:"description"`
	Slug           string       `db:"slug" json:"slug"`
	TaskType       TaskType     `db:"task_type" json:"task_type"`
	Priority       TaskPriority `db:"priority" json:"priority"`
	Status         TaskStatus   `db:"status" json:"status"`
	AuthorID       uuid.UUID    `db:"author_id" json:"author_id"`
	AssigneeID     uuid.UUID    `db:"assignee_id" json:"assignee_id"`
	EstimatedHours *float64     `db:"estimated_hours" json:"estimated_hours"`
	ActualHours    float64      `db:"actual_hours" json:"actual_hours"`
	StartDate      *time.Time   `db:"start_date" json:"start_date"`
	DueDate        *time.Time   `db:"due_date" json:"due_date"`
	CompletedAt    *time.Time   `db:"completed_at" json:"completed_at"`
	IsActive       bool         `db:"is_active" json:"is_active"`
	IsPublic       bool         `db:"is_public" json:"is_public"`
	Tags           string       `db:"tags" json:"tags"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}

func (t *Task) ProgressPercentage() int {
	return t.Status.ProgressPercentage()
}

// IsOverdue is true when the due date has passed and the task is not
// completed. Both instants are compared in UTC.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == StatusCompleted {
		return false
	}
	return now.UTC().After(t.DueDate.UTC())
}

// IsParticipant reports whether the user authored or is assigned the task.
func (t *Task) IsParticipant(userID uuid.UUID) bool {
	return t.AuthorID == userID || t.AssigneeID == userID
}

// TagList splits the comma separated tags.
func (t *Task) TagList() []string {
	var tags []string
	for _, tag := range strings.Split(t.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// TaskAssignee is a secondary assignment link. Informational only.
type TaskAssignee struct {
	TaskID     uuid.UUID  `db:"task_id" json:"task_id"`
	UserID     uuid.UUID  `db:"user_id" json:"user_id"`
	AssignedAt time.Time  `db:"assigned_at" json:"assigned_at"`
	AssignedBy *uuid.UUID `db:"assigned_by" json:"assigned_by"`
}

type Subtask struct {
	ID                 uuid.UUID    `db:"id" json:"id"`
	Title              string       `db:"title" json:"title"`
	Description        string       `db:"description" json:"description"`
	ParentTaskID       uuid.UUID    `db:"parent_task_id" json:"parent_task_id"`
	AssigneeID         uuid.UUID    `db:"assignee_id" json:"assignee_id"`
	Status             TaskStatus   `db:"status" json:"status"`
	Priority           TaskPriority `db:"priority" json:"priority"`
	EstimatedHours     *float64     `db:"estimated_hours" json:"estimated_hours"`
	ActualHours        float64      `db:"actual_hours" json:"actual_hours"`
	DueDate            *time.Time   `db:"due_date" json:"due_date"`
	CompletedAt        *time.Time   `db:"completed_at" json:"completed_at"`
	OrderIndex         int          `db:"order_index" json:"order_index"`
	DependsOnSubtaskID *uuid.UUID   `db:"depends_on_subtask_id" json:"depends_on_subtask_id"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at" json:"updated_at"`
}

func (s *Subtask) ProgressPercentage() int {
	return s.Status.ProgressPercentage()
}

type Comment struct {
	ID         uuid.UUID `db:"id" json:"id"`
	TaskID     uuid.UUID `db:"task_id" json:"task_id"`
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	Content    string    `db:"content" json:"content"`
	IsInternal bool      `db:"is_internal" json:"is_internal"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
