package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/models"
	"github.com/gurkanbulca/taskpulse/internal/service"
)

type userResponse struct {
	ID             uuid.UUID   `json:"id"`
	Email          string      `json:"email"`
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	FullName       string      `json:"full_name"`
	Role           models.Role `json:"role"`
	OrganizationID *uuid.UUID  `json:"organization_id"`
	IsActive       bool        `json:"is_active"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		FullName:       u.FullName(),
		Role:           u.Role,
		OrganizationID: u.OrganizationID,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func newUserResponses(users []*models.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	return out
}

// taskResponse adds the derived fields clients display.
type taskResponse struct {
	*models.Task
	ProgressPercentage int      `json:"progress_percentage"`
	IsOverdue          bool     `json:"is_overdue"`
	TagList            []string `json:"tag_list"`
}

func newTaskResponse(t *models.Task, now time.Time) taskResponse {
	tags := t.TagList()
	if tags == nil {
		tags = []string{}
	}
	return taskResponse{
		Task:               t,
		ProgressPercentage: t.ProgressPercentage(),
		IsOverdue:          t.IsOverdue(now),
		TagList:            tags,
	}
}

func newTaskResponses(tasks []*models.Task, now time.Time) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, newTaskResponse(t, now))
	}
	return out
}

type subtaskResponse struct {
	*models.Subtask
	ProgressPercentage int `json:"progress_percentage"`
}

func newSubtaskResponses(subtasks []*models.Subtask) []subtaskResponse {
	out := make([]subtaskResponse, 0, len(subtasks))
	for _, st := range subtasks {
		out = append(out, subtaskResponse{Subtask: st, ProgressPercentage: st.ProgressPercentage()})
	}
	return out
}

type timeLogResponse struct {
	*models.TimeLog
	DurationHours float64 `json:"duration_hours"`
	IsRunning     bool    `json:"is_running"`
}

func newTimeLogResponse(l *models.TimeLog) timeLogResponse {
	return timeLogResponse{
		TimeLog:       l,
		DurationHours: models.Round2(l.DurationHours()),
		IsRunning:     l.IsRunning(),
	}
}

func newTimeLogResponses(logs []*models.TimeLog) []timeLogResponse {
	out := make([]timeLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, newTimeLogResponse(l))
	}
	return out
}

type taskDetailResponse struct {
	taskResponse
	Subtasks  []subtaskResponse     `json:"subtasks"`
	TimeLogs  []timeLogResponse     `json:"time_logs"`
	Comments  []*models.Comment     `json:"comments"`
	Assignees []models.TaskAssignee `json:"assignees"`
}

func newTaskDetailResponse(d *service.TaskDetail, now time.Time) taskDetailResponse {
	comments := d.Comments
	if comments == nil {
		comments = []*models.Comment{}
	}
	assignees := d.Assignees
	if assignees == nil {
		assignees = []models.TaskAssignee{}
	}
	return taskDetailResponse{
		taskResponse: newTaskResponse(d.Task, now),
		Subtasks:     newSubtaskResponses(d.Subtasks),
		TimeLogs:     newTimeLogResponses(d.TimeLogs),
		Comments:     comments,
		Assignees:    assignees,
	}
}

type performerResponse struct {
	UserID         uuid.UUID `json:"user_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	CompletedTasks int       `json:"completed_tasks"`
}

type userPerformanceResponse struct {
	UserID         uuid.UUID   `json:"user_id"`
	UserName       string      `json:"user_name"`
	Email          string      `json:"email"`
	Role           models.Role `json:"role"`
	TotalTasks     int         `json:"total_tasks"`
	CompletedTasks int         `json:"completed_tasks"`
	CompletionRate float64     `json:"completion_rate"`
	HoursLogged    float64     `json:"hours_logged"`
}

// analyticsResponse renders period figures. tasksKey names the task count:
// tasks_created for the admin overview, tasks_assigned for personal views.
func analyticsResponse(a *service.Analytics, tasksKey string) map[string]any {
	return map[string]any{
		"period":                        a.Period,
		"start_date":                    a.StartDate,
		"end_date":                      a.EndDate,
		tasksKey:                        a.Tasks,
		"tasks_completed":               a.TasksCompleted,
		"overdue_tasks":                 a.OverdueTasks,
		"hours_logged":                  a.HoursLogged,
		"completion_rate":               a.CompletionRate,
		"average_completion_time_hours": a.AvgCompletionHours,
		"tasks_by_status":               nonNilCounts(a.TasksByStatus),
		"tasks_by_priority":             nonNilCounts(a.TasksByPriority),
	}
}

func nonNilCounts(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}
