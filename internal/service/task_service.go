// internal/service/task_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/config"
	"github.com/gurkanbulca/taskpulse/internal/models"
	"github.com/gurkanbulca/taskpulse/internal/repository"
	"github.com/gurkanbulca/taskpulse/pkg/email"
)

type TaskService struct {
	store        *repository.Store
	emailService email.EmailService
	clock        Clock
	deletePolicy DeletePolicy
	limits       config.ValidationConfig
}

func NewTaskService(
	store *repository.Store,
	emailService email.EmailService,
	clock Clock,
	deletePolicy DeletePolicy,
	limits config.ValidationConfig,
) *TaskService {
	return &TaskService{
		store:        store,
		emailService: emailService,
		clock:        clock,
		deletePolicy: deletePolicy,
		limits:       limits,
	}
}

// CreateTaskInput carries a new task. Enum fields are free text and are
// validated before anything is written.
type CreateTaskInput struct {
	Title          string
	Description    string
	TaskType       string
	Priority       string
	AssigneeID     *uuid.UUID
	AssigneeIDs    []uuid.UUID
	EstimatedHours *float64
	StartDate      *time.Time
	DueDate        *time.Time
	IsPublic       bool
	Tags           string
	Subtasks       []CreateSubtaskInput
}

type CreateSubtaskInput struct {
	Title              string
	Description        string
	Priority           string
	AssigneeID         *uuid.UUID
	EstimatedHours     *float64
	DueDate            *time.Time
	OrderIndex         *int
	DependsOnSubtaskID *uuid.UUID
}

// CreateTask creates a task authored by actor. The assignee defaults to the
// actor. The task row, its assignee links and every subtask are written in
// one transaction.
func (s *TaskService) CreateTask(ctx context.Context, actor *Actor, in CreateTaskInput) (*models.Task, error) {
	return s.createTask(ctx, actor, in)
}

// CreateTaskForUser is the admin variant; the assignee is mandatory.
func (s *TaskService) CreateTaskForUser(ctx context.Context, actor *Actor, in CreateTaskInput) (*models.Task, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if in.AssigneeID == nil {
		return nil, validation("assignee_id is required")
	}
	return s.createTask(ctx, actor, in)
}

func (s *TaskService) createTask(ctx context.Context, actor *Actor, in CreateTaskInput) (*models.Task, error) {
	v := newValidator(s.limits)
	v.title(in.Title)
	v.description(in.Description)
	v.tags(in.Tags)
	v.hours("estimated_hours", in.EstimatedHours)
	taskType := parseOr(v, in.TaskType, models.TypeTask, models.ParseTaskType)
	priority := parseOr(v, in.Priority, models.PriorityMedium, models.ParseTaskPriority)

	subtaskPriorities := make([]models.TaskPriority, len(in.Subtasks))
	for i, st := range in.Subtasks {
		v.title(st.Title)
		v.description(st.Description)
		v.hours("subtask estimated_hours", st.EstimatedHours)
		subtaskPriorities[i] = parseOr(v, st.Priority, models.PriorityMedium, models.ParseTaskPriority)
		if st.DependsOnSubtaskID != nil {
			v.addf("subtasks created with a task cannot declare dependencies")
		}
		if st.OrderIndex != nil && *st.OrderIndex < 0 {
			v.addf("order_index must not be negative")
		}
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	assigneeID := actor.ID()
	if in.AssigneeID != nil {
		assigneeID = *in.AssigneeID
	}

	task := &models.Task{
		ID:             uuid.New(),
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		TaskType:       taskType,
		Priority:       priority,
		Status:         models.StatusPending,
		AuthorID:       actor.ID(),
		AssigneeID:     assigneeID,
		EstimatedHours: in.EstimatedHours,
		StartDate:      utcPtr(in.StartDate),
		DueDate:        utcPtr(in.DueDate),
		IsActive:       true,
		IsPublic:       in.IsPublic,
		Tags:           in.Tags,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		referenced := []uuid.UUID{assigneeID}
		referenced = append(referenced, in.AssigneeIDs...)
		for _, st := range in.Subtasks {
			if st.AssigneeID != nil {
				referenced = append(referenced, *st.AssigneeID)
			}
		}
		missing, err := tx.Users.MissingIDs(ctx, dedupe(referenced))
		if err != nil {
			return storage("verify assignees", err)
		}
		if len(missing) > 0 {
			return notFound("assignee %s not found", missing[0])
		}

		if task.Slug, err = uniqueSlug(ctx, tx.Tasks, task.Title, task.ID); err != nil {
			return err
		}
		if err := tx.Tasks.Create(ctx, task); err != nil {
			return translate(err, "task", "create task")
		}

		links := make([]models.TaskAssignee, 0, len(in.AssigneeIDs)+1)
		for _, userID := range dedupe(append([]uuid.UUID{assigneeID}, in.AssigneeIDs...)) {
			by := actor.ID()
			links = append(links, models.TaskAssignee{TaskID: task.ID, UserID: userID, AssignedAt: now, AssignedBy: &by})
		}
		if err := tx.Tasks.AddAssignees(ctx, links); err != nil {
			return storage("link assignees", err)
		}

		for i, st := range in.Subtasks {
			subtask := &models.Subtask{
				ID:             uuid.New(),
				Title:          strings.TrimSpace(st.Title),
				Description:    st.Description,
				ParentTaskID:   task.ID,
				AssigneeID:     assigneeID,
				Status:         models.StatusPending,
				Priority:       subtaskPriorities[i],
				EstimatedHours: st.EstimatedHours,
				DueDate:        utcPtr(st.DueDate),
				OrderIndex:     i,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if st.AssigneeID != nil {
				subtask.AssigneeID = *st.AssigneeID
			}
			if st.OrderIndex != nil {
				subtask.OrderIndex = *st.OrderIndex
			}
			if err := tx.Subtasks.Create(ctx, subtask); err != nil {
				return storage("create subtask", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if task.AssigneeID != actor.ID() {
		s.notifyAssignment(ctx, task, actor)
	}
	return task, nil
}

// GetTask returns a task the actor authored or is assigned. Anyone else gets
// NotFound so task ids do not leak.
func (s *TaskService) GetTask(ctx context.Context, actor *Actor, id uuid.UUID) (*models.Task, error) {
	return s.loadVisible(ctx, actor, id)
}

// TaskDetail is a task with everything hanging off it.
type TaskDetail struct {
	Task      *models.Task
	Subtasks  []*models.Subtask
	TimeLogs  []*models.TimeLog
	Comments  []*models.Comment
	Assignees []models.TaskAssignee
}

func (s *TaskService) GetTaskDetail(ctx context.Context, actor *Actor, id uuid.UUID) (*TaskDetail, error) {
	task, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, task, actor.IsStaff())
}

// AdminGetTask returns any task with internal comments included.
func (s *TaskService) AdminGetTask(ctx context.Context, actor *Actor, id uuid.UUID) (*TaskDetail, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	task, err := s.store.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "task", "get task")
	}
	return s.detail(ctx, task, true)
}

func (s *TaskService) detail(ctx context.Context, task *models.Task, includeInternal bool) (*TaskDetail, error) {
	d := &TaskDetail{Task: task}
	var err error
	if d.Subtasks, err = s.store.Subtasks.ListByTask(ctx, task.ID); err != nil {
		return nil, storage("load subtasks", err)
	}
	if d.TimeLogs, err = s.store.TimeLogs.ListByTask(ctx, task.ID); err != nil {
		return nil, storage("load time logs", err)
	}
	if d.Comments, err = s.store.Comments.ListByTask(ctx, task.ID, includeInternal); err != nil {
		return nil, storage("load comments", err)
	}
	if d.Assignees, err = s.store.Tasks.ListAssignees(ctx, task.ID); err != nil {
		return nil, storage("load assignees", err)
	}
	return d, nil
}

// TaskQuery is the free-text listing filter accepted from clients.
type TaskQuery struct {
	Status     string
	Priority   string
	TaskType   string
	Search     string
	AssigneeID *uuid.UUID
	AuthorID   *uuid.UUID
	Overdue    bool
	Limit      int
	Offset     int
	SortBy     string
	SortDesc   bool
}

type TaskList struct {
	Tasks []*models.Task
	Total int
}

// ListMyTasks lists tasks the actor authored or is assigned.
func (s *TaskService) ListMyTasks(ctx context.Context, actor *Actor, q TaskQuery) (*TaskList, error) {
	filter, page, err := s.parseQuery(q)
	if err != nil {
		return nil, err
	}
	id := actor.ID()
	filter.ParticipantID = &id
	return s.list(ctx, filter, page)
}

// ListAllTasks is the admin listing across every user.
func (s *TaskService) ListAllTasks(ctx context.Context, actor *Actor, q TaskQuery) (*TaskList, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	filter, page, err := s.parseQuery(q)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, filter, page)
}

// ListUserTasks lists the tasks a given user authored or is assigned. Admin only.
func (s *TaskService) ListUserTasks(ctx context.Context, actor *Actor, userID uuid.UUID, q TaskQuery) (*TaskList, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.store.Users.GetByID(ctx, userID); err != nil {
		return nil, translate(err, "user", "get user")
	}
	filter, page, err := s.parseQuery(q)
	if err != nil {
		return nil, err
	}
	filter.ParticipantID = &userID
	return s.list(ctx, filter, page)
}

func (s *TaskService) list(ctx context.Context, filter repository.TaskFilter, page repository.Page) (*TaskList, error) {
	total, err := s.store.Tasks.Count(ctx, filter)
	if err != nil {
		return nil, storage("count tasks", err)
	}
	tasks, err := s.store.Tasks.List(ctx, filter, page)
	if err != nil {
		return nil, storage("list tasks", err)
	}
	return &TaskList{Tasks: tasks, Total: total}, nil
}

// parseQuery validates the enum literals before any predicate is built.
func (s *TaskService) parseQuery(q TaskQuery) (repository.TaskFilter, repository.Page, error) {
	var filter repository.TaskFilter
	v := newValidator(s.limits)

	if q.Status != "" {
		if status, err := models.ParseTaskStatus(q.Status); err != nil {
			v.addf("%v", err)
		} else {
			filter.Statuses = []models.TaskStatus{status}
		}
	}
	if q.Priority != "" {
		if priority, err := models.ParseTaskPriority(q.Priority); err != nil {
			v.addf("%v", err)
		} else {
			filter.Priority = &priority
		}
	}
	if q.TaskType != "" {
		if taskType, err := models.ParseTaskType(q.TaskType); err != nil {
			v.addf("%v", err)
		} else {
			filter.TaskType = &taskType
		}
	}
	if q.Offset < 0 {
		v.addf("offset must not be negative")
	}
	if err := v.err(); err != nil {
		return filter, repository.Page{}, err
	}

	filter.Search = strings.TrimSpace(q.Search)
	filter.AssigneeID = q.AssigneeID
	filter.AuthorID = q.AuthorID
	if q.Overdue {
		now := s.clock.Now()
		filter.OverdueAt = &now
	}

	page := repository.Page{
		Limit:    clampLimit(q.Limit),
		Offset:   q.Offset,
		SortBy:   q.SortBy,
		SortDesc: q.SortDesc,
	}
	return filter, page, nil
}

// UpdateTaskInput holds optional field changes. Nil means unchanged.
type UpdateTaskInput struct {
	Title          *string
	Description    *string
	TaskType       *string
	Priority       *string
	Status         *string
	EstimatedHours *float64
	StartDate      *time.Time
	DueDate        *time.Time
	IsPublic       *bool
	IsActive       *bool
	Tags           *string
}

// UpdateTask applies field changes. Only the primary assignee may update.
func (s *TaskService) UpdateTask(ctx context.Context, actor *Actor, id uuid.UUID, in UpdateTaskInput) (*models.Task, error) {
	v := newValidator(s.limits)
	if in.Title != nil {
		v.title(*in.Title)
	}
	if in.Description != nil {
		v.description(*in.Description)
	}
	if in.Tags != nil {
		v.tags(*in.Tags)
	}
	v.hours("estimated_hours", in.EstimatedHours)

	var (
		taskType *models.TaskType
		priority *models.TaskPriority
		status   *models.TaskStatus
	)
	if in.TaskType != nil {
		t := parseOr(v, *in.TaskType, "", models.ParseTaskType)
		taskType = &t
	}
	if in.Priority != nil {
		p := parseOr(v, *in.Priority, "", models.ParseTaskPriority)
		priority = &p
	}
	if in.Status != nil {
		st := parseOr(v, *in.Status, "", models.ParseTaskStatus)
		status = &st
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	var task *models.Task
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		var err error
		if task, err = loadAssigned(ctx, tx, actor, id); err != nil {
			return err
		}
		now := s.clock.Now()

		if in.Title != nil {
			if err := s.retitle(ctx, tx, task, *in.Title); err != nil {
				return err
			}
		}
		if in.Description != nil {
			task.Description = *in.Description
		}
		if taskType != nil {
			task.TaskType = *taskType
		}
		if priority != nil {
			task.Priority = *priority
		}
		if status != nil {
			if err := applyStatus(&task.Status, &task.CompletedAt, *status, now); err != nil {
				return err
			}
		}
		if in.EstimatedHours != nil {
			task.EstimatedHours = in.EstimatedHours
		}
		if in.StartDate != nil {
			task.StartDate = utcPtr(in.StartDate)
		}
		if in.DueDate != nil {
			task.DueDate = utcPtr(in.DueDate)
		}
		if in.IsPublic != nil {
			task.IsPublic = *in.IsPublic
		}
		if in.IsActive != nil {
			task.IsActive = *in.IsActive
		}
		if in.Tags != nil {
			task.Tags = *in.Tags
		}
		task.UpdatedAt = now

		return translate(tx.Tasks.Update(ctx, task), "task", "update task")
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTitle changes only the title and regenerates the slug.
func (s *TaskService) UpdateTitle(ctx context.Context, actor *Actor, id uuid.UUID, title string) (*models.Task, error) {
	return s.UpdateTask(ctx, actor, id, UpdateTaskInput{Title: &title})
}

// ChangeStatus moves the task through the status machine.
func (s *TaskService) ChangeStatus(ctx context.Context, actor *Actor, id uuid.UUID, status string) (*models.Task, error) {
	return s.UpdateTask(ctx, actor, id, UpdateTaskInput{Status: &status})
}

func (s *TaskService) retitle(ctx context.Context, tx *repository.Store, task *models.Task, title string) error {
	title = strings.TrimSpace(title)
	if title == task.Title {
		return nil
	}
	slug, err := uniqueSlug(ctx, tx.Tasks, title, task.ID)
	if err != nil {
		return err
	}
	task.Title = title
	task.Slug = slug
	return nil
}

// DeleteTask hard-deletes the task and everything it owns in one
// transaction: time logs, comments, assignee links, subtasks, then the task.
func (s *TaskService) DeleteTask(ctx context.Context, actor *Actor, id uuid.UUID) error {
	return s.store.WithTx(ctx, func(tx *repository.Store) error {
		task, err := tx.Tasks.GetByID(ctx, id)
		if err != nil {
			return translate(err, "task", "get task")
		}
		if err := s.deletePolicy.check(task, actor); err != nil {
			return err
		}
		return cascadeDelete(ctx, tx, task.ID)
	})
}

func cascadeDelete(ctx context.Context, tx *repository.Store, taskID uuid.UUID) error {
	if _, err := tx.TimeLogs.DeleteByTask(ctx, taskID); err != nil {
		return storage("delete time logs", err)
	}
	if _, err := tx.Comments.DeleteByTask(ctx, taskID); err != nil {
		return storage("delete comments", err)
	}
	if err := tx.Tasks.DeleteAssignees(ctx, taskID); err != nil {
		return storage("delete assignees", err)
	}
	if _, err := tx.Subtasks.DeleteByTask(ctx, taskID); err != nil {
		return storage("delete subtasks", err)
	}
	return translate(tx.Tasks.Delete(ctx, taskID), "task", "delete task")
}

// ReassignByEmail hands the task to the user with the given email. Only the
// author or the current assignee may do this. The status always resets to
// pending, even from a terminal status.
func (s *TaskService) ReassignByEmail(ctx context.Context, actor *Actor, id uuid.UUID, assigneeEmail string) (*models.Task, error) {
	assigneeEmail = normalizeEmail(assigneeEmail)
	if assigneeEmail == "" {
		return nil, validation("email is required")
	}

	var task *models.Task
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		var err error
		if task, err = tx.Tasks.GetByID(ctx, id); err != nil {
			return translate(err, "task", "get task")
		}
		if !task.IsParticipant(actor.ID()) {
			return forbidden("only the author or assignee may reassign this task")
		}

		target, err := tx.Users.GetByEmail(ctx, assigneeEmail)
		if err != nil {
			return translate(err, "user", "get user")
		}

		now := s.clock.Now()
		task.AssigneeID = target.ID
		task.Status = models.StatusPending
		task.UpdatedAt = now
		if err := tx.Tasks.Update(ctx, task); err != nil {
			return translate(err, "task", "update task")
		}

		links, err := tx.Tasks.ListAssignees(ctx, task.ID)
		if err != nil {
			return storage("load assignees", err)
		}
		for _, l := range links {
			if l.UserID == target.ID {
				return nil
			}
		}
		by := actor.ID()
		link := models.TaskAssignee{TaskID: task.ID, UserID: target.ID, AssignedAt: now, AssignedBy: &by}
		if err := tx.Tasks.AddAssignees(ctx, []models.TaskAssignee{link}); err != nil {
			return storage("link assignee", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if task.AssigneeID != actor.ID() {
		s.notifyAssignment(ctx, task, actor)
	}
	return task, nil
}

// AddSubtask appends a subtask. The parent's author or assignee may add one.
func (s *TaskService) AddSubtask(ctx context.Context, actor *Actor, taskID uuid.UUID, in CreateSubtaskInput) (*models.Subtask, error) {
	v := newValidator(s.limits)
	v.title(in.Title)
	v.description(in.Description)
	v.hours("estimated_hours", in.EstimatedHours)
	priority := parseOr(v, in.Priority, models.PriorityMedium, models.ParseTaskPriority)
	if in.OrderIndex != nil && *in.OrderIndex < 0 {
		v.addf("order_index must not be negative")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	var subtask *models.Subtask
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		task, err := loadVisibleTx(ctx, tx, actor, taskID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		subtask = &models.Subtask{
			ID:             uuid.New(),
			Title:          strings.TrimSpace(in.Title),
			Description:    in.Description,
			ParentTaskID:   task.ID,
			AssigneeID:     task.AssigneeID,
			Status:         models.StatusPending,
			Priority:       priority,
			EstimatedHours: in.EstimatedHours,
			DueDate:        utcPtr(in.DueDate),
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if in.AssigneeID != nil {
			if _, err := tx.Users.GetByID(ctx, *in.AssigneeID); err != nil {
				return translate(err, "assignee", "get assignee")
			}
			subtask.AssigneeID = *in.AssigneeID
		}

		if in.DependsOnSubtaskID != nil {
			dep, err := tx.Subtasks.GetByID(ctx, *in.DependsOnSubtaskID)
			if errors.Is(err, repository.ErrNotFound) || (err == nil && dep.ParentTaskID != task.ID) {
				return validation("depends_on_subtask_id must reference a subtask of the same task")
			}
			if err != nil {
				return storage("get dependency", err)
			}
			subtask.DependsOnSubtaskID = &dep.ID
		}

		if in.OrderIndex != nil {
			subtask.OrderIndex = *in.OrderIndex
		} else if subtask.OrderIndex, err = tx.Subtasks.NextOrderIndex(ctx, task.ID); err != nil {
			return storage("next order index", err)
		}

		return translate(tx.Subtasks.Create(ctx, subtask), "subtask", "create subtask")
	})
	if err != nil {
		return nil, err
	}
	return subtask, nil
}

func (s *TaskService) ListSubtasks(ctx context.Context, actor *Actor, taskID uuid.UUID) ([]*models.Subtask, error) {
	task, err := s.loadVisible(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	subtasks, err := s.store.Subtasks.ListByTask(ctx, task.ID)
	if err != nil {
		return nil, storage("list subtasks", err)
	}
	return subtasks, nil
}

// ChangeSubtaskStatus is open to the subtask assignee and the parent task
// assignee. It follows the same transitions as tasks.
func (s *TaskService) ChangeSubtaskStatus(ctx context.Context, actor *Actor, subtaskID uuid.UUID, status string) (*models.Subtask, error) {
	to, err := models.ParseTaskStatus(status)
	if err != nil {
		return nil, validation("%v", err)
	}

	var subtask *models.Subtask
	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		var task *models.Task
		var err error
		if subtask, task, err = loadSubtask(ctx, tx, subtaskID); err != nil {
			return err
		}
		if subtask.AssigneeID != actor.ID() && task.AssigneeID != actor.ID() {
			if task.IsParticipant(actor.ID()) {
				return forbidden("only the subtask or task assignee may change its status")
			}
			return notFound("subtask not found")
		}

		now := s.clock.Now()
		if err := applyStatus(&subtask.Status, &subtask.CompletedAt, to, now); err != nil {
			return err
		}
		subtask.UpdatedAt = now
		return translate(tx.Subtasks.Update(ctx, subtask), "subtask", "update subtask")
	})
	if err != nil {
		return nil, err
	}
	return subtask, nil
}

// DeleteSubtask removes a subtask. Its time logs stay on the parent task and
// siblings that depended on it lose the dependency.
func (s *TaskService) DeleteSubtask(ctx context.Context, actor *Actor, subtaskID uuid.UUID) error {
	return s.store.WithTx(ctx, func(tx *repository.Store) error {
		subtask, task, err := loadSubtask(ctx, tx, subtaskID)
		if err != nil {
			return err
		}
		if !task.IsParticipant(actor.ID()) {
			return notFound("subtask not found")
		}
		if err := tx.TimeLogs.DetachSubtask(ctx, subtask.ID); err != nil {
			return storage("detach time logs", err)
		}
		if err := tx.Subtasks.ClearDependency(ctx, subtask.ID); err != nil {
			return storage("clear dependency", err)
		}
		return translate(tx.Subtasks.Delete(ctx, subtask.ID), "subtask", "delete subtask")
	})
}

func loadSubtask(ctx context.Context, tx *repository.Store, id uuid.UUID) (*models.Subtask, *models.Task, error) {
	subtask, err := tx.Subtasks.GetByID(ctx, id)
	if err != nil {
		return nil, nil, translate(err, "subtask", "get subtask")
	}
	task, err := tx.Tasks.GetByID(ctx, subtask.ParentTaskID)
	if err != nil {
		return nil, nil, translate(err, "task", "get task")
	}
	return subtask, task, nil
}

func (s *TaskService) loadVisible(ctx context.Context, actor *Actor, id uuid.UUID) (*models.Task, error) {
	return loadVisibleTx(ctx, s.store, actor, id)
}

// loadVisibleTx loads a task the actor participates in. Non-participants get
// NotFound.
func loadVisibleTx(ctx context.Context, st *repository.Store, actor *Actor, id uuid.UUID) (*models.Task, error) {
	task, err := st.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "task", "get task")
	}
	if !task.IsParticipant(actor.ID()) {
		return nil, notFound("task not found")
	}
	return task, nil
}

// loadAssigned loads a task whose primary assignee is the actor.
func loadAssigned(ctx context.Context, st *repository.Store, actor *Actor, id uuid.UUID) (*models.Task, error) {
	task, err := st.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "task", "get task")
	}
	if task.AssigneeID != actor.ID() {
		return nil, notFound("task not found")
	}
	return task, nil
}

// applyStatus moves *status to to, stamping *completedAt on completion.
// Setting the current status again is a no-op.
func applyStatus(status *models.TaskStatus, completedAt **time.Time, to models.TaskStatus, now time.Time) error {
	from := *status
	if from == to {
		return nil
	}
	if !models.CanTransition(from, to) {
		if from.IsTerminal() {
			return conflict("status %s is final", from)
		}
		return conflict("cannot move from %s to %s", from, to)
	}
	*status = to
	if to == models.StatusCompleted {
		completed := now
		*completedAt = &completed
	}
	return nil
}

// uniqueSlug derives a slug from title, suffixing -2, -3, ... until no other
// task holds it.
func uniqueSlug(ctx context.Context, tasks *repository.TaskRepository, title string, taskID uuid.UUID) (string, error) {
	base := models.Slugify(title)
	slug := base
	for n := 2; ; n++ {
		taken, err := tasks.SlugExists(ctx, slug, taskID)
		if err != nil {
			return "", storage("check slug", err)
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

func (s *TaskService) notifyAssignment(ctx context.Context, task *models.Task, by *Actor) {
	if s.emailService == nil {
		return
	}
	assignee, err := s.store.Users.GetByID(ctx, task.AssigneeID)
	if err != nil {
		log.Printf("[ERROR] assignment notification for task %s: %v", task.ID, err)
		return
	}
	author := by.User()
	err = s.emailService.SendTaskAssignedEmail(ctx, email.TaskAssignment{
		Assignee:   email.Recipient{Email: assignee.Email, FirstName: assignee.FirstName},
		AssignedBy: author.FullName(),
		TaskID:     task.ID.String(),
		TaskTitle:  task.Title,
		Priority:   string(task.Priority),
		DueDate:    task.DueDate,
	})
	if err != nil {
		log.Printf("[ERROR] assignment notification for task %s: %v", task.ID, err)
	}
}

// parseOr parses raw with parse, returning def for an empty string and
// recording a validation problem for an unknown literal.
func parseOr[T ~string](v *validator, raw string, def T, parse func(string) (T, error)) T {
	if strings.TrimSpace(raw) == "" {
		if def == "" {
			v.addf("value must not be empty")
		}
		return def
	}
	out, err := parse(raw)
	if err != nil {
		v.addf("%v", err)
	}
	return out
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
