package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/service"
)

type createSubtaskRequest struct {
	Title              string     `json:"title" binding:"required"`
	Description        string     `json:"description"`
	Priority           string     `json:"priority"`
	AssigneeID         *uuid.UUID `json:"assignee_id"`
	EstimatedHours     *float64   `json:"estimated_hours"`
	DueDate            *time.Time `json:"due_date"`
	OrderIndex         *int       `json:"order_index"`
	DependsOnSubtaskID *uuid.UUID `json:"depends_on_subtask_id"`
}

func (r createSubtaskRequest) input() service.CreateSubtaskInput {
	return service.CreateSubtaskInput{
		Title:              r.Title,
		Description:        r.Description,
		Priority:           r.Priority,
		AssigneeID:         r.AssigneeID,
		EstimatedHours:     r.EstimatedHours,
		DueDate:            r.DueDate,
		OrderIndex:         r.OrderIndex,
		DependsOnSubtaskID: r.DependsOnSubtaskID,
	}
}

type createTaskRequest struct {
	Title          string                 `json:"title" binding:"required"`
	Description    string                 `json:"description"`
	TaskType       string                 `json:"task_type"`
	Priority       string                 `json:"priority"`
	AssigneeID     *uuid.UUID             `json:"assignee_id"`
	AssigneeIDs    []uuid.UUID            `json:"assignee_ids"`
	EstimatedHours *float64               `json:"estimated_hours"`
	StartDate      *time.Time             `json:"start_date"`
	DueDate        *time.Time             `json:"due_date"`
	IsPublic       bool                   `json:"is_public"`
	Tags           string                 `json:"tags"`
	Subtasks       []createSubtaskRequest `json:"subtasks"`
}

func (r createTaskRequest) input() service.CreateTaskInput {
	in := service.CreateTaskInput{
		Title:          r.Title,
		Description:    r.Description,
		TaskType:       r.TaskType,
		Priority:       r.Priority,
		AssigneeID:     r.AssigneeID,
		AssigneeIDs:    r.AssigneeIDs,
		EstimatedHours: r.EstimatedHours,
		StartDate:      r.StartDate,
		DueDate:        r.DueDate,
		IsPublic:       r.IsPublic,
		Tags:           r.Tags,
	}
	for _, st := range r.Subtasks {
		in.Subtasks = append(in.Subtasks, st.input())
	}
	return in
}

func (s *Server) handleCreateTask(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req createTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := s.svc.Tasks.CreateTask(c.Request.Context(), a, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTaskResponse(task, s.clock.Now()))
}

// taskQuery reads the listing filters shared by the personal and admin task
// lists. Enum values are validated by the service.
func taskQuery(c *gin.Context) (service.TaskQuery, bool) {
	q := service.TaskQuery{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		TaskType: c.Query("task_type"),
		Search:   c.Query("search"),
		SortBy:   c.Query("sort_by"),
		SortDesc: c.DefaultQuery("order", "desc") == "desc",
	}
	var ok bool
	if q.AssigneeID, ok = queryID(c, "assignee_id"); !ok {
		return q, false
	}
	if q.AuthorID, ok = queryID(c, "author_id"); !ok {
		return q, false
	}
	overdue, ok := queryBool(c, "overdue")
	if !ok {
		return q, false
	}
	q.Overdue = overdue != nil && *overdue
	if q.Limit, q.Offset, ok = pagination(c); !ok {
		return q, false
	}
	return q, true
}

func (s *Server) respondTaskList(c *gin.Context, list *service.TaskList, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tasks": newTaskResponses(list.Tasks, s.clock.Now()),
		"total": list.Total,
	})
}

func (s *Server) handleListTasks(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	q, ok := taskQuery(c)
	if !ok {
		return
	}
	list, err := s.svc.Tasks.ListMyTasks(c.Request.Context(), a, q)
	s.respondTaskList(c, list, err)
}

func (s *Server) handleGetTask(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	task, err := s.svc.Tasks.GetTask(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(task, s.clock.Now()))
}

func (s *Server) handleTaskDetail(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := s.svc.Tasks.GetTaskDetail(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskDetailResponse(detail, s.clock.Now()))
}

type updateTaskRequest struct {
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	TaskType       *string    `json:"task_type"`
	Priority       *string    `json:"priority"`
	Status         *string    `json:"status"`
	EstimatedHours *float64   `json:"estimated_hours"`
	StartDate      *time.Time `json:"start_date"`
	DueDate        *time.Time `json:"due_date"`
	IsPublic       *bool      `json:"is_public"`
	IsActive       *bool      `json:"is_active"`
	Tags           *string    `json:"tags"`
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := s.svc.Tasks.UpdateTask(c.Request.Context(), a, id, service.UpdateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		TaskType:       req.TaskType,
		Priority:       req.Priority,
		Status:         req.Status,
		EstimatedHours: req.EstimatedHours,
		StartDate:      req.StartDate,
		DueDate:        req.DueDate,
		IsPublic:       req.IsPublic,
		IsActive:       req.IsActive,
		Tags:           req.Tags,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(task, s.clock.Now()))
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Tasks.DeleteTask(c.Request.Context(), a, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleUpdateTitle(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	task, err := s.svc.Tasks.UpdateTitle(c.Request.Context(), a, id, req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(task, s.clock.Now()))
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) handleChangeStatus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := s.svc.Tasks.ChangeStatus(c.Request.Context(), a, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(task, s.clock.Now()))
}

func (s *Server) handleReassign(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		AssigneeEmail string `json:"assignee_email" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	task, err := s.svc.Tasks.ReassignByEmail(c.Request.Context(), a, id, req.AssigneeEmail)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(task, s.clock.Now()))
}

// Subtasks

func (s *Server) handleAddSubtask(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req createSubtaskRequest
	if !bindJSON(c, &req) {
		return
	}
	st, err := s.svc.Tasks.AddSubtask(c.Request.Context(), a, taskID, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, subtaskResponse{Subtask: st, ProgressPercentage: st.ProgressPercentage()})
}

func (s *Server) handleListSubtasks(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	subtasks, err := s.svc.Tasks.ListSubtasks(c.Request.Context(), a, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSubtaskResponses(subtasks))
}

func (s *Server) handleSubtaskStatus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	st, err := s.svc.Tasks.ChangeSubtaskStatus(c.Request.Context(), a, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subtaskResponse{Subtask: st, ProgressPercentage: st.ProgressPercentage()})
}

func (s *Server) handleDeleteSubtask(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Tasks.DeleteSubtask(c.Request.Context(), a, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Comments

func (s *Server) handleAddComment(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content    string `json:"content" binding:"required"`
		IsInternal bool   `json:"is_internal"`
	}
	if !bindJSON(c, &req) {
		return
	}
	comment, err := s.svc.Comments.AddComment(c.Request.Context(), a, taskID, req.Content, req.IsInternal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (s *Server) handleListComments(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	comments, err := s.svc.Comments.ListComments(c.Request.Context(), a, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (s *Server) handleUpdateComment(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content    *string `json:"content"`
		IsInternal *bool   `json:"is_internal"`
	}
	if !bindJSON(c, &req) {
		return
	}
	comment, err := s.svc.Comments.UpdateComment(c.Request.Context(), a, id, req.Content, req.IsInternal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (s *Server) handleDeleteComment(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Comments.DeleteComment(c.Request.Context(), a, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
