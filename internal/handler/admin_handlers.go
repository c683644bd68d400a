package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/service"
)

func (s *Server) handleAdminDashboard(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	d, err := s.svc.Reports.AdminDashboard(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}

	performers := make([]performerResponse, 0, len(d.TopPerformers))
	for _, p := range d.TopPerformers {
		performers = append(performers, performerResponse(p))
	}
	now := s.clock.Now()
	c.JSON(http.StatusOK, gin.H{
		"total_users":       d.TotalUsers,
		"active_users":      d.ActiveUsers,
		"users_by_role":     nonNilCounts(d.UsersByRole),
		"total_tasks":       d.TotalTasks,
		"active_tasks":      d.ActiveTasks,
		"completed_tasks":   d.CompletedTasks,
		"overdue_tasks":     d.OverdueTasks,
		"total_hours":       d.TotalHours,
		"tasks_by_status":   nonNilCounts(d.TasksByStatus),
		"tasks_by_priority": nonNilCounts(d.TasksByPriority),
		"recent_tasks":      newTaskResponses(d.RecentTasks, now),
		"top_performers":    performers,
		"overdue_list":      newTaskResponses(d.OverdueList, now),
	})
}

// Tasks

func (s *Server) handleAdminListTasks(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	q, ok := taskQuery(c)
	if !ok {
		return
	}
	list, err := s.svc.Tasks.ListAllTasks(c.Request.Context(), a, q)
	s.respondTaskList(c, list, err)
}

func (s *Server) handleAdminCreateTask(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req createTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := s.svc.Tasks.CreateTaskForUser(c.Request.Context(), a, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTaskResponse(task, s.clock.Now()))
}

func (s *Server) handleAdminGetTask(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := s.svc.Tasks.AdminGetTask(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskDetailResponse(detail, s.clock.Now()))
}

// Users

func (s *Server) handleAdminListUsers(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	q := service.UserQuery{
		Role:   c.Query("role"),
		Search: c.Query("search"),
	}
	if q.IsActive, ok = queryBool(c, "is_active"); !ok {
		return
	}
	if q.OrganizationID, ok = queryID(c, "organization_id"); !ok {
		return
	}
	if q.Limit, q.Offset, ok = pagination(c); !ok {
		return
	}

	list, err := s.svc.Users.ListUsers(c.Request.Context(), a, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users": newUserResponses(list.Users),
		"total": list.Total,
	})
}

func (s *Server) handleAdminUserSummary(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sum, err := s.svc.Reports.UserTaskSummary(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":            newUserResponse(sum.User),
		"total_assigned":  sum.TotalAssigned,
		"completed_tasks": sum.CompletedTasks,
		"pending_tasks":   sum.PendingTasks,
		"overdue_tasks":   sum.OverdueTasks,
		"hours_logged":    sum.HoursLogged,
		"current_tasks":   newTaskResponses(sum.CurrentTasks, s.clock.Now()),
	})
}

func (s *Server) handleAdminUserTasks(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	q, ok := taskQuery(c)
	if !ok {
		return
	}
	list, err := s.svc.Tasks.ListUserTasks(c.Request.Context(), a, id, q)
	s.respondTaskList(c, list, err)
}

type updateUserRequest struct {
	FirstName      *string    `json:"first_name"`
	LastName       *string    `json:"last_name"`
	Role           *string    `json:"role"`
	OrganizationID *uuid.UUID `json:"organization_id"`
	IsActive       *bool      `json:"is_active"`
}

func (s *Server) handleAdminUpdateUser(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := s.svc.Users.UpdateUser(c.Request.Context(), a, id, service.UpdateUserInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (s *Server) handleAdminDeactivateUser(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := s.svc.Users.DeactivateUser(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (s *Server) handleAdminPromoteUser(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := s.svc.Users.PromoteUser(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

// Reports

func (s *Server) handleAdminAnalytics(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	analytics, err := s.svc.Reports.Analytics(c.Request.Context(), a, c.Query("period"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analyticsResponse(analytics, "tasks_created"))
}

// handlePerformanceReport treats a plain end_date as inclusive of that day.
func (s *Server) handlePerformanceReport(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	start, _, ok := queryTime(c, "start_date")
	if !ok {
		return
	}
	end, endDateOnly, ok := queryTime(c, "end_date")
	if !ok {
		return
	}
	if end != nil && endDateOnly {
		next := end.Add(24 * time.Hour)
		end = &next
	}

	report, err := s.svc.Reports.PerformanceReport(c.Request.Context(), a, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	users := make([]userPerformanceResponse, 0, len(report.Users))
	for _, u := range report.Users {
		users = append(users, userPerformanceResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{
		"start_date": report.StartDate,
		"end_date":   report.EndDate,
		"users":      users,
	})
}

// Organizations

func (s *Server) handleListOrganizations(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	orgs, err := s.svc.Orgs.List(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orgs)
}

func (s *Server) handleCreateOrganization(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if !bindJSON(c, &req) {
		return
	}
	org, err := s.svc.Orgs.Create(c.Request.Context(), a, req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, org)
}

func (s *Server) handleGetOrganization(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	org, err := s.svc.Orgs.Get(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

func (s *Server) handleUpdateOrganization(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		IsActive    *bool   `json:"is_active"`
	}
	if !bindJSON(c, &req) {
		return
	}
	org, err := s.svc.Orgs.Update(c.Request.Context(), a, id, service.UpdateOrganizationInput{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// Security events

func (s *Server) handleSecurityEvents(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	req := &service.GetSecurityEventsRequest{
		EventType: c.Query("event_type"),
		Severity:  c.Query("severity"),
	}
	userID, ok := queryID(c, "user_id")
	if !ok {
		return
	}
	if userID != nil {
		req.UserID = *userID
	}
	from, _, ok := queryTime(c, "from_date")
	if !ok {
		return
	}
	if from != nil {
		req.FromDate = *from
	}
	to, toDateOnly, ok := queryTime(c, "to_date")
	if !ok {
		return
	}
	if to != nil {
		req.ToDate = *to
		if toDateOnly {
			req.ToDate = to.Add(24 * time.Hour)
		}
	}
	if req.Limit, req.Offset, ok = pagination(c); !ok {
		return
	}

	resp, err := s.svc.Security.GetSecurityEvents(c.Request.Context(), a, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
