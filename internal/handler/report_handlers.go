package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/service"
)

// Time logs

func (s *Server) handleStartTimer(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req struct {
		TaskID      uuid.UUID  `json:"task_id" binding:"required"`
		SubtaskID   *uuid.UUID `json:"subtask_id"`
		Description string     `json:"description"`
	}
	if !bindJSON(c, &req) {
		return
	}
	entry, err := s.svc.TimeLogs.Start(c.Request.Context(), a, service.StartTimerInput{
		TaskID:      req.TaskID,
		SubtaskID:   req.SubtaskID,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTimeLogResponse(entry))
}

func (s *Server) handleStopTimer(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	entry, err := s.svc.TimeLogs.Stop(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTimeLogResponse(entry))
}

func (s *Server) handleListTimeLogs(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var q service.TimeLogQuery
	if q.TaskID, ok = queryID(c, "task_id"); !ok {
		return
	}
	if q.From, _, ok = queryTime(c, "from"); !ok {
		return
	}
	if q.To, _, ok = queryTime(c, "to"); !ok {
		return
	}
	if q.Running, ok = queryBool(c, "running"); !ok {
		return
	}
	if q.Limit, q.Offset, ok = pagination(c); !ok {
		return
	}

	list, err := s.svc.TimeLogs.List(c.Request.Context(), a, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"time_logs": newTimeLogResponses(list.Logs),
		"total":     list.Total,
	})
}

// Dashboards

func (s *Server) handleDashboard(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	d, err := s.svc.Reports.UserDashboard(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	now := s.clock.Now()
	c.JSON(http.StatusOK, gin.H{
		"summary": gin.H{
			"total_tasks":       d.Summary.TotalTasks,
			"pending_tasks":     d.Summary.PendingTasks,
			"in_progress_tasks": d.Summary.InProgressTasks,
			"review_tasks":      d.Summary.ReviewTasks,
			"completed_tasks":   d.Summary.CompletedTasks,
			"overdue_tasks":     d.Summary.OverdueTasks,
		},
		"recent_tasks":       newTaskResponses(d.RecentTasks, now),
		"upcoming_deadlines": newTaskResponses(d.UpcomingDeadlines, now),
		"today_time_logs":    newTimeLogResponses(d.TodayLogs),
		"hours_this_week":    d.HoursThisWeek,
	})
}

func (s *Server) handleProfile(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	p, err := s.svc.Reports.ProfileSummary(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":            newUserResponse(p.User),
		"tasks_created":   p.TasksCreated,
		"tasks_assigned":  p.TasksAssigned,
		"tasks_completed": p.TasksCompleted,
		"hours_logged":    p.HoursLogged,
	})
}

func (s *Server) handlePersonalAnalytics(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	analytics, err := s.svc.Reports.PersonalAnalytics(c.Request.Context(), a, c.Query("period"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analyticsResponse(analytics, "tasks_assigned"))
}
