package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gurkanbulca/taskpulse/internal/config"
	"github.com/gurkanbulca/taskpulse/internal/middleware"
	"github.com/gurkanbulca/taskpulse/internal/models"
	"github.com/gurkanbulca/taskpulse/internal/service"
)

// Services groups everything the HTTP layer calls into.
type Services struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Orgs     *service.OrganizationService
	Tasks    *service.TaskService
	Comments *service.CommentService
	TimeLogs *service.TimeLogService
	Reports  *service.ReportService
	Security *service.SecurityService
}

// Pinger is the slice of *sqlx.DB the health check needs.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server is the REST API.
type Server struct {
	svc    Services
	cookie config.CookieConfig
	db     Pinger
	clock  service.Clock
	router *gin.Engine
}

// NewServer builds the router. cfg is only read here.
func NewServer(cfg *config.Config, svc Services, db Pinger, clock service.Clock) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.Printf("[ERROR] invalid trusted proxies, ignoring: %v", err)
	}

	if len(cfg.Server.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	router.Use(
		middleware.SecureHeaders(cfg.Cookie.Secure),
		middleware.ExtractClientInfo(),
		middleware.RequestLogger(),
	)

	s := &Server{
		svc:    svc,
		cookie: cfg.Cookie,
		db:     db,
		clock:  clock,
		router: router,
	}
	s.routes()
	return s
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api/v1")
	api.POST("/login/token", s.handleLogin)
	api.POST("/login/logout", s.handleLogout)
	api.POST("/users", s.handleRegister)

	authed := api.Group("", middleware.RequireAuth(s.cookie.Name, s.svc.Auth.AuthenticateRequest))
	{
		authed.GET("/users/me", s.handleMe)
		authed.PUT("/users/me/password", s.handleChangePassword)
		authed.GET("/users/available-assignees/:task_id", s.handleAvailableAssignees)

		authed.POST("/tasks", s.handleCreateTask)
		authed.GET("/tasks", s.handleListTasks)
		authed.GET("/tasks/:id", s.handleGetTask)
		authed.PUT("/tasks/:id", s.handleUpdateTask)
		authed.DELETE("/tasks/:id", s.handleDeleteTask)
		authed.GET("/tasks/:id/detail", s.handleTaskDetail)
		authed.PUT("/tasks/:id/title", s.handleUpdateTitle)
		authed.PUT("/tasks/:id/status", s.handleChangeStatus)
		authed.PUT("/tasks/:id/assignee", s.handleReassign)

		authed.POST("/tasks/:id/subtasks", s.handleAddSubtask)
		authed.GET("/tasks/:id/subtasks", s.handleListSubtasks)
		authed.PUT("/subtasks/:id/status", s.handleSubtaskStatus)
		authed.DELETE("/subtasks/:id", s.handleDeleteSubtask)

		authed.POST("/tasks/:id/comments", s.handleAddComment)
		authed.GET("/tasks/:id/comments", s.handleListComments)
		authed.PUT("/comments/:id", s.handleUpdateComment)
		authed.DELETE("/comments/:id", s.handleDeleteComment)

		authed.POST("/time-logs/start", s.handleStartTimer)
		authed.PUT("/time-logs/:id/stop", s.handleStopTimer)
		authed.GET("/time-logs", s.handleListTimeLogs)

		authed.GET("/dashboard", s.handleDashboard)
		authed.GET("/dashboard/profile", s.handleProfile)
		authed.GET("/dashboard/analytics", s.handlePersonalAnalytics)
	}

	admin := authed.Group("/admin", middleware.RequireRole(string(models.RoleAdmin)))
	{
		admin.GET("/dashboard", s.handleAdminDashboard)

		admin.GET("/tasks", s.handleAdminListTasks)
		admin.POST("/tasks", s.handleAdminCreateTask)
		admin.GET("/tasks/:id", s.handleAdminGetTask)

		admin.GET("/users", s.handleAdminListUsers)
		admin.GET("/users/:id/summary", s.handleAdminUserSummary)
		admin.GET("/users/:id/tasks", s.handleAdminUserTasks)
		admin.PUT("/users/:id", s.handleAdminUpdateUser)
		admin.DELETE("/users/:id", s.handleAdminDeactivateUser)
		admin.POST("/users/:id/promote", s.handleAdminPromoteUser)

		admin.GET("/analytics/overview", s.handleAdminAnalytics)
		admin.GET("/reports/user-performance", s.handlePerformanceReport)

		admin.GET("/organizations", s.handleListOrganizations)
		admin.POST("/organizations", s.handleCreateOrganization)
		admin.GET("/organizations/:id", s.handleGetOrganization)
		admin.PUT("/organizations/:id", s.handleUpdateOrganization)

		admin.GET("/security-events", s.handleSecurityEvents)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		log.Printf("[ERROR] health check: database unreachable: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "disconnected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "connected"})
}
