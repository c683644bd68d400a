package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/middleware"
	"github.com/gurkanbulca/taskpulse/internal/service"
)

// loginRequest is accepted as JSON or as an OAuth2 password form, where the
// email travels in username.
type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondUnprocessable(c, "email and password are required")
		return
	}
	email := req.Email
	if email == "" {
		email = req.Username
	}
	if strings.TrimSpace(email) == "" {
		respondUnprocessable(c, "email and password are required")
		return
	}

	res, err := s.svc.Auth.Login(c.Request.Context(), email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	maxAge := s.cookie.MaxAge
	if maxAge == 0 {
		maxAge = int(s.svc.Auth.TokenDuration().Seconds())
	}
	s.setAuthCookie(c, res.AccessToken, maxAge)

	c.JSON(http.StatusOK, gin.H{
		"access_token": res.AccessToken,
		"token_type":   res.TokenType,
		"expires_at":   res.ExpiresAt,
		"user":         newUserResponse(res.User),
	})
}

// handleLogout clears the auth cookie. Tokens stay valid until they expire;
// a resolvable caller is recorded in the audit log.
func (s *Server) handleLogout(c *gin.Context) {
	if token := middleware.TokenFromRequest(c, s.cookie.Name); token != "" {
		if a, err := s.svc.Auth.ResolveToken(c.Request.Context(), token); err == nil {
			s.svc.Auth.Logout(c.Request.Context(), a)
		}
	}
	s.setAuthCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"detail": "Successfully logged out"})
}

func (s *Server) setAuthCookie(c *gin.Context, value string, maxAge int) {
	sameSite, err := s.cookie.SameSiteMode()
	if err != nil {
		sameSite = http.SameSiteLaxMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(s.cookie.Name, value, maxAge, s.cookie.Path, s.cookie.Domain, s.cookie.Secure, true)
}

type registerRequest struct {
	Email          string     `json:"email" binding:"required"`
	Password       string     `json:"password" binding:"required"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	OrganizationID *uuid.UUID `json:"organization_id"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := s.svc.Users.Register(c.Request.Context(), service.CreateUserInput{
		Email:          req.Email,
		Password:       req.Password,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(user))
}

func (s *Server) handleMe(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	user, err := s.svc.Auth.Me(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (s *Server) handleChangePassword(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := s.svc.Auth.ChangePassword(c.Request.Context(), a, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Password updated successfully"})
}

func (s *Server) handleAvailableAssignees(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "task_id")
	if !ok {
		return
	}
	users, err := s.svc.Users.AvailableAssignees(c.Request.Context(), a, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponses(users))
}
