// internal/service/security_logger.go
package service

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/middleware"
	"github.com/gurkanbulca/taskpulse/pkg/security"
)

// SecurityLogger provides convenience methods for logging security events.
// Writes are best effort: a failure is logged and never fails the caller.
type SecurityLogger struct {
	securityService *SecurityService
}

// NewSecurityLogger creates a new security logger
func NewSecurityLogger(securityService *SecurityService) *SecurityLogger {
	return &SecurityLogger{
		securityService: securityService,
	}
}

// LogFromContext logs a security event using context information
func (sl *SecurityLogger) LogFromContext(ctx context.Context, userID uuid.UUID, eventType, description, severity string) {
	clientInfo := middleware.GetClientInfoFromContext(ctx)

	err := sl.securityService.LogUserSecurityEvent(
		ctx,
		userID,
		eventType,
		description,
		severity,
		clientInfo.IPAddress,
		clientInfo.UserAgent,
	)
	if err != nil {
		log.Printf("[ERROR] failed to record security event %s: %v", eventType, err)
	}
}

// LogSystemFromContext logs a system security event using context information
func (sl *SecurityLogger) LogSystemFromContext(ctx context.Context, eventType, description, severity string) {
	sl.LogFromContext(ctx, uuid.Nil, eventType, description, severity)
}

// Convenience methods for common security events

func (sl *SecurityLogger) LogLoginSuccess(ctx context.Context, userID uuid.UUID) {
	sl.LogFromContext(ctx, userID, security.EventTypeLoginSuccess,
		"User successfully logged in", security.SeverityLow)
}

func (sl *SecurityLogger) LogLoginFailed(ctx context.Context, email string) {
	sl.LogSystemFromContext(ctx, security.EventTypeLoginFailed,
		"Login failed for "+email, security.SeverityMedium)
}

func (sl *SecurityLogger) LogLogout(ctx context.Context, userID uuid.UUID) {
	sl.LogFromContext(ctx, userID, security.EventTypeLogout,
		"User logged out", security.SeverityLow)
}

func (sl *SecurityLogger) LogPasswordChanged(ctx context.Context, userID uuid.UUID) {
	sl.LogFromContext(ctx, userID, security.EventTypePasswordChanged,
		"User password changed", security.SeverityLow)
}

func (sl *SecurityLogger) LogPasswordReset(ctx context.Context, userID uuid.UUID, by string) {
	sl.LogFromContext(ctx, userID, security.EventTypePasswordReset,
		"Password reset by "+by, security.SeverityMedium)
}

func (sl *SecurityLogger) LogUserCreated(ctx context.Context, userID uuid.UUID, role string) {
	sl.LogFromContext(ctx, userID, security.EventTypeUserCreated,
		"User created with role "+role, security.SeverityLow)
}

func (sl *SecurityLogger) LogUserDeactivated(ctx context.Context, userID uuid.UUID, by string) {
	sl.LogFromContext(ctx, userID, security.EventTypeUserDeactivated,
		"User deactivated by "+by, security.SeverityMedium)
}

func (sl *SecurityLogger) LogRoleChanged(ctx context.Context, userID uuid.UUID, from, to, by string) {
	sl.LogFromContext(ctx, userID, security.EventTypeUserRoleChanged,
		"Role changed from "+from+" to "+to+" by "+by, security.SeverityHigh)
}

func (sl *SecurityLogger) LogSecurityAlert(ctx context.Context, userID uuid.UUID, description string) {
	sl.LogFromContext(ctx, userID, security.EventTypeSecurityAlert,
		description, security.SeverityHigh)
}
