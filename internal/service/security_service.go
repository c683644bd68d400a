// internal/service/security_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/models"
	"github.com/gurkanbulca/taskpulse/internal/repository"
	"github.com/gurkanbulca/taskpulse/pkg/security"
)

// SecurityService handles security event logging and retrieval
type SecurityService struct {
	store *repository.Store
	clock Clock
}

// NewSecurityService creates a new security service
func NewSecurityService(store *repository.Store, clock Clock) *SecurityService {
	return &SecurityService{
		store: store,
		clock: clock,
	}
}

// LogSecurityEvent validates and stores a security event
func (s *SecurityService) LogSecurityEvent(ctx context.Context, req *LogSecurityEventRequest) error {
	eventType, err := security.ParseEventType(req.EventType)
	if err != nil {
		return fmt.Errorf("invalid event type: %w", err)
	}

	severity, err := security.ParseSeverity(req.Severity)
	if err != nil {
		return fmt.Errorf("invalid severity: %w", err)
	}

	event := &models.SecurityEvent{
		ID:          uuid.New(),
		EventType:   eventType,
		Severity:    severity,
		Description: req.Description,
		IPAddress:   req.IPAddress,
		UserAgent:   req.UserAgent,
		CreatedAt:   s.clock.Now(),
	}
	if req.UserID != uuid.Nil {
		userID := req.UserID
		event.UserID = &userID
	}

	if err := s.store.SecurityEvents.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to save security event: %w", err)
	}
	return nil
}

// LogUserSecurityEvent is a convenience method for logging user-specific events
func (s *SecurityService) LogUserSecurityEvent(ctx context.Context, userID uuid.UUID, eventType, description, severity, ipAddress, userAgent string) error {
	return s.LogSecurityEvent(ctx, &LogSecurityEventRequest{
		UserID:      userID,
		EventType:   eventType,
		Description: description,
		Severity:    severity,
		IPAddress:   ipAddress,
		UserAgent:   userAgent,
	})
}

// LogSystemSecurityEvent is a convenience method for logging system-wide events
func (s *SecurityService) LogSystemSecurityEvent(ctx context.Context, eventType, description, severity, ipAddress, userAgent string) error {
	return s.LogSecurityEvent(ctx, &LogSecurityEventRequest{
		EventType:   eventType,
		Description: description,
		Severity:    severity,
		IPAddress:   ipAddress,
		UserAgent:   userAgent,
	})
}

// GetSecurityEvents retrieves security events with filtering. Admin only.
func (s *SecurityService) GetSecurityEvents(ctx context.Context, actor *Actor, req *GetSecurityEventsRequest) (*GetSecurityEventsResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	filter := repository.SecurityEventFilter{}
	if req.UserID != uuid.Nil {
		userID := req.UserID
		filter.UserID = &userID
	}

	if req.EventType != "" {
		eventType, err := security.ParseEventType(req.EventType)
		if err != nil {
			return nil, validation("invalid event type filter: %s", req.EventType)
		}
		filter.EventType = eventType
	}

	if req.Severity != "" {
		severity, err := security.ParseSeverity(req.Severity)
		if err != nil {
			return nil, validation("invalid severity filter: %s", req.Severity)
		}
		filter.Severity = severity
	}

	if !req.FromDate.IsZero() {
		from := req.FromDate
		filter.From = &from
	}
	if !req.ToDate.IsZero() {
		to := req.ToDate
		filter.To = &to
	}

	page := repository.Page{Limit: clampLimit(req.Limit), Offset: max(req.Offset, 0), SortDesc: true}
	events, total, err := s.store.SecurityEvents.List(ctx, filter, page)
	if err != nil {
		return nil, storage("list security events", err)
	}

	return &GetSecurityEventsResponse{
		Events:     events,
		TotalCount: total,
	}, nil
}

// Request/Response types

// LogSecurityEventRequest represents a request to log a security event
type LogSecurityEventRequest struct {
	UserID      uuid.UUID `json:"user_id"`
	EventType   string    `json:"event_type"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	IPAddress   string    `json:"ip_address,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
}

// GetSecurityEventsRequest represents a request to get security events
type GetSecurityEventsRequest struct {
	UserID    uuid.UUID `json:"user_id,omitempty"`
	EventType string    `json:"event_type,omitempty"`
	Severity  string    `json:"severity,omitempty"`
	FromDate  time.Time `json:"from_date,omitempty"`
	ToDate    time.Time `json:"to_date,omitempty"`
	Limit     int       `json:"limit"`
	Offset    int       `json:"offset"`
}

// GetSecurityEventsResponse represents the response from getting security events
type GetSecurityEventsResponse struct {
	Events     []*models.SecurityEvent `json:"events"`
	TotalCount int                     `json:"total_count"`
}
