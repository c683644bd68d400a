package repository

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/models"
)

var securityEventColumns = []string{
	"id", "user_id", "event_type", "severity", "description", "ip_address", "user_agent", "created_at",
}

type SecurityEventRepository struct {
	querier
}

// SecurityEventFilter narrows the audit log listing.
type SecurityEventFilter struct {
	UserID    *uuid.UUID
	EventType string
	Severity  string
	From      *time.Time
	To        *time.Time
}

func (f SecurityEventFilter) predicates() []*sql.Predicate {
	var preds []*sql.Predicate
	if f.UserID != nil {
		preds = append(preds, sql.EQ("user_id", *f.UserID))
	}
	if f.EventType != "" {
		preds = append(preds, sql.EQ("event_type", f.EventType))
	}
	if f.Severity != "" {
		preds = append(preds, sql.EQ("severity", f.Severity))
	}
	return appendRange(preds, "created_at", f.From, f.To)
}

func (r *SecurityEventRepository) Create(ctx context.Context, e *models.SecurityEvent) error {
	if _, err := r.namedExec(ctx, insertQuery("security_events", securityEventColumns), e); err != nil {
		return fmt.Errorf("create security event: %w", err)
	}
	return nil
}

// List returns matching events, newest first, along with the unpaged total.
func (r *SecurityEventRepository) List(ctx context.Context, f SecurityEventFilter, page Page) ([]*models.SecurityEvent, int, error) {
	preds := f.predicates()

	var total int
	count := where(r.builder().Select().Count().From(sql.Table("security_events")), preds)
	if err := r.getBuilt(ctx, &total, count); err != nil {
		return nil, 0, fmt.Errorf("count security events: %w", err)
	}

	sel := where(r.builder().Select(securityEventColumns...).From(sql.Table("security_events")), preds)
	page.apply(sel, map[string]string{"created_at": "created_at"}, "created_at")

	events := []*models.SecurityEvent{}
	if err := r.selectBuilt(ctx, &events, sel); err != nil {
		return nil, 0, fmt.Errorf("list security events: %w", err)
	}
	return events, total, nil
}
