package models

import (
	"time"

	"github.com/google/uuid"
)

type SecurityEvent struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	UserID      *uuid.UUID `db:"user_id" json:"user_id"`
	EventType   string     `db:"event_type" json:"event_type"`
	Severity    string     `db:"severity" json:"severity"`
	Description string     `db:"description" json:"description"`
	IPAddress   string     `db:"ip_address" json:"ip_address"`
	UserAgent   string     `db:"user_agent" json:"user_agent"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}
