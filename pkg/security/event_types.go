// pkg/security/event_types.go
package security

import (
	"fmt"
	"slices"
)

// EventType constants for string-based event type handling
const (
	EventTypeLoginSuccess    = "login_success"
	EventTypeLoginFailed     = "login_failed"
	EventTypeLogout          = "logout"
	EventTypePasswordChanged = "password_changed"
	EventTypePasswordReset   = "password_reset"
	EventTypeUserCreated     = "user_created"
	EventTypeUserDeactivated = "user_deactivated"
	EventTypeUserRoleChanged = "user_role_changed"
	EventTypeSecurityAlert   = "security_alert"
)

// Severity constants for string-based severity handling
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// ValidEventTypes returns all valid event type strings
func ValidEventTypes() []string {
	return []string{
		EventTypeLoginSuccess,
		EventTypeLoginFailed,
		EventTypeLogout,
		EventTypePasswordChanged,
		EventTypePasswordReset,
		EventTypeUserCreated,
		EventTypeUserDeactivated,
		EventTypeUserRoleChanged,
		EventTypeSecurityAlert,
	}
}

// ValidSeverities returns all valid severity strings
func ValidSeverities() []string {
	return []string{
		SeverityLow,
		SeverityMedium,
		SeverityHigh,
		SeverityCritical,
	}
}

// ParseEventType validates a free-text event type.
func ParseEventType(eventType string) (string, error) {
	if !slices.Contains(ValidEventTypes(), eventType) {
		return "", fmt.Errorf("unknown event type: %s", eventType)
	}
	return eventType, nil
}

// ParseSeverity validates a free-text severity.
func ParseSeverity(severity string) (string, error) {
	if !slices.Contains(ValidSeverities(), severity) {
		return "", fmt.Errorf("unknown severity: %s", severity)
	}
	return severity, nil
}

// IsValidEventType checks if the event type string is valid
func IsValidEventType(eventType string) bool {
	_, err := ParseEventType(eventType)
	return err == nil
}

// IsValidSeverity checks if the severity string is valid
func IsValidSeverity(severity string) bool {
	_, err := ParseSeverity(severity)
	return err == nil
}
