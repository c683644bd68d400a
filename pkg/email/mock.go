package email

import (
	"context"
	"sync"
	"time"
)

// MockEmailService implements EmailService for testing and development
type MockEmailService struct {
	mu         sync.Mutex
	sentEmails []SentEmail
}

// SentEmail represents an email that was sent via MockEmailService
type SentEmail struct {
	To         string
	Template   string
	Assignment *TaskAssignment
	SentAt     time.Time
}

// NewMockEmailService creates a new mock email service
func NewMockEmailService() *MockEmailService {
	return &MockEmailService{}
}

func (m *MockEmailService) record(e SentEmail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.SentAt = time.Now()
	m.sentEmails = append(m.sentEmails, e)
}

// SendTaskAssignedEmail mock implementation
func (m *MockEmailService) SendTaskAssignedEmail(ctx context.Context, assignment TaskAssignment) error {
	m.record(SentEmail{To: assignment.Assignee.Email, Template: "task_assigned", Assignment: &assignment})
	return nil
}

// SendPasswordChangedNotification mock implementation
func (m *MockEmailService) SendPasswordChangedNotification(ctx context.Context, to Recipient) error {
	m.record(SentEmail{To: to.Email, Template: "password_changed"})
	return nil
}

// GetSentEmails returns all sent emails (for testing)
func (m *MockEmailService) GetSentEmails() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentEmail(nil), m.sentEmails...)
}

// GetLastSentEmail returns the last sent email (for testing)
func (m *MockEmailService) GetLastSentEmail() *SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sentEmails) == 0 {
		return nil
	}
	last := m.sentEmails[len(m.sentEmails)-1]
	return &last
}

// Clear clears all sent emails (for testing)
func (m *MockEmailService) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentEmails = nil
}
