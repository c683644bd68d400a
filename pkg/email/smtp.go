// pkg/email/smtp.go
package email

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/smtp"
	"strings"
	"text/template"
)

// SMTPEmailService implements EmailService using SMTP
type SMTPEmailService struct {
	config    *Config
	templates *Templates
	auth      smtp.Auth
	send      func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPEmailService creates a new SMTP email service
func NewSMTPEmailService(config *Config) *SMTPEmailService {
	var auth smtp.Auth
	if config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", config.SMTPUsername, config.SMTPPassword, config.SMTPHost)
	}

	return &SMTPEmailService{
		config:    config,
		templates: NewTemplates(),
		auth:      auth,
		send:      smtp.SendMail,
	}
}

// SendTaskAssignedEmail notifies an assignee about a task handed to them
func (s *SMTPEmailService) SendTaskAssignedEmail(ctx context.Context, assignment TaskAssignment) error {
	data := s.buildEmailData(assignment.Assignee)
	data.Assignment = &assignment
	data.TaskURL = fmt.Sprintf("%s/tasks/%s", strings.TrimRight(s.config.BaseURL, "/"), assignment.TaskID)

	return s.sendEmail(ctx, assignment.Assignee.Email, s.templates.TaskAssigned, data)
}

// SendPasswordChangedNotification sends a notification when password is changed
func (s *SMTPEmailService) SendPasswordChangedNotification(ctx context.Context, to Recipient) error {
	return s.sendEmail(ctx, to.Email, s.templates.PasswordChanged, s.buildEmailData(to))
}

// buildEmailData creates EmailData for template rendering
func (s *SMTPEmailService) buildEmailData(to Recipient) *EmailData {
	return &EmailData{
		User:         to,
		SupportEmail: s.config.SupportEmail,
		AppName:      s.config.AppName,
		BaseURL:      s.config.BaseURL,
	}
}

// sendEmail sends an email using SMTP
func (s *SMTPEmailService) sendEmail(ctx context.Context, to string, tmpl EmailTemplate, data *EmailData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject, textBody, htmlBody, err := renderTemplate(tmpl, data)
	if err != nil {
		return err
	}

	message := buildMIMEMessage(
		s.config.FromEmail,
		s.config.FromName,
		to,
		subject,
		textBody,
		htmlBody,
		generateBoundary(),
	)

	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)
	if err := s.send(addr, s.auth, s.config.FromEmail, []string{to}, message); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}

// renderTemplate executes the subject, text and HTML parts of tmpl.
func renderTemplate(tmpl EmailTemplate, data *EmailData) (subject, textBody, htmlBody string, err error) {
	parts := []struct {
		name string
		src  string
		out  *string
	}{
		{"subject", tmpl.Subject, &subject},
		{"text", tmpl.TextBody, &textBody},
		{"html", tmpl.HTMLBody, &htmlBody},
	}

	for _, part := range parts {
		t, err := template.New(part.name).Parse(part.src)
		if err != nil {
			return "", "", "", fmt.Errorf("parse %s template: %w", part.name, err)
		}
		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return "", "", "", fmt.Errorf("execute %s template: %w", part.name, err)
		}
		*part.out = buf.String()
	}

	return subject, textBody, htmlBody, nil
}

// generateBoundary generates a random boundary for MIME messages
func generateBoundary() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// buildMIMEMessage builds a MIME email message with both text and HTML parts
func buildMIMEMessage(from, fromName, to, subject, textBody, htmlBody, boundary string) []byte {
	message := fmt.Sprintf(`From: %s <%s>
To: %s
Subject: %s
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="%s"

--%s
Content-Type: text/plain; charset=UTF-8
Content-Transfer-Encoding: 7bit

%s

--%s
Content-Type: text/html; charset=UTF-8
Content-Transfer-Encoding: 7bit

%s

--%s--
`, fromName, from, to, subject, boundary, boundary, textBody, boundary, htmlBody, boundary)

	return []byte(message)
}

// TestConnection tests the SMTP connection
func (s *SMTPEmailService) TestConnection(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("dial SMTP server: %w", err)
	}
	defer client.Close()

	if s.auth != nil {
		if err := client.Auth(s.auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	return nil
}
