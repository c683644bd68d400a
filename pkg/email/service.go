// pkg/email/service.go
package email

import (
	"context"
	"time"
)

// EmailService defines the interface for sending emails
type EmailService interface {
	SendTaskAssignedEmail(ctx context.Context, assignment TaskAssignment) error
	SendPasswordChangedNotification(ctx context.Context, to Recipient) error
}

// Recipient is the addressee of a message.
type Recipient struct {
	Email     string
	FirstName string
}

// TaskAssignment describes a task handed to a new assignee.
type TaskAssignment struct {
	Assignee   Recipient
	AssignedBy string
	TaskID     string
	TaskTitle  string
	Priority   string
	DueDate    *time.Time
}

// EmailTemplate represents an email template
type EmailTemplate struct {
	Subject  string
	HTMLBody string
	TextBody string
}

// EmailData contains data for template rendering
type EmailData struct {
	User         Recipient
	Assignment   *TaskAssignment
	TaskURL      string
	SupportEmail string
	AppName      string
	BaseURL      string
}

// Config holds email service configuration
type Config struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
	BaseURL      string
	AppName      string
	SupportEmail string
}

// Templates holds all email templates
type Templates struct {
	TaskAssigned    EmailTemplate
	PasswordChanged EmailTemplate
}

const emailStyle = `
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .button { display: inline-block; padding: 12px 24px; background-color: #007bff; color: white; text-decoration: none; border-radius: 5px; }
        .alert { background-color: #d1ecf1; border: 1px solid #bee5eb; padding: 15px; border-radius: 5px; margin: 20px 0; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 14px; color: #666; }
    </style>`

// NewTemplates creates default email templates
func NewTemplates() *Templates {
	return &Templates{
		TaskAssigned: EmailTemplate{
			Subject: "[{{.AppName}}] You have been assigned: {{.Assignment.TaskTitle}}",
			HTMLBody: `
<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Task Assigned</title>` + emailStyle + `
</head>
<body>
    <div class="container">
        <p>Hi {{.User.FirstName}},</p>

        <p>{{.Assignment.AssignedBy}} assigned you the task <strong>{{.Assignment.TaskTitle}}</strong> ({{.Assignment.Priority}} priority).</p>
        {{if .Assignment.DueDate}}<p>It is due on {{.Assignment.DueDate.Format "January 2, 2006 at 3:04 PM MST"}}.</p>{{end}}

        <p style="text-align: center; margin: 30px 0;">
            <a href="{{.TaskURL}}" class="button">Open Task</a>
        </p>

        <div class="footer">
            <p>The {{.AppName}} Team</p>
            <p>Questions? Contact us at <a href="mailto:{{.SupportEmail}}">{{.SupportEmail}}</a></p>
        </div>
    </div>
</body>
</html>`,
			TextBody: `Hi {{.User.FirstName}},

{{.Assignment.AssignedBy}} assigned you the task "{{.Assignment.TaskTitle}}" ({{.Assignment.Priority}} priority).
{{if .Assignment.DueDate}}It is due on {{.Assignment.DueDate.Format "January 2, 2006 at 3:04 PM MST"}}.
{{end}}
Open it here: {{.TaskURL}}

The {{.AppName}} Team

Questions? Contact us at {{.SupportEmail}}`,
		},

		PasswordChanged: EmailTemplate{
			Subject: "Your {{.AppName}} password has been changed",
			HTMLBody: `
<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Password Changed</title>` + emailStyle + `
</head>
<body>
    <div class="container">
        <p>Hi {{.User.FirstName}},</p>

        <p>This is to confirm that your {{.AppName}} account password has been changed.</p>

        <div class="alert">
            <strong>Security Notice:</strong> If you didn't make this change, contact <a href="mailto:{{.SupportEmail}}">{{.SupportEmail}}</a> immediately.
        </div>

        <div class="footer">
            <p>The {{.AppName}} Team</p>
        </div>
    </div>
</body>
</html>`,
			TextBody: `Hi {{.User.FirstName}},

This is to confirm that your {{.AppName}} account password has been changed.

Security Notice: If you didn't make this change, contact {{.SupportEmail}} immediately.

The {{.AppName}} Team`,
		},
	}
}
