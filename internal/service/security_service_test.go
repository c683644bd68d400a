package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/taskpulse/internal/middleware"
	"github.com/gurkanbulca/taskpulse/internal/models"
	"github.com/gurkanbulca/taskpulse/pkg/security"
)

func TestSecurityService_LogSecurityEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     LogSecurityEventRequest
		wantErr bool
	}{
		{
			name: "system event",
			req:  LogSecurityEventRequest{EventType: security.EventTypeSecurityAlert, Severity: security.SeverityHigh, Description: "probe"},
		},
		{
			name:    "unknown event type",
			req:     LogSecurityEventRequest{EventType: "teleport", Severity: security.SeverityLow},
			wantErr: true,
		},
		{
			name:    "unknown severity",
			req:     LogSecurityEventRequest{EventType: security.EventTypeLogout, Severity: "apocalyptic"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.security.LogSecurityEvent(ctx, &tt.req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSecurityService_GetSecurityEvents(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user("admin@example.com", models.RoleAdmin)
	alice := env.user("alice@example.com", models.RoleUser)

	ctx := middleware.WithClientInfo(context.Background(), "203.0.113.7", "curl/8.0")
	_, err := env.auth.Login(ctx, alice.Email(), testPassword)
	require.NoError(t, err)
	_, err = env.auth.Login(ctx, alice.Email(), "wrong-password")
	requireKind(t, err, KindUnauthorized)

	t.Run("admin only", func(t *testing.T) {
		_, err := env.security.GetSecurityEvents(ctx, alice, &GetSecurityEventsRequest{})
		requireKind(t, err, KindForbidden)
	})

	t.Run("all events newest first", func(t *testing.T) {
		resp, err := env.security.GetSecurityEvents(ctx, admin, &GetSecurityEventsRequest{})
		require.NoError(t, err)
		// two user_created, one login_success, one login_failed
		assert.Equal(t, 4, resp.TotalCount)
		require.Len(t, resp.Events, 4)
		for i := 1; i < len(resp.Events); i++ {
			assert.False(t, resp.Events[i].CreatedAt.After(resp.Events[i-1].CreatedAt))
		}
	})

	t.Run("filters", func(t *testing.T) {
		resp, err := env.security.GetSecurityEvents(ctx, admin, &GetSecurityEventsRequest{EventType: security.EventTypeLoginSuccess})
		require.NoError(t, err)
		require.Len(t, resp.Events, 1)
		event := resp.Events[0]
		require.NotNil(t, event.UserID)
		assert.Equal(t, alice.ID(), *event.UserID)
		assert.Equal(t, "203.0.113.7", event.IPAddress)
		assert.Equal(t, "curl/8.0", event.UserAgent)

		resp, err = env.security.GetSecurityEvents(ctx, admin, &GetSecurityEventsRequest{UserID: alice.ID()})
		require.NoError(t, err)
		assert.Equal(t, 2, resp.TotalCount)

		resp, err = env.security.GetSecurityEvents(ctx, admin, &GetSecurityEventsRequest{Severity: security.SeverityMedium})
		require.NoError(t, err)
		require.Len(t, resp.Events, 1)
		assert.Equal(t, security.EventTypeLoginFailed, resp.Events[0].EventType)
		assert.Nil(t, resp.Events[0].UserID)
	})

	t.Run("invalid filters", func(t *testing.T) {
		_, err := env.security.GetSecurityEvents(ctx, admin, &GetSecurityEventsRequest{EventType: "bogus"})
		requireKind(t, err, KindValidation)
		_, err = env.security.GetSecurityEvents(ctx, admin, &GetSecurityEventsRequest{Severity: "bogus"})
		requireKind(t, err, KindValidation)
	})
}
