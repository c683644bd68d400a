// internal/service/auth_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gurkanbulca/taskpulse/internal/middleware"
	"github.com/gurkanbulca/taskpulse/internal/models"
	"github.com/gurkanbulca/taskpulse/internal/repository"
	"github.com/gurkanbulca/taskpulse/pkg/security"
)

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.user("alice@example.com", models.RoleUser)
	inactive := env.user("inactive@example.com", models.RoleUser)
	_, err := env.users.DeactivateByEmail(ctx, inactive.Email())
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{name: "valid credentials", email: "alice@example.com", password: testPassword},
		{name: "email is case insensitive", email: "  ALICE@example.com ", password: testPassword},
		{name: "wrong password", email: "alice@example.com", password: "Wr0ngPassword", wantErr: true},
		{name: "unknown email", email: "nobody@example.com", password: testPassword, wantErr: true},
		{name: "inactive user", email: "inactive@example.com", password: testPassword, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuedAt := env.clock.Now()
			result, err := env.auth.Login(ctx, tt.email, tt.password)
			if tt.wantErr {
				requireKind(t, err, KindUnauthorized)
				assert.Equal(t, "Incorrect email or password", PublicMessage(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "bearer", result.TokenType)
			assert.Equal(t, alice.ID(), result.User.ID)
			assert.Equal(t, issuedAt.Add(24*time.Hour).Unix(), result.ExpiresAt.Unix())

			claims, err := env.tokens.Verify(result.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, "alice@example.com", claims.Subject)
		})
	}

	failed, _, err := env.store.SecurityEvents.List(ctx,
		repository.SecurityEventFilter{EventType: security.EventTypeLoginFailed}, repository.Page{})
	require.NoError(t, err)
	assert.Len(t, failed, 3)

	succeeded, _, err := env.store.SecurityEvents.List(ctx,
		repository.SecurityEventFilter{EventType: security.EventTypeLoginSuccess}, repository.Page{})
	require.NoError(t, err)
	assert.Len(t, succeeded, 2)
}

func TestAuthService_LoginRehashesOutdatedHash(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user("alice@example.com", models.RoleUser)

	old, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost+1)
	require.NoError(t, err)
	require.NoError(t, env.store.Users.UpdatePassword(ctx, alice.ID(), string(old), env.clock.Now()))

	_, err = env.auth.Login(ctx, alice.Email(), testPassword)
	require.NoError(t, err)

	stored, err := env.store.Users.GetByID(ctx, alice.ID())
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestAuthService_ResolveToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.user("alice@example.com", models.RoleManager)
	bob := env.user("bob@example.com", models.RoleUser)

	aliceToken, _, err := env.tokens.Issue(alice.Email(), string(alice.Role()), 0)
	require.NoError(t, err)
	bobToken, _, err := env.tokens.Issue(bob.Email(), string(bob.Role()), 0)
	require.NoError(t, err)
	ghostToken, _, err := env.tokens.Issue("ghost@example.com", "user", 0)
	require.NoError(t, err)
	shortToken, _, err := env.tokens.Issue(alice.Email(), string(alice.Role()), time.Minute)
	require.NoError(t, err)

	_, err = env.users.DeactivateByEmail(ctx, bob.Email())
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		actor, err := env.auth.ResolveToken(ctx, aliceToken)
		require.NoError(t, err)
		assert.Equal(t, alice.ID(), actor.ID())
		assert.Equal(t, models.RoleManager, actor.Role())
		assert.True(t, actor.IsStaff())
		assert.False(t, actor.IsAdmin())
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := env.auth.ResolveToken(ctx, "not-a-token")
		requireKind(t, err, KindUnauthorized)
	})

	t.Run("unknown subject", func(t *testing.T) {
		_, err := env.auth.ResolveToken(ctx, ghostToken)
		requireKind(t, err, KindUnauthorized)
	})

	t.Run("inactive user", func(t *testing.T) {
		_, err := env.auth.ResolveToken(ctx, bobToken)
		requireKind(t, err, KindUnauthorized)

		alerts, _, err := env.store.SecurityEvents.List(ctx,
			repository.SecurityEventFilter{EventType: security.EventTypeSecurityAlert}, repository.Page{})
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.Equal(t, bob.ID(), *alerts[0].UserID)
	})

	t.Run("expired token", func(t *testing.T) {
		env.clock.Advance(2 * time.Minute)
		_, err := env.auth.ResolveToken(ctx, shortToken)
		requireKind(t, err, KindUnauthorized)
	})
}

func TestAuthService_AuthenticateRequest(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user("alice@example.com", models.RoleAdmin)

	token, _, err := env.tokens.Issue(alice.Email(), string(alice.Role()), 0)
	require.NoError(t, err)

	ctx, err := env.auth.AuthenticateRequest(context.Background(), token)
	require.NoError(t, err)

	actor, ok := ActorFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, alice.ID(), actor.ID())

	role, ok := middleware.GetUserRoleFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "admin", role)

	_, ok = ActorFromContext(context.Background())
	assert.False(t, ok)
}

func TestAuthService_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user("alice@example.com", models.RoleUser)

	tests := []struct {
		name     string
		current  string
		next     string
		wantKind Kind
	}{
		{name: "wrong current password", current: "Wr0ngPassword", next: "N3wPassword", wantKind: KindValidation},
		{name: "same password", current: testPassword, next: testPassword, wantKind: KindValidation},
		{name: "weak password", current: testPassword, next: "short", wantKind: KindValidation},
		{name: "no digit", current: testPassword, next: "NoDigitsHere", wantKind: KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.auth.ChangePassword(ctx, alice, tt.current, tt.next)
			requireKind(t, err, tt.wantKind)
		})
	}

	t.Run("success", func(t *testing.T) {
		require.NoError(t, env.auth.ChangePassword(ctx, alice, testPassword, "N3wPassword"))

		_, err := env.auth.Login(ctx, alice.Email(), testPassword)
		requireKind(t, err, KindUnauthorized)
		_, err = env.auth.Login(ctx, alice.Email(), "N3wPassword")
		require.NoError(t, err)

		last := env.mail.GetLastSentEmail()
		require.NotNil(t, last)
		assert.Equal(t, "password_changed", last.Template)
		assert.Equal(t, alice.Email(), last.To)

		events, _, err := env.store.SecurityEvents.List(ctx,
			repository.SecurityEventFilter{EventType: security.EventTypePasswordChanged}, repository.Page{})
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})
}

func TestAuthService_MeAndLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user("alice@example.com", models.RoleUser)

	me, err := env.auth.Me(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.NotEmpty(t, me.PasswordHash)

	env.auth.Logout(ctx, alice)
	events, _, err := env.store.SecurityEvents.List(ctx,
		repository.SecurityEventFilter{EventType: security.EventTypeLogout}, repository.Page{})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
