package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/taskpulse/internal/models"
	"github.com/gurkanbulca/taskpulse/internal/repository"
	"github.com/gurkanbulca/taskpulse/pkg/security"
)

func TestUserService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		in       CreateUserInput
		wantKind Kind
	}{
		{
			name: "valid registration",
			in:   CreateUserInput{Email: " New.User@Example.com ", Password: testPassword, FirstName: "New", LastName: "User"},
		},
		{
			name:     "duplicate email",
			in:       CreateUserInput{Email: "new.user@example.com", Password: testPassword},
			wantKind: KindConflict,
		},
		{
			name:     "invalid email",
			in:       CreateUserInput{Email: "not-an-email", Password: testPassword},
			wantKind: KindValidation,
		},
		{
			name:     "weak password",
			in:       CreateUserInput{Email: "weak@example.com", Password: "password"},
			wantKind: KindValidation,
		},
		{
			name:     "unknown organization",
			in:       CreateUserInput{Email: "org@example.com", Password: testPassword, OrganizationID: ptr(uuid.New())},
			wantKind: KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := env.users.Register(ctx, tt.in)
			if tt.wantKind != "" {
				requireKind(t, err, tt.wantKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "new.user@example.com", user.Email)
			assert.Equal(t, models.RoleUser, user.Role)
			assert.True(t, user.IsActive)
			assert.NotEqual(t, testPassword, user.PasswordHash)
		})
	}

	t.Run("register ignores requested role", func(t *testing.T) {
		user, err := env.users.Register(ctx, CreateUserInput{Email: "sneaky@example.com", Password: testPassword, Role: "admin"})
		require.NoError(t, err)
		assert.Equal(t, models.RoleUser, user.Role)
	})

	events, _, err := env.store.SecurityEvents.List(ctx,
		repository.SecurityEventFilter{EventType: security.EventTypeUserCreated}, repository.Page{})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestUserService_AdminOperations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user("admin@example.com", models.RoleAdmin)
	alice := env.user("alice@example.com", models.RoleUser)
	bob := env.user("bob@example.com", models.RoleManager)

	t.Run("non admin is forbidden", func(t *testing.T) {
		_, err := env.users.ListUsers(ctx, alice, UserQuery{})
		requireKind(t, err, KindForbidden)
		_, err = env.users.GetUser(ctx, alice, bob.ID())
		requireKind(t, err, KindForbidden)
	})

	t.Run("list with filters", func(t *testing.T) {
		list, err := env.users.ListUsers(ctx, admin, UserQuery{})
		require.NoError(t, err)
		assert.Equal(t, 3, list.Total)

		list, err = env.users.ListUsers(ctx, admin, UserQuery{Role: "manager"})
		require.NoError(t, err)
		require.Len(t, list.Users, 1)
		assert.Equal(t, bob.ID(), list.Users[0].ID)

		list, err = env.users.ListUsers(ctx, admin, UserQuery{Search: "ALICE"})
		require.NoError(t, err)
		assert.Equal(t, 1, list.Total)

		_, err = env.users.ListUsers(ctx, admin, UserQuery{Role: "owner"})
		requireKind(t, err, KindValidation)
	})

	t.Run("update profile and organization", func(t *testing.T) {
		org, err := env.orgs.Create(ctx, admin, "Engineering", "")
		require.NoError(t, err)

		updated, err := env.users.UpdateUser(ctx, admin, alice.ID(), UpdateUserInput{
			FirstName:      ptr("Alice"),
			OrganizationID: &org.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, "Alice", updated.FirstName)
		require.NotNil(t, updated.OrganizationID)
		assert.Equal(t, org.ID, *updated.OrganizationID)
	})

	t.Run("role change is audited", func(t *testing.T) {
		updated, err := env.users.UpdateUser(ctx, admin, alice.ID(), UpdateUserInput{Role: ptr("manager")})
		require.NoError(t, err)
		assert.Equal(t, models.RoleManager, updated.Role)

		events, _, err := env.store.SecurityEvents.List(ctx,
			repository.SecurityEventFilter{EventType: security.EventTypeUserRoleChanged}, repository.Page{})
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})

	t.Run("cannot deactivate self", func(t *testing.T) {
		_, err := env.users.DeactivateUser(ctx, admin, admin.ID())
		requireKind(t, err, KindValidation)
		_, err = env.users.UpdateUser(ctx, admin, admin.ID(), UpdateUserInput{IsActive: ptr(false)})
		requireKind(t, err, KindValidation)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.users.DeactivateUser(ctx, admin, uuid.New())
		requireKind(t, err, KindNotFound)
	})
}

func TestUserService_DeactivateKeepsWork(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user("admin@example.com", models.RoleAdmin)
	alice := env.user("alice@example.com", models.RoleUser)

	task := env.task(alice, "Keep me", nil)
	entry, err := env.timeLogs.Start(ctx, alice, StartTimerInput{TaskID: task.ID})
	require.NoError(t, err)

	user, err := env.users.DeactivateUser(ctx, admin, alice.ID())
	require.NoError(t, err)
	assert.False(t, user.IsActive)

	stored, err := env.store.Users.GetByID(ctx, alice.ID())
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	_, err = env.store.Tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	_, err = env.store.TimeLogs.GetByID(ctx, entry.ID)
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, alice.Email(), testPassword)
	requireKind(t, err, KindUnauthorized)
}

func TestUserService_PromotePolicy(t *testing.T) {
	tests := []struct {
		name     string
		policy   AdminPolicy
		promoter string
		wantKind Kind
	}{
		{name: "any admin: first admin", policy: AnyAdmin, promoter: "first"},
		{name: "any admin: second admin", policy: AnyAdmin, promoter: "second"},
		{name: "super admin: first admin", policy: SuperAdmin, promoter: "first"},
		{name: "super admin: second admin", policy: SuperAdmin, promoter: "second", wantKind: KindForbidden},
		{name: "plain user", policy: AnyAdmin, promoter: "user", wantKind: KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, withAdminPolicy(tt.policy))
			ctx := context.Background()
			actors := map[string]*Actor{
				"first":  env.user("first@example.com", models.RoleAdmin),
				"second": env.user("second@example.com", models.RoleAdmin),
				"user":   env.user("user@example.com", models.RoleUser),
			}
			target := env.user("target@example.com", models.RoleUser)

			promoted, err := env.users.PromoteUser(ctx, actors[tt.promoter], target.ID())
			if tt.wantKind != "" {
				requireKind(t, err, tt.wantKind)
				stored, err := env.store.Users.GetByID(ctx, target.ID())
				require.NoError(t, err)
				assert.Equal(t, models.RoleUser, stored.Role)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.RoleAdmin, promoted.Role)
		})
	}
}

func TestUserService_CLIOperations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user("alice@example.com", models.RoleUser)

	user, err := env.users.SetRoleByEmail(ctx, "ALICE@example.com", "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)

	_, err = env.users.SetRoleByEmail(ctx, alice.Email(), "root")
	requireKind(t, err, KindValidation)

	require.NoError(t, env.users.ResetPassword(ctx, alice.Email(), "R3setPassword"))
	_, err = env.auth.Login(ctx, alice.Email(), "R3setPassword")
	require.NoError(t, err)

	requireKind(t, env.users.ResetPassword(ctx, alice.Email(), "weak"), KindValidation)
	requireKind(t, env.users.ResetPassword(ctx, "missing@example.com", "R3setPassword"), KindNotFound)

	_, err = env.users.DeactivateByEmail(ctx, alice.Email())
	require.NoError(t, err)

	all, err := env.users.ListAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)
}

func TestUserService_AvailableAssignees(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user("alice@example.com", models.RoleUser)
	bob := env.user("bob@example.com", models.RoleUser)
	carol := env.user("carol@example.com", models.RoleUser)
	gone := env.user("gone@example.com", models.RoleUser)
	_, err := env.users.DeactivateByEmail(ctx, gone.Email())
	require.NoError(t, err)

	task := env.task(alice, "Pick someone", bob)

	users, err := env.users.AvailableAssignees(ctx, alice, task.ID)
	require.NoError(t, err)
	var emails []string
	for _, u := range users {
		emails = append(emails, u.Email)
	}
	assert.ElementsMatch(t, []string{"alice@example.com", "carol@example.com"}, emails)

	_, err = env.users.AvailableAssignees(ctx, carol, task.ID)
	requireKind(t, err, KindForbidden)
	_, err = env.users.AvailableAssignees(ctx, alice, uuid.New())
	requireKind(t, err, KindNotFound)
}
