package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/taskpulse/internal/models"
)

func TestOrganizationService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user("admin@example.com", models.RoleAdmin)
	alice := env.user("alice@example.com", models.RoleUser)

	_, err := env.orgs.Create(ctx, alice, "Sales", "")
	requireKind(t, err, KindForbidden)

	_, err = env.orgs.Create(ctx, admin, "  ", "")
	requireKind(t, err, KindValidation)

	eng, err := env.orgs.Create(ctx, admin, "Engineering", "builders")
	require.NoError(t, err)
	_, err = env.orgs.Create(ctx, admin, "Design", "")
	require.NoError(t, err)

	_, err = env.orgs.Create(ctx, admin, "Engineering", "again")
	requireKind(t, err, KindConflict)

	_, err = env.users.UpdateUser(ctx, admin, alice.ID(), UpdateUserInput{OrganizationID: &eng.ID})
	require.NoError(t, err)

	orgs, err := env.orgs.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	assert.Equal(t, "Design", orgs[0].Name)
	assert.Equal(t, 0, orgs[0].MemberCount)
	assert.Equal(t, "Engineering", orgs[1].Name)
	assert.Equal(t, 1, orgs[1].MemberCount)

	updated, err := env.orgs.Update(ctx, admin, eng.ID, UpdateOrganizationInput{
		Description: ptr("platform team"),
		IsActive:    ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "platform team", updated.Description)
	assert.False(t, updated.IsActive)

	got, err := env.orgs.Get(ctx, admin, eng.ID)
	require.NoError(t, err)
	assert.Equal(t, "Engineering", got.Name)

	_, err = env.orgs.Get(ctx, admin, uuid.New())
	requireKind(t, err, KindNotFound)
	_, err = env.orgs.Update(ctx, admin, uuid.New(), UpdateOrganizationInput{Name: ptr("x")})
	requireKind(t, err, KindNotFound)
}
