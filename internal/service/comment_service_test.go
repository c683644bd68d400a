package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/taskpulse/internal/models"
)

func TestCommentService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user("alice@example.com", models.RoleUser)
	bob := env.user("bob@example.com", models.RoleUser)
	eve := env.user("eve@example.com", models.RoleUser)
	manager := env.user("manager@example.com", models.RoleManager)
	admin := env.user("admin@example.com", models.RoleAdmin)

	task := env.task(alice, "Discussed", bob)

	t.Run("add", func(t *testing.T) {
		tests := []struct {
			name     string
			actor    *Actor
			content  string
			internal bool
			wantKind Kind
		}{
			{name: "author", actor: alice, content: "first"},
			{name: "assignee", actor: bob, content: "second"},
			{name: "admin on any task", actor: admin, content: "internal note", internal: true},
			{name: "stranger", actor: eve, content: "hi", wantKind: KindNotFound},
			{name: "manager not on task", actor: manager, content: "hi", wantKind: KindNotFound},
			{name: "non staff internal", actor: bob, content: "secret", internal: true, wantKind: KindForbidden},
			{name: "empty", actor: alice, content: "  ", wantKind: KindValidation},
			{name: "too long", actor: alice, content: strings.Repeat("x", 5001), wantKind: KindValidation},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				c, err := env.comments.AddComment(ctx, tt.actor, task.ID, tt.content, tt.internal)
				if tt.wantKind != "" {
					requireKind(t, err, tt.wantKind)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, tt.actor.ID(), c.UserID)
				assert.Equal(t, tt.internal, c.IsInternal)
			})
		}
	})

	t.Run("list hides internal from non staff", func(t *testing.T) {
		visible, err := env.comments.ListComments(ctx, alice, task.ID)
		require.NoError(t, err)
		assert.Len(t, visible, 2)

		all, err := env.comments.ListComments(ctx, admin, task.ID)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	comments, err := env.comments.ListComments(ctx, admin, task.ID)
	require.NoError(t, err)
	byContent := map[string]*models.Comment{}
	for _, c := range comments {
		byContent[c.Content] = c
	}

	t.Run("edit", func(t *testing.T) {
		first := byContent["first"]
		_, err := env.comments.UpdateComment(ctx, bob, first.ID, ptr("hijacked"), nil)
		requireKind(t, err, KindForbidden)

		_, err = env.comments.UpdateComment(ctx, alice, first.ID, nil, ptr(true))
		requireKind(t, err, KindForbidden)

		updated, err := env.comments.UpdateComment(ctx, alice, first.ID, ptr("first, edited"), nil)
		require.NoError(t, err)
		assert.Equal(t, "first, edited", updated.Content)

		_, err = env.comments.UpdateComment(ctx, bob, byContent["internal note"].ID, ptr("x"), nil)
		requireKind(t, err, KindNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		second := byContent["second"]
		requireKind(t, env.comments.DeleteComment(ctx, alice, second.ID), KindForbidden)
		requireKind(t, env.comments.DeleteComment(ctx, eve, second.ID), KindNotFound)
		require.NoError(t, env.comments.DeleteComment(ctx, admin, second.ID))
		require.NoError(t, env.comments.DeleteComment(ctx, admin, byContent["internal note"].ID))

		left, err := env.comments.ListComments(ctx, admin, task.ID)
		require.NoError(t, err)
		assert.Len(t, left, 1)
	})
}
