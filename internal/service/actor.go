package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/models"
)

// Actor is the resolved identity every operation runs as. Only the auth
// service can produce one, so holding an Actor proves the token was checked
// and the user was active at resolution time.
type Actor struct {
	user models.User
}

func newActor(u *models.User) *Actor {
	return &Actor{user: *u}
}

func (a *Actor) ID() uuid.UUID     { return a.user.ID }
func (a *Actor) Email() string     { return a.user.Email }
func (a *Actor) Role() models.Role { return a.user.Role }
func (a *Actor) IsAdmin() bool     { return a.user.IsAdmin() }
func (a *Actor) IsStaff() bool     { return a.user.IsStaff() }

// User returns a copy of the user record the actor was resolved from.
func (a *Actor) User() models.User {
	return a.user
}

type actorKey struct{}

func withActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns the actor stored by AuthService.AuthenticateRequest.
func ActorFromContext(ctx context.Context) (*Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(*Actor)
	return a, ok && a != nil
}

func requireAdmin(a *Actor) error {
	if a == nil || !a.IsAdmin() {
		return forbidden("admin privileges required")
	}
	return nil
}
