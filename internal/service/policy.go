package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gurkanbulca/taskpulse/internal/models"
	"github.com/gurkanbulca/taskpulse/internal/repository"
)

// DeletePolicy selects who may hard-delete a task.
type DeletePolicy string

const (
	DeleteByAssignee         DeletePolicy = "assignee"
	DeleteByAuthorOrAssignee DeletePolicy = "author_or_assignee"
)

func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch p := DeletePolicy(s); p {
	case DeleteByAssignee, DeleteByAuthorOrAssignee:
		return p, nil
	case "":
		return DeleteByAuthorOrAssignee, nil
	default:
		return "", fmt.Errorf("unknown delete policy %q", s)
	}
}

// check returns NotFound for callers who cannot see the task at all and
// Forbidden for participants the policy excludes.
func (p DeletePolicy) check(task *models.Task, actor *Actor) error {
	if !task.IsParticipant(actor.ID()) {
		return notFound("task not found")
	}
	if task.AssigneeID == actor.ID() {
		return nil
	}
	if p == DeleteByAuthorOrAssignee && task.AuthorID == actor.ID() {
		return nil
	}
	return forbidden("only the assignee may delete this task")
}

// AdminPolicy selects which admins may change other users' roles.
type AdminPolicy string

const (
	AnyAdmin   AdminPolicy = "any_admin"
	SuperAdmin AdminPolicy = "super_admin"
)

func ParseAdminPolicy(s string) (AdminPolicy, error) {
	switch p := AdminPolicy(s); p {
	case AnyAdmin, SuperAdmin:
		return p, nil
	case "":
		return AnyAdmin, nil
	default:
		return "", fmt.Errorf("unknown admin policy %q", s)
	}
}

// canManageRoles checks the actor against the policy. Under SuperAdmin only
// the earliest created active admin qualifies.
func (p AdminPolicy) canManageRoles(ctx context.Context, users *repository.UserRepository, actor *Actor) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if p != SuperAdmin {
		return nil
	}

	first, err := users.EarliestAdmin(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return forbidden("super admin privileges required")
		}
		return storage("resolve super admin", err)
	}
	if first.ID != actor.ID() {
		return forbidden("super admin privileges required")
	}
	return nil
}
