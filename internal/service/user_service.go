// internal/service/user_service.go
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/config"
	"github.com/gurkanbulca/taskpulse/internal/models"
	"github.com/gurkanbulca/taskpulse/internal/repository"
	"github.com/gurkanbulca/taskpulse/pkg/auth"
)

type UserService struct {
	store           *repository.Store
	passwordManager *auth.PasswordManager
	securityLogger  *SecurityLogger
	clock           Clock
	adminPolicy     AdminPolicy
	limits          config.ValidationConfig
}

func NewUserService(
	store *repository.Store,
	passwordManager *auth.PasswordManager,
	securityLogger *SecurityLogger,
	clock Clock,
	adminPolicy AdminPolicy,
	limits config.ValidationConfig,
) *UserService {
	return &UserService{
		store:           store,
		passwordManager: passwordManager,
		securityLogger:  securityLogger,
		clock:           clock,
		adminPolicy:     adminPolicy,
		limits:          limits,
	}
}

type CreateUserInput struct {
	Email          string
	Password       string
	FirstName      string
	LastName       string
	Role           string
	OrganizationID *uuid.UUID
}

// Register is self-service sign up. The role is always user.
func (s *UserService) Register(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.Role = string(models.RoleUser)
	return s.create(ctx, in)
}

// CreateUser provisions an account with any role. It has no actor and is
// only reachable from the management CLI.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	return s.create(ctx, in)
}

func (s *UserService) create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	emailAddr := normalizeEmail(in.Email)

	v := newValidator(s.limits)
	v.email(emailAddr)
	v.name("first_name", in.FirstName)
	v.name("last_name", in.LastName)
	role := parseOr(v, in.Role, models.RoleUser, models.ParseRole)
	if err := v.err(); err != nil {
		return nil, err
	}

	hash, err := s.passwordManager.HashPassword(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return nil, validation("%v", err)
		}
		return nil, storage("hash password", err)
	}

	if in.OrganizationID != nil {
		if _, err := s.store.Organizations.GetByID(ctx, *in.OrganizationID); err != nil {
			return nil, translate(err, "organization", "get organization")
		}
	}

	now := s.clock.Now()
	user := &models.User{
		ID:             uuid.New(),
		Email:          emailAddr,
		PasswordHash:   hash,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Role:           role,
		OrganizationID: in.OrganizationID,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("Email already registered")
		}
		return nil, storage("create user", err)
	}

	s.securityLogger.LogUserCreated(ctx, user.ID, string(user.Role))
	return user, nil
}

// UserQuery is the admin user listing filter.
type UserQuery struct {
	Role           string
	IsActive       *bool
	Search         string
	OrganizationID *uuid.UUID
	Limit          int
	Offset         int
}

type UserList struct {
	Users []*models.User
	Total int
}

func (s *UserService) ListUsers(ctx context.Context, actor *Actor, q UserQuery) (*UserList, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	filter := repository.UserFilter{
		IsActive:       q.IsActive,
		Search:         strings.TrimSpace(q.Search),
		OrganizationID: q.OrganizationID,
	}
	if q.Role != "" {
		role, err := models.ParseRole(q.Role)
		if err != nil {
			return nil, validation("%v", err)
		}
		filter.Role = &role
	}
	if q.Offset < 0 {
		return nil, validation("offset must not be negative")
	}

	users, total, err := s.store.Users.List(ctx, filter, repository.Page{Limit: clampLimit(q.Limit), Offset: q.Offset, SortDesc: true})
	if err != nil {
		return nil, storage("list users", err)
	}
	return &UserList{Users: users, Total: total}, nil
}

// ListAllUsers returns every user for the CLI listing.
func (s *UserService) ListAllUsers(ctx context.Context) ([]*models.User, error) {
	users, _, err := s.store.Users.List(ctx, repository.UserFilter{}, repository.Page{SortBy: "created_at"})
	if err != nil {
		return nil, storage("list users", err)
	}
	return users, nil
}

func (s *UserService) GetUser(ctx context.Context, actor *Actor, id uuid.UUID) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "user", "get user")
	}
	return user, nil
}

// UpdateUserInput holds optional admin edits. Nil means unchanged.
type UpdateUserInput struct {
	FirstName      *string
	LastName       *string
	Role           *string
	OrganizationID *uuid.UUID
	IsActive       *bool
}

// UpdateUser applies admin edits. Role changes go through the admin policy
// and admins cannot deactivate themselves.
func (s *UserService) UpdateUser(ctx context.Context, actor *Actor, id uuid.UUID, in UpdateUserInput) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	v := newValidator(s.limits)
	if in.FirstName != nil {
		v.name("first_name", *in.FirstName)
	}
	if in.LastName != nil {
		v.name("last_name", *in.LastName)
	}
	var role *models.Role
	if in.Role != nil {
		r := parseOr(v, *in.Role, "", models.ParseRole)
		role = &r
	}
	if in.IsActive != nil && !*in.IsActive && id == actor.ID() {
		v.addf("cannot deactivate your own account")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "user", "get user")
	}
	previousRole := user.Role
	wasActive := user.IsActive

	if role != nil && *role != user.Role {
		if err := s.adminPolicy.canManageRoles(ctx, s.store.Users, actor); err != nil {
			return nil, err
		}
		user.Role = *role
	}
	if in.OrganizationID != nil {
		if _, err := s.store.Organizations.GetByID(ctx, *in.OrganizationID); err != nil {
			return nil, translate(err, "organization", "get organization")
		}
		user.OrganizationID = in.OrganizationID
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	user.UpdatedAt = s.clock.Now()

	if err := s.store.Users.Update(ctx, user); err != nil {
		return nil, translate(err, "user", "update user")
	}

	if user.Role != previousRole {
		s.securityLogger.LogRoleChanged(ctx, user.ID, string(previousRole), string(user.Role), actor.Email())
	}
	if wasActive && !user.IsActive {
		s.securityLogger.LogUserDeactivated(ctx, user.ID, actor.Email())
	}
	return user, nil
}

// DeactivateUser soft-deletes a user. Tasks and time logs are kept.
func (s *UserService) DeactivateUser(ctx context.Context, actor *Actor, id uuid.UUID) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if id == actor.ID() {
		return nil, validation("cannot deactivate your own account")
	}
	return s.deactivate(ctx, id, actor.Email())
}

// PromoteUser makes the user an admin, subject to the admin policy.
func (s *UserService) PromoteUser(ctx context.Context, actor *Actor, id uuid.UUID) (*models.User, error) {
	role := string(models.RoleAdmin)
	return s.UpdateUser(ctx, actor, id, UpdateUserInput{Role: &role})
}

// SetRoleByEmail is the CLI role change. There is no actor, so the admin
// policy does not apply.
func (s *UserService) SetRoleByEmail(ctx context.Context, emailAddr, role string) (*models.User, error) {
	r, err := models.ParseRole(role)
	if err != nil {
		return nil, validation("%v", err)
	}
	user, err := s.store.Users.GetByEmail(ctx, normalizeEmail(emailAddr))
	if err != nil {
		return nil, translate(err, "user", "get user")
	}
	previous := user.Role
	if previous == r {
		return user, nil
	}

	user.Role = r
	user.UpdatedAt = s.clock.Now()
	if err := s.store.Users.Update(ctx, user); err != nil {
		return nil, translate(err, "user", "update user")
	}
	s.securityLogger.LogRoleChanged(ctx, user.ID, string(previous), string(r), "cli")
	return user, nil
}

// DeactivateByEmail is the CLI deactivation.
func (s *UserService) DeactivateByEmail(ctx context.Context, emailAddr string) (*models.User, error) {
	user, err := s.store.Users.GetByEmail(ctx, normalizeEmail(emailAddr))
	if err != nil {
		return nil, translate(err, "user", "get user")
	}
	return s.deactivate(ctx, user.ID, "cli")
}

func (s *UserService) deactivate(ctx context.Context, id uuid.UUID, by string) (*models.User, error) {
	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "user", "get user")
	}
	if !user.IsActive {
		return user, nil
	}

	now := s.clock.Now()
	if err := s.store.Users.SetActive(ctx, id, false, now); err != nil {
		return nil, translate(err, "user", "deactivate user")
	}
	user.IsActive = false
	user.UpdatedAt = now

	s.securityLogger.LogUserDeactivated(ctx, id, by)
	return user, nil
}

// ResetPassword sets a new password without the current one. CLI only.
func (s *UserService) ResetPassword(ctx context.Context, emailAddr, newPassword string) error {
	user, err := s.store.Users.GetByEmail(ctx, normalizeEmail(emailAddr))
	if err != nil {
		return translate(err, "user", "get user")
	}

	hash, err := s.passwordManager.HashPassword(newPassword)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return validation("%v", err)
		}
		return storage("hash password", err)
	}
	if err := s.store.Users.UpdatePassword(ctx, user.ID, hash, s.clock.Now()); err != nil {
		return translate(err, "user", "reset password")
	}

	s.securityLogger.LogPasswordReset(ctx, user.ID, "cli")
	return nil
}

// AvailableAssignees lists active users a task could be handed to, excluding
// the current assignee. Only the author or assignee may ask.
func (s *UserService) AvailableAssignees(ctx context.Context, actor *Actor, taskID uuid.UUID) ([]*models.User, error) {
	task, err := s.store.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, translate(err, "task", "get task")
	}
	if !task.IsParticipant(actor.ID()) {
		return nil, forbidden("only the author or assignee may view available assignees")
	}

	active := true
	filter := repository.UserFilter{IsActive: &active, ExcludeID: &task.AssigneeID}
	users, _, err := s.store.Users.List(ctx, filter, repository.Page{SortBy: "email"})
	if err != nil {
		return nil, storage("list users", err)
	}
	return users, nil
}
