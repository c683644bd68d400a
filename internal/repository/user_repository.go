package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/models"
)

var userColumns = []string{
	"id", "email", "password_hash", "first_name", "last_name", "role",
	"organization_id", "is_active", "created_at", "updated_at",
}

var userSortable = map[string]string{
	"created_at": "created_at",
	"email":      "email",
	"last_name":  "last_name",
	"role":       "role",
}

type UserRepository struct {
	querier
}

// UserFilter narrows user listings. Nil fields are ignored.
type UserFilter struct {
	Role           *models.Role
	IsActive       *bool
	Search         string
	OrganizationID *uuid.UUID
	ExcludeID      *uuid.UUID
}

func (f UserFilter) predicates() []*sql.Predicate {
	var preds []*sql.Predicate
	if f.Role != nil {
		preds = append(preds, sql.EQ("role", string(*f.Role)))
	}
	if f.IsActive != nil {
		preds = append(preds, sql.EQ("is_active", *f.IsActive))
	}
	if f.Search != "" {
		preds = append(preds, sql.Or(
			sql.ContainsFold("email", f.Search),
			sql.ContainsFold("first_name", f.Search),
			sql.ContainsFold("last_name", f.Search),
		))
	}
	if f.OrganizationID != nil {
		preds = append(preds, sql.EQ("organization_id", *f.OrganizationID))
	}
	if f.ExcludeID != nil {
		preds = append(preds, sql.NEQ("id", *f.ExcludeID))
	}
	return preds
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if _, err := r.namedExec(ctx, insertQuery("users", userColumns), u); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	query := "SELECT " + columnList(userColumns) + " FROM users WHERE id = ?"
	if err := r.get(ctx, &u, query, id); err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}

// GetByEmail looks up a user by their normalized (lower-case) email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	query := "SELECT " + columnList(userColumns) + " FROM users WHERE email = ?"
	if err := r.get(ctx, &u, query, email); err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context, f UserFilter, page Page) ([]*models.User, int, error) {
	preds := f.predicates()

	var total int
	count := where(r.builder().Select().Count().From(sql.Table("users")), preds)
	if err := r.getBuilt(ctx, &total, count); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	sel := where(r.builder().Select(userColumns...).From(sql.Table("users")), preds)
	page.apply(sel, userSortable, "created_at")

	users := []*models.User{}
	if err := r.selectBuilt(ctx, &users, sel); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func (r *UserRepository) Count(ctx context.Context, f UserFilter) (int, error) {
	var total int
	count := where(r.builder().Select().Count().From(sql.Table("users")), f.predicates())
	if err := r.getBuilt(ctx, &total, count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}

// Update persists the mutable profile fields of u.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	columns := []string{"email", "first_name", "last_name", "role", "organization_id", "is_active", "updated_at"}
	n, err := r.namedExec(ctx, updateQuery("users", columns), u)
	if err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update user %s: %w", u.ID, ErrNotFound)
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string, now time.Time) error {
	n, err := r.exec(ctx, "UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?", hash, now, id)
	if err != nil {
		return fmt.Errorf("update password for %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update password for %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetActive flips the soft-delete flag. Users are never hard-deleted.
func (r *UserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool, now time.Time) error {
	n, err := r.exec(ctx, "UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?", active, now, id)
	if err != nil {
		return fmt.Errorf("set active for %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("set active for %s: %w", id, ErrNotFound)
	}
	return nil
}

// MissingIDs returns the ids in ids that do not belong to any user.
func (r *UserRepository) MissingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	var found []uuid.UUID
	sel := r.builder().Select("id").From(sql.Table("users")).Where(sql.In("id", args...))
	if err := r.selectBuilt(ctx, &found, sel); err != nil {
		return nil, fmt.Errorf("resolve users: %w", err)
	}

	seen := make(map[uuid.UUID]bool, len(found))
	for _, id := range found {
		seen[id] = true
	}
	var missing []uuid.UUID
	for _, id := range ids {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// EarliestAdmin returns the first-created active admin.
func (r *UserRepository) EarliestAdmin(ctx context.Context) (*models.User, error) {
	var u models.User
	query := "SELECT " + columnList(userColumns) +
		" FROM users WHERE role = ? AND is_active = ? ORDER BY created_at ASC, id ASC LIMIT 1"
	if err := r.get(ctx, &u, query, string(models.RoleAdmin), true); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get earliest admin: %w", err)
	}
	return &u, nil
}

// CountByRole groups active users by role.
func (r *UserRepository) CountByRole(ctx context.Context) (map[string]int, error) {
	sel := r.builder().
		Select(sql.As("role", "label"), sql.As(sql.Count("*"), "count")).
		From(sql.Table("users")).
		Where(sql.EQ("is_active", true)).
		GroupBy("role")

	var rows []labelCount
	if err := r.selectBuilt(ctx, &rows, sel); err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	return toCountMap(rows), nil
}

// GetMany loads the users with the given ids, keyed by id.
func (r *UserRepository) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error) {
	out := make(map[uuid.UUID]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	var users []*models.User
	sel := r.builder().Select(userColumns...).From(sql.Table("users")).Where(sql.In("id", args...))
	if err := r.selectBuilt(ctx, &users, sel); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
