package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/models"
)

var organizationColumns = []string{"id", "name", "description", "is_active", "created_at", "updated_at"}

type OrganizationRepository struct {
	querier
}

// OrganizationWithMembers carries the active member count next to the
// organization row.
type OrganizationWithMembers struct {
	models.Organization
	MemberCount int `db:"member_count" json:"member_count"`
}

func (r *OrganizationRepository) Create(ctx context.Context, o *models.Organization) error {
	if _, err := r.namedExec(ctx, insertQuery("organizations", organizationColumns), o); err != nil {
		return fmt.Errorf("create organization: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var o models.Organization
	query := "SELECT " + columnList(organizationColumns) + " FROM organizations WHERE id = ?"
	if err := r.get(ctx, &o, query, id); err != nil {
		return nil, fmt.Errorf("get organization %s: %w", id, err)
	}
	return &o, nil
}

// List returns every organization ordered by name with member counts.
func (r *OrganizationRepository) List(ctx context.Context) ([]*OrganizationWithMembers, error) {
	query := `SELECT o.id, o.name, o.description, o.is_active, o.created_at, o.updated_at,
		(SELECT COUNT(*) FROM users u WHERE u.organization_id = o.id AND u.is_active = ?) AS member_count
		FROM organizations o ORDER BY o.name ASC`

	orgs := []*OrganizationWithMembers{}
	if err := r.selectAll(ctx, &orgs, query, true); err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	return orgs, nil
}

func (r *OrganizationRepository) Update(ctx context.Context, o *models.Organization) error {
	n, err := r.namedExec(ctx, updateQuery("organizations", []string{"name", "description", "is_active", "updated_at"}), o)
	if err != nil {
		return fmt.Errorf("update organization %s: %w", o.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update organization %s: %w", o.ID, ErrNotFound)
	}
	return nil
}
