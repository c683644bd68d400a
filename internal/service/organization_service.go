package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/config"
	"github.com/gurkanbulca/taskpulse/internal/models"
	"github.com/gurkanbulca/taskpulse/internal/repository"
)

// OrganizationService is admin-only organization management.
type OrganizationService struct {
	store  *repository.Store
	clock  Clock
	limits config.ValidationConfig
}

func NewOrganizationService(store *repository.Store, clock Clock, limits config.ValidationConfig) *OrganizationService {
	return &OrganizationService{store: store, clock: clock, limits: limits}
}

func (s *OrganizationService) Create(ctx context.Context, actor *Actor, name, description string) (*models.Organization, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	v := newValidator(s.limits)
	if name == "" {
		v.addf("name is required")
	}
	v.name("name", name)
	v.description(description)
	if err := v.err(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	org := &models.Organization{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Organizations.Create(ctx, org); err != nil {
		return nil, translate(err, "organization", "create organization")
	}
	return org, nil
}

func (s *OrganizationService) List(ctx context.Context, actor *Actor) ([]*repository.OrganizationWithMembers, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	orgs, err := s.store.Organizations.List(ctx)
	if err != nil {
		return nil, storage("list organizations", err)
	}
	return orgs, nil
}

func (s *OrganizationService) Get(ctx context.Context, actor *Actor, id uuid.UUID) (*models.Organization, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	org, err := s.store.Organizations.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "organization", "get organization")
	}
	return org, nil
}

type UpdateOrganizationInput struct {
	Name        *string
	Description *string
	IsActive    *bool
}

func (s *OrganizationService) Update(ctx context.Context, actor *Actor, id uuid.UUID, in UpdateOrganizationInput) (*models.Organization, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	v := newValidator(s.limits)
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			v.addf("name is required")
		}
		v.name("name", *in.Name)
	}
	if in.Description != nil {
		v.description(*in.Description)
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	org, err := s.store.Organizations.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "organization", "get organization")
	}
	if in.Name != nil {
		org.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		org.Description = *in.Description
	}
	if in.IsActive != nil {
		org.IsActive = *in.IsActive
	}
	org.UpdatedAt = s.clock.Now()

	if err := s.store.Organizations.Update(ctx, org); err != nil {
		return nil, translate(err, "organization", "update organization")
	}
	return org, nil
}
