package service

import (
	"context"

	"github.com/talentprobe/talentprobe-backend/internal/model"
	"github.com/talentprobe/talentprobe-backend/internal/store"
)

// OrganizationService handles tenant account management.
type OrganizationService struct {
	store store.Store
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(st store.Store) *OrganizationService {
	return &OrganizationService{store: st}
}

// Create provisions a new organization.
func (s *OrganizationService) Create(ctx context.Context, name string) (*model.Organization, error) {
	return s.store.CreateOrganization(ctx, name)
}

// Organization returns the caller's organization.
func (s *OrganizationService) Organization(ctx context.Context, orgID int64) (*model.Organization, error) {
	return s.store.Organization(ctx, orgID)
}

// Rename changes the organization's display name, its only mutable
// attribute.
func (s *OrganizationService) Rename(ctx context.Context, orgID int64, req model.UpdateOrganizationRequest) (*model.Organization, error) {
	return s.store.RenameOrganization(ctx, orgID, req.Name)
}
