package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/openlms/course-service/internal/models"
	"github.com/openlms/course-service/internal/repositories"
	"github.com/openlms/course-service/internal/validator"
)

type organizationService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewOrganizationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) OrganizationService {
	return &organizationService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

// Create registers the organization and its creator as owner in one transaction.
// A slug collision is a conflict here: organizations do not get numeric suffixes.
func (s *organizationService) Create(ctx context.Context, req *OrganizationCreateRequest, creatorID uint) (*models.Organization, error) {
	if errs := s.validator.GetBusinessValidator().ValidateOrganizationCreate(req); len(errs) > 0 {
		return nil, errs
	}

	slug := GenerateSlug(req.Name)

	taken, err := s.repo.Organization().ExistsBySlug(ctx, nil, slug, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if taken {
		return nil, ErrOrganizationSlugTaken
	}

	org := &models.Organization{
		Name:            req.Name,
		Slug:            slug,
		Description:     req.Description,
		LogoURL:         req.LogoURL,
		Website:         req.Website,
		ContactEmail:    req.ContactEmail,
		Address:         req.Address,
		FoundedYear:     req.FoundedYear,
		IsPublic:        true,
		CreatedByUserID: creatorID,
	}
	if req.IsPublic != nil {
		org.IsPublic = *req.IsPublic
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Organization().Create(ctx, nil, org); err != nil {
			if repositories.IsDuplicateError(err) {
				return ErrOrganizationSlugTaken
			}
			return fmt.Errorf("failed to create organization: %w", err)
		}

		owner := &models.OrganizationMember{
			OrganizationID: org.ID,
			UserID:         creatorID,
			Role:           models.OrgRoleOwner,
		}
		if err := txRepo.OrganizationMember().Create(ctx, nil, owner); err != nil {
			return fmt.Errorf("failed to add owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Organization created", "organization_id", org.ID, "slug", org.Slug, "creator_id", creatorID)
	return org, nil
}

func (s *organizationService) GetByID(ctx context.Context, id uint) (*models.Organization, error) {
	org, err := s.repo.Organization().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

func (s *organizationService) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	org, err := s.repo.Organization().GetBySlug(ctx, nil, slug)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

func (s *organizationService) List(ctx context.Context, filters ListFilters) (*OrganizationListResponse, error) {
	repoFilters := repositories.OrganizationFilters{
		Limit:     normalizePageSize(filters.Size),
		Offset:    pageOffset(filters.Page, filters.Size),
		SortBy:    filters.SortBy,
		SortOrder: filters.SortOrder,
	}

	orgs, total, err := s.repo.Organization().List(ctx, nil, repoFilters)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	return &OrganizationListResponse{
		Organizations: orgs,
		Total:         total,
		Page:          normalizePage(filters.Page),
		Size:          repoFilters.Limit,
	}, nil
}

// ListMine returns the organizations the user belongs to, or only the ones
// they created when createdOnly is set.
func (s *organizationService) ListMine(ctx context.Context, userID uint, createdOnly bool) ([]*models.Organization, error) {
	var (
		orgs []*models.Organization
		err  error
	)
	if createdOnly {
		orgs, err = s.repo.Organization().GetByCreator(ctx, nil, userID)
	} else {
		orgs, err = s.repo.Organization().GetByMember(ctx, nil, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list user organizations: %w", err)
	}
	return orgs, nil
}

// Update regenerates the slug when the name changes and re-checks uniqueness
// excluding the organization itself.
func (s *organizationService) Update(ctx context.Context, id uint, req *OrganizationUpdateRequest, requesterID uint) (*models.Organization, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	org, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.requireOrgRole(ctx, id, requesterID, "update", models.OrgRoleOwner, models.OrgRoleAdmin); err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != org.Name {
		newSlug := GenerateSlug(*req.Name)
		if newSlug != org.Slug {
			taken, err := s.repo.Organization().ExistsBySlug(ctx, nil, newSlug, &id)
			if err != nil {
				return nil, fmt.Errorf("failed to check slug: %w", err)
			}
			if taken {
				return nil, ErrOrganizationSlugTaken
			}
			org.Slug = newSlug
		}
		org.Name = *req.Name
	}
	if req.Description != nil {
		org.Description = req.Description
	}
	if req.LogoURL != nil {
		org.LogoURL = req.LogoURL
	}
	if req.Website != nil {
		org.Website = req.Website
	}
	if req.ContactEmail != nil {
		org.ContactEmail = req.ContactEmail
	}
	if req.Address != nil {
		org.Address = req.Address
	}
	if req.FoundedYear != nil {
		org.FoundedYear = req.FoundedYear
	}
	if req.IsPublic != nil {
		org.IsPublic = *req.IsPublic
	}

	if err := s.repo.Organization().Update(ctx, nil, org); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrOrganizationSlugTaken
		}
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}

	return org, nil
}

func (s *organizationService) Delete(ctx context.Context, id uint, requesterID uint) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.requireOrgRole(ctx, id, requesterID, "delete", models.OrgRoleOwner); err != nil {
		return err
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.OrganizationMember().DeleteByOrganization(ctx, nil, id); err != nil {
			return err
		}
		if err := txRepo.Organization().Delete(ctx, nil, id); err != nil {
			return fmt.Errorf("failed to delete organization: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Organization deleted", "organization_id", id, "requester_id", requesterID)
	return nil
}

// ===== MEMBERSHIP =====

func (s *organizationService) AddMember(ctx context.Context, orgID uint, req *AddMemberRequest, requesterID uint) (*models.OrganizationMember, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	if _, err := s.GetByID(ctx, orgID); err != nil {
		return nil, err
	}

	if err := s.requireOrgRole(ctx, orgID, requesterID, "add_member", models.OrgRoleOwner, models.OrgRoleAdmin); err != nil {
		return nil, err
	}

	userExists, err := s.repo.User().ExistsByID(ctx, nil, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !userExists {
		return nil, ErrUserNotFound
	}

	member := &models.OrganizationMember{
		OrganizationID: orgID,
		UserID:         req.UserID,
		Role:           models.OrgRoleStudent,
	}
	if req.Role != nil {
		member.Role = models.OrgMemberRole(*req.Role)
	}

	if err := s.repo.OrganizationMember().Create(ctx, nil, member); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	s.logger.Info("Member added", "organization_id", orgID, "user_id", req.UserID, "role", member.Role)
	return member, nil
}

func (s *organizationService) ListMembers(ctx context.Context, orgID uint) ([]*models.OrganizationMember, error) {
	if _, err := s.GetByID(ctx, orgID); err != nil {
		return nil, err
	}

	members, err := s.repo.OrganizationMember().ListByOrganization(ctx, nil, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

func (s *organizationService) UpdateMemberRole(ctx context.Context, orgID, userID uint, req *UpdateMemberRoleRequest, requesterID uint) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	if _, err := s.GetByID(ctx, orgID); err != nil {
		return err
	}

	if err := s.requireOrgRole(ctx, orgID, requesterID, "update_member_role", models.OrgRoleOwner, models.OrgRoleAdmin); err != nil {
		return err
	}

	if err := s.repo.OrganizationMember().UpdateRole(ctx, nil, orgID, userID, models.OrgMemberRole(req.Role)); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to update member role: %w", err)
	}
	return nil
}

func (s *organizationService) RemoveMember(ctx context.Context, orgID, userID uint, requesterID uint) error {
	if _, err := s.GetByID(ctx, orgID); err != nil {
		return err
	}

	// Members may leave on their own; removing someone else needs a manager role.
	if userID != requesterID {
		if err := s.requireOrgRole(ctx, orgID, requesterID, "remove_member", models.OrgRoleOwner, models.OrgRoleAdmin); err != nil {
			return err
		}
	}

	if err := s.repo.OrganizationMember().Delete(ctx, nil, orgID, userID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.logger.Info("Member removed", "organization_id", orgID, "user_id", userID, "requester_id", requesterID)
	return nil
}

// requireOrgRole checks the requester's membership role, with a global admin override.
func (s *organizationService) requireOrgRole(ctx context.Context, orgID, requesterID uint, action string, roles ...models.OrgMemberRole) error {
	requester, err := s.repo.User().GetByID(ctx, nil, requesterID)
	if err == nil && requester.Role == models.RoleAdmin {
		return nil
	}

	role, err := s.repo.OrganizationMember().GetRole(ctx, nil, orgID, requesterID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewPermissionError(requesterID, orgID, "organization", action, "not a member")
		}
		return fmt.Errorf("failed to get member role: %w", err)
	}

	for _, allowed := range roles {
		if role == allowed {
			return nil
		}
	}
	return NewPermissionError(requesterID, orgID, "organization", action, fmt.Sprintf("role %s is not allowed", role))
}
