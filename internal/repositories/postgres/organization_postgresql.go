package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/openlms/course-service/internal/cache"
	"github.com/openlms/course-service/internal/models"
	"github.com/openlms/course-service/internal/repositories"
)

type OrganizationPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewOrganizationPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.OrganizationRepository {
	return &OrganizationPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (o *OrganizationPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return o.db
}

func (o *OrganizationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, org *models.Organization) error {
	if err := o.getDB(tx).WithContext(ctx).Create(org).Error; err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, o.cacheManager.Organization, "list:*")
	return nil
}

// GetByID retrieves an organization by ID with caching. Reads inside a
// transaction skip the cache so they see the transaction's own snapshot.
func (o *OrganizationPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Organization, error) {
	fetch := func() (interface{}, error) {
		var dbOrg models.Organization
		if err := o.getDB(tx).WithContext(ctx).First(&dbOrg, id).Error; err != nil {
			return nil, fmt.Errorf("failed to get organization: %w", err)
		}
		return &dbOrg, nil
	}

	if tx != nil {
		result, err := fetch()
		if err != nil {
			return nil, err
		}
		return result.(*models.Organization), nil
	}

	var org models.Organization
	err := o.cacheManager.Organization.CacheOrExecute(ctx, fmt.Sprintf("id:%d", id), &org, cache.OrganizationCacheConfig.TTL, fetch)
	if err != nil {
		return nil, err
	}

	return &org, nil
}

func (o *OrganizationPostgreSQL) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Organization, error) {
	fetch := func() (interface{}, error) {
		var dbOrg models.Organization
		err := o.getDB(tx).WithContext(ctx).
			Where("slug = ?", slug).
			First(&dbOrg).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get organization by slug: %w", err)
		}
		return &dbOrg, nil
	}

	if tx != nil {
		result, err := fetch()
		if err != nil {
			return nil, err
		}
		return result.(*models.Organization), nil
	}

	var org models.Organization
	err := o.cacheManager.Organization.CacheOrExecute(ctx, fmt.Sprintf("slug:%s", slug), &org, cache.OrganizationCacheConfig.TTL, fetch)
	if err != nil {
		return nil, err
	}

	return &org, nil
}

func (o *OrganizationPostgreSQL) Update(ctx context.Context, tx *gorm.DB, org *models.Organization) error {
	// Fetch the stored slug so a rename invalidates the old cache entry too
	var current models.Organization
	if err := o.getDB(tx).WithContext(ctx).Select("id, slug").First(&current, org.ID).Error; err != nil {
		return fmt.Errorf("failed to get organization before update: %w", err)
	}

	err := o.getDB(tx).WithContext(ctx).Model(&models.Organization{}).Where("id = ?", org.ID).Updates(map[string]interface{}{
		"slug":          org.Slug,
		"name":          org.Name,
		"description":   org.Description,
		"logo_url":      org.LogoURL,
		"website":       org.Website,
		"contact_email": org.ContactEmail,
		"address":       org.Address,
		"founded_year":  org.FoundedYear,
		"is_public":     org.IsPublic,
		"updated_at":    org.UpdatedAt,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
	}

	cache.InvalidateOrganizationCache(ctx, o.cacheManager, org.ID, current.Slug)
	cache.InvalidateOrganizationCache(ctx, o.cacheManager, org.ID, org.Slug)
	return nil
}

func (o *OrganizationPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	var org models.Organization
	if err := o.getDB(tx).WithContext(ctx).Select("id, slug").First(&org, id).Error; err != nil {
		return fmt.Errorf("failed to get organization before delete: %w", err)
	}

	if err := o.getDB(tx).WithContext(ctx).Delete(&models.Organization{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	cache.InvalidateOrganizationCache(ctx, o.cacheManager, id, org.Slug)
	return nil
}

func (o *OrganizationPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.OrganizationFilters) ([]*models.Organization, int64, error) {
	query := o.getDB(tx).WithContext(ctx).Model(&models.Organization{})

	if filters.IsPublic != nil {
		query = query.Where("is_public = ?", *filters.IsPublic)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by_user_id = ?", *filters.CreatedBy)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, "created_at", organizationSortColumns, filters.Limit, filters.Offset)

	var orgs []*models.Organization
	if err := query.Find(&orgs).Error; err != nil {
		return nil, 0, err
	}

	return orgs, total, nil
}

func (o *OrganizationPostgreSQL) GetByCreator(ctx context.Context, tx *gorm.DB, creatorID uint) ([]*models.Organization, error) {
	var orgs []*models.Organization
	err := o.getDB(tx).WithContext(ctx).
		Where("created_by_user_id = ?", creatorID).
		Order("created_at DESC").
		Find(&orgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get organizations by creator: %w", err)
	}
	return orgs, nil
}

func (o *OrganizationPostgreSQL) GetByMember(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.Organization, error) {
	var orgs []*models.Organization
	err := o.getDB(tx).WithContext(ctx).
		Joins("JOIN organization_members ON organization_members.organization_id = organizations.id").
		Where("organization_members.user_id = ?", userID).
		Order("organizations.created_at DESC").
		Find(&orgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get organizations by member: %w", err)
	}
	return orgs, nil
}

func (o *OrganizationPostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	var count int64
	err := o.getDB(tx).WithContext(ctx).
		Model(&models.Organization{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (o *OrganizationPostgreSQL) ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string, excludeID *uint) (bool, error) {
	query := o.getDB(tx).WithContext(ctx).
		Model(&models.Organization{}).
		Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

type OrganizationMemberPostgreSQL struct {
	db *gorm.DB
}

func NewOrganizationMemberPostgreSQL(db *gorm.DB) repositories.OrganizationMemberRepository {
	return &OrganizationMemberPostgreSQL{db: db}
}

func (m *OrganizationMemberPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return m.db
}

func (m *OrganizationMemberPostgreSQL) Create(ctx context.Context, tx *gorm.DB, member *models.OrganizationMember) error {
	if err := m.getDB(tx).WithContext(ctx).Create(member).Error; err != nil {
		return fmt.Errorf("failed to create organization member: %w", err)
	}
	return nil
}

func (m *OrganizationMemberPostgreSQL) Get(ctx context.Context, tx *gorm.DB, orgID, userID uint) (*models.OrganizationMember, error) {
	var member models.OrganizationMember
	err := m.getDB(tx).WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&member).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get organization member: %w", err)
	}
	return &member, nil
}

func (m *OrganizationMemberPostgreSQL) UpdateRole(ctx context.Context, tx *gorm.DB, orgID, userID uint, role models.OrgMemberRole) error {
	result := m.getDB(tx).WithContext(ctx).
		Model(&models.OrganizationMember{}).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Update("role", role)
	if result.Error != nil {
		return fmt.Errorf("failed to update member role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (m *OrganizationMemberPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, orgID, userID uint) error {
	result := m.getDB(tx).WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Delete(&models.OrganizationMember{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete organization member: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (m *OrganizationMemberPostgreSQL) DeleteByOrganization(ctx context.Context, tx *gorm.DB, orgID uint) error {
	err := m.getDB(tx).WithContext(ctx).
		Where("organization_id = ?", orgID).
		Delete(&models.OrganizationMember{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete organization members: %w", err)
	}
	return nil
}

func (m *OrganizationMemberPostgreSQL) ListByOrganization(ctx context.Context, tx *gorm.DB, orgID uint) ([]*models.OrganizationMember, error) {
	var members []*models.OrganizationMember
	err := m.getDB(tx).WithContext(ctx).
		Where("organization_id = ?", orgID).
		Preload("User").
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list organization members: %w", err)
	}
	return members, nil
}

func (m *OrganizationMemberPostgreSQL) GetRole(ctx context.Context, tx *gorm.DB, orgID, userID uint) (models.OrgMemberRole, error) {
	var member models.OrganizationMember
	err := m.getDB(tx).WithContext(ctx).
		Select("role").
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&member).Error
	if err != nil {
		return "", err
	}
	return member.Role, nil
}
