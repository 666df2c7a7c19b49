package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/openlms/course-service/internal/events"
	"github.com/openlms/course-service/internal/models"
	"github.com/openlms/course-service/internal/repositories"
	"github.com/openlms/course-service/internal/validator"
)

// Org roles allowed to create courses and manage course staff
var courseManagerRoles = []models.OrgMemberRole{
	models.OrgRoleOwner,
	models.OrgRoleAdmin,
	models.OrgRoleInstructor,
}

type courseService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewCourseService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) CourseService {
	return &courseService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ===== CORE CRUD OPERATIONS =====

// Create inserts the course together with its primary instructor row so a
// failure on either leaves no half-created course behind.
func (s *courseService) Create(ctx context.Context, req *CourseCreateRequest, creatorID uint) (*models.Course, error) {
	if errs := s.validator.GetBusinessValidator().ValidateCourseCreate(req); len(errs) > 0 {
		return nil, errs
	}

	orgExists, err := s.repo.Organization().ExistsByID(ctx, nil, req.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to check organization: %w", err)
	}
	if !orgExists {
		return nil, ErrOrganizationNotFound
	}

	if err := s.requireOrgRole(ctx, req.OrganizationID, creatorID, "create_course", courseManagerRoles...); err != nil {
		return nil, err
	}

	slug, err := s.generateUniqueSlug(ctx, req.Title, nil)
	if err != nil {
		return nil, err
	}

	course := &models.Course{
		OrganizationID:   req.OrganizationID,
		Title:            req.Title,
		Slug:             slug,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Price:            req.Price,
		ThumbnailURL:     req.ThumbnailURL,
		DurationWeeks:    req.DurationWeeks,
		Language:         "English",
		CreatedByUserID:  creatorID,
	}
	if req.Language != nil {
		course.Language = *req.Language
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Course().Create(ctx, nil, course); err != nil {
			// Unique slug index catches a probe race between two creates
			if repositories.IsDuplicateError(err) {
				return ErrCourseSlugTaken
			}
			return fmt.Errorf("failed to create course: %w", err)
		}

		primary := &models.CourseInstructor{
			CourseID: course.ID,
			UserID:   creatorID,
			Role:     models.InstructorRolePrimary,
		}
		if err := txRepo.CourseInstructor().Create(ctx, nil, primary); err != nil {
			return fmt.Errorf("failed to add primary instructor: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Course created", "course_id", course.ID, "slug", course.Slug, "creator_id", creatorID)
	return course, nil
}

// generateUniqueSlug probes slug, slug-1, slug-2, ... until a free one is found.
func (s *courseService) generateUniqueSlug(ctx context.Context, title string, excludeID *uint) (string, error) {
	base := GenerateSlug(title)
	slug := base

	for counter := 1; ; counter++ {
		taken, err := s.repo.Course().ExistsBySlug(ctx, nil, slug, excludeID)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}

func (s *courseService) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

// GetBySlug is the public catalog lookup and only resolves published courses.
func (s *courseService) GetBySlug(ctx context.Context, slug string) (*models.Course, error) {
	course, err := s.repo.Course().GetBySlug(ctx, nil, slug)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if !course.IsPublished {
		return nil, ErrCourseNotFound
	}
	return course, nil
}

func (s *courseService) List(ctx context.Context, filters CourseListFilters) (*CourseListResponse, error) {
	if filters.InstructorID != nil {
		courses, err := s.repo.Course().GetByInstructor(ctx, nil, *filters.InstructorID)
		if err != nil {
			return nil, fmt.Errorf("failed to list courses by instructor: %w", err)
		}
		return &CourseListResponse{
			Courses: courses,
			Total:   int64(len(courses)),
			Page:    1,
			Size:    len(courses),
		}, nil
	}

	repoFilters := repositories.CourseFilters{
		OrganizationID: filters.OrganizationID,
		Language:       filters.Language,
		Limit:          normalizePageSize(filters.Size),
		Offset:         pageOffset(filters.Page, filters.Size),
		SortBy:         filters.SortBy,
		SortOrder:      filters.SortOrder,
	}
	if filters.PublishedOnly {
		published := true
		repoFilters.IsPublished = &published
	}

	courses, total, err := s.repo.Course().List(ctx, nil, repoFilters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	return &CourseListResponse{
		Courses: courses,
		Total:   total,
		Page:    normalizePage(filters.Page),
		Size:    repoFilters.Limit,
	}, nil
}

func (s *courseService) Update(ctx context.Context, id uint, req *CourseUpdateRequest, requesterID uint) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	course, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.requireCourseManager(ctx, course, requesterID, "update"); err != nil {
		return nil, err
	}

	if req.Title != nil && *req.Title != course.Title {
		slug, err := s.generateUniqueSlug(ctx, *req.Title, &id)
		if err != nil {
			return nil, err
		}
		course.Title = *req.Title
		course.Slug = slug
	}
	if req.Description != nil {
		course.Description = req.Description
	}
	if req.ShortDescription != nil {
		course.ShortDescription = req.ShortDescription
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.ThumbnailURL != nil {
		course.ThumbnailURL = req.ThumbnailURL
	}
	if req.DurationWeeks != nil {
		course.DurationWeeks = req.DurationWeeks
	}
	if req.Language != nil {
		course.Language = *req.Language
	}

	if err := s.repo.Course().Update(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	return course, nil
}

func (s *courseService) Delete(ctx context.Context, id uint, requesterID uint) error {
	course, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.requireCourseManager(ctx, course, requesterID, "delete"); err != nil {
		return err
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		lessons, err := txRepo.Lesson().ListByCourse(ctx, nil, id)
		if err != nil {
			return fmt.Errorf("failed to list lessons: %w", err)
		}
		for _, lesson := range lessons {
			if err := txRepo.LessonProgress().DeleteByLesson(ctx, nil, lesson.ID); err != nil {
				return err
			}
			if err := txRepo.Lesson().Delete(ctx, nil, lesson.ID); err != nil {
				return err
			}
		}
		if err := txRepo.Enrollment().DeleteByCourse(ctx, nil, id); err != nil {
			return err
		}
		if err := txRepo.CourseInstructor().DeleteByCourse(ctx, nil, id); err != nil {
			return err
		}
		if err := txRepo.Course().Delete(ctx, nil, id); err != nil {
			return fmt.Errorf("failed to delete course: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Course deleted", "course_id", id, "requester_id", requesterID)
	return nil
}

// ===== PUBLISHING =====

func (s *courseService) Publish(ctx context.Context, id uint, requesterID uint) (*models.Course, error) {
	return s.setPublished(ctx, id, requesterID, true)
}

func (s *courseService) Unpublish(ctx context.Context, id uint, requesterID uint) (*models.Course, error) {
	return s.setPublished(ctx, id, requesterID, false)
}

// GetStats returns cached aggregate counts for a course.
func (s *courseService) GetStats(ctx context.Context, id uint) (*CourseStatsResponse, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	stats, err := s.repo.Course().GetStats(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get course stats: %w", err)
	}

	return &CourseStatsResponse{
		CourseID:        id,
		EnrollmentCount: stats.EnrollmentCount,
		CompletedCount:  stats.CompletedCount,
		LessonCount:     stats.LessonCount,
	}, nil
}

func (s *courseService) setPublished(ctx context.Context, id uint, requesterID uint, published bool) (*models.Course, error) {
	course, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	action := "unpublish"
	if published {
		action = "publish"
	}
	if err := s.requireCourseManager(ctx, course, requesterID, action); err != nil {
		return nil, err
	}

	if course.IsPublished == published {
		return course, nil
	}

	if err := s.repo.Course().SetPublished(ctx, nil, id, published); err != nil {
		return nil, fmt.Errorf("failed to %s course: %w", action, err)
	}
	course.IsPublished = published

	if published {
		event := events.NewEvent(events.TypeCoursePublished, events.CoursePublishedEvent{
			CourseID:       course.ID,
			OrganizationID: course.OrganizationID,
			Slug:           course.Slug,
			Title:          course.Title,
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("Failed to publish course.published event", "course_id", course.ID, "error", err)
		}
	}

	s.logger.Info("Course publish state changed", "course_id", id, "published", published)
	return course, nil
}

// ===== INSTRUCTOR MANAGEMENT =====

// AddInstructor requires the target to already hold a staff-capable role in
// the course's organization.
func (s *courseService) AddInstructor(ctx context.Context, courseID uint, req *AddInstructorRequest, requesterID uint) (*models.CourseInstructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	course, err := s.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if err := s.requireCourseManager(ctx, course, requesterID, "add_instructor"); err != nil {
		return nil, err
	}

	targetRole, err := s.repo.OrganizationMember().GetRole(ctx, nil, course.OrganizationID, req.UserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewPermissionError(req.UserID, courseID, "course", "add_instructor", "user is not a member of the course's organization")
		}
		return nil, fmt.Errorf("failed to get member role: %w", err)
	}
	if !isCourseManagerRole(targetRole) {
		return nil, NewPermissionError(req.UserID, courseID, "course", "add_instructor", fmt.Sprintf("org role %s cannot teach", targetRole))
	}

	instructor := &models.CourseInstructor{
		CourseID: courseID,
		UserID:   req.UserID,
		Role:     models.InstructorRoleCo,
	}
	if req.Role != nil {
		instructor.Role = models.InstructorRole(*req.Role)
	}

	if err := s.repo.CourseInstructor().Create(ctx, nil, instructor); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrAlreadyInstructor
		}
		return nil, fmt.Errorf("failed to add instructor: %w", err)
	}

	s.logger.Info("Instructor added", "course_id", courseID, "user_id", req.UserID, "role", instructor.Role)
	return instructor, nil
}

func (s *courseService) ListInstructors(ctx context.Context, courseID uint) ([]*models.CourseInstructor, error) {
	if _, err := s.GetByID(ctx, courseID); err != nil {
		return nil, err
	}

	instructors, err := s.repo.CourseInstructor().ListByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list instructors: %w", err)
	}
	return instructors, nil
}

func (s *courseService) UpdateInstructorRole(ctx context.Context, courseID, userID uint, req *UpdateInstructorRoleRequest, requesterID uint) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	course, err := s.GetByID(ctx, courseID)
	if err != nil {
		return err
	}

	if err := s.requireCourseManager(ctx, course, requesterID, "update_instructor_role"); err != nil {
		return err
	}

	if err := s.repo.CourseInstructor().UpdateRole(ctx, nil, courseID, userID, models.InstructorRole(req.Role)); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrInstructorNotFound
		}
		return fmt.Errorf("failed to update instructor role: %w", err)
	}
	return nil
}

func (s *courseService) RemoveInstructor(ctx context.Context, courseID, userID uint, requesterID uint) error {
	course, err := s.GetByID(ctx, courseID)
	if err != nil {
		return err
	}

	if err := s.requireCourseManager(ctx, course, requesterID, "remove_instructor"); err != nil {
		return err
	}

	if err := s.repo.CourseInstructor().Delete(ctx, nil, courseID, userID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrInstructorNotFound
		}
		return fmt.Errorf("failed to remove instructor: %w", err)
	}

	s.logger.Info("Instructor removed", "course_id", courseID, "user_id", userID, "requester_id", requesterID)
	return nil
}

// ===== PERMISSION HELPERS =====

func isCourseManagerRole(role models.OrgMemberRole) bool {
	for _, allowed := range courseManagerRoles {
		if role == allowed {
			return true
		}
	}
	return false
}

// requireCourseManager allows course instructors, org managers and global admins.
func (s *courseService) requireCourseManager(ctx context.Context, course *models.Course, requesterID uint, action string) error {
	requester, err := s.repo.User().GetByID(ctx, nil, requesterID)
	if err == nil && requester.Role == models.RoleAdmin {
		return nil
	}

	onStaff, err := s.repo.CourseInstructor().Exists(ctx, nil, course.ID, requesterID)
	if err != nil {
		return fmt.Errorf("failed to check course staff: %w", err)
	}
	if onStaff {
		return nil
	}

	role, err := s.repo.OrganizationMember().GetRole(ctx, nil, course.OrganizationID, requesterID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewPermissionError(requesterID, course.ID, "course", action, "not on course staff or organization")
		}
		return fmt.Errorf("failed to get member role: %w", err)
	}
	if role == models.OrgRoleOwner || role == models.OrgRoleAdmin {
		return nil
	}
	return NewPermissionError(requesterID, course.ID, "course", action, fmt.Sprintf("org role %s cannot manage courses", role))
}

// requireOrgRole mirrors the organization service check for course creation.
func (s *courseService) requireOrgRole(ctx context.Context, orgID, requesterID uint, action string, roles ...models.OrgMemberRole) error {
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
