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

type lessonService struct {
	repo          repositories.Repository
	courseService CourseService
	db            *gorm.DB
	logger        *slog.Logger
	validator     *validator.Validator
}

func NewLessonService(repo repositories.Repository, courseService CourseService, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) LessonService {
	return &lessonService{
		repo:          repo,
		courseService: courseService,
		db:            db,
		logger:        logger,
		validator:     validator,
	}
}

func (s *lessonService) Create(ctx context.Context, courseID uint, req *LessonCreateRequest, requesterID uint) (*models.Lesson, error) {
	if errs := s.validator.GetBusinessValidator().ValidateLessonCreate(req); len(errs) > 0 {
		return nil, errs
	}

	course, err := s.courseService.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if err := s.requireStaff(ctx, course, requesterID, "create_lesson"); err != nil {
		return nil, err
	}

	if req.InstructorID != nil {
		if err := s.checkLessonInstructor(ctx, courseID, *req.InstructorID); err != nil {
			return nil, err
		}
	}

	lesson := &models.Lesson{
		CourseID:        courseID,
		Title:           req.Title,
		OrderIndex:      req.OrderIndex,
		ContentType:     models.LessonContentType(req.ContentType),
		VideoURL:        req.VideoURL,
		ContentText:     req.ContentText,
		DurationMinutes: req.DurationMinutes,
		IsFreePreview:   req.IsFreePreview,
		InstructorID:    req.InstructorID,
	}

	if err := s.repo.Lesson().Create(ctx, nil, lesson); err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}

	s.logger.Info("Lesson created", "lesson_id", lesson.ID, "course_id", courseID)
	return lesson, nil
}

func (s *lessonService) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	lesson, err := s.repo.Lesson().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return lesson, nil
}

func (s *lessonService) ListByCourse(ctx context.Context, courseID uint) ([]*models.Lesson, error) {
	if _, err := s.courseService.GetByID(ctx, courseID); err != nil {
		return nil, err
	}

	lessons, err := s.repo.Lesson().ListByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

func (s *lessonService) Update(ctx context.Context, id uint, req *LessonUpdateRequest, requesterID uint) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	lesson, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	course, err := s.courseService.GetByID(ctx, lesson.CourseID)
	if err != nil {
		return nil, err
	}

	if err := s.requireStaff(ctx, course, requesterID, "update_lesson"); err != nil {
		return nil, err
	}

	if req.InstructorID != nil {
		if err := s.checkLessonInstructor(ctx, lesson.CourseID, *req.InstructorID); err != nil {
			return nil, err
		}
		lesson.InstructorID = req.InstructorID
	}
	if req.Title != nil {
		lesson.Title = *req.Title
	}
	if req.OrderIndex != nil {
		lesson.OrderIndex = *req.OrderIndex
	}
	if req.ContentType != nil {
		lesson.ContentType = models.LessonContentType(*req.ContentType)
	}
	if req.VideoURL != nil {
		lesson.VideoURL = req.VideoURL
	}
	if req.ContentText != nil {
		lesson.ContentText = req.ContentText
	}
	if req.DurationMinutes != nil {
		lesson.DurationMinutes = req.DurationMinutes
	}
	if req.IsFreePreview != nil {
		lesson.IsFreePreview = *req.IsFreePreview
	}

	if lesson.ContentType == models.ContentVideo && (lesson.VideoURL == nil || *lesson.VideoURL == "") {
		return nil, validator.ValidationErrors{{
			Field:   "video_url",
			Message: "is required for video lessons",
			Rule:    "business_logic",
		}}
	}

	if err := s.repo.Lesson().Update(ctx, nil, lesson); err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}

	return lesson, nil
}

// Delete removes the lesson and any progress recorded against it in one transaction.
func (s *lessonService) Delete(ctx context.Context, id uint, requesterID uint) error {
	lesson, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	course, err := s.courseService.GetByID(ctx, lesson.CourseID)
	if err != nil {
		return err
	}

	if err := s.requireStaff(ctx, course, requesterID, "delete_lesson"); err != nil {
		return err
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.LessonProgress().DeleteByLesson(ctx, nil, id); err != nil {
			return err
		}
		if err := txRepo.Lesson().Delete(ctx, nil, id); err != nil {
			return fmt.Errorf("failed to delete lesson: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Lesson deleted", "lesson_id", id, "course_id", lesson.CourseID, "requester_id", requesterID)
	return nil
}

// checkLessonInstructor enforces that a per-lesson instructor is on the course staff.
func (s *lessonService) checkLessonInstructor(ctx context.Context, courseID, instructorID uint) error {
	onStaff, err := s.repo.CourseInstructor().Exists(ctx, nil, courseID, instructorID)
	if err != nil {
		return fmt.Errorf("failed to check course staff: %w", err)
	}
	if !onStaff {
		return ErrInstructorNotOnCourse
	}
	return nil
}

func (s *lessonService) requireStaff(ctx context.Context, course *models.Course, requesterID uint, action string) error {
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
	if err == nil && (role == models.OrgRoleOwner || role == models.OrgRoleAdmin) {
		return nil
	}
	return NewPermissionError(requesterID, course.ID, "lesson", action, "not on course staff")
}
