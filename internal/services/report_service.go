package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/openlms/course-service/internal/models"
	"github.com/openlms/course-service/internal/repositories"
)

const enrollmentSheetName = "Enrollments"

type reportService struct {
	repo          repositories.Repository
	courseService CourseService
	db            *gorm.DB
	logger        *slog.Logger
}

func NewReportService(repo repositories.Repository, courseService CourseService, db *gorm.DB, logger *slog.Logger) ReportService {
	return &reportService{
		repo:          repo,
		courseService: courseService,
		db:            db,
		logger:        logger,
	}
}

// CourseEnrollmentsWorkbook builds an xlsx with one row per enrollment,
// returned as bytes plus a suggested filename.
func (s *reportService) CourseEnrollmentsWorkbook(ctx context.Context, courseID uint, requesterID uint) ([]byte, string, error) {
	course, err := s.courseService.GetByID(ctx, courseID)
	if err != nil {
		return nil, "", err
	}

	if err := s.requireReportAccess(ctx, course, requesterID); err != nil {
		return nil, "", err
	}

	filters := repositories.EnrollmentFilters{
		CourseID: &courseID,
		Limit:    10000,
	}
	enrollments, _, err := s.repo.Enrollment().List(ctx, nil, filters)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list enrollments: %w", err)
	}

	totalLessons, err := s.repo.Lesson().CountByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to count lessons: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet, err := f.NewSheet(enrollmentSheetName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(sheet)
	f.DeleteSheet("Sheet1")

	headers := []string{"Student Email", "Student Name", "Payment Status", "Enrolled At", "Completed Lessons", "Total Lessons", "Progress %", "Completed At"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(enrollmentSheetName, cell, header)
	}

	for i, enrollment := range enrollments {
		row := i + 2

		user, err := s.repo.User().GetByID(ctx, nil, enrollment.UserID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to get user %d: %w", enrollment.UserID, err)
		}

		completedLessons, err := s.countCompletedLessons(ctx, enrollment.ID)
		if err != nil {
			return nil, "", err
		}

		values := []interface{}{
			user.Email,
			fmt.Sprintf("%s %s", user.FirstName, user.LastName),
			string(enrollment.PaymentStatus),
			enrollment.EnrolledAt.Format(time.RFC3339),
			completedLessons,
			totalLessons,
			enrollment.ProgressPercentage,
			"",
		}
		if enrollment.CompletedAt != nil {
			values[7] = enrollment.CompletedAt.Format(time.RFC3339)
		}

		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(enrollmentSheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}

	filename := fmt.Sprintf("%s-enrollments-%s.xlsx", course.Slug, time.Now().Format("2006-01-02"))
	s.logger.Info("Enrollment report generated", "course_id", courseID, "rows", len(enrollments), "requester_id", requesterID)

	return buf.Bytes(), filename, nil
}

func (s *reportService) countCompletedLessons(ctx context.Context, enrollmentID uint) (int, error) {
	rows, err := s.repo.LessonProgress().ListByEnrollment(ctx, nil, enrollmentID)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, row := range rows {
		if row.Completed {
			completed++
		}
	}
	return completed, nil
}

func (s *reportService) requireReportAccess(ctx context.Context, course *models.Course, requesterID uint) error {
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
	return NewPermissionError(requesterID, course.ID, "report", "export", "not on course staff")
}
