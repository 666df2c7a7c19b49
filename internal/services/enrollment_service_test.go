package services

import (
	"context"
	"errors"
	"testing"

	"github.com/openlms/course-service/internal/events"
	"github.com/openlms/course-service/internal/models"
)

func TestEnrollmentService_Enroll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@example.com", models.RoleInstructor)
	learner := env.createUser(t, "learner@example.com", models.RoleStudent)
	org := env.createOrg(t, "Tech Academy", owner.ID)
	course := env.createCourse(t, org.ID, "Open Course", owner.ID)

	t.Run("successful enrollment emits an event", func(t *testing.T) {
		env.publisher.ClearEvents()

		enrollment, err := env.enrollments.Enroll(ctx, learner.ID, &EnrollmentCreateRequest{CourseID: course.ID})
		if err != nil {
			t.Fatalf("Enroll failed: %v", err)
		}
		if enrollment.PaymentStatus != models.PaymentFree {
			t.Errorf("Expected default payment status free, got %s", enrollment.PaymentStatus)
		}
		if enrollment.ProgressPercentage != 0 {
			t.Errorf("Expected 0%% progress, got %f", enrollment.ProgressPercentage)
		}

		got := env.eventsOfType(events.TypeEnrollmentCreated)
		if len(got) != 1 {
			t.Fatalf("Expected 1 enrollment.created event, got %d", len(got))
		}
	})

	t.Run("double enrollment conflicts", func(t *testing.T) {
		_, err := env.enrollments.Enroll(ctx, learner.ID, &EnrollmentCreateRequest{CourseID: course.ID})
		if !errors.Is(err, ErrAlreadyEnrolled) {
			t.Errorf("Expected ErrAlreadyEnrolled, got %v", err)
		}
	})

	t.Run("unknown course", func(t *testing.T) {
		_, err := env.enrollments.Enroll(ctx, learner.ID, &EnrollmentCreateRequest{CourseID: 9999})
		if !errors.Is(err, ErrCourseNotFound) {
			t.Errorf("Expected ErrCourseNotFound, got %v", err)
		}
	})
}

func TestEnrollmentService_Access(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@example.com", models.RoleInstructor)
	learner := env.createUser(t, "learner@example.com", models.RoleStudent)
	stranger := env.createUser(t, "stranger@example.com", models.RoleStudent)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	org := env.createOrg(t, "Tech Academy", owner.ID)
	course := env.createCourse(t, org.ID, "Private Progress", owner.ID)

	enrollment, err := env.enrollments.Enroll(ctx, learner.ID, &EnrollmentCreateRequest{CourseID: course.ID})
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}

	for _, tc := range []struct {
		name      string
		requester uint
		allowed   bool
	}{
		{name: "enrolled user", requester: learner.ID, allowed: true},
		{name: "course staff", requester: owner.ID, allowed: true},
		{name: "admin", requester: admin.ID, allowed: true},
		{name: "stranger", requester: stranger.ID, allowed: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.enrollments.GetByID(ctx, enrollment.ID, tc.requester)
			if tc.allowed && err != nil {
				t.Errorf("Expected access, got %v", err)
			}
			if !tc.allowed {
				var permErr *PermissionError
				if !errors.As(err, &permErr) {
					t.Errorf("Expected PermissionError, got %v", err)
				}
			}
		})
	}
}

func TestEnrollmentService_Progress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@example.com", models.RoleInstructor)
	learner := env.createUser(t, "learner@example.com", models.RoleStudent)
	org := env.createOrg(t, "Tech Academy", owner.ID)
	course := env.createCourse(t, org.ID, "Two Lesson Course", owner.ID)
	lesson1 := env.createLesson(t, course.ID, "Lesson One", 0, owner.ID)
	lesson2 := env.createLesson(t, course.ID, "Lesson Two", 1, owner.ID)

	enrollment, err := env.enrollments.Enroll(ctx, learner.ID, &EnrollmentCreateRequest{CourseID: course.ID})
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	env.publisher.ClearEvents()

	t.Run("not enrolled", func(t *testing.T) {
		_, err := env.enrollments.UpdateProgress(ctx, owner.ID, &ProgressUpdateRequest{LessonID: lesson1.ID, Completed: true})
		if !errors.Is(err, ErrNotEnrolled) {
			t.Errorf("Expected ErrNotEnrolled, got %v", err)
		}
	})

	t.Run("one of two lessons is 50 percent", func(t *testing.T) {
		progress, err := env.enrollments.UpdateProgress(ctx, learner.ID, &ProgressUpdateRequest{
			LessonID:          lesson1.ID,
			WatchedPercentage: 100,
			Completed:         true,
		})
		if err != nil {
			t.Fatalf("UpdateProgress failed: %v", err)
		}
		if !progress.Completed {
			t.Error("Expected lesson marked complete")
		}
		if progress.LastWatchedAt == nil {
			t.Error("Expected last_watched_at to be stamped")
		}

		refreshed, err := env.enrollments.GetByID(ctx, enrollment.ID, learner.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if refreshed.ProgressPercentage != 50 {
			t.Errorf("Expected 50%%, got %f", refreshed.ProgressPercentage)
		}
		if refreshed.CompletedAt != nil {
			t.Error("Enrollment must not be completed at 50%")
		}
		if got := env.eventsOfType(events.TypeEnrollmentCompleted); len(got) != 0 {
			t.Errorf("Expected no completion event yet, got %d", len(got))
		}
	})

	t.Run("completing everything stamps the enrollment once", func(t *testing.T) {
		if _, err := env.enrollments.UpdateProgress(ctx, learner.ID, &ProgressUpdateRequest{
			LessonID:          lesson2.ID,
			WatchedPercentage: 100,
			Completed:         true,
		}); err != nil {
			t.Fatalf("UpdateProgress failed: %v", err)
		}

		refreshed, err := env.enrollments.GetByID(ctx, enrollment.ID, learner.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if refreshed.ProgressPercentage != 100 {
			t.Errorf("Expected 100%%, got %f", refreshed.ProgressPercentage)
		}
		if refreshed.CompletedAt == nil {
			t.Fatal("Expected completed_at to be set")
		}
		completedAt := *refreshed.CompletedAt

		// Re-watching a completed lesson must not move completed_at or
		// emit a second completion event.
		if _, err := env.enrollments.UpdateProgress(ctx, learner.ID, &ProgressUpdateRequest{
			LessonID:          lesson1.ID,
			WatchedPercentage: 100,
			Completed:         true,
		}); err != nil {
			t.Fatalf("UpdateProgress failed: %v", err)
		}

		refreshed, err = env.enrollments.GetByID(ctx, enrollment.ID, learner.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if refreshed.CompletedAt == nil || !refreshed.CompletedAt.Equal(completedAt) {
			t.Error("Expected completed_at to be preserved on repeat updates")
		}

		if got := env.eventsOfType(events.TypeEnrollmentCompleted); len(got) != 1 {
			t.Errorf("Expected exactly 1 enrollment.completed event, got %d", len(got))
		}
	})
}

func TestEnrollmentService_GetCourseProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@example.com", models.RoleInstructor)
	learner := env.createUser(t, "learner@example.com", models.RoleStudent)
	org := env.createOrg(t, "Tech Academy", owner.ID)

	t.Run("empty course reports zero percent", func(t *testing.T) {
		empty := env.createCourse(t, org.ID, "Empty Course", owner.ID)
		if _, err := env.enrollments.Enroll(ctx, learner.ID, &EnrollmentCreateRequest{CourseID: empty.ID}); err != nil {
			t.Fatalf("Enroll failed: %v", err)
		}

		progress, err := env.enrollments.GetCourseProgress(ctx, learner.ID, empty.ID)
		if err != nil {
			t.Fatalf("GetCourseProgress failed: %v", err)
		}
		if progress.OverallPercentage != 0 || progress.TotalLessons != 0 {
			t.Errorf("Expected empty progress, got %+v", progress)
		}
	})

	t.Run("lessons without progress rows still appear", func(t *testing.T) {
		course := env.createCourse(t, org.ID, "Partial Course", owner.ID)
		lesson1 := env.createLesson(t, course.ID, "Watched", 0, owner.ID)
		env.createLesson(t, course.ID, "Untouched", 1, owner.ID)

		if _, err := env.enrollments.Enroll(ctx, learner.ID, &EnrollmentCreateRequest{CourseID: course.ID}); err != nil {
			t.Fatalf("Enroll failed: %v", err)
		}
		if _, err := env.enrollments.UpdateProgress(ctx, learner.ID, &ProgressUpdateRequest{
			LessonID:          lesson1.ID,
			WatchedPercentage: 100,
			Completed:         true,
		}); err != nil {
			t.Fatalf("UpdateProgress failed: %v", err)
		}

		progress, err := env.enrollments.GetCourseProgress(ctx, learner.ID, course.ID)
		if err != nil {
			t.Fatalf("GetCourseProgress failed: %v", err)
		}
		if progress.TotalLessons != 2 || progress.CompletedLessons != 1 {
			t.Errorf("Expected 1/2 lessons complete, got %d/%d", progress.CompletedLessons, progress.TotalLessons)
		}
		if progress.OverallPercentage != 50 {
			t.Errorf("Expected 50%%, got %f", progress.OverallPercentage)
		}
		if len(progress.Lessons) != 2 {
			t.Fatalf("Expected 2 lesson items, got %d", len(progress.Lessons))
		}
		if progress.Lessons[1].Completed || progress.Lessons[1].WatchedPercentage != 0 {
			t.Error("Untouched lesson must report empty progress")
		}
	})

	t.Run("requires enrollment", func(t *testing.T) {
		course := env.createCourse(t, org.ID, "Locked Course", owner.ID)
		_, err := env.enrollments.GetCourseProgress(ctx, learner.ID, course.ID)
		if !errors.Is(err, ErrNotEnrolled) {
			t.Errorf("Expected ErrNotEnrolled, got %v", err)
		}
	})
}

func TestEnrollmentService_Unenroll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@example.com", models.RoleInstructor)
	learner := env.createUser(t, "learner@example.com", models.RoleStudent)
	org := env.createOrg(t, "Tech Academy", owner.ID)
	course := env.createCourse(t, org.ID, "Leaving Soon", owner.ID)
	lesson := env.createLesson(t, course.ID, "Lesson", 0, owner.ID)

	enrollment, err := env.enrollments.Enroll(ctx, learner.ID, &EnrollmentCreateRequest{CourseID: course.ID})
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	if _, err := env.enrollments.UpdateProgress(ctx, learner.ID, &ProgressUpdateRequest{
		LessonID:          lesson.ID,
		WatchedPercentage: 30,
	}); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}

	if err := env.enrollments.Unenroll(ctx, enrollment.ID, learner.ID); err != nil {
		t.Fatalf("Unenroll failed: %v", err)
	}

	if _, err := env.enrollments.GetByID(ctx, enrollment.ID, learner.ID); !errors.Is(err, ErrEnrollmentNotFound) {
		t.Errorf("Expected ErrEnrollmentNotFound, got %v", err)
	}

	var count int64
	env.db.Model(&models.LessonProgress{}).Where("enrollment_id = ?", enrollment.ID).Count(&count)
	if count != 0 {
		t.Errorf("Expected progress rows removed, found %d", count)
	}

	t.Run("re-enrollment starts fresh", func(t *testing.T) {
		fresh, err := env.enrollments.Enroll(ctx, learner.ID, &EnrollmentCreateRequest{CourseID: course.ID})
		if err != nil {
			t.Fatalf("Re-enroll failed: %v", err)
		}
		if fresh.ProgressPercentage != 0 || fresh.CompletedAt != nil {
			t.Error("Expected a clean enrollment after re-enrolling")
		}
	})
}

func TestEnrollmentService_ListByCourse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@example.com", models.RoleInstructor)
	stranger := env.createUser(t, "stranger@example.com", models.RoleInstructor)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	learner1 := env.createUser(t, "learner1@example.com", models.RoleStudent)
	learner2 := env.createUser(t, "learner2@example.com", models.RoleStudent)
	org := env.createOrg(t, "Tech Academy", owner.ID)
	course := env.createCourse(t, org.ID, "Rostered Course", owner.ID)

	for _, u := range []*models.User{learner1, learner2} {
		if _, err := env.enrollments.Enroll(ctx, u.ID, &EnrollmentCreateRequest{CourseID: course.ID}); err != nil {
			t.Fatalf("Enroll failed: %v", err)
		}
	}

	t.Run("course staff see the roster", func(t *testing.T) {
		roster, err := env.enrollments.ListByCourse(ctx, course.ID, owner.ID, EnrollmentListFilters{})
		if err != nil {
			t.Fatalf("ListByCourse failed: %v", err)
		}
		if roster.Total != 2 || len(roster.Enrollments) != 2 {
			t.Errorf("Expected 2 enrollments, got total %d len %d", roster.Total, len(roster.Enrollments))
		}
	})

	t.Run("admins see the roster", func(t *testing.T) {
		roster, err := env.enrollments.ListByCourse(ctx, course.ID, admin.ID, EnrollmentListFilters{})
		if err != nil {
			t.Fatalf("ListByCourse failed: %v", err)
		}
		if roster.Total != 2 {
			t.Errorf("Expected 2 enrollments, got %d", roster.Total)
		}
	})

	t.Run("non-staff are rejected", func(t *testing.T) {
		_, err := env.enrollments.ListByCourse(ctx, course.ID, stranger.ID, EnrollmentListFilters{})
		var permErr *PermissionError
		if !errors.As(err, &permErr) {
			t.Errorf("Expected PermissionError, got %v", err)
		}
	})

	t.Run("unknown course", func(t *testing.T) {
		_, err := env.enrollments.ListByCourse(ctx, 9999, owner.ID, EnrollmentListFilters{})
		if !errors.Is(err, ErrCourseNotFound) {
			t.Errorf("Expected ErrCourseNotFound, got %v", err)
		}
	})
}

func TestEnrollmentService_GetWithProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@example.com", models.RoleInstructor)
	learner := env.createUser(t, "learner@example.com", models.RoleStudent)
	org := env.createOrg(t, "Tech Academy", owner.ID)
	course := env.createCourse(t, org.ID, "Tracked Course", owner.ID)
	lesson1 := env.createLesson(t, course.ID, "One", 0, owner.ID)
	env.createLesson(t, course.ID, "Two", 1, owner.ID)

	enrollment, err := env.enrollments.Enroll(ctx, learner.ID, &EnrollmentCreateRequest{CourseID: course.ID})
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	if _, err := env.enrollments.UpdateProgress(ctx, learner.ID, &ProgressUpdateRequest{
		LessonID:          lesson1.ID,
		WatchedPercentage: 100,
		Completed:         true,
	}); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}

	t.Run("enrollment comes with its progress rows", func(t *testing.T) {
		result, err := env.enrollments.GetWithProgress(ctx, learner.ID, course.ID)
		if err != nil {
			t.Fatalf("GetWithProgress failed: %v", err)
		}
		if result.Enrollment.ID != enrollment.ID {
			t.Errorf("Expected enrollment %d, got %d", enrollment.ID, result.Enrollment.ID)
		}
		if result.Enrollment.ProgressPercentage != 50 {
			t.Errorf("Expected 50 percent, got %f", result.Enrollment.ProgressPercentage)
		}
		if len(result.Progress) != 1 {
			t.Fatalf("Expected 1 progress row, got %d", len(result.Progress))
		}
		if result.Progress[0].LessonID != lesson1.ID || !result.Progress[0].Completed {
			t.Errorf("Expected completed row for lesson %d, got %+v", lesson1.ID, result.Progress[0])
		}
	})

	t.Run("not enrolled", func(t *testing.T) {
		_, err := env.enrollments.GetWithProgress(ctx, owner.ID, course.ID)
		if !errors.Is(err, ErrEnrollmentNotFound) {
			t.Errorf("Expected ErrEnrollmentNotFound, got %v", err)
		}
	})
}

func TestEnrollmentService_GetLessonProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@example.com", models.RoleInstructor)
	learner := env.createUser(t, "learner@example.com", models.RoleStudent)
	outsider := env.createUser(t, "outsider@example.com", models.RoleStudent)
	org := env.createOrg(t, "Tech Academy", owner.ID)
	course := env.createCourse(t, org.ID, "Lesson Course", owner.ID)
	watched := env.createLesson(t, course.ID, "Watched", 0, owner.ID)
	untouched := env.createLesson(t, course.ID, "Untouched", 1, owner.ID)

	if _, err := env.enrollments.Enroll(ctx, learner.ID, &EnrollmentCreateRequest{CourseID: course.ID}); err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	if _, err := env.enrollments.UpdateProgress(ctx, learner.ID, &ProgressUpdateRequest{
		LessonID:          watched.ID,
		WatchedPercentage: 75,
	}); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}

	t.Run("returns the recorded row", func(t *testing.T) {
		progress, err := env.enrollments.GetLessonProgress(ctx, learner.ID, watched.ID)
		if err != nil {
			t.Fatalf("GetLessonProgress failed: %v", err)
		}
		if progress.WatchedPercentage != 75 || progress.Completed {
			t.Errorf("Expected 75 percent incomplete, got %+v", progress)
		}
	})

	t.Run("untouched lesson has no row", func(t *testing.T) {
		_, err := env.enrollments.GetLessonProgress(ctx, learner.ID, untouched.ID)
		if !errors.Is(err, ErrProgressNotFound) {
			t.Errorf("Expected ErrProgressNotFound, got %v", err)
		}
	})

	t.Run("not enrolled", func(t *testing.T) {
		_, err := env.enrollments.GetLessonProgress(ctx, outsider.ID, watched.ID)
		if !errors.Is(err, ErrNotEnrolled) {
			t.Errorf("Expected ErrNotEnrolled, got %v", err)
		}
	})

	t.Run("unknown lesson", func(t *testing.T) {
		_, err := env.enrollments.GetLessonProgress(ctx, learner.ID, 9999)
		if !errors.Is(err, ErrLessonNotFound) {
			t.Errorf("Expected ErrLessonNotFound, got %v", err)
		}
	})
}

// Sorting by an unknown column, or by a column another table owns, must fall
// back to the enrollment default instead of producing a broken query.
func TestEnrollmentService_ListSortFallback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@example.com", models.RoleInstructor)
	learner := env.createUser(t, "learner@example.com", models.RoleStudent)
	org := env.createOrg(t, "Tech Academy", owner.ID)
	course := env.createCourse(t, org.ID, "Sorted Course", owner.ID)

	if _, err := env.enrollments.Enroll(ctx, learner.ID, &EnrollmentCreateRequest{CourseID: course.ID}); err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}

	for _, sortBy := range []string{"bogus", "title", "slug; DROP TABLE enrollments"} {
		result, err := env.enrollments.ListByUser(ctx, learner.ID, EnrollmentListFilters{
			ListFilters: ListFilters{SortBy: sortBy},
		})
		if err != nil {
			t.Errorf("ListByUser with sort_by %q failed: %v", sortBy, err)
			continue
		}
		if result.Total != 1 {
			t.Errorf("Expected 1 enrollment with sort_by %q, got %d", sortBy, result.Total)
		}
	}

	result, err := env.enrollments.ListByUser(ctx, learner.ID, EnrollmentListFilters{
		ListFilters: ListFilters{SortBy: "enrolled_at", SortOrder: "asc"},
	})
	if err != nil {
		t.Fatalf("ListByUser with enrolled_at failed: %v", err)
	}
	if result.Total != 1 {
		t.Errorf("Expected 1 enrollment, got %d", result.Total)
	}
}
