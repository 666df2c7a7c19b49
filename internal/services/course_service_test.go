package services

import (
	"context"
	"errors"
	"testing"

	"github.com/openlms/course-service/internal/events"
	"github.com/openlms/course-service/internal/models"
)

func TestCourseService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@example.com", models.RoleInstructor)
	student := env.createUser(t, "student@example.com", models.RoleStudent)
	org := env.createOrg(t, "Tech Academy", owner.ID)

	if _, err := env.orgs.AddMember(ctx, org.ID, &AddMemberRequest{UserID: student.ID}, owner.ID); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	t.Run("creator becomes primary instructor", func(t *testing.T) {
		course := env.createCourse(t, org.ID, "Intro to Go", owner.ID)

		if course.Slug != "intro-to-go" {
			t.Errorf("Expected slug intro-to-go, got %q", course.Slug)
		}
		if course.Language != "English" {
			t.Errorf("Expected default language English, got %q", course.Language)
		}
		if course.IsPublished {
			t.Error("New courses must start unpublished")
		}

		instructors, err := env.courses.ListInstructors(ctx, course.ID)
		if err != nil {
			t.Fatalf("ListInstructors failed: %v", err)
		}
		if len(instructors) != 1 {
			t.Fatalf("Expected 1 instructor, got %d", len(instructors))
		}
		if instructors[0].UserID != owner.ID || instructors[0].Role != models.InstructorRolePrimary {
			t.Errorf("Expected creator as primary, got user %d role %s", instructors[0].UserID, instructors[0].Role)
		}
	})

	t.Run("org students cannot create courses", func(t *testing.T) {
		_, err := env.courses.Create(ctx, &CourseCreateRequest{
			OrganizationID: org.ID,
			Title:          "Unauthorized Course",
		}, student.ID)
		var permErr *PermissionError
		if !errors.As(err, &permErr) {
			t.Errorf("Expected PermissionError, got %v", err)
		}
	})

	t.Run("unknown organization", func(t *testing.T) {
		_, err := env.courses.Create(ctx, &CourseCreateRequest{
			OrganizationID: 9999,
			Title:          "Orphan Course",
		}, owner.ID)
		if !errors.Is(err, ErrOrganizationNotFound) {
			t.Errorf("Expected ErrOrganizationNotFound, got %v", err)
		}
	})
}

// Course slugs are probed with numeric suffixes instead of conflicting.
func TestCourseService_SlugProbing(t *testing.T) {
	env := newTestEnv(t)

	owner := env.createUser(t, "owner@example.com", models.RoleInstructor)
	org := env.createOrg(t, "Tech Academy", owner.ID)

	first := env.createCourse(t, org.ID, "Go Basics", owner.ID)
	second := env.createCourse(t, org.ID, "Go Basics", owner.ID)
	third := env.createCourse(t, org.ID, "Go Basics", owner.ID)

	if first.Slug != "go-basics" {
		t.Errorf("Expected go-basics, got %q", first.Slug)
	}
	if second.Slug != "go-basics-1" {
		t.Errorf("Expected go-basics-1, got %q", second.Slug)
	}
	if third.Slug != "go-basics-2" {
		t.Errorf("Expected go-basics-2, got %q", third.Slug)
	}

	t.Run("rename keeps own slug without suffix", func(t *testing.T) {
		title := "Go Basics"
		updated, err := env.courses.Update(context.Background(), first.ID, &CourseUpdateRequest{Title: &title}, owner.ID)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.Slug != "go-basics" {
			t.Errorf("Expected slug unchanged, got %q", updated.Slug)
		}
	})
}

func TestCourseService_Publish(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@example.com", models.RoleInstructor)
	org := env.createOrg(t, "Tech Academy", owner.ID)
	course := env.createCourse(t, org.ID, "Hidden Gem", owner.ID)

	t.Run("unpublished courses are invisible by slug", func(t *testing.T) {
		if _, err := env.courses.GetBySlug(ctx, course.Slug); !errors.Is(err, ErrCourseNotFound) {
			t.Errorf("Expected ErrCourseNotFound for unpublished course, got %v", err)
		}
	})

	t.Run("publish emits one event", func(t *testing.T) {
		env.publisher.ClearEvents()

		published, err := env.courses.Publish(ctx, course.ID, owner.ID)
		if err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
		if !published.IsPublished {
			t.Error("Expected course to be published")
		}

		// Publishing an already-published course is a no-op
		if _, err := env.courses.Publish(ctx, course.ID, owner.ID); err != nil {
			t.Fatalf("Second publish failed: %v", err)
		}

		got := env.eventsOfType(events.TypeCoursePublished)
		if len(got) != 1 {
			t.Fatalf("Expected exactly 1 course.published event, got %d", len(got))
		}
		if got[0].Source != "course-service" {
			t.Errorf("Expected source course-service, got %q", got[0].Source)
		}
	})

	t.Run("published course resolves by slug", func(t *testing.T) {
		found, err := env.courses.GetBySlug(ctx, course.Slug)
		if err != nil {
			t.Fatalf("GetBySlug failed: %v", err)
		}
		if found.ID != course.ID {
			t.Errorf("Expected course %d, got %d", course.ID, found.ID)
		}
	})

	t.Run("unpublish hides it again", func(t *testing.T) {
		if _, err := env.courses.Unpublish(ctx, course.ID, owner.ID); err != nil {
			t.Fatalf("Unpublish failed: %v", err)
		}
		if _, err := env.courses.GetBySlug(ctx, course.Slug); !errors.Is(err, ErrCourseNotFound) {
			t.Errorf("Expected ErrCourseNotFound after unpublish, got %v", err)
		}
	})
}

func TestCourseService_Instructors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@example.com", models.RoleInstructor)
	teacher := env.createUser(t, "teacher@example.com", models.RoleInstructor)
	student := env.createUser(t, "student@example.com", models.RoleStudent)
	org := env.createOrg(t, "Tech Academy", owner.ID)
	course := env.createCourse(t, org.ID, "Staffed Course", owner.ID)

	instructorRole := "instructor"
	if _, err := env.orgs.AddMember(ctx, org.ID, &AddMemberRequest{UserID: teacher.ID, Role: &instructorRole}, owner.ID); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if _, err := env.orgs.AddMember(ctx, org.ID, &AddMemberRequest{UserID: student.ID}, owner.ID); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	t.Run("org instructor joins as co-instructor", func(t *testing.T) {
		added, err := env.courses.AddInstructor(ctx, course.ID, &AddInstructorRequest{UserID: teacher.ID}, owner.ID)
		if err != nil {
			t.Fatalf("AddInstructor failed: %v", err)
		}
		if added.Role != models.InstructorRoleCo {
			t.Errorf("Expected default role co_instructor, got %s", added.Role)
		}
	})

	t.Run("adding twice conflicts", func(t *testing.T) {
		_, err := env.courses.AddInstructor(ctx, course.ID, &AddInstructorRequest{UserID: teacher.ID}, owner.ID)
		if !errors.Is(err, ErrAlreadyInstructor) {
			t.Errorf("Expected ErrAlreadyInstructor, got %v", err)
		}
	})

	t.Run("org students cannot teach", func(t *testing.T) {
		_, err := env.courses.AddInstructor(ctx, course.ID, &AddInstructorRequest{UserID: student.ID}, owner.ID)
		var permErr *PermissionError
		if !errors.As(err, &permErr) {
			t.Errorf("Expected PermissionError, got %v", err)
		}
	})

	t.Run("remove unknown instructor", func(t *testing.T) {
		err := env.courses.RemoveInstructor(ctx, course.ID, student.ID, owner.ID)
		if !errors.Is(err, ErrInstructorNotFound) {
			t.Errorf("Expected ErrInstructorNotFound, got %v", err)
		}
	})
}

func TestCourseService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@example.com", models.RoleInstructor)
	learner := env.createUser(t, "learner@example.com", models.RoleStudent)
	org := env.createOrg(t, "Tech Academy", owner.ID)
	course := env.createCourse(t, org.ID, "Short Lived", owner.ID)
	lesson := env.createLesson(t, course.ID, "Only Lesson", 0, owner.ID)

	if _, err := env.enrollments.Enroll(ctx, learner.ID, &EnrollmentCreateRequest{CourseID: course.ID}); err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	if _, err := env.enrollments.UpdateProgress(ctx, learner.ID, &ProgressUpdateRequest{LessonID: lesson.ID, WatchedPercentage: 40}); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}

	if err := env.courses.Delete(ctx, course.ID, owner.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := env.courses.GetByID(ctx, course.ID); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("Expected ErrCourseNotFound, got %v", err)
	}

	for table, model := range map[string]interface{}{
		"lessons":            &models.Lesson{},
		"enrollments":        &models.Enrollment{},
		"course_instructors": &models.CourseInstructor{},
	} {
		var count int64
		env.db.Model(model).Where("course_id = ?", course.ID).Count(&count)
		if count != 0 {
			t.Errorf("Expected %s rows to be removed, found %d", table, count)
		}
	}

	var progressCount int64
	env.db.Model(&models.LessonProgress{}).Where("lesson_id = ?", lesson.ID).Count(&progressCount)
	if progressCount != 0 {
		t.Errorf("Expected progress rows to be removed, found %d", progressCount)
	}
}

func TestCourseService_GetStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@example.com", models.RoleInstructor)
	finisher := env.createUser(t, "finisher@example.com", models.RoleStudent)
	starter := env.createUser(t, "starter@example.com", models.RoleStudent)
	org := env.createOrg(t, "Tech Academy", owner.ID)
	course := env.createCourse(t, org.ID, "Counted Course", owner.ID)
	lesson1 := env.createLesson(t, course.ID, "One", 0, owner.ID)
	lesson2 := env.createLesson(t, course.ID, "Two", 1, owner.ID)

	for _, u := range []*models.User{finisher, starter} {
		if _, err := env.enrollments.Enroll(ctx, u.ID, &EnrollmentCreateRequest{CourseID: course.ID}); err != nil {
			t.Fatalf("Enroll failed: %v", err)
		}
	}
	for _, l := range []*models.Lesson{lesson1, lesson2} {
		if _, err := env.enrollments.UpdateProgress(ctx, finisher.ID, &ProgressUpdateRequest{
			LessonID:          l.ID,
			WatchedPercentage: 100,
			Completed:         true,
		}); err != nil {
			t.Fatalf("UpdateProgress failed: %v", err)
		}
	}

	stats, err := env.courses.GetStats(ctx, course.ID)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.EnrollmentCount != 2 {
		t.Errorf("Expected 2 enrollments, got %d", stats.EnrollmentCount)
	}
	if stats.CompletedCount != 1 {
		t.Errorf("Expected 1 completed enrollment, got %d", stats.CompletedCount)
	}
	if stats.LessonCount != 2 {
		t.Errorf("Expected 2 lessons, got %d", stats.LessonCount)
	}

	if _, err := env.courses.GetStats(ctx, 9999); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("Expected ErrCourseNotFound, got %v", err)
	}
}
