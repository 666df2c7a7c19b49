package services

import (
	"context"
	"errors"
	"testing"

	"github.com/openlms/course-service/internal/models"
	"github.com/openlms/course-service/internal/validator"
)

func TestLessonService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@example.com", models.RoleInstructor)
	student := env.createUser(t, "student@example.com", models.RoleStudent)
	outsider := env.createUser(t, "outsider@example.com", models.RoleInstructor)
	org := env.createOrg(t, "Tech Academy", owner.ID)
	course := env.createCourse(t, org.ID, "Lesson Host", owner.ID)

	if _, err := env.orgs.AddMember(ctx, org.ID, &AddMemberRequest{UserID: student.ID}, owner.ID); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	t.Run("staff can add lessons", func(t *testing.T) {
		url := "https://videos.example.com/intro.mp4"
		lesson, err := env.lessons.Create(ctx, course.ID, &LessonCreateRequest{
			Title:       "Intro",
			OrderIndex:  0,
			ContentType: "video",
			VideoURL:    &url,
		}, owner.ID)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if lesson.ContentType != models.ContentVideo {
			t.Errorf("Expected video content type, got %s", lesson.ContentType)
		}
	})

	t.Run("video lessons need a video url", func(t *testing.T) {
		_, err := env.lessons.Create(ctx, course.ID, &LessonCreateRequest{
			Title:       "Broken Video",
			OrderIndex:  1,
			ContentType: "video",
		}, owner.ID)
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			t.Fatalf("Expected ValidationErrors, got %v", err)
		}
	})

	t.Run("non-staff cannot add lessons", func(t *testing.T) {
		_, err := env.lessons.Create(ctx, course.ID, &LessonCreateRequest{
			Title:       "Nope",
			OrderIndex:  2,
			ContentType: "text",
		}, outsider.ID)
		var permErr *PermissionError
		if !errors.As(err, &permErr) {
			t.Errorf("Expected PermissionError, got %v", err)
		}
	})

	t.Run("lesson instructor must be on course staff", func(t *testing.T) {
		_, err := env.lessons.Create(ctx, course.ID, &LessonCreateRequest{
			Title:        "Guest Lecture",
			OrderIndex:   3,
			ContentType:  "live",
			InstructorID: &student.ID,
		}, owner.ID)
		if !errors.Is(err, ErrInstructorNotOnCourse) {
			t.Errorf("Expected ErrInstructorNotOnCourse, got %v", err)
		}
	})
}

func TestLessonService_ListByCourse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@example.com", models.RoleInstructor)
	org := env.createOrg(t, "Tech Academy", owner.ID)
	course := env.createCourse(t, org.ID, "Ordered Course", owner.ID)

	// Insert out of order, list must come back ordered
	env.createLesson(t, course.ID, "Third", 2, owner.ID)
	env.createLesson(t, course.ID, "First", 0, owner.ID)
	env.createLesson(t, course.ID, "Second", 1, owner.ID)

	lessons, err := env.lessons.ListByCourse(ctx, course.ID)
	if err != nil {
		t.Fatalf("ListByCourse failed: %v", err)
	}
	if len(lessons) != 3 {
		t.Fatalf("Expected 3 lessons, got %d", len(lessons))
	}
	for i, want := range []string{"First", "Second", "Third"} {
		if lessons[i].Title != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, lessons[i].Title)
		}
	}
}

func TestLessonService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@example.com", models.RoleInstructor)
	org := env.createOrg(t, "Tech Academy", owner.ID)
	course := env.createCourse(t, org.ID, "Editable Course", owner.ID)
	lesson := env.createLesson(t, course.ID, "Draft", 0, owner.ID)

	t.Run("cannot switch to video without a url", func(t *testing.T) {
		contentType := "video"
		_, err := env.lessons.Update(ctx, lesson.ID, &LessonUpdateRequest{ContentType: &contentType}, owner.ID)
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			t.Errorf("Expected ValidationErrors, got %v", err)
		}
	})

	t.Run("title change persists", func(t *testing.T) {
		title := "Final"
		updated, err := env.lessons.Update(ctx, lesson.ID, &LessonUpdateRequest{Title: &title}, owner.ID)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.Title != "Final" {
			t.Errorf("Expected updated title, got %q", updated.Title)
		}
	})
}

func TestLessonService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@example.com", models.RoleInstructor)
	learner := env.createUser(t, "learner@example.com", models.RoleStudent)
	org := env.createOrg(t, "Tech Academy", owner.ID)
	course := env.createCourse(t, org.ID, "Shrinking Course", owner.ID)
	lesson1 := env.createLesson(t, course.ID, "Keep", 0, owner.ID)
	lesson2 := env.createLesson(t, course.ID, "Drop", 1, owner.ID)

	enrollment, err := env.enrollments.Enroll(ctx, learner.ID, &EnrollmentCreateRequest{CourseID: course.ID})
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	if _, err := env.enrollments.UpdateProgress(ctx, learner.ID, &ProgressUpdateRequest{
		LessonID:          lesson2.ID,
		WatchedPercentage: 80,
	}); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}

	if err := env.lessons.Delete(ctx, lesson2.ID, owner.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := env.lessons.GetByID(ctx, lesson2.ID); !errors.Is(err, ErrLessonNotFound) {
		t.Errorf("Expected ErrLessonNotFound, got %v", err)
	}
	if _, err := env.lessons.GetByID(ctx, lesson1.ID); err != nil {
		t.Errorf("Sibling lesson must survive: %v", err)
	}

	var count int64
	env.db.Model(&models.LessonProgress{}).Where("enrollment_id = ?", enrollment.ID).Count(&count)
	if count != 0 {
		t.Errorf("Expected progress rows removed with the lesson, found %d", count)
	}
}
