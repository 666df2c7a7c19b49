package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openlms/course-service/internal/cache"
	"github.com/openlms/course-service/internal/models"
)

func newRepoTestDB(t *testing.T) (*gorm.DB, *redis.Client) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate schema: %v", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return db, client
}

// A read handed a transaction must come from the store, not from a cache
// entry written before the transaction's own changes.
func TestCoursePostgreSQL_GetSkipsCacheInTransaction(t *testing.T) {
	db, client := newRepoTestDB(t)
	ctx := context.Background()

	repo := NewCoursePostgreSQL(db, client)

	org := &models.Organization{Name: "Tech Academy", Slug: "tech-academy", CreatedByUserID: 1}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("Failed to create organization: %v", err)
	}
	course := &models.Course{
		OrganizationID:  org.ID,
		Title:           "Fresh Title",
		Slug:            "fresh-title",
		Language:        "English",
		CreatedByUserID: 1,
	}
	if err := db.Create(course).Error; err != nil {
		t.Fatalf("Failed to create course: %v", err)
	}

	stale := *course
	stale.Title = "Stale Title"
	helper := cache.NewCacheHelper(client, cache.CourseCacheConfig.Prefix)
	if err := helper.Set(ctx, fmt.Sprintf("id:%d", course.ID), &stale, time.Minute); err != nil {
		t.Fatalf("Failed to seed cache: %v", err)
	}

	t.Run("plain read serves the cached entry", func(t *testing.T) {
		got, err := repo.GetByID(ctx, nil, course.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.Title != "Stale Title" {
			t.Errorf("Expected the cached title, got %q", got.Title)
		}
	})

	t.Run("transactional read bypasses the cache", func(t *testing.T) {
		err := db.Transaction(func(tx *gorm.DB) error {
			got, err := repo.GetByID(ctx, tx, course.ID)
			if err != nil {
				return err
			}
			if got.Title != "Fresh Title" {
				t.Errorf("Expected the stored title, got %q", got.Title)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Transaction failed: %v", err)
		}
	})

	t.Run("transactional slug read bypasses the cache", func(t *testing.T) {
		staleSlug := stale
		if err := helper.Set(ctx, "slug:fresh-title", &staleSlug, time.Minute); err != nil {
			t.Fatalf("Failed to seed cache: %v", err)
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			got, err := repo.GetBySlug(ctx, tx, "fresh-title")
			if err != nil {
				return err
			}
			if got.Title != "Fresh Title" {
				t.Errorf("Expected the stored title, got %q", got.Title)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Transaction failed: %v", err)
		}
	})
}
