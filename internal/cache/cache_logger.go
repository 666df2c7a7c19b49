package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateCourseCache drops every cache entry tied to a course
func InvalidateCourseCache(ctx context.Context, cm *CacheManager, courseID uint, slug string) {
	SafeDelete(ctx, cm.Course,
		fmt.Sprintf("id:%d", courseID),
		fmt.Sprintf("slug:%s", slug))
	SafeInvalidatePattern(ctx, cm.Course, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("course:%d:*", courseID))
}

// InvalidateOrganizationCache drops every cache entry tied to an organization
func InvalidateOrganizationCache(ctx context.Context, cm *CacheManager, orgID uint, slug string) {
	SafeDelete(ctx, cm.Organization,
		fmt.Sprintf("id:%d", orgID),
		fmt.Sprintf("slug:%s", slug))
	SafeInvalidatePattern(ctx, cm.Organization, "list:*")
}

// InvalidateUserCache drops cached user lookups
func InvalidateUserCache(ctx context.Context, cm *CacheManager, userID uint) {
	SafeDelete(ctx, cm.User, fmt.Sprintf("id:%d", userID))
}
