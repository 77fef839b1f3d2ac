package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a cache pattern, logging failures
// instead of propagating them.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes cache keys, logging failures instead of propagating.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateTeacherCache drops everything cached for one teacher.
func InvalidateTeacherCache(ctx context.Context, cm *CacheManager, teacherID uint) {
	SafeDelete(ctx, cm.Teacher, fmt.Sprintf("id:%d", teacherID))
	SafeDelete(ctx, cm.Exists, fmt.Sprintf("teacher:%d", teacherID))
	SafeInvalidatePattern(ctx, cm.Teacher, "list:*")
}

// InvalidateProjectCache drops everything cached for one project.
func InvalidateProjectCache(ctx context.Context, cm *CacheManager, projectID uint) {
	SafeDelete(ctx, cm.Project, fmt.Sprintf("id:%d", projectID))
	SafeDelete(ctx, cm.Exists, fmt.Sprintf("project:%d", projectID))
	SafeInvalidatePattern(ctx, cm.Project, "list:*")
	SafeInvalidatePattern(ctx, cm.Observation, fmt.Sprintf("project:%d:*", projectID))
}

// InvalidateObservationCache drops a single observation and its project's
// observation listings.
func InvalidateObservationCache(ctx context.Context, cm *CacheManager, observationID, projectID uint) {
	SafeDelete(ctx, cm.Observation, fmt.Sprintf("id:%d", observationID))
	SafeInvalidatePattern(ctx, cm.Observation, fmt.Sprintf("project:%d:*", projectID))
}
