package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-planner-api/internal/models"
	"github.com/noah-isme/course-planner-api/pkg/cache"
)

// CacheRepository abstracts persistence for cached catalog payloads.
type CacheRepository interface {
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)
	SetMany(ctx context.Context, entries map[string]interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService keeps read-through copies of catalog courses keyed by term and course id.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// CourseKey is the cache key of one course offering in a term.
func CourseKey(termID, courseID string) string {
	return cache.Key("catalog", termID, courseID)
}

// LookupCourses returns the cached courses and the ids that still need loading, in request order.
// Cache failures are logged and reported as misses.
func (s *CacheService) LookupCourses(ctx context.Context, termID string, courseIDs []string) (map[string]models.Course, []string) {
	found := make(map[string]models.Course, len(courseIDs))
	if !s.Enabled() {
		return found, append([]string(nil), courseIDs...)
	}

	keys := make([]string, len(courseIDs))
	for i, id := range courseIDs {
		keys[i] = CourseKey(termID, id)
	}

	start := time.Now()
	raw, err := s.repo.GetMany(ctx, keys)
	if err != nil {
		s.logger.Warn("catalog cache lookup failed", zap.String("term", termID), zap.Error(err))
		s.metrics.RecordCacheLookup(0, len(courseIDs), time.Since(start))
		return found, append([]string(nil), courseIDs...)
	}

	var missing []string
	for i, id := range courseIDs {
		payload, ok := raw[keys[i]]
		if !ok {
			missing = append(missing, id)
			continue
		}
		var course models.Course
		if err := json.Unmarshal(payload, &course); err != nil {
			s.logger.Warn("discarding undecodable catalog entry", zap.String("key", keys[i]), zap.Error(err))
			missing = append(missing, id)
			continue
		}
		found[id] = course
	}
	s.metrics.RecordCacheLookup(len(found), len(missing), time.Since(start))
	return found, missing
}

// StoreCourses writes courses under their term keys.
func (s *CacheService) StoreCourses(ctx context.Context, termID string, courses []models.Course) error {
	if !s.Enabled() || len(courses) == 0 {
		return nil
	}
	entries := make(map[string]interface{}, len(courses))
	for _, c := range courses {
		entries[CourseKey(termID, c.ID)] = c
	}

	start := time.Now()
	err := s.repo.SetMany(ctx, entries, s.defaultTTL)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("catalog cache write failed", zap.String("term", termID), zap.Error(err))
	}
	return err
}

// InvalidateTerm drops every cached course of a term.
func (s *CacheService) InvalidateTerm(ctx context.Context, termID string) error {
	if !s.Enabled() {
		return nil
	}
	pattern := CourseKey(termID, "*")
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}
