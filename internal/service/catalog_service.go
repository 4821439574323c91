package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-planner-api/internal/models"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
	"github.com/noah-isme/course-planner-api/pkg/jobs"
)

// JobTypeCacheFill identifies catalog cache fill jobs.
const JobTypeCacheFill = "catalog.cache_fill"

type catalogRepository interface {
	FindCourses(ctx context.Context, termID string, courseIDs []string) ([]models.Course, error)
}

type jobEnqueuer interface {
	TryEnqueue(job jobs.Job) error
}

// CacheFill is the payload of a cache fill job.
type CacheFill struct {
	TermID  string
	Courses []models.Course
}

// CatalogService resolves course offerings for a term, reading through the catalog cache.
type CatalogService struct {
	repo    catalogRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	fills   jobEnqueuer
}

// NewCatalogService constructs a CatalogService. repo may be nil when no catalog database is configured.
func NewCatalogService(repo catalogRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// UseFillQueue routes cache writes through q instead of writing inline.
func (s *CatalogService) UseFillQueue(q jobEnqueuer) {
	s.fills = q
}

// Enabled reports whether term lookups can be served.
func (s *CatalogService) Enabled() bool {
	return s != nil && s.repo != nil
}

// LoadCourses returns the requested courses of a term in request order.
func (s *CatalogService) LoadCourses(ctx context.Context, termID string, courseIDs []string) ([]models.Course, error) {
	termID = strings.TrimSpace(termID)
	if termID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "termId is required for catalog lookups")
	}
	ids, err := uniqueIDs(courseIDs)
	if err != nil {
		return nil, err
	}
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "catalog lookups are disabled; send courses inline")
	}

	found, missing := s.cache.LookupCourses(ctx, termID, ids)
	if len(missing) > 0 {
		start := time.Now()
		loaded, err := s.repo.FindCourses(ctx, termID, missing)
		s.metrics.ObserveCatalogQuery(time.Since(start))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course catalog")
		}
		for _, c := range loaded {
			found[c.ID] = c
		}
		s.fill(ctx, termID, loaded)
	}

	courses := make([]models.Course, 0, len(ids))
	for _, id := range ids {
		c, ok := found[id]
		if !ok {
			return nil, appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrNoSectionsForCourse, fmt.Sprintf("course %s is not offered in term %s", id, termID)),
				map[string]any{"courseId": id, "termId": termID},
			)
		}
		courses = append(courses, c)
	}
	return courses, nil
}

// InvalidateTerm drops cached offerings of a term.
func (s *CatalogService) InvalidateTerm(ctx context.Context, termID string) error {
	termID = strings.TrimSpace(termID)
	if termID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "termId is required")
	}
	if err := s.cache.InvalidateTerm(ctx, termID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate catalog cache")
	}
	return nil
}

// HandleCacheFill is the jobs.Handler for JobTypeCacheFill.
func (s *CatalogService) HandleCacheFill(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(CacheFill)
	if !ok {
		s.logger.Error("unexpected cache fill payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.cache.StoreCourses(ctx, payload.TermID, payload.Courses)
}

func (s *CatalogService) fill(ctx context.Context, termID string, courses []models.Course) {
	if !s.cache.Enabled() || len(courses) == 0 {
		return
	}
	if s.fills != nil {
		job := jobs.Job{
			ID:      termID + ":" + courses[0].ID,
			Type:    JobTypeCacheFill,
			Payload: CacheFill{TermID: termID, Courses: courses},
		}
		err := s.fills.TryEnqueue(job)
		if err == nil {
			return
		}
		s.logger.Debug("cache fill queue unavailable, writing inline", zap.Error(err))
	}
	_ = s.cache.StoreCourses(ctx, termID, courses)
}

func uniqueIDs(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "courseIds must not be empty")
	}
	seen := make(map[string]struct{}, len(raw))
	ids := make([]string, 0, len(raw))
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "courseIds must not contain blank ids")
		}
		if _, dup := seen[id]; dup {
			return nil, appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s requested twice", id)),
				map[string]any{"courseId": id},
			)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
