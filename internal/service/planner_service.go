package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/course-planner-api/internal/client"
	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/models"
	"github.com/noah-isme/course-planner-api/internal/planner"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
)

type courseLoader interface {
	LoadCourses(ctx context.Context, termID string, courseIDs []string) ([]models.Course, error)
}

type suggester interface {
	Suggest(ctx context.Context, req client.SuggestionRequest) ([][]string, error)
}

type scheduleEngine interface {
	Generate(ctx context.Context, req planner.Request) (*planner.Result, error)
}

// PlannerConfig tunes the planner service.
type PlannerConfig struct {
	DefaultDeadline    time.Duration
	PlanTTL            time.Duration
	SuggestionsEnabled bool
	MaxSuggestionSets  int
}

// PlannerService turns plan requests into stored, ranked schedule options.
type PlannerService struct {
	engine    scheduleEngine
	catalog   courseLoader
	suggester suggester
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       PlannerConfig
	plans     *planStore
	now       func() time.Time
}

// NewPlannerService constructs a PlannerService. catalog and suggester may be nil.
func NewPlannerService(engine scheduleEngine, catalog courseLoader, suggester suggester, validate *validator.Validate, metrics *MetricsService, cfg PlannerConfig, logger *zap.Logger) *PlannerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultDeadline <= 0 {
		cfg.DefaultDeadline = 5 * time.Second
	}
	if cfg.PlanTTL <= 0 {
		cfg.PlanTTL = 30 * time.Minute
	}
	if cfg.MaxSuggestionSets <= 0 {
		cfg.MaxSuggestionSets = 10
	}
	svc := &PlannerService{
		engine:    engine,
		catalog:   catalog,
		suggester: suggester,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
	svc.plans = newPlanStore(cfg.PlanTTL, func() time.Time { return svc.now() })
	return svc
}

// Plan generates ranked options for the request and keeps them addressable by plan id.
func (s *PlannerService) Plan(ctx context.Context, req dto.GeneratePlanRequest) (*dto.PlanResponse, error) {
	start := time.Now()
	if err := s.validator.Struct(req); err != nil {
		s.metrics.ObservePlan(OutcomeInvalid, time.Since(start), 0, 0, false)
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan payload")
	}

	courses, err := s.resolveCourses(ctx, req)
	if err != nil {
		s.metrics.ObservePlan(outcomeOf(err), time.Since(start), 0, 0, false)
		return nil, err
	}

	prefs := models.DefaultPreferences()
	if req.Preferences != nil {
		prefs = *req.Preferences
	}
	weights, err := planner.NormalizeWeights(prefs)
	if err != nil {
		s.metrics.ObservePlan(OutcomeInvalid, time.Since(start), 0, 0, false)
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preferences")
	}

	seeds, source := s.seeds(ctx, req, courses, prefs)

	deadline := s.cfg.DefaultDeadline
	if req.DeadlineMs > 0 {
		deadline = time.Duration(req.DeadlineMs) * time.Millisecond
	}

	result, err := s.engine.Generate(ctx, planner.Request{
		Courses:                courses,
		Constraints:            req.Constraints,
		Preferences:            prefs,
		SuggestedSectionIDSets: seeds,
		MaxOptions:             req.MaxOptions,
		SearchBudget:           req.SearchBudget,
		Deadline:               deadline,
		IdealCredits:           req.IdealCredits,
		ExcludeFullSections:    req.ExcludeFullSections,
	})
	if err != nil {
		s.metrics.ObservePlan(outcomeOf(err), time.Since(start), 0, 0, false)
		return nil, err
	}

	outcome := OutcomeOK
	if result.Meta.Partial {
		outcome = OutcomePartial
	}
	s.metrics.ObservePlan(outcome, time.Since(start), result.Meta.CandidatesExplored,
		result.Meta.SuggestionDiscardRatio, result.Meta.SeedsReceived > 0)

	now := s.now().UTC()
	plan := dto.PlanResponse{
		PlanID:      uuid.NewString(),
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.PlanTTL),
		Options:     result.Options,
		Weights:     weights,
		Meta:        result.Meta,
		Suggestions: source,
	}
	s.plans.Save(plan)

	s.logger.Info("plan generated",
		zap.String("plan_id", plan.PlanID),
		zap.Int("courses", len(courses)),
		zap.Int("options", len(plan.Options)),
		zap.String("suggestions", source),
		zap.Bool("partial", result.Meta.Partial),
	)
	return &plan, nil
}

// GetPlan returns a stored plan until it expires.
func (s *PlannerService) GetPlan(ctx context.Context, planID string) (*dto.PlanResponse, error) {
	plan, ok := s.plans.Get(strings.TrimSpace(planID))
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "plan not found or expired")
	}
	return &plan, nil
}

// Option returns the option of a stored plan at the given 1-based rank.
func (s *PlannerService) Option(ctx context.Context, planID string, rank int) (models.ScheduleOption, error) {
	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return models.ScheduleOption{}, err
	}
	for _, opt := range plan.Options {
		if opt.Rank == rank {
			return opt, nil
		}
	}
	return models.ScheduleOption{}, appErrors.Clone(appErrors.ErrNotFound, "plan has no option at that rank")
}

// PurgeExpired drops expired plans.
func (s *PlannerService) PurgeExpired() int {
	return s.plans.Sweep()
}

// CheckConflicts reports every pairwise conflict among the given sections.
func (s *PlannerService) CheckConflicts(ctx context.Context, req dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check payload")
	}
	conflicts, err := planner.CheckConflicts(req.Sections)
	if err != nil {
		return nil, err
	}
	return &dto.ConflictCheckResponse{Valid: len(conflicts) == 0, Conflicts: conflicts}, nil
}

// DefaultPreferences returns the defaults applied when a request carries no preferences.
func (s *PlannerService) DefaultPreferences() dto.DefaultPreferencesResponse {
	prefs := models.DefaultPreferences()
	weights, _ := planner.NormalizeWeights(prefs)
	return dto.DefaultPreferencesResponse{Preferences: prefs, Weights: weights}
}

func (s *PlannerService) resolveCourses(ctx context.Context, req dto.GeneratePlanRequest) ([]models.Course, error) {
	inline := len(req.Courses) > 0
	byCatalog := len(req.CourseIDs) > 0
	switch {
	case inline && byCatalog:
		return nil, appErrors.Clone(appErrors.ErrValidation, "send either courses or courseIds, not both")
	case inline:
		return req.Courses, nil
	case byCatalog:
		if s.catalog == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "catalog lookups are disabled; send courses inline")
		}
		return s.catalog.LoadCourses(ctx, req.TermID, req.CourseIDs)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "courses or courseIds are required")
	}
}

// seeds picks inline suggestions first and falls back to the suggestion service. Service failures
// never fail the request.
func (s *PlannerService) seeds(ctx context.Context, req dto.GeneratePlanRequest, courses []models.Course, prefs models.Preferences) ([][]string, string) {
	if len(req.SuggestedSectionIDSets) > 0 {
		return req.SuggestedSectionIDSets, dto.SuggestionsInline
	}
	if !req.UseSuggestions || !s.cfg.SuggestionsEnabled || s.suggester == nil {
		return nil, dto.SuggestionsNone
	}

	constraints := req.Constraints
	sets, err := s.suggester.Suggest(ctx, client.BuildSuggestionRequest(req.Query, courses, &prefs, &constraints, s.cfg.MaxSuggestionSets))
	if err != nil {
		s.metrics.RecordSuggestionCall(false)
		s.logger.Warn("suggestion service unavailable, continuing with exhaustive search", zap.Error(err))
		return nil, dto.SuggestionsUnavailable
	}
	s.metrics.RecordSuggestionCall(true)
	return sets, dto.SuggestionsService
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, appErrors.ErrValidation):
		return OutcomeInvalid
	case errors.Is(err, appErrors.ErrNoSectionsForCourse):
		return OutcomeNoSections
	case errors.Is(err, appErrors.ErrUnresolvableConflicts):
		return OutcomeUnresolvable
	case errors.Is(err, appErrors.ErrDeadlineExceeded):
		return OutcomeDeadline
	default:
		return OutcomeError
	}
}
