package planner

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/course-planner-api/internal/models"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
)

const (
	// DefaultSearchBudget bounds node expansions when a request does not set one.
	DefaultSearchBudget = 50000
	// MaxSearchBudget is the hard ceiling on node expansions per request.
	MaxSearchBudget = 2000000
)

// Request is one generation call. Courses are consumed in the given order.
type Request struct {
	Courses                []models.Course
	Constraints            models.Constraints
	Preferences            models.Preferences
	SuggestedSectionIDSets [][]string
	MaxOptions             int
	SearchBudget           int
	Deadline               time.Duration
	IdealCredits           *float64
	ExcludeFullSections    bool
}

// Meta reports how a result was produced.
type Meta struct {
	SearchMode             SeedMode `json:"searchMode"`
	CandidatesExplored     int      `json:"candidatesExplored"`
	ValidCandidates        int      `json:"validCandidates"`
	SeedsReceived          int      `json:"seedsReceived"`
	SeedsAccepted          int      `json:"seedsAccepted"`
	SeedsDiscarded         int      `json:"seedsDiscarded"`
	SuggestionDiscardRatio float64  `json:"suggestionDiscardRatio"`
	SuggestionIgnored      bool     `json:"suggestionIgnored"`
	BudgetExhausted        bool     `json:"budgetExhausted"`
	Partial                bool     `json:"partial"`
	DurationMs             int64    `json:"durationMs"`
}

// Result is the ranked output of a generation call.
type Result struct {
	Options []models.ScheduleOption `json:"options"`
	Meta    Meta                    `json:"meta"`
}

// Config tunes the engine. Zero values fall back to package defaults.
type Config struct {
	Workers             int
	DefaultMaxOptions   int
	MaxOptionsCap       int
	DefaultSearchBudget int
	MaxSearchBudget     int
}

// Engine runs the construction and ranking pipeline. It keeps no per-request state and may be
// shared across goroutines.
type Engine struct {
	cfg    Config
	logger *zap.Logger
}

// NewEngine constructs an Engine.
func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.DefaultMaxOptions <= 0 {
		cfg.DefaultMaxOptions = DefaultMaxOptions
	}
	if cfg.MaxOptionsCap <= 0 {
		cfg.MaxOptionsCap = MaxOptionsCap
	}
	if cfg.DefaultSearchBudget <= 0 {
		cfg.DefaultSearchBudget = DefaultSearchBudget
	}
	if cfg.MaxSearchBudget <= 0 {
		cfg.MaxSearchBudget = MaxSearchBudget
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Generate validates the request, merges seeded and exhaustive candidates, scores and ranks them.
// When the context or request deadline fires mid-search, the best options found so far are
// returned with Meta.Partial set; if nothing was found the error is DEADLINE_EXCEEDED.
func (e *Engine) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	courses, err := normalizeCourses(req.Courses)
	if err != nil {
		return nil, err
	}
	if err := validateConstraints(req.Constraints); err != nil {
		return nil, err
	}
	scorer, err := NewScorer(req.Preferences)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preferences")
	}
	for _, c := range courses {
		if len(c.Sections) == 0 {
			return nil, appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrNoSectionsForCourse, fmt.Sprintf("course %s has no sections", c.ID)),
				map[string]any{"courseId": c.ID},
			)
		}
	}

	if req.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Deadline)
		defer cancel()
	}

	space := newSearchSpace(courses, req.Constraints, req.ExcludeFullSections)

	outcome := AdaptSuggestions(req.SuggestedSectionIDSets, courses)
	seeds := space.validateSeeds(outcome.Seeds)
	if len(seeds) > 0 {
		outcome = Seeded(seeds, outcome.Received)
	} else {
		outcome = ExhaustiveOnly(outcome.Received)
	}

	found, stats := space.exhaustive(ctx, e.budget(req.SearchBudget), e.cfg.Workers)
	pool := make([][]*models.Section, 0, len(seeds)+len(found))
	pool = append(pool, seeds...)
	pool = append(pool, found...)

	scored := e.score(pool, scorer, space)
	valid := distinctOptions(scored)
	if req.Constraints.MinQualityScore != nil {
		kept := scored[:0]
		for _, opt := range scored {
			if opt.QualityScore+creditEpsilon >= *req.Constraints.MinQualityScore {
				kept = append(kept, opt)
			}
		}
		scored = kept
	}

	limit := ClampMaxOptions(req.MaxOptions, e.cfg.DefaultMaxOptions, e.cfg.MaxOptionsCap)
	ranked := Rank(scored, limit, IdealCredits(req.Constraints, req.IdealCredits))

	meta := Meta{
		SearchMode:             outcome.Mode,
		CandidatesExplored:     stats.Explored,
		ValidCandidates:        valid,
		SeedsReceived:          outcome.Received,
		SeedsAccepted:          outcome.Accepted,
		SeedsDiscarded:         outcome.Discarded,
		SuggestionDiscardRatio: outcome.DiscardRatio(),
		SuggestionIgnored:      outcome.Discarded > 0,
		BudgetExhausted:        stats.BudgetExhausted,
		Partial:                stats.Cancelled,
		DurationMs:             time.Since(start).Milliseconds(),
	}
	e.logger.Debug("schedule generation finished",
		zap.Int("courses", len(courses)),
		zap.String("search_mode", string(meta.SearchMode)),
		zap.Int("explored", meta.CandidatesExplored),
		zap.Int("valid", meta.ValidCandidates),
		zap.Int("returned", len(ranked)),
		zap.Bool("budget_exhausted", meta.BudgetExhausted),
		zap.Bool("cancelled", stats.Cancelled),
		zap.Int64("duration_ms", meta.DurationMs),
	)

	if len(ranked) == 0 {
		details := map[string]any{
			"candidatesExplored": meta.CandidatesExplored,
			"budgetExhausted":    meta.BudgetExhausted,
		}
		if stats.Cancelled {
			return nil, appErrors.WithDetails(appErrors.ErrDeadlineExceeded, details)
		}
		return nil, appErrors.WithDetails(appErrors.ErrUnresolvableConflicts, details)
	}
	return &Result{Options: ranked, Meta: meta}, nil
}

// CheckConflicts validates meetings and reports every pairwise conflict in sections.
func CheckConflicts(sections []models.Section) ([]models.Conflict, error) {
	for _, sec := range sections {
		for _, m := range sec.Meetings {
			if err := validMeeting(m); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
					fmt.Sprintf("section %s has an invalid meeting", sec.ID))
			}
		}
	}
	return DetectAll(sections), nil
}

// distinctOptions counts schedules by identity, so a seed the search also found counts once.
func distinctOptions(options []models.ScheduleOption) int {
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		seen[opt.ID] = struct{}{}
	}
	return len(seen)
}

func (e *Engine) budget(requested int) int {
	if requested <= 0 {
		requested = e.cfg.DefaultSearchBudget
	}
	return min(requested, e.cfg.MaxSearchBudget)
}

// score turns candidates into options on a bounded pool; output order follows input order.
func (e *Engine) score(pool [][]*models.Section, scorer *Scorer, space *searchSpace) []models.ScheduleOption {
	options := make([]models.ScheduleOption, len(pool))
	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)
	for i, candidate := range pool {
		i, candidate := i, candidate
		g.Go(func() error {
			sections := make([]models.Section, len(candidate))
			ids := make([]string, len(candidate))
			for j, sec := range candidate {
				sections[j] = *sec
				ids[j] = sec.ID
			}
			quality, breakdown := scorer.Score(sections)
			options[i] = models.ScheduleOption{
				ID:           ScheduleID(ids),
				Sections:     sections,
				TotalCredits: round4(space.totalCredits(candidate)),
				QualityScore: quality,
				Breakdown:    breakdown,
				Conflicts:    DetectAll(sections),
			}
			return nil
		})
	}
	_ = g.Wait()
	return options
}

// normalizeCourses copies the input, fills missing section course ids and rejects malformed data.
func normalizeCourses(in []models.Course) ([]models.Course, error) {
	if len(in) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one course is required")
	}
	courses := make([]models.Course, len(in))
	courseIDs := make(map[string]struct{}, len(in))
	sectionIDs := make(map[string]struct{})
	for i, c := range in {
		if c.ID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "course id is required")
		}
		if _, dup := courseIDs[c.ID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s requested more than once", c.ID))
		}
		courseIDs[c.ID] = struct{}{}
		if c.Credits < 0 || math.IsNaN(c.Credits) || math.IsInf(c.Credits, 0) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s has invalid credits", c.ID))
		}
		c.Sections = append([]models.Section(nil), c.Sections...)
		for j := range c.Sections {
			sec := &c.Sections[j]
			if sec.ID == "" {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s has a section without id", c.ID))
			}
			if _, dup := sectionIDs[sec.ID]; dup {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("section id %s is not unique", sec.ID))
			}
			sectionIDs[sec.ID] = struct{}{}
			if sec.CourseID == "" {
				sec.CourseID = c.ID
			}
			if sec.CourseID != c.ID {
				return nil, appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("section %s belongs to course %s, not %s", sec.ID, sec.CourseID, c.ID))
			}
			for _, m := range sec.Meetings {
				if err := validMeeting(m); err != nil {
					return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
						fmt.Sprintf("section %s has an invalid meeting", sec.ID))
				}
			}
		}
		courses[i] = c
	}
	return courses, nil
}

func validateConstraints(c models.Constraints) error {
	if c.MinCredits != nil && *c.MinCredits < 0 || c.MaxCredits != nil && *c.MaxCredits < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "credit bounds must be non-negative")
	}
	if c.MinCredits != nil && c.MaxCredits != nil && *c.MinCredits > *c.MaxCredits {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("minCredits %.2f exceeds maxCredits %.2f", *c.MinCredits, *c.MaxCredits))
	}
	if c.EarliestStart != nil && (*c.EarliestStart < 0 || *c.EarliestStart > models.MinutesPerDay) {
		return appErrors.Clone(appErrors.ErrValidation, "earliestStart must be a minute of day")
	}
	if c.LatestEnd != nil && (*c.LatestEnd < 0 || *c.LatestEnd > models.MinutesPerDay) {
		return appErrors.Clone(appErrors.ErrValidation, "latestEnd must be a minute of day")
	}
	if c.EarliestStart != nil && c.LatestEnd != nil && *c.EarliestStart >= *c.LatestEnd {
		return appErrors.Clone(appErrors.ErrValidation, "earliestStart must be before latestEnd")
	}
	for i, w := range c.ForbiddenWindows {
		if err := validMeeting(models.Meeting{Days: w.Days, StartMinute: w.StartMinute, EndMinute: w.EndMinute}); err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
				fmt.Sprintf("forbiddenWindows[%d] is invalid", i))
		}
	}
	if c.MinQualityScore != nil && (*c.MinQualityScore < 0 || *c.MinQualityScore > 100) {
		return appErrors.Clone(appErrors.ErrValidation, "minQualityScore must be within 0-100")
	}
	return nil
}
