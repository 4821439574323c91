package dto

import (
	"time"

	"github.com/noah-isme/course-planner-api/internal/models"
	"github.com/noah-isme/course-planner-api/internal/planner"
)

// GeneratePlanRequest asks for ranked schedule options. Courses are either supplied inline or
// resolved from the catalog through TermID and CourseIDs.
type GeneratePlanRequest struct {
	TermID                 string              `json:"termId,omitempty"`
	CourseIDs              []string            `json:"courseIds,omitempty" validate:"omitempty,max=40,dive,required"`
	Courses                []models.Course     `json:"courses,omitempty" validate:"omitempty,max=40,dive"`
	Constraints            models.Constraints  `json:"constraints"`
	Preferences            *models.Preferences `json:"preferences,omitempty"`
	SuggestedSectionIDSets [][]string          `json:"suggestedSectionIdSets,omitempty" validate:"omitempty,max=50"`
	// UseSuggestions asks the suggestion service for seeds when none are supplied inline.
	UseSuggestions      bool     `json:"useSuggestions"`
	Query               string   `json:"query,omitempty" validate:"max=2000"`
	MaxOptions          int      `json:"maxOptions" validate:"min=0"`
	SearchBudget        int      `json:"searchBudget" validate:"min=0"`
	DeadlineMs          int      `json:"deadlineMs" validate:"min=0,max=60000"`
	IdealCredits        *float64 `json:"idealCredits,omitempty" validate:"omitempty,min=0"`
	ExcludeFullSections bool     `json:"excludeFullSections"`
}

// PlanResponse is a stored generation result.
type PlanResponse struct {
	PlanID      string                  `json:"planId"`
	CreatedAt   time.Time               `json:"createdAt"`
	ExpiresAt   time.Time               `json:"expiresAt"`
	Options     []models.ScheduleOption `json:"options"`
	Weights     planner.Weights         `json:"weights"`
	Meta        planner.Meta            `json:"meta"`
	Suggestions string                  `json:"suggestions"`
}

// Where the seeds of a plan came from.
const (
	SuggestionsNone        = "none"
	SuggestionsInline      = "inline"
	SuggestionsService     = "service"
	SuggestionsUnavailable = "unavailable"
)

// ConflictCheckRequest lists sections to test against each other.
type ConflictCheckRequest struct {
	Sections []models.Section `json:"sections" validate:"required,min=2,dive"`
}

// ConflictCheckResponse reports every pairwise conflict.
type ConflictCheckResponse struct {
	Valid     bool              `json:"valid"`
	Conflicts []models.Conflict `json:"conflicts"`
}

// DefaultPreferencesResponse exposes the default weights before and after normalisation.
type DefaultPreferencesResponse struct {
	Preferences models.Preferences `json:"preferences"`
	Weights     planner.Weights    `json:"weights"`
}

// ExportFormat selects the timetable renderer.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportPlanRequest addresses one option of a stored plan.
type ExportPlanRequest struct {
	PlanID string       `validate:"required"`
	Rank   int          `validate:"min=1"`
	Format ExportFormat `validate:"required,oneof=csv pdf"`
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}
