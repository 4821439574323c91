package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-planner-api/internal/dto"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
	"github.com/noah-isme/course-planner-api/pkg/response"
)

type schedulePlanner interface {
	Plan(ctx context.Context, req dto.GeneratePlanRequest) (*dto.PlanResponse, error)
	GetPlan(ctx context.Context, planID string) (*dto.PlanResponse, error)
	CheckConflicts(ctx context.Context, req dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error)
	DefaultPreferences() dto.DefaultPreferencesResponse
}

type timetableExporter interface {
	Export(ctx context.Context, req dto.ExportPlanRequest) (*dto.ExportFile, error)
}

type catalogInvalidator interface {
	InvalidateTerm(ctx context.Context, termID string) error
}

// PlannerHandler exposes schedule planning endpoints.
type PlannerHandler struct {
	planner  schedulePlanner
	exporter timetableExporter
	catalog  catalogInvalidator
}

// NewPlannerHandler constructs the handler. catalog may be nil when no catalog is configured.
func NewPlannerHandler(planner schedulePlanner, exporter timetableExporter, catalog catalogInvalidator) *PlannerHandler {
	return &PlannerHandler{planner: planner, exporter: exporter, catalog: catalog}
}

// Generate godoc
// @Summary Generate ranked schedule options
// @Description Builds conflict-free schedules from inline courses or catalog course ids, scores them against the preferences and returns the best options. Suggested section sets are treated as untrusted hints.
// @Tags Planner
// @Accept json
// @Produce json
// @Param payload body dto.GeneratePlanRequest true "Plan request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 504 {object} response.Envelope
// @Router /schedules/plans [post]
func (h *PlannerHandler) Generate(c *gin.Context) {
	var req dto.GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid plan payload"))
		return
	}
	plan, err := h.planner.Plan(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Location", c.FullPath()+"/"+plan.PlanID)
	response.Created(c, plan, nil)
}

// GetPlan godoc
// @Summary Get a generated plan
// @Tags Planner
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/plans/{id} [get]
func (h *PlannerHandler) GetPlan(c *gin.Context) {
	plan, err := h.planner.GetPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, plan)
}

// ExportOption godoc
// @Summary Download one option of a plan as a timetable
// @Tags Planner
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Plan ID"
// @Param rank path int true "Option rank (1-based)"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/plans/{id}/options/{rank}/export [get]
func (h *PlannerHandler) ExportOption(c *gin.Context) {
	rank, err := strconv.Atoi(c.Param("rank"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "rank must be a positive integer"))
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), dto.ExportPlanRequest{
		PlanID: c.Param("id"),
		Rank:   rank,
		Format: dto.ExportFormat(c.DefaultQuery("format", string(dto.ExportFormatCSV))),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// CheckConflicts godoc
// @Summary Check sections for pairwise conflicts
// @Tags Planner
// @Accept json
// @Produce json
// @Param payload body dto.ConflictCheckRequest true "Sections to compare"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/conflicts [post]
func (h *PlannerHandler) CheckConflicts(c *gin.Context) {
	var req dto.ConflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conflict check payload"))
		return
	}
	result, err := h.planner.CheckConflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// DefaultPreferences godoc
// @Summary Default scoring preferences
// @Tags Planner
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedules/preferences/defaults [get]
func (h *PlannerHandler) DefaultPreferences(c *gin.Context) {
	response.OK(c, h.planner.DefaultPreferences())
}

// InvalidateCatalog godoc
// @Summary Drop cached catalog offerings of a term
// @Tags Catalog
// @Param termId path string true "Term ID"
// @Success 204
// @Failure 503 {object} response.Envelope
// @Router /catalog/terms/{termId}/cache [delete]
func (h *PlannerHandler) InvalidateCatalog(c *gin.Context) {
	if h.catalog == nil {
		response.Error(c, appErrors.New("CATALOG_DISABLED", http.StatusServiceUnavailable, "catalog is not configured"))
		return
	}
	if err := h.catalog.InvalidateTerm(c.Request.Context(), c.Param("termId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
