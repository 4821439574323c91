package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/models"
	"github.com/noah-isme/course-planner-api/internal/planner"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
)

type plannerMock struct {
	captured dto.GeneratePlanRequest
	planErr  error
	checked  dto.ConflictCheckRequest
}

func (m *plannerMock) Plan(ctx context.Context, req dto.GeneratePlanRequest) (*dto.PlanResponse, error) {
	m.captured = req
	if m.planErr != nil {
		return nil, m.planErr
	}
	return &dto.PlanResponse{
		PlanID:  "plan-1",
		Options: []models.ScheduleOption{{ID: "opt", Rank: 1, QualityScore: 88}},
		Meta:    planner.Meta{SearchMode: planner.SeedModeExhaustiveOnly, CandidatesExplored: 12},
	}, nil
}

func (m *plannerMock) GetPlan(ctx context.Context, planID string) (*dto.PlanResponse, error) {
	if planID != "plan-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "plan not found or expired")
	}
	return &dto.PlanResponse{PlanID: planID}, nil
}

func (m *plannerMock) CheckConflicts(ctx context.Context, req dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error) {
	m.checked = req
	return &dto.ConflictCheckResponse{Valid: true, Conflicts: []models.Conflict{}}, nil
}

func (m *plannerMock) DefaultPreferences() dto.DefaultPreferencesResponse {
	return dto.DefaultPreferencesResponse{
		Preferences: models.DefaultPreferences(),
		Weights:     planner.Weights{Workload: 0.3, Rating: 0.3, TimeFit: 0.2, InstructorMatch: 0.2},
	}
}

type exporterMock struct {
	captured dto.ExportPlanRequest
}

func (m *exporterMock) Export(ctx context.Context, req dto.ExportPlanRequest) (*dto.ExportFile, error) {
	m.captured = req
	return &dto.ExportFile{Filename: "schedule_plan-1_rank2.csv", ContentType: "text/csv", Body: []byte("Course\nCS101\n")}, nil
}

type invalidatorMock struct {
	terms []string
}

func (m *invalidatorMock) InvalidateTerm(ctx context.Context, termID string) error {
	m.terms = append(m.terms, termID)
	return nil
}

func newPlannerRouter(h *PlannerHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/api/v1")
	group.POST("/schedules/plans", h.Generate)
	group.GET("/schedules/plans/:id", h.GetPlan)
	group.GET("/schedules/plans/:id/options/:rank/export", h.ExportOption)
	group.POST("/schedules/conflicts", h.CheckConflicts)
	group.GET("/schedules/preferences/defaults", h.DefaultPreferences)
	group.DELETE("/catalog/terms/:termId/cache", h.InvalidateCatalog)
	return router
}

func serve(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestPlannerGenerateSuccess(t *testing.T) {
	mock := &plannerMock{}
	router := newPlannerRouter(NewPlannerHandler(mock, &exporterMock{}, nil))

	payload := []byte(`{
		"courses": [{"id": "CS101", "credits": 4, "sections": [{"id": "CS101-01", "meetings": [{"days": "MWF", "startMinute": 540, "endMinute": 590}], "instructors": []}]}],
		"constraints": {"maxCredits": 18},
		"suggestedSectionIdSets": [["CS101-01"]],
		"maxOptions": 3
	}`)
	w := serve(router, http.MethodPost, "/api/v1/schedules/plans", payload)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/api/v1/schedules/plans/plan-1", w.Header().Get("Location"))
	require.Len(t, mock.captured.Courses, 1)
	assert.Equal(t, models.Monday|models.Wednesday|models.Friday, mock.captured.Courses[0].Sections[0].Meetings[0].Days)
	assert.Equal(t, 18.0, *mock.captured.Constraints.MaxCredits)
	assert.Equal(t, [][]string{{"CS101-01"}}, mock.captured.SuggestedSectionIDSets)
	assert.Equal(t, 3, mock.captured.MaxOptions)

	var plan dto.PlanResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &plan))
	assert.Equal(t, "plan-1", plan.PlanID)
	assert.Equal(t, 12, plan.Meta.CandidatesExplored)
}

func TestPlannerGenerateMalformedJSON(t *testing.T) {
	router := newPlannerRouter(NewPlannerHandler(&plannerMock{}, &exporterMock{}, nil))

	w := serve(router, http.MethodPost, "/api/v1/schedules/plans", []byte(`{"courses":`))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decodeEnvelope(t, w).Error.Code)
}

func TestPlannerGenerateMapsErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "no sections", err: appErrors.ErrNoSectionsForCourse, status: http.StatusUnprocessableEntity, code: "NO_SECTIONS_FOR_COURSE"},
		{name: "unresolvable", err: appErrors.ErrUnresolvableConflicts, status: http.StatusUnprocessableEntity, code: "UNRESOLVABLE_CONFLICTS"},
		{name: "deadline", err: appErrors.ErrDeadlineExceeded, status: http.StatusGatewayTimeout, code: "DEADLINE_EXCEEDED"},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, code: "INTERNAL_ERROR"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := newPlannerRouter(NewPlannerHandler(&plannerMock{planErr: tc.err}, &exporterMock{}, nil))
			w := serve(router, http.MethodPost, "/api/v1/schedules/plans", []byte(`{"courses":[]}`))
			require.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decodeEnvelope(t, w).Error.Code)
		})
	}
}

func TestPlannerGetPlan(t *testing.T) {
	router := newPlannerRouter(NewPlannerHandler(&plannerMock{}, &exporterMock{}, nil))

	w := serve(router, http.MethodGet, "/api/v1/schedules/plans/plan-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	w = serve(router, http.MethodGet, "/api/v1/schedules/plans/missing", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlannerExportOption(t *testing.T) {
	exporter := &exporterMock{}
	router := newPlannerRouter(NewPlannerHandler(&plannerMock{}, exporter, nil))

	w := serve(router, http.MethodGet, "/api/v1/schedules/plans/plan-1/options/2/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ExportPlanRequest{PlanID: "plan-1", Rank: 2, Format: dto.ExportFormatCSV}, exporter.captured)
	assert.Equal(t, `attachment; filename="schedule_plan-1_rank2.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Course\nCS101\n", w.Body.String())

	w = serve(router, http.MethodGet, "/api/v1/schedules/plans/plan-1/options/2/export?format=pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ExportFormatPDF, exporter.captured.Format)

	w = serve(router, http.MethodGet, "/api/v1/schedules/plans/plan-1/options/first/export", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlannerCheckConflicts(t *testing.T) {
	mock := &plannerMock{}
	router := newPlannerRouter(NewPlannerHandler(mock, &exporterMock{}, nil))

	payload := []byte(`{"sections":[
		{"id":"A1","courseId":"A","meetings":[{"days":"TTh","startMinute":600,"endMinute":675}]},
		{"id":"B1","courseId":"B","meetings":[{"days":10,"startMinute":600,"endMinute":675}]}
	]}`)
	w := serve(router, http.MethodPost, "/api/v1/schedules/conflicts", payload)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, mock.checked.Sections, 2)
	assert.Equal(t, mock.checked.Sections[0].Meetings[0].Days, mock.checked.Sections[1].Meetings[0].Days)
}

func TestPlannerDefaultPreferences(t *testing.T) {
	router := newPlannerRouter(NewPlannerHandler(&plannerMock{}, &exporterMock{}, nil))

	w := serve(router, http.MethodGet, "/api/v1/schedules/preferences/defaults", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res dto.DefaultPreferencesResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &res))
	assert.Equal(t, 0.3, res.Preferences.WorkloadWeight)
}

func TestPlannerInvalidateCatalog(t *testing.T) {
	disabled := newPlannerRouter(NewPlannerHandler(&plannerMock{}, &exporterMock{}, nil))
	w := serve(disabled, http.MethodDelete, "/api/v1/catalog/terms/2025FA/cache", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	inv := &invalidatorMock{}
	router := newPlannerRouter(NewPlannerHandler(&plannerMock{}, &exporterMock{}, inv))
	w = serve(router, http.MethodDelete, "/api/v1/catalog/terms/2025FA/cache", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"2025FA"}, inv.terms)
}
