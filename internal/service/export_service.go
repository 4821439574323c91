package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/models"
	"github.com/noah-isme/course-planner-api/internal/planner"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
	"github.com/noah-isme/course-planner-api/pkg/export"
)

var timetableHeaders = []string{"Course", "Section", "Days", "Start", "End", "Location", "Instructors"}

type planOptionSource interface {
	Option(ctx context.Context, planID string, rank int) (models.ScheduleOption, error)
}

// TimetableExportService renders a stored schedule option as a downloadable timetable.
type TimetableExportService struct {
	plans     planOptionSource
	renderers map[dto.ExportFormat]export.Renderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableExportService constructs the service. Nil renderers fall back to the CSV and PDF exporters.
func NewTimetableExportService(plans planOptionSource, validate *validator.Validate, logger *zap.Logger, csv, pdf export.Renderer) *TimetableExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &TimetableExportService{
		plans: plans,
		renderers: map[dto.ExportFormat]export.Renderer{
			dto.ExportFormatCSV: csv,
			dto.ExportFormatPDF: pdf,
		},
		validator: validate,
		logger:    logger,
	}
}

// Export renders the option at req.Rank of plan req.PlanID.
func (s *TimetableExportService) Export(ctx context.Context, req dto.ExportPlanRequest) (*dto.ExportFile, error) {
	req.Format = dto.ExportFormat(strings.ToLower(strings.TrimSpace(string(req.Format))))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}
	option, err := s.plans.Option(ctx, req.PlanID, req.Rank)
	if err != nil {
		return nil, err
	}

	renderer := s.renderers[req.Format]
	body, err := renderer.Render(TimetableDataset(option))
	if err != nil {
		s.logger.Error("timetable render failed", zap.String("plan_id", req.PlanID), zap.Int("rank", req.Rank), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}

	return &dto.ExportFile{
		Filename:    fmt.Sprintf("schedule_%s_rank%d.%s", sanitizeFilename(req.PlanID), req.Rank, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

// TimetableDataset lays out one row per meeting. Sections without meetings get a single TBA row.
func TimetableDataset(option models.ScheduleOption) export.Dataset {
	rows := make([][]string, 0, len(option.Sections))
	for _, sec := range option.Sections {
		instructors := make([]string, 0, len(sec.Instructors))
		for _, in := range sec.Instructors {
			instructors = append(instructors, in.Name)
		}
		names := strings.Join(instructors, ", ")

		if len(sec.Meetings) == 0 {
			rows = append(rows, []string{sec.CourseID, sec.ID, "TBA", "", "", "", names})
			continue
		}
		for _, m := range sec.Meetings {
			location := ""
			if m.Location != nil {
				location = *m.Location
			}
			rows = append(rows, []string{
				sec.CourseID,
				sec.ID,
				m.Days.String(),
				planner.FormatClock(m.StartMinute),
				planner.FormatClock(m.EndMinute),
				location,
				names,
			})
		}
	}

	return export.Dataset{
		Title: fmt.Sprintf("Schedule option #%d", option.Rank),
		Notes: []string{
			"Quality score " + strconv.FormatFloat(option.QualityScore, 'f', 2, 64),
			"Total credits " + strconv.FormatFloat(option.TotalCredits, 'f', -1, 64),
		},
		Headers: timetableHeaders,
		Rows:    rows,
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 64 {
		return result[:64]
	}
	return result
}
