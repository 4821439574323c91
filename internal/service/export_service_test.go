package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/models"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
)

type optionSourceStub struct {
	option models.ScheduleOption
}

func (s optionSourceStub) Option(ctx context.Context, planID string, rank int) (models.ScheduleOption, error) {
	if planID != "plan-1" || rank != s.option.Rank {
		return models.ScheduleOption{}, appErrors.ErrNotFound
	}
	return s.option, nil
}

func exportOption() models.ScheduleOption {
	room := "ENG 101"
	rating := 4.5
	cs := sec("CS101-01", weekly(models.Monday|models.Wednesday|models.Friday, 540, 590))
	cs.CourseID = "CS101"
	cs.Meetings[0].Location = &room
	cs.Instructors = []models.Instructor{{Name: "Ada Lovelace", Rating: &rating}, {Name: "Alan Turing"}}
	online := sec("ONLINE-01")
	online.CourseID = "ONLINE"
	return models.ScheduleOption{
		ID:           "abc",
		Rank:         1,
		Sections:     []models.Section{cs, online},
		TotalCredits: 7,
		QualityScore: 81.25,
	}
}

func TestTimetableDataset(t *testing.T) {
	data := TimetableDataset(exportOption())

	assert.Equal(t, "Schedule option #1", data.Title)
	assert.Equal(t, []string{"Quality score 81.25", "Total credits 7"}, data.Notes)
	assert.Equal(t, [][]string{
		{"CS101", "CS101-01", "MWF", "09:00", "09:50", "ENG 101", "Ada Lovelace, Alan Turing"},
		{"ONLINE", "ONLINE-01", "TBA", "", "", "", ""},
	}, data.Rows)
}

func TestTimetableExportCSV(t *testing.T) {
	svc := NewTimetableExportService(optionSourceStub{option: exportOption()}, nil, nil, nil, nil)

	file, err := svc.Export(context.Background(), dto.ExportPlanRequest{PlanID: "plan-1", Rank: 1, Format: " CSV "})
	require.NoError(t, err)
	assert.Equal(t, "schedule_plan-1_rank1.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Body), "Course,Section,Days,Start,End,Location,Instructors\n"))
	assert.Contains(t, string(file.Body), `"Ada Lovelace, Alan Turing"`)
}

func TestTimetableExportPDF(t *testing.T) {
	svc := NewTimetableExportService(optionSourceStub{option: exportOption()}, nil, nil, nil, nil)

	file, err := svc.Export(context.Background(), dto.ExportPlanRequest{PlanID: "plan-1", Rank: 1, Format: dto.ExportFormatPDF})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
}

func TestTimetableExportErrors(t *testing.T) {
	svc := NewTimetableExportService(optionSourceStub{option: exportOption()}, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Export(ctx, dto.ExportPlanRequest{PlanID: "plan-1", Rank: 1, Format: "xlsx"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Export(ctx, dto.ExportPlanRequest{PlanID: "plan-1", Rank: 0, Format: dto.ExportFormatCSV})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Export(ctx, dto.ExportPlanRequest{PlanID: "plan-2", Rank: 1, Format: dto.ExportFormatCSV})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "na", sanitizeFilename(""))
	assert.Equal(t, "a_b-c-d", sanitizeFilename("a b/c:d"))
	assert.Len(t, sanitizeFilename(strings.Repeat("x", 100)), 64)
}
