package planner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-planner-api/internal/models"
)

func days(t *testing.T, raw string) models.DaySet {
	t.Helper()
	d, err := models.ParseDayLetters(raw)
	require.NoError(t, err)
	return d
}

func clock(t *testing.T, raw string) int {
	t.Helper()
	m, err := ParseClock(raw)
	require.NoError(t, err)
	return m
}

func meeting(t *testing.T, dayLetters, start, end string) models.Meeting {
	t.Helper()
	return models.Meeting{Days: days(t, dayLetters), StartMinute: clock(t, start), EndMinute: clock(t, end)}
}

func section(id, courseID string, meetings ...models.Meeting) models.Section {
	return models.Section{ID: id, CourseID: courseID, Meetings: meetings}
}

func course(id string, credits float64, sections ...models.Section) models.Course {
	return models.Course{ID: id, Credits: credits, Sections: sections}
}

func instructor(name string, rating, workload float64) models.Instructor {
	return models.Instructor{Name: name, Rating: &rating, Workload: &workload}
}

func ptr[T any](v T) *T {
	return &v
}
