package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-planner-api/internal/models"
)

func suggestionCourses(t *testing.T) []models.Course {
	return []models.Course{
		course("A", 3,
			section("A1", "A", meeting(t, "MWF", "09:00", "09:50")),
			section("A2", "A", meeting(t, "MWF", "10:00", "10:50")),
		),
		course("B", 3,
			section("B1", "B", meeting(t, "TTh", "09:00", "10:15")),
		),
	}
}

func TestAdaptSuggestionsWithoutInputIsExhaustiveOnly(t *testing.T) {
	outcome := AdaptSuggestions(nil, suggestionCourses(t))
	assert.Equal(t, SeedModeExhaustiveOnly, outcome.Mode)
	assert.Zero(t, outcome.Received)
	assert.Zero(t, outcome.DiscardRatio())
}

func TestAdaptSuggestionsResolvesInCourseOrder(t *testing.T) {
	outcome := AdaptSuggestions([][]string{{"B1", " A2 "}}, suggestionCourses(t))
	require.Equal(t, SeedModeSeeded, outcome.Mode)
	require.Len(t, outcome.Seeds, 1)
	assert.Equal(t, "A2", outcome.Seeds[0][0].ID)
	assert.Equal(t, "B1", outcome.Seeds[0][1].ID)
	assert.Equal(t, 1, outcome.Accepted)
	assert.Zero(t, outcome.Discarded)
}

func TestAdaptSuggestionsDropsWholeSetOnUnknownID(t *testing.T) {
	outcome := AdaptSuggestions([][]string{
		{"A1", "B9"},
		{"A1", "B1"},
	}, suggestionCourses(t))

	require.Equal(t, SeedModeSeeded, outcome.Mode)
	require.Len(t, outcome.Seeds, 1)
	assert.Equal(t, "A1", outcome.Seeds[0][0].ID)
	assert.Equal(t, 1, outcome.Discarded)
	assert.InDelta(t, 0.5, outcome.DiscardRatio(), 1e-9)
}

func TestAdaptSuggestionsNeverRepairs(t *testing.T) {
	cases := map[string][]string{
		"duplicate course":   {"A1", "A2"},
		"missing course":     {"A1"},
		"extra section":      {"A1", "B1", "A2"},
		"empty set":          {},
		"repeated same id":   {"B1", "B1"},
		"unknown everywhere": {"X", "Y"},
	}
	for name, ids := range cases {
		t.Run(name, func(t *testing.T) {
			outcome := AdaptSuggestions([][]string{ids}, suggestionCourses(t))
			assert.Equal(t, SeedModeExhaustiveOnly, outcome.Mode)
			assert.Empty(t, outcome.Seeds)
			assert.Equal(t, 1, outcome.Discarded)
			assert.Equal(t, 1.0, outcome.DiscardRatio())
		})
	}
}
