package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-planner-api/internal/models"
)

func TestNormalizeWeights(t *testing.T) {
	w, err := NormalizeWeights(models.Preferences{WorkloadWeight: 2, RatingWeight: 2, TimeFitWeight: 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, w.Workload, 1e-9)
	assert.InDelta(t, 0.25, w.Rating, 1e-9)
	assert.InDelta(t, 0.5, w.TimeFit, 1e-9)
	assert.Zero(t, w.InstructorMatch)

	even, err := NormalizeWeights(models.Preferences{})
	require.NoError(t, err)
	assert.Equal(t, Weights{0.25, 0.25, 0.25, 0.25}, even)

	_, err = NormalizeWeights(models.Preferences{RatingWeight: -1})
	assert.Error(t, err)
}

func TestWorkloadAndRatingDefaultToNeutral(t *testing.T) {
	bare := []models.Section{section("A1", "A", meeting(t, "M", "10:00", "11:00"))}
	assert.InDelta(t, 40, WorkloadScore(bare), 1e-9)
	assert.InDelta(t, 60, RatingScore(bare), 1e-9)

	partial := bare[0]
	partial.Instructors = []models.Instructor{{Name: "Lee"}, instructor("Kim", 5, 1)}
	// (3 + 1) / 2 = 2 workload, (3 + 5) / 2 = 4 rating
	assert.InDelta(t, 60, WorkloadScore([]models.Section{partial}), 1e-9)
	assert.InDelta(t, 80, RatingScore([]models.Section{partial}), 1e-9)
}

func TestTimeFitPenalisesEarlyAndLateStarts(t *testing.T) {
	early := section("A1", "A", meeting(t, "MWF", "08:00", "08:50"))
	noon := section("A2", "A", meeting(t, "MWF", "11:00", "11:50"))
	evening := section("A3", "A", meeting(t, "T", "19:00", "21:00"))
	split := section("A4", "A", meeting(t, "M", "07:00", "08:00"), meeting(t, "W", "07:30", "08:30"),
		meeting(t, "F", "08:00", "09:00"), meeting(t, "Sa", "20:00", "21:00"))

	assert.Equal(t, 70.0, TimeFitScore([]models.Section{early}))
	assert.Equal(t, 100.0, TimeFitScore([]models.Section{noon}))
	assert.Equal(t, 70.0, TimeFitScore([]models.Section{evening}))
	assert.Equal(t, 0.0, TimeFitScore([]models.Section{split}), "clamped at zero")
	assert.Equal(t, 85.0, TimeFitScore([]models.Section{early, noon}))
	assert.Equal(t, 100.0, TimeFitScore(nil))
}

func TestInstructorMatchIsAdditive(t *testing.T) {
	scorer, err := NewScorer(models.Preferences{
		InstructorMatchWeight: 1,
		PreferredInstructors:  []string{"  Ada Lovelace "},
		AvoidedInstructors:    []string{"grace hopper"},
	})
	require.NoError(t, err)

	withAda := section("A1", "A")
	withAda.Instructors = []models.Instructor{{Name: "ada lovelace"}}
	withGrace := section("B1", "B")
	withGrace.Instructors = []models.Instructor{{Name: "Grace Hopper"}}
	withAda2 := section("C1", "C")
	withAda2.Instructors = []models.Instructor{{Name: "Ada  Lovelace"}}

	assert.Equal(t, 75.0, scorer.InstructorMatchScore(nil))
	assert.Equal(t, 85.0, scorer.InstructorMatchScore([]models.Section{withAda}))
	assert.Equal(t, 95.0, scorer.InstructorMatchScore([]models.Section{withAda, withAda2}))
	assert.Equal(t, 85.0, scorer.InstructorMatchScore([]models.Section{withAda, withAda2, withGrace}))
}

func TestEarlierSectionScoresLowerOnTimeFit(t *testing.T) {
	early := section("A1", "A", meeting(t, "MWF", "08:00", "08:50"))
	late := section("A2", "A", meeting(t, "MWF", "11:00", "11:50"))

	scorer, err := NewScorer(models.Preferences{WorkloadWeight: 0.3, RatingWeight: 0.3, TimeFitWeight: 0.2, InstructorMatchWeight: 0.2})
	require.NoError(t, err)

	earlyScore, earlyBreakdown := scorer.Score([]models.Section{early})
	lateScore, lateBreakdown := scorer.Score([]models.Section{late})
	assert.Greater(t, lateBreakdown.TimeFit, earlyBreakdown.TimeFit)
	assert.Greater(t, lateScore, earlyScore)
}

func TestScoreIsDeterministicAndBounded(t *testing.T) {
	sec := section("A1", "A", meeting(t, "TTh", "09:30", "10:45"))
	sec.Instructors = []models.Instructor{instructor("Kim", 4.5, 2)}
	scorer, err := NewScorer(models.DefaultPreferences())
	require.NoError(t, err)

	first, b1 := scorer.Score([]models.Section{sec})
	second, b2 := scorer.Score([]models.Section{sec})
	assert.Equal(t, first, second)
	assert.Equal(t, b1, b2)
	assert.GreaterOrEqual(t, first, 0.0)
	assert.LessOrEqual(t, first, 100.0)
	// 0.3*60 + 0.3*90 + 0.2*100 + 0.2*75
	assert.InDelta(t, 80.0, first, 1e-9)
}

func TestDayBalance(t *testing.T) {
	even := []models.Section{section("A1", "A", meeting(t, "MW", "09:00", "10:00"))}
	assert.Equal(t, 0.0, DayBalance(even))

	uneven := []models.Section{
		section("A1", "A", meeting(t, "M", "09:00", "10:00")),
		section("B1", "B", meeting(t, "W", "09:00", "12:00")),
	}
	// minutes per active day: 60 and 180
	assert.InDelta(t, 60.0, DayBalance(uneven), 1e-9)
}
