package planner

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-planner-api/internal/models"
)

func idsOf(selection []*models.Section) []string {
	out := make([]string, len(selection))
	for i, s := range selection {
		out[i] = s.ID
	}
	return out
}

func TestSplitBudget(t *testing.T) {
	assert.Equal(t, []int{4, 3, 3}, splitBudget(10, 3))
	assert.Equal(t, []int{1, 1, 0, 0}, splitBudget(2, 4))
	assert.Equal(t, []int{0, 0}, splitBudget(0, 2))
	assert.Empty(t, splitBudget(5, 0))
}

func TestFullSectionsAreTriedLast(t *testing.T) {
	full := section("A1", "A", meeting(t, "M", "09:00", "10:00"))
	full.Capacity, full.Enrolled = ptr(30), ptr(30)
	open := section("A2", "A", meeting(t, "M", "11:00", "12:00"))
	open.Capacity, open.Enrolled = ptr(30), ptr(12)
	unknown := section("A3", "A", meeting(t, "M", "13:00", "14:00"))

	space := newSearchSpace([]models.Course{course("A", 3, full, open, unknown)}, models.Constraints{}, false)
	require.Len(t, space.options[0], 3)
	assert.Equal(t, []string{"A2", "A3", "A1"}, idsOf(space.options[0]))

	excluded := newSearchSpace([]models.Course{course("A", 3, full, open, unknown)}, models.Constraints{}, true)
	assert.Equal(t, []string{"A2", "A3"}, idsOf(excluded.options[0]))
}

func TestSectionFilterAppliesTimeConstraints(t *testing.T) {
	early := section("A1", "A", meeting(t, "M", "08:00", "09:00"))
	late := section("A2", "A", meeting(t, "M", "17:00", "19:00"))
	lunch := section("A3", "A", meeting(t, "W", "12:00", "13:00"))
	fine := section("A4", "A", meeting(t, "T", "12:00", "13:00"))

	constraints := models.Constraints{
		EarliestStart: ptr(540),
		LatestEnd:     ptr(1080),
		ForbiddenWindows: []models.TimeWindow{
			{Days: days(t, "MW"), StartMinute: 720, EndMinute: 780},
		},
	}
	space := newSearchSpace([]models.Course{course("A", 3, early, late, lunch, fine)}, constraints, false)
	assert.Equal(t, []string{"A4"}, idsOf(space.options[0]))
}

func TestExhaustiveFindsAllConflictFreeCombinations(t *testing.T) {
	courses := []models.Course{
		course("A", 3,
			section("A1", "A", meeting(t, "MWF", "09:00", "09:50")),
			section("A2", "A", meeting(t, "MWF", "10:00", "10:50")),
		),
		course("B", 3,
			section("B1", "B", meeting(t, "MWF", "09:30", "10:20")),
			section("B2", "B", meeting(t, "TTh", "09:00", "10:15")),
		),
	}
	space := newSearchSpace(courses, models.Constraints{}, false)
	found, stats := space.exhaustive(context.Background(), 1000, 2)

	var got [][]string
	for _, f := range found {
		got = append(got, idsOf(f))
	}
	assert.Equal(t, [][]string{{"A1", "B2"}, {"A2", "B2"}}, got)
	assert.False(t, stats.BudgetExhausted)
	assert.False(t, stats.Cancelled)
	// two roots plus two placements under each
	assert.Equal(t, 6, stats.Explored)
}

func TestExhaustiveStopsAtBudget(t *testing.T) {
	var courses []models.Course
	for _, id := range []string{"A", "B", "C", "D"} {
		var sections []models.Section
		for i, start := range []string{"08:00", "09:00", "10:00", "11:00"} {
			letters := []string{"M", "T", "W", "F"}[i]
			sections = append(sections, section(id+start, id, meeting(t, letters, start, "12:00")))
		}
		courses = append(courses, course(id, 1, sections...))
	}
	space := newSearchSpace(courses, models.Constraints{}, false)

	found, stats := space.exhaustive(context.Background(), 8, 4)
	assert.True(t, stats.BudgetExhausted)
	assert.LessOrEqual(t, stats.Explored, 8)
	for _, f := range found {
		assert.Empty(t, DetectAll(derefSections(f)))
	}

	again, againStats := space.exhaustive(context.Background(), 8, 1)
	assert.Equal(t, stats, againStats, "budget split must not depend on worker count")
	assert.Equal(t, len(found), len(again))
}

func TestExhaustiveRespectsCancellation(t *testing.T) {
	courses := []models.Course{
		course("A", 1, section("A1", "A", meeting(t, "M", "09:00", "10:00"))),
		course("B", 1, section("B1", "B", meeting(t, "T", "09:00", "10:00"))),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	space := newSearchSpace(courses, models.Constraints{}, false)
	found, stats := space.exhaustive(ctx, 100, 1)
	assert.Empty(t, found)
	assert.True(t, stats.Cancelled)
}

// expiringCtx reports no error for the first checks calls of Err and context.Canceled afterwards.
type expiringCtx struct {
	context.Context
	checks int32
	calls  atomic.Int32
}

func (c *expiringCtx) Err() error {
	if c.calls.Add(1) > c.checks {
		return context.Canceled
	}
	return nil
}

func TestExhaustiveCompletedSearchIsNotCancelled(t *testing.T) {
	courses := []models.Course{
		course("A", 1, section("A1", "A", meeting(t, "M", "09:00", "10:00"))),
		course("B", 1, section("B1", "B", meeting(t, "T", "09:00", "10:00"))),
	}
	// the single branch checks once before its first expansion; the context expires after that
	ctx := &expiringCtx{Context: context.Background(), checks: 1}

	space := newSearchSpace(courses, models.Constraints{}, false)
	found, stats := space.exhaustive(ctx, 100, 1)
	require.Len(t, found, 1)
	assert.Equal(t, []string{"A1", "B1"}, idsOf(found[0]))
	assert.False(t, stats.Cancelled)
	assert.Equal(t, context.Canceled, ctx.Err())
}

func TestExhaustivePrunesOnCredits(t *testing.T) {
	courses := []models.Course{
		course("A", 4, section("A1", "A", meeting(t, "M", "09:00", "10:00"))),
		course("B", 4, section("B1", "B", meeting(t, "T", "09:00", "10:00"))),
	}
	over := newSearchSpace(courses, models.Constraints{MaxCredits: ptr(6.0)}, false)
	found, stats := over.exhaustive(context.Background(), 100, 1)
	assert.Empty(t, found)
	assert.Equal(t, 1, stats.Explored, "only the root placement is tried")

	under := newSearchSpace(courses, models.Constraints{MinCredits: ptr(9.0)}, false)
	found, _ = under.exhaustive(context.Background(), 100, 1)
	assert.Empty(t, found)

	exact := newSearchSpace(courses, models.Constraints{MinCredits: ptr(8.0), MaxCredits: ptr(8.0)}, false)
	found, _ = exact.exhaustive(context.Background(), 100, 1)
	require.Len(t, found, 1)
}

func TestValidateSeedsRejectsFilteredAndConflicting(t *testing.T) {
	courses := []models.Course{
		course("A", 3,
			section("A1", "A", meeting(t, "M", "08:00", "09:00")),
			section("A2", "A", meeting(t, "M", "10:00", "11:00")),
		),
		course("B", 3,
			section("B1", "B", meeting(t, "M", "10:30", "11:30")),
			section("B2", "B", meeting(t, "T", "10:00", "11:00")),
		),
	}
	space := newSearchSpace(courses, models.Constraints{EarliestStart: ptr(540)}, false)
	outcome := AdaptSuggestions([][]string{{"A1", "B2"}, {"A2", "B1"}, {"A2", "B2"}}, courses)
	require.Len(t, outcome.Seeds, 3)

	valid := space.validateSeeds(outcome.Seeds)
	require.Len(t, valid, 1)
	assert.Equal(t, []string{"A2", "B2"}, idsOf(valid[0]))
}

func derefSections(in []*models.Section) []models.Section {
	out := make([]models.Section, len(in))
	for i, s := range in {
		out[i] = *s
	}
	return out
}
