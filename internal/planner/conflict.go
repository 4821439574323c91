package planner

import (
	"fmt"

	"github.com/noah-isme/course-planner-api/internal/models"
)

// HasConflict reports whether two sections cannot be taken together: same course,
// overlapping meetings, or clashing final exams.
func HasConflict(a, b models.Section) bool {
	return clash(&a, &b).found
}

// DetectAll runs the pairwise check over a section list and returns every conflict found.
// A candidate is valid iff the result is empty.
func DetectAll(sections []models.Section) []models.Conflict {
	conflicts := make([]models.Conflict, 0)
	for i := 0; i < len(sections); i++ {
		for j := i + 1; j < len(sections); j++ {
			a, b := &sections[i], &sections[j]
			if r := clash(a, b); r.found {
				conflicts = append(conflicts, describe(a, b, r))
			}
		}
	}
	return conflicts
}

type clashResult struct {
	found bool
	kind  models.ConflictKind
	ma    models.Meeting
	mb    models.Meeting
}

func clash(a, b *models.Section) clashResult {
	if a.CourseID == b.CourseID {
		return clashResult{found: true, kind: models.ConflictDuplicateCourse}
	}
	for _, ma := range a.Meetings {
		for _, mb := range b.Meetings {
			if MeetingsOverlap(ma, mb) {
				return clashResult{found: true, kind: models.ConflictTime, ma: ma, mb: mb}
			}
		}
	}
	if examsClash(a.FinalExam, b.FinalExam) {
		return clashResult{found: true, kind: models.ConflictFinalExam}
	}
	return clashResult{}
}

func describe(a, b *models.Section, r clashResult) models.Conflict {
	c := models.Conflict{SectionAID: a.ID, SectionBID: b.ID, Kind: r.kind}
	switch r.kind {
	case models.ConflictDuplicateCourse:
		c.Detail = fmt.Sprintf("both sections belong to course %s", a.CourseID)
	case models.ConflictTime:
		start := max(r.ma.StartMinute, r.mb.StartMinute)
		end := min(r.ma.EndMinute, r.mb.EndMinute)
		c.Detail = fmt.Sprintf("%s and %s overlap on %s %s-%s",
			a.CourseID, b.CourseID, (r.ma.Days & r.mb.Days).String(), FormatClock(start), FormatClock(end))
	case models.ConflictFinalExam:
		c.Detail = fmt.Sprintf("%s and %s share a final exam on %s", a.CourseID, b.CourseID, a.FinalExam.Date)
	}
	return c
}

// exams on the same date clash unless both carry times that do not overlap
func examsClash(a, b *models.FinalExam) bool {
	if a == nil || b == nil || a.Date == "" || a.Date != b.Date {
		return false
	}
	if a.StartMinute == nil || a.EndMinute == nil || b.StartMinute == nil || b.EndMinute == nil {
		return true
	}
	return TimeRangesOverlap(*a.StartMinute, *a.EndMinute, *b.StartMinute, *b.EndMinute)
}

func conflictsWithAny(candidate *models.Section, chosen []*models.Section) bool {
	for _, s := range chosen {
		if clash(candidate, s).found {
			return true
		}
	}
	return false
}
