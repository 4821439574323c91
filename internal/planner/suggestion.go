package planner

import (
	"strings"

	"github.com/noah-isme/course-planner-api/internal/models"
)

// SeedMode tags which path the generator takes for externally suggested seeds.
type SeedMode string

const (
	// SeedModeSeeded means at least one suggested set resolved and seeds the candidate pool.
	SeedModeSeeded SeedMode = "seeded"
	// SeedModeExhaustiveOnly means no usable suggestion was received.
	SeedModeExhaustiveOnly SeedMode = "exhaustive_only"
)

// SeedOutcome is the result of adapting suggested section id sets.
type SeedOutcome struct {
	Mode SeedMode
	// Seeds hold one section per requested course, in requested course order.
	Seeds     [][]*models.Section
	Received  int
	Accepted  int
	Discarded int
}

// Seeded builds the outcome for a non-empty seed list.
func Seeded(seeds [][]*models.Section, received int) SeedOutcome {
	return SeedOutcome{
		Mode:      SeedModeSeeded,
		Seeds:     seeds,
		Received:  received,
		Accepted:  len(seeds),
		Discarded: received - len(seeds),
	}
}

// ExhaustiveOnly builds the outcome when every suggestion was dropped or none was sent.
func ExhaustiveOnly(received int) SeedOutcome {
	return SeedOutcome{Mode: SeedModeExhaustiveOnly, Received: received, Discarded: received}
}

// DiscardRatio is the fraction of received suggestions that were dropped.
func (o SeedOutcome) DiscardRatio() float64 {
	if o.Received == 0 {
		return 0
	}
	return float64(o.Discarded) / float64(o.Received)
}

// sectionIndex resolves section ids against the requested courses.
type sectionIndex struct {
	courseOrder map[string]int
	sections    map[string]*models.Section
	courseCount int
}

func newSectionIndex(courses []models.Course) *sectionIndex {
	idx := &sectionIndex{
		courseOrder: make(map[string]int, len(courses)),
		sections:    make(map[string]*models.Section),
		courseCount: len(courses),
	}
	for i := range courses {
		idx.courseOrder[courses[i].ID] = i
		for j := range courses[i].Sections {
			sec := &courses[i].Sections[j]
			idx.sections[sec.ID] = sec
		}
	}
	return idx
}

// AdaptSuggestions maps untrusted section id sets onto known sections. A set is dropped whole
// when any id is unknown, when two ids resolve to the same course, or when a requested course
// is left uncovered. Dropped sets are never repaired.
func AdaptSuggestions(suggested [][]string, courses []models.Course) SeedOutcome {
	if len(suggested) == 0 {
		return ExhaustiveOnly(0)
	}
	idx := newSectionIndex(courses)
	seeds := make([][]*models.Section, 0, len(suggested))
	for _, ids := range suggested {
		if seed, ok := idx.resolve(ids); ok {
			seeds = append(seeds, seed)
		}
	}
	if len(seeds) == 0 {
		return ExhaustiveOnly(len(suggested))
	}
	return Seeded(seeds, len(suggested))
}

func (idx *sectionIndex) resolve(ids []string) ([]*models.Section, bool) {
	if len(ids) != idx.courseCount {
		return nil, false
	}
	seed := make([]*models.Section, idx.courseCount)
	for _, raw := range ids {
		sec, ok := idx.sections[strings.TrimSpace(raw)]
		if !ok {
			return nil, false
		}
		pos, ok := idx.courseOrder[sec.CourseID]
		if !ok || seed[pos] != nil {
			return nil, false
		}
		seed[pos] = sec
	}
	return seed, true
}
