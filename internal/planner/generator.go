package planner

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/course-planner-api/internal/models"
)

const (
	creditEpsilon = 1e-9
	// ctxCheckInterval is how many node expansions pass between cancellation checks.
	ctxCheckInterval = 64
)

// searchSpace is the per-request view the generator explores: courses in requested order,
// each with its filtered and ordered section list.
type searchSpace struct {
	courses   []models.Course
	options   [][]*models.Section
	allowed   map[*models.Section]struct{}
	credits   []float64
	suffixMax []float64
	min       *float64
	max       *float64
}

func newSearchSpace(courses []models.Course, c models.Constraints, excludeFull bool) *searchSpace {
	s := &searchSpace{
		courses:   courses,
		options:   make([][]*models.Section, len(courses)),
		allowed:   make(map[*models.Section]struct{}),
		credits:   make([]float64, len(courses)),
		suffixMax: make([]float64, len(courses)+1),
		min:       c.MinCredits,
		max:       c.MaxCredits,
	}
	for i := range courses {
		s.credits[i] = courses[i].Credits
		var open, full []*models.Section
		for j := range courses[i].Sections {
			sec := &courses[i].Sections[j]
			if !sectionAllowed(sec, c) {
				continue
			}
			if sec.IsFull() {
				if excludeFull {
					continue
				}
				full = append(full, sec)
				continue
			}
			open = append(open, sec)
		}
		s.options[i] = append(open, full...)
		for _, sec := range s.options[i] {
			s.allowed[sec] = struct{}{}
		}
	}
	for i := len(courses) - 1; i >= 0; i-- {
		s.suffixMax[i] = s.suffixMax[i+1] + s.credits[i]
	}
	return s
}

// sectionAllowed applies the per-section hard constraints: earliest start, latest end and
// forbidden windows.
func sectionAllowed(sec *models.Section, c models.Constraints) bool {
	for _, m := range sec.Meetings {
		if c.EarliestStart != nil && m.StartMinute < *c.EarliestStart {
			return false
		}
		if c.LatestEnd != nil && m.EndMinute > *c.LatestEnd {
			return false
		}
		for _, w := range c.ForbiddenWindows {
			if DaysOverlap(m.Days, w.Days) && TimeRangesOverlap(m.StartMinute, m.EndMinute, w.StartMinute, w.EndMinute) {
				return false
			}
		}
	}
	return true
}

// creditsFeasible reports whether a running total can still end inside the credit bounds
// once the courses from depth onward are added.
func (s *searchSpace) creditsFeasible(running float64, depth int) bool {
	if s.max != nil && running > *s.max+creditEpsilon {
		return false
	}
	if s.min != nil && running+s.suffixMax[depth] < *s.min-creditEpsilon {
		return false
	}
	return true
}

func (s *searchSpace) totalCredits(sections []*models.Section) float64 {
	var total float64
	for i := range sections {
		total += s.credits[i]
	}
	return total
}

// validateSeeds keeps seeds whose sections survive the constraint filter, do not conflict
// and land inside the credit bounds.
func (s *searchSpace) validateSeeds(seeds [][]*models.Section) [][]*models.Section {
	valid := make([][]*models.Section, 0, len(seeds))
	for _, seed := range seeds {
		if s.seedValid(seed) {
			valid = append(valid, seed)
		}
	}
	return valid
}

func (s *searchSpace) seedValid(seed []*models.Section) bool {
	if len(seed) != len(s.courses) {
		return false
	}
	for i, sec := range seed {
		if _, ok := s.allowed[sec]; !ok {
			return false
		}
		if conflictsWithAny(sec, seed[:i]) {
			return false
		}
	}
	return s.creditsFeasible(s.totalCredits(seed), len(seed))
}

// searchStats summarises one exhaustive run.
type searchStats struct {
	Explored        int
	BudgetExhausted bool
	Cancelled       bool
}

// branchResult is the outcome of one top-level branch of the search.
type branchResult struct {
	found     [][]*models.Section
	explored  int
	budgetHit bool
	cancelled bool
}

// exhaustive enumerates one section per course in requested order. Each section of the first
// course is an independent branch; branches run on a bounded worker pool with a fixed share of
// the budget so the result does not depend on scheduling.
func (s *searchSpace) exhaustive(ctx context.Context, budget, workers int) ([][]*models.Section, searchStats) {
	if len(s.courses) == 0 || !s.creditsFeasible(s.credits[0], 1) {
		return nil, searchStats{}
	}
	roots := s.options[0]
	if len(roots) == 0 {
		return nil, searchStats{}
	}
	shares := splitBudget(budget, len(roots))
	results := make([]branchResult, len(roots))

	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	for i, root := range roots {
		i, root := i, root
		if shares[i] == 0 {
			results[i].budgetHit = true
			continue
		}
		g.Go(func() error {
			w := &walker{space: s, ctx: ctx, budget: shares[i]}
			w.descend(root)
			results[i] = branchResult{
				found:     w.found,
				explored:  w.explored,
				budgetHit: w.budgetHit,
				cancelled: w.cancelled,
			}
			return nil
		})
	}
	_ = g.Wait()

	var (
		found [][]*models.Section
		stats searchStats
	)
	for _, r := range results {
		found = append(found, r.found...)
		stats.Explored += r.explored
		stats.BudgetExhausted = stats.BudgetExhausted || r.budgetHit
		stats.Cancelled = stats.Cancelled || r.cancelled
	}
	return found, stats
}

// splitBudget divides budget over n branches, handing the remainder to the earliest ones.
func splitBudget(budget, n int) []int {
	shares := make([]int, n)
	if n == 0 || budget <= 0 {
		return shares
	}
	base, rem := budget/n, budget%n
	for i := range shares {
		shares[i] = base
		if i < rem {
			shares[i]++
		}
	}
	return shares
}

type walker struct {
	space     *searchSpace
	ctx       context.Context
	budget    int
	explored  int
	chosen    []*models.Section
	running   float64
	found     [][]*models.Section
	budgetHit bool
	cancelled bool
}

func (w *walker) halted() bool {
	if w.budgetHit || w.cancelled {
		return true
	}
	if w.explored >= w.budget {
		w.budgetHit = true
		return true
	}
	if w.explored%ctxCheckInterval == 0 && w.ctx.Err() != nil {
		w.cancelled = true
		return true
	}
	return false
}

// descend places root as the first course's section and explores the rest.
func (w *walker) descend(root *models.Section) {
	if w.halted() {
		return
	}
	w.explored++
	w.push(root, 0)
	w.place(1)
	w.pop(0)
}

func (w *walker) place(depth int) {
	s := w.space
	if depth == len(s.courses) {
		selection := make([]*models.Section, len(w.chosen))
		copy(selection, w.chosen)
		w.found = append(w.found, selection)
		return
	}
	// every section of a course carries the same credits, so the bound holds for the whole level
	if !s.creditsFeasible(w.running+s.credits[depth], depth+1) {
		return
	}
	for _, sec := range s.options[depth] {
		if w.halted() {
			return
		}
		w.explored++
		if conflictsWithAny(sec, w.chosen) {
			continue
		}
		w.push(sec, depth)
		w.place(depth + 1)
		w.pop(depth)
	}
}

func (w *walker) push(sec *models.Section, depth int) {
	w.chosen = append(w.chosen, sec)
	w.running += w.space.credits[depth]
}

func (w *walker) pop(depth int) {
	w.chosen = w.chosen[:len(w.chosen)-1]
	w.running -= w.space.credits[depth]
}
