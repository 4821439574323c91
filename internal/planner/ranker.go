package planner

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/noah-isme/course-planner-api/internal/models"
)

const (
	// DefaultMaxOptions applies when a request does not ask for a count.
	DefaultMaxOptions = 5
	// MaxOptionsCap is the hard ceiling on returned options.
	MaxOptionsCap = 20
)

// ScheduleID hashes the sorted section id set so identical selections share an identity
// regardless of the order they were produced in.
func ScheduleID(sectionIDs []string) string {
	ids := append([]string(nil), sectionIDs...)
	sort.Strings(ids)
	sum := xxhash.Sum64String(strings.Join(ids, "\x1f"))
	return fmt.Sprintf("%016x", sum)
}

// IdealCredits picks the credit target for the distance tie-break: an explicit target, the
// midpoint of both bounds, or whichever single bound is set.
func IdealCredits(c models.Constraints, explicit *float64) float64 {
	switch {
	case explicit != nil:
		return *explicit
	case c.MinCredits != nil && c.MaxCredits != nil:
		return (*c.MinCredits + *c.MaxCredits) / 2
	case c.MinCredits != nil:
		return *c.MinCredits
	case c.MaxCredits != nil:
		return *c.MaxCredits
	default:
		return 0
	}
}

// Rank drops duplicate schedules, orders the rest and keeps the top maxOptions with 1-based ranks.
// maxOptions is used as given; zero or less means DefaultMaxOptions.
// Order: quality descending, fewer conflicts, credits closer to ideal, then id for a total order.
func Rank(options []models.ScheduleOption, maxOptions int, ideal float64) []models.ScheduleOption {
	seen := make(map[string]struct{}, len(options))
	unique := make([]models.ScheduleOption, 0, len(options))
	for _, opt := range options {
		if opt.ID == "" {
			opt.ID = ScheduleID(opt.SectionIDs())
		}
		if _, dup := seen[opt.ID]; dup {
			continue
		}
		seen[opt.ID] = struct{}{}
		unique = append(unique, opt)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		a, b := unique[i], unique[j]
		if a.QualityScore != b.QualityScore {
			return a.QualityScore > b.QualityScore
		}
		if len(a.Conflicts) != len(b.Conflicts) {
			return len(a.Conflicts) < len(b.Conflicts)
		}
		da, db := math.Abs(a.TotalCredits-ideal), math.Abs(b.TotalCredits-ideal)
		if da != db {
			return da < db
		}
		return a.ID < b.ID
	})

	limit := maxOptions
	if limit <= 0 {
		limit = DefaultMaxOptions
	}
	if len(unique) > limit {
		unique = unique[:limit]
	}
	for i := range unique {
		unique[i].Rank = i + 1
	}
	return unique
}

// ClampMaxOptions resolves a requested option count against a default and a hard cap.
func ClampMaxOptions(requested, def, ceiling int) int {
	if def <= 0 {
		def = DefaultMaxOptions
	}
	if ceiling <= 0 {
		ceiling = MaxOptionsCap
	}
	if requested <= 0 {
		requested = def
	}
	return min(requested, ceiling)
}
