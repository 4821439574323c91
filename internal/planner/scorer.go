package planner

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/noah-isme/course-planner-api/internal/models"
)

const (
	// neutralMetric stands in for missing instructor rating or workload data.
	neutralMetric = 3.0

	earlyStartCutoff    = 9 * 60
	lateStartCutoff     = 19 * 60
	timeSlotPenalty     = 30.0
	instructorMatchBase = 75.0
	instructorMatchStep = 10.0
)

// Weights are the normalised preference weights; they sum to 1.
type Weights struct {
	Workload        float64 `json:"workload"`
	Rating          float64 `json:"rating"`
	TimeFit         float64 `json:"timeFit"`
	InstructorMatch float64 `json:"instructorMatch"`
}

// NormalizeWeights scales the four preference weights to sum to 1.
// All-zero weights fall back to an even split.
func NormalizeWeights(p models.Preferences) (Weights, error) {
	raw := []float64{p.WorkloadWeight, p.RatingWeight, p.TimeFitWeight, p.InstructorMatchWeight}
	var sum float64
	for _, w := range raw {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return Weights{}, fmt.Errorf("preference weights must be finite and non-negative")
		}
		sum += w
	}
	if sum == 0 {
		return Weights{Workload: 0.25, Rating: 0.25, TimeFit: 0.25, InstructorMatch: 0.25}, nil
	}
	return Weights{
		Workload:        raw[0] / sum,
		Rating:          raw[1] / sum,
		TimeFit:         raw[2] / sum,
		InstructorMatch: raw[3] / sum,
	}, nil
}

// Scorer computes the 0-100 composite quality score. It holds no mutable state and is
// safe for concurrent use.
type Scorer struct {
	weights   Weights
	preferred map[string]struct{}
	avoided   map[string]struct{}
}

// NewScorer validates preferences and prepares instructor lookups.
func NewScorer(p models.Preferences) (*Scorer, error) {
	weights, err := NormalizeWeights(p)
	if err != nil {
		return nil, err
	}
	return &Scorer{
		weights:   weights,
		preferred: nameSet(p.PreferredInstructors),
		avoided:   nameSet(p.AvoidedInstructors),
	}, nil
}

// Weights returns the normalised weights in use.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score returns the composite score and its breakdown for a set of sections.
func (s *Scorer) Score(sections []models.Section) (float64, models.ScoreBreakdown) {
	breakdown := models.ScoreBreakdown{
		Workload:        WorkloadScore(sections),
		Rating:          RatingScore(sections),
		TimeFit:         TimeFitScore(sections),
		InstructorMatch: s.InstructorMatchScore(sections),
		DayBalance:      DayBalance(sections),
	}
	composite := s.weights.Workload*breakdown.Workload +
		s.weights.Rating*breakdown.Rating +
		s.weights.TimeFit*breakdown.TimeFit +
		s.weights.InstructorMatch*breakdown.InstructorMatch
	return round4(clamp(composite, 0, 100)), breakdown
}

// WorkloadScore is (5 - average instructor workload) * 20.
func WorkloadScore(sections []models.Section) float64 {
	avg := instructorAverage(sections, func(i models.Instructor) *float64 { return i.Workload })
	return clamp((5-avg)*20, 0, 100)
}

// RatingScore is average instructor rating * 20.
func RatingScore(sections []models.Section) float64 {
	avg := instructorAverage(sections, func(i models.Instructor) *float64 { return i.Rating })
	return clamp(avg*20, 0, 100)
}

// TimeFitScore starts every section at 100, subtracts a penalty for each meeting starting
// before 09:00 and each starting at or after 19:00, clamps at 0 and averages across sections.
func TimeFitScore(sections []models.Section) float64 {
	if len(sections) == 0 {
		return 100
	}
	perSection := make([]float64, 0, len(sections))
	for _, sec := range sections {
		score := 100.0
		for _, m := range sec.Meetings {
			if m.StartMinute < earlyStartCutoff {
				score -= timeSlotPenalty
			}
			if m.StartMinute >= lateStartCutoff {
				score -= timeSlotPenalty
			}
		}
		perSection = append(perSection, math.Max(0, score))
	}
	return stat.Mean(perSection, nil)
}

// InstructorMatchScore adds a flat bonus per section taught by a preferred instructor and a
// flat penalty per section taught by an avoided one, from a base of 75.
func (s *Scorer) InstructorMatchScore(sections []models.Section) float64 {
	score := instructorMatchBase
	for _, sec := range sections {
		if s.sectionMatches(sec, s.preferred) {
			score += instructorMatchStep
		}
		if s.sectionMatches(sec, s.avoided) {
			score -= instructorMatchStep
		}
	}
	return clamp(score, 0, 100)
}

// DayBalance is the population standard deviation of meeting minutes per active weekday.
func DayBalance(sections []models.Section) float64 {
	var perDay [7]float64
	for _, sec := range sections {
		for _, m := range sec.Meetings {
			for i, day := range models.AllDays.Days() {
				if m.Days.Has(day) {
					perDay[i] += float64(m.EndMinute - m.StartMinute)
				}
			}
		}
	}
	active := make([]float64, 0, len(perDay))
	for _, minutes := range perDay {
		if minutes > 0 {
			active = append(active, minutes)
		}
	}
	if len(active) < 2 {
		return 0
	}
	_, std := stat.PopMeanStdDev(active, nil)
	return round4(std)
}

func (s *Scorer) sectionMatches(sec models.Section, names map[string]struct{}) bool {
	if len(names) == 0 {
		return false
	}
	for _, inst := range sec.Instructors {
		if _, ok := names[normalizeName(inst.Name)]; ok {
			return true
		}
	}
	return false
}

func instructorAverage(sections []models.Section, pick func(models.Instructor) *float64) float64 {
	var values []float64
	for _, sec := range sections {
		for _, inst := range sec.Instructors {
			if v := pick(inst); v != nil {
				values = append(values, *v)
			} else {
				values = append(values, neutralMetric)
			}
		}
	}
	if len(values) == 0 {
		return neutralMetric
	}
	return stat.Mean(values, nil)
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if key := normalizeName(n); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
