package models

// TimeWindow is a weekly block on the given days, half-open [StartMinute, EndMinute).
type TimeWindow struct {
	Days        DaySet `json:"days"`
	StartMinute int    `json:"startMinute" validate:"min=0,max=1440"`
	EndMinute   int    `json:"endMinute" validate:"min=0,max=1440,gtfield=StartMinute"`
}

// Constraints are hard limits. Nil fields are unconstrained.
type Constraints struct {
	MinCredits       *float64     `json:"minCredits,omitempty" validate:"omitempty,min=0"`
	MaxCredits       *float64     `json:"maxCredits,omitempty" validate:"omitempty,min=0"`
	EarliestStart    *int         `json:"earliestStart,omitempty" validate:"omitempty,min=0,max=1440"`
	LatestEnd        *int         `json:"latestEnd,omitempty" validate:"omitempty,min=0,max=1440"`
	ForbiddenWindows []TimeWindow `json:"forbiddenWindows,omitempty" validate:"dive"`
	MinQualityScore  *float64     `json:"minQualityScore,omitempty" validate:"omitempty,min=0,max=100"`
}

// Preferences are soft weights and instructor lists. Weights are normalised before use.
type Preferences struct {
	WorkloadWeight        float64  `json:"workloadWeight" validate:"min=0"`
	RatingWeight          float64  `json:"ratingWeight" validate:"min=0"`
	TimeFitWeight         float64  `json:"timeFitWeight" validate:"min=0"`
	InstructorMatchWeight float64  `json:"instructorMatchWeight" validate:"min=0"`
	PreferredInstructors  []string `json:"preferredInstructors,omitempty"`
	AvoidedInstructors    []string `json:"avoidedInstructors,omitempty"`
}

// DefaultPreferences mirrors the weights used when a caller sends none.
func DefaultPreferences() Preferences {
	return Preferences{
		WorkloadWeight:        0.3,
		RatingWeight:          0.3,
		TimeFitWeight:         0.2,
		InstructorMatchWeight: 0.2,
	}
}

// ConflictKind classifies a conflict between two sections.
type ConflictKind string

const (
	ConflictTime            ConflictKind = "time"
	ConflictDuplicateCourse ConflictKind = "duplicate_course"
	ConflictFinalExam       ConflictKind = "final_exam"
)

// Conflict describes why two sections cannot be taken together.
type Conflict struct {
	SectionAID string       `json:"sectionAId"`
	SectionBID string       `json:"sectionBId"`
	Kind       ConflictKind `json:"kind"`
	Detail     string       `json:"detail"`
}

// ScoreBreakdown holds the sub-scores behind a quality score.
type ScoreBreakdown struct {
	Workload        float64 `json:"workload"`
	Rating          float64 `json:"rating"`
	TimeFit         float64 `json:"timeFit"`
	InstructorMatch float64 `json:"instructorMatch"`
	// DayBalance is the standard deviation of meeting minutes across weekdays; informational only.
	DayBalance float64 `json:"dayBalance"`
}

// ScheduleOption is a validated, scored, conflict-free schedule.
type ScheduleOption struct {
	ID           string         `json:"id"`
	Rank         int            `json:"rank"`
	Sections     []Section      `json:"sections"`
	TotalCredits float64        `json:"totalCredits"`
	QualityScore float64        `json:"qualityScore"`
	Breakdown    ScoreBreakdown `json:"breakdown"`
	Conflicts    []Conflict     `json:"conflicts"`
}

// SectionIDs lists the section ids in schedule order.
func (o ScheduleOption) SectionIDs() []string {
	ids := make([]string, 0, len(o.Sections))
	for _, s := range o.Sections {
		ids = append(ids, s.ID)
	}
	return ids
}
