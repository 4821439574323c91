package models

// MinutesPerDay bounds minute-of-day values.
const MinutesPerDay = 24 * 60

// Meeting is a recurring weekly block. StartMinute < EndMinute, both minute-of-day.
type Meeting struct {
	Days        DaySet  `db:"days" json:"days"`
	StartMinute int     `db:"start_minute" json:"startMinute" validate:"min=0,max=1440"`
	EndMinute   int     `db:"end_minute" json:"endMinute" validate:"min=0,max=1440,gtfield=StartMinute"`
	Location    *string `db:"location" json:"location,omitempty"`
}

// Instructor teaches a section. Rating and Workload are on a 0-5 scale when present.
type Instructor struct {
	Name     string   `db:"name" json:"name" validate:"required"`
	Rating   *float64 `db:"rating" json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
	Workload *float64 `db:"workload" json:"workload,omitempty" validate:"omitempty,min=0,max=5"`
}

// FinalExam is the optional exam slot of a section. Date is an opaque calendar key such as "2025-12-14".
type FinalExam struct {
	Date        string `json:"date" validate:"required"`
	StartMinute *int   `json:"startMinute,omitempty" validate:"omitempty,min=0,max=1440"`
	EndMinute   *int   `json:"endMinute,omitempty" validate:"omitempty,min=0,max=1440"`
}

// Section is one offered instance of a course, treated as a read-only snapshot.
type Section struct {
	ID          string       `json:"id" validate:"required"`
	CourseID    string       `json:"courseId"`
	Meetings    []Meeting    `json:"meetings" validate:"dive"`
	Capacity    *int         `json:"capacity,omitempty" validate:"omitempty,min=0"`
	Enrolled    *int         `json:"enrolled,omitempty" validate:"omitempty,min=0"`
	Instructors []Instructor `json:"instructors" validate:"dive"`
	FinalExam   *FinalExam   `json:"finalExam,omitempty"`
}

// IsFull reports whether the enrollment snapshot has reached capacity.
func (s Section) IsFull() bool {
	if s.Capacity == nil || s.Enrolled == nil {
		return false
	}
	return *s.Enrolled >= *s.Capacity
}

// Course groups candidate sections under a credit value.
type Course struct {
	ID       string    `json:"id" validate:"required"`
	Title    string    `json:"title,omitempty"`
	Credits  float64   `json:"credits" validate:"min=0"`
	Sections []Section `json:"sections" validate:"dive"`
}
