package planner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/course-planner-api/internal/models"
)

// DaysOverlap reports whether two day-sets share at least one day.
func DaysOverlap(a, b models.DaySet) bool {
	return a.Overlaps(b)
}

// TimeRangesOverlap treats both ranges as half-open, so back-to-back blocks do not overlap.
func TimeRangesOverlap(s1, e1, s2, e2 int) bool {
	return s1 < e2 && s2 < e1
}

// MeetingsOverlap combines the day and time predicates.
func MeetingsOverlap(a, b models.Meeting) bool {
	return DaysOverlap(a.Days, b.Days) && TimeRangesOverlap(a.StartMinute, a.EndMinute, b.StartMinute, b.EndMinute)
}

// ParseClock converts "HH:MM" or "HH:MM:SS" into a minute of day.
func ParseClock(raw string) (int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", raw, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", raw, err)
	}
	if hour < 0 || hour > 24 || minute < 0 || minute > 59 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("clock %q out of range", raw)
	}
	return hour*60 + minute, nil
}

// FormatClock renders a minute of day as "HH:MM".
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

func validMeeting(m models.Meeting) error {
	if m.Days.Empty() {
		return fmt.Errorf("meeting has no days")
	}
	if m.StartMinute < 0 || m.EndMinute > models.MinutesPerDay {
		return fmt.Errorf("meeting %s-%s outside the day", FormatClock(m.StartMinute), FormatClock(m.EndMinute))
	}
	if m.StartMinute >= m.EndMinute {
		return fmt.Errorf("meeting start %s must be before end %s", FormatClock(m.StartMinute), FormatClock(m.EndMinute))
	}
	return nil
}
