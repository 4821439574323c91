package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DaySet is the canonical weekday representation. Bit 0 is Monday, bit 6 is Sunday.
type DaySet uint8

const (
	Monday DaySet = 1 << iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// AllDays covers the full week.
const AllDays DaySet = Monday | Tuesday | Wednesday | Thursday | Friday | Saturday | Sunday

var orderedDays = []struct {
	day  DaySet
	code string
	name string
}{
	{Monday, "M", "MONDAY"},
	{Tuesday, "T", "TUESDAY"},
	{Wednesday, "W", "WEDNESDAY"},
	{Thursday, "Th", "THURSDAY"},
	{Friday, "F", "FRIDAY"},
	{Saturday, "Sa", "SATURDAY"},
	{Sunday, "Su", "SUNDAY"},
}

// whole-token aliases checked before the letter scan
var dayWordIndex = map[string]DaySet{
	"MON": Monday, "MONDAY": Monday,
	"TUE": Tuesday, "TUES": Tuesday, "TUESDAY": Tuesday,
	"WED": Wednesday, "WEDNESDAY": Wednesday,
	"THU": Thursday, "THUR": Thursday, "THURS": Thursday, "THURSDAY": Thursday,
	"FRI": Friday, "FRIDAY": Friday,
	"SAT": Saturday, "SATURDAY": Saturday,
	"SUN": Sunday, "SUNDAY": Sunday,
}

// letter tokens, longest first so "TH" wins over "T"
var dayLetterTokens = []struct {
	token string
	day   DaySet
}{
	{"TH", Thursday},
	{"TU", Tuesday},
	{"SA", Saturday},
	{"SU", Sunday},
	{"M", Monday},
	{"T", Tuesday},
	{"W", Wednesday},
	{"R", Thursday},
	{"F", Friday},
	{"U", Sunday},
}

// ParseDayLetters parses letter encodings such as "MWF", "TTH", "TuTh", "MTWRF" or "Mon,Wed".
func ParseDayLetters(raw string) (DaySet, error) {
	fields := strings.FieldsFunc(strings.ToUpper(raw), func(r rune) bool {
		return r == ',' || r == '/' || r == ' ' || r == '-' || r == ';' || r == '|'
	})
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty day string")
	}
	var set DaySet
	for _, field := range fields {
		if day, ok := dayWordIndex[field]; ok {
			set |= day
			continue
		}
		parsed, err := scanDayLetters(field)
		if err != nil {
			return 0, fmt.Errorf("parse days %q: %w", raw, err)
		}
		set |= parsed
	}
	return set, nil
}

func scanDayLetters(field string) (DaySet, error) {
	var set DaySet
	for i := 0; i < len(field); {
		matched := false
		for _, tok := range dayLetterTokens {
			if strings.HasPrefix(field[i:], tok.token) {
				set |= tok.day
				i += len(tok.token)
				matched = true
				break
			}
		}
		if !matched {
			return 0, fmt.Errorf("unknown day token at %q", field[i:])
		}
	}
	return set, nil
}

// DaySetFromMask converts a 7-bit mask (bit 0 = Monday) into a DaySet.
func DaySetFromMask(mask int) (DaySet, error) {
	if mask < 0 || mask > int(AllDays) {
		return 0, fmt.Errorf("day mask %d out of range", mask)
	}
	return DaySet(mask), nil
}

// NewDaySet builds a set from individual days.
func NewDaySet(days ...DaySet) DaySet {
	var set DaySet
	for _, d := range days {
		set |= d
	}
	return set
}

// Overlaps reports a non-empty intersection.
func (d DaySet) Overlaps(other DaySet) bool {
	return d&other != 0
}

// Has reports whether day is part of the set.
func (d DaySet) Has(day DaySet) bool {
	return d&day == day && day != 0
}

// Empty reports whether no day is set.
func (d DaySet) Empty() bool {
	return d&AllDays == 0
}

// Count returns the number of days in the set.
func (d DaySet) Count() int {
	n := 0
	for _, od := range orderedDays {
		if d&od.day != 0 {
			n++
		}
	}
	return n
}

// Days lists the individual days in week order.
func (d DaySet) Days() []DaySet {
	var out []DaySet
	for _, od := range orderedDays {
		if d&od.day != 0 {
			out = append(out, od.day)
		}
	}
	return out
}

// String renders the compact code, e.g. "MWF" or "TTh".
func (d DaySet) String() string {
	var b strings.Builder
	for _, od := range orderedDays {
		if d&od.day != 0 {
			b.WriteString(od.code)
		}
	}
	return b.String()
}

// Names renders full weekday names.
func (d DaySet) Names() []string {
	var out []string
	for _, od := range orderedDays {
		if d&od.day != 0 {
			out = append(out, od.name)
		}
	}
	return out
}

// MarshalJSON encodes the set as its compact letter code.
func (d DaySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a letter string, a numeric mask, or an array of day names.
func (d *DaySet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = 0
		return nil
	}
	switch data[0] {
	case '"':
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		set, err := ParseDayLetters(raw)
		if err != nil {
			return err
		}
		*d = set
		return nil
	case '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		set, err := ParseDayLetters(strings.Join(items, ","))
		if err != nil {
			return err
		}
		*d = set
		return nil
	default:
		var mask int
		if err := json.Unmarshal(data, &mask); err != nil {
			return fmt.Errorf("days must be a string, array or mask: %w", err)
		}
		set, err := DaySetFromMask(mask)
		if err != nil {
			return err
		}
		*d = set
		return nil
	}
}

// Scan implements sql.Scanner for letter-coded or integer mask columns.
func (d *DaySet) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = 0
		return nil
	case int64:
		set, err := DaySetFromMask(int(v))
		if err != nil {
			return err
		}
		*d = set
		return nil
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("unsupported days column type %T", src)
	}
}

func (d *DaySet) scanString(raw string) error {
	if strings.TrimSpace(raw) == "" {
		*d = 0
		return nil
	}
	set, err := ParseDayLetters(raw)
	if err != nil {
		return err
	}
	*d = set
	return nil
}
