package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSeniority is returned when a seniority name cannot be parsed
var ErrUnknownSeniority = errors.New("unknown seniority")

// Seniority is a student's class year. Only its rank is used during allocation.
type Seniority int

const (
	Freshman Seniority = iota
	Sophomore
	Junior
	Senior
)

// SeniorityLevels is the number of seniority categories
const SeniorityLevels = 4

var seniorityNames = [SeniorityLevels]string{"Freshman", "Sophomore", "Junior", "Senior"}

func (s Seniority) IsValid() bool {
	return s >= Freshman && s <= Senior
}

func (s Seniority) String() string {
	if !s.IsValid() {
		return fmt.Sprintf("Seniority(%d)", int(s))
	}
	return seniorityNames[s]
}

// Rank returns the ordinal of the seniority (Freshman = 0, Senior = 3)
func (s Seniority) Rank() int {
	return int(s)
}

// ParseSeniority converts a class year name (case-insensitive) into a Seniority
func ParseSeniority(name string) (Seniority, error) {
	trimmed := strings.TrimSpace(name)
	for i, candidate := range seniorityNames {
		if strings.EqualFold(candidate, trimmed) {
			return Seniority(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSeniority, name)
}

// Preference is a section a student asked for. Its rank is its index in the student's list.
type Preference struct {
	Section  *Section
	Required bool
}

// Student represents a student taking part in allocation. Identity is the ID.
type Student struct {
	ID          int
	Name        string
	Email       string // Empty if the student should not be notified
	Seniority   Seniority
	Preferences []Preference
}

// NewStudent creates a student with an empty preference list
func NewStudent(id int, name string, seniority Seniority) *Student {
	return &Student{
		ID:          id,
		Name:        name,
		Seniority:   seniority,
		Preferences: []Preference{},
	}
}

// AddPreference appends a section to the end of the student's preference list
func (s *Student) AddPreference(section *Section, required bool) {
	s.Preferences = append(s.Preferences, Preference{Section: section, Required: required})
}

// PreferenceRank returns the index of the section in the student's preference list,
// or -1 if the student did not ask for it
func (s *Student) PreferenceRank(section *Section) int {
	if section == nil {
		return -1
	}
	for i, p := range s.Preferences {
		if p.Section != nil && p.Section.ID == section.ID {
			return i
		}
	}
	return -1
}

// PreferenceRankOf returns the index of the given preference. An exact match wins;
// otherwise the rank of the preference's section is returned (-1 if absent).
func (s *Student) PreferenceRankOf(pref Preference) int {
	for i, p := range s.Preferences {
		if p == pref {
			return i
		}
	}
	return s.PreferenceRank(pref.Section)
}

// IsRequired reports whether the student flagged the section as required
func (s *Student) IsRequired(section *Section) bool {
	rank := s.PreferenceRank(section)
	if rank < 0 {
		return false
	}
	return s.Preferences[rank].Required
}

func (s *Student) String() string {
	return fmt.Sprintf("Student{id=%d, name=%q, seniority=%s}", s.ID, s.Name, s.Seniority)
}

// Section is a capacity-limited course section. Identity is the ID.
type Section struct {
	ID           int
	Title        string
	Capacity     int
	CreditWeight float64

	// Enrolled students in enrollment order
	Enrolled []*Student

	// Waitlist in displacement order (index 0 is first in line)
	Waitlist []*Student
}

// NewSection creates a section with empty enrolled and waitlist collections
func NewSection(id int, title string, capacity int, creditWeight float64) *Section {
	return &Section{
		ID:           id,
		Title:        title,
		Capacity:     capacity,
		CreditWeight: creditWeight,
		Enrolled:     []*Student{},
		Waitlist:     []*Student{},
	}
}

// OpenSeats returns the number of seats still available
func (s *Section) OpenSeats() int {
	return max(s.Capacity-len(s.Enrolled), 0)
}

// HasOpenSeat returns true if at least one seat is available
func (s *Section) HasOpenSeat() bool {
	return s.OpenSeats() > 0
}

// IsEnrolled returns true if the student holds a seat in this section
func (s *Section) IsEnrolled(student *Student) bool {
	return indexOf(s.Enrolled, student) >= 0
}

// WaitlistPosition returns the student's position on the waitlist, or -1
func (s *Section) WaitlistPosition(student *Student) int {
	return indexOf(s.Waitlist, student)
}

// IsWaitlisted returns true if the student is on this section's waitlist
func (s *Section) IsWaitlisted(student *Student) bool {
	return s.WaitlistPosition(student) >= 0
}

func (s *Section) String() string {
	return fmt.Sprintf("%d:%s", s.ID, s.Title)
}

func indexOf(students []*Student, student *Student) int {
	if student == nil {
		return -1
	}
	for i, candidate := range students {
		if candidate.ID == student.ID {
			return i
		}
	}
	return -1
}
