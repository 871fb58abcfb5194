package allocator

import (
	"math/rand/v2"

	"github.com/jakechorley/section-allocator/pkg/core/coursesystem"
	"github.com/jakechorley/section-allocator/pkg/core/model"
)

// EnrollmentState is the run-scoped state shared between the engine and its candidate orderer
type EnrollmentState struct {
	// Courses is the system being allocated. All seat changes go through it.
	Courses *coursesystem.CourseSystem

	// Scorer maps preferences to priority scores
	Scorer *PriorityScorer

	// Rand breaks ties between candidates that cannot otherwise be separated
	Rand *rand.Rand

	// PriorityOffset holds each student's displacement penalty, keyed by student id.
	// Starts at 0 and is decremented each time a section closes on the student.
	PriorityOffset map[int]int

	// Candidates holds the students still contending for each open section, keyed by section id.
	// A section is removed once it closes.
	Candidates map[int][]*model.Student

	// UseRequiredFlags scores each preference with its own required flag
	// instead of treating every preference as required
	UseRequiredFlags bool
}

// BasePriority returns the table score of the student's preference for the section
func (s *EnrollmentState) BasePriority(student *model.Student, section *model.Section) int {
	required := true
	if s.UseRequiredFlags {
		required = student.IsRequired(section)
	}
	return s.Scorer.CalculatePriority(student.PreferenceRank(section), student, required)
}

// FinalPriority returns the student's score for the section including their displacement penalty
func (s *EnrollmentState) FinalPriority(student *model.Student, section *model.Section) int {
	return s.BasePriority(student, section) + s.PriorityOffset[student.ID]
}

// IsCandidate returns true if the student is still contending for the section
func (s *EnrollmentState) IsCandidate(student *model.Student, section *model.Section) bool {
	for _, candidate := range s.Candidates[section.ID] {
		if candidate.ID == student.ID {
			return true
		}
	}
	return false
}

// removeCandidate drops the student from one section's candidate list
func (s *EnrollmentState) removeCandidate(sectionID int, student *model.Student) {
	candidates, ok := s.Candidates[sectionID]
	if !ok {
		return
	}
	kept := candidates[:0]
	for _, candidate := range candidates {
		if candidate.ID != student.ID {
			kept = append(kept, candidate)
		}
	}
	s.Candidates[sectionID] = kept
}

// removeEverywhere drops the student from every open section's candidate list
func (s *EnrollmentState) removeEverywhere(student *model.Student) {
	for sectionID := range s.Candidates {
		s.removeCandidate(sectionID, student)
	}
}
