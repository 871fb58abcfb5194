package coursesystem

import (
	"errors"
	"fmt"

	"github.com/jakechorley/section-allocator/pkg/core/model"
)

// DefaultMaxCredits is the credit load a student may hold concurrently
const DefaultMaxCredits = 5.0

// creditEpsilon absorbs float error when summing fractional credit weights
const creditEpsilon = 1e-9

// ErrDuplicateEntity is returned when registering a student or section whose id already exists
var ErrDuplicateEntity = errors.New("duplicate entity")

// CourseSystem owns every student and section taking part in an allocation run.
// Enrollment and waitlist changes must go through it so credit totals stay in sync.
type CourseSystem struct {
	sections     []*model.Section
	students     []*model.Student
	sectionsByID map[int]*model.Section
	studentsByID map[int]*model.Student

	// enrolledCredits caches each student's credit total, keyed by student id
	enrolledCredits map[int]float64

	maxCredits float64
}

// Option configures a CourseSystem
type Option func(*CourseSystem)

// WithMaxCredits overrides the credit cap (DefaultMaxCredits)
func WithMaxCredits(maxCredits float64) Option {
	return func(cs *CourseSystem) {
		cs.maxCredits = maxCredits
	}
}

// New creates an empty CourseSystem
func New(opts ...Option) *CourseSystem {
	cs := &CourseSystem{
		sections:        []*model.Section{},
		students:        []*model.Student{},
		sectionsByID:    make(map[int]*model.Section),
		studentsByID:    make(map[int]*model.Student),
		enrolledCredits: make(map[int]float64),
		maxCredits:      DefaultMaxCredits,
	}
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

// AddStudent registers a student
func (cs *CourseSystem) AddStudent(student *model.Student) error {
	if _, exists := cs.studentsByID[student.ID]; exists {
		return fmt.Errorf("student %d (%s): %w", student.ID, student.Name, ErrDuplicateEntity)
	}
	cs.students = append(cs.students, student)
	cs.studentsByID[student.ID] = student
	return nil
}

// AddSection registers a section. Students already enrolled in it count toward their credit totals.
func (cs *CourseSystem) AddSection(section *model.Section) error {
	if _, exists := cs.sectionsByID[section.ID]; exists {
		return fmt.Errorf("section %d (%s): %w", section.ID, section.Title, ErrDuplicateEntity)
	}
	cs.sections = append(cs.sections, section)
	cs.sectionsByID[section.ID] = section
	for _, student := range section.Enrolled {
		cs.enrolledCredits[student.ID] += section.CreditWeight
	}
	return nil
}

// Students returns all registered students in registration order. The slice must not be modified.
func (cs *CourseSystem) Students() []*model.Student {
	return cs.students
}

// Sections returns all registered sections in registration order. The slice must not be modified.
func (cs *CourseSystem) Sections() []*model.Section {
	return cs.sections
}

// Student looks up a registered student by id
func (cs *CourseSystem) Student(id int) (*model.Student, bool) {
	student, ok := cs.studentsByID[id]
	return student, ok
}

// Section looks up a registered section by id
func (cs *CourseSystem) Section(id int) (*model.Section, bool) {
	section, ok := cs.sectionsByID[id]
	return section, ok
}

// MaxCredits returns the credit cap applied to every student
func (cs *CourseSystem) MaxCredits() float64 {
	return cs.maxCredits
}

// Enroll seats the student in the section if they are eligible.
// Returns false, without changing anything, if they are not.
func (cs *CourseSystem) Enroll(student *model.Student, section *model.Section) bool {
	if !cs.CanEnroll(student, section) {
		return false
	}
	section.Enrolled = append(section.Enrolled, student)
	cs.enrolledCredits[student.ID] += section.CreditWeight
	return true
}

// CanEnroll returns true if both are registered, the student is not already enrolled,
// the student has credit space for the section and the section has a free seat
func (cs *CourseSystem) CanEnroll(student *model.Student, section *model.Section) bool {
	return cs.isRegisteredSection(section) &&
		cs.isRegisteredStudent(student) &&
		!cs.IsEnrolled(student, section) &&
		cs.StudentHasSpace(student) &&
		cs.fitsCreditCap(student, section) &&
		cs.SectionHasSpace(section)
}

// AddToWaitlist appends the student to the section's waitlist unless already present
func (cs *CourseSystem) AddToWaitlist(student *model.Student, section *model.Section) {
	if section.IsWaitlisted(student) {
		return
	}
	section.Waitlist = append(section.Waitlist, student)
}

// IsEnrolled returns true if the student holds a seat in the section
func (cs *CourseSystem) IsEnrolled(student *model.Student, section *model.Section) bool {
	return section.IsEnrolled(student)
}

// SectionHasSpace returns true if the section is under capacity
func (cs *CourseSystem) SectionHasSpace(section *model.Section) bool {
	return section.HasOpenSeat()
}

// EnrolledCredits returns the sum of credit weights of the student's enrolled sections
func (cs *CourseSystem) EnrolledCredits(student *model.Student) float64 {
	return cs.enrolledCredits[student.ID]
}

// HasMaxCredits returns true if the student has reached the credit cap
func (cs *CourseSystem) HasMaxCredits(student *model.Student) bool {
	return cs.EnrolledCredits(student) >= cs.maxCredits-creditEpsilon
}

// StudentHasSpace returns true if the student is below the credit cap
func (cs *CourseSystem) StudentHasSpace(student *model.Student) bool {
	return !cs.HasMaxCredits(student)
}

// EnrolledSections returns the sections the student holds a seat in, in registration order
func (cs *CourseSystem) EnrolledSections(student *model.Student) []*model.Section {
	var sections []*model.Section
	for _, section := range cs.sections {
		if section.IsEnrolled(student) {
			sections = append(sections, section)
		}
	}
	return sections
}

// WaitlistedSections returns the sections whose waitlist holds the student, in registration order
func (cs *CourseSystem) WaitlistedSections(student *model.Student) []*model.Section {
	var sections []*model.Section
	for _, section := range cs.sections {
		if section.IsWaitlisted(student) {
			sections = append(sections, section)
		}
	}
	return sections
}

// fitsCreditCap returns true if taking the section keeps the student within the cap
func (cs *CourseSystem) fitsCreditCap(student *model.Student, section *model.Section) bool {
	return cs.EnrolledCredits(student)+section.CreditWeight <= cs.maxCredits+creditEpsilon
}

func (cs *CourseSystem) isRegisteredStudent(student *model.Student) bool {
	if student == nil {
		return false
	}
	_, ok := cs.studentsByID[student.ID]
	return ok
}

func (cs *CourseSystem) isRegisteredSection(section *model.Section) bool {
	if section == nil {
		return false
	}
	_, ok := cs.sectionsByID[section.ID]
	return ok
}
