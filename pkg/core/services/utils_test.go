package services

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jakechorley/section-allocator/pkg/core/coursesystem"
	"github.com/jakechorley/section-allocator/pkg/db"
)

// mockStore is an in-memory db.Database
type mockStore struct {
	sections    []db.Section
	students    []db.Student
	preferences []db.Preference

	runs        []db.EnrollmentRun
	enrollments []db.Enrollment
	waitlist    []db.WaitlistEntry

	getSectionsErr error
	getStudentsErr error
	saveErr        error
	replaceErr     error

	replaceCalls int
}

func (m *mockStore) GetSections(ctx context.Context) ([]db.Section, error) {
	if m.getSectionsErr != nil {
		return nil, m.getSectionsErr
	}
	return m.sections, nil
}

func (m *mockStore) GetStudents(ctx context.Context) ([]db.Student, error) {
	if m.getStudentsErr != nil {
		return nil, m.getStudentsErr
	}
	return m.students, nil
}

func (m *mockStore) GetPreferences(ctx context.Context) ([]db.Preference, error) {
	return m.preferences, nil
}

func (m *mockStore) ReplaceRoster(ctx context.Context, sections []db.Section, students []db.Student, preferences []db.Preference) error {
	m.replaceCalls++
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.sections = slices.Clone(sections)
	m.students = slices.Clone(students)
	m.preferences = slices.Clone(preferences)
	return nil
}

func (m *mockStore) SaveEnrollmentResults(ctx context.Context, run *db.EnrollmentRun, enrollments []db.Enrollment, waitlist []db.WaitlistEntry) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.runs = append(m.runs, *run)
	m.enrollments = append(m.enrollments, enrollments...)
	m.waitlist = append(m.waitlist, waitlist...)
	return nil
}

func (m *mockStore) GetLatestEnrollmentRun(ctx context.Context) (*db.EnrollmentRun, error) {
	if len(m.runs) == 0 {
		return nil, db.ErrNoEnrollmentRun
	}
	run := m.runs[len(m.runs)-1]
	return &run, nil
}

func (m *mockStore) GetEnrollments(ctx context.Context, runID string) ([]db.Enrollment, error) {
	var out []db.Enrollment
	for _, e := range m.enrollments {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockStore) GetWaitlist(ctx context.Context, runID string) ([]db.WaitlistEntry, error) {
	var out []db.WaitlistEntry
	for _, w := range m.waitlist {
		if w.RunID == runID {
			out = append(out, w)
		}
	}
	return out, nil
}

var _ db.Database = (*mockStore)(nil)

// newScenarioStore holds two sections and three students:
// Algebra (1 seat) wanted first by Ada (Senior) and Alan (Freshman);
// Biology (2 seats) wanted first by Grace (Junior) and second by Ada.
func newScenarioStore() *mockStore {
	return &mockStore{
		sections: []db.Section{
			{ID: 1, Title: "Algebra", Capacity: 1, CreditWeight: 1},
			{ID: 2, Title: "Biology", Capacity: 2, CreditWeight: 1},
		},
		students: []db.Student{
			{ID: 10, Name: "Ada", Email: "ada@example.com", Seniority: "Senior"},
			{ID: 11, Name: "Alan", Email: "alan@example.com", Seniority: "Freshman"},
			{ID: 12, Name: "Grace", Seniority: "Junior"},
		},
		preferences: []db.Preference{
			{StudentID: 10, SectionID: 1, Rank: 0},
			{StudentID: 10, SectionID: 2, Rank: 1},
			{StudentID: 11, SectionID: 1, Rank: 0},
			{StudentID: 12, SectionID: 2, Rank: 0},
		},
	}
}

func seatedIDs(t *testing.T, cs *coursesystem.CourseSystem, sectionID int, waitlist bool) []int {
	t.Helper()

	section, ok := cs.Section(sectionID)
	require.True(t, ok)

	students := section.Enrolled
	if waitlist {
		students = section.Waitlist
	}
	ids := make([]int, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	return ids
}
