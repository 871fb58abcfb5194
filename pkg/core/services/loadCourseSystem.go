package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/jakechorley/section-allocator/pkg/core/coursesystem"
	"github.com/jakechorley/section-allocator/pkg/core/model"
	"github.com/jakechorley/section-allocator/pkg/db"
)

var (
	ErrNoSections    = errors.New("no sections in roster")
	ErrNoStudents    = errors.New("no students in roster")
	ErrNoPreferences = errors.New("no preferences in roster")
)

// LoadCourseSystem reads the roster from the store and builds a CourseSystem with every
// student's preferences resolved against the loaded sections
func LoadCourseSystem(ctx context.Context, store db.RosterStore, logger *zap.Logger, maxCredits float64) (*coursesystem.CourseSystem, error) {
	logger.Debug("Loading roster")

	sections, err := store.GetSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sections: %w", err)
	}
	if len(sections) == 0 {
		return nil, ErrNoSections
	}

	students, err := store.GetStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch students: %w", err)
	}
	if len(students) == 0 {
		return nil, ErrNoStudents
	}

	preferences, err := store.GetPreferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch preferences: %w", err)
	}
	if len(preferences) == 0 {
		return nil, ErrNoPreferences
	}

	logger.Debug("Roster fetched",
		zap.Int("section_count", len(sections)),
		zap.Int("student_count", len(students)),
		zap.Int("preference_count", len(preferences)))

	return buildCourseSystem(sections, students, preferences, maxCredits, logger)
}

// buildCourseSystem converts roster records into a CourseSystem. Preferences are attached in
// rank order; a preference naming an unknown student or section is skipped with a warning.
func buildCourseSystem(sections []db.Section, students []db.Student, preferences []db.Preference, maxCredits float64, logger *zap.Logger) (*coursesystem.CourseSystem, error) {
	if maxCredits <= 0 {
		maxCredits = coursesystem.DefaultMaxCredits
	}
	cs := coursesystem.New(coursesystem.WithMaxCredits(maxCredits))

	for _, s := range sections {
		if err := cs.AddSection(model.NewSection(s.ID, s.Title, s.Capacity, s.CreditWeight)); err != nil {
			return nil, fmt.Errorf("failed to add section: %w", err)
		}
	}

	for _, s := range students {
		seniority, err := model.ParseSeniority(s.Seniority)
		if err != nil {
			return nil, fmt.Errorf("student %d: %w", s.ID, err)
		}
		student := model.NewStudent(s.ID, s.Name, seniority)
		student.Email = s.Email
		if err := cs.AddStudent(student); err != nil {
			return nil, fmt.Errorf("failed to add student: %w", err)
		}
	}

	ordered := slices.Clone(preferences)
	slices.SortStableFunc(ordered, func(a, b db.Preference) int {
		if c := cmp.Compare(a.StudentID, b.StudentID); c != 0 {
			return c
		}
		return cmp.Compare(a.Rank, b.Rank)
	})

	for _, p := range ordered {
		student, ok := cs.Student(p.StudentID)
		if !ok {
			logger.Warn("Preference names an unknown student, skipping",
				zap.Int("student_id", p.StudentID),
				zap.Int("section_id", p.SectionID))
			continue
		}
		section, ok := cs.Section(p.SectionID)
		if !ok {
			logger.Warn("Preference names an unknown section, skipping",
				zap.Int("student_id", p.StudentID),
				zap.Int("section_id", p.SectionID))
			continue
		}
		student.AddPreference(section, p.Required)
	}

	return cs, nil
}
