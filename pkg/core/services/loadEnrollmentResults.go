package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/jakechorley/section-allocator/pkg/core/coursesystem"
	"github.com/jakechorley/section-allocator/pkg/db"
)

// EnrollmentResultsStore reads the roster and the recorded outcome of past runs
type EnrollmentResultsStore interface {
	db.RosterStore
	GetLatestEnrollmentRun(ctx context.Context) (*db.EnrollmentRun, error)
	GetEnrollments(ctx context.Context, runID string) ([]db.Enrollment, error)
	GetWaitlist(ctx context.Context, runID string) ([]db.WaitlistEntry, error)
}

// EnrollmentResults is a stored run replayed onto a freshly loaded CourseSystem
type EnrollmentResults struct {
	Run     *db.EnrollmentRun
	Courses *coursesystem.CourseSystem
}

// LoadEnrollmentResults rebuilds the CourseSystem as the latest enrollment run left it
func LoadEnrollmentResults(ctx context.Context, store EnrollmentResultsStore, logger *zap.Logger, maxCredits float64) (*EnrollmentResults, error) {
	run, err := store.GetLatestEnrollmentRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest enrollment run: %w", err)
	}

	logger.Debug("Loading enrollment run",
		zap.String("run_id", run.ID),
		zap.Time("finished_at", run.FinishedAt))

	cs, err := LoadCourseSystem(ctx, store, logger, maxCredits)
	if err != nil {
		return nil, err
	}

	enrollments, err := store.GetEnrollments(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch enrollments: %w", err)
	}

	for _, e := range enrollments {
		student, section, ok := resolve(cs, e.StudentID, e.SectionID)
		if !ok {
			logger.Warn("Enrollment references a record no longer in the roster",
				zap.Int("student_id", e.StudentID),
				zap.Int("section_id", e.SectionID))
			continue
		}
		if !cs.Enroll(student, section) {
			logger.Warn("Stored enrollment no longer fits capacity or credit cap",
				zap.Int("student_id", e.StudentID),
				zap.Int("section_id", e.SectionID))
		}
	}

	waitlist, err := store.GetWaitlist(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch waitlist: %w", err)
	}

	ordered := slices.Clone(waitlist)
	slices.SortStableFunc(ordered, func(a, b db.WaitlistEntry) int {
		if c := cmp.Compare(a.SectionID, b.SectionID); c != 0 {
			return c
		}
		return cmp.Compare(a.Position, b.Position)
	})

	for _, w := range ordered {
		student, section, ok := resolve(cs, w.StudentID, w.SectionID)
		if !ok {
			logger.Warn("Waitlist entry references a record no longer in the roster",
				zap.Int("student_id", w.StudentID),
				zap.Int("section_id", w.SectionID))
			continue
		}
		cs.AddToWaitlist(student, section)
	}

	return &EnrollmentResults{Run: run, Courses: cs}, nil
}
