package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/section-allocator/pkg/core/coursesystem"
	"github.com/jakechorley/section-allocator/pkg/core/model"
	"github.com/jakechorley/section-allocator/pkg/db"
)

// EnrollmentResultsSaver persists an enrollment run
type EnrollmentResultsSaver interface {
	SaveEnrollmentResults(ctx context.Context, run *db.EnrollmentRun, enrollments []db.Enrollment, waitlist []db.WaitlistEntry) error
}

// SaveEnrollmentResults stores every section's enrolled students and waitlist, tagged with the run id
func SaveEnrollmentResults(ctx context.Context, store EnrollmentResultsSaver, logger *zap.Logger, cs *coursesystem.CourseSystem, run *db.EnrollmentRun) error {
	enrollments, waitlist := resultRows(cs, run.ID)

	logger.Debug("Saving enrollment results",
		zap.String("run_id", run.ID),
		zap.Int("enrollments", len(enrollments)),
		zap.Int("waitlist_entries", len(waitlist)))

	if err := store.SaveEnrollmentResults(ctx, run, enrollments, waitlist); err != nil {
		return fmt.Errorf("failed to save enrollment results: %w", err)
	}

	return nil
}

// resultRows flattens the course system into enrollment and waitlist records.
// Waitlist positions are the index in the section's waitlist.
func resultRows(cs *coursesystem.CourseSystem, runID string) ([]db.Enrollment, []db.WaitlistEntry) {
	var enrollments []db.Enrollment
	var waitlist []db.WaitlistEntry

	for _, section := range cs.Sections() {
		for _, student := range section.Enrolled {
			enrollments = append(enrollments, db.Enrollment{
				RunID:     runID,
				SectionID: section.ID,
				StudentID: student.ID,
			})
		}
		for position, student := range section.Waitlist {
			waitlist = append(waitlist, db.WaitlistEntry{
				RunID:     runID,
				SectionID: section.ID,
				StudentID: student.ID,
				Position:  position,
			})
		}
	}

	return enrollments, waitlist
}

// resolve looks up a student and a section by id
func resolve(cs *coursesystem.CourseSystem, studentID, sectionID int) (*model.Student, *model.Section, bool) {
	student, ok := cs.Student(studentID)
	if !ok {
		return nil, nil, false
	}
	section, ok := cs.Section(sectionID)
	if !ok {
		return nil, nil, false
	}
	return student, section, true
}
