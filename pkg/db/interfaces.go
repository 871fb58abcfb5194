package db

import (
	"context"
	"errors"
)

// ErrNoEnrollmentRun is returned when no enrollment run has been recorded
var ErrNoEnrollmentRun = errors.New("no enrollment run found")

// RosterStore defines the interface for roster database operations
type RosterStore interface {
	GetSections(ctx context.Context) ([]Section, error)
	GetStudents(ctx context.Context) ([]Student, error)
	GetPreferences(ctx context.Context) ([]Preference, error)
}

// ResultStore defines the interface for enrollment result database operations
type ResultStore interface {
	// SaveEnrollmentResults stores the run record together with its enrollments and waitlists
	SaveEnrollmentResults(ctx context.Context, run *EnrollmentRun, enrollments []Enrollment, waitlist []WaitlistEntry) error
	GetLatestEnrollmentRun(ctx context.Context) (*EnrollmentRun, error)
	GetEnrollments(ctx context.Context, runID string) ([]Enrollment, error)
	GetWaitlist(ctx context.Context, runID string) ([]WaitlistEntry, error)
}

// Database defines the interface for all database operations.
// postgres.DB implements this interface.
type Database interface {
	RosterStore
	ResultStore
	ReplaceRoster(ctx context.Context, sections []Section, students []Student, preferences []Preference) error
}
