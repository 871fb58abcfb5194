package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/section-allocator/pkg/db"
)

// SaveEnrollmentResults inserts the run record, its enrollments and its waitlist entries in one transaction
func (d *DB) SaveEnrollmentResults(ctx context.Context, run *db.EnrollmentRun, enrollments []db.Enrollment, waitlist []db.WaitlistEntry) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO enrollment_run (id, started_at, finished_at, policy, seed,
			enrolled_count, waitlisted_count, unplaced_count, lookup_misses)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Policy, run.Seed,
		run.EnrolledCount, run.WaitlistedCount, run.UnplacedCount, run.LookupMisses)
	if err != nil {
		return fmt.Errorf("failed to insert enrollment run: %w", err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"enrolled"},
		[]string{"run_id", "section_id", "student_id"},
		pgx.CopyFromSlice(len(enrollments), func(i int) ([]any, error) {
			e := enrollments[i]
			return []any{e.RunID, e.SectionID, e.StudentID}, nil
		}))
	if err != nil {
		return fmt.Errorf("failed to insert enrollments: %w", err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"waitlist"},
		[]string{"run_id", "section_id", "student_id", "position"},
		pgx.CopyFromSlice(len(waitlist), func(i int) ([]any, error) {
			w := waitlist[i]
			return []any{w.RunID, w.SectionID, w.StudentID, w.Position}, nil
		}))
	if err != nil {
		return fmt.Errorf("failed to insert waitlist: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetLatestEnrollmentRun returns the most recently finished run, or db.ErrNoEnrollmentRun
func (d *DB) GetLatestEnrollmentRun(ctx context.Context) (*db.EnrollmentRun, error) {
	var run db.EnrollmentRun
	err := d.pool.QueryRow(ctx, `
		SELECT id::text, started_at, finished_at, policy, seed,
			enrolled_count, waitlisted_count, unplaced_count, lookup_misses
		FROM enrollment_run
		ORDER BY finished_at DESC
		LIMIT 1
	`).Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Policy, &run.Seed,
		&run.EnrolledCount, &run.WaitlistedCount, &run.UnplacedCount, &run.LookupMisses)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNoEnrollmentRun
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest enrollment run: %w", err)
	}

	return &run, nil
}

// GetEnrollments retrieves the enrollments recorded by a run
func (d *DB) GetEnrollments(ctx context.Context, runID string) ([]db.Enrollment, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT run_id::text, section_id, student_id
		FROM enrolled
		WHERE run_id = $1
		ORDER BY section_id, student_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []db.Enrollment
	for rows.Next() {
		var e db.Enrollment
		if err := rows.Scan(&e.RunID, &e.SectionID, &e.StudentID); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollments: %w", err)
	}

	return enrollments, nil
}

// GetWaitlist retrieves the waitlist entries recorded by a run, in position order per section
func (d *DB) GetWaitlist(ctx context.Context, runID string) ([]db.WaitlistEntry, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT run_id::text, section_id, student_id, position
		FROM waitlist
		WHERE run_id = $1
		ORDER BY section_id, position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query waitlist: %w", err)
	}
	defer rows.Close()

	var entries []db.WaitlistEntry
	for rows.Next() {
		var w db.WaitlistEntry
		if err := rows.Scan(&w.RunID, &w.SectionID, &w.StudentID, &w.Position); err != nil {
			return nil, fmt.Errorf("failed to scan waitlist entry: %w", err)
		}
		entries = append(entries, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating waitlist: %w", err)
	}

	return entries, nil
}
