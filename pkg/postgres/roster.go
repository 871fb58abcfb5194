package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/section-allocator/pkg/db"
)

// GetSections retrieves all section records ordered by id
func (d *DB) GetSections(ctx context.Context) ([]db.Section, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, title, capacity, credit_weight
		FROM section
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sections: %w", err)
	}

	sections, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (db.Section, error) {
		var s db.Section
		err := row.Scan(&s.ID, &s.Title, &s.Capacity, &s.CreditWeight)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan sections: %w", err)
	}

	return sections, nil
}

// GetStudents retrieves all student records ordered by id
func (d *DB) GetStudents(ctx context.Context) ([]db.Student, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, email, seniority
		FROM student
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []db.Student
	for rows.Next() {
		var s db.Student
		var email *string
		if err := rows.Scan(&s.ID, &s.Name, &email, &s.Seniority); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		if email != nil {
			s.Email = *email
		}
		students = append(students, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating students: %w", err)
	}

	return students, nil
}

// GetPreferences retrieves all preference records ordered by student then rank
func (d *DB) GetPreferences(ctx context.Context) ([]db.Preference, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT student_id, section_id, rank, required
		FROM preference
		ORDER BY student_id, rank
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}

	preferences, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (db.Preference, error) {
		var p db.Preference
		err := row.Scan(&p.StudentID, &p.SectionID, &p.Rank, &p.Required)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan preferences: %w", err)
	}

	return preferences, nil
}

// ReplaceRoster deletes the current roster and inserts the given one in a single transaction
func (d *DB) ReplaceRoster(ctx context.Context, sections []db.Section, students []db.Student, preferences []db.Preference) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Preferences cascade from students and sections
	if _, err := tx.Exec(ctx, `DELETE FROM student`); err != nil {
		return fmt.Errorf("failed to clear students: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM section`); err != nil {
		return fmt.Errorf("failed to clear sections: %w", err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"section"},
		[]string{"id", "title", "capacity", "credit_weight"},
		pgx.CopyFromSlice(len(sections), func(i int) ([]any, error) {
			s := sections[i]
			return []any{s.ID, s.Title, s.Capacity, s.CreditWeight}, nil
		}))
	if err != nil {
		return fmt.Errorf("failed to insert sections: %w", err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"student"},
		[]string{"id", "name", "email", "seniority"},
		pgx.CopyFromSlice(len(students), func(i int) ([]any, error) {
			s := students[i]
			var email *string
			if s.Email != "" {
				email = &s.Email
			}
			return []any{s.ID, s.Name, email, s.Seniority}, nil
		}))
	if err != nil {
		return fmt.Errorf("failed to insert students: %w", err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"preference"},
		[]string{"student_id", "section_id", "rank", "required"},
		pgx.CopyFromSlice(len(preferences), func(i int) ([]any, error) {
			p := preferences[i]
			return []any{p.StudentID, p.SectionID, p.Rank, p.Required}, nil
		}))
	if err != nil {
		return fmt.Errorf("failed to insert preferences: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
