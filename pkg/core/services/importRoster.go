package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/section-allocator/internal/config"
	"github.com/jakechorley/section-allocator/pkg/clients/sheetsclient"
	"github.com/jakechorley/section-allocator/pkg/core/coursesystem"
	"github.com/jakechorley/section-allocator/pkg/core/model"
	"github.com/jakechorley/section-allocator/pkg/db"
)

// ErrUnknownReference is returned when a preference names a student or section missing from the roster
var ErrUnknownReference = errors.New("unknown reference")

// RosterReader reads the roster spreadsheet
type RosterReader interface {
	ReadRoster(ctx context.Context, cfg *config.Config) (*sheetsclient.Roster, error)
}

// RosterReplacer swaps the stored roster for a new one
type RosterReplacer interface {
	ReplaceRoster(ctx context.Context, sections []db.Section, students []db.Student, preferences []db.Preference) error
}

// ImportRoster reads the roster spreadsheet, validates it and replaces the stored roster
func ImportRoster(ctx context.Context, reader RosterReader, store RosterReplacer, cfg *config.Config, logger *zap.Logger) (*sheetsclient.Roster, error) {
	logger.Debug("Reading roster spreadsheet", zap.String("sheet_id", cfg.RosterSheetID))

	roster, err := reader.ReadRoster(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}

	if err := ValidateRoster(roster); err != nil {
		return nil, fmt.Errorf("invalid roster: %w", err)
	}

	if err := store.ReplaceRoster(ctx, roster.Sections, roster.Students, roster.Preferences); err != nil {
		return nil, fmt.Errorf("failed to replace roster: %w", err)
	}

	logger.Info("Roster imported",
		zap.Int("section_count", len(roster.Sections)),
		zap.Int("student_count", len(roster.Students)),
		zap.Int("preference_count", len(roster.Preferences)))

	return roster, nil
}

// ValidateRoster rejects duplicate ids, unknown seniorities, dangling preferences and
// repeated ranks or sections within a student's list. Seniority names are normalised in place.
func ValidateRoster(roster *sheetsclient.Roster) error {
	if len(roster.Sections) == 0 {
		return ErrNoSections
	}
	if len(roster.Students) == 0 {
		return ErrNoStudents
	}

	sectionIDs := make(map[int]bool, len(roster.Sections))
	for _, s := range roster.Sections {
		if sectionIDs[s.ID] {
			return fmt.Errorf("section %d: %w", s.ID, coursesystem.ErrDuplicateEntity)
		}
		sectionIDs[s.ID] = true
	}

	studentIDs := make(map[int]bool, len(roster.Students))
	for i := range roster.Students {
		s := &roster.Students[i]
		if studentIDs[s.ID] {
			return fmt.Errorf("student %d: %w", s.ID, coursesystem.ErrDuplicateEntity)
		}
		studentIDs[s.ID] = true

		seniority, err := model.ParseSeniority(s.Seniority)
		if err != nil {
			return fmt.Errorf("student %d: %w", s.ID, err)
		}
		s.Seniority = seniority.String()
	}

	type studentRank struct{ student, rank int }
	type studentSection struct{ student, section int }
	ranks := make(map[studentRank]bool, len(roster.Preferences))
	requested := make(map[studentSection]bool, len(roster.Preferences))

	for _, p := range roster.Preferences {
		if !studentIDs[p.StudentID] {
			return fmt.Errorf("preference names student %d: %w", p.StudentID, ErrUnknownReference)
		}
		if !sectionIDs[p.SectionID] {
			return fmt.Errorf("preference of student %d names section %d: %w", p.StudentID, p.SectionID, ErrUnknownReference)
		}

		rk := studentRank{p.StudentID, p.Rank}
		if ranks[rk] {
			return fmt.Errorf("student %d rank %d: %w", p.StudentID, p.Rank+1, coursesystem.ErrDuplicateEntity)
		}
		ranks[rk] = true

		sk := studentSection{p.StudentID, p.SectionID}
		if requested[sk] {
			return fmt.Errorf("student %d requests section %d twice: %w", p.StudentID, p.SectionID, coursesystem.ErrDuplicateEntity)
		}
		requested[sk] = true
	}

	return nil
}
