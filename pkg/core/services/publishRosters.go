package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/section-allocator/internal/config"
	"github.com/jakechorley/section-allocator/pkg/clients/sheetsclient"
	"github.com/jakechorley/section-allocator/pkg/core/coursesystem"
	"github.com/jakechorley/section-allocator/pkg/db"
)

// RosterPublisher writes published rosters to a spreadsheet
type RosterPublisher interface {
	PublishRosters(ctx context.Context, spreadsheetID string, rosters *sheetsclient.PublishedRosters) error
}

// PublishRosters writes the latest run's enrolled students and waitlists to the publish spreadsheet
func PublishRosters(ctx context.Context, store EnrollmentResultsStore, publisher RosterPublisher, cfg *config.Config, logger *zap.Logger) (*sheetsclient.PublishedRosters, error) {
	if cfg.PublishSheetID == "" {
		return nil, errors.New("publishSheetID is not configured")
	}

	results, err := LoadEnrollmentResults(ctx, store, logger, cfg.MaxCredits)
	if err != nil {
		return nil, err
	}

	rosters := buildPublishedRosters(results.Run, results.Courses)

	logger.Debug("Publishing rosters",
		zap.String("sheet_id", cfg.PublishSheetID),
		zap.String("tab", rosters.TabTitle),
		zap.Int("section_count", len(rosters.Sections)))

	if err := publisher.PublishRosters(ctx, cfg.PublishSheetID, rosters); err != nil {
		return nil, fmt.Errorf("failed to publish rosters: %w", err)
	}

	logger.Info("Rosters published",
		zap.String("run_id", results.Run.ID),
		zap.String("tab", rosters.TabTitle))

	return rosters, nil
}

// buildPublishedRosters lists every section in registration order under a tab named after the run
func buildPublishedRosters(run *db.EnrollmentRun, cs *coursesystem.CourseSystem) *sheetsclient.PublishedRosters {
	shortID := run.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	rosters := &sheetsclient.PublishedRosters{
		TabTitle: fmt.Sprintf("Enrollment %s %s", run.FinishedAt.Format("2006-01-02"), shortID),
	}

	for _, section := range cs.Sections() {
		roster := sheetsclient.SectionRoster{
			SectionID: section.ID,
			Title:     section.Title,
			Capacity:  section.Capacity,
			Enrolled:  make([]string, 0, len(section.Enrolled)),
			Waitlist:  make([]string, 0, len(section.Waitlist)),
		}
		for _, student := range section.Enrolled {
			roster.Enrolled = append(roster.Enrolled, student.Name)
		}
		for _, student := range section.Waitlist {
			roster.Waitlist = append(roster.Waitlist, student.Name)
		}
		rosters.Sections = append(rosters.Sections, roster)
	}

	return rosters
}
