package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/section-allocator/internal/config"
	"github.com/jakechorley/section-allocator/pkg/core/statistics"
)

// ViewStatistics builds the statistics report for the latest enrollment run
func ViewStatistics(ctx context.Context, store EnrollmentResultsStore, cfg *config.Config, logger *zap.Logger) (*statistics.Report, error) {
	results, err := LoadEnrollmentResults(ctx, store, logger, cfg.MaxCredits)
	if err != nil {
		return nil, err
	}

	report := statistics.BuildReport(results.Courses, statistics.Thresholds{
		MinCredits:         cfg.Statistics.MinCredits,
		LargeWaitlistSize:  cfg.Statistics.LargeWaitlistSize,
		MostRequestedCount: cfg.Statistics.MostRequestedCount,
	})

	logger.Debug("Statistics generated",
		zap.String("run_id", results.Run.ID),
		zap.Int("under_enrolled", report.UnderEnrolled),
		zap.Int("long_waitlists", report.LongWaitlistCount))

	return report, nil
}
