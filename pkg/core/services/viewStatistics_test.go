package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/section-allocator/internal/config"
	"github.com/jakechorley/section-allocator/pkg/db"
)

func TestViewStatistics(t *testing.T) {
	cfg := &config.Config{
		MaxCredits: 5,
		Statistics: config.StatisticsConfig{
			MinCredits:         2,
			LargeWaitlistSize:  1,
			MostRequestedCount: 1,
		},
	}

	report, err := ViewStatistics(context.Background(), storeWithRun(), cfg, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Students)
	assert.Equal(t, 3, report.Enrolled)
	assert.Equal(t, 1, report.Waitlisted)
	assert.Equal(t, 1, report.UnplacedStudents)
	// Alan holds nothing, Grace one credit
	assert.Equal(t, 2, report.UnderEnrolled)
	assert.Equal(t, 1, report.LongWaitlistCount)
	require.Len(t, report.MostRequested, 1)
	// Algebra and Biology are both asked for twice; lower id wins
	assert.Equal(t, "Algebra", report.MostRequested[0].Section.Title)
}

func TestViewStatistics_NoRun(t *testing.T) {
	_, err := ViewStatistics(context.Background(), newScenarioStore(), &config.Config{MaxCredits: 5}, zap.NewNop())
	assert.ErrorIs(t, err, db.ErrNoEnrollmentRun)
}
