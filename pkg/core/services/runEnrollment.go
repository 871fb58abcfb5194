package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jakechorley/section-allocator/pkg/core/allocator"
	"github.com/jakechorley/section-allocator/pkg/core/coursesystem"
	"github.com/jakechorley/section-allocator/pkg/db"
	"github.com/jakechorley/section-allocator/pkg/utils/tracing"
)

// RunEnrollmentStore loads the roster and saves the run
type RunEnrollmentStore interface {
	db.RosterStore
	EnrollmentResultsSaver
}

// RunEnrollmentOptions configures a run
type RunEnrollmentOptions struct {
	Policy     allocator.ScoringPolicy
	MaxCredits float64

	// Seed fixes tie-breaking; nil draws a random seed
	Seed *int64

	// Registerer receives the allocation counters; nil keeps them private to the run
	Registerer prometheus.Registerer

	SinglePlacement  bool
	UseRequiredFlags bool

	// DryRun allocates without saving
	DryRun bool
}

// RunEnrollmentResult summarises a completed run
type RunEnrollmentResult struct {
	Run     *db.EnrollmentRun
	Outcome *allocator.Outcome
	Courses *coursesystem.CourseSystem
}

// RunEnrollment loads the roster, allocates seats and stores the outcome as a new enrollment run
func RunEnrollment(ctx context.Context, store RunEnrollmentStore, logger *zap.Logger, opts RunEnrollmentOptions) (result *RunEnrollmentResult, err error) {
	if opts.Policy == "" {
		opts.Policy = allocator.PolicyBalanced
	}
	if opts.MaxCredits <= 0 {
		opts.MaxCredits = coursesystem.DefaultMaxCredits
	}

	ctx, span := tracing.StartSpan(ctx, "enrollment.run",
		attribute.String("policy", string(opts.Policy)),
		attribute.Float64("max_credits", opts.MaxCredits))
	defer func() { tracing.EndSpan(span, err) }()

	seed := time.Now().UnixNano()
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	span.SetAttributes(attribute.Int64("seed", seed))

	run := &db.EnrollmentRun{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
		Policy:    string(opts.Policy),
		Seed:      &seed,
	}
	logger.Info("Starting enrollment run",
		zap.String("run_id", run.ID),
		zap.String("policy", run.Policy),
		zap.Int64("seed", seed))

	// Load
	loadCtx, loadSpan := tracing.StartSpan(ctx, "enrollment.load")
	cs, err := LoadCourseSystem(loadCtx, store, logger, opts.MaxCredits)
	tracing.EndSpan(loadSpan, err)
	if err != nil {
		return nil, fmt.Errorf("failed to load course system: %w", err)
	}

	// Allocate
	engineOpts := []allocator.Option{
		allocator.WithLogger(logger),
		allocator.WithScoringPolicy(opts.Policy),
		allocator.WithRand(allocator.SeededRand(seed)),
	}
	if opts.Registerer != nil {
		engineOpts = append(engineOpts, allocator.WithMetrics(allocator.NewMetrics(opts.Registerer)))
	}
	if opts.SinglePlacement {
		engineOpts = append(engineOpts, allocator.WithSinglePlacement())
	}
	if opts.UseRequiredFlags {
		engineOpts = append(engineOpts, allocator.WithRequiredFlags())
	}

	allocCtx, allocSpan := tracing.StartSpan(ctx, "enrollment.allocate")
	outcome, err := allocator.New(cs, engineOpts...).Run(allocCtx)
	tracing.EndSpan(allocSpan, err)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate sections: %w", err)
	}

	run.FinishedAt = time.Now()
	run.EnrolledCount = outcome.Enrolled
	run.WaitlistedCount = outcome.Waitlisted
	run.UnplacedCount = countUnplaced(cs)
	run.LookupMisses = outcome.LookupMisses

	// Save
	if opts.DryRun {
		logger.Info("Dry run, enrollment results not saved", zap.String("run_id", run.ID))
	} else {
		saveCtx, saveSpan := tracing.StartSpan(ctx, "enrollment.save")
		err = SaveEnrollmentResults(saveCtx, store, logger, cs, run)
		tracing.EndSpan(saveSpan, err)
		if err != nil {
			return nil, err
		}
	}

	logger.Info("Enrollment run complete",
		zap.String("run_id", run.ID),
		zap.Int("enrolled", run.EnrolledCount),
		zap.Int("waitlisted", run.WaitlistedCount),
		zap.Int("unplaced", run.UnplacedCount),
		zap.Int("lookup_misses", run.LookupMisses),
		zap.Duration("duration", run.FinishedAt.Sub(run.StartedAt)))

	return &RunEnrollmentResult{
		Run:     run,
		Outcome: outcome,
		Courses: cs,
	}, nil
}

// countUnplaced returns the number of students holding no seat
func countUnplaced(cs *coursesystem.CourseSystem) int {
	count := 0
	for _, student := range cs.Students() {
		if len(cs.EnrolledSections(student)) == 0 {
			count++
		}
	}
	return count
}
