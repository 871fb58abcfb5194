package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/section-allocator/internal/config"
	"github.com/jakechorley/section-allocator/pkg/core/allocator"
	"github.com/jakechorley/section-allocator/pkg/core/services"
	"github.com/jakechorley/section-allocator/pkg/utils/tracing"
)

const serviceName = "section-allocator"

// RunEnrollmentCmd creates the runEnrollment command
func RunEnrollmentCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runEnrollment",
		Short: "Allocate section seats from the stored roster and save the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			policyName, _ := cmd.Flags().GetString("policy")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			singlePlacement, _ := cmd.Flags().GetBool("single-placement")
			requiredFlags, _ := cmd.Flags().GetBool("required-flags")
			metricsFile, _ := cmd.Flags().GetString("metrics-file")
			traceFile, _ := cmd.Flags().GetString("trace-file")

			policy, err := resolvePolicy(policyName, app.Cfg)
			if err != nil {
				return err
			}

			var seed *int64
			if cmd.Flags().Changed("seed") {
				value, _ := cmd.Flags().GetInt64("seed")
				seed = &value
			} else {
				seed = app.Cfg.RandomSeed
			}

			if traceFile != "" {
				provider, err := tracing.Init(serviceName, traceFile)
				if err != nil {
					return fmt.Errorf("failed to initialize tracing: %w", err)
				}
				defer func() {
					if err := provider.Shutdown(app.Ctx); err != nil {
						app.Logger.Warn("Failed to flush traces", zap.Error(err))
					}
				}()
			}

			registry := prometheus.NewRegistry()

			app.Logger.Debug("runEnrollment command",
				zap.String("policy", string(policy)),
				zap.Bool("dry_run", dryRun),
				zap.Bool("single_placement", singlePlacement),
				zap.Bool("required_flags", requiredFlags))

			result, err := services.RunEnrollment(app.Ctx, app.Database, app.Logger, services.RunEnrollmentOptions{
				Policy:           policy,
				MaxCredits:       app.Cfg.MaxCredits,
				Seed:             seed,
				Registerer:       registry,
				SinglePlacement:  singlePlacement,
				UseRequiredFlags: requiredFlags,
				DryRun:           dryRun,
			})
			if err != nil {
				return err
			}

			if metricsFile != "" {
				if err := prometheus.WriteToTextfile(metricsFile, registry); err != nil {
					return fmt.Errorf("failed to write metrics file: %w", err)
				}
				app.Logger.Info("Metrics written", zap.String("path", metricsFile))
			}

			printRunSummary(os.Stdout, result, dryRun)

			return nil
		},
	}

	cmd.Flags().String("policy", "", "Scoring policy: balanced or jagged (defaults to the config value)")
	cmd.Flags().Int64("seed", 0, "Seed for tie-breaking (defaults to the config value, then a random seed)")
	cmd.Flags().Bool("dry-run", false, "Allocate without saving to the database")
	cmd.Flags().Bool("single-placement", false, "Enroll each student in at most one section")
	cmd.Flags().Bool("required-flags", false, "Score preferences by their own required flag instead of treating all as required")
	cmd.Flags().String("metrics-file", "", "Write allocation counters in Prometheus text format to this file")
	cmd.Flags().String("trace-file", "", "Write trace spans as JSON to this file")

	return cmd
}

// resolvePolicy prefers the flag value over the configured policy
func resolvePolicy(flagValue string, cfg *config.Config) (allocator.ScoringPolicy, error) {
	name := flagValue
	if name == "" {
		name = cfg.ScoringPolicy
	}
	return allocator.ParseScoringPolicy(name)
}

func printRunSummary(w io.Writer, result *services.RunEnrollmentResult, dryRun bool) {
	run := result.Run

	if dryRun {
		fmt.Fprintf(w, "\n✓ Enrollment dry run completed (results not saved)\n\n")
	} else {
		fmt.Fprintf(w, "\n✓ Enrollment run completed successfully!\n\n")
	}

	fmt.Fprintf(w, "Run ID:     %s\n", run.ID)
	fmt.Fprintf(w, "Policy:     %s\n", run.Policy)
	if run.Seed != nil {
		fmt.Fprintf(w, "Seed:       %d\n", *run.Seed)
	}
	fmt.Fprintf(w, "Enrolled:   %d\n", run.EnrolledCount)
	fmt.Fprintf(w, "Waitlisted: %d\n", run.WaitlistedCount)
	fmt.Fprintf(w, "Unplaced:   %d\n", run.UnplacedCount)
	if run.LookupMisses > 0 {
		fmt.Fprintf(w, "Lookup misses: %d\n", run.LookupMisses)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Sections:\n")
	for _, section := range result.Courses.Sections() {
		fmt.Fprintf(w, "  %-6d %-30s %d/%d enrolled", section.ID, section.Title, len(section.Enrolled), section.Capacity)
		if len(section.Waitlist) > 0 {
			fmt.Fprintf(w, ", %d waitlisted", len(section.Waitlist))
		}
		fmt.Fprintln(w)
	}

	var titles []string
	for _, section := range result.Outcome.OpenSections {
		if section.HasOpenSeat() {
			titles = append(titles, section.Title)
		}
	}
	if len(titles) > 0 {
		fmt.Fprintf(w, "\nSections with open seats: %s\n", strings.Join(titles, ", "))
	}
	fmt.Fprintln(w)
}
