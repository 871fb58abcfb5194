package commands

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jakechorley/section-allocator/pkg/core/services"
)

// NotifyStudentsCmd creates the notifyStudents command
func NotifyStudentsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifyStudents",
		Short: "Email every student their enrolled sections and waitlist positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			var sender services.EmailSender
			if !dryRun {
				gmail, err := app.GmailClient()
				if err != nil {
					return err
				}
				sender = gmail
			}

			result, err := services.NotifyStudents(app.Ctx, app.Database, sender, app.Cfg, app.Logger, dryRun)
			if err != nil {
				return err
			}

			printNotifyResult(os.Stdout, result, dryRun)
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Print the notices instead of sending them")

	return cmd
}

func printNotifyResult(w io.Writer, result *services.NotifyResult, dryRun bool) {
	if dryRun {
		fmt.Fprintf(w, "\nDRY RUN: %d notices would be sent\n\n", len(result.Pending))
		for _, notice := range result.Pending {
			fmt.Fprintf(w, "To: %s\nSubject: %s\n\n%s\n---\n", notice.To, notice.Subject, notice.Body)
		}
	} else {
		fmt.Fprintf(w, "\n✓ Notices sent to %d students\n\n", len(result.Sent))
		for _, notice := range result.Sent {
			fmt.Fprintf(w, "  ✓ %s\n", notice.To)
		}
	}

	if len(result.Failures) > 0 {
		ids := make([]int, 0, len(result.Failures))
		for id := range result.Failures {
			ids = append(ids, id)
		}
		slices.Sort(ids)

		fmt.Fprintf(w, "\n⚠️  Failed to send %d notices:\n", len(ids))
		for _, id := range ids {
			fmt.Fprintf(w, "  ✗ student %d: %v\n", id, result.Failures[id])
		}
	}

	if len(result.SkippedStudents) > 0 {
		fmt.Fprintf(w, "\nSkipped %d students without an email address\n", len(result.SkippedStudents))
	}
	fmt.Fprintln(w)
}
