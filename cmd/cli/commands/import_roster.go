package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/section-allocator/pkg/core/services"
)

// ImportRosterCmd creates the importRoster command
func ImportRosterCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "importRoster",
		Short: "Replace the stored sections, students and preferences with the roster spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sheets, err := app.SheetsClient()
			if err != nil {
				return err
			}

			roster, err := services.ImportRoster(app.Ctx, sheets, app.Database, app.Cfg, app.Logger)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Roster imported successfully!\n\n")
			fmt.Printf("Sections:    %d\n", len(roster.Sections))
			fmt.Printf("Students:    %d\n", len(roster.Students))
			fmt.Printf("Preferences: %d\n\n", len(roster.Preferences))

			return nil
		},
	}
}
