package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/section-allocator/pkg/core/services"
)

// PublishRostersCmd creates the publishRosters command
func PublishRostersCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publishRosters",
		Short: "Publish the latest run's section rosters and waitlists to the publish spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sheets, err := app.SheetsClient()
			if err != nil {
				return err
			}

			rosters, err := services.PublishRosters(app.Ctx, app.Database, sheets, app.Cfg, app.Logger)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Rosters published successfully!\n\n")
			fmt.Printf("Tab:      %s\n", rosters.TabTitle)
			fmt.Printf("Sections: %d\n\n", len(rosters.Sections))

			return nil
		},
	}
}
