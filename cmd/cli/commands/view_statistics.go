package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/section-allocator/pkg/core/services"
)

// ViewStatisticsCmd creates the viewStatistics command
func ViewStatisticsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "viewStatistics",
		Short: "Show enrollment statistics for the latest run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := services.ViewStatistics(app.Ctx, app.Database, app.Cfg, app.Logger)
			if err != nil {
				return err
			}

			fmt.Printf("\n%s\n", report.String())
			return nil
		},
	}
}
