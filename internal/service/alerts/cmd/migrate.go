package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/skywatch-aero/alertmirror/internal/service/alerts"
)

// alertsMigrate represents the migrate command
var alertsMigrate = &cobra.Command{
	Use:   "migrate",
	Short: "Run migrations all the way up",
	Long:  `This runs before the server starts and brings the mirror schema up to date.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := alerts.StartAlertsMigration(); err != nil {
			slog.Error("failed to do migration", "err", err)
			os.Exit(1)
		}
	},
}

func init() {
	AlertRootCmd.AddCommand(alertsMigrate)
}
