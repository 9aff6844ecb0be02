package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// AlertRootCmd represents the root command for working with the alert mirror server
var AlertRootCmd = &cobra.Command{
	Use:   "alert-mirror",
	Short: "All things needed for the alert mirror server",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Nothing to do. Use sub-commands instead.")
	},
}

func GetAlertRootCmd() *cobra.Command {
	return AlertRootCmd
}

func init() {
	configureAlertLogger()
}

func configureAlertLogger() {
	l := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}))
	slog.SetDefault(l)
	slog.Info("Alert mirror global logger configured")
}
