/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/skywatch-aero/alertmirror/internal/service/alerts"
	"github.com/skywatch-aero/alertmirror/internal/service/alerts/api"
	svcutils "github.com/skywatch-aero/alertmirror/internal/service/common/utils"
)

const configFlagName = "config"

var config api.AlertServerConfig

// alertsServe represents the start server command
var alertsServe = &cobra.Command{
	Use:   "serve",
	Short: "Start alert mirror server",
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.LoadFromEnv(); err != nil {
			slog.Error("failed to load environment variables", "err", err)
			os.Exit(1)
		}
		if config.ConfigFile != "" {
			if err := config.LoadFromFile(config.ConfigFile); err != nil {
				slog.Error("failed to load config file", "err", err)
				os.Exit(1)
			}
		}
		if err := config.Validate(); err != nil {
			slog.Error("failed to validate server configuration", "err", err)
			os.Exit(1)
		}
		if err := alerts.Serve(&config); err != nil {
			slog.Error("failed to start alert mirror server", "err", err)
			os.Exit(1)
		}
	},
}

// setServerFlags creates the flag instances for the server
func setServerFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if err := svcutils.SetCommonServerFlags(cmd, &config.CommonServerConfig); err != nil {
		return fmt.Errorf("could not set common server flags: %w", err)
	}
	flags.StringVar(
		&config.ConfigFile,
		configFlagName,
		"",
		"Optional YAML config file overlaid on top of the environment.",
	)
	return nil
}

func init() {
	if err := setServerFlags(alertsServe); err != nil {
		panic(err)
	}
	AlertRootCmd.AddCommand(alertsServe)
}
