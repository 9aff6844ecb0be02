/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"log/slog"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Names of build settings we are interested on:
const (
	vcsRevisionSettingKey = "vcs.revision"
	vcsTimeSettingKey     = "vcs.time"
)

// Fallback value for unknown settings:
const unknownSettingValue = "unknown"

// alertsVersion represents the version command
var alertsVersion = &cobra.Command{
	Use:   "version",
	Short: "Prints version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		buildCommit := buildSetting(vcsRevisionSettingKey)
		buildTime := buildSetting(vcsTimeSettingKey)
		slog.Info("Version",
			slog.String("commit", buildCommit),
			slog.String("time", buildTime),
		)
	},
}

// buildSetting returns the value of the build setting with the given key, or
// the unknown fallback if the binary carries no such setting.
func buildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return unknownSettingValue
	}
	for _, s := range info.Settings {
		if s.Key == key && s.Value != "" {
			return s.Value
		}
	}
	return unknownSettingValue
}

func init() {
	AlertRootCmd.AddCommand(alertsVersion)
}
