/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

//go:debug http2server=0

package main

import (
	"fmt"
	"os"

	alertscmd "github.com/skywatch-aero/alertmirror/internal/service/alerts/cmd"
)

func main() {
	if err := alertscmd.GetAlertRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(1)
	}
}
