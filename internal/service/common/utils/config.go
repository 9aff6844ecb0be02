package utils

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/skywatch-aero/alertmirror/internal/constants"
)

// ListenerConfig holds the attributes of the HTTP listener.
type ListenerConfig struct {
	Address string
}

// CommonServerConfig carries the server settings shared by every serve command.
type CommonServerConfig struct {
	Listener ListenerConfig
}

const (
	ListenerFlagName = "api-listener-address"
)

// SetCommonServerFlags registers the shared server flags on cmd.
func SetCommonServerFlags(cmd *cobra.Command, config *CommonServerConfig) error {
	flags := cmd.Flags()
	flags.StringVar(
		&config.Listener.Address,
		ListenerFlagName,
		constants.DefaultListenerAddress,
		"API listener address",
	)

	return nil
}

// LoadFromEnv overlays COMMON_ prefixed environment variables onto the flag values.
func (c *CommonServerConfig) LoadFromEnv() error {
	err := envconfig.Process("common", c)
	if err != nil {
		return fmt.Errorf("failed to process environment variables: %w", err)
	}
	return nil
}

// Validate checks that the loaded configuration is usable.
func (c *CommonServerConfig) Validate() error {
	if c.Listener.Address == "" {
		return fmt.Errorf("listener address is required")
	}

	return nil
}
