// SPDX-FileCopyrightText: Red Hat
//
// SPDX-License-Identifier: Apache-2.0
package api

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/aeroapi"
	"github.com/skywatch-aero/alertmirror/internal/service/common/db"
	svcutils "github.com/skywatch-aero/alertmirror/internal/service/common/utils"
)

// AlertServerConfig defines the attributes for an instance of the alert
// mirror server.
type AlertServerConfig struct {
	// Listener address comes from flags or the common env prefix, not from
	// the flat env processing below.
	svcutils.CommonServerConfig `ignored:"true"`
	// Database holds the mirror connection attributes
	Database db.PgConfig
	// AeroAPI holds the remote alerting service connection attributes
	AeroAPI aeroapi.Config
	// DefaultEvents is a comma-separated list of event names applied to
	// create requests that carry no events block
	DefaultEvents string `envconfig:"ALERT_DEFAULT_EVENTS"`
	// AuditInterval is the pause between reconciliation audit passes; zero
	// disables the audit scheduler
	AuditInterval time.Duration `envconfig:"ALERT_AUDIT_INTERVAL" default:"15m"`
	// ConfigFile points at an optional YAML file overlaid on top of the
	// environment
	ConfigFile string `ignored:"true"`
}

// alertServerFileConfig is the YAML shape of the optional config file.
// Durations are spelled as Go duration strings. Empty values leave the
// environment-derived value in place.
type alertServerFileConfig struct {
	ListenerAddress string `yaml:"listener_address"`
	Database        struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"database"`
	AeroAPI struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Timeout string `yaml:"timeout"`
	} `yaml:"aeroapi"`
	DefaultEvents string `yaml:"default_events"`
	AuditInterval string `yaml:"audit_interval"`
}

// LoadFromEnv loads config values from the environment
func (c *AlertServerConfig) LoadFromEnv() error {
	if err := c.CommonServerConfig.LoadFromEnv(); err != nil {
		return err
	}
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("failed to process environment variables: %w", err)
	}
	return nil
}

// LoadFromFile overlays values from a YAML config file onto the current
// configuration. Only keys present in the file replace anything.
func (c *AlertServerConfig) LoadFromFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var file alertServerFileConfig
	if err := yaml.Unmarshal(content, &file); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	overlayString(&c.Listener.Address, file.ListenerAddress)
	overlayString(&c.Database.Host, file.Database.Host)
	overlayString(&c.Database.Port, file.Database.Port)
	overlayString(&c.Database.User, file.Database.User)
	overlayString(&c.Database.Password, file.Database.Password)
	overlayString(&c.Database.Database, file.Database.Database)
	overlayString(&c.Database.SSLMode, file.Database.SSLMode)
	overlayString(&c.AeroAPI.BaseURL, file.AeroAPI.BaseURL)
	overlayString(&c.AeroAPI.APIKey, file.AeroAPI.APIKey)
	overlayString(&c.DefaultEvents, file.DefaultEvents)

	if file.AeroAPI.Timeout != "" {
		timeout, err := time.ParseDuration(file.AeroAPI.Timeout)
		if err != nil {
			return fmt.Errorf("failed to parse aeroapi timeout %q: %w", file.AeroAPI.Timeout, err)
		}
		c.AeroAPI.Timeout = timeout
	}
	if file.AuditInterval != "" {
		interval, err := time.ParseDuration(file.AuditInterval)
		if err != nil {
			return fmt.Errorf("failed to parse audit interval %q: %w", file.AuditInterval, err)
		}
		c.AuditInterval = interval
	}

	return nil
}

// Validate checks the configuration attributes to ensure they are semantically correct
func (c *AlertServerConfig) Validate() error {
	if err := c.CommonServerConfig.Validate(); err != nil {
		return err
	}
	if c.Database.Password == "" {
		return fmt.Errorf("database password is required, set POSTGRES_PASSWORD or the config file")
	}
	if c.AeroAPI.APIKey == "" {
		return fmt.Errorf("remote service API key is required, set AEROAPI_KEY or the config file")
	}
	if c.AuditInterval < 0 {
		return fmt.Errorf("audit interval must not be negative, got %s", c.AuditInterval)
	}
	if _, err := aeroapi.ParseEvents(c.DefaultEvents); err != nil {
		return fmt.Errorf("invalid default events: %w", err)
	}
	return nil
}

// DefaultEventFlags returns the configured default event flag set.
func (c *AlertServerConfig) DefaultEventFlags() (aeroapi.AlertEvents, error) {
	return aeroapi.ParseEvents(c.DefaultEvents)
}

func overlayString(target *string, value string) {
	if value != "" {
		*target = value
	}
}
