// SPDX-FileCopyrightText: Red Hat
//
// SPDX-License-Identifier: Apache-2.0
package api_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skywatch-aero/alertmirror/internal/service/alerts/api"
	"github.com/skywatch-aero/alertmirror/internal/service/alerts/internal/aeroapi"
)

func validConfig() api.AlertServerConfig {
	var config api.AlertServerConfig
	config.Listener.Address = "127.0.0.1:8080"
	config.Database.Password = "secret"
	config.AeroAPI.APIKey = "test-key"
	config.AuditInterval = 15 * time.Minute
	return config
}

var _ = Describe("AlertServerConfig", func() {
	Describe("validation", func() {
		It("accepts a complete configuration", func() {
			config := validConfig()
			Expect(config.Validate()).To(Succeed())
		})

		It("requires a listener address", func() {
			config := validConfig()
			config.Listener.Address = ""
			Expect(config.Validate()).To(MatchError(ContainSubstring("listener address")))
		})

		It("requires a database password", func() {
			config := validConfig()
			config.Database.Password = ""
			Expect(config.Validate()).To(MatchError(ContainSubstring("POSTGRES_PASSWORD")))
		})

		It("requires the remote service API key", func() {
			config := validConfig()
			config.AeroAPI.APIKey = ""
			Expect(config.Validate()).To(MatchError(ContainSubstring("AEROAPI_KEY")))
		})

		It("rejects a negative audit interval", func() {
			config := validConfig()
			config.AuditInterval = -time.Minute
			Expect(config.Validate()).To(MatchError(ContainSubstring("audit interval")))
		})

		It("rejects unknown default event names", func() {
			config := validConfig()
			config.DefaultEvents = "arrival,takeoff"
			Expect(config.Validate()).To(MatchError(ContainSubstring("takeoff")))
		})
	})

	Describe("loading from a file", func() {
		writeFile := func(content string) string {
			path := filepath.Join(GinkgoT().TempDir(), "config.yaml")
			Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
			return path
		}

		It("overlays only the keys present in the file", func() {
			config := validConfig()
			config.Database.Host = "localhost"
			config.AeroAPI.Timeout = 10 * time.Second

			path := writeFile(`
listener_address: 0.0.0.0:9090
database:
  host: mirror-db.internal
aeroapi:
  timeout: 30s
default_events: arrival,cancelled
audit_interval: 1h
`)
			Expect(config.LoadFromFile(path)).To(Succeed())

			Expect(config.Listener.Address).To(Equal("0.0.0.0:9090"))
			Expect(config.Database.Host).To(Equal("mirror-db.internal"))
			Expect(config.Database.Password).To(Equal("secret"), "keys absent from the file keep their value")
			Expect(config.AeroAPI.APIKey).To(Equal("test-key"))
			Expect(config.AeroAPI.Timeout).To(Equal(30 * time.Second))
			Expect(config.DefaultEvents).To(Equal("arrival,cancelled"))
			Expect(config.AuditInterval).To(Equal(time.Hour))
		})

		It("rejects a malformed duration", func() {
			config := validConfig()
			path := writeFile("audit_interval: often\n")
			Expect(config.LoadFromFile(path)).To(MatchError(ContainSubstring("audit interval")))
		})

		It("rejects an unreadable file", func() {
			config := validConfig()
			err := config.LoadFromFile(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))
			Expect(err).To(MatchError(ContainSubstring("failed to read config file")))
		})

		It("rejects a file that is not YAML", func() {
			config := validConfig()
			path := writeFile("{listener_address\n")
			Expect(config.LoadFromFile(path)).To(MatchError(ContainSubstring("failed to parse config file")))
		})
	})

	Describe("default event flags", func() {
		It("parses the configured set", func() {
			config := validConfig()
			config.DefaultEvents = "arrival,diverted"
			events, err := config.DefaultEventFlags()
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(Equal(aeroapi.AlertEvents{Arrival: true, Diverted: true}))
		})

		It("defaults to no flags", func() {
			config := validConfig()
			events, err := config.DefaultEventFlags()
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(Equal(aeroapi.AlertEvents{}))
		})
	})
})
