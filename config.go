// Copyright 2025 Synthient Works
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tally

import (
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/synthient-works/tally/registry"
)

type Config struct {
	promRegistry      prometheus.Registerer
	logger            *slog.Logger
	registryConfig    *registry.RegistryConfig
	dataDir           string
	blobPlugin        string
	metadataPlugin    string
	evidenceDir       string
	evidenceProviders []string
	evidenceTimeout   time.Duration
	apiListenAddress  string
	tracing           bool
	tracingStdout     bool
	shutdownTimeout   time.Duration
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new tally config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithEvidenceDir specifies the root of the external evidence corpus
func WithEvidenceDir(dir string) ConfigOptionFunc {
	return func(c *Config) {
		c.evidenceDir = dir
	}
}

// WithEvidenceProviders specifies the required evidence providers
func WithEvidenceProviders(providers []string) ConfigOptionFunc {
	return func(c *Config) {
		c.evidenceProviders = providers
	}
}

// WithEvidenceTimeout specifies the timeout for evidence gate checks
func WithEvidenceTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.evidenceTimeout = timeout
	}
}

// WithRegistryConfig specifies the synthient registry config to use
func WithRegistryConfig(cfg *registry.RegistryConfig) ConfigOptionFunc {
	return func(c *Config) {
		c.registryConfig = cfg
	}
}

// WithApiListenAddress specifies the listen address for the governance API
func WithApiListenAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = address
	}
}

// WithPrometheusRegistry specifies the prometheus registry to use for metrics
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithTracing enables tracing
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
