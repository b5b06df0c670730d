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

package config

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/synthient-works/tally/database/plugin"
	"github.com/synthient-works/tally/registry"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "tally.config"

const DefaultShutdownTimeout = "30s"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

// ErrPluginListRequested is returned when the user requests to list available plugins
// This is not an error condition but a successful operation that displays plugin information
var ErrPluginListRequested = errors.New("plugin list requested")

type tempConfig struct {
	Config   *Config                   `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type Config struct {
	MetadataPlugin    string   `yaml:"metadataPlugin"    envconfig:"TALLY_DATABASE_METADATA_PLUGIN"`
	BlobPlugin        string   `yaml:"blobPlugin"        envconfig:"TALLY_DATABASE_BLOB_PLUGIN"`
	DatabasePath      string   `yaml:"databasePath"                                                split_words:"true"`
	BindAddr          string   `yaml:"bindAddr"                                                    split_words:"true"`
	EvidenceDir       string   `yaml:"evidenceDir"                                                 split_words:"true"`
	EvidenceTimeout   string   `yaml:"evidenceTimeout"                                             split_words:"true"`
	RegistryPath      string   `yaml:"registryPath"                                                split_words:"true"`
	ShutdownTimeout   string   `yaml:"shutdownTimeout"                                             split_words:"true"`
	EvidenceProviders []string `yaml:"evidenceProviders"                                           split_words:"true"`
	ApiPort           uint     `yaml:"apiPort"                                                     split_words:"true"`
	MetricsPort       uint     `yaml:"metricsPort"                                                 split_words:"true"`
	Tracing           bool     `yaml:"tracing"`
	TracingStdout     bool     `yaml:"tracingStdout"                                               split_words:"true"`
}

var globalConfig = &Config{
	BindAddr:        "0.0.0.0",
	DatabasePath:    ".tally",
	EvidenceDir:     "evidence",
	EvidenceTimeout: "5s",
	RegistryPath:    "",
	ApiPort:         3000,
	MetricsPort:     9180,
	BlobPlugin:      DefaultBlobPlugin,
	MetadataPlugin:  DefaultMetadataPlugin,
	ShutdownTimeout: DefaultShutdownTimeout,
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.tally/tally.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".tally", "tally.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/tally/tally.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/tally/tally.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		// First unmarshal into temp config to handle plugin sections
		var tempCfg tempConfig
		err = yaml.Unmarshal(buf, &tempCfg)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}

		// If config section exists, use it for main config
		if tempCfg.Config != nil {
			// Overlay config values onto existing defaults
			configBytes, err := yaml.Marshal(tempCfg.Config)
			if err != nil {
				return nil, fmt.Errorf("error re-marshalling config: %w", err)
			}
			err = yaml.Unmarshal(configBytes, globalConfig)
			if err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else {
			// Otherwise unmarshal the whole file as main config
			err = yaml.Unmarshal(buf, globalConfig)
			if err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}

		// Process plugin configurations
		pluginConfig := make(map[string]map[string]map[string]any)
		if tempCfg.Blob != nil {
			pluginConfig["blob"] = tempCfg.Blob
		}
		if tempCfg.Metadata != nil {
			pluginConfig["metadata"] = tempCfg.Metadata
		}
		// Handle database section if present
		if tempCfg.Database != nil {
			if tempCfg.Database.Blob != nil {
				if pluginVal, exists := tempCfg.Database.Blob["plugin"]; exists {
					if pluginName, ok := pluginVal.(string); ok {
						globalConfig.BlobPlugin = pluginName
						delete(tempCfg.Database.Blob, "plugin")
					}
				}
				blobConfig := pluginSectionConfig("blob", tempCfg.Database.Blob)
				if pluginConfig["blob"] == nil {
					pluginConfig["blob"] = blobConfig
				} else {
					maps.Copy(pluginConfig["blob"], blobConfig)
				}
			}
			if tempCfg.Database.Metadata != nil {
				if pluginVal, exists := tempCfg.Database.Metadata["plugin"]; exists {
					if pluginName, ok := pluginVal.(string); ok {
						globalConfig.MetadataPlugin = pluginName
						delete(tempCfg.Database.Metadata, "plugin")
					}
				}
				metadataConfig := pluginSectionConfig(
					"metadata",
					tempCfg.Database.Metadata,
				)
				if pluginConfig["metadata"] == nil {
					pluginConfig["metadata"] = metadataConfig
				} else {
					maps.Copy(pluginConfig["metadata"], metadataConfig)
				}
			}
		}
		if len(pluginConfig) > 0 {
			err = plugin.ProcessConfig(pluginConfig)
			if err != nil {
				return nil, fmt.Errorf(
					"error processing plugin config: %w",
					err,
				)
			}
		}
	}
	// Process environment variables
	err := envconfig.Process("tally", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}
	_, err = LoadRegistryConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading registry: %+w", err)
	}
	return globalConfig, nil
}

var globalRegistryConfig = &registry.RegistryConfig{}

func LoadRegistryConfig() (*registry.RegistryConfig, error) {
	if globalConfig.RegistryPath == "" {
		// No registry configured, all voters are treated as human
		return globalRegistryConfig, nil
	}
	rc, err := registry.NewRegistryConfigFromFile(globalConfig.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry file: %+w", err)
	}
	globalRegistryConfig = rc
	return globalRegistryConfig, nil
}

func GetRegistryConfig() *registry.RegistryConfig {
	return globalRegistryConfig
}

// pluginSectionConfig converts a database.<type> yaml section into a plugin
// config map, skipping entries that are not nested maps
func pluginSectionConfig(
	typeName string,
	section map[string]any,
) map[string]map[string]any {
	ret := make(map[string]map[string]any)
	for k, v := range section {
		if val, ok := v.(map[string]any); ok {
			ret[k] = val
		} else if val, ok := v.(map[any]any); ok {
			stringAnyMap := make(map[string]any)
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			ret[k] = stringAnyMap
		} else {
			fmt.Fprintf(
				os.Stderr,
				"warning: skipping %s config entry %q: expected map, got %T\n",
				typeName,
				k,
				v,
			)
		}
	}
	return ret
}

// GetConfig returns the global config instance
func GetConfig() *Config {
	return globalConfig
}
