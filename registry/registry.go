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

package registry

import (
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// SynthientRegistry tracks which voter identities belong to the synthient
// voter class. Any voter not present in the registry is treated as human.
type SynthientRegistry struct {
	synthients map[string]struct{}
	mu         sync.RWMutex
}

// RegistryConfig represents a synthient registry config file
type RegistryConfig struct {
	Synthients []string `yaml:"synthients"`
}

// maxRegistrySize is the maximum allowed size for a registry config file
// (10 MB). This prevents unbounded memory allocation from untrusted readers.
const maxRegistrySize = 10 * 1024 * 1024

// New creates an empty registry
func New() *SynthientRegistry {
	return &SynthientRegistry{
		synthients: make(map[string]struct{}),
	}
}

// NewFromConfig creates a registry pre-populated from a config
func NewFromConfig(cfg *RegistryConfig) *SynthientRegistry {
	r := New()
	for _, id := range cfg.Synthients {
		r.Add(id)
	}
	return r
}

// NewFromFile creates a registry from a YAML config file
func NewFromFile(path string) (*SynthientRegistry, error) {
	dataFile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer dataFile.Close()
	return NewFromReader(dataFile)
}

// NewFromReader creates a registry from YAML config data
func NewFromReader(r io.Reader) (*SynthientRegistry, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxRegistrySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxRegistrySize {
		return nil, fmt.Errorf(
			"registry file exceeds maximum size of %d bytes",
			maxRegistrySize,
		)
	}
	cfg := &RegistryConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return NewFromConfig(cfg), nil
}

// NewRegistryConfigFromFile loads a registry config from a YAML file without
// building the registry itself
func NewRegistryConfigFromFile(path string) (*RegistryConfig, error) {
	dataFile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer dataFile.Close()
	data, err := io.ReadAll(io.LimitReader(dataFile, maxRegistrySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxRegistrySize {
		return nil, fmt.Errorf(
			"registry file exceeds maximum size of %d bytes",
			maxRegistrySize,
		)
	}
	cfg := &RegistryConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Add registers an identity as a synthient
func (r *SynthientRegistry) Add(voterId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.synthients[voterId] = struct{}{}
}

// IsSynthient returns whether the given identity is a registered synthient
func (r *SynthientRegistry) IsSynthient(voterId string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.synthients[voterId]
	return ok
}

// Synthients returns the registered synthient identities
func (r *SynthientRegistry) Synthients() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]string, 0, len(r.synthients))
	for id := range r.synthients {
		ret = append(ret, id)
	}
	return ret
}
