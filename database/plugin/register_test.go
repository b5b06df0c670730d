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

package plugin_test

import (
	"errors"
	"testing"

	"github.com/synthient-works/tally/database/plugin"
)

// Mock plugin implementation for testing
type mockPlugin struct{}

func (m *mockPlugin) Start() error { return nil }
func (m *mockPlugin) Stop() error  { return nil }

func TestRegister(t *testing.T) {
	pluginName := "test-plugin-" + t.Name()
	testEntry := plugin.PluginEntry{
		Type:               plugin.PluginTypeBlob,
		Name:               pluginName,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
	}

	plugin.Register(testEntry)

	// Check that GetPlugin finds it
	p := plugin.GetPlugin(plugin.PluginTypeBlob, pluginName)
	if p == nil {
		t.Error("plugin not found")
	}

	// Check that GetPlugins includes it
	plugins := plugin.GetPlugins(plugin.PluginTypeBlob)
	found := false
	for _, pl := range plugins {
		if pl.Name == pluginName && pl.Type == plugin.PluginTypeBlob {
			found = true
			break
		}
	}
	if !found {
		t.Error("plugin not in GetPlugins list")
	}
}

func TestGetPluginUnknown(t *testing.T) {
	p := plugin.GetPlugin(plugin.PluginTypeBlob, "does-not-exist")
	if p != nil {
		t.Error("expected nil for unknown plugin")
	}
}

func TestStartPluginUnknown(t *testing.T) {
	_, err := plugin.StartPlugin(plugin.PluginTypeMetadata, "does-not-exist")
	if err == nil {
		t.Error("expected error starting unknown plugin")
	}
}

func TestErrorPlugin(t *testing.T) {
	testErr := errors.New("construction failed")
	p := plugin.NewErrorPlugin(testErr)
	if err := p.Start(); !errors.Is(err, testErr) {
		t.Errorf("expected construction error, got %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Errorf("unexpected error from Stop: %v", err)
	}
}

func TestSetPluginOption(t *testing.T) {
	pluginName := "test-plugin-" + t.Name()
	var dataDir string
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeBlob,
		Name:               pluginName,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
		Options: []plugin.PluginOption{
			{
				Name:         "data-dir",
				Type:         plugin.PluginOptionTypeString,
				Description:  "data directory",
				DefaultValue: "",
				Dest:         &dataDir,
			},
		},
	})

	if err := plugin.SetPluginOption(
		plugin.PluginTypeBlob,
		pluginName,
		"data-dir",
		"/tmp/test",
	); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dataDir != "/tmp/test" {
		t.Errorf("expected dataDir to be '/tmp/test', got '%s'", dataDir)
	}

	// Wrong value type
	if err := plugin.SetPluginOption(
		plugin.PluginTypeBlob,
		pluginName,
		"data-dir",
		12345,
	); err == nil {
		t.Error("expected error for mismatched option value type")
	}

	// Unknown plugin
	if err := plugin.SetPluginOption(
		plugin.PluginTypeBlob,
		"does-not-exist",
		"data-dir",
		"/tmp/test",
	); err == nil {
		t.Error("expected error for unknown plugin")
	}
}

func TestProcessConfig(t *testing.T) {
	pluginName := "test-plugin-" + t.Name()
	var dataDir string
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeMetadata,
		Name:               pluginName,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
		Options: []plugin.PluginOption{
			{
				Name:         "data-dir",
				Type:         plugin.PluginOptionTypeString,
				Description:  "data directory",
				DefaultValue: "",
				Dest:         &dataDir,
			},
		},
	})

	err := plugin.ProcessConfig(map[string]map[string]map[string]any{
		"metadata": {
			pluginName: {
				"data-dir": "/tmp/from-config",
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dataDir != "/tmp/from-config" {
		t.Errorf("expected dataDir '/tmp/from-config', got '%s'", dataDir)
	}

	// Unknown plugin type name
	err = plugin.ProcessConfig(map[string]map[string]map[string]any{
		"bogus": {},
	})
	if err == nil {
		t.Error("expected error for unknown plugin type")
	}
}
