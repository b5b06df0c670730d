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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	// Default logger discards output but must not be nil
	assert.NotNil(t, cfg.logger)
	assert.Equal(t, "", cfg.dataDir)
	assert.Equal(t, "", cfg.evidenceDir)
	assert.Nil(t, cfg.evidenceProviders)
	assert.Equal(t, time.Duration(0), cfg.evidenceTimeout)
	assert.False(t, cfg.tracing)
}

func TestConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithDatabasePath("/tmp/tally-test"),
		WithBlobPlugin("badger"),
		WithMetadataPlugin("sqlite"),
		WithEvidenceDir("/tmp/evidence"),
		WithEvidenceProviders([]string{"tinygrad", "petals"}),
		WithEvidenceTimeout(10*time.Second),
		WithApiListenAddress("127.0.0.1:3000"),
		WithShutdownTimeout(45*time.Second),
		WithTracing(true),
		WithTracingStdout(true),
	)

	assert.Equal(t, "/tmp/tally-test", cfg.dataDir)
	assert.Equal(t, "badger", cfg.blobPlugin)
	assert.Equal(t, "sqlite", cfg.metadataPlugin)
	assert.Equal(t, "/tmp/evidence", cfg.evidenceDir)
	assert.Equal(t, []string{"tinygrad", "petals"}, cfg.evidenceProviders)
	assert.Equal(t, 10*time.Second, cfg.evidenceTimeout)
	assert.Equal(t, "127.0.0.1:3000", cfg.apiListenAddress)
	assert.Equal(t, 45*time.Second, cfg.shutdownTimeout)
	assert.True(t, cfg.tracing)
	assert.True(t, cfg.tracingStdout)
}
