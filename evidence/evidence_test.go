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

package evidence

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var testPeriod = time.Date(2025, 8, 14, 12, 0, 0, 0, time.UTC)

func testClock() time.Time {
	return testPeriod
}

func writeArtifact(
	t *testing.T,
	corpusDir string,
	provider string,
	name string,
	content string,
) {
	t.Helper()
	providerDir := filepath.Join(corpusDir, "2025-08-14", provider)
	require.NoError(t, os.MkdirAll(providerDir, 0o755))
	require.NoError(
		t,
		os.WriteFile(
			filepath.Join(providerDir, name),
			[]byte(content),
			0o644,
		),
	)
}

const improvedArtifact = `{"metrics":[{"loss":2.5},{"loss":1.8},{"loss":1.2}]}`

const flatArtifact = `{"metrics":[{"loss":2.0},{"loss":2.0}]}`

func fullCorpus(t *testing.T) string {
	t.Helper()
	corpusDir := t.TempDir()
	writeArtifact(t, corpusDir, "tinygrad", "run1.json", improvedArtifact)
	writeArtifact(t, corpusDir, "petals", "run1.json", flatArtifact)
	writeArtifact(t, corpusDir, "wondercraft", "run1.json", flatArtifact)
	return corpusDir
}

func testGate(corpusDir string) *Gate {
	return NewGate(GateConfig{
		CorpusDir: corpusDir,
		TimeNow:   testClock,
	})
}

func TestCheckValidCorpus(t *testing.T) {
	gate := testGate(fullCorpus(t))
	result := gate.Check(context.Background())
	assert.True(t, result.Valid)
	assert.Empty(t, result.Reason)
}

func TestCheckNoPeriodDir(t *testing.T) {
	gate := testGate(t.TempDir())
	result := gate.Check(context.Background())
	assert.False(t, result.Valid)
	assert.Equal(t, "no evidence recorded for period 2025-08-14", result.Reason)
}

func TestCheckMissingProvider(t *testing.T) {
	corpusDir := t.TempDir()
	writeArtifact(t, corpusDir, "tinygrad", "run1.json", improvedArtifact)
	writeArtifact(t, corpusDir, "wondercraft", "run1.json", flatArtifact)
	gate := testGate(corpusDir)
	result := gate.Check(context.Background())
	assert.False(t, result.Valid)
	assert.Equal(t, "Missing Petals evidence", result.Reason)
}

func TestCheckMissingProviderOrder(t *testing.T) {
	// The first missing provider in configured order is reported
	corpusDir := t.TempDir()
	writeArtifact(t, corpusDir, "wondercraft", "run1.json", improvedArtifact)
	gate := testGate(corpusDir)
	result := gate.Check(context.Background())
	assert.False(t, result.Valid)
	assert.Equal(t, "Missing Tinygrad evidence", result.Reason)
}

func TestCheckEmptyProviderDir(t *testing.T) {
	// A provider directory with no JSON artifacts counts as missing
	corpusDir := fullCorpus(t)
	petalsDir := filepath.Join(corpusDir, "2025-08-14", "petals")
	require.NoError(t, os.RemoveAll(petalsDir))
	require.NoError(t, os.MkdirAll(petalsDir, 0o755))
	require.NoError(
		t,
		os.WriteFile(
			filepath.Join(petalsDir, "notes.txt"),
			[]byte("not an artifact"),
			0o644,
		),
	)
	gate := testGate(corpusDir)
	result := gate.Check(context.Background())
	assert.False(t, result.Valid)
	assert.Equal(t, "Missing Petals evidence", result.Reason)
}

func TestCheckNoImprovement(t *testing.T) {
	corpusDir := t.TempDir()
	writeArtifact(t, corpusDir, "tinygrad", "run1.json", flatArtifact)
	writeArtifact(t, corpusDir, "petals", "run1.json", flatArtifact)
	writeArtifact(t, corpusDir, "wondercraft", "run1.json", flatArtifact)
	gate := testGate(corpusDir)
	result := gate.Check(context.Background())
	assert.False(t, result.Valid)
	assert.Equal(t, "no training run shows a loss improvement", result.Reason)
}

func TestCheckLossRegression(t *testing.T) {
	corpusDir := t.TempDir()
	regressed := `{"metrics":[{"loss":1.0},{"loss":1.5}]}`
	writeArtifact(t, corpusDir, "tinygrad", "run1.json", regressed)
	writeArtifact(t, corpusDir, "petals", "run1.json", regressed)
	writeArtifact(t, corpusDir, "wondercraft", "run1.json", regressed)
	gate := testGate(corpusDir)
	result := gate.Check(context.Background())
	assert.False(t, result.Valid)
	assert.Equal(t, "no training run shows a loss improvement", result.Reason)
}

func TestCheckSummaryLossFields(t *testing.T) {
	// Improvement can come from loss_start/loss_end summary fields
	// instead of a metrics series
	corpusDir := t.TempDir()
	summary := `{"loss_start":3.1,"loss_end":2.4}`
	writeArtifact(t, corpusDir, "tinygrad", "run1.json", flatArtifact)
	writeArtifact(t, corpusDir, "petals", "summary.json", summary)
	writeArtifact(t, corpusDir, "wondercraft", "run1.json", flatArtifact)
	gate := testGate(corpusDir)
	result := gate.Check(context.Background())
	assert.True(t, result.Valid)
}

func TestCheckMalformedArtifactSkipped(t *testing.T) {
	// A malformed artifact satisfies provider presence but cannot show
	// improvement
	corpusDir := t.TempDir()
	writeArtifact(t, corpusDir, "tinygrad", "run1.json", "{not json")
	writeArtifact(t, corpusDir, "petals", "run1.json", improvedArtifact)
	writeArtifact(t, corpusDir, "wondercraft", "run1.json", flatArtifact)
	gate := testGate(corpusDir)
	result := gate.Check(context.Background())
	assert.True(t, result.Valid)
}

func TestCheckSingleMetricNoImprovement(t *testing.T) {
	// One data point cannot show a decrease
	corpusDir := t.TempDir()
	single := `{"metrics":[{"loss":0.5}]}`
	writeArtifact(t, corpusDir, "tinygrad", "run1.json", single)
	writeArtifact(t, corpusDir, "petals", "run1.json", single)
	writeArtifact(t, corpusDir, "wondercraft", "run1.json", single)
	gate := testGate(corpusDir)
	result := gate.Check(context.Background())
	assert.False(t, result.Valid)
	assert.Equal(t, "no training run shows a loss improvement", result.Reason)
}

func TestCheckCustomProviders(t *testing.T) {
	corpusDir := t.TempDir()
	writeArtifact(t, corpusDir, "custom", "run1.json", improvedArtifact)
	gate := NewGate(GateConfig{
		CorpusDir: corpusDir,
		Providers: []string{"custom"},
		TimeNow:   testClock,
	})
	result := gate.Check(context.Background())
	assert.True(t, result.Valid)
}

func TestCheckTimeout(t *testing.T) {
	// The corpus walker must exit promptly once the deadline fires
	defer goleak.VerifyNone(t)

	gate := NewGate(GateConfig{
		CorpusDir: fullCorpus(t),
		Timeout:   time.Nanosecond,
		TimeNow:   testClock,
	})
	result := gate.Check(context.Background())
	assert.False(t, result.Valid)
	assert.Equal(t, "evidence check timed out", result.Reason)
}

func TestProviderDisplayName(t *testing.T) {
	assert.Equal(t, "Petals", providerDisplayName("petals"))
	assert.Equal(t, "Tinygrad", providerDisplayName("tinygrad"))
	assert.Equal(t, "", providerDisplayName(""))
}
