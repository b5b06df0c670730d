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

// Package evidence implements the verification gate consulted before an
// approval transition is committed. The gate inspects an externally
// produced artifact corpus for the current verification period and
// reports a verdict as data. Verification failure is never an error:
// storage faults and timeouts produce an invalid result with a
// diagnostic reason so the calling transition stays transactional.
package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultCheckTimeout = 5 * time.Second

	// maxArtifactSize bounds the size of a single artifact file (10 MB)
	maxArtifactSize = 10 * 1024 * 1024
)

// DefaultProviders is the set of evidence providers required when none
// are configured
var DefaultProviders = []string{"tinygrad", "petals", "wondercraft"}

// CheckResult is the gate's verdict. It is computed on demand and never
// cached, since the underlying artifacts can change between checks.
type CheckResult struct {
	Reason string
	Valid  bool
}

// GateConfig holds the evidence gate configuration
type GateConfig struct {
	Logger *slog.Logger
	// CorpusDir is the root of the evidence corpus. Artifacts live under
	// <CorpusDir>/<YYYY-MM-DD>/<provider>/
	CorpusDir string
	// Providers are the required evidence providers
	Providers []string
	// Timeout bounds the artifact scan
	Timeout time.Duration
	// TimeNow allows overriding the clock for the verification period
	TimeNow func() time.Time
}

// Gate verifies the presence and quality of external proof artifacts
type Gate struct {
	config GateConfig
}

// NewGate creates an evidence gate from the provided config
func NewGate(cfg GateConfig) *Gate {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if len(cfg.Providers) == 0 {
		cfg.Providers = DefaultProviders
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultCheckTimeout
	}
	if cfg.TimeNow == nil {
		cfg.TimeNow = time.Now
	}
	return &Gate{config: cfg}
}

// trainingArtifact is the subset of artifact fields used for the
// improvement check. Artifacts carry either a metrics series or
// summary loss fields.
type trainingArtifact struct {
	Metrics   []artifactMetric `json:"metrics"`
	LossStart *float64         `json:"loss_start"`
	LossEnd   *float64         `json:"loss_end"`
}

type artifactMetric struct {
	Loss float64 `json:"loss"`
}

// periodDir returns the corpus directory for the current verification
// period
func (g *Gate) periodDir() string {
	return filepath.Join(
		g.config.CorpusDir,
		g.config.TimeNow().UTC().Format("2006-01-02"),
	)
}

// providerDisplayName capitalizes a provider name for reason strings
func providerDisplayName(provider string) string {
	if provider == "" {
		return provider
	}
	return strings.ToUpper(provider[:1]) + provider[1:]
}

// Check verifies the evidence corpus for the current verification
// period. Both conditions must hold independently: every required
// provider contributed at least one artifact, and at least one training
// artifact shows a genuine loss improvement. The scan is bounded by the
// configured timeout; on timeout or storage fault the result is invalid
// with a diagnostic reason, never an error.
func (g *Gate) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	resultCh := make(chan CheckResult, 1)
	go func() {
		resultCh <- g.check(ctx)
	}()

	select {
	case result := <-resultCh:
		return result
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return CheckResult{Valid: false, Reason: "evidence check timed out"}
		}
		return CheckResult{
			Valid:  false,
			Reason: fmt.Sprintf("evidence check canceled: %s", ctx.Err()),
		}
	}
}

func (g *Gate) check(ctx context.Context) CheckResult {
	periodDir := g.periodDir()
	if _, err := os.Stat(periodDir); err != nil {
		if os.IsNotExist(err) {
			return CheckResult{
				Valid: false,
				Reason: fmt.Sprintf(
					"no evidence recorded for period %s",
					filepath.Base(periodDir),
				),
			}
		}
		return CheckResult{
			Valid:  false,
			Reason: fmt.Sprintf("evidence corpus unreadable: %s", err),
		}
	}
	// Check provider presence in configured order so the first missing
	// provider is reported deterministically
	improved := false
	for _, provider := range g.config.Providers {
		if err := ctx.Err(); err != nil {
			return CheckResult{Valid: false, Reason: "evidence check timed out"}
		}
		artifacts, err := g.providerArtifacts(periodDir, provider)
		if err != nil {
			return CheckResult{
				Valid:  false,
				Reason: fmt.Sprintf("evidence corpus unreadable: %s", err),
			}
		}
		if len(artifacts) == 0 {
			return CheckResult{
				Valid: false,
				Reason: fmt.Sprintf(
					"Missing %s evidence",
					providerDisplayName(provider),
				),
			}
		}
		if !improved {
			for _, artifact := range artifacts {
				if g.artifactShowsImprovement(artifact) {
					improved = true
					break
				}
			}
		}
	}
	if !improved {
		return CheckResult{
			Valid:  false,
			Reason: "no training run shows a loss improvement",
		}
	}
	return CheckResult{Valid: true}
}

// providerArtifacts lists the JSON artifact files recorded by a provider
// for the given period
func (g *Gate) providerArtifacts(
	periodDir string,
	provider string,
) ([]string, error) {
	providerDir := filepath.Join(periodDir, provider)
	entries, err := os.ReadDir(providerDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ret []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		ret = append(ret, filepath.Join(providerDir, entry.Name()))
	}
	return ret, nil
}

// artifactShowsImprovement reports whether a training artifact proves
// that the monitored loss strictly decreased across the run. Artifacts
// with malformed or missing metrics do not qualify.
func (g *Gate) artifactShowsImprovement(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		g.config.Logger.Debug(
			"failed to open evidence artifact",
			"component", "evidence",
			"path", path,
			"error", err,
		)
		return false
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxArtifactSize))
	if err != nil {
		return false
	}
	var artifact trainingArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		g.config.Logger.Debug(
			"malformed evidence artifact",
			"component", "evidence",
			"path", path,
			"error", err,
		)
		return false
	}
	if len(artifact.Metrics) >= 2 {
		first := artifact.Metrics[0].Loss
		last := artifact.Metrics[len(artifact.Metrics)-1].Loss
		if last < first {
			return true
		}
	}
	if artifact.LossStart != nil && artifact.LossEnd != nil {
		return *artifact.LossEnd < *artifact.LossStart
	}
	return false
}
