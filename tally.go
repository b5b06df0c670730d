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

// Package tally wires the dual-consensus governance engine: vote ledger,
// consensus resolution, evidence gating, proposal state storage and the
// REST/SSE API.
package tally

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/synthient-works/tally/api"
	"github.com/synthient-works/tally/database"
	"github.com/synthient-works/tally/event"
	"github.com/synthient-works/tally/evidence"
	"github.com/synthient-works/tally/governance"
	"github.com/synthient-works/tally/ledger"
	"github.com/synthient-works/tally/registry"
)

type Node struct {
	eventBus      *event.EventBus
	db            *database.Database
	registry      *registry.SynthientRegistry
	gate          *evidence.Gate
	ledger        *ledger.Ledger
	store         *governance.Store
	api           *api.Api
	shutdownFuncs []func(context.Context) error
	config        Config
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	eventBus := event.NewEventBus(cfg.promRegistry, cfg.logger)
	n := &Node{
		config:   cfg,
		eventBus: eventBus,
		done:     make(chan struct{}),
	}
	return n, nil
}

// Registry returns the synthient registry
func (n *Node) Registry() *registry.SynthientRegistry {
	return n.registry
}

// Store returns the governance store
func (n *Node) Store() *governance.Store {
	return n.store
}

// EventBus returns the event bus
func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

func (n *Node) Run(ctx context.Context) error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(ctx); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(
		database.Config{
			DataDir:        n.config.dataDir,
			Logger:         n.config.logger,
			PromRegistry:   n.config.promRegistry,
			BlobPlugin:     n.config.blobPlugin,
			MetadataPlugin: n.config.metadataPlugin,
		},
	)
	if db == nil {
		n.config.logger.Error(
			"failed to create database",
			"error",
			"empty database returned",
		)
		return errors.New("empty database returned")
	}
	n.db = db
	if err != nil {
		var dbErr database.CommitTimestampError
		if !errors.As(err, &dbErr) {
			return fmt.Errorf("failed to open database: %w", err)
		}
		n.config.logger.Warn(
			"metadata and blob stores disagree on last commit",
			"error",
			err,
		)
	}
	// Load synthient registry
	if n.config.registryConfig != nil {
		n.registry = registry.NewFromConfig(n.config.registryConfig)
	} else {
		n.registry = registry.New()
	}
	// Configure evidence gate
	n.gate = evidence.NewGate(
		evidence.GateConfig{
			Logger:    n.config.logger,
			CorpusDir: n.config.evidenceDir,
			Providers: n.config.evidenceProviders,
			Timeout:   n.config.evidenceTimeout,
		},
	)
	// Initialize vote ledger
	n.ledger = ledger.NewLedger(
		ledger.LedgerConfig{
			Logger:       n.config.logger,
			EventBus:     n.eventBus,
			PromRegistry: n.config.promRegistry,
			Database:     n.db,
			Classifier:   n.registry,
		},
	)
	// Initialize governance store
	n.store = governance.NewStore(
		governance.StoreConfig{
			Logger:       n.config.logger,
			EventBus:     n.eventBus,
			PromRegistry: n.config.promRegistry,
			Database:     n.db,
			Ledger:       n.ledger,
			Classifier:   n.registry,
			Gate:         n.gate,
		},
	)
	// Start API listener
	n.api = api.New(
		api.ApiConfig{
			ListenAddress: n.config.apiListenAddress,
		},
		n.store,
		n.eventBus,
		n.config.logger,
	)
	if err := n.api.Start(ctx); err != nil {
		return err
	}

	// Wait for shutdown signal
	<-n.done
	return nil
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	// Create shutdown context with timeout (default 30s if not configured)
	shutdownTimeout := 30 * time.Second
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: stop accepting new work
	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	// Phase 2: stop event delivery
	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	// Phase 3: run registered shutdown functions (tracing, etc)
	for _, shutdownFunc := range n.shutdownFuncs {
		if stopErr := shutdownFunc(ctx); stopErr != nil {
			err = errors.Join(err, stopErr)
		}
	}

	// Phase 4: close storage
	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database shutdown: %w", closeErr))
		}
	}

	// Signal Run() to return
	close(n.done)

	return err
}
