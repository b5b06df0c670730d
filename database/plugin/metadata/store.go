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

package metadata

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/synthient-works/tally/database/models"
	"github.com/synthient-works/tally/database/plugin"
	"github.com/synthient-works/tally/database/types"
	"gorm.io/gorm"
)

// MetadataStore is the relational storage interface for governance state.
// Proposals and votes support create/read/update only: rows are never
// deleted (audit requirement), and votes are never updated.
type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(types.Txn, int64) error
	Transaction() types.Txn

	// Proposals
	CreateProposal(*models.Proposal, types.Txn) error
	GetProposal(
		string, // proposalId
		types.Txn,
	) (models.Proposal, error)
	GetProposals(
		models.ProposalStatus, // status filter, empty for all
		int, // limit
		int, // offset
		types.Txn,
	) ([]models.Proposal, error)
	CountProposalsByStatus(
		models.ProposalStatus, // empty counts all
		types.Txn,
	) (int64, error)
	ProposalStatusCounts(
		types.Txn,
	) (map[models.ProposalStatus]int64, error)
	SetProposalStatus(
		string, // proposalId
		models.ProposalStatus,
		types.Txn,
	) error

	// Votes
	AddVote(*models.Vote, types.Txn) error
	GetVotesByProposal(
		string, // proposalId
		types.Txn,
	) ([]models.Vote, error)
}

// Stores that accept a logger or metrics registry after construction.
// Plugins are built from cmdline options alone, so runtime wiring is
// applied through these optional interfaces.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

type metricsSetter interface {
	SetPromRegistry(prometheus.Registerer)
}

// New returns the started metadata plugin selected by name, configured
// with the given data directory
func New(
	pluginName string,
	dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (MetadataStore, error) {
	if err := plugin.SetPluginOption(
		plugin.PluginTypeMetadata,
		pluginName,
		"data-dir",
		dataDir,
	); err != nil {
		return nil, err
	}

	// Get and start the plugin
	p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, pluginName)
	if err != nil {
		return nil, err
	}

	// Type assert to MetadataStore interface
	metadataStore, ok := p.(MetadataStore)
	if !ok {
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}

	if logger != nil {
		if ls, ok := metadataStore.(loggerSetter); ok {
			ls.SetLogger(logger)
		}
	}
	if promRegistry != nil {
		if ms, ok := metadataStore.(metricsSetter); ok {
			ms.SetPromRegistry(promRegistry)
		}
	}

	return metadataStore, nil
}
