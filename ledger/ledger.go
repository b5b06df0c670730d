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

// Package ledger implements the append-only vote ledger. Every vote ever
// cast is preserved as its own row: there is no latest-wins collapsing,
// so a voter who casts both an approve and a veto contributes both to
// consensus resolution.
package ledger

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/synthient-works/tally/database"
	"github.com/synthient-works/tally/database/models"
	"github.com/synthient-works/tally/event"
)

// VoterClassifier reports whether a voter identity belongs to the
// synthient voter class
type VoterClassifier interface {
	IsSynthient(voterId string) bool
}

type LedgerConfig struct {
	PromRegistry prometheus.Registerer
	Logger       *slog.Logger
	EventBus     *event.EventBus
	Database     *database.Database
	Classifier   VoterClassifier
}

// Ledger provides validated append and consistent-read access to the
// vote store
type Ledger struct {
	config  LedgerConfig
	metrics struct {
		votesRecorded *prometheus.CounterVec
	}
	logger     *slog.Logger
	eventBus   *event.EventBus
	db         *database.Database
	classifier VoterClassifier
}

func NewLedger(config LedgerConfig) *Ledger {
	l := &Ledger{
		config:     config,
		eventBus:   config.EventBus,
		db:         config.Database,
		classifier: config.Classifier,
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		l.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		l.logger = config.Logger
	}
	// Init metrics
	promautoFactory := promauto.With(config.PromRegistry)
	l.metrics.votesRecorded = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "governance_votes_recorded_total",
			Help: "total votes appended to the ledger",
		},
		[]string{"decision"},
	)
	return l
}

// Append validates and durably records a vote. The referenced proposal
// must exist, but its status is not consulted: votes on terminal
// proposals are still recorded, they just never change the verdict.
func (l *Ledger) Append(
	ctx context.Context,
	vote *models.Vote,
	txn *database.Txn,
) error {
	if vote.ProposalID == "" {
		return models.ErrMissingProposal
	}
	if vote.VoterID == "" {
		return models.ErrMissingVoter
	}
	if !vote.Decision.Valid() {
		return models.ErrInvalidDecision
	}
	// Verify the proposal exists
	if _, err := l.db.GetProposal(vote.ProposalID, txn); err != nil {
		return err
	}
	if err := l.db.AddVote(vote, txn); err != nil {
		return fmt.Errorf("failed to append vote: %w", err)
	}
	l.metrics.votesRecorded.WithLabelValues(string(vote.Decision)).Inc()
	l.logger.Info(
		"vote recorded",
		"component", "ledger",
		"proposal_id", vote.ProposalID,
		"voter_id", vote.VoterID,
		"decision", vote.Decision,
	)
	if l.eventBus != nil {
		synthient := false
		if l.classifier != nil {
			synthient = l.classifier.IsSynthient(vote.VoterID)
		}
		l.eventBus.Publish(
			event.VoteRecordedEventType,
			event.NewEvent(
				event.VoteRecordedEventType,
				event.VoteRecordedEvent{
					ProposalID: vote.ProposalID,
					VoterID:    vote.VoterID,
					Decision:   string(vote.Decision),
					Synthient:  synthient,
					Timestamp:  vote.CreatedAt,
				},
			),
		)
	}
	return nil
}

// ListByProposal returns every vote for the given proposal in the order
// they were appended
func (l *Ledger) ListByProposal(
	ctx context.Context,
	proposalId string,
	txn *database.Txn,
) ([]models.Vote, error) {
	return l.db.GetVotesByProposal(proposalId, txn)
}
