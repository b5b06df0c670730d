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

// Package governance owns proposal lifecycle state. Vote submission runs
// append, consensus resolution, evidence gating and the status commit as
// a single operation, serialized per proposal so concurrent submissions
// cannot race the status read-modify-write.
package governance

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/synthient-works/tally/consensus"
	"github.com/synthient-works/tally/database"
	"github.com/synthient-works/tally/database/models"
	"github.com/synthient-works/tally/event"
	"github.com/synthient-works/tally/evidence"
	"github.com/synthient-works/tally/ledger"
)

// EvidenceChecker is the gate consulted before an approval commits
type EvidenceChecker interface {
	Check(ctx context.Context) evidence.CheckResult
}

type StoreConfig struct {
	PromRegistry prometheus.Registerer
	Logger       *slog.Logger
	EventBus     *event.EventBus
	Database     *database.Database
	Ledger       *ledger.Ledger
	Classifier   consensus.VoterClassifier
	Gate         EvidenceChecker
}

// Store manages proposal state transitions
type Store struct {
	config  StoreConfig
	metrics struct {
		transitions *prometheus.CounterVec
		blocked     prometheus.Counter
	}
	logger     *slog.Logger
	eventBus   *event.EventBus
	db         *database.Database
	ledger     *ledger.Ledger
	classifier consensus.VoterClassifier
	gate       EvidenceChecker

	// proposalLocks serializes status transitions per proposal
	proposalLocks sync.Map
}

// VoteResult reports the outcome of a vote submission. The vote itself
// is always durably recorded; Blocked indicates that a computed approval
// was withheld by the evidence gate.
type VoteResult struct {
	Vote        models.Vote
	Status      models.ProposalStatus
	BlockReason string
	Blocked     bool
}

func NewStore(config StoreConfig) *Store {
	s := &Store{
		config:     config,
		eventBus:   config.EventBus,
		db:         config.Database,
		ledger:     config.Ledger,
		classifier: config.Classifier,
		gate:       config.Gate,
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		s.logger = config.Logger
	}
	// Init metrics
	promautoFactory := promauto.With(config.PromRegistry)
	s.metrics.transitions = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "governance_status_transitions_total",
			Help: "total proposal status transitions",
		},
		[]string{"status"},
	)
	s.metrics.blocked = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "governance_approvals_blocked_total",
			Help: "total approval transitions withheld by the evidence gate",
		},
	)
	return s
}

// generateProposalId creates an opaque proposal identifier
func generateProposalId() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf(
		"prop-%d-%s",
		time.Now().UnixMilli(),
		hex.EncodeToString(buf),
	)
}

// proposalLock returns the mutex serializing transitions for a proposal
func (s *Store) proposalLock(proposalId string) *sync.Mutex {
	lock, _ := s.proposalLocks.LoadOrStore(proposalId, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// CreateProposal stores a new proposal in the open state
func (s *Store) CreateProposal(
	ctx context.Context,
	title string,
	body string,
	author string,
) (models.Proposal, error) {
	if title == "" {
		return models.Proposal{}, models.ErrMissingTitle
	}
	proposal := models.Proposal{
		ProposalID: generateProposalId(),
		Title:      title,
		Body:       body,
		Author:     author,
		Status:     models.ProposalStatusOpen,
	}
	err := s.db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := s.db.CreateProposal(&proposal, txn); err != nil {
			return err
		}
		return s.db.AddAuditEntry(
			database.AuditEntry{
				Kind:       "proposal_created",
				ProposalID: proposal.ProposalID,
				Status:     string(proposal.Status),
			},
			txn,
		)
	})
	if err != nil {
		return models.Proposal{}, err
	}
	s.logger.Info(
		"proposal created",
		"component", "governance",
		"proposal_id", proposal.ProposalID,
		"author", author,
	)
	if s.eventBus != nil {
		s.eventBus.Publish(
			event.ProposalCreatedEventType,
			event.NewEvent(
				event.ProposalCreatedEventType,
				event.ProposalCreatedEvent{
					ProposalID: proposal.ProposalID,
					Title:      proposal.Title,
					Author:     proposal.Author,
					Timestamp:  proposal.CreatedAt,
				},
			),
		)
	}
	return proposal, nil
}

// Proposal returns the proposal with the given proposal ID
func (s *Store) Proposal(
	ctx context.Context,
	proposalId string,
) (models.Proposal, error) {
	return s.db.GetProposal(proposalId, nil)
}

// Proposals returns proposals in creation order, optionally filtered by
// status
func (s *Store) Proposals(
	ctx context.Context,
	status models.ProposalStatus,
	limit int,
	offset int,
) ([]models.Proposal, error) {
	return s.db.GetProposals(status, limit, offset, nil)
}

// CountProposals returns the number of proposals with the given status
func (s *Store) CountProposals(
	ctx context.Context,
	status models.ProposalStatus,
) (int64, error) {
	return s.db.CountProposals(status, nil)
}

// StatusCounts returns the number of proposals per status
func (s *Store) StatusCounts(
	ctx context.Context,
) (map[models.ProposalStatus]int64, error) {
	return s.db.ProposalStatusCounts(nil)
}

// Votes returns every vote for the given proposal in insertion order
func (s *Store) Votes(
	ctx context.Context,
	proposalId string,
) ([]models.Vote, error) {
	return s.ledger.ListByProposal(ctx, proposalId, nil)
}

// SubmitVote appends a vote and applies any status transition it
// implies. The vote append is unconditional; the transition is computed
// from the full vote ledger and committed under a per-proposal lock.
func (s *Store) SubmitVote(
	ctx context.Context,
	proposalId string,
	voterId string,
	decision models.VoteDecision,
	reason string,
) (VoteResult, error) {
	vote := models.Vote{
		ProposalID: proposalId,
		VoterID:    voterId,
		Decision:   decision,
		Reason:     reason,
	}
	if err := s.ledger.Append(ctx, &vote, nil); err != nil {
		return VoteResult{}, err
	}
	status, blocked, blockReason, err := s.applyVerdict(ctx, proposalId)
	if err != nil {
		return VoteResult{}, err
	}
	return VoteResult{
		Vote:        vote,
		Status:      status,
		Blocked:     blocked,
		BlockReason: blockReason,
	}, nil
}

// applyVerdict recomputes the proposal status from the vote ledger and
// commits any transition. The read-votes, resolve, evidence-check and
// commit sequence runs under the proposal's lock so concurrent vote
// submissions serialize their read-modify-write of status.
func (s *Store) applyVerdict(
	ctx context.Context,
	proposalId string,
) (models.ProposalStatus, bool, string, error) {
	lock := s.proposalLock(proposalId)
	lock.Lock()
	defer lock.Unlock()

	proposal, err := s.db.GetProposal(proposalId, nil)
	if err != nil {
		return "", false, "", err
	}
	// Terminal states are immutable. Late votes are already recorded,
	// they just never change the verdict.
	if proposal.Status.Terminal() {
		return proposal.Status, false, "", nil
	}
	votes, err := s.db.GetVotesByProposal(proposalId, nil)
	if err != nil {
		return "", false, "", err
	}
	target := consensus.Resolve(votes, s.classifier)
	if target == proposal.Status {
		return proposal.Status, false, "", nil
	}
	// The approval transition alone consults the evidence gate. Vetoes
	// and no-ops commit directly.
	if target == models.ProposalStatusApproved {
		result := s.gate.Check(ctx)
		if !result.Valid {
			s.metrics.blocked.Inc()
			s.logger.Info(
				"approval withheld by evidence gate",
				"component", "governance",
				"proposal_id", proposalId,
				"reason", result.Reason,
			)
			if err := s.db.AddAuditEntry(
				database.AuditEntry{
					Kind:       "approval_blocked",
					ProposalID: proposalId,
					Status:     string(proposal.Status),
					Detail:     result.Reason,
				},
				nil,
			); err != nil {
				s.logger.Warn(
					"failed to record audit entry",
					"component", "governance",
					"error", err,
				)
			}
			if s.eventBus != nil {
				s.eventBus.Publish(
					event.StatusTransitionEventType,
					event.NewEvent(
						event.StatusTransitionEventType,
						event.StatusTransitionEvent{
							ProposalID:  proposalId,
							OldStatus:   string(proposal.Status),
							NewStatus:   string(proposal.Status),
							Blocked:     true,
							BlockReason: result.Reason,
							Timestamp:   time.Now(),
						},
					),
				)
			}
			return proposal.Status, true, result.Reason, nil
		}
	}
	err = s.db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := s.db.SetProposalStatus(proposalId, target, txn); err != nil {
			return err
		}
		return s.db.AddAuditEntry(
			database.AuditEntry{
				Kind:       "status_transition",
				ProposalID: proposalId,
				Status:     string(target),
				Detail: fmt.Sprintf(
					"%s -> %s",
					proposal.Status,
					target,
				),
			},
			txn,
		)
	})
	if err != nil {
		return "", false, "", fmt.Errorf(
			"failed to commit status transition: %w",
			err,
		)
	}
	s.metrics.transitions.WithLabelValues(string(target)).Inc()
	s.logger.Info(
		"proposal status transition",
		"component", "governance",
		"proposal_id", proposalId,
		"old_status", proposal.Status,
		"new_status", target,
	)
	if s.eventBus != nil {
		s.eventBus.Publish(
			event.StatusTransitionEventType,
			event.NewEvent(
				event.StatusTransitionEventType,
				event.StatusTransitionEvent{
					ProposalID: proposalId,
					OldStatus:  string(proposal.Status),
					NewStatus:  string(target),
					Timestamp:  time.Now(),
				},
			),
		)
	}
	return target, false, "", nil
}
