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
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package api

import (
	"context"

	"github.com/synthient-works/tally/database/models"
	"github.com/synthient-works/tally/governance"
)

// GovernanceProvider is the interface the API server uses to reach the
// governance engine. This decouples the HTTP layer from the concrete
// Store struct and enables testing with mock implementations.
type GovernanceProvider interface {
	// CreateProposal stores a new proposal in the open state.
	CreateProposal(
		ctx context.Context,
		title string,
		body string,
		author string,
	) (models.Proposal, error)

	// Proposal returns the proposal with the given proposal ID.
	Proposal(
		ctx context.Context,
		proposalId string,
	) (models.Proposal, error)

	// Proposals returns proposals in creation order, optionally
	// filtered by status.
	Proposals(
		ctx context.Context,
		status models.ProposalStatus,
		limit int,
		offset int,
	) ([]models.Proposal, error)

	// CountProposals returns the number of proposals with the given
	// status.
	CountProposals(
		ctx context.Context,
		status models.ProposalStatus,
	) (int64, error)

	// StatusCounts returns the number of proposals per status.
	StatusCounts(
		ctx context.Context,
	) (map[models.ProposalStatus]int64, error)

	// Votes returns every vote for the given proposal in insertion
	// order.
	Votes(
		ctx context.Context,
		proposalId string,
	) ([]models.Vote, error)

	// SubmitVote appends a vote and applies any implied status
	// transition.
	SubmitVote(
		ctx context.Context,
		proposalId string,
		voterId string,
		decision models.VoteDecision,
		reason string,
	) (governance.VoteResult, error)
}
