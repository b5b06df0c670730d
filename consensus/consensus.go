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

// Package consensus implements dual-consensus resolution over the vote
// ledger. A proposal is approved only when both voter classes (synthient
// and human) have at least one approval, and any single veto from either
// class is decisive.
package consensus

import (
	"github.com/synthient-works/tally/database/models"
)

// VoterClassifier reports whether a voter identity belongs to the
// synthient voter class
type VoterClassifier interface {
	IsSynthient(voterId string) bool
}

// Resolve computes the status implied by the given votes. It is a pure
// function of the full vote set: the ledger is append-only, so every
// recorded vote participates, including repeat votes from the same voter.
//
// Veto dominance: any veto resolves to vetoed regardless of approvals.
// Otherwise approvals from both classes resolve to approved, and anything
// less leaves the proposal open.
func Resolve(
	votes []models.Vote,
	classifier VoterClassifier,
) models.ProposalStatus {
	var synthientApproval, humanApproval bool
	for _, vote := range votes {
		switch vote.Decision {
		case models.VoteDecisionVeto:
			return models.ProposalStatusVetoed
		case models.VoteDecisionApprove:
			if classifier.IsSynthient(vote.VoterID) {
				synthientApproval = true
			} else {
				humanApproval = true
			}
		}
	}
	if synthientApproval && humanApproval {
		return models.ProposalStatusApproved
	}
	return models.ProposalStatusOpen
}
