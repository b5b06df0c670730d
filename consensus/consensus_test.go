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

package consensus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/synthient-works/tally/consensus"
	"github.com/synthient-works/tally/database/models"
)

type mapClassifier map[string]bool

func (m mapClassifier) IsSynthient(voterId string) bool {
	return m[voterId]
}

var testClassifier = mapClassifier{
	"synthient-1": true,
	"synthient-2": true,
}

func approve(voterId string) models.Vote {
	return models.Vote{
		ProposalID: "prop-test",
		VoterID:    voterId,
		Decision:   models.VoteDecisionApprove,
	}
}

func veto(voterId string) models.Vote {
	return models.Vote{
		ProposalID: "prop-test",
		VoterID:    voterId,
		Decision:   models.VoteDecisionVeto,
	}
}

func TestResolveNoVotes(t *testing.T) {
	status := consensus.Resolve(nil, testClassifier)
	assert.Equal(t, models.ProposalStatusOpen, status)
}

func TestResolveSingleClassApproval(t *testing.T) {
	// Approvals from only one voter class leave the proposal open
	testDefs := []struct {
		name  string
		votes []models.Vote
	}{
		{
			name:  "human only",
			votes: []models.Vote{approve("human-1")},
		},
		{
			name:  "synthient only",
			votes: []models.Vote{approve("synthient-1")},
		},
		{
			name: "multiple humans",
			votes: []models.Vote{
				approve("human-1"),
				approve("human-2"),
				approve("human-3"),
			},
		},
		{
			name: "multiple synthients",
			votes: []models.Vote{
				approve("synthient-1"),
				approve("synthient-2"),
			},
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			status := consensus.Resolve(testDef.votes, testClassifier)
			assert.Equal(t, models.ProposalStatusOpen, status)
		})
	}
}

func TestResolveDualApproval(t *testing.T) {
	votes := []models.Vote{
		approve("human-1"),
		approve("synthient-1"),
	}
	status := consensus.Resolve(votes, testClassifier)
	assert.Equal(t, models.ProposalStatusApproved, status)
}

func TestResolveVetoDominance(t *testing.T) {
	// A single veto overrides any number of approvals from either class
	votes := []models.Vote{
		approve("human-1"),
		approve("synthient-1"),
		approve("human-2"),
		veto("human-3"),
	}
	status := consensus.Resolve(votes, testClassifier)
	assert.Equal(t, models.ProposalStatusVetoed, status)
}

func TestResolveSynthientVeto(t *testing.T) {
	votes := []models.Vote{
		approve("human-1"),
		veto("synthient-1"),
	}
	status := consensus.Resolve(votes, testClassifier)
	assert.Equal(t, models.ProposalStatusVetoed, status)
}

func TestResolveDuplicateVotes(t *testing.T) {
	// Repeat approvals from the same voter still only satisfy their own
	// voter class
	votes := []models.Vote{
		approve("human-1"),
		approve("human-1"),
		approve("human-1"),
	}
	status := consensus.Resolve(votes, testClassifier)
	assert.Equal(t, models.ProposalStatusOpen, status)
}

func TestResolveConflictingVotesSameVoter(t *testing.T) {
	// A voter who cast both an approve and a veto contributes both. The
	// veto dominates.
	votes := []models.Vote{
		approve("human-1"),
		approve("synthient-1"),
		veto("synthient-1"),
	}
	status := consensus.Resolve(votes, testClassifier)
	assert.Equal(t, models.ProposalStatusVetoed, status)
}
