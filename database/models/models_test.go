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

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProposalStatusValid(t *testing.T) {
	assert.True(t, ProposalStatusOpen.Valid())
	assert.True(t, ProposalStatusApproved.Valid())
	assert.True(t, ProposalStatusVetoed.Valid())
	assert.False(t, ProposalStatus("pending").Valid())
	assert.False(t, ProposalStatus("").Valid())
}

func TestProposalStatusTerminal(t *testing.T) {
	assert.False(t, ProposalStatusOpen.Terminal())
	assert.True(t, ProposalStatusApproved.Terminal())
	assert.True(t, ProposalStatusVetoed.Terminal())
}

func TestVoteDecisionValid(t *testing.T) {
	assert.True(t, VoteDecisionApprove.Valid())
	assert.True(t, VoteDecisionVeto.Valid())
	assert.False(t, VoteDecision("abstain").Valid())
	assert.False(t, VoteDecision("").Valid())
}
