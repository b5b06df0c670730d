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

package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synthient-works/tally/database/models"
)

func setupTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := New(Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close() //nolint:errcheck
	})
	return db
}

func TestCreateProposalOwnedTxn(t *testing.T) {
	db := setupTestDatabase(t)

	err := db.CreateProposal(&models.Proposal{
		ProposalID: "prop-1",
		Title:      "first",
		Status:     models.ProposalStatusOpen,
	}, nil)
	require.NoError(t, err)

	proposal, err := db.GetProposal("prop-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "first", proposal.Title)
}

func TestSetProposalStatusRollbackOnError(t *testing.T) {
	db := setupTestDatabase(t)

	require.NoError(t, db.CreateProposal(&models.Proposal{
		ProposalID: "prop-1",
		Title:      "first",
		Status:     models.ProposalStatusOpen,
	}, nil))

	// Transition attempts via Do that fail should leave status untouched
	err := db.Transaction(true).Do(func(txn *Txn) error {
		if err := db.SetProposalStatus(
			"prop-1",
			models.ProposalStatusApproved,
			txn,
		); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	proposal, err := db.GetProposal("prop-1", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusOpen, proposal.Status)
}

func TestTransactionCommitAdvancesTimestamp(t *testing.T) {
	db := setupTestDatabase(t)

	err := db.Transaction(true).Do(func(txn *Txn) error {
		return db.CreateProposal(&models.Proposal{
			ProposalID: "prop-1",
			Title:      "first",
			Status:     models.ProposalStatusOpen,
		}, txn)
	})
	require.NoError(t, err)

	metadataTs, err := db.Metadata().GetCommitTimestamp()
	require.NoError(t, err)
	assert.Greater(t, metadataTs, int64(0))

	blobTs, err := db.Blob().GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, metadataTs, blobTs)
}

func TestAuditJournal(t *testing.T) {
	db := setupTestDatabase(t)

	entries := []AuditEntry{
		{
			Kind:       "proposal_created",
			ProposalID: "prop-1",
			Status:     "open",
		},
		{
			Kind:       "status_transition",
			ProposalID: "prop-1",
			Status:     "vetoed",
			Detail:     "open -> vetoed",
		},
		{
			Kind:       "proposal_created",
			ProposalID: "prop-2",
			Status:     "open",
		},
	}
	for _, entry := range entries {
		require.NoError(t, db.AddAuditEntry(entry, nil))
	}

	// All entries in chronological order
	got, err := db.GetAuditEntries("", nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "proposal_created", got[0].Kind)
	assert.Equal(t, "status_transition", got[1].Kind)
	assert.False(t, got[0].Timestamp.IsZero())

	// Filtered by proposal
	got, err = db.GetAuditEntries("prop-1", nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "prop-1", got[0].ProposalID)
	assert.Equal(t, "prop-1", got[1].ProposalID)
}

func TestVotesAcrossStores(t *testing.T) {
	db := setupTestDatabase(t)

	require.NoError(t, db.CreateProposal(&models.Proposal{
		ProposalID: "prop-1",
		Title:      "first",
		Status:     models.ProposalStatusOpen,
	}, nil))

	require.NoError(t, db.AddVote(&models.Vote{
		ProposalID: "prop-1",
		VoterID:    "human-1",
		Decision:   models.VoteDecisionApprove,
	}, nil))
	require.NoError(t, db.AddVote(&models.Vote{
		ProposalID: "prop-1",
		VoterID:    "synthient-1",
		Decision:   models.VoteDecisionApprove,
	}, nil))

	votes, err := db.GetVotesByProposal("prop-1", nil)
	require.NoError(t, err)
	require.Len(t, votes, 2)
	assert.Equal(t, "human-1", votes[0].VoterID)
	assert.Equal(t, "synthient-1", votes[1].VoterID)
}
