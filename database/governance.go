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
	"fmt"

	"github.com/synthient-works/tally/database/models"
)

// CreateProposal stores a new governance proposal
func (d *Database) CreateProposal(
	proposal *models.Proposal,
	txn *Txn,
) error {
	owned := false
	if txn == nil {
		txn = d.MetadataTxn(true)
		owned = true
		defer func() {
			if owned {
				txn.Rollback() //nolint:errcheck
			}
		}()
	}
	if err := d.metadata.CreateProposal(proposal, txn.Metadata()); err != nil {
		return fmt.Errorf("failed to create proposal: %w", err)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		owned = false
	}
	return nil
}

// GetProposal returns the proposal with the given proposal ID
func (d *Database) GetProposal(
	proposalId string,
	txn *Txn,
) (models.Proposal, error) {
	if txn == nil {
		txn = d.MetadataTxn(false)
		defer txn.Release()
	}
	return d.metadata.GetProposal(proposalId, txn.Metadata())
}

// GetProposals returns proposals in creation order, optionally filtered
// by status
func (d *Database) GetProposals(
	status models.ProposalStatus,
	limit int,
	offset int,
	txn *Txn,
) ([]models.Proposal, error) {
	if txn == nil {
		txn = d.MetadataTxn(false)
		defer txn.Release()
	}
	return d.metadata.GetProposals(status, limit, offset, txn.Metadata())
}

// CountProposals returns the number of proposals with the given status.
// An empty status counts all proposals.
func (d *Database) CountProposals(
	status models.ProposalStatus,
	txn *Txn,
) (int64, error) {
	if txn == nil {
		txn = d.MetadataTxn(false)
		defer txn.Release()
	}
	return d.metadata.CountProposalsByStatus(status, txn.Metadata())
}

// ProposalStatusCounts returns the number of proposals per status
func (d *Database) ProposalStatusCounts(
	txn *Txn,
) (map[models.ProposalStatus]int64, error) {
	if txn == nil {
		txn = d.MetadataTxn(false)
		defer txn.Release()
	}
	return d.metadata.ProposalStatusCounts(txn.Metadata())
}

// SetProposalStatus updates the status of the proposal with the given
// proposal ID
func (d *Database) SetProposalStatus(
	proposalId string,
	status models.ProposalStatus,
	txn *Txn,
) error {
	owned := false
	if txn == nil {
		txn = d.MetadataTxn(true)
		owned = true
		defer func() {
			if owned {
				txn.Rollback() //nolint:errcheck
			}
		}()
	}
	if err := d.metadata.SetProposalStatus(
		proposalId,
		status,
		txn.Metadata(),
	); err != nil {
		return fmt.Errorf(
			"failed to set status for proposal %s: %w",
			proposalId,
			err,
		)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		owned = false
	}
	return nil
}

// AddVote appends a vote to the ledger. The ledger is append-only, so
// repeat votes from the same voter are preserved as separate rows.
func (d *Database) AddVote(
	vote *models.Vote,
	txn *Txn,
) error {
	owned := false
	if txn == nil {
		txn = d.MetadataTxn(true)
		owned = true
		defer func() {
			if owned {
				txn.Rollback() //nolint:errcheck
			}
		}()
	}
	if err := d.metadata.AddVote(vote, txn.Metadata()); err != nil {
		return fmt.Errorf("failed to add vote: %w", err)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		owned = false
	}
	return nil
}

// GetVotesByProposal returns all votes for the given proposal in
// insertion order
func (d *Database) GetVotesByProposal(
	proposalId string,
	txn *Txn,
) ([]models.Vote, error) {
	if txn == nil {
		txn = d.MetadataTxn(false)
		defer txn.Release()
	}
	return d.metadata.GetVotesByProposal(proposalId, txn.Metadata())
}
