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

package sqlite

import (
	"errors"

	"github.com/synthient-works/tally/database/models"
	"github.com/synthient-works/tally/database/types"
	"gorm.io/gorm"
)

// CreateProposal stores a new governance proposal
func (d *MetadataStoreSqlite) CreateProposal(
	proposal *models.Proposal,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(proposal); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetProposal returns the proposal with the given proposal ID
func (d *MetadataStoreSqlite) GetProposal(
	proposalId string,
	txn types.Txn,
) (models.Proposal, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return models.Proposal{}, err
	}
	var ret models.Proposal
	result := db.Where("proposal_id = ?", proposalId).First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ret, models.ErrProposalNotFound
		}
		return ret, result.Error
	}
	return ret, nil
}

// GetProposals returns proposals ordered by creation, optionally
// filtered by status. A zero limit means no limit.
func (d *MetadataStoreSqlite) GetProposals(
	status models.ProposalStatus,
	limit int,
	offset int,
	txn types.Txn,
) ([]models.Proposal, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Proposal
	query := db.Order("id ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CountProposalsByStatus returns the number of proposals with the given
// status. An empty status counts all proposals.
func (d *MetadataStoreSqlite) CountProposalsByStatus(
	status models.ProposalStatus,
	txn types.Txn,
) (int64, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	query := db.Model(&models.Proposal{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if result := query.Count(&count); result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// ProposalStatusCounts returns the number of proposals per status
func (d *MetadataStoreSqlite) ProposalStatusCounts(
	txn types.Txn,
) (map[models.ProposalStatus]int64, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Status models.ProposalStatus
		Count  int64
	}
	result := db.Model(&models.Proposal{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	ret := make(map[models.ProposalStatus]int64, len(rows))
	for _, row := range rows {
		ret[row.Status] = row.Count
	}
	return ret, nil
}

// SetProposalStatus updates the status of the proposal with the given
// proposal ID
func (d *MetadataStoreSqlite) SetProposalStatus(
	proposalId string,
	status models.ProposalStatus,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Model(&models.Proposal{}).
		Where("proposal_id = ?", proposalId).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrProposalNotFound
	}
	return nil
}

// AddVote appends a vote to the ledger. Votes are never updated or
// replaced, so repeat votes from the same voter accumulate.
func (d *MetadataStoreSqlite) AddVote(
	vote *models.Vote,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(vote); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetVotesByProposal returns all votes for the given proposal in
// insertion order
func (d *MetadataStoreSqlite) GetVotesByProposal(
	proposalId string,
	txn types.Txn,
) ([]models.Vote, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Vote
	result := db.Where("proposal_id = ?", proposalId).
		Order("id ASC").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
