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
	"errors"
	"time"
)

var (
	ErrInvalidDecision = errors.New(
		"decision must be \"approve\" or \"veto\"",
	)
	ErrMissingVoter    = errors.New("voter id is required")
	ErrMissingProposal = errors.New("proposal id is required")
)

// VoteDecision represents a voter's decision on a proposal
type VoteDecision string

const (
	VoteDecisionApprove VoteDecision = "approve"
	VoteDecisionVeto    VoteDecision = "veto"
)

// Valid returns true if the decision is one of the two allowed values
func (d VoteDecision) Valid() bool {
	switch d {
	case VoteDecisionApprove, VoteDecisionVeto:
		return true
	default:
		return false
	}
}

// Vote records a single voter decision against a proposal. Votes are
// immutable and append-only: a voter casting a second vote produces a new
// row rather than replacing the first, and both are counted at resolution
// time.
type Vote struct {
	ID         uint         `gorm:"primarykey"`
	ProposalID string       `gorm:"index;size:64;not null"`
	VoterID    string       `gorm:"index;size:128;not null"`
	Decision   VoteDecision `gorm:"size:16;not null"`
	Reason     string       `gorm:"size:1024"`
	CreatedAt  time.Time
}

// TableName returns the table name
func (Vote) TableName() string {
	return "vote"
}
