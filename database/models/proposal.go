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
	ErrProposalNotFound = errors.New("proposal not found")
	ErrMissingTitle     = errors.New("proposal title is required")
)

// ProposalStatus represents the governance state of a proposal
type ProposalStatus string

const (
	ProposalStatusOpen     ProposalStatus = "open"
	ProposalStatusApproved ProposalStatus = "approved"
	ProposalStatusVetoed   ProposalStatus = "vetoed"
)

// Valid returns true if the status is a known proposal status
func (s ProposalStatus) Valid() bool {
	switch s {
	case ProposalStatusOpen, ProposalStatusApproved, ProposalStatusVetoed:
		return true
	default:
		return false
	}
}

// Terminal returns true if no further status transition is permitted.
// Approved and vetoed are terminal by contract: late votes are recorded
// for audit but never reopen governance.
func (s ProposalStatus) Terminal() bool {
	return s == ProposalStatusApproved || s == ProposalStatusVetoed
}

// Proposal represents a proposed change subject to dual-consensus
// governance. Proposals are created open and transition at most once,
// to approved or vetoed. They are never deleted (audit requirement).
type Proposal struct {
	ID         uint           `gorm:"primarykey"`
	ProposalID string         `gorm:"uniqueIndex;size:64;not null"`
	Title      string         `gorm:"size:255;not null"`
	Body       string         `gorm:"not null"`
	Author     string         `gorm:"size:128"`
	Status     ProposalStatus `gorm:"index;size:16;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName returns the table name
func (Proposal) TableName() string {
	return "proposal"
}
