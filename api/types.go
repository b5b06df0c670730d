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
	"time"

	"github.com/synthient-works/tally/database/models"
)

// ErrorResponse is the error body returned by all endpoints.
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// CreateProposalRequest is the body for POST /api/v1/proposals.
type CreateProposalRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Author string `json:"author"`
}

// SubmitVoteRequest is the body for
// POST /api/v1/proposals/{id}/votes.
type SubmitVoteRequest struct {
	VoterID  string `json:"voter_id"`
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// VoteResponse represents a recorded vote.
type VoteResponse struct {
	ProposalID string    `json:"proposal_id"`
	VoterID    string    `json:"voter_id"`
	Decision   string    `json:"decision"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// SubmitVoteResponse reports the outcome of a vote submission.
// The vote is always recorded; Blocked indicates the computed
// approval was withheld by the evidence gate.
type SubmitVoteResponse struct {
	Vote        VoteResponse `json:"vote"`
	Status      string       `json:"status"`
	Blocked     bool         `json:"blocked"`
	BlockReason string       `json:"block_reason,omitempty"`
}

// ProposalResponse represents a proposal object.
type ProposalResponse struct {
	ProposalID string    `json:"proposal_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Author     string    `json:"author"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ProposalSummary carries the per-status proposal counts returned
// alongside every proposal listing. Counts ignore the status filter.
type ProposalSummary struct {
	Open     int64 `json:"open"`
	Approved int64 `json:"approved"`
	Vetoed   int64 `json:"vetoed"`
}

// ProposalListResponse is the body for GET /api/v1/proposals.
type ProposalListResponse struct {
	Proposals []ProposalResponse `json:"proposals"`
	Summary   ProposalSummary    `json:"summary"`
}

// ProposalDetailResponse is a proposal with its vote ledger.
type ProposalDetailResponse struct {
	ProposalResponse
	Votes []VoteResponse `json:"votes"`
}

func proposalToResponse(p models.Proposal) ProposalResponse {
	return ProposalResponse{
		ProposalID: p.ProposalID,
		Title:      p.Title,
		Body:       p.Body,
		Author:     p.Author,
		Status:     string(p.Status),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func voteToResponse(v models.Vote) VoteResponse {
	return VoteResponse{
		ProposalID: v.ProposalID,
		VoterID:    v.VoterID,
		Decision:   string(v.Decision),
		Reason:     v.Reason,
		CreatedAt:  v.CreatedAt,
	}
}
