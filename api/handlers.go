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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/synthient-works/tally/database/models"
)

// writeJSON writes a JSON response with the given status
// code.
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error response.
func writeError(
	w http.ResponseWriter,
	status int,
	errStr string,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      errStr,
		Message:    message,
	})
}

// handleHealth handles GET /health.
func (a *Api) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

// handleCreateProposal handles POST /api/v1/proposals.
func (a *Api) handleCreateProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req CreateProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid request body",
		)
		return
	}
	proposal, err := a.provider.CreateProposal(
		r.Context(),
		req.Title,
		req.Body,
		req.Author,
	)
	if err != nil {
		if errors.Is(err, models.ErrMissingTitle) {
			writeError(
				w,
				http.StatusBadRequest,
				"Bad Request",
				err.Error(),
			)
			return
		}
		a.logger.Error(
			"failed to create proposal",
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to create proposal",
		)
		return
	}
	writeJSON(w, http.StatusCreated, proposalToResponse(proposal))
}

// handleListProposals handles GET /api/v1/proposals with
// optional status filter and pagination.
func (a *Api) handleListProposals(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			err.Error(),
		)
		return
	}
	var status models.ProposalStatus
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		status = models.ProposalStatus(statusParam)
		if !status.Valid() {
			writeError(
				w,
				http.StatusBadRequest,
				"Bad Request",
				"unknown proposal status",
			)
			return
		}
	}
	proposals, err := a.provider.Proposals(
		r.Context(),
		status,
		params.Count,
		params.Offset(),
	)
	if err != nil {
		a.logger.Error(
			"failed to list proposals",
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to retrieve proposals",
		)
		return
	}
	total, err := a.provider.CountProposals(r.Context(), status)
	if err != nil {
		a.logger.Error(
			"failed to count proposals",
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to retrieve proposals",
		)
		return
	}
	statusCounts, err := a.provider.StatusCounts(r.Context())
	if err != nil {
		a.logger.Error(
			"failed to summarize proposals",
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to retrieve proposals",
		)
		return
	}
	ret := make([]ProposalResponse, 0, len(proposals))
	for _, proposal := range proposals {
		ret = append(ret, proposalToResponse(proposal))
	}
	SetPaginationHeaders(w, int(total), params)
	writeJSON(w, http.StatusOK, ProposalListResponse{
		Proposals: ret,
		Summary: ProposalSummary{
			Open:     statusCounts[models.ProposalStatusOpen],
			Approved: statusCounts[models.ProposalStatusApproved],
			Vetoed:   statusCounts[models.ProposalStatusVetoed],
		},
	})
}

// handleGetProposal handles GET /api/v1/proposals/{id} and
// returns the proposal with its full vote ledger.
func (a *Api) handleGetProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	proposalId := r.PathValue("id")
	proposal, err := a.provider.Proposal(r.Context(), proposalId)
	if err != nil {
		if errors.Is(err, models.ErrProposalNotFound) {
			writeError(
				w,
				http.StatusNotFound,
				"Not Found",
				"proposal not found",
			)
			return
		}
		a.logger.Error(
			"failed to get proposal",
			"proposal_id", proposalId,
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to retrieve proposal",
		)
		return
	}
	votes, err := a.provider.Votes(r.Context(), proposalId)
	if err != nil {
		a.logger.Error(
			"failed to get proposal votes",
			"proposal_id", proposalId,
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to retrieve proposal votes",
		)
		return
	}
	voteResponses := make([]VoteResponse, 0, len(votes))
	for _, vote := range votes {
		voteResponses = append(voteResponses, voteToResponse(vote))
	}
	writeJSON(w, http.StatusOK, ProposalDetailResponse{
		ProposalResponse: proposalToResponse(proposal),
		Votes:            voteResponses,
	})
}

// handleSubmitVote handles POST /api/v1/proposals/{id}/votes.
// The vote is always recorded when valid; a response with
// blocked=true means a computed approval was withheld by the
// evidence gate and the proposal remains open.
func (a *Api) handleSubmitVote(
	w http.ResponseWriter,
	r *http.Request,
) {
	proposalId := r.PathValue("id")
	var req SubmitVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid request body",
		)
		return
	}
	result, err := a.provider.SubmitVote(
		r.Context(),
		proposalId,
		req.VoterID,
		models.VoteDecision(req.Decision),
		req.Reason,
	)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrProposalNotFound):
			writeError(
				w,
				http.StatusNotFound,
				"Not Found",
				"proposal not found",
			)
		case errors.Is(err, models.ErrInvalidDecision),
			errors.Is(err, models.ErrMissingVoter),
			errors.Is(err, models.ErrMissingProposal):
			writeError(
				w,
				http.StatusBadRequest,
				"Bad Request",
				err.Error(),
			)
		default:
			a.logger.Error(
				"failed to submit vote",
				"proposal_id", proposalId,
				"error", err,
			)
			writeError(
				w,
				http.StatusInternalServerError,
				"Internal Server Error",
				"failed to submit vote",
			)
		}
		return
	}
	writeJSON(w, http.StatusOK, SubmitVoteResponse{
		Vote:        voteToResponse(result.Vote),
		Status:      string(result.Status),
		Blocked:     result.Blocked,
		BlockReason: result.BlockReason,
	})
}
