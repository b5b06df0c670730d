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
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synthient-works/tally/database/models"
	"github.com/synthient-works/tally/event"
	"github.com/synthient-works/tally/governance"
)

// mockProvider is a fixed-data GovernanceProvider for handler tests
type mockProvider struct {
	proposals  []models.Proposal
	votes      map[string][]models.Vote
	voteResult governance.VoteResult
	voteErr    error
}

func (m *mockProvider) CreateProposal(
	ctx context.Context,
	title string,
	body string,
	author string,
) (models.Proposal, error) {
	if title == "" {
		return models.Proposal{}, models.ErrMissingTitle
	}
	proposal := models.Proposal{
		ProposalID: "prop-new",
		Title:      title,
		Body:       body,
		Author:     author,
		Status:     models.ProposalStatusOpen,
	}
	m.proposals = append(m.proposals, proposal)
	return proposal, nil
}

func (m *mockProvider) Proposal(
	ctx context.Context,
	proposalId string,
) (models.Proposal, error) {
	for _, proposal := range m.proposals {
		if proposal.ProposalID == proposalId {
			return proposal, nil
		}
	}
	return models.Proposal{}, models.ErrProposalNotFound
}

func (m *mockProvider) Proposals(
	ctx context.Context,
	status models.ProposalStatus,
	limit int,
	offset int,
) ([]models.Proposal, error) {
	var ret []models.Proposal
	for _, proposal := range m.proposals {
		if status != "" && proposal.Status != status {
			continue
		}
		ret = append(ret, proposal)
	}
	if offset > len(ret) {
		offset = len(ret)
	}
	ret = ret[offset:]
	if limit > 0 && limit < len(ret) {
		ret = ret[:limit]
	}
	return ret, nil
}

func (m *mockProvider) CountProposals(
	ctx context.Context,
	status models.ProposalStatus,
) (int64, error) {
	var count int64
	for _, proposal := range m.proposals {
		if status != "" && proposal.Status != status {
			continue
		}
		count++
	}
	return count, nil
}

func (m *mockProvider) StatusCounts(
	ctx context.Context,
) (map[models.ProposalStatus]int64, error) {
	ret := make(map[models.ProposalStatus]int64)
	for _, proposal := range m.proposals {
		ret[proposal.Status]++
	}
	return ret, nil
}

func (m *mockProvider) Votes(
	ctx context.Context,
	proposalId string,
) ([]models.Vote, error) {
	return m.votes[proposalId], nil
}

func (m *mockProvider) SubmitVote(
	ctx context.Context,
	proposalId string,
	voterId string,
	decision models.VoteDecision,
	reason string,
) (governance.VoteResult, error) {
	if m.voteErr != nil {
		return governance.VoteResult{}, m.voteErr
	}
	if _, err := m.Proposal(ctx, proposalId); err != nil {
		return governance.VoteResult{}, err
	}
	if !decision.Valid() {
		return governance.VoteResult{}, models.ErrInvalidDecision
	}
	return m.voteResult, nil
}

func testApi(provider *mockProvider) *Api {
	return New(ApiConfig{}, provider, event.NewEventBus(nil, nil), nil)
}

func testProposals() []models.Proposal {
	return []models.Proposal{
		{
			ProposalID: "prop-1",
			Title:      "first",
			Status:     models.ProposalStatusOpen,
		},
		{
			ProposalID: "prop-2",
			Title:      "second",
			Status:     models.ProposalStatusVetoed,
		},
	}
}

func TestHandleHealth(t *testing.T) {
	a := testApi(&mockProvider{})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	a.handleHealth(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.IsHealthy)
}

func TestHandleCreateProposal(t *testing.T) {
	a := testApi(&mockProvider{})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/proposals",
		strings.NewReader(
			`{"title":"first","body":"details","author":"human-1"}`,
		),
	)
	a.handleCreateProposal(w, r)
	assert.Equal(t, http.StatusCreated, w.Code)
	var resp ProposalResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "prop-new", resp.ProposalID)
	assert.Equal(t, "first", resp.Title)
	assert.Equal(t, "open", resp.Status)
}

func TestHandleCreateProposalMissingTitle(t *testing.T) {
	a := testApi(&mockProvider{})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/proposals",
		strings.NewReader(`{"body":"details"}`),
	)
	a.handleCreateProposal(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleCreateProposalBadBody(t *testing.T) {
	a := testApi(&mockProvider{})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/proposals",
		strings.NewReader("{not json"),
	)
	a.handleCreateProposal(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleListProposals(t *testing.T) {
	a := testApi(&mockProvider{proposals: testProposals()})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/proposals", nil)
	a.handleListProposals(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp ProposalListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Proposals, 2)
	assert.Equal(t, "prop-1", resp.Proposals[0].ProposalID)
	assert.Equal(t, int64(1), resp.Summary.Open)
	assert.Equal(t, int64(0), resp.Summary.Approved)
	assert.Equal(t, int64(1), resp.Summary.Vetoed)
	assert.Equal(t, "2", w.Header().Get("X-Pagination-Count-Total"))
	assert.Equal(t, "1", w.Header().Get("X-Pagination-Page-Total"))
}

func TestHandleListProposalsStatusFilter(t *testing.T) {
	a := testApi(&mockProvider{proposals: testProposals()})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/proposals?status=vetoed",
		nil,
	)
	a.handleListProposals(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp ProposalListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Proposals, 1)
	assert.Equal(t, "prop-2", resp.Proposals[0].ProposalID)
	// Summary counts ignore the status filter
	assert.Equal(t, int64(1), resp.Summary.Open)
	assert.Equal(t, int64(1), resp.Summary.Vetoed)
}

func TestHandleListProposalsUnknownStatus(t *testing.T) {
	a := testApi(&mockProvider{proposals: testProposals()})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/proposals?status=bogus",
		nil,
	)
	a.handleListProposals(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetProposal(t *testing.T) {
	provider := &mockProvider{
		proposals: testProposals(),
		votes: map[string][]models.Vote{
			"prop-1": {
				{
					ProposalID: "prop-1",
					VoterID:    "human-1",
					Decision:   models.VoteDecisionApprove,
				},
			},
		},
	}
	a := testApi(provider)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/proposals/prop-1",
		nil,
	)
	r.SetPathValue("id", "prop-1")
	a.handleGetProposal(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp ProposalDetailResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "prop-1", resp.ProposalID)
	require.Len(t, resp.Votes, 1)
	assert.Equal(t, "human-1", resp.Votes[0].VoterID)
}

func TestHandleGetProposalNotFound(t *testing.T) {
	a := testApi(&mockProvider{})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/proposals/prop-missing",
		nil,
	)
	r.SetPathValue("id", "prop-missing")
	a.handleGetProposal(w, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleSubmitVote(t *testing.T) {
	provider := &mockProvider{
		proposals: testProposals(),
		voteResult: governance.VoteResult{
			Vote: models.Vote{
				ProposalID: "prop-1",
				VoterID:    "human-1",
				Decision:   models.VoteDecisionApprove,
			},
			Status: models.ProposalStatusOpen,
		},
	}
	a := testApi(provider)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/proposals/prop-1/votes",
		strings.NewReader(`{"voter_id":"human-1","decision":"approve"}`),
	)
	r.SetPathValue("id", "prop-1")
	a.handleSubmitVote(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp SubmitVoteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "open", resp.Status)
	assert.False(t, resp.Blocked)
	assert.Equal(t, "human-1", resp.Vote.VoterID)
}

func TestHandleSubmitVoteBlocked(t *testing.T) {
	provider := &mockProvider{
		proposals: testProposals(),
		voteResult: governance.VoteResult{
			Vote: models.Vote{
				ProposalID: "prop-1",
				VoterID:    "synthient-1",
				Decision:   models.VoteDecisionApprove,
			},
			Status:      models.ProposalStatusOpen,
			Blocked:     true,
			BlockReason: "Missing Petals evidence",
		},
	}
	a := testApi(provider)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/proposals/prop-1/votes",
		strings.NewReader(`{"voter_id":"synthient-1","decision":"approve"}`),
	)
	r.SetPathValue("id", "prop-1")
	a.handleSubmitVote(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp SubmitVoteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Blocked)
	assert.Equal(t, "Missing Petals evidence", resp.BlockReason)
}

func TestHandleSubmitVoteInvalidDecision(t *testing.T) {
	a := testApi(&mockProvider{proposals: testProposals()})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/proposals/prop-1/votes",
		strings.NewReader(`{"voter_id":"human-1","decision":"abstain"}`),
	)
	r.SetPathValue("id", "prop-1")
	a.handleSubmitVote(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSubmitVoteUnknownProposal(t *testing.T) {
	a := testApi(&mockProvider{})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/proposals/prop-missing/votes",
		strings.NewReader(`{"voter_id":"human-1","decision":"approve"}`),
	)
	r.SetPathValue("id", "prop-missing")
	a.handleSubmitVote(w, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// readFrame reads the next SSE data frame from the stream
func readFrame(t *testing.T, scanner *bufio.Scanner) sseFrame {
	t.Helper()
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame sseFrame
		require.NoError(
			t,
			json.Unmarshal(
				[]byte(strings.TrimPrefix(line, "data: ")),
				&frame,
			),
		)
		return frame
	}
	t.Fatal("stream ended before next frame")
	return sseFrame{}
}

func TestHandleEventsStream(t *testing.T) {
	provider := &mockProvider{proposals: testProposals()}
	eventBus := event.NewEventBus(nil, nil)
	defer eventBus.Stop()
	a := New(ApiConfig{}, provider, eventBus, nil)

	server := httptest.NewServer(http.HandlerFunc(a.handleEvents))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(
		t,
		"text/event-stream",
		resp.Header.Get("Content-Type"),
	)

	scanner := bufio.NewScanner(resp.Body)

	// Connection ack
	frame := readFrame(t, scanner)
	assert.Equal(t, "connection", frame.Type)
	assert.Equal(t, "SSE connection established", frame.Message)

	// Snapshot of tracked proposals
	for _, proposalId := range []string{"prop-1", "prop-2"} {
		frame = readFrame(t, scanner)
		assert.Equal(t, "snapshot", frame.Type)
		data, ok := frame.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, proposalId, data["proposal_id"])
	}

	// The subscriber is registered before the snapshot is read, so
	// anything published once a snapshot frame has arrived is
	// guaranteed to be delivered.
	eventBus.Publish(
		event.VoteRecordedEventType,
		event.NewEvent(
			event.VoteRecordedEventType,
			event.VoteRecordedEvent{
				ProposalID: "prop-1",
				VoterID:    "human-1",
				Decision:   "approve",
				Timestamp:  time.Now(),
			},
		),
	)

	frame = readFrame(t, scanner)
	assert.Equal(t, "vote", frame.Type)
	data, ok := frame.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "human-1", data["voter_id"])
	assert.Equal(t, "approve", data["decision"])
}
