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

package event

import "time"

// ProposalCreatedEventType is the event type for newly created proposals
const ProposalCreatedEventType = EventType("governance.proposal_created")

// ProposalCreatedEvent is emitted when a new proposal is stored.
// Payload fields carry JSON tags because these events are framed
// directly onto the SSE stream.
type ProposalCreatedEvent struct {
	// ProposalID is the unique identifier of the proposal
	ProposalID string `json:"proposal_id"`
	// Title is the proposal title
	Title string `json:"title"`
	// Author is the identity that submitted the proposal
	Author string `json:"author"`
	// Timestamp is when the proposal was created
	Timestamp time.Time `json:"timestamp"`
}

// VoteRecordedEventType is the event type for votes appended to the ledger
const VoteRecordedEventType = EventType("ledger.vote_recorded")

// VoteRecordedEvent is emitted after a vote has been durably appended to
// the vote ledger. The ledger is append-only, so a voter may appear in
// multiple events for the same proposal.
type VoteRecordedEvent struct {
	// ProposalID is the proposal the vote applies to
	ProposalID string `json:"proposal_id"`
	// VoterID is the identity that cast the vote
	VoterID string `json:"voter_id"`
	// Decision is the vote decision (approve or veto)
	Decision string `json:"decision"`
	// Synthient indicates whether the voter is a registered synthient
	Synthient bool `json:"synthient"`
	// Timestamp is when the vote was recorded
	Timestamp time.Time `json:"timestamp"`
}

// StatusTransitionEventType is the event type for proposal status changes
const StatusTransitionEventType = EventType("governance.status_transition")

// StatusTransitionEvent is emitted when consensus resolution moves a
// proposal out of the open state, and when a computed approval is
// withheld by the evidence gate. Terminal states never transition
// again, so at most one committed transition is emitted per proposal;
// blocked events may repeat until the evidence corpus passes.
type StatusTransitionEvent struct {
	// ProposalID is the proposal that changed status
	ProposalID string `json:"proposal_id"`
	// OldStatus is the status before the transition
	OldStatus string `json:"old_status"`
	// NewStatus is the status after the transition. Equal to OldStatus
	// when Blocked is set.
	NewStatus string `json:"new_status"`
	// Blocked indicates an approval was withheld by the evidence gate
	Blocked bool `json:"blocked"`
	// BlockReason is the human-readable evidence gate failure, if any
	BlockReason string `json:"block_reason,omitempty"`
	// Timestamp is when the transition was applied
	Timestamp time.Time `json:"timestamp"`
}
