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
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/synthient-works/tally/database/types"
)

const auditKeyPrefix = "audit:"

// auditSeq disambiguates entries recorded within the same nanosecond
var auditSeq atomic.Uint64

// AuditEntry records a single governance action in the append-only
// audit journal
type AuditEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Kind       string    `json:"kind"`
	ProposalID string    `json:"proposal_id"`
	VoterID    string    `json:"voter_id,omitempty"`
	Decision   string    `json:"decision,omitempty"`
	Status     string    `json:"status,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

func auditKey(timestamp time.Time, seq uint64) []byte {
	// Zero-padded nanos keep keys in chronological order under iteration
	return fmt.Appendf(
		nil,
		"%s%020d:%d",
		auditKeyPrefix,
		timestamp.UnixNano(),
		seq,
	)
}

// AddAuditEntry appends an entry to the audit journal. Entries are never
// updated or removed.
func (d *Database) AddAuditEntry(
	entry AuditEntry,
	txn *Txn,
) error {
	owned := false
	if txn == nil {
		txn = d.BlobTxn(true)
		owned = true
		defer func() {
			if owned {
				txn.Rollback() //nolint:errcheck
			}
		}()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	val, err := json.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}
	key := auditKey(entry.Timestamp, auditSeq.Add(1))
	if err := d.blob.Set(txn.Blob(), key, val); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		owned = false
	}
	return nil
}

// GetAuditEntries returns journal entries in chronological order,
// optionally filtered by proposal ID
func (d *Database) GetAuditEntries(
	proposalId string,
	txn *Txn,
) ([]AuditEntry, error) {
	if txn == nil {
		txn = d.BlobTxn(false)
		defer txn.Release()
	}
	var ret []AuditEntry
	iter := d.blob.NewIterator(
		txn.Blob(),
		types.BlobIteratorOptions{Prefix: []byte(auditKeyPrefix)},
	)
	defer iter.Close()
	for iter.Rewind(); iter.Valid(); iter.Next() {
		val, err := iter.Item().ValueCopy(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read audit entry: %w", err)
		}
		var entry AuditEntry
		if err := json.Unmarshal(val, &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit entry: %w", err)
		}
		if proposalId != "" && entry.ProposalID != proposalId {
			continue
		}
		ret = append(ret, entry)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}
