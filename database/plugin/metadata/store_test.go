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

package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synthient-works/tally/database/models"
	"github.com/synthient-works/tally/database/plugin/metadata"
	"github.com/synthient-works/tally/database/plugin/metadata/sqlite"
)

// The sqlite store must keep satisfying the plugin interface
var _ metadata.MetadataStore = (*sqlite.MetadataStoreSqlite)(nil)

func TestNewSqlitePlugin(t *testing.T) {
	store, err := metadata.New("sqlite", "", nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close() //nolint:errcheck
	})

	err = store.CreateProposal(&models.Proposal{
		ProposalID: "prop-1",
		Title:      "first",
		Status:     models.ProposalStatusOpen,
	}, nil)
	require.NoError(t, err)

	proposal, err := store.GetProposal("prop-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "prop-1", proposal.ProposalID)

	count, err := store.CountProposalsByStatus(
		models.ProposalStatusOpen,
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
