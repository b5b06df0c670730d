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

package badger

import (
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synthient-works/tally/database/types"
)

func setupTestStore(t *testing.T) *BlobStoreBadger {
	t.Helper()
	store, err := New()
	require.NoError(t, err)
	require.NoError(t, store.Start())
	t.Cleanup(func() {
		store.Close() //nolint:errcheck
	})
	return store
}

func TestOptions(t *testing.T) {
	b := &BlobStoreBadger{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()

	WithDataDir("/tmp/test")(b)
	WithBlockCacheSize(123456789)(b)
	WithIndexCacheSize(987654321)(b)
	WithLogger(logger)(b)
	WithPromRegistry(registry)(b)
	WithGc(true)(b)

	assert.Equal(t, "/tmp/test", b.dataDir)
	assert.Equal(t, uint64(123456789), b.blockCacheSize)
	assert.Equal(t, uint64(987654321), b.indexCacheSize)
	assert.Equal(t, logger, b.logger)
	assert.Equal(t, prometheus.Registerer(registry), b.promRegistry)
	assert.True(t, b.gcEnabled)

	WithGc(false)(b)
	assert.False(t, b.gcEnabled)
}

func TestGetSet(t *testing.T) {
	store := setupTestStore(t)

	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("key1"), []byte("value1")))
	require.NoError(t, txn.Commit())

	readTxn := store.NewTransaction(false)
	defer readTxn.Rollback() //nolint:errcheck
	val, err := store.Get(readTxn, []byte("key1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value1"), val)
}

func TestGetMissingKey(t *testing.T) {
	store := setupTestStore(t)

	txn := store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	_, err := store.Get(txn, []byte("missing"))
	assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	store := setupTestStore(t)

	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("key1"), []byte("value1")))
	require.NoError(t, txn.Rollback())

	readTxn := store.NewTransaction(false)
	defer readTxn.Rollback() //nolint:errcheck
	_, err := store.Get(readTxn, []byte("key1"))
	assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestIteratorPrefix(t *testing.T) {
	store := setupTestStore(t)

	txn := store.NewTransaction(true)
	for _, kv := range [][2]string{
		{"audit:001", "a"},
		{"audit:002", "b"},
		{"other:001", "c"},
	} {
		require.NoError(t, store.Set(txn, []byte(kv[0]), []byte(kv[1])))
	}
	require.NoError(t, txn.Commit())

	readTxn := store.NewTransaction(false)
	defer readTxn.Rollback() //nolint:errcheck
	iter := store.NewIterator(
		readTxn,
		types.BlobIteratorOptions{Prefix: []byte("audit:")},
	)
	defer iter.Close()
	var keys []string
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Item().Key()))
	}
	require.NoError(t, iter.Err())
	assert.Equal(t, []string{"audit:001", "audit:002"}, keys)
}

func TestCommitTimestampRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	// No timestamp recorded yet
	_, err := store.GetCommitTimestamp()
	assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)

	txn := store.NewTransaction(true)
	require.NoError(t, store.SetCommitTimestamp(12345, txn))
	require.NoError(t, txn.Commit())

	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(12345), ts)
}
