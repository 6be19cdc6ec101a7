// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package elections

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitmapVoteStorage_OverwriteAndRefcount(t *testing.T) {
	shared := NewSharedDataStore()
	store := NewBitmapVoteStorage(shared)

	a1, a2 := ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	h1 := shared.Provide([]byte("value-1"))
	h2 := shared.Provide([]byte("value-2"))

	require.True(t, store.SubmitVote(a1, 0, h1))
	require.True(t, store.SubmitVote(a2, 1, h1))
	assert.Equal(t, uint32(2), shared.RefCount(h1))
	assert.Equal(t, 2, store.CountsByHash()[h1])

	// a1 changes its vote to h2: refcount on h1 drops, h2 gains a
	// reference (property P7).
	require.True(t, store.SubmitVote(a1, 0, h2))
	assert.Equal(t, uint32(1), shared.RefCount(h1))
	assert.Equal(t, uint32(1), shared.RefCount(h2))
	assert.Equal(t, 1, store.CountsByHash()[h1])
	assert.Equal(t, 1, store.CountsByHash()[h2])

	// resubmitting the same vote is a no-op.
	require.False(t, store.SubmitVote(a1, 0, h2))
}

func TestIndividualVoteStorage_LastAcceptedWins(t *testing.T) {
	store := NewIndividualVoteStorage()
	a1 := ids.GenerateTestNodeID()
	h1 := HashSharedData([]byte("blame-list-v1"))
	h2 := HashSharedData([]byte("blame-list-v2"))

	require.True(t, store.SubmitVote(a1, 0, h1))
	require.True(t, store.SubmitVote(a1, 0, h2))
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 1, store.CountsByHash()[h2])
	assert.Equal(t, 0, store.CountsByHash()[h1])
}

func TestSharedDataStore_ProvideMatchingDroppedWhenUnreferenced(t *testing.T) {
	shared := NewSharedDataStore()
	h := HashSharedData([]byte("late-payload"))

	// No bitmap references h yet: the late payload is dropped (spec S6).
	require.NoError(t, shared.ProvideMatching(h, []byte("late-payload")))
	_, ok := shared.Get(h)
	assert.False(t, ok)

	shared.IncRef(h)
	require.NoError(t, shared.ProvideMatching(h, []byte("late-payload")))
	payload, ok := shared.Get(h)
	require.True(t, ok)
	assert.Equal(t, "late-payload", string(payload))
}

func TestSharedDataStore_MismatchRejected(t *testing.T) {
	shared := NewSharedDataStore()
	h := HashSharedData([]byte("expected"))
	shared.IncRef(h)
	err := shared.ProvideMatching(h, []byte("wrong-payload"))
	assert.ErrorIs(t, err, ErrSharedDataMismatch)
}
