// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"context"
	"testing"

	"github.com/flowgate/validator-core/elections"
	"github.com/stretchr/testify/require"
)

func newTestPallet() *Pallet {
	registry := elections.NewRegistry(nil, 0, nil, nil)
	runner := elections.NewRunner(registry, nil, nil)
	return New(runner, NewMemoryStore(), nil)
}

func TestPallet_PauseResumeGovernance(t *testing.T) {
	p := newTestPallet()

	p.PauseElections()
	require.ErrorIs(t, p.OnFinalize(1), elections.ErrElectionsPaused)

	p.ResumeElections()
	require.NoError(t, p.OnFinalize(2))
}

func TestPallet_OverrideCorruptionResumes(t *testing.T) {
	p := newTestPallet()
	p.PauseElections()

	p.OverrideCorruption()
	require.NoError(t, p.OnFinalize(1))
}

func TestPallet_TypedStorageRoundTrips(t *testing.T) {
	p := newTestPallet()
	ctx := context.Background()

	type counters struct {
		Elections int `json:"elections"`
	}

	ok, err := p.GetTyped(ctx, "counters", &counters{})
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, p.SetTyped(ctx, "counters", counters{Elections: 7}))

	var got counters
	ok, err = p.GetTyped(ctx, "counters", &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 7, got.Elections)
}

func TestPallet_WithPalletRoundTrips(t *testing.T) {
	p := newTestPallet()
	ctx := WithPallet(context.Background(), p)
	require.Same(t, p, FromContext(ctx))
	require.Nil(t, FromContext(context.Background()))
}
