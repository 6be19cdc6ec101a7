// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package chainclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMergeBlockStream_DedupsPolledHeightAlreadySeenFromHeads(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	heads := make(chan Header, 1)
	heads <- Header{Height: 5}

	polls := 0
	poll := func(context.Context) (Header, error) {
		polls++
		return Header{Height: 5}, nil // already delivered via heads; must be dropped
	}

	out := MergeBlockStream(ctx, heads, 5*time.Millisecond, poll)

	select {
	case h := <-out:
		require.Equal(t, Height(5), h.Height)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for head-delivered header")
	}

	select {
	case h, ok := <-out:
		t.Fatalf("unexpected second emission: %+v (ok=%v)", h, ok)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMergeBlockStream_FallsBackToPollOnEmptyHeads(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	heads := make(chan Header)
	poll := func(context.Context) (Header, error) {
		return Header{Height: 9}, nil
	}

	out := MergeBlockStream(ctx, heads, 5*time.Millisecond, poll)

	select {
	case h := <-out:
		require.Equal(t, Height(9), h.Height)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for polled header")
	}
}

func TestMergeBlockStream_IgnoresPollErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	heads := make(chan Header)
	calls := 0
	poll := func(context.Context) (Header, error) {
		calls++
		if calls < 2 {
			return Header{}, errors.New("transient rpc error")
		}
		return Header{Height: 1}, nil
	}

	out := MergeBlockStream(ctx, heads, 5*time.Millisecond, poll)

	select {
	case h := <-out:
		require.Equal(t, Height(1), h.Height)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for header after transient error")
	}
	require.GreaterOrEqual(t, calls, 2)
}

func TestMergeBlockStream_PollsThroughAMockSource(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)
	src.EXPECT().BestBlock(gomock.Any()).Return(Header{Height: 42}, nil).Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	heads := make(chan Header)
	out := MergeBlockStream(ctx, heads, 5*time.Millisecond, src.BestBlock)

	select {
	case h := <-out:
		require.Equal(t, Height(42), h.Height)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for header polled through MockSource")
	}
}
