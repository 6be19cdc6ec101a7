// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package blockwitness

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hashOf(b byte) BlockHash {
	var h BlockHash
	h[0] = b
	return h
}

func headerChain(from, to Height, fork byte) []Header {
	out := make([]Header, 0, to-from+1)
	for h := from; h <= to; h++ {
		hash := hashOf(fork)
		hash[1] = byte(h)
		out = append(out, Header{Height: h, Hash: hash})
	}
	return out
}

func TestHeightTracker_FirstConsensusThenExtend(t *testing.T) {
	authorities := []ids.NodeID{ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID()}
	tr := NewHeightTracker(HeightTrackerConfig{BlockBufferSize: 16}, nil)

	for _, a := range authorities {
		tr.ReportHeaders(a, headerChain(0, 0, 1))
	}
	progress := tr.Tick(len(authorities))
	require.Equal(t, ProgressFirstConsensus, progress.Kind)
	require.Equal(t, HeightRange{Start: 0, End: 0}, progress.Range)

	for _, a := range authorities {
		tr.ReportHeaders(a, headerChain(1, 1, 1))
	}
	progress = tr.Tick(len(authorities))
	require.Equal(t, ProgressRange, progress.Kind)
	require.Equal(t, HeightRange{Start: 1, End: 1}, progress.Range)

	tip, ok := tr.ConfirmedTip()
	require.True(t, ok)
	assert.Equal(t, Height(1), tip)
}

func TestHeightTracker_NoProgressWithoutSuperMajority(t *testing.T) {
	authorities := []ids.NodeID{ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID()}
	tr := NewHeightTracker(HeightTrackerConfig{BlockBufferSize: 16}, nil)

	// Only 2 of 4 authorities agree; threshold(4) = 4, so no progress.
	tr.ReportHeaders(authorities[0], headerChain(0, 0, 1))
	tr.ReportHeaders(authorities[1], headerChain(0, 0, 1))
	tr.ReportHeaders(authorities[2], headerChain(0, 0, 2))
	tr.ReportHeaders(authorities[3], headerChain(0, 0, 3))

	progress := tr.Tick(len(authorities))
	require.Equal(t, ProgressNone, progress.Kind)
}

func TestHeightTracker_ReorgNeverShortensChain(t *testing.T) {
	authorities := []ids.NodeID{ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID()}
	tr := NewHeightTracker(HeightTrackerConfig{BlockBufferSize: 16}, nil)

	for _, a := range authorities {
		tr.ReportHeaders(a, headerChain(0, 3, 1))
	}
	progress := tr.Tick(len(authorities))
	require.Equal(t, ProgressFirstConsensus, progress.Kind)
	require.Equal(t, Height(3), progress.Range.End)

	// All authorities switch to fork 2 from height 1 onward, reconfirming
	// at least up to the old tip.
	for _, a := range authorities {
		tr.ReportHeaders(a, headerChain(1, 3, 2))
	}
	progress = tr.Tick(len(authorities))
	require.Equal(t, ProgressReorg, progress.Kind)
	require.Equal(t, Height(1), progress.Range.Start)
	require.GreaterOrEqual(t, progress.Range.End, Height(3))
}
