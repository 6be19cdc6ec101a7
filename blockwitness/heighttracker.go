// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package blockwitness

import (
	"sync"

	"github.com/flowgate/validator-core/elections"
	"github.com/luxfi/log"
)

type trackerPhase uint8

const (
	phaseStarting trackerPhase = iota
	phaseRunning
)

// HeightTrackerConfig mirrors the electoral system's pinned settings
// (spec §4.4): the lookback window within which reorgs can be detected and
// the super-majority threshold rule.
type HeightTrackerConfig struct {
	// BlockBufferSize ("BLOCK_BUFFER_SIZE") bounds how many of the most
	// recently confirmed heights are retained for reorg comparison.
	BlockBufferSize uint64
	// Threshold computes the required vote count from the active
	// authority count; nil defaults to elections.DefaultThreshold.
	Threshold elections.ThresholdFunc
}

// HeightTracker is the block-height tracker (BHW, C5): it turns
// per-authority best-block header reports into a linearised, reorg-aware
// chain progression for the downstream witnesser (spec §4.4).
type HeightTracker struct {
	mu     sync.Mutex
	cfg    HeightTrackerConfig
	phase  trackerPhase
	log    log.Logger

	// votes[height][authority] = reported hash, retained only for heights
	// within the lookback buffer of the current confirmed tip.
	votes map[Height]map[elections.AuthorityID]BlockHash

	// latestHashAtHeight is the last BLOCK_BUFFER_SIZE heights' confirmed
	// hash (spec §4.4 "Consensus rule").
	latestHashAtHeight map[Height]BlockHash

	confirmedTip Height
	hasTip       bool
}

// NewHeightTracker constructs a BHW instance starting in the "Starting"
// phase (spec §4.4 "State machine sketch").
func NewHeightTracker(cfg HeightTrackerConfig, logger log.Logger) *HeightTracker {
	if cfg.BlockBufferSize == 0 {
		cfg.BlockBufferSize = 64
	}
	if cfg.Threshold == nil {
		cfg.Threshold = elections.DefaultThreshold
	}
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &HeightTracker{
		cfg:                cfg,
		phase:              phaseStarting,
		log:                logger,
		votes:              make(map[Height]map[elections.AuthorityID]BlockHash),
		latestHashAtHeight: make(map[Height]BlockHash),
	}
}

// ReportHeaders records a contiguous headers buffer ending at authority's
// observed best block (spec §4.4 "Input"). Headers outside the lookback
// window relative to the current confirmed tip are ignored.
func (t *HeightTracker) ReportHeaders(authority elections.AuthorityID, headers []Header) {
	t.mu.Lock()
	defer t.mu.Unlock()

	floor := Height(0)
	if t.hasTip && t.confirmedTip+1 > t.cfg.BlockBufferSize {
		floor = t.confirmedTip + 1 - t.cfg.BlockBufferSize
	}
	for _, h := range headers {
		if t.hasTip && h.Height < floor {
			continue
		}
		if t.votes[h.Height] == nil {
			t.votes[h.Height] = make(map[elections.AuthorityID]BlockHash)
		}
		t.votes[h.Height][authority] = h.Hash
	}
}

// Tick evaluates the hash super-majority at every height in the lookback
// buffer and returns the resulting ChainProgress (spec §4.4 "Consensus
// rule" / "Output"). It is called once per finalize tick.
func (t *HeightTracker) Tick(activeAuthorityCount int) ChainProgress {
	t.mu.Lock()
	defer t.mu.Unlock()

	need := t.cfg.Threshold(activeAuthorityCount)
	confirmed := t.confirmedHeights(need)
	if len(confirmed) == 0 {
		return ChainProgress{Kind: ProgressNone}
	}

	if t.phase == phaseStarting {
		return t.startFirstConsensus(confirmed)
	}
	return t.advanceRunning(confirmed)
}

// confirmedHeights returns, for every height with tallied votes, the hash
// reaching the required threshold, if any.
func (t *HeightTracker) confirmedHeights(need int) map[Height]BlockHash {
	out := make(map[Height]BlockHash)
	for height, votes := range t.votes {
		counts := make(map[BlockHash]int, len(votes))
		for _, hash := range votes {
			counts[hash]++
		}
		for hash, count := range counts {
			if count >= need {
				out[height] = hash
				break
			}
		}
	}
	return out
}

func (t *HeightTracker) startFirstConsensus(confirmed map[Height]BlockHash) ChainProgress {
	start, ok := minHeight(confirmed)
	if !ok {
		return ChainProgress{Kind: ProgressNone}
	}
	end := start
	for {
		if hash, ok := confirmed[end+1]; ok {
			t.latestHashAtHeight[end+1] = hash
			end++
			continue
		}
		break
	}
	t.latestHashAtHeight[start] = confirmed[start]
	t.confirmedTip = end
	t.hasTip = true
	t.phase = phaseRunning
	t.gc()
	return ChainProgress{Kind: ProgressFirstConsensus, Range: HeightRange{Start: start, End: end}}
}

func (t *HeightTracker) advanceRunning(confirmed map[Height]BlockHash) ChainProgress {
	floor := Height(0)
	if t.confirmedTip+1 > t.cfg.BlockBufferSize {
		floor = t.confirmedTip + 1 - t.cfg.BlockBufferSize
	}

	// Look for the first (lowest) height within the buffer whose newly
	// confirmed hash disagrees with what was previously confirmed: a
	// reorg (spec §4.4 "Output: Reorg").
	for h := floor; h <= t.confirmedTip; h++ {
		newHash, ok := confirmed[h]
		if !ok {
			continue
		}
		oldHash, hadOld := t.latestHashAtHeight[h]
		if hadOld && newHash != oldHash {
			return t.resolveReorg(h, confirmed)
		}
	}

	// No disagreement: try to extend the tip forward contiguously.
	end := t.confirmedTip
	for {
		hash, ok := confirmed[end+1]
		if !ok {
			break
		}
		t.latestHashAtHeight[end+1] = hash
		end++
	}
	if end == t.confirmedTip {
		return ChainProgress{Kind: ProgressNone}
	}
	start := t.confirmedTip + 1
	t.confirmedTip = end
	t.gc()
	return ChainProgress{Kind: ProgressRange, Range: HeightRange{Start: start, End: end}}
}

// resolveReorg re-confirms the chain from the first disagreeing height
// upward, maintaining invariant P4: the new tip is never shorter than the
// previous one, because every authority that kept reporting up to its best
// block necessarily re-confirms the suffix up to at least the old tip once
// it has switched to the winning fork.
func (t *HeightTracker) resolveReorg(firstDisagreement Height, confirmed map[Height]BlockHash) ChainProgress {
	oldTip := t.confirmedTip
	end := firstDisagreement - 1
	for h := firstDisagreement; ; h++ {
		if _, ok := confirmed[h]; !ok {
			break
		}
		end = h
	}
	if end < oldTip {
		// The new fork has not yet reconfirmed up to the old tip; stay
		// pinned at the old tip and report no progress until it does
		// (preserves P4 rather than emitting a shortening reorg).
		return ChainProgress{Kind: ProgressNone}
	}
	for h := firstDisagreement; h <= end; h++ {
		t.latestHashAtHeight[h] = confirmed[h]
	}
	t.confirmedTip = end
	t.gc()
	return ChainProgress{Kind: ProgressReorg, Range: HeightRange{Start: firstDisagreement, End: end}}
}

// gc prunes vote tallies and confirmed-hash history older than the
// lookback buffer relative to the current tip.
func (t *HeightTracker) gc() {
	if !t.hasTip || t.confirmedTip+1 <= t.cfg.BlockBufferSize {
		return
	}
	floor := t.confirmedTip + 1 - t.cfg.BlockBufferSize
	for h := range t.votes {
		if h < floor {
			delete(t.votes, h)
		}
	}
	for h := range t.latestHashAtHeight {
		if h < floor {
			delete(t.latestHashAtHeight, h)
		}
	}
}

// ConfirmedTip reports the current confirmed tip height, for tests and
// observability.
func (t *HeightTracker) ConfirmedTip() (Height, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.confirmedTip, t.hasTip
}

func minHeight(m map[Height]BlockHash) (Height, bool) {
	first := true
	var min Height
	for h := range m {
		if first || h < min {
			min = h
			first = false
		}
	}
	return min, !first
}
