// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package liveness adapts the teacher's uptime-manager package into the
// "liveness" electoral system named in spec §2's runner table (C4): instead
// of tracking p2p connect/disconnect heartbeats, it tracks whether an
// authority submitted a vote to ANY electoral system during each recent
// window, producing the same IsConnected/CalculateUptimePercent shape the
// teacher's uptime.Manager exposes (SPEC_FULL.md §B).
package liveness

import (
	"sync"

	"github.com/flowgate/validator-core/elections"
)

// record holds one authority's responsiveness history for one electoral
// system kind: a fixed-size ring of per-window response flags.
type record struct {
	windows  []bool
	next     int
	filled   int
	lastSeen uint64
}

// Tracker tracks per-authority responsiveness across elections, windowed by
// block height (spec §2 "liveness" runner-table entry). One Tracker instance
// is shared across all SystemKinds a chain instance hosts; call sites key
// their own data by kind.
type Tracker struct {
	mu         sync.Mutex
	windowSize int
	records    map[elections.SystemKind]map[elections.AuthorityID]*record
	metrics    *Metrics
}

// NewTracker builds a Tracker that remembers the last windowSize ticks of
// responsiveness per authority. windowSize must be positive; the teacher's
// uptime manager has no analogous knob since it tracks wall-clock duration
// instead of discrete windows.
func NewTracker(windowSize int, metrics *Metrics) *Tracker {
	if windowSize <= 0 {
		windowSize = 1
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Tracker{
		windowSize: windowSize,
		records:    make(map[elections.SystemKind]map[elections.AuthorityID]*record),
		metrics:    metrics,
	}
}

// StartTracking begins windowed bookkeeping for authorities newly admitted
// to kind's authority set (mirrors teacher uptime.Manager.StartTracking).
func (t *Tracker) StartTracking(kind elections.SystemKind, authorities []elections.AuthorityID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set := t.records[kind]
	if set == nil {
		set = make(map[elections.AuthorityID]*record)
		t.records[kind] = set
	}
	for _, a := range authorities {
		if _, ok := set[a]; !ok {
			set[a] = &record{windows: make([]bool, t.windowSize)}
		}
	}
}

// StopTracking discards bookkeeping for authorities removed from kind's
// authority set, e.g. at an epoch rotation (mirrors
// teacher uptime.Manager.StopTracking).
func (t *Tracker) StopTracking(kind elections.SystemKind, authorities []elections.AuthorityID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set := t.records[kind]
	if set == nil {
		return
	}
	for _, a := range authorities {
		delete(set, a)
	}
}

// RecordResponse marks authority as having responded to kind at height,
// replacing the teacher's Connect() heartbeat call (spec §B: "repurposed to
// track per-authority responsiveness across elections instead of p2p
// heartbeats"). Safe to call for an authority StartTracking has not seen yet;
// it is then tracked implicitly.
func (t *Tracker) RecordResponse(kind elections.SystemKind, authority elections.AuthorityID, height uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.recordFor(kind, authority)
	r.windows[r.next] = true
	r.next = (r.next + 1) % t.windowSize
	if r.filled < t.windowSize {
		r.filled++
	}
	r.lastSeen = height
}

// Tick closes out the current window for every authority in current that did
// not respond since the last Tick, replacing the teacher's Disconnect() call:
// an authority silent for a whole window is recorded as non-responsive for
// that window rather than merely "not yet seen".
func (t *Tracker) Tick(kind elections.SystemKind, height uint64, current elections.AuthoritySetView) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set := t.records[kind]
	if set == nil {
		return
	}
	for authority, r := range set {
		if current != nil && !current.Contains(authority) {
			continue
		}
		if r.lastSeen == height {
			continue // RecordResponse already advanced this window
		}
		r.windows[r.next] = false
		r.next = (r.next + 1) % t.windowSize
		if r.filled < t.windowSize {
			r.filled++
		}
	}
	t.metrics.TicksTotal.WithLabelValues(kind.String()).Inc()
}

// IsLive reports whether authority responded in the most recently closed
// window for kind (mirrors teacher uptime.Manager.IsConnected).
func (t *Tracker) IsLive(kind elections.SystemKind, authority elections.AuthorityID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.records[kind][authority]
	if r == nil || r.filled == 0 {
		return false
	}
	last := (r.next - 1 + t.windowSize) % t.windowSize
	return r.windows[last]
}

// CalculateUptimePercent returns the fraction of tracked windows in which
// authority responded for kind, mirroring
// teacher uptime.Manager.CalculateUptimePercent's signature but windowed
// instead of wall-clock.
func (t *Tracker) CalculateUptimePercent(kind elections.SystemKind, authority elections.AuthorityID) (float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.records[kind][authority]
	if r == nil || r.filled == 0 {
		return 0, nil
	}
	up := 0
	for i := 0; i < r.filled; i++ {
		if r.windows[i] {
			up++
		}
	}
	pct := float64(up) / float64(r.filled)
	t.metrics.UptimePercent.WithLabelValues(kind.String(), authority.String()).Set(pct)
	return pct, nil
}

func (t *Tracker) recordFor(kind elections.SystemKind, authority elections.AuthorityID) *record {
	set := t.records[kind]
	if set == nil {
		set = make(map[elections.AuthorityID]*record)
		t.records[kind] = set
	}
	r := set[authority]
	if r == nil {
		r = &record{windows: make([]bool, t.windowSize)}
		set[authority] = r
	}
	return r
}
