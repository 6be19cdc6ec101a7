// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package signing

import (
	"testing"
	"time"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func TestManager_ReplayProtection(t *testing.T) {
	m := NewManager(nil, nil, nil, func() time.Time { return time.Unix(0, 0) })
	a, b := ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	req := Request{CeremonyID: 1, Kind: CeremonyKeygen, Participants: []AuthorityID{a, b}, StageTimeout: time.Second}

	require.NoError(t, m.StartCeremony(req))
	require.ErrorIs(t, m.StartCeremony(req), ErrCeremonyIDReused)
}

func TestManager_BuffersMessagesForUnauthorisedCeremony(t *testing.T) {
	m := NewManager(nil, nil, nil, func() time.Time { return time.Unix(0, 0) })
	a, b := ids.GenerateTestNodeID(), ids.GenerateTestNodeID()

	require.NoError(t, m.HandleMessage(7, a, 0, []byte("early")))
	require.Equal(t, 0, m.Active())

	req := Request{CeremonyID: 7, Kind: CeremonySigning, Participants: []AuthorityID{a, b}, StageTimeout: time.Second, KeyInfo: nil}
	req.Threshold = 0
	require.NoError(t, m.StartCeremony(req))

	// The buffered message from a should already have been replayed; only
	// b's message is needed to complete the (single, echo-less) stage.
	runner := m.active[7]
	require.NotNil(t, runner)
	require.Contains(t, runner.received, a)
}

func TestManager_TickTimesOutStalledCeremony(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	m := NewManager(nil, nil, nil, clock)
	a, b := ids.GenerateTestNodeID(), ids.GenerateTestNodeID()

	req := Request{CeremonyID: 3, Kind: CeremonyKeygen, Participants: []AuthorityID{a, b}, StageTimeout: 5 * time.Second}
	require.NoError(t, m.StartCeremony(req))
	require.Equal(t, 1, m.Active())

	now = now.Add(10 * time.Second)
	m.Tick()
	require.Equal(t, 0, m.Active())

	select {
	case outcome := <-m.Outcomes():
		require.ErrorIs(t, outcome.Err, ErrCeremonyTimedOut)
		require.ElementsMatch(t, []AuthorityID{a, b}, outcome.Blamed)
	default:
		t.Fatal("expected a timeout outcome")
	}
}
