// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package signing

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func TestBlameAggregator_UnresponsiveParticipantBlamed(t *testing.T) {
	a, b, c := ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	agg := newBlameAggregator([]AuthorityID{a, b, c})
	agg.markResponded(a)
	agg.markResponded(b)

	blamed := agg.Aggregate(2)
	require.Equal(t, []AuthorityID{c}, blamed)
}

func TestBlameAggregator_NamedTargetBlamedBySuperMajorityDissent(t *testing.T) {
	a, b, c, d := ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	agg := newBlameAggregator([]AuthorityID{a, b, c, d})
	for _, p := range []AuthorityID{a, b, c, d} {
		agg.markResponded(p)
	}
	// a, b, c accuse d; Aggregate is called with threshold 3.
	agg.recordDissent(a, d)
	agg.recordDissent(b, d)
	agg.recordDissent(c, d)

	blamed := agg.Aggregate(3)
	require.Contains(t, blamed, d)
	require.NotContains(t, blamed, a)
}

func TestBlameAggregator_MajorityDissentAlsoBlamesNonDissenters(t *testing.T) {
	a, b, c, d := ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	agg := newBlameAggregator([]AuthorityID{a, b, c, d})
	for _, p := range []AuthorityID{a, b, c, d} {
		agg.markResponded(p)
	}
	// a, b, c dissent (each blaming some other party); d stays silent and
	// reports nothing. Since the dissenting voter count (3) reaches the
	// super-majority threshold, d is blamed too even though nobody named it.
	agg.recordDissent(a, b)
	agg.recordDissent(b, c)
	agg.recordDissent(c, a)

	blamed := agg.Aggregate(3)
	require.Contains(t, blamed, d)
}

func TestBlameAggregator_ExplicitlyNamedAlwaysBlamed(t *testing.T) {
	a, b := ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	agg := newBlameAggregator([]AuthorityID{a, b})
	agg.markResponded(a)
	agg.markResponded(b)
	agg.nameExplicitly(b)

	blamed := agg.Aggregate(2)
	require.Equal(t, []AuthorityID{b}, blamed)
}
