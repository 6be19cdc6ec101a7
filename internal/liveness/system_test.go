// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package liveness

import (
	"testing"

	"github.com/flowgate/validator-core/elections"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

type fakeAuthoritySource struct {
	view elections.AuthoritySetView
}

func (f fakeAuthoritySource) AuthoritySet(elections.SystemKind) elections.AuthoritySetView {
	return f.view
}

type allowAllView struct{ members []elections.AuthorityID }

func (v allowAllView) Contains(a elections.AuthorityID) bool {
	for _, m := range v.members {
		if m == a {
			return true
		}
	}
	return false
}
func (v allowAllView) Index(a elections.AuthorityID) (int, bool) { return 0, true }
func (v allowAllView) Len() int                                  { return len(v.members) }

func TestSystem_KindIsLiveness(t *testing.T) {
	sys := NewSystem(NewTracker(4, nil), nil, elections.SystemBlockWitness)
	require.Equal(t, elections.SystemLiveness, sys.Kind())
}

func TestSystem_OnFinalizeTicksEveryTrackedKind(t *testing.T) {
	tr := NewTracker(4, nil)
	a := ids.GenerateTestNodeID()
	tr.StartTracking(elections.SystemBlockWitness, []elections.AuthorityID{a})
	tr.StartTracking(elections.SystemEgressWitness, []elections.AuthorityID{a})

	src := fakeAuthoritySource{view: allowAllView{members: []elections.AuthorityID{a}}}
	sys := NewSystem(tr, src, elections.SystemBlockWitness, elections.SystemEgressWitness)

	require.NoError(t, sys.OnFinalize(nil, 1))

	require.False(t, tr.IsLive(elections.SystemBlockWitness, a))
	require.False(t, tr.IsLive(elections.SystemEgressWitness, a))

	tr.RecordResponse(elections.SystemBlockWitness, a, 2)
	require.NoError(t, sys.OnFinalize(nil, 2))
	require.True(t, tr.IsLive(elections.SystemBlockWitness, a))
	require.False(t, tr.IsLive(elections.SystemEgressWitness, a))
}

var _ elections.ElectoralSystem = (*System)(nil)
