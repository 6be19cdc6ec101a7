// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package elections

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeTally map[SharedDataHash]int

func (f fakeTally) CountsByHash() map[SharedDataHash]int { return f }
func (f fakeTally) Resolve(h SharedDataHash) ([]byte, bool) {
	if _, ok := f[h]; !ok {
		return nil, false
	}
	return []byte(h.String()), true
}

// unresolvedTally counts votes like fakeTally but never resolves a payload.
type unresolvedTally struct{ fakeTally }

func (unresolvedTally) Resolve(SharedDataHash) ([]byte, bool) { return nil, false }

func TestDefaultThreshold(t *testing.T) {
	// threshold(n) = ceil(2n/3) + 1
	cases := map[int]int{
		1:  2,
		3:  3,
		4:  4,
		6:  5,
		9:  7,
		10: 8,
	}
	for n, want := range cases {
		assert.Equal(t, want, DefaultThreshold(n), "n=%d", n)
	}
}

func TestSuperMajorityRule_RequiresResolvedPayload(t *testing.T) {
	h := HashSharedData([]byte("v"))
	rule := NewSuperMajorityRule(nil)

	// Majority reached on a hash, but no VoteTally.Resolve result yet
	// (payload not yet delivered): no consensus (spec §4.3 "Partial
	// votes").
	_, ok := rule.Evaluate(unresolvedTally{fakeTally{h: 4}}, nil, 4)
	assert.False(t, ok)
}

func TestSuperMajorityRule_HonoursThreshold(t *testing.T) {
	h := HashSharedData([]byte("v"))
	rule := NewSuperMajorityRule(nil)

	tally := fakeTally{h: 2}
	_, ok := rule.Evaluate(tally, nil, 4) // threshold(4) = 4
	assert.False(t, ok, "2 votes out of 4 authorities must not reach consensus")

	tally[h] = 4
	value, ok := rule.Evaluate(tally, nil, 4)
	assert.True(t, ok)
	assert.Equal(t, h.String(), string(value))
}

func TestCheckConsensus_StatusTransitions(t *testing.T) {
	rule := NewSuperMajorityRule(nil)
	h1 := HashSharedData([]byte("v1"))
	h2 := HashSharedData([]byte("v2"))

	// Gained.
	status, val, ok := checkConsensus(rule, fakeTally{h1: 4}, nil, 4, nil, false)
	assert.Equal(t, StatusGained, status.Kind)
	assert.True(t, ok)

	// Unchanged.
	status, val, ok = checkConsensus(rule, fakeTally{h1: 4}, nil, 4, val, true)
	assert.Equal(t, StatusUnchanged, status.Kind)
	assert.True(t, ok)

	// Changed.
	status, val, ok = checkConsensus(rule, fakeTally{h2: 4}, nil, 4, val, true)
	assert.Equal(t, StatusChanged, status.Kind)
	assert.True(t, ok)

	// Lost.
	status, _, ok = checkConsensus(rule, fakeTally{h2: 1}, nil, 4, val, true)
	assert.Equal(t, StatusLost, status.Kind)
	assert.False(t, ok)

	// None.
	status, _, ok = checkConsensus(rule, fakeTally{}, nil, 4, nil, false)
	assert.Equal(t, StatusNone, status.Kind)
	assert.False(t, ok)
}
