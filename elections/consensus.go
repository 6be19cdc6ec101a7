// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package elections

// ConsensusStatusKind enumerates the shape of a consensus status diff
// (spec §3.2).
type ConsensusStatusKind uint8

const (
	StatusNone ConsensusStatusKind = iota
	StatusUnchanged
	StatusGained
	StatusLost
	StatusChanged
)

// ConsensusStatus is the diff since the previous check_consensus call for
// one election (spec §3.2, §4.1 "check_consensus").
type ConsensusStatus struct {
	Kind ConsensusStatusKind

	// Unchanged holds the steady-state value when Kind == StatusUnchanged.
	Unchanged any

	// GainedNew and GainedMostRecent apply when Kind == StatusGained.
	// GainedMostRecent is the most-recently-seen value prior to gaining
	// consensus, if any existed in consensus_history.
	GainedNew        any
	GainedMostRecent any

	// LostPrevious applies when Kind == StatusLost.
	LostPrevious any

	// ChangedPrevious and ChangedNew apply when Kind == StatusChanged.
	ChangedPrevious any
	ChangedNew      any
}

func statusNone() ConsensusStatus { return ConsensusStatus{Kind: StatusNone} }

// VoteTally is the read-only view of an election's votes the consensus
// evaluator consumes (spec §4.2): per-hash counts, plus shared-data
// resolution so the evaluator never returns a hash without its value.
type VoteTally interface {
	CountsByHash() map[SharedDataHash]int
	Resolve(h SharedDataHash) ([]byte, bool)
}

// ConsensusRule is the per-electoral-system rule producing a Consensus
// value when the current-authority vote set satisfies a threshold (spec
// §4.2). Implementations MUST read only the votes/state passed to them —
// they must not reach into mutable election state behind the caller's
// back, since set_state invalidates the cache exactly once per call.
type ConsensusRule interface {
	Evaluate(votes VoteTally, state any, activeAuthorityCount int) (value []byte, ok bool)
}

// DefaultThreshold implements threshold(n) = ceil(2n/3) + 1, the strict
// super-majority rule spec §4.2 names as the generic default.
func DefaultThreshold(activeAuthorityCount int) int {
	if activeAuthorityCount <= 0 {
		return 1
	}
	ceilTwoThirds := (2*activeAuthorityCount + 2) / 3
	return ceilTwoThirds + 1
}

// ThresholdFunc computes the minimum vote count required for consensus
// given the active authority count.
type ThresholdFunc func(activeAuthorityCount int) int

// SuperMajorityRule reaches consensus on the first value whose supporting
// authority count meets the configured threshold, resolving its payload
// via shared data (spec §4.2 "Rule (generic)").
type SuperMajorityRule struct {
	Threshold ThresholdFunc
}

// NewSuperMajorityRule builds the generic strict-super-majority rule. A nil
// ThresholdFunc defaults to DefaultThreshold.
func NewSuperMajorityRule(threshold ThresholdFunc) SuperMajorityRule {
	if threshold == nil {
		threshold = DefaultThreshold
	}
	return SuperMajorityRule{Threshold: threshold}
}

func (r SuperMajorityRule) Evaluate(votes VoteTally, _ any, activeAuthorityCount int) ([]byte, bool) {
	need := r.Threshold(activeAuthorityCount)
	for h, count := range votes.CountsByHash() {
		if count < need {
			continue
		}
		payload, ok := votes.Resolve(h)
		if !ok {
			// Majority reached on a hash whose payload has not yet
			// arrived via provide_shared_data: no consensus yet (spec
			// §4.3 "Partial votes").
			continue
		}
		return payload, true
	}
	return nil, false
}

// checkConsensus recomputes an election's cached consensus status against
// its current votes/state, returning the diff and the new cached status
// (spec §4.1 "check_consensus"). previous is the Unchanged/Changed value
// cached from the last call (nil if none).
func checkConsensus(rule ConsensusRule, votes VoteTally, state any, activeAuthorityCount int, previous []byte, hadPrevious bool) (ConsensusStatus, []byte, bool) {
	value, ok := rule.Evaluate(votes, state, activeAuthorityCount)
	switch {
	case ok && !hadPrevious:
		return ConsensusStatus{Kind: StatusGained, GainedNew: value}, value, true
	case ok && hadPrevious && string(value) == string(previous):
		return ConsensusStatus{Kind: StatusUnchanged, Unchanged: value}, value, true
	case ok && hadPrevious:
		return ConsensusStatus{Kind: StatusChanged, ChangedPrevious: previous, ChangedNew: value}, value, true
	case !ok && hadPrevious:
		return ConsensusStatus{Kind: StatusLost, LostPrevious: previous}, nil, false
	default:
		return statusNone(), nil, false
	}
}
