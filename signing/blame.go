// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package signing

import "sort"

// blameAggregator implements the three-way blame union described in spec
// §9 "Blame aggregation subtleties": a participant ends up blamed if it
// (a) never delivered a valid message for the stage (unresponsive), (b) is
// named by a super-majority of dissenting participants (recordDissent), or
// (c) is explicitly named via an out-of-band complaint (nameExplicitly).
// No ceremony stage calls recordDissent or nameExplicitly, so ceremony
// outcomes carry only unresponsive blame. A further subtlety: if a super-majority of participants dissent
// at all, every participant that did NOT dissent is blamed alongside the
// named targets, since silent "success" from a minority in the face of a
// majority failure report is itself treated as suspect.
type blameAggregator struct {
	participants map[AuthorityID]struct{}
	responded    map[AuthorityID]struct{}
	dissent      map[AuthorityID]map[AuthorityID]struct{} // voter -> blamed targets
	named        map[AuthorityID]struct{}
}

func newBlameAggregator(participants []AuthorityID) *blameAggregator {
	set := make(map[AuthorityID]struct{}, len(participants))
	for _, p := range participants {
		set[p] = struct{}{}
	}
	return &blameAggregator{
		participants: set,
		responded:    make(map[AuthorityID]struct{}),
		dissent:      make(map[AuthorityID]map[AuthorityID]struct{}),
		named:        make(map[AuthorityID]struct{}),
	}
}

func (b *blameAggregator) markResponded(a AuthorityID) { b.responded[a] = struct{}{} }

func (b *blameAggregator) recordDissent(voter AuthorityID, targets ...AuthorityID) {
	set, ok := b.dissent[voter]
	if !ok {
		set = make(map[AuthorityID]struct{})
		b.dissent[voter] = set
	}
	for _, t := range targets {
		set[t] = struct{}{}
	}
}

func (b *blameAggregator) nameExplicitly(a AuthorityID) { b.named[a] = struct{}{} }

// Aggregate computes the final blamed set. superMajority is the minimum
// dissenting-voter count at which a named target (or, in the majority-
// dissent case, every non-dissenter) is blamed.
func (b *blameAggregator) Aggregate(superMajority int) []AuthorityID {
	blamed := make(map[AuthorityID]struct{})

	for p := range b.participants {
		if _, ok := b.responded[p]; !ok {
			blamed[p] = struct{}{}
		}
	}

	counts := make(map[AuthorityID]int)
	for _, targets := range b.dissent {
		for t := range targets {
			counts[t]++
		}
	}
	for target, c := range counts {
		if c >= superMajority {
			blamed[target] = struct{}{}
		}
	}

	for t := range b.named {
		blamed[t] = struct{}{}
	}

	if len(b.dissent) >= superMajority {
		for p := range b.participants {
			if _, dissented := b.dissent[p]; !dissented {
				blamed[p] = struct{}{}
			}
		}
	}

	out := make([]AuthorityID, 0, len(blamed))
	for a := range blamed {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
