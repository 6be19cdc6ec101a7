// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package blockwitness implements the two-stage block-witnessing pipeline
// (spec §4.4, §4.5): a block-height tracker (BHW) that turns per-authority
// best-block reports into a reorg-aware chain-progress stream, feeding a
// block-data witnesser (BW) that opens bounded concurrent per-block
// elections and emits age-indexed events.
package blockwitness

import "fmt"

// Height is the remote chain's block height. Spec §3.4 parameterises
// ChainProgress over a generic header type H; this package fixes H to a
// plain height since every rule and invariant in §4.4/§4.5 only ever
// inspects the height component.
type Height = uint64

// BlockHash identifies a block at a given height for reorg comparison.
type BlockHash [32]byte

func (h BlockHash) String() string { return fmt.Sprintf("%x", h[:8]) }

// HeightRange is an inclusive [Start, End] range of heights.
type HeightRange struct {
	Start Height
	End   Height
}

func (r HeightRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return int(r.End-r.Start) + 1
}

// ChainProgressKind enumerates BHW's possible outputs to BW (spec §3.4).
type ChainProgressKind uint8

const (
	ProgressNone ChainProgressKind = iota
	ProgressFirstConsensus
	ProgressRange
	ProgressReorg
)

func (k ChainProgressKind) String() string {
	switch k {
	case ProgressNone:
		return "None"
	case ProgressFirstConsensus:
		return "FirstConsensus"
	case ProgressRange:
		return "Range"
	case ProgressReorg:
		return "Reorg"
	default:
		return "Unknown"
	}
}

// ChainProgress is BHW's output to BW: None, FirstConsensus(range),
// Range(range), or Reorg(range) (spec §3.4, §4.4 "Output").
type ChainProgress struct {
	Kind  ChainProgressKind
	Range HeightRange
}

// ReorgID scopes an election's validity: it is bumped on every reorg so
// late consensus from a previous fork is discarded (spec §3.4 "ongoing").
type ReorgID uint64

// Header is the minimal per-height fact BHW needs: its hash and its
// parent's hash, sufficient to detect disagreement with a previously
// confirmed chain (spec §6 "Chain client").
type Header struct {
	Height     Height
	Hash       BlockHash
	ParentHash BlockHash
}
