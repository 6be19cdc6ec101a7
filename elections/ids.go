// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package elections

import (
	"fmt"
	"sync/atomic"

	"github.com/luxfi/ids"
	"github.com/zeebo/blake3"
)

// AuthorityID identifies a member of the current epoch's signing set; the
// only entity allowed to vote (spec glossary).
type AuthorityID = ids.NodeID

// UniqueMonotonicID is a 64-bit counter, strictly increasing, never reused,
// never decreasing across restarts (spec §3.1).
type UniqueMonotonicID uint64

// SystemKind discriminates the child electoral system an ExtraTag belongs
// to inside the composite runner (spec §4.1 "Composite runner").
type SystemKind uint8

const (
	SystemBlockHeight SystemKind = iota
	SystemBlockWitness
	SystemEgressWitness
	SystemNonceTracker
	SystemLiveness
)

func (k SystemKind) String() string {
	switch k {
	case SystemBlockHeight:
		return "block-height"
	case SystemBlockWitness:
		return "block-witness"
	case SystemEgressWitness:
		return "egress-witness"
	case SystemNonceTracker:
		return "nonce-tracker"
	case SystemLiveness:
		return "liveness"
	default:
		return "unknown"
	}
}

// ExtraTag is the electoral-system-defined discriminator that distinguishes
// sub-systems sharing one composite runner's id space. It may change across
// refreshes while the UniqueMonotonicID stays pinned to a single election's
// vote storage (spec §3.1).
type ExtraTag interface {
	// Kind reports which child electoral system owns this tag.
	Kind() SystemKind
	// Less reports whether this tag must be ordered strictly before other
	// under its type's ordering. refresh_election requires the new tag to
	// compare greater than the current one (§4.1, P8).
	Less(other ExtraTag) bool
}

// ElectionID identifies a single election: a UniqueMonotonicID pinned to its
// vote storage, tagged with an electoral-system-defined ExtraTag that may
// change across refreshes (spec §3.1).
type ElectionID struct {
	Unique UniqueMonotonicID
	Extra  ExtraTag
}

func (id ElectionID) String() string {
	return fmt.Sprintf("election(%d,%s)", id.Unique, id.Extra.Kind())
}

// IDAllocator hands out strictly monotonic UniqueMonotonicIDs (Invariant
// §3.2.1), resuming from the last-persisted value given to NewIDAllocator.
// It does not persist ids itself: restarting it from a stale value reissues
// ids above that value.
type IDAllocator struct {
	next atomic.Uint64
}

// NewIDAllocator creates an allocator resuming from the given last-persisted
// value (0 if this is a fresh chain).
func NewIDAllocator(lastPersisted uint64) *IDAllocator {
	a := &IDAllocator{}
	a.next.Store(lastPersisted)
	return a
}

// Next allocates and returns a fresh, strictly greater UniqueMonotonicID.
func (a *IDAllocator) Next() UniqueMonotonicID {
	return UniqueMonotonicID(a.next.Add(1))
}

// Peek returns the last id handed out without allocating a new one, for
// persistence checkpoints.
func (a *IDAllocator) Peek() uint64 {
	return a.next.Load()
}

// SharedDataHash is the content hash of a vote payload, used for
// deduplication across bitmap votes (spec §3.1, §3.3).
type SharedDataHash [32]byte

func (h SharedDataHash) String() string {
	return fmt.Sprintf("%x", h[:8])
}

// HashSharedData computes the content-addressed handle for a vote payload.
// BLAKE3 is used rather than SHA-256 to match the teacher codebase's
// preference for fast hashing on hot consensus paths (SPEC_FULL.md §B).
func HashSharedData(payload []byte) SharedDataHash {
	return SharedDataHash(blake3.Sum256(payload))
}
