// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package elections

import (
	"sync"
)

// SharedDataStore resolves content-addressed vote payloads by hash and
// reference-counts them so a payload can be garbage-collected once no
// bitmap vote references it any more (spec §3.3, §4.1 invariant 4).
type SharedDataStore struct {
	mu       sync.RWMutex
	payloads map[SharedDataHash][]byte
	refcount map[SharedDataHash]uint32
}

// NewSharedDataStore creates an empty shared-data table.
func NewSharedDataStore() *SharedDataStore {
	return &SharedDataStore{
		payloads: make(map[SharedDataHash][]byte),
		refcount: make(map[SharedDataHash]uint32),
	}
}

// Provide stores a payload under its computed hash if not already present
// and returns the hash. It does not by itself change the refcount; callers
// that intend to reference the hash from a bitmap must call IncRef.
func (s *SharedDataStore) Provide(payload []byte) SharedDataHash {
	h := HashSharedData(payload)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payloads[h]; !ok {
		// copy to avoid aliasing caller-owned slices
		cp := make([]byte, len(payload))
		copy(cp, payload)
		s.payloads[h] = cp
	}
	return h
}

// ProvideMatching stores payload only if it hashes to the claimed handle,
// returning ErrSharedDataMismatch otherwise. This backs the
// provide_shared_data extrinsic (spec §4.3 "Partial votes").
func (s *SharedDataStore) ProvideMatching(claimed SharedDataHash, payload []byte) error {
	if HashSharedData(payload) != claimed {
		return ErrSharedDataMismatch
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.refcount[claimed]; !ok {
		// No bitmap currently references this hash: drop it (spec S6,
		// "on arrival, the payload is stored if still referenced, else
		// dropped").
		return nil
	}
	if _, ok := s.payloads[claimed]; !ok {
		cp := make([]byte, len(payload))
		copy(cp, payload)
		s.payloads[claimed] = cp
	}
	return nil
}

// Get resolves a hash to its payload, if known.
func (s *SharedDataStore) Get(h SharedDataHash) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.payloads[h]
	return v, ok
}

// IncRef records a new bitmap reference to hash h.
func (s *SharedDataStore) IncRef(h SharedDataHash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refcount[h]++
}

// DecRef releases a bitmap reference to hash h, garbage-collecting the
// payload once the refcount reaches zero.
func (s *SharedDataStore) DecRef(h SharedDataHash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refcount[h] == 0 {
		return
	}
	s.refcount[h]--
	if s.refcount[h] == 0 {
		delete(s.refcount, h)
		delete(s.payloads, h)
	}
}

// RefCount reports the current reference count for a hash, for testing
// property P7 ("shared-data refcount equals the number of bitmaps
// referencing each hash").
func (s *SharedDataStore) RefCount(h SharedDataHash) uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refcount[h]
}

// VoteStorage is implemented by both the bitmap and individual encodings
// (spec §3.3); the consensus evaluator consumes only CountsByHash, so it is
// agnostic to which encoding an electoral system picked.
type VoteStorage interface {
	// SubmitVote records authority's vote (identified by its hash) at the
	// given authority index, replacing any previous vote by the same
	// authority. Returns whether the stored vote changed.
	SubmitVote(authority AuthorityID, index int, hash SharedDataHash) (changed bool)
	// RemoveAuthorityVote clears a vote previously submitted by authority,
	// if any (used when an authority leaves the pinned epoch's set, or on
	// election deletion).
	RemoveAuthorityVote(authority AuthorityID)
	// CountsByHash tallies the number of authorities currently voting for
	// each distinct hash.
	CountsByHash() map[SharedDataHash]int
	// Len reports the number of distinct authorities that have voted.
	Len() int
}

// BitmapVoteStorage is ideal when the value space is small — often a single
// authoritative value. The payload is replaced by its SharedDataHash; one
// bitmap bit per authority index is kept per distinct hash (spec §3.3,
// §4.3 "Bitmap flow").
type BitmapVoteStorage struct {
	shared      *SharedDataStore
	bitmaps     map[SharedDataHash]map[int]struct{}
	byAuthority map[AuthorityID]SharedDataHash
}

// NewBitmapVoteStorage creates empty bitmap-encoded vote storage backed by
// the given shared-data table.
func NewBitmapVoteStorage(shared *SharedDataStore) *BitmapVoteStorage {
	return &BitmapVoteStorage{
		shared:      shared,
		bitmaps:     make(map[SharedDataHash]map[int]struct{}),
		byAuthority: make(map[AuthorityID]SharedDataHash),
	}
}

func (b *BitmapVoteStorage) SubmitVote(authority AuthorityID, index int, hash SharedDataHash) bool {
	if prev, voted := b.byAuthority[authority]; voted {
		if prev == hash {
			return false
		}
		b.clearBit(prev, index)
	}
	b.byAuthority[authority] = hash
	if b.bitmaps[hash] == nil {
		b.bitmaps[hash] = make(map[int]struct{})
	}
	b.bitmaps[hash][index] = struct{}{}
	b.shared.IncRef(hash)
	return true
}

func (b *BitmapVoteStorage) clearBit(hash SharedDataHash, index int) {
	if bm, ok := b.bitmaps[hash]; ok {
		delete(bm, index)
		if len(bm) == 0 {
			delete(b.bitmaps, hash)
		}
	}
	b.shared.DecRef(hash)
}

func (b *BitmapVoteStorage) RemoveAuthorityVote(authority AuthorityID) {
	prev, voted := b.byAuthority[authority]
	if !voted {
		return
	}
	// index is not retained once cleared via delete, so we scan: bitmaps
	// are small (bounded by authority-set size) and removal is rare.
	for idx := range b.bitmaps[prev] {
		delete(b.bitmaps[prev], idx)
		break
	}
	if len(b.bitmaps[prev]) == 0 {
		delete(b.bitmaps, prev)
	}
	b.shared.DecRef(prev)
	delete(b.byAuthority, authority)
}

func (b *BitmapVoteStorage) CountsByHash() map[SharedDataHash]int {
	out := make(map[SharedDataHash]int, len(b.bitmaps))
	for h, bm := range b.bitmaps {
		out[h] = len(bm)
	}
	return out
}

func (b *BitmapVoteStorage) Len() int {
	return len(b.byAuthority)
}

// IndividualVoteStorage keeps one entry per authority per election; used
// when votes are structurally per-author, e.g. ceremony blame lists (spec
// §3.3, §4.3 "Individual flow"). No refcounting: each authority's vote is
// simply overwritten.
type IndividualVoteStorage struct {
	votes map[AuthorityID]SharedDataHash
}

// NewIndividualVoteStorage creates empty individually-encoded vote storage.
func NewIndividualVoteStorage() *IndividualVoteStorage {
	return &IndividualVoteStorage{votes: make(map[AuthorityID]SharedDataHash)}
}

func (s *IndividualVoteStorage) SubmitVote(authority AuthorityID, _ int, hash SharedDataHash) bool {
	prev, existed := s.votes[authority]
	if existed && prev == hash {
		return false
	}
	s.votes[authority] = hash
	return true
}

func (s *IndividualVoteStorage) RemoveAuthorityVote(authority AuthorityID) {
	delete(s.votes, authority)
}

func (s *IndividualVoteStorage) CountsByHash() map[SharedDataHash]int {
	out := make(map[SharedDataHash]int, len(s.votes))
	for _, h := range s.votes {
		out[h]++
	}
	return out
}

func (s *IndividualVoteStorage) Len() int {
	return len(s.votes)
}
