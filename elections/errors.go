// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package elections

import (
	"github.com/cockroachdb/errors"
)

// ErrCorruptStorage is returned when an elections-storage invariant is
// violated: a decoding failure, a dangling shared-data reference, or a
// non-monotonic id. The pallet pauses on this error; it is never recovered
// silently (spec §7).
var ErrCorruptStorage = errors.New("corrupt elections storage")

// ErrElectionsPaused is returned by NewElection, SubmitVote,
// ProvideSharedData and Runner.OnFinalize while the registry is paused
// (spec §6). RefreshElection, DeleteElection and SetState do not check the
// pause.
var ErrElectionsPaused = errors.New("elections are paused")

// ErrNotAuthority is returned when a vote is submitted by a node that is not
// an authority under the epoch pinned by the election's settings_ref
// (Invariant §3.2.2).
var ErrNotAuthority = errors.New("submitter is not an authority for this election's pinned epoch")

// ErrStaleExtraTag is returned by refresh_election when the new extra tag is
// not strictly greater than the current one under its type's ordering
// (§4.1, P8).
var ErrStaleExtraTag = errors.New("refresh extra tag must be strictly greater than current")

// ErrUnknownElection is returned when an operation references an id that
// does not exist (never existed, or was deleted).
var ErrUnknownElection = errors.New("unknown election id")

// ErrInvalidVote is returned when is_vote_valid rejects a PartialVote or
// Vote for structural reasons specific to the electoral system.
var ErrInvalidVote = errors.New("vote rejected by electoral system")

// ErrSharedDataMismatch is returned by provide_shared_data when the
// delivered payload does not hash to the claimed SharedDataHash.
var ErrSharedDataMismatch = errors.New("shared data does not match claimed hash")

// CorruptStorageError wraps ErrCorruptStorage with enough context for a
// governance operator to act on override_corruption().
type CorruptStorageError struct {
	ElectionID ElectionID
	Detail     string
}

func (e *CorruptStorageError) Error() string {
	return errors.Wrapf(ErrCorruptStorage, "election %s: %s", e.ElectionID, e.Detail).Error()
}

func (e *CorruptStorageError) Unwrap() error {
	return ErrCorruptStorage
}

func newCorruptStorage(id ElectionID, detail string) error {
	return &CorruptStorageError{ElectionID: id, Detail: detail}
}
