// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package signing

import "github.com/cockroachdb/errors"

var (
	// ErrCeremonyIDReused is returned when a caller submits a CeremonyID
	// that has already been consumed (spec §3.1, replay protection).
	ErrCeremonyIDReused = errors.New("signing: ceremony id already consumed")

	// ErrUnknownCeremony is returned for operations against a ceremony id
	// with no active runner and no unauthorised-message buffer.
	ErrUnknownCeremony = errors.New("signing: unknown ceremony")

	// ErrNotParticipant is returned when a message's sender is not a
	// member of the ceremony's participant set.
	ErrNotParticipant = errors.New("signing: sender is not a ceremony participant")

	// ErrStaleStage is returned for a message whose stage lies behind the
	// ceremony's current stage, or two or more stages ahead of it; it is
	// discarded, not buffered.
	ErrStaleStage = errors.New("signing: message for a stage already passed")

	// ErrInsufficientParticipants is returned when a signing request names
	// fewer participants than its threshold.
	ErrInsufficientParticipants = errors.New("signing: fewer participants than threshold")

	// ErrCeremonyTimedOut is the Outcome.Err set when a stage deadline
	// elapses before every participant delivers a valid message.
	ErrCeremonyTimedOut = errors.New("signing: ceremony timed out waiting for participants")

	// ErrBlamedMajority names the case where a super-majority of
	// participants report failure (spec §9 blame aggregation subtlety). No
	// code path in this package returns it or sets it as an Outcome.Err.
	ErrBlamedMajority = errors.New("signing: super-majority of participants reported failure")
)

// StageError wraps a failure produced while folding a stage's messages,
// naming the stage for diagnostics.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return "signing: stage " + e.Stage + ": " + e.Err.Error() }
func (e *StageError) Unwrap() error  { return e.Err }
