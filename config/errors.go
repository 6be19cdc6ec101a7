// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidBlockBufferSize     = errors.New("config: blockBufferSize must be > 0")
	ErrInvalidSafetyBuffer        = errors.New("config: safetyBuffer must be >= 0")
	ErrInvalidMaxOngoingElections = errors.New("config: maxOngoingElections must be > 0")
	ErrInvalidStageTimeout        = errors.New("config: ceremony stage timeout must be > 0")
	ErrInvalidLivenessWindow      = errors.New("config: livenessWindowSize must be > 0")
)

// ThresholdOverrideError reports a ThresholdOverride entry that cannot be
// applied, naming the offending key so operators can fix the config file
// directly rather than guessing which override is malformed.
type ThresholdOverrideError struct {
	Key       string
	Threshold int
}

func (e *ThresholdOverrideError) Error() string {
	return fmt.Sprintf("config: threshold override %q must be > 0, got %d", e.Key, e.Threshold)
}

// ErrUnknownPreset reports an unrecognised NetworkType passed to
// Builder.FromPreset.
func ErrUnknownPreset(preset string) error {
	return fmt.Errorf("config: unknown preset %q", preset)
}

