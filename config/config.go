// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds the cross-chain validator engine's tunables: the
// block-witnesser's buffering/safety-margin knobs, the composite runner's
// election ceiling, and the ceremony manager's per-stage timeouts
// (SPEC_FULL.md §A.3). It keeps the teacher's Builder/Default()/Valid()
// shape (config.Builder, config.EngineConfig) but replaces the
// Avalanche sampling parameters (K/Alpha/Beta) with this engine's own,
// since nothing here runs iterative sampling polls.
package config

import "time"

// EngineConfig is the engine-wide configuration (spec §A.3): block-witness
// buffering and safety windows, the election ceiling, and ceremony stage
// timeouts, taken from a YAML file (LoadFile) or a named preset at
// cmd/validatorcore startup.
type EngineConfig struct {
	// BlockBufferSize is the block-height tracker's lookback window, in
	// heights below the confirmed tip, within which it tallies header votes
	// and detects reorgs (spec §4.4 BLOCK_BUFFER_SIZE).
	BlockBufferSize int `json:"blockBufferSize" yaml:"blockBufferSize"`

	// SafetyMargin is how far behind the chain tip a block must be before
	// the witnesser treats it as final enough to act on (spec §4.5
	// "safety_margin").
	SafetyMargin uint64 `json:"safetyMargin" yaml:"safetyMargin"`

	// SafetyBuffer is how long the block processor keeps reorg-event dedupe
	// history (spec §4.5 "safety_buffer"). cmd/validatorcore passes its
	// whole-second count to blockwitness.Settings.SafetyBuffer, which reads
	// it as a number of blocks.
	SafetyBuffer time.Duration `json:"safetyBuffer" yaml:"safetyBuffer"`

	// MaxOngoingElections caps how many per-block elections the block-data
	// witnesser holds open at once (blockwitness.Settings.MaxOngoingElections,
	// spec §4.5). The registry (C2) itself applies no cap.
	MaxOngoingElections int `json:"maxOngoingElections" yaml:"maxOngoingElections"`

	// KeygenStageTimeout and SigningStageTimeout are per-stage ceremony
	// timeouts; Valid requires both to be positive. No package in this
	// module copies them into signing.Request.StageTimeout, which each
	// caller of the ceremony manager (C7) sets itself.
	KeygenStageTimeout  time.Duration `json:"keygenStageTimeout" yaml:"keygenStageTimeout"`
	SigningStageTimeout time.Duration `json:"signingStageTimeout" yaml:"signingStageTimeout"`

	// ThresholdOverride maps a hex-encoded aggregate public key to a signing
	// threshold. Valid rejects non-positive entries; no component in this
	// module reads the map, so it does not change any ceremony's threshold.
	ThresholdOverride map[string]int `json:"thresholdOverride,omitempty" yaml:"thresholdOverride,omitempty"`

	// LivenessWindowSize is the number of recent ticks internal/liveness
	// remembers per authority when computing uptime percent.
	LivenessWindowSize int `json:"livenessWindowSize" yaml:"livenessWindowSize"`
}

// Default returns the engine's baseline configuration.
func Default() EngineConfig {
	return EngineConfig{
		BlockBufferSize:     4096,
		SafetyMargin:        12,
		SafetyBuffer:        2 * time.Minute,
		MaxOngoingElections: 10_000,
		KeygenStageTimeout:  30 * time.Second,
		SigningStageTimeout: 15 * time.Second,
		LivenessWindowSize:  64,
	}
}

// Mainnet returns production-sized tunables: a wider safety margin and
// larger election ceiling than Default, matching the teacher's pattern of a
// separate, stricter mainnet preset.
func Mainnet() EngineConfig {
	c := Default()
	c.SafetyMargin = 20
	c.SafetyBuffer = 5 * time.Minute
	c.MaxOngoingElections = 50_000
	return c
}

// Testnet returns looser tunables suited to faster iteration.
func Testnet() EngineConfig {
	c := Default()
	c.SafetyMargin = 6
	c.SafetyBuffer = time.Minute
	return c
}

// Local returns tunables for a single-process development chain: small
// buffers, short timeouts, so ceremonies and elections resolve quickly.
func Local() EngineConfig {
	c := Default()
	c.BlockBufferSize = 256
	c.SafetyMargin = 1
	c.SafetyBuffer = 5 * time.Second
	c.MaxOngoingElections = 256
	c.KeygenStageTimeout = 5 * time.Second
	c.SigningStageTimeout = 3 * time.Second
	return c
}

// Valid reports whether c is internally consistent, mirroring the teacher's
// Parameters.Valid() style of one switch over named failure conditions.
func (c EngineConfig) Valid() error {
	switch {
	case c.BlockBufferSize <= 0:
		return ErrInvalidBlockBufferSize
	case c.SafetyBuffer < 0:
		return ErrInvalidSafetyBuffer
	case c.MaxOngoingElections <= 0:
		return ErrInvalidMaxOngoingElections
	case c.KeygenStageTimeout <= 0:
		return ErrInvalidStageTimeout
	case c.SigningStageTimeout <= 0:
		return ErrInvalidStageTimeout
	case c.LivenessWindowSize <= 0:
		return ErrInvalidLivenessWindow
	}
	for name, threshold := range c.ThresholdOverride {
		if threshold <= 0 {
			return &ThresholdOverrideError{Key: name, Threshold: threshold}
		}
	}
	return nil
}
