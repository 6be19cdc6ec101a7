// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Valid())
	require.NoError(t, Mainnet().Valid())
	require.NoError(t, Testnet().Valid())
	require.NoError(t, Local().Valid())
}

func TestEngineConfig_InvalidBlockBufferSize(t *testing.T) {
	cfg := Default()
	cfg.BlockBufferSize = 0
	require.ErrorIs(t, cfg.Valid(), ErrInvalidBlockBufferSize)
}

func TestEngineConfig_InvalidThresholdOverride(t *testing.T) {
	cfg := Default()
	cfg.ThresholdOverride = map[string]int{"key-a": 0}
	err := cfg.Valid()
	require.Error(t, err)
	var thresholdErr *ThresholdOverrideError
	require.ErrorAs(t, err, &thresholdErr)
	require.Equal(t, "key-a", thresholdErr.Key)
}

func TestBuilder_FromPresetThenOverride(t *testing.T) {
	cfg, err := NewBuilder().
		FromPreset(LocalNetwork).
		WithMaxOngoingElections(42).
		Build()
	require.NoError(t, err)
	require.Equal(t, 42, cfg.MaxOngoingElections)
	require.Equal(t, Local().SafetyMargin, cfg.SafetyMargin)
}

func TestBuilder_UnknownPreset(t *testing.T) {
	_, err := NewBuilder().FromPreset(NetworkType("nope")).Build()
	require.Error(t, err)
}

func TestLoadFile_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")

	want, err := NewBuilder().FromPreset(TestnetNetwork).WithBlockBufferSize(777).Build()
	require.NoError(t, err)
	require.NoError(t, SaveFile(path, want))

	got, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestSuperMajorityMatchesCeremonyFormula(t *testing.T) {
	require.Equal(t, 0, SuperMajority(0))
	require.True(t, HasSuperMajority(5, 5))
	require.False(t, HasSuperMajority(3, 5))
}
