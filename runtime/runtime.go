// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package runtime is the elections pallet's glue layer (spec §6 "External
// interfaces"): it dispatches the five extrinsics a chain's runtime exposes
// (vote, provide_shared_data, pause_elections, resume_elections,
// override_corruption) onto elections.Runner, and gives the rest of the
// pallet a typed get/set view over per-(pallet, key) storage instead of
// raw bytes.
//
// Use stdlib context.Context for request-scoped cancellation/deadlines, as
// the teacher's packages do throughout.
// Use *Pallet for everything extrinsic dispatch and storage needs.
package runtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/flowgate/validator-core/elections"
	"github.com/luxfi/log"
)

// StorageBackend is the runtime storage interface consumed from the chain
// (spec §6 "Runtime storage: typed get/set by (pallet, key); key encodings
// are stable"). A real chain backs this with its trie/KV store; MemoryStore
// below is the in-process implementation used by tests and by
// cmd/validatorcore in local/dev mode.
type StorageBackend interface {
	Get(pallet, key string) ([]byte, bool, error)
	Set(pallet, key string, value []byte) error
}

// MemoryStore is a StorageBackend over a plain map, suitable for tests and
// single-process deployments. Keys are namespaced "pallet/key" so distinct
// pallets never collide.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore builds an empty in-memory StorageBackend.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(pallet, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[pallet+"/"+key]
	return v, ok, nil
}

func (s *MemoryStore) Set(pallet, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[pallet+"/"+key] = value
	return nil
}

// palletName is the storage namespace this glue layer reads and writes
// under; migrations and other pallets never share it.
const palletName = "elections"

// Pallet is the runtime's glue between a chain's extrinsic dispatcher and
// the engine's composite electoral-system runner (spec §6). It owns no
// consensus state itself — Registry does — but is the only thing the
// chain-specific runtime code calls into.
type Pallet struct {
	runner  *elections.Runner
	storage StorageBackend
	log     log.Logger
}

// New builds a Pallet over an already-constructed Runner. runner is
// typically assembled in cmd/validatorcore from config.EngineConfig and the
// chain's authority-set source; storage may be a MemoryStore or a
// chain-backed implementation.
func New(runner *elections.Runner, storage StorageBackend, logger log.Logger) *Pallet {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Pallet{runner: runner, storage: storage, log: logger}
}

// Vote implements the vote(election_id, authority_vote) extrinsic (spec
// §6). The caller is responsible for having already checked the extrinsic's
// signature against authority; this layer only routes.
func (p *Pallet) Vote(id elections.ElectionID, authority elections.AuthorityID, vote elections.PartialVote) error {
	return p.runner.Vote(id, authority, vote)
}

// ProvideSharedData implements the provide_shared_data(hash, payload)
// extrinsic (spec §6): late delivery of a payload for a previously
// submitted partial vote.
func (p *Pallet) ProvideSharedData(hash elections.SharedDataHash, payload []byte) error {
	return p.runner.ProvideSharedData(hash, payload)
}

// PauseElections implements the pause_elections() governance extrinsic
// (spec §6).
func (p *Pallet) PauseElections() {
	p.runner.Registry().PauseElections()
	p.log.Warn("elections paused via governance extrinsic")
}

// ResumeElections implements the resume_elections() governance extrinsic
// (spec §6).
func (p *Pallet) ResumeElections() {
	p.runner.Registry().ResumeElections()
	p.log.Info("elections resumed via governance extrinsic")
}

// OverrideCorruption implements the override_corruption() governance escape
// hatch (spec §6, §7 "CorruptStorage ... is never recovered silently"): it
// is only ever reached by an explicit governance call, never automatically.
func (p *Pallet) OverrideCorruption() {
	p.runner.Registry().OverrideCorruption()
	p.log.Warn("elections resumed via override_corruption escape hatch")
}

// OnFinalize dispatches the per-block hook (spec §4.1) to every electoral
// system the runner hosts. Chain-specific wiring code calls this once per
// finalized block, typically from cmd/validatorcore's block-import loop.
func (p *Pallet) OnFinalize(blockHeight uint64) error {
	return p.runner.OnFinalize(blockHeight)
}

// GetTyped reads key's value from this pallet's storage namespace and
// JSON-decodes it into out. It reports ok=false, err=nil if the key has
// never been set (spec §6 "typed get/set by (pallet, key)").
func (p *Pallet) GetTyped(ctx context.Context, key string, out any) (ok bool, err error) {
	raw, found, err := p.storage.Get(palletName, key)
	if err != nil || !found {
		return found, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, err
	}
	return true, nil
}

// SetTyped JSON-encodes value and writes it under key in this pallet's
// storage namespace. Key encodings are stable across upgrades (spec §6):
// callers must not rename a key already in use on a live chain.
func (p *Pallet) SetTyped(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return p.storage.Set(palletName, key, raw)
}

// palletKeyType is the context key type used to thread a *Pallet through
// request-scoped handlers, mirroring the teacher's context-carried runtime
// handle.
type palletKeyType struct{}

var palletKey = palletKeyType{}

// WithPallet attaches p to ctx for downstream extrinsic handlers.
func WithPallet(ctx context.Context, p *Pallet) context.Context {
	return context.WithValue(ctx, palletKey, p)
}

// FromContext extracts the *Pallet attached by WithPallet, or nil if none
// was attached.
func FromContext(ctx context.Context) *Pallet {
	if p, ok := ctx.Value(palletKey).(*Pallet); ok {
		return p
	}
	return nil
}
