// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Command validatorcore is the process entrypoint (SPEC_FULL.md §D): it
// wires config, logging, metrics, the election registry/composite runner,
// the block-witness pipeline, the threshold-signing ceremony manager, and
// the p2p multiplexer into one running engine, then drives it with a
// block-import loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/flowgate/validator-core/blockwitness"
	"github.com/flowgate/validator-core/chainclient"
	engineconfig "github.com/flowgate/validator-core/config"
	"github.com/flowgate/validator-core/elections"
	enginelog "github.com/flowgate/validator-core/log"
	"github.com/flowgate/validator-core/internal/liveness"
	"github.com/flowgate/validator-core/internal/validators"
	"github.com/flowgate/validator-core/metrics"
	"github.com/flowgate/validator-core/p2p"
	"github.com/flowgate/validator-core/runtime"
	"github.com/flowgate/validator-core/signing"

	"github.com/luxfi/ids"
)

func main() {
	configPath := flag.String("config", "", "path to an engine.yaml config file; defaults to the built-in preset")
	preset := flag.String("preset", string(engineconfig.LocalNetwork), "config preset when -config is unset: mainnet|testnet|local")
	metricsAddr := flag.String("metrics-addr", ":9090", "address to serve /metrics on")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *preset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "validatorcore: config: %v\n", err)
		os.Exit(1)
	}

	logger := enginelog.Component(enginelog.NewNoOpLogger(), "validatorcore")
	engine := build(cfg, logger)

	metricsSrv := &http.Server{Addr: *metricsAddr, Handler: engine.metricsRoot.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
}

func loadConfig(path, preset string) (engineconfig.EngineConfig, error) {
	if path != "" {
		return engineconfig.LoadFile(path)
	}
	return engineconfig.NewBuilder().FromPreset(engineconfig.NetworkType(preset)).Build()
}

// engine holds every wired component cmd/validatorcore assembled, so Run
// has a single place to drive them from.
type engine struct {
	cfg         engineconfig.EngineConfig
	logger      enginelog.Logger
	metricsRoot *metrics.Root

	authorities *validators.Manager
	livenessTr  *liveness.Tracker
	registry    *elections.Registry
	runner      *elections.Runner
	pallet      *runtime.Pallet
	heightTrk   *blockwitness.HeightTracker
	witnesser   *blockwitness.Witnesser
	signer      *signing.Manager
	mux         *p2p.Multiplexer

	self   ids.NodeID
	source chainclient.Source
	height atomic.Uint64
}

// build assembles the engine from cfg, grounding every constructor call in
// the package it belongs to rather than re-implementing any of their logic
// here. source is left nil; a real deployment supplies a chain-specific
// chainclient.Source implementation (an EVM JSON-RPC client, a Bitcoin Core
// RPC client, ...) before calling Run.
func build(cfg engineconfig.EngineConfig, logger enginelog.Logger) *engine {
	root := metrics.NewRoot()

	authorities := validators.NewManager()
	livenessTracker := liveness.NewTracker(cfg.LivenessWindowSize, liveness.NewMetrics(root.For("liveness")))

	registry := elections.NewRegistry(authorities, 0, enginelog.Component(logger, "elections"), elections.NewMetrics(root.For("elections")))

	threshold := func(activeAuthorityCount int) int {
		return engineconfig.SuperMajority(activeAuthorityCount)
	}

	witnesser := blockwitness.NewWitnesser(
		blockwitness.Settings{
			MaxOngoingElections: cfg.MaxOngoingElections,
			SafetyMargin:        cfg.SafetyMargin,
			SafetyBuffer:        uint64(cfg.SafetyBuffer.Seconds()),
		},
		nil, // per-chain block-content rules are supplied by the chain-specific deployment
		blockwitness.AlwaysDisabled{},
		blockwitness.EventSinkFunc(func(blockwitness.Event) {}),
		func(elections.PartialVote) bool { return true },
		threshold,
		func() int { return authorities.AuthoritySet(elections.SystemBlockWitness).Len() },
		enginelog.Component(logger, "blockwitness"),
		blockwitness.NewMetrics(root.For("blockwitness")),
	)

	livenessSystem := liveness.NewSystem(livenessTracker, authorities,
		elections.SystemBlockWitness, elections.SystemEgressWitness, elections.SystemNonceTracker)

	runner := elections.NewRunner(registry, []elections.ElectoralSystem{witnesser, livenessSystem}, enginelog.Component(logger, "runner"))

	heightTracker := blockwitness.NewHeightTracker(blockwitness.HeightTrackerConfig{
		BlockBufferSize: uint64(cfg.BlockBufferSize),
		Threshold:       threshold,
	}, enginelog.Component(logger, "heighttracker"))

	mux := p2p.NewMultiplexerWithMetrics(enginelog.Component(logger, "p2p"), p2p.NewMetrics(root.For("p2p")))
	signer := signing.NewManager(mux, enginelog.Component(logger, "signing"), signing.NewMetrics(root.For("signing")), time.Now)

	pallet := runtime.New(runner, runtime.NewMemoryStore(), enginelog.Component(logger, "runtime"))

	e := &engine{
		cfg:         cfg,
		logger:      logger,
		metricsRoot: root,
		authorities: authorities,
		livenessTr:  livenessTracker,
		registry:    registry,
		runner:      runner,
		pallet:      pallet,
		heightTrk:   heightTracker,
		witnesser:   witnesser,
		signer:      signer,
		mux:         mux,
		self:        ids.GenerateTestNodeID(),
	}

	votes := liveness.NewRecordingVoteRouter(registry, livenessTracker, e.height.Load,
		elections.SystemBlockWitness, elections.SystemEgressWitness, elections.SystemNonceTracker)
	mux.SetRouters(votes, registry, signer)

	return e
}

// Run drives the engine until ctx is cancelled: a block-import tick reports
// this node's own best-known header to the height tracker, feeds its
// output to the block-data witnesser, runs the per-block electoral-system
// hook (which closes out this tick's liveness window), and advances the
// ceremony manager's timeout clock.
func (e *engine) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			height := e.height.Add(1)
			if e.source != nil {
				if hdr, err := e.source.BestBlock(ctx); err == nil {
					e.heightTrk.ReportHeaders(e.self, []blockwitness.Header{hdr.ToWitnessHeader()})
				}
			}
			progress := e.heightTrk.Tick(e.authorities.AuthoritySet(elections.SystemBlockWitness).Len())
			e.witnesser.Feed(progress)

			if err := e.pallet.OnFinalize(height); err != nil {
				e.logger.Error("on_finalize failed, elections paused", "error", err)
			}
			e.signer.Tick()
		}
	}
}
