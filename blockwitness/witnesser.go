// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package blockwitness

import (
	"sync"

	"github.com/flowgate/validator-core/elections"
	"github.com/luxfi/log"
)

// Settings are the block-data witnesser's pinned settings (spec §4.5
// "Settings").
type Settings struct {
	MaxOngoingElections   int
	SafetyMargin          uint64
	SafetyBuffer          uint64
	MaxOptimisticElections int
}

// SafeModeChecker reports whether safe mode is currently enabled, gating
// the witnesser from opening elections past next_priority_election (spec
// §4.5 "Opening elections").
type SafeModeChecker interface {
	Enabled() bool
}

// AlwaysDisabled is a SafeModeChecker that never restricts election
// opening, suitable for tests and for chains with no priority-election
// concept.
type AlwaysDisabled struct{}

func (AlwaysDisabled) Enabled() bool { return false }

// EventSink receives witnessed events as soon as the block processor fires
// them. Downstream pallets (ingress-egress, vaults, reconciliation — spec
// §6) implement this to consume full-witness/pre-witness output.
type EventSink interface {
	Emit(Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

func (f EventSinkFunc) Emit(e Event) { f(e) }

// blockWitnessExtra is the ExtraTag used for elections this witnesser
// opens: the height being witnessed plus a generation bumped on every
// reorg-induced refresh, so stale votes submitted under a pre-reorg extra
// are distinguishable (spec §4.1 "refresh_election", §4.5).
type blockWitnessExtra struct {
	Height Height
	Gen    uint64
}

func (blockWitnessExtra) Kind() elections.SystemKind { return elections.SystemBlockWitness }
func (e blockWitnessExtra) Less(other elections.ExtraTag) bool {
	o, ok := other.(blockWitnessExtra)
	return ok && e.Height == o.Height && e.Gen < o.Gen
}

// BlockElectionProperties is the immutable-after-refresh description of
// the fact a per-block election is witnessing (spec §3.2 "properties").
type BlockElectionProperties struct {
	Height Height
}

type trackedElection struct {
	id      elections.UniqueMonotonicID
	reorgID ReorgID
}

// AuthorityCount returns the number of authorities currently eligible to
// vote, for threshold evaluation.
type AuthorityCount func() int

// Witnesser is the block-data witnesser (BW, C6): for every confirmed
// block it opens an election for its body, gathers consensus, feeds the
// data into a BlockProcessor, and emits events per age-indexed rule, all
// while respecting a concurrency bound and reorgs (spec §4.5).
type Witnesser struct {
	mu sync.Mutex

	settings  Settings
	processor *BlockProcessor
	safeMode  SafeModeChecker
	sink      EventSink
	log       log.Logger
	metrics   *Metrics

	isVoteValid    elections.IsVoteValidFunc
	threshold      elections.ThresholdFunc
	authorityCount AuthorityCount

	nextElection         Height
	nextWitnessed         Height
	nextPriorityElection  Height
	started               bool
	ongoing               map[Height]trackedElection
	reorgID               ReorgID

	pending []ChainProgress
}

// NewWitnesser constructs a BW instance with no heights opened yet; the
// first FirstConsensus ChainProgress item seeds next_election (spec §4.5).
func NewWitnesser(
	settings Settings,
	rules []Rule,
	safeMode SafeModeChecker,
	sink EventSink,
	isVoteValid elections.IsVoteValidFunc,
	threshold elections.ThresholdFunc,
	authorityCount AuthorityCount,
	logger log.Logger,
	metrics *Metrics,
) *Witnesser {
	if safeMode == nil {
		safeMode = AlwaysDisabled{}
	}
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Witnesser{
		settings:       settings,
		processor:      NewBlockProcessor(rules, settings.SafetyMargin, settings.SafetyBuffer),
		safeMode:       safeMode,
		sink:           sink,
		log:            logger,
		metrics:        metrics,
		isVoteValid:    isVoteValid,
		threshold:      threshold,
		authorityCount: authorityCount,
		ongoing:        make(map[Height]trackedElection),
	}
}

func (w *Witnesser) Kind() elections.SystemKind { return elections.SystemBlockWitness }

// Feed enqueues a ChainProgress item produced by the upstream
// HeightTracker; it is consumed on the next OnFinalize call (spec §5
// "on_finalize never suspends internally": consumption happens
// synchronously within one tick).
func (w *Witnesser) Feed(progress ChainProgress) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, progress)
}

// OnFinalize implements elections.ElectoralSystem: it consumes queued
// ChainProgress items, opens new elections up to the concurrency bound,
// and harvests any elections that reached consensus this tick (spec §4.5).
func (w *Witnesser) OnFinalize(storage elections.StorageAccess, blockHeight uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	pending := w.pending
	w.pending = nil
	for _, progress := range pending {
		w.consume(storage, progress)
	}

	w.openElections(storage)
	return w.collectConsensus(storage, blockHeight)
}

func (w *Witnesser) consume(storage elections.StorageAccess, progress ChainProgress) {
	switch progress.Kind {
	case ProgressNone:
		return
	case ProgressFirstConsensus:
		w.nextElection = progress.Range.Start
		w.started = true
		w.processor.SetTip(progress.Range.Start)
	case ProgressRange:
		if progress.Range.Start >= w.nextElection {
			w.processor.SetTip(progress.Range.End)
			return
		}
		w.reorg(storage, progress.Range)
	case ProgressReorg:
		w.reorg(storage, progress.Range)
	}
}

// reorg implements spec §4.5 "Range(r) with r.start < next_election:
// REORG": bump reorg_id, refresh every ongoing election whose height lies
// in r so stale votes are distinguishable, and feed Reorg(r) into the
// processor.
func (w *Witnesser) reorg(storage elections.StorageAccess, r HeightRange) {
	w.reorgID++
	for height, te := range w.ongoing {
		if height < r.Start || height > r.End {
			continue
		}
		current, err := storage.CurrentID(te.id)
		if err != nil {
			continue
		}
		extra := current.Extra.(blockWitnessExtra)
		extra.Gen++
		if err := storage.RefreshElection(te.id, extra, nil, true); err != nil {
			w.log.Error("failed to refresh election across reorg", "height", height, "error", err)
			continue
		}
		w.ongoing[height] = trackedElection{id: te.id, reorgID: w.reorgID}
	}
	if r.End+1 > w.nextElection {
		w.nextElection = r.End + 1
	}
	w.processor.HandleReorg(r)
	w.metrics.reorgs.Inc()
	w.log.Info("block witnesser reorg", "start", r.Start, "end", r.End, "reorg_id", uint64(w.reorgID))
}

// openElections greedily opens new per-block elections up to
// max_ongoing_elections, respecting the safe-mode priority gate and the
// optimistic-election bound (spec §4.5 "Opening elections").
func (w *Witnesser) openElections(storage elections.StorageAccess) {
	if !w.started {
		return
	}
	safeModeOn := w.safeMode.Enabled()
	for len(w.ongoing) < w.settings.MaxOngoingElections {
		if safeModeOn && w.nextElection >= w.nextPriorityElection {
			break
		}
		if tip, ok := w.processor.Tip(); ok && w.nextElection > tip {
			optimistic := 0
			for h := range w.ongoing {
				if h > tip {
					optimistic++
				}
			}
			if optimistic >= w.settings.MaxOptimisticElections {
				break
			}
		}
		extra := blockWitnessExtra{Height: w.nextElection, Gen: 0}
		props := BlockElectionProperties{Height: w.nextElection}
		id, err := storage.NewElection(extra, props, nil, elections.StorageBitmap,
			elections.NewSuperMajorityRule(w.threshold), w.isVoteValid)
		if err != nil {
			w.log.Error("failed to open block election", "height", w.nextElection, "error", err)
			return
		}
		w.ongoing[w.nextElection] = trackedElection{id: id.Unique, reorgID: w.reorgID}
		w.metrics.electionsOpened.Inc()
		w.nextElection++
	}
}

// collectConsensus checks every ongoing election for a fresh consensus
// value, discards any reached under a stale reorg_id, and runs the block
// processor (spec §4.5 "Consensus arrival").
func (w *Witnesser) collectConsensus(storage elections.StorageAccess, blockHeight uint64) error {
	active := w.authorityCount()
	for height, te := range w.ongoing {
		status, err := storage.CheckConsensus(te.id, active, blockHeight)
		if err != nil {
			return err
		}
		var value []byte
		var gained bool
		switch status.Kind {
		case elections.StatusGained:
			value, gained = status.GainedNew.([]byte), true
		case elections.StatusChanged:
			value, gained = status.ChangedNew.([]byte), true
		default:
			continue
		}
		if !gained {
			continue
		}
		if te.reorgID != w.reorgID {
			// Consensus reached under a reorg_id that no longer matches
			// the current one: drop it (spec §4.5 step 1).
			continue
		}
		w.processor.StoreBlockData(height, value)
		delete(w.ongoing, height)
		w.metrics.electionsClosed.Inc()
		if err := storage.DeleteElection(te.id); err != nil {
			w.log.Error("failed to delete witnessed election", "height", height, "error", err)
		}
		if height == w.nextWitnessed {
			w.nextWitnessed++
			for {
				if _, stillOpen := w.ongoing[w.nextWitnessed]; stillOpen {
					break
				}
				if w.nextWitnessed >= w.nextElection {
					break
				}
				w.nextWitnessed++
			}
		}
	}

	for _, ev := range w.processor.Tick() {
		w.sink.Emit(ev)
		w.metrics.eventsEmitted.WithLabelValues(ev.Rule).Inc()
	}
	return nil
}

// NextElection reports the next height this witnesser will open an
// election for, for tests/observability.
func (w *Witnesser) NextElection() Height {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.nextElection
}

// ElectionFor reports the UniqueMonotonicID of the currently open election
// for a given height, if any, for tests/observability.
func (w *Witnesser) ElectionFor(height Height) (elections.UniqueMonotonicID, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	te, ok := w.ongoing[height]
	return te.id, ok
}

// Ongoing reports the number of currently open elections.
func (w *Witnesser) Ongoing() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.ongoing)
}

// SetNextPriorityElection configures the height below which opening
// elections is never refused by safe mode (spec §4.5).
func (w *Witnesser) SetNextPriorityElection(h Height) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextPriorityElection = h
}
