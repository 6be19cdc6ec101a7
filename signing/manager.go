// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package signing

import (
	"sync"
	"time"

	"github.com/luxfi/log"
)

const (
	// defaultUnauthorisedBufferSize is K in spec §9 "unauthorised-ceremony
	// buffering": the number of messages buffered per unknown ceremony id
	// while waiting for the corresponding StartCeremony call.
	defaultUnauthorisedBufferSize = 16
	// defaultUnauthorisedTimeout is T: how long an unauthorised buffer is
	// kept before being dropped.
	defaultUnauthorisedTimeout = 30 * time.Second
)

type bufferedMessage struct {
	sender AuthorityID
	stage  int
	data   []byte
}

type unauthorisedBuffer struct {
	messages []bufferedMessage
	deadline time.Time
}

// Transport delivers a ceremony stage broadcast to the rest of the
// authority set, addressed by ceremony id (spec §4.6 step 2; adapted onto
// the p2p multiplexer, C8).
type Transport interface {
	Broadcast(id CeremonyID, kind CeremonyKind, stage int, payload []byte)
}

// Manager is the threshold-signing ceremony manager (C7): it owns every
// in-flight keygen/signing ceremony, enforces CeremonyID replay
// protection, buffers messages that arrive before their ceremony starts,
// and delivers exactly one Outcome per ceremony (spec §3.5, §4.6, P5).
type Manager struct {
	mu sync.Mutex

	transport Transport
	log       log.Logger
	metrics   *Metrics
	clock     func() time.Time

	consumed map[CeremonyID]struct{}
	active   map[CeremonyID]*ceremonyRunner
	pending  map[CeremonyID]*unauthorisedBuffer

	unauthorisedBufferSize int
	unauthorisedTimeout    time.Duration

	outcomes chan Outcome
}

// NewManager constructs a Manager. clock defaults to time.Now; tests
// supply a deterministic clock to drive timeouts without sleeping.
func NewManager(transport Transport, logger log.Logger, metrics *Metrics, clock func() time.Time) *Manager {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if clock == nil {
		clock = time.Now
	}
	return &Manager{
		transport:              transport,
		log:                    logger,
		metrics:                metrics,
		clock:                  clock,
		consumed:               make(map[CeremonyID]struct{}),
		active:                 make(map[CeremonyID]*ceremonyRunner),
		pending:                make(map[CeremonyID]*unauthorisedBuffer),
		unauthorisedBufferSize: defaultUnauthorisedBufferSize,
		unauthorisedTimeout:    defaultUnauthorisedTimeout,
		outcomes:               make(chan Outcome, 16),
	}
}

// Outcomes returns the channel ceremony results are delivered on, exactly
// once per ceremony id (spec §3.5 invariant 3).
func (m *Manager) Outcomes() <-chan Outcome { return m.outcomes }

// StartCeremony authorises a new ceremony: a reused CeremonyID is
// rejected outright (spec §3.1 replay protection), after which any
// messages buffered while the ceremony was still unauthorised are
// replayed into the fresh runner.
func (m *Manager) StartCeremony(req Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, used := m.consumed[req.CeremonyID]; used {
		return ErrCeremonyIDReused
	}
	if req.Kind == CeremonySigning && req.Threshold > 0 && len(req.Participants) < req.Threshold {
		return ErrInsufficientParticipants
	}
	m.consumed[req.CeremonyID] = struct{}{}

	var protocol Protocol
	switch req.Kind {
	case CeremonyKeygen:
		protocol = KeygenProtocol{}
	default:
		protocol = SigningProtocol{}
	}

	runner := newCeremonyRunner(req, protocol, m.clock())
	m.active[req.CeremonyID] = runner
	m.metrics.ceremoniesStarted.WithLabelValues(req.Kind.String()).Inc()

	if buffered, ok := m.pending[req.CeremonyID]; ok {
		delete(m.pending, req.CeremonyID)
		for _, bm := range buffered.messages {
			m.deliverLocked(req.CeremonyID, bm.sender, bm.stage, bm.data)
		}
	}
	return nil
}

// HandleMessage routes an incoming stage message to its ceremony. If the
// ceremony has not yet been authorised via StartCeremony, the message is
// buffered (bounded by K messages / T timeout) rather than discarded,
// tolerating networks that deliver a peer's first stage message before
// the local StartCeremony call has run (spec §9).
func (m *Manager) HandleMessage(id CeremonyID, sender AuthorityID, stage int, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.active[id]; !ok {
		if _, consumed := m.consumed[id]; consumed {
			return ErrUnknownCeremony
		}
		buf, ok := m.pending[id]
		if !ok {
			buf = &unauthorisedBuffer{deadline: m.clock().Add(m.unauthorisedTimeout)}
			m.pending[id] = buf
		}
		if len(buf.messages) >= m.unauthorisedBufferSize {
			return nil // oldest-first bound reached; silently drop newest
		}
		buf.messages = append(buf.messages, bufferedMessage{sender: sender, stage: stage, data: payload})
		return nil
	}
	return m.deliverLocked(id, sender, stage, payload)
}

func (m *Manager) deliverLocked(id CeremonyID, sender AuthorityID, stage int, payload []byte) error {
	runner := m.active[id]
	advanced, err := runner.HandleMessage(sender, stage, payload)
	if err != nil {
		return err
	}
	if !advanced {
		return nil
	}
	if runner.Done() {
		m.finishLocked(id, runner)
		return nil
	}
	if m.transport != nil {
		m.transport.Broadcast(id, runner.kind, runner.CurrentStage(), runner.LastBroadcast())
	}
	return nil
}

func (m *Manager) finishLocked(id CeremonyID, runner *ceremonyRunner) {
	outcome := runner.Outcome()
	delete(m.active, id)
	if outcome.Err != nil {
		m.metrics.ceremoniesFailed.WithLabelValues(runner.kind.String()).Inc()
		m.log.Warn("ceremony failed", "id", uint64(id), "kind", runner.kind.String(), "error", outcome.Err, "blamed", len(outcome.Blamed))
	} else {
		m.metrics.ceremoniesSucceeded.WithLabelValues(runner.kind.String()).Inc()
	}
	select {
	case m.outcomes <- outcome:
	default:
		m.log.Error("ceremony outcome channel full, dropping", "id", uint64(id))
	}
}

// Tick advances timeouts: any active ceremony whose stage deadline has
// elapsed ends in failure with blame assigned (spec §9 "cooperative
// timers"), and any unauthorised buffer past its own deadline is dropped.
func (m *Manager) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	for id, runner := range m.active {
		if outcome, timedOut := runner.CheckTimeout(now); timedOut {
			delete(m.active, id)
			m.metrics.ceremoniesFailed.WithLabelValues(runner.kind.String()).Inc()
			m.log.Warn("ceremony timed out", "id", uint64(id), "blamed", len(outcome.Blamed))
			select {
			case m.outcomes <- outcome:
			default:
				m.log.Error("ceremony outcome channel full, dropping", "id", uint64(id))
			}
		}
	}
	for id, buf := range m.pending {
		if now.After(buf.deadline) {
			delete(m.pending, id)
		}
	}
}

// Active reports the number of ceremonies currently in flight.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}
