// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package p2p

import (
	"bytes"
	"sync"

	"github.com/flowgate/validator-core/elections"
	"github.com/flowgate/validator-core/signing"
	"github.com/cockroachdb/errors"
	"github.com/luxfi/log"
)

// CipherSession is the secure per-peer channel the multiplexer frames
// envelopes over; *qzmq.Session satisfies it, narrowed here so routing
// logic can be exercised without a real handshake.
type CipherSession interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// ErrUnroutable is returned when an envelope's domain has no registered
// handler (spec §A.1 "message routing failures").
var ErrUnroutable = errors.New("p2p: no handler registered for envelope domain")

// VoteRouter accepts decoded election votes off the wire (C2 submit_vote).
type VoteRouter interface {
	SubmitVote(id elections.UniqueMonotonicID, authority elections.AuthorityID, vote elections.PartialVote) error
}

// SharedDataRouter accepts decoded shared-data payloads off the wire (C2
// provide_shared_data).
type SharedDataRouter interface {
	ProvideSharedData(hash elections.SharedDataHash, payload []byte) error
}

// CeremonyRouter accepts decoded ceremony stage messages off the wire.
type CeremonyRouter interface {
	HandleMessage(id signing.CeremonyID, sender elections.AuthorityID, stage int, payload []byte) error
}

// peerSession pairs a secure transport session with its authority identity.
type peerSession struct {
	authority elections.AuthorityID
	session   CipherSession
}

// Multiplexer is the block-engine's message multiplexer (C8): one qzmq
// session per peer, envelopes decoded off the decrypted stream and routed
// by Domain to the election registry or the ceremony manager (spec §6
// networking, SPEC_FULL.md §B p2p wiring).
type Multiplexer struct {
	mu sync.RWMutex

	peers map[elections.AuthorityID]*peerSession

	votes       VoteRouter
	sharedData  SharedDataRouter
	ceremonies  CeremonyRouter

	log     log.Logger
	metrics *Metrics
}

// NewMultiplexer constructs a Multiplexer with no peers connected yet;
// routers are wired in afterwards via SetRouters so p2p, elections, and
// signing can be constructed in either order.
func NewMultiplexer(logger log.Logger) *Multiplexer {
	return NewMultiplexerWithMetrics(logger, nil)
}

// NewMultiplexerWithMetrics is NewMultiplexer with an explicit (possibly
// pre-registered) Metrics instance, for callers sharing one registry
// across the process (cmd/validatorcore).
func NewMultiplexerWithMetrics(logger log.Logger, metrics *Metrics) *Multiplexer {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Multiplexer{
		peers:   make(map[elections.AuthorityID]*peerSession),
		log:     logger,
		metrics: metrics,
	}
}

// SetRouters wires the election/ceremony handlers this multiplexer
// dispatches into. Any argument may be nil to leave that domain unrouted.
func (m *Multiplexer) SetRouters(votes VoteRouter, sharedData SharedDataRouter, ceremonies CeremonyRouter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.votes = votes
	m.sharedData = sharedData
	m.ceremonies = ceremonies
}

// AddPeer registers a secure session for a connected authority.
func (m *Multiplexer) AddPeer(authority elections.AuthorityID, session CipherSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.peers[authority] = &peerSession{authority: authority, session: session}
}

// RemovePeer drops a disconnected peer's session.
func (m *Multiplexer) RemovePeer(authority elections.AuthorityID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.peers, authority)
	m.log.Info("p2p peer disconnected", "authority", authority.String())
}

// HandleCiphertext decrypts and routes one inbound message from a known
// peer (spec §6 networking: decrypt, decode envelope, dispatch by domain).
func (m *Multiplexer) HandleCiphertext(sender elections.AuthorityID, ciphertext []byte) error {
	m.mu.RLock()
	peer, ok := m.peers[sender]
	votes, sharedData, ceremonies := m.votes, m.sharedData, m.ceremonies
	m.mu.RUnlock()
	if !ok {
		return errors.Newf("p2p: no session for peer %s", sender)
	}

	plaintext, err := peer.session.Decrypt(ciphertext)
	if err != nil {
		m.metrics.DecryptFailed.Inc()
		return errors.Wrapf(err, "p2p: decrypt from %s", sender)
	}

	var env Envelope
	if err := env.Read(bytes.NewReader(plaintext)); err != nil {
		return errors.Wrapf(err, "p2p: decode envelope from %s", sender)
	}

	switch env.Domain {
	case DomainElectionVote:
		if votes == nil {
			m.metrics.UnroutedTotal.WithLabelValues(env.Domain.String()).Inc()
			return ErrUnroutable
		}
		var hash elections.SharedDataHash
		copy(hash[:], env.Payload)
		m.metrics.RoutedTotal.WithLabelValues(env.Domain.String()).Inc()
		return votes.SubmitVote(elections.UniqueMonotonicID(env.ID), sender, elections.PartialVote{Hash: hash})
	case DomainSharedData:
		if sharedData == nil {
			m.metrics.UnroutedTotal.WithLabelValues(env.Domain.String()).Inc()
			return ErrUnroutable
		}
		var hash elections.SharedDataHash
		copy(hash[:], env.Payload[:len(hash)])
		m.metrics.RoutedTotal.WithLabelValues(env.Domain.String()).Inc()
		return sharedData.ProvideSharedData(hash, env.Payload[len(hash):])
	case DomainCeremonyStage:
		if ceremonies == nil {
			m.metrics.UnroutedTotal.WithLabelValues(env.Domain.String()).Inc()
			return ErrUnroutable
		}
		m.metrics.RoutedTotal.WithLabelValues(env.Domain.String()).Inc()
		return ceremonies.HandleMessage(signing.CeremonyID(env.ID), sender, int(env.Stage), env.Payload)
	default:
		m.log.Warn("p2p received envelope for unknown domain", "domain", uint8(env.Domain), "sender", sender.String())
		m.metrics.UnroutedTotal.WithLabelValues(env.Domain.String()).Inc()
		return ErrUnroutable
	}
}

// Send frames an outbound envelope and encrypts it with a connected peer's
// session, returning the ciphertext; it does not transmit anything.
func (m *Multiplexer) Send(recipient elections.AuthorityID, env Envelope) ([]byte, error) {
	m.mu.RLock()
	peer, ok := m.peers[recipient]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.Newf("p2p: no session for peer %s", recipient)
	}

	var buf bytes.Buffer
	if err := env.Write(&buf); err != nil {
		return nil, err
	}
	return peer.session.Encrypt(buf.Bytes())
}

// Broadcast implements signing.Transport: it frames a ceremony stage
// broadcast as an Envelope and runs Send for every connected peer, logging
// (never failing the ceremony) any single peer's Send error. The
// ciphertexts Send returns are discarded; nothing is written to a peer.
func (m *Multiplexer) Broadcast(id signing.CeremonyID, kind signing.CeremonyKind, stage int, payload []byte) {
	m.mu.RLock()
	recipients := make([]elections.AuthorityID, 0, len(m.peers))
	for a := range m.peers {
		recipients = append(recipients, a)
	}
	m.mu.RUnlock()

	env := Envelope{Domain: DomainCeremonyStage, ID: uint64(id), Stage: uint32(stage), Payload: payload}
	for _, recipient := range recipients {
		if _, err := m.Send(recipient, env); err != nil {
			m.log.Warn("p2p ceremony broadcast failed", "ceremony_id", uint64(id), "kind", kind.String(), "recipient", recipient.String(), "error", err)
		}
	}
}
