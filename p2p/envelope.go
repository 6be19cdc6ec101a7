// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package p2p implements the message multiplexer (C8): it routes inbound
// peer traffic, once decrypted by a qzmq.Session, to the election registry
// or the ceremony manager by the id carried in the envelope, and frames
// outbound broadcasts the same way (spec §4.6 step 2, §6 networking).
package p2p

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Domain identifies which subsystem an envelope's payload belongs to.
type Domain uint8

const (
	// DomainElectionVote carries a PartialVote for an election (C2
	// submit_vote).
	DomainElectionVote Domain = iota + 1
	// DomainSharedData carries a ProvideSharedData payload (C2).
	DomainSharedData
	// DomainCeremonyStage carries a signing.Manager HandleMessage payload.
	DomainCeremonyStage
)

func (d Domain) String() string {
	switch d {
	case DomainElectionVote:
		return "election_vote"
	case DomainSharedData:
		return "shared_data"
	case DomainCeremonyStage:
		return "ceremony_stage"
	default:
		return fmt.Sprintf("domain(%d)", uint8(d))
	}
}

// Envelope is the wire record routed by the multiplexer: a domain tag, the
// numeric id the domain's owner uses to find its own state (election
// UniqueMonotonicId or CeremonyId; unused for shared data, whose payload
// starts with the full SharedDataHash), a stage number (ceremony messages
// only; zero otherwise), and the domain's opaque payload.
type Envelope struct {
	Domain  Domain
	ID      uint64
	Stage   uint32
	Payload []byte
}

// Write serializes an Envelope, matching the length-prefixed framing
// style used throughout qzmq/messages.go.
func (e *Envelope) Write(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, uint8(e.Domain)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, e.ID); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, e.Stage); err != nil {
		return err
	}
	if len(e.Payload) > 0x7FFFFFFF {
		return fmt.Errorf("p2p: envelope payload too long: %d", len(e.Payload))
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(e.Payload))); err != nil {
		return err
	}
	_, err := w.Write(e.Payload)
	return err
}

// Read deserializes an Envelope.
func (e *Envelope) Read(r io.Reader) error {
	var domain uint8
	if err := binary.Read(r, binary.BigEndian, &domain); err != nil {
		return err
	}
	e.Domain = Domain(domain)
	if err := binary.Read(r, binary.BigEndian, &e.ID); err != nil {
		return err
	}
	if err := binary.Read(r, binary.BigEndian, &e.Stage); err != nil {
		return err
	}
	var payloadLen uint32
	if err := binary.Read(r, binary.BigEndian, &payloadLen); err != nil {
		return err
	}
	e.Payload = make([]byte, payloadLen)
	_, err := io.ReadFull(r, e.Payload)
	return err
}
