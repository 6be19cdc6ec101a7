// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package p2p

import (
	"io"

	"github.com/flowgate/validator-core/qzmq"
)

// DialPeer performs the client half of the qzmq handshake over transport
// and returns the resulting session ready for Multiplexer.AddPeer.
func DialPeer(local *qzmq.KeyPair, transport io.ReadWriter) (CipherSession, error) {
	session, err := qzmq.NewPeerSession(local, true)
	if err != nil {
		return nil, err
	}
	if err := session.Handshake(transport); err != nil {
		return nil, err
	}
	return session, nil
}

// AcceptPeer performs the server half of the qzmq handshake over an
// inbound transport and returns the resulting session.
func AcceptPeer(local *qzmq.KeyPair, transport io.ReadWriter) (CipherSession, error) {
	session, err := qzmq.NewPeerSession(local, false)
	if err != nil {
		return nil, err
	}
	if err := session.Handshake(transport); err != nil {
		return nil, err
	}
	return session, nil
}
