// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

// Package relay implements the Session Client: the half of the protocol that
// talks to the relay server over JSON messages, as opposed to pkg/signing
// which only knows how to fold payload strings into a state machine. It is
// grounded on the original relay-server example client's Client<T: Peer>,
// translated from Rust's Option/Result plumbing into Go's explicit returns.
package relay

import "github.com/eddsa-relay/sign-client/pkg/signing"

// Error strings the relay server uses in its ErrorResponse variant. These are
// matched against literally, the same way the original client does.
const (
	NotYourTurn        = "NOT_YOUR_TURN"
	StateNotInitialized = "STATE_NOT_INITIALIZED"
)

// ClientMessage is everything a client may send to the relay: at most one of
// Register or RelayMsg is set.
type ClientMessage struct {
	Register   *RegisterMessage `json:"register,omitempty"`
	RelayMsg   *RelayMessage    `json:"relay_message,omitempty"`
}

// IsEmpty reports whether this message carries neither a register nor a
// relay payload, the Go analogue of the original's ClientMessage::is_empty.
func (m ClientMessage) IsEmpty() bool {
	return m.Register == nil && m.RelayMsg == nil
}

// RegisterMessage asks the relay to admit this client into a session.
type RegisterMessage struct {
	ProtocolID signing.PeerID `json:"protocol_id"`
	Capacity   int            `json:"capacity"`
}

// RelayMessage is the broadcast envelope: a payload destined for a set of
// peer indices, tagged with who sent it.
type RelayMessage struct {
	PeerNumber signing.PeerID   `json:"peer_number"`
	ProtocolID signing.PeerID   `json:"protocol_id"`
	To         []signing.PeerID `json:"to"`
	Message    string           `json:"message"`
}

// ServerMessage is everything the relay may send back: at most one of
// Response, Relay or Abort is set.
type ServerMessage struct {
	Response *ServerResponse `json:"response,omitempty"`
	Relay    *RelayMessage   `json:"relay_message,omitempty"`
	Abort    *bool           `json:"abort,omitempty"`
}

// ServerResponse is the relay's reply to a register or relay request.
type ServerResponse struct {
	Register *signing.PeerID `json:"register,omitempty"`
	Error    *string         `json:"error_response,omitempty"`
	General  *string         `json:"general_response,omitempty"`
}

// Kind classifies an inbound ServerMessage the way resolve_server_msg_type does.
type Kind int

const (
	KindUndefined Kind = iota
	KindResponse
	KindRelay
	KindAbort
)

func (m ServerMessage) Kind() Kind {
	switch {
	case m.Response != nil:
		return KindResponse
	case m.Relay != nil:
		return KindRelay
	case m.Abort != nil:
		return KindAbort
	default:
		return KindUndefined
	}
}
