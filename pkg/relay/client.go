// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package relay

import (
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/eddsa-relay/sign-client/pkg/eddsa"
	"github.com/eddsa-relay/sign-client/pkg/relay/transport"
	"github.com/eddsa-relay/sign-client/pkg/signing"
)

// SettleTimeout is how long the client waits after registering, and before
// resending after a NOT_YOUR_TURN/STATE_NOT_INITIALIZED response, to let
// slower peers catch up. A var rather than a const so tests can shrink it.
var SettleTimeout = 5 * time.Second

// ErrAborted is returned when the relay server sends an Abort message.
var ErrAborted = errors.New("relay: session aborted by server")

// ErrUndefinedMessage is returned when a ServerMessage carries none of
// Response/Relay/Abort.
var ErrUndefinedMessage = errors.New("relay: undefined server message")

// Client is the session client: it owns the registration handshake, the
// last-sent-message cache needed to answer NOT_YOUR_TURN/STATE_NOT_INITIALIZED
// retries, and the broadcast destination list. It holds no direct reference
// to a socket; all I/O goes through the injected transport.Conn, so it can be
// driven against transport.FakeConn in tests exactly as it is against
// transport.WSConn in production.
type Client struct {
	conn transport.Conn

	protocolID signing.PeerID
	capacity   int
	peerID     signing.PeerID
	registered bool

	dm *signing.DataManager

	lastOutbound ClientMessage
	haveLast     bool
	bcDests      []signing.PeerID
}

// NewClient constructs a session client for one signing session. protocolID
// distinguishes concurrent sessions sharing the same relay the way the
// corpus's ProtocolIdentifier does.
func NewClient(conn transport.Conn, protocolID signing.PeerID, capacity int, dm *signing.DataManager) *Client {
	return &Client{conn: conn, protocolID: protocolID, capacity: capacity, dm: dm}
}

// Register sends the initial registration request to the relay.
func (c *Client) Register() error {
	msg := ClientMessage{Register: &RegisterMessage{ProtocolID: c.protocolID, Capacity: c.capacity}}
	return c.Send(msg)
}

// Round reports the signing state machine's current round.
func (c *Client) Round() int { return c.dm.Round() }

// Capacity reports n, the number of participants in this session.
func (c *Client) Capacity() int { return c.capacity }

// PendingRelay is one peer's relay payload, received but not yet known safe
// to apply to the signing state machine.
type PendingRelay struct {
	From    signing.PeerID
	Message string
}

// StepOutcome is the result of one Step call. At most one of Immediate and
// Pending is set.
type StepOutcome struct {
	// Immediate is a ClientMessage the caller must send right away: either
	// the envelope produced by completing registration, or the cached last
	// outbound being resent after a NOT_YOUR_TURN/STATE_NOT_INITIALIZED
	// backoff.
	Immediate *ClientMessage
	// Pending is a raw, not-yet-applied relay payload. The relay guarantees
	// FIFO only per (sender, receiver) pair, never across senders, so a
	// peer that is ahead by a round can have its message overtake a
	// same-round message from someone else. The caller must buffer Pending
	// messages by round (see pkg/driver) and only hand one to Deliver once
	// every other peer's payload for that round has been buffered.
	Pending *PendingRelay
	// Done is never set by Step, which only classifies inbound messages and
	// does not apply them; completion is reported by Deliver's done result.
	Done bool
}

// Step blocks for the next inbound ServerMessage and classifies it.
func (c *Client) Step() (StepOutcome, error) {
	var msg ServerMessage
	if err := c.conn.Recv(&msg); err != nil {
		return StepOutcome{}, errors.Wrap(err, "relay: receive")
	}
	return c.handleServerMessage(msg)
}

func (c *Client) handleServerMessage(msg ServerMessage) (StepOutcome, error) {
	switch msg.Kind() {
	case KindResponse:
		return c.handleResponse(*msg.Response)
	case KindRelay:
		return StepOutcome{Pending: &PendingRelay{From: msg.Relay.PeerNumber, Message: msg.Relay.Message}}, nil
	case KindAbort:
		return StepOutcome{}, ErrAborted
	default:
		return StepOutcome{}, ErrUndefinedMessage
	}
}

func (c *Client) handleResponse(resp ServerResponse) (StepOutcome, error) {
	switch {
	case resp.Register != nil:
		return c.handleRegisterResponse(*resp.Register)
	case resp.Error != nil:
		return c.handleErrorResponse(*resp.Error)
	default:
		// GeneralResponse/NoResponse carry nothing actionable for this protocol.
		return StepOutcome{}, nil
	}
}

func (c *Client) handleRegisterResponse(peerID signing.PeerID) (StepOutcome, error) {
	c.peerID = peerID
	c.registered = true
	c.setBroadcastDests()

	// Give slower peers time to finish registering before this peer's
	// round-0 payload starts circulating.
	time.Sleep(SettleTimeout)

	payload, err := c.dm.Initialize(peerID)
	if err != nil {
		return StepOutcome{}, errors.Wrap(err, "relay: initializing session")
	}
	out := c.generateRelayMessage(payload)
	c.cacheOutbound(out)
	return StepOutcome{Immediate: &out}, nil
}

func (c *Client) handleErrorResponse(errMsg string) (StepOutcome, error) {
	switch errMsg {
	case NotYourTurn, StateNotInitialized:
		if !c.haveLast {
			return StepOutcome{}, errors.Errorf("relay: %s received with no message to resend", errMsg)
		}
		time.Sleep(SettleTimeout)
		return StepOutcome{Immediate: &c.lastOutbound}, nil
	default:
		return StepOutcome{}, errors.Errorf("relay: unhandled error response %q", errMsg)
	}
}

// Deliver applies one already-buffered peer payload to the signing state
// machine and returns the resulting outbound envelope, if the round
// transitioned as a result. Callers must only invoke this once every other
// peer's payload for message's round has been buffered (see pkg/driver),
// never straight off Step's Pending field.
func (c *Client) Deliver(from signing.PeerID, message string) (out *ClientMessage, done bool, err error) {
	payload, ok, err := c.dm.GetNext(from, message)
	if err != nil {
		return nil, false, err
	}
	if c.dm.IsDone() {
		return nil, true, nil
	}
	if !ok {
		return nil, false, nil
	}
	o := c.generateRelayMessage(payload)
	c.cacheOutbound(o)
	return &o, false, nil
}

// Send writes a ClientMessage to the relay and remembers it for retries.
// Transport errors are collected through multierror rather than returned
// bare, so a future caller that retries several sends can accumulate
// failures instead of only ever seeing the last one.
func (c *Client) Send(msg ClientMessage) error {
	c.cacheOutbound(msg)
	var merr *multierror.Error
	if err := c.conn.Send(msg); err != nil {
		merr = multierror.Append(merr, err)
	}
	return merr.ErrorOrNil()
}

func (c *Client) cacheOutbound(msg ClientMessage) {
	c.lastOutbound = msg
	c.haveLast = true
}

// setBroadcastDests computes [1..capacity] \ {peerID}, the destinations
// every relay message this client originates is broadcast to.
func (c *Client) setBroadcastDests() {
	dests := make([]signing.PeerID, 0, c.capacity-1)
	for i := 1; i <= c.capacity; i++ {
		if signing.PeerID(i) == c.peerID {
			continue
		}
		dests = append(dests, signing.PeerID(i))
	}
	c.bcDests = dests
}

func (c *Client) generateRelayMessage(payload string) ClientMessage {
	to := make([]signing.PeerID, len(c.bcDests))
	copy(to, c.bcDests)
	return ClientMessage{RelayMsg: &RelayMessage{
		PeerNumber: c.peerID,
		ProtocolID: c.protocolID,
		To:         to,
		Message:    payload,
	}}
}

// Finalize combines and verifies the aggregated signature.
func (c *Client) Finalize() (eddsa.Signature, error) {
	return c.dm.Finalize()
}
