// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

// Package driver runs a relay.Client through exactly Rounds rounds of the
// signing protocol to completion. The original client polls the relay for
// newly stored messages, sleeping RetryTimeout between polls, up to
// MaxRetry times per round. This client's relay talks over a persistent
// WebSocket that pushes messages as they arrive, so there is nothing to
// poll; MaxRetry instead bounds the number of inbound messages Run will wait
// for within one round before giving up, and RetryTimeout is kept only as the
// config knob callers can use to rate-limit manual resends.
package driver

import (
	"github.com/pkg/errors"

	"github.com/eddsa-relay/sign-client/pkg/eddsa"
	"github.com/eddsa-relay/sign-client/pkg/payload"
	"github.com/eddsa-relay/sign-client/pkg/relay"
	"github.com/eddsa-relay/sign-client/pkg/signing"
)

// MaxRetry bounds the number of relay.Client.Step calls Run will make within
// one round before giving up; the count starts over each time the round
// advances. Treated as an exclusive bound: attempts run 0..MaxRetry-1, 512
// attempts per round.
const MaxRetry = 512

// RetryTimeout is the poll interval the original client slept between
// queries; exposed for parity but not used by Run's push-based loop.
const RetryTimeout = 200 // milliseconds

// Rounds is the fixed number of protocol rounds a session runs.
const Rounds = signing.Rounds

// ErrRoundTimeout is returned when MaxRetry inbound messages were processed
// within one round without that round reaching quorum.
var ErrRoundTimeout = errors.New("driver: exceeded max retries without completing session")

// Run registers the client and drives it message-by-message until the
// signing session finalizes, returning the verified aggregated signature.
//
// The relay guarantees FIFO delivery only per (sender, receiver) pair, never
// across senders: once any peer collects quorum for a round it broadcasts
// the next round's payload right away, so a slower peer can receive a
// later-round message from one sender before a same-round message from
// another. Run buffers every inbound payload into roundBuffer, keyed by the
// round its tag identifies, and only ever applies the current round's
// buffered messages to the client once every other peer's payload for that
// round has arrived - never straight off the wire.
func Run(client *relay.Client) (eddsa.Signature, error) {
	if err := client.Register(); err != nil {
		return eddsa.Signature{}, errors.Wrap(err, "driver: register")
	}

	roundBuffer := make(map[int]map[signing.PeerID]string)
	quorum := client.Capacity() - 1

	round, attempts := client.Round(), 0
	for attempts < MaxRetry {
		attempts++
		outcome, err := client.Step()
		if err != nil {
			return eddsa.Signature{}, errors.Wrap(err, "driver: step")
		}
		if outcome.Immediate != nil {
			if err := client.Send(*outcome.Immediate); err != nil {
				return eddsa.Signature{}, errors.Wrap(err, "driver: send")
			}
		}
		if outcome.Pending != nil {
			if err := bufferPending(roundBuffer, quorum, *outcome.Pending); err != nil {
				return eddsa.Signature{}, errors.Wrap(err, "driver: buffering relay message")
			}
		}

		done, sig, err := drain(client, roundBuffer, quorum)
		if err != nil {
			return eddsa.Signature{}, err
		}
		if done {
			return sig, nil
		}
		if r := client.Round(); r != round {
			round, attempts = r, 0
		}
	}
	return eddsa.Signature{}, ErrRoundTimeout
}

// bufferPending files one inbound relay payload into roundBuffer under the
// round its tag belongs to, independent of the receiving peer's own current
// round.
func bufferPending(roundBuffer map[int]map[signing.PeerID]string, quorum int, msg relay.PendingRelay) error {
	tag, _, err := payload.Decode(msg.Message)
	if err != nil {
		return err
	}
	round, ok := payload.RoundForTag(tag)
	if !ok {
		return errors.Errorf("no round for payload tag %q", tag)
	}
	if roundBuffer[round] == nil {
		roundBuffer[round] = make(map[signing.PeerID]string, quorum)
	}
	roundBuffer[round][msg.From] = msg.Message
	return nil
}

// drain applies every already-buffered message for the client's current
// round, then repeats for as many further rounds as the buffer already
// satisfies, stopping as soon as the current round's quorum is not yet met.
func drain(client *relay.Client, roundBuffer map[int]map[signing.PeerID]string, quorum int) (bool, eddsa.Signature, error) {
	for {
		round := client.Round()
		bucket := roundBuffer[round]
		if len(bucket) < quorum {
			return false, eddsa.Signature{}, nil
		}
		for from, msg := range bucket {
			delete(bucket, from)
			out, stepDone, stepErr := client.Deliver(from, msg)
			if stepErr != nil {
				return false, eddsa.Signature{}, errors.Wrap(stepErr, "driver: deliver")
			}
			if stepDone {
				sig, err := client.Finalize()
				return true, sig, err
			}
			if out != nil {
				if err := client.Send(*out); err != nil {
					return false, eddsa.Signature{}, errors.Wrap(err, "driver: send")
				}
			}
			if client.Round() != round {
				// Quorum for this round was just reached: the bucket is
				// fully drained (it held exactly quorum entries), so stop
				// iterating it and let the outer loop pick up the round it
				// just advanced into.
				break
			}
		}
	}
}
