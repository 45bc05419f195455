// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

// Package signing implements the client-side n-of-n EdDSA signing protocol:
// a four-round Peer state machine driven by payloads relayed from the other
// n-1 participants, and a DataManager mediator that owns routing
// those payloads into the Peer. Nothing in this package talks to a network;
// it only accumulates strings and decides what string (if any) to emit next.
package signing

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/eddsa-relay/sign-client/pkg/eddsa"
	"github.com/eddsa-relay/sign-client/pkg/payload"
)

// Rounds is the fixed number of protocol rounds a signing session runs.
const Rounds = 4

// Peer is one participant's view of an n-of-n signing session. It accumulates
// the other participants' round payloads into four maps (keyed by PeerID),
// advancing to the next round once the current round's map reaches capacity
// entries.
type Peer struct {
	id       PeerID
	capacity int
	msg      []byte
	key      eddsa.KeyPair

	registered bool
	round      int

	pks         map[PeerID]*eddsa.Point
	commitments map[PeerID]eddsa.Commitment
	rValues     map[PeerID]eddsa.Decommitment
	signatures  map[PeerID]*eddsa.Scalar

	ephemeral eddsa.Ephemeral
	apk       *eddsa.Point
	weight    *eddsa.Scalar
	rTot      *eddsa.Point
	signature eddsa.Signature
}

// NewPeer constructs a fresh, not-yet-registered Peer for a session of the
// given capacity (n), with the long-term key pair it will sign with and the
// message it will produce a share of the signature over.
func NewPeer(capacity int, msg []byte, key eddsa.KeyPair) *Peer {
	return &Peer{
		capacity:    capacity,
		msg:         msg,
		key:         key,
		pks:         make(map[PeerID]*eddsa.Point, capacity),
		commitments: make(map[PeerID]eddsa.Commitment, capacity),
		rValues:     make(map[PeerID]eddsa.Decommitment, capacity),
		signatures:  make(map[PeerID]*eddsa.Scalar, capacity),
	}
}

// ZeroStep registers this peer's relay-assigned id and produces the round-0
// payload (this peer's own public key). It may only be called once.
func (p *Peer) ZeroStep(id PeerID) (string, error) {
	if p.registered {
		return "", NewError(ErrAlreadyRegistered, p.round, p.id)
	}
	p.id = id
	p.registered = true
	p.pks[id] = p.key.Pub
	return payload.Encode(payload.TagPublicKey, eddsa.EncodePublicKey(p.key.Pub)), nil
}

// UpdateData decodes a single payload received from peer `from` and folds it
// into the accumulator for the current round. It does not advance the round;
// call DoStep once quorum is reached to do that.
func (p *Peer) UpdateData(from PeerID, wire string) error {
	tag, body, err := payload.Decode(wire)
	if err != nil {
		return NewError(err, p.round, from)
	}
	expected, ok := payload.ExpectedTag(p.round)
	if !ok || tag != expected {
		return NewError(errors.Wrapf(ErrUnexpectedPayload, "got tag %q in round %d", tag, p.round), p.round, from)
	}
	switch p.round {
	case 0:
		return p.updatePubKey(from, body)
	case 1:
		return p.updateCommitment(from, body)
	case 2:
		return p.updateR(from, body)
	case 3:
		return p.updateSignature(from, body)
	default:
		return NewError(errors.Wrapf(ErrUnexpectedPayload, "session already finalized"), p.round, from)
	}
}

func (p *Peer) updatePubKey(from PeerID, body string) error {
	pk, err := eddsa.DecodePublicKey(body)
	if err != nil {
		return NewError(err, p.round, from)
	}
	if existing, ok := p.pks[from]; ok {
		if existing.Equal(pk) != 1 {
			return NewError(ErrInconsistentPayload, p.round, from)
		}
		return nil
	}
	p.pks[from] = pk
	return nil
}

func (p *Peer) updateCommitment(from PeerID, body string) error {
	c, err := eddsa.DecodeCommitment(body)
	if err != nil {
		return NewError(err, p.round, from)
	}
	if existing, ok := p.commitments[from]; ok {
		if existing != c {
			return NewError(ErrInconsistentPayload, p.round, from)
		}
		return nil
	}
	p.commitments[from] = c
	return nil
}

func (p *Peer) updateR(from PeerID, body string) error {
	dec, err := eddsa.DecodeDecommitment(body)
	if err != nil {
		return NewError(err, p.round, from)
	}
	if existing, ok := p.rValues[from]; ok {
		if existing.R.Equal(dec.R) != 1 || existing.Blind != dec.Blind {
			return NewError(ErrInconsistentPayload, p.round, from)
		}
		return nil
	}
	p.rValues[from] = dec
	return nil
}

func (p *Peer) updateSignature(from PeerID, body string) error {
	s, err := eddsa.DecodeSignatureShare(body)
	if err != nil {
		return NewError(err, p.round, from)
	}
	if existing, ok := p.signatures[from]; ok {
		if existing.Equal(s) != 1 {
			return NewError(ErrInconsistentPayload, p.round, from)
		}
		return nil
	}
	p.signatures[from] = s
	return nil
}

// DoStep attempts to advance the state machine by one round. It returns
// (payload, true, nil) when quorum for the current round was reached and a
// new outbound payload was produced (empty string for the final round, which
// has nothing left to broadcast); (.., false, nil) when quorum has not yet
// been reached and the caller should keep polling; and a non-nil error when
// advancing the round failed for cryptographic reasons (commitment mismatch).
func (p *Peer) DoStep() (string, bool, error) {
	switch p.round {
	case 0:
		if len(p.pks) < p.capacity {
			return "", false, nil
		}
		eph, c, dec, err := eddsa.CreateEphemeralAndCommit()
		if err != nil {
			return "", false, NewError(err, p.round, p.id)
		}
		p.ephemeral = eph
		p.rValues[p.id] = dec
		p.commitments[p.id] = c
		p.round = 1
		return payload.Encode(payload.TagCommitment, eddsa.EncodeCommitment(c)), true, nil

	case 1:
		if len(p.commitments) < p.capacity {
			return "", false, nil
		}
		body, err := eddsa.EncodeDecommitment(p.rValues[p.id])
		if err != nil {
			return "", false, NewError(err, p.round, p.id)
		}
		p.round = 2
		return payload.Encode(payload.TagR, body), true, nil

	case 2:
		if len(p.rValues) < p.capacity {
			return "", false, nil
		}
		if err := p.verifyCommitments(); err != nil {
			return "", false, err
		}
		if err := p.computeSigningMaterial(); err != nil {
			return "", false, err
		}
		sig := eddsa.PartialSign(p.ephemeral, p.key.Priv, p.challenge(), p.weight)
		p.signatures[p.id] = sig
		p.round = 3
		return payload.Encode(payload.TagSignature, eddsa.EncodeSignatureShare(sig)), true, nil

	case 3:
		if len(p.signatures) < p.capacity {
			return "", false, nil
		}
		p.round = 4
		return "", true, nil

	default:
		return "", false, nil
	}
}

// verifyCommitments checks every peer's revealed (R, blind) opens that
// peer's round-1 commitment, collecting every failure (not just the first)
// so culprits can be reported together.
func (p *Peer) verifyCommitments() error {
	var merr *multierror.Error
	var culprits []PeerID
	for peer, dec := range p.rValues {
		c, ok := p.commitments[peer]
		if !ok || !eddsa.TestCommit(dec, c) {
			culprits = append(culprits, peer)
			merr = multierror.Append(merr, errors.Errorf("peer %d", peer))
		}
	}
	if merr.ErrorOrNil() != nil {
		return NewError(errors.Wrap(ErrCommitmentMismatch, merr.Error()), p.round, p.id, culprits...)
	}
	return nil
}

// computeSigningMaterial derives apk, this peer's weight and R_tot from the
// now fully-verified accumulators. Public keys are arranged in canonical
// peer-index order first: aggregation is not order-independent, so every
// participant must feed AggregateKeys the identical ordering.
func (p *Peer) computeSigningMaterial() error {
	pks, myIndex, err := orderedPublicKeys(p.pks, p.id, p.capacity)
	if err != nil {
		return NewError(err, p.round, p.id)
	}
	apk, weight, err := eddsa.AggregateKeys(pks, myIndex)
	if err != nil {
		return NewError(err, p.round, p.id)
	}
	p.apk = apk
	p.weight = weight

	rs := make([]*eddsa.Point, 0, len(p.rValues))
	for _, dec := range p.rValues {
		rs = append(rs, dec.R)
	}
	p.rTot = eddsa.CombineR(rs)
	return nil
}

func (p *Peer) challenge() *eddsa.Scalar {
	return eddsa.Challenge(p.rTot, p.apk, p.msg)
}

// orderedPublicKeys arranges the accumulated pks map into the canonical
// [1..capacity] peer-index order AggregateKeys requires, and reports the
// 0-based position of selfID within it.
func orderedPublicKeys(pks map[PeerID]*eddsa.Point, selfID PeerID, capacity int) ([]*eddsa.Point, int, error) {
	ordered := make([]*eddsa.Point, capacity)
	myIndex := -1
	for id, pk := range pks {
		idx := int(id) - 1
		if idx < 0 || idx >= capacity {
			return nil, 0, errors.Errorf("orderedPublicKeys: peer id %d out of range [1,%d]", id, capacity)
		}
		ordered[idx] = pk
		if id == selfID {
			myIndex = idx
		}
	}
	for i, pk := range ordered {
		if pk == nil {
			return nil, 0, errors.Errorf("orderedPublicKeys: missing public key for peer %d", i+1)
		}
	}
	if myIndex < 0 {
		return nil, 0, errors.Errorf("orderedPublicKeys: self (peer %d) not present among accumulated keys", selfID)
	}
	return ordered, myIndex, nil
}

// IsDone reports whether every participant's signature share has been
// collected and the session is ready for Finalize.
func (p *Peer) IsDone() bool {
	return len(p.signatures) >= p.capacity
}

// Round reports the current round, 0-3 while running and 4 once done.
func (p *Peer) Round() int { return p.round }

// Finalize combines every collected signature share into the final
// aggregated signature and verifies it against apk before returning it.
func (p *Peer) Finalize() (eddsa.Signature, error) {
	if !p.IsDone() {
		return eddsa.Signature{}, NewError(ErrNotDone, p.round, p.id)
	}
	shares := make([]*eddsa.Scalar, 0, len(p.signatures))
	for _, s := range p.signatures {
		shares = append(shares, s)
	}
	sig := eddsa.Signature{R: p.rTot, S: eddsa.CombineSignatures(shares)}
	if err := eddsa.Verify(sig, p.msg, p.apk); err != nil {
		return eddsa.Signature{}, NewError(err, p.round, p.id)
	}
	p.signature = sig
	return sig, nil
}
