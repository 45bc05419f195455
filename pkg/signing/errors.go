// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package signing

import (
	"fmt"

	"github.com/pkg/errors"
)

// PeerID is the relay-assigned index of a participant, in [1, n].
type PeerID int

// Sentinel protocol/cryptographic errors. Wrapped in *Error before leaving
// this package so callers always have task/round/culprit context.
var (
	ErrUnexpectedPayload   = errors.New("signing: payload tag does not match current round")
	ErrInconsistentPayload = errors.New("signing: conflicting value received for same round and peer")
	ErrAlreadyRegistered   = errors.New("signing: zero_step invoked more than once")
	ErrCommitmentMismatch  = errors.New("signing: commitment verification failed")
	ErrNotDone             = errors.New("signing: finalize called before every signature was collected")
)

const TaskName = "eddsa-n-of-n-signing"

// Error carries the task/round/victim/culprit context every failure in this
// package is wrapped with, the same shape as the teacher's tss.Error.
type Error struct {
	cause    error
	task     string
	round    int
	victim   PeerID
	culprits []PeerID
}

// NewError wraps cause with protocol context.
func NewError(cause error, round int, victim PeerID, culprits ...PeerID) *Error {
	return &Error{cause: cause, task: TaskName, round: round, victim: victim, culprits: culprits}
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Cause() error { return e.cause }

func (e *Error) Round() int { return e.round }

func (e *Error) Victim() PeerID { return e.victim }

func (e *Error) Culprits() []PeerID { return e.culprits }

func (e *Error) Error() string {
	if e == nil || e.cause == nil {
		return "signing: nil error"
	}
	if len(e.culprits) > 0 {
		return fmt.Sprintf("task %s, peer %d, round %d, culprits %v: %s", e.task, e.victim, e.round, e.culprits, e.cause.Error())
	}
	return fmt.Sprintf("task %s, peer %d, round %d: %s", e.task, e.victim, e.round, e.cause.Error())
}
