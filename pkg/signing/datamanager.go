// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package signing

import "github.com/eddsa-relay/sign-client/pkg/eddsa"

// DataManager mediates between the transport layer and a Peer: it owns the
// single instance of the state machine for a session and turns "a payload
// arrived from peer X" into "here is what to broadcast next, if anything".
// It is the Go analogue of the original's generic ProtocolDataManager<T>,
// narrowed to the one Peer type this module implements.
type DataManager struct {
	peer *Peer
}

// NewDataManager wraps a freshly constructed Peer.
func NewDataManager(peer *Peer) *DataManager {
	return &DataManager{peer: peer}
}

// Initialize registers the peer's relay-assigned id and returns the round-0
// broadcast payload.
func (dm *DataManager) Initialize(id PeerID) (string, error) {
	return dm.peer.ZeroStep(id)
}

// GetNext folds an incoming payload into the state machine and, if that
// payload completed the current round's quorum, returns the next payload to
// broadcast. ok is false while the current round is still waiting on other
// peers; on the transition out of the final round ok is true and out is
// empty, since there is nothing left to broadcast.
func (dm *DataManager) GetNext(from PeerID, wire string) (out string, ok bool, err error) {
	if err := dm.peer.UpdateData(from, wire); err != nil {
		return "", false, err
	}
	return dm.peer.DoStep()
}

// IsDone reports whether every signature share has been collected.
func (dm *DataManager) IsDone() bool { return dm.peer.IsDone() }

// Round reports the peer's current round.
func (dm *DataManager) Round() int { return dm.peer.Round() }

// Finalize combines and verifies the final aggregated signature.
func (dm *DataManager) Finalize() (eddsa.Signature, error) { return dm.peer.Finalize() }
