// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package transport

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// ErrClosed is returned by Send/Recv on a FakeConn after Close.
var ErrClosed = errors.New("transport: connection closed")

// FakeConn is an in-memory Conn for tests: frames sent on it are appended to
// Sent, and Recv hands frames from a separately-fed inbox (see Feed). It
// lets tests drive the relay client's response-handling table without a real
// socket or server, mirroring the boundary-scenario fixtures in the corpus.
type FakeConn struct {
	Sent   []json.RawMessage
	inbox  chan json.RawMessage
	closed bool
}

func NewFakeConn() *FakeConn {
	return &FakeConn{inbox: make(chan json.RawMessage, 64)}
}

// Feed injects a message the client's next Recv call will receive.
func (f *FakeConn) Feed(v interface{}) error {
	bz, err := marshalFrame(v)
	if err != nil {
		return err
	}
	f.inbox <- json.RawMessage(bz)
	return nil
}

func (f *FakeConn) Send(v interface{}) error {
	if f.closed {
		return ErrClosed
	}
	bz, err := marshalFrame(v)
	if err != nil {
		return err
	}
	f.Sent = append(f.Sent, json.RawMessage(bz))
	return nil
}

func (f *FakeConn) Recv(v interface{}) error {
	bz, ok := <-f.inbox
	if !ok {
		return ErrClosed
	}
	return unmarshalFrame(bz, v)
}

func (f *FakeConn) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	close(f.inbox)
	return nil
}
