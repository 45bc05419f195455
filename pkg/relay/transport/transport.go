// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

// Package transport is the thin Conn abstraction the relay client sends and
// receives JSON frames through, so the session client itself never imports a
// concrete socket library. Grounded on the corpus's WSTransport pattern but
// narrowed from request/response RPC to this protocol's one bidirectional
// JSON stream.
package transport

import "encoding/json"

// Conn is a bidirectional JSON message stream to the relay server.
type Conn interface {
	// Send marshals v to JSON and writes it as one frame.
	Send(v interface{}) error
	// Recv blocks until the next frame arrives and unmarshals it into v.
	Recv(v interface{}) error
	Close() error
}

// marshalFrame and unmarshalFrame are shared by every Conn implementation so
// the wire encoding (JSON) stays in one place.
func marshalFrame(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func unmarshalFrame(bz []byte, v interface{}) error {
	return json.Unmarshal(bz, v)
}
