// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package transport

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// WSConn is the production Conn: a single persistent WebSocket connection to
// the relay server, one JSON frame per Send/Recv.
type WSConn struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	readMu  sync.Mutex

	writeTimeout time.Duration
	readTimeout  time.Duration
}

// Dial opens a WebSocket connection to a relay server address, e.g.
// "127.0.0.1:26657".
func Dial(addr string) (*WSConn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	url := "ws://" + addr + "/ws"
	conn, resp, err := dialer.Dial(url, nil)
	if err != nil {
		if resp != nil {
			return nil, errors.Wrapf(err, "dial %s: HTTP %d", url, statusCode(resp))
		}
		return nil, errors.Wrapf(err, "dial %s", url)
	}
	return &WSConn{conn: conn, writeTimeout: 10 * time.Second, readTimeout: 0}, nil
}

func statusCode(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

func (c *WSConn) Send(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return errors.Wrap(err, "set write deadline")
		}
	}
	bz, err := marshalFrame(v)
	if err != nil {
		return errors.Wrap(err, "marshal frame")
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, bz); err != nil {
		return errors.Wrap(err, "write frame")
	}
	return nil
}

func (c *WSConn) Recv(v interface{}) error {
	c.readMu.Lock()
	defer c.readMu.Unlock()
	_, bz, err := c.conn.ReadMessage()
	if err != nil {
		return errors.Wrap(err, "read frame")
	}
	return unmarshalFrame(bz, v)
}

func (c *WSConn) Close() error {
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}
