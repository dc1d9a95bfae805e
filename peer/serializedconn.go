// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package peer

import (
	"io"

	pkgsync "lucre.network/go-lucre/pkg/sync"
	"lucre.network/go-lucre/wire/msg"
)

var _ Conn = (*serializedConn)(nil)

// serializedConn is a connection that communicates its messages over a
// stream. Sends and receives are serialized separately, so concurrent
// callers cannot interleave message bytes.
type serializedConn struct {
	conn      io.ReadWriteCloser
	sendMutex pkgsync.Mutex
	recvMutex pkgsync.Mutex
}

// NewConn creates a serialized connection from a stream.
func NewConn(conn io.ReadWriteCloser) Conn {
	return &serializedConn{
		conn: conn,
	}
}

func (c *serializedConn) Send(m msg.Msg) error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()
	if err := msg.Encode(m, c.conn); err != nil {
		c.conn.Close()
		return err
	}
	return nil
}

func (c *serializedConn) Recv() (msg.Msg, error) {
	c.recvMutex.Lock()
	defer c.recvMutex.Unlock()
	m, err := msg.Decode(c.conn)
	if err != nil {
		c.conn.Close()
		return nil, err
	}
	return m, nil
}

func (c *serializedConn) Close() error {
	return c.conn.Close()
}
