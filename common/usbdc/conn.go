//
// Copyright (c) 2014-2019 Cesanta Software Limited
// All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
package usbdc

import (
	"net"
	"time"
)

// ConnChannel adapts a net.Conn to the Channel contract: an I/O deadline
// expiring is reported as a zero-byte transfer rather than an error.
type ConnChannel struct {
	Conn    net.Conn
	Timeout time.Duration
}

func NewConnChannel(conn net.Conn, timeout time.Duration) *ConnChannel {
	return &ConnChannel{Conn: conn, Timeout: timeout}
}

func (c *ConnChannel) Read(p []byte) (int, error) {
	if c.Timeout > 0 {
		c.Conn.SetReadDeadline(time.Now().Add(c.Timeout))
	}
	n, err := c.Conn.Read(p)
	if isTimeout(err) {
		return n, nil
	}
	return n, err
}

func (c *ConnChannel) Write(p []byte) (int, error) {
	if c.Timeout > 0 {
		c.Conn.SetWriteDeadline(time.Now().Add(c.Timeout))
	}
	n, err := c.Conn.Write(p)
	if isTimeout(err) {
		return n, nil
	}
	return n, err
}

func (c *ConnChannel) Close() error {
	return c.Conn.Close()
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
