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
package devutil

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satlink/satlink/cli/flags"
)

func TestGetPortExplicit(t *testing.T) {
	defer func(p string) { *flags.Port = p }(*flags.Port)
	*flags.Port = "/dev/ttyUSB3"
	p, err := GetPort(nil)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB3", p)
}

func TestCreateLinkFromFlags(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := l.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	defer func(p string) { *flags.Port = p }(*flags.Port)
	*flags.Port = "tcp://" + l.Addr().String()
	c, lnk, err := CreateClientFromFlags()
	require.NoError(t, err)
	assert.NotNil(t, c)
	(<-accepted).Close()
	require.NoError(t, lnk.Close())

	*flags.VID = "xyz"
	defer func() { *flags.VID = "0403" }()
	_, err = CreateLinkFromFlags()
	assert.Error(t, err)
}
