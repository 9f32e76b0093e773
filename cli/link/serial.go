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
package link

import (
	"io"
	"time"

	"github.com/cesanta/go-serial/serial"
	"github.com/golang/glog"
	"github.com/juju/errors"
)

// serialLink is a channel over a serial device. The driver reports the
// inter-character timeout as io.EOF, which is an empty transfer here.
type serialLink struct {
	name string
	conn serial.Serial
}

func OpenSerial(name string, opts *Options) (Link, error) {
	o := opts.withDefaults()
	glog.Infof("Opening %s...", name)
	// The timeout has a granularity of 100 ms on POSIX systems.
	ict := o.IOTimeout
	if ict < 100*time.Millisecond {
		ict = 100 * time.Millisecond
	}
	oo := serial.OpenOptions{
		PortName:              name,
		BaudRate:              o.BaudRate,
		DataBits:              8,
		ParityMode:            serial.PARITY_NONE,
		StopBits:              1,
		InterCharacterTimeout: uint(ict / time.Millisecond),
		MinimumReadSize:       0,
	}
	s, err := serial.Open(oo)
	glog.Infof("%s opened: %v, err: %v", name, s, err)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to open %s", name)
	}

	// Flush any data that might be not yet read
	s.Flush()

	return &serialLink{name: name, conn: s}, nil
}

func (l *serialLink) Read(p []byte) (int, error) {
	n, err := l.conn.Read(p)
	if errors.Cause(err) == io.EOF {
		return n, nil
	}
	return n, errors.Annotatef(err, "%s", l.name)
}

func (l *serialLink) Write(p []byte) (int, error) {
	n, err := l.conn.Write(p)
	return n, errors.Annotatef(err, "%s", l.name)
}

func (l *serialLink) Close() error {
	return errors.Trace(l.conn.Close())
}
