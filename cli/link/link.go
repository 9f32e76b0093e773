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

// Package link opens the byte channel to the dev cart: the FTDI chip driven
// directly over libusb, a serial device exposed by a VCP driver, or a TCP
// connection to a simulated target.
package link

import (
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/satlink/satlink/common/usbdc"
)

const (
	DefaultVID = 0x0403
	DefaultPID = 0x6001

	DefaultBaudRate  = 115200
	DefaultIOTimeout = 100 * time.Millisecond

	// Port names with a special meaning.
	PortUSB  = "usb"
	PortAuto = "auto"

	tcpPrefix = "tcp://"
)

// Link is an open channel to the target.
type Link interface {
	usbdc.Channel
	io.Closer
}

type Options struct {
	VID    uint16
	PID    uint16
	Serial string

	BaudRate uint
	// Bounds each read and write. A transfer that hits it moves zero bytes
	// and the caller retries.
	IOTimeout time.Duration
	// FTDI latency timer, in milliseconds. Zero leaves the chip default.
	LatencyTimer uint8
}

func (o *Options) withDefaults() Options {
	var r Options
	if o != nil {
		r = *o
	}
	if r.VID == 0 && r.PID == 0 {
		r.VID, r.PID = DefaultVID, DefaultPID
	}
	if r.BaudRate == 0 {
		r.BaudRate = DefaultBaudRate
	}
	if r.IOTimeout == 0 {
		r.IOTimeout = DefaultIOTimeout
	}
	return r
}

type portKind int

const (
	kindFTDI portKind = iota
	kindSerial
	kindTCP
	kindAuto
)

func parsePort(port string) (portKind, string) {
	switch {
	case port == "" || strings.EqualFold(port, PortUSB):
		return kindFTDI, ""
	case strings.EqualFold(port, PortAuto):
		return kindAuto, ""
	case strings.HasPrefix(port, tcpPrefix):
		return kindTCP, strings.TrimPrefix(port, tcpPrefix)
	}
	return kindSerial, port
}

// Open connects to the target through port: "usb" (or empty) for the FTDI
// chip matched by VID, PID and serial number, "auto" for the first USB
// serial port with that VID and PID, "tcp://host:port" for a simulator, or a
// serial device path.
func Open(port string, opts *Options) (Link, error) {
	o := opts.withDefaults()
	kind, name := parsePort(port)
	switch kind {
	case kindFTDI:
		l, err := OpenFTDI(&o)
		return l, errors.Trace(err)
	case kindTCP:
		glog.Infof("Connecting to %s...", name)
		conn, err := net.DialTimeout("tcp", name, 10*o.IOTimeout+time.Second)
		if err != nil {
			return nil, errors.Annotatef(err, "failed to connect to %s", name)
		}
		return usbdc.NewConnChannel(conn, o.IOTimeout), nil
	case kindAuto:
		p, err := DetectPort(&o)
		if err != nil {
			return nil, errors.Trace(err)
		}
		name = p
	}
	l, err := OpenSerial(name, &o)
	return l, errors.Trace(err)
}

func usbID(vid, pid uint16) string {
	return fmt.Sprintf("%04x:%04x", vid, pid)
}
