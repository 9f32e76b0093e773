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
package flags

import (
	"strconv"
	"strings"
	"time"

	"github.com/juju/errors"
	flag "github.com/spf13/pflag"

	"github.com/satlink/satlink/cli/link"
)

// Connection flags, shared by every command.
var (
	VID    = flag.StringP("vid", "v", "0403", "USB vendor ID of the cart interface, hex")
	PID    = flag.StringP("pid", "p", "6001", "USB product ID of the cart interface, hex")
	Serial = flag.StringP("serial", "s", "", "USB serial number. If empty, the first device with matching VID and PID is used")
	Port   = flag.String("port", link.PortUSB, "Where the cart is connected: 'usb' to drive the FTDI chip directly, "+
		"'auto' to pick the matching USB serial port, a serial device path, or tcp://host:port for a simulator")
	BaudRate  = flag.Uint("baud-rate", link.DefaultBaudRate, "Serial port speed")
	IOTimeout = flag.Duration("io-timeout", link.DefaultIOTimeout, "Timeout of a single read or write on the link")
	Timeout   = flag.Duration("timeout", 20*time.Second, "Timeout for each command")
	Latency   = flag.Uint8("latency", 0, "FTDI latency timer in milliseconds, 0 keeps the chip default")
	Config    = flag.String("config", "", "YAML profile with defaults for these flags, ~/.satlink.yaml if empty")
)

// ParseUSBID parses a hex USB ID, with or without the 0x prefix.
func ParseUSBID(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 16)
	if err != nil {
		return 0, errors.Annotatef(err, "invalid USB ID %q", s)
	}
	return uint16(v), nil
}

// LinkOptions builds link options from the flags.
func LinkOptions() (*link.Options, error) {
	vid, err := ParseUSBID(*VID)
	if err != nil {
		return nil, errors.Annotatef(err, "--vid")
	}
	pid, err := ParseUSBID(*PID)
	if err != nil {
		return nil, errors.Annotatef(err, "--pid")
	}
	return &link.Options{
		VID:          vid,
		PID:          pid,
		Serial:       *Serial,
		BaudRate:     *BaudRate,
		IOTimeout:    *IOTimeout,
		LatencyTimer: *Latency,
	}, nil
}
