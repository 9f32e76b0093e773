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
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/juju/errors"
	"go.bug.st/serial/enumerator"
)

// DeviceInfo describes a USB device seen on the bus.
type DeviceInfo struct {
	VID          uint16
	PID          uint16
	Bus          int
	Address      int
	Manufacturer string
	Description  string
	Serial       string
}

func (d DeviceInfo) String() string {
	return fmt.Sprintf("%s bus %03d addr %03d  %q %q serial %q",
		usbID(d.VID, d.PID), d.Bus, d.Address, d.Manufacturer, d.Description, d.Serial)
}

// PortInfo is a serial port backed by a USB device.
type PortInfo struct {
	Name    string
	VID     uint16
	PID     uint16
	Serial  string
	Product string
}

func (p PortInfo) String() string {
	return fmt.Sprintf("%s  %s serial %q %s", p.Name, usbID(p.VID, p.PID), p.Serial, p.Product)
}

// ListPorts returns the USB serial ports with the given VID and PID.
func ListPorts(vid, pid uint16) ([]PortInfo, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, errors.Annotatef(err, "failed to enumerate serial ports")
	}
	return matchPorts(ports, vid, pid, ""), nil
}

// DetectPort picks the first USB serial port matching opts.
func DetectPort(opts *Options) (string, error) {
	o := opts.withDefaults()
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", errors.Annotatef(err, "failed to enumerate serial ports")
	}
	m := matchPorts(ports, o.VID, o.PID, o.Serial)
	if len(m) == 0 {
		return "", errors.Errorf("no serial port matching %s found", usbID(o.VID, o.PID))
	}
	glog.Infof("Using port %s", m[0].Name)
	return m[0].Name, nil
}

func matchPorts(ports []*enumerator.PortDetails, vid, pid uint16, serial string) []PortInfo {
	var res []PortInfo
	for _, port := range ports {
		if !port.IsUSB {
			continue
		}
		glog.V(1).Infof("%s: USB %s:%s serial %q", port.Name, port.VID, port.PID, port.SerialNumber)
		if !strings.EqualFold(port.VID, fmt.Sprintf("%04x", vid)) || !strings.EqualFold(port.PID, fmt.Sprintf("%04x", pid)) {
			continue
		}
		if serial != "" && port.SerialNumber != serial {
			continue
		}
		res = append(res, PortInfo{
			Name:    port.Name,
			VID:     vid,
			PID:     pid,
			Serial:  port.SerialNumber,
			Product: port.Product,
		})
	}
	return res
}

// stripModemStatus drops the two modem status bytes an FTDI chip puts at the
// start of every packet of maxPacket bytes. The result reuses b.
func stripModemStatus(b []byte, maxPacket int) []byte {
	if maxPacket <= 2 {
		return b[:0]
	}
	out := b[:0]
	for len(b) > 0 {
		n := maxPacket
		if n > len(b) {
			n = len(b)
		}
		if n > 2 {
			out = append(out, b[2:n]...)
		}
		b = b[n:]
	}
	return out
}
