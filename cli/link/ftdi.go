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
//go:build !no_libudev
// +build !no_libudev

package link

import (
	"context"

	"github.com/golang/glog"
	"github.com/google/gousb"
	"github.com/juju/errors"

	"github.com/satlink/satlink/common/multierror"
	"github.com/satlink/satlink/common/usbdc"
)

// FTDI vendor requests, all sent to interface A.
const (
	ftdiReqOut = 0x40

	sioReset      = 0x00
	sioLatency    = 0x09
	sioSetBitmode = 0x0B

	sioResetSIO     = 0
	sioResetPurgeRX = 1
	sioResetPurgeTX = 2

	ftdiIndexA = 1

	ftdiEPIn  = 1
	ftdiEPOut = 2
)

// FTDI is a channel over an FT232 style chip talking bulk USB directly.
type FTDI struct {
	opts Options
	uctx *gousb.Context
	dev  *gousb.Device
	intf *gousb.Interface
	done func()
	in   *gousb.InEndpoint
	out  *gousb.OutEndpoint

	rbuf    []byte
	pending []byte
}

// OpenFTDI opens and initializes the FTDI chip selected by opts. If purging
// the chip buffers fails, the device is reset and opened once more.
func OpenFTDI(opts *Options) (Link, error) {
	o := opts.withDefaults()
	if o.Serial == "" {
		glog.Infof("Initializing FTDI device %s", usbID(o.VID, o.PID))
	} else {
		glog.Infof("Initializing FTDI device %s, serial %s", usbID(o.VID, o.PID), o.Serial)
	}
	f, err := openFTDI(o)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := f.purge(); err != nil {
		glog.Errorf("Purge buffers error: %s, attempting to recover", err)
		if rerr := f.dev.Reset(); rerr != nil {
			glog.Errorf("USB reset error: %s", rerr)
		}
		if cerr := f.release(); cerr != nil {
			return nil, errors.Annotatef(cerr, "close error during recovery")
		}
		if f, err = openFTDI(o); err != nil {
			return nil, errors.Annotatef(err, "recovery attempt failed")
		}
		if err := f.purge(); err != nil {
			f.release()
			return nil, errors.Annotatef(err, "recovery attempt failed")
		}
	}
	if err := f.control(sioSetBitmode, 0, "bitmode reset"); err != nil {
		f.release()
		return nil, errors.Trace(err)
	}
	if o.LatencyTimer != 0 {
		if err := f.control(sioLatency, uint16(o.LatencyTimer), "set latency timer"); err != nil {
			f.release()
			return nil, errors.Trace(err)
		}
	}
	return f, nil
}

func openFTDI(o Options) (*FTDI, error) {
	uctx := gousb.NewContext()
	dev, err := openUSBDevice(uctx, gousb.ID(o.VID), gousb.ID(o.PID), o.Serial)
	if err != nil {
		uctx.Close()
		return nil, errors.Trace(err)
	}
	f := &FTDI{opts: o, uctx: uctx, dev: dev}
	if err := dev.SetAutoDetach(true); err != nil {
		glog.Warningf("failed to set auto detach: %s", err)
	}
	f.intf, f.done, err = dev.DefaultInterface()
	if err != nil {
		f.release()
		return nil, errors.Annotatef(err, "failed to claim interface")
	}
	if f.in, err = f.intf.InEndpoint(ftdiEPIn); err != nil {
		f.release()
		return nil, errors.Annotatef(err, "no IN endpoint")
	}
	if f.out, err = f.intf.OutEndpoint(ftdiEPOut); err != nil {
		f.release()
		return nil, errors.Annotatef(err, "no OUT endpoint")
	}
	glog.V(1).Infof("FTDI %s: in %s, out %s", usbID(o.VID, o.PID), f.in, f.out)
	f.rbuf = make([]byte, usbdc.ReadPacketSize)
	if err := f.control(sioReset, sioResetSIO, "reset"); err != nil {
		f.release()
		return nil, errors.Trace(err)
	}
	return f, nil
}

func (f *FTDI) control(req uint8, val uint16, what string) error {
	if _, err := f.dev.Control(ftdiReqOut, req, val, ftdiIndexA, nil); err != nil {
		return errors.Annotatef(err, "%s", what)
	}
	return nil
}

func (f *FTDI) purge() error {
	f.pending = nil
	if err := f.control(sioReset, sioResetPurgeRX, "purge RX"); err != nil {
		return err
	}
	return f.control(sioReset, sioResetPurgeTX, "purge TX")
}

func (f *FTDI) Read(p []byte) (int, error) {
	if len(f.pending) == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), f.opts.IOTimeout)
		n, err := f.in.ReadContext(ctx, f.rbuf)
		cancel()
		if err != nil && !isUSBTimeout(err) {
			return 0, errors.Annotatef(err, "FTDI read")
		}
		f.pending = stripModemStatus(f.rbuf[:n], f.in.Desc.MaxPacketSize)
	}
	n := copy(p, f.pending)
	f.pending = f.pending[n:]
	return n, nil
}

func (f *FTDI) Write(p []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), f.opts.IOTimeout)
	defer cancel()
	n, err := f.out.WriteContext(ctx, p)
	if err != nil && !isUSBTimeout(err) {
		return n, errors.Annotatef(err, "FTDI write")
	}
	return n, nil
}

// Close purges the chip buffers and releases the device.
func (f *FTDI) Close() error {
	if f.dev == nil {
		return nil
	}
	return multierror.Append(f.purge(), f.release())
}

func (f *FTDI) release() error {
	var err error
	if f.done != nil {
		f.done()
		f.done = nil
	}
	if f.dev != nil {
		err = multierror.Append(err, f.dev.Close())
		f.dev = nil
	}
	if f.uctx != nil {
		err = multierror.Append(err, f.uctx.Close())
		f.uctx = nil
	}
	return err
}

func isUSBTimeout(err error) bool {
	switch errors.Cause(err) {
	case gousb.TransferTimedOut, gousb.TransferCancelled, context.DeadlineExceeded:
		return true
	}
	return false
}
