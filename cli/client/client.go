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
package client

import (
	"context"
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/satlink/satlink/common/crc8"
	"github.com/satlink/satlink/common/usbdc"
)

var ErrRejected = errors.New("target rejected the transfer")

// Stats describes a completed data transfer.
type Stats struct {
	Bytes   int
	Elapsed time.Duration
}

func (s Stats) Seconds() float64 {
	return s.Elapsed.Seconds()
}

func (s Stats) BytesPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Bytes) / s.Elapsed.Seconds()
}

// Client drives the dev cart monitor over a channel. One command at a time.
type Client struct {
	ch usbdc.Channel
	// Chunk size for payload writes.
	WriteChunk int
}

func New(ch usbdc.Channel) *Client {
	return &Client{ch: ch, WriteChunk: usbdc.WritePayloadSize}
}

// Download reads size bytes of target memory at addr.
func (c *Client) Download(ctx context.Context, addr, size uint32) ([]byte, Stats, error) {
	start := time.Now()
	if err := usbdc.Send(ctx, c.ch, usbdc.OpDownload, addr, size); err != nil {
		return nil, Stats{}, errors.Trace(err)
	}
	data := make([]byte, size)
	crc, err := usbdc.TransferIn(ctx, c.ch, data)
	if err != nil {
		return nil, Stats{}, errors.Trace(err)
	}
	received, err := usbdc.ReadChecksum(ctx, c.ch)
	if err != nil {
		return nil, Stats{}, errors.Trace(err)
	}
	st := Stats{Bytes: len(data), Elapsed: time.Since(start)}
	if err := usbdc.VerifyChecksum(received, crc); err != nil {
		return nil, st, errors.Annotatef(err, "download of %d bytes at 0x%08x", size, addr)
	}
	return data, st, nil
}

// Upload writes data to target memory at addr.
func (c *Client) Upload(ctx context.Context, addr uint32, data []byte) (Stats, error) {
	return c.send(ctx, usbdc.OpUpload, addr, data)
}

// Execute uploads data and has the target run it at addr, resetting the
// hardware selected by resetFlags first.
func (c *Client) Execute(ctx context.Context, addr uint32, data []byte, resetFlags uint32) (Stats, error) {
	return c.send(ctx, usbdc.OpExecuteExtended, addr, data, resetFlags)
}

func (c *Client) send(ctx context.Context, op usbdc.Opcode, addr uint32, data []byte, extra ...uint32) (Stats, error) {
	start := time.Now()
	// The checksum covers the whole payload and starts from zero.
	crc := crc8.Checksum(data)
	if err := usbdc.Send(ctx, c.ch, op, addr, uint32(len(data)), extra...); err != nil {
		return Stats{}, errors.Trace(err)
	}
	if _, err := usbdc.TransferOut(ctx, c.ch, data, c.WriteChunk); err != nil {
		return Stats{}, errors.Trace(err)
	}
	if err := usbdc.WriteByte(ctx, c.ch, crc, "write checksum"); err != nil {
		return Stats{}, errors.Trace(err)
	}
	status, err := usbdc.ReadByte(ctx, c.ch, "read status")
	if err != nil {
		return Stats{}, errors.Trace(err)
	}
	st := Stats{Bytes: len(data), Elapsed: time.Since(start)}
	glog.V(1).Infof("%s status %d", op, status)
	if status != usbdc.StatusOK {
		return st, errors.Annotatef(ErrRejected, "%s of %d bytes at 0x%08x, status %d", op, len(data), addr, status)
	}
	return st, nil
}

// Run jumps to code already present at addr.
func (c *Client) Run(ctx context.Context, addr uint32) error {
	return errors.Trace(usbdc.SendAddress(ctx, c.ch, usbdc.OpExecute, addr))
}

// BufferAddress asks the target where it stages uploaded programs.
func (c *Client) BufferAddress(ctx context.Context) (uint32, error) {
	if err := usbdc.WriteByte(ctx, c.ch, byte(usbdc.OpGetBufferAddress), "send frame"); err != nil {
		return 0, errors.Trace(err)
	}
	addr, err := usbdc.ReadDword(ctx, c.ch, "read buffer address")
	return addr, errors.Trace(err)
}

// CopyAndExecute has the target move length bytes from tmp to exec and jump there.
func (c *Client) CopyAndExecute(ctx context.Context, tmp, length, exec uint32) error {
	return errors.Trace(usbdc.Send(ctx, c.ch, usbdc.OpCopyAndExecute, tmp, length, exec))
}

// FirmwareVersion returns the version byte of the cart firmware.
func (c *Client) FirmwareVersion(ctx context.Context) (byte, error) {
	b, _, err := c.Download(ctx, usbdc.VersionAddress, usbdc.VersionSize)
	if err != nil {
		return 0, errors.Annotatef(err, "failed to query firmware version")
	}
	return b[0], nil
}
