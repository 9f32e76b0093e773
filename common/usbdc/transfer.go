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
	"context"
	"encoding/binary"
	"encoding/hex"

	"github.com/golang/glog"

	"github.com/satlink/satlink/common/crc8"
)

const previewLen = 32

// ReadFull reads exactly len(buf) bytes, retrying empty reads until ctx is done.
func ReadFull(ctx context.Context, ch Channel, buf []byte, what string) error {
	for n := 0; n < len(buf); {
		m, err := ch.Read(buf[n:])
		if err != nil {
			return &ChannelError{Op: what, Err: err}
		}
		if m == 0 {
			if err := ctx.Err(); err != nil {
				return &ChannelError{Op: what, Err: err}
			}
			continue
		}
		n += m
	}
	return nil
}

// WriteFull writes all of buf, at most chunk bytes per Write call.
// chunk <= 0 means no limit.
func WriteFull(ctx context.Context, ch Channel, buf []byte, chunk int, what string) error {
	for n := 0; n < len(buf); {
		end := len(buf)
		if chunk > 0 && end-n > chunk {
			end = n + chunk
		}
		m, err := ch.Write(buf[n:end])
		if err != nil {
			return &ChannelError{Op: what, Err: err}
		}
		if m == 0 {
			if err := ctx.Err(); err != nil {
				return &ChannelError{Op: what, Err: err}
			}
			continue
		}
		n += m
		glog.V(2).Infof("%s: %d/%d", what, n, len(buf))
	}
	return nil
}

// TransferIn receives len(dst) bytes and returns their CRC-8.
func TransferIn(ctx context.Context, ch Channel, dst []byte) (byte, error) {
	var crc crc8.CRC
	for n := 0; n < len(dst); {
		end := len(dst)
		if end-n > ReadPayloadSize {
			end = n + ReadPayloadSize
		}
		if err := ReadFull(ctx, ch, dst[n:end], "read data"); err != nil {
			return 0, err
		}
		crc.Write(dst[n:end])
		n = end
		glog.V(2).Infof("read data: %d/%d", n, len(dst))
	}
	if glog.V(4) {
		glog.Infof("<< %s", preview(dst))
	}
	return crc.Sum8(), nil
}

// TransferOut sends src in pieces of at most chunk bytes and returns its CRC-8.
func TransferOut(ctx context.Context, ch Channel, src []byte, chunk int) (byte, error) {
	if glog.V(4) {
		glog.Infof(">> %s", preview(src))
	}
	if err := WriteFull(ctx, ch, src, chunk, "write data"); err != nil {
		return 0, err
	}
	return crc8.Checksum(src), nil
}

// Send writes a command frame: opcode, big-endian address and length, and any
// extra dwords.
func Send(ctx context.Context, ch Channel, op Opcode, addr, length uint32, extra ...uint32) error {
	f := &Frame{Op: op, Address: addr, Length: length, Extra: extra}
	glog.V(1).Infof("-> %s", f)
	return WriteFull(ctx, ch, f.Bytes(), 0, "send frame")
}

// SendAddress writes a frame that only carries an address (EXECUTE).
func SendAddress(ctx context.Context, ch Channel, op Opcode, addr uint32) error {
	b := appendDword([]byte{byte(op)}, addr)
	glog.V(1).Infof("-> %s addr=0x%08x", op, addr)
	return WriteFull(ctx, ch, b, 0, "send frame")
}

func ReadByte(ctx context.Context, ch Channel, what string) (byte, error) {
	var b [1]byte
	if err := ReadFull(ctx, ch, b[:], what); err != nil {
		return 0, err
	}
	return b[0], nil
}

func WriteByte(ctx context.Context, ch Channel, v byte, what string) error {
	return WriteFull(ctx, ch, []byte{v}, 0, what)
}

// ReadDword reads a big-endian 32 bit value.
func ReadDword(ctx context.Context, ch Channel, what string) (uint32, error) {
	var b [4]byte
	if err := ReadFull(ctx, ch, b[:], what); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// WriteDword writes a big-endian 32 bit value.
func WriteDword(ctx context.Context, ch Channel, v uint32, what string) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return WriteFull(ctx, ch, b[:], 0, what)
}

// ReadChecksum waits for the trailing checksum byte.
func ReadChecksum(ctx context.Context, ch Channel) (byte, error) {
	return ReadByte(ctx, ch, "read checksum")
}

func preview(b []byte) string {
	if len(b) > previewLen {
		return hex.EncodeToString(b[:previewLen]) + "..."
	}
	return hex.EncodeToString(b)
}
