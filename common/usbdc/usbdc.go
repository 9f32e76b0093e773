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

// Package usbdc implements the byte-stream protocol spoken between the host
// tool and the monitor running on the dev cart target. Both sides share the
// frame layout and the bulk transfer engine defined here.
package usbdc

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/juju/errors"
)

type Opcode byte

const (
	OpDownload         Opcode = 0x01
	OpUpload           Opcode = 0x02
	OpExecute          Opcode = 0x03
	OpGetBufferAddress Opcode = 0x04
	OpCopyAndExecute   Opcode = 0x05
	OpExecuteExtended  Opcode = 0x06
)

func (op Opcode) String() string {
	switch op {
	case OpDownload:
		return "DOWNLOAD"
	case OpUpload:
		return "UPLOAD"
	case OpExecute:
		return "EXECUTE"
	case OpGetBufferAddress:
		return "GET_BUFFER_ADDRESS"
	case OpCopyAndExecute:
		return "COPY_AND_EXECUTE"
	case OpExecuteExtended:
		return "EXECUTE_EXTENDED"
	}
	return fmt.Sprintf("0x%02x", byte(op))
}

const (
	// Status byte values replied to UPLOAD and EXECUTE_EXTENDED.
	StatusOK     = 0
	StatusBadCRC = 1

	// Firmware version block, readable as a 16 byte download.
	VersionAddress = 0x207FFFF0
	VersionSize    = 16
	VersionMask    = 0x0FFFFFFF

	// Raw USB transfer sizes of the FTDI bridge. Every 64 byte USB packet
	// carries 2 modem status bytes, which is what Payload accounts for.
	ReadPacketSize  = 64 * 1024
	WritePacketSize = 4 * 1024
)

var (
	ReadPayloadSize  = Payload(ReadPacketSize)
	WritePayloadSize = Payload(WritePacketSize)
)

// Payload returns the number of data bytes carried by a USB transfer of x bytes.
func Payload(x int) int {
	return x - (x/64)*2
}

// Channel is an ordered, reliable byte pipe to the other side.
//
// A Read or Write that returns 0 bytes and a nil error means "nothing happened
// yet" (for example, the channel timeout elapsed) and may be retried. Any non-nil
// error is fatal for the command in progress.
type Channel interface {
	io.Reader
	io.Writer
}

// Frame is a command header. Length is only present for opcodes that carry one.
type Frame struct {
	Op      Opcode
	Address uint32
	Length  uint32
	Extra   []uint32
}

// Bytes returns the wire encoding of the frame.
func (f *Frame) Bytes() []byte {
	b := []byte{byte(f.Op)}
	switch f.Op {
	case OpGetBufferAddress:
		return b
	case OpExecute:
		return appendDword(b, f.Address)
	}
	b = appendDword(b, f.Address)
	b = appendDword(b, f.Length)
	for _, e := range f.Extra {
		b = appendDword(b, e)
	}
	return b
}

func (f *Frame) String() string {
	return fmt.Sprintf("%s addr=0x%08x len=%d extra=%x", f.Op, f.Address, f.Length, f.Extra)
}

func appendDword(b []byte, v uint32) []byte {
	var d [4]byte
	binary.BigEndian.PutUint32(d[:], v)
	return append(b, d[:]...)
}

// ChannelError reports a failure of the underlying byte channel, including
// running out of time waiting for it.
type ChannelError struct {
	Op  string
	Err error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("channel error (%s): %s", e.Op, e.Err)
}

// IsChannelError returns whether err was caused by a ChannelError.
func IsChannelError(err error) bool {
	_, ok := errors.Cause(err).(*ChannelError)
	return ok
}

var ErrChecksumMismatch = errors.New("checksum mismatch")

// VerifyChecksum returns an error whose cause is ErrChecksumMismatch if the
// checksum received from the peer does not match the locally computed one.
func VerifyChecksum(received, computed byte) error {
	if received != computed {
		return errors.Annotatef(ErrChecksumMismatch, "received 0x%02x, computed 0x%02x", received, computed)
	}
	return nil
}
