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
package crc8

import (
	"testing"
)

func TestChecksum(t *testing.T) {
	for _, c := range []struct {
		in   string
		want byte
	}{
		{"", 0x00},
		{"\x00", 0x00},
		{"\x01", 0x07},
		{"\x80", 0x89},
		{"\xff", 0xf3},
		// CRC-8/SMBUS check value.
		{"123456789", 0xf4},
	} {
		if got := Checksum([]byte(c.in)); got != c.want {
			t.Errorf("%q: got: 0x%02x, want: 0x%02x", c.in, got, c.want)
		}
	}
}

func TestIncremental(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")
	want := Checksum(data)

	var c CRC
	c.Write(data[:7])
	for _, b := range data[7:20] {
		c.WriteByte(b)
	}
	c.Write(data[20:])
	if got := c.Sum8(); got != want {
		t.Errorf("got: 0x%02x, want: 0x%02x", got, want)
	}

	c.Reset()
	if got, want := c.Sum8(), byte(0); got != want {
		t.Errorf("got: 0x%02x, want: 0x%02x", got, want)
	}
}

func TestSingleBitFlip(t *testing.T) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i * 7)
	}
	sum := Checksum(data)
	for _, pos := range []int{0, 1, 100, 4095} {
		for bit := uint(0); bit < 8; bit++ {
			data[pos] ^= 1 << bit
			if Checksum(data) == sum {
				t.Errorf("flip of bit %d at %d not detected", bit, pos)
			}
			data[pos] ^= 1 << bit
		}
	}
}

func TestSum8(t *testing.T) {
	if got, want := Sum8([]byte{0x80, 0x80, 0x05}), byte(0x05); got != want {
		t.Errorf("got: 0x%02x, want: 0x%02x", got, want)
	}
	if got, want := Sum8(nil), byte(0); got != want {
		t.Errorf("got: 0x%02x, want: 0x%02x", got, want)
	}
}
