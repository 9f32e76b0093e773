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

// Package crc8 implements the checksums used on the dev cart link:
// a non-reflected CRC-8 (polynomial 0x07, zero init, no final xor) for the
// modern protocol and a plain additive byte sum for the legacy one.
package crc8

const Poly = 0x07

var table = makeTable(Poly)

func makeTable(poly byte) *[256]byte {
	t := new([256]byte)
	for i := 0; i < 256; i++ {
		c := byte(i)
		for j := 0; j < 8; j++ {
			if c&0x80 != 0 {
				c = (c << 1) ^ poly
			} else {
				c <<= 1
			}
		}
		t[i] = c
	}
	return t
}

// Update returns crc extended with the bytes of p.
func Update(crc byte, p []byte) byte {
	for _, b := range p {
		crc = table[crc^b]
	}
	return crc
}

// Checksum returns the CRC-8 of p starting from zero.
func Checksum(p []byte) byte {
	return Update(0, p)
}

// CRC is a running checksum. The zero value is ready to use.
// It implements io.Writer so it can sit behind an io.MultiWriter.
type CRC struct {
	sum byte
}

func (c *CRC) Write(p []byte) (int, error) {
	c.sum = Update(c.sum, p)
	return len(p), nil
}

func (c *CRC) WriteByte(b byte) error {
	c.sum = table[c.sum^b]
	return nil
}

func (c *CRC) Sum8() byte { return c.sum }

func (c *CRC) Reset() { c.sum = 0 }

// Sum8 is the legacy protocol checksum: the low 8 bits of the byte sum.
func Sum8(p []byte) byte {
	var s byte
	for _, b := range p {
		s += b
	}
	return s
}
