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
	"testing"
	"time"
)

func TestParseUSBID(t *testing.T) {
	for _, c := range []struct {
		s    string
		want uint16
		ok   bool
	}{
		{"0403", 0x0403, true},
		{"0x6001", 0x6001, true},
		{"0XFFFF", 0xffff, true},
		{"6001", 0x6001, true},
		{"10000", 0, false},
		{"ftdi", 0, false},
		{"", 0, false},
	} {
		got, err := ParseUSBID(c.s)
		if (err == nil) != c.ok {
			t.Errorf("%q: unexpected error state: %v", c.s, err)
			continue
		}
		if got != c.want {
			t.Errorf("%q: got: 0x%04x, want: 0x%04x", c.s, got, c.want)
		}
	}
}

func TestLinkOptions(t *testing.T) {
	defer func(v, p, s string) { *VID, *PID, *Serial = v, p, s }(*VID, *PID, *Serial)
	*VID, *PID, *Serial = "1234", "0x5678", "FT123"

	o, err := LinkOptions()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := o.VID, uint16(0x1234); got != want {
		t.Errorf("got: 0x%04x, want: 0x%04x", got, want)
	}
	if got, want := o.PID, uint16(0x5678); got != want {
		t.Errorf("got: 0x%04x, want: 0x%04x", got, want)
	}
	if got, want := o.Serial, "FT123"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
	if got, want := o.IOTimeout, 100*time.Millisecond; got != want {
		t.Errorf("got: %s, want: %s", got, want)
	}

	*PID = "nope"
	if _, err := LinkOptions(); err == nil {
		t.Errorf("invalid PID accepted")
	}
}
