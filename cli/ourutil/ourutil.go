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
package ourutil

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/golang/glog"
	"github.com/juju/errors"
)

func Reportf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	glog.Infof(f, args...)
}

func Freportf(logFile io.Writer, f string, args ...interface{}) {
	fmt.Fprintf(logFile, f+"\n", args...)
	glog.Infof(f, args...)
}

// ReportTransfer prints how long a transfer of n bytes took.
func ReportTransfer(w io.Writer, n int, seconds float64) {
	Freportf(w, "Transfer time: %.3f s", seconds)
	speed := 0.0
	if seconds > 0 {
		speed = float64(n) / seconds / 1024
	}
	Freportf(w, "Transfer speed: %.2f KB/s", speed)
}

// ParseUint32 parses a 32 bit number in C notation: 0x for hex, leading 0
// for octal, decimal otherwise.
func ParseUint32(s, what string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, errors.Annotatef(err, "invalid %s %q", what, s)
	}
	return uint32(v), nil
}
