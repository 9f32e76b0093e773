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
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/satlink/satlink/common/usbdc"
)

// The cart sends its debug output in packets of at most this size.
const consoleReadSize = 62

// console prints what the target writes until ctx is done.
func console(ctx context.Context, ch usbdc.Channel, out io.Writer) error {
	color.New(color.FgGreen).Fprintf(os.Stderr, "Entering debug console mode. Press Ctrl+C to exit.\n")
	w := bufio.NewWriter(out)
	buf := make([]byte, consoleReadSize)
	for ctx.Err() == nil {
		n, err := ch.Read(buf)
		if err != nil {
			w.Flush()
			return errors.Annotatef(err, "console read")
		}
		if n == 0 {
			continue
		}
		formatConsole(w, buf[:n])
		w.Flush()
	}
	fmt.Fprintf(os.Stderr, "\nExiting debug console mode.\n")
	return nil
}

// formatConsole writes target output, making control characters visible.
func formatConsole(w io.Writer, p []byte) {
	for _, c := range p {
		switch {
		case c == '\n':
			fmt.Fprint(w, "\n")
		case c == '\t':
			fmt.Fprint(w, "    ")
		case c == '\r':
			fmt.Fprint(w, "[CR]")
		case c == 0 || c == 1 || c == 2:
			// Padding the firmware sends to flush its FIFO.
			glog.V(2).Infof("console: NUL 0x%02x", c)
		case c >= 0x20 && c < 0x7f:
			w.Write([]byte{c})
		default:
			fmt.Fprintf(w, "[0x%02x]", c)
		}
	}
}
