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
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/juju/errors"

	"github.com/satlink/satlink/cli/client"
	"github.com/satlink/satlink/cli/flags"
	"github.com/satlink/satlink/cli/link"
	"github.com/satlink/satlink/cli/ourutil"
	"github.com/satlink/satlink/common/ourio"
)

const (
	biosAddress = 0x00000000
	biosSize    = 0x80000

	// The largest transfer the cart firmware accepts.
	maxFileSize = 32 * 1024 * 1024
)

type handler func(ctx context.Context, c *client.Client) error

type command struct {
	name    string
	handler handler
	// Commands that do not talk to the target.
	local func() error
}

// selectCommand picks the command given by the flags. args are the
// positional arguments that follow the command's file name.
func selectCommand(args []string) (*command, error) {
	var cmds []*command
	addrArg := func(i int, what string) (uint32, error) {
		return ourutil.ParseUint32(args[i], what)
	}
	wantArgs := func(flag string, n int, usage string) error {
		if len(args) != n {
			return errors.Errorf("%s takes %s", flag, usage)
		}
		return nil
	}

	if *downloadFile != "" {
		if err := wantArgs("--download", 2, "FILE ADDRESS SIZE"); err != nil {
			return nil, err
		}
		addr, err := addrArg(0, "address")
		if err != nil {
			return nil, err
		}
		size, err := addrArg(1, "size")
		if err != nil {
			return nil, err
		}
		file := *downloadFile
		cmds = append(cmds, &command{name: "download", handler: func(ctx context.Context, c *client.Client) error {
			return download(ctx, c, file, addr, size)
		}})
	}
	if *uploadFile != "" {
		if err := wantArgs("--upload", 1, "FILE ADDRESS"); err != nil {
			return nil, err
		}
		addr, err := addrArg(0, "address")
		if err != nil {
			return nil, err
		}
		file := *uploadFile
		cmds = append(cmds, &command{name: "upload", handler: func(ctx context.Context, c *client.Client) error {
			return upload(ctx, c, file, addr)
		}})
	}
	if *execFile != "" {
		if err := wantArgs("--exec", 1, "FILE ADDRESS"); err != nil {
			return nil, err
		}
		addr, err := addrArg(0, "address")
		if err != nil {
			return nil, err
		}
		rf, err := ourutil.ParseUint32(*resetFlags, "reset flags")
		if err != nil {
			return nil, err
		}
		file := *execFile
		cmds = append(cmds, &command{name: "exec", handler: func(ctx context.Context, c *client.Client) error {
			return execute(ctx, c, file, addr, rf)
		}})
	}
	if *runAddr != "" {
		if err := wantArgs("--run", 0, "ADDRESS"); err != nil {
			return nil, err
		}
		addr, err := ourutil.ParseUint32(*runAddr, "address")
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, &command{name: "run", handler: func(ctx context.Context, c *client.Client) error {
			return c.Run(ctx, addr)
		}})
	}
	if *dumpFile != "" {
		if err := wantArgs("--dump", 0, "FILE"); err != nil {
			return nil, err
		}
		file := *dumpFile
		cmds = append(cmds, &command{name: "dump", handler: func(ctx context.Context, c *client.Client) error {
			return download(ctx, c, file, biosAddress, biosSize)
		}})
	}
	if *fwVersion {
		cmds = append(cmds, &command{name: "fw-version", handler: printFirmwareVersion})
	}
	if *listFlag {
		cmds = append(cmds, &command{name: "list", local: listDevices})
	}

	switch len(cmds) {
	case 0:
		if len(args) > 0 {
			return nil, errors.Errorf("unexpected arguments %q", args)
		}
		return nil, nil
	case 1:
		return cmds[0], nil
	}
	return nil, errors.Errorf("only one command can be given at a time")
}

func download(ctx context.Context, c *client.Client, file string, addr, size uint32) error {
	ourutil.Reportf("Downloading %d bytes from 0x%08x to %s...", size, addr, file)
	data, st, err := c.Download(ctx, addr, size)
	if err != nil {
		return errors.Trace(err)
	}
	ourutil.ReportTransfer(os.Stderr, st.Bytes, st.Seconds())
	if err := ourio.WriteFileAtomic(file, data, 0644); err != nil {
		return errors.Annotatef(err, "failed to write %s", file)
	}
	return nil
}

func readFile(file string) ([]byte, error) {
	data, err := ourio.ReadFileMax(file, maxFileSize)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to read %s", file)
	}
	return data, nil
}

func upload(ctx context.Context, c *client.Client, file string, addr uint32) error {
	data, err := readFile(file)
	if err != nil {
		return err
	}
	ourutil.Reportf("Uploading %s (%d bytes) to 0x%08x...", file, len(data), addr)
	st, err := c.Upload(ctx, addr, data)
	if err != nil {
		return errors.Trace(err)
	}
	ourutil.ReportTransfer(os.Stderr, st.Bytes, st.Seconds())
	return nil
}

func execute(ctx context.Context, c *client.Client, file string, addr, rf uint32) error {
	data, err := readFile(file)
	if err != nil {
		return err
	}
	ourutil.Reportf("Executing %s (%d bytes) at 0x%08x, reset flags 0x%x...", file, len(data), addr, rf)
	st, err := c.Execute(ctx, addr, data, rf)
	if err != nil {
		return errors.Trace(err)
	}
	ourutil.ReportTransfer(os.Stderr, st.Bytes, st.Seconds())
	return nil
}

func printFirmwareVersion(ctx context.Context, c *client.Client) error {
	v, err := c.FirmwareVersion(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	fmt.Printf("Firmware version: 0x%02x\n", v)
	return nil
}

func listDevices() error {
	opts, err := flags.LinkOptions()
	if err != nil {
		return errors.Trace(err)
	}
	found := 0
	devs, err := link.ListFTDI(opts.VID, opts.PID)
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "USB: %s\n", err)
	}
	for _, d := range devs {
		fmt.Printf("%d: %s\n", found, d)
		found++
	}
	ports, err := link.ListPorts(opts.VID, opts.PID)
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Serial ports: %s\n", err)
	}
	for _, p := range ports {
		fmt.Printf("%d: %s\n", found, p)
		found++
	}
	if found == 0 {
		return errors.Errorf("no devices matching %04x:%04x found", opts.VID, opts.PID)
	}
	return nil
}
