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
	goflag "flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/juju/errors"
	flag "github.com/spf13/pflag"

	"github.com/satlink/satlink/cli/config"
	"github.com/satlink/satlink/cli/devutil"
	"github.com/satlink/satlink/cli/flags"
	"github.com/satlink/satlink/common/multierror"
	"github.com/satlink/satlink/common/pflagenv"
	"github.com/satlink/satlink/version"
)

const (
	envPrefix = "SATLINK_"
)

// Commands. At most one may be given; the console can follow any of them.
var (
	listFlag     = flag.BoolP("list", "l", false, "List available devices")
	consoleFlag  = flag.BoolP("console", "c", false, "Run the debug console, after the command if one is given")
	downloadFile = flag.StringP("download", "d", "", "Download target memory to a file: -d FILE ADDRESS SIZE")
	uploadFile   = flag.StringP("upload", "u", "", "Upload a file to target memory: -u FILE ADDRESS")
	execFile     = flag.StringP("exec", "x", "", "Upload a program and execute it: -x FILE ADDRESS")
	runAddr      = flag.StringP("run", "r", "", "Jump to code already in target memory: -r ADDRESS")
	dumpFile     = flag.String("dump", "", "Dump the BIOS to a file")
	fwVersion    = flag.Bool("fw-version", false, "Print the version of the cart firmware")

	resetFlags = flag.String("reset-flags", "0", "Memory cleared before a program sent with --exec starts: 1 high RAM, 2 low RAM, 3 both")

	versionFlag = flag.Bool("version", false, "Print version and exit")
	helpFull    = flag.Bool("helpfull", false, "Show full help, including advanced flags")
)

func main() {
	os.Args = preprocessArgs(os.Args)
	initFlags()
	flag.Parse()
	// glog complains unless the standard flag set is marked as parsed.
	goflag.CommandLine.Parse(nil)
	glog.V(1).Infof("%s", version.GetUserAgent())

	if err := loadSettings(); err != nil {
		fail(err)
	}

	if *helpFull {
		unhideFlags()
		usage()
		return
	} else if *versionFlag {
		fmt.Printf(
			"%s\nVersion: %s\nBuild ID: %s\n",
			"Saturn dev cart link tool", version.Version, version.GetBuildId(),
		)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		cancel()
		fail(err)
	}
}

func fail(err error) {
	glog.Infof("Error: %+v", err)
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	glog.Flush()
	os.Exit(1)
}

// loadSettings fills flags not given on the command line, first from the
// environment and then from the profile.
func loadSettings() error {
	set, err := pflagenv.Parse(envPrefix)
	if err != nil {
		return errors.Annotatef(err, "environment")
	}
	if len(set) > 0 {
		glog.V(1).Infof("From environment: %v", set)
	}
	p, err := config.Load(*flags.Config)
	if err != nil {
		return errors.Trace(err)
	}
	set, err = config.Apply(flag.CommandLine, p)
	if err != nil {
		return errors.Trace(err)
	}
	if len(set) > 0 {
		glog.V(1).Infof("From profile: %v", set)
	}
	return nil
}

func run(ctx context.Context) error {
	cmd, err := selectCommand(flag.Args())
	if err != nil {
		usage()
		return errors.Trace(err)
	}
	if cmd == nil && !*consoleFlag {
		usage()
		return errors.Errorf("no command given")
	}
	if cmd != nil && cmd.local != nil {
		return errors.Trace(cmd.local())
	}

	c, l, err := devutil.CreateClientFromFlags()
	if err != nil {
		return errors.Trace(err)
	}
	if cmd != nil {
		cctx, cancel := context.WithTimeout(ctx, *flags.Timeout)
		err = cmd.handler(cctx, c)
		cancel()
		if err != nil {
			err = errors.Annotatef(err, "%s", cmd.name)
		}
	}
	if err == nil && *consoleFlag {
		err = console(ctx, l, os.Stdout)
	}
	if cerr := l.Close(); cerr != nil {
		err = multierror.Append(err, errors.Annotatef(cerr, "close"))
	}
	return err
}
