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
	"io/ioutil"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"
	flag "github.com/spf13/pflag"

	"github.com/satlink/satlink/cli/ourutil"
	"github.com/satlink/satlink/common/pflagenv"
	"github.com/satlink/satlink/target/memory"
	"github.com/satlink/satlink/target/monitor"
	"github.com/satlink/satlink/version"
)

const (
	envPrefix = "SATSIM_"
)

var (
	listen         = flag.String("listen", ":5555", "Address to accept host connections on")
	protocol       = flag.String("protocol", protocolModern, "Protocol to serve: modern or legacy")
	pollInterval   = flag.Duration("poll-interval", time.Millisecond, "Pause between polls while idle")
	ioTimeout      = flag.Duration("io-timeout", 5*time.Millisecond, "Timeout of a single read or write on the connection")
	commandTimeout = flag.Duration("command-timeout", 10*time.Second, "Abandon a command that takes longer than this")
	execBuffer     = flag.String("exec-buffer", fmt.Sprintf("0x%08x", monitor.DefaultExecBuffer), "Where programs for other banks are staged")
	biosFile       = flag.String("bios", "", "BIOS image to map at 0x00000000")
	versionFlag    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	flag.Parse()
	goflag.CommandLine.Parse(nil)
	glog.V(1).Infof("%s", version.GetUserAgent())

	if *versionFlag {
		fmt.Printf(
			"%s\nVersion: %s\nBuild ID: %s\n",
			"Saturn dev cart simulator", version.Version, version.GetBuildId(),
		)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		glog.Infof("Error: %+v", err)
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		glog.Flush()
		os.Exit(1)
	}
}

func newServer() (*Server, error) {
	if _, err := pflagenv.Parse(envPrefix); err != nil {
		return nil, errors.Annotatef(err, "environment")
	}
	if *protocol != protocolModern && *protocol != protocolLegacy {
		return nil, errors.Errorf("unknown protocol %q", *protocol)
	}
	eb, err := ourutil.ParseUint32(*execBuffer, "exec buffer address")
	if err != nil {
		return nil, errors.Trace(err)
	}
	var bios []byte
	if *biosFile != "" {
		if bios, err = ioutil.ReadFile(*biosFile); err != nil {
			return nil, errors.Annotatef(err, "failed to read BIOS")
		}
	}
	exec := &memory.Recorder{}
	exec.OnJump = func(addr uint32) {
		ourutil.Reportf("Program started at 0x%08x", addr)
	}
	return &Server{
		Mem:      memory.NewSaturnRAM(bios),
		Exec:     exec,
		Protocol: *protocol,
		Monitor: monitor.Config{
			ExecBuffer:     eb,
			CommandTimeout: *commandTimeout,
		},
		PollInterval: *pollInterval,
		IOTimeout:    *ioTimeout,
	}, nil
}

func run(ctx context.Context) error {
	s, err := newServer()
	if err != nil {
		return errors.Trace(err)
	}
	l, err := net.Listen("tcp", *listen)
	if err != nil {
		return errors.Annotatef(err, "failed to listen on %s", *listen)
	}
	ourutil.Reportf("Serving the %s protocol on %s", s.Protocol, l.Addr())
	return errors.Trace(s.Serve(ctx, l))
}
