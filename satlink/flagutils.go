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
	goflag "flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	flag "github.com/spf13/pflag"

	"github.com/satlink/satlink/version"
)

var (
	hiddenFlags = []string{
		"alsologtostderr",
		"log_backtrace_at",
		"log_dir",
		"logbufsecs",
		"logtostderr",
		"stderrthreshold",
		"log-v",
		"vmodule",
		"io-timeout",
		"latency",
		"helpfull",
	}

	// Long options also accepted with a single dash.
	singleDashFlags = []string{"dump", "help"}
)

// initFlags bridges the standard flag set, where glog keeps its flags, into
// pflag. glog's -v is renamed to --log-v, -v selects the vendor ID.
func initFlags() {
	goflag.CommandLine.VisitAll(func(gf *goflag.Flag) {
		pf := flag.PFlagFromGoFlag(gf)
		if gf.Name == "v" {
			pf.Name = "log-v"
			pf.Shorthand = ""
		}
		flag.CommandLine.AddFlag(pf)
	})
	hideFlags()
	flag.Usage = usage
}

func hideFlags() {
	for _, f := range hiddenFlags {
		flag.CommandLine.MarkHidden(f)
	}
}

func unhideFlags() {
	for _, f := range hiddenFlags {
		f := flag.Lookup(f)
		if f != nil {
			f.Hidden = false
		}
	}
}

// preprocessArgs turns -dump and -help into their double-dash forms, which
// pflag would otherwise read as a group of shorthands.
func preprocessArgs(args []string) []string {
	res := make([]string, 0, len(args))
	for i, a := range args {
		if a == "--" {
			return append(res, args[i:]...)
		}
		for _, name := range singleDashFlags {
			if a == "-"+name || strings.HasPrefix(a, "-"+name+"=") {
				a = "-" + a
				break
			}
		}
		res = append(res, a)
	}
	return res
}

func usage() {
	w := tabwriter.NewWriter(os.Stderr, 0, 0, 1, ' ', 0)
	prog := filepath.Base(os.Args[0])

	fmt.Fprintf(w, "Saturn dev cart link tool %s.\n\n", version.Version)
	fmt.Fprintf(w, "Usage: %s [options] [command]\n", prog)
	fmt.Fprintf(w, "\nCommands:\n")
	fmt.Fprintf(w, "  -d FILE ADDRESS SIZE\tDownload target memory to a file\n")
	fmt.Fprintf(w, "  -u FILE ADDRESS\tUpload a file to target memory\n")
	fmt.Fprintf(w, "  -x FILE ADDRESS\tUpload a program and execute it\n")
	fmt.Fprintf(w, "  -r ADDRESS\tJump to code already in target memory\n")
	fmt.Fprintf(w, "  -dump FILE\tDump the BIOS to a file\n")
	fmt.Fprintf(w, "  --fw-version\tPrint the cart firmware version\n")
	fmt.Fprintf(w, "  -l\tList available devices\n")
	fmt.Fprintf(w, "  -c\tRun the debug console\n")
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  %s -d data.bin 0x200000 0x10000\n", prog)
	fmt.Fprintf(w, "  %s -u data.bin 0x200000\n", prog)
	fmt.Fprintf(w, "  %s -x prog.bin 0x6004000 -c\n", prog)
	fmt.Fprintf(w, "  %s --port tcp://localhost:5555 -dump bios.bin\n", prog)
	fmt.Fprintf(w, "\nOptions:\n")
	fmt.Fprint(w, flag.CommandLine.FlagUsages())
	fmt.Fprintf(w, "\nAny option can also be set with the %s<OPTION> environment variable.\n", envPrefix)

	w.Flush()
}
