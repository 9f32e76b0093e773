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
package devutil

import (
	"strings"

	"github.com/juju/errors"

	"github.com/satlink/satlink/cli/flags"
	"github.com/satlink/satlink/cli/link"
	"github.com/satlink/satlink/cli/ourutil"
)

var defaultPort string

// GetPort resolves --port, looking up the serial port of the cart when it is
// set to "auto".
func GetPort(opts *link.Options) (string, error) {
	if !strings.EqualFold(*flags.Port, link.PortAuto) {
		return *flags.Port, nil
	}
	if defaultPort == "" {
		p, err := link.DetectPort(opts)
		if err != nil {
			return "", errors.Annotatef(err, "--port not specified and none were found")
		}
		defaultPort = p
		ourutil.Reportf("Using port %s", defaultPort)
	}
	return defaultPort, nil
}
